package util

import "golang.org/x/sys/unix"

func modTime(st *unix.Stat_t) int64 {
	sec, _ := st.Mtim.Unix()
	return sec
}
