package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/bytedance/sonic"

	"github.com/Intrinsec/mactime/internal/data/parser"
	"github.com/Intrinsec/mactime/internal/util"
)

type CacheMissReason int

const (
	MissReasonNone CacheMissReason = iota
	MissReasonError
	MissReasonInode
	MissReasonSize
	MissReasonModTime
	MissReasonFingerprint
	MissReasonNoFingerprint
	MissReasonNotFound
	MissReasonPathMismatch
)

func (r CacheMissReason) String() string {
	switch r {
	case MissReasonNone:
		return "none"
	case MissReasonError:
		return "Cache read error"
	case MissReasonInode:
		return "File inode changed"
	case MissReasonSize:
		return "File size changed"
	case MissReasonModTime:
		return "Modification time changed"
	case MissReasonFingerprint:
		return "File fingerprint changed"
	case MissReasonNoFingerprint:
		return "Cached file has no fingerprint"
	case MissReasonNotFound:
		return "Cache not found"
	case MissReasonPathMismatch:
		return "Cached entry belongs to another file"
	default:
		return "Unknown reason"
	}
}

// ParsedBodyfile is the cached parse of one bodyfile together with the
// identity of the file it was read from.
type ParsedBodyfile struct {
	FilePath           string              `json:"file_path"`
	Inode              uint64              `json:"inode"`
	FileSize           int64               `json:"file_size"`
	LastModified       int64               `json:"last_modified"`
	ContentFingerprint string              `json:"content_fingerprint"`
	Result             *parser.ParseResult `json:"result"`
}

type CacheResult struct {
	Data       *ParsedBodyfile
	Found      bool
	MissReason CacheMissReason
}

type Cache interface {
	Get(path string) CacheResult
	Set(path string, identity *FileIdentity, result *parser.ParseResult) error
	Clear() error
	GetCacheStats() (memoryCount, fileCount int)
}

// FileIdentity is the on-disk state of a bodyfile at one point in time.
type FileIdentity struct {
	Path        string
	Inode       uint64
	Size        int64
	ModTime     int64
	Fingerprint string
}

// Snapshot reads the identity of the file at path. It must be taken before
// the file is parsed so that a file written to during the parse is stored
// under its older identity and invalidated by the next Get.
func Snapshot(path string) (*FileIdentity, error) {
	abs := absPath(path)

	fileInfo, err := util.GetFileInfo(abs)
	if err != nil {
		return nil, err
	}
	fingerprint, err := util.CalculateFileFingerprint(abs)
	if err != nil {
		return nil, fmt.Errorf("failed to fingerprint %s: %w", abs, err)
	}

	return &FileIdentity{
		Path:        abs,
		Inode:       fileInfo.Inode,
		Size:        fileInfo.Size,
		ModTime:     fileInfo.ModTime,
		Fingerprint: fingerprint,
	}, nil
}

type FileCache struct {
	baseDir     string
	mu          sync.RWMutex
	memoryCache map[string]*ParsedBodyfile
}

func NewFileCache(baseDir string) (*FileCache, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, err
	}

	return &FileCache{
		baseDir:     baseDir,
		memoryCache: make(map[string]*ParsedBodyfile),
	}, nil
}

// cacheKey derives the cache file name from the absolute bodyfile path.
func cacheKey(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	sum := sha256.Sum256([]byte(abs))
	return hex.EncodeToString(sum[:16])
}

func absPath(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	return abs
}

func (c *FileCache) cachePath(key string) string {
	return filepath.Join(c.baseDir, key+".json")
}

func (c *FileCache) Get(path string) CacheResult {
	key := cacheKey(path)

	c.mu.Lock()
	defer c.mu.Unlock()

	// First, check memory cache
	if memData, exists := c.memoryCache[key]; exists {
		if ret := c.validateCachedData(memData, path); ret.cached {
			return CacheResult{Data: memData, Found: true, MissReason: MissReasonNone}
		}
		delete(c.memoryCache, key)
	}

	return c.getFromFile(key, path)
}

func (c *FileCache) getFromFile(key, path string) CacheResult {
	raw, err := os.ReadFile(c.cachePath(key))
	if err != nil {
		return CacheResult{MissReason: MissReasonNotFound}
	}

	var data ParsedBodyfile
	if err := sonic.Unmarshal(raw, &data); err != nil || data.Result == nil {
		util.LogDebugf("Cache entry %s is unreadable: %v", key, err)
		return CacheResult{MissReason: MissReasonError}
	}

	if ret := c.validateCachedData(&data, path); !ret.cached {
		return CacheResult{MissReason: ret.reason}
	}

	c.memoryCache[key] = &data

	return CacheResult{Data: &data, Found: true, MissReason: MissReasonNone}
}

type ValidateResult struct {
	cached bool
	reason CacheMissReason
}

func (c *FileCache) validateCachedData(data *ParsedBodyfile, path string) ValidateResult {
	if data.FilePath != absPath(path) {
		return ValidateResult{cached: false, reason: MissReasonPathMismatch}
	}

	currentInfo, err := util.GetFileInfo(data.FilePath)
	if err != nil {
		util.LogDebugf("Cache validation failed for %s: unable to get file info: %v", data.FilePath, err)
		return ValidateResult{cached: false, reason: MissReasonError}
	}

	// Step 1: Check inode/size/modtime
	if currentInfo.Inode != data.Inode {
		util.LogDebugf("Cache invalidated for %s: inode changed (cached: %d, current: %d)",
			data.FilePath, data.Inode, currentInfo.Inode)
		return ValidateResult{cached: false, reason: MissReasonInode}
	}
	if currentInfo.Size != data.FileSize {
		util.LogDebugf("Cache invalidated for %s: size changed (cached: %d, current: %d)",
			data.FilePath, data.FileSize, currentInfo.Size)
		return ValidateResult{cached: false, reason: MissReasonSize}
	}
	if currentInfo.ModTime != data.LastModified {
		util.LogDebugf("Cache invalidated for %s: modtime changed (cached: %d, current: %d)",
			data.FilePath, data.LastModified, currentInfo.ModTime)
		return ValidateResult{cached: false, reason: MissReasonModTime}
	}

	// Step 2: Check content fingerprint
	if data.ContentFingerprint == "" {
		util.LogDebugf("Cache invalidated for %s: no fingerprint in cached data", data.FilePath)
		return ValidateResult{cached: false, reason: MissReasonNoFingerprint}
	}

	fingerprint, err := util.CalculateFileFingerprint(data.FilePath)
	if err != nil {
		util.LogDebugf("Cache invalidated for %s: unable to calculate fingerprint: %v", data.FilePath, err)
		return ValidateResult{cached: false, reason: MissReasonNoFingerprint}
	}
	if fingerprint != data.ContentFingerprint {
		util.LogDebugf("Cache invalidated for %s: fingerprint mismatch (cached: %s, current: %s)",
			data.FilePath, data.ContentFingerprint, fingerprint)
		return ValidateResult{cached: false, reason: MissReasonFingerprint}
	}

	return ValidateResult{cached: true, reason: MissReasonNone}
}

// Set stores the parse result of the bodyfile at path under the identity
// the file had before it was parsed.
func (c *FileCache) Set(path string, identity *FileIdentity, result *parser.ParseResult) error {
	key := cacheKey(path)
	abs := absPath(path)

	if identity == nil || identity.Path != abs {
		return fmt.Errorf("no identity snapshot for %s", abs)
	}

	data := &ParsedBodyfile{
		FilePath:           abs,
		Inode:              identity.Inode,
		FileSize:           identity.Size,
		LastModified:       identity.ModTime,
		ContentFingerprint: identity.Fingerprint,
		Result:             result,
	}

	raw, err := sonic.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to encode cache entry: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	// Write to a temp file and rename so readers never see a partial entry
	tmp := c.cachePath(key) + ".tmp"
	if err := os.WriteFile(tmp, raw, 0644); err != nil {
		return err
	}
	if err := os.Rename(tmp, c.cachePath(key)); err != nil {
		os.Remove(tmp)
		return err
	}

	c.memoryCache[key] = data
	return nil
}

// Clear removes every cache entry from memory and disk.
func (c *FileCache) Clear() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.memoryCache = make(map[string]*ParsedBodyfile)

	entries, err := os.ReadDir(c.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		switch filepath.Ext(entry.Name()) {
		case ".json", ".tmp":
			if err := os.Remove(filepath.Join(c.baseDir, entry.Name())); err != nil {
				return err
			}
		}
	}
	return nil
}

// GetCacheStats returns the number of entries in memory and on disk.
func (c *FileCache) GetCacheStats() (memoryCount, fileCount int) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	memoryCount = len(c.memoryCache)

	entries, err := os.ReadDir(c.baseDir)
	if err != nil {
		return memoryCount, 0
	}
	for _, entry := range entries {
		if !entry.IsDir() && filepath.Ext(entry.Name()) == ".json" {
			fileCount++
		}
	}
	return memoryCount, fileCount
}
