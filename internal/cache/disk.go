package cache

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/klauspost/compress/zstd"
)

const diskExt = ".pcm.zst"

// DiskCache is the L2 tier: one zstd-compressed file per entry. The file
// modification time doubles as the last access time, so recency survives
// restarts without a separate index.
type DiskCache struct {
	dir      string
	capacity int64 // bytes on disk; 0 = unbounded

	encoder *zstd.Encoder
	decoder *zstd.Decoder

	mu    sync.Mutex
	index map[string]*diskEntry
	size  int64
	stats Stats
}

type diskEntry struct {
	size       int64
	lastAccess time.Time
}

// NewDiskCache opens (creating if needed) a disk cache in dir and indexes
// the entries already there.
func NewDiskCache(dir string, capacity int64) (*DiskCache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd encoder: %w", err)
	}
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		_ = encoder.Close()
		return nil, fmt.Errorf("failed to create zstd decoder: %w", err)
	}

	dc := &DiskCache{
		dir:      dir,
		capacity: max(capacity, 0),
		encoder:  encoder,
		decoder:  decoder,
		index:    make(map[string]*diskEntry),
		stats:    Stats{Level: LevelDisk, Capacity: max(capacity, 0)},
	}
	if err := dc.scan(); err != nil {
		dc.Close()
		return nil, err
	}
	return dc, nil
}

// Dir returns the cache directory.
func (dc *DiskCache) Dir() string {
	return dc.dir
}

// Get reads and decompresses the entry for key. Unreadable entries are
// removed and reported as misses along with the error.
func (dc *DiskCache) Get(key string) ([]byte, bool, error) {
	dc.mu.Lock()
	defer dc.mu.Unlock()

	entry, ok := dc.index[key]
	if !ok {
		dc.stats.Misses++
		return nil, false, nil
	}

	path := dc.path(key)
	data, err := os.ReadFile(path)
	if err != nil {
		dc.drop(key, entry)
		dc.stats.Misses++
		if errors.Is(err, os.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("read cache entry: %w", err)
	}

	pcm, err := dc.decoder.DecodeAll(data, nil)
	if err != nil {
		dc.drop(key, entry)
		dc.stats.Misses++
		return nil, false, fmt.Errorf("%w: %s: %w", ErrCacheCorrupted, key, err)
	}

	now := time.Now()
	entry.lastAccess = now
	_ = os.Chtimes(path, now, now)
	dc.stats.Hits++
	return pcm, true, nil
}

// Put compresses and stores value under key, evicting the least recently
// used entries until it fits.
func (dc *DiskCache) Put(key string, value []byte) error {
	data := dc.encoder.EncodeAll(value, nil)
	size := int64(len(data))

	dc.mu.Lock()
	defer dc.mu.Unlock()

	if dc.capacity > 0 && size > dc.capacity {
		return ErrItemTooLarge
	}
	if existing, ok := dc.index[key]; ok {
		dc.drop(key, existing)
	}
	for dc.capacity > 0 && dc.size+size > dc.capacity && len(dc.index) > 0 {
		dc.evictOldest()
	}

	if err := writeFile(dc.path(key), data); err != nil {
		return fmt.Errorf("failed to write cache file: %w", err)
	}
	dc.index[key] = &diskEntry{size: size, lastAccess: time.Now()}
	dc.size += size
	return nil
}

// Contains reports whether key is on disk.
func (dc *DiskCache) Contains(key string) bool {
	dc.mu.Lock()
	defer dc.mu.Unlock()
	_, ok := dc.index[key]
	return ok
}

// RemoveOlderThan drops entries not accessed since cutoff and returns how
// many were removed.
func (dc *DiskCache) RemoveOlderThan(cutoff time.Time) int {
	dc.mu.Lock()
	defer dc.mu.Unlock()

	removed := 0
	for key, entry := range dc.index {
		if entry.lastAccess.Before(cutoff) {
			dc.drop(key, entry)
			removed++
		}
	}
	return removed
}

// Clear deletes every entry file.
func (dc *DiskCache) Clear() error {
	dc.mu.Lock()
	defer dc.mu.Unlock()

	var errs []error
	for key := range dc.index {
		if err := os.Remove(dc.path(key)); err != nil && !errors.Is(err, os.ErrNotExist) {
			errs = append(errs, err)
		}
	}
	dc.index = make(map[string]*diskEntry)
	dc.size = 0
	return errors.Join(errs...)
}

// Stats returns a snapshot of the tier counters.
func (dc *DiskCache) Stats() Stats {
	dc.mu.Lock()
	defer dc.mu.Unlock()
	s := dc.stats
	s.Entries = len(dc.index)
	s.Bytes = dc.size
	return s
}

// Close releases the zstd coders.
func (dc *DiskCache) Close() error {
	dc.decoder.Close()
	return dc.encoder.Close()
}

func (dc *DiskCache) path(key string) string {
	return filepath.Join(dc.dir, key+diskExt)
}

// scan rebuilds the index from the directory listing and removes leftover
// temporary files.
func (dc *DiskCache) scan() error {
	entries, err := os.ReadDir(dc.dir)
	if err != nil {
		return fmt.Errorf("failed to read cache directory: %w", err)
	}
	for _, e := range entries {
		name := e.Name()
		if strings.HasSuffix(name, ".tmp") {
			_ = os.Remove(filepath.Join(dc.dir, name))
			continue
		}
		if e.IsDir() || !strings.HasSuffix(name, diskExt) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		key := strings.TrimSuffix(name, diskExt)
		dc.index[key] = &diskEntry{size: info.Size(), lastAccess: info.ModTime()}
		dc.size += info.Size()
	}
	return nil
}

// evictOldest removes the least recently accessed entry. Callers hold mu.
func (dc *DiskCache) evictOldest() {
	var oldest string
	var oldestEntry *diskEntry
	for key, entry := range dc.index {
		if oldestEntry == nil || entry.lastAccess.Before(oldestEntry.lastAccess) {
			oldest, oldestEntry = key, entry
		}
	}
	if oldestEntry != nil {
		dc.drop(oldest, oldestEntry)
		dc.stats.Evictions++
	}
}

// drop forgets key and deletes its file. Callers hold mu.
func (dc *DiskCache) drop(key string, entry *diskEntry) {
	_ = os.Remove(dc.path(key))
	delete(dc.index, key)
	dc.size -= entry.size
}

// writeFile writes to a temporary file and renames it into place.
func writeFile(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, path)
}
