package cache

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/learnlink/learnlink/tts"
)

// Manager coordinates the memory and disk tiers. Reads check memory first
// and promote disk hits; writes land in memory at once and on disk in the
// background.
type Manager struct {
	config tts.CacheConfig
	logger *log.Logger

	memory *MemoryCache
	disk   *DiskCache

	writes sync.WaitGroup

	mu         sync.Mutex
	promotions int64
	pruned     int
}

// Summary aggregates the statistics of both tiers.
type Summary struct {
	Dir        string
	Memory     Stats
	Disk       Stats
	Promotions int64
	Pruned     int // expired entries removed when the cache was opened
}

// HitRate returns the combined hit rate. A memory miss that hits disk
// counts once, as a hit.
func (s Summary) HitRate() float64 {
	hits := s.Memory.Hits + s.Disk.Hits
	total := hits + s.Disk.Misses
	if total == 0 {
		return 0
	}
	return float64(hits) / float64(total)
}

// DefaultDir returns the disk cache directory used when none is configured.
func DefaultDir() (string, error) {
	dir, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("failed to locate user cache directory: %w", err)
	}
	return filepath.Join(dir, "learnlink", "audio"), nil
}

// NewManager opens the cache described by config and drops entries older
// than config.TTL.
func NewManager(config tts.CacheConfig, logger *log.Logger) (*Manager, error) {
	if logger == nil {
		logger = log.Default().WithPrefix("cache")
	}
	if config.Dir == "" {
		dir, err := DefaultDir()
		if err != nil {
			return nil, err
		}
		config.Dir = dir
	}

	disk, err := NewDiskCache(config.Dir, config.MaxDiskSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create disk cache: %w", err)
	}

	m := &Manager{
		config: config,
		logger: logger,
		memory: NewMemoryCache(config.MemoryEntries),
		disk:   disk,
	}
	if config.TTL > 0 {
		m.pruned = disk.RemoveOlderThan(time.Now().Add(-config.TTL))
		if m.pruned > 0 {
			logger.Debug("Pruned expired cache entries", "count", m.pruned, "ttl", config.TTL)
		}
	}
	return m, nil
}

// Get looks key up in memory, then on disk.
func (m *Manager) Get(key string) ([]byte, bool) {
	if data, ok := m.memory.Get(key); ok {
		return data, true
	}

	data, ok, err := m.disk.Get(key)
	if err != nil {
		m.logger.Warn("Dropped unreadable cache entry", "key", key, "error", err)
	}
	if !ok {
		return nil, false
	}

	m.memory.Put(key, data)
	m.mu.Lock()
	m.promotions++
	m.mu.Unlock()
	return data, true
}

// Put stores value under key. The disk write happens asynchronously; Close
// waits for pending writes.
func (m *Manager) Put(key string, value []byte) {
	m.memory.Put(key, value)

	m.writes.Add(1)
	go func() {
		defer m.writes.Done()
		if err := m.disk.Put(key, value); err != nil && !errors.Is(err, ErrItemTooLarge) {
			m.logger.Warn("Failed to write cache entry", "key", key, "error", err)
		}
	}()
}

// Contains reports whether key is cached in either tier.
func (m *Manager) Contains(key string) bool {
	return m.memory.Contains(key) || m.disk.Contains(key)
}

// Flush waits for pending disk writes.
func (m *Manager) Flush() {
	m.writes.Wait()
}

// Clear empties both tiers.
func (m *Manager) Clear() error {
	m.writes.Wait()
	m.memory.Clear()
	if err := m.disk.Clear(); err != nil {
		return fmt.Errorf("clear disk cache: %w", err)
	}
	return nil
}

// Stats returns a snapshot of both tiers.
func (m *Manager) Stats() Summary {
	m.mu.Lock()
	promotions, pruned := m.promotions, m.pruned
	m.mu.Unlock()
	return Summary{
		Dir:        m.disk.Dir(),
		Memory:     m.memory.Stats(),
		Disk:       m.disk.Stats(),
		Promotions: promotions,
		Pruned:     pruned,
	}
}

// Close flushes pending writes and releases the disk tier.
func (m *Manager) Close() error {
	m.writes.Wait()
	if err := m.disk.Close(); err != nil {
		return fmt.Errorf("failed to close disk cache: %w", err)
	}
	return nil
}
