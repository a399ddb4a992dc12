package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/learnlink/learnlink/tts"
)

var (
	// ErrItemTooLarge is returned when an item exceeds a tier's capacity.
	ErrItemTooLarge = errors.New("item too large for cache")

	// ErrCacheCorrupted is returned when a stored entry cannot be decoded.
	ErrCacheCorrupted = errors.New("cache data corrupted")
)

// Level identifies a cache tier.
type Level int

const (
	LevelMemory Level = iota
	LevelDisk
)

func (l Level) String() string {
	switch l {
	case LevelMemory:
		return "memory"
	case LevelDisk:
		return "disk"
	default:
		return "unknown"
	}
}

// Stats holds counters for one tier.
type Stats struct {
	Level     Level
	Entries   int
	Bytes     int64 // bytes held; compressed size for the disk tier
	Capacity  int64 // entries for memory, bytes for disk; 0 = unbounded
	Hits      int64
	Misses    int64
	Evictions int64
}

// HitRate returns hits / (hits + misses), or 0 before any lookup.
func (s Stats) HitRate() float64 {
	if s.Hits+s.Misses == 0 {
		return 0
	}
	return float64(s.Hits) / float64(s.Hits+s.Misses)
}

// Key derives the cache key of an utterance rendered by engine.
func Key(engine, text string, voice tts.VoiceParams) string {
	data := fmt.Sprintf("%s|%s|%s|%.3f|%.3f",
		engine, strings.TrimSpace(text), strings.ToLower(voice.Lang), voice.Pitch, voice.Rate)
	sum := sha256.Sum256([]byte(data))
	return hex.EncodeToString(sum[:])
}
