package cache

import (
	"errors"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
)

// ErrItemTooLarge is returned when an item exceeds the cache capacity.
var ErrItemTooLarge = errors.New("item too large for cache")

// Level identifies a cache tier.
type Level int

const (
	// LevelMemory holds decoded audio ready to play.
	LevelMemory Level = iota
	// LevelDisk holds downloaded bytes across restarts.
	LevelDisk
)

// String returns the string representation of the cache level.
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

// Stats holds cache performance metrics.
type Stats struct {
	Level     Level
	Capacity  int64 // bytes
	Size      int64 // bytes
	ItemCount int64

	Hits      int64
	Misses    int64
	Evictions int64
	HitRate   float64

	LastAccess time.Time
	LastEvict  time.Time
}

func (s *Stats) updateHitRate() {
	if s.Hits+s.Misses > 0 {
		s.HitRate = float64(s.Hits) / float64(s.Hits+s.Misses)
	}
}

// String renders a one-line summary, e.g. "memory: 3 items, 1.2 MB / 64 MB".
func (s Stats) String() string {
	return fmt.Sprintf("%s: %d items, %s / %s",
		s.Level, s.ItemCount,
		humanize.IBytes(uint64(s.Size)), humanize.IBytes(uint64(s.Capacity)))
}
