package lookup

import (
	"sync"
	"time"

	"github.com/varoOP/metasync/internal/domain"
)

// entryMap is a concurrency-safe cache key -> entry mapping. Writes to
// different keys never block each other; the last write to a key wins.
type entryMap struct {
	m sync.Map
}

func (e *entryMap) get(key string) (domain.CacheEntry, bool) {
	v, ok := e.m.Load(key)
	if !ok {
		return domain.CacheEntry{}, false
	}
	return v.(domain.CacheEntry), true
}

func (e *entryMap) set(key string, entry domain.CacheEntry) {
	e.m.Store(key, entry)
}

func (e *entryMap) clear() {
	e.m.Clear()
}

// copy returns a point-in-time copy suitable for serialisation
func (e *entryMap) copy() map[string]domain.CacheEntry {
	out := map[string]domain.CacheEntry{}
	e.m.Range(func(k, v any) bool {
		out[k.(string)] = v.(domain.CacheEntry)
		return true
	})
	return out
}

func (e *entryMap) count(now time.Time) (total, expired int) {
	e.m.Range(func(_, v any) bool {
		total++
		if v.(domain.CacheEntry).IsExpiredAt(now) {
			expired++
		}
		return true
	})
	return total, expired
}
