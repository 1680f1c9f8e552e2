package domain

import (
	"strconv"
	"strings"
	"time"
)

// CacheTTL is how long a lookup result stays valid
const CacheTTL = 30 * 24 * time.Hour

// ItemClass identifies one of the two tracked kinds of catalog item
type ItemClass string

const (
	ClassMovies ItemClass = "movies"
	ClassSeries ItemClass = "series"
)

// Provider id keys as returned in SearchResult.ProviderIDs
const (
	ProviderTmdb = "Tmdb"
	ProviderTvdb = "Tvdb"
)

// ProviderKey returns the external id a lookup for this class resolves to
func (c ItemClass) ProviderKey() string {
	if c == ClassSeries {
		return ProviderTvdb
	}
	return ProviderTmdb
}

func (c ItemClass) Valid() bool {
	return c == ClassMovies || c == ClassSeries
}

// CacheEntry is one cached lookup result. A nil ProviderID records that the
// lookup completed but found nothing.
type CacheEntry struct {
	ProviderID *int      `json:"providerId"`
	LookupDate time.Time `json:"lookupDate"`
}

// NewCacheEntry creates an entry stamped with the given lookup time in UTC
func NewCacheEntry(providerID *int, now time.Time) CacheEntry {
	return CacheEntry{ProviderID: providerID, LookupDate: now.UTC()}
}

// IsExpired reports whether the entry is older than CacheTTL
func (e CacheEntry) IsExpired() bool {
	return e.IsExpiredAt(time.Now().UTC())
}

func (e CacheEntry) IsExpiredAt(now time.Time) bool {
	return now.Sub(e.LookupDate) > CacheTTL
}

// CacheKey builds the lookup key from a title and optional year.
// "The Matrix", 1999 -> "the matrix|1999"; without a year -> "the matrix|".
func CacheKey(title string, year *int) string {
	y := ""
	if year != nil {
		y = strconv.Itoa(*year)
	}
	return strings.ToLower(title) + "|" + y
}

// CacheSnapshot is the persisted form of the lookup cache
type CacheSnapshot struct {
	Movies map[string]CacheEntry `json:"movies"`
	Series map[string]CacheEntry `json:"series"`
}

func NewCacheSnapshot() *CacheSnapshot {
	return &CacheSnapshot{
		Movies: map[string]CacheEntry{},
		Series: map[string]CacheEntry{},
	}
}

// Normalize replaces missing members with empty maps
func (s *CacheSnapshot) Normalize() {
	if s.Movies == nil {
		s.Movies = map[string]CacheEntry{}
	}
	if s.Series == nil {
		s.Series = map[string]CacheEntry{}
	}
}

// Entries returns the map for the given class
func (s *CacheSnapshot) Entries(class ItemClass) map[string]CacheEntry {
	if class == ClassSeries {
		return s.Series
	}
	return s.Movies
}

// CacheStats summarises the in-memory lookup cache
type CacheStats struct {
	Movies  int `json:"movies" yaml:"movies"`
	Series  int `json:"series" yaml:"series"`
	Expired int `json:"expired" yaml:"expired"`
}
