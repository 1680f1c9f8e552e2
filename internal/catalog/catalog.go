// Package catalog reads Xtream-style series and VOD listings and decides
// which entries need processing against the sync checkpoint.
package catalog

import (
	"bytes"
	"encoding/json"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/varoOP/metasync/internal/domain"
)

// Item is one catalog entry. Timestamp is last_modified for series and
// added for movies.
type Item struct {
	ID        int             `json:"id" yaml:"id"`
	Name      string          `json:"name" yaml:"name"`
	Year      *int            `json:"year,omitempty" yaml:"year,omitempty"`
	Timestamp domain.UnixTime `json:"timestamp" yaml:"-"`
}

type seriesEntry struct {
	SeriesID     int             `json:"series_id"`
	Name         string          `json:"name"`
	Year         json.RawMessage `json:"year"`
	ReleaseDate  string          `json:"releaseDate"`
	LastModified domain.UnixTime `json:"last_modified"`
}

type movieEntry struct {
	StreamID    int             `json:"stream_id"`
	Name        string          `json:"name"`
	Year        json.RawMessage `json:"year"`
	ReleaseDate string          `json:"release_date"`
	Added       domain.UnixTime `json:"added"`
}

// ReadSeries decodes a get_series listing
func ReadSeries(r io.Reader) ([]Item, error) {
	var entries []seriesEntry
	if err := json.NewDecoder(r).Decode(&entries); err != nil {
		return nil, errors.Wrap(err, "failed to decode series listing")
	}

	items := make([]Item, 0, len(entries))
	for _, e := range entries {
		if e.SeriesID <= 0 {
			continue
		}
		items = append(items, Item{
			ID:        e.SeriesID,
			Name:      strings.TrimSpace(e.Name),
			Year:      parseYear(e.Year, e.ReleaseDate),
			Timestamp: e.LastModified,
		})
	}
	return items, nil
}

// ReadMovies decodes a get_vod_streams listing
func ReadMovies(r io.Reader) ([]Item, error) {
	var entries []movieEntry
	if err := json.NewDecoder(r).Decode(&entries); err != nil {
		return nil, errors.Wrap(err, "failed to decode movie listing")
	}

	items := make([]Item, 0, len(entries))
	for _, e := range entries {
		if e.StreamID <= 0 {
			continue
		}
		items = append(items, Item{
			ID:        e.StreamID,
			Name:      strings.TrimSpace(e.Name),
			Year:      parseYear(e.Year, e.ReleaseDate),
			Timestamp: e.Added,
		})
	}
	return items, nil
}

// Plan returns the items that need processing. A full sync processes
// everything, an incremental one only items whose timestamp moved.
func Plan(cp *domain.Checkpoint, class domain.ItemClass, items []Item, full bool) []Item {
	if full {
		return append([]Item(nil), items...)
	}

	var changed []Item
	for _, item := range items {
		if cp.Changed(class, item.ID, item.Timestamp.Time) {
			changed = append(changed, item)
		}
	}
	return changed
}

// Commit records the items' timestamps as the new watermarks
func Commit(cp *domain.Checkpoint, class domain.ItemClass, items []Item) {
	for _, item := range items {
		cp.Record(class, item.ID, item.Timestamp.Time)
	}
}

var yearRegexp = regexp.MustCompile(`\b(19|20)\d{2}\b`)

// parseYear reads the year field (number or string), falling back to the
// first year found in the release date
func parseYear(raw json.RawMessage, releaseDate string) *int {
	s := string(bytes.Trim(bytes.TrimSpace(raw), `"`))
	if s == "null" {
		s = ""
	}
	for _, candidate := range []string{s, releaseDate} {
		match := yearRegexp.FindString(candidate)
		if match == "" {
			continue
		}
		if y, err := strconv.Atoi(match); err == nil {
			return &y
		}
	}
	return nil
}
