package domain

import "time"

// Checkpoint is the persisted progress of the catalog sync.
// A zero LastFullSync means a full sync has never completed.
type Checkpoint struct {
	LastFullSync        time.Time `json:"lastFullSync"`
	LastIncrementalSync time.Time `json:"lastIncrementalSync"`

	// SeriesLastModified maps series id to the catalog's last_modified value
	SeriesLastModified map[int]time.Time `json:"seriesLastModified"`

	// MoviesAdded maps stream id to the catalog's added value
	MoviesAdded map[int]time.Time `json:"moviesAdded"`
}

func NewCheckpoint() *Checkpoint {
	return &Checkpoint{
		SeriesLastModified: map[int]time.Time{},
		MoviesAdded:        map[int]time.Time{},
	}
}

// Normalize fills in watermark maps missing from a decoded document
func (c *Checkpoint) Normalize() {
	if c.SeriesLastModified == nil {
		c.SeriesLastModified = map[int]time.Time{}
	}
	if c.MoviesAdded == nil {
		c.MoviesAdded = map[int]time.Time{}
	}
}

// Clone returns a deep copy that can be mutated and handed back to SaveState
func (c *Checkpoint) Clone() *Checkpoint {
	out := &Checkpoint{
		LastFullSync:        c.LastFullSync,
		LastIncrementalSync: c.LastIncrementalSync,
		SeriesLastModified:  make(map[int]time.Time, len(c.SeriesLastModified)),
		MoviesAdded:         make(map[int]time.Time, len(c.MoviesAdded)),
	}
	for k, v := range c.SeriesLastModified {
		out.SeriesLastModified[k] = v
	}
	for k, v := range c.MoviesAdded {
		out.MoviesAdded[k] = v
	}
	return out
}

// IsZero reports whether nothing has ever been recorded
func (c *Checkpoint) IsZero() bool {
	return c.LastFullSync.IsZero() && c.LastIncrementalSync.IsZero() &&
		len(c.SeriesLastModified) == 0 && len(c.MoviesAdded) == 0
}

func (c *Checkpoint) watermarks(class ItemClass) map[int]time.Time {
	c.Normalize()
	if class == ClassSeries {
		return c.SeriesLastModified
	}
	return c.MoviesAdded
}

// Watermark returns the recorded timestamp for an item
func (c *Checkpoint) Watermark(class ItemClass, id int) (time.Time, bool) {
	ts, ok := c.watermarks(class)[id]
	return ts, ok
}

// Changed reports whether an item is unknown or its timestamp moved
func (c *Checkpoint) Changed(class ItemClass, id int, ts time.Time) bool {
	prev, ok := c.Watermark(class, id)
	if !ok {
		return true
	}
	return !prev.Equal(ts)
}

// Record stores the watermark for an item
func (c *Checkpoint) Record(class ItemClass, id int, ts time.Time) {
	c.watermarks(class)[id] = ts.UTC()
}

// Tracked returns how many items of a class have a watermark
func (c *Checkpoint) Tracked(class ItemClass) int {
	return len(c.watermarks(class))
}
