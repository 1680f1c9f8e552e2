package domain

import (
	"bytes"
	"encoding/json"
	"strconv"
	"time"
)

// UnixTime decodes the unix-second timestamps used by Xtream catalogs.
// Providers send integers, numeric strings, empty strings or null; anything
// that is not a number decodes to the zero time.
type UnixTime struct {
	time.Time
}

func (t *UnixTime) UnmarshalJSON(b []byte) error {
	t.Time = time.Time{}

	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return nil
	}

	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return nil
		}
		b = []byte(s)
	}

	secs, err := strconv.ParseInt(string(b), 10, 64)
	if err != nil {
		return nil
	}
	t.Time = time.Unix(secs, 0).UTC()
	return nil
}

func (t UnixTime) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return []byte(strconv.FormatInt(t.Unix(), 10)), nil
}
