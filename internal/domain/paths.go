package domain

import "path/filepath"

type DataFile string

const (
	CacheFile    DataFile = "metadata-cache.json"
	StateFile    DataFile = "sync-state.json"
	DatabaseFile DataFile = "metasync.db"
	BoltFile     DataFile = "metasync.bolt"
)

// Paths holds the locations of everything metasync persists
type Paths struct {
	RootDir      string
	CachePath    string
	StatePath    string
	DatabasePath string
	BoltPath     string
}

// NewPaths creates a new Paths instance rooted at <dataDir>/metasync
func NewPaths(dataDir string) *Paths {
	rootDir := filepath.Join(dataDir, "metasync")
	return &Paths{
		RootDir:      rootDir,
		CachePath:    makePath(rootDir, CacheFile),
		StatePath:    makePath(rootDir, StateFile),
		DatabasePath: makePath(rootDir, DatabaseFile),
		BoltPath:     makePath(rootDir, BoltFile),
	}
}

func makePath(rootDir string, f DataFile) string {
	return filepath.Join(rootDir, string(f))
}
