package monitor

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"

	"github.com/lc/myip/internal/filesys"
	"github.com/lc/myip/internal/log"
	"github.com/lc/myip/pkg/api"
)

// Cache stores the last seen record as JSON.
type Cache struct {
	fs   filesys.FileOps
	path string
}

// NewCache returns a cache file at path on fsys.
func NewCache(fsys filesys.FileOps, path string) *Cache {
	return &Cache{fs: fsys, path: path}
}

// Path returns the cache file location.
func (c *Cache) Path() string { return c.path }

// Load returns the cached record. A missing, unreadable or corrupt cache
// reports false; only the last two are logged.
func (c *Cache) Load() (api.IPRecord, bool) {
	var rec api.IPRecord
	b, err := c.fs.ReadFile(c.path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			log.Warnf("monitor: reading cache %s: %v", c.path, err)
		}
		return rec, false
	}
	if err := json.Unmarshal(b, &rec); err != nil {
		log.Warnf("monitor: ignoring corrupt cache %s: %v", c.path, err)
		return api.IPRecord{}, false
	}
	if rec.IP == "" {
		return api.IPRecord{}, false
	}
	return rec, true
}

// Save replaces the cached record atomically.
func (c *Cache) Save(rec api.IPRecord) error {
	b, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encoding cache: %w", err)
	}
	return filesys.AtomicWrite(c.fs, c.path, b, 0o600)
}
