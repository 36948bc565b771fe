package store

import (
	"context"
	"encoding/gob"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

const cacheVersion = "v1"

// CachedLoader keeps a gob snapshot of a parsed CSV source and reuses it while
// no source file is newer than the snapshot.
type CachedLoader struct {
	source *CSVSource
	dir    string
	logger *slog.Logger
}

func NewCachedLoader(source *CSVSource, dir string, logger *slog.Logger) *CachedLoader {
	if logger == nil {
		logger = slog.Default()
	}
	return &CachedLoader{source: source, dir: dir, logger: logger}
}

func (c *CachedLoader) Load(ctx context.Context) (*Dataset, error) {
	if cached, err := c.loadFromCache(); err == nil {
		c.logger.Info("loaded dataset from cache", "file", c.filename(), "orders", len(cached.Orders))
		return cached, nil
	} else if !os.IsNotExist(err) {
		c.logger.Debug("cache not used", "error", err)
	}

	ds, err := c.source.Load(ctx)
	if err != nil {
		return nil, err
	}

	if err := c.saveToCache(ds); err != nil {
		c.logger.Warn("failed to save cache", "error", err)
	}
	return ds, nil
}

func (c *CachedLoader) filename() string {
	key := strings.ReplaceAll(filepath.Clean(c.source.Dir), string(filepath.Separator), "_")
	return filepath.Join(c.dir, fmt.Sprintf("%s_%s.gob", key, cacheVersion))
}

func (c *CachedLoader) saveToCache(ds *Dataset) error {
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(c.dir, "snapshot-*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if err := gob.NewEncoder(tmp).Encode(ds); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), c.filename())
}

func (c *CachedLoader) loadFromCache() (*Dataset, error) {
	info, err := os.Stat(c.filename())
	if err != nil {
		return nil, err
	}

	newest, err := c.source.ModTime()
	if err != nil {
		return nil, err
	}
	if !newest.Before(info.ModTime()) {
		return nil, ErrCacheStale
	}

	f, err := os.Open(c.filename())
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var ds Dataset
	if err := gob.NewDecoder(f).Decode(&ds); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return &ds, nil
}
