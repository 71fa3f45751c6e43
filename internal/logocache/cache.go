// Package logocache stores stream logo assets in a local bbolt database and
// fetches missing ones in the background whenever the stream catalog changes.
package logocache

import (
	"context"
	"errors"
	"fmt"
	"os"
	"net/url"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.etcd.io/bbolt"

	"github.com/five82/tonearm/internal/api"
)

var logosBucket = []byte("logos")

// Fetcher downloads one logo. *api.Client implements it.
type Fetcher interface {
	FetchStreamLogo(ctx context.Context, name string) ([]byte, error)
}

// Cache is a persistent name → logo bytes map.
type Cache struct {
	db      *bbolt.DB
	artDir  string
	fetcher Fetcher
	logger  zerolog.Logger

	mu        sync.RWMutex
	known     map[string]struct{}
	listeners []func(name string)

	requests chan []api.StreamDescriptor
}

// Open opens or creates the database at path.
func Open(path string, fetcher Fetcher, logger zerolog.Logger) (*Cache, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create cache directory: %w", err)
	}
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("could not open logo cache: %w", err)
	}

	known := make(map[string]struct{})
	err = db.Update(func(tx *bbolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(logosBucket)
		if err != nil {
			return err
		}
		return b.ForEach(func(k, _ []byte) error {
			known[string(k)] = struct{}{}
			return nil
		})
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("could not create logos bucket: %w", err)
	}

	return &Cache{
		db:       db,
		artDir:   filepath.Join(filepath.Dir(path), "art"),
		fetcher:  fetcher,
		logger:   logger,
		known:    known,
		requests: make(chan []api.StreamDescriptor, 1),
	}, nil
}

// Has reports whether a logo for name is stored.
func (c *Cache) Has(name string) bool {
	if c == nil {
		return false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.known[name]
	return ok
}

// Get returns the stored logo for name.
func (c *Cache) Get(name string) ([]byte, bool, error) {
	var data []byte
	err := c.db.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket(logosBucket).Get([]byte(name))
		if v != nil {
			data = slices.Clone(v)
		}
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return data, data != nil, nil
}

// ArtURL returns a file URL for the stored logo of name, writing the asset
// under the cache's art directory on first use. It returns "" when no logo
// is stored or the asset cannot be written.
func (c *Cache) ArtURL(name string) string {
	if c == nil || !c.Has(name) {
		return ""
	}
	path := c.artPath(name)
	if _, err := os.Stat(path); err != nil {
		data, ok, err := c.Get(name)
		if err != nil || !ok {
			if err != nil {
				c.logger.Warn().Err(err).Str("stream", name).Msg("logo read failed")
			}
			return ""
		}
		if err := os.MkdirAll(c.artDir, 0o755); err != nil {
			c.logger.Warn().Err(err).Msg("create art directory failed")
			return ""
		}
		if err := os.WriteFile(path, data, 0o644); err != nil {
			c.logger.Warn().Err(err).Str("stream", name).Msg("write logo asset failed")
			return ""
		}
	}
	return (&url.URL{Scheme: "file", Path: path}).String()
}

func (c *Cache) artPath(name string) string {
	return filepath.Join(c.artDir, uuid.NewSHA1(uuid.NameSpaceURL, []byte(name)).String()+".svg")
}

// Put stores a logo and notifies listeners.
func (c *Cache) Put(name string, data []byte) error {
	if name == "" {
		return errors.New("logo name required")
	}
	err := c.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(logosBucket).Put([]byte(name), data)
	})
	if err != nil {
		return fmt.Errorf("store logo %q: %w", name, err)
	}
	// A previously written asset is stale now.
	_ = os.Remove(c.artPath(name))
	c.mu.Lock()
	c.known[name] = struct{}{}
	listeners := slices.Clone(c.listeners)
	c.mu.Unlock()
	for _, fn := range listeners {
		fn(name)
	}
	return nil
}

// OnStored registers fn to be called after each newly stored logo.
func (c *Cache) OnStored(fn func(name string)) {
	if fn == nil {
		return
	}
	c.mu.Lock()
	c.listeners = append(c.listeners, fn)
	c.mu.Unlock()
}

// Missing lists streams that advertise a logo not yet stored.
func (c *Cache) Missing(streams []api.StreamDescriptor) []string {
	var names []string
	for _, s := range streams {
		if s.HasLogo && s.Name != "" && !c.Has(s.Name) && !slices.Contains(names, s.Name) {
			names = append(names, s.Name)
		}
	}
	return names
}

// Sync fetches every missing logo one at a time. Failures are logged and
// skipped. It returns the number of logos stored.
func (c *Cache) Sync(ctx context.Context, streams []api.StreamDescriptor) int {
	stored := 0
	for _, name := range c.Missing(streams) {
		if ctx.Err() != nil {
			return stored
		}
		data, err := c.fetcher.FetchStreamLogo(ctx, name)
		if err != nil {
			c.logger.Warn().Err(err).Str("stream", name).Msg("logo fetch failed")
			continue
		}
		if err := c.Put(name, data); err != nil {
			c.logger.Error().Err(err).Str("stream", name).Msg("logo store failed")
			continue
		}
		stored++
	}
	if stored > 0 {
		c.logger.Debug().Int("stored", stored).Msg("logos cached")
	}
	return stored
}

// Request queues a catalog for the background worker. Only the newest
// pending catalog is kept.
func (c *Cache) Request(streams []api.StreamDescriptor) {
	streams = slices.Clone(streams)
	for {
		select {
		case c.requests <- streams:
			return
		default:
		}
		select {
		case <-c.requests:
		default:
		}
	}
}

// Run serves Request calls until ctx is cancelled.
func (c *Cache) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case streams := <-c.requests:
			c.Sync(ctx, streams)
		}
	}
}

// Close releases the database.
func (c *Cache) Close() error {
	if c == nil || c.db == nil {
		return nil
	}
	return c.db.Close()
}
