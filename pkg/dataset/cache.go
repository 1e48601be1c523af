package dataset

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/pierrec/lz4/v4"
)

const (
	cacheDirPerm  = 0o750
	cacheFilePerm = 0o600
	cacheSuffix   = ".json.lz4"
)

// ErrCacheMiss is returned by Cache.Get when no fresh entry exists.
var ErrCacheMiss = errors.New("dataset cache miss")

// Cache stores fetched datasets on disk as LZ4 frames, keyed by location.
type Cache struct {
	Dir string
	// TTL bounds entry age. Zero keeps entries forever.
	TTL time.Duration

	now func() time.Time
}

// NewCache returns a cache rooted at dir.
func NewCache(dir string, ttl time.Duration) *Cache {
	return &Cache{Dir: dir, TTL: ttl, now: time.Now}
}

func (c *Cache) path(location string) string {
	sum := sha256.Sum256([]byte(location))

	return filepath.Join(c.Dir, hex.EncodeToString(sum[:])+cacheSuffix)
}

func (c *Cache) clock() time.Time {
	if c.now == nil {
		return time.Now()
	}

	return c.now()
}

// Get returns the cached payload for location.
func (c *Cache) Get(location string) ([]byte, error) {
	path := c.path(location)

	info, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrCacheMiss
	}

	if err != nil {
		return nil, fmt.Errorf("stat cache entry: %w", err)
	}

	if c.TTL > 0 && c.clock().Sub(info.ModTime()) > c.TTL {
		return nil, ErrCacheMiss
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open cache entry: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(lz4.NewReader(f))
	if err != nil {
		return nil, fmt.Errorf("decompress cache entry: %w", err)
	}

	return data, nil
}

// Put stores data for location, replacing any previous entry atomically.
func (c *Cache) Put(location string, data []byte) error {
	mkErr := os.MkdirAll(c.Dir, cacheDirPerm)
	if mkErr != nil {
		return fmt.Errorf("create cache dir: %w", mkErr)
	}

	var buf bytes.Buffer

	zw := lz4.NewWriter(&buf)

	_, writeErr := zw.Write(data)
	if writeErr != nil {
		return fmt.Errorf("compress cache entry: %w", writeErr)
	}

	closeErr := zw.Close()
	if closeErr != nil {
		return fmt.Errorf("compress cache entry: %w", closeErr)
	}

	path := c.path(location)
	tmp := path + ".tmp"

	err := os.WriteFile(tmp, buf.Bytes(), cacheFilePerm)
	if err != nil {
		return fmt.Errorf("write cache entry: %w", err)
	}

	err = os.Rename(tmp, path)
	if err != nil {
		return fmt.Errorf("commit cache entry: %w", err)
	}

	return nil
}

// Stats describes the cache directory contents.
type Stats struct {
	Entries int
	Bytes   int64
}

// Stats walks the cache directory. A missing directory is empty.
func (c *Cache) Stats() (Stats, error) {
	entries, err := os.ReadDir(c.Dir)
	if errors.Is(err, os.ErrNotExist) {
		return Stats{}, nil
	}

	if err != nil {
		return Stats{}, fmt.Errorf("read cache dir: %w", err)
	}

	var st Stats

	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != filepath.Ext(cacheSuffix) {
			continue
		}

		info, infoErr := e.Info()
		if infoErr != nil {
			continue
		}

		st.Entries++
		st.Bytes += info.Size()
	}

	return st, nil
}

// Purge removes every cache entry and returns how many were deleted.
func (c *Cache) Purge() (int, error) {
	entries, err := os.ReadDir(c.Dir)
	if errors.Is(err, os.ErrNotExist) {
		return 0, nil
	}

	if err != nil {
		return 0, fmt.Errorf("read cache dir: %w", err)
	}

	var removed int

	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != filepath.Ext(cacheSuffix) {
			continue
		}

		rmErr := os.Remove(filepath.Join(c.Dir, e.Name()))
		if rmErr != nil {
			return removed, fmt.Errorf("remove cache entry: %w", rmErr)
		}

		removed++
	}

	return removed, nil
}
