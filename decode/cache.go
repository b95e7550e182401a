package decode

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"

	"github.com/gopxl/beep/v2"
	"golang.org/x/sync/singleflight"
	"golang.org/x/text/unicode/norm"
)

// Cache decodes files once and hands out the same buffer to every caller.
// Buffers are shared and must be treated as read-only; use
// Buffer.Streamer to obtain an independent reader.
type Cache struct {
	registry *Registry
	client   *http.Client
	logger   *slog.Logger

	group   singleflight.Group
	mu      sync.RWMutex
	entries map[string]*beep.Buffer
}

var (
	defaultCache *Cache
	initOnce     sync.Once
)

// Default returns the process-wide cache backed by DefaultRegistry
func Default() *Cache {
	initOnce.Do(func() {
		defaultCache = NewCache(DefaultRegistry())
	})
	return defaultCache
}

// NewCache creates an empty cache decoding through registry
func NewCache(registry *Registry) *Cache {
	return &Cache{
		registry: registry,
		client:   http.DefaultClient,
		logger:   slog.With("component", "decode"),
		entries:  make(map[string]*beep.Buffer),
	}
}

// Normalize returns the cache key for a locator. Visually identical paths in
// different Unicode forms map to the same key.
func Normalize(locator string) string {
	return norm.NFC.String(strings.TrimSpace(locator))
}

// Load returns the decoded buffer for a local path or an http(s) URL.
// Concurrent loads of the same locator share a single decode.
func (c *Cache) Load(ctx context.Context, locator string) (*beep.Buffer, error) {
	key := Normalize(locator)
	if key == "" {
		return nil, ErrEmptyLocator
	}

	if buf, ok := c.Get(key); ok {
		return buf, nil
	}

	// The shared decode outlives any single caller; each caller only stops
	// waiting when its own context ends.
	shared := context.WithoutCancel(ctx)
	ch := c.group.DoChan(key, func() (any, error) {
		if buf, ok := c.Get(key); ok {
			return buf, nil
		}

		buf, err := c.decode(shared, strings.TrimSpace(locator))
		if err != nil {
			return nil, err
		}

		c.Store(key, buf)
		c.logger.Debug("Decoded audio",
			slog.String("locator", key),
			slog.Int("samples", buf.Len()),
			slog.Int("sample_rate", int(buf.Format().SampleRate)))
		return buf, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*beep.Buffer), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Get returns a cached buffer without decoding
func (c *Cache) Get(locator string) (*beep.Buffer, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	buf, ok := c.entries[Normalize(locator)]
	return buf, ok
}

// Store registers an already decoded buffer under locator
func (c *Cache) Store(locator string, buf *beep.Buffer) {
	c.mu.Lock()
	c.entries[Normalize(locator)] = buf
	c.mu.Unlock()
}

// Evict drops a buffer. Sounds already holding it keep working.
func (c *Cache) Evict(locator string) {
	c.mu.Lock()
	delete(c.entries, Normalize(locator))
	c.mu.Unlock()
}

func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *Cache) decode(ctx context.Context, locator string) (*beep.Buffer, error) {
	ext, remote := extension(locator)
	dec, ok := c.registry.Lookup(ext)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}

	r, err := c.open(ctx, locator, remote)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	streamer, format, err := dec.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", locator, err)
	}
	if closer, ok := streamer.(io.Closer); ok {
		defer closer.Close()
	}

	buffer := beep.NewBuffer(format)
	buffer.Append(streamer)
	if err := streamer.Err(); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", locator, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return buffer, nil
}

type readSeekCloser interface {
	io.ReadSeeker
	io.Closer
}

func (c *Cache) open(ctx context.Context, locator string, remote bool) (readSeekCloser, error) {
	if !remote {
		f, err := os.Open(locator)
		if err != nil {
			return nil, fmt.Errorf("failed to open %s: %w", locator, err)
		}
		return f, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, locator, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", locator, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to fetch %s: %s", locator, resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", locator, err)
	}
	return nopCloser{bytes.NewReader(data)}, nil
}

type nopCloser struct {
	io.ReadSeeker
}

func (nopCloser) Close() error { return nil }

// extension returns the format key of a locator and whether it is remote
func extension(locator string) (string, bool) {
	if u, err := url.Parse(locator); err == nil && (u.Scheme == "http" || u.Scheme == "https") {
		return normalizeExt(path.Ext(u.Path)), true
	}
	return normalizeExt(filepath.Ext(locator)), false
}
