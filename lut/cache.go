package lut

import (
	"context"
	"fmt"
	"image"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/gogpu/ggmedia/internal/logging"
)

// Loader fetches the lookup table image of a filter.
type Loader interface {
	LoadLUT(ctx context.Context, f Filter) (image.Image, error)
}

// LoaderFunc adapts a function to the Loader interface.
type LoaderFunc func(ctx context.Context, f Filter) (image.Image, error)

// LoadLUT calls fn(ctx, f).
func (fn LoaderFunc) LoadLUT(ctx context.Context, f Filter) (image.Image, error) {
	return fn(ctx, f)
}

// ImageLoader loads images by URI. asset.Loader satisfies it.
type ImageLoader interface {
	Load(ctx context.Context, uri string) (image.Image, error)
}

// FromImages returns a Loader that loads each filter from its AssetPath.
func FromImages(l ImageLoader) Loader {
	return LoaderFunc(func(ctx context.Context, f Filter) (image.Image, error) {
		return l.Load(ctx, f.AssetPath())
	})
}

// Observer is told about every shader build attempt.
type Observer func(f Filter, elapsed time.Duration, err error)

// CacheOption configures a Cache.
type CacheOption func(*Cache)

// WithObserver installs fn to receive build outcomes.
func WithObserver(fn Observer) CacheOption {
	return func(c *Cache) {
		c.observer = fn
	}
}

// Cache builds and memoizes shaders, one per distinct filter.
//
// Share a single Cache between every preview of a process. Cache is safe
// for concurrent use.
type Cache struct {
	loader   Loader
	observer Observer
	group    singleflight.Group

	mu      sync.RWMutex
	shaders map[Filter]*Shader
}

// NewCache creates an empty cache that loads tables with loader.
func NewCache(loader Loader, opts ...CacheOption) *Cache {
	c := &Cache{
		loader:  loader,
		shaders: make(map[Filter]*Shader),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Lookup returns the cached shader for f without blocking on a build.
func (c *Cache) Lookup(f Filter) (*Shader, bool) {
	c.mu.RLock()
	s, ok := c.shaders[f]
	c.mu.RUnlock()
	return s, ok
}

// Len returns the number of cached shaders.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.shaders)
}

// Build returns the shader for f, building it on first use.
// It returns nil for None and on failure; failures are logged and not
// cached, so a later call retries.
func (c *Cache) Build(ctx context.Context, f Filter) *Shader {
	s, err := c.BuildErr(ctx, f)
	if err != nil {
		logging.Logger().Warn("lut: shader unavailable", "filter", string(f), "err", err)
		return nil
	}
	return s
}

// BuildErr is Build with the failure reported to the caller.
//
// Concurrent calls for the same filter share one load. The shared load is
// detached from ctx so that one caller giving up does not fail the others;
// a cancelled ctx only stops this caller from waiting.
func (c *Cache) BuildErr(ctx context.Context, f Filter) (*Shader, error) {
	if f == None {
		return nil, nil
	}
	if !f.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownFilter, string(f))
	}
	if s, ok := c.Lookup(f); ok {
		return s, nil
	}

	detached := context.WithoutCancel(ctx)
	ch := c.group.DoChan(string(f), func() (any, error) {
		if s, ok := c.Lookup(f); ok {
			return s, nil
		}
		start := time.Now()
		s, err := c.build(detached, f)
		if c.observer != nil {
			c.observer(f, time.Since(start), err)
		}
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.shaders[f] = s
		c.mu.Unlock()
		return s, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*Shader), nil
	}
}

func (c *Cache) build(ctx context.Context, f Filter) (*Shader, error) {
	if c.loader == nil {
		return nil, fmt.Errorf("lut: no loader for %q", string(f))
	}
	img, err := c.loader.LoadLUT(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("lut: load %q: %w", string(f), err)
	}
	tex, err := NewTexture(img)
	if err != nil {
		return nil, fmt.Errorf("lut: %q: %w", string(f), err)
	}
	logging.Logger().Debug("lut: shader built", "filter", string(f))
	return NewShader(f, tex), nil
}

// Preload builds every filter of the table concurrently and returns how
// many are cached afterwards. Failures are logged.
func (c *Cache) Preload(ctx context.Context) int {
	var wg sync.WaitGroup
	for _, f := range table {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Build(ctx, f)
		}()
	}
	wg.Wait()
	return c.Len()
}
