// Package asset loads the still images of a preview: overlay layers,
// image primaries and colour-grading lookup tables.
//
// PNG, JPEG, GIF, WebP and BMP are decoded. Loaders are safe for
// concurrent use.
package asset

import (
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // register GIF
	_ "image/jpeg" // register JPEG
	_ "image/png"  // register PNG
	"io/fs"
	"net/url"
	"os"
	"path"
	"strings"

	_ "golang.org/x/image/bmp"  // register BMP
	_ "golang.org/x/image/webp" // register WebP
	"golang.org/x/sync/singleflight"

	"github.com/gogpu/ggmedia/internal/cache"
	"github.com/gogpu/ggmedia/internal/logging"
)

// ErrUnsupportedURI is returned for URIs a loader cannot resolve.
var ErrUnsupportedURI = errors.New("asset: unsupported uri")

// Loader loads an image by URI.
type Loader interface {
	Load(ctx context.Context, uri string) (image.Image, error)
}

// LoaderFunc adapts a function to the Loader interface.
type LoaderFunc func(ctx context.Context, uri string) (image.Image, error)

// Load calls fn(ctx, uri).
func (fn LoaderFunc) Load(ctx context.Context, uri string) (image.Image, error) {
	return fn(ctx, uri)
}

// FSLoader decodes images from a filesystem. URIs are slash-separated
// paths relative to the root of FS, optionally prefixed with file://.
type FSLoader struct {
	FS fs.FS
}

// Dir returns a loader rooted at the directory dir.
func Dir(dir string) *FSLoader {
	return &FSLoader{FS: os.DirFS(dir)}
}

// Load implements Loader.
func (l *FSLoader) Load(ctx context.Context, uri string) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	name, err := fsPath(uri)
	if err != nil {
		return nil, err
	}
	f, err := l.FS.Open(name)
	if err != nil {
		return nil, fmt.Errorf("asset: open %s: %w", uri, err)
	}
	defer f.Close()
	img, format, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("asset: decode %s: %w", uri, err)
	}
	logging.Logger().Debug("asset: decoded", "uri", uri, "format", format, "bounds", img.Bounds())
	return img, nil
}

// fsPath maps uri onto an fs.FS name.
func fsPath(uri string) (string, error) {
	if strings.Contains(uri, "://") {
		u, err := url.Parse(uri)
		if err != nil {
			return "", fmt.Errorf("asset: parse %q: %w", uri, err)
		}
		if u.Scheme != "file" {
			return "", fmt.Errorf("%w: %s", ErrUnsupportedURI, uri)
		}
		uri = u.Path
	}
	name := path.Clean(strings.TrimPrefix(uri, "/"))
	if !fs.ValidPath(name) || name == "." {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedURI, uri)
	}
	return name, nil
}

// Stats reports cache activity.
type Stats = cache.Stats

// Cache memoizes decoded images of another loader. Concurrent loads of
// the same URI share one decode. Failures are not cached.
type Cache struct {
	loader Loader
	images *cache.Cache[string, image.Image]
	group  singleflight.Group
}

var _ Loader = (*Cache)(nil)

// Cached wraps loader with an LRU cache of at most entries images.
// entries <= 0 caches without limit.
func Cached(loader Loader, entries int) *Cache {
	return &Cache{loader: loader, images: cache.New[string, image.Image](entries, cache.StringHasher)}
}

// Load implements Loader.
func (c *Cache) Load(ctx context.Context, uri string) (image.Image, error) {
	if img, ok := c.images.Get(uri); ok {
		return img, nil
	}

	ch := c.group.DoChan(uri, func() (any, error) {
		img, err := c.loader.Load(context.WithoutCancel(ctx), uri)
		if err != nil {
			return nil, err
		}
		c.images.Set(uri, img)
		return img, nil
	})
	select {
	case r := <-ch:
		if r.Err != nil {
			return nil, r.Err
		}
		return r.Val.(image.Image), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Forget drops uri from the cache.
func (c *Cache) Forget(uri string) bool {
	return c.images.Delete(uri)
}

// Stats returns cache statistics.
func (c *Cache) Stats() Stats {
	return c.images.Stats()
}
