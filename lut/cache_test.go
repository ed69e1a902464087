package lut

import (
	"context"
	"errors"
	"image"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type countingLoader struct {
	calls   atomic.Int32
	release chan struct{}
	err     error
}

func (l *countingLoader) LoadLUT(ctx context.Context, f Filter) (image.Image, error) {
	l.calls.Add(1)
	if l.release != nil {
		<-l.release
	}
	if l.err != nil {
		return nil, l.err
	}
	return IdentityImage(), nil
}

func TestCacheBuildOnce(t *testing.T) {
	loader := &countingLoader{}
	c := NewCache(loader)

	a := c.Build(context.Background(), Solar)
	b := c.Build(context.Background(), Solar)
	if a == nil || a != b {
		t.Fatalf("Build returned %p and %p, want the same non-nil shader", a, b)
	}
	if a.Texture() != b.Texture() {
		t.Error("shaders for the same filter should share the texture")
	}
	if a.Filter() != Solar {
		t.Errorf("Filter() = %q, want solar", a.Filter())
	}
	if n := loader.calls.Load(); n != 1 {
		t.Errorf("loader called %d times, want 1", n)
	}
	if s, ok := c.Lookup(Solar); !ok || s != a {
		t.Error("Lookup did not return the cached shader")
	}
}

func TestCacheConcurrentFirstUse(t *testing.T) {
	loader := &countingLoader{release: make(chan struct{})}
	c := NewCache(loader)

	const n = 16
	results := make([]*Shader, n)
	var wg sync.WaitGroup
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = c.Build(context.Background(), Autumn)
		}()
	}
	// Let every goroutine reach the shared load before it completes.
	time.Sleep(20 * time.Millisecond)
	close(loader.release)
	wg.Wait()

	for i, s := range results {
		if s == nil || s != results[0] {
			t.Fatalf("result %d = %p, want %p", i, s, results[0])
		}
	}
	if got := loader.calls.Load(); got != 1 {
		t.Errorf("loader called %d times, want 1", got)
	}
}

func TestCacheNoneAndUnknown(t *testing.T) {
	loader := &countingLoader{}
	c := NewCache(loader)
	if s := c.Build(context.Background(), None); s != nil {
		t.Errorf("Build(None) = %p, want nil", s)
	}
	if _, err := c.BuildErr(context.Background(), Filter("sepia")); !errors.Is(err, ErrUnknownFilter) {
		t.Errorf("BuildErr(unknown) error = %v, want ErrUnknownFilter", err)
	}
	if loader.calls.Load() != 0 {
		t.Error("loader should not be called for None or unknown filters")
	}
}

func TestCacheFailureNotCached(t *testing.T) {
	loader := &countingLoader{err: errors.New("missing asset")}
	var observed []error
	c := NewCache(loader, WithObserver(func(f Filter, _ time.Duration, err error) {
		observed = append(observed, err)
	}))

	if s := c.Build(context.Background(), Rock); s != nil {
		t.Fatalf("Build() = %p, want nil on load failure", s)
	}
	if c.Len() != 0 {
		t.Errorf("failed build was cached")
	}

	loader.err = nil
	if s := c.Build(context.Background(), Rock); s == nil {
		t.Fatal("retry after failure should succeed")
	}
	if len(observed) != 2 || observed[0] == nil || observed[1] != nil {
		t.Errorf("observer saw %v, want [error, nil]", observed)
	}
}

func TestCacheBadTexture(t *testing.T) {
	c := NewCache(LoaderFunc(func(context.Context, Filter) (image.Image, error) {
		return image.NewNRGBA(image.Rect(0, 0, 10, 10)), nil
	}))
	if _, err := c.BuildErr(context.Background(), Paper); !errors.Is(err, ErrBadTexture) {
		t.Errorf("BuildErr() error = %v, want ErrBadTexture", err)
	}
}

func TestCacheCallerCancel(t *testing.T) {
	loader := &countingLoader{release: make(chan struct{})}
	c := NewCache(loader)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := c.BuildErr(ctx, Syrah); !errors.Is(err, context.Canceled) {
		t.Errorf("BuildErr(cancelled) error = %v, want context.Canceled", err)
	}

	// The detached load still completes for the next caller.
	close(loader.release)
	if s := c.Build(context.Background(), Syrah); s == nil {
		t.Fatal("Build after cancelled caller returned nil")
	}
}

func TestCachePreload(t *testing.T) {
	c := NewCache(&countingLoader{})
	if n := c.Preload(context.Background()); n != len(Filters()) {
		t.Errorf("Preload() = %d, want %d", n, len(Filters()))
	}
}

type mapImages map[string]image.Image

func (m mapImages) Load(_ context.Context, uri string) (image.Image, error) {
	img, ok := m[uri]
	if !ok {
		return nil, errors.New("not found: " + uri)
	}
	return img, nil
}

func TestFromImages(t *testing.T) {
	c := NewCache(FromImages(mapImages{"luts/pure.png": IdentityImage()}))
	if c.Build(context.Background(), Pure) == nil {
		t.Error("Build(pure) = nil")
	}
	if c.Build(context.Background(), Rock) != nil {
		t.Error("Build(rock) should fail without an asset")
	}
}
