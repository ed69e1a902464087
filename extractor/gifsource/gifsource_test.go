package gifsource

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/gif"
	"testing"
	"testing/fstest"
	"time"

	"github.com/gogpu/ggmedia/extractor"
)

var palette = color.Palette{
	color.RGBA{255, 0, 0, 255},
	color.RGBA{0, 255, 0, 255},
	color.RGBA{0, 0, 255, 255},
}

// encodeGIF returns a 4x4 GIF of three solid frames, 100ms each.
func encodeGIF(t *testing.T) []byte {
	t.Helper()
	g := &gif.GIF{Config: image.Config{Width: 4, Height: 4, ColorModel: palette}}
	for i := range palette {
		frame := image.NewPaletted(image.Rect(0, 0, 4, 4), palette)
		for p := range frame.Pix {
			frame.Pix[p] = uint8(i)
		}
		g.Image = append(g.Image, frame)
		g.Delay = append(g.Delay, 10)
	}
	var buf bytes.Buffer
	if err := gif.EncodeAll(&buf, g); err != nil {
		t.Fatalf("EncodeAll() error = %v", err)
	}
	return buf.Bytes()
}

type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time          { return c.now }
func (c *fakeClock) advance(d time.Duration) { c.now = c.now.Add(d) }

func newSource(t *testing.T) (*Source, *fakeClock) {
	clk := &fakeClock{now: time.Unix(1000, 0)}
	return &Source{
		FS:  fstest.MapFS{"clip.gif": {Data: encodeGIF(t)}},
		Now: clk.Now,
	}, clk
}

func spec(res extractor.Size) extractor.CompositionSpec {
	return extractor.CompositionSpec{Items: []extractor.Item{{
		ID:         "clip",
		Path:       "clip.gif",
		Duration:   300 * time.Millisecond,
		Resolution: res,
	}}}
}

func create(t *testing.T, s *Source, sp extractor.CompositionSpec) extractor.Extractor {
	t.Helper()
	e, err := s.Create(context.Background(), sp)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := Wait(ctx, e); err != nil {
		t.Fatalf("Wait() error = %v", err)
	}
	t.Cleanup(func() { e.Dispose() })
	return e
}

func red(img image.Image, x, y int) uint32 {
	r, _, _, _ := img.At(x, y).RGBA()
	return r >> 8
}

func green(img image.Image, x, y int) uint32 {
	_, g, _, _ := img.At(x, y).RGBA()
	return g >> 8
}

func TestPlaybackFrames(t *testing.T) {
	s, clk := newSource(t)
	e := create(t, s, spec(extractor.Size{}))
	e.SetLooping(true)
	if !e.Looping() {
		t.Fatal("Looping() = false after SetLooping(true)")
	}
	if e.Duration() != 300*time.Millisecond {
		t.Errorf("Duration() = %v, want 300ms", e.Duration())
	}

	fs, err := e.DecodeCompositionFrames()
	if err != nil {
		t.Fatalf("first decode error = %v", err)
	}
	if img := fs.Image("clip"); img == nil || red(img, 1, 1) != 255 {
		t.Fatalf("first frame is not red")
	}
	if _, err := e.DecodeCompositionFrames(); !errors.Is(err, extractor.ErrNoFrame) {
		t.Errorf("repeat decode error = %v, want ErrNoFrame", err)
	}

	e.Play()
	clk.advance(150 * time.Millisecond)
	if got := e.CurrentTime(); got != 150*time.Millisecond {
		t.Errorf("CurrentTime() = %v, want 150ms", got)
	}
	fs, err = e.DecodeCompositionFrames()
	if err != nil {
		t.Fatalf("decode after play error = %v", err)
	}
	if green(fs.Image("clip"), 0, 0) != 255 {
		t.Error("frame at 150ms is not green")
	}

	e.Pause()
	clk.advance(time.Second)
	if got := e.CurrentTime(); got != 150*time.Millisecond {
		t.Errorf("paused CurrentTime() = %v, want 150ms", got)
	}

	e.Play()
	clk.advance(200 * time.Millisecond)
	if got := e.CurrentTime(); got != 50*time.Millisecond {
		t.Errorf("looped CurrentTime() = %v, want 50ms", got)
	}
}

func TestPlaybackStopsWithoutLoop(t *testing.T) {
	s, clk := newSource(t)
	e := create(t, s, spec(extractor.Size{}))
	e.Play()
	clk.advance(time.Second)
	if got := e.CurrentTime(); got != e.Duration() {
		t.Errorf("CurrentTime() = %v, want clamped to %v", got, e.Duration())
	}
}

func TestTrimmedToEnd(t *testing.T) {
	trimmed := func() extractor.CompositionSpec {
		sp := spec(extractor.Size{})
		sp.Items[0].StartTime = 100 * time.Millisecond
		sp.Items[0].Duration = 0
		return sp
	}

	t.Run("loop", func(t *testing.T) {
		s, clk := newSource(t)
		e := create(t, s, trimmed())
		e.SetLooping(true)
		if got := e.Duration(); got != 200*time.Millisecond {
			t.Fatalf("Duration() = %v, want 200ms", got)
		}
		e.Play()
		clk.advance(250 * time.Millisecond)
		if got := e.CurrentTime(); got != 50*time.Millisecond {
			t.Errorf("CurrentTime() = %v, want 50ms", got)
		}
		fs, err := e.DecodeCompositionFrames()
		if err != nil {
			t.Fatalf("decode error = %v", err)
		}
		img := fs.Image("clip")
		if r, g := red(img, 1, 1), green(img, 1, 1); r != 0 || g != 255 {
			t.Errorf("looped frame = r%d g%d, want the green frame after the trim start", r, g)
		}
	})

	t.Run("once", func(t *testing.T) {
		s, clk := newSource(t)
		e := create(t, s, trimmed())
		e.Play()
		clk.advance(10 * time.Second)
		if got := e.CurrentTime(); got != 200*time.Millisecond {
			t.Errorf("CurrentTime() = %v, want clamped to 200ms", got)
		}
	})
}

func TestScaledResolution(t *testing.T) {
	s, _ := newSource(t)
	e := create(t, s, spec(extractor.Size{Width: 2, Height: 2}))
	fs, err := e.DecodeCompositionFrames()
	if err != nil {
		t.Fatalf("decode error = %v", err)
	}
	if b := fs.Image("clip").Bounds(); b.Dx() != 2 || b.Dy() != 2 {
		t.Errorf("frame bounds = %v, want 2x2", b)
	}
}

func TestDecodeFailure(t *testing.T) {
	s, _ := newSource(t)
	sp := spec(extractor.Size{})
	sp.Items[0].Path = "missing.gif"
	e := create(t, s, sp)
	_, err := e.DecodeCompositionFrames()
	if err == nil || errors.Is(err, extractor.ErrNoFrame) {
		t.Errorf("decode error = %v, want a decode failure", err)
	}
}

func TestCreateValidates(t *testing.T) {
	s, _ := newSource(t)
	if _, err := s.Create(context.Background(), extractor.CompositionSpec{}); !errors.Is(err, extractor.ErrEmptyComposition) {
		t.Errorf("Create(empty) error = %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := s.Create(ctx, spec(extractor.Size{})); !errors.Is(err, context.Canceled) {
		t.Errorf("Create(cancelled) error = %v", err)
	}
}

func TestDispose(t *testing.T) {
	s, _ := newSource(t)
	e := create(t, s, spec(extractor.Size{}))
	if err := e.Dispose(); err != nil {
		t.Fatalf("Dispose() error = %v", err)
	}
	if err := e.Dispose(); err != nil {
		t.Errorf("second Dispose() error = %v", err)
	}
	if _, err := e.DecodeCompositionFrames(); !errors.Is(err, extractor.ErrDisposed) {
		t.Errorf("decode after dispose error = %v, want ErrDisposed", err)
	}
}

func TestGrabFrame(t *testing.T) {
	s, _ := newSource(t)
	tests := []struct {
		at        time.Duration
		wantRed   uint32
		wantGreen uint32
	}{
		{0, 255, 0},
		{150 * time.Millisecond, 0, 255},
		{250 * time.Millisecond, 0, 0},
	}
	for _, tt := range tests {
		img, err := s.GrabFrame(context.Background(), "clip.gif", tt.at, extractor.Size{Width: 8, Height: 8})
		if err != nil {
			t.Fatalf("GrabFrame(%v) error = %v", tt.at, err)
		}
		if b := img.Bounds(); b.Dx() != 8 {
			t.Errorf("GrabFrame(%v) bounds = %v", tt.at, b)
		}
		if r, g := red(img, 4, 4), green(img, 4, 4); r != tt.wantRed || g != tt.wantGreen {
			t.Errorf("GrabFrame(%v) = r%d g%d, want r%d g%d", tt.at, r, g, tt.wantRed, tt.wantGreen)
		}
	}
	if _, err := s.GrabFrame(context.Background(), "nope.gif", 0, extractor.Size{}); err == nil {
		t.Error("GrabFrame(missing) should fail")
	}
}

func TestTrackIndex(t *testing.T) {
	tr := &track{
		frames: []timed{{start: 0}, {start: 100 * time.Millisecond}, {start: 300 * time.Millisecond}},
		total:  400 * time.Millisecond,
	}
	tests := []struct {
		d    time.Duration
		want int
	}{
		{0, 0},
		{99 * time.Millisecond, 0},
		{100 * time.Millisecond, 1},
		{299 * time.Millisecond, 1},
		{350 * time.Millisecond, 2},
		{450 * time.Millisecond, 0},
		{-50 * time.Millisecond, 2},
	}
	for _, tt := range tests {
		if got := tr.index(tt.d); got != tt.want {
			t.Errorf("index(%v) = %d, want %d", tt.d, got, tt.want)
		}
	}
}
