// Package gifsource decodes animated GIFs as video compositions.
//
// Frames are decoded, composited with their disposal methods and scaled
// to the negotiated resolution on background goroutines. Until an item
// is fully buffered, DecodeCompositionFrames reports ErrNoFrame.
package gifsource

import (
	"context"
	"fmt"
	"image"
	"image/draw"
	"image/gif"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/sync/errgroup"

	"github.com/gogpu/ggmedia/extractor"
	"github.com/gogpu/ggmedia/internal/logging"
)

// defaultDelay replaces zero frame delays, as browsers do.
const defaultDelay = 100 * time.Millisecond

// Source opens GIF files. The zero value reads from the OS filesystem.
type Source struct {
	// FS, when set, resolves paths inside it instead of the OS. Absolute
	// paths are taken relative to its root.
	FS fs.FS
	// Now returns the wall clock. Nil uses time.Now.
	Now func() time.Time
}

var (
	_ extractor.Factory      = (*Source)(nil)
	_ extractor.FrameGrabber = (*Source)(nil)
)

func (s *Source) open(path string) (*gif.GIF, error) {
	var (
		f   fs.File
		err error
	)
	if s.FS != nil {
		f, err = s.FS.Open(strings.TrimPrefix(filepath.ToSlash(path), "/"))
	} else {
		f, err = os.Open(path)
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()
	g, err := gif.DecodeAll(f)
	if err != nil {
		return nil, fmt.Errorf("gifsource: decode %s: %w", path, err)
	}
	if len(g.Image) == 0 {
		return nil, fmt.Errorf("gifsource: %s has no frames", path)
	}
	return g, nil
}

// Create implements extractor.Factory. Decoding continues in the
// background after Create returns; ctx only bounds validation.
func (s *Source) Create(ctx context.Context, spec extractor.CompositionSpec) (extractor.Extractor, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	now := s.Now
	if now == nil {
		now = time.Now
	}
	duration := spec.Duration
	if duration <= 0 {
		for _, it := range spec.Items {
			if it.Duration <= 0 {
				// Known once the item is buffered.
				duration = 0
				break
			}
			duration = max(duration, it.CompositionStartTime+it.Duration)
		}
	}

	dctx, cancel := context.WithCancel(context.Background())
	p := &player{
		spec:     spec,
		duration: duration,
		now:      now,
		cancel:   cancel,
		ready:    make(chan struct{}),
		last:     make(map[string]int),
	}
	go p.decode(dctx, s)
	return p, nil
}

// GrabFrame implements extractor.FrameGrabber. It decodes the file and
// returns the frame shown at time at, scaled to size.
func (s *Source) GrabFrame(ctx context.Context, path string, at time.Duration, size extractor.Size) (image.Image, error) {
	g, err := s.open(path)
	if err != nil {
		return nil, err
	}
	frames, err := composite(ctx, g, size)
	if err != nil {
		return nil, err
	}
	return frames.at(at).img, nil
}

// timed is a fully composited frame shown from start until the next one.
type timed struct {
	img   *image.RGBA
	start time.Duration
}

// track is the decoded frame list of one GIF.
type track struct {
	frames []timed
	total  time.Duration
}

// index returns the frame index shown at d, wrapping around the loop.
func (t *track) index(d time.Duration) int {
	if t.total > 0 {
		d %= t.total
		if d < 0 {
			d += t.total
		}
	}
	i := 0
	for j, f := range t.frames {
		if f.start > d {
			break
		}
		i = j
	}
	return i
}

func (t *track) at(d time.Duration) timed { return t.frames[t.index(d)] }

// composite renders every frame of g onto a full canvas, applying frame
// disposal, and scales the result to size.
func composite(ctx context.Context, g *gif.GIF, size extractor.Size) (*track, error) {
	bounds := image.Rect(0, 0, g.Config.Width, g.Config.Height)
	if bounds.Empty() {
		bounds = g.Image[0].Bounds()
	}
	canvas := image.NewRGBA(bounds)
	out := &track{frames: make([]timed, 0, len(g.Image))}

	for i, frame := range g.Image {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		var previous *image.RGBA
		disposal := byte(0)
		if i < len(g.Disposal) {
			disposal = g.Disposal[i]
		}
		if disposal == gif.DisposalPrevious {
			previous = image.NewRGBA(bounds)
			copy(previous.Pix, canvas.Pix)
		}

		draw.Draw(canvas, frame.Bounds(), frame, frame.Bounds().Min, draw.Over)
		out.frames = append(out.frames, timed{img: scale(canvas, size), start: out.total})

		delay := defaultDelay
		if i < len(g.Delay) && g.Delay[i] > 0 {
			delay = time.Duration(g.Delay[i]) * 10 * time.Millisecond
		}
		out.total += delay

		switch disposal {
		case gif.DisposalBackground:
			draw.Draw(canvas, frame.Bounds(), image.Transparent, image.Point{}, draw.Src)
		case gif.DisposalPrevious:
			canvas = previous
		}
	}
	return out, nil
}

// scale copies src at size, or at its own size when size is zero.
func scale(src *image.RGBA, size extractor.Size) *image.RGBA {
	b := src.Bounds()
	if size.IsZero() || (size.Width == b.Dx() && size.Height == b.Dy()) {
		dst := image.NewRGBA(b)
		copy(dst.Pix, src.Pix)
		return dst
	}
	dst := image.NewRGBA(image.Rect(0, 0, size.Width, size.Height))
	xdraw.ApproxBiLinear.Scale(dst, dst.Bounds(), src, b, xdraw.Src, nil)
	return dst
}

// player is the Extractor returned by Create.
type player struct {
	spec     extractor.CompositionSpec
	duration time.Duration
	now      func() time.Time
	cancel   context.CancelFunc
	ready    chan struct{}

	mu       sync.Mutex
	tracks   map[string]*track
	lengths  map[string]time.Duration
	err      error
	looping  bool
	playing  bool
	position time.Duration
	anchor   time.Time
	disposed bool
	last     map[string]int
}

func (p *player) decode(ctx context.Context, s *Source) {
	defer close(p.ready)
	var (
		mu     sync.Mutex
		tracks = make(map[string]*track, len(p.spec.Items))
	)
	g, gctx := errgroup.WithContext(ctx)
	for _, it := range p.spec.Items {
		g.Go(func() error {
			img, err := s.open(it.Path)
			if err != nil {
				return err
			}
			t, err := composite(gctx, img, it.Resolution)
			if err != nil {
				return err
			}
			mu.Lock()
			tracks[it.ID] = t
			mu.Unlock()
			return nil
		})
	}
	err := g.Wait()

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.disposed {
		return
	}
	if err != nil {
		logging.Logger().Error("gifsource: decode failed", "err", err)
		p.err = err
		return
	}
	p.tracks = tracks
	p.lengths = make(map[string]time.Duration, len(p.spec.Items))
	var end time.Duration
	for _, it := range p.spec.Items {
		length := it.Duration
		if length <= 0 {
			length = max(tracks[it.ID].total-it.StartTime, 0)
		}
		p.lengths[it.ID] = length
		end = max(end, it.CompositionStartTime+length)
	}
	if p.spec.Duration <= 0 {
		p.duration = end
	}
	logging.Logger().Debug("gifsource: composition buffered", "items", len(tracks), "duration", p.duration)
}

func (p *player) SetLooping(loop bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.looping = loop
}

func (p *player) Looping() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.looping
}

func (p *player) Play() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.playing || p.disposed {
		return
	}
	p.playing = true
	p.anchor = p.now()
}

func (p *player) Pause() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.playing {
		return
	}
	p.position = p.positionLocked()
	p.playing = false
}

func (p *player) CurrentTime() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.positionLocked()
}

func (p *player) positionLocked() time.Duration {
	pos := p.position
	if p.playing {
		pos += p.now().Sub(p.anchor)
	}
	if p.duration <= 0 || pos < p.duration {
		return pos
	}
	if p.looping {
		return pos % p.duration
	}
	return p.duration
}

// Duration is 0 until an item without an explicit duration is buffered.
func (p *player) Duration() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.duration
}

func (p *player) DecodeCompositionFrames() (extractor.FrameSet, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	switch {
	case p.disposed:
		return nil, extractor.ErrDisposed
	case p.err != nil:
		return nil, p.err
	case p.tracks == nil:
		return nil, extractor.ErrNoFrame
	}

	now := p.positionLocked()
	fs := make(extractor.FrameSet, len(p.spec.Items))
	changed := false
	for _, it := range p.spec.Items {
		local := now - it.CompositionStartTime
		if local < 0 || local >= p.lengths[it.ID] {
			continue
		}
		t := p.tracks[it.ID]
		pos := it.StartTime + local
		i := t.index(pos)
		fs[it.ID] = extractor.Frame{Image: t.frames[i].img, Time: pos}
		if prev, ok := p.last[it.ID]; !ok || prev != i {
			changed = true
		}
		p.last[it.ID] = i
	}
	if !changed {
		return nil, extractor.ErrNoFrame
	}
	return fs, nil
}

func (p *player) Dispose() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.disposed {
		return nil
	}
	p.disposed = true
	p.playing = false
	p.tracks = nil
	p.cancel()
	return nil
}

// Wait blocks until background decoding has finished. It is meant for
// tests and tools that need a fully buffered extractor.
func Wait(ctx context.Context, e extractor.Extractor) error {
	p, ok := e.(*player)
	if !ok {
		return nil
	}
	select {
	case <-p.ready:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
