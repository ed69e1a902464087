package picture

import (
	"errors"
	"image"
	"image/color"
	"testing"
)

// mockBackend records the calls it receives.
type mockBackend struct {
	beginCalls int
	endCalls   int
	width      int
	height     int
	calls      []string
	beginErr   error
}

func (b *mockBackend) Begin(width, height int) error {
	b.beginCalls++
	b.width, b.height = width, height
	return b.beginErr
}

func (b *mockBackend) End() error {
	b.endCalls++
	return nil
}

func (b *mockBackend) DrawPaint(p Paint) {
	b.calls = append(b.calls, "paint:"+p.Blend.String())
}

func (b *mockBackend) DrawImage(_ image.Image, _ Geometry, p Paint) {
	b.calls = append(b.calls, "image:"+p.Blend.String())
}

func TestRecorderPlayback(t *testing.T) {
	rec := NewRecorder(40, 30)
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))

	rec.DrawPaint(Paint{Color: color.NRGBA{255, 255, 255, 255}})
	rec.DrawImage(img, Geometry{}, Paint{Blend: BlendMultiply})
	rec.DrawImage(nil, Geometry{}, Paint{})
	rec.DrawImage(img, Geometry{}, Paint{Blend: BlendDestinationIn})

	pic := rec.FinishRecording()
	if pic.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", pic.Len())
	}
	if rec.Len() != 0 {
		t.Errorf("recorder not reset after FinishRecording: Len() = %d", rec.Len())
	}

	b := &mockBackend{}
	if err := pic.Playback(b); err != nil {
		t.Fatalf("Playback() error = %v", err)
	}
	if b.beginCalls != 1 || b.endCalls != 1 {
		t.Errorf("Begin/End calls = %d/%d, want 1/1", b.beginCalls, b.endCalls)
	}
	if b.width != 40 || b.height != 30 {
		t.Errorf("Begin size = %dx%d, want 40x30", b.width, b.height)
	}
	want := []string{"paint:SourceOver", "image:Multiply", "image:DestinationIn"}
	if len(b.calls) != len(want) {
		t.Fatalf("calls = %v, want %v", b.calls, want)
	}
	for i := range want {
		if b.calls[i] != want[i] {
			t.Errorf("call %d = %q, want %q", i, b.calls[i], want[i])
		}
	}
}

func TestPlaybackBeginError(t *testing.T) {
	rec := NewRecorder(1, 1)
	rec.DrawPaint(Paint{})
	errBoom := errors.New("boom")
	b := &mockBackend{beginErr: errBoom}
	if err := rec.FinishRecording().Playback(b); !errors.Is(err, errBoom) {
		t.Errorf("Playback() error = %v, want %v", err, errBoom)
	}
	if len(b.calls) != 0 || b.endCalls != 0 {
		t.Errorf("backend used after Begin failed: calls=%v end=%d", b.calls, b.endCalls)
	}
}

func TestPictureIsImmutable(t *testing.T) {
	rec := NewRecorder(2, 2)
	effects := []Effect{Tint(color.White)}
	rec.DrawImage(image.NewRGBA(image.Rect(0, 0, 1, 1)), Geometry{}, Paint{Effects: effects})
	pic := rec.FinishRecording()

	effects[0] = nil
	cmds := pic.Commands()
	cmds[0] = nil

	c, ok := pic.Commands()[0].(DrawImageCommand)
	if !ok {
		t.Fatalf("command 0 is %T, want DrawImageCommand", pic.Commands()[0])
	}
	if c.Paint.Effects[0] == nil {
		t.Error("picture shares the caller's effects slice")
	}
}

func TestGeometryTurns(t *testing.T) {
	tests := []struct{ in, want int }{{0, 0}, {1, 1}, {4, 0}, {-1, 3}, {7, 3}}
	for _, tt := range tests {
		if got := (Geometry{QuarterTurns: tt.in}).Turns(); got != tt.want {
			t.Errorf("Turns(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestTint(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 2, 1))
	copy(img.Pix, []uint8{10, 20, 30, 255, 5, 5, 5, 128})
	Tint(color.NRGBA{255, 0, 0, 255}).Apply(img)

	want := []uint8{255, 0, 0, 255, 128, 0, 0, 128}
	for i := range want {
		if img.Pix[i] != want[i] {
			t.Fatalf("tinted pixels = %v, want %v", img.Pix, want)
		}
	}
}

func TestCommandTypeString(t *testing.T) {
	if CmdDrawImage.String() != "DrawImage" || CommandType(42).String() != "Unknown" {
		t.Errorf("unexpected names %q %q", CmdDrawImage.String(), CommandType(42).String())
	}
}
