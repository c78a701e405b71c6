package art

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"math/rand/v2"
	"strings"
	"sync"
	"testing"
	"testing/fstest"
	"time"

	clog "github.com/charmbracelet/log"

	"lovevirus/assets"
)

type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func solid(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func TestSampleDimensions(t *testing.T) {
	bm := Sample(solid(100, 100, color.NRGBA{A: 255}), 22)
	if bm.Width() != 22 || bm.Height() != 10 {
		t.Fatalf("expected 22x10, got %dx%d", bm.Width(), bm.Height())
	}
	if got := Sample(solid(10, 10, color.NRGBA{}), 2); got != nil {
		t.Fatalf("expected nil sample for zero rows, got %v", got)
	}
}

func TestSampleBrightness(t *testing.T) {
	cases := []struct {
		name string
		c    color.NRGBA
		want float64
	}{
		{"transparent", color.NRGBA{}, 1},
		{"black", color.NRGBA{A: 255}, 0},
		{"white", color.NRGBA{R: 255, G: 255, B: 255, A: 255}, 1},
		{"red", color.NRGBA{R: 255, A: 255}, 0.299},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			bm := Sample(solid(44, 20, tc.c), 11)
			got := bm[2][3]
			if got < tc.want-0.01 || got > tc.want+0.01 {
				t.Fatalf("expected brightness %.3f, got %.3f", tc.want, got)
			}
		})
	}
}

func TestFrameMapsDarkToFirstGlyph(t *testing.T) {
	bm := Brightness{{0, 1}, {0.5, 0}}
	got := bm.Frame("ab ")
	if got != "a \nba\n" {
		t.Fatalf("unexpected frame %q", got)
	}
}

func TestRandomCharset(t *testing.T) {
	r := rand.New(rand.NewPCG(1, 2))
	cs := RandomCharset(r, glyphsPerFrame)
	if len(cs) != glyphsPerFrame+1 || !strings.HasSuffix(cs, " ") {
		t.Fatalf("unexpected charset %q", cs)
	}
	for _, c := range cs[:glyphsPerFrame] {
		if !strings.ContainsRune(palette, c) {
			t.Fatalf("glyph %q not in palette", c)
		}
	}
}

func TestAnimatorDrawsFromAssets(t *testing.T) {
	fsys := fstest.MapFS{"heart.png": {Data: encodePNG(t, solid(40, 40, color.NRGBA{R: 200, A: 255}))}}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a := New(ctx, Options{
		ImagePath: "does-not-exist.png",
		Assets:    fsys,
		AssetName: "heart.png",
		Width:     22,
		Interval:  5 * time.Millisecond,
		Rand:      rand.New(rand.NewPCG(3, 4)),
	})
	a.Start()
	a.Start()

	waitCtx, waitCancel := context.WithTimeout(ctx, 2*time.Second)
	defer waitCancel()
	if !a.Surface().WaitFrame(waitCtx) {
		t.Fatalf("expected a frame")
	}
	lines := strings.Split(strings.TrimSuffix(a.Surface().Render(), "\n"), "\n")
	if len(lines) != 10 {
		t.Fatalf("expected 10 rows, got %d", len(lines))
	}
	for _, l := range lines {
		if len([]rune(l)) != 22 {
			t.Fatalf("expected 22 columns, got %q", l)
		}
	}
}

func TestAnimatorUsesEmbeddedImage(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	a := New(ctx, Options{Assets: assets.FS, AssetName: assets.ImageFile, Color: DefaultColor})
	a.Start()
	waitCtx, waitCancel := context.WithTimeout(ctx, 2*time.Second)
	defer waitCancel()
	if !a.Surface().WaitFrame(waitCtx) {
		t.Fatalf("expected a frame from the embedded image")
	}
}

func TestAnimatorLogsLoadFailure(t *testing.T) {
	logs := &lockedBuffer{}
	logger := clog.NewWithOptions(logs, clog.Options{Formatter: clog.JSONFormatter})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a := New(ctx, Options{ImagePath: "missing.png", Logger: logger})
	a.Start()

	waitCtx, waitCancel := context.WithTimeout(ctx, 100*time.Millisecond)
	defer waitCancel()
	if a.Surface().WaitFrame(waitCtx) {
		t.Fatalf("expected no frame on load failure")
	}
	deadline := time.Now().Add(time.Second)
	for !strings.Contains(logs.String(), "art.image_load_failed") && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if !strings.Contains(logs.String(), "art.image_load_failed") {
		t.Fatalf("expected load failure to be logged, got %q", logs.String())
	}
}
