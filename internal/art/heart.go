// Package art draws an image as flickering ASCII art onto a canvas surface.
package art

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"io/fs"
	"math/rand/v2"
	"os"
	"strings"
	"sync"
	"time"

	"charm.land/lipgloss/v2"
	clog "github.com/charmbracelet/log"
	"github.com/disintegration/imaging"

	"lovevirus/internal/canvas"
)

const (
	DefaultWidth    = 64
	DefaultInterval = 200 * time.Millisecond
	DefaultColor    = "#df2080"

	// aspect compensates for glyphs being taller than they are wide.
	aspect = 2.2
	// glyphsPerFrame random glyphs are drawn for every frame, plus a space.
	glyphsPerFrame = 15
	palette        = "$@B%8&WM#*oahkbdpqwmZO0QLCJUYXzcvunxrjft/|()1{}[]?-_+~i!lI;:,\"^`'. "
)

type Options struct {
	// ImagePath is read from disk first. When empty or unreadable the image is
	// read from Assets instead.
	ImagePath string
	Assets    fs.FS
	AssetName string
	Width     int
	Interval  time.Duration
	// Color tints every frame. Empty draws without colour.
	Color  string
	Rand   *rand.Rand
	Logger *clog.Logger
}

type Animator struct {
	ctx     context.Context
	opts    Options
	surface *canvas.Surface
	once    sync.Once
	style   lipgloss.Style
}

func New(ctx context.Context, opts Options) *Animator {
	if opts.Width <= 0 {
		opts.Width = DefaultWidth
	}
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0x1ee7))
	}
	if opts.Logger == nil {
		opts.Logger = clog.New(io.Discard)
	}
	a := &Animator{ctx: ctx, opts: opts, surface: canvas.NewSurface()}
	if opts.Color != "" {
		a.style = lipgloss.NewStyle().Foreground(lipgloss.Color(opts.Color)).Bold(true)
	}
	return a
}

func (a *Animator) Surface() *canvas.Surface { return a.surface }

// Start loads the image and begins drawing in the background. Only the first
// call has any effect.
func (a *Animator) Start() {
	a.once.Do(func() { go a.run() })
}

func (a *Animator) run() {
	bm, err := a.load()
	if err != nil {
		a.opts.Logger.Error("art.image_load_failed", "path", a.opts.ImagePath, "asset", a.opts.AssetName, "err", err)
		return
	}
	a.opts.Logger.Info("art.image_loaded", "cols", bm.Width(), "rows", bm.Height())

	a.draw(bm)
	t := time.NewTicker(a.opts.Interval)
	defer t.Stop()
	for {
		select {
		case <-a.ctx.Done():
			return
		case <-t.C:
			a.draw(bm)
		}
	}
}

func (a *Animator) draw(bm Brightness) {
	frame := bm.Frame(RandomCharset(a.opts.Rand, glyphsPerFrame))
	if a.opts.Color != "" {
		frame = a.style.Render(frame)
	}
	a.surface.Set(frame)
}

func (a *Animator) load() (Brightness, error) {
	img, err := a.decode()
	if err != nil {
		return nil, err
	}
	return Sample(img, a.opts.Width), nil
}

func (a *Animator) decode() (image.Image, error) {
	var errs []error
	if a.opts.ImagePath != "" {
		img, err := decodeFrom(os.Open(a.opts.ImagePath))
		if err == nil {
			return img, nil
		}
		errs = append(errs, fmt.Errorf("image %s: %w", a.opts.ImagePath, err))
	}
	if a.opts.Assets != nil && a.opts.AssetName != "" {
		img, err := decodeFrom(a.opts.Assets.Open(a.opts.AssetName))
		if err == nil {
			return img, nil
		}
		errs = append(errs, fmt.Errorf("asset %s: %w", a.opts.AssetName, err))
	}
	if len(errs) == 0 {
		return nil, errors.New("art: no image source configured")
	}
	return nil, errors.Join(errs...)
}

func decodeFrom(r io.ReadCloser, err error) (image.Image, error) {
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return imaging.Decode(r)
}

// Brightness holds one value in [0,1] per output cell, row major.
type Brightness [][]float64

// Sample resizes img to width x floor(width/2.2) cells and computes the
// perceived brightness of each one. Transparent pixels count as fully bright.
func Sample(img image.Image, width int) Brightness {
	height := int(float64(width) / aspect)
	if width <= 0 || height <= 0 {
		return nil
	}
	small := imaging.Resize(img, width, height, imaging.Lanczos)
	bm := make(Brightness, height)
	for y := range height {
		row := make([]float64, width)
		for x := range width {
			off := small.PixOffset(x, y)
			p := small.Pix[off : off+4 : off+4]
			alpha := float64(p[3]) / 255
			rgb := (0.299*float64(p[0]) + 0.587*float64(p[1]) + 0.114*float64(p[2])) / 255
			row[x] = rgb*alpha + (1 - alpha)
		}
		bm[y] = row
	}
	return bm
}

func (b Brightness) Width() int {
	if len(b) == 0 {
		return 0
	}
	return len(b[0])
}

func (b Brightness) Height() int { return len(b) }

// Frame maps every cell to a glyph of charset, darkest first. Each row ends
// with a newline.
func (b Brightness) Frame(charset string) string {
	glyphs := []rune(charset)
	var sb strings.Builder
	sb.Grow(len(b) * (b.Width() + 1))
	for _, row := range b {
		for _, v := range row {
			idx := int(v * float64(len(glyphs)-1))
			if idx < 0 || idx >= len(glyphs) {
				sb.WriteByte(' ')
				continue
			}
			sb.WriteRune(glyphs[idx])
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

// RandomCharset picks n glyphs from the palette and appends a space, so the
// brightest cells always stay blank.
func RandomCharset(r *rand.Rand, n int) string {
	var sb strings.Builder
	for range n {
		sb.WriteByte(palette[r.IntN(len(palette))])
	}
	sb.WriteByte(' ')
	return sb.String()
}
