// Package rain animates falling glyph columns behind the terminal.
package rain

import (
	"context"
	"io"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"charm.land/lipgloss/v2"
	clog "github.com/charmbracelet/log"
	"github.com/lucasb-eyer/go-colorful"

	"lovevirus/internal/canvas"
)

const (
	DefaultInterval = 50 * time.Millisecond
	DefaultHead     = "#d8ffd8"
	DefaultTail     = "#002600"

	glyphs = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	// resetChance is the per-frame probability that a drop past the bottom
	// starts again from the top.
	resetChance = 0.025
	// trail is how many frames a glyph stays visible while fading.
	trail = 12
)

type Options struct {
	Cols     int
	Rows     int
	Interval time.Duration
	// Head and Tail are the gradient endpoints. Plain disables colour.
	Head   string
	Tail   string
	Plain  bool
	Rand   *rand.Rand
	Logger *clog.Logger
}

type cell struct {
	glyph byte
	age   int
}

type Animator struct {
	mu    sync.Mutex
	cols  int
	rows  int
	drops []int
	grid  [][]cell
	r     *rand.Rand

	interval time.Duration
	plain    bool
	styles   []lipgloss.Style
	surface  *canvas.Surface
	logger   *clog.Logger
	once     sync.Once
}

func New(opts Options) *Animator {
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0x5eed))
	}
	if opts.Logger == nil {
		opts.Logger = clog.New(io.Discard)
	}
	a := &Animator{
		r:        opts.Rand,
		interval: opts.Interval,
		plain:    opts.Plain,
		surface:  canvas.NewSurface(),
		logger:   opts.Logger,
	}
	if !opts.Plain {
		a.styles = Gradient(opts.Head, opts.Tail, trail)
	}
	a.Resize(opts.Cols, opts.Rows)
	return a
}

func (a *Animator) Surface() *canvas.Surface { return a.surface }

// Gradient returns n foreground styles blending from head to tail in Lab
// space. Unparseable colours fall back to the defaults.
func Gradient(head, tail string, n int) []lipgloss.Style {
	from, err := colorful.Hex(head)
	if err != nil {
		from, _ = colorful.Hex(DefaultHead)
	}
	to, err := colorful.Hex(tail)
	if err != nil {
		to, _ = colorful.Hex(DefaultTail)
	}
	styles := make([]lipgloss.Style, n)
	for i := range n {
		t := 0.0
		if n > 1 {
			t = float64(i) / float64(n-1)
		}
		styles[i] = lipgloss.NewStyle().Foreground(from.BlendLab(to, t).Clamped())
	}
	return styles
}

// Resize changes the grid size, keeping what overlaps. Safe while running.
func (a *Animator) Resize(cols, rows int) {
	cols, rows = max(cols, 0), max(rows, 0)
	a.mu.Lock()
	defer a.mu.Unlock()
	if cols == a.cols && rows == a.rows {
		return
	}
	drops := make([]int, cols)
	copy(drops, a.drops)
	grid := make([][]cell, rows)
	for y := range grid {
		grid[y] = make([]cell, cols)
		for x := range grid[y] {
			grid[y][x].age = trail
		}
		if y < len(a.grid) {
			copy(grid[y], a.grid[y])
		}
	}
	a.cols, a.rows, a.drops, a.grid = cols, rows, drops, grid
}

func (a *Animator) Size() (cols, rows int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.cols, a.rows
}

// Start redraws every interval until ctx ends. Only the first call has any
// effect.
func (a *Animator) Start(ctx context.Context) {
	a.once.Do(func() {
		go func() {
			t := time.NewTicker(a.interval)
			defer t.Stop()
			for {
				select {
				case <-ctx.Done():
					a.logger.Debug("rain.stopped")
					return
				case <-t.C:
					a.Step()
				}
			}
		}()
	})
}

// Step advances every drop by one row and publishes the new frame.
func (a *Animator) Step() {
	a.mu.Lock()
	for y := range a.grid {
		for x := range a.grid[y] {
			if a.grid[y][x].age < trail {
				a.grid[y][x].age++
			}
		}
	}
	for x := range a.drops {
		if y := a.drops[x]; y < a.rows {
			a.grid[y][x] = cell{glyph: glyphs[a.r.IntN(len(glyphs))]}
		}
		if a.drops[x] >= a.rows && a.r.Float64() < resetChance {
			a.drops[x] = 0
			continue
		}
		a.drops[x]++
	}
	frame := a.renderLocked()
	a.mu.Unlock()
	a.surface.Set(frame)
}

// Rows returns the visible glyphs without styling.
func (a *Animator) Rows() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]string, len(a.grid))
	for y, row := range a.grid {
		b := make([]byte, len(row))
		for x, c := range row {
			b[x] = ' '
			if c.age < trail && c.glyph != 0 {
				b[x] = c.glyph
			}
		}
		out[y] = string(b)
	}
	return out
}

func (a *Animator) renderLocked() string {
	var sb strings.Builder
	for y, row := range a.grid {
		if y > 0 {
			sb.WriteByte('\n')
		}
		// Runs of equal age share one styled span.
		for x := 0; x < len(row); {
			age := row[x].age
			end := x
			var run strings.Builder
			for end < len(row) && row[end].age == age {
				if age < trail && row[end].glyph != 0 {
					run.WriteByte(row[end].glyph)
				} else {
					run.WriteByte(' ')
				}
				end++
			}
			if a.plain || age >= trail {
				sb.WriteString(run.String())
			} else {
				sb.WriteString(a.styles[age].Render(run.String()))
			}
			x = end
		}
	}
	return sb.String()
}
