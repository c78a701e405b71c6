// Package app wires the story, interpreter, collaborators and journal into
// the interactive TUI and the headless player.
package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/mattn/go-isatty"

	"lovevirus/assets"
	"lovevirus/internal/art"
	"lovevirus/internal/rain"
	"lovevirus/internal/render"
	"lovevirus/internal/state"
	"lovevirus/internal/story"
	"lovevirus/internal/telemetry"
	"lovevirus/internal/term"
	"lovevirus/internal/ui"
)

const (
	modeTUI  = "tui"
	modePlay = "play"
)

type App struct {
	cfg Config

	logger *telemetry.Logger
	// store stays nil when the journal is disabled.
	store state.Store
	story story.Story

	now func() time.Time
}

func New(cfg Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return nil, err
	}

	logger, err := telemetry.New(cfg.LogPath, cfg.Debug)
	if err != nil {
		return nil, fmt.Errorf("open log: %w", err)
	}

	st, err := story.Load(cfg.StoryPath)
	if err != nil {
		_ = logger.Close()
		return nil, fmt.Errorf("load story: %w", err)
	}

	a := &App{cfg: cfg, logger: logger, story: st, now: time.Now}
	if cfg.NoJournal {
		return a, nil
	}

	store, err := state.NewSQLite(cfg.JournalPath())
	if err != nil {
		_ = logger.Close()
		return nil, err
	}
	if err := store.EnsureSchema(context.Background()); err != nil {
		_ = store.Close()
		_ = logger.Close()
		return nil, err
	}
	a.store = store
	return a, nil
}

// Run shows the TUI until the user quits or ctx ends.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	theme := ui.ThemeForVariant(a.cfg.UI.Theme)
	md, err := a.markdown(theme.Glamour, os.Stdout)
	if err != nil {
		return err
	}

	log := term.NewLog(0)
	band := rain.New(rain.Options{
		Head:   theme.RainHead,
		Tail:   theme.RainTail,
		Plain:  theme.RainHead == "",
		Logger: a.logger.Logger,
	})

	var view *ui.Root
	it, sessionID, err := a.startSession(ctx, session{
		mode:   modeTUI,
		out:    log,
		md:     md,
		color:  theme.Heart,
		redraw: func() { view.RequestDraw() },
		// Events fire on the update goroutine, which must not block on Send.
		onFinale: func() { go view.FlashStatus("protocol complete") },
	})
	if err != nil {
		return err
	}

	view = ui.New(ui.Options{
		Context:     ctx,
		Shell:       it,
		Feed:        log,
		Rain:        band,
		Title:       a.story.Title,
		ASCIIOnly:   a.cfg.ASCIIOnly,
		Debug:       a.cfg.Debug,
		Theme:       a.cfg.UI.Theme,
		MotionLevel: a.cfg.UI.MotionLevel,
		IntroDelay:  a.cfg.IntroDelay,
		Logger:      a.logger.Logger,
	})
	log.SetDirty(view.RequestDraw)
	band.Surface().SetDirty(view.RequestDraw)
	if a.cfg.UI.MotionLevel != "off" {
		band.Start(ctx)
	}

	a.saveSettings(ctx)
	a.logger.Info("app.start", "session", sessionID, "mode", modeTUI, "theme", a.cfg.UI.Theme, "story", a.story.Title)
	err = view.Run()
	a.logger.Info("app.stop", "session", sessionID, "commands", it.CommandCount(), "mode", it.Mode().String())
	return err
}

func (a *App) Close() {
	if a.store != nil {
		_ = a.store.Close()
	}
	_ = a.logger.Close()
}

// Store exposes the journal, or nil when it is disabled.
func (a *App) Store() state.Store { return a.store }

type session struct {
	mode   string
	out    term.Output
	md     term.Renderer
	color  string
	redraw func()
	// onFinale runs once the finale has been journaled.
	onFinale func()
}

func (a *App) startSession(ctx context.Context, s session) (*term.Interpreter, string, error) {
	j := &journal{
		ctx:       ctx,
		store:     a.store,
		logger:    a.logger.Logger,
		sessionID: uuid.NewString(),
		mode:      s.mode,
		now:       a.now,
		onFinale:  s.onFinale,
	}
	it, err := term.New(term.Options{
		Story:       a.story,
		Output:      s.out,
		Renderer:    s.md,
		NewAnimator: a.heartFactory(ctx, s.color, s.redraw),
		Events:      j,
		Logger:      a.logger.Logger,
		Now:         a.now,
	})
	if err != nil {
		return nil, "", err
	}
	if err := j.start(a.story.Title); err != nil {
		a.logger.Error("journal.start_failed", "session", j.sessionID, "err", err)
	}
	return it, j.sessionID, nil
}

// heart adapts the ASCII image animator to the interpreter.
type heart struct {
	*art.Animator
}

func (h heart) Surface() term.Element { return h.Animator.Surface() }

func (a *App) heartFactory(ctx context.Context, color string, redraw func()) func() term.Animator {
	return func() term.Animator {
		h := art.New(ctx, art.Options{
			ImagePath: a.imagePath(),
			Assets:    assets.FS,
			AssetName: assets.ImageFile,
			Color:     color,
			Logger:    a.logger.Logger,
		})
		if redraw != nil {
			h.Surface().SetDirty(redraw)
		}
		return heart{Animator: h}
	}
}

// imagePath prefers the configured image, then the story's image next to a
// story file on disk. An empty result falls back to the embedded image.
func (a *App) imagePath() string {
	if a.cfg.ImagePath != "" {
		return a.cfg.ImagePath
	}
	if a.story.Path != "" && a.story.Image != "" {
		return filepath.Join(filepath.Dir(a.story.Path), a.story.Image)
	}
	return ""
}

// markdown picks a glamour style for f: ascii when requested, notty when f is
// not a terminal, otherwise the theme's style.
func (a *App) markdown(style string, f *os.File) (*render.Markdown, error) {
	switch {
	case a.cfg.ASCIIOnly:
		style = "ascii"
	case !isTerminal(f):
		style = "notty"
	}
	md, err := render.NewMarkdown(render.Options{Style: style})
	if err != nil {
		return nil, fmt.Errorf("markdown renderer: %w", err)
	}
	return md, nil
}

func (a *App) saveSettings(ctx context.Context) {
	if a.store == nil {
		return
	}
	err := a.store.SaveSettings(ctx, map[string]string{
		"theme":  a.cfg.UI.Theme,
		"motion": a.cfg.UI.MotionLevel,
	})
	if err != nil {
		a.logger.Warn("journal.settings_failed", "err", err)
	}
}

func isTerminal(f *os.File) bool {
	if f == nil {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
