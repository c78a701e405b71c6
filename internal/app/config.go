package app

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	gap "github.com/muesli/go-app-paths"

	"lovevirus/internal/term"
	"lovevirus/internal/ui"
)

const (
	appName   = "lovevirus"
	envPrefix = "LOVEVIRUS_"
)

// Config controls runtime behavior for the TUI and headless runs.
type Config struct {
	// StoryPath overrides the embedded story script.
	StoryPath string `env:"STORY"`
	// ImagePath overrides the image revealed at the finale.
	ImagePath  string        `env:"IMAGE"`
	LogPath    string        `env:"LOG"`
	Debug      bool          `env:"DEBUG"`
	DataDir    string        `env:"DATA_DIR"`
	NoJournal  bool          `env:"NO_JOURNAL"`
	ASCIIOnly  bool          `env:"ASCII"`
	IntroDelay time.Duration `env:"INTRO_DELAY"`
	UI         UIConfig
}

type UIConfig struct {
	Theme       string `env:"THEME"`
	MotionLevel string `env:"MOTION"`
}

func DefaultConfig() Config {
	return Config{
		IntroDelay: term.DefaultIntroDelay,
		UI: UIConfig{
			Theme:       "matrix",
			MotionLevel: "full",
		},
	}
}

// LoadConfig layers the defaults, the first readable dotenv file and
// LOVEVIRUS_* variables. Missing dotenv files are skipped.
func LoadConfig(dotenv ...string) (Config, error) {
	cfg := DefaultConfig()
	for _, path := range dotenv {
		if err := godotenv.Load(path); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return cfg, fmt.Errorf("load %s: %w", path, err)
		}
	}
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: envPrefix}); err != nil {
		return cfg, fmt.Errorf("parse environment: %w", err)
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	c.UI.Theme = strings.ToLower(strings.TrimSpace(c.UI.Theme))
	if c.UI.Theme == "" {
		c.UI.Theme = ui.Variants[0]
	}
	if !slices.Contains(ui.Variants, c.UI.Theme) {
		return fmt.Errorf("invalid theme %q (want one of %s)", c.UI.Theme, strings.Join(ui.Variants, ", "))
	}

	c.UI.MotionLevel = strings.ToLower(strings.TrimSpace(c.UI.MotionLevel))
	switch c.UI.MotionLevel {
	case "", "off", "reduced", "full":
	default:
		return fmt.Errorf("invalid motion level %q", c.UI.MotionLevel)
	}
	if c.UI.MotionLevel == "" {
		c.UI.MotionLevel = "full"
	}

	if c.IntroDelay < 0 {
		return fmt.Errorf("invalid intro delay %s", c.IntroDelay)
	}
	if c.IntroDelay == 0 {
		c.IntroDelay = term.DefaultIntroDelay
	}

	if c.DataDir == "" {
		dir, err := gap.NewScope(gap.User, appName).DataPath("")
		if err != nil {
			return fmt.Errorf("resolve data dir: %w", err)
		}
		c.DataDir = dir
	}
	if c.LogPath == "" {
		c.LogPath = filepath.Join(c.DataDir, appName+".log")
	}
	return nil
}

// JournalPath is where the session journal lives.
func (c Config) JournalPath() string {
	return filepath.Join(c.DataDir, "journal.db")
}
