package main

import (
	"fmt"
	"strings"
	"time"

	mcobra "github.com/muesli/mango-cobra"
	"github.com/muesli/roff"
	"github.com/spf13/cobra"

	"lovevirus/internal/app"
	"lovevirus/internal/demo"
	"lovevirus/internal/ui"
)

func newRootCmd(cfg *app.Config) *cobra.Command {
	root := &cobra.Command{
		Use:           "lovevirus",
		Short:         "A scripted terminal that slowly gets infected with love",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := app.New(*cfg)
			if err != nil {
				return err
			}
			defer a.Close()
			return a.Run(cmd.Context())
		},
	}

	f := root.PersistentFlags()
	f.StringVar(&cfg.StoryPath, "story", cfg.StoryPath, "story script to play instead of the built-in one")
	f.StringVar(&cfg.ImagePath, "image", cfg.ImagePath, "image revealed at the finale")
	f.StringVar(&cfg.LogPath, "log", cfg.LogPath, "log file (default <data-dir>/lovevirus.log)")
	f.BoolVar(&cfg.Debug, "debug", cfg.Debug, "log at debug level")
	f.StringVar(&cfg.DataDir, "data-dir", cfg.DataDir, "directory for the journal and log")
	f.BoolVar(&cfg.NoJournal, "no-journal", cfg.NoJournal, "do not record sessions")
	f.StringVar(&cfg.UI.Theme, "theme", cfg.UI.Theme, "colour theme: "+strings.Join(ui.Variants, ", "))
	f.StringVar(&cfg.UI.MotionLevel, "motion", cfg.UI.MotionLevel, "animation level: off, reduced, full")
	f.BoolVar(&cfg.ASCIIOnly, "ascii", cfg.ASCIIOnly, "draw with ASCII characters only")
	f.DurationVar(&cfg.IntroDelay, "intro-delay", cfg.IntroDelay, "pause between intro lines")

	root.AddCommand(newPlayCmd(cfg), newStatsCmd(cfg), newManCmd(root))
	return root
}

func newPlayCmd(cfg *app.Config) *cobra.Command {
	var opts app.PlayOptions
	cmd := &cobra.Command{
		Use:   "play",
		Short: "Play the story without the TUI, reading commands from stdin",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := app.New(*cfg)
			if err != nil {
				return err
			}
			defer a.Close()
			_, err = a.Play(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout(), opts)
			return err
		},
	}
	names := demo.NewManager().Names()
	cmd.Flags().StringVar(&opts.Demo, "demo", "", "play a scripted scenario: "+strings.Join(names, ", "))
	cmd.Flags().BoolVar(&opts.Fast, "fast", false, "show the intro without pauses")
	cmd.Flags().DurationVar(&opts.HeartWait, "heart-wait", 3*time.Second, "how long to wait for the finale image")
	return cmd
}

func newStatsCmd(cfg *app.Config) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Summarise recorded sessions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := app.New(*cfg)
			if err != nil {
				return err
			}
			defer a.Close()
			return a.Stats(cmd.Context(), cmd.OutOrStdout(), limit)
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 10, "number of recent sessions to list")
	return cmd
}

func newManCmd(root *cobra.Command) *cobra.Command {
	return &cobra.Command{
		Use:    "man",
		Short:  "Print the man page",
		Hidden: true,
		Args:   cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			page, err := mcobra.NewManPage(root)
			if err != nil {
				return err
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), page.Build(roff.NewDocument()))
			return err
		},
	}
}
