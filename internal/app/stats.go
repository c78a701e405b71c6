package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"lovevirus/internal/state"
)

var ErrJournalDisabled = errors.New("journal is disabled")

// Stats prints the journal summary followed by the most recent sessions.
func (a *App) Stats(ctx context.Context, w io.Writer, limit int) error {
	if a.store == nil {
		return ErrJournalDisabled
	}
	sum, err := a.store.GetSummary(ctx)
	if err != nil {
		return fmt.Errorf("journal summary: %w", err)
	}
	sessions, err := a.store.RecentSessions(ctx, limit)
	if err != nil {
		return fmt.Errorf("recent sessions: %w", err)
	}
	settings, err := a.store.LoadSettings(ctx)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}
	return writeStats(w, sum, sessions, settings, a.now())
}

func writeStats(w io.Writer, sum state.Summary, sessions []state.SessionInfo, settings map[string]string, now time.Time) error {
	var err error
	printf := func(format string, args ...any) {
		if err == nil {
			_, err = fmt.Fprintf(w, format, args...)
		}
	}

	printf("sessions   %s\n", humanize.Comma(int64(sum.Sessions)))
	printf("commands   %s\n", humanize.Comma(int64(sum.Commands)))
	printf("finales    %s\n", humanize.Comma(int64(sum.Finales)))
	printf("decisions  yes %d / no %d / none %d\n", sum.Accepted, sum.Resisted, sum.Undecided)
	if theme := settings["theme"]; theme != "" {
		printf("last theme %s (motion %s)\n", theme, settings["motion"])
	}
	if len(sessions) == 0 {
		return err
	}

	printf("\nrecent\n")
	for _, s := range sessions {
		decision := s.Decision
		if decision == "" {
			decision = "-"
		}
		finale := "no finale"
		if s.Reached() {
			finale = "finale after " + strings.TrimSpace(humanize.RelTime(s.StartTS, s.FinaleTS, "", ""))
		}
		printf("  %s  %-4s  %3d cmds  %-3s  %s  %s\n",
			shortID(s.ID), s.Mode, s.Commands, decision, finale, humanize.RelTime(s.StartTS, now, "ago", "from now"))
	}
	return err
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
