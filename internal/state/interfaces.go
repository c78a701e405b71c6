package state

import (
	"context"
	"time"
)

// Store is the session journal. It only records what happened; nothing is
// ever restored from it.
type Store interface {
	EnsureSchema(ctx context.Context) error
	StartSession(ctx context.Context, session Session) error
	RecordCommand(ctx context.Context, cmd Command) error
	RecordDecision(ctx context.Context, sessionID string, yes bool, at time.Time) error
	MarkFinale(ctx context.Context, sessionID string, at time.Time) error
	SaveSettings(ctx context.Context, values map[string]string) error
	LoadSettings(ctx context.Context) (map[string]string, error)
	GetSummary(ctx context.Context) (Summary, error)
	RecentSessions(ctx context.Context, limit int) ([]SessionInfo, error)
	Close() error
}

type Session struct {
	ID         string
	StoryTitle string
	Mode       string
	StartTS    time.Time
}

type Command struct {
	SessionID string
	Seq       int
	Line      string
	Mode      string
	TS        time.Time
}

type Summary struct {
	Sessions  int
	Commands  int
	Finales   int
	Accepted  int
	Resisted  int
	Undecided int
}

type SessionInfo struct {
	ID         string
	StoryTitle string
	Mode       string
	StartTS    time.Time
	FinaleTS   time.Time
	Decision   string
	Commands   int
}

// Reached reports whether the session got to the finale.
func (s SessionInfo) Reached() bool { return !s.FinaleTS.IsZero() }
