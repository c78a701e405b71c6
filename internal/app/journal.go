package app

import (
	"context"
	"time"

	clog "github.com/charmbracelet/log"

	"lovevirus/internal/state"
)

// journal records narrative progress in the session store. It satisfies
// term.Events; every write is best effort and failures are only logged.
type journal struct {
	ctx       context.Context
	store     state.Store
	logger    *clog.Logger
	sessionID string
	mode      string
	now       func() time.Time
	// onFinale runs after the finale is recorded.
	onFinale func()
}

func (j *journal) start(title string) error {
	if j.store == nil {
		return nil
	}
	return j.store.StartSession(j.ctx, state.Session{
		ID:         j.sessionID,
		StoryTitle: title,
		Mode:       j.mode,
		StartTS:    j.now(),
	})
}

func (j *journal) CommandRun(seq int, line string) {
	if j.store == nil {
		return
	}
	err := j.store.RecordCommand(j.ctx, state.Command{
		SessionID: j.sessionID,
		Seq:       seq,
		Line:      line,
		Mode:      j.mode,
		TS:        j.now(),
	})
	if err != nil {
		j.logger.Error("journal.command_failed", "session", j.sessionID, "seq", seq, "err", err)
	}
}

func (j *journal) DecisionMade(yes bool) {
	j.logger.Info("story.decision", "session", j.sessionID, "yes", yes)
	if j.store == nil {
		return
	}
	if err := j.store.RecordDecision(j.ctx, j.sessionID, yes, j.now()); err != nil {
		j.logger.Error("journal.decision_failed", "session", j.sessionID, "err", err)
	}
}

func (j *journal) FinaleReached() {
	j.logger.Info("story.finale", "session", j.sessionID)
	if j.store != nil {
		if err := j.store.MarkFinale(j.ctx, j.sessionID, j.now()); err != nil {
			j.logger.Error("journal.finale_failed", "session", j.sessionID, "err", err)
		}
	}
	if j.onFinale != nil {
		j.onFinale()
	}
}
