package term

import (
	"context"
	"time"
)

// DefaultIntroDelay is the pause before each intro line.
const DefaultIntroDelay = 1500 * time.Millisecond

// StartIntro rewinds the intro and disables input until it completes.
func (it *Interpreter) StartIntro() {
	it.introNext = 0
	it.mode = ModeIntro
}

// AdvanceIntro reveals the next intro line. Once every line is shown the
// following call enables input and reports true; later calls are no-ops that
// also report true.
func (it *Interpreter) AdvanceIntro() bool {
	if it.mode != ModeIntro {
		return true
	}
	if it.introNext < len(it.story.Intro) {
		it.markup(it.story.Intro[it.introNext])
		it.introNext++
		return false
	}
	it.mode = ModeInteractive
	it.logger.Info("term.intro_done", "lines", len(it.story.Intro))
	return true
}

// RunIntro drives AdvanceIntro with a delay before each step.
func (it *Interpreter) RunIntro(ctx context.Context, delay time.Duration) error {
	it.StartIntro()
	timer := time.NewTimer(delay)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
		if it.AdvanceIntro() {
			return nil
		}
		timer.Reset(delay)
	}
}
