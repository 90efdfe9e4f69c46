package report

import (
	"context"
	"errors"
	"log"
	"sync"

	"github.com/AAOleynikov/multi-agent-interview-coach/internal/contract"
	"github.com/AAOleynikov/multi-agent-interview-coach/internal/session"
)

// ErrAbandoned is returned when final feedback is requested for a session
// that was abandoned; abandoned sessions never invoke the hiring manager.
var ErrAbandoned = errors.New("session abandoned, no final feedback")

// Reporter produces the final feedback for a terminated session.
type Reporter interface {
	Report(ctx context.Context, sess *session.Session) (contract.FinalFeedback, error)
}

// #region finalizer

// Finalizer owns session termination and the exactly-once final report.
// Whatever path ends the session, the hiring manager runs at most once and
// repeat calls observe the same feedback.
type Finalizer struct {
	mu      sync.Mutex
	manager Reporter
	issued  map[string]contract.FinalFeedback
	flagged map[string]*InconsistentReport
}

func NewFinalizer(manager Reporter) *Finalizer {
	return &Finalizer{
		manager: manager,
		issued:  make(map[string]contract.FinalFeedback),
		flagged: make(map[string]*InconsistentReport),
	}
}

// Finalize terminates the session (a no-op if already terminated) and returns
// its final feedback. The first call invokes the hiring manager and runs the
// consistency gate; later calls return the cached report without touching the
// manager again. An inconsistent report buys one regeneration; if the second
// attempt is also rejected, the flagged report is cached for manual review
// and returned together with the InconsistentReport.
func (f *Finalizer) Finalize(ctx context.Context, sess *session.Session) (contract.FinalFeedback, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if fb, ok := f.issued[sess.ID]; ok {
		if ir, bad := f.flagged[sess.ID]; bad {
			return fb, ir
		}
		return fb, nil
	}
	if sess.Terminated() && sess.Outcome == session.OutcomeAbandoned {
		return contract.FinalFeedback{}, ErrAbandoned
	}
	sess.Terminate(session.OutcomeCompleted)

	var fb contract.FinalFeedback
	var err error
	for attempt := 0; attempt < 2; attempt++ {
		fb, err = f.manager.Report(ctx, sess)
		if err != nil {
			return contract.FinalFeedback{}, err
		}
		err = CheckConsistency(fb, sess.Skills)
		if err == nil {
			break
		}
		log.Printf("[REPORT] session=%s rejected final report attempt=%d: %v", sess.ID, attempt, err)
	}
	if err != nil {
		var ir *InconsistentReport
		if errors.As(err, &ir) {
			f.issued[sess.ID] = fb
			f.flagged[sess.ID] = ir
			log.Printf("[REPORT] session=%s final report flagged for review: %v", sess.ID, ir)
			return fb, ir
		}
		return contract.FinalFeedback{}, err
	}

	f.issued[sess.ID] = fb
	log.Printf("[REPORT] session=%s final report issued recommendation=%q grade=%q",
		sess.ID, fb.Decision.HiringRecommendation, fb.Decision.Grade)
	return fb, nil
}

// Abandon terminates the session without producing feedback. Idempotent; a
// session that already issued feedback keeps it.
func (f *Finalizer) Abandon(sess *session.Session) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.issued[sess.ID]; ok {
		return
	}
	sess.Terminate(session.OutcomeAbandoned)
	log.Printf("[REPORT] session=%s abandoned at turn=%d", sess.ID, sess.TurnID)
}

// Issued returns the cached final feedback for a session, if any.
func (f *Finalizer) Issued(sessionID string) (contract.FinalFeedback, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fb, ok := f.issued[sessionID]
	return fb, ok
}

// #endregion
