package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/LACSistemas/EscriturasNew/internal/logging"
	"github.com/LACSistemas/EscriturasNew/pkg/domain"
	"github.com/LACSistemas/EscriturasNew/pkg/observability"
	"github.com/LACSistemas/EscriturasNew/pkg/ports"
	"github.com/LACSistemas/EscriturasNew/pkg/session"
	"github.com/LACSistemas/EscriturasNew/pkg/workflow"
)

// Response is one submission against a session's current step. Sequence
// must equal the sequence the prompt was rendered against.
type Response struct {
	Sequence uint64
	Answer   string
	FileData []byte
	Filename string
}

// Outcome is what the caller renders next: the following step's prompt, or
// a completion signal once the terminal step is reached.
type Outcome struct {
	SessionID  string           `json:"session_id"`
	Sequence   uint64           `json:"sequence"`
	StepNumber uint64           `json:"step_number"`
	TotalSteps int              `json:"total_steps"`
	Completed  bool             `json:"completed"`
	Prompt     *workflow.Prompt `json:"prompt,omitempty"`
}

// Engine applies responses to sessions against an immutable workflow
// definition. It is safe for concurrent use; per-session serialization is
// delegated to the session manager.
type Engine struct {
	def      *workflow.Definition
	sessions *session.Manager
	logger   *slog.Logger
	metrics  *observability.Metrics
	now      func() time.Time
}

// Option configures the Engine.
type Option func(*Engine)

// WithLogger sets a structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// WithMetrics enables prometheus instrumentation.
func WithMetrics(m *observability.Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// WithClock overrides the time source (tests).
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// New creates an engine over a built definition and a session manager.
func New(def *workflow.Definition, sessions *session.Manager, opts ...Option) *Engine {
	e := &Engine{
		def:      def,
		sessions: sessions,
		logger:   logging.NewNop(),
		now:      func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Definition returns the workflow the engine runs. It is immutable and
// shared; introspection surfaces read it directly so they can never see a
// stale copy.
func (e *Engine) Definition() *workflow.Definition { return e.def }

// StartSession loads the session or creates it at the entry step, and
// returns the current prompt.
func (e *Engine) StartSession(ctx context.Context, sessionID string) (*Outcome, error) {
	s, err := e.sessions.LoadOrStart(ctx, sessionID, e.def.Entry())
	if err != nil {
		return nil, err
	}
	if s.Sequence == 0 && len(s.History) == 0 {
		e.metrics.SessionStarted()
	}
	return e.render(s)
}

// Prompt returns the rendering payload for the session's current step
// without advancing anything.
func (e *Engine) Prompt(ctx context.Context, sessionID string) (*Outcome, error) {
	s, err := e.sessions.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return e.render(s)
}

// Reset restarts the interview: the session returns to the entry step with
// all collected data discarded. The generation stamp increments so any
// extraction still in flight for the old interview is dropped when it
// returns.
func (e *Engine) Reset(ctx context.Context, sessionID string) (*Outcome, error) {
	var fresh *domain.Session
	err := e.sessions.WithLock(ctx, sessionID, func(ctx context.Context) error {
		generation := uint64(0)
		old, err := e.sessions.Store().Load(ctx, sessionID)
		switch {
		case err == nil:
			generation = old.Generation + 1
		case !errors.Is(err, domain.ErrSessionNotFound):
			return err
		}
		fresh = domain.NewSession(sessionID, e.def.Entry())
		fresh.Generation = generation
		return e.sessions.Store().Save(ctx, fresh)
	})
	if err != nil {
		return nil, err
	}
	return e.render(fresh)
}

// Delete removes the session entirely.
func (e *Engine) Delete(ctx context.Context, sessionID string) error {
	return e.sessions.Delete(ctx, sessionID)
}

// Sessions lists the IDs of all known sessions.
func (e *Engine) Sessions(ctx context.Context) ([]string, error) {
	return e.sessions.List(ctx)
}

// Snapshot returns a copy of the session for read-only inspection.
func (e *Engine) Snapshot(ctx context.Context, sessionID string) (*domain.Session, error) {
	return e.sessions.Load(ctx, sessionID)
}

// pendingUpload carries a validated file submission across the unlocked
// extraction phase.
type pendingUpload struct {
	upload     *workflow.FileUpload
	hint       ports.ExtractionHint
	generation uint64
	sequence   uint64
	stepName   string
}

// ProcessStep validates the response against the session's current step,
// applies the handler, performs the transition, and returns the next
// prompt. On any error the persisted session is exactly as it was before
// the call.
func (e *Engine) ProcessStep(ctx context.Context, sessionID string, resp Response) (*Outcome, error) {
	started := e.now()
	wfResp := workflow.Response{Answer: resp.Answer, FileData: resp.FileData, Filename: resp.Filename}

	var (
		outcome *Outcome
		pending *pendingUpload
		step    workflow.Step
	)

	err := e.sessions.WithLock(ctx, sessionID, func(ctx context.Context) error {
		s, err := e.sessions.Store().Load(ctx, sessionID)
		if err != nil {
			return err
		}

		step, err = e.stepFor(s)
		if err != nil {
			return err
		}
		if step.Terminal {
			return &domain.ValidationError{Step: s.CurrentStep, Reason: "the interview is already complete"}
		}
		if err := checkSequence(s, resp.Sequence); err != nil {
			return err
		}
		if err := step.Handler.Validate(wfResp); err != nil {
			return &domain.ValidationError{Step: s.CurrentStep, Reason: err.Error()}
		}

		if upload, ok := step.Handler.(*workflow.FileUpload); ok {
			pending = &pendingUpload{
				upload:     upload,
				hint:       upload.Hint(s),
				generation: s.Generation,
				sequence:   s.Sequence,
				stepName:   s.CurrentStep,
			}
			return nil
		}

		work := s.Clone()
		if err := step.Handler.Accept(ctx, work, wfResp); err != nil {
			return err
		}
		outcome, err = e.advance(ctx, work, step, wfResp.Answer, wfResp.Answer)
		return err
	})
	if err != nil {
		e.observe(step.Name, started, err)
		return nil, err
	}

	if pending == nil {
		e.observe(step.Name, started, nil)
		return outcome, nil
	}

	// Extraction runs outside the session lock so a reset is never blocked
	// behind a slow gateway call.
	fields, attempts, xerr := pending.upload.ExtractFields(ctx, wfResp, pending.hint)
	e.metrics.ObserveExtraction(attempts, xerr != nil)
	if xerr != nil {
		err := &domain.ExtractionError{Step: pending.stepName, Attempts: attempts, Err: xerr}
		e.observe(pending.stepName, started, err)
		return nil, err
	}

	err = e.sessions.WithLock(ctx, sessionID, func(ctx context.Context) error {
		s, err := e.sessions.Store().Load(ctx, sessionID)
		if err != nil {
			return err
		}
		// The session was reset or advanced while the gateway call was in
		// flight: drop the extraction result.
		if s.Generation != pending.generation || s.Sequence != pending.sequence || s.CurrentStep != pending.stepName {
			return &domain.StaleRequestError{Got: pending.sequence, Want: s.Sequence}
		}

		work := s.Clone()
		if err := pending.upload.MergeFields(work, fields); err != nil {
			return err
		}
		outcome, err = e.advance(ctx, work, step, wfResp.Answer, wfResp.Filename)
		return err
	})
	e.observe(pending.stepName, started, err)
	if err != nil {
		return nil, err
	}
	return outcome, nil
}

// advance resolves the transition, records history, bumps the sequence, and
// persists. Called with the session lock held; uses the store directly.
func (e *Engine) advance(ctx context.Context, work *domain.Session, step workflow.Step, answer, summary string) (*Outcome, error) {
	target, ok := e.def.Resolve(step, answer)
	if !ok {
		return nil, &domain.TransitionError{Step: step.Name, Response: answer}
	}

	work.Record(step.Name, summary, e.now())
	work.CurrentStep = target
	work.Sequence++

	if err := e.sessions.Store().Save(ctx, work); err != nil {
		return nil, fmt.Errorf("persist session: %w", err)
	}

	e.logger.Info("transition applied",
		"session_id", work.ID,
		"from", step.Name,
		"to", target,
		"sequence", work.Sequence,
	)

	next, _ := e.def.Step(target)
	if next.Terminal {
		e.metrics.SessionCompleted()
	}
	return e.render(work)
}

func (e *Engine) render(s *domain.Session) (*Outcome, error) {
	step, err := e.stepFor(s)
	if err != nil {
		return nil, err
	}
	prompt := step.Handler.Prompt(s)
	prompt.Step = step.Name
	return &Outcome{
		SessionID:  s.ID,
		Sequence:   s.Sequence,
		StepNumber: s.Sequence + 1,
		TotalSteps: e.def.Len(),
		Completed:  step.Terminal,
		Prompt:     &prompt,
	}, nil
}

func (e *Engine) stepFor(s *domain.Session) (workflow.Step, error) {
	step, ok := e.def.Step(s.CurrentStep)
	if !ok {
		return workflow.Step{}, fmt.Errorf("session %s references unknown step %q", s.ID, s.CurrentStep)
	}
	return step, nil
}

func checkSequence(s *domain.Session, got uint64) error {
	switch {
	case got < s.Sequence:
		return &domain.StaleRequestError{Got: got, Want: s.Sequence}
	case got > s.Sequence:
		return &domain.ValidationError{
			Step:   s.CurrentStep,
			Reason: fmt.Sprintf("response sequence %d is ahead of the session (at %d)", got, s.Sequence),
		}
	}
	return nil
}

func (e *Engine) observe(step string, started time.Time, err error) {
	outcome := "ok"
	switch {
	case err == nil:
	case isValidation(err):
		outcome = "validation_error"
	case isStale(err):
		outcome = "stale_request"
	case isExtraction(err):
		outcome = "extraction_error"
	case isTransition(err):
		outcome = "transition_error"
	default:
		outcome = "error"
	}
	e.metrics.ObserveStep(step, outcome, e.now().Sub(started))
}

func isValidation(err error) bool {
	var target *domain.ValidationError
	return errors.As(err, &target)
}

func isStale(err error) bool {
	var target *domain.StaleRequestError
	return errors.As(err, &target)
}

func isExtraction(err error) bool {
	var target *domain.ExtractionError
	return errors.As(err, &target)
}

func isTransition(err error) bool {
	var target *domain.TransitionError
	return errors.As(err, &target)
}
