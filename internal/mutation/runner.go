package mutation

import (
	"context"
	"errors"
	"sync"

	"github.com/accessfit/accessfit-gateway/internal/backend"
	"github.com/accessfit/accessfit-gateway/internal/fitness"
	"github.com/accessfit/accessfit-gateway/internal/telemetry/metrics"

	log "github.com/sirupsen/logrus"
)

// State of the single in-flight mutation. The runner moves Idle ->
// Submitting -> Succeeded/Failed and settles back on Idle when Run
// returns; the outcome of the last run stays queryable until the next one.
type State string

const (
	StateIdle       State = "idle"
	StateSubmitting State = "submitting"
	StateSucceeded  State = "succeeded"
	StateFailed     State = "failed"
)

var (
	ErrSubmissionInFlight   = errors.New("a submission is already in flight")
	ErrConfirmationRequired = errors.New("destructive operation requires confirmation")
)

// Runner serializes mutations: one submission at a time, destructive ones
// only with an explicit confirmation. On success the whole dashboard is
// re-fetched; there is deliberately no local patch-merge, the backend's
// answer is the only truth.
type Runner struct {
	metricsManager *metrics.Manager

	mu          sync.Mutex
	state       State
	lastOutcome State
	lastErr     string
}

func NewRunner(metricsManager *metrics.Manager) *Runner {
	return &Runner{
		metricsManager: metricsManager,
		state:          StateIdle,
		lastOutcome:    StateIdle,
	}
}

func (r *Runner) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// LastOutcome reports how the previous run ended, with the normalized
// error message when it failed.
func (r *Runner) LastOutcome() (State, string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastOutcome, r.lastErr
}

// Run executes one mutation. The refresh callback runs only on success,
// after the mutation settled; on failure no local state is touched.
func (r *Runner) Run(
	ctx context.Context,
	entity string,
	destructive, confirmed bool,
	op func(ctx context.Context) error,
	refresh func(ctx context.Context),
) error {
	if destructive && !confirmed {
		return ErrConfirmationRequired
	}

	r.mu.Lock()
	if r.state == StateSubmitting {
		r.mu.Unlock()
		return ErrSubmissionInFlight
	}
	r.state = StateSubmitting
	r.mu.Unlock()

	err := op(ctx)

	r.mu.Lock()
	if err != nil {
		r.lastOutcome = StateFailed
		r.lastErr = NormalizeError(err)
		r.metricsManager.CounterMutations.WithLabelValues(entity, "failed").Inc()
	} else {
		r.lastOutcome = StateSucceeded
		r.lastErr = ""
		r.metricsManager.CounterMutations.WithLabelValues(entity, "succeeded").Inc()
	}
	r.state = StateIdle
	r.mu.Unlock()

	if err != nil {
		log.Tracef("mutation on %s failed: %s", entity, err)
		return err
	}

	if refresh != nil {
		refresh(ctx)
	}
	return nil
}

// NormalizeError reduces any mutation failure to the one message shown to
// the user, regardless of where in the stack it originated.
func NormalizeError(err error) string {
	var valErr *fitness.ValidationError
	if errors.As(err, &valErr) {
		return valErr.Error()
	}
	var reqErr *backend.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.Message
	}
	return err.Error()
}
