package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"go.uber.org/multierr"

	"github.com/iho/opsledger/internal/domain"
	"github.com/iho/opsledger/internal/infrastructure/metrics"
)

// StepKind tells the saga how to treat a step's failure.
type StepKind string

const (
	// StepLocal failures compensate every completed local step and abort.
	StepLocal StepKind = "local"
	// StepExternal failures are recorded in the result and the saga continues.
	StepExternal StepKind = "external"
)

// Compensation undoes a completed local step.
type Compensation func(ctx context.Context) error

// Step is one action of a saga.
type Step struct {
	Name     string
	Kind     StepKind
	local    func(ctx context.Context) (Compensation, error)
	external func(ctx context.Context) error
}

// LocalStep creates a step that writes local state. fn returns the
// compensation to run if a later local step fails; nil means nothing to undo.
func LocalStep(name string, fn func(ctx context.Context) (Compensation, error)) Step {
	return Step{Name: name, Kind: StepLocal, local: fn}
}

// ExternalStep creates a best-effort step calling an outside system.
func ExternalStep(name string, fn func(ctx context.Context) error) Step {
	return Step{Name: name, Kind: StepExternal, external: fn}
}

// SagaResult reports a saga that ran to completion.
type SagaResult struct {
	// Completed lists local steps in execution order.
	Completed []string
	// External maps each external step to whether it succeeded.
	External map[string]bool
}

// ExternalSucceeded reports whether the named external step succeeded.
func (r *SagaResult) ExternalSucceeded(name string) bool {
	return r != nil && r.External[name]
}

type pendingCompensation struct {
	step string
	fn   Compensation
}

// Saga runs ordered steps with reverse-order compensation of local steps.
// It holds no per-run state and may be shared.
type Saga struct {
	logger          zerolog.Logger
	metrics         *metrics.Metrics
	externalTimeout time.Duration
}

// NewSaga creates a new Saga. A non-positive externalTimeout uses DefaultExternalTimeout.
func NewSaga(logger zerolog.Logger, m *metrics.Metrics, externalTimeout time.Duration) *Saga {
	if externalTimeout <= 0 {
		externalTimeout = DefaultExternalTimeout
	}
	return &Saga{
		logger:          logger,
		metrics:         m,
		externalTimeout: externalTimeout,
	}
}

// Run executes steps strictly in order.
//
// When a local step fails, the compensations of the local steps completed
// before it run in reverse order and the step's error is returned as is.
// Compensation failures are logged, never returned. An external step that
// fails or times out is recorded as false in the result and does not stop
// the saga.
func (s *Saga) Run(ctx context.Context, steps ...Step) (*SagaResult, error) {
	if err := validateSteps(steps); err != nil {
		return nil, err
	}

	result := &SagaResult{External: make(map[string]bool)}
	var stack []pendingCompensation

	for _, step := range steps {
		switch step.Kind {
		case StepLocal:
			compensate, err := step.local(ctx)
			if err != nil {
				s.logger.Warn().Err(err).Str("step", step.Name).Int("compensations", len(stack)).Msg("saga step failed, compensating")
				if cerr := s.compensate(ctx, stack); cerr != nil {
					s.logger.Error().
						Err(cerr).
						Str("step", step.Name).
						Int("failed_compensations", len(multierr.Errors(cerr))).
						Msg("saga left partial local state")
				}
				return nil, err
			}

			if compensate != nil {
				stack = append(stack, pendingCompensation{step: step.Name, fn: compensate})
			}
			result.Completed = append(result.Completed, step.Name)

		case StepExternal:
			result.External[step.Name] = s.runExternal(ctx, step)
		}
	}

	return result, nil
}

func (s *Saga) runExternal(ctx context.Context, step Step) bool {
	stepCtx, cancel := context.WithTimeout(ctx, s.externalTimeout)
	defer cancel()

	if err := step.external(stepCtx); err != nil {
		s.logger.Warn().Err(err).Str("step", step.Name).Msg("external saga step failed, continuing degraded")
		if s.metrics != nil {
			s.metrics.ExternalStepFailures.WithLabelValues(step.Name).Inc()
		}
		return false
	}

	return true
}

// compensate runs pending compensations last-in first-out, one at a time.
// They run detached from ctx cancellation so an aborted request still undoes
// its local writes. A failed compensation does not stop the others; the
// failures are combined into the returned error.
func (s *Saga) compensate(ctx context.Context, stack []pendingCompensation) error {
	ctx = context.WithoutCancel(ctx)

	var errs error

	for i := len(stack) - 1; i >= 0; i-- {
		c := stack[i]

		outcome := "success"
		if err := c.fn(ctx); err != nil {
			outcome = "failure"
			s.logger.Error().Err(err).Str("step", c.step).Msg("saga compensation failed")
			errs = multierr.Append(errs, fmt.Errorf("compensate %s: %w", c.step, err))
		}

		if s.metrics != nil {
			s.metrics.SagaCompensations.WithLabelValues(c.step, outcome).Inc()
		}
	}

	return errs
}

func validateSteps(steps []Step) error {
	external := 0

	for i, step := range steps {
		if step.Name == "" {
			return domain.ErrInvalidInput.Withf("saga step %d has no name", i)
		}

		switch step.Kind {
		case StepLocal:
			if step.local == nil {
				return domain.ErrInvalidInput.Withf("saga step %s has no action", step.Name)
			}
		case StepExternal:
			if step.external == nil {
				return domain.ErrInvalidInput.Withf("saga step %s has no action", step.Name)
			}
			external++
		default:
			return domain.ErrInvalidInput.Withf("saga step %s has unknown kind %q", step.Name, step.Kind)
		}
	}

	if external > MaxExternalSteps {
		return domain.ErrTooManyExternal.Withf("saga has %d external steps, maximum is %d", external, MaxExternalSteps)
	}

	return nil
}
