package usecase_test

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/opsledger/internal/domain"
	"github.com/iho/opsledger/internal/infrastructure/metrics"
	"github.com/iho/opsledger/internal/usecase"
)

// recorder tracks step and compensation calls in order.
type recorder struct {
	calls []string
}

func (r *recorder) local(name string, err error) usecase.Step {
	return usecase.LocalStep(name, func(ctx context.Context) (usecase.Compensation, error) {
		r.calls = append(r.calls, name)
		if err != nil {
			return nil, err
		}
		return func(ctx context.Context) error {
			r.calls = append(r.calls, "undo "+name)
			return nil
		}, nil
	})
}

func (r *recorder) external(name string, err error) usecase.Step {
	return usecase.ExternalStep(name, func(ctx context.Context) error {
		r.calls = append(r.calls, name)
		return err
	})
}

func newSaga(timeout time.Duration) *usecase.Saga {
	return usecase.NewSaga(zerolog.Nop(), metrics.New(prometheus.NewRegistry()), timeout)
}

func TestSaga_Run_AllSucceed(t *testing.T) {
	r := &recorder{}

	result, err := newSaga(0).Run(context.Background(),
		r.local("a", nil),
		r.local("b", nil),
		r.external("notify", nil),
	)
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "b", "notify"}, r.calls)
	assert.Equal(t, []string{"a", "b"}, result.Completed)
	assert.True(t, result.ExternalSucceeded("notify"))
}

func TestSaga_Run_LocalFailureCompensatesInReverse(t *testing.T) {
	r := &recorder{}
	boom := errors.New("insert failed")

	result, err := newSaga(0).Run(context.Background(),
		r.local("a", nil),
		r.local("b", nil),
		r.local("c", boom),
		r.local("d", nil),
	)

	assert.Nil(t, result)
	assert.Same(t, boom, err)
	assert.Equal(t, []string{"a", "b", "c", "undo b", "undo a"}, r.calls)
}

func TestSaga_Run_SecondOfThreeFails(t *testing.T) {
	r := &recorder{}
	boom := domain.ErrDuplicate.Withf("user exists")

	_, err := newSaga(0).Run(context.Background(),
		r.local("employee", nil),
		r.local("user", boom),
		r.local("department", nil),
	)

	require.ErrorIs(t, err, domain.ErrDuplicate)
	assert.Equal(t, []string{"employee", "user", "undo employee"}, r.calls)
}

func TestSaga_Run_CompensationFailureIsNotReturned(t *testing.T) {
	var calls []string
	boom := errors.New("step failed")

	_, err := newSaga(0).Run(context.Background(),
		usecase.LocalStep("a", func(ctx context.Context) (usecase.Compensation, error) {
			return func(ctx context.Context) error {
				calls = append(calls, "undo a")
				return nil
			}, nil
		}),
		usecase.LocalStep("b", func(ctx context.Context) (usecase.Compensation, error) {
			return func(ctx context.Context) error {
				calls = append(calls, "undo b")
				return errors.New("delete failed")
			}, nil
		}),
		usecase.LocalStep("c", func(ctx context.Context) (usecase.Compensation, error) {
			return nil, boom
		}),
	)

	assert.Same(t, boom, err)
	assert.Equal(t, []string{"undo b", "undo a"}, calls)
}

func TestSaga_Run_LogsPartialState(t *testing.T) {
	var buf bytes.Buffer
	saga := usecase.NewSaga(zerolog.New(&buf), nil, 0)

	failing := func(name string) usecase.Step {
		return usecase.LocalStep(name, func(ctx context.Context) (usecase.Compensation, error) {
			return func(ctx context.Context) error {
				return errors.New("cannot undo " + name)
			}, nil
		})
	}

	_, err := saga.Run(context.Background(),
		failing("a"),
		failing("b"),
		usecase.LocalStep("c", func(ctx context.Context) (usecase.Compensation, error) {
			return nil, errors.New("step failed")
		}),
	)
	require.Error(t, err)

	out := buf.String()
	assert.Contains(t, out, "saga left partial local state")
	assert.Contains(t, out, `"failed_compensations":2`)
	assert.Contains(t, out, "compensate a: cannot undo a")
}

func TestSaga_Run_NilCompensationSkipped(t *testing.T) {
	r := &recorder{}
	boom := errors.New("boom")

	_, err := newSaga(0).Run(context.Background(),
		r.local("a", nil),
		usecase.LocalStep("read-only", func(ctx context.Context) (usecase.Compensation, error) {
			return nil, nil
		}),
		r.local("c", boom),
	)

	assert.Same(t, boom, err)
	assert.Equal(t, []string{"a", "c", "undo a"}, r.calls)
}

func TestSaga_Run_ExternalFailureDoesNotCompensate(t *testing.T) {
	r := &recorder{}

	result, err := newSaga(0).Run(context.Background(),
		r.local("a", nil),
		r.external("routing", errors.New("503 service unavailable")),
		r.local("b", nil),
	)
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "routing", "b"}, r.calls)
	assert.False(t, result.ExternalSucceeded("routing"))
	assert.Contains(t, result.External, "routing")
	assert.Equal(t, []string{"a", "b"}, result.Completed)
}

func TestSaga_Run_ExternalTimeout(t *testing.T) {
	result, err := newSaga(20*time.Millisecond).Run(context.Background(),
		usecase.ExternalStep("slow", func(ctx context.Context) error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(5 * time.Second):
				return nil
			}
		}),
	)
	require.NoError(t, err)

	assert.False(t, result.ExternalSucceeded("slow"))
}

func TestSaga_Run_CompensatesAfterCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var undoErr error

	_, err := newSaga(0).Run(ctx,
		usecase.LocalStep("a", func(ctx context.Context) (usecase.Compensation, error) {
			return func(ctx context.Context) error {
				undoErr = ctx.Err()
				return nil
			}, nil
		}),
		usecase.LocalStep("b", func(ctx context.Context) (usecase.Compensation, error) {
			cancel()
			return nil, ctx.Err()
		}),
	)

	require.ErrorIs(t, err, context.Canceled)
	assert.NoError(t, undoErr)
}

func TestSaga_Run_InvalidSteps(t *testing.T) {
	noop := func(ctx context.Context) error { return nil }

	tests := []struct {
		name      string
		steps     []usecase.Step
		errorType error
	}{
		{
			name: "too many external steps",
			steps: []usecase.Step{
				usecase.ExternalStep("e1", noop),
				usecase.ExternalStep("e2", noop),
				usecase.ExternalStep("e3", noop),
				usecase.ExternalStep("e4", noop),
				usecase.ExternalStep("e5", noop),
			},
			errorType: domain.ErrTooManyExternal,
		},
		{
			name:      "unnamed step",
			steps:     []usecase.Step{usecase.ExternalStep("", noop)},
			errorType: domain.ErrInvalidInput,
		},
		{
			name:      "step without action",
			steps:     []usecase.Step{usecase.LocalStep("a", nil)},
			errorType: domain.ErrInvalidInput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &recorder{}
			steps := append([]usecase.Step{r.local("first", nil)}, tt.steps...)

			_, err := newSaga(0).Run(context.Background(), steps...)

			require.ErrorIs(t, err, tt.errorType)
			assert.Empty(t, r.calls, "no step may run when the saga is invalid")
		})
	}
}
