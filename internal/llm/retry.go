package llm

import (
	"context"
	"encoding/json"
	"errors"
	"sync/atomic"
	"time"

	"interview_prep_backend/pkg/logger"
	"interview_prep_backend/pkg/monitoring"
	"interview_prep_backend/pkg/tracing"

	"github.com/cenkalti/backoff/v5"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
)

// RetryingGenerator bounds every attempt with a timeout and retries transient
// failures with exponential backoff. Malformed output and 4xx responses are
// not retried.
type RetryingGenerator struct {
	next       Generator
	provider   string
	timeout    atomic.Int64
	maxTries   uint
	newBackOff func() backoff.BackOff
}

func NewRetryingGenerator(next Generator, provider string, timeout time.Duration, maxTries int) *RetryingGenerator {
	if maxTries < 1 {
		maxTries = 1
	}
	g := &RetryingGenerator{
		next:     next,
		provider: provider,
		maxTries: uint(maxTries),
		newBackOff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = 500 * time.Millisecond
			b.MaxInterval = 5 * time.Second
			return b
		},
	}
	g.SetTimeout(timeout)
	return g
}

// SetTimeout changes the per-attempt timeout; used on config reload.
func (g *RetryingGenerator) SetTimeout(d time.Duration) {
	g.timeout.Store(int64(d))
}

func (g *RetryingGenerator) GenerateStructured(ctx context.Context, prompt string) (json.RawMessage, error) {
	return retry(ctx, g, "llm.generate_structured", func(actx context.Context) (json.RawMessage, error) {
		return g.next.GenerateStructured(actx, prompt)
	})
}

func (g *RetryingGenerator) Chat(ctx context.Context, system string, history []Message) (string, error) {
	return retry(ctx, g, "llm.chat", func(actx context.Context) (string, error) {
		return g.next.Chat(actx, system, history)
	})
}

func retry[T any](ctx context.Context, g *RetryingGenerator, span string, call func(context.Context) (T, error)) (T, error) {
	ctx, sp := tracing.Tracer.Start(ctx, span)
	defer sp.End()

	attempt := 0
	op := func() (T, error) {
		attempt++
		actx := ctx
		if timeout := time.Duration(g.timeout.Load()); timeout > 0 {
			var cancel context.CancelFunc
			actx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}
		out, err := call(actx)
		if err == nil {
			return out, nil
		}
		logger.Log.Warn("LLM call failed",
			zap.String("provider", g.provider),
			zap.Int("attempt", attempt),
			zap.Error(err))
		if isPermanent(err) {
			return out, backoff.Permanent(err)
		}
		return out, err
	}

	out, err := backoff.Retry(ctx, op,
		backoff.WithBackOff(g.newBackOff()),
		backoff.WithMaxTries(g.maxTries))
	switch {
	case err == nil:
		monitoring.LLMRequests.WithLabelValues(g.provider, "ok").Inc()
	case errors.Is(err, ErrMalformedOutput):
		monitoring.LLMRequests.WithLabelValues(g.provider, "malformed").Inc()
	default:
		monitoring.LLMRequests.WithLabelValues(g.provider, "error").Inc()
	}
	if err != nil {
		sp.RecordError(err)
		sp.SetStatus(codes.Error, err.Error())
	}
	return out, err
}

func isPermanent(err error) bool {
	if errors.Is(err, ErrMalformedOutput) {
		return true
	}
	var se *StatusError
	return errors.As(err, &se) && se.Permanent()
}
