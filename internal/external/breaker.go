package external

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/prasadguuduru/book-management-sub002/internal/types"
)

// BreakerEmailProvider wraps an EmailProvider with a circuit breaker.
// Sustained provider failures open the circuit and subsequent sends fail
// fast with ErrCodeUpstreamUnavailable, which the retry taxonomy classifies
// as SERVICE_UNAVAILABLE (retryable) — the records come back once the
// provider recovers.
type BreakerEmailProvider struct {
	inner   EmailProvider
	breaker *gobreaker.CircuitBreaker[string]
	logger  *slog.Logger
}

// NewBreakerEmailProvider creates a breaker-wrapped provider. Recipient
// rejections (ErrCodeEmailBlocked) do not count as breaker failures: they
// indicate a bad address, not a sick provider.
func NewBreakerEmailProvider(inner EmailProvider, name string, logger *slog.Logger) *BreakerEmailProvider {
	if logger == nil {
		logger = slog.Default()
	}

	cb := gobreaker.NewCircuitBreaker[string](gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 5
		},
		IsSuccessful: func(err error) bool {
			if err == nil {
				return true
			}
			var app *types.AppError
			return errors.As(err, &app) && app.Code == types.ErrCodeEmailBlocked
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("email provider breaker state changed",
				"breaker", name,
				"from", from.String(),
				"to", to.String(),
			)
		},
	})

	return &BreakerEmailProvider{inner: inner, breaker: cb, logger: logger}
}

// Send delegates to the wrapped provider through the circuit breaker.
func (p *BreakerEmailProvider) Send(ctx context.Context, input types.SendInput) (string, error) {
	msgID, err := p.breaker.Execute(func() (string, error) {
		return p.inner.Send(ctx, input)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return "", types.NewAppError(
				types.ErrCodeUpstreamUnavailable,
				"email provider circuit open",
				err,
			)
		}
		return "", err
	}
	return msgID, nil
}

// Compile-time assertion that BreakerEmailProvider satisfies EmailProvider.
var _ EmailProvider = (*BreakerEmailProvider)(nil)
