// AngelaMos | 2026
// shell.go

package provider

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/sony/gobreaker"
)

// Category buckets outbound calls by how long the provider is allowed
// to take before the core path gives up on it.
type Category string

const (
	CategoryLLM     Category = "LLM"
	CategorySpeech  Category = "SPEECH"
	CategoryPayment Category = "PAYMENT"
	CategoryDefault Category = "DEFAULT"
)

var categoryTimeouts = map[Category]time.Duration{
	CategoryLLM:     30 * time.Second,
	CategorySpeech:  20 * time.Second,
	CategoryPayment: 15 * time.Second,
	CategoryDefault: 10 * time.Second,
}

// Outcome is the discriminated result of an outbound call. The shell
// never lets a provider error propagate as anything else.
type Outcome string

const (
	OutcomeOK            Outcome = "OK"
	OutcomeTimeout       Outcome = "TIMEOUT"
	OutcomeProviderError Outcome = "PROVIDER_ERROR"
	OutcomeNotConfigured Outcome = "NOT_CONFIGURED"
)

// Shell wraps every third-party call with the category timeout and a
// circuit breaker. Callers receive an Outcome and decide how to
// degrade; nothing here ever panics or blocks past the deadline.
type Shell struct {
	name       string
	category   Category
	configured bool
	breaker    *gobreaker.CircuitBreaker
	logger     *slog.Logger
}

func NewShell(
	name string,
	category Category,
	configured bool,
	logger *slog.Logger,
) *Shell {
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 3,
		Interval:    10 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("provider circuit state change",
				"provider", name,
				"from", from.String(),
				"to", to.String(),
			)
		},
	})

	return &Shell{
		name:       name,
		category:   category,
		configured: configured,
		breaker:    breaker,
		logger:     logger,
	}
}

func (s *Shell) Configured() bool { return s.configured }

// Do runs fn under the category timeout and the breaker, folding every
// failure into a discriminated Outcome.
func (s *Shell) Do(ctx context.Context, fn func(ctx context.Context) error) Outcome {
	if !s.configured {
		return OutcomeNotConfigured
	}

	timeout, ok := categoryTimeouts[s.category]
	if !ok {
		timeout = categoryTimeouts[CategoryDefault]
	}

	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	_, err := s.breaker.Execute(func() (any, error) {
		return nil, fn(callCtx)
	})
	if err == nil {
		return OutcomeOK
	}

	outcome := OutcomeProviderError
	if errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(callCtx.Err(), context.DeadlineExceeded) {
		outcome = OutcomeTimeout
	}

	s.logger.Warn("provider call failed",
		"provider", s.name,
		"category", s.category,
		"outcome", outcome,
		"error", err,
	)
	return outcome
}
