package classifier

import (
	"context"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/yuvarajmadugu/Engagement-Insight-Engine/pkg/logger"
	"github.com/yuvarajmadugu/Engagement-Insight-Engine/pkg/metrics"
)

// Default breaker settings.
const (
	defaultMaxRequests  = 3
	defaultInterval     = time.Minute
	defaultTimeout      = 30 * time.Second
	defaultMinRequests  = 10
	defaultFailureRatio = 0.6
)

// BreakerOption configures a Breaker.
type BreakerOption func(*breakerSettings)

type breakerSettings struct {
	maxRequests  uint32
	interval     time.Duration
	timeout      time.Duration
	minRequests  uint32
	failureRatio float64
}

// WithMaxRequests sets how many trial calls pass in the half-open state.
func WithMaxRequests(n uint32) BreakerOption {
	return func(s *breakerSettings) {
		if n > 0 {
			s.maxRequests = n
		}
	}
}

// WithInterval sets the window after which closed-state counts reset.
func WithInterval(d time.Duration) BreakerOption {
	return func(s *breakerSettings) {
		if d > 0 {
			s.interval = d
		}
	}
}

// WithTimeout sets how long the breaker stays open.
func WithTimeout(d time.Duration) BreakerOption {
	return func(s *breakerSettings) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithTripPolicy opens the breaker once at least minRequests were seen and
// the failure ratio reaches ratio.
func WithTripPolicy(minRequests uint32, ratio float64) BreakerOption {
	return func(s *breakerSettings) {
		s.minRequests = minRequests
		if ratio > 0 && ratio <= 1 {
			s.failureRatio = ratio
		}
	}
}

// Breaker guards a Classifier with a circuit breaker so a failing model is
// skipped quickly instead of being retried on every request.
type Breaker struct {
	inner Classifier
	cb    *gobreaker.CircuitBreaker[float64]
}

// NewBreaker wraps c.
func NewBreaker(c Classifier, opts ...BreakerOption) *Breaker {
	s := breakerSettings{
		maxRequests:  defaultMaxRequests,
		interval:     defaultInterval,
		timeout:      defaultTimeout,
		minRequests:  defaultMinRequests,
		failureRatio: defaultFailureRatio,
	}
	for _, opt := range opts {
		opt(&s)
	}

	name := c.Name()
	metrics.SetBreakerState(name, "", stateName(gobreaker.StateClosed), stateValue(gobreaker.StateClosed))

	cb := gobreaker.NewCircuitBreaker[float64](gobreaker.Settings{
		Name:        name,
		MaxRequests: s.maxRequests,
		Interval:    s.interval,
		Timeout:     s.timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < s.minRequests {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= s.failureRatio
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Get().Named("classifier").Warn(context.Background(), "classifier breaker state change",
				logger.String("model", name),
				logger.String("from", stateName(from)),
				logger.String("to", stateName(to)),
			)
			metrics.SetBreakerState(name, stateName(from), stateName(to), stateValue(to))
		},
	})

	return &Breaker{inner: c, cb: cb}
}

// Name implements Classifier.
func (b *Breaker) Name() string { return b.inner.Name() }

// PredictProbability implements Classifier.
func (b *Breaker) PredictProbability(ctx context.Context, f Features) (float64, error) {
	return b.cb.Execute(func() (float64, error) {
		return b.inner.PredictProbability(ctx, f)
	})
}

// State reports the breaker state as closed, half-open or open.
func (b *Breaker) State() string {
	return stateName(b.cb.State())
}

func stateName(s gobreaker.State) string {
	switch s {
	case gobreaker.StateClosed:
		return "closed"
	case gobreaker.StateHalfOpen:
		return "half-open"
	case gobreaker.StateOpen:
		return "open"
	default:
		return "unknown"
	}
}

func stateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2 //nolint:mnd // gauge encoding
	default:
		return 0
	}
}
