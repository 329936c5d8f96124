package events

import (
	"context"
	"errors"
	"time"

	interfaces "github.com/sheikh-saqib/money-management-ledger/internal/interfaces"
	"github.com/sheikh-saqib/money-management-ledger/internal/logging"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// ErrCircuitOpen is returned while the breaker rejects publishes.
var ErrCircuitOpen = errors.New("events: circuit breaker open")

type BreakerConfig struct {
	Name string
	// MaxRequests allowed through while half-open.
	MaxRequests uint32
	// Interval after which closed-state counts reset.
	Interval time.Duration
	// Timeout is how long the breaker stays open.
	Timeout time.Duration
	// ConsecutiveFailures trips the breaker.
	ConsecutiveFailures uint32
	// PublishTimeout bounds one publish call. Zero means no bound.
	PublishTimeout time.Duration
}

func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		Name:                "events",
		MaxRequests:         1,
		Interval:            time.Minute,
		Timeout:             30 * time.Second,
		ConsecutiveFailures: 5,
		PublishTimeout:      2 * time.Second,
	}
}

// Breaker stops calling a failing publisher until it has had time to recover,
// so a down broker does not add its timeout to every ledger operation.
type Breaker struct {
	next    interfaces.EventPublisher
	cb      *gobreaker.CircuitBreaker
	timeout time.Duration
	logger  *logging.Logger
}

func NewBreaker(next interfaces.EventPublisher, config BreakerConfig, logger *logging.Logger) *Breaker {
	if logger == nil {
		logger = logging.NewNop()
	}
	logger = logger.Named("breaker")

	threshold := config.ConsecutiveFailures
	if threshold == 0 {
		threshold = 5
	}

	settings := gobreaker.Settings{
		Name:        config.Name,
		MaxRequests: config.MaxRequests,
		Interval:    config.Interval,
		Timeout:     config.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	}

	return &Breaker{
		next:    next,
		cb:      gobreaker.NewCircuitBreaker(settings),
		timeout: config.PublishTimeout,
		logger:  logger,
	}
}

func (b *Breaker) Publish(ctx context.Context, topic string, event any) error {
	if b.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.timeout)
		defer cancel()
	}

	_, err := b.cb.Execute(func() (interface{}, error) {
		return nil, b.next.Publish(ctx, topic, event)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return ErrCircuitOpen
	}
	return err
}

// State reports the breaker state as closed, half-open or open.
func (b *Breaker) State() string {
	return b.cb.State().String()
}

var _ interfaces.EventPublisher = (*Breaker)(nil)
