package events

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sink struct {
	err    error
	topics []string
}

func (s *sink) Publish(ctx context.Context, topic string, event any) error {
	s.topics = append(s.topics, topic)
	return s.err
}

func TestFanoutDeliversToEverySink(t *testing.T) {
	broken := errors.New("broker down")
	a, b, c := &sink{}, &sink{err: broken}, &sink{}

	err := Fanout{a, b, nil, c}.Publish(context.Background(), "t", "e")
	assert.ErrorIs(t, err, broken)
	assert.Equal(t, []string{"t"}, a.topics)
	assert.Equal(t, []string{"t"}, c.topics)

	assert.NoError(t, Fanout{a, c}.Publish(context.Background(), "t", "e"))
}

func TestBreakerTripsAfterConsecutiveFailures(t *testing.T) {
	broken := errors.New("broker down")
	next := &sink{err: broken}

	cfg := DefaultBreakerConfig()
	cfg.ConsecutiveFailures = 2
	cfg.Timeout = time.Hour
	b := NewBreaker(next, cfg, nil)

	ctx := context.Background()
	assert.ErrorIs(t, b.Publish(ctx, "t", 1), broken)
	assert.ErrorIs(t, b.Publish(ctx, "t", 2), broken)
	assert.Equal(t, "open", b.State())

	assert.ErrorIs(t, b.Publish(ctx, "t", 3), ErrCircuitOpen)
	assert.Len(t, next.topics, 2, "open breaker does not call the publisher")
}

func TestBreakerPassesThroughSuccess(t *testing.T) {
	next := &sink{}
	b := NewBreaker(next, DefaultBreakerConfig(), nil)

	require.NoError(t, b.Publish(context.Background(), "t", 1))
	assert.Equal(t, "closed", b.State())
	assert.Equal(t, []string{"t"}, next.topics)
}
