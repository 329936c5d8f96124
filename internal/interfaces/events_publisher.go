package interfaces

import "context"

// EventPublisher delivers an event to a topic.
type EventPublisher interface {
	Publish(ctx context.Context, topic string, event any) error
}
