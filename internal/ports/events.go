package ports

import "context"

// EventPublisher is the outbound domain-event publish port.
type EventPublisher interface {
	Publish(ctx context.Context, eventType, partitionKey string, payload []byte) error
}

// HealthChecker is a backing dependency pinged by the readiness endpoint.
type HealthChecker interface {
	Name() string
	Ping(ctx context.Context) error
}
