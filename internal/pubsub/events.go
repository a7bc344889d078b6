// Package pubsub fans out cache and log notifications to interested screens.
package pubsub

import (
	"context"
	"time"
)

// EventType names the transition carried by an Event.
type EventType string

const (
	LoadingEvent     EventType = "loading"
	SuccessEvent     EventType = "success"
	ErrorEvent       EventType = "error"
	InvalidatedEvent EventType = "invalidated"
	LogEvent         EventType = "log"
	RouteEvent       EventType = "route"
)

// Event is a single published notification.
type Event[T any] struct {
	Type      EventType
	Payload   T
	Timestamp time.Time
}

// Subscriber hands out subscription channels.
type Subscriber[T any] interface {
	Subscribe(ctx context.Context) <-chan Event[T]
}

// Publisher accepts events for fan-out.
type Publisher[T any] interface {
	Publish(eventType EventType, payload T)
}
