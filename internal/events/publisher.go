// internal/events/publisher.go
package events

import (
	"context"
	"time"

	"events-service/internal/domain"
)

const (
	TypeRegistrationCreated = "registration.created"
	TypeRosterUpdated       = "registration.roster_updated"
	TypeStatusChanged       = "registration.status_changed"
	TypeResultChanged       = "registration.result_changed"
	TypeWithdrawn           = "registration.withdrawn"
)

// RegistrationEvent is emitted after a mutating operation commits.
type RegistrationEvent struct {
	EventType      string                    `json:"event_type"`
	Kind           domain.RegistrationKind   `json:"kind"`
	RegistrationID int64                     `json:"registration_id"`
	EventID        int64                     `json:"event_id"`
	TempleID       int64                     `json:"temple_id"`
	ActorID        int64                     `json:"actor_id"`
	Status         domain.RegistrationStatus `json:"status"`
	EventResultID  *int64                    `json:"event_result_id,omitempty"`
	Points         *int                      `json:"points,omitempty"`
	Timestamp      int64                     `json:"timestamp"`
}

// Publisher delivers registration events. Implementations log their own
// failures; callers treat the returned error as informational.
type Publisher interface {
	Publish(ctx context.Context, ev *RegistrationEvent) error
	Close() error
}

func stamp(ev *RegistrationEvent) {
	if ev.Timestamp == 0 {
		ev.Timestamp = time.Now().Unix()
	}
}

// Noop discards every event.
type Noop struct{}

func (Noop) Publish(context.Context, *RegistrationEvent) error { return nil }
func (Noop) Close() error                                      { return nil }
