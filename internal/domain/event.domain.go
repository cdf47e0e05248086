// event.domain.go under events-service/internal/domain
package domain

import "time"

type EventKind string

const (
	EventKindIndividual EventKind = "INDIVIDUAL"
	EventKindTeam       EventKind = "TEAM"
)

type EventType struct {
	ID               int64     `json:"id"`
	Name             string    `json:"name"`
	Kind             EventKind `json:"kind"`
	ParticipantCount int       `json:"participant_count"`
}

// AgeCategory covers the inclusive range [FromAge, ToAge].
type AgeCategory struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	FromAge int    `json:"from_age"`
	ToAge   int    `json:"to_age"`
}

func (c *AgeCategory) Contains(age int) bool {
	return age >= c.FromAge && age <= c.ToAge
}

// Event is one offering of an event type for an age category and gender.
// EventType and AgeCategory are populated on reads.
type Event struct {
	ID            int64        `json:"id"`
	EventTypeID   int64        `json:"event_type_id"`
	AgeCategoryID int64        `json:"age_category_id"`
	Gender        Gender       `json:"gender"`
	Closed        bool         `json:"closed"`
	EventType     *EventType   `json:"event_type,omitempty"`
	AgeCategory   *AgeCategory `json:"age_category,omitempty"`
	CreatedAt     time.Time    `json:"created_at"`
}

// OpenTo reports whether a profile may see this event as eligible.
func (e *Event) OpenTo(p *Profile, now time.Time) bool {
	if e.Closed {
		return false
	}
	if e.Gender != GenderAll && e.Gender != p.Gender {
		return false
	}
	if e.AgeCategory == nil {
		return true
	}
	return e.AgeCategory.Contains(p.AgeAt(now))
}

type EventFilter struct {
	EventTypeID   *int64
	AgeCategoryID *int64
	Gender        *Gender
	IncludeClosed bool
}

// Rank is a placement outcome, or RankClear to remove a prior result.
type Rank string

const (
	RankFirst  Rank = "FIRST"
	RankSecond Rank = "SECOND"
	RankThird  Rank = "THIRD"
	RankClear  Rank = "CLEAR"
)

func (r Rank) Valid() bool {
	switch r {
	case RankFirst, RankSecond, RankThird, RankClear:
		return true
	}
	return false
}

// Placement reports whether the rank maps to a seeded result row.
func (r Rank) Placement() bool {
	return r == RankFirst || r == RankSecond || r == RankThird
}

// EventResult is seeded reference data: the points an event type awards for a
// rank. Points are only ever read from these rows.
type EventResult struct {
	ID          int64 `json:"id"`
	EventTypeID int64 `json:"event_type_id"`
	Rank        Rank  `json:"rank"`
	Points      int   `json:"points"`
}
