// domain/registration.domain.go
package domain

import (
	"fmt"
	"strings"
	"time"
)

type RegistrationStatus string

const (
	StatusPending  RegistrationStatus = "PENDING"
	StatusAccepted RegistrationStatus = "ACCEPTED"
	StatusDeclined RegistrationStatus = "DECLINED"
)

func (s RegistrationStatus) Valid() bool {
	return s == StatusPending || s == StatusAccepted || s == StatusDeclined
}

// Active registrations count toward admission limits.
func (s RegistrationStatus) Active() bool {
	return s == StatusPending || s == StatusAccepted
}

// ParseStatus accepts only the canonical vocabulary.
func ParseStatus(v string) (RegistrationStatus, error) {
	s := RegistrationStatus(strings.ToUpper(strings.TrimSpace(v)))
	if !s.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, v)
	}
	return s, nil
}

// ActiveStatuses is the set counted by both admission limits.
var ActiveStatuses = []RegistrationStatus{StatusPending, StatusAccepted}

type RegistrationKind string

const (
	KindIndividual RegistrationKind = "individual"
	KindTeam       RegistrationKind = "team"
)

func ParseRegistrationKind(v string) (RegistrationKind, error) {
	switch RegistrationKind(strings.ToLower(v)) {
	case KindIndividual:
		return KindIndividual, nil
	case KindTeam:
		return KindTeam, nil
	}
	return "", fmt.Errorf("unknown registration kind %q", v)
}

// Table returns the audited table name for the kind.
func (k RegistrationKind) Table() string {
	if k == KindTeam {
		return TableTeamRegistrations
	}
	return TableIndividualRegistrations
}

type IndividualRegistration struct {
	ID            int64              `json:"id"`
	UserID        int64              `json:"user_id"`
	EventID       int64              `json:"event_id"`
	Status        RegistrationStatus `json:"status"`
	EventResultID *int64             `json:"event_result_id"`
	IsDeleted     bool               `json:"is_deleted"`
	CreatedAt     time.Time          `json:"created_at"`
	UpdatedAt     time.Time          `json:"updated_at"`

	// populated on reads
	TempleID int64        `json:"temple_id,omitempty"`
	Result   *EventResult `json:"result,omitempty"`
}

type TeamRegistration struct {
	ID            int64              `json:"id"`
	TempleID      int64              `json:"temple_id"`
	EventID       int64              `json:"event_id"`
	MemberIDs     []int64            `json:"member_ids"`
	Status        RegistrationStatus `json:"status"`
	EventResultID *int64             `json:"event_result_id"`
	IsDeleted     bool               `json:"is_deleted"`
	CreatedAt     time.Time          `json:"created_at"`
	UpdatedAt     time.Time          `json:"updated_at"`

	Result *EventResult `json:"result,omitempty"`
}

type RegistrationFilter struct {
	EventID *int64
	Status  *RegistrationStatus
}

// TempleRegistrations is the roster view a temple admin works from.
type TempleRegistrations struct {
	TempleID    int64                     `json:"temple_id"`
	Individuals []*IndividualRegistration `json:"individual"`
	Teams       []*TeamRegistration       `json:"team"`
}
