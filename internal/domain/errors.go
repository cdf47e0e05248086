package domain

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrorKind is the machine-readable identity of an engine failure.
type ErrorKind string

const (
	KindValidation                  ErrorKind = "VALIDATION"
	KindNotFound                    ErrorKind = "NOT_FOUND"
	KindUserNotFound                ErrorKind = "USER_NOT_FOUND"
	KindEventNotFound               ErrorKind = "EVENT_NOT_FOUND"
	KindMemberNotFound              ErrorKind = "MEMBER_NOT_FOUND"
	KindEventClosed                 ErrorKind = "EVENT_CLOSED"
	KindEventKindMismatch           ErrorKind = "EVENT_KIND_MISMATCH"
	KindResultRecorded              ErrorKind = "RESULT_RECORDED"
	KindRegistrationLimitExceeded   ErrorKind = "REGISTRATION_LIMIT_EXCEEDED"
	KindDuplicateRegistration       ErrorKind = "DUPLICATE_REGISTRATION"
	KindDuplicateTeamRegistration   ErrorKind = "DUPLICATE_TEAM_REGISTRATION"
	KindCrossTempleMembership       ErrorKind = "CROSS_TEMPLE_MEMBERSHIP"
	KindUnauthorizedCrossTempleEdit ErrorKind = "UNAUTHORIZED_CROSS_TEMPLE_EDIT"
	KindUnauthorized                ErrorKind = "UNAUTHORIZED"
	KindInvalidStatus               ErrorKind = "INVALID_STATUS"
	KindInvalidRank                 ErrorKind = "INVALID_RANK"
	KindResultNotConfigured         ErrorKind = "RESULT_NOT_CONFIGURED"
)

// Error is the structured failure returned across the engine boundary.
// Entity and IDs name the offending records where there are any.
type Error struct {
	Kind    ErrorKind
	Message string
	Entity  string
	IDs     []int64
	Cause   error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Message)
	if len(e.IDs) > 0 {
		b.WriteString(": ")
		for i, id := range e.IDs {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(strconv.FormatInt(id, 10))
		}
	}
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Cause }

// Is matches any *Error of the same kind, so callers can compare against the
// sentinels below regardless of attached ids.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

// With returns a copy of e naming the offending ids.
func (e *Error) With(entity string, ids ...int64) *Error {
	cp := *e
	cp.Entity = entity
	cp.IDs = append([]int64(nil), ids...)
	return &cp
}

// Wrap returns a copy of e with an underlying cause.
func (e *Error) Wrap(cause error) *Error {
	cp := *e
	cp.Cause = cause
	return &cp
}

var (
	ErrNotFound                    = &Error{Kind: KindNotFound, Message: "not found"}
	ErrUserNotFound                = &Error{Kind: KindUserNotFound, Message: "user not found", Entity: "profile"}
	ErrEventNotFound               = &Error{Kind: KindEventNotFound, Message: "event not found", Entity: "event"}
	ErrMemberNotFound              = &Error{Kind: KindMemberNotFound, Message: "team members not found", Entity: "profile"}
	ErrEventClosed                 = &Error{Kind: KindEventClosed, Message: "event is closed for registration", Entity: "event"}
	ErrEventKindMismatch           = &Error{Kind: KindEventKindMismatch, Message: "event does not take this kind of registration", Entity: "event"}
	ErrResultRecorded              = &Error{Kind: KindResultRecorded, Message: "registration already has a result", Entity: "individual_registration"}
	ErrRegistrationLimitExceeded   = &Error{Kind: KindRegistrationLimitExceeded, Message: "registration limit exceeded"}
	ErrDuplicateRegistration       = &Error{Kind: KindDuplicateRegistration, Message: "already registered for this event"}
	ErrDuplicateTeamRegistration   = &Error{Kind: KindDuplicateTeamRegistration, Message: "temple already has a team for this event"}
	ErrCrossTempleMembership       = &Error{Kind: KindCrossTempleMembership, Message: "team members belong to another temple", Entity: "profile"}
	ErrUnauthorizedCrossTempleEdit = &Error{Kind: KindUnauthorizedCrossTempleEdit, Message: "not allowed to edit this registration"}
	ErrUnauthorized                = &Error{Kind: KindUnauthorized, Message: "not allowed"}
	ErrInvalidStatus               = &Error{Kind: KindInvalidStatus, Message: "invalid status"}
	ErrInvalidRank                 = &Error{Kind: KindInvalidRank, Message: "invalid rank"}
	ErrResultNotConfigured         = &Error{Kind: KindResultNotConfigured, Message: "no result configured for this rank"}
)

// NotFound builds a not-found error for one entity.
func NotFound(entity string, id int64) *Error {
	return &Error{Kind: KindNotFound, Message: entity + " not found", Entity: entity, IDs: []int64{id}}
}

// FieldError is one request-shape problem.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError is returned before any business rule runs.
type ValidationError struct {
	Fields []FieldError
}

func (v *ValidationError) Error() string {
	parts := make([]string, 0, len(v.Fields))
	for _, f := range v.Fields {
		parts = append(parts, fmt.Sprintf("%s: %s", f.Field, f.Message))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (v *ValidationError) Add(field, msg string) {
	v.Fields = append(v.Fields, FieldError{Field: field, Message: msg})
}

// Err returns nil when nothing was added.
func (v *ValidationError) Err() error {
	if v == nil || len(v.Fields) == 0 {
		return nil
	}
	return v
}

// KindOf extracts the kind of an engine error, or "" for anything else.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	var v *ValidationError
	if errors.As(err, &v) {
		return KindValidation
	}
	return ""
}
