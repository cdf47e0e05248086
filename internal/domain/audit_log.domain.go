package domain

import (
	"encoding/json"
	"time"
)

const (
	TableIndividualRegistrations = "individual_registrations"
	TableTeamRegistrations       = "team_registrations"
)

const (
	ActionRegisterIndividual = "REGISTER_INDIVIDUAL"
	ActionRegisterTeam       = "REGISTER_TEAM"
	ActionUpdateTeamRoster   = "UPDATE_TEAM_MEMBERS"
	ActionUpdateStatus       = "UPDATE_REGISTRATION_STATUS"
	ActionSetResult          = "SET_RESULT"
	ActionWithdraw           = "WITHDRAW_REGISTRATION"
)

// AuditLog is append-only. Old and new values are stored as JSON documents,
// never as free text.
type AuditLog struct {
	ID               int64           `json:"id"`
	ActorID          int64           `json:"actor_id"`
	ActionName       string          `json:"action_name"`
	AffectedTable    string          `json:"affected_table"`
	AffectedRecordID int64           `json:"affected_record_id"`
	OldValue         json.RawMessage `json:"old_value,omitempty"`
	NewValue         json.RawMessage `json:"new_value,omitempty"`
	Timestamp        time.Time       `json:"timestamp"`
}

type AuditLogQuery struct {
	AffectedTable    *string
	AffectedRecordID *int64
	ActorID          *int64
	Limit            int
	Offset           int
}

// NewAuditLog marshals old and new into a log entry. A nil value is stored as
// JSON null.
func NewAuditLog(actorID int64, action, table string, recordID int64, oldValue, newValue any) (*AuditLog, error) {
	oldJSON, err := json.Marshal(oldValue)
	if err != nil {
		return nil, err
	}
	newJSON, err := json.Marshal(newValue)
	if err != nil {
		return nil, err
	}
	return &AuditLog{
		ActorID:          actorID,
		ActionName:       action,
		AffectedTable:    table,
		AffectedRecordID: recordID,
		OldValue:         oldJSON,
		NewValue:         newJSON,
	}, nil
}
