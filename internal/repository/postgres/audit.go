package postgres

import (
	"context"
	"fmt"

	"events-service/internal/domain"
)

type auditRepo struct{ q querier }

func (r *auditRepo) Append(ctx context.Context, l *domain.AuditLog) error {
	err := r.q.QueryRow(ctx, `
		INSERT INTO audit_logs (actor_id, action_name, affected_table, affected_record_id, old_value, new_value)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`, l.ActorID, l.ActionName, l.AffectedTable, l.AffectedRecordID, []byte(l.OldValue), []byte(l.NewValue)).
		Scan(&l.ID, &l.Timestamp)
	if err != nil {
		return fmt.Errorf("append audit log: %w", err)
	}
	return nil
}

func (r *auditRepo) List(ctx context.Context, q domain.AuditLogQuery) ([]*domain.AuditLog, error) {
	query := `
		SELECT id, actor_id, action_name, affected_table, affected_record_id, old_value, new_value, created_at
		FROM audit_logs WHERE TRUE`
	var args []any
	if q.AffectedTable != nil {
		args = append(args, *q.AffectedTable)
		query += fmt.Sprintf(` AND affected_table = $%d`, len(args))
	}
	if q.AffectedRecordID != nil {
		args = append(args, *q.AffectedRecordID)
		query += fmt.Sprintf(` AND affected_record_id = $%d`, len(args))
	}
	if q.ActorID != nil {
		args = append(args, *q.ActorID)
		query += fmt.Sprintf(` AND actor_id = $%d`, len(args))
	}
	query += ` ORDER BY id DESC`
	if q.Limit > 0 {
		args = append(args, q.Limit)
		query += fmt.Sprintf(` LIMIT $%d`, len(args))
	}
	if q.Offset > 0 {
		args = append(args, q.Offset)
		query += fmt.Sprintf(` OFFSET $%d`, len(args))
	}

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var logs []*domain.AuditLog
	for rows.Next() {
		l := &domain.AuditLog{}
		var oldValue, newValue []byte
		if err := rows.Scan(&l.ID, &l.ActorID, &l.ActionName, &l.AffectedTable, &l.AffectedRecordID,
			&oldValue, &newValue, &l.Timestamp); err != nil {
			return nil, err
		}
		l.OldValue, l.NewValue = oldValue, newValue
		logs = append(logs, l)
	}
	return logs, rows.Err()
}
