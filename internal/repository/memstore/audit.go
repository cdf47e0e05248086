package memstore

import (
	"context"

	"events-service/internal/domain"
)

type auditRepo struct{ h *handle }

func (r *auditRepo) Append(ctx context.Context, l *domain.AuditLog) error {
	defer r.h.enter()()
	st := r.h.state()
	l.ID = st.nextID("audit_logs")
	if l.Timestamp.IsZero() {
		l.Timestamp = r.h.db.now()
	}
	st.audit = append(st.audit, *l)
	return nil
}

// List returns newest first.
func (r *auditRepo) List(ctx context.Context, q domain.AuditLogQuery) ([]*domain.AuditLog, error) {
	defer r.h.enter()()
	all := r.h.state().audit
	var out []*domain.AuditLog
	skipped := 0
	for i := len(all) - 1; i >= 0; i-- {
		l := all[i]
		if q.AffectedTable != nil && l.AffectedTable != *q.AffectedTable {
			continue
		}
		if q.AffectedRecordID != nil && l.AffectedRecordID != *q.AffectedRecordID {
			continue
		}
		if q.ActorID != nil && l.ActorID != *q.ActorID {
			continue
		}
		if skipped < q.Offset {
			skipped++
			continue
		}
		out = append(out, &l)
		if q.Limit > 0 && len(out) == q.Limit {
			break
		}
	}
	return out, nil
}
