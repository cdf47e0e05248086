package handler

import (
	"net/http"
	"strings"

	"events-service/internal/domain"
	"events-service/pkg/response"
)

type statusRequest struct {
	Status string `json:"status"`
}

type resultRequest struct {
	Rank string `json:"rank"`
}

// legacyStatus is the vocabulary temple admins have always sent.
var legacyStatus = map[string]domain.RegistrationStatus{
	"APPROVED": domain.StatusAccepted,
	"REJECTED": domain.StatusDeclined,
	"PENDING":  domain.StatusPending,
}

func parseLegacyStatus(v string) (domain.RegistrationStatus, bool) {
	s, ok := legacyStatus[strings.ToUpper(strings.TrimSpace(v))]
	return s, ok
}

// UpdateTempleStatus is the temple-scoped status path.
func (h *EventsHandler) UpdateTempleStatus(w http.ResponseWriter, r *http.Request) {
	h.updateStatus(w, r, true)
}

// UpdateAdminStatus is the unscoped super-user status path.
func (h *EventsHandler) UpdateAdminStatus(w http.ResponseWriter, r *http.Request) {
	h.updateStatus(w, r, false)
}

func (h *EventsHandler) updateStatus(w http.ResponseWriter, r *http.Request, scoped bool) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}
	kind, ok := h.pathKind(w, r)
	if !ok {
		return
	}
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	var req statusRequest
	if !h.decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Status) == "" {
		v := &domain.ValidationError{}
		v.Add("status", "is required")
		h.writeError(w, r, v)
		return
	}

	var status domain.RegistrationStatus
	if scoped {
		s, ok := parseLegacyStatus(req.Status)
		if !ok {
			h.writeError(w, r, domain.ErrInvalidStatus)
			return
		}
		status = s
	} else {
		s, err := domain.ParseStatus(req.Status)
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		status = s
	}

	change, err := h.uc.UpdateRegistrationStatus(r.Context(), kind, id, status, p.ID, scoped)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, change)
}

func (h *EventsHandler) SetResult(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}
	kind, ok := h.pathKind(w, r)
	if !ok {
		return
	}
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	var req resultRequest
	if !h.decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Rank) == "" {
		v := &domain.ValidationError{}
		v.Add("rank", "is required")
		h.writeError(w, r, v)
		return
	}
	rank := domain.Rank(strings.ToUpper(strings.TrimSpace(req.Rank)))

	var (
		reg interface{}
		err error
	)
	if kind == domain.KindTeam {
		reg, err = h.uc.SetTeamResult(r.Context(), id, rank, p.ID)
	} else {
		reg, err = h.uc.SetIndividualResult(r.Context(), id, rank, p.ID)
	}
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, reg)
}

func (h *EventsHandler) ListTempleRegistrations(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}
	v := &domain.ValidationError{}
	templeID := queryInt64(r, "temple_id", v)
	f := domain.RegistrationFilter{EventID: queryInt64(r, "event_id", v)}
	if raw := r.URL.Query().Get("status"); raw != "" {
		s, err := domain.ParseStatus(raw)
		if err != nil {
			v.Add("status", "must be PENDING, ACCEPTED or DECLINED")
		}
		f.Status = &s
	}
	if err := v.Err(); err != nil {
		h.writeError(w, r, err)
		return
	}

	regs, err := h.uc.ListTempleRegistrations(r.Context(), p, templeID, f)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, regs)
}

func (h *EventsHandler) ListAuditLog(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}
	v := &domain.ValidationError{}
	q := domain.AuditLogQuery{
		AffectedRecordID: queryInt64(r, "affected_record_id", v),
		ActorID:          queryInt64(r, "actor_id", v),
		Limit:            queryInt(r, "limit", v),
		Offset:           queryInt(r, "offset", v),
	}
	if table := r.URL.Query().Get("affected_table"); table != "" {
		q.AffectedTable = &table
	}
	if err := v.Err(); err != nil {
		h.writeError(w, r, err)
		return
	}

	logs, err := h.uc.ListAuditLog(r.Context(), p, q)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, logs)
}
