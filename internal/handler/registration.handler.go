package handler

import (
	"net/http"

	"events-service/internal/domain"
	"events-service/pkg/response"
)

type registerIndividualRequest struct {
	EventID int64  `json:"event_id"`
	UserID  *int64 `json:"user_id,omitempty"`
}

type registerTeamRequest struct {
	EventID   int64   `json:"event_id"`
	TempleID  *int64  `json:"temple_id,omitempty"`
	MemberIDs []int64 `json:"member_ids"`
}

type updateMembersRequest struct {
	MemberIDs []int64 `json:"member_ids"`
}

func validateMemberIDs(ids []int64, v *domain.ValidationError) {
	if len(ids) == 0 {
		v.Add("member_ids", "at least one member is required")
		return
	}
	for _, id := range ids {
		if id <= 0 {
			v.Add("member_ids", "ids must be positive integers")
			return
		}
	}
}

// RegisterIndividual enters the caller, or user_id when an admin registers
// on someone's behalf.
func (h *EventsHandler) RegisterIndividual(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}
	var req registerIndividualRequest
	if !h.decode(w, r, &req) {
		return
	}

	v := &domain.ValidationError{}
	if req.EventID <= 0 {
		v.Add("event_id", "is required")
	}
	if req.UserID != nil && *req.UserID <= 0 {
		v.Add("user_id", "must be a positive integer")
	}
	if err := v.Err(); err != nil {
		h.writeError(w, r, err)
		return
	}

	userID := p.ID
	if req.UserID != nil {
		userID = *req.UserID
	}
	reg, err := h.uc.RegisterIndividual(r.Context(), p.ID, userID, req.EventID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.JSON(w, http.StatusCreated, reg)
}

func (h *EventsHandler) WithdrawIndividual(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	reg, err := h.uc.WithdrawIndividual(r.Context(), id, p.ID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, reg)
}

func (h *EventsHandler) GetIndividualRegistration(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	reg, err := h.uc.GetIndividualRegistration(r.Context(), p, id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, reg)
}

func (h *EventsHandler) ListMyRegistrations(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}
	list, err := h.uc.ListMyRegistrations(r.Context(), p.ID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, list)
}

// RegisterTeam enters a temple's team. Temple admins always act for their
// own temple; super-users name the temple.
func (h *EventsHandler) RegisterTeam(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}
	var req registerTeamRequest
	if !h.decode(w, r, &req) {
		return
	}

	v := &domain.ValidationError{}
	if req.EventID <= 0 {
		v.Add("event_id", "is required")
	}
	validateMemberIDs(req.MemberIDs, v)

	var templeID int64
	switch {
	case p.Role == domain.RoleTempleAdmin && p.TempleID != nil:
		if req.TempleID != nil && *req.TempleID != *p.TempleID {
			h.writeError(w, r, domain.ErrUnauthorized)
			return
		}
		templeID = *p.TempleID
	case p.Role == domain.RoleSuperUser && req.TempleID != nil && *req.TempleID > 0:
		templeID = *req.TempleID
	case p.Role == domain.RoleSuperUser:
		v.Add("temple_id", "is required")
	default:
		h.writeError(w, r, domain.ErrUnauthorized)
		return
	}
	if err := v.Err(); err != nil {
		h.writeError(w, r, err)
		return
	}

	reg, err := h.uc.RegisterTeam(r.Context(), p.ID, templeID, req.EventID, req.MemberIDs)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.JSON(w, http.StatusCreated, reg)
}

func (h *EventsHandler) UpdateTeamMembers(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	var req updateMembersRequest
	if !h.decode(w, r, &req) {
		return
	}
	v := &domain.ValidationError{}
	validateMemberIDs(req.MemberIDs, v)
	if err := v.Err(); err != nil {
		h.writeError(w, r, err)
		return
	}

	reg, err := h.uc.UpdateTeamRoster(r.Context(), id, req.MemberIDs, p.ID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, reg)
}

func (h *EventsHandler) GetTeamRegistration(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	reg, err := h.uc.GetTeamRegistration(r.Context(), p, id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, reg)
}
