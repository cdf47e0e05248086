package handler

import (
	"net/http"
	"strings"

	"events-service/internal/domain"
	"events-service/pkg/response"
)

func (h *EventsHandler) ListEvents(w http.ResponseWriter, r *http.Request) {
	v := &domain.ValidationError{}
	f := domain.EventFilter{
		EventTypeID:   queryInt64(r, "event_type_id", v),
		AgeCategoryID: queryInt64(r, "age_category_id", v),
		IncludeClosed: r.URL.Query().Get("include_closed") == "true",
	}
	if raw := r.URL.Query().Get("gender"); raw != "" {
		g := domain.Gender(strings.ToUpper(raw))
		if !g.Valid() {
			v.Add("gender", "must be MALE, FEMALE or ALL")
		}
		f.Gender = &g
	}
	if err := v.Err(); err != nil {
		h.writeError(w, r, err)
		return
	}

	list, err := h.uc.ListEvents(r.Context(), f)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, list)
}

func (h *EventsHandler) GetEvent(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	event, err := h.uc.GetEvent(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, event)
}

// ListEligibleEvents lists open events the caller can enter.
func (h *EventsHandler) ListEligibleEvents(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}
	list, err := h.uc.ListEligibleEvents(r.Context(), p.ID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, list)
}

func (h *EventsHandler) ListEventResults(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	list, err := h.uc.ListEventResults(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, list)
}
