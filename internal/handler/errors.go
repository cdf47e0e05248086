package handler

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"events-service/internal/domain"
	"events-service/pkg/response"
)

var statusByKind = map[domain.ErrorKind]int{
	domain.KindValidation:                  http.StatusBadRequest,
	domain.KindInvalidStatus:               http.StatusBadRequest,
	domain.KindInvalidRank:                 http.StatusBadRequest,
	domain.KindNotFound:                    http.StatusNotFound,
	domain.KindUserNotFound:                http.StatusNotFound,
	domain.KindEventNotFound:               http.StatusNotFound,
	domain.KindMemberNotFound:              http.StatusNotFound,
	domain.KindEventClosed:                 http.StatusConflict,
	domain.KindEventKindMismatch:           http.StatusConflict,
	domain.KindResultRecorded:              http.StatusConflict,
	domain.KindRegistrationLimitExceeded:   http.StatusConflict,
	domain.KindDuplicateRegistration:       http.StatusConflict,
	domain.KindDuplicateTeamRegistration:   http.StatusConflict,
	domain.KindCrossTempleMembership:       http.StatusUnprocessableEntity,
	domain.KindResultNotConfigured:         http.StatusUnprocessableEntity,
	domain.KindUnauthorized:                http.StatusForbidden,
	domain.KindUnauthorizedCrossTempleEdit: http.StatusForbidden,
}

type errorBody struct {
	Kind   domain.ErrorKind    `json:"kind"`
	Entity string              `json:"entity,omitempty"`
	IDs    []int64             `json:"ids,omitempty"`
	Fields []domain.FieldError `json:"fields,omitempty"`
}

// writeError maps engine errors onto the response envelope. Authorization
// failures all look the same to the caller.
func (h *EventsHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var v *domain.ValidationError
	if errors.As(err, &v) {
		response.ErrorWithData(w, http.StatusBadRequest, "validation failed",
			errorBody{Kind: domain.KindValidation, Fields: v.Fields})
		return
	}

	var de *domain.Error
	if !errors.As(err, &de) {
		h.logger.Error("request failed",
			zap.String("path", r.URL.Path),
			zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "internal error")
		return
	}

	status, ok := statusByKind[de.Kind]
	if !ok {
		status = http.StatusInternalServerError
	}
	if status == http.StatusForbidden {
		response.ErrorWithData(w, status, domain.ErrUnauthorized.Message, errorBody{Kind: domain.KindUnauthorized})
		return
	}
	response.ErrorWithData(w, status, de.Error(), errorBody{Kind: de.Kind, Entity: de.Entity, IDs: de.IDs})
}
