package server

import (
	"net/http"

	"comproposito/pkg/types"
)

// handleContributorAuth always answers 200; the outcome is in the body so the
// volunteer UI can show the message as is.
func (s *Service) handleContributorAuth(w http.ResponseWriter, r *http.Request) {
	var input types.AuthRequest
	if err := decodeBody(r, &input); err != nil {
		s.writeJSON(w, http.StatusOK, types.AuthResponse{OK: false, Error: "Pedido inválido."})
		return
	}

	s.writeJSON(w, http.StatusOK, s.Recovery.Handle(r.Context(), input))
}

type partAllocatedRequest struct {
	ContributorID string   `json:"contributor_id" validate:"required"`
	PartIDs       []string `json:"part_ids" validate:"required,min=1,dive,required"`
}

func (s *Service) handleNotifyPartAllocated(w http.ResponseWriter, r *http.Request) {
	var input partAllocatedRequest
	if err := decodeBody(r, &input); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := validateStruct(input); err != nil {
		s.writeError(w, r, err)
		return
	}

	result, err := s.Notifier.PartAllocated(r.Context(), input.ContributorID, input.PartIDs)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, result)
}

type welcomeRequest struct {
	ContributorID string `json:"contributor_id" validate:"required"`
}

func (s *Service) handleVolunteerWelcome(w http.ResponseWriter, r *http.Request) {
	var input welcomeRequest
	if err := decodeBody(r, &input); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := validateStruct(input); err != nil {
		s.writeError(w, r, err)
		return
	}

	result, err := s.Notifier.Welcome(r.Context(), input.ContributorID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, result)
}
