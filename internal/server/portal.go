package server

import (
	"net/http"
	"strings"

	"comproposito/pkg/types"
)

type portalResponse struct {
	Contributor   *types.Contributor       `json:"contributor"`
	Parts         []*types.PartWithProject `json:"parts"`
	MakerGuideURL string                   `json:"maker_guide_url"`
	ModelFilesURL string                   `json:"model_files_url"`
}

type statusRequest struct {
	Status string `json:"status" form:"status" validate:"required"`
}

// portalContributor resolves the volunteer from the ?token= link.
func (s *Service) portalContributor(r *http.Request) (*types.Contributor, error) {
	token := strings.TrimSpace(r.URL.Query().Get("token"))
	if token == "" {
		return nil, types.ErrInvalidToken
	}

	contributor, err := s.Contributors.ContributorByToken(r.Context(), token)
	if err != nil {
		return nil, types.ErrInvalidToken
	}

	return contributor, nil
}

func (s *Service) handleGetPortal(w http.ResponseWriter, r *http.Request) {
	contributor, err := s.portalContributor(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	parts, err := s.Projects.PartsByContributor(r.Context(), contributor.ID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, portalResponse{
		Contributor:   contributor,
		Parts:         parts,
		MakerGuideURL: s.config.MakerGuideURL,
		ModelFilesURL: s.config.ModelFilesURL,
	})
}

func (s *Service) handlePostPortalProfile(w http.ResponseWriter, r *http.Request) {
	contributor, err := s.portalContributor(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	var profile types.ContributorProfile
	if err := decodeBody(r, &profile); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := validateStruct(profile); err != nil {
		s.writeError(w, r, err)
		return
	}

	if err := s.Contributors.UpdateProfile(r.Context(), contributor.ID, &profile); err != nil {
		s.writeError(w, r, err)
		return
	}

	updated, err := s.Contributors.Contributor(r.Context(), contributor.ID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, updated)
}

func (s *Service) handlePostPortalPartStatus(w http.ResponseWriter, r *http.Request) {
	token := strings.TrimSpace(r.URL.Query().Get("token"))
	partID := r.PathValue("partID")

	var input statusRequest
	if err := decodeBody(r, &input); err != nil {
		s.writeError(w, r, err)
		return
	}

	part, err := s.Lifecycle.UpdateOwnPartStatus(r.Context(), token, partID, input.Status)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, part)
}
