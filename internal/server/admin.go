package server

import (
	"encoding/json"
	"net/http"
	"time"

	"comproposito/internal/allocation"
	"comproposito/internal/storage"
	"comproposito/internal/utils"
	"comproposito/pkg/types"
)

const maxUploadBytes = 50 << 20

// Contributors

func (s *Service) handleGetContributors(w http.ResponseWriter, r *http.Request) {
	var filter types.ContributorFilter
	if err := decodeQuery(r, &filter); err != nil {
		s.writeError(w, r, err)
		return
	}

	contributors, err := s.Contributors.Contributors(r.Context(), filter)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, contributors)
}

// handlePostAdminContributor lets organizers register a volunteer by hand.
// The welcome e-mail is sent separately through /functions/volunteer-welcome.
func (s *Service) handlePostAdminContributor(w http.ResponseWriter, r *http.Request) {
	contributor, ok := s.createContributor(w, r)
	if !ok {
		return
	}
	s.writeJSON(w, http.StatusCreated, contributor)
}

type contributorDetail struct {
	*types.Contributor
	PortalURL string                   `json:"portal_url"`
	Parts     []*types.PartWithProject `json:"parts"`
}

func (s *Service) handleGetContributor(w http.ResponseWriter, r *http.Request) {
	contributor, err := s.Contributors.Contributor(r.Context(), r.PathValue("contributorID"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	parts, err := s.Projects.PartsByContributor(r.Context(), contributor.ID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, contributorDetail{
		Contributor: contributor,
		PortalURL:   s.Notifier.PortalURL(contributor.Token),
		Parts:       parts,
	})
}

// Initiatives

func (s *Service) handleGetInitiatives(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	initiatives, err := s.Initiatives.Initiatives(ctx, false)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	projects, err := s.Projects.Projects(ctx)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	progress, err := s.Lifecycle.InitiativeProgress(ctx, projects)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	for _, i := range initiatives {
		i.Progress = progress[i.ID]
	}

	s.writeJSON(w, http.StatusOK, initiatives)
}

func (s *Service) handlePostInitiative(w http.ResponseWriter, r *http.Request) {
	var input types.NewInitiative
	if err := decodeBody(r, &input); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := validateStruct(input); err != nil {
		s.writeError(w, r, err)
		return
	}

	initiative := &types.Initiative{
		Name:        input.Name,
		Description: utils.StringPtrOrNil(utils.PtrString(input.Description)),
		IsActive:    input.IsActive == nil || *input.IsActive,
	}
	if err := s.Initiatives.CreateInitiative(r.Context(), initiative); err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusCreated, initiative)
}

func (s *Service) handleGetInitiative(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	initiativeID := r.PathValue("initiativeID")

	initiative, err := s.Initiatives.Initiative(ctx, initiativeID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	initiative.Parts, err = s.Initiatives.InitiativeParts(ctx, initiativeID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, initiative)
}

func (s *Service) handlePutInitiative(w http.ResponseWriter, r *http.Request) {
	var input types.NewInitiative
	if err := decodeBody(r, &input); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := validateStruct(input); err != nil {
		s.writeError(w, r, err)
		return
	}
	input.Description = utils.StringPtrOrNil(utils.PtrString(input.Description))

	initiativeID := r.PathValue("initiativeID")
	if err := s.Initiatives.UpdateInitiative(r.Context(), initiativeID, &input); err != nil {
		s.writeError(w, r, err)
		return
	}

	initiative, err := s.Initiatives.Initiative(r.Context(), initiativeID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, initiative)
}

type activeRequest struct {
	IsActive *bool `json:"is_active" validate:"required"`
}

func (s *Service) handlePostInitiativeActive(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	initiativeID := r.PathValue("initiativeID")

	var input activeRequest
	if err := decodeBody(r, &input); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := validateStruct(input); err != nil {
		s.writeError(w, r, err)
		return
	}

	initiative, err := s.Initiatives.Initiative(ctx, initiativeID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	update := &types.NewInitiative{Name: initiative.Name, Description: initiative.Description, IsActive: input.IsActive}
	if err := s.Initiatives.UpdateInitiative(ctx, initiativeID, update); err != nil {
		s.writeError(w, r, err)
		return
	}
	initiative.IsActive = *input.IsActive

	s.writeJSON(w, http.StatusOK, initiative)
}

func (s *Service) handleDeleteInitiative(w http.ResponseWriter, r *http.Request) {
	if err := s.Initiatives.DeleteInitiative(r.Context(), r.PathValue("initiativeID")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func initiativePartFromInput(part *types.InitiativePart, input types.NewInitiativePart) {
	part.PartName = input.PartName
	part.Category = utils.StringPtrOrNil(utils.PtrString(input.Category))
	part.Material = utils.StringPtrOrNil(utils.PtrString(input.Material))
	part.FileURL = utils.StringPtrOrNil(utils.PtrString(input.FileURL))
	part.PrintTimeHours = input.PrintTimeHours
	if input.SortOrder != nil {
		part.SortOrder = *input.SortOrder
	}
}

func (s *Service) handlePostInitiativePart(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	initiativeID := r.PathValue("initiativeID")

	var input types.NewInitiativePart
	if err := decodeBody(r, &input); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := validateStruct(input); err != nil {
		s.writeError(w, r, err)
		return
	}

	if _, err := s.Initiatives.Initiative(ctx, initiativeID); err != nil {
		s.writeError(w, r, err)
		return
	}

	part := &types.InitiativePart{InitiativeID: initiativeID}
	initiativePartFromInput(part, input)
	if input.SortOrder == nil {
		next, err := s.Initiatives.NextSortOrder(ctx, initiativeID)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		part.SortOrder = next
	}

	if err := s.Initiatives.CreateInitiativePart(ctx, part); err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusCreated, part)
}

func (s *Service) handlePutInitiativePart(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var input types.NewInitiativePart
	if err := decodeBody(r, &input); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := validateStruct(input); err != nil {
		s.writeError(w, r, err)
		return
	}

	part, err := s.Initiatives.InitiativePart(ctx, r.PathValue("partID"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	initiativePartFromInput(part, input)
	if err := s.Initiatives.UpdateInitiativePart(ctx, part); err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, part)
}

func (s *Service) handleDeleteInitiativePart(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	part, err := s.Initiatives.InitiativePart(ctx, r.PathValue("partID"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	if err := s.Initiatives.DeleteInitiativePart(ctx, part.ID); err != nil {
		s.writeError(w, r, err)
		return
	}

	s.removeStoredFile(r, part)

	w.WriteHeader(http.StatusNoContent)
}

// removeStoredFile deletes a part's uploaded file when it lives in our
// storage. Links to external sites are left alone.
func (s *Service) removeStoredFile(r *http.Request, part *types.InitiativePart) {
	if s.Files == nil || part.FileURL == nil {
		return
	}

	key, ok := storage.KeyFromURL(s.Files, *part.FileURL)
	if !ok {
		return
	}

	if err := s.Files.DeleteFile(r.Context(), key); err != nil {
		s.logger.WithError(err).
			WithField("part_id", part.ID).
			WithField("storage_key", key).
			Warn("failed to delete part file from storage")
	}
}

func (s *Service) handlePostInitiativePartFile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if s.Files == nil {
		s.writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "file storage is not configured"})
		return
	}

	part, err := s.Initiatives.InitiativePart(ctx, r.PathValue("partID"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(10 << 20); err != nil {
		s.writeError(w, r, types.NewValidationError("file", "invalid upload"))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		s.writeError(w, r, types.NewValidationError("file", "required"))
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	key := storage.PartFileKey(part.InitiativeID, part.ID, header.Filename)
	url, err := s.Files.UploadFile(ctx, key, file, contentType)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	if err := s.Initiatives.SetInitiativePartFile(ctx, part.ID, url); err != nil {
		s.writeError(w, r, err)
		return
	}

	s.removeStoredFile(r, part)
	part.FileURL = &url

	s.writeJSON(w, http.StatusOK, part)
}

// Requests

func (s *Service) handleGetRequests(w http.ResponseWriter, r *http.Request) {
	var filter types.RequestFilter
	if err := decodeQuery(r, &filter); err != nil {
		s.writeError(w, r, err)
		return
	}

	requests, err := s.Requests.Requests(r.Context(), filter)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, requests)
}

func (s *Service) handlePostRequestStatus(w http.ResponseWriter, r *http.Request) {
	var input statusRequest
	if err := decodeBody(r, &input); err != nil {
		s.writeError(w, r, err)
		return
	}

	requestID := r.PathValue("requestID")
	if err := s.Lifecycle.SetRequestStatus(r.Context(), requestID, input.Status); err != nil {
		s.writeError(w, r, err)
		return
	}

	request, err := s.Requests.Request(r.Context(), requestID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, request)
}

type notesRequest struct {
	Notes *string `json:"notes" form:"notes"`
}

func (s *Service) handlePostRequestNotes(w http.ResponseWriter, r *http.Request) {
	var input notesRequest
	if err := decodeBody(r, &input); err != nil {
		s.writeError(w, r, err)
		return
	}

	requestID := r.PathValue("requestID")
	if err := s.Requests.SetRequestNotes(r.Context(), requestID, utils.StringPtrOrNil(utils.PtrString(input.Notes))); err != nil {
		s.writeError(w, r, err)
		return
	}

	request, err := s.Requests.Request(r.Context(), requestID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, request)
}

// Projects

func (s *Service) handleGetProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := s.Projects.Projects(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	if err := s.Lifecycle.AttachProgress(r.Context(), projects); err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, projects)
}

func (s *Service) handlePostProject(w http.ResponseWriter, r *http.Request) {
	var input types.NewProject
	if err := decodeBody(r, &input); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := validateStruct(input); err != nil {
		s.writeError(w, r, err)
		return
	}

	result, err := s.Instantiate.CreateProject(r.Context(), input)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeResult(w, http.StatusCreated, result, result.Warnings())
}

func (s *Service) handleGetProject(w http.ResponseWriter, r *http.Request) {
	project, err := s.Lifecycle.ProjectWithProgress(r.Context(), r.PathValue("projectID"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, project)
}

func (s *Service) handleDeleteProject(w http.ResponseWriter, r *http.Request) {
	result, err := s.Instantiate.DeleteProject(r.Context(), r.PathValue("projectID"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, result)
}

func (s *Service) handlePostProjectStatus(w http.ResponseWriter, r *http.Request) {
	var input statusRequest
	if err := decodeBody(r, &input); err != nil {
		s.writeError(w, r, err)
		return
	}

	result, err := s.Lifecycle.SetProjectStatus(r.Context(), r.PathValue("projectID"), input.Status)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeResult(w, http.StatusOK, result, result.Warnings())
}

type allocateRequest struct {
	ContributorID string   `json:"contributor_id"`
	PartIDs       []string `json:"part_ids"`
}

func (s *Service) handlePostAllocate(w http.ResponseWriter, r *http.Request) {
	var input allocateRequest
	if err := decodeBody(r, &input); err != nil {
		s.writeError(w, r, err)
		return
	}

	result, err := s.Allocation.Allocate(r.Context(), allocation.Request{
		ProjectID:     r.PathValue("projectID"),
		ContributorID: input.ContributorID,
		PartIDs:       input.PartIDs,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeResult(w, http.StatusOK, result, result.Warnings())
}

// handlePostResend streams one JSON line per volunteer as the e-mails go out,
// followed by the final report. Sends are spaced out, so the write deadline
// is lifted for this response.
func (s *Service) handlePostResend(w http.ResponseWriter, r *http.Request) {
	rc := http.NewResponseController(w)
	if err := rc.SetWriteDeadline(time.Time{}); err != nil {
		s.logger.WithError(err).Debug("could not clear write deadline")
	}

	started := false
	enc := json.NewEncoder(w)
	progress := func(report allocation.ResendReport) {
		if !started {
			w.Header().Set("Content-Type", "application/x-ndjson")
			w.WriteHeader(http.StatusOK)
			started = true
		}
		_ = enc.Encode(report)
		_ = rc.Flush()
	}

	report, err := s.Allocation.ResendProject(r.Context(), r.PathValue("projectID"), progress)
	if err != nil && !started {
		s.writeError(w, r, err)
		return
	}
	if !started {
		w.Header().Set("Content-Type", "application/x-ndjson")
		w.WriteHeader(http.StatusOK)
	}

	final := map[string]any{"done": true, "report": report}
	if err != nil {
		final["error"] = err.Error()
	}
	_ = enc.Encode(final)
}

func (s *Service) handlePostProjectPart(w http.ResponseWriter, r *http.Request) {
	var input types.NewProjectPart
	if err := decodeBody(r, &input); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := validateStruct(input); err != nil {
		s.writeError(w, r, err)
		return
	}

	part, err := s.Instantiate.AddManualPart(r.Context(), r.PathValue("projectID"), input)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusCreated, part)
}

// Parts

type assignRequest struct {
	ContributorID *string `json:"contributor_id"`
}

func (s *Service) handlePostPartAssign(w http.ResponseWriter, r *http.Request) {
	var input assignRequest
	if err := decodeBody(r, &input); err != nil {
		s.writeError(w, r, err)
		return
	}

	part, err := s.Lifecycle.AssignPart(r.Context(), r.PathValue("partID"), input.ContributorID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, part)
}

func (s *Service) handlePostPartStatus(w http.ResponseWriter, r *http.Request) {
	var input statusRequest
	if err := decodeBody(r, &input); err != nil {
		s.writeError(w, r, err)
		return
	}

	part, err := s.Lifecycle.SetPartStatus(r.Context(), r.PathValue("partID"), input.Status)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, part)
}

// Donations

func (s *Service) handleGetDonations(w http.ResponseWriter, r *http.Request) {
	donations, err := s.Donations.Donations(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, donations)
}
