// Package instantiate builds project instances from initiative templates.
package instantiate

import (
	"context"
	"fmt"
	"strings"

	"comproposito/internal/utils"
	"comproposito/pkg/types"

	"github.com/sirupsen/logrus"
)

type InitiativeStore interface {
	Initiative(ctx context.Context, initiativeID string) (*types.Initiative, error)
	InitiativeParts(ctx context.Context, initiativeID string) ([]*types.InitiativePart, error)
}

type ProjectStore interface {
	Project(ctx context.Context, projectID string) (*types.ProjectInstance, error)
	CreateProject(ctx context.Context, project *types.ProjectInstance) error
	DeleteProject(ctx context.Context, projectID string) (*string, error)
	CreateProjectParts(ctx context.Context, parts []*types.ProjectPart) error
	CreateProjectPart(ctx context.Context, part *types.ProjectPart) error
}

type RequestStore interface {
	Request(ctx context.Context, requestID string) (*types.BeneficiaryRequest, error)
	SetRequestStatus(ctx context.Context, requestID string, status types.RequestStatus) error
}

type Service struct {
	logger      *logrus.Logger
	initiatives InitiativeStore
	projects    ProjectStore
	requests    RequestStore
}

func NewService(logger *logrus.Logger, initiatives InitiativeStore, projects ProjectStore, requests RequestStore) *Service {
	return &Service{
		logger:      logger,
		initiatives: initiatives,
		projects:    projects,
		requests:    requests,
	}
}

// CreateResult reports each step of project creation separately. Only a
// failure to create the project row is returned as an error; PartsErr and
// RequestErr are warnings on an otherwise created project.
type CreateResult struct {
	Project     *types.ProjectInstance `json:"project"`
	PartsCopied int                    `json:"parts_copied"`
	PartsErr    error                  `json:"-"`
	RequestErr  error                  `json:"-"`
}

func (r *CreateResult) Warnings() []string {
	warnings := make([]string, 0, 2)
	if r.PartsErr != nil {
		warnings = append(warnings, fmt.Sprintf("project created without parts, add them manually: %s", r.PartsErr))
	}
	if r.RequestErr != nil {
		warnings = append(warnings, fmt.Sprintf("request status was not updated: %s", r.RequestErr))
	}
	return warnings
}

// CreateProject creates a project for a request, snapshots the initiative's
// parts into it and marks the request em_andamento.
func (s *Service) CreateProject(ctx context.Context, input types.NewProject) (*CreateResult, error) {
	verr := &types.ValidationError{}
	if strings.TrimSpace(input.InitiativeID) == "" {
		verr.Add("initiative_id", "required")
	}
	if strings.TrimSpace(input.RequestID) == "" {
		verr.Add("request_id", "required")
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	initiative, err := s.initiatives.Initiative(ctx, input.InitiativeID)
	if err != nil {
		return nil, err
	}

	request, err := s.requests.Request(ctx, input.RequestID)
	if err != nil {
		return nil, err
	}

	name := strings.TrimSpace(input.Name)
	if name == "" {
		name = initiative.Name
	}

	project := &types.ProjectInstance{
		InitiativeID: initiative.ID,
		RequestID:    utils.StringPtr(request.ID),
		Name:         name,
		Status:       types.ProjectStatusPlanning,
	}
	if err := s.projects.CreateProject(ctx, project); err != nil {
		return nil, err
	}

	result := &CreateResult{Project: project}
	entry := s.logger.WithFields(logrus.Fields{
		"project_id":    project.ID,
		"initiative_id": initiative.ID,
		"request_id":    request.ID,
	})

	copied, err := s.copyParts(ctx, initiative.ID, project.ID)
	if err != nil {
		entry.WithError(err).Warn("project created but template parts were not copied")
		result.PartsErr = err
	}
	result.PartsCopied = copied

	if err := s.requests.SetRequestStatus(ctx, request.ID, types.RequestStatusInProgress); err != nil {
		entry.WithError(err).Warn("failed to move request to em_andamento")
		result.RequestErr = err
	}

	entry.WithField("parts", copied).Info("project created")

	return result, nil
}

func (s *Service) copyParts(ctx context.Context, initiativeID, projectID string) (int, error) {
	templateParts, err := s.initiatives.InitiativeParts(ctx, initiativeID)
	if err != nil {
		return 0, err
	}

	parts := SnapshotParts(projectID, templateParts)
	if err := s.projects.CreateProjectParts(ctx, parts); err != nil {
		return 0, err
	}

	return len(parts), nil
}

// SnapshotParts copies template parts into fresh, unassigned project parts.
func SnapshotParts(projectID string, templateParts []*types.InitiativePart) []*types.ProjectPart {
	parts := make([]*types.ProjectPart, 0, len(templateParts))
	for _, tp := range templateParts {
		parts = append(parts, &types.ProjectPart{
			ProjectInstanceID: projectID,
			InitiativePartID:  utils.StringPtr(tp.ID),
			PartName:          tp.PartName,
			Category:          tp.Category,
			Material:          tp.Material,
			FileURL:           tp.FileURL,
			Status:            types.PartStatusUnassigned,
		})
	}
	return parts
}

type DeleteResult struct {
	ProjectID       string  `json:"project_id"`
	ReleasedRequest *string `json:"released_request_id,omitempty"`
}

// DeleteProject removes a project and its parts and hands its request back to
// the pending queue.
func (s *Service) DeleteProject(ctx context.Context, projectID string) (*DeleteResult, error) {
	if strings.TrimSpace(projectID) == "" {
		return nil, types.NewValidationError("project_id", "required")
	}

	requestID, err := s.projects.DeleteProject(ctx, projectID)
	if err != nil {
		return nil, err
	}

	entry := s.logger.WithField("project_id", projectID)
	if requestID != nil {
		entry = entry.WithField("released_request_id", *requestID)
	}
	entry.Info("project deleted")

	return &DeleteResult{ProjectID: projectID, ReleasedRequest: requestID}, nil
}

// AddManualPart adds a part that is not part of the template, e.g. to
// recover a project whose part copy failed.
func (s *Service) AddManualPart(ctx context.Context, projectID string, input types.NewProjectPart) (*types.ProjectPart, error) {
	if strings.TrimSpace(input.PartName) == "" {
		return nil, types.NewValidationError("part_name", "required")
	}

	if _, err := s.projects.Project(ctx, projectID); err != nil {
		return nil, err
	}

	part := &types.ProjectPart{
		ProjectInstanceID: projectID,
		PartName:          strings.TrimSpace(input.PartName),
		Category:          input.Category,
		Material:          input.Material,
		FileURL:           input.FileURL,
		Status:            types.PartStatusUnassigned,
	}
	if err := s.projects.CreateProjectPart(ctx, part); err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"project_id": projectID,
		"part_id":    part.ID,
	}).Info("manual part added")

	return part, nil
}
