// Package lifecycle owns part and project status changes and the way they
// cascade onto beneficiary requests.
package lifecycle

import (
	"context"
	"fmt"
	"strings"

	"comproposito/pkg/types"

	"github.com/sirupsen/logrus"
)

type PartStore interface {
	Part(ctx context.Context, partID string) (*types.ProjectPart, error)
	PartsByProject(ctx context.Context, projectID string) ([]*types.ProjectPart, error)
	PartsByProjects(ctx context.Context, projectIDs []string) ([]*types.ProjectPart, error)
	SetPartStatus(ctx context.Context, partID string, status types.PartStatus, clearAssignment bool) (*types.ProjectPart, error)
	SetPartAssignment(ctx context.Context, partID string, contributorID *string, status types.PartStatus) (*types.ProjectPart, error)
}

type ProjectStore interface {
	Project(ctx context.Context, projectID string) (*types.ProjectInstance, error)
	SetProjectStatus(ctx context.Context, projectID string, status types.ProjectStatus) error
}

type RequestStore interface {
	SetRequestStatus(ctx context.Context, requestID string, status types.RequestStatus) error
}

type ContributorStore interface {
	Contributor(ctx context.Context, contributorID string) (*types.Contributor, error)
	ContributorByToken(ctx context.Context, token string) (*types.Contributor, error)
}

// VolunteerStatuses are the statuses a volunteer may set from the portal.
// Releasing a part and confirming completion stay with organizers.
var VolunteerStatuses = []types.PartStatus{
	types.PartStatusAssigned,
	types.PartStatusPrinting,
	types.PartStatusPrinted,
	types.PartStatusShipped,
}

type Manager struct {
	logger       *logrus.Logger
	parts        PartStore
	projects     ProjectStore
	requests     RequestStore
	contributors ContributorStore
}

func NewManager(logger *logrus.Logger, parts PartStore, projects ProjectStore, requests RequestStore, contributors ContributorStore) *Manager {
	return &Manager{
		logger:       logger,
		parts:        parts,
		projects:     projects,
		requests:     requests,
		contributors: contributors,
	}
}

func parsePartStatus(status string) (types.PartStatus, error) {
	s := types.PartStatus(strings.TrimSpace(status))
	if !s.Valid() {
		return "", types.NewValidationError("status", fmt.Sprintf("unknown part status %q", status))
	}
	return s, nil
}

// SetPartStatus applies any valid status. Moving a part back to "unassigned"
// also removes its volunteer.
func (m *Manager) SetPartStatus(ctx context.Context, partID, status string) (*types.ProjectPart, error) {
	s, err := parsePartStatus(status)
	if err != nil {
		return nil, err
	}

	part, err := m.parts.SetPartStatus(ctx, partID, s, s == types.PartStatusUnassigned)
	if err != nil {
		return nil, err
	}

	m.logger.WithFields(logrus.Fields{
		"part_id": partID,
		"status":  s,
	}).Info("part status changed")

	return part, nil
}

// AssignPart sets or clears a single part's volunteer. A volunteer moves the
// part to "assigned", nil moves it back to "unassigned".
func (m *Manager) AssignPart(ctx context.Context, partID string, contributorID *string) (*types.ProjectPart, error) {
	if contributorID != nil && strings.TrimSpace(*contributorID) == "" {
		contributorID = nil
	}

	status := types.PartStatusUnassigned
	if contributorID != nil {
		if _, err := m.contributors.Contributor(ctx, *contributorID); err != nil {
			return nil, err
		}
		status = types.PartStatusAssigned
	}

	part, err := m.parts.SetPartAssignment(ctx, partID, contributorID, status)
	if err != nil {
		return nil, err
	}

	m.logger.WithFields(logrus.Fields{
		"part_id":  partID,
		"assigned": contributorID != nil,
	}).Info("part assignment changed")

	return part, nil
}

// UpdateOwnPartStatus is the portal path: the token must belong to the
// volunteer the part is assigned to.
func (m *Manager) UpdateOwnPartStatus(ctx context.Context, token, partID, status string) (*types.ProjectPart, error) {
	s, err := parsePartStatus(status)
	if err != nil {
		return nil, err
	}
	if !volunteerStatus(s) {
		return nil, types.NewValidationError("status", fmt.Sprintf("status %q cannot be set from the portal", s))
	}

	contributor, err := m.contributors.ContributorByToken(ctx, token)
	if err != nil {
		return nil, types.ErrInvalidToken
	}

	part, err := m.parts.Part(ctx, partID)
	if err != nil {
		return nil, err
	}
	if part.AssignedContributorID == nil || *part.AssignedContributorID != contributor.ID {
		return nil, types.ErrPartNotOwned
	}

	return m.SetPartStatus(ctx, partID, string(s))
}

func volunteerStatus(s types.PartStatus) bool {
	for _, v := range VolunteerStatuses {
		if v == s {
			return true
		}
	}
	return false
}

// ProjectStatusResult carries the cascade outcome. RequestErr is a warning:
// the project status change stands even when the request could not follow.
type ProjectStatusResult struct {
	ProjectID     string              `json:"project_id"`
	Status        types.ProjectStatus `json:"status"`
	RequestID     *string             `json:"request_id,omitempty"`
	RequestStatus types.RequestStatus `json:"request_status,omitempty"`
	RequestErr    error               `json:"-"`
}

func (r *ProjectStatusResult) Warnings() []string {
	if r.RequestErr == nil {
		return nil
	}
	return []string{fmt.Sprintf("project updated but request status was not: %s", r.RequestErr)}
}

// SetProjectStatus persists the project status and mirrors it onto the linked
// beneficiary request.
func (m *Manager) SetProjectStatus(ctx context.Context, projectID, status string) (*ProjectStatusResult, error) {
	s := types.ProjectStatus(strings.TrimSpace(status))
	requestStatus, ok := s.RequestStatus()
	if !ok {
		return nil, types.NewValidationError("status", fmt.Sprintf("unknown project status %q", status))
	}

	project, err := m.projects.Project(ctx, projectID)
	if err != nil {
		return nil, err
	}

	if err := m.projects.SetProjectStatus(ctx, projectID, s); err != nil {
		return nil, err
	}

	result := &ProjectStatusResult{ProjectID: projectID, Status: s, RequestID: project.RequestID}
	entry := m.logger.WithFields(logrus.Fields{
		"project_id": projectID,
		"status":     s,
	})

	if project.RequestID == nil {
		entry.Info("project status changed")
		return result, nil
	}

	if err := m.requests.SetRequestStatus(ctx, *project.RequestID, requestStatus); err != nil {
		entry.WithError(err).WithField("request_id", *project.RequestID).Warn("failed to mirror project status onto request")
		result.RequestErr = err
		return result, nil
	}
	result.RequestStatus = requestStatus

	entry.WithField("request_status", requestStatus).Info("project status changed")

	return result, nil
}

// ProjectWithProgress loads a project with its parts and completion figures.
func (m *Manager) ProjectWithProgress(ctx context.Context, projectID string) (*types.ProjectInstance, error) {
	project, err := m.projects.Project(ctx, projectID)
	if err != nil {
		return nil, err
	}

	parts, err := m.parts.PartsByProject(ctx, projectID)
	if err != nil {
		return nil, err
	}

	project.Parts = parts
	project.Progress = Progress(parts)

	return project, nil
}

// AttachProgress fills Progress on every project with one parts query.
func (m *Manager) AttachProgress(ctx context.Context, projects []*types.ProjectInstance) error {
	ids := make([]string, 0, len(projects))
	for _, p := range projects {
		ids = append(ids, p.ID)
	}

	parts, err := m.parts.PartsByProjects(ctx, ids)
	if err != nil {
		return err
	}

	byProject := make(map[string][]*types.ProjectPart, len(projects))
	for _, part := range parts {
		byProject[part.ProjectInstanceID] = append(byProject[part.ProjectInstanceID], part)
	}
	for _, p := range projects {
		p.Progress = Progress(byProject[p.ID])
	}

	return nil
}

// InitiativeProgress aggregates the parts of every project built from an
// initiative.
func (m *Manager) InitiativeProgress(ctx context.Context, projects []*types.ProjectInstance) (map[string]*types.Progress, error) {
	ids := make([]string, 0, len(projects))
	initiativeOf := make(map[string]string, len(projects))
	for _, p := range projects {
		ids = append(ids, p.ID)
		initiativeOf[p.ID] = p.InitiativeID
	}

	parts, err := m.parts.PartsByProjects(ctx, ids)
	if err != nil {
		return nil, err
	}

	grouped := make(map[string][]*types.ProjectPart)
	for _, part := range parts {
		initiativeID := initiativeOf[part.ProjectInstanceID]
		grouped[initiativeID] = append(grouped[initiativeID], part)
	}

	out := make(map[string]*types.Progress, len(grouped))
	for initiativeID, ps := range grouped {
		out[initiativeID] = Progress(ps)
	}

	return out, nil
}

// SetRequestStatus is the organizer's direct edit of a request's status.
func (m *Manager) SetRequestStatus(ctx context.Context, requestID, status string) error {
	s := types.RequestStatus(strings.TrimSpace(status))
	if !s.Valid() {
		return types.NewValidationError("status", fmt.Sprintf("unknown request status %q", status))
	}

	if err := m.requests.SetRequestStatus(ctx, requestID, s); err != nil {
		return err
	}

	m.logger.WithFields(logrus.Fields{
		"request_id": requestID,
		"status":     s,
	}).Info("request status changed")

	return nil
}
