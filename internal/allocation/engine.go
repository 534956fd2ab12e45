// Package allocation assigns volunteers to project parts and drives the
// allocation e-mails.
package allocation

import (
	"context"
	"fmt"
	"strings"
	"time"

	"comproposito/internal/utils"
	"comproposito/pkg/types"

	"github.com/sirupsen/logrus"
)

type PartStore interface {
	PartsInProject(ctx context.Context, projectID string, partIDs []string) ([]*types.ProjectPart, error)
	AssignParts(ctx context.Context, projectID, contributorID string, partIDs []string) (int64, error)
	AllocatedParts(ctx context.Context, projectID string) ([]*types.ProjectPart, error)
}

type ContributorStore interface {
	Contributor(ctx context.Context, contributorID string) (*types.Contributor, error)
}

type ProjectStore interface {
	Project(ctx context.Context, projectID string) (*types.ProjectInstance, error)
}

// Notifier sends the "parts allocated" e-mail.
type Notifier interface {
	PartAllocated(ctx context.Context, contributorID string, partIDs []string) (*types.NotifyResult, error)
}

type Engine struct {
	logger       *logrus.Logger
	parts        PartStore
	contributors ContributorStore
	projects     ProjectStore
	notifier     Notifier
	resendDelay  time.Duration
	wait         func(ctx context.Context, d time.Duration) error
}

func NewEngine(logger *logrus.Logger, projects ProjectStore, parts PartStore, contributors ContributorStore, notifier Notifier, resendDelay time.Duration) *Engine {
	return &Engine{
		logger:       logger,
		parts:        parts,
		contributors: contributors,
		projects:     projects,
		notifier:     notifier,
		resendDelay:  resendDelay,
		wait:         sleep,
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}

	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

type Request struct {
	ProjectID     string   `json:"project_id"`
	ContributorID string   `json:"contributor_id"`
	PartIDs       []string `json:"part_ids"`
}

// Reassignment records a part that was taken over from another volunteer.
type Reassignment struct {
	PartID                string `json:"part_id"`
	PreviousContributorID string `json:"previous_contributor_id"`
}

// Result describes a persisted allocation. NotifyErr is set when the
// assignment stands but the e-mail could not be sent.
type Result struct {
	ProjectID     string              `json:"project_id"`
	ContributorID string              `json:"contributor_id"`
	PartIDs       []string            `json:"part_ids"`
	Updated       int64               `json:"updated"`
	Reassigned    []Reassignment      `json:"reassigned,omitempty"`
	Notification  *types.NotifyResult `json:"notification,omitempty"`
	NotifyErr     error               `json:"-"`
}

func (r *Result) Warnings() []string {
	if r.NotifyErr == nil {
		return nil
	}
	return []string{fmt.Sprintf("parts assigned but e-mail failed: %s", r.NotifyErr)}
}

func (r Request) validate() error {
	verr := &types.ValidationError{}
	if strings.TrimSpace(r.ProjectID) == "" {
		verr.Add("project_id", "required")
	}
	if strings.TrimSpace(r.ContributorID) == "" {
		verr.Add("contributor_id", "required")
	}
	if len(utils.UniqueStrings(r.PartIDs)) == 0 {
		verr.Add("part_ids", "select at least one part")
	}
	return verr.OrNil()
}

// Allocate assigns one volunteer to the selected parts of a project. Every
// part must belong to the project or nothing is assigned. A
// persistence failure means nothing happened; a notification failure is
// reported on the result and never reverts the assignment.
func (e *Engine) Allocate(ctx context.Context, req Request) (*Result, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}
	partIDs := utils.UniqueStrings(req.PartIDs)

	if _, err := e.contributors.Contributor(ctx, req.ContributorID); err != nil {
		return nil, err
	}

	current, err := e.parts.PartsInProject(ctx, req.ProjectID, partIDs)
	if err != nil {
		return nil, err
	}
	if len(current) != len(partIDs) {
		return nil, fmt.Errorf("%d of %d parts are not in project %s: %w",
			len(partIDs)-len(current), len(partIDs), req.ProjectID, types.ErrPartNotFound)
	}

	result := &Result{
		ProjectID:     req.ProjectID,
		ContributorID: req.ContributorID,
		PartIDs:       make([]string, 0, len(current)),
	}
	for _, p := range current {
		result.PartIDs = append(result.PartIDs, p.ID)
		if prev := p.AssignedContributorID; prev != nil && *prev != req.ContributorID {
			result.Reassigned = append(result.Reassigned, Reassignment{PartID: p.ID, PreviousContributorID: *prev})
		}
	}

	updated, err := e.parts.AssignParts(ctx, req.ProjectID, req.ContributorID, result.PartIDs)
	if err != nil {
		return nil, err
	}
	if updated == 0 {
		return nil, types.ErrPartNotFound
	}
	result.Updated = updated

	entry := e.logger.WithFields(logrus.Fields{
		"project_id":     req.ProjectID,
		"contributor_id": req.ContributorID,
		"parts":          updated,
	})
	if len(result.Reassigned) > 0 {
		entry.WithField("reassigned", len(result.Reassigned)).Warn("parts taken over from other volunteers")
	}
	entry.Info("parts allocated")

	notification, err := e.notifier.PartAllocated(ctx, req.ContributorID, result.PartIDs)
	if err != nil {
		entry.WithError(err).Warn("allocation e-mail failed")
		result.NotifyErr = err
		return result, nil
	}
	result.Notification = notification

	return result, nil
}

// ResendFailure names a volunteer whose e-mail could not be re-sent.
type ResendFailure struct {
	ContributorID string `json:"contributor_id"`
	Error         string `json:"error"`
}

type ResendReport struct {
	ProjectID string          `json:"project_id"`
	Total     int             `json:"total"`
	Succeeded int             `json:"succeeded"`
	Failed    int             `json:"failed"`
	Failures  []ResendFailure `json:"failures,omitempty"`
}

// ResendProject re-sends the allocation e-mail to every volunteer holding parts
// in the project, one volunteer at a time with a pause between sends to stay
// under the provider's rate limit. Individual failures are counted, not fatal.
func (e *Engine) ResendProject(ctx context.Context, projectID string, progress func(ResendReport)) (*ResendReport, error) {
	if strings.TrimSpace(projectID) == "" {
		return nil, types.NewValidationError("project_id", "required")
	}

	if _, err := e.projects.Project(ctx, projectID); err != nil {
		return nil, err
	}

	parts, err := e.parts.AllocatedParts(ctx, projectID)
	if err != nil {
		return nil, err
	}

	groups := GroupByContributor(parts)
	report := &ResendReport{ProjectID: projectID, Total: len(groups)}

	for i, g := range groups {
		if i > 0 {
			if err := e.wait(ctx, e.resendDelay); err != nil {
				return report, fmt.Errorf("resend interrupted after %d of %d: %w", i, len(groups), err)
			}
		}

		_, err := e.notifier.PartAllocated(ctx, g.ContributorID, g.PartIDs)
		if err != nil {
			report.Failed++
			report.Failures = append(report.Failures, ResendFailure{ContributorID: g.ContributorID, Error: err.Error()})
			e.logger.WithError(err).WithField("contributor_id", g.ContributorID).Warn("failed to resend allocation e-mail")
		} else {
			report.Succeeded++
		}

		if progress != nil {
			progress(*report)
		}
	}

	e.logger.WithFields(logrus.Fields{
		"project_id": projectID,
		"total":      report.Total,
		"succeeded":  report.Succeeded,
		"failed":     report.Failed,
	}).Info("allocation e-mails resent")

	return report, nil
}

// ContributorParts is one volunteer's share of a project.
type ContributorParts struct {
	ContributorID string
	PartIDs       []string
}

// GroupByContributor buckets assigned parts per volunteer, in the order each
// volunteer first appears. Unassigned parts are ignored.
func GroupByContributor(parts []*types.ProjectPart) []ContributorParts {
	index := make(map[string]int)
	groups := make([]ContributorParts, 0)

	for _, p := range parts {
		if p.AssignedContributorID == nil || *p.AssignedContributorID == "" {
			continue
		}
		id := *p.AssignedContributorID

		i, ok := index[id]
		if !ok {
			i = len(groups)
			index[id] = i
			groups = append(groups, ContributorParts{ContributorID: id})
		}
		groups[i].PartIDs = append(groups[i].PartIDs, p.ID)
	}

	return groups
}
