package store

import (
	"context"
	"fmt"
	"time"

	"comproposito/internal/utils"
	"comproposito/pkg/types"

	sq "github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	projectTableName     = schemaName + ".project_instances"
	projectPartTableName = schemaName + ".project_parts"
)

var (
	projectColumns     = utils.StructTagValues(types.ProjectInstance{})
	projectPartColumns = utils.StructTagValues(types.ProjectPart{})
)

type ProjectRepository struct {
	pool *pgxpool.Pool
}

func NewProjectRepository(pool *pgxpool.Pool) *ProjectRepository {
	return &ProjectRepository{pool: pool}
}

func (r *ProjectRepository) Projects(ctx context.Context) ([]*types.ProjectInstance, error) {
	query, args, err := psql().
		Select(projectColumns...).
		From(projectTableName).
		OrderBy("created_at DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate projects query: %w", err)
	}

	var projects = make([]*types.ProjectInstance, 0)
	err = pgxscan.Select(ctx, r.pool, &projects, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch projects: %w", err)
	}

	return projects, nil
}

func (r *ProjectRepository) Project(ctx context.Context, projectID string) (*types.ProjectInstance, error) {
	query, args, err := psql().
		Select(projectColumns...).
		From(projectTableName).
		Where(sq.Eq{"id": projectID}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate project query: %w", err)
	}

	var project types.ProjectInstance
	err = pgxscan.Get(ctx, r.pool, &project, query, args...)
	if err != nil {
		if pgxscan.NotFound(err) {
			return nil, types.ErrProjectNotFound
		}
		return nil, fmt.Errorf("failed to fetch project: %w", err)
	}

	return &project, nil
}

func (r *ProjectRepository) CreateProject(ctx context.Context, project *types.ProjectInstance) error {
	now := time.Now()
	project.ID = utils.NanoID()
	project.CreatedAt = now
	project.UpdatedAt = now

	query, args, err := psql().
		Insert(projectTableName).
		SetMap(utils.StructToMap(project)).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to generate insert project query: %w", err)
	}

	_, err = r.pool.Exec(ctx, query, args...)
	return utils.ErrorWrapOrNil(err, "failed to create project")
}

func (r *ProjectRepository) SetProjectStatus(ctx context.Context, projectID string, status types.ProjectStatus) error {
	query, args, err := psql().
		Update(projectTableName).
		SetMap(map[string]any{
			"status":     status,
			"updated_at": time.Now(),
		}).
		Where(sq.Eq{"id": projectID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to generate project status query for project %s: %w", projectID, err)
	}

	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update project status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return types.ErrProjectNotFound
	}

	return nil
}

// DeleteProject removes the project's parts, the project row and releases the
// linked request back to pendente in a single transaction. The returned request
// id is nil when the project had no request.
func (r *ProjectRepository) DeleteProject(ctx context.Context, projectID string) (*string, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	query, args, err := lockProjectQuery(projectID).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate project lock query: %w", err)
	}

	var requestID *string
	err = pgxscan.Get(ctx, tx, &requestID, query, args...)
	if err != nil {
		if pgxscan.NotFound(err) {
			return nil, types.ErrProjectNotFound
		}
		return nil, fmt.Errorf("failed to lock project: %w", err)
	}

	query, args, err = deleteProjectPartsQuery(projectID).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate delete parts query: %w", err)
	}
	if _, err = tx.Exec(ctx, query, args...); err != nil {
		return nil, fmt.Errorf("failed to delete project parts: %w", err)
	}

	query, args, err = deleteProjectQuery(projectID).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate delete project query: %w", err)
	}
	if _, err = tx.Exec(ctx, query, args...); err != nil {
		return nil, fmt.Errorf("failed to delete project: %w", err)
	}

	if requestID != nil {
		query, args, err = releaseRequestQuery(*requestID, time.Now()).ToSql()
		if err != nil {
			return nil, fmt.Errorf("failed to generate release request query: %w", err)
		}
		if _, err = tx.Exec(ctx, query, args...); err != nil {
			return nil, fmt.Errorf("failed to release request: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return requestID, nil
}

func lockProjectQuery(projectID string) sq.SelectBuilder {
	return psql().
		Select("request_id").
		From(projectTableName).
		Where(sq.Eq{"id": projectID}).
		Suffix("FOR UPDATE")
}

func deleteProjectPartsQuery(projectID string) sq.DeleteBuilder {
	return psql().
		Delete(projectPartTableName).
		Where(sq.Eq{"project_instance_id": projectID})
}

func deleteProjectQuery(projectID string) sq.DeleteBuilder {
	return psql().
		Delete(projectTableName).
		Where(sq.Eq{"id": projectID})
}

// releaseRequestQuery puts a request back in the intake queue.
func releaseRequestQuery(requestID string, now time.Time) sq.UpdateBuilder {
	return psql().
		Update(requestTableName).
		SetMap(map[string]any{
			"status":     types.RequestStatusPending,
			"updated_at": now,
		}).
		Where(sq.Eq{"id": requestID})
}

// CreateProjectParts inserts every part in one statement inside a transaction,
// so the copy either lands whole or not at all.
func (r *ProjectRepository) CreateProjectParts(ctx context.Context, parts []*types.ProjectPart) error {
	if len(parts) == 0 {
		return nil
	}

	now := time.Now()

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	builder := psql().
		Insert(projectPartTableName).Columns(projectPartColumns...)

	for _, part := range parts {
		if part.ID == "" {
			part.ID = utils.NanoID()
		}
		part.CreatedAt = now
		part.UpdatedAt = now

		row := utils.StructToMap(part)
		values := make([]any, len(projectPartColumns))
		for i, column := range projectPartColumns {
			values[i] = row[column]
		}
		builder = builder.Values(values...)
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return fmt.Errorf("failed to generate insert parts query: %w", err)
	}

	_, err = tx.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to insert project parts: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

func (r *ProjectRepository) CreateProjectPart(ctx context.Context, part *types.ProjectPart) error {
	return r.CreateProjectParts(ctx, []*types.ProjectPart{part})
}

func (r *ProjectRepository) Part(ctx context.Context, partID string) (*types.ProjectPart, error) {
	query, args, err := psql().
		Select(projectPartColumns...).
		From(projectPartTableName).
		Where(sq.Eq{"id": partID}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate part query: %w", err)
	}

	var part types.ProjectPart
	err = pgxscan.Get(ctx, r.pool, &part, query, args...)
	if err != nil {
		if pgxscan.NotFound(err) {
			return nil, types.ErrPartNotFound
		}
		return nil, fmt.Errorf("failed to fetch part: %w", err)
	}

	return &part, nil
}

func (r *ProjectRepository) PartsByProject(ctx context.Context, projectID string) ([]*types.ProjectPart, error) {
	return r.partsWhere(ctx, sq.Eq{"project_instance_id": projectID})
}

func (r *ProjectRepository) PartsByProjects(ctx context.Context, projectIDs []string) ([]*types.ProjectPart, error) {
	if len(projectIDs) == 0 {
		return []*types.ProjectPart{}, nil
	}
	return r.partsWhere(ctx, sq.Eq{"project_instance_id": projectIDs})
}

// PartsInProject returns the requested parts that belong to the project.
func (r *ProjectRepository) PartsInProject(ctx context.Context, projectID string, partIDs []string) ([]*types.ProjectPart, error) {
	if len(partIDs) == 0 {
		return []*types.ProjectPart{}, nil
	}
	return r.partsWhere(ctx, sq.Eq{"project_instance_id": projectID, "id": partIDs})
}

// AllocatedParts returns the project's parts that currently have a volunteer.
func (r *ProjectRepository) AllocatedParts(ctx context.Context, projectID string) ([]*types.ProjectPart, error) {
	return r.partsWhere(ctx, sq.And{
		sq.Eq{"project_instance_id": projectID},
		sq.NotEq{"assigned_contributor_id": nil},
	})
}

func (r *ProjectRepository) partsWhere(ctx context.Context, pred sq.Sqlizer) ([]*types.ProjectPart, error) {
	query, args, err := psql().
		Select(projectPartColumns...).
		From(projectPartTableName).
		Where(pred).
		OrderBy("created_at ASC", "part_name ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate parts query: %w", err)
	}

	var parts = make([]*types.ProjectPart, 0)
	err = pgxscan.Select(ctx, r.pool, &parts, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch parts: %w", err)
	}

	return parts, nil
}

// PartsWithProject loads parts by id together with their project name.
func (r *ProjectRepository) PartsWithProject(ctx context.Context, partIDs []string) ([]*types.PartWithProject, error) {
	if len(partIDs) == 0 {
		return []*types.PartWithProject{}, nil
	}
	return r.partsWithProjectWhere(ctx, sq.Eq{"p.id": partIDs})
}

// PartsByContributor lists everything currently assigned to a volunteer.
func (r *ProjectRepository) PartsByContributor(ctx context.Context, contributorID string) ([]*types.PartWithProject, error) {
	return r.partsWithProjectWhere(ctx, sq.Eq{"p.assigned_contributor_id": contributorID})
}

func (r *ProjectRepository) partsWithProjectWhere(ctx context.Context, pred sq.Sqlizer) ([]*types.PartWithProject, error) {
	columns := append(utils.PrefixSliceOfStrings("p", projectPartColumns), "pi.name AS project_name")

	query, args, err := psql().
		Select(columns...).
		From(fmt.Sprintf("%s p", projectPartTableName)).
		Join(fmt.Sprintf("%s pi ON pi.id = p.project_instance_id", projectTableName)).
		Where(pred).
		OrderBy("pi.name ASC", "p.part_name ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate parts with project query: %w", err)
	}

	var parts = make([]*types.PartWithProject, 0)
	err = pgxscan.Select(ctx, r.pool, &parts, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch parts with project: %w", err)
	}

	return parts, nil
}

// AssignParts sets the volunteer and status "assigned" on the selected parts
// of one project with a single bulk update and returns how many rows changed.
func (r *ProjectRepository) AssignParts(ctx context.Context, projectID, contributorID string, partIDs []string) (int64, error) {
	query, args, err := assignPartsQuery(projectID, contributorID, partIDs, time.Now()).ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to generate assign parts query: %w", err)
	}

	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to assign parts: %w", err)
	}

	return tag.RowsAffected(), nil
}

func assignPartsQuery(projectID, contributorID string, partIDs []string, now time.Time) sq.UpdateBuilder {
	return psql().
		Update(projectPartTableName).
		SetMap(map[string]any{
			"assigned_contributor_id": contributorID,
			"status":                  types.PartStatusAssigned,
			"updated_at":              now,
		}).
		Where(sq.Eq{"project_instance_id": projectID, "id": partIDs})
}

// SetPartStatus changes a part's status. When clearAssignment is set the
// assigned volunteer is removed in the same statement.
func (r *ProjectRepository) SetPartStatus(ctx context.Context, partID string, status types.PartStatus, clearAssignment bool) (*types.ProjectPart, error) {
	return r.updatePart(ctx, partID, partStatusFields(status, clearAssignment, time.Now()))
}

func partStatusFields(status types.PartStatus, clearAssignment bool, now time.Time) map[string]any {
	fields := map[string]any{
		"status":     status,
		"updated_at": now,
	}
	if clearAssignment {
		fields["assigned_contributor_id"] = nil
	}
	return fields
}

// SetPartAssignment writes the assignee and status together.
func (r *ProjectRepository) SetPartAssignment(ctx context.Context, partID string, contributorID *string, status types.PartStatus) (*types.ProjectPart, error) {
	return r.updatePart(ctx, partID, map[string]any{
		"assigned_contributor_id": contributorID,
		"status":                  status,
		"updated_at":              time.Now(),
	})
}

func (r *ProjectRepository) updatePart(ctx context.Context, partID string, fields map[string]any) (*types.ProjectPart, error) {
	query, args, err := updatePartQuery(partID, fields).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate update part query for part %s: %w", partID, err)
	}

	var part types.ProjectPart
	err = pgxscan.Get(ctx, r.pool, &part, query, args...)
	if err != nil {
		if pgxscan.NotFound(err) {
			return nil, types.ErrPartNotFound
		}
		return nil, fmt.Errorf("failed to update part: %w", err)
	}

	return &part, nil
}

func updatePartQuery(partID string, fields map[string]any) sq.UpdateBuilder {
	return psql().
		Update(projectPartTableName).
		SetMap(fields).
		Where(sq.Eq{"id": partID}).
		Suffix("RETURNING " + joinColumns(projectPartColumns))
}

func (r *ProjectRepository) DeletePart(ctx context.Context, partID string) error {
	query, args, err := psql().
		Delete(projectPartTableName).
		Where(sq.Eq{"id": partID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to generate delete part query: %w", err)
	}

	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to delete part: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return types.ErrPartNotFound
	}

	return nil
}
