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
	initiativeTableName     = schemaName + ".initiatives"
	initiativePartTableName = schemaName + ".initiative_parts"
)

var (
	initiativeColumns     = utils.StructTagValues(types.Initiative{})
	initiativePartColumns = utils.StructTagValues(types.InitiativePart{})
)

type InitiativeRepository struct {
	pool *pgxpool.Pool
}

func NewInitiativeRepository(pool *pgxpool.Pool) *InitiativeRepository {
	return &InitiativeRepository{pool: pool}
}

func (r *InitiativeRepository) Initiatives(ctx context.Context, activeOnly bool) ([]*types.Initiative, error) {
	builder := psql().
		Select(initiativeColumns...).
		From(initiativeTableName).
		OrderBy("name ASC")
	if activeOnly {
		builder = builder.Where(sq.Eq{"is_active": true})
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate initiatives query: %w", err)
	}

	var initiatives = make([]*types.Initiative, 0)
	err = pgxscan.Select(ctx, r.pool, &initiatives, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch initiatives: %w", err)
	}

	return initiatives, nil
}

func (r *InitiativeRepository) Initiative(ctx context.Context, initiativeID string) (*types.Initiative, error) {
	query, args, err := psql().
		Select(initiativeColumns...).
		From(initiativeTableName).
		Where(sq.Eq{"id": initiativeID}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate initiative query: %w", err)
	}

	var initiative types.Initiative
	err = pgxscan.Get(ctx, r.pool, &initiative, query, args...)
	if err != nil {
		if pgxscan.NotFound(err) {
			return nil, types.ErrInitiativeNotFound
		}
		return nil, fmt.Errorf("failed to fetch initiative: %w", err)
	}

	return &initiative, nil
}

func (r *InitiativeRepository) CreateInitiative(ctx context.Context, initiative *types.Initiative) error {
	now := time.Now()
	initiative.ID = utils.NanoID()
	initiative.CreatedAt = now
	initiative.UpdatedAt = now

	query, args, err := psql().
		Insert(initiativeTableName).
		SetMap(utils.StructToMap(initiative)).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to generate insert initiative query: %w", err)
	}

	_, err = r.pool.Exec(ctx, query, args...)
	return utils.ErrorWrapOrNil(err, "failed to create initiative")
}

func (r *InitiativeRepository) UpdateInitiative(ctx context.Context, initiativeID string, input *types.NewInitiative) error {
	fields := map[string]any{
		"name":        input.Name,
		"description": input.Description,
		"updated_at":  time.Now(),
	}
	if input.IsActive != nil {
		fields["is_active"] = *input.IsActive
	}

	query, args, err := psql().
		Update(initiativeTableName).
		SetMap(fields).
		Where(sq.Eq{"id": initiativeID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to generate update initiative query for initiative %s: %w", initiativeID, err)
	}

	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update initiative: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return types.ErrInitiativeNotFound
	}

	return nil
}

// UpsertInitiative is used by the seed command to keep fixed-id initiatives in sync.
func (r *InitiativeRepository) UpsertInitiative(ctx context.Context, initiative *types.Initiative) error {
	now := time.Now()
	initiative.CreatedAt = now
	initiative.UpdatedAt = now

	fields := utils.StructToMap(initiative)
	query, args, err := psql().
		Insert(initiativeTableName).
		SetMap(fields).
		Suffix("ON CONFLICT (id) DO UPDATE SET " + excludedSetClause(fields)).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to generate upsert initiative query: %w", err)
	}

	_, err = r.pool.Exec(ctx, query, args...)
	return utils.ErrorWrapOrNil(err, "failed to upsert initiative")
}

// DeleteInitiative removes the initiative and, through the foreign key, its parts.
func (r *InitiativeRepository) DeleteInitiative(ctx context.Context, initiativeID string) error {
	query, args, err := psql().
		Delete(initiativeTableName).
		Where(sq.Eq{"id": initiativeID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to generate delete initiative query for initiative %s: %w", initiativeID, err)
	}

	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to delete initiative: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return types.ErrInitiativeNotFound
	}

	return nil
}

// InitiativeParts returns the template parts in display order.
func (r *InitiativeRepository) InitiativeParts(ctx context.Context, initiativeID string) ([]*types.InitiativePart, error) {
	query, args, err := psql().
		Select(initiativePartColumns...).
		From(initiativePartTableName).
		Where(sq.Eq{"initiative_id": initiativeID}).
		OrderBy("sort_order ASC", "created_at ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate initiative parts query: %w", err)
	}

	var parts = make([]*types.InitiativePart, 0)
	err = pgxscan.Select(ctx, r.pool, &parts, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch initiative parts: %w", err)
	}

	return parts, nil
}

func (r *InitiativeRepository) InitiativePart(ctx context.Context, partID string) (*types.InitiativePart, error) {
	query, args, err := psql().
		Select(initiativePartColumns...).
		From(initiativePartTableName).
		Where(sq.Eq{"id": partID}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate initiative part query: %w", err)
	}

	var part types.InitiativePart
	err = pgxscan.Get(ctx, r.pool, &part, query, args...)
	if err != nil {
		if pgxscan.NotFound(err) {
			return nil, types.ErrPartNotFound
		}
		return nil, fmt.Errorf("failed to fetch initiative part: %w", err)
	}

	return &part, nil
}

// NextSortOrder returns one past the highest sort order in the initiative.
func (r *InitiativeRepository) NextSortOrder(ctx context.Context, initiativeID string) (int, error) {
	query, args, err := psql().
		Select("COALESCE(MAX(sort_order), 0) + 1").
		From(initiativePartTableName).
		Where(sq.Eq{"initiative_id": initiativeID}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to generate sort order query: %w", err)
	}

	var next int
	if err := r.pool.QueryRow(ctx, query, args...).Scan(&next); err != nil {
		return 0, fmt.Errorf("failed to fetch next sort order: %w", err)
	}

	return next, nil
}

func (r *InitiativeRepository) CreateInitiativePart(ctx context.Context, part *types.InitiativePart) error {
	if part.ID == "" {
		part.ID = utils.NanoID()
	}
	part.CreatedAt = time.Now()

	query, args, err := psql().
		Insert(initiativePartTableName).
		SetMap(utils.StructToMap(part)).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to generate insert initiative part query: %w", err)
	}

	_, err = r.pool.Exec(ctx, query, args...)
	return utils.ErrorWrapOrNil(err, "failed to create initiative part")
}

func (r *InitiativeRepository) UpsertInitiativePart(ctx context.Context, part *types.InitiativePart) error {
	part.CreatedAt = time.Now()

	fields := utils.StructToMap(part)
	query, args, err := psql().
		Insert(initiativePartTableName).
		SetMap(fields).
		Suffix("ON CONFLICT (id) DO UPDATE SET " + excludedSetClause(fields)).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to generate upsert initiative part query: %w", err)
	}

	_, err = r.pool.Exec(ctx, query, args...)
	return utils.ErrorWrapOrNil(err, "failed to upsert initiative part")
}

func (r *InitiativeRepository) UpdateInitiativePart(ctx context.Context, part *types.InitiativePart) error {
	query, args, err := psql().
		Update(initiativePartTableName).
		SetMap(map[string]any{
			"part_name":        part.PartName,
			"category":         part.Category,
			"material":         part.Material,
			"file_url":         part.FileURL,
			"sort_order":       part.SortOrder,
			"print_time_hours": part.PrintTimeHours,
		}).
		Where(sq.Eq{"id": part.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to generate update initiative part query for part %s: %w", part.ID, err)
	}

	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update initiative part: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return types.ErrPartNotFound
	}

	return nil
}

func (r *InitiativeRepository) SetInitiativePartFile(ctx context.Context, partID, fileURL string) error {
	query, args, err := psql().
		Update(initiativePartTableName).
		Set("file_url", fileURL).
		Where(sq.Eq{"id": partID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to generate part file query: %w", err)
	}

	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update part file: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return types.ErrPartNotFound
	}

	return nil
}

func (r *InitiativeRepository) DeleteInitiativePart(ctx context.Context, partID string) error {
	query, args, err := psql().
		Delete(initiativePartTableName).
		Where(sq.Eq{"id": partID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to generate delete initiative part query: %w", err)
	}

	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to delete initiative part: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return types.ErrPartNotFound
	}

	return nil
}
