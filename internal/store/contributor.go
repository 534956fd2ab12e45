package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"comproposito/internal/utils"
	"comproposito/pkg/types"

	sq "github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const contributorTableName = schemaName + ".contributors"

var contributorColumns = utils.StructTagValues(types.Contributor{})

type ContributorRepository struct {
	pool *pgxpool.Pool
}

func NewContributorRepository(pool *pgxpool.Pool) *ContributorRepository {
	return &ContributorRepository{pool: pool}
}

func (r *ContributorRepository) Contributor(ctx context.Context, contributorID string) (*types.Contributor, error) {
	return r.contributorWhere(ctx, sq.Eq{"id": contributorID})
}

func (r *ContributorRepository) ContributorByEmail(ctx context.Context, email string) (*types.Contributor, error) {
	return r.contributorWhere(ctx, sq.Eq{"email": utils.NormalizeEmail(email)})
}

func (r *ContributorRepository) ContributorByToken(ctx context.Context, token string) (*types.Contributor, error) {
	if token == "" {
		return nil, types.ErrContributorNotFound
	}
	return r.contributorWhere(ctx, sq.Eq{"token": token})
}

func (r *ContributorRepository) contributorWhere(ctx context.Context, pred sq.Eq) (*types.Contributor, error) {
	query, args, err := psql().
		Select(contributorColumns...).
		From(contributorTableName).
		Where(pred).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate contributor query: %w", err)
	}

	var contributor types.Contributor
	err = pgxscan.Get(ctx, r.pool, &contributor, query, args...)
	if err != nil {
		if pgxscan.NotFound(err) {
			return nil, types.ErrContributorNotFound
		}
		return nil, fmt.Errorf("failed to fetch contributor: %w", err)
	}

	return &contributor, nil
}

func (r *ContributorRepository) ContributorsByIDs(ctx context.Context, contributorIDs []string) ([]*types.Contributor, error) {
	if len(contributorIDs) == 0 {
		return []*types.Contributor{}, nil
	}

	query, args, err := psql().
		Select(contributorColumns...).
		From(contributorTableName).
		Where(sq.Eq{"id": contributorIDs}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate contributors-by-ids query: %w", err)
	}

	var contributors []*types.Contributor
	err = pgxscan.Select(ctx, r.pool, &contributors, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch contributors by ids: %w", err)
	}

	return contributors, nil
}

// Contributors lists volunteers matching every non-empty filter field.
func (r *ContributorRepository) Contributors(ctx context.Context, filter types.ContributorFilter) ([]*types.Contributor, error) {
	builder := psql().
		Select(contributorColumns...).
		From(contributorTableName).
		OrderBy("created_at DESC")

	if search := strings.TrimSpace(filter.Search); search != "" {
		like := "%" + search + "%"
		builder = builder.Where(sq.Or{
			sq.ILike{"name": like},
			sq.ILike{"email": like},
			sq.ILike{"location": like},
		})
	}
	if filter.Region != "" {
		builder = builder.Where(sq.Eq{"region": filter.Region})
	}
	if filter.Printer != "" {
		builder = builder.Where(sq.Expr("EXISTS (SELECT 1 FROM unnest(printer_models) AS pm WHERE pm ILIKE ?)", "%"+filter.Printer+"%"))
	}
	if filter.Material != "" {
		builder = builder.Where(sq.Expr("? = ANY(materials)", filter.Material))
	}
	if filter.Experience != "" {
		builder = builder.Where(sq.Eq{"experience_level": filter.Experience})
	}
	if filter.BuildVolumeOK != nil {
		builder = builder.Where(sq.Eq{"build_volume_ok": *filter.BuildVolumeOK})
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate contributors query: %w", err)
	}

	var contributors = make([]*types.Contributor, 0)
	err = pgxscan.Select(ctx, r.pool, &contributors, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch contributors: %w", err)
	}

	return contributors, nil
}

// CreateContributor assigns the id and portal token before inserting.
func (r *ContributorRepository) CreateContributor(ctx context.Context, contributor *types.Contributor) error {
	now := time.Now()
	contributor.ID = utils.NanoID()
	contributor.Token = utils.NanoID()
	contributor.Email = utils.NormalizeEmail(contributor.Email)
	contributor.CreatedAt = now
	contributor.UpdatedAt = now
	if contributor.PrinterModels == nil {
		contributor.PrinterModels = []string{}
	}
	if contributor.Materials == nil {
		contributor.Materials = []string{}
	}

	query, args, err := psql().
		Insert(contributorTableName).
		SetMap(utils.StructToMap(contributor)).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to generate insert contributor query: %w", err)
	}

	_, err = r.pool.Exec(ctx, query, args...)
	if err != nil {
		if isUniqueViolation(err) {
			return types.ErrContributorExists
		}
		return fmt.Errorf("failed to create contributor: %w", err)
	}

	return nil
}

func (r *ContributorRepository) UpdateProfile(ctx context.Context, contributorID string, profile *types.ContributorProfile) error {
	materials := profile.Materials
	if materials == nil {
		materials = []string{}
	}
	printers := profile.PrinterModels
	if printers == nil {
		printers = []string{}
	}

	query, args, err := psql().
		Update(contributorTableName).
		SetMap(map[string]any{
			"phone":            profile.Phone,
			"location":         profile.Location,
			"region":           profile.Region,
			"printer_models":   printers,
			"materials":        materials,
			"build_plate_size": profile.BuildPlateSize,
			"build_volume_ok":  profile.BuildVolumeOK,
			"availability":     profile.Availability,
			"can_ship":         profile.CanShip,
			"shipping_carrier": profile.ShippingCarrier,
			"updated_at":       time.Now(),
		}).
		Where(sq.Eq{"id": contributorID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to generate update profile query for contributor %s: %w", contributorID, err)
	}

	return r.execOne(ctx, query, args, "failed to update contributor profile")
}

// SetPassword stores a new hash and clears any pending reset code.
func (r *ContributorRepository) SetPassword(ctx context.Context, contributorID, passwordHash string) error {
	query, args, err := psql().
		Update(contributorTableName).
		SetMap(map[string]any{
			"password_hash":         passwordHash,
			"reset_code":            nil,
			"reset_code_expires_at": nil,
			"reset_code_attempts":   0,
			"updated_at":            time.Now(),
		}).
		Where(sq.Eq{"id": contributorID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to generate set password query: %w", err)
	}

	return r.execOne(ctx, query, args, "failed to set password")
}

// SetResetCode stores a fresh code and resets the attempt counter.
func (r *ContributorRepository) SetResetCode(ctx context.Context, contributorID, code string, expiresAt time.Time) error {
	query, args, err := psql().
		Update(contributorTableName).
		SetMap(map[string]any{
			"reset_code":            code,
			"reset_code_expires_at": expiresAt,
			"reset_code_attempts":   0,
			"updated_at":            time.Now(),
		}).
		Where(sq.Eq{"id": contributorID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to generate set reset code query: %w", err)
	}

	return r.execOne(ctx, query, args, "failed to store reset code")
}

func (r *ContributorRepository) IncrementResetAttempts(ctx context.Context, contributorID string) (int, error) {
	query, args, err := psql().
		Update(contributorTableName).
		Set("reset_code_attempts", sq.Expr("reset_code_attempts + 1")).
		Where(sq.Eq{"id": contributorID}).
		Suffix("RETURNING reset_code_attempts").
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to generate increment attempts query: %w", err)
	}

	var attempts int
	err = r.pool.QueryRow(ctx, query, args...).Scan(&attempts)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, types.ErrContributorNotFound
		}
		return 0, fmt.Errorf("failed to increment reset attempts: %w", err)
	}

	return attempts, nil
}

func (r *ContributorRepository) execOne(ctx context.Context, query string, args []any, msg string) error {
	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", msg, err)
	}
	if tag.RowsAffected() == 0 {
		return types.ErrContributorNotFound
	}
	return nil
}
