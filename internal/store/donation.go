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

const donationTableName = schemaName + ".donations"

var donationColumns = utils.StructTagValues(types.Donation{})

type DonationRepository struct {
	pool *pgxpool.Pool
}

func NewDonationRepository(pool *pgxpool.Pool) *DonationRepository {
	return &DonationRepository{pool: pool}
}

func (r *DonationRepository) Donations(ctx context.Context) ([]*types.Donation, error) {
	return r.donationsWhere(ctx, nil, 0)
}

// PublicDonations returns the most recent donations whose donors opted in to
// being shown.
func (r *DonationRepository) PublicDonations(ctx context.Context, limit uint64) ([]*types.Donation, error) {
	return r.donationsWhere(ctx, sq.Eq{"public_name": true}, limit)
}

func (r *DonationRepository) donationsWhere(ctx context.Context, pred sq.Sqlizer, limit uint64) ([]*types.Donation, error) {
	builder := psql().
		Select(donationColumns...).
		From(donationTableName).
		OrderBy("created_at DESC")
	if pred != nil {
		builder = builder.Where(pred)
	}
	if limit > 0 {
		builder = builder.Limit(limit)
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate donations query: %w", err)
	}

	var donations = make([]*types.Donation, 0)
	err = pgxscan.Select(ctx, r.pool, &donations, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch donations: %w", err)
	}

	return donations, nil
}

func (r *DonationRepository) CreateDonation(ctx context.Context, donation *types.Donation) error {
	donation.ID = utils.NanoID()
	donation.CreatedAt = time.Now()

	query, args, err := psql().
		Insert(donationTableName).
		SetMap(utils.StructToMap(donation)).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to generate insert donation query: %w", err)
	}

	_, err = r.pool.Exec(ctx, query, args...)
	return utils.ErrorWrapOrNil(err, "failed to create donation")
}

// TotalCents sums every recorded donation.
func (r *DonationRepository) TotalCents(ctx context.Context) (int64, error) {
	query, args, err := psql().
		Select("COALESCE(SUM(amount_cents), 0)").
		From(donationTableName).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to generate donation total query: %w", err)
	}

	var total int64
	if err := r.pool.QueryRow(ctx, query, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to fetch donation total: %w", err)
	}

	return total, nil
}
