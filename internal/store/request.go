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

const requestTableName = schemaName + ".requests"

var requestColumns = utils.StructTagValues(types.BeneficiaryRequest{})

type RequestRepository struct {
	pool *pgxpool.Pool
}

func NewRequestRepository(pool *pgxpool.Pool) *RequestRepository {
	return &RequestRepository{pool: pool}
}

func (r *RequestRepository) Requests(ctx context.Context, filter types.RequestFilter) ([]*types.BeneficiaryRequest, error) {
	builder := psql().
		Select(requestColumns...).
		From(requestTableName).
		OrderBy("created_at DESC")

	if len(filter.Status) > 0 {
		builder = builder.Where(sq.Eq{"status": filter.Status})
	}
	if filter.Region != "" {
		builder = builder.Where(sq.Eq{"region": filter.Region})
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate requests query: %w", err)
	}

	var requests = make([]*types.BeneficiaryRequest, 0)
	err = pgxscan.Select(ctx, r.pool, &requests, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch requests: %w", err)
	}

	return requests, nil
}

func (r *RequestRepository) Request(ctx context.Context, requestID string) (*types.BeneficiaryRequest, error) {
	query, args, err := psql().
		Select(requestColumns...).
		From(requestTableName).
		Where(sq.Eq{"id": requestID}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate request query: %w", err)
	}

	var request types.BeneficiaryRequest
	err = pgxscan.Get(ctx, r.pool, &request, query, args...)
	if err != nil {
		if pgxscan.NotFound(err) {
			return nil, types.ErrRequestNotFound
		}
		return nil, fmt.Errorf("failed to fetch request: %w", err)
	}

	return &request, nil
}

func (r *RequestRepository) CreateRequest(ctx context.Context, request *types.BeneficiaryRequest) error {
	now := time.Now()
	request.ID = utils.NanoID()
	request.ContactEmail = utils.NormalizeEmail(request.ContactEmail)
	request.Status = types.RequestStatusPending
	request.CreatedAt = now
	request.UpdatedAt = now

	query, args, err := psql().
		Insert(requestTableName).
		SetMap(utils.StructToMap(request)).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to generate insert request query: %w", err)
	}

	_, err = r.pool.Exec(ctx, query, args...)
	return utils.ErrorWrapOrNil(err, "failed to create request")
}

func (r *RequestRepository) SetRequestStatus(ctx context.Context, requestID string, status types.RequestStatus) error {
	return r.update(ctx, requestID, map[string]any{"status": status})
}

func (r *RequestRepository) SetRequestNotes(ctx context.Context, requestID string, notes *string) error {
	return r.update(ctx, requestID, map[string]any{"notes": notes})
}

func (r *RequestRepository) update(ctx context.Context, requestID string, fields map[string]any) error {
	fields["updated_at"] = time.Now()

	query, args, err := psql().
		Update(requestTableName).
		SetMap(fields).
		Where(sq.Eq{"id": requestID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to generate update request query for request %s: %w", requestID, err)
	}

	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update request: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return types.ErrRequestNotFound
	}

	return nil
}
