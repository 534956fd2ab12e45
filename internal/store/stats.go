package store

import (
	"context"
	"fmt"

	"comproposito/pkg/types"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5/pgxpool"
)

type StatsRepository struct {
	pool *pgxpool.Pool
}

func NewStatsRepository(pool *pgxpool.Pool) *StatsRepository {
	return &StatsRepository{pool: pool}
}

// DashboardStats aggregates the public counters shown on the landing page.
func (r *StatsRepository) DashboardStats(ctx context.Context) (*types.DashboardStats, error) {
	query, args, err := psql().
		Select(
			fmt.Sprintf("(SELECT COUNT(*) FROM %s) AS total_requests", requestTableName),
			fmt.Sprintf("(SELECT COUNT(*) FROM %s WHERE status = 'completed') AS wheelchairs_completed", projectTableName),
			fmt.Sprintf("(SELECT COUNT(*) FROM %s WHERE status IN ('assigned', 'printing')) AS parts_in_progress", projectPartTableName),
			fmt.Sprintf("(SELECT COUNT(*) FROM %s) AS total_parts", projectPartTableName),
			fmt.Sprintf("(SELECT COUNT(*) FROM %s WHERE status IN ('printed', 'shipped', 'complete')) AS parts_completed", projectPartTableName),
			fmt.Sprintf("(SELECT COUNT(*) FROM %s) AS total_contributors", contributorTableName),
		).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate stats query: %w", err)
	}

	var stats types.DashboardStats
	err = pgxscan.Get(ctx, r.pool, &stats, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch stats: %w", err)
	}

	regions, err := r.RegionStats(ctx)
	if err != nil {
		return nil, err
	}
	stats.Regions = regions

	return &stats, nil
}

// RegionStats counts volunteers and requests per region.
func (r *StatsRepository) RegionStats(ctx context.Context) ([]*types.RegionStat, error) {
	query := fmt.Sprintf(`
		SELECT region,
		       SUM(contributors)::int AS contributors,
		       SUM(requests)::int AS requests
		FROM (
			SELECT region, 1 AS contributors, 0 AS requests FROM %s WHERE region IS NOT NULL
			UNION ALL
			SELECT region, 0, 1 FROM %s WHERE region IS NOT NULL
		) AS t
		GROUP BY region
		ORDER BY region`, contributorTableName, requestTableName)

	var regions = make([]*types.RegionStat, 0)
	err := pgxscan.Select(ctx, r.pool, &regions, query)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch region stats: %w", err)
	}

	return regions, nil
}
