package store

import (
	"strings"
	"testing"
	"time"

	"comproposito/pkg/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssignPartsQuery(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	query, args, err := assignPartsQuery("proj-1", "vol-1", []string{"part-a", "part-b"}, now).ToSql()
	require.NoError(t, err)

	assert.Equal(t,
		"UPDATE comproposito.project_parts SET assigned_contributor_id = $1, status = $2, updated_at = $3 "+
			"WHERE id IN ($4,$5) AND project_instance_id = $6",
		query)
	assert.Equal(t, []any{"vol-1", types.PartStatusAssigned, now, "part-a", "part-b", "proj-1"}, args)
}

func TestSetPartStatusQuery(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	t.Run("clears the assignment", func(t *testing.T) {
		fields := partStatusFields(types.PartStatusUnassigned, true, now)
		query, args, err := updatePartQuery("part-a", fields).ToSql()
		require.NoError(t, err)

		assert.True(t, strings.HasPrefix(query,
			"UPDATE comproposito.project_parts SET assigned_contributor_id = $1, status = $2, updated_at = $3 WHERE id = $4 RETURNING "),
			query)
		assert.Equal(t, []any{nil, types.PartStatusUnassigned, now, "part-a"}, args)
	})

	t.Run("keeps the assignment", func(t *testing.T) {
		fields := partStatusFields(types.PartStatusPrinting, false, now)
		query, args, err := updatePartQuery("part-a", fields).ToSql()
		require.NoError(t, err)

		assert.True(t, strings.HasPrefix(query,
			"UPDATE comproposito.project_parts SET status = $1, updated_at = $2 WHERE id = $3 RETURNING "),
			query)
		assert.Equal(t, []any{types.PartStatusPrinting, now, "part-a"}, args)
	})
}

func TestDeleteProjectQueries(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		build func() (string, []any, error)
		query string
		args  []any
	}{
		{
			name:  "locks the project row",
			build: lockProjectQuery("proj-1").ToSql,
			query: "SELECT request_id FROM comproposito.project_instances WHERE id = $1 FOR UPDATE",
			args:  []any{"proj-1"},
		},
		{
			name:  "removes the parts first",
			build: deleteProjectPartsQuery("proj-1").ToSql,
			query: "DELETE FROM comproposito.project_parts WHERE project_instance_id = $1",
			args:  []any{"proj-1"},
		},
		{
			name:  "removes the project",
			build: deleteProjectQuery("proj-1").ToSql,
			query: "DELETE FROM comproposito.project_instances WHERE id = $1",
			args:  []any{"proj-1"},
		},
		{
			name:  "releases the request",
			build: releaseRequestQuery("req-1", now).ToSql,
			query: "UPDATE comproposito.requests SET status = $1, updated_at = $2 WHERE id = $3",
			args:  []any{types.RequestStatusPending, now, "req-1"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			query, args, err := tt.build()
			require.NoError(t, err)
			assert.Equal(t, tt.query, query)
			assert.Equal(t, tt.args, args)
		})
	}
}
