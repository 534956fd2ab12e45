package seed

import (
	"bytes"
	"context"
	"testing"

	"comproposito/internal/store/memstore"
	"comproposito/internal/utils"
	"comproposito/pkg/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTMTInitiativeIsWellFormed(t *testing.T) {
	initiative, parts := TMTInitiative()

	seen := map[string]bool{initiative.ID: true}
	for i, p := range parts {
		assert.False(t, seen[p.ID], "duplicate id %s", p.ID)
		seen[p.ID] = true
		assert.Len(t, p.ID, utils.NanoidSize)
		assert.Equal(t, initiative.ID, p.InitiativeID)
		assert.Equal(t, i+1, p.SortOrder)
		assert.Contains(t, types.Materials, *p.Material)
	}
}

func TestSeedInitiativesIsIdempotent(t *testing.T) {
	st := memstore.New()
	ctx := context.Background()

	stale := &types.InitiativePart{ID: "stale", InitiativeID: tmtInitiativeID, PartName: "Peça antiga"}
	require.NoError(t, st.UpsertInitiativePart(ctx, stale))

	var out bytes.Buffer
	require.NoError(t, SeedInitiatives(ctx, st, &out))
	assert.Contains(t, out.String(), "1 deleted")

	_, want := TMTInitiative()
	parts, err := st.InitiativeParts(ctx, tmtInitiativeID)
	require.NoError(t, err)
	require.Len(t, parts, len(want))
	assert.Equal(t, want[0].PartName, parts[0].PartName)

	out.Reset()
	require.NoError(t, SeedInitiatives(ctx, st, &out))
	assert.Contains(t, out.String(), "0 deleted")
	assert.Len(t, st.InitiativePartRows, len(want))
	assert.Len(t, st.InitiativeRows, 1)
}
