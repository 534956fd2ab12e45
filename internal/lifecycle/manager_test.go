package lifecycle

import (
	"context"
	"errors"
	"math/rand"
	"testing"

	"comproposito/internal/store/memstore"
	"comproposito/internal/utils"
	"comproposito/pkg/types"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	store   *memstore.Store
	manager *Manager
	project *types.ProjectInstance
	request *types.BeneficiaryRequest
	parts   []string
}

func newFixture(t *testing.T, withRequest bool, partNames ...string) *fixture {
	t.Helper()

	logger, _ := test.NewNullLogger()
	st := memstore.New()
	f := &fixture{store: st, manager: NewManager(logger, st, st, st, st)}

	f.project = &types.ProjectInstance{Name: "Cadeira", Status: types.ProjectStatusPlanning}
	if withRequest {
		f.request = st.AddRequest(types.RequestStatusInProgress)
		f.project.RequestID = &f.request.ID
	}
	require.NoError(t, st.CreateProject(context.Background(), f.project))

	parts := make([]*types.ProjectPart, 0, len(partNames))
	for _, name := range partNames {
		parts = append(parts, &types.ProjectPart{ProjectInstanceID: f.project.ID, PartName: name, Status: types.PartStatusUnassigned})
	}
	require.NoError(t, st.CreateProjectParts(context.Background(), parts))
	for _, p := range parts {
		f.parts = append(f.parts, p.ID)
	}

	return f
}

func assertInvariant(t *testing.T, p *types.ProjectPart) {
	t.Helper()
	if p.AssignedContributorID != nil {
		assert.NotEqual(t, types.PartStatusUnassigned, p.Status, "assigned part %s must not be unassigned", p.ID)
	}
}

func TestAssignmentInvariantUnderRandomTransitions(t *testing.T) {
	f := newFixture(t, false, "A", "B", "C")
	ctx := context.Background()

	volunteers := []string{
		f.store.AddContributor(&types.Contributor{Name: "V1", Email: "v1@example.pt"}).ID,
		f.store.AddContributor(&types.Contributor{Name: "V2", Email: "v2@example.pt"}).ID,
	}

	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 500; i++ {
		partID := f.parts[rng.Intn(len(f.parts))]

		var (
			part *types.ProjectPart
			err  error
		)
		switch rng.Intn(3) {
		case 0:
			status := types.PartStatuses[rng.Intn(len(types.PartStatuses))]
			part, err = f.manager.SetPartStatus(ctx, partID, string(status))
			require.NoError(t, err)
			if status == types.PartStatusUnassigned {
				assert.Nil(t, part.AssignedContributorID)
			}
		case 1:
			v := volunteers[rng.Intn(len(volunteers))]
			part, err = f.manager.AssignPart(ctx, partID, &v)
			require.NoError(t, err)
			assert.Equal(t, types.PartStatusAssigned, part.Status)
		default:
			part, err = f.manager.AssignPart(ctx, partID, nil)
			require.NoError(t, err)
			assert.Equal(t, types.PartStatusUnassigned, part.Status)
		}
		assertInvariant(t, part)

		for _, id := range f.parts {
			stored, err := f.store.Part(ctx, id)
			require.NoError(t, err)
			assertInvariant(t, stored)
		}
	}
}

func TestSetPartStatusRejectsUnknown(t *testing.T) {
	f := newFixture(t, false, "A")

	_, err := f.manager.SetPartStatus(context.Background(), f.parts[0], "lost")
	var verr *types.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "status")
}

func TestAssignPartUnknownVolunteer(t *testing.T) {
	f := newFixture(t, false, "A")

	_, err := f.manager.AssignPart(context.Background(), f.parts[0], utils.StringPtr("ghost"))
	assert.ErrorIs(t, err, types.ErrContributorNotFound)
}

func TestSetProjectStatusCascade(t *testing.T) {
	tests := []struct {
		status  types.ProjectStatus
		request types.RequestStatus
	}{
		{types.ProjectStatusPlanning, types.RequestStatusApproved},
		{types.ProjectStatusInProgress, types.RequestStatusInProgress},
		{types.ProjectStatusCompleted, types.RequestStatusCompleted},
		{types.ProjectStatusCancelled, types.RequestStatusCancelled},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			f := newFixture(t, true)

			result, err := f.manager.SetProjectStatus(context.Background(), f.project.ID, string(tt.status))
			require.NoError(t, err)
			assert.NoError(t, result.RequestErr)
			assert.Equal(t, tt.request, result.RequestStatus)

			project, err := f.store.Project(context.Background(), f.project.ID)
			require.NoError(t, err)
			assert.Equal(t, tt.status, project.Status)

			request, err := f.store.Request(context.Background(), f.request.ID)
			require.NoError(t, err)
			assert.Equal(t, tt.request, request.Status)
		})
	}
}

func TestSetProjectStatusWithoutRequest(t *testing.T) {
	f := newFixture(t, false)
	other := f.store.AddRequest(types.RequestStatusPending)

	result, err := f.manager.SetProjectStatus(context.Background(), f.project.ID, "completed")
	require.NoError(t, err)
	assert.Nil(t, result.RequestID)
	assert.Empty(t, result.RequestStatus)

	request, err := f.store.Request(context.Background(), other.ID)
	require.NoError(t, err)
	assert.Equal(t, types.RequestStatusPending, request.Status)
}

func TestSetProjectStatusRequestFailureIsWarning(t *testing.T) {
	f := newFixture(t, true)
	f.store.Fail("SetRequestStatus", errors.New("timeout"))

	result, err := f.manager.SetProjectStatus(context.Background(), f.project.ID, "completed")
	require.NoError(t, err)
	assert.Error(t, result.RequestErr)
	assert.Len(t, result.Warnings(), 1)

	project, err := f.store.Project(context.Background(), f.project.ID)
	require.NoError(t, err)
	assert.Equal(t, types.ProjectStatusCompleted, project.Status)
}

func TestSetProjectStatusInvalid(t *testing.T) {
	f := newFixture(t, true)

	_, err := f.manager.SetProjectStatus(context.Background(), f.project.ID, "paused")
	var verr *types.ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestVolunteerShipsOnePart(t *testing.T) {
	f := newFixture(t, false, "Handle", "Wheel")
	ctx := context.Background()
	v := f.store.AddContributor(&types.Contributor{Name: "V", Email: "v@example.pt"})
	_, err := f.store.AssignParts(ctx, f.project.ID, v.ID, f.parts)
	require.NoError(t, err)

	part, err := f.manager.UpdateOwnPartStatus(ctx, v.Token, f.parts[0], "shipped")
	require.NoError(t, err)
	assert.Equal(t, types.PartStatusShipped, part.Status)

	other, err := f.store.Part(ctx, f.parts[1])
	require.NoError(t, err)
	assert.Equal(t, types.PartStatusAssigned, other.Status)

	project, err := f.manager.ProjectWithProgress(ctx, f.project.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, project.Progress.Total)
	assert.Equal(t, 1, project.Progress.Done)
	assert.Equal(t, 50, project.Progress.Percent)
}

func TestUpdateOwnPartStatusOwnership(t *testing.T) {
	f := newFixture(t, false, "Handle")
	ctx := context.Background()
	owner := f.store.AddContributor(&types.Contributor{Name: "O", Email: "o@example.pt"})
	intruder := f.store.AddContributor(&types.Contributor{Name: "I", Email: "i@example.pt"})
	_, err := f.store.AssignParts(ctx, f.project.ID, owner.ID, f.parts)
	require.NoError(t, err)

	_, err = f.manager.UpdateOwnPartStatus(ctx, intruder.Token, f.parts[0], "printing")
	assert.ErrorIs(t, err, types.ErrPartNotOwned)

	_, err = f.manager.UpdateOwnPartStatus(ctx, "bogus", f.parts[0], "printing")
	assert.ErrorIs(t, err, types.ErrInvalidToken)

	_, err = f.manager.UpdateOwnPartStatus(ctx, owner.Token, f.parts[0], "unassigned")
	var verr *types.ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestProgress(t *testing.T) {
	parts := func(statuses ...types.PartStatus) []*types.ProjectPart {
		out := make([]*types.ProjectPart, len(statuses))
		for i, s := range statuses {
			out[i] = &types.ProjectPart{Status: s}
		}
		return out
	}

	tests := []struct {
		name  string
		parts []*types.ProjectPart
		want  types.Progress
	}{
		{name: "empty", want: types.Progress{}},
		{
			name:  "all done statuses count",
			parts: parts(types.PartStatusPrinted, types.PartStatusShipped, types.PartStatusComplete),
			want:  types.Progress{Total: 3, Done: 3, Percent: 100},
		},
		{
			name:  "mixed",
			parts: parts(types.PartStatusUnassigned, types.PartStatusAssigned, types.PartStatusPrinting),
			want:  types.Progress{Total: 3, Unassigned: 1, InProgress: 2},
		},
		{
			name:  "rounding",
			parts: parts(types.PartStatusShipped, types.PartStatusAssigned, types.PartStatusAssigned),
			want:  types.Progress{Total: 3, Done: 1, InProgress: 2, Percent: 33},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, *Progress(tt.parts))
		})
	}
}

func TestInitiativeProgress(t *testing.T) {
	f := newFixture(t, false, "A", "B")
	ctx := context.Background()
	f.project.InitiativeID = "tmt"
	_, err := f.manager.SetPartStatus(ctx, f.parts[0], "complete")
	require.NoError(t, err)

	progress, err := f.manager.InitiativeProgress(ctx, []*types.ProjectInstance{f.project})
	require.NoError(t, err)
	require.Contains(t, progress, "tmt")
	assert.Equal(t, 50, progress["tmt"].Percent)
}

func TestSetRequestStatus(t *testing.T) {
	f := newFixture(t, true)

	require.NoError(t, f.manager.SetRequestStatus(context.Background(), f.request.ID, "em_avaliacao"))
	request, err := f.store.Request(context.Background(), f.request.ID)
	require.NoError(t, err)
	assert.Equal(t, types.RequestStatusReviewing, request.Status)

	var verr *types.ValidationError
	assert.ErrorAs(t, f.manager.SetRequestStatus(context.Background(), f.request.ID, "lost"), &verr)
}
