package instantiate

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"comproposito/internal/store/memstore"
	"comproposito/pkg/types"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newService(t *testing.T) (*Service, *memstore.Store) {
	t.Helper()
	logger, _ := test.NewNullLogger()
	st := memstore.New()
	return NewService(logger, st, st, st), st
}

func projectParts(t *testing.T, st *memstore.Store, projectID string) []*types.ProjectPart {
	t.Helper()
	parts, err := st.PartsByProject(context.Background(), projectID)
	require.NoError(t, err)
	return parts
}

func TestCreateProjectCopiesEveryTemplatePart(t *testing.T) {
	for _, n := range []int{0, 1, 7} {
		t.Run(fmt.Sprintf("%d parts", n), func(t *testing.T) {
			svc, st := newService(t)

			names := make([]string, 0, n)
			for i := 0; i < n; i++ {
				names = append(names, fmt.Sprintf("Peça %d", i+1))
			}
			initiative := st.AddInitiative("Cadeira", names...)
			request := st.AddRequest(types.RequestStatusApproved)

			result, err := svc.CreateProject(context.Background(), types.NewProject{
				InitiativeID: initiative.ID,
				RequestID:    request.ID,
			})
			require.NoError(t, err)
			assert.Empty(t, result.Warnings())
			assert.Equal(t, n, result.PartsCopied)

			parts := projectParts(t, st, result.Project.ID)
			require.Len(t, parts, n)
			for i, p := range parts {
				assert.Equal(t, names[i], p.PartName)
				assert.Equal(t, types.PartStatusUnassigned, p.Status)
				assert.Nil(t, p.AssignedContributorID)
				require.NotNil(t, p.InitiativePartID)
			}
		})
	}
}

func TestCreateProjectSnapshotsInSortOrder(t *testing.T) {
	svc, st := newService(t)

	initiative := st.AddInitiative("TMT", "Handle", "Wheel")
	request := st.AddRequest(types.RequestStatusApproved)

	result, err := svc.CreateProject(context.Background(), types.NewProject{
		InitiativeID: initiative.ID,
		RequestID:    request.ID,
		Name:         "TMT - Maria",
	})
	require.NoError(t, err)

	assert.Equal(t, "TMT - Maria", result.Project.Name)
	assert.Equal(t, types.ProjectStatusPlanning, result.Project.Status)
	require.NotNil(t, result.Project.RequestID)
	assert.Equal(t, request.ID, *result.Project.RequestID)

	parts := projectParts(t, st, result.Project.ID)
	require.Len(t, parts, 2)
	assert.Equal(t, "Handle", parts[0].PartName)
	assert.Equal(t, "Wheel", parts[1].PartName)
	assert.Equal(t, "PETG", *parts[0].Material)

	assert.Equal(t, types.RequestStatusInProgress, st.RequestRows[request.ID].Status)

	// template edits after creation do not reach the project
	for _, tp := range st.InitiativePartRows {
		tp.PartName = "Renamed"
	}
	parts = projectParts(t, st, result.Project.ID)
	assert.Equal(t, "Handle", parts[0].PartName)
}

func TestCreateProjectDefaultsNameToInitiative(t *testing.T) {
	svc, st := newService(t)

	initiative := st.AddInitiative("Andarilho", "Base")
	request := st.AddRequest(types.RequestStatusApproved)

	result, err := svc.CreateProject(context.Background(), types.NewProject{
		InitiativeID: initiative.ID,
		RequestID:    request.ID,
		Name:         "   ",
	})
	require.NoError(t, err)
	assert.Equal(t, "Andarilho", result.Project.Name)
}

func TestCreateProjectValidation(t *testing.T) {
	svc, st := newService(t)
	initiative := st.AddInitiative("TMT", "Handle")
	request := st.AddRequest(types.RequestStatusApproved)

	_, err := svc.CreateProject(context.Background(), types.NewProject{})
	var verr *types.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "initiative_id")
	assert.Contains(t, verr.Fields, "request_id")

	_, err = svc.CreateProject(context.Background(), types.NewProject{InitiativeID: "missing", RequestID: request.ID})
	assert.ErrorIs(t, err, types.ErrInitiativeNotFound)

	_, err = svc.CreateProject(context.Background(), types.NewProject{InitiativeID: initiative.ID, RequestID: "missing"})
	assert.ErrorIs(t, err, types.ErrRequestNotFound)

	assert.Empty(t, st.ProjectRows)
}

func TestCreateProjectFailureAborts(t *testing.T) {
	svc, st := newService(t)
	initiative := st.AddInitiative("TMT", "Handle")
	request := st.AddRequest(types.RequestStatusApproved)

	st.Fail("CreateProject", errors.New("connection reset"))

	result, err := svc.CreateProject(context.Background(), types.NewProject{InitiativeID: initiative.ID, RequestID: request.ID})
	require.Error(t, err)
	assert.Nil(t, result)
	assert.Empty(t, st.PartRows)
	assert.Equal(t, types.RequestStatusApproved, st.RequestRows[request.ID].Status)
}

func TestCreateProjectPartsFailureIsAWarning(t *testing.T) {
	svc, st := newService(t)
	initiative := st.AddInitiative("TMT", "Handle", "Wheel")
	request := st.AddRequest(types.RequestStatusApproved)

	st.Fail("CreateProjectParts", errors.New("deadlock detected"))

	result, err := svc.CreateProject(context.Background(), types.NewProject{InitiativeID: initiative.ID, RequestID: request.ID})
	require.NoError(t, err)
	require.Error(t, result.PartsErr)
	assert.Zero(t, result.PartsCopied)
	assert.Len(t, result.Warnings(), 1)

	assert.Contains(t, st.ProjectRows, result.Project.ID)
	assert.Empty(t, st.PartRows)
	assert.Equal(t, types.RequestStatusInProgress, st.RequestRows[request.ID].Status)
}

func TestCreateProjectRequestFailureIsAWarning(t *testing.T) {
	svc, st := newService(t)
	initiative := st.AddInitiative("TMT", "Handle")
	request := st.AddRequest(types.RequestStatusApproved)

	st.Fail("SetRequestStatus", errors.New("timeout"))

	result, err := svc.CreateProject(context.Background(), types.NewProject{InitiativeID: initiative.ID, RequestID: request.ID})
	require.NoError(t, err)
	assert.NoError(t, result.PartsErr)
	assert.Error(t, result.RequestErr)
	assert.Equal(t, 1, result.PartsCopied)
	assert.Len(t, result.Warnings(), 1)
	assert.Equal(t, types.RequestStatusApproved, st.RequestRows[request.ID].Status)
}

func TestDeleteProjectReleasesRequest(t *testing.T) {
	svc, st := newService(t)
	initiative := st.AddInitiative("TMT", "Handle", "Wheel")
	request := st.AddRequest(types.RequestStatusApproved)

	created, err := svc.CreateProject(context.Background(), types.NewProject{InitiativeID: initiative.ID, RequestID: request.ID})
	require.NoError(t, err)

	result, err := svc.DeleteProject(context.Background(), created.Project.ID)
	require.NoError(t, err)
	require.NotNil(t, result.ReleasedRequest)
	assert.Equal(t, request.ID, *result.ReleasedRequest)

	assert.Empty(t, st.ProjectRows)
	assert.Empty(t, st.PartRows)
	assert.Equal(t, types.RequestStatusPending, st.RequestRows[request.ID].Status)
	assert.Len(t, st.InitiativePartRows, 2)
}

func TestDeleteProjectWithoutRequest(t *testing.T) {
	svc, st := newService(t)

	project := &types.ProjectInstance{Name: "Avulso", Status: types.ProjectStatusPlanning}
	require.NoError(t, st.CreateProject(context.Background(), project))

	result, err := svc.DeleteProject(context.Background(), project.ID)
	require.NoError(t, err)
	assert.Nil(t, result.ReleasedRequest)

	_, err = svc.DeleteProject(context.Background(), project.ID)
	assert.ErrorIs(t, err, types.ErrProjectNotFound)

	_, err = svc.DeleteProject(context.Background(), "")
	var verr *types.ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestAddManualPart(t *testing.T) {
	svc, st := newService(t)

	project := &types.ProjectInstance{Name: "Cadeira", Status: types.ProjectStatusPlanning}
	require.NoError(t, st.CreateProject(context.Background(), project))

	part, err := svc.AddManualPart(context.Background(), project.ID, types.NewProjectPart{PartName: " Apoio de braço "})
	require.NoError(t, err)
	assert.Equal(t, "Apoio de braço", part.PartName)
	assert.Equal(t, types.PartStatusUnassigned, part.Status)
	assert.Nil(t, part.InitiativePartID)
	assert.Len(t, projectParts(t, st, project.ID), 1)

	_, err = svc.AddManualPart(context.Background(), "missing", types.NewProjectPart{PartName: "X"})
	assert.ErrorIs(t, err, types.ErrProjectNotFound)

	_, err = svc.AddManualPart(context.Background(), project.ID, types.NewProjectPart{})
	var verr *types.ValidationError
	assert.ErrorAs(t, err, &verr)
}
