package allocation

import (
	"context"
	"errors"
	"testing"
	"time"

	"comproposito/internal/store/memstore"
	"comproposito/internal/utils"
	"comproposito/pkg/types"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type notifyCall struct {
	ContributorID string
	PartIDs       []string
}

type fakeNotifier struct {
	calls []notifyCall
	fail  map[string]error
}

func (f *fakeNotifier) PartAllocated(_ context.Context, contributorID string, partIDs []string) (*types.NotifyResult, error) {
	f.calls = append(f.calls, notifyCall{ContributorID: contributorID, PartIDs: partIDs})
	if err := f.fail[contributorID]; err != nil {
		return nil, err
	}
	return &types.NotifyResult{OK: true, MessageID: "m-" + contributorID}, nil
}

type fixture struct {
	store    *memstore.Store
	notifier *fakeNotifier
	engine   *Engine
	project  *types.ProjectInstance
	waits    []time.Duration
}

func newFixture(t *testing.T, partNames ...string) *fixture {
	t.Helper()

	logger, _ := test.NewNullLogger()
	st := memstore.New()
	n := &fakeNotifier{fail: map[string]error{}}

	project := &types.ProjectInstance{Name: "Cadeira Maria", Status: types.ProjectStatusPlanning}
	require.NoError(t, st.CreateProject(context.Background(), project))

	parts := make([]*types.ProjectPart, 0, len(partNames))
	for _, name := range partNames {
		parts = append(parts, &types.ProjectPart{ProjectInstanceID: project.ID, PartName: name, Status: types.PartStatusUnassigned})
	}
	require.NoError(t, st.CreateProjectParts(context.Background(), parts))

	f := &fixture{store: st, notifier: n, project: project}
	f.engine = NewEngine(logger, st, st, st, n, time.Second)
	f.engine.wait = func(_ context.Context, d time.Duration) error {
		f.waits = append(f.waits, d)
		return nil
	}
	return f
}

func (f *fixture) partIDs(t *testing.T) []string {
	t.Helper()
	parts, err := f.store.PartsByProject(context.Background(), f.project.ID)
	require.NoError(t, err)
	ids := make([]string, 0, len(parts))
	for _, p := range parts {
		ids = append(ids, p.ID)
	}
	return ids
}

func TestAllocateAssignsAllPartsAndNotifiesOnce(t *testing.T) {
	f := newFixture(t, "Handle", "Wheel")
	v := f.store.AddContributor(&types.Contributor{Name: "V", Email: "v@example.pt"})
	ids := f.partIDs(t)

	result, err := f.engine.Allocate(context.Background(), Request{ProjectID: f.project.ID, ContributorID: v.ID, PartIDs: ids})
	require.NoError(t, err)
	assert.EqualValues(t, 2, result.Updated)
	assert.Empty(t, result.Reassigned)
	assert.NoError(t, result.NotifyErr)
	assert.Empty(t, result.Warnings())
	require.NotNil(t, result.Notification)
	assert.Equal(t, "m-"+v.ID, result.Notification.MessageID)

	for _, id := range ids {
		p, err := f.store.Part(context.Background(), id)
		require.NoError(t, err)
		assert.Equal(t, types.PartStatusAssigned, p.Status)
		require.NotNil(t, p.AssignedContributorID)
		assert.Equal(t, v.ID, *p.AssignedContributorID)
	}

	require.Len(t, f.notifier.calls, 1)
	assert.Equal(t, v.ID, f.notifier.calls[0].ContributorID)
	assert.Len(t, f.notifier.calls[0].PartIDs, 2)
}

func TestAllocateNotificationFailureIsNonFatal(t *testing.T) {
	f := newFixture(t, "Handle")
	v := f.store.AddContributor(&types.Contributor{Name: "V", Email: "v@example.pt"})
	f.notifier.fail[v.ID] = errors.New("provider down")

	result, err := f.engine.Allocate(context.Background(), Request{ProjectID: f.project.ID, ContributorID: v.ID, PartIDs: f.partIDs(t)})
	require.NoError(t, err)
	assert.Error(t, result.NotifyErr)
	assert.Len(t, result.Warnings(), 1)

	p, err := f.store.Part(context.Background(), result.PartIDs[0])
	require.NoError(t, err)
	assert.Equal(t, types.PartStatusAssigned, p.Status)
}

func TestAllocatePersistenceFailureIsFatal(t *testing.T) {
	f := newFixture(t, "Handle")
	v := f.store.AddContributor(&types.Contributor{Name: "V", Email: "v@example.pt"})
	f.store.Fail("AssignParts", errors.New("connection reset"))

	result, err := f.engine.Allocate(context.Background(), Request{ProjectID: f.project.ID, ContributorID: v.ID, PartIDs: f.partIDs(t)})
	require.Error(t, err)
	assert.Nil(t, result)
	assert.Empty(t, f.notifier.calls)
	for _, p := range f.store.PartRows {
		assert.Equal(t, types.PartStatusUnassigned, p.Status)
		assert.Nil(t, p.AssignedContributorID)
	}
}

func TestAllocateReportsReassignment(t *testing.T) {
	f := newFixture(t, "Handle", "Wheel")
	a := f.store.AddContributor(&types.Contributor{Name: "A", Email: "a@example.pt"})
	b := f.store.AddContributor(&types.Contributor{Name: "B", Email: "b@example.pt"})
	ids := f.partIDs(t)

	_, err := f.engine.Allocate(context.Background(), Request{ProjectID: f.project.ID, ContributorID: a.ID, PartIDs: ids[:1]})
	require.NoError(t, err)

	result, err := f.engine.Allocate(context.Background(), Request{ProjectID: f.project.ID, ContributorID: b.ID, PartIDs: ids})
	require.NoError(t, err)
	require.Len(t, result.Reassigned, 1)
	assert.Equal(t, ids[0], result.Reassigned[0].PartID)
	assert.Equal(t, a.ID, result.Reassigned[0].PreviousContributorID)

	p, err := f.store.Part(context.Background(), ids[0])
	require.NoError(t, err)
	assert.Equal(t, b.ID, *p.AssignedContributorID)
}

func TestAllocateValidation(t *testing.T) {
	f := newFixture(t, "Handle")
	v := f.store.AddContributor(&types.Contributor{Name: "V", Email: "v@example.pt"})

	tests := []struct {
		name   string
		req    Request
		target error
	}{
		{name: "no parts", req: Request{ProjectID: f.project.ID, ContributorID: v.ID}},
		{name: "blank part ids", req: Request{ProjectID: f.project.ID, ContributorID: v.ID, PartIDs: []string{" ", ""}}},
		{name: "no contributor", req: Request{ProjectID: f.project.ID, PartIDs: []string{"x"}}},
		{name: "unknown contributor", req: Request{ProjectID: f.project.ID, ContributorID: "ghost", PartIDs: []string{"x"}}, target: types.ErrContributorNotFound},
		{name: "parts of another project", req: Request{ProjectID: "other", ContributorID: v.ID, PartIDs: f.partIDs(t)}, target: types.ErrPartNotFound},
		{name: "one unknown part", req: Request{ProjectID: f.project.ID, ContributorID: v.ID, PartIDs: append(f.partIDs(t), "no-such-part")}, target: types.ErrPartNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.engine.Allocate(context.Background(), tt.req)
			require.Error(t, err)
			if tt.target != nil {
				assert.ErrorIs(t, err, tt.target)
				return
			}
			var verr *types.ValidationError
			assert.ErrorAs(t, err, &verr)
		})
	}
	assert.Empty(t, f.notifier.calls)
	for _, p := range f.store.PartRows {
		assert.Equal(t, types.PartStatusUnassigned, p.Status)
		assert.Nil(t, p.AssignedContributorID)
	}
}

func TestResendProjectThreeVolunteers(t *testing.T) {
	f := newFixture(t, "P1", "P2", "P3", "P4", "P5")
	ids := f.partIDs(t)

	vs := make([]*types.Contributor, 3)
	for i := range vs {
		vs[i] = f.store.AddContributor(&types.Contributor{Name: "V", Email: utils.NanoIDSize(6) + "@example.pt"})
	}
	assign := map[int][]string{0: {ids[0], ids[3]}, 1: {ids[1]}, 2: {ids[2]}}
	for i, partIDs := range assign {
		_, err := f.store.AssignParts(context.Background(), f.project.ID, vs[i].ID, partIDs)
		require.NoError(t, err)
	}
	f.notifier.fail[vs[1].ID] = errors.New("rate limited")

	var snapshots []ResendReport
	report, err := f.engine.ResendProject(context.Background(), f.project.ID, func(r ResendReport) {
		snapshots = append(snapshots, r)
	})
	require.NoError(t, err)

	assert.Equal(t, 3, report.Total)
	assert.Equal(t, 2, report.Succeeded)
	assert.Equal(t, 1, report.Failed)
	assert.Equal(t, report.Total, report.Succeeded+report.Failed)
	require.Len(t, report.Failures, 1)
	assert.Equal(t, vs[1].ID, report.Failures[0].ContributorID)

	require.Len(t, f.notifier.calls, 3)
	assert.Equal(t, []time.Duration{time.Second, time.Second}, f.waits)
	require.Len(t, snapshots, 3)
	assert.Equal(t, 1, snapshots[0].Succeeded+snapshots[0].Failed)

	for _, call := range f.notifier.calls {
		if call.ContributorID == vs[0].ID {
			assert.ElementsMatch(t, []string{ids[0], ids[3]}, call.PartIDs)
		}
	}
}

func TestResendProjectStopsOnCancel(t *testing.T) {
	f := newFixture(t, "P1", "P2")
	ids := f.partIDs(t)
	for _, id := range ids {
		v := f.store.AddContributor(&types.Contributor{Name: "V", Email: id + "@example.pt"})
		_, err := f.store.AssignParts(context.Background(), f.project.ID, v.ID, []string{id})
		require.NoError(t, err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	f.engine.wait = sleep
	f.engine.resendDelay = time.Hour
	cancel()

	report, err := f.engine.ResendProject(ctx, f.project.ID, nil)
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, report.Succeeded+report.Failed)
}

func TestResendProjectNothingAllocated(t *testing.T) {
	f := newFixture(t, "P1")

	report, err := f.engine.ResendProject(context.Background(), f.project.ID, nil)
	require.NoError(t, err)
	assert.Zero(t, report.Total)
	assert.Empty(t, f.notifier.calls)
	assert.Empty(t, f.waits)
}

func TestResendProjectUnknownProject(t *testing.T) {
	f := newFixture(t)
	_, err := f.engine.ResendProject(context.Background(), "missing", nil)
	assert.ErrorIs(t, err, types.ErrProjectNotFound)
}

func TestGroupByContributor(t *testing.T) {
	a, b := "a", "b"
	parts := []*types.ProjectPart{
		{ID: "1", AssignedContributorID: &b},
		{ID: "2"},
		{ID: "3", AssignedContributorID: &a},
		{ID: "4", AssignedContributorID: &b},
	}

	groups := GroupByContributor(parts)
	assert.Equal(t, []ContributorParts{
		{ContributorID: "b", PartIDs: []string{"1", "4"}},
		{ContributorID: "a", PartIDs: []string{"3"}},
	}, groups)
}
