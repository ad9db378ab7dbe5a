package viewmodel

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/oactl/internal/api"
	"github.com/felixgeelhaar/oactl/internal/envelope"
	oaerrors "github.com/felixgeelhaar/oactl/internal/errors"
	"github.com/felixgeelhaar/oactl/internal/log"
)

func TestMyAttendancePagination(t *testing.T) {
	svc := &fakeAttendance{}
	vm := NewMyAttendance(svc, &fakeNotifier{}, log.Discard())
	ctx := context.Background()

	require.NoError(t, vm.Load(ctx))
	require.NoError(t, vm.SetPage(ctx, 3))
	require.NoError(t, vm.SetPageSize(ctx, 20))

	calls := svc.listCalls()
	require.Len(t, calls, 3)
	assert.Equal(t, listCall{api.WhoRequester, 1, 10}, calls[0])
	assert.Equal(t, listCall{api.WhoRequester, 3, 10}, calls[1])
	assert.Equal(t, listCall{api.WhoRequester, 1, 20}, calls[2], "page size change returns to the first page")

	state := vm.State()
	assert.Equal(t, 1, state.Total)
	assert.False(t, state.Loading)
}

func TestAttendanceDropsStaleReply(t *testing.T) {
	release := make(chan struct{})
	svc := &fakeAttendance{}
	svc.listFn = func(ctx context.Context, call listCall) (envelope.Page, error) {
		if call.page == 1 {
			<-release
			return envelope.Page{Items: []any{map[string]any{"id": 1.0, "page": 1.0}}, Total: 100}, nil
		}
		return envelope.Page{Items: []any{map[string]any{"id": 2.0, "page": 2.0}}, Total: 200}, nil
	}
	vm := NewEmpAttendance(svc, &fakeNotifier{}, log.Discard())

	slow := make(chan error, 1)
	go func() { slow <- vm.Load(context.Background()) }()
	require.Eventually(t, func() bool { return len(svc.listCalls()) == 1 }, time.Second, time.Millisecond)

	require.NoError(t, vm.SetPage(context.Background(), 2))
	close(release)
	require.NoError(t, <-slow)

	state := vm.State()
	assert.Equal(t, 200, state.Total, "the older page must not overwrite the newer one")
	require.Len(t, state.Items, 1)
	assert.EqualValues(t, 2, state.Items[0]["page"])
	assert.False(t, state.Loading)
}

func TestAttendanceCloseCancelsInFlight(t *testing.T) {
	started := make(chan struct{})
	svc := &fakeAttendance{}
	svc.listFn = func(ctx context.Context, _ listCall) (envelope.Page, error) {
		close(started)
		<-ctx.Done()
		return envelope.Page{}, oaerrors.Wrap(oaerrors.ErrCodeCancelled, "request cancelled", ctx.Err())
	}
	notifier := &fakeNotifier{}
	vm := NewMyAttendance(svc, notifier, log.Discard())

	done := make(chan error, 1)
	go func() { done <- vm.Load(context.Background()) }()
	<-started
	vm.Close()

	err := <-done
	assert.True(t, oaerrors.IsKind(err, oaerrors.KindCancelled))
	assert.False(t, vm.State().Loading)
	assert.Empty(t, notifier.messages("error"), "cancellation is silent")

	err = vm.Load(context.Background())
	assert.True(t, oaerrors.IsKind(err, oaerrors.KindCancelled))
}

func TestAttendanceLoadFailureResetsLoading(t *testing.T) {
	svc := &fakeAttendance{}
	svc.listFn = func(context.Context, listCall) (envelope.Page, error) {
		return envelope.Page{}, oaerrors.New(oaerrors.ErrCodeServer, "server unavailable, please try again later")
	}
	notifier := &fakeNotifier{}
	vm := NewMyAttendance(svc, notifier, log.Discard())

	require.Error(t, vm.Load(context.Background()))
	assert.False(t, vm.State().Loading)
	assert.Equal(t, []string{"failed to load attendance records: server unavailable, please try again later"},
		notifier.messages("error"))
}

func TestLeaveSubmit(t *testing.T) {
	svc := &fakeAttendance{}
	notifier := &fakeNotifier{}
	vm := NewMyAttendance(svc, notifier, log.Discard())
	ctx := context.Background()
	start := time.Date(2026, 5, 1, 9, 0, 0, 0, time.Local)

	_, err := vm.Submit(ctx, LeaveForm{Title: "trip", TypeID: 1, RequestContent: "x", Start: start, End: start.Add(-time.Hour)})
	assert.EqualError(t, err, "end time must not be before start time")
	_, err = vm.Submit(ctx, LeaveForm{Title: " ", TypeID: 1, RequestContent: "x", Start: start, End: start})
	assert.EqualError(t, err, "please enter a title")
	_, err = vm.Submit(ctx, LeaveForm{Title: "trip", RequestContent: "x", Start: start, End: start})
	assert.EqualError(t, err, "please choose a leave type")
	assert.Empty(t, svc.created)

	require.NoError(t, vm.SetPage(ctx, 4))
	_, err = vm.Submit(ctx, LeaveForm{Title: " trip ", TypeID: 2, RequestContent: "family", Start: start, End: start.Add(24 * time.Hour)})
	require.NoError(t, err)
	require.Len(t, svc.created, 1)
	assert.Equal(t, "trip", svc.created[0].Title)
	assert.Equal(t, 1, vm.State().Page, "submit returns to the first page")
	assert.False(t, vm.Submitting())
	assert.Contains(t, notifier.messages("success"), "leave request submitted")
}

func TestSubmitFailureResetsFlag(t *testing.T) {
	svc := &fakeAttendance{createErr: oaerrors.New(oaerrors.ErrCodeClient, "title: too long").WithStatus(400)}
	notifier := &fakeNotifier{}
	vm := NewMyAttendance(svc, notifier, log.Discard())
	start := time.Now()

	_, err := vm.Submit(context.Background(), LeaveForm{Title: "t", TypeID: 1, RequestContent: "c", Start: start, End: start})
	require.Error(t, err)
	assert.False(t, vm.Submitting())
	assert.Equal(t, []string{"title: too long"}, notifier.messages("error"))
}

func TestApproverAndTypes(t *testing.T) {
	svc := &fakeAttendance{
		types:     []api.AttendanceType{{ID: 1, Name: "sick"}},
		responder: map[string]any{"username": "boss"},
	}
	vm := NewMyAttendance(svc, &fakeNotifier{}, log.Discard())

	name, err := vm.LoadApprover(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "boss", name)
	assert.Equal(t, "boss", vm.Approver())

	_, err = vm.LoadTypes(context.Background())
	require.NoError(t, err)
	assert.Equal(t, svc.types, vm.Types())
}

func TestApproveAndReject(t *testing.T) {
	svc := &fakeAttendance{}
	notifier := &fakeNotifier{}
	vm := NewEmpAttendance(svc, notifier, log.Discard())

	require.NoError(t, vm.Approve(context.Background(), 7, "ok"))
	require.NoError(t, vm.Reject(context.Background(), 8, "no"))
	assert.Equal(t, []int{7, 8}, svc.approved)
	assert.Equal(t, []int{api.StatusApproved, api.StatusRejected}, svc.statuses)
	assert.Len(t, svc.listCalls(), 2, "each decision reloads the list")
	assert.False(t, vm.Submitting())
}

func TestApproveForbidden(t *testing.T) {
	svc := &fakeAttendance{approveErr: oaerrors.New(oaerrors.ErrCodeClient, "request failed, please check your input").WithStatus(403)}
	notifier := &fakeNotifier{}
	vm := NewEmpAttendance(svc, notifier, log.Discard())

	require.Error(t, vm.Approve(context.Background(), 7, ""))
	assert.Equal(t, []string{MsgApprovalForbidden}, notifier.messages("error"))
	assert.False(t, vm.Submitting())
}

func TestAttendanceRows(t *testing.T) {
	rows := AttendanceRows([]envelope.Record{
		{
			"id":               7,
			"title":            "Dentist",
			"attendance_type":  map[string]any{"id": 1, "name": "sick leave"},
			"requester":        map[string]any{"username": "sue"},
			"responser_name":   "boss",
			"status":           float64(api.StatusPending),
			"start_time":       "2026-03-01T09:00:00Z",
			"request_content":  "tooth",
			"approval_content": nil,
		},
		{"id": 8, "status": 3},
	})

	require.Len(t, rows, 2)
	assert.Equal(t, 7, rows[0].ID)
	assert.Equal(t, "sick leave", rows[0].Type)
	assert.Equal(t, "sue", rows[0].Requester)
	assert.Equal(t, "boss", rows[0].Responder)
	assert.True(t, rows[0].Pending())
	assert.Equal(t, FormatTime("2026-03-01T09:00:00Z"), rows[0].Start)
	assert.Empty(t, rows[0].Reply)

	assert.False(t, rows[1].Pending())
	assert.Equal(t, api.StatusLabel(3), rows[1].StatusLabel())
}
