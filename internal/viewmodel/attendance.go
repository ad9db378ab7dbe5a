package viewmodel

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/felixgeelhaar/oactl/internal/api"
	"github.com/felixgeelhaar/oactl/internal/envelope"
	"github.com/felixgeelhaar/oactl/internal/errors"
	"github.com/felixgeelhaar/oactl/internal/log"
	"github.com/felixgeelhaar/oactl/internal/session"
)

// AttendanceService is the part of api.AttendanceAPI the attendance pages use.
type AttendanceService interface {
	Types(ctx context.Context) ([]api.AttendanceType, error)
	List(ctx context.Context, who api.Who, page, pageSize int) (envelope.Page, error)
	Create(ctx context.Context, req api.NewAttendance) (envelope.Record, error)
	Approve(ctx context.Context, id int, status int, content string) (envelope.Record, error)
	Responder(ctx context.Context) (session.User, error)
}

// ListState is a snapshot of a paginated table.
type ListState struct {
	Items    []envelope.Record
	Total    int
	Page     int
	PageSize int
	Loading  bool
}

// attendanceList is the pagination shared by both attendance pages.
type attendanceList struct {
	svc      AttendanceService
	who      api.Who
	notifier Notifier
	logger   *log.Logger
	fence    *fence

	mu    sync.Mutex
	state ListState
}

func newAttendanceList(svc AttendanceService, who api.Who, notifier Notifier, logger *log.Logger) *attendanceList {
	return &attendanceList{
		svc:      svc,
		who:      who,
		notifier: notifier,
		logger:   log.OrDefault(logger).With("view", "attendance", "who", string(who)),
		fence:    newFence(),
		state:    ListState{Page: DefaultPage, PageSize: DefaultPageSize},
	}
}

func (l *attendanceList) snapshot() ListState {
	l.mu.Lock()
	defer l.mu.Unlock()
	s := l.state
	s.Items = append([]envelope.Record(nil), l.state.Items...)
	return s
}

// load fetches the current page. A reply that arrives after a newer load
// started is discarded.
func (l *attendanceList) load(ctx context.Context) error {
	ctx, gen, done, err := l.fence.next(ctx)
	if err != nil {
		return err
	}
	defer done()

	l.mu.Lock()
	page, size := l.state.Page, l.state.PageSize
	l.state.Loading = true
	l.mu.Unlock()

	result, err := l.svc.List(ctx, l.who, page, size)

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.fence.closed() {
		l.state.Loading = false
		return errors.New(errors.ErrCodeCancelled, "view closed")
	}
	if !l.fence.current(gen) {
		l.logger.Debug("dropping stale page", "page", page, "generation", gen)
		return nil
	}
	l.state.Loading = false
	if err != nil {
		if !quiet(err) {
			l.notifier.Error("failed to load attendance records: " + messageOr(err, "unknown error"))
		}
		return err
	}
	l.state.Items = result.Records()
	l.state.Total = result.Total
	return nil
}

func (l *attendanceList) setPage(ctx context.Context, page int) error {
	if page < 1 {
		page = 1
	}
	l.mu.Lock()
	l.state.Page = page
	l.mu.Unlock()
	return l.load(ctx)
}

func (l *attendanceList) setPageSize(ctx context.Context, size int) error {
	if size < 1 {
		size = DefaultPageSize
	}
	l.mu.Lock()
	l.state.PageSize = size
	l.state.Page = 1
	l.mu.Unlock()
	return l.load(ctx)
}

// LeaveForm is a new leave request.
type LeaveForm struct {
	Title          string
	TypeID         int
	RequestContent string
	Start          time.Time
	End            time.Time
}

// Validate checks the required fields and the date range.
func (f LeaveForm) Validate() error {
	switch {
	case strings.TrimSpace(f.Title) == "":
		return validation("please enter a title")
	case f.TypeID == 0:
		return validation("please choose a leave type")
	case strings.TrimSpace(f.RequestContent) == "":
		return validation("please enter a reason")
	case f.Start.IsZero() || f.End.IsZero():
		return validation("please choose a start and end time")
	case f.End.Before(f.Start):
		return validation("end time must not be before start time")
	}
	return nil
}

// MyAttendance is the page listing the current user's own leave requests.
type MyAttendance struct {
	list *attendanceList

	mu         sync.Mutex
	types      []api.AttendanceType
	approver   string
	submitting bool
}

// NewMyAttendance creates the view model.
func NewMyAttendance(svc AttendanceService, notifier Notifier, logger *log.Logger) *MyAttendance {
	return &MyAttendance{list: newAttendanceList(svc, api.WhoRequester, notifier, logger)}
}

// State returns the table state.
func (m *MyAttendance) State() ListState { return m.list.snapshot() }

// Load fetches the current page.
func (m *MyAttendance) Load(ctx context.Context) error { return m.list.load(ctx) }

// SetPage moves to page and reloads.
func (m *MyAttendance) SetPage(ctx context.Context, page int) error { return m.list.setPage(ctx, page) }

// SetPageSize changes the page size, returns to the first page and reloads.
func (m *MyAttendance) SetPageSize(ctx context.Context, size int) error {
	return m.list.setPageSize(ctx, size)
}

// LoadTypes fetches the leave categories for the request form.
func (m *MyAttendance) LoadTypes(ctx context.Context) ([]api.AttendanceType, error) {
	types, err := m.list.svc.Types(ctx)
	if err != nil {
		if !quiet(err) {
			m.list.notifier.Error("failed to load attendance types")
		}
		return nil, err
	}
	m.mu.Lock()
	m.types = types
	m.mu.Unlock()
	return types, nil
}

// Types returns the categories from the last LoadTypes.
func (m *MyAttendance) Types() []api.AttendanceType {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]api.AttendanceType(nil), m.types...)
}

// LoadApprover fetches the name of whoever approves the user's requests.
func (m *MyAttendance) LoadApprover(ctx context.Context) (string, error) {
	u, err := m.list.svc.Responder(ctx)
	if err != nil {
		if !quiet(err) {
			m.list.notifier.Error("failed to load approver")
		}
		return "", err
	}
	name := u.String("username")
	m.mu.Lock()
	m.approver = name
	m.mu.Unlock()
	return name, nil
}

// Approver returns the name from the last LoadApprover.
func (m *MyAttendance) Approver() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.approver
}

// Submitting reports whether a request is being submitted.
func (m *MyAttendance) Submitting() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.submitting
}

// Submit files a leave request, then reloads from the first page.
func (m *MyAttendance) Submit(ctx context.Context, form LeaveForm) (envelope.Record, error) {
	if err := form.Validate(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	if m.submitting {
		m.mu.Unlock()
		return nil, validation("a request is already being submitted")
	}
	m.submitting = true
	m.mu.Unlock()
	defer func() {
		m.mu.Lock()
		m.submitting = false
		m.mu.Unlock()
	}()

	rec, err := m.list.svc.Create(ctx, api.NewAttendance{
		Title:            strings.TrimSpace(form.Title),
		AttendanceTypeID: form.TypeID,
		RequestContent:   strings.TrimSpace(form.RequestContent),
		StartTime:        form.Start,
		EndTime:          form.End,
	})
	if err != nil {
		if !quiet(err) {
			m.list.notifier.Error(messageOr(err, "failed to submit leave request"))
		}
		return nil, err
	}

	m.list.notifier.Success("leave request submitted")
	if err := m.list.setPage(ctx, 1); err != nil {
		m.list.logger.WithError(err).Warn("reload after submit failed")
	}
	return rec, nil
}

// Close cancels in-flight loads. Later calls fail with a cancelled error.
func (m *MyAttendance) Close() { m.list.fence.close() }

// Message shown when the backend refuses an approval.
const MsgApprovalForbidden = "insufficient permission to approve this request"

// EmpAttendance is the page where leaders review their staff's requests.
type EmpAttendance struct {
	list *attendanceList

	mu         sync.Mutex
	submitting bool
}

// NewEmpAttendance creates the view model.
func NewEmpAttendance(svc AttendanceService, notifier Notifier, logger *log.Logger) *EmpAttendance {
	return &EmpAttendance{list: newAttendanceList(svc, api.WhoResponder, notifier, logger)}
}

// State returns the table state.
func (e *EmpAttendance) State() ListState { return e.list.snapshot() }

// Load fetches the current page.
func (e *EmpAttendance) Load(ctx context.Context) error { return e.list.load(ctx) }

// SetPage moves to page and reloads.
func (e *EmpAttendance) SetPage(ctx context.Context, page int) error { return e.list.setPage(ctx, page) }

// SetPageSize changes the page size, returns to the first page and reloads.
func (e *EmpAttendance) SetPageSize(ctx context.Context, size int) error {
	return e.list.setPageSize(ctx, size)
}

// Approve accepts the request.
func (e *EmpAttendance) Approve(ctx context.Context, id int, content string) error {
	return e.decide(ctx, id, api.StatusApproved, content)
}

// Reject declines the request.
func (e *EmpAttendance) Reject(ctx context.Context, id int, content string) error {
	return e.decide(ctx, id, api.StatusRejected, content)
}

func (e *EmpAttendance) decide(ctx context.Context, id, status int, content string) error {
	if id <= 0 {
		return validation("no attendance request selected")
	}

	e.mu.Lock()
	e.submitting = true
	e.mu.Unlock()
	defer func() {
		e.mu.Lock()
		e.submitting = false
		e.mu.Unlock()
	}()

	if _, err := e.list.svc.Approve(ctx, id, status, content); err != nil {
		switch {
		case quiet(err):
		case forbidden(err):
			e.list.notifier.Error(MsgApprovalForbidden)
		default:
			e.list.notifier.Error(messageOr(err, "approval failed"))
		}
		return err
	}

	e.list.notifier.Success("approval saved")
	if err := e.list.setPage(ctx, 1); err != nil {
		e.list.logger.WithError(err).Warn("reload after approval failed")
	}
	return nil
}

// Submitting reports whether a decision is being sent.
func (e *EmpAttendance) Submitting() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.submitting
}

// Close cancels in-flight loads.
func (e *EmpAttendance) Close() { e.list.fence.close() }

func forbidden(err error) bool {
	if errors.StatusOf(err) == 403 {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "permission")
}

// AttendanceRow is one attendance record shaped for a table.
type AttendanceRow struct {
	ID        int    `json:"id" yaml:"id"`
	Title     string `json:"title" yaml:"title"`
	Type      string `json:"type" yaml:"type"`
	Requester string `json:"requester" yaml:"requester"`
	Responder string `json:"responder" yaml:"responder"`
	Status    int    `json:"status" yaml:"status"`
	Start     string `json:"start_time" yaml:"start_time"`
	End       string `json:"end_time" yaml:"end_time"`
	Created   string `json:"create_time" yaml:"create_time"`
	Reason    string `json:"request_content" yaml:"request_content"`
	Reply     string `json:"approval_content,omitempty" yaml:"approval_content,omitempty"`
}

// StatusLabel names the approval state.
func (r AttendanceRow) StatusLabel() string { return api.StatusLabel(r.Status) }

// Pending reports whether the record still awaits a decision.
func (r AttendanceRow) Pending() bool { return r.Status == api.StatusPending }

// AttendanceRows maps records to rows. Names prefer the nested user and fall
// back to the flat requester_name and responser_name columns.
func AttendanceRows(items []envelope.Record) []AttendanceRow {
	rows := make([]AttendanceRow, 0, len(items))
	for _, r := range items {
		rows = append(rows, AttendanceRow{
			ID:        envelope.AsInt(r["id"]),
			Title:     envelope.AsString(r["title"]),
			Type:      envelope.AsString(envelope.Path(r, "attendance_type", "name")),
			Requester: personName(r, "requester"),
			Responder: personName(r, "responser"),
			Status:    envelope.AsInt(r["status"]),
			Start:     FormatTime(envelope.AsString(r["start_time"])),
			End:       FormatTime(envelope.AsString(r["end_time"])),
			Created:   FormatTime(envelope.AsString(r["create_time"])),
			Reason:    envelope.AsString(r["request_content"]),
			Reply:     envelope.AsString(r["approval_content"]),
		})
	}
	return rows
}

func personName(r envelope.Record, key string) string {
	if name := envelope.AsString(envelope.Path(r, key, "username")); name != "" {
		return name
	}
	return envelope.AsString(r[key+"_name"])
}
