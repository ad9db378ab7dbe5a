package viewmodel

import (
	"context"
	"io"
	"sync"

	"github.com/felixgeelhaar/oactl/internal/api"
	"github.com/felixgeelhaar/oactl/internal/envelope"
	"github.com/felixgeelhaar/oactl/internal/httpclient"
	"github.com/felixgeelhaar/oactl/internal/session"
)

type notice struct {
	level string
	msg   string
}

type fakeNotifier struct {
	mu      sync.Mutex
	notices []notice
}

func (n *fakeNotifier) add(level, msg string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notices = append(n.notices, notice{level, msg})
}

func (n *fakeNotifier) Success(msg string) { n.add("success", msg) }
func (n *fakeNotifier) Info(msg string)    { n.add("info", msg) }
func (n *fakeNotifier) Warning(msg string) { n.add("warning", msg) }
func (n *fakeNotifier) Error(msg string)   { n.add("error", msg) }

func (n *fakeNotifier) messages(level string) []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []string
	for _, x := range n.notices {
		if x.level == level {
			out = append(out, x.msg)
		}
	}
	return out
}

type fakeNav struct{ paths []string }

func (n *fakeNav) Push(path string) { n.paths = append(n.paths, path) }

type fakeConfirmer struct {
	answer bool
	err    error
	asked  int
}

func (c *fakeConfirmer) Confirm(string, string) (bool, error) {
	c.asked++
	return c.answer, c.err
}

type fakeSession struct {
	user    session.User
	token   string
	cleared bool
	setErr  error
}

func (s *fakeSession) User() session.User {
	if s.user == nil {
		return session.User{}
	}
	return s.user
}

func (s *fakeSession) Set(u session.User, token string) error {
	if s.setErr != nil {
		return s.setErr
	}
	s.user, s.token = u, token
	return nil
}

func (s *fakeSession) Clear() error {
	s.user, s.token, s.cleared = nil, "", true
	return nil
}

type fakeAuth struct {
	result *api.LoginResult
	err    error
	calls  int
}

func (a *fakeAuth) Login(context.Context, string, string) (*api.LoginResult, error) {
	a.calls++
	return a.result, a.err
}

func (a *fakeAuth) ResetPassword(context.Context, string, string, string) error {
	a.calls++
	return a.err
}

type listCall struct {
	who            api.Who
	page, pageSize int
}

type fakeAttendance struct {
	mu         sync.Mutex
	listFn     func(ctx context.Context, call listCall) (envelope.Page, error)
	calls      []listCall
	created    []api.NewAttendance
	createErr  error
	approved   []int
	statuses   []int
	approveErr error
	types      []api.AttendanceType
	responder  session.User
}

func (f *fakeAttendance) Types(context.Context) ([]api.AttendanceType, error) { return f.types, nil }

func (f *fakeAttendance) List(ctx context.Context, who api.Who, page, pageSize int) (envelope.Page, error) {
	call := listCall{who, page, pageSize}
	f.mu.Lock()
	f.calls = append(f.calls, call)
	f.mu.Unlock()
	if f.listFn != nil {
		return f.listFn(ctx, call)
	}
	return envelope.Page{Items: []any{map[string]any{"id": 1.0}}, Total: 1}, nil
}

func (f *fakeAttendance) Create(_ context.Context, req api.NewAttendance) (envelope.Record, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.created = append(f.created, req)
	return envelope.Record{"id": 5.0}, nil
}

func (f *fakeAttendance) Approve(_ context.Context, id int, status int, _ string) (envelope.Record, error) {
	if f.approveErr != nil {
		return nil, f.approveErr
	}
	f.approved = append(f.approved, id)
	f.statuses = append(f.statuses, status)
	return envelope.Record{}, nil
}

func (f *fakeAttendance) Responder(context.Context) (session.User, error) { return f.responder, nil }

func (f *fakeAttendance) listCalls() []listCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]listCall(nil), f.calls...)
}

type fakeInform struct {
	page      envelope.Page
	record    envelope.Record
	published []api.NewInform
	deleted   []int
	err       error
}

func (f *fakeInform) List(context.Context, int, int) (envelope.Page, error) { return f.page, f.err }
func (f *fakeInform) Get(context.Context, int) (envelope.Record, error)     { return f.record, f.err }
func (f *fakeInform) Publish(_ context.Context, in api.NewInform) (envelope.Record, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.published = append(f.published, in)
	return envelope.Record{"id": 42.0}, nil
}
func (f *fakeInform) Delete(_ context.Context, id int) error {
	if f.err != nil {
		return f.err
	}
	f.deleted = append(f.deleted, id)
	return nil
}

type fakeStaff struct {
	depts      []api.Department
	dir        map[string]api.DepartmentStaff
	dirErr     error
	added      []api.NewStaff
	addErr     error
	updates    []api.StaffUpdate
	leaders    []string
	downloaded [][]string
	download   *httpclient.Response
}

func (f *fakeStaff) Departments(context.Context) ([]api.Department, error) { return f.depts, nil }
func (f *fakeStaff) Directory(context.Context) (map[string]api.DepartmentStaff, error) {
	return f.dir, f.dirErr
}
func (f *fakeStaff) Add(_ context.Context, in api.NewStaff) (envelope.Record, error) {
	if f.addErr != nil {
		return nil, f.addErr
	}
	f.added = append(f.added, in)
	return envelope.Record{}, nil
}
func (f *fakeStaff) Update(_ context.Context, _ string, in api.StaffUpdate) (envelope.Record, error) {
	f.updates = append(f.updates, in)
	return envelope.Record{}, nil
}
func (f *fakeStaff) SetLeader(_ context.Context, _ int, uuid string) error {
	f.leaders = append(f.leaders, uuid)
	return nil
}
func (f *fakeStaff) Download(_ context.Context, uuids ...string) (*httpclient.Response, error) {
	f.downloaded = append(f.downloaded, uuids)
	return f.download, nil
}

type fakeUploader struct {
	name string
	body string
	res  *api.UploadResult
}

func (u *fakeUploader) UploadImage(_ context.Context, filename string, r io.Reader) (*api.UploadResult, error) {
	b, _ := io.ReadAll(r)
	u.name, u.body = filename, string(b)
	return u.res, nil
}
