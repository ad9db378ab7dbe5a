package viewmodel

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/felixgeelhaar/oactl/internal/api"
	"github.com/felixgeelhaar/oactl/internal/envelope"
	"github.com/felixgeelhaar/oactl/internal/errors"
	"github.com/felixgeelhaar/oactl/internal/httpclient"
	"github.com/felixgeelhaar/oactl/internal/log"
	"github.com/felixgeelhaar/oactl/internal/session"
)

// BoardDepartment is the department whose members only its own leader may edit.
const BoardDepartment = "董事会"

// Notices shown by the staff pages.
const (
	MsgStaffForbidden     = "you do not have permission to access staff management"
	MsgBoardEditForbidden = "board members can only be edited by a board leader"
	MsgBoardMoveForbidden = "board members cannot change department"
	MsgNoStaffSelected    = "select the staff to download"
)

// unknownDepartmentOrder sorts departments missing from the department list last.
const unknownDepartmentOrder = 999

// StaffService is the part of api.StaffAPI the staff pages use.
type StaffService interface {
	Departments(ctx context.Context) ([]api.Department, error)
	Directory(ctx context.Context) (map[string]api.DepartmentStaff, error)
	Add(ctx context.Context, in api.NewStaff) (envelope.Record, error)
	Update(ctx context.Context, uuid string, in api.StaffUpdate) (envelope.Record, error)
	SetLeader(ctx context.Context, departmentID int, leaderUUID string) error
	Download(ctx context.Context, uuids ...string) (*httpclient.Response, error)
}

// StaffRow is one employee in the directory.
type StaffRow struct {
	UUID       string `json:"uuid" yaml:"uuid"`
	ID         int    `json:"id" yaml:"id"`
	Joined     string `json:"date" yaml:"date"`
	Name       string `json:"name" yaml:"name"`
	Department string `json:"department" yaml:"department"`
	Leader     string `json:"leader" yaml:"leader"`
	Email      string `json:"email" yaml:"email"`
	Status     int    `json:"status" yaml:"status"`
	IsLeader   bool   `json:"isLeader" yaml:"is_leader"`
}

// StatusLabel names the row's employment state.
func (r StaffRow) StatusLabel() string { return api.StaffStatusLabel(r.Status) }

// StaffGroup is one department's table: leaders first, then members.
type StaffGroup struct {
	Department   string     `json:"department" yaml:"department"`
	DepartmentID int        `json:"department_id" yaml:"department_id"`
	Leader       string     `json:"leader" yaml:"leader"`
	Staff        []StaffRow `json:"staffs" yaml:"staffs"`
}

// FlattenDirectory turns the per-department directory into rows. Members who
// have left are skipped; leaders are always kept. Departments are walked in
// name order so row ids are stable.
func FlattenDirectory(dir map[string]api.DepartmentStaff) []StaffRow {
	names := make([]string, 0, len(dir))
	for name := range dir {
		names = append(names, name)
	}
	sort.Strings(names)

	var rows []StaffRow
	next := 1
	for _, name := range names {
		dept := dir[name]
		leader := "none"
		if len(dept.Leader) > 0 {
			if n := envelope.AsString(dept.Leader[0]["username"]); n != "" {
				leader = n
			}
		}

		add := func(r envelope.Record, isLeader bool) {
			rows = append(rows, StaffRow{
				UUID:       envelope.AsString(r["uuid"]),
				ID:         next,
				Joined:     FormatDate(envelope.AsString(r["date_joined"])),
				Name:       orUnset(envelope.AsString(r["username"])),
				Department: name,
				Leader:     leader,
				Email:      orUnset(envelope.AsString(r["email"])),
				Status:     envelope.AsInt(r["status"]),
				IsLeader:   isLeader,
			})
			next++
		}
		for _, r := range dept.Leader {
			add(r, true)
		}
		for _, r := range dept.Members {
			if envelope.AsInt(r["status"]) == api.StaffLeft {
				continue
			}
			add(r, false)
		}
	}
	return rows
}

func orUnset(s string) string {
	if s == "" {
		return "not set"
	}
	return s
}

// GroupStaff groups rows by department, ordered by department id.
func GroupStaff(rows []StaffRow, deptIDs map[string]int) []StaffGroup {
	index := map[string]int{}
	var groups []StaffGroup
	for _, r := range rows {
		i, ok := index[r.Department]
		if !ok {
			id, known := deptIDs[r.Department]
			if !known {
				id = unknownDepartmentOrder
			}
			i = len(groups)
			index[r.Department] = i
			groups = append(groups, StaffGroup{Department: r.Department, DepartmentID: id, Leader: "none"})
		}
		groups[i].Staff = append(groups[i].Staff, r)
	}

	for i := range groups {
		staff := groups[i].Staff
		sort.SliceStable(staff, func(a, b int) bool { return staff[a].IsLeader && !staff[b].IsLeader })
		if len(staff) > 0 && staff[0].IsLeader {
			groups[i].Leader = staff[0].Name
		}
	}
	sort.SliceStable(groups, func(a, b int) bool {
		if groups[a].DepartmentID != groups[b].DepartmentID {
			return groups[a].DepartmentID < groups[b].DepartmentID
		}
		return groups[a].Department < groups[b].Department
	})
	return groups
}

// StaffEdit is the edit dialog.
type StaffEdit struct {
	UUID         string
	Name         string
	Email        string
	Department   string
	DepartmentID int
	Status       int
	IsLeader     bool
}

// StaffList is the staff directory page.
type StaffList struct {
	svc      StaffService
	session  SessionStore
	notifier Notifier
	logger   *log.Logger
	fence    *fence

	mu          sync.Mutex
	rows        []StaffRow
	departments []api.Department
	deptIDs     map[string]int
	loading     bool
	loadErr     string
}

// NewStaffList creates the view model.
func NewStaffList(svc StaffService, store SessionStore, notifier Notifier, logger *log.Logger) *StaffList {
	return &StaffList{
		svc:      svc,
		session:  store,
		notifier: notifier,
		logger:   log.OrDefault(logger).With("view", "staff_list"),
		fence:    newFence(),
		deptIDs:  map[string]int{},
	}
}

// CheckPermission warns and returns false when the user may not manage staff.
func CheckPermission(u session.User, notifier Notifier) bool {
	if u.Empty() {
		notifier.Warning("please log in first")
		return false
	}
	if !u.CanManageStaff() {
		notifier.Warning(MsgStaffForbidden)
		return false
	}
	return true
}

// Load fetches departments and the directory.
func (s *StaffList) Load(ctx context.Context) error {
	if !CheckPermission(s.session.User(), s.notifier) {
		return errors.New(errors.ErrCodePermissionDenied, MsgStaffForbidden)
	}

	ctx, gen, done, err := s.fence.next(ctx)
	if err != nil {
		return err
	}
	defer done()

	s.mu.Lock()
	s.loading = true
	s.loadErr = ""
	s.mu.Unlock()

	// A missing department list only affects ordering.
	depts, deptErr := s.svc.Departments(ctx)
	if deptErr != nil {
		s.logger.WithError(deptErr).Warn("department list unavailable")
	}
	dir, err := s.svc.Directory(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fence.closed() {
		s.loading = false
		return errors.New(errors.ErrCodeCancelled, "view closed")
	}
	if !s.fence.current(gen) {
		return nil
	}
	s.loading = false
	if err != nil {
		s.loadErr = "failed to load staff data, please try again later"
		if !quiet(err) {
			s.notifier.Error(s.loadErr)
		}
		return err
	}

	if deptErr == nil {
		s.departments = depts
		s.deptIDs = make(map[string]int, len(depts))
		for _, d := range depts {
			s.deptIDs[d.Name] = d.ID
		}
	}
	s.rows = FlattenDirectory(dir)
	return nil
}

// Rows returns the flattened directory.
func (s *StaffList) Rows() []StaffRow {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]StaffRow(nil), s.rows...)
}

// Groups returns the directory grouped by department.
func (s *StaffList) Groups() []StaffGroup {
	s.mu.Lock()
	defer s.mu.Unlock()
	return GroupStaff(s.rows, s.deptIDs)
}

// Departments returns the department options from the last load.
func (s *StaffList) Departments() []api.Department {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]api.Department(nil), s.departments...)
}

// Error is the message of the last failed load.
func (s *StaffList) Error() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadErr
}

// IsBoardLeader reports whether the signed-in user leads the board.
func (s *StaffList) IsBoardLeader() bool {
	uuid := s.session.User().UUID()
	if uuid == "" {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.rows {
		if r.Department == BoardDepartment && r.IsLeader && r.UUID == uuid {
			return true
		}
	}
	return false
}

// Edit opens the edit dialog for the employee.
func (s *StaffList) Edit(uuid string) (*StaffEdit, error) {
	s.mu.Lock()
	var row *StaffRow
	for i := range s.rows {
		if s.rows[i].UUID == uuid {
			r := s.rows[i]
			row = &r
			break
		}
	}
	deptID := 0
	if row != nil {
		deptID = s.deptIDs[row.Department]
	}
	s.mu.Unlock()

	if row == nil {
		return nil, validation("no such employee: " + uuid)
	}
	if row.Department == BoardDepartment && !s.IsBoardLeader() {
		s.notifier.Warning(MsgBoardEditForbidden)
		return nil, errors.New(errors.ErrCodePermissionDenied, MsgBoardEditForbidden)
	}
	return &StaffEdit{
		UUID:         row.UUID,
		Name:         row.Name,
		Email:        row.Email,
		Department:   row.Department,
		DepartmentID: deptID,
		Status:       row.Status,
		IsLeader:     row.IsLeader,
	}, nil
}

// Save submits the edit dialog. When the employee is marked leader they are
// also made leader of the chosen department. The directory is reloaded after.
func (s *StaffList) Save(ctx context.Context, edit StaffEdit) error {
	if edit.Department == BoardDepartment && !s.IsBoardLeader() {
		s.notifier.Warning(MsgBoardEditForbidden)
		return errors.New(errors.ErrCodePermissionDenied, MsgBoardEditForbidden)
	}
	if edit.DepartmentID != 0 {
		if name, ok := s.departmentName(edit.DepartmentID); ok {
			if edit.Department == BoardDepartment && name != BoardDepartment {
				s.notifier.Warning(MsgBoardMoveForbidden)
				return errors.New(errors.ErrCodePermissionDenied, MsgBoardMoveForbidden)
			}
			edit.Department = name
		}
	}
	if !ValidEmail(strings.TrimSpace(edit.Email)) {
		return validation("please enter a valid email address")
	}

	_, err := s.svc.Update(ctx, edit.UUID, api.StaffUpdate{
		Name:       strings.TrimSpace(edit.Name),
		Email:      strings.TrimSpace(edit.Email),
		Status:     edit.Status,
		IsLeader:   edit.IsLeader,
		Department: edit.DepartmentID,
	})
	if err == nil && edit.IsLeader && edit.DepartmentID != 0 {
		if err = s.svc.SetLeader(ctx, edit.DepartmentID, edit.UUID); err == nil {
			s.notifier.Success("department leader updated")
		}
	}
	if err != nil {
		if !quiet(err) {
			s.notifier.Error(messageOr(err, "failed to update staff"))
		}
		return err
	}

	s.notifier.Success("staff updated")
	if err := s.Load(ctx); err != nil {
		s.logger.WithError(err).Warn("reload after save failed")
	}
	return nil
}

func (s *StaffList) departmentName(id int) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, d := range s.departments {
		if d.ID == id {
			return d.Name, true
		}
	}
	return "", false
}

// Download exports the selected employees of one department.
func (s *StaffList) Download(ctx context.Context, department string, selected []string) (*Export, error) {
	want := make(map[string]bool, len(selected))
	for _, uuid := range selected {
		want[uuid] = true
	}
	var uuids []string
	for _, r := range s.Rows() {
		if (department == "" || r.Department == department) && want[r.UUID] {
			uuids = append(uuids, r.UUID)
		}
	}
	if len(uuids) == 0 {
		s.notifier.Warning(MsgNoStaffSelected)
		return nil, validation(MsgNoStaffSelected)
	}

	// The HTTP client already shows a notice when a download fails.
	resp, err := s.svc.Download(ctx, uuids...)
	if err != nil {
		return nil, err
	}
	export := NewExport(resp.Data, resp.Filename(), len(uuids))
	s.notifier.Success("staff data downloaded")
	return export, nil
}

// Close cancels in-flight loads.
func (s *StaffList) Close() { s.fence.close() }

// StaffForm is the add-employee form.
type StaffForm struct {
	Name     string
	Email    string
	Password string
}

// StaffAdd is the add-employee page. New staff join the signed-in leader's
// own department.
type StaffAdd struct {
	svc      StaffService
	session  SessionStore
	notifier Notifier
}

// NewStaffAdd creates the view model.
func NewStaffAdd(svc StaffService, store SessionStore, notifier Notifier) *StaffAdd {
	return &StaffAdd{svc: svc, session: store, notifier: notifier}
}

// Department returns the name and id the new employee will join.
func (a *StaffAdd) Department() (string, int) {
	u := a.session.User()
	return u.Department(), u.DepartmentID()
}

// Leader is the signed-in user's name, shown as the new employee's leader.
func (a *StaffAdd) Leader() string {
	return a.session.User().String("username")
}

// Submit validates and adds the employee.
func (a *StaffAdd) Submit(ctx context.Context, form StaffForm) (envelope.Record, error) {
	if !CheckPermission(a.session.User(), a.notifier) {
		return nil, errors.New(errors.ErrCodePermissionDenied, MsgStaffForbidden)
	}
	name := strings.TrimSpace(form.Name)
	email := strings.TrimSpace(form.Email)
	switch {
	case name == "":
		return nil, validation("please enter the employee's name")
	case email == "":
		return nil, validation("please enter the employee's email")
	case !ValidEmail(email):
		return nil, validation("please enter a valid email address")
	case form.Password == "":
		return nil, validation("please enter an initial password")
	}

	_, deptID := a.Department()
	if deptID == 0 {
		a.notifier.Warning("department information is invalid, please log in again")
		return nil, validation("department information is invalid")
	}

	rec, err := a.svc.Add(ctx, api.NewStaff{
		Username:   name,
		Password:   form.Password,
		Email:      email,
		Department: deptID,
	})
	if err != nil {
		if !quiet(err) {
			a.notifier.Error(messageOr(err, "failed to add staff"))
		}
		return nil, err
	}
	a.notifier.Success("staff added")
	return rec, nil
}
