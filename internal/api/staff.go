package api

import (
	"context"
	"fmt"
	"strings"

	"github.com/felixgeelhaar/oactl/internal/envelope"
	"github.com/felixgeelhaar/oactl/internal/errors"
	"github.com/felixgeelhaar/oactl/internal/httpclient"
	"github.com/felixgeelhaar/oactl/internal/log"
)

// Staff states.
const (
	StaffInactive = 0
	StaffActive   = 1
	StaffLeft     = 2
)

// StaffStatusLabel names a staff state.
func StaffStatusLabel(status int) string {
	switch status {
	case StaffInactive:
		return "inactive"
	case StaffActive:
		return "active"
	case StaffLeft:
		return "left"
	default:
		return "unknown"
	}
}

// Department is one organisational unit.
type Department struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// NewStaff is the payload for adding an employee.
type NewStaff struct {
	Username   string `json:"username"`
	Password   string `json:"password"`
	Email      string `json:"email"`
	Department int    `json:"department"`
}

// StaffUpdate is the editable subset of an employee.
type StaffUpdate struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	Status     int    `json:"status"`
	IsLeader   bool   `json:"isLeader"`
	Department int    `json:"department"`
}

// DepartmentStaff is one department's entry in the staff directory.
type DepartmentStaff struct {
	Leader  []envelope.Record
	Members []envelope.Record
}

// StaffAPI wraps staff/ and the leader endpoint of officeAuth/.
type StaffAPI struct {
	t      Transport
	logger *log.Logger
}

// Departments lists every department.
func (s *StaffAPI) Departments(ctx context.Context) ([]Department, error) {
	resp, err := s.t.Get(ctx, "staff/department/", nil)
	if err != nil {
		return nil, err
	}
	page, err := decodePage(resp, s.logger)
	if err != nil {
		return nil, err
	}
	out := make([]Department, 0, len(page.Items))
	for _, r := range page.Records() {
		out = append(out, Department{ID: envelope.AsInt(r["id"]), Name: envelope.AsString(r["name"])})
	}
	return out, nil
}

// Directory returns staff grouped by department name. The backend decides
// which departments the current user may see.
func (s *StaffAPI) Directory(ctx context.Context) (map[string]DepartmentStaff, error) {
	resp, err := s.t.Get(ctx, "staff/user/", nil)
	if err != nil {
		return nil, err
	}
	body, err := resp.JSON()
	if err != nil {
		return nil, err
	}

	raw := envelope.AsRecord(body)
	if raw == nil {
		s.logger.Warn("unexpected staff directory shape")
		return map[string]DepartmentStaff{}, nil
	}
	out := make(map[string]DepartmentStaff, len(raw))
	for name, value := range raw {
		dept := envelope.AsRecord(value)
		if dept == nil {
			continue
		}
		out[name] = DepartmentStaff{
			Leader:  envelope.Records(envelope.AsList(dept["leader"])),
			Members: envelope.Records(envelope.AsList(dept["members"])),
		}
	}
	return out, nil
}

// Add creates an employee. All fields are required.
func (s *StaffAPI) Add(ctx context.Context, in NewStaff) (envelope.Record, error) {
	var missing []string
	if in.Username == "" {
		missing = append(missing, "username")
	}
	if in.Password == "" {
		missing = append(missing, "password")
	}
	if in.Email == "" {
		missing = append(missing, "email")
	}
	if in.Department == 0 {
		missing = append(missing, "department")
	}
	if len(missing) > 0 {
		return nil, errors.Newf(errors.ErrCodeValidation, "missing required staff fields: %s", strings.Join(missing, ", "))
	}

	resp, err := s.t.Post(ctx, "staff/staff/", in, nil)
	if err != nil {
		return nil, withDetail(err, staffAddLabels)
	}
	return decodeRecord(resp)
}

// Update edits an employee identified by uuid.
func (s *StaffAPI) Update(ctx context.Context, uuid string, in StaffUpdate) (envelope.Record, error) {
	if uuid == "" {
		return nil, errors.New(errors.ErrCodeValidation, "missing staff uuid")
	}
	resp, err := s.t.Put(ctx, fmt.Sprintf("staff/staff/edit/%s/", uuid), in, nil)
	if err != nil {
		return nil, withDetail(err, staffUpdateLabels)
	}
	return decodeRecord(resp)
}

// SetLeader makes the employee the leader of the department.
func (s *StaffAPI) SetLeader(ctx context.Context, departmentID int, leaderUUID string) error {
	if departmentID == 0 || leaderUUID == "" {
		return errors.New(errors.ErrCodeValidation, "missing department id or new leader uuid")
	}
	_, err := s.t.Post(ctx, "officeAuth/department/update-leader/", map[string]any{
		"department_id":   departmentID,
		"new_leader_uuid": leaderUUID,
	}, nil)
	if err != nil {
		return withDetail(err, setLeaderLabels)
	}
	return nil
}

// Download exports the given employees as an xlsx workbook.
func (s *StaffAPI) Download(ctx context.Context, uuids ...string) (*httpclient.Response, error) {
	if len(uuids) == 0 {
		return nil, errors.New(errors.ErrCodeValidation, "select at least one employee to download")
	}
	return s.t.Download(ctx, "staff/download/", httpclient.Params{"uuid": uuids})
}
