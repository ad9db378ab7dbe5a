package api

import (
	"context"
	"fmt"
	"time"

	"github.com/felixgeelhaar/oactl/internal/envelope"
	"github.com/felixgeelhaar/oactl/internal/errors"
	"github.com/felixgeelhaar/oactl/internal/log"
	"github.com/felixgeelhaar/oactl/internal/session"
)

// Who selects which side of an attendance request to list.
type Who string

const (
	// WhoRequester lists requests the current user submitted.
	WhoRequester Who = "requester"
	// WhoResponder lists requests waiting on the current user's approval.
	WhoResponder Who = "responser"
)

// Attendance request states.
const (
	StatusPending  = 1
	StatusApproved = 2
	StatusRejected = 3
)

// StatusLabel names an attendance state.
func StatusLabel(status int) string {
	switch status {
	case StatusPending:
		return "pending"
	case StatusApproved:
		return "approved"
	case StatusRejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// AttendanceType is a leave category such as sick leave.
type AttendanceType struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// NewAttendance is a leave request.
type NewAttendance struct {
	Title            string    `json:"title"`
	AttendanceTypeID int       `json:"attendance_type_id"`
	RequestContent   string    `json:"request_content"`
	StartTime        time.Time `json:"-"`
	EndTime          time.Time `json:"-"`
}

// AttendanceAPI wraps Attendance/.
type AttendanceAPI struct {
	t      Transport
	logger *log.Logger
}

// Types lists the leave categories.
func (a *AttendanceAPI) Types(ctx context.Context) ([]AttendanceType, error) {
	resp, err := a.t.Get(ctx, "/Attendance/attendance-type/", nil)
	if err != nil {
		return nil, err
	}
	page, err := decodePage(resp, a.logger)
	if err != nil {
		return nil, err
	}

	types := make([]AttendanceType, 0, len(page.Items))
	for _, r := range page.Records() {
		types = append(types, AttendanceType{ID: envelope.AsInt(r["id"]), Name: envelope.AsString(r["name"])})
	}
	return types, nil
}

// List returns one page of requests for who.
func (a *AttendanceAPI) List(ctx context.Context, who Who, page, pageSize int) (envelope.Page, error) {
	resp, err := a.t.Get(ctx, "/Attendance/attendance/", map[string]any{
		"params": map[string]any{
			"who":       string(who),
			"page":      page,
			"page_size": pageSize,
		},
	})
	if err != nil {
		return envelope.Page{}, err
	}
	return decodePage(resp, a.logger)
}

// Create submits a leave request. Times are sent as "2006-01-02 15:04:05".
func (a *AttendanceAPI) Create(ctx context.Context, req NewAttendance) (envelope.Record, error) {
	body := map[string]any{
		"title":              req.Title,
		"attendance_type_id": req.AttendanceTypeID,
		"request_content":    req.RequestContent,
		"start_time":         req.StartTime.Format(time.DateTime),
		"end_time":           req.EndTime.Format(time.DateTime),
	}
	resp, err := a.t.Post(ctx, "/Attendance/attendance/", body, nil)
	if err != nil {
		return nil, withDetail(err, attendanceLabels)
	}
	return decodeRecord(resp)
}

// Approve sets a request to StatusApproved or StatusRejected.
func (a *AttendanceAPI) Approve(ctx context.Context, id int, status int, content string) (envelope.Record, error) {
	if status != StatusApproved && status != StatusRejected {
		return nil, errors.Newf(errors.ErrCodeValidation, "invalid approval status %d", status)
	}
	resp, err := a.t.Put(ctx, fmt.Sprintf("/Attendance/attendance/%d/", id), map[string]any{
		"status":           status,
		"approval_content": content,
	}, nil)
	if err != nil {
		return nil, withDetail(err, nil)
	}
	return decodeRecord(resp)
}

// Responder returns the user who approves the current user's requests.
func (a *AttendanceAPI) Responder(ctx context.Context) (session.User, error) {
	resp, err := a.t.Get(ctx, "/Attendance/attendance-responser/", nil)
	if err != nil {
		return nil, err
	}
	var u session.User
	if err := resp.Decode(&u); err != nil {
		return nil, err
	}
	if u == nil {
		u = session.User{}
	}
	return u, nil
}
