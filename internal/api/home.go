package api

import (
	"context"

	"github.com/felixgeelhaar/oactl/internal/envelope"
	"github.com/felixgeelhaar/oactl/internal/log"
)

// DepartmentCount is a dashboard headcount row.
type DepartmentCount struct {
	Name       string `json:"name"`
	StaffCount int    `json:"staff_count"`
}

// HomeAPI wraps home/.
type HomeAPI struct {
	t      Transport
	logger *log.Logger
}

// StaffCount returns the headcount per department.
func (h *HomeAPI) StaffCount(ctx context.Context) ([]DepartmentCount, error) {
	page, err := h.list(ctx, "home/department/staff/count/")
	if err != nil {
		return nil, err
	}
	out := make([]DepartmentCount, 0, len(page.Items))
	for _, r := range page.Records() {
		out = append(out, DepartmentCount{
			Name:       envelope.AsString(r["name"]),
			StaffCount: envelope.AsInt(r["staff_count"]),
		})
	}
	return out, nil
}

// LatestInforms returns the newest announcements.
func (h *HomeAPI) LatestInforms(ctx context.Context) ([]envelope.Record, error) {
	page, err := h.list(ctx, "home/latest/inform/")
	if err != nil {
		return nil, err
	}
	return page.Records(), nil
}

// LatestAttendances returns the newest attendance requests.
func (h *HomeAPI) LatestAttendances(ctx context.Context) ([]envelope.Record, error) {
	page, err := h.list(ctx, "home/latest/attendance/")
	if err != nil {
		return nil, err
	}
	return page.Records(), nil
}

func (h *HomeAPI) list(ctx context.Context, path string) (envelope.Page, error) {
	resp, err := h.t.Get(ctx, path, nil)
	if err != nil {
		return envelope.Page{}, err
	}
	return decodePage(resp, h.logger)
}
