package api

import (
	"context"
	"fmt"

	"github.com/felixgeelhaar/oactl/internal/envelope"
	"github.com/felixgeelhaar/oactl/internal/log"
)

// AllDepartments as the only department id publishes to everyone.
const AllDepartments = 0

// NewInform is an announcement to publish. Content is HTML.
type NewInform struct {
	Title         string `json:"title"`
	Content       string `json:"content"`
	DepartmentIDs []int  `json:"department_ids"`
}

// InformAPI wraps inform/.
type InformAPI struct {
	t      Transport
	logger *log.Logger
}

// List returns announcements visible to the current user. A page of 0 asks
// for the backend's default.
func (a *InformAPI) List(ctx context.Context, page, pageSize int) (envelope.Page, error) {
	var cfg any
	if page > 0 {
		params := map[string]any{"page": page}
		if pageSize > 0 {
			params["page_size"] = pageSize
		}
		cfg = params
	}
	resp, err := a.t.Get(ctx, "/inform/inform/", cfg)
	if err != nil {
		return envelope.Page{}, err
	}
	return decodePage(resp, a.logger)
}

// Get fetches one announcement. The backend records the read.
func (a *InformAPI) Get(ctx context.Context, id int) (envelope.Record, error) {
	resp, err := a.t.Get(ctx, fmt.Sprintf("/inform/inform/%d/", id), nil)
	if err != nil {
		return nil, err
	}
	return decodeRecord(resp)
}

// Publish creates an announcement.
func (a *InformAPI) Publish(ctx context.Context, in NewInform) (envelope.Record, error) {
	if len(in.DepartmentIDs) == 0 {
		in.DepartmentIDs = []int{AllDepartments}
	}
	resp, err := a.t.Post(ctx, "/inform/inform/", in, nil)
	if err != nil {
		return nil, err
	}
	return decodeRecord(resp)
}

// Delete removes an announcement the current user authored.
func (a *InformAPI) Delete(ctx context.Context, id int) error {
	_, err := a.t.Delete(ctx, fmt.Sprintf("/inform/inform/%d/", id))
	return err
}
