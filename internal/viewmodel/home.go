package viewmodel

import (
	"context"
	"sync"

	"github.com/felixgeelhaar/oactl/internal/api"
	"github.com/felixgeelhaar/oactl/internal/envelope"
)

// HomeService is the part of api.HomeAPI the dashboard uses.
type HomeService interface {
	StaffCount(ctx context.Context) ([]api.DepartmentCount, error)
	LatestInforms(ctx context.Context) ([]envelope.Record, error)
	LatestAttendances(ctx context.Context) ([]envelope.Record, error)
}

// InformPreview is a dashboard announcement card.
type InformPreview struct {
	ID      int    `json:"id" yaml:"id"`
	Title   string `json:"title" yaml:"title"`
	Author  string `json:"author" yaml:"author"`
	Created string `json:"create_time" yaml:"create_time"`
	Preview string `json:"preview" yaml:"preview"`
}

// AttendancePreview is a dashboard attendance row.
type AttendancePreview struct {
	Date string `json:"date" yaml:"date"`
	Name string `json:"name" yaml:"name"`
	Type string `json:"type" yaml:"type"`
}

// Dashboard is everything the home page shows. A section that failed to
// load is empty.
type Dashboard struct {
	StaffCounts       []api.DepartmentCount `json:"staff_counts" yaml:"staff_counts"`
	LatestInforms     []InformPreview       `json:"latest_informs" yaml:"latest_informs"`
	LatestAttendances []AttendancePreview   `json:"latest_attendances" yaml:"latest_attendances"`
}

// TotalStaff sums the department headcounts.
func (d Dashboard) TotalStaff() int {
	total := 0
	for _, c := range d.StaffCounts {
		total += c.StaffCount
	}
	return total
}

// previewLength bounds the announcement text shown on a card, in runes.
const previewLength = 80

// Home is the dashboard.
type Home struct {
	svc      HomeService
	notifier Notifier
}

// NewHome creates the view model.
func NewHome(svc HomeService, notifier Notifier) *Home {
	return &Home{svc: svc, notifier: notifier}
}

// Load fetches the three sections concurrently. It returns the first error,
// but every section that succeeded is filled in.
func (h *Home) Load(ctx context.Context) (*Dashboard, error) {
	var (
		d        Dashboard
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)
	fail := func(err error, fallback string) {
		mu.Lock()
		defer mu.Unlock()
		if firstErr == nil {
			firstErr = err
		}
		if !quiet(err) {
			h.notifier.Error(messageOr(err, fallback))
		}
	}

	wg.Add(3)
	go func() {
		defer wg.Done()
		counts, err := h.svc.StaffCount(ctx)
		if err != nil {
			fail(err, "failed to load staff counts")
			return
		}
		d.StaffCounts = counts
	}()
	go func() {
		defer wg.Done()
		recs, err := h.svc.LatestInforms(ctx)
		if err != nil {
			fail(err, "failed to load latest announcements")
			return
		}
		d.LatestInforms = informPreviews(recs)
	}()
	go func() {
		defer wg.Done()
		recs, err := h.svc.LatestAttendances(ctx)
		if err != nil {
			fail(err, "failed to load latest attendance")
			return
		}
		d.LatestAttendances = attendancePreviews(recs)
	}()
	wg.Wait()

	return &d, firstErr
}

func dedupeRecords(recs []envelope.Record) []envelope.Record {
	items := make([]any, len(recs))
	for i, r := range recs {
		items[i] = map[string]any(r)
	}
	return envelope.Records(envelope.Dedupe(items))
}

func informPreviews(recs []envelope.Record) []InformPreview {
	recs = dedupeRecords(recs)
	out := make([]InformPreview, 0, len(recs))
	for _, r := range recs {
		out = append(out, InformPreview{
			ID:      envelope.AsInt(r["id"]),
			Title:   envelope.AsString(r["title"]),
			Author:  envelope.AsString(envelope.Path(r, "author", "username")),
			Created: FormatTime(envelope.AsString(r["create_time"])),
			Preview: truncate(StripHTML(envelope.AsString(r["content"])), previewLength),
		})
	}
	return out
}

func attendancePreviews(recs []envelope.Record) []AttendancePreview {
	recs = dedupeRecords(recs)
	out := make([]AttendancePreview, 0, len(recs))
	for _, r := range recs {
		created := envelope.AsString(r["create_time"])
		for _, key := range []string{"createDate", "created_at"} {
			if created == "" {
				created = envelope.AsString(r[key])
			}
		}
		name := envelope.AsString(r["requester_name"])
		if name == "" {
			name = envelope.AsString(envelope.Path(r, "requester", "username"))
		}
		if name == "" {
			name = "unknown employee"
		}
		typ := envelope.AsString(envelope.Path(r, "attendance_type", "name"))
		if typ == "" {
			typ = "unknown type"
		}
		out = append(out, AttendancePreview{Date: FormatTime(created), Name: name, Type: typ})
	}
	return out
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "…"
}
