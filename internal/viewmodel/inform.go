package viewmodel

import (
	"context"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/dustin/go-humanize"

	"github.com/felixgeelhaar/oactl/internal/api"
	"github.com/felixgeelhaar/oactl/internal/envelope"
	"github.com/felixgeelhaar/oactl/internal/errors"
	"github.com/felixgeelhaar/oactl/internal/log"
)

// InformService is the part of api.InformAPI the announcement pages use.
type InformService interface {
	List(ctx context.Context, page, pageSize int) (envelope.Page, error)
	Get(ctx context.Context, id int) (envelope.Record, error)
	Publish(ctx context.Context, in api.NewInform) (envelope.Record, error)
	Delete(ctx context.Context, id int) error
}

// InformSummary is one row of the announcement list.
type InformSummary struct {
	ID         int      `json:"id" yaml:"id"`
	Title      string   `json:"title" yaml:"title"`
	Author     string   `json:"author" yaml:"author"`
	Department string   `json:"department,omitempty" yaml:"department,omitempty"`
	Created    string   `json:"create_time" yaml:"create_time"`
	Public     bool     `json:"public" yaml:"public"`
	Targets    []string `json:"departments,omitempty" yaml:"departments,omitempty"`
}

func summarizeInform(r envelope.Record) InformSummary {
	author := envelope.AsRecord(r["author"])
	s := InformSummary{
		ID:         envelope.AsInt(r["id"]),
		Title:      envelope.AsString(r["title"]),
		Author:     envelope.AsString(author["username"]),
		Department: envelope.AsString(envelope.Path(author, "department", "name")),
		Created:    FormatTime(envelope.AsString(r["create_time"])),
		Public:     r["public"] == true,
	}
	for _, d := range envelope.Records(envelope.AsList(r["departments"])) {
		if name := envelope.AsString(d["name"]); name != "" {
			s.Targets = append(s.Targets, name)
		}
	}
	return s
}

// InformList is the announcement list with delete.
type InformList struct {
	svc       InformService
	notifier  Notifier
	confirmer Confirmer
	logger    *log.Logger
	fence     *fence

	mu      sync.Mutex
	items   []InformSummary
	loading bool
}

// NewInformList creates the view model.
func NewInformList(svc InformService, notifier Notifier, confirmer Confirmer, logger *log.Logger) *InformList {
	return &InformList{
		svc:       svc,
		notifier:  notifier,
		confirmer: confirmer,
		logger:    log.OrDefault(logger).With("view", "inform_list"),
		fence:     newFence(),
	}
}

// Items returns the announcements from the last load, first occurrence of
// each id only.
func (l *InformList) Items() []InformSummary {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]InformSummary(nil), l.items...)
}

// Loading reports whether a load is in flight.
func (l *InformList) Loading() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.loading
}

// Load fetches the announcement list.
func (l *InformList) Load(ctx context.Context) error {
	ctx, gen, done, err := l.fence.next(ctx)
	if err != nil {
		return err
	}
	defer done()

	l.mu.Lock()
	l.loading = true
	l.mu.Unlock()

	page, err := l.svc.List(ctx, 0, 0)

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.fence.closed() {
		l.loading = false
		return errors.New(errors.ErrCodeCancelled, "view closed")
	}
	if !l.fence.current(gen) {
		return nil
	}
	l.loading = false
	if err != nil {
		if !quiet(err) {
			l.notifier.Error("failed to load announcements")
		}
		return err
	}

	unique := envelope.Dedupe(page.Items)
	if dropped := len(page.Items) - len(unique); dropped > 0 {
		l.logger.Debug("dropped duplicate announcements", "count", dropped)
	}
	items := make([]InformSummary, 0, len(unique))
	for _, r := range envelope.Records(unique) {
		items = append(items, summarizeInform(r))
	}
	l.items = items
	return nil
}

// Delete asks for confirmation, then removes the announcement. It returns
// false with a nil error when the user declines.
func (l *InformList) Delete(ctx context.Context, id int) (bool, error) {
	ok, err := l.confirmer.Confirm("Delete announcement", "Are you sure you want to delete this announcement?")
	if err != nil {
		return false, err
	}
	if !ok {
		l.notifier.Info("delete cancelled")
		return false, nil
	}

	// The HTTP client already shows a notice when a delete fails.
	if err := l.svc.Delete(ctx, id); err != nil {
		return false, err
	}

	l.mu.Lock()
	kept := l.items[:0]
	for _, item := range l.items {
		if item.ID != id {
			kept = append(kept, item)
		}
	}
	l.items = kept
	l.mu.Unlock()

	l.notifier.Success("announcement deleted")
	return true, nil
}

// Close cancels in-flight loads.
func (l *InformList) Close() { l.fence.close() }

// InformView is one announcement ready to print.
type InformView struct {
	InformSummary `yaml:",inline"`
	HTML          string `json:"content" yaml:"-"`
	Text          string `json:"text" yaml:"text"`
}

// InformDetail is the announcement page.
type InformDetail struct {
	svc      InformService
	notifier Notifier
}

// NewInformDetail creates the view model.
func NewInformDetail(svc InformService, notifier Notifier) *InformDetail {
	return &InformDetail{svc: svc, notifier: notifier}
}

// Load fetches one announcement and renders its body as text.
func (d *InformDetail) Load(ctx context.Context, id int) (*InformView, error) {
	rec, err := d.svc.Get(ctx, id)
	if err != nil {
		if !quiet(err) {
			d.notifier.Error(messageOr(err, "failed to load announcement"))
		}
		return nil, err
	}
	content := envelope.AsString(rec["content"])
	return &InformView{
		InformSummary: summarizeInform(rec),
		HTML:          content,
		Text:          HTMLToText(content),
	}, nil
}

// DepartmentLister lists departments for the publish form.
type DepartmentLister interface {
	Departments(ctx context.Context) ([]api.Department, error)
}

// PublishForm is a new announcement.
type PublishForm struct {
	Title string
	// Body is HTML, or markdown when Markdown is set.
	Body          string
	Markdown      bool
	DepartmentIDs []int
}

// Validate checks the required fields.
func (f PublishForm) Validate() error {
	switch {
	case strings.TrimSpace(f.Title) == "":
		return validation("please enter a title")
	case strings.TrimSpace(f.Body) == "":
		return validation("please enter the content")
	case len(f.DepartmentIDs) == 0:
		return validation("please choose at least one department")
	}
	return nil
}

// InformPublish is the announcement authoring page.
type InformPublish struct {
	svc      InformService
	depts    DepartmentLister
	notifier Notifier

	mu          sync.Mutex
	departments []api.Department
	publishing  bool
}

// NewInformPublish creates the view model.
func NewInformPublish(svc InformService, depts DepartmentLister, notifier Notifier) *InformPublish {
	return &InformPublish{svc: svc, depts: depts, notifier: notifier}
}

// LoadDepartments fetches the departments that can be targeted. The first
// entry is always the "all departments" choice.
func (p *InformPublish) LoadDepartments(ctx context.Context) ([]api.Department, error) {
	depts, err := p.depts.Departments(ctx)
	if err != nil {
		if !quiet(err) {
			p.notifier.Error("failed to load departments, please try again later")
		}
		return nil, err
	}
	out := append([]api.Department{{ID: api.AllDepartments, Name: "all departments"}}, depts...)
	p.mu.Lock()
	p.departments = out
	p.mu.Unlock()
	return out, nil
}

// Publishing reports whether a publish is in flight.
func (p *InformPublish) Publishing() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.publishing
}

// Publish validates and submits the form. It returns the new announcement id.
func (p *InformPublish) Publish(ctx context.Context, form PublishForm) (int, error) {
	if err := form.Validate(); err != nil {
		return 0, err
	}

	content := form.Body
	if form.Markdown {
		html, err := RenderMarkdown(form.Body)
		if err != nil {
			return 0, validation("could not render markdown: " + err.Error())
		}
		content = html
	}

	p.mu.Lock()
	p.publishing = true
	p.mu.Unlock()
	defer func() {
		p.mu.Lock()
		p.publishing = false
		p.mu.Unlock()
	}()

	rec, err := p.svc.Publish(ctx, api.NewInform{
		Title:         strings.TrimSpace(form.Title),
		Content:       content,
		DepartmentIDs: form.DepartmentIDs,
	})
	if err != nil {
		if !quiet(err) {
			p.notifier.Error("failed to publish announcement, please try again later")
		}
		return 0, err
	}

	id := envelope.AsInt(rec["id"])
	p.notifier.Success(fmt.Sprintf("announcement published (id %d)", id))
	return id, nil
}

// Image upload limits.
const MaxImageSize = 1 << 20

// ImageUploader is the part of api.FileAPI used for announcement images.
type ImageUploader interface {
	UploadImage(ctx context.Context, filename string, r io.Reader) (*api.UploadResult, error)
}

// ImageUpload sends pictures for use in announcement bodies.
type ImageUpload struct {
	files    ImageUploader
	baseURL  string
	notifier Notifier
}

// NewImageUpload creates the uploader. baseURL prefixes the relative paths
// the backend returns.
func NewImageUpload(files ImageUploader, baseURL string, notifier Notifier) *ImageUpload {
	return &ImageUpload{files: files, baseURL: strings.TrimRight(baseURL, "/"), notifier: notifier}
}

// UploadedImage is an uploaded picture with absolute links.
type UploadedImage struct {
	URL  string `json:"url" yaml:"url"`
	Alt  string `json:"alt" yaml:"alt"`
	Href string `json:"href" yaml:"href"`
}

// Markdown returns an image reference to paste into a markdown body.
func (u UploadedImage) Markdown() string {
	return fmt.Sprintf("![%s](%s)", u.Alt, u.URL)
}

// Upload checks that path is an image no larger than MaxImageSize and
// uploads it.
func (u *ImageUpload) Upload(ctx context.Context, path string) (*UploadedImage, error) {
	if t := mime.TypeByExtension(strings.ToLower(filepath.Ext(path))); !strings.HasPrefix(t, "image/") {
		return nil, validation(fmt.Sprintf("%s is not an image", filepath.Base(path)))
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, validation(fmt.Sprintf("cannot read %s: %v", path, err))
	}
	if info.Size() > MaxImageSize {
		return nil, validation(fmt.Sprintf("%s is %s, the limit is %s",
			filepath.Base(path), humanize.IBytes(uint64(info.Size())), humanize.IBytes(MaxImageSize)))
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, validation(fmt.Sprintf("cannot read %s: %v", path, err))
	}
	defer f.Close()

	res, err := u.files.UploadImage(ctx, path, f)
	if err != nil {
		if !quiet(err) {
			u.notifier.Error(fmt.Sprintf("%s upload failed: %s", filepath.Base(path), messageOr(err, "upload failed")))
		}
		return nil, err
	}

	img := &UploadedImage{URL: u.absolute(res.URL), Alt: res.Alt}
	img.Href = img.URL
	if res.Href != "" {
		img.Href = u.absolute(res.Href)
	}
	u.notifier.Success("image uploaded")
	return img, nil
}

func (u *ImageUpload) absolute(ref string) string {
	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		return ref
	}
	return u.baseURL + "/" + strings.TrimLeft(ref, "/")
}
