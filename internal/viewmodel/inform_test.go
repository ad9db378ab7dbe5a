package viewmodel

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/oactl/internal/api"
	"github.com/felixgeelhaar/oactl/internal/envelope"
	oaerrors "github.com/felixgeelhaar/oactl/internal/errors"
	"github.com/felixgeelhaar/oactl/internal/log"
)

func informPage() envelope.Page {
	return envelope.Page{Items: []any{
		map[string]any{"id": 1.0, "title": "a", "author": map[string]any{"username": "ann"}},
		map[string]any{"id": 2.0, "title": "b"},
		map[string]any{"id": 1.0, "title": "c"},
	}}
}

func TestInformListDedupes(t *testing.T) {
	vm := NewInformList(&fakeInform{page: informPage()}, &fakeNotifier{}, &fakeConfirmer{}, log.Discard())

	require.NoError(t, vm.Load(context.Background()))
	items := vm.Items()
	require.Len(t, items, 2)
	assert.Equal(t, "a", items[0].Title, "first occurrence wins")
	assert.Equal(t, "ann", items[0].Author)
	assert.Equal(t, "b", items[1].Title)
	assert.False(t, vm.Loading())
}

func TestInformDeleteConfirmed(t *testing.T) {
	svc := &fakeInform{page: informPage()}
	notifier := &fakeNotifier{}
	vm := NewInformList(svc, notifier, &fakeConfirmer{answer: true}, log.Discard())
	require.NoError(t, vm.Load(context.Background()))

	ok, err := vm.Delete(context.Background(), 1)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []int{1}, svc.deleted)
	require.Len(t, vm.Items(), 1)
	assert.Equal(t, 2, vm.Items()[0].ID)
	assert.Equal(t, []string{"announcement deleted"}, notifier.messages("success"))
}

func TestInformDeleteDeclined(t *testing.T) {
	svc := &fakeInform{page: informPage()}
	notifier := &fakeNotifier{}
	confirmer := &fakeConfirmer{answer: false}
	vm := NewInformList(svc, notifier, confirmer, log.Discard())

	ok, err := vm.Delete(context.Background(), 1)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 1, confirmer.asked)
	assert.Empty(t, svc.deleted)
	assert.Equal(t, []string{"delete cancelled"}, notifier.messages("info"))
}

func TestInformDeleteFailureNotNotifiedTwice(t *testing.T) {
	svc := &fakeInform{err: oaerrors.New(oaerrors.ErrCodeClient, "not yours").WithStatus(403)}
	notifier := &fakeNotifier{}
	vm := NewInformList(svc, notifier, &fakeConfirmer{answer: true}, log.Discard())

	ok, err := vm.Delete(context.Background(), 1)
	require.Error(t, err)
	assert.False(t, ok)
	assert.Empty(t, notifier.messages("error"))
}

func TestInformDeleteConfirmError(t *testing.T) {
	svc := &fakeInform{}
	vm := NewInformList(svc, &fakeNotifier{}, &fakeConfirmer{err: errors.New("no tty")}, log.Discard())

	_, err := vm.Delete(context.Background(), 1)
	assert.EqualError(t, err, "no tty")
	assert.Empty(t, svc.deleted)
}

func TestInformDetail(t *testing.T) {
	svc := &fakeInform{record: envelope.Record{
		"id":          3.0,
		"title":       "Holiday",
		"content":     "<p>Office closed</p><p>See you &amp; yours</p>",
		"departments": []any{map[string]any{"name": "R&D"}},
	}}
	view, err := NewInformDetail(svc, &fakeNotifier{}).Load(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, "Holiday", view.Title)
	assert.Equal(t, "Office closed\n\nSee you & yours", view.Text)
	assert.Equal(t, []string{"R&D"}, view.Targets)
}

func TestInformPublish(t *testing.T) {
	svc := &fakeInform{}
	notifier := &fakeNotifier{}
	vm := NewInformPublish(svc, &fakeStaff{depts: []api.Department{{ID: 2, Name: "R&D"}}}, notifier)
	ctx := context.Background()

	depts, err := vm.LoadDepartments(ctx)
	require.NoError(t, err)
	require.Len(t, depts, 2)
	assert.Equal(t, api.AllDepartments, depts[0].ID)

	_, err = vm.Publish(ctx, PublishForm{Title: "t", Body: "b"})
	assert.EqualError(t, err, "please choose at least one department")
	_, err = vm.Publish(ctx, PublishForm{Title: " ", Body: "b", DepartmentIDs: []int{0}})
	assert.EqualError(t, err, "please enter a title")

	id, err := vm.Publish(ctx, PublishForm{Title: "t", Body: "**bold**", Markdown: true, DepartmentIDs: []int{2}})
	require.NoError(t, err)
	assert.Equal(t, 42, id)
	require.Len(t, svc.published, 1)
	assert.Contains(t, svc.published[0].Content, "<strong>bold</strong>")
	assert.Equal(t, []int{2}, svc.published[0].DepartmentIDs)
	assert.False(t, vm.Publishing())
	assert.Equal(t, []string{"announcement published (id 42)"}, notifier.messages("success"))
}

func TestImageUpload(t *testing.T) {
	dir := t.TempDir()
	png := filepath.Join(dir, "chart.png")
	require.NoError(t, os.WriteFile(png, []byte("fake-png"), 0o600))

	files := &fakeUploader{res: &api.UploadResult{URL: "/media/chart.png"}}
	up := NewImageUpload(files, "http://oa.local/", &fakeNotifier{})

	img, err := up.Upload(context.Background(), png)
	require.NoError(t, err)
	assert.Equal(t, "http://oa.local/media/chart.png", img.URL)
	assert.Equal(t, img.URL, img.Href)
	assert.Equal(t, "![](http://oa.local/media/chart.png)", img.Markdown())
	assert.Equal(t, "fake-png", files.body)

	txt := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(txt, []byte("x"), 0o600))
	_, err = up.Upload(context.Background(), txt)
	assert.True(t, oaerrors.IsKind(err, oaerrors.KindValidation))

	big := filepath.Join(dir, "big.jpg")
	require.NoError(t, os.WriteFile(big, []byte(strings.Repeat("x", MaxImageSize+1)), 0o600))
	_, err = up.Upload(context.Background(), big)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "the limit is 1.0 MiB")
}
