package api

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"path/filepath"

	"github.com/felixgeelhaar/oactl/internal/errors"
	"github.com/felixgeelhaar/oactl/internal/httpclient"
)

// UploadResult locates an uploaded image.
type UploadResult struct {
	URL  string `json:"url"`
	Alt  string `json:"alt"`
	Href string `json:"href"`
}

// FileAPI wraps file/.
type FileAPI struct {
	t Transport
}

// UploadImage sends r as the multipart field "img". The backend answers 200
// even on failure and signals it with a non-zero errno.
func (f *FileAPI) UploadImage(ctx context.Context, filename string, r io.Reader) (*UploadResult, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("img", filepath.Base(filename))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeUnknown, "failed to build upload", err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return nil, errors.Wrap(errors.ErrCodeUnknown, "failed to read upload", err)
	}
	if err := w.Close(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeUnknown, "failed to build upload", err)
	}

	resp, err := f.t.Post(ctx, "file/upload/", httpclient.RawBody{
		Reader:      &buf,
		ContentType: w.FormDataContentType(),
	}, nil)
	if err != nil {
		return nil, withDetail(err, map[string]string{"img": "image"})
	}

	var out struct {
		Errno   int          `json:"errno"`
		Message string       `json:"message"`
		Data    UploadResult `json:"data"`
	}
	if err := resp.Decode(&out); err != nil {
		return nil, err
	}
	if out.Errno != 0 {
		msg := out.Message
		if msg == "" {
			msg = "image upload failed"
		}
		return nil, errors.New(errors.ErrCodeServer, msg)
	}
	return &out.Data, nil
}
