package httpclient

import (
	"encoding/json"
	"net/http"

	"github.com/felixgeelhaar/oactl/internal/errors"
)

// Response is a successful (2xx) reply with its body fully read.
type Response struct {
	Status    int
	Header    http.Header
	Data      []byte
	RequestID string
}

// Decode unmarshals the JSON body into v.
func (r *Response) Decode(v any) error {
	if len(r.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(r.Data, v); err != nil {
		return errors.Wrap(errors.ErrCodeDecode, "unexpected response from server", err).WithStatus(r.Status)
	}
	return nil
}

// JSON decodes the body into generic values, for shape detection.
func (r *Response) JSON() (any, error) {
	var v any
	if err := r.Decode(&v); err != nil {
		return nil, err
	}
	return v, nil
}

// Filename returns the name from a Content-Disposition header, if any.
func (r *Response) Filename() string {
	cd := r.Header.Get("Content-Disposition")
	if cd == "" {
		return ""
	}
	return parseDispositionFilename(cd)
}
