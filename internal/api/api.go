// Package api maps each backend resource family onto typed calls. It only
// shapes requests and decodes replies; classification of failures happens in
// httpclient.
package api

import (
	"context"

	"github.com/felixgeelhaar/oactl/internal/envelope"
	"github.com/felixgeelhaar/oactl/internal/httpclient"
	"github.com/felixgeelhaar/oactl/internal/log"
)

// Transport is the part of *httpclient.Client the modules use.
type Transport interface {
	Get(ctx context.Context, path string, cfg any) (*httpclient.Response, error)
	Post(ctx context.Context, path string, body any, cfg *httpclient.RequestConfig) (*httpclient.Response, error)
	Put(ctx context.Context, path string, body any, cfg *httpclient.RequestConfig) (*httpclient.Response, error)
	Delete(ctx context.Context, path string) (*httpclient.Response, error)
	Download(ctx context.Context, path string, params httpclient.Params) (*httpclient.Response, error)
}

// API groups the resource modules over one transport.
type API struct {
	Auth       *AuthAPI
	Attendance *AttendanceAPI
	Inform     *InformAPI
	Staff      *StaffAPI
	Home       *HomeAPI
	Files      *FileAPI
}

// New wires every module to t.
func New(t Transport, logger *log.Logger) *API {
	logger = log.OrDefault(logger).With("component", "api")
	return &API{
		Auth:       &AuthAPI{t: t},
		Attendance: &AttendanceAPI{t: t, logger: logger},
		Inform:     &InformAPI{t: t, logger: logger},
		Staff:      &StaffAPI{t: t, logger: logger},
		Home:       &HomeAPI{t: t, logger: logger},
		Files:      &FileAPI{t: t},
	}
}

func decodePage(resp *httpclient.Response, logger *log.Logger) (envelope.Page, error) {
	body, err := resp.JSON()
	if err != nil {
		return envelope.Page{}, err
	}
	return envelope.Normalize(body, logger), nil
}

func decodeRecord(resp *httpclient.Response) (envelope.Record, error) {
	var r envelope.Record
	if err := resp.Decode(&r); err != nil {
		return nil, err
	}
	if r == nil {
		r = envelope.Record{}
	}
	return r, nil
}
