package httpclient

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"net"
	"net/http"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/oactl/internal/errors"
)

// HeaderRequestID correlates a request with backend logs.
const HeaderRequestID = "X-Request-ID"

// User-facing messages, one per failure class.
const (
	MsgTimeout        = "request timed out, please try again later"
	MsgNetwork        = "network error, please check your connection"
	MsgServer         = "server unavailable, please try again later"
	MsgClientFallback = "request failed, please check your input"
	MsgUnknown        = "unknown error"
	MsgCancelled      = "request cancelled"
	MsgSessionExpired = "session expired, please log in again"
	MsgDeleteFailed   = "failed to delete announcement"
	MsgDownloadFailed = "failed to download data"
)

// injectToken reads the token from durable storage on every request so that a
// login or logout in another process is observed immediately.
func (c *Client) injectToken(req *http.Request) {
	if strings.Contains(req.URL.Path, c.cfg.LoginPath) {
		return
	}
	if c.session == nil {
		return
	}
	if token := c.session.PersistedToken(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
}

func injectRequestID(req *http.Request) {
	if req.Header.Get(HeaderRequestID) == "" {
		req.Header.Set(HeaderRequestID, uuid.NewString())
	}
}

// normalize turns a transport error or a non-2xx response into an OAError.
// Exactly one of resp and err is non-nil.
func (c *Client) normalize(ctx context.Context, resp *Response, err error) error {
	if err != nil {
		return classifyTransport(ctx, err)
	}

	status := resp.Status
	body := decodeErrorBody(resp.Data)

	var oaErr *errors.OAError
	switch {
	case status >= 500:
		oaErr = errors.New(errors.ErrCodeServer, MsgServer)
	case status == http.StatusUnauthorized:
		oaErr = errors.New(errors.ErrCodeUnauthorized, clientMessage(body))
		c.expireSession()
	case status >= 400:
		oaErr = errors.New(errors.ErrCodeClient, clientMessage(body))
	default:
		oaErr = errors.New(errors.ErrCodeUnknown, MsgUnknown)
	}

	oaErr.WithStatus(status).WithBody(resp.Data)
	if status >= 400 && status < 500 {
		if fields := fieldErrors(body); len(fields) > 0 {
			oaErr.WithFields(fields)
		}
	}
	if resp.RequestID != "" {
		oaErr.WithSuggestion("request id: " + resp.RequestID)
	}
	return oaErr
}

// expireSession drops the stored token and lets the guard decide whether to
// notify and redirect.
func (c *Client) expireSession() {
	if c.session != nil {
		if err := c.session.ExpireToken(); err != nil {
			c.logger.WithError(err).Warn("failed to remove expired token")
		}
	}
	c.guard.Trigger()
}

func classifyTransport(ctx context.Context, err error) error {
	var netErr net.Error
	switch {
	case stderrors.Is(err, context.Canceled) && ctx.Err() != nil:
		return errors.Wrap(errors.ErrCodeCancelled, MsgCancelled, err)
	case stderrors.Is(err, context.DeadlineExceeded):
		return errors.Wrap(errors.ErrCodeTimeout, MsgTimeout, err)
	case stderrors.As(err, &netErr) && netErr.Timeout():
		return errors.Wrap(errors.ErrCodeTimeout, MsgTimeout, err)
	case stderrors.As(err, &netErr):
		return errors.Wrap(errors.ErrCodeNetwork, MsgNetwork, err)
	default:
		msg := err.Error()
		if msg == "" {
			msg = MsgUnknown
		}
		return errors.Wrap(errors.ErrCodeUnknown, msg, err)
	}
}

func decodeErrorBody(data []byte) map[string]any {
	var body map[string]any
	if len(data) == 0 || json.Unmarshal(data, &body) != nil {
		return nil
	}
	return body
}

func clientMessage(body map[string]any) string {
	if msg, ok := body["message"].(string); ok && msg != "" {
		return msg
	}
	return MsgClientFallback
}

// fieldErrors extracts {"field": ["msg", ...]} style validation detail.
func fieldErrors(body map[string]any) map[string][]string {
	fields := make(map[string][]string)
	for key, value := range body {
		switch key {
		case "message", "detail", "code":
			continue
		}
		switch v := value.(type) {
		case string:
			fields[key] = []string{v}
		case []any:
			var msgs []string
			for _, item := range v {
				if s, ok := item.(string); ok {
					msgs = append(msgs, s)
				}
			}
			if len(msgs) > 0 {
				fields[key] = msgs
			}
		}
	}
	return fields
}

// FieldNames returns the field names of an error's validation detail, sorted.
func FieldNames(err error) []string {
	oaErr, ok := errors.As(err)
	if !ok {
		return nil
	}
	names := make([]string, 0, len(oaErr.Fields))
	for name := range oaErr.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
