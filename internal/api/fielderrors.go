package api

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/felixgeelhaar/oactl/internal/errors"
)

// Field labels used when rewriting validation errors for display.
var (
	staffAddLabels = map[string]string{
		"username":   "username",
		"password":   "password",
		"email":      "email",
		"department": "department",
	}
	staffUpdateLabels = map[string]string{
		"username":   "username",
		"name":       "name",
		"email":      "email",
		"department": "department",
		"status":     "status",
		"isLeader":   "is leader",
	}
	setLeaderLabels = map[string]string{
		"department_id":   "department id",
		"new_leader_uuid": "new leader uuid",
	}
	attendanceLabels = map[string]string{
		"attendance_type_id": "attendance type",
		"request_content":    "reason",
		"start_time":         "start time",
		"end_time":           "end time",
	}
	passwordLabels = map[string]string{
		"old_password":     "old password",
		"new_password":     "new password",
		"confirm_password": "confirm password",
	}
)

// withDetail rewrites a 4xx error's message from the body: "detail" (or
// "error_message") wins; otherwise field errors are joined as
// "label: msg, msg; label: msg". The original error stays in the chain.
func withDetail(err error, labels map[string]string) error {
	oaErr, ok := errors.As(err)
	if !ok || oaErr.Status < 400 || oaErr.Status >= 500 || len(oaErr.Body) == 0 {
		return err
	}

	msg := detailMessage(oaErr.Body, labels)
	if msg == "" || msg == oaErr.Message {
		return err
	}

	enriched := errors.Wrap(oaErr.Code, msg, err).WithStatus(oaErr.Status).WithBody(oaErr.Body)
	enriched.Kind = oaErr.Kind
	enriched.Fields = oaErr.Fields
	return enriched
}

func detailMessage(body []byte, labels map[string]string) string {
	var data map[string]any
	if json.Unmarshal(body, &data) != nil {
		return ""
	}

	for _, key := range []string{"detail", "error_message"} {
		switch v := data[key].(type) {
		case string:
			if v != "" {
				return v
			}
		case map[string]any:
			// Login and password views nest serializer errors under "detail".
			if msg := joinFields(v, labels); msg != "" {
				return msg
			}
		}
	}

	delete(data, "message")
	delete(data, "code")
	return joinFields(data, labels)
}

func joinFields(fields map[string]any, labels map[string]string) string {
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		msgs := messages(fields[name])
		if len(msgs) == 0 {
			continue
		}
		label := name
		if l, ok := labels[name]; ok {
			label = l
		}
		if name == "non_field_errors" {
			parts = append(parts, strings.Join(msgs, ", "))
			continue
		}
		parts = append(parts, fmt.Sprintf("%s: %s", label, strings.Join(msgs, ", ")))
	}
	return strings.Join(parts, "; ")
}

func messages(v any) []string {
	switch m := v.(type) {
	case string:
		return []string{m}
	case []any:
		out := make([]string, 0, len(m))
		for _, item := range m {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}
