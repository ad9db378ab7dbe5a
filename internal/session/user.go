package session

import (
	"encoding/json"
	"strconv"
)

// User is the backend's user record. The client does not enforce a schema;
// accessors tolerate missing fields and loosely typed values.
type User map[string]any

// String returns the field as text. Numbers are formatted without a trailing
// ".0"; anything else non-string yields "".
func (u User) String(key string) string {
	switch v := u[key].(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	case json.Number:
		return v.String()
	default:
		return ""
	}
}

// Bool accepts both true and the string "true", which the backend uses
// interchangeably for role flags.
func (u User) Bool(key string) bool {
	switch v := u[key].(type) {
	case bool:
		return v
	case string:
		return v == "true"
	default:
		return false
	}
}

// Int returns a numeric field, or false if absent or not a number.
func (u User) Int(key string) (int, bool) {
	switch v := u[key].(type) {
	case float64:
		return int(v), true
	case int:
		return v, true
	case json.Number:
		n, err := v.Int64()
		return int(n), err == nil
	case string:
		n, err := strconv.Atoi(v)
		return n, err == nil
	default:
		return 0, false
	}
}

// Object returns a nested record such as "department".
func (u User) Object(key string) User {
	if m, ok := u[key].(map[string]any); ok {
		return User(m)
	}
	return User{}
}

// Empty reports whether the record has no fields.
func (u User) Empty() bool { return len(u) == 0 }

func (u User) IsSuperuser() bool { return u.Bool("is_superuser") }
func (u User) IsLeader() bool    { return u.Bool("is_leader") }
func (u User) Role() string      { return u.String("role") }
func (u User) Position() string  { return u.String("position") }
func (u User) Email() string     { return u.String("email") }

// Name is the first non-empty of username, name and account.
func (u User) Name() string {
	for _, key := range []string{"username", "name", "account"} {
		if v := u.String(key); v != "" {
			return v
		}
	}
	return ""
}

// Department returns the department name, whether the backend sent an object
// or a bare string.
func (u User) Department() string {
	if d := u.Object("department"); !d.Empty() {
		return d.String("name")
	}
	return u.String("department")
}

// DepartmentID returns the id of a department object, or 0.
func (u User) DepartmentID() int {
	n, _ := u.Object("department").Int("id")
	return n
}

// UUID is the backend's stable identifier for the user.
func (u User) UUID() string { return u.String("uuid") }

// CanManageStaff reports whether the user may open staff management pages.
func (u User) CanManageStaff() bool {
	return u.IsSuperuser() || u.IsLeader() || u.Role() == "leader" || u.Position() == "department_leader"
}

func (u User) clone() User {
	if u == nil {
		return User{}
	}
	out := make(User, len(u))
	for k, v := range u {
		out[k] = v
	}
	return out
}
