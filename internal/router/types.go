package router

import "github.com/felixgeelhaar/oactl/internal/session"

// Permission tags a route that needs more than a signed-in session.
type Permission string

const (
	// PermissionNone is open to any signed-in user.
	PermissionNone Permission = ""
	// PermissionStaff needs a superuser, a leader, or a department leader.
	PermissionStaff Permission = "staff"
)

// Route is one entry of the path table.
type Route struct {
	Name       string     `json:"name" yaml:"name"`
	Path       string     `json:"path" yaml:"path"`
	Title      string     `json:"title" yaml:"title"`
	Permission Permission `json:"permission,omitempty" yaml:"permission,omitempty"`
	// Public routes are reachable without a token.
	Public bool `json:"public,omitempty" yaml:"public,omitempty"`
}

// Route paths.
const (
	PathHome          = "/"
	PathLogin         = "/login"
	PathMyAttendance  = "/attendance/my"
	PathEmpAttendance = "/attendance/emp"
	PathInformPublish = "/inform/public"
	PathInformList    = "/inform/list"
	PathInformDetail  = "/inform/detail/:id"
	PathStaffList     = "/staff/list"
	PathStaffAdd      = "/staff/add"
)

// Routes is the application's path table.
var Routes = []Route{
	{Name: "home", Path: PathHome, Title: "Home"},
	{Name: "login", Path: PathLogin, Title: "Login", Public: true},
	{Name: "attendance_my", Path: PathMyAttendance, Title: "My attendance"},
	{Name: "attendance_emp", Path: PathEmpAttendance, Title: "Staff attendance"},
	{Name: "inform_publish", Path: PathInformPublish, Title: "Publish announcement"},
	{Name: "inform_list", Path: PathInformList, Title: "Announcements"},
	{Name: "inform_detail", Path: PathInformDetail, Title: "Announcement"},
	{Name: "staff_list", Path: PathStaffList, Title: "Staff", Permission: PermissionStaff},
	{Name: "staff_add", Path: PathStaffAdd, Title: "Add staff", Permission: PermissionStaff},
}

// Match is a resolved route with its path parameters.
type Match struct {
	Route  Route             `json:"route" yaml:"route"`
	Path   string            `json:"path" yaml:"path"`
	Params map[string]string `json:"params,omitempty" yaml:"params,omitempty"`
}

// Session is what the guard reads.
type Session interface {
	Token() string
	User() session.User
}

// Allowed reports whether u holds perm.
func Allowed(u session.User, perm Permission) bool {
	switch perm {
	case PermissionNone:
		return true
	case PermissionStaff:
		return u.CanManageStaff()
	default:
		return false
	}
}
