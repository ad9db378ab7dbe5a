package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/oactl/internal/router"
	"github.com/felixgeelhaar/oactl/internal/session"
	"github.com/felixgeelhaar/oactl/internal/viewmodel"
)

func newLoginCmd(app *App) *cobra.Command {
	var (
		email         string
		passwordStdin bool
	)
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and store the session",
		Long: `Sign in with your email and password. The user record and token are stored
so later commands run as you until the token expires or you log out.

Examples:
  oactl login
  oactl login --email sue@example.com
  echo "$PASSWORD" | oactl login --email sue@example.com --password-stdin`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			password := ""
			if passwordStdin {
				var err error
				if password, err = readLine(cmd.InOrStdin()); err != nil {
					return err
				}
			}
			user, err := app.promptLogin(cmd.Context(), email, password)
			if err != nil {
				return err
			}
			if app.structured() {
				return app.render(user)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().BoolVar(&passwordStdin, "password-stdin", false, "read the password from stdin")
	return routed(cmd, router.PathLogin)
}

// promptLogin asks for whatever credentials are missing and signs in.
func (a *App) promptLogin(ctx context.Context, email, password string) (session.User, error) {
	var err error
	if email == "" {
		email, err = a.Prompter.Input("Email", "", func(s string) error {
			if !viewmodel.ValidEmail(strings.TrimSpace(s)) {
				return fmt.Errorf("please enter a valid email address")
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	if password == "" {
		password, err = a.Prompter.Password("Password", viewmodel.ValidatePassword)
		if err != nil {
			return nil, err
		}
	}
	return viewmodel.NewLogin(a.API.Auth, a.Session, a.Notifier, a.Router).Submit(ctx, email, password)
}

func (a *App) frame() *viewmodel.Frame {
	return viewmodel.NewFrame(a.API.Auth, a.Session, a.Notifier, a.Router)
}

func newLogoutCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.frame().Logout(); err != nil {
				return err
			}
			app.Notifier.Success("logged out")
			return nil
		},
	}
	return routed(cmd, router.PathLogin)
}

// whoami is a view of the session user.
type whoami struct {
	Username   string `json:"username" yaml:"username"`
	Email      string `json:"email" yaml:"email"`
	Department string `json:"department" yaml:"department"`
	Superuser  bool   `json:"is_superuser" yaml:"is_superuser"`
	Leader     bool   `json:"is_leader" yaml:"is_leader"`
	StaffAdmin bool   `json:"can_manage_staff" yaml:"can_manage_staff"`
}

func newWhoamiCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			u := app.Session.User()
			w := whoami{
				Username:   viewmodel.Username(u),
				Email:      u.Email(),
				Department: u.Department(),
				Superuser:  u.IsSuperuser(),
				Leader:     u.IsLeader(),
				StaffAdmin: u.CanManageStaff(),
			}
			return app.renderTable(w, []string{"Field", "Value"}, [][]string{
				{"Username", w.Username},
				{"Email", w.Email},
				{"Department", w.Department},
				{"Superuser", yesNo(w.Superuser)},
				{"Leader", yesNo(w.Leader)},
				{"Manages staff", yesNo(w.StaffAdmin)},
			})
		},
	}
	return routed(cmd, router.PathHome)
}

// statusReport describes the local session and configuration.
type statusReport struct {
	APIURL        string     `json:"api_url" yaml:"api_url"`
	Storage       string     `json:"storage" yaml:"storage"`
	Encrypted     bool       `json:"encrypted" yaml:"encrypted"`
	Authenticated bool       `json:"authenticated" yaml:"authenticated"`
	User          string     `json:"user,omitempty" yaml:"user,omitempty"`
	TokenExpiry   *time.Time `json:"token_expiry,omitempty" yaml:"token_expiry,omitempty"`
	ServerOK      *bool      `json:"server_ok,omitempty" yaml:"server_ok,omitempty"`
}

func newStatusCmd(app *App) *cobra.Command {
	var check bool
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show session and configuration status",
		Long: `Show where oactl connects, how the session is stored, and whether the stored
token is still valid. With --check the session is verified against the backend.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r := statusReport{
				APIURL:        app.Config.APIURL,
				Storage:       app.Config.Storage.Backend,
				Encrypted:     app.Config.Storage.Encrypt,
				Authenticated: app.Session.IsAuthenticated(),
			}
			if u := app.Session.User(); !u.Empty() {
				r.User = viewmodel.Username(u)
			}
			if exp, ok := app.Session.TokenExpiry(); ok {
				r.TokenExpiry = &exp
			}
			if check && app.Session.Token() != "" {
				_, err := app.API.Auth.UserDetail(cmd.Context())
				ok := err == nil
				r.ServerOK = &ok
			}

			expiry := "unknown"
			if r.TokenExpiry != nil {
				expiry = fmt.Sprintf("%s (%s)", r.TokenExpiry.Local().Format(time.DateTime), humanize.Time(*r.TokenExpiry))
			}
			rows := [][]string{
				{"API URL", r.APIURL},
				{"Storage", r.Storage},
				{"Encrypted", yesNo(r.Encrypted)},
				{"Authenticated", yesNo(r.Authenticated)},
				{"User", r.User},
				{"Token expires", expiry},
			}
			if r.ServerOK != nil {
				rows = append(rows, []string{"Backend accepts token", yesNo(*r.ServerOK)})
			}
			return app.renderTable(r, []string{"Field", "Value"}, rows)
		},
	}
	cmd.Flags().BoolVar(&check, "check", false, "verify the token against the backend")
	return routed(cmd, router.PathLogin)
}

func newPasswdCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "passwd",
		Short: "Change your password",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var form viewmodel.PasswordForm
			var err error
			if form.OldPassword, err = app.Prompter.Password("Current password", nil); err != nil {
				return err
			}
			if form.NewPassword, err = app.Prompter.Password("New password", nil); err != nil {
				return err
			}
			if form.ConfirmPassword, err = app.Prompter.Password("Confirm new password", nil); err != nil {
				return err
			}
			return app.frame().ChangePassword(cmd.Context(), form)
		},
	}
	return routed(cmd, router.PathHome)
}
