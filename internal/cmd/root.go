// Package cmd is the oactl command tree. Every command that talks to the
// backend is tagged with the route of the page it stands for, and the router
// guard runs before it.
package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/oactl/internal/errors"
	"github.com/felixgeelhaar/oactl/internal/router"
	"github.com/felixgeelhaar/oactl/internal/ux"
)

// Command annotations.
const (
	// annotationRoute holds the router path a command stands for.
	annotationRoute = "oactl/route"
	// annotationOffline marks commands that run without a session or backend.
	annotationOffline = "oactl/offline"
)

// routed tags cmd with path. A ":id" segment is filled from the first argument.
func routed(cmd *cobra.Command, path string) *cobra.Command {
	if cmd.Annotations == nil {
		cmd.Annotations = map[string]string{}
	}
	cmd.Annotations[annotationRoute] = path
	return cmd
}

func offline(cmd *cobra.Command) *cobra.Command {
	if cmd.Annotations == nil {
		cmd.Annotations = map[string]string{}
	}
	cmd.Annotations[annotationOffline] = "true"
	return cmd
}

func annotation(cmd *cobra.Command, key string) string {
	for c := cmd; c != nil; c = c.Parent() {
		if v, ok := c.Annotations[key]; ok {
			return v
		}
	}
	return ""
}

func routePath(cmd *cobra.Command, args []string) string {
	path := annotation(cmd, annotationRoute)
	if strings.Contains(path, ":id") && len(args) > 0 {
		path = strings.Replace(path, ":id", args[0], 1)
	}
	return path
}

// NewRootCommand builds the command tree.
func NewRootCommand(opts ...Option) *cobra.Command {
	root, _ := newRoot(newOptions(opts))
	return root
}

func newRoot(o *options) (*cobra.Command, *App) {
	app := &App{opts: o}

	root := &cobra.Command{
		Use:   "oactl",
		Short: "Office automation from the terminal",
		Long: `oactl signs in to the office automation backend and works with attendance,
announcements and the staff directory from the command line.

Pages of the web client map onto commands:
  oactl home                 dashboard
  oactl attendance my        my leave requests
  oactl attendance pending   requests awaiting my approval
  oactl inform list          announcements
  oactl staff list           staff directory (leaders only)`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if annotation(cmd, annotationOffline) != "" {
				return nil
			}
			built, err := o.setup(cmd)
			if err != nil {
				return err
			}
			*app = *built
			return app.guard(cmd, args)
		},
	}
	root.SetOut(o.out)
	root.SetErr(o.errOut)
	if o.in != nil {
		root.SetIn(o.in)
	}
	if o.args != nil {
		root.SetArgs(o.args)
	}

	pf := root.PersistentFlags()
	pf.String("config", "", "config file (default is $HOME/.oactl/config.yaml)")
	pf.String("api-url", "", "backend base URL, overrides api_url")
	pf.StringP("format", "o", "", "output format: text, json or yaml")
	pf.Bool("no-color", false, "disable colored output")
	pf.BoolP("verbose", "v", false, "enable debug logging and detailed errors")
	pf.BoolP("quiet", "q", false, "only print errors")
	pf.String("log-level", "", "log level: debug, info, warn or error")
	pf.BoolP("yes", "y", false, "answer yes to confirmations")

	root.AddCommand(
		newLoginCmd(app),
		newLogoutCmd(app),
		newWhoamiCmd(app),
		newStatusCmd(app),
		newPasswdCmd(app),
		newAttendanceCmd(app),
		newInformCmd(app),
		newStaffCmd(app),
		newHomeCmd(app),
		newUploadCmd(app),
		newConfigCmd(o),
		newVersionCmd(),
	)
	return root, app
}

// guard applies the router to the command's route.
func (a *App) guard(cmd *cobra.Command, args []string) error {
	return a.visit(cmd.Context(), routePath(cmd, args), true)
}

// visit navigates to target. Without a token it signs in interactively
// once or fails; without permission it fails after the router has warned.
func (a *App) visit(ctx context.Context, target string, prompt bool) error {
	if target == "" {
		return nil
	}

	want, ok := a.Router.Lookup(target)
	if !ok {
		return errors.Newf(errors.ErrCodeRouteNotFound, "no page at %s", target)
	}

	m, err := a.Router.Navigate(target)
	if err != nil {
		return err
	}
	if m.Route.Name == want.Route.Name {
		return nil
	}

	switch m.Path {
	case router.PathLogin:
		if !prompt || !a.Prompter.Interactive {
			return notLoggedIn()
		}
		a.Notifier.Info("please log in first")
		if _, err := a.promptLogin(ctx, "", ""); err != nil {
			return err
		}
		return a.visit(ctx, target, false)
	default:
		return errors.New(errors.ErrCodePermissionDenied, router.MsgPermissionDenied)
	}
}

// ExecuteContext runs the command tree and prints the final error unless a
// notice already showed it.
func ExecuteContext(ctx context.Context, opts ...Option) error {
	o := newOptions(opts)
	root, app := newRoot(o)

	err := root.ExecuteContext(ctx)
	if app.Client != nil {
		app.Close()
	}
	if err == nil {
		return nil
	}

	verbose, _ := root.PersistentFlags().GetBool("verbose")
	if app.Notifier == nil || !app.Notifier.Reported(err) {
		fmt.Fprintf(o.errOut, "Error: %s\n", ux.Describe(err, verbose))
	}
	return err
}
