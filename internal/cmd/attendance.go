package cmd

import (
	"context"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/oactl/internal/api"
	"github.com/felixgeelhaar/oactl/internal/errors"
	"github.com/felixgeelhaar/oactl/internal/router"
	"github.com/felixgeelhaar/oactl/internal/tui"
	"github.com/felixgeelhaar/oactl/internal/ux"
	"github.com/felixgeelhaar/oactl/internal/viewmodel"
)

func newAttendanceCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "attendance",
		Aliases: []string{"att", "leave"},
		Short:   "Leave requests and approvals",
		Long: `File leave requests, follow their approval and decide on the requests of
your team.

Examples:
  oactl attendance my
  oactl attendance apply --title "Dentist" --type 1 --reason "appointment" \
    --start "2026-03-02 09:00" --end "2026-03-02 12:00"
  oactl attendance pending
  oactl attendance approve 42 --comment "ok"
  oactl attendance browse --pending`,
	}
	cmd.AddCommand(
		newAttendanceTypesCmd(app),
		newAttendanceMyCmd(app),
		newAttendancePendingCmd(app),
		newAttendanceApplyCmd(app),
		newAttendanceDecideCmd(app, true),
		newAttendanceDecideCmd(app, false),
		newAttendanceResponderCmd(app),
		newAttendanceBrowseCmd(app),
	)
	return cmd
}

func newAttendanceTypesCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "types",
		Short: "List leave categories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			vm := viewmodel.NewMyAttendance(app.API.Attendance, app.Notifier, app.Logger)
			defer vm.Close()
			types, err := vm.LoadTypes(cmd.Context())
			if err != nil {
				return err
			}
			rows := make([][]string, 0, len(types))
			for _, t := range types {
				rows = append(rows, []string{itoa(t.ID), t.Name})
			}
			return app.renderTable(types, []string{"ID", "Name"}, rows)
		},
	}
	return routed(cmd, router.PathMyAttendance)
}

// attendancePage is the structured form of a listed page.
type attendancePage struct {
	Page     int                       `json:"page" yaml:"page"`
	PageSize int                       `json:"page_size" yaml:"page_size"`
	Total    int                       `json:"total" yaml:"total"`
	Items    []viewmodel.AttendanceRow `json:"items" yaml:"items"`
}

// pagedLoader is implemented by both attendance view models.
type pagedLoader interface {
	State() viewmodel.ListState
	SetPage(ctx context.Context, page int) error
	SetPageSize(ctx context.Context, size int) error
}

func loadPage(ctx context.Context, vm pagedLoader, page, pageSize int) (attendancePage, error) {
	var err error
	if pageSize != viewmodel.DefaultPageSize {
		err = vm.SetPageSize(ctx, pageSize)
		if err == nil && page != 1 {
			err = vm.SetPage(ctx, page)
		}
	} else {
		err = vm.SetPage(ctx, page)
	}
	if err != nil {
		return attendancePage{}, err
	}
	s := vm.State()
	return attendancePage{Page: s.Page, PageSize: s.PageSize, Total: s.Total, Items: viewmodel.AttendanceRows(s.Items)}, nil
}

func (a *App) renderAttendance(p attendancePage, counterpart string, mine bool) error {
	rows := make([][]string, 0, len(p.Items))
	for _, r := range p.Items {
		who := r.Requester
		if mine {
			who = r.Responder
		}
		rows = append(rows, []string{itoa(r.ID), r.Title, r.Type, who, r.Start, r.End, r.StatusLabel()})
	}
	if err := a.renderTable(p, []string{"ID", "Title", "Type", counterpart, "Start", "End", "Status"}, rows); err != nil {
		return err
	}
	a.println(pager(p.Page, p.PageSize, p.Total))
	return nil
}

func addPageFlags(cmd *cobra.Command, page, pageSize *int) {
	cmd.Flags().IntVar(page, "page", viewmodel.DefaultPage, "page number")
	cmd.Flags().IntVar(pageSize, "page-size", viewmodel.DefaultPageSize, "records per page")
}

func checkPage(page, pageSize int) error {
	if page < 1 || pageSize < 1 {
		return errors.New(errors.ErrCodeValidation, "--page and --page-size must be at least 1")
	}
	return nil
}

func newAttendanceMyCmd(app *App) *cobra.Command {
	var page, pageSize int
	cmd := &cobra.Command{
		Use:   "my",
		Short: "List your own leave requests",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkPage(page, pageSize); err != nil {
				return err
			}
			vm := viewmodel.NewMyAttendance(app.API.Attendance, app.Notifier, app.Logger)
			defer vm.Close()
			p, err := loadPage(cmd.Context(), vm, page, pageSize)
			if err != nil {
				return err
			}
			return app.renderAttendance(p, "Approver", true)
		},
	}
	addPageFlags(cmd, &page, &pageSize)
	return routed(cmd, router.PathMyAttendance)
}

func newAttendancePendingCmd(app *App) *cobra.Command {
	var page, pageSize int
	cmd := &cobra.Command{
		Use:     "pending",
		Aliases: []string{"team"},
		Short:   "List requests that you approve",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkPage(page, pageSize); err != nil {
				return err
			}
			vm := viewmodel.NewEmpAttendance(app.API.Attendance, app.Notifier, app.Logger)
			defer vm.Close()
			p, err := loadPage(cmd.Context(), vm, page, pageSize)
			if err != nil {
				return err
			}
			return app.renderAttendance(p, "Requester", false)
		},
	}
	addPageFlags(cmd, &page, &pageSize)
	return routed(cmd, router.PathEmpAttendance)
}

type leaveFlags struct {
	title  string
	kind   string
	reason string
	start  string
	end    string
}

func newAttendanceApplyCmd(app *App) *cobra.Command {
	var f leaveFlags
	cmd := &cobra.Command{
		Use:   "apply",
		Short: "File a leave request",
		Long: `File a leave request with your approver. Missing values are prompted for
when running in a terminal. --type takes a category id or name, see
'oactl attendance types'.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			vm := viewmodel.NewMyAttendance(app.API.Attendance, app.Notifier, app.Logger)
			defer vm.Close()

			types, err := vm.LoadTypes(ctx)
			if err != nil {
				return err
			}
			form, err := app.leaveForm(f, types)
			if err != nil {
				return err
			}
			if approver, err := vm.LoadApprover(ctx); err == nil && approver != "" {
				app.Notifier.Info("approver: " + approver)
			}
			rec, err := vm.Submit(ctx, form)
			if err != nil {
				return err
			}
			if app.structured() {
				return app.render(rec)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&f.title, "title", "", "request title")
	cmd.Flags().StringVar(&f.kind, "type", "", "leave category id or name")
	cmd.Flags().StringVar(&f.reason, "reason", "", "reason for the request")
	cmd.Flags().StringVar(&f.start, "start", "", "start time, YYYY-MM-DD HH:MM")
	cmd.Flags().StringVar(&f.end, "end", "", "end time, YYYY-MM-DD HH:MM")
	return routed(cmd, router.PathMyAttendance)
}

// leaveForm fills the form from flags and prompts for the rest.
func (a *App) leaveForm(f leaveFlags, types []api.AttendanceType) (viewmodel.LeaveForm, error) {
	var (
		form viewmodel.LeaveForm
		err  error
	)
	if form.Title = f.title; form.Title == "" {
		if form.Title, err = a.Prompter.Input("Title", "", nil); err != nil {
			return form, err
		}
	}

	if f.kind != "" {
		if form.TypeID, err = resolveType(f.kind, types); err != nil {
			return form, err
		}
	} else {
		choices := make([]ux.Choice, 0, len(types))
		for _, t := range types {
			choices = append(choices, ux.Choice{Label: t.Name, Value: t.ID})
		}
		if form.TypeID, err = a.Prompter.Select("Leave type", choices, 0); err != nil {
			return form, err
		}
	}

	if form.RequestContent = f.reason; form.RequestContent == "" {
		if form.RequestContent, err = a.Prompter.Text("Reason", ""); err != nil {
			return form, err
		}
	}

	start, end := f.start, f.end
	if start == "" {
		if start, err = a.Prompter.Input("Start (YYYY-MM-DD HH:MM)", "", validTime); err != nil {
			return form, err
		}
	}
	if end == "" {
		if end, err = a.Prompter.Input("End (YYYY-MM-DD HH:MM)", "", validTime); err != nil {
			return form, err
		}
	}
	if form.Start, err = parseLocalTime(start); err != nil {
		return form, errors.Wrap(errors.ErrCodeValidation, "invalid --start", err)
	}
	if form.End, err = parseLocalTime(end); err != nil {
		return form, errors.Wrap(errors.ErrCodeValidation, "invalid --end", err)
	}
	return form, nil
}

func validTime(s string) error {
	_, err := parseLocalTime(strings.TrimSpace(s))
	return err
}

func resolveType(value string, types []api.AttendanceType) (int, error) {
	if id, err := strconv.Atoi(value); err == nil {
		for _, t := range types {
			if t.ID == id {
				return id, nil
			}
		}
	}
	for _, t := range types {
		if strings.EqualFold(t.Name, value) {
			return t.ID, nil
		}
	}
	names := make([]string, 0, len(types))
	for _, t := range types {
		names = append(names, t.Name)
	}
	return 0, errors.Newf(errors.ErrCodeValidation, "unknown leave type %q", value).
		WithSuggestion("choose one of: " + strings.Join(names, ", "))
}

func newAttendanceDecideCmd(app *App, approve bool) *cobra.Command {
	use, short := "reject <id>", "Reject a pending request"
	if approve {
		use, short = "approve <id>", "Approve a pending request"
	}
	var comment string
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			vm := viewmodel.NewEmpAttendance(app.API.Attendance, app.Notifier, app.Logger)
			defer vm.Close()
			if approve {
				return vm.Approve(cmd.Context(), id, comment)
			}
			return vm.Reject(cmd.Context(), id, comment)
		},
	}
	cmd.Flags().StringVarP(&comment, "comment", "m", "", "reply shown to the requester")
	return routed(cmd, router.PathEmpAttendance)
}

func parseID(s string) (int, error) {
	id, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || id <= 0 {
		return 0, errors.Newf(errors.ErrCodeValidation, "invalid id %q", s)
	}
	return id, nil
}

func newAttendanceResponderCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "responder",
		Aliases: []string{"approver"},
		Short:   "Show who approves your requests",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			vm := viewmodel.NewMyAttendance(app.API.Attendance, app.Notifier, app.Logger)
			defer vm.Close()
			name, err := vm.LoadApprover(cmd.Context())
			if err != nil {
				return err
			}
			if app.structured() {
				return app.render(map[string]string{"responder": name})
			}
			if name == "" {
				name = "(none)"
			}
			app.println("%s", name)
			return nil
		},
	}
	return routed(cmd, router.PathMyAttendance)
}

func newAttendanceBrowseCmd(app *App) *cobra.Command {
	var pending bool
	cmd := &cobra.Command{
		Use:   "browse",
		Short: "Browse requests interactively",
		Long: `Open a full screen table of your leave requests. With --pending it lists the
requests awaiting your decision and lets you approve or reject them.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !app.Prompter.Interactive {
				return errors.New(errors.ErrCodeValidation, "browse needs an interactive terminal").
					WithSuggestion("use 'oactl attendance my' or 'oactl attendance pending' instead")
			}
			ctx := cmd.Context()
			status := &tui.StatusLine{}

			if pending {
				if err := app.visit(ctx, router.PathEmpAttendance, true); err != nil {
					return err
				}
				vm := viewmodel.NewEmpAttendance(app.API.Attendance, status, app.Logger)
				defer vm.Close()
				return tui.Run(ctx, tui.NewBrowser(ctx, vm, tui.BrowserOptions{
					Title:   "Awaiting my approval",
					Who:     api.WhoResponder,
					Decider: vm,
					Status:  status,
				}))
			}
			vm := viewmodel.NewMyAttendance(app.API.Attendance, status, app.Logger)
			defer vm.Close()
			return tui.Run(ctx, tui.NewBrowser(ctx, vm, tui.BrowserOptions{
				Title:  "My leave requests",
				Who:    api.WhoRequester,
				Status: status,
			}))
		},
	}
	cmd.Flags().BoolVar(&pending, "pending", false, "list requests awaiting your decision")
	return routed(cmd, router.PathMyAttendance)
}
