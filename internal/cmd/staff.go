package cmd

import (
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/oactl/internal/api"
	"github.com/felixgeelhaar/oactl/internal/errors"
	"github.com/felixgeelhaar/oactl/internal/router"
	"github.com/felixgeelhaar/oactl/internal/viewmodel"
)

func newStaffCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "staff",
		Short: "Manage employees and departments",
		Long: `Browse the staff directory and manage employees. These commands need a
superuser or department leader account.

Examples:
  oactl staff list --grouped
  oactl staff add --name "Sue" --email sue@example.com
  oactl staff edit 7d1c... --status 2
  oactl staff download --department Sales --all --preview 5`,
	}
	cmd.AddCommand(
		newStaffDepartmentsCmd(app),
		newStaffListCmd(app),
		newStaffAddCmd(app),
		newStaffEditCmd(app),
		newStaffSetLeaderCmd(app),
		newStaffDownloadCmd(app),
	)
	return cmd
}

func (a *App) staffList() *viewmodel.StaffList {
	return viewmodel.NewStaffList(a.API.Staff, a.Session, a.Notifier, a.Logger)
}

func newStaffDepartmentsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "departments",
		Aliases: []string{"depts"},
		Short:   "List departments",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			depts, err := app.API.Staff.Departments(cmd.Context())
			if err != nil {
				return err
			}
			rows := make([][]string, 0, len(depts))
			for _, d := range depts {
				rows = append(rows, []string{itoa(d.ID), d.Name})
			}
			return app.renderTable(depts, []string{"ID", "Name"}, rows)
		},
	}
	return routed(cmd, router.PathStaffList)
}

func staffRows(rows []viewmodel.StaffRow) [][]string {
	out := make([][]string, 0, len(rows))
	for _, r := range rows {
		role := ""
		if r.IsLeader {
			role = "leader"
		}
		out = append(out, []string{r.UUID, r.Name, r.Email, r.Department, role, r.StatusLabel(), r.Joined})
	}
	return out
}

var staffHeaders = []string{"UUID", "Name", "Email", "Department", "Role", "Status", "Joined"}

func newStaffListCmd(app *App) *cobra.Command {
	var (
		grouped    bool
		department string
	)
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List the staff directory",
		Long: `List every employee. Members who have left are hidden, leaders are always
shown. --grouped prints one table per department, leaders first.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			vm := app.staffList()
			defer vm.Close()
			if err := vm.Load(cmd.Context()); err != nil {
				return err
			}

			if !grouped {
				rows := filterDepartment(vm.Rows(), department)
				return app.renderTable(rows, staffHeaders, staffRows(rows))
			}

			groups := vm.Groups()
			if department != "" {
				kept := groups[:0]
				for _, g := range groups {
					if strings.EqualFold(g.Department, department) {
						kept = append(kept, g)
					}
				}
				groups = kept
			}
			if app.structured() {
				return app.render(groups)
			}
			for i, g := range groups {
				if i > 0 {
					app.println("")
				}
				app.println("%s (leader: %s, %d staff)", g.Department, orDash(g.Leader), len(g.Staff))
				if err := app.renderTable(g, staffHeaders, staffRows(g.Staff)); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&grouped, "grouped", "g", false, "one table per department")
	cmd.Flags().StringVarP(&department, "department", "d", "", "only this department")
	return routed(cmd, router.PathStaffList)
}

func filterDepartment(rows []viewmodel.StaffRow, department string) []viewmodel.StaffRow {
	if department == "" {
		return rows
	}
	out := make([]viewmodel.StaffRow, 0, len(rows))
	for _, r := range rows {
		if strings.EqualFold(r.Department, department) {
			out = append(out, r)
		}
	}
	return out
}

func newStaffAddCmd(app *App) *cobra.Command {
	var (
		form          viewmodel.StaffForm
		passwordStdin bool
	)
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add an employee to your department",
		Long: `Add an employee. New staff join your own department with you as their
leader. Missing values are prompted for when running in a terminal.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			vm := viewmodel.NewStaffAdd(app.API.Staff, app.Session, app.Notifier)
			dept, _ := vm.Department()
			app.Notifier.Info("department: " + orDash(dept) + ", leader: " + orDash(vm.Leader()))

			var err error
			if form.Name == "" {
				if form.Name, err = app.Prompter.Input("Name", "", nil); err != nil {
					return err
				}
			}
			if form.Email == "" {
				if form.Email, err = app.Prompter.Input("Email", "", nil); err != nil {
					return err
				}
			}
			if passwordStdin {
				if form.Password, err = readLine(cmd.InOrStdin()); err != nil {
					return err
				}
			} else if form.Password, err = app.Prompter.Password("Initial password", nil); err != nil {
				return err
			}

			rec, err := vm.Submit(cmd.Context(), form)
			if err != nil {
				return err
			}
			if app.structured() {
				return app.render(rec)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&form.Name, "name", "", "employee name")
	cmd.Flags().StringVar(&form.Email, "email", "", "employee email")
	cmd.Flags().BoolVar(&passwordStdin, "password-stdin", false, "read the initial password from stdin")
	return routed(cmd, router.PathStaffAdd)
}

type editFlags struct {
	name       string
	email      string
	status     int
	department string
	leader     bool
}

func newStaffEditCmd(app *App) *cobra.Command {
	var f editFlags
	cmd := &cobra.Command{
		Use:   "edit <uuid>",
		Short: "Edit an employee",
		Long: `Change an employee's name, email, status or department. --leader also makes
them leader of their department. Status is 0 inactive, 1 active or 2 left.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			vm := app.staffList()
			defer vm.Close()
			if err := vm.Load(ctx); err != nil {
				return err
			}
			edit, err := vm.Edit(args[0])
			if err != nil {
				return err
			}

			flags := cmd.Flags()
			if flags.Changed("name") {
				edit.Name = f.name
			}
			if flags.Changed("email") {
				edit.Email = f.email
			}
			if flags.Changed("status") {
				if f.status < api.StaffInactive || f.status > api.StaffLeft {
					return errors.Newf(errors.ErrCodeValidation, "invalid status %d", f.status).
						WithSuggestion("use 0 inactive, 1 active or 2 left")
				}
				edit.Status = f.status
			}
			if flags.Changed("leader") {
				edit.IsLeader = f.leader
			}
			if flags.Changed("department") {
				if edit.DepartmentID, err = resolveDepartment(f.department, vm.Departments()); err != nil {
					return err
				}
				if edit.DepartmentID == api.AllDepartments {
					return errors.New(errors.ErrCodeValidation, "choose a single department")
				}
			}
			return vm.Save(ctx, *edit)
		},
	}
	cmd.Flags().StringVar(&f.name, "name", "", "new name")
	cmd.Flags().StringVar(&f.email, "email", "", "new email")
	cmd.Flags().IntVar(&f.status, "status", api.StaffActive, "new status")
	cmd.Flags().StringVarP(&f.department, "department", "d", "", "new department id or name")
	cmd.Flags().BoolVar(&f.leader, "leader", false, "make them leader of the department")
	return routed(cmd, router.PathStaffList)
}

func newStaffSetLeaderCmd(app *App) *cobra.Command {
	var department, uuid string
	cmd := &cobra.Command{
		Use:   "set-leader",
		Short: "Make an employee the leader of a department",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			depts, err := app.API.Staff.Departments(ctx)
			if err != nil {
				return err
			}
			id, err := resolveDepartment(department, depts)
			if err != nil {
				return err
			}
			if id == api.AllDepartments {
				return errors.New(errors.ErrCodeValidation, "choose a single department")
			}
			if err := app.API.Staff.SetLeader(ctx, id, uuid); err != nil {
				return err
			}
			app.Notifier.Success("department leader updated")
			return nil
		},
	}
	cmd.Flags().StringVarP(&department, "department", "d", "", "department id or name")
	cmd.Flags().StringVar(&uuid, "uuid", "", "uuid of the new leader")
	_ = cmd.MarkFlagRequired("department")
	_ = cmd.MarkFlagRequired("uuid")
	return routed(cmd, router.PathStaffList)
}

// exportReport is printed after a download.
type exportReport struct {
	viewmodel.Export `yaml:",inline"`
	Path             string     `json:"path" yaml:"path"`
	Preview          [][]string `json:"preview,omitempty" yaml:"preview,omitempty"`
}

func newStaffDownloadCmd(app *App) *cobra.Command {
	var (
		uuids      []string
		all        bool
		department string
		output     string
		preview    int
	)
	cmd := &cobra.Command{
		Use:   "download",
		Short: "Export staff to a spreadsheet",
		Long: `Download an xlsx workbook for the selected employees. Pick them with
--uuid, or take everyone listed with --all, optionally limited to one
--department. --preview prints the first rows of the workbook.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if all == (len(uuids) > 0) {
				return errors.New(errors.ErrCodeValidation, "pass either --all or at least one --uuid")
			}
			vm := app.staffList()
			defer vm.Close()
			if err := vm.Load(cmd.Context()); err != nil {
				return err
			}
			rows := filterDepartment(vm.Rows(), department)
			dept := ""
			if department != "" {
				if len(rows) == 0 {
					return errors.Newf(errors.ErrCodeValidation, "no staff listed in department %q", department)
				}
				dept = rows[0].Department
			}
			if all {
				for _, r := range rows {
					uuids = append(uuids, r.UUID)
				}
			}
			export, err := vm.Download(cmd.Context(), dept, uuids)
			if err != nil {
				return err
			}

			if output == "" {
				if output, err = os.Getwd(); err != nil {
					return errors.Wrap(errors.ErrCodeStorageWrite, "cannot resolve the working directory", err)
				}
			}
			path, err := export.Save(output)
			if err != nil {
				return err
			}

			report := exportReport{Export: *export, Path: path}
			if preview > 0 {
				if report.Preview, err = export.Preview(preview + 1); err != nil {
					return err
				}
			}
			if app.structured() {
				return app.render(report)
			}

			app.println("saved %s (%s, %d staff)", path, humanize.Bytes(uint64(export.Size)), export.Staff)
			app.println("blake3 %s", export.Checksum)
			if len(report.Preview) > 0 {
				return app.render(previewTable(report.Preview))
			}
			return nil
		},
	}
	cmd.Flags().StringArrayVar(&uuids, "uuid", nil, "employee uuid, repeatable")
	cmd.Flags().BoolVar(&all, "all", false, "every listed employee")
	cmd.Flags().StringVarP(&department, "department", "d", "", "only this department")
	cmd.Flags().StringVarP(&output, "output", "O", "", "directory to save into (default: current)")
	cmd.Flags().IntVar(&preview, "preview", 0, "print this many data rows")
	return routed(cmd, router.PathStaffList)
}
