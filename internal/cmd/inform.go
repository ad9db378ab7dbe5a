package cmd

import (
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/oactl/internal/api"
	"github.com/felixgeelhaar/oactl/internal/errors"
	"github.com/felixgeelhaar/oactl/internal/router"
	"github.com/felixgeelhaar/oactl/internal/ux"
	"github.com/felixgeelhaar/oactl/internal/viewmodel"
)

func newInformCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "inform",
		Aliases: []string{"notice", "announcement"},
		Short:   "Read and publish announcements",
		Long: `Read announcements and publish new ones to some or all departments.

Examples:
  oactl inform list
  oactl inform show 7
  oactl inform publish --title "Office closed" --file notice.md --markdown --department all
  oactl inform delete 7`,
	}
	cmd.AddCommand(
		newInformListCmd(app),
		newInformShowCmd(app),
		newInformPublishCmd(app),
		newInformDeleteCmd(app),
	)
	return cmd
}

func newInformListCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List announcements",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			vm := viewmodel.NewInformList(app.API.Inform, app.Notifier, app.Prompter, app.Logger)
			defer vm.Close()
			if err := vm.Load(cmd.Context()); err != nil {
				return err
			}
			items := vm.Items()
			rows := make([][]string, 0, len(items))
			for _, it := range items {
				rows = append(rows, []string{itoa(it.ID), it.Title, it.Author, audience(it), it.Created})
			}
			return app.renderTable(items, []string{"ID", "Title", "Author", "Audience", "Created"}, rows)
		},
	}
	return routed(cmd, router.PathInformList)
}

func audience(s viewmodel.InformSummary) string {
	if s.Public || len(s.Targets) == 0 {
		return "everyone"
	}
	return strings.Join(s.Targets, ", ")
}

func newInformShowCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show one announcement",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			view, err := viewmodel.NewInformDetail(app.API.Inform, app.Notifier).Load(cmd.Context(), id)
			if err != nil {
				return err
			}
			if app.structured() {
				return app.render(view)
			}
			app.println("%s", view.Title)
			app.println("%s · %s · %s", orDash(view.Author), view.Created, audience(view.InformSummary))
			app.println("")
			app.println("%s", view.Text)
			return nil
		},
	}
	return routed(cmd, router.PathInformDetail)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

type publishFlags struct {
	title       string
	content     string
	file        string
	markdown    bool
	departments []string
	images      []string
}

func newInformPublishCmd(app *App) *cobra.Command {
	var f publishFlags
	cmd := &cobra.Command{
		Use:   "publish",
		Short: "Publish an announcement",
		Long: `Publish an announcement. The body comes from --content, --file ("-" reads
stdin) or an editor prompt. It is HTML unless --markdown is set.

--department takes a department id or name and may be repeated. "all" addresses
every department. --image uploads a picture and appends it to a markdown body.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(f.images) > 0 && !f.markdown {
				return errors.New(errors.ErrCodeValidation, "--image needs --markdown")
			}
			ctx := cmd.Context()
			vm := viewmodel.NewInformPublish(app.API.Inform, app.API.Staff, app.Notifier)

			form := viewmodel.PublishForm{Title: f.title, Markdown: f.markdown}
			var err error
			if form.Title == "" {
				if form.Title, err = app.Prompter.Input("Title", "", nil); err != nil {
					return err
				}
			}
			if form.Body, err = app.publishBody(cmd.InOrStdin(), f); err != nil {
				return err
			}

			depts, err := vm.LoadDepartments(ctx)
			if err != nil {
				return err
			}
			if form.DepartmentIDs, err = app.pickDepartments(f.departments, depts); err != nil {
				return err
			}

			if len(f.images) > 0 {
				uploader := viewmodel.NewImageUpload(app.API.Files, app.Config.APIURL, app.Notifier)
				for _, path := range f.images {
					img, err := uploader.Upload(ctx, path)
					if err != nil {
						return err
					}
					form.Body += "\n\n" + img.Markdown()
				}
			}

			id, err := vm.Publish(ctx, form)
			if err != nil {
				return err
			}
			if app.structured() {
				return app.render(map[string]int{"id": id})
			}
			if id > 0 {
				app.println("published announcement %d", id)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&f.title, "title", "", "announcement title")
	cmd.Flags().StringVar(&f.content, "content", "", "announcement body")
	cmd.Flags().StringVarP(&f.file, "file", "f", "", "read the body from a file, - for stdin")
	cmd.Flags().BoolVar(&f.markdown, "markdown", false, "the body is markdown")
	cmd.Flags().StringArrayVarP(&f.departments, "department", "d", nil, "target department id or name, repeatable")
	cmd.Flags().StringArrayVar(&f.images, "image", nil, "upload an image and append it, repeatable")
	cmd.MarkFlagsMutuallyExclusive("content", "file")
	return routed(cmd, router.PathInformPublish)
}

func (a *App) publishBody(stdin io.Reader, f publishFlags) (string, error) {
	switch {
	case f.content != "":
		return f.content, nil
	case f.file == "-":
		b, err := io.ReadAll(stdin)
		if err != nil {
			return "", errors.Wrap(errors.ErrCodeValidation, "failed to read the body from stdin", err)
		}
		return string(b), nil
	case f.file != "":
		b, err := os.ReadFile(f.file)
		if err != nil {
			return "", errors.Wrap(errors.ErrCodeValidation, "failed to read "+f.file, err)
		}
		return string(b), nil
	default:
		return a.Prompter.Text("Content", "")
	}
}

// pickDepartments resolves --department values, or asks when there are none.
func (a *App) pickDepartments(values []string, depts []api.Department) ([]int, error) {
	if len(values) == 0 {
		choices := make([]ux.Choice, 0, len(depts))
		for _, d := range depts {
			choices = append(choices, ux.Choice{Label: d.Name, Value: d.ID})
		}
		return a.Prompter.MultiSelect("Departments", choices)
	}

	ids := make([]int, 0, len(values))
	for _, v := range values {
		id, err := resolveDepartment(v, depts)
		if err != nil {
			return nil, err
		}
		if id == api.AllDepartments {
			return []int{api.AllDepartments}, nil
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func resolveDepartment(value string, depts []api.Department) (int, error) {
	value = strings.TrimSpace(value)
	if strings.EqualFold(value, "all") {
		return api.AllDepartments, nil
	}
	if id, err := strconv.Atoi(value); err == nil {
		for _, d := range depts {
			if d.ID == id {
				return id, nil
			}
		}
	}
	for _, d := range depts {
		if strings.EqualFold(d.Name, value) {
			return d.ID, nil
		}
	}
	return 0, errors.Newf(errors.ErrCodeValidation, "unknown department %q", value).
		WithSuggestion("see 'oactl staff departments' for the list")
}

func newInformDeleteCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "delete <id>",
		Aliases: []string{"rm"},
		Short:   "Delete an announcement",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			vm := viewmodel.NewInformList(app.API.Inform, app.Notifier, app.Prompter, app.Logger)
			defer vm.Close()
			_, err = vm.Delete(cmd.Context(), id)
			return err
		},
	}
	return routed(cmd, router.PathInformList)
}
