package cmd

import (
	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/oactl/internal/router"
	"github.com/felixgeelhaar/oactl/internal/viewmodel"
)

func newHomeCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "home",
		Aliases: []string{"dashboard"},
		Short:   "Show the dashboard",
		Long: `Show headcount per department, the latest announcements and the latest
attendance records. Sections that fail to load are left empty.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := viewmodel.NewHome(app.API.Home, app.Notifier).Load(cmd.Context())
			if app.structured() {
				if rerr := app.render(d); rerr != nil {
					return rerr
				}
				return err
			}

			app.println("Staff (%d total)", d.TotalStaff())
			counts := make([][]string, 0, len(d.StaffCounts))
			for _, c := range d.StaffCounts {
				counts = append(counts, []string{c.Name, itoa(c.StaffCount)})
			}
			if rerr := app.renderTable(d, []string{"Department", "Staff"}, counts); rerr != nil {
				return rerr
			}

			app.println("")
			app.println("Latest announcements")
			informs := make([][]string, 0, len(d.LatestInforms))
			for _, in := range d.LatestInforms {
				informs = append(informs, []string{itoa(in.ID), in.Title, in.Author, in.Created, in.Preview})
			}
			if rerr := app.renderTable(d, []string{"ID", "Title", "Author", "Created", "Preview"}, informs); rerr != nil {
				return rerr
			}

			app.println("")
			app.println("Latest attendance")
			atts := make([][]string, 0, len(d.LatestAttendances))
			for _, a := range d.LatestAttendances {
				atts = append(atts, []string{a.Date, a.Name, a.Type})
			}
			if rerr := app.renderTable(d, []string{"Date", "Name", "Type"}, atts); rerr != nil {
				return rerr
			}
			return err
		},
	}
	return routed(cmd, router.PathHome)
}
