package cmd

import (
	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/oactl/internal/router"
	"github.com/felixgeelhaar/oactl/internal/viewmodel"
)

func newUploadCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "upload <file>...",
		Short: "Upload images for announcements",
		Long: `Upload one or more images and print a markdown reference for each, ready to
paste into an announcement body. Images are limited to 1 MiB.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			uploader := viewmodel.NewImageUpload(app.API.Files, app.Config.APIURL, app.Notifier)
			images := make([]*viewmodel.UploadedImage, 0, len(args))
			for _, path := range args {
				img, err := uploader.Upload(cmd.Context(), path)
				if err != nil {
					return err
				}
				images = append(images, img)
			}
			if app.structured() {
				return app.render(images)
			}
			for _, img := range images {
				app.println("%s", img.Markdown())
			}
			return nil
		},
	}
	return routed(cmd, router.PathInformPublish)
}
