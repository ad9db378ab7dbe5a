package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/oactl/internal/config"
	"github.com/felixgeelhaar/oactl/internal/ux"
	"github.com/felixgeelhaar/oactl/internal/version"
)

func newVersionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			info := version.GetInfo()
			format, _ := cmd.Flags().GetString("format")
			if format == "" || format == config.FormatText {
				_, err := fmt.Fprintln(cmd.OutOrStdout(), info.String())
				return err
			}
			formatter, err := ux.NewFormatter(format, &ux.FormatterOptions{Writer: cmd.OutOrStdout()})
			if err != nil {
				return err
			}
			return formatter.Format(info)
		},
	}
	return offline(cmd)
}
