package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/oactl/internal/config"
	"github.com/felixgeelhaar/oactl/internal/ux"
)

func newConfigCmd(o *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show and change settings",
		Long: `Show and change settings in the config file (default ~/.oactl/config.yaml).

Values resolve in this order, later ones winning: built-in defaults, the config
file, a .env file in the working directory, OA_* environment variables, flags.

Keys:
  api_url          backend base URL
  timeout          request timeout, e.g. 5s or 5000 (milliseconds)
  storage.backend  file, sqlite or memory
  storage.path     where the session is stored
  storage.encrypt  encrypt the session with OA_PASSPHRASE
  log.level        debug, info, warn or error
  log.format       text or json
  output.format    text, json or yaml`,
	}
	cmd.AddCommand(
		newConfigShowCmd(o),
		newConfigGetCmd(o),
		newConfigSetCmd(o),
		newConfigPathCmd(),
	)
	return offline(cmd)
}

func configPath(cmd *cobra.Command) string {
	if p, _ := cmd.Flags().GetString("config"); p != "" {
		return p
	}
	return config.DefaultPath()
}

func newConfigShowCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			flags, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			cfg, _, err := o.loadConfig(flags)
			if err != nil {
				return err
			}

			keys := config.Keys()
			values := make(map[string]string, len(keys))
			rows := make([][]string, 0, len(keys))
			for _, k := range keys {
				v, _ := cfg.Get(k)
				values[k] = v
				rows = append(rows, []string{k, v})
			}

			format := cfg.Output.Format
			formatter, err := ux.NewFormatter(format, &ux.FormatterOptions{Writer: cmd.OutOrStdout(), NoColor: flags.NoColor})
			if err != nil {
				return err
			}
			if format == config.FormatJSON || format == config.FormatYAML {
				return formatter.Format(values)
			}
			return formatter.Format(ux.Table{Columns: []string{"Key", "Value"}, Data: rows})
		},
	}
}

func newConfigGetCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "Print one effective setting",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			flags, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			cfg, _, err := o.loadConfig(flags)
			if err != nil {
				return err
			}
			v, err := cfg.Get(args[0])
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), v)
			return err
		},
	}
}

func newConfigSetCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Write a setting to the config file",
		Long: `Write a setting to the config file. Only the file is changed; environment
variables still override it.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := configPath(cmd)
			cfg, err := config.ReadFile(path)
			if err != nil {
				return err
			}
			if err := cfg.Set(args[0], args[1]); err != nil {
				return err
			}
			if err := config.Save(cfg, path); err != nil {
				return err
			}
			quiet, _ := cmd.Flags().GetBool("quiet")
			ux.NewNotifier(o.errOut, quiet).Success(fmt.Sprintf("%s = %s", args[0], args[1]))
			return nil
		},
	}
}

func newConfigPathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the config file path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), configPath(cmd))
			return err
		},
	}
}
