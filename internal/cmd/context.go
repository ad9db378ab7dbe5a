package cmd

import (
	"github.com/spf13/cobra"
)

// CommandContext holds the global flags of one invocation.
type CommandContext struct {
	// Output control
	Verbose bool
	Quiet   bool
	Format  string
	NoColor bool
	Yes     bool

	// Configuration
	ConfigPath string
	APIURL     string
	LogLevel   string
}

// NewCommandContext extracts the persistent flags from cmd.
func NewCommandContext(cmd *cobra.Command) (*CommandContext, error) {
	flags := cmd.Flags()

	verbose, err := flags.GetBool("verbose")
	if err != nil {
		return nil, err
	}
	quiet, err := flags.GetBool("quiet")
	if err != nil {
		return nil, err
	}
	format, err := flags.GetString("format")
	if err != nil {
		return nil, err
	}
	noColor, err := flags.GetBool("no-color")
	if err != nil {
		return nil, err
	}
	yes, err := flags.GetBool("yes")
	if err != nil {
		return nil, err
	}
	configPath, err := flags.GetString("config")
	if err != nil {
		return nil, err
	}
	apiURL, err := flags.GetString("api-url")
	if err != nil {
		return nil, err
	}
	logLevel, err := flags.GetString("log-level")
	if err != nil {
		return nil, err
	}

	return &CommandContext{
		Verbose:    verbose,
		Quiet:      quiet,
		Format:     format,
		NoColor:    noColor,
		Yes:        yes,
		ConfigPath: configPath,
		APIURL:     apiURL,
		LogLevel:   logLevel,
	}, nil
}
