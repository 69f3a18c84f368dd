package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/Sumatoshi-tech/timegraph/pkg/config"
	"github.com/Sumatoshi-tech/timegraph/pkg/version"
)

// defaultConfigFile is written by "config set" when --config is not given.
const defaultConfigFile = "timegraph.yaml"

func newConfigCommand(flags *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or edit the configuration",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "show",
			Short: "Print the effective configuration as YAML",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				settings, err := config.Settings(flags.configPath)
				if err != nil {
					return err
				}

				if flags.output == outputJSON {
					return newPrinter(cmd.OutOrStdout(), outputJSON).json(settings)
				}

				data, err := yaml.Marshal(settings)
				if err != nil {
					return fmt.Errorf("encode settings: %w", err)
				}

				_, err = cmd.OutOrStdout().Write(data)

				return err
			},
		},
		&cobra.Command{
			Use:   "get <key>",
			Short: "Print the effective value of one key, e.g. server.port",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				value, err := config.Get(flags.configPath, args[0])
				if err != nil {
					return err
				}

				_, err = fmt.Fprintln(cmd.OutOrStdout(), value)

				return err
			},
		},
		&cobra.Command{
			Use:   "set <key> <value>",
			Short: "Write one key into the configuration file",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				path := flags.configPath
				if path == "" {
					path = defaultConfigFile
				}

				err := config.Set(path, args[0], args[1])
				if err != nil {
					return err
				}

				_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s = %s (%s)\n", args[0], args[1], path)

				return err
			},
		},
	)

	return cmd
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.String("timegraph"))
		},
	}
}
