package commands

import (
	"github.com/spf13/cobra"
	"go.trai.ch/blueshift/internal/app"
)

func (c *CLI) newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run every configured task until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			driver, _ := cmd.Flags().GetString("driver")
			logFormat, _ := cmd.Flags().GetString("log-format")
			noTrace, _ := cmd.Flags().GetBool("no-trace")
			ci, _ := cmd.Flags().GetBool("ci")

			// --ci is shorthand for --log-format=json
			if ci {
				logFormat = "json"
			}

			return c.app.Run(cmd.Context(), app.RunOptions{
				LoadOptions: loadOptions(cmd),
				Driver:      driver,
				LogFormat:   logFormat,
				NoTrace:     noTrace,
			})
		},
	}
	cmd.Flags().StringP("driver", "d", "", "Device driver: loopback or file (default: from configuration)")
	cmd.Flags().StringP("log-format", "o", "auto", "Log format: auto, pretty, or json")
	cmd.Flags().Bool("ci", false, "Use JSON logs (shorthand for --log-format=json)")
	cmd.Flags().Bool("no-trace", false, "Do not record task cycle spans")
	return cmd
}
