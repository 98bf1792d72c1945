package cli

import (
	"github.com/spf13/cobra"

	"github.com/lvlup-app/lvlup/internal/daemon"
)

func newServeCmd() *cobra.Command {
	var (
		serveHost string
		servePort int
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the local API, reminders and the daily rollover",
		Long: `Start the local HTTP API (default http://127.0.0.1:7420) for a UI shell.
While serving, lvlup also delivers reminders and runs the daily rollover
that flags overdue tasks, resets day counters and fails expired goals.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := daemon.New()
			if err != nil {
				return err
			}
			defer d.Close()

			// Override config from flags
			if serveHost != "" {
				d.Config.API.Host = serveHost
			}
			if servePort > 0 {
				d.Config.API.Port = servePort
			}

			return d.Serve(cmd.Context())
		},
	}
	cmd.Flags().StringVar(&serveHost, "host", "", "Host to listen on (overrides config)")
	cmd.Flags().IntVar(&servePort, "port", 0, "Port to listen on (overrides config)")
	return cmd
}
