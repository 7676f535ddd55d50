package cli

import (
	"github.com/spf13/cobra"

	"github.com/salavey13/carTest/internal/config"
	"github.com/salavey13/carTest/internal/daemon"
)

func newDaemonCmd() *cobra.Command {
	var (
		port int
		dev  bool
	)

	cmd := &cobra.Command{
		Use:    "daemon",
		Short:  "Internal: run daemon process",
		Hidden: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			home := config.MustHomeFrom(cmd.Context())
			return daemon.StartForeground(cmd.Context(), daemon.StartOptions{
				Home: home,
				Port: port,
				Dev:  dev,
			})
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "Port for the dashboard")
	cmd.Flags().BoolVar(&dev, "dev", false, "Enable dev mode")

	return cmd
}
