package cli

import (
	"fmt"
	"net/url"
	"os/exec"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/salavey13/carTest/internal/config"
	"github.com/salavey13/carTest/internal/daemon"
)

func newStartCmd() *cobra.Command {
	var (
		port       int
		foreground bool
		dev        bool
	)

	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start Questboard (dashboard + daemon)",
		RunE: func(cmd *cobra.Command, args []string) error {
			home := config.MustHomeFrom(cmd.Context())

			settings, err := config.LoadSettings(home)
			if err != nil {
				return err
			}
			effectivePort := settings.Port
			if port != 0 {
				effectivePort = port
			}
			opts := daemon.StartOptions{
				Home: home,
				Port: port,
				Dev:  dev,
			}

			ui := (&url.URL{Scheme: "http", Host: fmt.Sprintf("localhost:%d", effectivePort)}).String()

			if foreground {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Starting Questboard in foreground on %s\n", ui)
				return daemon.StartForeground(cmd.Context(), opts)
			}

			pid, err := daemon.StartBackground(cmd.Context(), opts)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Questboard started (pid %d)\n", pid)
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Dashboard: %s\n", ui)

			// Best-effort open browser.
			_ = openBrowser(ui)
			return nil
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "Port for the dashboard (default from settings.yaml, 1313)")
	cmd.Flags().BoolVar(&foreground, "foreground", false, "Run in foreground (do not daemonize)")
	cmd.Flags().BoolVar(&dev, "dev", false, "Enable dev mode (CORS open for a frontend dev server)")

	return cmd
}

func openBrowser(u string) error {
	switch runtime.GOOS {
	case "darwin":
		return exec.Command("open", u).Start()
	case "windows":
		return exec.Command("cmd", "/c", "start", u).Start()
	default:
		if _, err := exec.LookPath("xdg-open"); err != nil {
			return err
		}
		return exec.Command("xdg-open", u).Start()
	}
}
