package cli

import (
	"errors"
	"fmt"
	"os/exec"

	"github.com/spf13/cobra"

	"github.com/salavey13/carTest/internal/config"
)

func newDoctorCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Verify runtime dependencies",
		RunE: func(cmd *cobra.Command, args []string) error {
			_ = config.MustHomeFrom(cmd.Context()) // ensures home resolves

			var problems []string

			// git and node are needed by most of the skill tree; everything
			// else is installed through the tree itself.
			if _, err := exec.LookPath("git"); err != nil {
				problems = append(problems, "missing dependency: git (not found on PATH)")
			}
			if _, err := exec.LookPath("node"); err != nil {
				problems = append(problems, "missing dependency: node (not found on PATH)")
			}

			if len(problems) > 0 {
				for _, p := range problems {
					_, _ = fmt.Fprintln(cmd.ErrOrStderr(), p)
				}
				return errors.New("doctor checks failed")
			}

			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "ok")
			return nil
		},
	}
	return cmd
}
