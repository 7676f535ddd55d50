package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/salavey13/carTest/internal/config"
	"github.com/salavey13/carTest/internal/configstore"
	"github.com/salavey13/carTest/internal/skill"
)

func newProjectsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "projects",
		Short: "List known projects",
		RunE: func(cmd *cobra.Command, args []string) error {
			home := config.MustHomeFrom(cmd.Context())
			settings, err := config.LoadSettings(home)
			if err != nil {
				return err
			}
			store := configstore.New(settings.ProjectsDir, skill.RootID)
			projects, err := store.Projects()
			if err != nil {
				return err
			}
			if len(projects) == 0 {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "No projects yet")
				return nil
			}
			for _, p := range projects {
				marker := "  "
				if p == settings.DefaultProject {
					marker = "* "
				}
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), marker+p)
			}
			return nil
		},
	}
	return cmd
}
