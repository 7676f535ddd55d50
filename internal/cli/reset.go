package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/salavey13/carTest/internal/config"
	"github.com/salavey13/carTest/internal/configstore"
	"github.com/salavey13/carTest/internal/skill"
)

func newResetCmd() *cobra.Command {
	var project string

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Reset a project's progress to the seed state",
		RunE: func(cmd *cobra.Command, args []string) error {
			home := config.MustHomeFrom(cmd.Context())
			settings, err := config.LoadSettings(home)
			if err != nil {
				return err
			}
			if project == "" {
				project = settings.DefaultProject
			}
			store := configstore.New(settings.ProjectsDir, skill.RootID)
			if !configstore.ValidProject(project) {
				return fmt.Errorf("invalid project name %q", project)
			}
			unlock := store.Lock(project)
			_, err = store.Reset(project)
			unlock()
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Project %s reset\n", project)
			return nil
		},
	}

	cmd.Flags().StringVar(&project, "project", "", "Project to reset (default from settings.yaml)")
	return cmd
}
