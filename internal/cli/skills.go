package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/salavey13/carTest/internal/config"
	"github.com/salavey13/carTest/internal/configstore"
	"github.com/salavey13/carTest/internal/progress"
	"github.com/salavey13/carTest/internal/skill"
)

func newSkillsCmd() *cobra.Command {
	var project string

	cmd := &cobra.Command{
		Use:   "skills",
		Short: "Show the skill tree for a project",
		RunE: func(cmd *cobra.Command, args []string) error {
			home := config.MustHomeFrom(cmd.Context())
			settings, err := config.LoadSettings(home)
			if err != nil {
				return err
			}
			if project == "" {
				project = settings.DefaultProject
			}
			catalog := skill.Default()
			store := configstore.New(settings.ProjectsDir, skill.RootID)
			cfg, err := store.Load(project)
			if err != nil {
				return err
			}
			engine := progress.NewEngine(catalog)
			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(out, "Project %s: level %s, %d%% complete\n\n",
				project, engine.Level(cfg), engine.ProgressPercent(cfg))
			for _, s := range catalog.States(cfg) {
				if !s.Visible {
					continue
				}
				mark := " "
				switch {
				case s.Completed:
					mark = "✓"
				case !s.Unlocked:
					mark = "🔒"
				}
				line := fmt.Sprintf("%s %s %s", mark, s.Icon, s.Name)
				if !s.Unlocked && len(s.Dependencies) > 0 {
					line += " (needs " + strings.Join(s.Dependencies, ", ") + ")"
				}
				_, _ = fmt.Fprintln(out, line)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&project, "project", "", "Project to inspect (default from settings.yaml)")
	return cmd
}
