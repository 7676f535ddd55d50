// Package skill defines the static skill catalog, the dependency graph a
// user works through when bootstrapping a project, and the pure functions
// deriving per-skill visibility, unlock, and completion state from a
// project's config snapshot.
package skill

import "github.com/salavey13/carTest/pkg/models"

// Skill is one unlockable node in the setup tree. The id doubles as the
// config key holding the completion marker.
type Skill struct {
	ID            string
	Name          string
	Icon          string
	Description   string
	Position      models.Position
	Dependencies  []string
	RequiredLevel models.Level
}

// RootID is the seed skill: always visible, always unlocked, marked
// completed by a config reset.
const RootID = "create-project-folder"
