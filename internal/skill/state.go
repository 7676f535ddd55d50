package skill

import (
	"github.com/salavey13/carTest/internal/configstore"
	"github.com/salavey13/carTest/pkg/models"
)

// Visible reports whether a skill should be shown at all. A skill with no
// dependencies is always visible; otherwise one completed dependency is
// enough, so the next skill is teased as soon as progress starts. The root
// is always visible.
func (c *Catalog) Visible(id string, cfg *configstore.Config) bool {
	if id == RootID {
		return true
	}
	s, ok := c.byID[id]
	if !ok {
		return false
	}
	if len(s.Dependencies) == 0 {
		return true
	}
	for _, dep := range s.Dependencies {
		if cfg.SkillCompleted(dep) {
			return true
		}
	}
	return false
}

// Unlocked reports whether a skill is executable: every dependency must be
// completed. A dependency id missing from the catalog counts as permanently
// incomplete. The root is always unlocked.
func (c *Catalog) Unlocked(id string, cfg *configstore.Config) bool {
	if id == RootID {
		return true
	}
	s, ok := c.byID[id]
	if !ok {
		return false
	}
	for _, dep := range s.Dependencies {
		if _, known := c.byID[dep]; !known {
			return false
		}
		if !cfg.SkillCompleted(dep) {
			return false
		}
	}
	return true
}

// Completed reports whether the skill's completion marker is persisted.
func (c *Catalog) Completed(id string, cfg *configstore.Config) bool {
	return cfg.SkillCompleted(id)
}

// States returns the full renderable snapshot for every skill, in catalog
// order.
func (c *Catalog) States(cfg *configstore.Config) []models.SkillState {
	out := make([]models.SkillState, 0, len(c.skills))
	for _, s := range c.skills {
		deps := make([]string, len(s.Dependencies))
		copy(deps, s.Dependencies)
		out = append(out, models.SkillState{
			ID:            s.ID,
			Name:          s.Name,
			Icon:          s.Icon,
			Description:   s.Description,
			Position:      s.Position,
			Dependencies:  deps,
			RequiredLevel: s.RequiredLevel,
			Visible:       c.Visible(s.ID, cfg),
			Unlocked:      c.Unlocked(s.ID, cfg),
			Completed:     c.Completed(s.ID, cfg),
		})
	}
	return out
}
