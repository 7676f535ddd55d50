package progress

import (
	"github.com/salavey13/carTest/internal/configstore"
	"github.com/salavey13/carTest/pkg/models"
)

// LevelFor maps a met-condition count to a tier. Levels only ever grow with
// the count, so completing work never demotes a user.
func LevelFor(met int) models.Level {
	switch {
	case met >= 5:
		return models.LevelBadass
	case met >= 3:
		return models.LevelAdvanced
	case met >= 1:
		return models.LevelIntermediate
	default:
		return models.LevelBeginner
	}
}

// Level returns the tier for a config snapshot. The placeholder achievement
// shown on a fresh project does not count; only met conditions do.
func (e *Engine) Level(cfg *configstore.Config) models.Level {
	return LevelFor(e.MetCount(cfg))
}
