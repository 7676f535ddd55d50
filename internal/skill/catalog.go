package skill

import (
	"fmt"

	"github.com/salavey13/carTest/pkg/models"
)

// Catalog is the fixed skill graph with precomputed indices. Built once at
// startup; construction fails fast on structural problems (see validate.go).
type Catalog struct {
	skills []Skill
	byID   map[string]*Skill
}

// NewCatalog builds and validates a catalog from the given skills.
func NewCatalog(skills []Skill) (*Catalog, error) {
	if err := validateSkills(skills); err != nil {
		return nil, err
	}
	c := &Catalog{
		skills: skills,
		byID:   make(map[string]*Skill, len(skills)),
	}
	for i := range c.skills {
		c.byID[c.skills[i].ID] = &c.skills[i]
	}
	if _, ok := c.byID[RootID]; !ok {
		return nil, fmt.Errorf("catalog is missing the root skill %q", RootID)
	}
	return c, nil
}

// Default returns the built-in catalog. It panics on a broken seed, which
// can only happen from a bad edit to defaultSkills.
func Default() *Catalog {
	c, err := NewCatalog(defaultSkills())
	if err != nil {
		panic(err)
	}
	return c
}

// Get returns a skill by id.
func (c *Catalog) Get(id string) (Skill, bool) {
	s, ok := c.byID[id]
	if !ok {
		return Skill{}, false
	}
	return *s, true
}

// All returns every skill in declaration order.
func (c *Catalog) All() []Skill {
	out := make([]Skill, len(c.skills))
	copy(out, c.skills)
	return out
}

// Len returns the number of skills in the catalog.
func (c *Catalog) Len() int { return len(c.skills) }

// defaultSkills is the hardcoded setup tree for the carTest template:
// editor/tooling installs fan out from the project folder, then the git,
// database, deployment, and bot branches build on each other.
func defaultSkills() []Skill {
	return []Skill{
		{
			ID:            RootID,
			Name:          "Create project folder",
			Icon:          "📁",
			Description:   "Create the base directory for your project. The first step of the journey.",
			Position:      models.Position{Row: 8, Col: 5},
			RequiredLevel: models.LevelBeginner,
		},
		{
			ID:            "install-git",
			Name:          "Install Git",
			Icon:          "⚙️",
			Description:   "Set up version control. Without it you will get lost in file chaos.",
			Position:      models.Position{Row: 7, Col: 4},
			RequiredLevel: models.LevelBeginner,
		},
		{
			ID:            "install-node",
			Name:          "Install Node.js",
			Icon:          "🌐",
			Description:   "JavaScript outside the browser; the base for every CLI tool that follows.",
			Position:      models.Position{Row: 6, Col: 4},
			RequiredLevel: models.LevelBeginner,
		},
		{
			ID:            "install-vscode",
			Name:          "Install VS Code",
			Icon:          "💻",
			Description:   "A capable editor for writing and debugging code.",
			Position:      models.Position{Row: 8, Col: 2},
			RequiredLevel: models.LevelBeginner,
		},
		{
			ID:            "install-notepad",
			Name:          "Install Notepad++",
			Icon:          "📝",
			Description:   "A quick editor for plain text files.",
			Position:      models.Position{Row: 8, Col: 1},
			RequiredLevel: models.LevelBeginner,
		},
		{
			ID:            "clone-repo",
			Name:          "Clone the template repository",
			Icon:          "⬇️",
			Description:   "Copy the template repository to your machine.",
			Position:      models.Position{Row: 7, Col: 6},
			Dependencies:  []string{"install-git", RootID},
			RequiredLevel: models.LevelIntermediate,
		},
		{
			ID:            "pull-git-updates",
			Name:          "Pull template updates",
			Icon:          "🔄",
			Description:   "Fetch the latest template changes into your clone.",
			Position:      models.Position{Row: 6, Col: 6},
			Dependencies:  []string{"clone-repo"},
			RequiredLevel: models.LevelIntermediate,
		},
		{
			ID:            "apply-zip-updates",
			Name:          "Apply ZIP updates",
			Icon:          "📦",
			Description:   "Unpack an update archive over the working copy.",
			Position:      models.Position{Row: 8, Col: 7},
			Dependencies:  []string{"clone-repo"},
			RequiredLevel: models.LevelBadass,
		},
		{
			ID:            "create-pull-request",
			Name:          "Create a pull request",
			Icon:          "📤",
			Description:   "Push your changes on a branch and open them for review.",
			Position:      models.Position{Row: 2, Col: 10},
			Dependencies:  []string{"clone-repo"},
			RequiredLevel: models.LevelBadass,
		},
		{
			ID:            "install-supabase-cli",
			Name:          "Install Supabase CLI",
			Icon:          "🔑",
			Description:   "Command line control over the project database.",
			Position:      models.Position{Row: 5, Col: 3},
			Dependencies:  []string{"install-node"},
			RequiredLevel: models.LevelIntermediate,
		},
		{
			ID:            "init-supabase",
			Name:          "Initialize Supabase",
			Icon:          "🎲",
			Description:   "Link the working copy to a Supabase project.",
			Position:      models.Position{Row: 4, Col: 4},
			Dependencies:  []string{"install-supabase-cli", "clone-repo"},
			RequiredLevel: models.LevelIntermediate,
		},
		{
			ID:            "reset-supabase-db",
			Name:          "Reset the database",
			Icon:          "🔄",
			Description:   "Wipe the database back to its initial state.",
			Position:      models.Position{Row: 3, Col: 3},
			Dependencies:  []string{"init-supabase"},
			RequiredLevel: models.LevelIntermediate,
		},
		{
			ID:            "seed-demo-data",
			Name:          "Load demo data",
			Icon:          "📋",
			Description:   "Fill the database with sample rows to play with.",
			Position:      models.Position{Row: 3, Col: 4},
			Dependencies:  []string{"init-supabase"},
			RequiredLevel: models.LevelIntermediate,
		},
		{
			ID:            "apply-custom-sql",
			Name:          "Apply custom.sql",
			Icon:          "📜",
			Description:   "Run your own SQL script against the database.",
			Position:      models.Position{Row: 3, Col: 5},
			Dependencies:  []string{"init-supabase"},
			RequiredLevel: models.LevelIntermediate,
		},
		{
			ID:            "install-vercel-cli",
			Name:          "Install Vercel CLI",
			Icon:          "🚀",
			Description:   "Command line control over cloud deployments.",
			Position:      models.Position{Row: 5, Col: 6},
			Dependencies:  []string{"install-node"},
			RequiredLevel: models.LevelIntermediate,
		},
		{
			ID:            "link-vercel",
			Name:          "Link the Vercel project",
			Icon:          "☁️",
			Description:   "Connect the working copy to a Vercel project.",
			Position:      models.Position{Row: 4, Col: 7},
			Dependencies:  []string{"install-vercel-cli", "clone-repo"},
			RequiredLevel: models.LevelIntermediate,
		},
		{
			ID:            "sync-env-vars",
			Name:          "Sync environment variables",
			Icon:          "🔗",
			Description:   "Pull the deployment environment into a local .env file.",
			Position:      models.Position{Row: 3, Col: 7},
			Dependencies:  []string{"link-vercel", "init-supabase"},
			RequiredLevel: models.LevelIntermediate,
		},
		{
			ID:            "setup-telegram-bot",
			Name:          "Set up the Telegram bot",
			Icon:          "🤖",
			Description:   "Verify the bot token and wire the admin chat.",
			Position:      models.Position{Row: 3, Col: 8},
			Dependencies:  []string{"link-vercel"},
			RequiredLevel: models.LevelAdvanced,
		},
		{
			ID:            "set-webhook",
			Name:          "Install the webhook",
			Icon:          "📡",
			Description:   "Point the bot's webhook at the deployed app.",
			Position:      models.Position{Row: 2, Col: 8},
			Dependencies:  []string{"setup-telegram-bot"},
			RequiredLevel: models.LevelAdvanced,
		},
		{
			ID:            "unlock-leaderboard",
			Name:          "Unlock the leaderboard",
			Icon:          "🏆",
			Description:   "Publish your progress snapshot once enough achievements are in.",
			Position:      models.Position{Row: 2, Col: 9},
			Dependencies:  []string{"setup-telegram-bot"},
			RequiredLevel: models.LevelBadass,
		},
		{
			ID:            "generate-embeddings",
			Name:          "Generate embeddings",
			Icon:          "🧠",
			Description:   "Build the semantic search index for the project.",
			Position:      models.Position{Row: 2, Col: 1},
			Dependencies:  []string{"install-node", "sync-env-vars"},
			RequiredLevel: models.LevelBadass,
		},
		// Easter eggs tucked into the far corner of the grid. No
		// dependencies, no gate; finding and clicking them is the point.
		{
			ID:            "hidden-achievement-1",
			Name:          "Secret achievement",
			Icon:          "🎮",
			Description:   "You found a hidden achievement! Keep exploring what the system can do.",
			Position:      models.Position{Row: 5, Col: 9},
			RequiredLevel: models.LevelBeginner,
		},
		{
			ID:            "hidden-achievement-2",
			Name:          "UI master",
			Icon:          "🎨",
			Description:   "Another hidden achievement! You are observant and curious.",
			Position:      models.Position{Row: 6, Col: 9},
			RequiredLevel: models.LevelBeginner,
		},
	}
}
