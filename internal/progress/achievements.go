// Package progress turns a project's raw config into the gamified view:
// achievements, the user level derived from them, and the completion
// percentage. It also hosts the event bus that streams action progress to
// connected dashboards.
package progress

import (
	"fmt"

	"github.com/salavey13/carTest/internal/configstore"
	"github.com/salavey13/carTest/internal/skill"
	"github.com/salavey13/carTest/pkg/models"
)

// Marker keys written by actions, checked by achievement conditions.
const (
	KeyWebhookSet          = "webhook_set"
	KeyEmbeddingsGenerated = "embeddings_generated"
	KeyPullRequestCreated  = "pull_request_created"
	KeyLeaderboardUnlocked = "leaderboard_unlocked"
)

// ChecklistServices are the login-checklist entries; each done service is
// worth one Common achievement.
var ChecklistServices = []string{"github", "vercel", "v0_dev", "supabase"}

// condition is one achievement slot. met is evaluated against a config
// snapshot; the slot contributes to the level and progress counts only when
// met.
type condition struct {
	rarity models.Rarity
	met    func(cfg *configstore.Config) bool
	msg    func(cfg *configstore.Config) string
}

// Engine evaluates achievement conditions for a project. Conditions are
// fixed at construction: the static set below plus one per non-root catalog
// skill.
type Engine struct {
	catalog    *skill.Catalog
	conditions []condition
}

// NewEngine builds the engine for a catalog.
func NewEngine(catalog *skill.Catalog) *Engine {
	e := &Engine{catalog: catalog}
	e.conditions = e.buildConditions()
	return e
}

func (e *Engine) buildConditions() []condition {
	conds := []condition{
		{
			rarity: models.RarityRare,
			met:    func(cfg *configstore.Config) bool { return cfg.VercelProjectURL() != "" },
			msg: func(cfg *configstore.Config) string {
				return fmt.Sprintf("🚀 Project deployed on Vercel: %s", cfg.VercelProjectURL())
			},
		},
		{
			// Demo database counts, but only as a Common tier; an own
			// project id upgrades the same slot to Rare via the condition
			// below.
			rarity: models.RarityCommon,
			met: func(cfg *configstore.Config) bool {
				return cfg.SupabaseProjectID() != "" && cfg.SupabaseDemo()
			},
			msg: func(cfg *configstore.Config) string {
				return "🎲 Connected to the demo database"
			},
		},
		{
			rarity: models.RarityRare,
			met: func(cfg *configstore.Config) bool {
				return cfg.SupabaseProjectID() != "" && !cfg.SupabaseDemo()
			},
			msg: func(cfg *configstore.Config) string {
				return fmt.Sprintf("🗄️ Own Supabase project linked: %s", cfg.SupabaseProjectID())
			},
		},
		{
			rarity: models.RarityEpic,
			met: func(cfg *configstore.Config) bool {
				return cfg.TelegramBotToken() != "" && cfg.AdminChatID() != ""
			},
			msg: func(cfg *configstore.Config) string {
				return "🤖 Telegram bot configured and admin chat wired"
			},
		},
		{
			rarity: models.RarityEpic,
			met:    func(cfg *configstore.Config) bool { return cfg.Completed(KeyWebhookSet) },
			msg: func(cfg *configstore.Config) string {
				return "📡 Webhook installed, the bot is live"
			},
		},
		{
			rarity: models.RarityLegendary,
			met:    func(cfg *configstore.Config) bool { return cfg.Completed(KeyEmbeddingsGenerated) },
			msg: func(cfg *configstore.Config) string {
				return "🧠 Semantic search index generated"
			},
		},
		{
			rarity: models.RarityLegendary,
			met:    func(cfg *configstore.Config) bool { return cfg.Completed(KeyPullRequestCreated) },
			msg: func(cfg *configstore.Config) string {
				return "📤 First pull request created"
			},
		},
		{
			rarity: models.RarityMythic,
			met:    func(cfg *configstore.Config) bool { return cfg.Completed(KeyLeaderboardUnlocked) },
			msg: func(cfg *configstore.Config) string {
				return "🏆 Leaderboard unlocked!"
			},
		},
	}
	for _, svc := range ChecklistServices {
		svc := svc
		conds = append(conds, condition{
			rarity: models.RarityCommon,
			met:    func(cfg *configstore.Config) bool { return cfg.ChecklistDone(svc) },
			msg: func(cfg *configstore.Config) string {
				return fmt.Sprintf("✅ Signed in to %s", svc)
			},
		})
	}
	// One slot per skill. The root is seeded by every reset and would hand
	// out a free achievement, so it gets no slot.
	for _, s := range e.catalog.All() {
		if s.ID == skill.RootID {
			continue
		}
		s := s
		conds = append(conds, condition{
			rarity: models.RarityCommon,
			met:    func(cfg *configstore.Config) bool { return cfg.SkillCompleted(s.ID) },
			msg: func(cfg *configstore.Config) string {
				return fmt.Sprintf("%s %s", s.Icon, s.Name)
			},
		})
	}
	return conds
}

// TotalSlots returns the number of achievement conditions. The dashboard
// uses it as the denominator for the completion percentage.
func (e *Engine) TotalSlots() int { return len(e.conditions) }

// MetCount returns how many conditions the config satisfies.
func (e *Engine) MetCount(cfg *configstore.Config) int {
	n := 0
	for _, c := range e.conditions {
		if c.met(cfg) {
			n++
		}
	}
	return n
}

// Achievements returns the earned achievements in condition order. When
// nothing is met yet a single placeholder is returned so the dashboard never
// renders an empty panel; it does not count toward the level.
func (e *Engine) Achievements(cfg *configstore.Config) []models.Achievement {
	var out []models.Achievement
	for _, c := range e.conditions {
		if !c.met(cfg) {
			continue
		}
		out = append(out, models.Achievement{
			Message: c.msg(cfg),
			Rarity:  c.rarity,
			Color:   c.rarity.Color(),
		})
	}
	if len(out) == 0 {
		out = append(out, models.Achievement{
			Message: "🌱 Get started: complete your first skill",
			Rarity:  models.RarityCommon,
			Color:   models.RarityCommon.Color(),
		})
	}
	return out
}

// ProgressPercent returns met/total rounded down, clamped to 0..100.
func (e *Engine) ProgressPercent(cfg *configstore.Config) int {
	total := e.TotalSlots()
	if total == 0 {
		return 0
	}
	pct := e.MetCount(cfg) * 100 / total
	if pct > 100 {
		pct = 100
	}
	return pct
}

// Snapshot assembles the full dashboard state for a project.
func (e *Engine) Snapshot(project string, cfg *configstore.Config) models.StateSnapshot {
	return models.StateSnapshot{
		Project:         project,
		Skills:          e.catalog.States(cfg),
		Achievements:    e.Achievements(cfg),
		Level:           e.Level(cfg),
		ProgressPercent: e.ProgressPercent(cfg),
	}
}
