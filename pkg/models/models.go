// Package models provides shared types for the Questboard HTTP API and external tools.
// These types mirror the API JSON and are stable for use by pkg/client and other consumers.
package models

import "time"

// Level is the ordinal user tier derived from the achievement count.
type Level int

const (
	LevelBeginner Level = iota
	LevelIntermediate
	LevelAdvanced
	LevelBadass
)

// String returns the display name used in API payloads and messages.
func (l Level) String() string {
	switch l {
	case LevelBeginner:
		return "Beginner"
	case LevelIntermediate:
		return "Intermediate"
	case LevelAdvanced:
		return "Advanced"
	case LevelBadass:
		return "Badass"
	default:
		return "Unknown"
	}
}

// MarshalText implements encoding.TextMarshaler so levels serialize as their names.
func (l Level) MarshalText() ([]byte, error) { return []byte(l.String()), nil }

// UnmarshalText accepts the names emitted by MarshalText; anything else maps to Beginner.
func (l *Level) UnmarshalText(b []byte) error {
	switch string(b) {
	case "Intermediate":
		*l = LevelIntermediate
	case "Advanced":
		*l = LevelAdvanced
	case "Badass":
		*l = LevelBadass
	default:
		*l = LevelBeginner
	}
	return nil
}

// Rarity is the cosmetic weight of an achievement.
type Rarity string

const (
	RarityCommon    Rarity = "Common"
	RarityRare      Rarity = "Rare"
	RarityEpic      Rarity = "Epic"
	RarityLegendary Rarity = "Legendary"
	RarityMythic    Rarity = "Mythic"
)

// Color returns the hex display color for a rarity tier.
func (r Rarity) Color() string {
	switch r {
	case RarityRare:
		return "#3498db"
	case RarityEpic:
		return "#8e44ad"
	case RarityLegendary:
		return "#e67e22"
	case RarityMythic:
		return "#ff0000"
	default:
		return "#808080"
	}
}

// Achievement is a derived progress marker; never persisted on its own.
type Achievement struct {
	Message string `json:"message"`
	Rarity  Rarity `json:"rarity"`
	Color   string `json:"color,omitempty"`
}

// Position is a presentation-only grid coordinate for a skill node.
type Position struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// SkillState is the renderable state of one skill for a given project.
type SkillState struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	Icon          string   `json:"icon,omitempty"`
	Description   string   `json:"description,omitempty"`
	Position      Position `json:"position"`
	Dependencies  []string `json:"dependencies,omitempty"`
	RequiredLevel Level    `json:"required_level"`
	Visible       bool     `json:"visible"`
	Unlocked      bool     `json:"unlocked"`
	Completed     bool     `json:"completed"`
}

// StateSnapshot is the full dashboard state for a project; any rendering
// layer (web, TUI, desktop) consumes it independently.
type StateSnapshot struct {
	Project         string        `json:"project"`
	Skills          []SkillState  `json:"skills"`
	Achievements    []Achievement `json:"achievements"`
	Level           Level         `json:"level"`
	ProgressPercent int           `json:"progress_percent"`
}

// ExecuteResult is the uniform envelope returned by /execute.
type ExecuteResult struct {
	Message string `json:"message"`
	Refresh bool   `json:"refresh"`
}

// ProgressEvent is a transient notification describing an in-flight or
// finished external action. Progress is -1 on failure, 0..99 in flight,
// 100 on success.
type ProgressEvent struct {
	Type      string    `json:"type"`
	Tool      string    `json:"tool,omitempty"`
	Message   string    `json:"message"`
	Progress  int       `json:"progress"`
	Timestamp time.Time `json:"timestamp"`
}

// LeaderboardEntry is one persisted progress snapshot.
type LeaderboardEntry struct {
	UserID       string    `json:"user_id"`
	Project      string    `json:"project"`
	Level        Level     `json:"level"`
	Achievements int       `json:"achievements"`
	TotalSeconds int64     `json:"total_seconds"`
	CreatedAt    time.Time `json:"created_at,omitempty"`
}
