package configstore

import (
	"sort"
	"strconv"
)

// Completion marker value. A key's presence with this value is the only
// signal of completion; absence means not completed.
const completedValue = "completed"

// Well-known metadata keys written by actions and read by the achievement
// engine. Internal logic goes through the typed accessors below instead of
// parsing raw key/value pairs.
const (
	keyVercelProjectURL  = "VERCEL_PROJECT_URL"
	keySupabaseProjectID = "SUPABASE_PROJECT_ID"
	keySupabaseDemo      = "SUPABASE_DEMO"
	keyTelegramBotToken  = "TELEGRAM_BOT_TOKEN"
	keyAdminChatID       = "ADMIN_CHAT_ID"
	keyStartTime         = "config_start_time"
	keyUserID            = "user_id"
)

// Config is the typed in-memory form of one project's flat key=value file.
// Keys holding the completion marker are tracked separately from free-form
// metadata so callers never string-match values.
type Config struct {
	completed map[string]bool
	meta      map[string]string
}

// NewConfig returns an empty config.
func NewConfig() *Config {
	return &Config{
		completed: make(map[string]bool),
		meta:      make(map[string]string),
	}
}

// fromMap builds a Config from raw file pairs.
func fromMap(raw map[string]string) *Config {
	c := NewConfig()
	for k, v := range raw {
		if v == completedValue {
			c.completed[k] = true
		} else {
			c.meta[k] = v
		}
	}
	return c
}

// toMap flattens the config back to raw file pairs.
func (c *Config) toMap() map[string]string {
	out := make(map[string]string, len(c.completed)+len(c.meta))
	for k := range c.completed {
		out[k] = completedValue
	}
	for k, v := range c.meta {
		out[k] = v
	}
	return out
}

// sortedKeys returns all keys in deterministic order for serialization.
func (c *Config) sortedKeys() []string {
	keys := make([]string, 0, len(c.completed)+len(c.meta))
	for k := range c.completed {
		keys = append(keys, k)
	}
	for k := range c.meta {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Clone returns a deep copy; actions receive clones so the store's
// load-mutate-save cycle stays the single write path.
func (c *Config) Clone() *Config {
	return fromMap(c.toMap())
}

// Completed reports whether key carries the completion marker.
func (c *Config) Completed(key string) bool { return c.completed[key] }

// MarkCompleted sets the completion marker for key.
func (c *Config) MarkCompleted(key string) {
	delete(c.meta, key)
	c.completed[key] = true
}

// Meta returns a free-form metadata value ("" if absent).
func (c *Config) Meta(key string) string { return c.meta[key] }

// SetMeta stores a free-form metadata value. The completion marker value is
// routed to MarkCompleted so the two categories cannot diverge.
func (c *Config) SetMeta(key, value string) {
	if value == completedValue {
		c.MarkCompleted(key)
		return
	}
	delete(c.completed, key)
	c.meta[key] = value
}

// Has reports whether key is present in either category.
func (c *Config) Has(key string) bool {
	if c.completed[key] {
		return true
	}
	_, ok := c.meta[key]
	return ok
}

// Merge applies every pair from extra onto the config.
func (c *Config) Merge(extra map[string]string) {
	for k, v := range extra {
		c.SetMeta(k, v)
	}
}

// SkillCompleted reports whether the skill's completion marker is present.
func (c *Config) SkillCompleted(skillID string) bool { return c.Completed(skillID) }

// ToolInstalled reports the cached result of a `<tool> --version` probe.
func (c *Config) ToolInstalled(tool string) bool { return c.Completed(tool + "_installed") }

// MarkToolInstalled caches a successful tool probe; invalidated only by Reset.
func (c *Config) MarkToolInstalled(tool string) { c.MarkCompleted(tool + "_installed") }

// ChecklistDone reports whether a login-checklist service is marked done.
func (c *Config) ChecklistDone(service string) bool { return c.Completed(service) }

// VercelProjectURL returns the linked Vercel project URL, if any.
func (c *Config) VercelProjectURL() string { return c.Meta(keyVercelProjectURL) }

// SupabaseProjectID returns the linked Supabase project id, if any.
func (c *Config) SupabaseProjectID() string { return c.Meta(keySupabaseProjectID) }

// SupabaseDemo reports whether the linked database is the shared demo one.
func (c *Config) SupabaseDemo() bool { return c.Meta(keySupabaseDemo) == "true" }

// TelegramBotToken returns the configured bot token, if any.
func (c *Config) TelegramBotToken() string { return c.Meta(keyTelegramBotToken) }

// AdminChatID returns the configured admin chat id, if any.
func (c *Config) AdminChatID() string { return c.Meta(keyAdminChatID) }

// UserID returns the id seeded by the login checklist, if any.
func (c *Config) UserID() string { return c.Meta(keyUserID) }

// StartTime returns the unix second the checklist was initialized, or 0.
func (c *Config) StartTime() int64 {
	n, err := strconv.ParseInt(c.Meta(keyStartTime), 10, 64)
	if err != nil {
		return 0
	}
	return n
}
