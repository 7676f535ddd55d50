package config

import (
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Settings holds daemon-level configuration loaded from <home>/settings.yaml.
// Missing file or missing fields fall back to defaults.
type Settings struct {
	Port           int    `yaml:"port"`
	ProjectsDir    string `yaml:"projects_dir"`
	DefaultProject string `yaml:"default_project"`
	TemplateRepo   string `yaml:"template_repo"`
	ActionTimeout  string `yaml:"action_timeout"` // Go duration, e.g. "10m"
	APIKey         string `yaml:"api_key"`
}

// SettingsPath returns the settings file location under home.
func SettingsPath(home string) string {
	return filepath.Join(home, "settings.yaml")
}

// DefaultSettings returns the settings used when no file exists.
func DefaultSettings(home string) Settings {
	return Settings{
		Port:           1313,
		ProjectsDir:    filepath.Join(home, "projects"),
		DefaultProject: "starter",
		TemplateRepo:   "https://github.com/salavey13/carTest",
		ActionTimeout:  "10m",
	}
}

// LoadSettings reads <home>/settings.yaml, applying defaults for any field
// left unset. A missing file is not an error.
func LoadSettings(home string) (Settings, error) {
	s := DefaultSettings(home)
	data, err := os.ReadFile(SettingsPath(home))
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return s, err
	}
	var file Settings
	if err := yaml.Unmarshal(data, &file); err != nil {
		return s, err
	}
	if file.Port != 0 {
		s.Port = file.Port
	}
	if file.ProjectsDir != "" {
		s.ProjectsDir = file.ProjectsDir
	}
	if file.DefaultProject != "" {
		s.DefaultProject = file.DefaultProject
	}
	if file.TemplateRepo != "" {
		s.TemplateRepo = file.TemplateRepo
	}
	if file.ActionTimeout != "" {
		s.ActionTimeout = file.ActionTimeout
	}
	if file.APIKey != "" {
		s.APIKey = file.APIKey
	}
	return s, nil
}

// SaveSettings writes the settings file, creating home if needed.
func SaveSettings(home string, s Settings) error {
	if err := os.MkdirAll(home, 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(s)
	if err != nil {
		return err
	}
	return os.WriteFile(SettingsPath(home), data, 0o644)
}

// Timeout parses ActionTimeout, falling back to ten minutes on bad input.
func (s Settings) Timeout() time.Duration {
	d, err := time.ParseDuration(s.ActionTimeout)
	if err != nil || d <= 0 {
		return 10 * time.Minute
	}
	return d
}
