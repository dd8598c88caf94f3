package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config models ~/.lifequest.yml.
type Config struct {
	DBPath    string `yaml:"db_path"`
	Character struct {
		Name           string   `yaml:"name"`
		StatCategories []string `yaml:"stat_categories"`
	} `yaml:"character"`
	Sources []SourceConfig `yaml:"sources"`
}

// SourceConfig declares an external integration and how its records map to
// tasks. Registered into the engine by `lq source register`.
type SourceConfig struct {
	Name         string            `yaml:"name"`
	Type         string            `yaml:"type"`
	AuthType     string            `yaml:"auth_type"`
	Config       map[string]string `yaml:"config"`
	SyncSchedule string            `yaml:"sync_schedule"`
	Mapping      MappingConfig     `yaml:"mapping"`
}

type MappingConfig struct {
	ExternalIDField    string   `yaml:"external_id_field"`
	TitleField         string   `yaml:"title_field"`
	DescriptionField   string   `yaml:"description_field"`
	DueDateField       string   `yaml:"due_date_field"`
	EstimatedXPFormula string   `yaml:"estimated_xp_formula"`
	DefaultStats       []string `yaml:"default_stats"`
}

func DefaultPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home dir: %w", err)
	}
	return filepath.Join(homeDir, ".lifequest.yml"), nil
}

// Load reads config from path. A missing file yields an empty config, not an
// error: every field has a working default.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Config{}, nil
		}
		return nil, err
	}
	return FromYAML(data)
}

func FromYAML(data []byte) (*Config, error) {
	var c Config
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate ensures declared sources are usable before they reach the engine.
func (c *Config) Validate() error {
	seen := map[string]bool{}
	for i, src := range c.Sources {
		if src.Name == "" {
			return fmt.Errorf("sources[%d].name is required", i)
		}
		if seen[src.Name] {
			return fmt.Errorf("duplicate source name %q", src.Name)
		}
		seen[src.Name] = true
		if src.Type == "" {
			return fmt.Errorf("source %s: type is required", src.Name)
		}
		if src.Mapping.TitleField == "" {
			return fmt.Errorf("source %s: mapping.title_field is required", src.Name)
		}
	}
	return nil
}
