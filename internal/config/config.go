// Package config loads the project configuration file.
package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	doterrors "github.com/MathieuDuponchelle/better-doctool/internal/errors"
)

// Config is the full project configuration.
type Config struct {
	// Sitemap is the path to the sitemap file declaring the page
	// hierarchy. The first entry is the index page.
	Sitemap string `yaml:"sitemap"`

	// IncludePaths are the directories searched, in order, for page
	// sources named in the sitemap.
	IncludePaths []string `yaml:"include_paths,omitempty"`

	OutputDir string `yaml:"output_dir"`

	// StateFile is the incremental-build database. Deleting it forces a
	// full rebuild.
	StateFile string `yaml:"state_file,omitempty"`

	Title string `yaml:"title,omitempty"`

	Logging LoggingConfig `yaml:"logging,omitempty"`
	Watch   WatchConfig   `yaml:"watch,omitempty"`
}

// Load reads a configuration file. A .env or .env.local file in the
// working directory is loaded first; ${VAR} references in the YAML are
// expanded from the environment.
func Load(path string) (*Config, error) {
	for _, envPath := range []string{".env", ".env.local"} {
		if err := godotenv.Load(envPath); err == nil {
			break
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, doterrors.FatalIO(err, path)
	}

	var cfg Config
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), &cfg); err != nil {
		return nil, doterrors.Wrap(err, doterrors.CategoryConfig, doterrors.SeverityFatal,
			fmt.Sprintf("parse configuration %s", path))
	}

	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Sitemap == "" {
		c.Sitemap = "sitemap.txt"
	}
	if c.OutputDir == "" {
		c.OutputDir = "built_doc"
	}
	if c.StateFile == "" {
		c.StateFile = "doctool.db"
	}
	if c.Title == "" {
		c.Title = "Documentation"
	}
	c.Logging.applyDefaults()
	c.Watch.applyDefaults()
}

func (c *Config) validate() error {
	if len(c.IncludePaths) == 0 {
		return doterrors.New(doterrors.CategoryConfig, doterrors.SeverityFatal,
			"include_paths must list at least one source directory")
	}
	if _, err := c.Watch.DebounceDuration(); err != nil {
		return err
	}
	if _, err := c.Watch.RebuildIntervalDuration(); err != nil {
		return err
	}
	return nil
}

const exampleConfig = `# doctool project configuration
sitemap: sitemap.txt
include_paths:
  - markdown
output_dir: built_doc
state_file: doctool.db
title: My Project

logging:
  level: info
  format: text

watch:
  debounce: 300ms
  rebuild_interval: 0s
  metrics_addr: ""
`

// Init writes an example configuration file.
func Init(path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return doterrors.New(doterrors.CategoryConfig, doterrors.SeverityFatal,
			fmt.Sprintf("configuration file already exists: %s (use --force to overwrite)", path))
	}
	if err := os.WriteFile(path, []byte(exampleConfig), 0o644); err != nil {
		return doterrors.FatalIO(err, path)
	}
	return nil
}
