// Package config holds the presentation defaults loaded from
// <root>/config.yaml. A missing file means defaults; a broken file is an
// error so a typo never silently changes behavior.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ofview/ofview/internal/perspective"
)

// Defaults mirror the recognized render options. Booleans that default to
// true are pointers so an absent key is distinguishable from "false".
type Defaults struct {
	HideCompleted  *bool `yaml:"hide_completed"`
	Limit          int   `yaml:"limit"`
	GroupByProject *bool `yaml:"group_by_project"`
	ShowHierarchy  bool  `yaml:"show_hierarchy"`
}

type Config struct {
	Defaults Defaults `yaml:"defaults"`
	Verbose  bool     `yaml:"verbose"`
}

const fileName = "config.yaml"

func Path(root string) string {
	return filepath.Join(root, fileName)
}

// Load reads <root>/config.yaml. A missing file returns the zero Config,
// which Options() resolves to the documented defaults.
func Load(root string) (Config, error) {
	var cfg Config
	b, err := os.ReadFile(Path(root))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return cfg, err
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse %s: %w", fileName, err)
	}
	return cfg, nil
}

func Save(root string, cfg Config) error {
	b, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return atomicWriteFile(Path(root), b, 0o644)
}

// Options resolves the file values against the documented defaults:
// completed hidden, limit 1000, grouped by project, hierarchy off.
func (c Config) Options() perspective.Options {
	opts := perspective.DefaultOptions()
	if c.Defaults.HideCompleted != nil {
		opts.HideCompleted = *c.Defaults.HideCompleted
	}
	if c.Defaults.Limit > 0 {
		opts.Limit = c.Defaults.Limit
	}
	if c.Defaults.GroupByProject != nil {
		opts.GroupByProject = *c.Defaults.GroupByProject
	}
	opts.ShowHierarchy = c.Defaults.ShowHierarchy
	return opts
}

func atomicWriteFile(path string, data []byte, perm fs.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp := filepath.Join(dir, fmt.Sprintf(".tmp-%d", time.Now().UTC().UnixNano()))
	if err := os.WriteFile(tmp, data, perm); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	// Rename is atomic on same filesystem.
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return nil
}
