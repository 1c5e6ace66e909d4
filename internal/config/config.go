package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/atvirokodosprendimai/crewboard/internal/domain"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

//go:embed filters.toml
var defaultFilters string

// LoadEnv loads the given .env files into the process environment. Missing
// files are ignored; variables already set are kept.
func LoadEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, file := range files {
		if err := godotenv.Load(file); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("load %s: %w", file, err)
		}
	}
	return nil
}

// DefaultFilters is the built-in filter panel layout.
func DefaultFilters() domain.FilterConfiguration {
	cfg, err := ParseFilters(defaultFilters)
	if err != nil {
		panic(fmt.Sprintf("embedded filters.toml: %v", err))
	}
	return cfg
}

// LoadFilters reads a filter configuration file, TOML or YAML by
// extension. An empty path yields the built-in configuration.
func LoadFilters(path string) (domain.FilterConfiguration, error) {
	if strings.TrimSpace(path) == "" {
		return DefaultFilters(), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return domain.FilterConfiguration{}, err
	}
	var cfg domain.FilterConfiguration
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		cfg, err = ParseFiltersYAML(raw)
	default:
		cfg, err = ParseFilters(string(raw))
	}
	if err != nil {
		return domain.FilterConfiguration{}, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return cfg, nil
}

func ParseFilters(raw string) (domain.FilterConfiguration, error) {
	var cfg domain.FilterConfiguration
	if _, err := toml.Decode(raw, &cfg); err != nil {
		return domain.FilterConfiguration{}, err
	}
	if err := validateFilters(cfg); err != nil {
		return domain.FilterConfiguration{}, err
	}
	return cfg, nil
}

func ParseFiltersYAML(raw []byte) (domain.FilterConfiguration, error) {
	var cfg domain.FilterConfiguration
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return domain.FilterConfiguration{}, err
	}
	if err := validateFilters(cfg); err != nil {
		return domain.FilterConfiguration{}, err
	}
	return cfg, nil
}

func validateFilters(cfg domain.FilterConfiguration) error {
	seen := make(map[string]bool)
	for _, group := range cfg.Groups {
		if strings.TrimSpace(group.Label) == "" {
			return errors.New("filter group without label")
		}
		for _, field := range group.Fields {
			name := strings.TrimSpace(field.Name)
			if name == "" {
				return fmt.Errorf("group %q: filter without name", group.Label)
			}
			if seen[name] {
				return fmt.Errorf("duplicate filter %q", name)
			}
			seen[name] = true
			switch field.Kind() {
			case domain.FilterTypeRisk:
				if strings.TrimSpace(field.Value) == "" {
					return fmt.Errorf("risk filter %q needs a value", name)
				}
			case domain.FilterTypeDate, domain.FilterTypeTime, domain.FilterTypeLocation,
				domain.FilterTypeStringEqual, domain.FilterTypeSubstring:
			default:
				return fmt.Errorf("filter %q: unknown type %q", name, field.Type)
			}
		}
	}
	return nil
}
