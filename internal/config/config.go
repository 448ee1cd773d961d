package config

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	dderrors "github.com/classy-org/data-dives/internal/errors"
	"github.com/classy-org/data-dives/internal/logging"
	"github.com/classy-org/data-dives/internal/secrets"
)

// Config holds the runtime configuration
type Config struct {
	Path       string
	Logger     *logging.Logger
	Definition *Definition
}

// Definition represents the datadives.yaml structure
type Definition struct {
	Version int                    `yaml:"version"`
	Envs    map[string]Environment `yaml:"envs"`
}

// Environment names the secret sources one resolution merges
type Environment struct {
	// Table is the credstash credential table. Empty skips the remote source.
	Table string `yaml:"table,omitempty"`

	// Region overrides region inference from the table-name prefix
	Region string `yaml:"region,omitempty"`

	// EnvFile is an explicit local override file
	EnvFile string `yaml:"env_file,omitempty"`

	// StartDir is where the .env search begins when no env_file is set
	StartDir string `yaml:"start_dir,omitempty"`

	// AllowedKeys restricts which keys any source may contribute.
	// Omitted means every key is admitted.
	AllowedKeys []string `yaml:"allowed_keys,omitempty"`

	// IncludeEnviron additionally merges the ambient process environment.
	// Off by default because it can pull in unrelated variables.
	IncludeEnviron bool `yaml:"include_environ,omitempty"`
}

// Load reads and parses the datadives.yaml file
func (c *Config) Load() error {
	data, err := os.ReadFile(c.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return dderrors.UserError{
				Message:    fmt.Sprintf("Config file not found: %s", c.Path),
				Suggestion: "Create a datadives.yaml or point --config at one",
				Err:        err,
			}
		}
		return dderrors.UserError{
			Message: fmt.Sprintf("Failed to read config file: %s", c.Path),
			Details: err.Error(),
			Err:     err,
		}
	}

	var def Definition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return dderrors.UserError{
			Message:    fmt.Sprintf("Invalid YAML in %s", c.Path),
			Details:    err.Error(),
			Suggestion: "Check indentation and quoting in the config file",
			Err:        err,
		}
	}

	if err := def.validate(); err != nil {
		return err
	}

	c.Definition = &def
	return nil
}

func (d *Definition) validate() error {
	if d.Version != 0 && d.Version != 1 {
		return dderrors.ConfigError{
			Field:      "version",
			Value:      d.Version,
			Message:    "unsupported config version",
			Suggestion: "This build of datadives understands version 1",
		}
	}
	if len(d.Envs) == 0 {
		return dderrors.ConfigError{
			Field:      "envs",
			Message:    "no environments defined",
			Suggestion: "Add an envs section with at least one environment",
		}
	}
	for name, env := range d.Envs {
		if env.Table == "" && env.EnvFile == "" && env.StartDir == "" {
			return dderrors.ConfigError{
				Field:      "envs." + name,
				Message:    "environment has no secret source",
				Suggestion: "Set table, env_file, or start_dir",
			}
		}
	}
	return nil
}

// GetEnvironment returns a named environment
func (c *Config) GetEnvironment(name string) (Environment, error) {
	if c.Definition == nil {
		return Environment{}, dderrors.UserError{
			Message:    "Configuration not loaded",
			Suggestion: "Call Load() before requesting environments",
		}
	}

	env, ok := c.Definition.Envs[name]
	if !ok {
		available := make([]string, 0, len(c.Definition.Envs))
		for n := range c.Definition.Envs {
			available = append(available, n)
		}
		sort.Strings(available)
		return Environment{}, dderrors.ConfigError{
			Field:      "environment",
			Value:      name,
			Message:    "environment not found",
			Suggestion: fmt.Sprintf("Available environments: %v", available),
		}
	}
	return env, nil
}

// ResolveOptions maps an environment onto resolver options. An omitted
// allowed_keys admits every key; an explicitly empty list admits none.
func (e Environment) ResolveOptions(store secrets.Store) secrets.Options {
	var allowed secrets.AllowList
	if e.AllowedKeys != nil {
		allowed = secrets.NewAllowList(e.AllowedKeys...)
	}
	return secrets.Options{
		Store:          store,
		Table:          e.Table,
		Region:         e.Region,
		EnvFile:        e.EnvFile,
		StartDir:       e.StartDir,
		AllowedKeys:    allowed,
		IncludeEnviron: e.IncludeEnviron,
	}
}
