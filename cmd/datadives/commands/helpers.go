package commands

import (
	"context"
	"fmt"

	"github.com/classy-org/data-dives/internal/config"
	"github.com/classy-org/data-dives/internal/credstash"
	"github.com/classy-org/data-dives/internal/secrets"
)

// resolveEnvironment loads the config, builds the credential store when the
// environment names a table, and resolves the environment's secrets.
func resolveEnvironment(ctx context.Context, cfg *config.Config, envName string) (*secrets.SecretMap, error) {
	env, err := loadEnvironment(cfg, envName)
	if err != nil {
		return nil, err
	}

	var store secrets.Store
	if env.Table != "" {
		s, err := credstash.New(ctx, cfg.Logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create credential store: %w", err)
		}
		store = s
	}

	resolver := secrets.NewResolver(cfg.Logger)
	return resolver.Resolve(ctx, env.ResolveOptions(store))
}

// loadEnvironment loads the config file and looks up one environment
func loadEnvironment(cfg *config.Config, envName string) (config.Environment, error) {
	if err := cfg.Load(); err != nil {
		return config.Environment{}, err
	}
	return cfg.GetEnvironment(envName)
}
