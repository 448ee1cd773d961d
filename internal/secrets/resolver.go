package secrets

import (
	"context"
	"os"
	"strings"

	dderrors "github.com/classy-org/data-dives/internal/errors"
	"github.com/classy-org/data-dives/internal/logging"
)

// Store fetches every secret in a credential table. The fetch is an
// external collaborator call: its errors propagate to the resolver's
// caller untranslated.
type Store interface {
	FetchAll(ctx context.Context, table, region string) (map[string]string, error)
}

// Options selects the sources a single resolution merges.
type Options struct {
	// Store is the remote credential store, required when Table is set.
	Store Store

	// Table names the credential table to fetch. Empty skips the remote
	// source entirely.
	Table string

	// Region overrides region inference from the table-name prefix.
	Region string

	// EnvFile is an explicit override file. When empty and StartDir is
	// set, the nearest .env found searching outward from StartDir is used.
	EnvFile string

	// StartDir is where the .env search begins. Empty disables the search.
	StartDir string

	// AllowedKeys restricts which keys any source may contribute.
	// Nil admits everything.
	AllowedKeys AllowList

	// IncludeEnviron merges the entire ambient process environment as an
	// additional source, ranked between remote and the override file.
	// This can pull unrelated pre-existing variables into the result if
	// they pass the allow list, so it is off by default.
	IncludeEnviron bool
}

// Resolver merges remote and local secret sources into a SecretMap.
type Resolver struct {
	logger *logging.Logger
}

// NewResolver creates a resolver
func NewResolver(logger *logging.Logger) *Resolver {
	return &Resolver{logger: logger}
}

// Resolve builds a fresh SecretMap in a fixed order: remote table first,
// then the ambient environment when requested, then the override file.
// Later sources win on key collision, so local overrides beat remote
// values. Every source is filtered through the allow list. No failure is
// recovered here: store, parse, and filesystem errors all propagate.
func (r *Resolver) Resolve(ctx context.Context, opts Options) (*SecretMap, error) {
	m := NewSecretMap()

	if opts.Table != "" {
		if opts.Store == nil {
			return nil, dderrors.ConfigError{
				Field:   "store",
				Message: "a credential store is required when a table is set",
			}
		}
		region := opts.Region
		if region == "" {
			region = RegionForTable(opts.Table)
		}
		r.logger.Info("Fetching secrets from %s...", opts.Table)
		remote, err := opts.Store.FetchAll(ctx, opts.Table, region)
		if err != nil {
			return nil, err
		}
		m.Merge(remote, opts.AllowedKeys)
	}

	envFile := opts.EnvFile
	if envFile == "" && opts.StartDir != "" {
		found, err := FindDotenv(opts.StartDir)
		if err != nil {
			return nil, err
		}
		envFile = found
	}

	if opts.IncludeEnviron {
		m.Merge(environMap(), opts.AllowedKeys)
	}

	if envFile != "" {
		if _, err := os.Stat(envFile); os.IsNotExist(err) {
			r.logger.Debug("Override file %s does not exist, skipping", envFile)
			return m, nil
		}
		local, err := readDotenv(envFile)
		if err != nil {
			return nil, err
		}
		r.logger.Debug("Merging %d overrides from %s", len(local), envFile)
		m.Merge(local, opts.AllowedKeys)
	}

	return m, nil
}

// environMap snapshots the ambient process environment
func environMap() map[string]string {
	env := os.Environ()
	out := make(map[string]string, len(env))
	for _, kv := range env {
		if key, value, ok := strings.Cut(kv, "="); ok {
			out[key] = value
		}
	}
	return out
}
