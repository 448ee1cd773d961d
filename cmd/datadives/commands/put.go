package commands

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/classy-org/data-dives/internal/config"
	"github.com/classy-org/data-dives/internal/credstash"
	dderrors "github.com/classy-org/data-dives/internal/errors"
	"github.com/classy-org/data-dives/internal/secrets"
)

func NewPutCommand(cfg *config.Config) *cobra.Command {
	var (
		envName string
		keyID   string
	)

	cmd := &cobra.Command{
		Use:   "put --env <name> <KEY>",
		Short: "Store a new secret version in the credential table",
		Long: `Encrypt a value and write it as the next version of KEY in the
environment's credential table.

The value is read from stdin so it never appears in shell history:

  echo -n "s3cret" | datadives put --env production CLASSY_API_KEY
  datadives put --env production DB_PASSWORD < password.txt`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if envName == "" {
				return dderrors.UserError{
					Message:    "Environment name is required",
					Suggestion: "Use --env <environment-name> to specify an environment",
				}
			}

			env, err := loadEnvironment(cfg, envName)
			if err != nil {
				return err
			}
			if env.Table == "" {
				return dderrors.ConfigError{
					Field:      "envs." + envName + ".table",
					Message:    "environment has no credential table",
					Suggestion: "put only works for environments backed by a credstash table",
				}
			}

			value, err := readValue(cmd.InOrStdin())
			if err != nil {
				return fmt.Errorf("failed to read value from stdin: %w", err)
			}
			if value == "" {
				return dderrors.UserError{
					Message:    "Empty secret value",
					Suggestion: "Pipe the value on stdin, e.g. echo -n \"value\" | datadives put ...",
				}
			}

			opts := []credstash.Option{}
			if keyID != "" {
				opts = append(opts, credstash.WithKeyID(keyID))
			}
			store, err := credstash.New(cmd.Context(), cfg.Logger, opts...)
			if err != nil {
				return fmt.Errorf("failed to create credential store: %w", err)
			}

			region := env.Region
			if region == "" {
				region = secrets.RegionForTable(env.Table)
			}
			return store.Put(cmd.Context(), env.Table, region, args[0], value)
		},
	}

	cmd.Flags().StringVar(&envName, "env", "", "Environment name from datadives.yaml")
	cmd.Flags().StringVar(&keyID, "key", "", "KMS key to wrap the data key (default "+credstash.DefaultKeyID+")")

	return cmd
}

// readValue reads the secret value from stdin, trimming one trailing
// newline so piped heredocs behave as expected.
func readValue(r io.Reader) (string, error) {
	var sb strings.Builder
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	first := true
	for scanner.Scan() {
		if !first {
			sb.WriteString("\n")
		}
		sb.WriteString(scanner.Text())
		first = false
	}
	if err := scanner.Err(); err != nil {
		return "", err
	}
	return sb.String(), nil
}
