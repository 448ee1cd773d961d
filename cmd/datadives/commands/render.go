package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/classy-org/data-dives/internal/config"
	dderrors "github.com/classy-org/data-dives/internal/errors"
	"github.com/classy-org/data-dives/internal/secrets"
)

func NewRenderCommand(cfg *config.Config) *cobra.Command {
	var (
		envName    string
		outputPath string
		sections   bool
	)

	cmd := &cobra.Command{
		Use:   "render --env <name> --out <file>",
		Short: "Render a dotenv file from resolved secrets",
		Long: `Resolve an environment's secrets and write them as a dotenv file.

Keys are written as "key = value" lines. With --sections, keys are sorted
and a blank line separates groups sharing a prefix (the part of the key
before the first underscore), which keeps related credentials together.

Examples:
  datadives render --env production --out .env.production
  datadives render --env staging --out .env --sections`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if envName == "" {
				return dderrors.UserError{
					Message:    "Environment name is required",
					Suggestion: "Use --env <environment-name> to specify an environment",
				}
			}
			if outputPath == "" {
				return fmt.Errorf("--out flag is required for security (explicit opt-in to write files)")
			}

			resolved, err := resolveEnvironment(cmd.Context(), cfg, envName)
			if err != nil {
				return err
			}

			sectionSplit := ""
			if sections {
				sectionSplit = "\n"
			}
			if err := secrets.WriteFile(outputPath, resolved, sectionSplit); err != nil {
				return fmt.Errorf("failed to write %s: %w", outputPath, err)
			}

			cfg.Logger.Info("Wrote %d secrets to %s", resolved.Len(), outputPath)
			cfg.Logger.Warn("Delete %s when finished (datadives shred %s)", outputPath, outputPath)
			return nil
		},
	}

	cmd.Flags().StringVar(&envName, "env", "", "Environment name from datadives.yaml")
	cmd.Flags().StringVar(&outputPath, "out", "", "Output file path")
	cmd.Flags().BoolVar(&sections, "sections", false, "Group keys by prefix with blank lines between groups")

	return cmd
}
