package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/classy-org/data-dives/internal/config"
	dderrors "github.com/classy-org/data-dives/internal/errors"
)

func NewGetCommand(cfg *config.Config) *cobra.Command {
	var (
		envName string
		varName string
	)

	cmd := &cobra.Command{
		Use:   "get --env <name> --var <KEY>",
		Short: "Get a single secret value",
		Long: `Resolve an environment and print one variable's value to stdout.

Only the raw value is printed, making this suitable for scripting:

  export CLASSY_API_KEY=$(datadives get --env production --var CLASSY_API_KEY)`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if envName == "" {
				return dderrors.UserError{
					Message:    "Environment name is required",
					Suggestion: "Use --env <environment-name> to specify an environment",
				}
			}
			if varName == "" {
				return dderrors.UserError{
					Message:    "Variable name is required",
					Suggestion: "Use --var <variable-name> to specify which variable to get",
				}
			}

			resolved, err := resolveEnvironment(cmd.Context(), cfg, envName)
			if err != nil {
				return err
			}

			value, ok := resolved.Get(varName)
			if !ok {
				return dderrors.ConfigError{
					Field:      "variable",
					Value:      varName,
					Message:    fmt.Sprintf("variable not found in environment '%s'", envName),
					Suggestion: fmt.Sprintf("Environment '%s' resolved %d variables; check the allow list and sources", envName, resolved.Len()),
				}
			}

			fmt.Fprintln(cmd.OutOrStdout(), value)
			return nil
		},
	}

	cmd.Flags().StringVar(&envName, "env", "", "Environment name from datadives.yaml")
	cmd.Flags().StringVar(&varName, "var", "", "Variable name to print")

	return cmd
}
