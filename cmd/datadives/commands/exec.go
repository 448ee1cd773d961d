package commands

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/classy-org/data-dives/internal/config"
	dderrors "github.com/classy-org/data-dives/internal/errors"
	"github.com/classy-org/data-dives/internal/execenv"
)

func NewExecCommand(cfg *config.Config) *cobra.Command {
	var (
		envName   string
		printVars bool
		workDir   string
		timeout   time.Duration
	)

	cmd := &cobra.Command{
		Use:   "exec --env <name> -- <command> [args...]",
		Short: "Run a command with resolved secrets in its environment",
		Long: `Resolve an environment's secrets and run a command with them set as
environment variables. Nothing is written to disk; the secrets exist only
in the child process environment.

Examples:
  datadives exec --env production -- python giving_tuesday/report.py
  datadives exec --env staging --print -- make charts`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if envName == "" {
				return dderrors.UserError{
					Message:    "Environment name is required",
					Suggestion: "Use --env <environment-name> to specify an environment",
				}
			}

			resolved, err := resolveEnvironment(cmd.Context(), cfg, envName)
			if err != nil {
				return err
			}

			executor := execenv.New(cfg.Logger)
			return executor.Exec(cmd.Context(), execenv.Options{
				Command:    args,
				Secrets:    resolved,
				PrintVars:  printVars,
				WorkingDir: workDir,
				Timeout:    timeout,
			})
		},
	}

	cmd.Flags().StringVar(&envName, "env", "", "Environment name from datadives.yaml")
	cmd.Flags().BoolVar(&printVars, "print", false, "Print injected variable names with masked values")
	cmd.Flags().StringVar(&workDir, "workdir", "", "Working directory for the command")
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "Kill the command after this duration (0 for no timeout)")

	return cmd
}
