// Package execenv runs report scripts with resolved secrets layered into
// their environment, so nothing is written to disk.
package execenv

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"sort"
	"strings"
	"syscall"
	"time"

	dderrors "github.com/classy-org/data-dives/internal/errors"
	"github.com/classy-org/data-dives/internal/logging"
	"github.com/classy-org/data-dives/internal/secrets"
)

// Executor handles running commands with ephemeral environment variables
type Executor struct {
	logger *logging.Logger
}

// New creates a new executor
func New(logger *logging.Logger) *Executor {
	return &Executor{logger: logger}
}

// Options configures command execution
type Options struct {
	Command    []string           // Command and arguments to run
	Secrets    *secrets.SecretMap // Resolved secrets to inject
	PrintVars  bool               // Print injected variable names with masked values
	WorkingDir string             // Working directory for the command
	Timeout    time.Duration      // Zero means no timeout
}

// Exec runs a command with the resolved secrets in its environment.
// Secrets override inherited variables of the same name. The child's exit
// code is propagated as the process exit code.
func (e *Executor) Exec(ctx context.Context, opts Options) error {
	if len(opts.Command) == 0 {
		return dderrors.UserError{
			Message:    "No command specified",
			Suggestion: "Provide a command after -- (e.g., datadives exec --env prod -- python report.py)",
		}
	}

	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	cmdName := opts.Command[0]
	if _, err := exec.LookPath(cmdName); err != nil {
		return dderrors.WrapCommandNotFound(cmdName, err)
	}

	if opts.PrintVars {
		e.printSecrets(opts.Secrets)
	}

	cmd := exec.CommandContext(ctx, cmdName, opts.Command[1:]...)
	cmd.Env = buildEnvironment(opts.Secrets)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Stdin = os.Stdin
	if opts.WorkingDir != "" {
		cmd.Dir = opts.WorkingDir
	}

	// Secret values passed as arguments must not surface in logs or errors
	cmdLine := redactedCommandLine(opts.Command, opts.Secrets)
	e.logger.Debug("Executing: %s", cmdLine)

	if err := cmd.Run(); err != nil {
		if exitError, ok := err.(*exec.ExitError); ok {
			// Preserve the exit code from the child process
			if status, ok := exitError.Sys().(syscall.WaitStatus); ok {
				os.Exit(status.ExitStatus())
			}
			os.Exit(1)
		}
		return dderrors.CommandError{
			Command:    cmdLine,
			Message:    err.Error(),
			Suggestion: "Check the command output above for details",
		}
	}

	return nil
}

// redactedCommandLine joins the command for display with any resolved
// secret values scrubbed out.
func redactedCommandLine(command []string, sm *secrets.SecretMap) string {
	line := strings.Join(command, " ")
	if sm == nil {
		return line
	}
	exported := sm.Export()
	values := make([]string, 0, len(exported))
	for _, v := range exported {
		values = append(values, v)
	}
	return logging.Redact(line, values)
}

// buildEnvironment layers the secrets over the inherited environment
func buildEnvironment(sm *secrets.SecretMap) []string {
	envMap := make(map[string]string)
	for _, kv := range os.Environ() {
		if key, value, ok := strings.Cut(kv, "="); ok {
			envMap[key] = value
		}
	}
	if sm != nil {
		for key, value := range sm.Export() {
			envMap[key] = value
		}
	}

	result := make([]string, 0, len(envMap))
	for key, value := range envMap {
		result = append(result, key+"="+value)
	}
	sort.Strings(result)
	return result
}

// printSecrets lists the injected variables with masked values
func (e *Executor) printSecrets(sm *secrets.SecretMap) {
	if sm == nil || sm.Len() == 0 {
		fmt.Fprintln(os.Stderr, "No secrets resolved")
		return
	}

	fmt.Fprintf(os.Stderr, "Injecting %d variables:\n", sm.Len())
	keys := sm.Keys()
	sort.Strings(keys)
	for _, key := range keys {
		value, _ := sm.Get(key)
		fmt.Fprintf(os.Stderr, "  %s=%s\n", key, maskValue(value))
	}
}

// maskValue masks a secret value for display
func maskValue(value string) string {
	switch {
	case len(value) == 0:
		return "(empty)"
	case len(value) <= 3:
		return strings.Repeat("*", len(value))
	case len(value) <= 8:
		return value[:1] + strings.Repeat("*", len(value)-2) + value[len(value)-1:]
	default:
		return value[:3] + strings.Repeat("*", 8) + value[len(value)-2:]
	}
}
