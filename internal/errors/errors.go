package errors

import (
	"fmt"
	"strings"
)

// UserError represents an error that should be shown to the user with helpful context
type UserError struct {
	Message    string
	Suggestion string
	Details    string
	Err        error
}

func (e UserError) Error() string {
	var parts []string

	if e.Message != "" {
		parts = append(parts, e.Message)
	} else if e.Err != nil {
		parts = append(parts, e.Err.Error())
	}

	if e.Details != "" {
		parts = append(parts, "\n  Details: "+e.Details)
	}

	if e.Suggestion != "" {
		parts = append(parts, "\n  💡 Try: "+e.Suggestion)
	}

	return strings.Join(parts, "")
}

func (e UserError) Unwrap() error {
	return e.Err
}

// ConfigError represents a configuration error with helpful context
type ConfigError struct {
	Field      string
	Value      interface{}
	Message    string
	Suggestion string
}

func (e ConfigError) Error() string {
	msg := "Configuration error"
	if e.Field != "" {
		msg += fmt.Sprintf(" in field '%s'", e.Field)
	}
	if e.Value != nil {
		msg += fmt.Sprintf(" (value: %v)", e.Value)
	}
	msg += ": " + e.Message

	if e.Suggestion != "" {
		msg += "\n  💡 " + e.Suggestion
	}

	return msg
}

// CommandError represents a child command execution error
type CommandError struct {
	Command    string
	ExitCode   int
	Message    string
	Suggestion string
}

func (e CommandError) Error() string {
	msg := fmt.Sprintf("Command '%s' failed", e.Command)
	if e.ExitCode != 0 {
		msg += fmt.Sprintf(" (exit code: %d)", e.ExitCode)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}

	if e.Suggestion != "" {
		msg += "\n  💡 " + e.Suggestion
	}

	return msg
}

// WrapCommandNotFound wraps a LookPath failure with installation hints
func WrapCommandNotFound(command string, err error) error {
	return UserError{
		Message:    fmt.Sprintf("Command not found: %s", command),
		Details:    err.Error(),
		Suggestion: fmt.Sprintf("Check that '%s' is installed and on your PATH", command),
		Err:        err,
	}
}

// StoreError enhances credential-store errors with context for the user.
// The underlying SDK error is preserved for errors.Is/As inspection.
func StoreError(table string, operation string, err error) error {
	return UserError{
		Message:    fmt.Sprintf("credential store error during %s of table '%s'", operation, table),
		Suggestion: storeSuggestion(err),
		Err:        err,
	}
}

// storeSuggestion returns a hint based on common AWS failure modes
func storeSuggestion(err error) string {
	errStr := strings.ToLower(err.Error())

	switch {
	case strings.Contains(errStr, "resourcenotfound"):
		return "Check the table name; credstash tables are per-environment (e.g. prod-credentials)"
	case strings.Contains(errStr, "accessdenied"):
		return "Check IAM permissions: dynamodb:Scan on the table and kms:Decrypt on its key"
	case strings.Contains(errStr, "expiredtoken"), strings.Contains(errStr, "invalidclienttokenid"):
		return "Refresh your AWS credentials (aws sso login or a new session token)"
	case strings.Contains(errStr, "region"):
		return "Check the region; unknown table prefixes do not infer one, pass --region explicitly"
	case strings.Contains(errStr, "throttl"):
		return "Request was throttled. Reduce request rate or retry shortly"
	default:
		return "Check AWS credentials, region, and IAM permissions for the credential table"
	}
}
