package commands

import (
	"crypto/rand"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/classy-org/data-dives/internal/config"
	dderrors "github.com/classy-org/data-dives/internal/errors"
)

func NewShredCommand(cfg *config.Config) *cobra.Command {
	var (
		force  bool
		passes int
	)

	cmd := &cobra.Command{
		Use:   "shred <files...>",
		Short: "Securely delete rendered env files",
		Long: `Overwrite rendered secret files with random data before deleting them,
so the plaintext cannot be recovered from the filesystem.

Examples:
  datadives shred .env.production
  datadives shred --force --passes 5 .env .env.staging

Note: SSDs with wear leveling may retain data regardless. Prefer full disk
encryption for machines that render secrets.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if passes < 1 || passes > 10 {
				return dderrors.UserError{
					Message:    "Invalid number of passes",
					Suggestion: "Passes must be between 1 and 10",
				}
			}

			for _, path := range args {
				info, err := os.Stat(path)
				if err != nil {
					return dderrors.UserError{
						Message:    fmt.Sprintf("Cannot access file: %s", path),
						Details:    err.Error(),
						Suggestion: "Check that the file exists and is accessible",
					}
				}
				if info.IsDir() {
					return dderrors.UserError{
						Message:    fmt.Sprintf("Path is a directory: %s", path),
						Suggestion: "shred operates on individual files",
					}
				}
			}

			if !force {
				fmt.Fprintf(os.Stderr, "Securely delete %d file(s)? This is IRREVERSIBLE. (y/N): ", len(args))
				var response string
				_, _ = fmt.Scanln(&response)
				answer := strings.ToLower(response)
				if answer != "y" && answer != "yes" {
					fmt.Fprintln(os.Stderr, "Operation cancelled")
					return nil
				}
			}

			for _, path := range args {
				if err := shredFile(path, passes); err != nil {
					return fmt.Errorf("failed to shred %s: %w", path, err)
				}
				cfg.Logger.Info("Shredded %s", path)
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Skip confirmation")
	cmd.Flags().IntVarP(&passes, "passes", "n", 3, "Number of overwrite passes")

	return cmd
}

// shredFile overwrites the file with random bytes passes times, then removes it
func shredFile(path string, passes int) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if info.Size() == 0 {
		return os.Remove(path)
	}

	file, err := os.OpenFile(path, os.O_WRONLY, 0)
	if err != nil {
		return err
	}
	defer func() { _ = file.Close() }()

	for pass := 0; pass < passes; pass++ {
		if _, err := file.Seek(0, io.SeekStart); err != nil {
			return err
		}
		if _, err := io.CopyN(file, rand.Reader, info.Size()); err != nil {
			return err
		}
		if err := file.Sync(); err != nil {
			return err
		}
	}

	if err := file.Close(); err != nil {
		return err
	}
	return os.Remove(path)
}
