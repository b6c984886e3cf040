// Package main provides the entry point for the vault CLI application.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var (
	version   = "0.1.0-dev"
	globalDir string
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	rootCmd := &cobra.Command{
		Use:           "vault",
		Short:         "A personal vault for identity numbers and contact data",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVarP(&globalDir, "dir", "d", "", "Base directory holding .vault (default $VAULT_DIR or home)")

	rootCmd.AddCommand(
		newInitCmd(),
		newRegisterCmd(),
		newLoginCmd(),
		newResetPasswordCmd(),
		newRecordsCmd(),
		newTypesCmd(),
		newImportCmd(),
		newExportCmd(),
		newDevCmd(),
	)

	return rootCmd.ExecuteContext(ctx)
}

// basePath returns the directory that holds .vault.
func basePath() (string, error) {
	if globalDir != "" {
		return globalDir, nil
	}
	if dir := os.Getenv("VAULT_DIR"); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("finding home directory: %w", err)
	}
	return home, nil
}
