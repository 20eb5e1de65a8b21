package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"

	"github.com/iho/opsledger/internal/infrastructure/config"
	"github.com/iho/opsledger/internal/infrastructure/logger"
	"github.com/iho/opsledger/internal/infrastructure/postgres"
)

var bcryptGenerate = bcrypt.GenerateFromPassword

// migrator is the subset of postgres.Migrator the migrate commands use.
type migrator interface {
	Up() error
	Down() error
	Version() (uint, bool, error)
}

var newMigrator = func() (migrator, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	log := logger.New(logger.Config{Level: cfg.LogLevel, Format: "console"})
	return postgres.NewMigrator(cfg.DatabaseURL, cfg.MigrationsPath, log), nil
}

func main() {
	_ = godotenv.Load()

	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

type apiOptions struct {
	baseURL string
	timeout time.Duration
}

func newRootCmd() *cobra.Command {
	opts := &apiOptions{}

	rootCmd := &cobra.Command{
		Use:          "opsledger-cli",
		Short:        "OpsLedger CLI tool",
		Long:         `A command line interface for operating the OpsLedger service and its database.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&opts.baseURL, "url", "http://localhost:8080", "Base URL of the OpsLedger API")
	rootCmd.PersistentFlags().DurationVar(&opts.timeout, "timeout", 10*time.Second, "Request timeout")

	rootCmd.AddCommand(migrateCmd(), ledgerCmd(opts), hashPasswordCmd())
	return rootCmd
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Database migrations",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			RunE: func(cmd *cobra.Command, args []string) error {
				m, err := newMigrator()
				if err != nil {
					return err
				}
				return m.Up()
			},
		},
		&cobra.Command{
			Use:   "down",
			Short: "Roll back the last migration",
			RunE: func(cmd *cobra.Command, args []string) error {
				m, err := newMigrator()
				if err != nil {
					return err
				}
				return m.Down()
			},
		},
		&cobra.Command{
			Use:   "version",
			Short: "Print the applied migration version",
			RunE: func(cmd *cobra.Command, args []string) error {
				m, err := newMigrator()
				if err != nil {
					return err
				}
				version, dirty, err := m.Version()
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "version: %d dirty: %v\n", version, dirty)
				return nil
			},
		},
	)

	return cmd
}

func ledgerCmd(opts *apiOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ledger",
		Short: "Ledger operations",
	}

	var asOf string
	balanceCmd := &cobra.Command{
		Use:   "balance <account-id>",
		Short: "Show an account balance",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "/api/v1/accounts/" + url.PathEscape(args[0]) + "/balance"
			if asOf != "" {
				path += "?as_of=" + url.QueryEscape(asOf)
			}
			return getAndPrint(cmd, opts, path, nil)
		},
	}
	balanceCmd.Flags().StringVar(&asOf, "as-of", "", "Business date (YYYY-MM-DD), defaults to today")

	verifyCmd := &cobra.Command{
		Use:   "verify <account-id>",
		Short: "Verify stored balance snapshots against the ledger",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result struct {
				IsReconciled bool `json:"is_reconciled"`
			}
			path := "/api/v1/accounts/" + url.PathEscape(args[0]) + "/verify"
			if err := getAndPrint(cmd, opts, path, &result); err != nil {
				return err
			}
			if !result.IsReconciled {
				return fmt.Errorf("account %s has stale snapshots", args[0])
			}
			return nil
		},
	}

	cmd.AddCommand(balanceCmd, verifyCmd)
	return cmd
}

func hashPasswordCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hash-password <password>",
		Short: "Print a bcrypt hash for seeding user rows",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hash, err := bcryptGenerate([]byte(args[0]), bcrypt.DefaultCost)
			if err != nil {
				return fmt.Errorf("failed to hash password: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(hash))
			return nil
		},
	}
}

// getAndPrint fetches path, pretty-prints the JSON body and decodes it into
// dest when dest is not nil.
func getAndPrint(cmd *cobra.Command, opts *apiOptions, path string, dest any) error {
	client := &http.Client{Timeout: opts.timeout}
	req, err := http.NewRequestWithContext(cmd.Context(), http.MethodGet, opts.baseURL+path, nil)
	if err != nil {
		return err
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("error making request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("request failed (status %d): %s", resp.StatusCode, truncate(string(body), 200))
	}

	var payload any
	if err := json.Unmarshal(body, &payload); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	if err := printJSON(cmd.OutOrStdout(), payload); err != nil {
		return err
	}

	if dest != nil {
		return json.Unmarshal(body, dest)
	}
	return nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
