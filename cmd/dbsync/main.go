// Package main contains the cli implementation of dbsync. It uses the
// cobra package for cli tool implementation.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"dbsync/internal/caseconv"
	"dbsync/internal/interact"
	"dbsync/internal/model"
	"dbsync/internal/reconcile"
	"dbsync/internal/report"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "dbsync",
		Short: "Schema reconciliation tool - converges a live MySQL/MariaDB database to a declarative data model",
	}

	rootCmd.AddCommand(syncCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func syncCmd() *cobra.Command {
	var dataModelPath string
	var dbConfigPath string
	var casePolicy string
	var assumeYes bool
	var dryRun bool
	var format string

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Reconcile a database against a data model",
		RunE: func(cmd *cobra.Command, args []string) error {
			// A bad --case flag, a malformed data model, or a malformed
			// connection config are all configuration failures (exit code 1,
			// spec §6) caught before the engine ever opens a connection.
			policy, err := caseconv.ParsePolicy(casePolicy)
			if err != nil {
				fmt.Fprintln(os.Stderr, "error:", err)
				os.Exit(1)
			}

			dataModel, err := model.LoadDataModel(dataModelPath)
			if err != nil {
				fmt.Fprintln(os.Stderr, "error:", err)
				os.Exit(1)
			}

			connConfig, err := model.LoadConnectionConfig(dbConfigPath)
			if err != nil {
				fmt.Fprintln(os.Stderr, "error:", err)
				os.Exit(1)
			}

			shim := newShim(assumeYes)

			eng := reconcile.NewEngine(dataModel, connConfig, policy, shim, dryRun)

			rep, runErr := eng.Run(context.Background())

			formatter, ferr := report.NewFormatter(format)
			if ferr != nil {
				fmt.Fprintln(os.Stderr, "error:", ferr)
				os.Exit(1)
			}
			rendered, ferr := formatter.Format(rep)
			if ferr != nil {
				fmt.Fprintln(os.Stderr, "error:", ferr)
				os.Exit(1)
			}
			fmt.Print(rendered)

			if runErr != nil {
				fmt.Fprintln(os.Stderr, "error:", runErr)
				os.Exit(reconcile.ExitCode(runErr))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&dataModelPath, "data-model", "", "Path to the data model JSON file")
	cmd.Flags().StringVar(&dbConfigPath, "db-config", "", "Path to the connection configuration JSON file")
	cmd.Flags().StringVar(&casePolicy, "case", "snake", "Identifier case policy to apply to generated names: snake, pascal, or camel")
	cmd.Flags().BoolVar(&assumeYes, "yes", false, "Assume yes to every confirmation prompt (headless mode)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Compute the plan without executing any DDL")
	cmd.Flags().StringVar(&format, "format", "human", "Output format for the final report: human, json, or summary")

	_ = cmd.MarkFlagRequired("data-model")
	_ = cmd.MarkFlagRequired("db-config")

	return cmd
}

// newShim picks the Interaction Shim implementation: headless when the
// caller passed --yes or stdin isn't a terminal, interactive otherwise.
func newShim(assumeYes bool) interact.Shim {
	if assumeYes || !isatty.IsTerminal(os.Stdin.Fd()) {
		return interact.NewHeadless(os.Stdout, assumeYes)
	}
	return interact.NewInteractive(os.Stdin, os.Stdout)
}
