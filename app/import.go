package app

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rollcall-admin/rollcall/internal/daemon"
	"github.com/rollcall-admin/rollcall/internal/ingest"
)

var (
	importKind  string
	importFile  string
	importActor string
)

func init() { //nolint: gochecknoinits
	importCmd.Flags().StringVar(&importKind, "kind", "user", "Record kind: user or person")
	importCmd.Flags().StringVar(&importFile, "file", "", "CSV file to import")
	importCmd.Flags().StringVar(&importActor, "actor", "root", "Username written to the audit log")
	_ = importCmd.MarkFlagRequired("file")

	rootCmd.AddCommand(importCmd)
}

var importCmd = &cobra.Command{
	Use:     "import",
	Short:   "Bulk import users or persons from a CSV file",
	PreRunE: loadConfig,
	RunE: func(cmd *cobra.Command, _ []string) error {
		kind, err := ingest.ParseKind(importKind)
		if err != nil {
			return err
		}

		res, err := daemon.Import(cmd.Context(), &cfg, importActor, importFile, kind)
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "imported %d %s records (batch %s)\n", res.Count, res.Kind, res.BatchID)

		return nil
	},
}
