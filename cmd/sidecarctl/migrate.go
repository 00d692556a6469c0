package main

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"text/tabwriter"

	"github.com/jgodboutprospector/canmp-sub003/internal/infra"
	"github.com/jgodboutprospector/canmp-sub003/internal/repository"
	"github.com/jgodboutprospector/canmp-sub003/internal/usecase"
	"github.com/jgodboutprospector/canmp-sub003/migrations"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Manage audit database migrations",
	Long:  "Manage migrations for the token audit log database",
}

// newMigrationService はDATABASE_URLに接続してMigrationServiceを生成する。
// MIGRATIONS_DIR が指定された場合はバイナリ埋め込みのSQLではなくディレクトリを使用する。
func newMigrationService() (*usecase.MigrationService, error) {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is required")
	}

	db, err := infra.NewDB(dsn, false)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	var source fs.FS = migrations.FS
	if dir := os.Getenv("MIGRATIONS_DIR"); dir != "" {
		source = os.DirFS(dir)
	}

	return usecase.NewMigrationService(repository.NewMigrationRepository(db), db, source), nil
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply pending migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		service, err := newMigrationService()
		if err != nil {
			return err
		}

		appliedCount, err := service.ApplyMigrations(context.Background())
		if err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}

		if appliedCount == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No pending migrations.")
		} else {
			fmt.Fprintf(cmd.OutOrStdout(), "Applied %d migration(s) successfully.\n", appliedCount)
		}
		return nil
	},
}

var migrateStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show migration status",
	RunE: func(cmd *cobra.Command, args []string) error {
		service, err := newMigrationService()
		if err != nil {
			return err
		}

		all, err := service.GetMigrationStatus(context.Background())
		if err != nil {
			return fmt.Errorf("failed to get migration status: %w", err)
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, "VERSION\tNAME\tSTATUS\tAPPLIED AT")
		pending := 0
		for _, m := range all {
			if !m.Applied() {
				pending++
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", m.Version, m.Name, m.Status, m.AppliedAtString())
		}
		if err := w.Flush(); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "\n%d pending migration(s).\n", pending)
		return nil
	},
}

func init() {
	migrateCmd.AddCommand(migrateUpCmd)
	migrateCmd.AddCommand(migrateStatusCmd)
}
