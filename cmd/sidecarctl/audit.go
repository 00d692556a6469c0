package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/jgodboutprospector/canmp-sub003/internal/infra"
	"github.com/jgodboutprospector/canmp-sub003/internal/repository"
	"github.com/jgodboutprospector/canmp-sub003/internal/usecase"
)

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Inspect the token audit log",
}

var auditLimit int

var auditListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent token operations",
	RunE: func(cmd *cobra.Command, args []string) error {
		dsn := os.Getenv("DATABASE_URL")
		if dsn == "" {
			return fmt.Errorf("DATABASE_URL environment variable is required")
		}
		db, err := infra.NewDB(dsn, false)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}

		service := usecase.NewAuditService(repository.NewAuditRepository(db))
		entries, err := service.ListRecent(context.Background(), auditLimit)
		if err != nil {
			return err
		}

		if output == "json" {
			return json.NewEncoder(cmd.OutOrStdout()).Encode(entries)
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "CREATED_AT\tOPERATION\tRESULT\tREASON\tREMOTE_ADDR\tREQUEST_ID")
		for _, e := range entries {
			reason := e.Reason
			if reason == "" {
				reason = "-"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
				e.CreatedAt.Format(time.RFC3339), e.Operation, e.Result, reason, e.RemoteAddr, e.RequestID)
		}
		return w.Flush()
	},
}

func init() {
	auditListCmd.Flags().IntVar(&auditLimit, "limit", 50, "Maximum number of entries")
	auditCmd.AddCommand(auditListCmd)
}
