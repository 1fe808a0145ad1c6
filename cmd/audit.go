package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/gep-platform/assignd/config"
	"github.com/gep-platform/assignd/core/audit"
	"github.com/gep-platform/assignd/pkg/export"
)

var (
	auditRequestID string
	auditKind      string
	auditSince     string
	auditFormat    string
)

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Query the audit trail",
	RunE:  queryAudit,
}

func init() {
	auditCmd.Flags().StringVar(&auditRequestID, "request-id", "", "filter by request id")
	auditCmd.Flags().StringVar(&auditKind, "kind", "", "filter by record kind (run or transition)")
	auditCmd.Flags().StringVar(&auditSince, "since", "", "only records after this RFC3339 timestamp")
	auditCmd.Flags().StringVar(&auditFormat, "format", "json", "output format (json or csv)")
	rootCmd.AddCommand(auditCmd)
}

func queryAudit(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if cfg.Audit.Backend == "memory" {
		return fmt.Errorf("memory audit backend holds no persisted records")
	}

	var store audit.Store
	switch cfg.Audit.Backend {
	case "sqlite":
		store, err = audit.NewSQLiteStore(cfg.Audit.Path)
	default:
		store, err = audit.NewJSONLStore(cfg.Audit.Path)
	}
	if err != nil {
		return fmt.Errorf("open audit store: %w", err)
	}
	defer func() { _ = store.Close() }()

	q := audit.Query{RequestID: auditRequestID}
	if auditKind != "" {
		switch audit.RecordKind(auditKind) {
		case audit.KindRun, audit.KindTransition:
			q.Kind = audit.RecordKind(auditKind)
		default:
			return fmt.Errorf("unknown kind %q", auditKind)
		}
	}
	if auditSince != "" {
		t, err := time.Parse(time.RFC3339, auditSince)
		if err != nil {
			return fmt.Errorf("parse since: %w", err)
		}
		q.Start = t
	}

	records, err := store.Query(context.Background(), q)
	if err != nil {
		return fmt.Errorf("query audit: %w", err)
	}
	switch auditFormat {
	case "json":
		return export.WriteJSON(os.Stdout, records)
	case "csv":
		return export.WriteCSV(os.Stdout, records)
	default:
		return fmt.Errorf("unknown format %q", auditFormat)
	}
}
