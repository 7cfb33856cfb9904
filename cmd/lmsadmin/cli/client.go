package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/alexis/lmsadmin/internal/client"
	"github.com/alexis/lmsadmin/internal/models"
	"github.com/alexis/lmsadmin/internal/store"
	"github.com/alexis/lmsadmin/migrations"
)

const (
	outputTable = "table"
	outputJSON  = "json"
	outputYAML  = "yaml"
)

func newClient() *client.Client {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	return client.New(serverURL,
		client.WithToken(apiKey),
		client.WithTimeout(timeout),
		client.WithLogger(logger),
	)
}

// render writes v as JSON or YAML, or calls table with a tab-aligned writer.
func render(cmd *cobra.Command, v interface{}, table func(w io.Writer)) error {
	out := cmd.OutOrStdout()
	switch output {
	case outputJSON:
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case outputYAML:
		return writeYAML(out, v)
	}
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	table(w)
	return w.Flush()
}

// writeYAML goes through JSON so json tags and raw JSON fields are honoured.
func writeYAML(w io.Writer, v interface{}) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}
	var doc interface{}
	if err := yaml.Unmarshal(b, &doc); err != nil {
		return fmt.Errorf("convert to yaml: %w", err)
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return err
	}
	return enc.Close()
}

// message prints a plain-text reply, or {"message": ...} for structured output.
func message(cmd *cobra.Command, msg string) error {
	return render(cmd, map[string]string{"message": msg}, func(w io.Writer) {
		fmt.Fprintln(w, msg)
	})
}

// audit records a mutating command when --audit names a database. A failure
// to record is reported on stderr and never fails the command.
func audit(cmd *cobra.Command, kind, subject string, detail interface{}, callErr error) {
	if auditDB == "" {
		return
	}
	db, err := store.NewSQLiteStore(auditDB, migrations.FS)
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "audit: %v\n", err)
		return
	}
	defer db.Close()

	a := &models.Activity{Kind: kind, Subject: subject, Outcome: models.OutcomeOK, Actor: "cli"}
	if detail != nil {
		if b, err := json.Marshal(detail); err == nil {
			a.Detail = b
		}
	}
	if callErr != nil {
		a.Outcome = models.OutcomeError
		a.Error = callErr.Error()
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(cmd.Context()), 2*time.Second)
	defer cancel()
	if err := db.RecordActivity(ctx, a); err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "audit: %v\n", err)
	}
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id: %q", s)
	}
	return id, nil
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}
