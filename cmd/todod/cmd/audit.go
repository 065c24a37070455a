package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/gobeyondidentity/puretodo/pkg/store"
	"github.com/gobeyondidentity/puretodo/pkg/timeutil"
)

func init() {
	auditCmd.Flags().String("action", "", "Only show events with this action (e.g. auth.failure)")
	auditCmd.Flags().String("actor", "", "Only show events by this actor")
	auditCmd.Flags().Duration("since", 0, "Only show events newer than this (e.g. 24h)")
	auditCmd.Flags().Int("limit", 50, "Maximum number of events (0 for all)")
	auditCmd.Flags().StringP("output", "o", "table", "Output format: table, json, yaml")

	rootCmd.AddCommand(auditCmd)
}

// auditRecord is the json/yaml shape of one audit entry.
type auditRecord struct {
	ID        int64             `json:"id" yaml:"id"`
	Timestamp string            `json:"timestamp" yaml:"timestamp"`
	Action    string            `json:"action" yaml:"action"`
	Actor     string            `json:"actor,omitempty" yaml:"actor,omitempty"`
	Target    string            `json:"target,omitempty" yaml:"target,omitempty"`
	Decision  string            `json:"decision,omitempty" yaml:"decision,omitempty"`
	Details   map[string]string `json:"details,omitempty" yaml:"details,omitempty"`
}

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Show recorded audit events",
	Long: `Show audit events persisted to the database, newest first.

Events are only stored while the audit store backend is enabled
(audit.store in the config file, TODO_AUDIT_STORE in the environment).

Examples:
  todod audit
  todod audit --action auth.failure --since 24h
  todod audit --actor alice -o json`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("output")
		switch format {
		case "table", "json", "yaml":
		default:
			return fmt.Errorf("unknown output format %q (use table, json or yaml)", format)
		}

		var filter store.AuditFilter
		filter.Action, _ = cmd.Flags().GetString("action")
		filter.Actor, _ = cmd.Flags().GetString("actor")
		filter.Limit, _ = cmd.Flags().GetInt("limit")
		if since, _ := cmd.Flags().GetDuration("since"); since > 0 {
			filter.Since = time.Now().Add(-since)
		}

		a, err := openApp(cfg, logger)
		if err != nil {
			return err
		}
		defer a.Close()

		entries, err := a.store.QueryAuditEntries(cmd.Context(), filter)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		switch format {
		case "json", "yaml":
			return writeAuditRecords(out, format, entries)
		}

		if len(entries) == 0 {
			fmt.Fprintln(out, "No audit events.")
			return nil
		}

		now := time.Now()
		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "TIME\tACTION\tACTOR\tTARGET\tDECISION\tDETAILS")
		for _, e := range entries {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
				timeutil.Relative(e.Timestamp, now),
				e.Action,
				dashIfEmpty(e.Actor),
				dashIfEmpty(e.Target),
				decisionFmt(e.Decision),
				dashIfEmpty(formatDetails(e.Details)),
			)
		}
		return w.Flush()
	},
}

func writeAuditRecords(w io.Writer, format string, entries []*store.AuditEntry) error {
	records := make([]auditRecord, 0, len(entries))
	for _, e := range entries {
		records = append(records, auditRecord{
			ID:        e.ID,
			Timestamp: e.Timestamp.UTC().Format(time.RFC3339),
			Action:    e.Action,
			Actor:     e.Actor,
			Target:    e.Target,
			Decision:  e.Decision,
			Details:   e.Details,
		})
	}

	if format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(records)
	}
	data, err := yaml.Marshal(records)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

// formatDetails renders details as sorted key=value pairs.
func formatDetails(details map[string]string) string {
	keys := make([]string, 0, len(details))
	for k := range details {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, k+"="+details[k])
	}
	return strings.Join(pairs, " ")
}

func decisionFmt(d string) string {
	switch d {
	case "":
		return "-"
	case "denied":
		return warnFmt(d)
	default:
		return d
	}
}

func dashIfEmpty(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
