package cli

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/lamarrr/tensorflow/internal/diag"
	"github.com/lamarrr/tensorflow/internal/store"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	DB    string // path to SQLite database
	Limit int    // most recent runs to list; 0 lists all
	Run   string // show one run in detail
}

// RunDetail is one recorded run with its diagnostics.
type RunDetail struct {
	store.Run
	Counts      map[diag.Kind]int        `json:"counts"`
	Diagnostics []store.DiagnosticRecord `json:"diagnostics"`
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List verification runs recorded by verify --db",
		Long: `List recorded verification runs, most recent first, or show one run
with its diagnostics.

Examples:
  tfverify history --db runs.db
  tfverify history --db runs.db --limit 5
  tfverify history --db runs.db --run 0190a6f2-...`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.DB, "db", "", "path to SQLite database (required)")
	cmd.Flags().IntVar(&opts.Limit, "limit", 20, "number of runs to list (0 for all)")
	cmd.Flags().StringVar(&opts.Run, "run", "", "show one run with its diagnostics")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runHistory(opts *HistoryOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	if _, err := os.Stat(opts.DB); os.IsNotExist(err) {
		return commandError(formatter, ErrCodeNotFound, fmt.Sprintf("database not found: %s", opts.DB))
	}
	st, err := store.Open(opts.DB)
	if err != nil {
		return commandError(formatter, ErrCodeStore, fmt.Sprintf("opening database: %v", err))
	}
	defer st.Close()

	ctx := cmd.Context()
	if opts.Run != "" {
		return showRun(formatter, st, opts.Run, cmd)
	}

	runs, err := st.ListRuns(ctx, opts.Limit)
	if err != nil {
		return commandError(formatter, ErrCodeStore, err.Error())
	}

	if formatter.JSON() {
		return formatter.Success(runs)
	}
	if len(runs) == 0 {
		fmt.Fprintln(formatter.Writer, "No runs recorded.")
		return nil
	}
	for _, r := range runs {
		status := "PASS"
		if !r.Pass {
			status = "FAIL"
		}
		fmt.Fprintf(formatter.Writer, "%s  %s  %s  %s %s  %s  %d instance(s)  %d diagnostic(s)\n",
			r.ID, r.CreatedAt.Format(time.RFC3339), r.Scenario, r.Dialect, r.Version,
			status, r.Instances, r.Diagnostics)
	}
	return nil
}

func showRun(formatter *OutputFormatter, st *store.Store, id string, cmd *cobra.Command) error {
	ctx := cmd.Context()
	run, err := st.ReadRun(ctx, id)
	if errors.Is(err, store.ErrRunNotFound) {
		return commandError(formatter, ErrCodeNotFound, err.Error())
	}
	if err != nil {
		return commandError(formatter, ErrCodeStore, err.Error())
	}
	counts, err := st.CountByKind(ctx, id)
	if err != nil {
		return commandError(formatter, ErrCodeStore, err.Error())
	}
	records, err := st.ReadDiagnostics(ctx, id)
	if err != nil {
		return commandError(formatter, ErrCodeStore, err.Error())
	}

	detail := RunDetail{Run: run, Counts: counts, Diagnostics: records}
	if formatter.JSON() {
		return formatter.Success(detail)
	}

	w := formatter.Writer
	fmt.Fprintf(w, "Run %s\n", run.ID)
	fmt.Fprintf(w, "  scenario:  %s\n", run.Scenario)
	fmt.Fprintf(w, "  dialect:   %s %s\n", run.Dialect, run.Version)
	fmt.Fprintf(w, "  catalog:   %s\n", run.CatalogFingerprint)
	fmt.Fprintf(w, "  report:    %s\n", run.ReportFingerprint)
	fmt.Fprintf(w, "  pass:      %t\n", run.Pass)
	fmt.Fprintf(w, "  recorded:  %s\n", run.CreatedAt.Format(time.RFC3339))
	if len(records) == 0 {
		return nil
	}

	fmt.Fprintln(w, "\nDiagnostics:")
	for _, kind := range diag.Kinds {
		if n := counts[kind]; n > 0 {
			fmt.Fprintf(w, "  %s: %d\n", kind, n)
		}
	}
	fmt.Fprintln(w)
	for i := range records {
		prefix := ""
		if records[i].Build {
			prefix = "build: "
		}
		fmt.Fprintf(w, "  %s%s\n", prefix, records[i].Diagnostic.Error())
	}
	return nil
}
