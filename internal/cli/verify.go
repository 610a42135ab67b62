package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lamarrr/tensorflow/internal/harness"
	"github.com/lamarrr/tensorflow/internal/store"
)

// VerifyOptions holds flags for the verify command.
type VerifyOptions struct {
	*RootOptions
	DB             string // history database; no recording when empty
	DialectVersion string // overrides the scenario and header versions
}

// VerifyResult is the verify command payload.
type VerifyResult struct {
	Report *harness.Report `json:"report"`
	RunID  string          `json:"run_id,omitempty"`
}

// NewVerifyCommand creates the verify command.
func NewVerifyCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &VerifyOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "verify <specs-dir> <scenario.yaml>",
		Short: "Verify a scenario of operation instances",
		Long: `Build, verify and derive every instance of a scenario against the
catalog compiled from specs-dir, then check the instance expectations.
The scenario's own specs list is ignored.

Exit codes:
  0 - All expectations met
  1 - One or more expectations failed
  2 - Command error (invalid paths, malformed scenario, etc.)

Examples:
  tfverify verify ./specs ./scenarios/broadcast-ref.yaml
  tfverify verify ./specs ./scenarios/broadcast-ref.yaml --db runs.db
  tfverify verify ./specs ./scenarios/broadcast-ref.yaml --format json`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVerify(opts, args[0], args[1], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.DB, "db", "", "record the run in this SQLite database")
	cmd.Flags().StringVar(&opts.DialectVersion, "dialect-version", "", "dialect version (defaults to the scenario, then the descriptor header)")

	return cmd
}

func runVerify(opts *VerifyOptions, specsDir, scenarioPath string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	report, err := executeScenario(opts.RootOptions, formatter, specsDir, scenarioPath, opts.DialectVersion)
	if err != nil {
		return err
	}

	result := VerifyResult{Report: report}
	if opts.DB != "" {
		st, err := store.Open(opts.DB)
		if err != nil {
			return commandError(formatter, ErrCodeStore, fmt.Sprintf("opening database: %v", err))
		}
		defer st.Close()

		run, err := st.WriteRun(cmd.Context(), report)
		if err != nil {
			return commandError(formatter, ErrCodeStore, fmt.Sprintf("recording run: %v", err))
		}
		result.RunID = run.ID
		formatter.VerboseLog("Recorded run %s in %s", run.ID, opts.DB)
	}

	if formatter.JSON() {
		if report.Pass {
			return formatter.Success(result)
		}
		if err := formatter.Failure(ErrCodeExpectation, report.Errors[0], result); err != nil {
			return err
		}
		return NewExitError(ExitFailure, fmt.Sprintf("%d expectation(s) failed", len(report.Errors)))
	}

	writeReport(formatter, report)
	if result.RunID != "" {
		fmt.Fprintf(formatter.Writer, "\nRecorded run %s\n", result.RunID)
	}
	if !report.Pass {
		return NewExitError(ExitFailure, fmt.Sprintf("%d expectation(s) failed", len(report.Errors)))
	}
	return nil
}

// executeScenario loads a scenario and runs it against the catalog compiled
// from specsDir. Every failure has already been printed when an error is returned.
func executeScenario(opts *RootOptions, formatter *OutputFormatter, specsDir, scenarioPath, version string) (*harness.Report, error) {
	scenario, err := harness.LoadScenario(scenarioPath)
	if err != nil {
		return nil, commandError(formatter, ErrCodeScenario, err.Error())
	}
	formatter.VerboseLog("Loaded scenario %s: %d instance(s)", scenario.Name, len(scenario.Instances))

	if version == "" {
		version = scenario.DialectVersion
	}
	cat, _, err := buildCatalog(opts, formatter, specsDir, version)
	if err != nil {
		return nil, err
	}

	report, err := harness.New(cat, harness.WithLogger(opts.Logger())).Execute(scenario)
	if err != nil {
		return nil, commandError(formatter, ErrCodeScenario, err.Error())
	}
	return report, nil
}

func writeReport(formatter *OutputFormatter, report *harness.Report) {
	w := formatter.Writer
	mark := "✓"
	if !report.Pass {
		mark = "✗"
	}
	fmt.Fprintf(w, "%s %s: %d instance(s), %d diagnostic(s)\n\n",
		mark, report.Scenario, len(report.Instances), report.DiagnosticCount())

	for _, inst := range report.Instances {
		status := "clean"
		switch {
		case inst.BuildError != nil:
			status = "build failed"
		case len(inst.Diagnostics) > 0:
			status = fmt.Sprintf("%d diagnostic(s)", len(inst.Diagnostics))
		}
		fmt.Fprintf(w, "  %s %s: %s\n", inst.Location, inst.Kind, status)
		if inst.BuildError != nil {
			fmt.Fprintf(w, "    %s\n", inst.BuildError.Error())
		}
		for i := range inst.Diagnostics {
			fmt.Fprintf(w, "    %s\n", inst.Diagnostics[i].Error())
		}
		if len(inst.Inferred) > 0 {
			fmt.Fprintf(w, "    inferred %s\n", strings.Join(inst.Inferred, ", "))
		}
	}

	if len(report.Errors) > 0 {
		fmt.Fprintf(w, "\nFailed expectations:\n")
		for _, e := range report.Errors {
			fmt.Fprintf(w, "  %s\n", e)
		}
	}
}
