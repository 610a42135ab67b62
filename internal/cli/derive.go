package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lamarrr/tensorflow/internal/harness"
	"github.com/lamarrr/tensorflow/internal/ir"
)

// DeriveOptions holds flags for the derive command.
type DeriveOptions struct {
	*RootOptions
	Instance       string // location of the instance; all instances when empty
	DialectVersion string
}

// DerivedAttrs is the derivation outcome of one instance.
type DerivedAttrs struct {
	Kind     string            `json:"kind"`
	Location string            `json:"location"`
	Derived  map[string]string `json:"derived,omitempty"`
	Errors   map[string]string `json:"errors,omitempty"`
	// BuildError is set when the instance has no operation to derive from.
	BuildError string `json:"build_error,omitempty"`
}

// NewDeriveCommand creates the derive command.
func NewDeriveCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DeriveOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "derive <specs-dir> <scenario.yaml>",
		Short: "Print the derived attributes of scenario instances",
		Long: `Compute every derived attribute (operand counts, element types, shape
lists, handle subtypes) of the instances of a scenario. Expectations are not
checked.

Examples:
  tfverify derive ./specs ./scenarios/derived-attrs.yaml
  tfverify derive ./specs ./scenarios/derived-attrs.yaml --instance read0`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDerive(opts, args[0], args[1], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Instance, "instance", "", "instance location (default all instances)")
	cmd.Flags().StringVar(&opts.DialectVersion, "dialect-version", "", "dialect version (defaults to the scenario, then the descriptor header)")

	return cmd
}

func runDerive(opts *DeriveOptions, specsDir, scenarioPath string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	report, err := executeScenario(opts.RootOptions, formatter, specsDir, scenarioPath, opts.DialectVersion)
	if err != nil {
		return err
	}

	var out []DerivedAttrs
	for _, inst := range report.Instances {
		if opts.Instance != "" && inst.Location != opts.Instance {
			continue
		}
		out = append(out, derivedAttrs(inst))
	}
	if len(out) == 0 {
		return commandError(formatter, ErrCodeScenario,
			fmt.Sprintf("no instance at location %q in scenario %s", opts.Instance, report.Scenario))
	}

	if formatter.JSON() {
		return formatter.Success(out)
	}

	w := formatter.Writer
	for i, d := range out {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintf(w, "%s %s\n", d.Location, d.Kind)
		if d.BuildError != "" {
			fmt.Fprintf(w, "  build failed: %s\n", d.BuildError)
			continue
		}
		if len(d.Derived) == 0 && len(d.Errors) == 0 {
			fmt.Fprintln(w, "  (no derived attributes)")
		}
		for _, name := range ir.SortedKeys(d.Derived) {
			fmt.Fprintf(w, "  %s = %s\n", name, d.Derived[name])
		}
		for _, name := range ir.SortedKeys(d.Errors) {
			fmt.Fprintf(w, "  %s: %s\n", name, d.Errors[name])
		}
	}
	return nil
}

func derivedAttrs(inst harness.InstanceReport) DerivedAttrs {
	d := DerivedAttrs{
		Kind:     inst.Kind,
		Location: inst.Location,
		Derived:  inst.Derived,
		Errors:   inst.DeriveErrors,
	}
	if inst.BuildError != nil {
		d.BuildError = inst.BuildError.Error()
	}
	return d
}
