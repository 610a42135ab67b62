package cli

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/lamarrr/tensorflow/internal/compiler"
	"github.com/lamarrr/tensorflow/internal/dialect"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid  bool       `json:"valid"`
	Ops    int        `json:"ops"`
	Errors []CLIError `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <specs-dir>",
		Short: "Validate descriptors without writing a catalog",
		Long: `Validate CUE operation-kind descriptors.

Reports every problem at once: op entries that do not compile, descriptor
lint errors (E100-E112) and descriptors the registry rejects.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, specsDir string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	ops, errs, err := ValidateSpecsDir(specsDir, opts.Logger())
	if err != nil {
		code, message := codeOf(err)
		return commandError(formatter, code, message)
	}
	if len(errs) > 0 {
		// Validation failures = exit code 1
		return outputErrors(formatter, "Validation failed", ExitFailure, errs)
	}

	if formatter.JSON() {
		return formatter.Success(ValidationResult{Valid: true, Ops: ops})
	}
	fmt.Fprintf(formatter.Writer, "✓ All descriptors valid (%d op(s))\n", ops)
	return nil
}

// ValidateSpecsDir validates every descriptor in specsDir and returns the op
// count with all problems found. The error is set only when the directory
// cannot be loaded at all.
func ValidateSpecsDir(specsDir string, logger *slog.Logger) (int, []error, error) {
	loadResult, loadErrors := LoadSpecs(specsDir)
	if loadResult == nil {
		return 0, nil, loadErrors[0]
	}

	errs := loadErrors
	d := loadResult.Dialect
	if d == nil {
		return 0, errs, nil
	}

	for _, verr := range compiler.ValidateDialect(d, nil) {
		errs = append(errs, verr)
	}
	if len(errs) == 0 {
		// Lint passed; confirm the registry accepts every descriptor.
		_, _, regErrs := compiler.Build(d, "", dialect.WithLogger(logger))
		errs = append(errs, regErrs...)
	}
	return len(d.Ops), errs, nil
}
