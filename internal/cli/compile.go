package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lamarrr/tensorflow/internal/compiler"
	"github.com/lamarrr/tensorflow/internal/dialect"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	Output         string // output file path
	DialectVersion string // overrides the header version
}

// CatalogResult is the frozen catalog as written by compile.
type CatalogResult struct {
	Dialect     string               `json:"dialect"`
	Version     string               `json:"version,omitempty"`
	Fingerprint string               `json:"fingerprint"`
	Kinds       []dialect.Descriptor `json:"kinds"`
	Skipped     []string             `json:"skipped,omitempty"` // kinds not available at Version
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile <specs-dir>",
		Short: "Compile CUE descriptors into a frozen catalog",
		Long: `Compile CUE operation-kind descriptors, register the kinds available
at the dialect version and print the frozen catalog with its fingerprint.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors - we handle our own error output
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output file path")
	cmd.Flags().StringVar(&opts.DialectVersion, "dialect-version", "", "dialect version (defaults to the descriptor header)")

	return cmd
}

func runCompile(opts *CompileOptions, specsDir string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	cat, skipped, err := buildCatalog(opts.RootOptions, formatter, specsDir, opts.DialectVersion)
	if err != nil {
		return err
	}

	result := catalogResult(cat, skipped)
	if opts.Output != "" {
		if err := writeCatalogFile(result, opts.Output); err != nil {
			return commandError(formatter, ErrCodeWriteFailed, fmt.Sprintf("writing output file: %v", err))
		}
	}

	if formatter.JSON() {
		return formatter.Success(result)
	}

	fmt.Fprintf(formatter.Writer, "✓ Compiled %d op kind(s) for dialect %s", len(result.Kinds), result.Dialect)
	if result.Version != "" {
		fmt.Fprintf(formatter.Writer, " %s", result.Version)
	}
	fmt.Fprint(formatter.Writer, "\n\n")

	fmt.Fprintln(formatter.Writer, "Kinds:")
	for _, k := range result.Kinds {
		fmt.Fprintf(formatter.Writer, "  %s: %d operand(s), %d result(s)", k.Name, len(k.Operands), len(k.Results))
		if len(k.Traits) > 0 {
			fmt.Fprintf(formatter.Writer, " [%s]", strings.Join(k.Traits, ", "))
		}
		fmt.Fprintln(formatter.Writer)
	}
	fmt.Fprintln(formatter.Writer)

	if len(result.Skipped) > 0 {
		fmt.Fprintf(formatter.Writer, "Not available at %s:\n", result.Version)
		for _, name := range result.Skipped {
			fmt.Fprintf(formatter.Writer, "  %s\n", name)
		}
		fmt.Fprintln(formatter.Writer)
	}

	fmt.Fprintf(formatter.Writer, "Fingerprint: %s\n", result.Fingerprint)
	if opts.Output != "" {
		fmt.Fprintf(formatter.Writer, "Wrote catalog to %s\n", opts.Output)
	}
	return nil
}

// buildCatalog loads, compiles and registers the descriptors in specsDir.
// Every failure has already been printed when an error is returned.
func buildCatalog(opts *RootOptions, formatter *OutputFormatter, specsDir, version string) (*dialect.Catalog, []dialect.Descriptor, error) {
	loadResult, loadErrors := LoadSpecs(specsDir)
	if loadResult == nil {
		code, message := codeOf(loadErrors[0])
		return nil, nil, commandError(formatter, code, message)
	}
	formatter.VerboseLog("Found %d CUE file(s) in %s", loadResult.FileCount, specsDir)
	if len(loadErrors) > 0 {
		return nil, nil, outputErrors(formatter, "Compilation failed", ExitCommandError, loadErrors)
	}

	d := loadResult.Dialect
	for _, op := range d.Ops {
		formatter.VerboseLog("Compiled op: %s", op.Name)
	}

	cat, skipped, errs := compiler.Build(d, version, dialect.WithLogger(opts.Logger()))
	if len(errs) > 0 {
		return nil, nil, outputErrors(formatter, "Registration failed", ExitCommandError, errs)
	}
	for _, s := range skipped {
		formatter.VerboseLog("Skipped op %s: not available at %s", s.Name, cat.Version())
	}
	return cat, skipped, nil
}

func catalogResult(cat *dialect.Catalog, skipped []dialect.Descriptor) *CatalogResult {
	result := &CatalogResult{
		Dialect:     cat.Dialect(),
		Version:     cat.Version(),
		Fingerprint: cat.Fingerprint(),
		Kinds:       cat.Descriptors(),
	}
	for _, s := range skipped {
		result.Skipped = append(result.Skipped, s.Name)
	}
	return result
}

// outputErrors prints every error and returns an ExitError with the given code.
func outputErrors(formatter *OutputFormatter, title string, exitCode int, errs []error) error {
	if formatter.JSON() {
		cliErrors := make([]CLIError, len(errs))
		for i, err := range errs {
			code, message := codeOf(err)
			cliErrors[i] = CLIError{Code: code, Message: message}
		}
		if err := formatter.Failure(cliErrors[0].Code, cliErrors[0].Message, cliErrors); err != nil {
			return err
		}
		return NewExitError(exitCode, fmt.Sprintf("%s with %d error(s)", strings.ToLower(title), len(errs)))
	}

	fmt.Fprintf(formatter.Writer, "✗ %s\n\n", title)
	for _, err := range errs {
		code, message := codeOf(err)
		var loadErr *LoadError
		if errors.As(err, &loadErr) && loadErr.Pos.IsValid() {
			fmt.Fprintf(formatter.Writer, "%s:%d:%d\n",
				loadErr.Pos.Filename(),
				loadErr.Pos.Line(),
				loadErr.Pos.Column())
		}
		fmt.Fprintf(formatter.Writer, "  %s: %s\n\n", code, message)
	}
	return NewExitError(exitCode, fmt.Sprintf("%s with %d error(s)", strings.ToLower(title), len(errs)))
}

// writeCatalogFile writes the catalog as indented JSON.
func writeCatalogFile(result *CatalogResult, filename string) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling catalog: %w", err)
	}
	if err := os.WriteFile(filename, data, 0o644); err != nil {
		return fmt.Errorf("writing file: %w", err)
	}
	return nil
}
