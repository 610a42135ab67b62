package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lamarrr/tensorflow/internal/dialect"
)

// EffectsOptions holds flags for the effects command.
type EffectsOptions struct {
	*RootOptions
	Against        string // second kind for a reordering check
	DialectVersion string
}

// KindEffects lists the effects declared by one kind.
type KindEffects struct {
	Name    string   `json:"name"`
	Effects []string `json:"effects"`
	Pure    bool     `json:"pure"`
}

// EffectsResult is the effects command payload.
type EffectsResult struct {
	Kinds []KindEffects `json:"kinds"`
	// Conflict is set by --against: whether the two kinds must keep their order.
	Conflict *bool `json:"conflict,omitempty"`
}

// NewEffectsCommand creates the effects command.
func NewEffectsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &EffectsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "effects <specs-dir> [op]",
		Short: "Print declared resource effects",
		Long: `Print the resource effects (Resource.Access) declared by every kind, or
by one kind. With --against, also report whether instances of the two kinds
conflict, that is touch a common resource with at least one non-read access.

Examples:
  tfverify effects ./specs
  tfverify effects ./specs tf.ReadVariableOp --against tf.AssignVariableOp`,
		Args:          cobra.RangeArgs(1, 2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			op := ""
			if len(args) == 2 {
				op = args[1]
			}
			return runEffects(opts, args[0], op, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Against, "against", "", "report whether op conflicts with this kind")
	cmd.Flags().StringVar(&opts.DialectVersion, "dialect-version", "", "dialect version (defaults to the descriptor header)")

	return cmd
}

func runEffects(opts *EffectsOptions, specsDir, op string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	if opts.Against != "" && op == "" {
		return commandError(formatter, ErrCodeGeneric, "--against requires an op")
	}

	cat, _, err := buildCatalog(opts.RootOptions, formatter, specsDir, opts.DialectVersion)
	if err != nil {
		return err
	}

	names := cat.Kinds()
	if op != "" {
		names = []string{op}
	}

	result := EffectsResult{Kinds: make([]KindEffects, 0, len(names))}
	for _, name := range names {
		effects, err := cat.EffectsOf(name)
		if err != nil {
			return unknownKindError(formatter, err)
		}
		result.Kinds = append(result.Kinds, KindEffects{Name: name, Effects: effects.Strings(), Pure: effects.Pure()})
	}
	if opts.Against != "" {
		conflict, err := cat.Conflicts(op, opts.Against)
		if err != nil {
			return unknownKindError(formatter, err)
		}
		result.Conflict = &conflict
	}

	if formatter.JSON() {
		return formatter.Success(result)
	}

	for _, k := range result.Kinds {
		if k.Pure {
			fmt.Fprintf(formatter.Writer, "%s: pure\n", k.Name)
			continue
		}
		fmt.Fprintf(formatter.Writer, "%s: %s\n", k.Name, strings.Join(k.Effects, ", "))
	}
	if result.Conflict != nil {
		verdict := "may be reordered"
		if *result.Conflict {
			verdict = "conflict"
		}
		fmt.Fprintf(formatter.Writer, "\n%s vs %s: %s\n", op, opts.Against, verdict)
	}
	return nil
}

func unknownKindError(formatter *OutputFormatter, err error) error {
	if errors.Is(err, dialect.ErrUnknownKind) {
		return commandError(formatter, ErrCodeNotFound, err.Error())
	}
	return commandError(formatter, ErrCodeGeneric, err.Error())
}
