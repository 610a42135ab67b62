package compiler

import (
	"fmt"
	"regexp"
	"slices"
	"strings"

	"github.com/Masterminds/semver/v3"

	"github.com/lamarrr/tensorflow/internal/dialect"
	"github.com/lamarrr/tensorflow/internal/effect"
	"github.com/lamarrr/tensorflow/internal/predicate"
	"github.com/lamarrr/tensorflow/internal/trait"
)

// Validation error codes (E100-E199)
const (
	// Dialect header errors (E100)
	ErrDialectHeader = "E100" // missing name or invalid version

	// Descriptor errors (E101-E112)
	ErrOpName            = "E101" // op name missing or not "dialect.Name"
	ErrOpNoSlots         = "E102" // no operands and no results
	ErrUnknownConstraint = "E103" // unknown tensor type constraint
	ErrDuplicateName     = "E104" // duplicate slot/attribute/derived name
	ErrUnknownTrait      = "E105" // trait name not in the trait table
	ErrInvalidEffect     = "E106" // effect is not Resource.Access, or repeated
	ErrInvalidDerived    = "E107" // unknown derived kind or slot
	ErrInvalidEnum       = "E108" // attribute enum empty or repeated case
	ErrInvalidAvailable  = "E109" // malformed semver constraint
	ErrTraitArity        = "E110" // Cwise trait on a kind with the wrong slot count
	ErrDialectMismatch   = "E111" // op prefix differs from dialect name
	ErrConflictingTraits = "E112" // NoSideEffect declared on a kind with effects
)

// ValidationError represents a descriptor validation error.
type ValidationError struct {
	Op      string `json:"op,omitempty"`
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("[%s] %s: %s: %s", e.Code, e.Op, e.Field, e.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// opNamePattern matches "dialect.Name", e.g. "tf.AddV2".
var opNamePattern = regexp.MustCompile(`^[a-z_][a-z0-9_]*\.[A-Za-z_][A-Za-z0-9_]*$`)

// ValidateDialect validates the header and every op of d.
// Returns all errors found (does not fail-fast).
func ValidateDialect(d *Dialect, traits trait.Table) []ValidationError {
	var errs []ValidationError

	if strings.TrimSpace(d.Name) == "" {
		errs = append(errs, ValidationError{Field: "dialect.name", Message: "dialect name is required", Code: ErrDialectHeader})
	}
	if d.Version != "" {
		if _, err := semver.NewVersion(d.Version); err != nil {
			errs = append(errs, ValidationError{
				Field:   "dialect.version",
				Message: fmt.Sprintf("invalid version %q: %v", d.Version, err),
				Code:    ErrDialectHeader,
			})
		}
	}

	for i := range d.Ops {
		op := &d.Ops[i]
		if prefix, _, ok := strings.Cut(op.Name, "."); ok && d.Name != "" && prefix != d.Name {
			errs = append(errs, ValidationError{
				Op:      op.Name,
				Field:   "name",
				Message: fmt.Sprintf("op prefix %q differs from dialect %q", prefix, d.Name),
				Code:    ErrDialectMismatch,
			})
		}
		errs = append(errs, Validate(op, traits)...)
	}
	return errs
}

// Validate checks a single descriptor against the schema rules that
// registration enforces, plus lint rules registration does not.
// Returns all errors found (does not fail-fast). A nil traits table means the
// built-in traits.
func Validate(desc *dialect.Descriptor, traits trait.Table) []ValidationError {
	if traits == nil {
		traits = trait.Standard()
	}
	var errs []ValidationError
	add := func(field, code, format string, args ...any) {
		errs = append(errs, ValidationError{Op: desc.Name, Field: field, Message: fmt.Sprintf(format, args...), Code: code})
	}

	// E101: name must be "dialect.Name"
	if !opNamePattern.MatchString(desc.Name) {
		add("name", ErrOpName, "invalid op name %q, expected format \"dialect.Name\"", desc.Name)
	}

	// E102: at least one slot
	if len(desc.Operands) == 0 && len(desc.Results) == 0 {
		add("operands", ErrOpNoSlots, "op declares no operands and no results")
	}

	// Track names for duplicate detection across slots, attributes and derived attributes
	names := make(map[string]bool)
	checkName := func(field, name string) {
		if name == "" {
			add(field, ErrDuplicateName, "name is required")
			return
		}
		if names[name] {
			add(field, ErrDuplicateName, "duplicate name %q", name)
		}
		names[name] = true
	}

	for _, group := range []struct {
		field string
		slots []dialect.SlotDesc
	}{{"operands", desc.Operands}, {"results", desc.Results}} {
		for i, s := range group.slots {
			field := fmt.Sprintf("%s[%d]", group.field, i)
			checkName(field+".name", s.Name)
			// E103: constraint must resolve
			if _, ok := predicate.LookupTensor(s.Type); !ok {
				add(field+".type", ErrUnknownConstraint, "unknown type constraint %q", s.Type)
			}
		}
	}

	for i, a := range desc.Attrs {
		field := fmt.Sprintf("attrs[%d]", i)
		checkName(field+".name", a.Name)
		// E108: non-empty enum without repeats
		if len(a.Enum) == 0 {
			add(field+".enum", ErrInvalidEnum, "attribute %q declares no enum cases", a.Name)
		}
		seen := make(map[string]bool)
		for _, c := range a.Enum {
			if seen[c] {
				add(field+".enum", ErrInvalidEnum, "attribute %q repeats case %q", a.Name, c)
			}
			seen[c] = true
		}
	}

	// E105: every trait must be known
	for i, name := range desc.Traits {
		if _, ok := traits.Lookup(name); !ok {
			add(fmt.Sprintf("traits[%d]", i), ErrUnknownTrait, "unknown trait %q", name)
		}
	}

	// E106: effects are Resource.Access and appear once
	var effects effect.List
	for i, s := range desc.Effects {
		e, err := effect.Parse(s)
		if err != nil {
			add(fmt.Sprintf("effects[%d]", i), ErrInvalidEffect, "%v", err)
			continue
		}
		if slices.Contains(effects, e) {
			add(fmt.Sprintf("effects[%d]", i), ErrInvalidEffect, "duplicate effect %s", e)
		}
		effects = append(effects, e)
	}

	// E107: derived kinds and slots
	operandNames := slotNames(desc.Operands)
	resultNames := slotNames(desc.Results)
	for i, d := range desc.Derived {
		field := fmt.Sprintf("derived[%d]", i)
		checkName(field+".name", d.Name)
		kind := dialect.DerivedKind(d.Kind)
		switch {
		case !slices.Contains(dialect.DerivedKinds, kind):
			add(field+".kind", ErrInvalidDerived, "unknown derived kind %q", d.Kind)
		case kind == dialect.DerivedOperandCount && !slices.Contains(operandNames, d.Slot):
			add(field+".slot", ErrInvalidDerived, "%s needs an operand slot, %q is not one", kind, d.Slot)
		case kind == dialect.DerivedResultCount && !slices.Contains(resultNames, d.Slot):
			add(field+".slot", ErrInvalidDerived, "%s needs a result slot, %q is not one", kind, d.Slot)
		case !slices.Contains(operandNames, d.Slot) && !slices.Contains(resultNames, d.Slot):
			add(field+".slot", ErrInvalidDerived, "unknown slot %q", d.Slot)
		}
	}

	// E109: availability constraint must parse
	if desc.Available != "" {
		if _, err := semver.NewConstraint(desc.Available); err != nil {
			add("available", ErrInvalidAvailable, "invalid constraint %q: %v", desc.Available, err)
		}
	}

	// E110: Cwise traits need the matching fixed arity
	fixed := func(slots []dialect.SlotDesc) int {
		n := 0
		for _, s := range slots {
			if s.Variadic {
				return -1
			}
			n++
		}
		return n
	}
	if slices.Contains(desc.Traits, trait.CwiseBinary) && (fixed(desc.Operands) != 2 || fixed(desc.Results) != 1) {
		add("traits", ErrTraitArity, "%s needs 2 fixed operands and 1 fixed result", trait.CwiseBinary)
	}
	if slices.Contains(desc.Traits, trait.CwiseUnary) && (fixed(desc.Operands) != 1 || fixed(desc.Results) != 1) {
		add("traits", ErrTraitArity, "%s needs 1 fixed operand and 1 fixed result", trait.CwiseUnary)
	}

	// E112: a pure kind cannot declare effects
	if slices.Contains(desc.Traits, trait.NoSideEffect) && len(desc.Effects) > 0 {
		add("effects", ErrConflictingTraits, "%s conflicts with declared effects %v", trait.NoSideEffect, desc.Effects)
	}

	return errs
}

func slotNames(slots []dialect.SlotDesc) []string {
	out := make([]string, len(slots))
	for i, s := range slots {
		out[i] = s.Name
	}
	return out
}
