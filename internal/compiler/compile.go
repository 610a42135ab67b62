// Package compiler turns CUE operation-kind descriptors into dialect descriptors
// and validates them before registration.
package compiler

import (
	"fmt"
	"slices"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/lamarrr/tensorflow/internal/dialect"
)

// Dialect is a compiled descriptor file set: the dialect header plus every op.
type Dialect struct {
	Name    string               `json:"name"`
	Version string               `json:"version,omitempty"`
	Ops     []dialect.Descriptor `json:"ops"`
}

// CompileDialect compiles the top-level "dialect" header and every entry of the
// "op" struct. Ops that fail to compile are reported and skipped; the others
// are returned sorted by name.
//
//	dialect: {name: "tf", version: "2.15.0"}
//	op: "tf.AddV2": {...}
func CompileDialect(v cue.Value) (*Dialect, []error) {
	if err := v.Validate(); err != nil {
		return nil, []error{formatCUEError(err)}
	}

	d := &Dialect{}
	header := v.LookupPath(cue.ParsePath("dialect"))
	if !header.Exists() {
		return nil, []error{&CompileError{Field: "dialect", Message: "dialect header is required", Pos: v.Pos()}}
	}
	var err error
	if d.Name, err = lookupString(header, "name", true); err != nil {
		return nil, []error{err}
	}
	if d.Version, err = lookupString(header, "version", false); err != nil {
		return nil, []error{err}
	}

	opsVal := v.LookupPath(cue.ParsePath("op"))
	if !opsVal.Exists() {
		return d, nil
	}
	iter, err := opsVal.Fields()
	if err != nil {
		return d, []error{formatCUEError(err)}
	}

	var errs []error
	for iter.Next() {
		desc, err := CompileOp(iter.Value())
		if err != nil {
			errs = append(errs, err)
			continue
		}
		d.Ops = append(d.Ops, *desc)
	}
	slices.SortFunc(d.Ops, func(a, b dialect.Descriptor) int { return strings.Compare(a.Name, b.Name) })
	return d, errs
}

// CompileOp parses one op entry. The kind name is the entry's label, which
// must be quoted in CUE because it contains the dialect prefix:
//
//	spec, err := CompileOp(v.LookupPath(cue.ParsePath(`op."tf.AddV2"`)))
func CompileOp(v cue.Value) (*dialect.Descriptor, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	desc := &dialect.Descriptor{}
	labels := v.Path().Selectors()
	if len(labels) > 0 {
		desc.Name = strings.Trim(labels[len(labels)-1].String(), `"`)
	}
	if desc.Name == "" {
		return nil, &CompileError{Field: "op", Message: "op name is required", Pos: v.Pos()}
	}

	var err error
	if desc.Summary, err = lookupString(v, "summary", false); err != nil {
		return nil, err
	}
	if desc.Available, err = lookupString(v, "available", false); err != nil {
		return nil, err
	}
	if desc.Operands, err = parseSlots(v, "operands"); err != nil {
		return nil, err
	}
	if desc.Results, err = parseSlots(v, "results"); err != nil {
		return nil, err
	}
	if desc.Attrs, err = parseAttrs(v); err != nil {
		return nil, err
	}
	if desc.Traits, err = lookupStringList(v, "traits"); err != nil {
		return nil, err
	}
	if desc.Effects, err = lookupStringList(v, "effects"); err != nil {
		return nil, err
	}
	if desc.Derived, err = parseDerived(v); err != nil {
		return nil, err
	}
	return desc, nil
}

// parseSlots reads a list of {name, type, variadic?} records.
func parseSlots(v cue.Value, field string) ([]dialect.SlotDesc, error) {
	var slots []dialect.SlotDesc
	err := eachListItem(v, field, func(item cue.Value) error {
		var s dialect.SlotDesc
		var err error
		if s.Name, err = lookupString(item, "name", true); err != nil {
			return err
		}
		if s.Type, err = lookupString(item, "type", true); err != nil {
			return err
		}
		if s.Variadic, err = lookupBool(item, "variadic"); err != nil {
			return err
		}
		slots = append(slots, s)
		return nil
	})
	return slots, err
}

// parseAttrs reads a list of {name, enum, optional?} records.
func parseAttrs(v cue.Value) ([]dialect.AttrDesc, error) {
	var attrs []dialect.AttrDesc
	err := eachListItem(v, "attrs", func(item cue.Value) error {
		var a dialect.AttrDesc
		var err error
		if a.Name, err = lookupString(item, "name", true); err != nil {
			return err
		}
		if a.Enum, err = lookupStringList(item, "enum"); err != nil {
			return err
		}
		if a.Optional, err = lookupBool(item, "optional"); err != nil {
			return err
		}
		attrs = append(attrs, a)
		return nil
	})
	return attrs, err
}

// parseDerived reads a list of {name, kind, slot} records.
func parseDerived(v cue.Value) ([]dialect.DerivedDesc, error) {
	var derived []dialect.DerivedDesc
	err := eachListItem(v, "derived", func(item cue.Value) error {
		var d dialect.DerivedDesc
		var err error
		if d.Name, err = lookupString(item, "name", true); err != nil {
			return err
		}
		if d.Kind, err = lookupString(item, "kind", true); err != nil {
			return err
		}
		if d.Slot, err = lookupString(item, "slot", true); err != nil {
			return err
		}
		derived = append(derived, d)
		return nil
	})
	return derived, err
}

func eachListItem(v cue.Value, field string, fn func(cue.Value) error) error {
	listVal := v.LookupPath(cue.ParsePath(field))
	if !listVal.Exists() {
		return nil
	}
	iter, err := listVal.List()
	if err != nil {
		return &CompileError{Field: field, Message: "must be a list", Pos: listVal.Pos()}
	}
	for iter.Next() {
		if err := fn(iter.Value()); err != nil {
			return err
		}
	}
	return nil
}

func lookupString(v cue.Value, field string, required bool) (string, error) {
	fv := v.LookupPath(cue.ParsePath(field))
	if !fv.Exists() {
		if required {
			return "", &CompileError{Field: field, Message: field + " is required", Pos: v.Pos()}
		}
		return "", nil
	}
	s, err := fv.String()
	if err != nil {
		return "", &CompileError{Field: field, Message: fmt.Sprintf("must be a string, got %v", fv.IncompleteKind()), Pos: fv.Pos()}
	}
	return s, nil
}

func lookupBool(v cue.Value, field string) (bool, error) {
	fv := v.LookupPath(cue.ParsePath(field))
	if !fv.Exists() {
		return false, nil
	}
	b, err := fv.Bool()
	if err != nil {
		return false, &CompileError{Field: field, Message: fmt.Sprintf("must be a bool, got %v", fv.IncompleteKind()), Pos: fv.Pos()}
	}
	return b, nil
}

func lookupStringList(v cue.Value, field string) ([]string, error) {
	var out []string
	err := eachListItem(v, field, func(item cue.Value) error {
		s, err := item.String()
		if err != nil {
			return &CompileError{Field: field, Message: fmt.Sprintf("items must be strings, got %v", item.IncompleteKind()), Pos: item.Pos()}
		}
		out = append(out, s)
		return nil
	})
	return out, err
}

// CompileError represents a compilation error with source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	// Return first error with position info
	firstErr := errs[0]
	positions := errors.Positions(firstErr)
	if len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: firstErr.Error(),
			Pos:     positions[0],
		}
	}

	return err
}
