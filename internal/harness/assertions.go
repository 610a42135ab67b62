package harness

import (
	"fmt"
	"slices"
	"strings"

	"github.com/lamarrr/tensorflow/internal/diag"
	"github.com/lamarrr/tensorflow/internal/ir"
)

// Expectation type names used in AssertionError.
const (
	ExpectDiagnostics = "diagnostics"
	ExpectDerived     = "derived"
	ExpectBuildError  = "build_error"
)

// AssertionError is returned when an expectation is not met.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string    // Expectation type for categorization
	Expected string    // Human-readable expected outcome
	Actual   string    // Human-readable actual outcome
	Found    diag.List // Diagnostics actually reported, for context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "expectation failed: %s: expected %s, got %s", e.Type, e.Expected, e.Actual)
	for _, d := range e.Found {
		fmt.Fprintf(&buf, "\n  %s", d.Error())
	}
	return buf.String()
}

// checkExpectations evaluates exp against res and returns every failure message.
func checkExpectations(res *InstanceReport, exp *Expect) []string {
	if exp == nil {
		return nil
	}
	var failures []string
	for _, err := range []error{
		assertBuildError(res, exp),
		assertDiagnostics(res, exp),
		assertDerived(res, exp),
	} {
		if err != nil {
			failures = append(failures, err.Error())
		}
	}
	return failures
}

// assertBuildError checks that inference failed with the expected kind, or
// did not fail when none is expected.
func assertBuildError(res *InstanceReport, exp *Expect) error {
	actual := "no build error"
	if res.BuildError != nil {
		actual = string(res.BuildError.Kind)
	}
	switch {
	case exp.BuildError == "" && res.BuildError == nil:
		return nil
	case exp.BuildError != "" && res.BuildError != nil && string(res.BuildError.Kind) == exp.BuildError:
		return nil
	}
	expected := exp.BuildError
	if expected == "" {
		expected = "no build error"
	}
	return &AssertionError{Type: ExpectBuildError, Expected: expected, Actual: actual}
}

// assertDiagnostics compares kinds as a multiset, then checks that every
// expected entry listing slots matches a distinct diagnostic with those slots.
func assertDiagnostics(res *InstanceReport, exp *Expect) error {
	if exp.Diagnostics == nil {
		return nil
	}

	want := make([]string, len(exp.Diagnostics))
	for i, d := range exp.Diagnostics {
		want[i] = d.Kind
	}
	got := make([]string, len(res.Diagnostics))
	for i, d := range res.Diagnostics {
		got[i] = string(d.Kind)
	}
	slices.Sort(want)
	slices.Sort(got)
	if !slices.Equal(want, got) {
		return &AssertionError{
			Type:     ExpectDiagnostics,
			Expected: formatKinds(want),
			Actual:   formatKinds(got),
			Found:    res.Diagnostics,
		}
	}

	used := make([]bool, len(res.Diagnostics))
	for _, e := range exp.Diagnostics {
		if len(e.Slots) == 0 {
			continue
		}
		matched := false
		for i, d := range res.Diagnostics {
			if !used[i] && string(d.Kind) == e.Kind && slices.Equal(d.Slots, e.Slots) {
				used[i], matched = true, true
				break
			}
		}
		if !matched {
			return &AssertionError{
				Type:     ExpectDiagnostics,
				Expected: fmt.Sprintf("%s naming %v", e.Kind, e.Slots),
				Actual:   "no such diagnostic",
				Found:    res.Diagnostics,
			}
		}
	}
	return nil
}

// assertDerived checks the expected derived values (subset semantics).
func assertDerived(res *InstanceReport, exp *Expect) error {
	var mismatches []string
	for _, name := range ir.SortedKeys(exp.Derived) {
		want := exp.Derived[name]
		got, ok := res.Derived[name]
		switch {
		case ok && got == want:
			continue
		case ok:
			mismatches = append(mismatches, fmt.Sprintf("%s = %s", name, got))
		case res.DeriveErrors[name] != "":
			mismatches = append(mismatches, fmt.Sprintf("%s failed: %s", name, res.DeriveErrors[name]))
		default:
			mismatches = append(mismatches, fmt.Sprintf("%s missing", name))
		}
	}
	if len(mismatches) == 0 {
		return nil
	}
	return &AssertionError{
		Type:     ExpectDerived,
		Expected: fmt.Sprintf("%v", exp.Derived),
		Actual:   strings.Join(mismatches, "; "),
	}
}

func formatKinds(kinds []string) string {
	if len(kinds) == 0 {
		return "no diagnostics"
	}
	return "[" + strings.Join(kinds, ", ") + "]"
}
