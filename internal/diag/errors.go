package diag

import (
	"errors"
	"fmt"
)

// ConfigError is a fatal descriptor problem reported at registration time.
//
// Configuration errors include:
//   - Duplicate operation-kind name
//   - Unknown trait or constraint name
//   - Malformed effect, derived attribute or availability constraint
//   - Registration after the registry was frozen
type ConfigError struct {
	// Op is the operation kind being registered.
	Op string

	// Field locates the problem within the descriptor, e.g. "traits[1]".
	Field string

	// Message is a human-readable description.
	Message string
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s: %s: %s", KindConfiguration, e.Op, e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s: %s", KindConfiguration, e.Op, e.Message)
}

// DerivationError reports a derived attribute that cannot be computed for an instance.
// It is returned to the caller of the derivation and leaves no engine state behind.
type DerivationError struct {
	// Op is the operation kind name.
	Op string

	// Attr is the derived attribute name.
	Attr string

	// Message is a human-readable description.
	Message string
}

// Error implements the error interface.
func (e *DerivationError) Error() string {
	return fmt.Sprintf("%s: %s.%s: %s", KindDerivation, e.Op, e.Attr, e.Message)
}

// IsConfigError reports whether err is or wraps a ConfigError.
func IsConfigError(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}

// IsDerivationError reports whether err is or wraps a DerivationError.
func IsDerivationError(err error) bool {
	var de *DerivationError
	return errors.As(err, &de)
}

// IsNonBroadcastable reports whether err is or wraps a NonBroadcastable diagnostic.
func IsNonBroadcastable(err error) bool {
	var d *Diagnostic
	if errors.As(err, &d) {
		return d.Kind == KindNonBroadcastable
	}
	return false
}

// KindOf returns the diagnostic kind carried by err, or "" if it carries none.
func KindOf(err error) Kind {
	var d *Diagnostic
	if errors.As(err, &d) {
		return d.Kind
	}
	switch {
	case IsConfigError(err):
		return KindConfiguration
	case IsDerivationError(err):
		return KindDerivation
	}
	return ""
}
