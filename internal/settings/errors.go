// Package settings validates colormap and colorbar configuration
// dictionaries and resolves references between colorbars.
//
// Dictionaries are plain decoded YAML or JSON values (map[string]any with
// nested []any, numbers and strings). Validators never mutate their input;
// they return a normalized copy with defaults filled in.
package settings

import (
	"errors"
	"fmt"
	"strings"

	"github.com/cbarreg/server/pkg/colorspace"
)

// Error kinds. Every validation failure matches one of them with errors.Is.
var (
	ErrSchema      = errors.New("schema error")
	ErrRange       = colorspace.ErrRange
	ErrConsistency = errors.New("consistency error")
	ErrReference   = errors.New("reference error")
	ErrEmpty       = errors.New("empty configuration")
	ErrType        = errors.New("type error")

	// ErrInvalidConfiguration marks an aggregated colorbar validation failure.
	ErrInvalidConfiguration = errors.New("Invalid configuration")
	// ErrInvalidColormap marks an aggregated colormap validation failure.
	ErrInvalidColormap = errors.New("Invalid colormap configuration")
)

func schemaErr(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrSchema, fmt.Sprintf(format, args...))
}

func consistencyErr(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConsistency, fmt.Sprintf(format, args...))
}

func emptyErr(msg string) error {
	return fmt.Errorf("%w: %s", ErrEmpty, msg)
}

func typeErr(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrType, fmt.Sprintf(format, args...))
}

// ValidationError aggregates the independent failures found while
// validating one dictionary.
type ValidationError struct {
	// Kind is ErrInvalidConfiguration or ErrInvalidColormap.
	Kind     error
	Name     string
	Problems []error
}

func (e *ValidationError) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.Error())
	if e.Name != "" {
		fmt.Fprintf(&b, " for '%s'", e.Name)
	}
	for _, p := range e.Problems {
		b.WriteString("\n  - ")
		b.WriteString(p.Error())
	}
	return b.String()
}

// Unwrap exposes the kind and every problem to errors.Is and errors.As.
func (e *ValidationError) Unwrap() []error {
	return append([]error{e.Kind}, e.Problems...)
}

// Messages returns one line per problem.
func Messages(err error) []string {
	if err == nil {
		return nil
	}
	var verr *ValidationError
	if errors.As(err, &verr) {
		out := make([]string, len(verr.Problems))
		for i, p := range verr.Problems {
			out[i] = p.Error()
		}
		return out
	}
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		var out []string
		for _, e := range joined.Unwrap() {
			out = append(out, Messages(e)...)
		}
		return out
	}
	return []string{err.Error()}
}

// labeled prefixes err with a component label while keeping it matchable.
type labeled struct {
	label string
	err   error
}

func (l *labeled) Error() string { return l.label + ": " + l.err.Error() }

func (l *labeled) Unwrap() error { return l.err }

func withLabel(label string, err error) error {
	if err == nil {
		return nil
	}
	return &labeled{label: label, err: err}
}
