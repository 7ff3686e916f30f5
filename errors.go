package ddbgen

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for common failure cases.
var (
	// ErrInvalidDocument indicates the input could not be interpreted as a
	// schema document at all.
	ErrInvalidDocument = errors.New("ddbgen: invalid schema document")
	// ErrGenerationRefused indicates generation was refused because the
	// diagnostics collection is non-empty after validation.
	ErrGenerationRefused = errors.New("ddbgen: generation refused")
	// ErrUnknownLanguage indicates no backend is registered for the requested
	// target language.
	ErrUnknownLanguage = errors.New("ddbgen: unknown target language")
)

// RefusedError is returned when generation is requested against a document
// with outstanding diagnostics. It carries the full collection so callers can
// surface every violation at once.
type RefusedError struct {
	Diagnostics *Diagnostics
}

// Error implements the error interface.
func (e *RefusedError) Error() string {
	var b strings.Builder
	b.WriteString("ddbgen: generation refused")
	if e.Diagnostics != nil {
		fmt.Fprintf(&b, ": %d outstanding diagnostics", e.Diagnostics.Len())
	}
	return b.String()
}

// Is reports whether the target matches the sentinel error for RefusedError.
func (e *RefusedError) Is(target error) bool {
	return target == ErrGenerationRefused
}

// NewRefusedError creates a new RefusedError.
func NewRefusedError(diags *Diagnostics) *RefusedError {
	return &RefusedError{Diagnostics: diags}
}

// UnknownLanguageError is returned when the requested target language has no
// registered backend.
type UnknownLanguageError struct {
	Language string
	Known    []string
}

// Error implements the error interface.
func (e *UnknownLanguageError) Error() string {
	if len(e.Known) > 0 {
		return fmt.Sprintf("ddbgen: unknown target language %q (registered: %s)", e.Language, strings.Join(e.Known, ", "))
	}
	return fmt.Sprintf("ddbgen: unknown target language %q", e.Language)
}

// Is reports whether the target matches the sentinel error for
// UnknownLanguageError.
func (e *UnknownLanguageError) Is(target error) bool {
	return target == ErrUnknownLanguage
}

// NewUnknownLanguageError creates a new UnknownLanguageError.
func NewUnknownLanguageError(language string, known []string) *UnknownLanguageError {
	return &UnknownLanguageError{Language: language, Known: known}
}

// IsRefused returns true if the error is a RefusedError.
func IsRefused(err error) bool {
	var refusedErr *RefusedError
	return errors.As(err, &refusedErr)
}

// IsUnknownLanguage returns true if the error is an UnknownLanguageError.
func IsUnknownLanguage(err error) bool {
	var langErr *UnknownLanguageError
	return errors.As(err, &langErr)
}
