package ddbgen

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Kind classifies a diagnostic by the rule group that produced it.
type Kind uint8

const (
	// KindStructural indicates a required section/field is missing or has the
	// wrong shape. Always fatal to generation.
	KindStructural Kind = iota
	// KindEnum indicates a value outside a closed set.
	KindEnum
	// KindUniqueness indicates a duplicate id or name within the scope where
	// uniqueness is required.
	KindUniqueness
	// KindReference indicates a name (field, entity, index, table) that does
	// not resolve.
	KindReference
	// KindCardinality indicates a wrong number of parameters or an
	// out-of-range multi-attribute key array.
	KindCardinality
	// KindConsistency indicates a combination that is individually well-formed
	// but jointly invalid.
	KindConsistency
)

// String returns the diagnostic kind name.
func (k Kind) String() string {
	switch k {
	case KindStructural:
		return "structural"
	case KindEnum:
		return "enum"
	case KindUniqueness:
		return "uniqueness"
	case KindReference:
		return "reference"
	case KindCardinality:
		return "cardinality"
	case KindConsistency:
		return "consistency"
	default:
		return fmt.Sprintf("kind(%d)", k)
	}
}

// Severity indicates how a diagnostic affects the pipeline.
type Severity uint8

const (
	// SeverityError blocks generation.
	SeverityError Severity = iota
	// SeverityWarning is reported but does not block generation.
	SeverityWarning
)

// String returns the severity name.
func (s Severity) String() string {
	if s == SeverityWarning {
		return "warning"
	}
	return "error"
}

// Diagnostic is a single structured finding produced during loading or
// validation. Path locates the offending document node, e.g.
// "tables[0].entities[1].access_patterns[3].range_condition".
type Diagnostic struct {
	Kind       Kind
	Severity   Severity
	Path       string
	Message    string
	Suggestion string // closest valid value or name, when one is near enough
}

// String formats the diagnostic for human output.
func (d Diagnostic) String() string {
	var b strings.Builder
	b.WriteString(d.Severity.String())
	b.WriteString("[")
	b.WriteString(d.Kind.String())
	b.WriteString("]")
	if d.Path != "" {
		b.WriteString(" ")
		b.WriteString(d.Path)
	}
	b.WriteString(": ")
	b.WriteString(d.Message)
	if d.Suggestion != "" {
		fmt.Fprintf(&b, " (did you mean %q?)", d.Suggestion)
	}
	return b.String()
}

// Structural returns a structural-error diagnostic.
func Structural(path, format string, args ...any) Diagnostic {
	return Diagnostic{Kind: KindStructural, Path: path, Message: fmt.Sprintf(format, args...)}
}

// EnumViolation returns an enum diagnostic carrying the offending value and
// the closest valid value.
func EnumViolation(path string, value, suggestion string, valid []string) Diagnostic {
	return Diagnostic{
		Kind:       KindEnum,
		Path:       path,
		Message:    fmt.Sprintf("invalid value %q, must be one of [%s]", value, strings.Join(valid, ", ")),
		Suggestion: suggestion,
	}
}

// UniquenessViolation returns a uniqueness diagnostic naming both conflicting
// locations.
func UniquenessViolation(path, otherPath, format string, args ...any) Diagnostic {
	msg := fmt.Sprintf(format, args...)
	if otherPath != "" {
		msg += fmt.Sprintf(" (conflicts with %s)", otherPath)
	}
	return Diagnostic{Kind: KindUniqueness, Path: path, Message: msg}
}

// ReferenceError returns a reference diagnostic with an optional suggestion.
func ReferenceError(path, suggestion, format string, args ...any) Diagnostic {
	return Diagnostic{
		Kind:       KindReference,
		Path:       path,
		Message:    fmt.Sprintf(format, args...),
		Suggestion: suggestion,
	}
}

// CardinalityError returns a cardinality diagnostic.
func CardinalityError(path, format string, args ...any) Diagnostic {
	return Diagnostic{Kind: KindCardinality, Path: path, Message: fmt.Sprintf(format, args...)}
}

// ConsistencyError returns a consistency diagnostic.
func ConsistencyError(path, format string, args ...any) Diagnostic {
	return Diagnostic{Kind: KindConsistency, Path: path, Message: fmt.Sprintf(format, args...)}
}

// Diagnostics is an append-only, concurrency-safe collection of diagnostics.
// Rule groups run to completion and append every violation found; nothing in
// the pipeline throws for a semantic violation. Emission order does not affect
// correctness; Sorted returns a stable snapshot for reproducible output.
type Diagnostics struct {
	mu    sync.Mutex
	items []Diagnostic
}

// NewDiagnostics returns an empty diagnostics collection.
func NewDiagnostics() *Diagnostics {
	return &Diagnostics{}
}

// Append adds diagnostics to the collection. Safe for concurrent use.
func (d *Diagnostics) Append(items ...Diagnostic) {
	d.mu.Lock()
	d.items = append(d.items, items...)
	d.mu.Unlock()
}

// Merge appends every diagnostic from other into d.
func (d *Diagnostics) Merge(other *Diagnostics) {
	if other == nil {
		return
	}
	d.Append(other.Sorted()...)
}

// Len returns the number of collected diagnostics.
func (d *Diagnostics) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.items)
}

// Empty reports whether no diagnostics were collected.
func (d *Diagnostics) Empty() bool {
	return d.Len() == 0
}

// HasErrors reports whether any collected diagnostic has error severity.
func (d *Diagnostics) HasErrors() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, it := range d.items {
		if it.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Sorted returns a stable snapshot ordered by (path, kind, message).
func (d *Diagnostics) Sorted() []Diagnostic {
	d.mu.Lock()
	out := make([]Diagnostic, len(d.items))
	copy(out, d.items)
	d.mu.Unlock()
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Path != out[j].Path {
			return out[i].Path < out[j].Path
		}
		if out[i].Kind != out[j].Kind {
			return out[i].Kind < out[j].Kind
		}
		return out[i].Message < out[j].Message
	})
	return out
}

// String formats all diagnostics, one per line, in stable order.
func (d *Diagnostics) String() string {
	sorted := d.Sorted()
	lines := make([]string, len(sorted))
	for i, it := range sorted {
		lines[i] = it.String()
	}
	return strings.Join(lines, "\n")
}
