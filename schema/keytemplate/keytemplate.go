// Package keytemplate compiles key template strings such as
// "TENANT#{tenant_id}#USER#{user_id}" into an explicit segment list.
// Both the validator and the code generators consume compiled templates;
// nothing in the pipeline splits template strings ad hoc.
package keytemplate

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrMalformedTemplate indicates a template string that cannot be compiled.
var ErrMalformedTemplate = errors.New("keytemplate: malformed template")

// ParseError describes a syntax error in a template string.
type ParseError struct {
	Raw     string
	Pos     int
	Message string
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	return fmt.Sprintf("keytemplate: malformed template %q at position %d: %s", e.Raw, e.Pos, e.Message)
}

// Is reports whether the target matches the sentinel error for ParseError.
func (e *ParseError) Is(target error) bool {
	return target == ErrMalformedTemplate
}

// Segment is one piece of a compiled template: either a literal string or a
// reference to an entity field.
type Segment struct {
	// Field is the referenced field name. Empty for literal segments.
	Field string
	// Literal is the literal text. Meaningful only when Field is empty.
	Literal string
}

// IsField reports whether the segment references a field.
func (s Segment) IsField() bool { return s.Field != "" }

// Template is a compiled key template: an ordered segment list plus the set
// of referenced field names in first-appearance order.
type Template struct {
	Raw      string
	Segments []Segment

	fields []string
}

// Parse compiles a template string. Literal text and {field} placeholders
// alternate in document order. Unbalanced or empty placeholders are syntax
// errors; whether a referenced field exists on the entity is the validator's
// concern, not the parser's.
func Parse(raw string) (*Template, error) {
	t := &Template{Raw: raw}
	seen := make(map[string]bool)
	var lit strings.Builder
	for i := 0; i < len(raw); {
		switch raw[i] {
		case '{':
			end := strings.IndexByte(raw[i+1:], '}')
			if end < 0 {
				return nil, &ParseError{Raw: raw, Pos: i, Message: "unclosed placeholder"}
			}
			name := raw[i+1 : i+1+end]
			if name == "" {
				return nil, &ParseError{Raw: raw, Pos: i, Message: "empty placeholder"}
			}
			if !validFieldRef(name) {
				return nil, &ParseError{Raw: raw, Pos: i, Message: fmt.Sprintf("invalid field reference %q", name)}
			}
			if lit.Len() > 0 {
				t.Segments = append(t.Segments, Segment{Literal: lit.String()})
				lit.Reset()
			}
			t.Segments = append(t.Segments, Segment{Field: name})
			if !seen[name] {
				seen[name] = true
				t.fields = append(t.fields, name)
			}
			i += end + 2
		case '}':
			return nil, &ParseError{Raw: raw, Pos: i, Message: "unmatched closing brace"}
		default:
			lit.WriteByte(raw[i])
			i++
		}
	}
	if lit.Len() > 0 {
		t.Segments = append(t.Segments, Segment{Literal: lit.String()})
	}
	if len(t.Segments) == 0 {
		return nil, &ParseError{Raw: raw, Pos: 0, Message: "empty template"}
	}
	return t, nil
}

// Fields returns the referenced field names in first-appearance order.
func (t *Template) Fields() []string { return t.fields }

// Passthrough reports whether the template is a pure field reference with no
// literal text, e.g. "{score}". When the referenced field is numeric, key
// builders return the raw value instead of a formatted string so the store's
// native numeric ordering applies.
func (t *Template) Passthrough() bool {
	return len(t.Segments) == 1 && t.Segments[0].IsField()
}

// Apply renders the template against the given field values, concatenating
// literal segments and stringified values in document order. Every referenced
// field must be present in values.
func (t *Template) Apply(values map[string]any) (string, error) {
	var b strings.Builder
	for _, s := range t.Segments {
		if !s.IsField() {
			b.WriteString(s.Literal)
			continue
		}
		v, ok := values[s.Field]
		if !ok {
			return "", fmt.Errorf("keytemplate: missing value for field %q in template %q", s.Field, t.Raw)
		}
		b.WriteString(formatValue(v))
	}
	return b.String(), nil
}

// ApplyRaw is Apply for passthrough templates: it returns the raw referenced
// value unformatted. For non-passthrough templates it falls back to Apply.
func (t *Template) ApplyRaw(values map[string]any) (any, error) {
	if t.Passthrough() {
		v, ok := values[t.Segments[0].Field]
		if !ok {
			return nil, fmt.Errorf("keytemplate: missing value for field %q in template %q", t.Segments[0].Field, t.Raw)
		}
		return v, nil
	}
	return t.Apply(values)
}

// Composite is the multi-attribute key form: an ordered list of independent
// single-field templates, one per key attribute.
type Composite struct {
	Templates []*Template
}

// ParseComposite compiles each element of a multi-attribute template array.
// Array length limits (1–4) are a cardinality rule enforced by the validator,
// not a syntax error.
func ParseComposite(raws []string) (*Composite, error) {
	c := &Composite{Templates: make([]*Template, 0, len(raws))}
	for _, raw := range raws {
		t, err := Parse(raw)
		if err != nil {
			return nil, err
		}
		c.Templates = append(c.Templates, t)
	}
	return c, nil
}

// Fields returns the union of referenced field names across all parts, in
// first-appearance order.
func (c *Composite) Fields() []string {
	seen := make(map[string]bool)
	var out []string
	for _, t := range c.Templates {
		for _, f := range t.Fields() {
			if !seen[f] {
				seen[f] = true
				out = append(out, f)
			}
		}
	}
	return out
}

func validFieldRef(name string) bool {
	for i, r := range name {
		switch {
		case r == '_' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
			if i == 0 {
				return false
			}
		default:
			return false
		}
	}
	return true
}

func formatValue(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	default:
		return fmt.Sprintf("%v", x)
	}
}
