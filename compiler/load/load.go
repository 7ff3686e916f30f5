// Package load parses schema and usage-data documents into normalized
// in-memory trees. This stage guarantees shape only: required sections
// present, containers of the expected kind, required scalars non-empty.
// Unknown keys are ignored. Nothing here resolves cross-references or checks
// enum membership, and nothing here panics or returns a Go error for document
// content: structural problems accumulate as diagnostics.
package load

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/tabledsl/ddbgen"
)

var structural = newStructuralValidator()

// newStructuralValidator builds the validator used for shape checks, with
// field names reported by their yaml tag so diagnostic paths match the
// source document.
func newStructuralValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		tag := strings.SplitN(fld.Tag.Get("yaml"), ",", 2)[0]
		if tag == "-" {
			return ""
		}
		return tag
	})
	return v
}

// Parse loads a schema document. It always returns a non-nil document and a
// non-nil diagnostics collection; the document is empty when the top-level
// sections cannot be interpreted as the expected container shapes.
func Parse(data []byte) (*Document, *ddbgen.Diagnostics) {
	diags := ddbgen.NewDiagnostics()
	doc := &Document{}
	if err := yaml.Unmarshal(data, doc); err != nil {
		var typeErr *yaml.TypeError
		if !errors.As(err, &typeErr) {
			diags.Append(ddbgen.Structural("", "cannot parse document: %v", err))
			return &Document{}, diags
		}
		// Type errors are partial: yaml keeps decoding the rest of the
		// document, so shape diagnostics below still apply.
		for _, msg := range typeErr.Errors {
			diags.Append(ddbgen.Structural("", "%s", msg))
		}
	}
	checkShape(doc, diags)
	if doc.Tables == nil {
		return &Document{CrossTablePatterns: doc.CrossTablePatterns}, diags
	}
	return doc, diags
}

// checkShape applies the structural rules declared on the document types and
// converts every violation into a StructuralError diagnostic.
func checkShape(doc *Document, diags *ddbgen.Diagnostics) {
	err := structural.Struct(doc)
	if err == nil {
		return
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		diags.Append(ddbgen.Structural("", "structural validation failed: %v", err))
		return
	}
	for _, fe := range verrs {
		var msg string
		switch fe.Tag() {
		case "required":
			msg = "required field missing or empty"
		case "min":
			msg = fmt.Sprintf("must contain at least %s element(s)", fe.Param())
		default:
			msg = fmt.Sprintf("violates %q constraint", fe.Tag())
		}
		diags.Append(ddbgen.Structural(docPath(fe.Namespace()), "%s", msg))
	}
}

// docPath converts a validator namespace such as
// "Document.tables[0].entities[1].name" into a document path.
func docPath(ns string) string {
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return ns
}
