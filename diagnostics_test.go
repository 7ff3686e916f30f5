package ddbgen

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiagnosticString(t *testing.T) {
	t.Run("with suggestion", func(t *testing.T) {
		d := EnumViolation("tables[0].entities[0].fields[2].kind", "strng", "text", []string{"text", "integer"})
		assert.Contains(t, d.String(), "error[enum]")
		assert.Contains(t, d.String(), `invalid value "strng"`)
		assert.Contains(t, d.String(), `did you mean "text"?`)
	})

	t.Run("without suggestion", func(t *testing.T) {
		d := Structural("tables", "required section missing")
		assert.Equal(t, "error[structural] tables: required section missing", d.String())
	})

	t.Run("uniqueness names both locations", func(t *testing.T) {
		d := UniquenessViolation("tables[0].entities[1].access_patterns[0]",
			"tables[0].entities[0].access_patterns[2]", "duplicate pattern id 7")
		assert.Contains(t, d.Message, "duplicate pattern id 7")
		assert.Contains(t, d.Message, "conflicts with tables[0].entities[0].access_patterns[2]")
	})
}

func TestDiagnosticsAppend(t *testing.T) {
	t.Run("empty by default", func(t *testing.T) {
		d := NewDiagnostics()
		assert.True(t, d.Empty())
		assert.False(t, d.HasErrors())
		assert.Zero(t, d.Len())
	})

	t.Run("warnings do not count as errors", func(t *testing.T) {
		d := NewDiagnostics()
		d.Append(Diagnostic{Kind: KindConsistency, Severity: SeverityWarning, Path: "p", Message: "m"})
		assert.False(t, d.Empty())
		assert.False(t, d.HasErrors())
	})

	t.Run("concurrent append is safe", func(t *testing.T) {
		d := NewDiagnostics()
		var wg sync.WaitGroup
		for i := 0; i < 32; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for j := 0; j < 100; j++ {
					d.Append(Structural("p", "m"))
				}
			}()
		}
		wg.Wait()
		assert.Equal(t, 3200, d.Len())
	})
}

func TestDiagnosticsSorted(t *testing.T) {
	d := NewDiagnostics()
	d.Append(Structural("tables[1]", "b"))
	d.Append(Structural("tables[0]", "z"))
	d.Append(Structural("tables[0]", "a"))
	d.Append(ConsistencyError("tables[0]", "a"))

	sorted := d.Sorted()
	require.Len(t, sorted, 4)
	assert.Equal(t, "tables[0]", sorted[0].Path)
	assert.Equal(t, KindStructural, sorted[0].Kind)
	assert.Equal(t, "a", sorted[0].Message)
	assert.Equal(t, KindConsistency, sorted[1].Kind)
	assert.Equal(t, "z", sorted[2].Message)
	assert.Equal(t, "tables[1]", sorted[3].Path)

	// Snapshot is a copy: mutating it must not affect the collection.
	sorted[0].Message = "mutated"
	assert.Equal(t, "a", d.Sorted()[0].Message)
}

func TestDiagnosticsMerge(t *testing.T) {
	a := NewDiagnostics()
	a.Append(Structural("x", "1"))
	b := NewDiagnostics()
	b.Append(Structural("y", "2"))
	a.Merge(b)
	a.Merge(nil)
	assert.Equal(t, 2, a.Len())
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "structural", KindStructural.String())
	assert.Equal(t, "enum", KindEnum.String())
	assert.Equal(t, "uniqueness", KindUniqueness.String())
	assert.Equal(t, "reference", KindReference.String())
	assert.Equal(t, "cardinality", KindCardinality.String())
	assert.Equal(t, "consistency", KindConsistency.String())
}
