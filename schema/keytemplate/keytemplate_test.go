package keytemplate

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	t.Run("literals and fields alternate", func(t *testing.T) {
		tmpl, err := Parse("TENANT#{tenant_id}#USER#{user_id}")
		require.NoError(t, err)
		require.Len(t, tmpl.Segments, 4)
		assert.Equal(t, "TENANT#", tmpl.Segments[0].Literal)
		assert.Equal(t, "tenant_id", tmpl.Segments[1].Field)
		assert.Equal(t, "#USER#", tmpl.Segments[2].Literal)
		assert.Equal(t, "user_id", tmpl.Segments[3].Field)
		assert.Equal(t, []string{"tenant_id", "user_id"}, tmpl.Fields())
		assert.False(t, tmpl.Passthrough())
	})

	t.Run("pure field reference is passthrough eligible", func(t *testing.T) {
		tmpl, err := Parse("{score}")
		require.NoError(t, err)
		assert.True(t, tmpl.Passthrough())
		assert.Equal(t, []string{"score"}, tmpl.Fields())
	})

	t.Run("literal-only template", func(t *testing.T) {
		tmpl, err := Parse("METADATA")
		require.NoError(t, err)
		require.Len(t, tmpl.Segments, 1)
		assert.False(t, tmpl.Passthrough())
		assert.Empty(t, tmpl.Fields())
	})

	t.Run("repeated field listed once", func(t *testing.T) {
		tmpl, err := Parse("{id}#{id}")
		require.NoError(t, err)
		assert.Equal(t, []string{"id"}, tmpl.Fields())
		require.Len(t, tmpl.Segments, 3)
	})

	t.Run("syntax errors", func(t *testing.T) {
		for _, raw := range []string{"", "USER#{", "{}", "{a b}", "a}b", "{x{y}}"} {
			_, err := Parse(raw)
			require.Error(t, err, raw)
			assert.True(t, errors.Is(err, ErrMalformedTemplate), raw)
			var perr *ParseError
			assert.True(t, errors.As(err, &perr), raw)
		}
	})
}

func TestApply(t *testing.T) {
	t.Run("concatenates in document order", func(t *testing.T) {
		tmpl, err := Parse("TENANT#{tenant_id}#USER#{user_id}")
		require.NoError(t, err)
		got, err := tmpl.Apply(map[string]any{"tenant_id": "acme", "user_id": "42"})
		require.NoError(t, err)
		assert.Equal(t, "TENANT#acme#USER#42", got)
	})

	t.Run("stringifies non-string values", func(t *testing.T) {
		tmpl, err := Parse("ORDER#{order_no}#{open}")
		require.NoError(t, err)
		got, err := tmpl.Apply(map[string]any{"order_no": 17, "open": true})
		require.NoError(t, err)
		assert.Equal(t, "ORDER#17#true", got)
	})

	t.Run("missing value is an error", func(t *testing.T) {
		tmpl, err := Parse("USER#{user_id}")
		require.NoError(t, err)
		_, err = tmpl.Apply(map[string]any{})
		assert.Error(t, err)
	})
}

func TestApplyRaw(t *testing.T) {
	t.Run("passthrough returns the raw value", func(t *testing.T) {
		tmpl, err := Parse("{score}")
		require.NoError(t, err)
		got, err := tmpl.ApplyRaw(map[string]any{"score": 17})
		require.NoError(t, err)
		assert.Equal(t, 17, got)
	})

	t.Run("non-passthrough falls back to formatting", func(t *testing.T) {
		tmpl, err := Parse("SCORE#{score}")
		require.NoError(t, err)
		got, err := tmpl.ApplyRaw(map[string]any{"score": 17})
		require.NoError(t, err)
		assert.Equal(t, "SCORE#17", got)
	})
}

func TestParseComposite(t *testing.T) {
	t.Run("independent parts", func(t *testing.T) {
		c, err := ParseComposite([]string{"{region}", "STATUS#{status}"})
		require.NoError(t, err)
		require.Len(t, c.Templates, 2)
		assert.True(t, c.Templates[0].Passthrough())
		assert.Equal(t, []string{"region", "status"}, c.Fields())
	})

	t.Run("syntax error in any part fails the whole array", func(t *testing.T) {
		_, err := ParseComposite([]string{"{region}", "{"})
		assert.True(t, errors.Is(err, ErrMalformedTemplate))
	})

	t.Run("field union is deduplicated", func(t *testing.T) {
		c, err := ParseComposite([]string{"{a}", "{a}", "{b}"})
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b"}, c.Fields())
	})
}
