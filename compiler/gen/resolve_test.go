package gen

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tabledsl/ddbgen/schema"
)

func patternByName(t *testing.T, res *Resolution, name string) *ResolvedPattern {
	t.Helper()
	for _, rp := range res.Patterns {
		if rp.Pattern.Name == name {
			return rp
		}
	}
	t.Fatalf("pattern %q not resolved", name)
	return nil
}

func TestResolve(t *testing.T) {
	res := validResolution(t)

	t.Run("primary key plan", func(t *testing.T) {
		rp := patternByName(t, res, "get_user")
		require.Len(t, rp.KeyPlan, 2)
		assert.Equal(t, "pk", rp.KeyPlan[0].Attribute)
		assert.Equal(t, "sk", rp.KeyPlan[1].Attribute)
		assert.False(t, rp.KeyPlan[0].RawNumeric)
		assert.Equal(t, []string{"tenant_id"}, rp.KeyPlan[0].Template.Fields())
	})
	t.Run("multi-attribute index key plan", func(t *testing.T) {
		rp := patternByName(t, res, "top_scores")
		require.Len(t, rp.KeyPlan, 3)
		assert.Equal(t, "region", rp.KeyPlan[0].Attribute)
		assert.Equal(t, "shard", rp.KeyPlan[1].Attribute)
		assert.Equal(t, "score", rp.KeyPlan[2].Attribute)
	})
	t.Run("passthrough numeric keys stay raw", func(t *testing.T) {
		rp := patternByName(t, res, "top_scores")
		assert.False(t, rp.KeyPlan[0].RawNumeric, "templated segment renders to text")
		assert.True(t, rp.KeyPlan[1].RawNumeric, "pure integer field reference")
		assert.True(t, rp.KeyPlan[2].RawNumeric)
	})
	t.Run("parameter partitioning", func(t *testing.T) {
		rp := patternByName(t, res, "top_scores")
		require.Len(t, rp.KeyParameters, 2)
		assert.Equal(t, "region", rp.KeyParameters[0].Name)
		assert.Equal(t, "shard", rp.KeyParameters[1].Name)
		require.Len(t, rp.RangeParameters, 2)
		assert.Equal(t, "low", rp.RangeParameters[0].Name)
		assert.Equal(t, "high", rp.RangeParameters[1].Name)
		assert.Empty(t, rp.FilterParameters)
		assert.Empty(t, rp.BodyParameters)
	})
	t.Run("write parameters beyond the key are body input", func(t *testing.T) {
		rp := patternByName(t, res, "put_user")
		require.Len(t, rp.KeyParameters, 2)
		require.Len(t, rp.BodyParameters, 1)
		assert.Equal(t, "email", rp.BodyParameters[0].Name)
	})
	t.Run("filter parameters", func(t *testing.T) {
		rp := patternByName(t, res, "scan_by_email")
		require.Len(t, rp.FilterParameters, 1)
		assert.Equal(t, "email_prefix", rp.FilterParameters[0].Name)
	})
	t.Run("return shape defaults", func(t *testing.T) {
		assert.Equal(t, schema.ShapeSingle, patternByName(t, res, "get_user").Response.Shape)
		assert.Equal(t, schema.ShapeList, patternByName(t, res, "top_scores").Response.Shape)
		assert.Equal(t, schema.ShapeNone, patternByName(t, res, "put_user").Response.Shape)
	})
	t.Run("include projection with required omitted fields returns raw maps", func(t *testing.T) {
		// StatusIndex projects only email; region, shard and score are
		// required but unprojected, so the typed entity cannot be built.
		rp := patternByName(t, res, "list_users_by_status")
		assert.False(t, rp.Response.TypedEntity)
	})
	t.Run("all projection returns typed entities", func(t *testing.T) {
		assert.True(t, patternByName(t, res, "top_scores").Response.TypedEntity)
		assert.True(t, patternByName(t, res, "get_user").Response.TypedEntity)
	})
	t.Run("transactions resolve in document order", func(t *testing.T) {
		require.Len(t, res.Transactions, 1)
		tx := res.Transactions[0].Pattern
		assert.Equal(t, 9, tx.ID)
		assert.Equal(t, schema.ShapeBoolean, tx.Returns)
		require.Len(t, tx.Participants, 2)
		assert.Equal(t, schema.ActionPut, tx.Participants[0].Action)
	})
}

func TestTypedEntityReturn(t *testing.T) {
	t.Run("include projection covering every required field", func(t *testing.T) {
		doc := parseDoc(t, baseDoc)
		// Shrink the entity so the projection plus key mappings cover all
		// required fields.
		e := user(doc)
		e.Fields = e.Fields[:4] // tenant_id, user_id, status, email
		e.IndexKeys = e.IndexKeys[:1]
		e.AccessPatterns = e.AccessPatterns[:2]
		require.True(t, Validate(doc).Empty())
		g, err := NewGraph(doc)
		require.NoError(t, err)
		res, err := Resolve(g)
		require.NoError(t, err)
		assert.True(t, patternByName(t, res, "list_users_by_status").Response.TypedEntity)
	})
}
