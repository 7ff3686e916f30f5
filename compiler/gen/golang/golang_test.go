package golang

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tabledsl/ddbgen/compiler/gen"
	"github.com/tabledsl/ddbgen/compiler/load"
	"github.com/tabledsl/ddbgen/schema"
)

const fixture = `
tables:
  - name: app_table
    partition_key: pk
    sort_key: sk
    indexes:
      - name: ScoreIndex
        partition_key: [region, shard]
        sort_key: [score]
        projection: all
    entities:
      - name: User
        partition_key: "TENANT#{tenant_id}"
        sort_key: "USER#{user_id}"
        index_keys:
          - index: ScoreIndex
            partition_key: ["REGION#{region}", "{shard}"]
            sort_key: ["{score}"]
        fields:
          - {name: tenant_id, kind: text, required: true}
          - {name: user_id, kind: identifier, required: true}
          - {name: email, kind: text}
          - {name: region, kind: text, required: true}
          - {name: shard, kind: integer, required: true}
          - {name: score, kind: integer, required: true}
        access_patterns:
          - id: 1
            name: get_user
            operation: get
            consistent_read: true
            parameters:
              - {name: tenant_id}
              - {name: user_id}
          - id: 2
            name: top_scores
            operation: query
            index: ScoreIndex
            range_condition: between
            parameters:
              - {name: region}
              - {name: shard}
              - {name: low, kind: integer}
              - {name: high, kind: integer}
          - id: 3
            name: put_user
            operation: put
            parameters:
              - {name: tenant_id}
              - {name: user_id}
              - {name: email}
cross_table_access_patterns:
  - id: 9
    name: move_user
    operation: transact_write
    participants:
      - {table: app_table, entity: User, action: put}
      - {table: app_table, entity: User, action: delete}
`

func generate(t *testing.T, opts *gen.Options) *gen.Manifest {
	t.Helper()
	doc, diags := load.Parse([]byte(fixture))
	require.True(t, diags.Empty(), "loader diagnostics: %s", diags)
	m, err := gen.Generate(doc, opts)
	require.NoError(t, err)
	return m
}

func artifact(t *testing.T, m *gen.Manifest, path string) string {
	t.Helper()
	a := m.Lookup(path)
	require.NotNil(t, a, "missing artifact %s", path)
	return string(a.Content)
}

func TestBackend(t *testing.T) {
	b := &Backend{}
	assert.Equal(t, "go", b.Name())
	assert.Equal(t, "int64", b.Primitive(schema.KindInteger))
	assert.Equal(t, "string", b.Primitive(schema.KindText))
	assert.Equal(t, "map[string]any", b.Primitive(schema.KindMap))
}

func TestRender(t *testing.T) {
	m := generate(t, &gen.Options{Language: "go", Package: "models"})

	t.Run("manifest layout", func(t *testing.T) {
		require.NotNil(t, m.Lookup("user.go"))
		require.NotNil(t, m.Lookup("user_repo.go"))
		require.NotNil(t, m.Lookup("transactions.go"))
		require.NotNil(t, m.Lookup("pattern_registry.json"))
	})
	t.Run("artifact counts", func(t *testing.T) {
		assert.Equal(t, 1, m.Lookup("user.go").Count)
		assert.Equal(t, 3, m.Lookup("user_repo.go").Count)
		assert.Equal(t, 1, m.Lookup("transactions.go").Count)
		assert.Equal(t, 4, m.Lookup("pattern_registry.json").Count)
	})
	t.Run("model file", func(t *testing.T) {
		src := artifact(t, m, "user.go")
		assert.Contains(t, src, "Code generated by ddbgen. DO NOT EDIT.")
		assert.Contains(t, src, "package models")
		assert.Contains(t, src, "type User struct {")
		assert.Contains(t, src, "TenantId string")
		assert.Contains(t, src, `dynamodbav:"tenant_id"`)
		assert.Contains(t, src, `dynamodbav:"email,omitempty"`)
		assert.Contains(t, src, "func UserKey(")
		assert.Contains(t, src, "func UserScoreIndexKey(")
		assert.Contains(t, src, `"TENANT#%v"`)
	})
	t.Run("passthrough numeric keys marshal raw", func(t *testing.T) {
		src := artifact(t, m, "user.go")
		assert.Contains(t, src, "attributevalue.Marshal(shard)")
		assert.Contains(t, src, "attributevalue.Marshal(score)")
	})
	t.Run("repository get", func(t *testing.T) {
		src := artifact(t, m, "user_repo.go")
		assert.Contains(t, src, "func (r *UserRepo) GetUser(ctx context.Context, tenantId string, userId string) (*User, error)")
		assert.Contains(t, src, "ConsistentRead: aws.Bool(true)")
	})
	t.Run("repository query", func(t *testing.T) {
		src := artifact(t, m, "user_repo.go")
		assert.Contains(t, src, "func (r *UserRepo) TopScores(")
		assert.Contains(t, src, "#k0 = :k0 AND #k1 = :k1 AND #r BETWEEN :r0 AND :r1")
		assert.Contains(t, src, `IndexName: aws.String("ScoreIndex")`)
		assert.Contains(t, src, "LastEvaluatedKey")
	})
	t.Run("transaction service", func(t *testing.T) {
		src := artifact(t, m, "transactions.go")
		assert.Contains(t, src, "func (s *TxService) MoveUser(")
		assert.Contains(t, src, "TransactWriteItems")
	})
	t.Run("deterministic output", func(t *testing.T) {
		again := generate(t, &gen.Options{Language: "go", Package: "models"})
		for _, a := range m.Artifacts {
			b := again.Lookup(a.Path)
			require.NotNil(t, b)
			assert.Equal(t, string(a.Content), string(b.Content), a.Path)
		}
	})
}

func TestRenderUsageExamples(t *testing.T) {
	usage, diags := load.ParseUsage([]byte(`
User:
  sample:
    tenant_id: acme
    user_id: "42"
    score: 17
  alternate:
    tenant_id: acme
    user_id: "43"
    score: 3
  update:
    email: dana@example.com
    score: 21
`))
	require.True(t, diags.Empty())
	m := generate(t, &gen.Options{Language: "go", Package: "models", Usage: usage})
	src := artifact(t, m, "usage_example.go")
	assert.Contains(t, src, "func SampleUser() *User")
	assert.Contains(t, src, `TenantId: "acme"`)
	assert.Contains(t, src, "func AlternateUser() *User")
	assert.Contains(t, src, `UserId: "43"`)
	assert.Contains(t, src, "func SampleUserUpdated() *User")
	assert.Contains(t, src, "u := SampleUser()")
	assert.Contains(t, src, `u.Email = aws.String("dana@example.com")`)
	assert.Contains(t, src, "u.Score = int64(21)")
	assert.Equal(t, 1, m.Lookup("usage_example.go").Count)
}
