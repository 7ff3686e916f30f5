package typescript

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
          - id: 4
            name: scan_by_email
            operation: scan
            filter:
              conditions:
                - {field: email, comparator: begins_with, parameters: [email_prefix]}
            parameters:
              - {name: email_prefix}
cross_table_access_patterns:
  - id: 9
    name: move_user
    operation: transact_write
    participants:
      - {table: app_table, entity: User, action: put}
      - {table: app_table, entity: User, action: delete}
`

func generate(t *testing.T) *gen.Manifest {
	t.Helper()
	doc, diags := load.Parse([]byte(fixture))
	require.True(t, diags.Empty(), "loader diagnostics: %s", diags)
	m, err := gen.Generate(doc, &gen.Options{Language: "typescript"})
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
	assert.Equal(t, "typescript", b.Name())
	assert.Equal(t, "number", b.Primitive(schema.KindInteger))
	assert.Equal(t, "string", b.Primitive(schema.KindText))
	assert.Equal(t, "Record<string, unknown>", b.Primitive(schema.KindMap))
}

func TestCasing(t *testing.T) {
	assert.Equal(t, "GetUser", pascal("get_user"))
	assert.Equal(t, "getUser", camel("get_user"))
	assert.Equal(t, "USER_TAG", constCase("user")+"_TAG")
}

func TestRender(t *testing.T) {
	m := generate(t)

	t.Run("manifest layout", func(t *testing.T) {
		require.NotNil(t, m.Lookup("user.ts"))
		require.NotNil(t, m.Lookup("user_repo.ts"))
		require.NotNil(t, m.Lookup("transactions.ts"))
		require.NotNil(t, m.Lookup("pattern_registry.json"))
	})
	t.Run("artifact counts", func(t *testing.T) {
		assert.Equal(t, 1, m.Lookup("user.ts").Count)
		assert.Equal(t, 4, m.Lookup("user_repo.ts").Count)
		assert.Equal(t, 1, m.Lookup("transactions.ts").Count)
		assert.Equal(t, 5, m.Lookup("pattern_registry.json").Count)
	})
	t.Run("model file", func(t *testing.T) {
		src := artifact(t, m, "user.ts")
		assert.Contains(t, src, "// Code generated by ddbgen. DO NOT EDIT.")
		assert.Contains(t, src, "export interface User {")
		assert.Contains(t, src, "tenantId: string;")
		assert.Contains(t, src, "email?: string;")
		assert.Contains(t, src, `export const USER_TAG = "User";`)
		assert.Contains(t, src, "export function userKey(tenantId: string, userId: string): Record<string, unknown> {")
		assert.Contains(t, src, "`TENANT#${tenantId}`")
		assert.Contains(t, src, "export function userScoreIndexKey(")
	})
	t.Run("passthrough numeric keys stay bare", func(t *testing.T) {
		src := artifact(t, m, "user.ts")
		assert.Contains(t, src, `"shard": shard,`)
	})
	t.Run("repository get", func(t *testing.T) {
		src := artifact(t, m, "user_repo.ts")
		assert.Contains(t, src, "export class UserRepo {")
		assert.Contains(t, src, "async getUser(tenantId: string, userId: string): Promise<User | undefined> {")
		assert.Contains(t, src, "new GetCommand({")
		assert.Contains(t, src, "ConsistentRead: true,")
		assert.Contains(t, src, "Key: userKey(tenantId, userId),")
	})
	t.Run("repository query", func(t *testing.T) {
		src := artifact(t, m, "user_repo.ts")
		assert.Contains(t, src, "async topScores(region: string, shard: number, low: number, high: number): Promise<User[]> {")
		assert.Contains(t, src, `KeyConditionExpression: "#k0 = :k0 AND #k1 = :k1 AND #r BETWEEN :r0 AND :r1",`)
		assert.Contains(t, src, `IndexName: "ScoreIndex",`)
		assert.Contains(t, src, "\":k0\": `REGION#${region}`,")
		assert.Contains(t, src, `":k1": shard,`)
		assert.Contains(t, src, `":r0": low,`)
		assert.Contains(t, src, "} while (startKey);")
	})
	t.Run("repository put spreads key and tag", func(t *testing.T) {
		src := artifact(t, m, "user_repo.ts")
		assert.Contains(t, src, "async putUser(entity: User): Promise<void> {")
		assert.Contains(t, src, "Item: { ...entity, ...userKey(entity.tenantId, entity.userId), _et: USER_TAG },")
	})
	t.Run("repository scan filter", func(t *testing.T) {
		src := artifact(t, m, "user_repo.ts")
		assert.Contains(t, src, "async scanByEmail(emailPrefix: string): Promise<User[]> {")
		assert.Contains(t, src, `FilterExpression: "begins_with(#f0, :f0_0)",`)
		assert.Contains(t, src, `"#f0": "email",`)
		assert.Contains(t, src, `":f0_0": emailPrefix,`)
	})
	t.Run("transaction service", func(t *testing.T) {
		src := artifact(t, m, "transactions.ts")
		assert.Contains(t, src, "export class TxService {")
		assert.Contains(t, src, "async moveUser(putUser0: User, deleteUser1: Record<string, unknown>): Promise<void> {")
		assert.Contains(t, src, "new TransactWriteCommand({")
		assert.Contains(t, src, "Item: { ...putUser0, ...userKey(putUser0.tenantId, putUser0.userId), _et: USER_TAG },")
		assert.Contains(t, src, "Key: deleteUser1,")
		assert.Contains(t, src, `import { USER_TAG, User, userKey } from "./user";`)
	})
	t.Run("deterministic output", func(t *testing.T) {
		again := generate(t)
		for _, a := range m.Artifacts {
			b := again.Lookup(a.Path)
			require.NotNil(t, b)
			assert.Equal(t, string(a.Content), string(b.Content), a.Path)
		}
	})
}

func TestRenderUsageExamples(t *testing.T) {
	doc, diags := load.Parse([]byte(fixture))
	require.True(t, diags.Empty(), "loader diagnostics: %s", diags)
	usage, udiags := load.ParseUsage([]byte(`
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
	require.True(t, udiags.Empty())
	m, err := gen.Generate(doc, &gen.Options{Language: "typescript", Usage: usage})
	require.NoError(t, err)

	src := artifact(t, m, "usage_example.ts")
	assert.Contains(t, src, `import { User } from "./user";`)
	assert.Contains(t, src, "export function sampleUser(): User {")
	assert.Contains(t, src, `tenantId: "acme",`)
	assert.Contains(t, src, "} as User;")
	assert.Contains(t, src, "export function alternateUser(): User {")
	assert.Contains(t, src, `userId: "43",`)
	assert.Contains(t, src, "export function sampleUserUpdated(): User {")
	assert.Contains(t, src, "...sampleUser(),")
	assert.Contains(t, src, `email: "dana@example.com",`)
	assert.Contains(t, src, "score: 21,")
	assert.Equal(t, gen.CategoryExample, m.Lookup("usage_example.ts").Category)
	assert.Equal(t, 1, m.Lookup("usage_example.ts").Count)
}
