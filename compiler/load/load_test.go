package load

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tabledsl/ddbgen"
)

const validDoc = `
tables:
  - name: app_table
    partition_key: pk
    sort_key: sk
    indexes:
      - name: StatusIndex
        partition_key: gsi1pk
        sort_key: gsi1sk
        projection: include
        include: [status, email]
      - name: ScoreIndex
        partition_key: [region, shard]
        sort_key: [score]
        projection: all
    entities:
      - name: User
        tag: USER
        partition_key: "TENANT#{tenant_id}"
        sort_key: "USER#{user_id}"
        index_keys:
          - index: StatusIndex
            partition_key: "STATUS#{status}"
            sort_key: "USER#{user_id}"
        fields:
          - name: tenant_id
            kind: text
            required: true
          - name: user_id
            kind: identifier
            required: true
          - name: status
            kind: text
          - name: email
            kind: text
          - name: score
            kind: integer
        access_patterns:
          - id: 1
            name: get_user
            operation: get
            parameters:
              - name: tenant_id
              - name: user_id
            returns: single
          - id: 2
            name: list_users_by_status
            operation: query
            index: StatusIndex
            range_condition: prefix
            parameters:
              - name: status
              - name: user_id_prefix
                kind: text
            returns: list
cross_table_access_patterns:
  - id: 90
    name: move_user
    operation: transact_write
    participants:
      - table: app_table
        entity: User
        action: put
    returns: boolean
`

func TestParse(t *testing.T) {
	t.Run("valid document", func(t *testing.T) {
		doc, diags := Parse([]byte(validDoc))
		require.True(t, diags.Empty(), diags.String())
		require.Len(t, doc.Tables, 1)

		table := doc.Tables[0]
		assert.Equal(t, "app_table", table.Name)
		assert.Equal(t, "pk", table.PartitionKey)
		assert.Equal(t, "sk", table.SortKey)
		require.Len(t, table.Indexes, 2)
		assert.Equal(t, StringList{"gsi1pk"}, table.Indexes[0].PartitionKey)
		assert.Equal(t, StringList{"region", "shard"}, table.Indexes[1].PartitionKey)
		assert.Equal(t, []string{"status", "email"}, table.Indexes[0].Include)

		require.Len(t, table.Entities, 1)
		user := table.Entities[0]
		assert.Equal(t, "USER", user.Discriminator())
		require.Len(t, user.AccessPatterns, 2)
		require.NotNil(t, user.AccessPatterns[0].ID)
		assert.Equal(t, 1, *user.AccessPatterns[0].ID)
		assert.Equal(t, "query", user.AccessPatterns[1].Operation)

		require.Len(t, doc.CrossTablePatterns, 1)
		assert.Equal(t, "transact_write", doc.CrossTablePatterns[0].Operation)
	})

	t.Run("discriminator defaults to entity name", func(t *testing.T) {
		e := &Entity{Name: "Order"}
		assert.Equal(t, "Order", e.Discriminator())
	})

	t.Run("missing tables section", func(t *testing.T) {
		doc, diags := Parse([]byte("{}"))
		require.NotNil(t, doc)
		assert.False(t, diags.Empty())
		found := false
		for _, d := range diags.Sorted() {
			if d.Kind == ddbgen.KindStructural && d.Path == "tables" {
				found = true
			}
		}
		assert.True(t, found, diags.String())
	})

	t.Run("tables with wrong container shape", func(t *testing.T) {
		doc, diags := Parse([]byte("tables: 12\n"))
		require.NotNil(t, doc)
		assert.Empty(t, doc.Tables)
		assert.False(t, diags.Empty())
	})

	t.Run("unparseable input yields empty document", func(t *testing.T) {
		doc, diags := Parse([]byte(":\n  - ["))
		require.NotNil(t, doc)
		assert.Empty(t, doc.Tables)
		assert.False(t, diags.Empty())
	})

	t.Run("missing required scalar reported with path", func(t *testing.T) {
		src := `
tables:
  - name: t
    partition_key: pk
    entities:
      - name: User
        partition_key: "USER#{id}"
        fields:
          - name: id
`
		_, diags := Parse([]byte(src))
		require.False(t, diags.Empty())
		paths := make([]string, 0)
		for _, d := range diags.Sorted() {
			assert.Equal(t, ddbgen.KindStructural, d.Kind)
			paths = append(paths, d.Path)
		}
		assert.Contains(t, paths, "tables[0].entities[0].fields[0].kind")
	})

	t.Run("missing pattern id reported", func(t *testing.T) {
		src := `
tables:
  - name: t
    partition_key: pk
    entities:
      - name: User
        partition_key: "USER#{id}"
        fields:
          - name: id
            kind: identifier
        access_patterns:
          - name: get_user
            operation: get
`
		_, diags := Parse([]byte(src))
		require.False(t, diags.Empty())
		found := false
		for _, d := range diags.Sorted() {
			if d.Path == "tables[0].entities[0].access_patterns[0].id" {
				found = true
			}
		}
		assert.True(t, found, diags.String())
	})

	t.Run("unknown keys are ignored", func(t *testing.T) {
		src := `
tables:
  - name: t
    partition_key: pk
    billing_mode: PAY_PER_REQUEST
    entities:
      - name: User
        partition_key: "USER#{id}"
        ttl_field: expires_at
        fields:
          - name: id
            kind: identifier
`
		_, diags := Parse([]byte(src))
		assert.True(t, diags.Empty(), diags.String())
	})

	t.Run("empty participants rejected", func(t *testing.T) {
		src := `
tables:
  - name: t
    partition_key: pk
    entities:
      - name: User
        partition_key: "USER#{id}"
        fields:
          - name: id
            kind: identifier
cross_table_access_patterns:
  - id: 1
    name: tx
    operation: transact_write
    participants: []
`
		_, diags := Parse([]byte(src))
		require.False(t, diags.Empty())
		found := false
		for _, d := range diags.Sorted() {
			if d.Path == "cross_table_access_patterns[0].participants" {
				found = true
			}
		}
		assert.True(t, found, diags.String())
	})
}

func TestStringList(t *testing.T) {
	t.Run("mapping is rejected", func(t *testing.T) {
		src := `
tables:
  - name: t
    partition_key: pk
    indexes:
      - name: Idx
        partition_key: {a: b}
    entities:
      - name: User
        partition_key: "USER#{id}"
        fields:
          - name: id
            kind: identifier
`
		_, diags := Parse([]byte(src))
		assert.False(t, diags.Empty())
	})
}
