package gen

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tabledsl/ddbgen/compiler/load"
)

// baseDoc is the shared fixture: one table with two secondary indexes, one
// entity exercising single and multi-attribute key mappings, and a
// cross-table transaction.
const baseDoc = `
tables:
  - name: app_table
    partition_key: pk
    sort_key: sk
    indexes:
      - name: StatusIndex
        partition_key: gsi1pk
        sort_key: gsi1sk
        projection: include
        include: [email]
      - name: ScoreIndex
        partition_key: [region, shard]
        sort_key: [score]
        projection: all
    entities:
      - name: User
        partition_key: "TENANT#{tenant_id}"
        sort_key: "USER#{user_id}"
        index_keys:
          - index: StatusIndex
            partition_key: "STATUS#{status}"
            sort_key: "USER#{user_id}"
          - index: ScoreIndex
            partition_key: ["REGION#{region}", "{shard}"]
            sort_key: ["{score}"]
        fields:
          - {name: tenant_id, kind: text, required: true}
          - {name: user_id, kind: identifier, required: true}
          - {name: status, kind: text}
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
            name: list_users_by_status
            operation: query
            index: StatusIndex
            range_condition: prefix
            parameters:
              - {name: status}
              - {name: user_prefix, kind: text}
          - id: 3
            name: top_scores
            operation: query
            index: ScoreIndex
            range_condition: between
            parameters:
              - {name: region}
              - {name: shard}
              - {name: low, kind: integer}
              - {name: high, kind: integer}
          - id: 4
            name: put_user
            operation: put
            parameters:
              - {name: tenant_id}
              - {name: user_id}
              - {name: email}
          - id: 5
            name: scan_by_email
            operation: scan
            filter:
              conditions:
                - {field: email, comparator: begins_with, parameters: [email_prefix]}
            parameters:
              - {name: email_prefix, kind: text}
cross_table_access_patterns:
  - id: 9
    name: move_user
    operation: transact_write
    participants:
      - {table: app_table, entity: User, action: put}
      - {table: app_table, entity: User, action: delete}
    parameters:
      - {name: tenant_id}
`

// parseDoc loads a document and fails the test on any loader diagnostic.
func parseDoc(t *testing.T, src string) *load.Document {
	t.Helper()
	doc, diags := load.Parse([]byte(src))
	require.True(t, diags.Empty(), "loader diagnostics: %s", diags)
	return doc
}

// validGraph validates baseDoc and projects it into the resolved model.
func validGraph(t *testing.T) *Graph {
	t.Helper()
	doc := parseDoc(t, baseDoc)
	diags := Validate(doc)
	require.True(t, diags.Empty(), "unexpected diagnostics: %s", diags)
	g, err := NewGraph(doc)
	require.NoError(t, err)
	return g
}

func validResolution(t *testing.T) *Resolution {
	t.Helper()
	res, err := Resolve(validGraph(t))
	require.NoError(t, err)
	return res
}
