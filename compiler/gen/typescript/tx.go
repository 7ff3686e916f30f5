package typescript

import (
	"fmt"
	"sort"
	"strings"
	"text/template"

	"github.com/tabledsl/ddbgen/compiler/gen"
	"github.com/tabledsl/ddbgen/schema"
)

var txTemplate = template.Must(template.New("tx").Parse(`{{.Header}}

import {
  DynamoDBDocumentClient,
{{- range .Commands}}
  {{.}},
{{- end}}
} from "@aws-sdk/lib-dynamodb";
{{- range .ModelImports}}
import { {{.Names}} } from "./{{.File}}";
{{- end}}

export class TxService {
  constructor(private readonly client: DynamoDBDocumentClient) {}
{{range .Methods}}
{{.}}
{{- end}}
}
`))

type (
	txData struct {
		Header       string
		Commands     []string
		ModelImports []txImport
		Methods      []string
	}
	txImport struct {
		File  string
		Names string
	}
)

func renderTransactions(b *Backend, txs []*gen.ResolvedTransaction) ([]byte, error) {
	data := txData{Header: header}
	commands := make(map[string]bool)
	imports := make(map[string]map[string]bool)
	for _, rt := range txs {
		m := &txWriter{backend: b, tx: rt.Pattern, imports: imports}
		if rt.Pattern.Operation == schema.OpTransactGet {
			commands["TransactGetCommand"] = true
			m.genGet()
		} else {
			commands["TransactWriteCommand"] = true
			m.genWrite()
		}
		data.Methods = append(data.Methods, m.b.String())
	}
	for c := range commands {
		data.Commands = append(data.Commands, c)
	}
	sort.Strings(data.Commands)
	var files []string
	for f := range imports {
		files = append(files, f)
	}
	sort.Strings(files)
	for _, f := range files {
		var names []string
		for n := range imports[f] {
			names = append(names, n)
		}
		sort.Strings(names)
		data.ModelImports = append(data.ModelImports, txImport{File: f, Names: strings.Join(names, ", ")})
	}
	return execTemplate(txTemplate, data)
}

type txWriter struct {
	backend *Backend
	tx      *gen.TxPattern
	imports map[string]map[string]bool
	b       strings.Builder
}

func (m *txWriter) w(format string, args ...any) {
	fmt.Fprintf(&m.b, format, args...)
	m.b.WriteByte('\n')
}

func (m *txWriter) use(e *gen.Entity, name string) {
	file := fileBase(e)
	if m.imports[file] == nil {
		m.imports[file] = make(map[string]bool)
	}
	m.imports[file][name] = true
}

// participantArg names the method argument carrying one participant's input.
func participantArg(p *gen.Participant, i int) string {
	return camel(string(p.Action)) + p.Entity.Name + fmt.Sprint(i)
}

func participantArgType(p *gen.Participant) string {
	if p.Action == schema.ActionPut {
		return p.Entity.Name
	}
	return "Record<string, unknown>"
}

func (m *txWriter) signature(ret string) {
	var params []string
	for _, p := range m.tx.Parameters {
		params = append(params, camel(p.Name)+": "+m.backend.Primitive(p.Kind))
	}
	for i, part := range m.tx.Participants {
		if part.Action == schema.ActionPut {
			m.use(part.Entity, part.Entity.Name)
		}
		params = append(params, participantArg(part, i)+": "+participantArgType(part))
	}
	m.w("  async %s(%s): Promise<%s> {", camel(m.tx.Name), strings.Join(params, ", "), ret)
}

func (m *txWriter) genWrite() {
	m.w("  /** Runs the %s transaction: all writes commit or none do. */", m.tx.Name)
	m.signature("void")
	m.w("    await this.client.send(new TransactWriteCommand({")
	m.w("      TransactItems: [")
	for i, part := range m.tx.Participants {
		m.writeParticipant(part, i)
	}
	m.w("      ],")
	m.w("    }));")
	m.w("  }")
}

func (m *txWriter) writeParticipant(part *gen.Participant, i int) {
	arg := participantArg(part, i)
	switch part.Action {
	case schema.ActionPut:
		keyFn := camel(part.Entity.Name) + "Key"
		tag := constCase(fileBase(part.Entity)) + "_TAG"
		m.use(part.Entity, keyFn)
		m.use(part.Entity, tag)
		var keyArgs []string
		for _, f := range part.Entity.KeyFields() {
			keyArgs = append(keyArgs, arg+"."+camel(f))
		}
		m.w("        {")
		m.w("          Put: {")
		m.w("            TableName: %q,", part.Table.Name)
		m.w("            Item: { ...%s, ...%s(%s), _et: %s },", arg, keyFn, strings.Join(keyArgs, ", "), tag)
		m.w("          },")
		m.w("        },")
	case schema.ActionUpdate:
		// The update document arrives prepared; only the table is pinned here.
		m.w("        {")
		m.w("          Update: { TableName: %q, ...%s },", part.Table.Name, arg)
		m.w("        },")
	case schema.ActionDelete:
		m.w("        {")
		m.w("          Delete: {")
		m.w("            TableName: %q,", part.Table.Name)
		m.w("            Key: %s,", arg)
		m.writeCondition(part)
		m.w("          },")
		m.w("        },")
	case schema.ActionConditionCheck:
		m.w("        {")
		m.w("          ConditionCheck: {")
		m.w("            TableName: %q,", part.Table.Name)
		m.w("            Key: %s,", arg)
		m.writeCondition(part)
		m.w("          },")
		m.w("        },")
	}
}

func (m *txWriter) writeCondition(part *gen.Participant) {
	if part.Condition == nil {
		return
	}
	m.w("            ConditionExpression: %q,", gen.ConditionExpression(part.Condition))
	m.w("            ExpressionAttributeNames: {")
	for ci, c := range part.Condition.Conditions {
		m.w("              \"#c%d\": %q,", ci, c.Field.Name)
	}
	m.w("            },")
	hasValues := false
	for _, c := range part.Condition.Conditions {
		if len(c.Parameters) > 0 {
			hasValues = true
		}
	}
	if !hasValues {
		return
	}
	m.w("            ExpressionAttributeValues: {")
	for ci, c := range part.Condition.Conditions {
		for j, name := range c.Parameters {
			m.w("              \":c%d_%d\": %s,", ci, j, camel(name))
		}
	}
	m.w("            },")
}

func (m *txWriter) genGet() {
	m.w("  /** Runs the %s transaction: a consistent multi-item read. */", m.tx.Name)
	m.signature("Record<string, unknown>[]")
	m.w("    const out = await this.client.send(new TransactGetCommand({")
	m.w("      TransactItems: [")
	for i, part := range m.tx.Participants {
		m.w("        { Get: { TableName: %q, Key: %s } },", part.Table.Name, participantArg(part, i))
	}
	m.w("      ],")
	m.w("    }));")
	m.w("    return (out.Responses ?? []).map((r) => r.Item ?? {});")
	m.w("  }")
}
