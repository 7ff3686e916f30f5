package typescript

import (
	"fmt"
	"sort"
	"strings"
	"text/template"

	"github.com/tabledsl/ddbgen/compiler/gen"
	"github.com/tabledsl/ddbgen/schema"
)

var repoTemplate = template.Must(template.New("repo").Parse(`{{.Header}}

import {
  DynamoDBDocumentClient,
{{- range .Commands}}
  {{.}},
{{- end}}
} from "@aws-sdk/lib-dynamodb";
import { {{.ModelImports}} } from "./{{.FileBase}}";

export class {{.Name}}Repo {
  constructor(
    private readonly client: DynamoDBDocumentClient,
    private readonly table = {{printf "%q" .Table}},
  ) {}
{{range .Methods}}
{{.}}
{{- end}}
}
`))

type repoData struct {
	Header       string
	Name         string
	Table        string
	FileBase     string
	Commands     []string
	ModelImports string
	Methods      []string
}

func renderRepo(b *Backend, e *gen.Entity, patterns []*gen.ResolvedPattern) ([]byte, error) {
	data := repoData{
		Header:   header,
		Name:     e.Name,
		Table:    e.Table.Name,
		FileBase: fileBase(e),
	}
	commands := make(map[string]bool)
	imports := map[string]bool{e.Name: true, camel(e.Name) + "Key": true}
	for _, rp := range patterns {
		m := &methodWriter{backend: b, entity: e, rp: rp, imports: imports}
		src, command := m.render()
		if src == "" {
			continue
		}
		commands[command] = true
		data.Methods = append(data.Methods, src)
	}
	for c := range commands {
		data.Commands = append(data.Commands, c)
	}
	sort.Strings(data.Commands)
	var names []string
	for n := range imports {
		names = append(names, n)
	}
	sort.Strings(names)
	data.ModelImports = strings.Join(names, ", ")
	return execTemplate(repoTemplate, data)
}

// methodWriter builds one repository method body.
type methodWriter struct {
	backend *Backend
	entity  *gen.Entity
	rp      *gen.ResolvedPattern
	imports map[string]bool
	b       strings.Builder
}

func (m *methodWriter) w(format string, args ...any) {
	fmt.Fprintf(&m.b, format, args...)
	m.b.WriteByte('\n')
}

func (m *methodWriter) render() (src, command string) {
	switch m.rp.Pattern.Operation {
	case schema.OpGet:
		m.genGet()
		return m.b.String(), "GetCommand"
	case schema.OpQuery:
		m.genQuery()
		return m.b.String(), "QueryCommand"
	case schema.OpScan:
		m.genScan()
		return m.b.String(), "ScanCommand"
	case schema.OpPut:
		m.genPut()
		return m.b.String(), "PutCommand"
	case schema.OpDelete:
		m.genDelete()
		return m.b.String(), "DeleteCommand"
	case schema.OpUpdate:
		m.genUpdate()
		return m.b.String(), "UpdateCommand"
	case schema.OpBatchGet:
		m.genBatchGet()
		return m.b.String(), "BatchGetCommand"
	case schema.OpBatchWrite:
		m.genBatchWrite()
		return m.b.String(), "BatchWriteCommand"
	}
	return "", ""
}

func (m *methodWriter) methodName() string { return camel(m.rp.Pattern.Name) }

// itemType is the element type reads return: the entity interface when the
// projection supports it, a raw record otherwise.
func (m *methodWriter) itemType() string {
	if m.rp.Response.TypedEntity {
		return m.entity.Name
	}
	return "Record<string, unknown>"
}

// keyParams lists "name: type" for the fields a key plan consumes.
func (m *methodWriter) keyParams(steps []gen.KeyStep) []string {
	var out []string
	seen := make(map[string]bool)
	for _, step := range steps {
		for _, f := range step.Template.Fields() {
			if !seen[f] {
				seen[f] = true
				out = append(out, camel(f)+": "+fieldType(m.backend, m.entity, f))
			}
		}
	}
	return out
}

func (m *methodWriter) keyCall(steps []gen.KeyStep) string {
	fn := camel(m.entity.Name) + "Key"
	if len(steps) > 0 && steps[0].Attribute != m.entity.Table.PartitionKey {
		for _, ik := range m.entity.IndexKeys {
			for _, attr := range ik.Index.PartitionKeys {
				if attr == steps[0].Attribute {
					fn = camel(m.entity.Name) + pascal(ik.Index.Name) + "Key"
				}
			}
		}
	}
	m.imports[fn] = true
	var args []string
	seen := make(map[string]bool)
	for _, step := range steps {
		for _, f := range step.Template.Fields() {
			if !seen[f] {
				seen[f] = true
				args = append(args, camel(f))
			}
		}
	}
	return fmt.Sprintf("%s(%s)", fn, strings.Join(args, ", "))
}

func (m *methodWriter) paramList(params []*gen.Parameter) []string {
	var out []string
	for _, p := range params {
		out = append(out, camel(p.Name)+": "+m.backend.Primitive(p.Kind))
	}
	return out
}

func (m *methodWriter) genGet() {
	p := m.rp.Pattern
	params := strings.Join(m.keyParams(m.rp.KeyPlan), ", ")
	m.w("  /** Reads one %s by primary key. */", m.entity.Name)
	m.w("  async %s(%s): Promise<%s | undefined> {", m.methodName(), params, m.itemType())
	m.w("    const out = await this.client.send(new GetCommand({")
	m.w("      TableName: this.table,")
	m.w("      Key: %s,", m.keyCall(m.rp.KeyPlan))
	if p.ConsistentRead {
		m.w("      ConsistentRead: true,")
	}
	m.w("    }));")
	m.w("    return out.Item as %s | undefined;", m.itemType())
	m.w("  }")
}

func (m *methodWriter) genQuery() {
	p := m.rp.Pattern
	plan := gen.QueryPlan(m.rp)
	params := append(m.keyParams(plan.Partition), m.paramList(m.rp.RangeParameters)...)
	params = append(params, m.paramList(m.rp.FilterParameters)...)
	m.w("  /** Queries %s items. */", m.entity.Name)
	m.w("  async %s(%s): Promise<%s[]> {", m.methodName(), strings.Join(params, ", "), m.itemType())
	m.writeExprMaps(plan)
	m.w("    const items: %s[] = [];", m.itemType())
	m.w("    let startKey: Record<string, unknown> | undefined;")
	m.w("    do {")
	m.w("      const out = await this.client.send(new QueryCommand({")
	m.w("        TableName: this.table,")
	if p.Index != nil {
		m.w("        IndexName: %q,", p.Index.Name)
	}
	m.w("        KeyConditionExpression: %q,", plan.Condition)
	if p.Filter != nil {
		m.w("        FilterExpression: %q,", gen.FilterExpression(p.Filter))
	}
	if p.ConsistentRead {
		m.w("        ConsistentRead: true,")
	}
	m.w("        ExpressionAttributeNames: names,")
	m.w("        ExpressionAttributeValues: values,")
	m.w("        ExclusiveStartKey: startKey,")
	m.w("      }));")
	m.w("      items.push(...((out.Items ?? []) as %s[]));", m.itemType())
	m.w("      startKey = out.LastEvaluatedKey;")
	m.w("    } while (startKey);")
	m.w("    return items;")
	m.w("  }")
}

func (m *methodWriter) genScan() {
	p := m.rp.Pattern
	params := strings.Join(m.paramList(m.rp.FilterParameters), ", ")
	m.w("  /** Scans the table for %s items. */", m.entity.Name)
	m.w("  async %s(%s): Promise<%s[]> {", m.methodName(), params, m.itemType())
	if p.Filter != nil {
		m.writeFilterMaps()
	}
	m.w("    const items: %s[] = [];", m.itemType())
	m.w("    let startKey: Record<string, unknown> | undefined;")
	m.w("    do {")
	m.w("      const out = await this.client.send(new ScanCommand({")
	m.w("        TableName: this.table,")
	if p.Index != nil {
		m.w("        IndexName: %q,", p.Index.Name)
	}
	if p.Filter != nil {
		m.w("        FilterExpression: %q,", gen.FilterExpression(p.Filter))
		m.w("        ExpressionAttributeNames: names,")
		m.w("        ExpressionAttributeValues: values,")
	}
	m.w("        ExclusiveStartKey: startKey,")
	m.w("      }));")
	m.w("      items.push(...((out.Items ?? []) as %s[]));", m.itemType())
	m.w("      startKey = out.LastEvaluatedKey;")
	m.w("    } while (startKey);")
	m.w("    return items;")
	m.w("  }")
}

// writeExprMaps emits the names and values records for a query's key
// condition plus any filter entries.
func (m *methodWriter) writeExprMaps(plan gen.CondPlan) {
	m.w("    const names: Record<string, string> = {")
	for i, step := range plan.Partition {
		m.w("      \"#k%d\": %q,", i, step.Attribute)
	}
	for i, step := range plan.EqSorts {
		m.w("      \"#s%d\": %q,", i, step.Attribute)
	}
	if plan.RangeStep != nil {
		m.w("      \"#r\": %q,", plan.RangeStep.Attribute)
	}
	m.writeFilterNames()
	m.w("    };")
	m.w("    const values: Record<string, unknown> = {")
	for i, step := range plan.Partition {
		m.w("      \":k%d\": %s,", i, tsValue(step, camel))
	}
	nEq := len(plan.EqSorts)
	for i, step := range plan.EqSorts {
		param := m.rp.RangeParameters[i]
		m.w("      \":s%d\": %s,", i, tsValue(step, func(string) string { return camel(param.Name) }))
	}
	if plan.RangeStep != nil {
		for j := 0; j < m.rp.Pattern.Range.Operands() && nEq+j < len(m.rp.RangeParameters); j++ {
			param := m.rp.RangeParameters[nEq+j]
			m.w("      \":r%d\": %s,", j, tsValue(*plan.RangeStep, func(string) string { return camel(param.Name) }))
		}
	}
	m.writeFilterValues()
	m.w("    };")
}

func (m *methodWriter) writeFilterMaps() {
	m.w("    const names: Record<string, string> = {")
	m.writeFilterNames()
	m.w("    };")
	m.w("    const values: Record<string, unknown> = {")
	m.writeFilterValues()
	m.w("    };")
}

func (m *methodWriter) writeFilterNames() {
	if m.rp.Pattern.Filter == nil {
		return
	}
	for ci, c := range m.rp.Pattern.Filter.Conditions {
		m.w("      \"#f%d\": %q,", ci, c.Field.Name)
	}
}

func (m *methodWriter) writeFilterValues() {
	if m.rp.Pattern.Filter == nil {
		return
	}
	for ci, c := range m.rp.Pattern.Filter.Conditions {
		for j, name := range c.Parameters {
			m.w("      \":f%d_%d\": %s,", ci, j, camel(name))
		}
	}
}

// itemSpread renders "{ ...entity, ...key(...), _et: TAG }" for writes.
func (m *methodWriter) itemSpread(recv string) string {
	var args []string
	for _, f := range m.entity.KeyFields() {
		args = append(args, recv+"."+camel(f))
	}
	keyFn := camel(m.entity.Name) + "Key"
	tag := constCase(fileBase(m.entity)) + "_TAG"
	m.imports[keyFn] = true
	m.imports[tag] = true
	return fmt.Sprintf("{ ...%s, ...%s(%s), _et: %s }", recv, keyFn, strings.Join(args, ", "), tag)
}

func (m *methodWriter) genPut() {
	m.w("  /** Writes one %s item. */", m.entity.Name)
	m.w("  async %s(entity: %s): Promise<void> {", m.methodName(), m.entity.Name)
	m.w("    await this.client.send(new PutCommand({")
	m.w("      TableName: this.table,")
	m.w("      Item: %s,", m.itemSpread("entity"))
	m.w("    }));")
	m.w("  }")
}

func (m *methodWriter) genDelete() {
	params := strings.Join(m.keyParams(m.rp.KeyPlan), ", ")
	m.w("  /** Deletes one %s by primary key. */", m.entity.Name)
	m.w("  async %s(%s): Promise<void> {", m.methodName(), params)
	m.w("    await this.client.send(new DeleteCommand({")
	m.w("      TableName: this.table,")
	m.w("      Key: %s,", m.keyCall(m.rp.KeyPlan))
	m.w("    }));")
	m.w("  }")
}

func (m *methodWriter) genUpdate() {
	params := append(m.keyParams(m.rp.KeyPlan), m.paramList(m.rp.BodyParameters)...)
	var sets []string
	for i := range m.rp.BodyParameters {
		sets = append(sets, fmt.Sprintf("#b%d = :b%d", i, i))
	}
	m.w("  /** Updates %s fields in place. */", m.entity.Name)
	m.w("  async %s(%s): Promise<void> {", m.methodName(), strings.Join(params, ", "))
	m.w("    await this.client.send(new UpdateCommand({")
	m.w("      TableName: this.table,")
	m.w("      Key: %s,", m.keyCall(m.rp.KeyPlan))
	m.w("      UpdateExpression: %q,", "SET "+strings.Join(sets, ", "))
	m.w("      ExpressionAttributeNames: {")
	for i, p := range m.rp.BodyParameters {
		m.w("        \"#b%d\": %q,", i, p.Name)
	}
	m.w("      },")
	m.w("      ExpressionAttributeValues: {")
	for i, p := range m.rp.BodyParameters {
		m.w("        \":b%d\": %s,", i, camel(p.Name))
	}
	m.w("      },")
	m.w("    }));")
	m.w("  }")
}

func (m *methodWriter) genBatchGet() {
	m.w("  /** Reads up to 100 %s items per request, chunking as needed. */", m.entity.Name)
	m.w("  async %s(keys: Record<string, unknown>[]): Promise<%s[]> {", m.methodName(), m.itemType())
	m.w("    const items: %s[] = [];", m.itemType())
	m.w("    for (let i = 0; i < keys.length; i += 100) {")
	m.w("      const out = await this.client.send(new BatchGetCommand({")
	m.w("        RequestItems: { [this.table]: { Keys: keys.slice(i, i + 100) } },")
	m.w("      }));")
	m.w("      items.push(...((out.Responses?.[this.table] ?? []) as %s[]));", m.itemType())
	m.w("    }")
	m.w("    return items;")
	m.w("  }")
}

func (m *methodWriter) genBatchWrite() {
	m.w("  /** Writes up to 25 %s items per request, chunking as needed. */", m.entity.Name)
	m.w("  async %s(entities: %s[]): Promise<void> {", m.methodName(), m.entity.Name)
	m.w("    for (let i = 0; i < entities.length; i += 25) {")
	m.w("      await this.client.send(new BatchWriteCommand({")
	m.w("        RequestItems: {")
	m.w("          [this.table]: entities.slice(i, i + 25).map((entity) => ({")
	m.w("            PutRequest: { Item: %s },", m.itemSpread("entity"))
	m.w("          })),")
	m.w("        },")
	m.w("      }));")
	m.w("    }")
	m.w("  }")
}
