// Package gen turns a loaded schema document into validated, resolved models
// and orchestrates per-language code generation. The pipeline inside this
// package is a strict sequence: Validate walks the whole document and
// accumulates diagnostics; NewGraph projects a clean document into the
// read-only graph; Resolve derives per-pattern contracts; Generate renders
// artifacts through a registered language backend.
package gen

import (
	"fmt"

	"github.com/tabledsl/ddbgen/compiler/load"
	"github.com/tabledsl/ddbgen/schema"
	"github.com/tabledsl/ddbgen/schema/keytemplate"
)

// The following types form the resolved model consumed by the code
// generators. They are built once per compilation run, after validation, and
// are read-only thereafter.
type (
	// Graph is the root of the resolved model.
	Graph struct {
		// Tables in document order.
		Tables []*Table
		// Nodes holds every entity in the document, in document order.
		Nodes []*Entity
		// Transactions holds the cross-table transaction patterns.
		Transactions []*TxPattern

		tables map[string]*Table
	}

	// Table is one wide-column table and its secondary indexes.
	Table struct {
		Name         string
		PartitionKey string
		SortKey      string
		Indexes      []*Index
		Entities     []*Entity

		indexes  map[string]*Index
		entities map[string]*Entity
	}

	// Index is one secondary index. PartitionKeys and SortKeys hold the
	// attribute names; more than one element is the multi-attribute form.
	Index struct {
		Name          string
		Table         *Table
		PartitionKeys []string
		SortKeys      []string
		Projection    schema.Projection
		Include       []string
	}

	// Entity is one entity type with its compiled key templates.
	Entity struct {
		Name         string
		Tag          string
		Table        *Table
		PartitionKey *keytemplate.Template
		SortKey      *keytemplate.Template
		IndexKeys    []*IndexKey
		Fields       []*Field
		Patterns     []*Pattern

		fields    map[string]*Field
		indexKeys map[string]*IndexKey
	}

	// IndexKey is an entity's compiled key mapping into one secondary index.
	IndexKey struct {
		Index        *Index
		PartitionKey *keytemplate.Composite
		SortKey      *keytemplate.Composite

		entity *Entity
	}

	// Field is one entity field.
	Field struct {
		Name     string
		Kind     schema.FieldKind
		Required bool
		// Element is the element kind for list fields.
		Element schema.FieldKind
		Entity  *Entity
	}

	// Pattern is one per-entity access pattern.
	Pattern struct {
		ID             int
		Name           string
		Entity         *Entity
		Operation      schema.Operation
		Index          *Index
		IndexKey       *IndexKey
		Range          schema.RangeCondition
		ConsistentRead bool
		Filter         *Filter
		Parameters     []*Parameter
		Returns        schema.ReturnShape
	}

	// Filter is a compiled filter expression.
	Filter struct {
		Combinator schema.Combinator
		Conditions []*FilterCondition
	}

	// FilterCondition is one comparison in a filter.
	FilterCondition struct {
		Field      *Field
		Comparator schema.Comparator
		Parameters []string
	}

	// Parameter is one named pattern parameter with its resolved kind.
	Parameter struct {
		Name string
		Kind schema.FieldKind
	}

	// TxPattern is one cross-table transaction pattern.
	TxPattern struct {
		ID           int
		Name         string
		Operation    schema.Operation
		Participants []*Participant
		Parameters   []*Parameter
		Returns      schema.ReturnShape
	}

	// Participant is one (table, entity, action) element of a transaction.
	Participant struct {
		Table     *Table
		Entity    *Entity
		Action    schema.ParticipantAction
		Condition *Filter
	}
)

// NewGraph projects a validated document into the resolved model. It must
// only be called with a document that passed Validate with zero diagnostics;
// any failure here is an internal invariant violation, not a user error.
func NewGraph(doc *load.Document) (*Graph, error) {
	g := &Graph{tables: make(map[string]*Table)}
	for _, dt := range doc.Tables {
		t := &Table{
			Name:         dt.Name,
			PartitionKey: dt.PartitionKey,
			SortKey:      dt.SortKey,
			indexes:      make(map[string]*Index),
			entities:     make(map[string]*Entity),
		}
		for _, di := range dt.Indexes {
			idx := &Index{
				Name:          di.Name,
				Table:         t,
				PartitionKeys: di.PartitionKey,
				SortKeys:      di.SortKey,
				Projection:    indexProjection(di),
				Include:       di.Include,
			}
			t.Indexes = append(t.Indexes, idx)
			t.indexes[idx.Name] = idx
		}
		g.Tables = append(g.Tables, t)
		g.tables[t.Name] = t
	}
	// Entities after all tables so cross-table participants can resolve in a
	// single pass below.
	for ti, dt := range doc.Tables {
		t := g.Tables[ti]
		for _, de := range dt.Entities {
			e, err := newEntity(t, de)
			if err != nil {
				return nil, err
			}
			t.Entities = append(t.Entities, e)
			t.entities[e.Name] = e
			g.Nodes = append(g.Nodes, e)
		}
	}
	for _, dp := range doc.CrossTablePatterns {
		tx, err := g.newTxPattern(dp)
		if err != nil {
			return nil, err
		}
		g.Transactions = append(g.Transactions, tx)
	}
	return g, nil
}

// Table returns the named table, or nil.
func (g *Graph) Table(name string) *Table { return g.tables[name] }

// Index returns the named index, or nil.
func (t *Table) Index(name string) *Index { return t.indexes[name] }

// Entity returns the named entity, or nil.
func (t *Table) Entity(name string) *Entity { return t.entities[name] }

// Field returns the named field, or nil.
func (e *Entity) Field(name string) *Field { return e.fields[name] }

// IndexKeyFor returns the entity's key mapping for the named index, or nil.
func (e *Entity) IndexKeyFor(name string) *IndexKey { return e.indexKeys[name] }

// KeyFields returns the field names referenced by the entity's primary key
// templates, partition key first, in template order.
func (e *Entity) KeyFields() []string {
	out := append([]string(nil), e.PartitionKey.Fields()...)
	if e.SortKey != nil {
		for _, f := range e.SortKey.Fields() {
			if !contains(out, f) {
				out = append(out, f)
			}
		}
	}
	return out
}

// Sparse reports whether the index key mapping omits items with absent
// fields: it does when any referenced field is optional.
func (k *IndexKey) Sparse() bool {
	for _, name := range k.PartitionKey.Fields() {
		if f := fieldOf(k, name); f != nil && !f.Required {
			return true
		}
	}
	if k.SortKey != nil {
		for _, name := range k.SortKey.Fields() {
			if f := fieldOf(k, name); f != nil && !f.Required {
				return true
			}
		}
	}
	return false
}

func fieldOf(k *IndexKey, name string) *Field {
	if k.entity == nil {
		return nil
	}
	return k.entity.Field(name)
}

func newEntity(t *Table, de *load.Entity) (*Entity, error) {
	e := &Entity{
		Name:      de.Name,
		Tag:       de.Discriminator(),
		Table:     t,
		fields:    make(map[string]*Field),
		indexKeys: make(map[string]*IndexKey),
	}
	for _, df := range de.Fields {
		f := &Field{
			Name:     df.Name,
			Kind:     schema.FieldKind(df.Kind),
			Required: df.Required,
			Element:  schema.FieldKind(df.Element),
			Entity:   e,
		}
		e.Fields = append(e.Fields, f)
		e.fields[f.Name] = f
	}
	var err error
	if e.PartitionKey, err = keytemplate.Parse(de.PartitionKey); err != nil {
		return nil, fmt.Errorf("gen: entity %s: %w", de.Name, err)
	}
	if de.SortKey != "" {
		if e.SortKey, err = keytemplate.Parse(de.SortKey); err != nil {
			return nil, fmt.Errorf("gen: entity %s: %w", de.Name, err)
		}
	}
	for _, dk := range de.IndexKeys {
		ik := &IndexKey{Index: t.Index(dk.Index), entity: e}
		if ik.PartitionKey, err = keytemplate.ParseComposite(dk.PartitionKey); err != nil {
			return nil, fmt.Errorf("gen: entity %s index %s: %w", de.Name, dk.Index, err)
		}
		if len(dk.SortKey) > 0 {
			if ik.SortKey, err = keytemplate.ParseComposite(dk.SortKey); err != nil {
				return nil, fmt.Errorf("gen: entity %s index %s: %w", de.Name, dk.Index, err)
			}
		}
		e.IndexKeys = append(e.IndexKeys, ik)
		e.indexKeys[dk.Index] = ik
	}
	for _, dp := range de.AccessPatterns {
		p, err := newPattern(e, dp)
		if err != nil {
			return nil, err
		}
		e.Patterns = append(e.Patterns, p)
	}
	return e, nil
}

func newPattern(e *Entity, dp *load.AccessPattern) (*Pattern, error) {
	p := &Pattern{
		ID:             *dp.ID,
		Name:           dp.Name,
		Entity:         e,
		Operation:      schema.Operation(dp.Operation),
		Range:          schema.RangeCondition(dp.RangeCondition),
		ConsistentRead: dp.ConsistentRead,
		Returns:        returnShape(dp.Returns, schema.Operation(dp.Operation)),
	}
	if dp.Index != "" {
		p.Index = e.Table.Index(dp.Index)
		p.IndexKey = e.IndexKeyFor(dp.Index)
	}
	if dp.Filter != nil {
		f, err := newFilter(e, dp.Filter)
		if err != nil {
			return nil, err
		}
		p.Filter = f
	}
	for _, dparam := range dp.Parameters {
		p.Parameters = append(p.Parameters, newParameter(e, dparam))
	}
	return p, nil
}

func newFilter(e *Entity, df *load.Filter) (*Filter, error) {
	f := &Filter{Combinator: filterCombinator(df)}
	for _, dc := range df.Conditions {
		fld := e.Field(dc.Field)
		if fld == nil {
			return nil, fmt.Errorf("gen: entity %s: unresolved filter field %q", e.Name, dc.Field)
		}
		f.Conditions = append(f.Conditions, &FilterCondition{
			Field:      fld,
			Comparator: schema.Comparator(dc.Comparator),
			Parameters: dc.Parameters,
		})
	}
	return f, nil
}

func newParameter(e *Entity, dp *load.Parameter) *Parameter {
	p := &Parameter{Name: dp.Name, Kind: schema.FieldKind(dp.Kind)}
	if p.Kind == "" {
		if f := e.Field(dp.Name); f != nil {
			p.Kind = f.Kind
		} else {
			p.Kind = schema.KindText
		}
	}
	return p
}

func (g *Graph) newTxPattern(dp *load.TransactionPattern) (*TxPattern, error) {
	tx := &TxPattern{
		ID:        *dp.ID,
		Name:      dp.Name,
		Operation: schema.Operation(dp.Operation),
		Returns:   returnShape(dp.Returns, schema.Operation(dp.Operation)),
	}
	for _, dpart := range dp.Participants {
		t := g.Table(dpart.Table)
		if t == nil {
			return nil, fmt.Errorf("gen: transaction %s: unresolved table %q", dp.Name, dpart.Table)
		}
		e := t.Entity(dpart.Entity)
		if e == nil {
			return nil, fmt.Errorf("gen: transaction %s: unresolved entity %q", dp.Name, dpart.Entity)
		}
		part := &Participant{Table: t, Entity: e, Action: schema.ParticipantAction(dpart.Action)}
		if dpart.Condition != nil {
			f, err := newFilter(e, dpart.Condition)
			if err != nil {
				return nil, err
			}
			part.Condition = f
		}
		tx.Participants = append(tx.Participants, part)
	}
	for _, dparam := range dp.Parameters {
		kind := schema.FieldKind(dparam.Kind)
		if kind == "" {
			kind = schema.KindText
		}
		tx.Parameters = append(tx.Parameters, &Parameter{Name: dparam.Name, Kind: kind})
	}
	return tx, nil
}

// indexProjection applies the document default: indexes without an explicit
// projection carry all attributes.
func indexProjection(di *load.Index) schema.Projection {
	if di.Projection == "" {
		return schema.ProjectAll
	}
	return schema.Projection(di.Projection)
}

// filterCombinator applies the document default: conditions are and-joined.
func filterCombinator(df *load.Filter) schema.Combinator {
	if df.Combinator == "" {
		return schema.CombineAnd
	}
	return schema.Combinator(df.Combinator)
}

// returnShape applies per-operation defaults when the document omits the
// return shape tag.
func returnShape(raw string, op schema.Operation) schema.ReturnShape {
	if raw != "" {
		return schema.ReturnShape(raw)
	}
	switch op {
	case schema.OpGet:
		return schema.ShapeSingle
	case schema.OpQuery, schema.OpScan, schema.OpBatchGet:
		return schema.ShapeList
	case schema.OpTransactGet:
		return schema.ShapeHeterogeneous
	case schema.OpTransactWrite:
		return schema.ShapeBoolean
	default:
		return schema.ShapeNone
	}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
