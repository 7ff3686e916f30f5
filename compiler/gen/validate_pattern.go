package gen

import (
	"fmt"

	"github.com/tabledsl/ddbgen"
	"github.com/tabledsl/ddbgen/compiler/load"
	"github.com/tabledsl/ddbgen/schema"
	"github.com/tabledsl/ddbgen/schema/keytemplate"
)

// checkPatterns applies the per-pattern rule groups: name uniqueness within
// the entity, enum membership, index references, consistency combinations,
// range condition cardinality, and filter expressions.
func (v *docValidator) checkPatterns(ePath string, t *load.Table, e *load.Entity, fieldNames []string) {
	nameSeen := make(map[string]string)
	for pi, p := range e.AccessPatterns {
		pPath := fmt.Sprintf("%s.access_patterns[%d]", ePath, pi)
		if p.Name != "" {
			if prev, ok := nameSeen[p.Name]; ok {
				v.diags.Append(ddbgen.UniquenessViolation(pPath, prev,
					"duplicate access pattern name %q in entity %q", p.Name, e.Name))
			} else {
				nameSeen[p.Name] = pPath
			}
		}
		v.checkPattern(pPath, t, e, p, fieldNames)
	}
}

func (v *docValidator) checkPattern(pPath string, t *load.Table, e *load.Entity, p *load.AccessPattern, fieldNames []string) {
	op := schema.Operation(p.Operation)
	if p.Operation != "" && !op.ValidForEntity() {
		v.diags.Append(ddbgen.EnumViolation(pPath+".operation", p.Operation,
			schema.Suggest(p.Operation, schema.EntityOperations()), schema.EntityOperations()))
	}
	if p.Returns != "" && !schema.ReturnShape(p.Returns).Valid() {
		v.diags.Append(ddbgen.EnumViolation(pPath+".returns", p.Returns,
			schema.Suggest(p.Returns, schema.ReturnShapes()), schema.ReturnShapes()))
	}
	v.checkParameterKinds(pPath, p.Parameters)

	idx := v.checkPatternIndex(pPath, t, e, p, op)
	v.checkRangeCondition(pPath, t, p, op, idx)
	if p.Filter != nil {
		v.checkFilter(pPath+".filter", e, p, op, idx, fieldNames)
	}
}

// checkPatternIndex resolves the pattern's index reference and enforces the
// combinations that are jointly invalid: strong consistency on a secondary
// index read, an index mapping the entity does not participate in, and
// operations a secondary index cannot serve.
func (v *docValidator) checkPatternIndex(pPath string, t *load.Table, e *load.Entity, p *load.AccessPattern, op schema.Operation) *load.Index {
	if p.Index == "" {
		return nil
	}
	if p.ConsistentRead {
		v.diags.Append(ddbgen.ConsistencyError(pPath+".consistent_read",
			"strongly consistent reads are not available on secondary index %q", p.Index))
	}
	if op == schema.OpQuery || op == schema.OpScan {
		// Only queries and scans can target a secondary index.
	} else if op.ValidForEntity() {
		v.diags.Append(ddbgen.ConsistencyError(pPath+".index",
			"operation %q cannot target a secondary index", op))
	}
	indexNames := make([]string, 0, len(t.Indexes))
	var idx *load.Index
	for _, di := range t.Indexes {
		indexNames = append(indexNames, di.Name)
		if di.Name == p.Index {
			idx = di
		}
	}
	if idx == nil {
		v.diags.Append(ddbgen.ReferenceError(pPath+".index", schema.Suggest(p.Index, indexNames),
			"index %q is not defined on table %q", p.Index, t.Name))
		return nil
	}
	mapped := false
	for _, ik := range e.IndexKeys {
		if ik.Index == p.Index {
			mapped = true
		}
	}
	if !mapped {
		v.diags.Append(ddbgen.ReferenceError(pPath+".index", "",
			"entity %q declares no key mapping for index %q", e.Name, p.Index))
	}
	return idx
}

// checkRangeCondition enforces enum membership, the query-only placement of
// range conditions, and parameter-count cardinality. For a partition key of
// n attributes and a sort key of m attributes, a prefix or comparison
// condition takes n+k parameters (k = 1..m queried sort attributes, equality
// implied on the first k-1) and between takes one more.
func (v *docValidator) checkRangeCondition(pPath string, t *load.Table, p *load.AccessPattern, op schema.Operation, idx *load.Index) {
	if p.RangeCondition == "" {
		return
	}
	cond := schema.RangeCondition(p.RangeCondition)
	if !cond.Valid() {
		v.diags.Append(ddbgen.EnumViolation(pPath+".range_condition", p.RangeCondition,
			schema.Suggest(p.RangeCondition, schema.RangeConditions()), schema.RangeConditions()))
		return
	}
	if op.ValidForEntity() && op != schema.OpQuery {
		v.diags.Append(ddbgen.ConsistencyError(pPath+".range_condition",
			"range condition %q is only valid on %q operations", cond, schema.OpQuery))
		return
	}
	pkCount, sortCount := 1, 0
	if idx != nil {
		pkCount, sortCount = len(idx.PartitionKey), len(idx.SortKey)
	} else if t.SortKey != "" {
		sortCount = 1
	}
	if sortCount == 0 {
		v.diags.Append(ddbgen.ConsistencyError(pPath+".range_condition",
			"range condition %q requires a sort key, but the queried key has none", cond))
		return
	}
	// Filter parameters are declared in the same ordered list; they do not
	// count toward the key parameters.
	keyParams := len(p.Parameters) - len(filterParamNames(p.Filter, p.Parameters))
	min := pkCount + cond.Operands()
	max := pkCount + sortCount - 1 + cond.Operands()
	if keyParams < min || keyParams > max {
		if min == max {
			v.diags.Append(ddbgen.CardinalityError(pPath+".parameters",
				"range condition %q takes %d key parameter(s), got %d", cond, min, keyParams))
		} else {
			v.diags.Append(ddbgen.CardinalityError(pPath+".parameters",
				"range condition %q takes between %d and %d key parameter(s), got %d", cond, min, max, keyParams))
		}
	}
}

// checkFilter enforces the filter expression rules: placement on query/scan
// only, enum membership, reference resolution, comparator arity, and the
// rule that query filters never touch key attributes (scans may).
func (v *docValidator) checkFilter(fPath string, e *load.Entity, p *load.AccessPattern, op schema.Operation, idx *load.Index, fieldNames []string) {
	f := p.Filter
	if op.ValidForEntity() && op != schema.OpQuery && op != schema.OpScan {
		v.diags.Append(ddbgen.ConsistencyError(fPath,
			"filter expressions are only valid on %q and %q operations", schema.OpQuery, schema.OpScan))
	}
	if f.Combinator != "" && !schema.Combinator(f.Combinator).Valid() {
		v.diags.Append(ddbgen.EnumViolation(fPath+".combinator", f.Combinator,
			schema.Suggest(f.Combinator, schema.Combinators()), schema.Combinators()))
	}
	declared := make(map[string]bool, len(p.Parameters))
	for _, param := range p.Parameters {
		declared[param.Name] = true
	}
	keyFields := v.patternKeyFields(e, p, idx)
	for ci, c := range f.Conditions {
		cPath := fmt.Sprintf("%s.conditions[%d]", fPath, ci)
		cmp := schema.Comparator(c.Comparator)
		if c.Comparator != "" && !cmp.Valid() {
			v.diags.Append(ddbgen.EnumViolation(cPath+".comparator", c.Comparator,
				schema.Suggest(c.Comparator, schema.Comparators()), schema.Comparators()))
		} else if c.Comparator != "" {
			min, max := cmp.Operands()
			switch {
			case len(c.Parameters) < min:
				v.diags.Append(ddbgen.CardinalityError(cPath+".parameters",
					"comparator %q takes at least %d parameter(s), got %d", cmp, min, len(c.Parameters)))
			case max >= 0 && len(c.Parameters) > max:
				v.diags.Append(ddbgen.CardinalityError(cPath+".parameters",
					"comparator %q takes at most %d parameter(s), got %d", cmp, max, len(c.Parameters)))
			}
		}
		if c.Field != "" && !contains(fieldNames, c.Field) {
			v.diags.Append(ddbgen.ReferenceError(cPath+".field", schema.Suggest(c.Field, fieldNames),
				"filter references undeclared field %q", c.Field))
		}
		if op == schema.OpQuery && keyFields[c.Field] {
			v.diags.Append(ddbgen.ConsistencyError(cPath+".field",
				"filter field %q duplicates a key attribute of the queried key", c.Field))
		}
		for _, name := range c.Parameters {
			if !declared[name] {
				v.diags.Append(ddbgen.ReferenceError(cPath+".parameters", "",
					"filter parameter %q is not declared in the pattern parameter list", name))
			}
		}
	}
}

// patternKeyFields returns the entity fields feeding the key the pattern
// queries: the index mapping's template fields when an index is targeted,
// the primary key template fields otherwise.
func (v *docValidator) patternKeyFields(e *load.Entity, p *load.AccessPattern, idx *load.Index) map[string]bool {
	out := make(map[string]bool)
	collect := func(raw string) {
		tmpl, err := keytemplate.Parse(raw)
		if err != nil {
			return // reported by the template rule group
		}
		for _, f := range tmpl.Fields() {
			out[f] = true
		}
	}
	if idx != nil {
		for _, ik := range e.IndexKeys {
			if ik.Index != p.Index {
				continue
			}
			for _, raw := range ik.PartitionKey {
				collect(raw)
			}
			for _, raw := range ik.SortKey {
				collect(raw)
			}
		}
		return out
	}
	collect(e.PartitionKey)
	if e.SortKey != "" {
		collect(e.SortKey)
	}
	return out
}

// checkParameterKinds enforces enum membership of explicitly declared
// parameter kinds.
func (v *docValidator) checkParameterKinds(pPath string, params []*load.Parameter) {
	for i, param := range params {
		if param.Kind != "" && !schema.FieldKind(param.Kind).Valid() {
			v.diags.Append(ddbgen.EnumViolation(fmt.Sprintf("%s.parameters[%d].kind", pPath, i), param.Kind,
				schema.Suggest(param.Kind, schema.FieldKinds()), schema.FieldKinds()))
		}
	}
}

// filterParamNames returns the subset of the pattern's declared parameters
// that are consumed by filter conditions.
func filterParamNames(f *load.Filter, params []*load.Parameter) map[string]bool {
	out := make(map[string]bool)
	if f == nil {
		return out
	}
	declared := make(map[string]bool, len(params))
	for _, p := range params {
		declared[p.Name] = true
	}
	for _, c := range f.Conditions {
		for _, name := range c.Parameters {
			if declared[name] {
				out[name] = true
			}
		}
	}
	return out
}

// checkTransactions applies the cross-table rule groups: operation and
// action enum membership, participant cardinality, and table/entity
// reference resolution.
func (v *docValidator) checkTransactions() {
	tableNames := make([]string, 0, len(v.doc.Tables))
	byName := make(map[string]*load.Table, len(v.doc.Tables))
	for _, t := range v.doc.Tables {
		tableNames = append(tableNames, t.Name)
		byName[t.Name] = t
	}
	for xi, p := range v.doc.CrossTablePatterns {
		pPath := fmt.Sprintf("cross_table_access_patterns[%d]", xi)
		op := schema.Operation(p.Operation)
		if p.Operation != "" && !op.ValidForTransaction() {
			v.diags.Append(ddbgen.EnumViolation(pPath+".operation", p.Operation,
				schema.Suggest(p.Operation, schema.TransactOperations()), schema.TransactOperations()))
		}
		if p.Returns != "" && !schema.ReturnShape(p.Returns).Valid() {
			v.diags.Append(ddbgen.EnumViolation(pPath+".returns", p.Returns,
				schema.Suggest(p.Returns, schema.ReturnShapes()), schema.ReturnShapes()))
		}
		if len(p.Participants) > schema.MaxTransactionParticipants {
			v.diags.Append(ddbgen.CardinalityError(pPath+".participants",
				"transaction has %d participants, at most %d allowed",
				len(p.Participants), schema.MaxTransactionParticipants))
		}
		v.checkParameterKinds(pPath, p.Parameters)
		for pi, part := range p.Participants {
			v.checkParticipant(fmt.Sprintf("%s.participants[%d]", pPath, pi), op, part, tableNames, byName)
		}
	}
}

func (v *docValidator) checkParticipant(path string, op schema.Operation, part *load.Participant, tableNames []string, byName map[string]*load.Table) {
	t, ok := byName[part.Table]
	if !ok {
		v.diags.Append(ddbgen.ReferenceError(path+".table", schema.Suggest(part.Table, tableNames),
			"table %q is not defined in the document", part.Table))
	}
	var entity *load.Entity
	if t != nil {
		entityNames := make([]string, 0, len(t.Entities))
		for _, e := range t.Entities {
			entityNames = append(entityNames, e.Name)
			if e.Name == part.Entity {
				entity = e
			}
		}
		if entity == nil {
			v.diags.Append(ddbgen.ReferenceError(path+".entity", schema.Suggest(part.Entity, entityNames),
				"entity %q is not defined on table %q", part.Entity, part.Table))
		}
	}
	action := schema.ParticipantAction(part.Action)
	if part.Action != "" && op.ValidForTransaction() && !action.ValidFor(op) {
		valid := schema.ParticipantActions(op)
		v.diags.Append(ddbgen.EnumViolation(path+".action", part.Action,
			schema.Suggest(part.Action, valid), valid))
	}
	if part.Condition != nil && entity != nil {
		fieldNames := make([]string, 0, len(entity.Fields))
		for _, f := range entity.Fields {
			fieldNames = append(fieldNames, f.Name)
		}
		for ci, c := range part.Condition.Conditions {
			cPath := fmt.Sprintf("%s.condition.conditions[%d]", path, ci)
			if c.Comparator != "" && !schema.Comparator(c.Comparator).Valid() {
				v.diags.Append(ddbgen.EnumViolation(cPath+".comparator", c.Comparator,
					schema.Suggest(c.Comparator, schema.Comparators()), schema.Comparators()))
			}
			if c.Field != "" && !contains(fieldNames, c.Field) {
				v.diags.Append(ddbgen.ReferenceError(cPath+".field", schema.Suggest(c.Field, fieldNames),
					"condition references undeclared field %q", c.Field))
			}
		}
	}
}
