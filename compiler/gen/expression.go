package gen

import (
	"fmt"
	"strings"

	"github.com/tabledsl/ddbgen/schema"
)

// CondPlan is the precomputed key condition for one query pattern: the steps
// answered directly by key inputs, the sort steps answered by leading range
// parameters, the step the range condition compares, and the rendered
// expression. The expression uses the #k / #s / #r name tokens and the
// matching :k / :s / :r value tokens; backends fill the token maps in their
// own syntax.
type CondPlan struct {
	Partition []KeyStep
	EqSorts   []KeyStep
	RangeStep *KeyStep
	Condition string
}

// QueryPlan splits a query pattern's key plan into condition roles and
// renders the key condition expression. Equality is implied on every
// partition attribute and on the sort attributes preceding the one the range
// condition compares.
func QueryPlan(rp *ResolvedPattern) CondPlan {
	p := rp.Pattern
	np := 1
	if p.Index != nil {
		np = len(p.Index.PartitionKeys)
	}
	if np > len(rp.KeyPlan) {
		np = len(rp.KeyPlan)
	}
	plan := CondPlan{Partition: rp.KeyPlan[:np]}
	sorts := rp.KeyPlan[np:]

	if p.Range == "" {
		// Without a range condition, sort attributes whose template fields
		// arrive as key parameters are matched by equality.
		covered := make(map[string]bool)
		for _, kp := range rp.KeyParameters {
			covered[kp.Name] = true
		}
		for _, step := range sorts {
			all := true
			for _, fn := range step.Template.Fields() {
				if !covered[fn] {
					all = false
				}
			}
			if all {
				plan.Partition = append(plan.Partition, step)
			}
		}
	} else {
		nEq := len(rp.RangeParameters) - p.Range.Operands()
		if nEq < 0 {
			nEq = 0
		}
		if nEq > len(sorts) {
			nEq = len(sorts)
		}
		plan.EqSorts = sorts[:nEq]
		if nEq < len(sorts) {
			plan.RangeStep = &sorts[nEq]
		}
	}

	var parts []string
	for i := range plan.Partition {
		parts = append(parts, fmt.Sprintf("#k%d = :k%d", i, i))
	}
	for i := range plan.EqSorts {
		parts = append(parts, fmt.Sprintf("#s%d = :s%d", i, i))
	}
	if plan.RangeStep != nil {
		switch p.Range {
		case schema.RangePrefix:
			parts = append(parts, "begins_with(#r, :r0)")
		case schema.RangeBetween:
			parts = append(parts, "#r BETWEEN :r0 AND :r1")
		case schema.RangeGT:
			parts = append(parts, "#r > :r0")
		case schema.RangeGTE:
			parts = append(parts, "#r >= :r0")
		case schema.RangeLT:
			parts = append(parts, "#r < :r0")
		case schema.RangeLTE:
			parts = append(parts, "#r <= :r0")
		}
	}
	plan.Condition = strings.Join(parts, " AND ")
	return plan
}

// FilterExpression renders a filter to a DynamoDB expression string using
// the #f{i} name tokens and :f{i}_{j} value tokens.
func FilterExpression(f *Filter) string { return renderFilter(f, "f") }

// ConditionExpression renders a transaction participant condition using the
// #c{i} / :c{i}_{j} token scheme.
func ConditionExpression(f *Filter) string { return renderFilter(f, "c") }

func renderFilter(f *Filter, prefix string) string {
	parts := make([]string, 0, len(f.Conditions))
	for ci, c := range f.Conditions {
		name := fmt.Sprintf("#%s%d", prefix, ci)
		token := func(j int) string { return fmt.Sprintf(":%s%d_%d", prefix, ci, j) }
		parts = append(parts, comparatorExpr(name, token, c))
	}
	joiner := " AND "
	if f.Combinator == schema.CombineOr {
		joiner = " OR "
	}
	return strings.Join(parts, joiner)
}

func comparatorExpr(name string, token func(int) string, c *FilterCondition) string {
	switch c.Comparator {
	case schema.CmpEQ:
		return fmt.Sprintf("%s = %s", name, token(0))
	case schema.CmpNE:
		return fmt.Sprintf("%s <> %s", name, token(0))
	case schema.CmpLT:
		return fmt.Sprintf("%s < %s", name, token(0))
	case schema.CmpLTE:
		return fmt.Sprintf("%s <= %s", name, token(0))
	case schema.CmpGT:
		return fmt.Sprintf("%s > %s", name, token(0))
	case schema.CmpGTE:
		return fmt.Sprintf("%s >= %s", name, token(0))
	case schema.CmpBetween:
		return fmt.Sprintf("%s BETWEEN %s AND %s", name, token(0), token(1))
	case schema.CmpIn:
		tokens := make([]string, len(c.Parameters))
		for j := range c.Parameters {
			tokens[j] = token(j)
		}
		return fmt.Sprintf("%s IN (%s)", name, strings.Join(tokens, ", "))
	case schema.CmpContains:
		return fmt.Sprintf("contains(%s, %s)", name, token(0))
	case schema.CmpBeginsWith:
		return fmt.Sprintf("begins_with(%s, %s)", name, token(0))
	case schema.CmpExists:
		return fmt.Sprintf("attribute_exists(%s)", name)
	case schema.CmpNotExists:
		return fmt.Sprintf("attribute_not_exists(%s)", name)
	default:
		return ""
	}
}
