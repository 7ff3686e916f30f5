package golang

import (
	"fmt"
	"strings"

	"github.com/dave/jennifer/jen"

	"github.com/tabledsl/ddbgen/compiler/gen"
)

// genExprMaps emits the names and values maps for a query's key condition
// and, when present, its filter expression.
func genExprMaps(g *jen.Group, rp *gen.ResolvedPattern, plan gen.CondPlan) {
	g.Id("names").Op(":=").Map(jen.String()).String().ValuesFunc(func(vals *jen.Group) {
		for i, step := range plan.Partition {
			vals.Lit(fmt.Sprintf("#k%d", i)).Op(":").Lit(step.Attribute)
		}
		for i, step := range plan.EqSorts {
			vals.Lit(fmt.Sprintf("#s%d", i)).Op(":").Lit(step.Attribute)
		}
		if plan.RangeStep != nil {
			vals.Lit("#r").Op(":").Lit(plan.RangeStep.Attribute)
		}
		addFilterNames(vals, rp)
	})
	g.Id("values").Op(":=").Make(jen.Map(jen.String()).Qual(ddbTypesPkg, "AttributeValue"), jen.Lit(valueCount(rp, plan)))
	for i, step := range plan.Partition {
		genStepValue(g, fmt.Sprintf(":k%d", i), step, func(fn string) jen.Code { return jen.Id(local(fn)) })
	}
	nEq := len(plan.EqSorts)
	for i, step := range plan.EqSorts {
		genStepValue(g, fmt.Sprintf(":s%d", i), step, positional(rp.RangeParameters[i]))
	}
	if plan.RangeStep != nil {
		for j := 0; j < rp.Pattern.Range.Operands() && nEq+j < len(rp.RangeParameters); j++ {
			genStepValue(g, fmt.Sprintf(":r%d", j), *plan.RangeStep, positional(rp.RangeParameters[nEq+j]))
		}
	}
	genFilterValues(g, rp)
}

// positional substitutes one range parameter for every field of a sort
// template. Multi-field sort templates take their value from a single range
// parameter per comparison.
func positional(param *gen.Parameter) func(string) jen.Code {
	return func(string) jen.Code { return jen.Id(local(param.Name)) }
}

// genStepValue emits one key condition value: raw numeric steps marshal the
// argument, templated steps render to a string attribute.
func genStepValue(g *jen.Group, token string, step gen.KeyStep, arg func(string) jen.Code) {
	if step.RawNumeric {
		genMarshalInto(g, token, arg(step.Template.Fields()[0]), true)
		return
	}
	format, args := templateFormat(step.Template, arg)
	g.Id("values").Index(jen.Lit(token)).Op("=").Op("&").Qual(ddbTypesPkg, "AttributeValueMemberS").Values(
		jen.Id("Value").Op(":").Qual("fmt", "Sprintf").Call(append([]jen.Code{jen.Lit(format)}, args...)...),
	)
}

// genFilterMaps emits names and values for a scan's filter expression.
func genFilterMaps(g *jen.Group, rp *gen.ResolvedPattern) {
	g.Id("names").Op(":=").Map(jen.String()).String().ValuesFunc(func(vals *jen.Group) {
		addFilterNames(vals, rp)
	})
	g.Id("values").Op(":=").Make(jen.Map(jen.String()).Qual(ddbTypesPkg, "AttributeValue"), jen.Lit(len(rp.FilterParameters)))
	genFilterValues(g, rp)
}

func addFilterNames(vals *jen.Group, rp *gen.ResolvedPattern) {
	if rp.Pattern.Filter == nil {
		return
	}
	for ci, c := range rp.Pattern.Filter.Conditions {
		vals.Lit(fmt.Sprintf("#f%d", ci)).Op(":").Lit(c.Field.Name)
	}
}

func genFilterValues(g *jen.Group, rp *gen.ResolvedPattern) {
	if rp.Pattern.Filter == nil {
		return
	}
	for ci, c := range rp.Pattern.Filter.Conditions {
		for j, name := range c.Parameters {
			genMarshalInto(g, fmt.Sprintf(":f%d_%d", ci, j), jen.Id(local(name)), true)
		}
	}
}

// genMarshalInto emits "av, err := attributevalue.Marshal(v)" followed by the
// guard and the values map assignment. nilFirst selects the error return
// shape of the surrounding method.
func genMarshalInto(g *jen.Group, token string, value jen.Code, nilFirst bool) {
	v := varFor(token)
	g.List(jen.Id(v), jen.Err()).Op(":=").Qual(attrValuePkg, "Marshal").Call(value)
	if nilFirst {
		g.If(jen.Err().Op("!=").Nil()).Block(jen.Return(jen.Nil(), jen.Err()))
	} else {
		g.If(jen.Err().Op("!=").Nil()).Block(jen.Return(jen.Err()))
	}
	g.Id("values").Index(jen.Lit(token)).Op("=").Id(v)
}

// varFor derives a local variable name from an expression value token.
func varFor(token string) string {
	var b strings.Builder
	b.WriteString("av")
	for _, r := range token {
		if r >= '0' && r <= '9' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func valueCount(rp *gen.ResolvedPattern, plan gen.CondPlan) int {
	n := len(plan.Partition) + len(plan.EqSorts)
	if plan.RangeStep != nil {
		n += rp.Pattern.Range.Operands()
	}
	if rp.Pattern.Filter != nil {
		for _, c := range rp.Pattern.Filter.Conditions {
			n += len(c.Parameters)
		}
	}
	return n
}
