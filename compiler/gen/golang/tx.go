package golang

import (
	"fmt"

	"github.com/dave/jennifer/jen"

	"github.com/tabledsl/ddbgen/compiler/gen"
	"github.com/tabledsl/ddbgen/schema"
)

// transactionFile renders the cross-table transaction service: one method
// per transaction pattern, building the item list and issuing a single
// all-or-nothing call.
func transactionFile(pkg string, g *gen.Graph, txs []*gen.ResolvedTransaction) *jen.File {
	f := newFile(pkg)

	f.Comment("TxService executes the cross-table transaction patterns.")
	f.Type().Id("TxService").Struct(
		jen.Id("client").Op("*").Qual(dynamodbPkg, "Client"),
	)

	f.Comment("NewTxService returns a transaction service using the given client.")
	f.Func().Id("NewTxService").Params(jen.Id("client").Op("*").Qual(dynamodbPkg, "Client")).Op("*").Id("TxService").Block(
		jen.Return(jen.Op("&").Id("TxService").Values(jen.Id("client").Op(":").Id("client"))),
	)

	for _, rt := range txs {
		if rt.Pattern.Operation == schema.OpTransactGet {
			genTransactGet(f, rt.Pattern)
		} else {
			genTransactWrite(f, rt.Pattern)
		}
	}
	return f
}

// participantArg names the method argument carrying one participant's input.
func participantArg(p *gen.Participant, i int) string {
	return fmt.Sprintf("%s%s%d", local(string(p.Action)), p.Entity.Name, i)
}

func genTransactWrite(f *jen.File, tx *gen.TxPattern) {
	name := exported(tx.Name)
	f.Commentf("%s runs the %s transaction: all writes commit or none do.", name, tx.Name)
	f.Func().Params(jen.Id("s").Op("*").Id("TxService")).Id(name).ParamsFunc(func(g *jen.Group) {
		g.Id("ctx").Qual("context", "Context")
		for _, p := range tx.Parameters {
			g.Id(local(p.Name)).Add(paramType(p.Kind))
		}
		for i, part := range tx.Participants {
			g.Id(participantArg(part, i)).Add(participantArgType(part))
		}
	}).Error().BlockFunc(func(g *jen.Group) {
		g.Id("items").Op(":=").Make(jen.Index().Qual(ddbTypesPkg, "TransactWriteItem"), jen.Lit(0), jen.Lit(len(tx.Participants)))
		for i, part := range tx.Participants {
			genWriteParticipant(g, part, i)
		}
		g.List(jen.Id("_"), jen.Err()).Op(":=").Id("s").Dot("client").Dot("TransactWriteItems").Call(
			jen.Id("ctx"), jen.Op("&").Qual(dynamodbPkg, "TransactWriteItemsInput").Values(
				jen.Id("TransactItems").Op(":").Id("items"),
			),
		)
		g.Return(jen.Err())
	})
}

func participantArgType(p *gen.Participant) *jen.Statement {
	switch p.Action {
	case schema.ActionPut:
		return jen.Op("*").Id(p.Entity.Name)
	case schema.ActionUpdate:
		return jen.Op("*").Qual(ddbTypesPkg, "Update")
	default: // delete, condition_check, get take a prepared key
		return jen.Map(jen.String()).Qual(ddbTypesPkg, "AttributeValue")
	}
}

func genWriteParticipant(g *jen.Group, part *gen.Participant, i int) {
	arg := participantArg(part, i)
	switch part.Action {
	case schema.ActionPut:
		itemVar := fmt.Sprintf("item%d", i)
		g.List(jen.Id(itemVar), jen.Err()).Op(":=").Id(arg).Dot("Item").Call()
		g.If(jen.Err().Op("!=").Nil()).Block(jen.Return(jen.Err()))
		g.Id("items").Op("=").Append(jen.Id("items"), jen.Qual(ddbTypesPkg, "TransactWriteItem").Values(
			jen.Id("Put").Op(":").Op("&").Qual(ddbTypesPkg, "Put").Values(
				jen.Id("TableName").Op(":").Qual(awsPkg, "String").Call(jen.Lit(part.Table.Name)),
				jen.Id("Item").Op(":").Id(itemVar),
			),
		))
	case schema.ActionUpdate:
		g.Id(arg).Dot("TableName").Op("=").Qual(awsPkg, "String").Call(jen.Lit(part.Table.Name))
		g.Id("items").Op("=").Append(jen.Id("items"), jen.Qual(ddbTypesPkg, "TransactWriteItem").Values(
			jen.Id("Update").Op(":").Id(arg),
		))
	case schema.ActionDelete:
		fields := []jen.Code{
			jen.Id("TableName").Op(":").Qual(awsPkg, "String").Call(jen.Lit(part.Table.Name)),
			jen.Id("Key").Op(":").Id(arg),
		}
		fields = appendConditionFields(g, part, i, fields)
		g.Id("items").Op("=").Append(jen.Id("items"), jen.Qual(ddbTypesPkg, "TransactWriteItem").Values(
			jen.Id("Delete").Op(":").Op("&").Qual(ddbTypesPkg, "Delete").Values(fields...),
		))
	case schema.ActionConditionCheck:
		fields := []jen.Code{
			jen.Id("TableName").Op(":").Qual(awsPkg, "String").Call(jen.Lit(part.Table.Name)),
			jen.Id("Key").Op(":").Id(arg),
		}
		fields = appendConditionFields(g, part, i, fields)
		g.Id("items").Op("=").Append(jen.Id("items"), jen.Qual(ddbTypesPkg, "TransactWriteItem").Values(
			jen.Id("ConditionCheck").Op(":").Op("&").Qual(ddbTypesPkg, "ConditionCheck").Values(fields...),
		))
	}
}

// appendConditionFields emits the condition expression maps for a
// participant and returns the struct fields extended with them.
func appendConditionFields(g *jen.Group, part *gen.Participant, i int, fields []jen.Code) []jen.Code {
	if part.Condition == nil {
		return fields
	}
	namesVar := fmt.Sprintf("condNames%d", i)
	valuesVar := fmt.Sprintf("condValues%d", i)
	g.Id(namesVar).Op(":=").Map(jen.String()).String().ValuesFunc(func(vals *jen.Group) {
		for ci, c := range part.Condition.Conditions {
			vals.Lit(fmt.Sprintf("#c%d", ci)).Op(":").Lit(c.Field.Name)
		}
	})
	nVals := 0
	for _, c := range part.Condition.Conditions {
		nVals += len(c.Parameters)
	}
	g.Id(valuesVar).Op(":=").Make(jen.Map(jen.String()).Qual(ddbTypesPkg, "AttributeValue"), jen.Lit(nVals))
	for ci, c := range part.Condition.Conditions {
		for j, pname := range c.Parameters {
			v := fmt.Sprintf("condAV%d_%d_%d", i, ci, j)
			g.List(jen.Id(v), jen.Err()).Op(":=").Qual(attrValuePkg, "Marshal").Call(jen.Id(local(pname)))
			g.If(jen.Err().Op("!=").Nil()).Block(jen.Return(jen.Err()))
			g.Id(valuesVar).Index(jen.Lit(fmt.Sprintf(":c%d_%d", ci, j))).Op("=").Id(v)
		}
	}
	return append(fields,
		jen.Id("ConditionExpression").Op(":").Qual(awsPkg, "String").Call(jen.Lit(gen.ConditionExpression(part.Condition))),
		jen.Id("ExpressionAttributeNames").Op(":").Id(namesVar),
		jen.Id("ExpressionAttributeValues").Op(":").Id(valuesVar),
	)
}

func genTransactGet(f *jen.File, tx *gen.TxPattern) {
	name := exported(tx.Name)
	f.Commentf("%s runs the %s transaction: a consistent multi-item read.", name, tx.Name)
	f.Func().Params(jen.Id("s").Op("*").Id("TxService")).Id(name).ParamsFunc(func(g *jen.Group) {
		g.Id("ctx").Qual("context", "Context")
		for i, part := range tx.Participants {
			g.Id(participantArg(part, i)).Map(jen.String()).Qual(ddbTypesPkg, "AttributeValue")
		}
	}).Params(
		jen.Index().Map(jen.String()).Qual(ddbTypesPkg, "AttributeValue"),
		jen.Error(),
	).BlockFunc(func(g *jen.Group) {
		g.Id("items").Op(":=").Index().Qual(ddbTypesPkg, "TransactGetItem").ValuesFunc(func(vals *jen.Group) {
			for i, part := range tx.Participants {
				vals.Values(jen.Id("Get").Op(":").Op("&").Qual(ddbTypesPkg, "Get").Values(
					jen.Id("TableName").Op(":").Qual(awsPkg, "String").Call(jen.Lit(part.Table.Name)),
					jen.Id("Key").Op(":").Id(participantArg(part, i)),
				))
			}
		})
		g.List(jen.Id("out"), jen.Err()).Op(":=").Id("s").Dot("client").Dot("TransactGetItems").Call(
			jen.Id("ctx"), jen.Op("&").Qual(dynamodbPkg, "TransactGetItemsInput").Values(
				jen.Id("TransactItems").Op(":").Id("items"),
			),
		)
		g.If(jen.Err().Op("!=").Nil()).Block(jen.Return(jen.Nil(), jen.Err()))
		g.Id("result").Op(":=").Make(jen.Index().Map(jen.String()).Qual(ddbTypesPkg, "AttributeValue"), jen.Lit(0), jen.Len(jen.Id("out").Dot("Responses")))
		g.For(jen.List(jen.Id("_"), jen.Id("resp")).Op(":=").Range().Id("out").Dot("Responses")).Block(
			jen.Id("result").Op("=").Append(jen.Id("result"), jen.Id("resp").Dot("Item")),
		)
		g.Return(jen.Id("result"), jen.Nil())
	})
}
