package golang

import (
	"fmt"
	"strings"

	"github.com/dave/jennifer/jen"

	"github.com/tabledsl/ddbgen/compiler/gen"
	"github.com/tabledsl/ddbgen/schema"
)

// repositoryFile renders the per-entity repository: a thin client wrapper
// with one method per access pattern.
func repositoryFile(pkg string, e *gen.Entity, patterns []*gen.ResolvedPattern) (*jen.File, error) {
	f := newFile(pkg)

	repo := e.Name + "Repo"
	f.Commentf("%s executes the %s access patterns.", repo, e.Name)
	f.Type().Id(repo).Struct(
		jen.Id("client").Op("*").Qual(dynamodbPkg, "Client"),
		jen.Id("table").String(),
	)

	f.Commentf("New%s returns a repository bound to table %s.", repo, e.Table.Name)
	f.Func().Id("New"+repo).Params(jen.Id("client").Op("*").Qual(dynamodbPkg, "Client")).Op("*").Id(repo).Block(
		jen.Return(jen.Op("&").Id(repo).Values(
			jen.Id("client").Op(":").Id("client"),
			jen.Id("table").Op(":").Lit(e.Table.Name),
		)),
	)

	f.Comment("WithTable overrides the target table name.")
	f.Func().Params(jen.Id("r").Op("*").Id(repo)).Id("WithTable").Params(jen.Id("name").String()).Op("*").Id(repo).Block(
		jen.Id("r").Dot("table").Op("=").Id("name"),
		jen.Return(jen.Id("r")),
	)

	for _, rp := range patterns {
		if err := genPatternMethod(f, repo, e, rp); err != nil {
			return nil, err
		}
	}
	return f, nil
}

func genPatternMethod(f *jen.File, repo string, e *gen.Entity, rp *gen.ResolvedPattern) error {
	switch rp.Pattern.Operation {
	case schema.OpGet:
		genGet(f, repo, e, rp)
	case schema.OpQuery:
		genQuery(f, repo, e, rp)
	case schema.OpScan:
		genScan(f, repo, e, rp)
	case schema.OpPut:
		genPut(f, repo, e, rp)
	case schema.OpDelete:
		genDelete(f, repo, e, rp)
	case schema.OpUpdate:
		genUpdate(f, repo, e, rp)
	case schema.OpBatchGet:
		genBatchGet(f, repo, e, rp)
	case schema.OpBatchWrite:
		genBatchWrite(f, repo, e, rp)
	default:
		return fmt.Errorf("golang: pattern %q: unsupported operation %q", rp.Pattern.Name, rp.Pattern.Operation)
	}
	return nil
}

// methodName turns a pattern name into the repository method name.
func methodName(rp *gen.ResolvedPattern) string { return exported(rp.Pattern.Name) }

// keyArgs declares the method parameters feeding the pattern's key plan.
func keyArgs(g *jen.Group, e *gen.Entity, steps []gen.KeyStep) {
	for _, fn := range stepFields(steps) {
		g.Id(local(fn)).Add(fieldParamType(e, fn))
	}
}

func paramArgs(g *jen.Group, params []*gen.Parameter) {
	for _, p := range params {
		g.Id(local(p.Name)).Add(paramType(p.Kind))
	}
}

// resultType returns the method result type for a read pattern: the typed
// entity when the projection supports it, a raw item otherwise.
func resultType(e *gen.Entity, rp *gen.ResolvedPattern) *jen.Statement {
	if rp.Response.TypedEntity {
		return jen.Op("*").Id(e.Name)
	}
	return jen.Map(jen.String()).Qual(ddbTypesPkg, "AttributeValue")
}

func listResultType(e *gen.Entity, rp *gen.ResolvedPattern) *jen.Statement {
	return jen.Index().Add(resultType(e, rp))
}

// genUnmarshalItem appends code converting one raw item into the method's
// result value, honoring the typed-entity decision.
func genUnmarshalItem(g *jen.Group, e *gen.Entity, rp *gen.ResolvedPattern, item jen.Code) {
	if !rp.Response.TypedEntity {
		g.Return(item, jen.Nil())
		return
	}
	g.Var().Id("out").Id(e.Name)
	g.If(jen.Err().Op(":=").Qual(attrValuePkg, "UnmarshalMap").Call(item, jen.Op("&").Id("out")), jen.Err().Op("!=").Nil()).Block(
		jen.Return(jen.Nil(), jen.Err()),
	)
	g.Return(jen.Op("&").Id("out"), jen.Nil())
}

func genGet(f *jen.File, repo string, e *gen.Entity, rp *gen.ResolvedPattern) {
	p := rp.Pattern
	f.Commentf("%s reads one %s by primary key.", methodName(rp), e.Name)
	f.Func().Params(jen.Id("r").Op("*").Id(repo)).Id(methodName(rp)).ParamsFunc(func(g *jen.Group) {
		g.Id("ctx").Qual("context", "Context")
		keyArgs(g, e, rp.KeyPlan)
	}).Params(resultType(e, rp), jen.Error()).BlockFunc(func(g *jen.Group) {
		genKeyFromSteps(g, e, rp.KeyPlan)
		input := []jen.Code{
			jen.Id("TableName").Op(":").Qual(awsPkg, "String").Call(jen.Id("r").Dot("table")),
			jen.Id("Key").Op(":").Id("key"),
		}
		if p.ConsistentRead {
			input = append(input, jen.Id("ConsistentRead").Op(":").Qual(awsPkg, "Bool").Call(jen.True()))
		}
		g.List(jen.Id("out"), jen.Err()).Op(":=").Id("r").Dot("client").Dot("GetItem").Call(
			jen.Id("ctx"), jen.Op("&").Qual(dynamodbPkg, "GetItemInput").Values(input...),
		)
		g.If(jen.Err().Op("!=").Nil()).Block(jen.Return(jen.Nil(), jen.Err()))
		g.If(jen.Id("out").Dot("Item").Op("==").Nil()).Block(jen.Return(jen.Nil(), jen.Nil()))
		genUnmarshalItem(g, e, rp, jen.Id("out").Dot("Item"))
	})
}

// genKeyFromSteps emits "key, err := {Entity}Key(...)" or the index variant,
// matching the key plan.
func genKeyFromSteps(g *jen.Group, e *gen.Entity, steps []gen.KeyStep) {
	builder := e.Name + "Key"
	if ik := matchingIndexKey(e, steps); ik != nil {
		builder = e.Name + exported(ik.Index.Name) + "Key"
	}
	g.List(jen.Id("key"), jen.Err()).Op(":=").Id(builder).CallFunc(func(c *jen.Group) {
		for _, fn := range stepFields(steps) {
			c.Id(local(fn))
		}
	})
	g.If(jen.Err().Op("!=").Nil()).Block(jen.Return(jen.Nil(), jen.Err()))
}

func matchingIndexKey(e *gen.Entity, steps []gen.KeyStep) *gen.IndexKey {
	if len(steps) == 0 {
		return nil
	}
	for _, ik := range e.IndexKeys {
		for _, attr := range ik.Index.PartitionKeys {
			if attr == steps[0].Attribute && steps[0].Attribute != e.Table.PartitionKey {
				return ik
			}
		}
	}
	return nil
}

func genQuery(f *jen.File, repo string, e *gen.Entity, rp *gen.ResolvedPattern) {
	p := rp.Pattern
	plan := gen.QueryPlan(rp)
	f.Commentf("%s queries %s items%s.", methodName(rp), e.Name, queryDocSuffix(p))
	f.Func().Params(jen.Id("r").Op("*").Id(repo)).Id(methodName(rp)).ParamsFunc(func(g *jen.Group) {
		g.Id("ctx").Qual("context", "Context")
		keyArgs(g, e, plan.Partition)
		paramArgs(g, rp.RangeParameters)
		paramArgs(g, rp.FilterParameters)
	}).Params(listResultType(e, rp), jen.Error()).BlockFunc(func(g *jen.Group) {
		genExprMaps(g, rp, plan)
		input := []jen.Code{
			jen.Id("TableName").Op(":").Qual(awsPkg, "String").Call(jen.Id("r").Dot("table")),
			jen.Id("KeyConditionExpression").Op(":").Qual(awsPkg, "String").Call(jen.Lit(plan.Condition)),
			jen.Id("ExpressionAttributeNames").Op(":").Id("names"),
			jen.Id("ExpressionAttributeValues").Op(":").Id("values"),
		}
		if p.Index != nil {
			input = append(input, jen.Id("IndexName").Op(":").Qual(awsPkg, "String").Call(jen.Lit(p.Index.Name)))
		}
		if p.ConsistentRead {
			input = append(input, jen.Id("ConsistentRead").Op(":").Qual(awsPkg, "Bool").Call(jen.True()))
		}
		if p.Filter != nil {
			input = append(input, jen.Id("FilterExpression").Op(":").Qual(awsPkg, "String").Call(jen.Lit(gen.FilterExpression(p.Filter))))
		}
		g.Id("input").Op(":=").Op("&").Qual(dynamodbPkg, "QueryInput").Values(input...)
		genPagedCollect(g, e, rp, "Query")
	})
}

func genScan(f *jen.File, repo string, e *gen.Entity, rp *gen.ResolvedPattern) {
	p := rp.Pattern
	f.Commentf("%s scans the table for %s items.", methodName(rp), e.Name)
	f.Func().Params(jen.Id("r").Op("*").Id(repo)).Id(methodName(rp)).ParamsFunc(func(g *jen.Group) {
		g.Id("ctx").Qual("context", "Context")
		paramArgs(g, rp.FilterParameters)
	}).Params(listResultType(e, rp), jen.Error()).BlockFunc(func(g *jen.Group) {
		input := []jen.Code{
			jen.Id("TableName").Op(":").Qual(awsPkg, "String").Call(jen.Id("r").Dot("table")),
		}
		if p.Index != nil {
			input = append(input, jen.Id("IndexName").Op(":").Qual(awsPkg, "String").Call(jen.Lit(p.Index.Name)))
		}
		if p.Filter != nil {
			genFilterMaps(g, rp)
			input = append(input,
				jen.Id("FilterExpression").Op(":").Qual(awsPkg, "String").Call(jen.Lit(gen.FilterExpression(p.Filter))),
				jen.Id("ExpressionAttributeNames").Op(":").Id("names"),
				jen.Id("ExpressionAttributeValues").Op(":").Id("values"),
			)
		}
		g.Id("input").Op(":=").Op("&").Qual(dynamodbPkg, "ScanInput").Values(input...)
		genPagedCollect(g, e, rp, "Scan")
	})
}

// genPagedCollect emits the page loop shared by Query and Scan.
func genPagedCollect(g *jen.Group, e *gen.Entity, rp *gen.ResolvedPattern, call string) {
	g.Var().Id("items").Index().Map(jen.String()).Qual(ddbTypesPkg, "AttributeValue")
	g.For().BlockFunc(func(loop *jen.Group) {
		loop.List(jen.Id("out"), jen.Err()).Op(":=").Id("r").Dot("client").Dot(call).Call(jen.Id("ctx"), jen.Id("input"))
		loop.If(jen.Err().Op("!=").Nil()).Block(jen.Return(jen.Nil(), jen.Err()))
		loop.Id("items").Op("=").Append(jen.Id("items"), jen.Id("out").Dot("Items").Op("..."))
		loop.If(jen.Id("out").Dot("LastEvaluatedKey").Op("==").Nil()).Block(jen.Break())
		loop.Id("input").Dot("ExclusiveStartKey").Op("=").Id("out").Dot("LastEvaluatedKey")
	})
	if !rp.Response.TypedEntity {
		g.Return(jen.Id("items"), jen.Nil())
		return
	}
	g.Id("result").Op(":=").Make(jen.Index().Op("*").Id(e.Name), jen.Lit(0), jen.Len(jen.Id("items")))
	g.For(jen.List(jen.Id("_"), jen.Id("item")).Op(":=").Range().Id("items")).BlockFunc(func(loop *jen.Group) {
		loop.Var().Id("out").Id(e.Name)
		loop.If(jen.Err().Op(":=").Qual(attrValuePkg, "UnmarshalMap").Call(jen.Id("item"), jen.Op("&").Id("out")), jen.Err().Op("!=").Nil()).Block(
			jen.Return(jen.Nil(), jen.Err()),
		)
		loop.Id("result").Op("=").Append(jen.Id("result"), jen.Op("&").Id("out"))
	})
	g.Return(jen.Id("result"), jen.Nil())
}

func genPut(f *jen.File, repo string, e *gen.Entity, rp *gen.ResolvedPattern) {
	arg := local(e.Name)
	f.Commentf("%s writes one %s item.", methodName(rp), e.Name)
	f.Func().Params(jen.Id("r").Op("*").Id(repo)).Id(methodName(rp)).Params(
		jen.Id("ctx").Qual("context", "Context"),
		jen.Id(arg).Op("*").Id(e.Name),
	).Error().BlockFunc(func(g *jen.Group) {
		g.List(jen.Id("item"), jen.Err()).Op(":=").Id(arg).Dot("Item").Call()
		g.If(jen.Err().Op("!=").Nil()).Block(jen.Return(jen.Err()))
		g.List(jen.Id("_"), jen.Err()).Op("=").Id("r").Dot("client").Dot("PutItem").Call(
			jen.Id("ctx"), jen.Op("&").Qual(dynamodbPkg, "PutItemInput").Values(
				jen.Id("TableName").Op(":").Qual(awsPkg, "String").Call(jen.Id("r").Dot("table")),
				jen.Id("Item").Op(":").Id("item"),
			),
		)
		g.Return(jen.Err())
	})
}

func genDelete(f *jen.File, repo string, e *gen.Entity, rp *gen.ResolvedPattern) {
	f.Commentf("%s deletes one %s by primary key.", methodName(rp), e.Name)
	f.Func().Params(jen.Id("r").Op("*").Id(repo)).Id(methodName(rp)).ParamsFunc(func(g *jen.Group) {
		g.Id("ctx").Qual("context", "Context")
		keyArgs(g, e, rp.KeyPlan)
	}).Error().BlockFunc(func(g *jen.Group) {
		g.List(jen.Id("key"), jen.Err()).Op(":=").Id(e.Name + "Key").CallFunc(func(c *jen.Group) {
			for _, fn := range stepFields(rp.KeyPlan) {
				c.Id(local(fn))
			}
		})
		g.If(jen.Err().Op("!=").Nil()).Block(jen.Return(jen.Err()))
		g.List(jen.Id("_"), jen.Err()).Op("=").Id("r").Dot("client").Dot("DeleteItem").Call(
			jen.Id("ctx"), jen.Op("&").Qual(dynamodbPkg, "DeleteItemInput").Values(
				jen.Id("TableName").Op(":").Qual(awsPkg, "String").Call(jen.Id("r").Dot("table")),
				jen.Id("Key").Op(":").Id("key"),
			),
		)
		g.Return(jen.Err())
	})
}

func genUpdate(f *jen.File, repo string, e *gen.Entity, rp *gen.ResolvedPattern) {
	f.Commentf("%s updates %s fields in place.", methodName(rp), e.Name)
	f.Func().Params(jen.Id("r").Op("*").Id(repo)).Id(methodName(rp)).ParamsFunc(func(g *jen.Group) {
		g.Id("ctx").Qual("context", "Context")
		keyArgs(g, e, rp.KeyPlan)
		paramArgs(g, rp.BodyParameters)
	}).Error().BlockFunc(func(g *jen.Group) {
		g.List(jen.Id("key"), jen.Err()).Op(":=").Id(e.Name + "Key").CallFunc(func(c *jen.Group) {
			for _, fn := range stepFields(rp.KeyPlan) {
				c.Id(local(fn))
			}
		})
		g.If(jen.Err().Op("!=").Nil()).Block(jen.Return(jen.Err()))
		var sets []string
		g.Id("names").Op(":=").Map(jen.String()).String().ValuesFunc(func(vals *jen.Group) {
			for i, p := range rp.BodyParameters {
				vals.Lit(fmt.Sprintf("#b%d", i)).Op(":").Lit(p.Name)
				sets = append(sets, fmt.Sprintf("#b%d = :b%d", i, i))
			}
		})
		g.Id("values").Op(":=").Make(jen.Map(jen.String()).Qual(ddbTypesPkg, "AttributeValue"), jen.Lit(len(rp.BodyParameters)))
		for i, p := range rp.BodyParameters {
			genMarshalInto(g, fmt.Sprintf(":b%d", i), jen.Id(local(p.Name)), false)
		}
		g.List(jen.Id("_"), jen.Err()).Op("=").Id("r").Dot("client").Dot("UpdateItem").Call(
			jen.Id("ctx"), jen.Op("&").Qual(dynamodbPkg, "UpdateItemInput").Values(
				jen.Id("TableName").Op(":").Qual(awsPkg, "String").Call(jen.Id("r").Dot("table")),
				jen.Id("Key").Op(":").Id("key"),
				jen.Id("UpdateExpression").Op(":").Qual(awsPkg, "String").Call(jen.Lit("SET "+strings.Join(sets, ", "))),
				jen.Id("ExpressionAttributeNames").Op(":").Id("names"),
				jen.Id("ExpressionAttributeValues").Op(":").Id("values"),
			),
		)
		g.Return(jen.Err())
	})
}

func genBatchGet(f *jen.File, repo string, e *gen.Entity, rp *gen.ResolvedPattern) {
	f.Commentf("%s reads up to 100 %s items per request, chunking as needed.", methodName(rp), e.Name)
	f.Func().Params(jen.Id("r").Op("*").Id(repo)).Id(methodName(rp)).Params(
		jen.Id("ctx").Qual("context", "Context"),
		jen.Id("keys").Index().Map(jen.String()).Qual(ddbTypesPkg, "AttributeValue"),
	).Params(listResultType(e, rp), jen.Error()).BlockFunc(func(g *jen.Group) {
		g.Var().Id("items").Index().Map(jen.String()).Qual(ddbTypesPkg, "AttributeValue")
		g.For(jen.Len(jen.Id("keys")).Op(">").Lit(0)).BlockFunc(func(loop *jen.Group) {
			loop.Id("n").Op(":=").Id("min").Call(jen.Len(jen.Id("keys")), jen.Lit(100))
			loop.List(jen.Id("out"), jen.Err()).Op(":=").Id("r").Dot("client").Dot("BatchGetItem").Call(
				jen.Id("ctx"), jen.Op("&").Qual(dynamodbPkg, "BatchGetItemInput").Values(
					jen.Id("RequestItems").Op(":").Map(jen.String()).Qual(ddbTypesPkg, "KeysAndAttributes").Values(
						jen.Id("r").Dot("table").Op(":").Values(jen.Id("Keys").Op(":").Id("keys").Index(jen.Op(":").Id("n"))),
					),
				),
			)
			loop.If(jen.Err().Op("!=").Nil()).Block(jen.Return(jen.Nil(), jen.Err()))
			loop.Id("items").Op("=").Append(jen.Id("items"), jen.Id("out").Dot("Responses").Index(jen.Id("r").Dot("table")).Op("..."))
			loop.Id("keys").Op("=").Id("keys").Index(jen.Id("n").Op(":"))
		})
		if !rp.Response.TypedEntity {
			g.Return(jen.Id("items"), jen.Nil())
			return
		}
		g.Id("result").Op(":=").Make(jen.Index().Op("*").Id(e.Name), jen.Lit(0), jen.Len(jen.Id("items")))
		g.For(jen.List(jen.Id("_"), jen.Id("item")).Op(":=").Range().Id("items")).BlockFunc(func(loop *jen.Group) {
			loop.Var().Id("out").Id(e.Name)
			loop.If(jen.Err().Op(":=").Qual(attrValuePkg, "UnmarshalMap").Call(jen.Id("item"), jen.Op("&").Id("out")), jen.Err().Op("!=").Nil()).Block(
				jen.Return(jen.Nil(), jen.Err()),
			)
			loop.Id("result").Op("=").Append(jen.Id("result"), jen.Op("&").Id("out"))
		})
		g.Return(jen.Id("result"), jen.Nil())
	})
}

func genBatchWrite(f *jen.File, repo string, e *gen.Entity, rp *gen.ResolvedPattern) {
	f.Commentf("%s writes up to 25 %s items per request, chunking as needed.", methodName(rp), e.Name)
	f.Func().Params(jen.Id("r").Op("*").Id(repo)).Id(methodName(rp)).Params(
		jen.Id("ctx").Qual("context", "Context"),
		jen.Id("entities").Index().Op("*").Id(e.Name),
	).Error().BlockFunc(func(g *jen.Group) {
		g.Id("writes").Op(":=").Make(jen.Index().Qual(ddbTypesPkg, "WriteRequest"), jen.Lit(0), jen.Len(jen.Id("entities")))
		g.For(jen.List(jen.Id("_"), jen.Id("entity")).Op(":=").Range().Id("entities")).BlockFunc(func(loop *jen.Group) {
			loop.List(jen.Id("item"), jen.Err()).Op(":=").Id("entity").Dot("Item").Call()
			loop.If(jen.Err().Op("!=").Nil()).Block(jen.Return(jen.Err()))
			loop.Id("writes").Op("=").Append(jen.Id("writes"), jen.Qual(ddbTypesPkg, "WriteRequest").Values(
				jen.Id("PutRequest").Op(":").Op("&").Qual(ddbTypesPkg, "PutRequest").Values(jen.Id("Item").Op(":").Id("item")),
			))
		})
		g.For(jen.Len(jen.Id("writes")).Op(">").Lit(0)).BlockFunc(func(loop *jen.Group) {
			loop.Id("n").Op(":=").Id("min").Call(jen.Len(jen.Id("writes")), jen.Lit(25))
			loop.List(jen.Id("_"), jen.Err()).Op(":=").Id("r").Dot("client").Dot("BatchWriteItem").Call(
				jen.Id("ctx"), jen.Op("&").Qual(dynamodbPkg, "BatchWriteItemInput").Values(
					jen.Id("RequestItems").Op(":").Map(jen.String()).Index().Qual(ddbTypesPkg, "WriteRequest").Values(
						jen.Id("r").Dot("table").Op(":").Id("writes").Index(jen.Op(":").Id("n")),
					),
				),
			)
			loop.If(jen.Err().Op("!=").Nil()).Block(jen.Return(jen.Err()))
			loop.Id("writes").Op("=").Id("writes").Index(jen.Id("n").Op(":"))
		})
		g.Return(jen.Nil())
	})
}

func queryDocSuffix(p *gen.Pattern) string {
	if p.Index != nil {
		return " via " + p.Index.Name
	}
	return " by partition key"
}
