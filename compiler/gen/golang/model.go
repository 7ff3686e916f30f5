package golang

import (
	"fmt"
	"strings"

	"github.com/dave/jennifer/jen"

	"github.com/tabledsl/ddbgen/compiler/gen"
	"github.com/tabledsl/ddbgen/schema"
	"github.com/tabledsl/ddbgen/schema/keytemplate"
)

// discriminatorAttr is the item attribute carrying the entity discriminator
// tag. Every written item gets one so heterogeneous reads can route items
// back to their entity type.
const discriminatorAttr = "_et"

// modelFile renders the entity struct, its discriminator constant, the key
// builder functions, and the Item marshal helper.
func modelFile(pkg string, e *gen.Entity) *jen.File {
	f := newFile(pkg)

	f.Commentf("%sTag discriminates %s items in heterogeneous reads.", e.Name, e.Name)
	f.Const().Id(e.Name + "Tag").Op("=").Lit(e.Tag)

	genStruct(f, e)
	genPrimaryKeyBuilder(f, e)
	for _, ik := range e.IndexKeys {
		genIndexKeyBuilder(f, e, ik)
	}
	genItemMethod(f, e)
	return f
}

func genStruct(f *jen.File, e *gen.Entity) {
	f.Commentf("%s is one %s item in table %s.", e.Name, e.Tag, e.Table.Name)
	f.Type().Id(e.Name).StructFunc(func(g *jen.Group) {
		for _, fld := range e.Fields {
			tag := fld.Name
			if !fld.Required {
				tag += ",omitempty"
			}
			g.Id(exported(fld.Name)).Add(goType(fld)).Tag(map[string]string{"dynamodbav": tag})
		}
	})
}

// genPrimaryKeyBuilder renders {Entity}Key, taking the fields the key
// templates reference and returning the marshaled primary key item.
func genPrimaryKeyBuilder(f *jen.File, e *gen.Entity) {
	steps := gen.PrimaryKeySteps(e)
	f.Commentf("%sKey builds the primary key item for a %s.", e.Name, e.Name)
	genKeyBuilder(f, e, e.Name+"Key", steps)
}

// genIndexKeyBuilder renders {Entity}{Index}Key for one secondary index
// mapping.
func genIndexKeyBuilder(f *jen.File, e *gen.Entity, ik *gen.IndexKey) {
	steps := gen.IndexKeySteps(e, ik)
	name := e.Name + exported(ik.Index.Name) + "Key"
	f.Commentf("%s builds the %s key item for a %s.", name, ik.Index.Name, e.Name)
	genKeyBuilder(f, e, name, steps)
}

func genKeyBuilder(f *jen.File, e *gen.Entity, name string, steps []gen.KeyStep) {
	fields := stepFields(steps)
	f.Func().Id(name).ParamsFunc(func(g *jen.Group) {
		for _, fn := range fields {
			g.Id(local(fn)).Add(fieldParamType(e, fn))
		}
	}).Params(
		jen.Map(jen.String()).Qual(ddbTypesPkg, "AttributeValue"),
		jen.Error(),
	).BlockFunc(func(g *jen.Group) {
		g.Id("item").Op(":=").Make(jen.Map(jen.String()).Qual(ddbTypesPkg, "AttributeValue"), jen.Lit(len(steps)))
		for i, step := range steps {
			if step.RawNumeric {
				av := fmt.Sprintf("av%d", i)
				g.List(jen.Id(av), jen.Err()).Op(":=").Qual(attrValuePkg, "Marshal").Call(jen.Id(local(step.Template.Fields()[0])))
				g.If(jen.Err().Op("!=").Nil()).Block(jen.Return(jen.Nil(), jen.Err()))
				g.Id("item").Index(jen.Lit(step.Attribute)).Op("=").Id(av)
				continue
			}
			format, args := templateFormat(step.Template, func(fn string) jen.Code { return jen.Id(local(fn)) })
			g.Id("item").Index(jen.Lit(step.Attribute)).Op("=").Op("&").Qual(ddbTypesPkg, "AttributeValueMemberS").Values(
				jen.Id("Value").Op(":").Qual("fmt", "Sprintf").Call(append([]jen.Code{jen.Lit(format)}, args...)...),
			)
		}
		g.Return(jen.Id("item"), jen.Nil())
	})
}

// genItemMethod renders Item, which marshals the entity plus its computed
// key attributes and discriminator tag into a writable item.
func genItemMethod(f *jen.File, e *gen.Entity) {
	recv := strings.ToLower(e.Name[:1])
	keyFields := e.KeyFields()
	f.Commentf("Item marshals the %s with its key attributes and discriminator tag.", e.Name)
	f.Func().Params(jen.Id(recv).Op("*").Id(e.Name)).Id("Item").Params().Params(
		jen.Map(jen.String()).Qual(ddbTypesPkg, "AttributeValue"),
		jen.Error(),
	).BlockFunc(func(g *jen.Group) {
		g.List(jen.Id("item"), jen.Err()).Op(":=").Qual(attrValuePkg, "MarshalMap").Call(jen.Id(recv))
		g.If(jen.Err().Op("!=").Nil()).Block(jen.Return(jen.Nil(), jen.Err()))
		g.List(jen.Id("key"), jen.Err()).Op(":=").Id(e.Name + "Key").CallFunc(func(c *jen.Group) {
			for _, fn := range keyFields {
				c.Add(structFieldValue(e, recv, fn))
			}
		})
		g.If(jen.Err().Op("!=").Nil()).Block(jen.Return(jen.Nil(), jen.Err()))
		g.For(jen.List(jen.Id("k"), jen.Id("v")).Op(":=").Range().Id("key")).Block(
			jen.Id("item").Index(jen.Id("k")).Op("=").Id("v"),
		)
		g.Id("item").Index(jen.Lit(discriminatorAttr)).Op("=").Op("&").Qual(ddbTypesPkg, "AttributeValueMemberS").Values(
			jen.Id("Value").Op(":").Id(e.Name + "Tag"),
		)
		g.Return(jen.Id("item"), jen.Nil())
	})
}

// structFieldValue references a struct field, dereferencing optional scalars
// through the aws pointer helpers.
func structFieldValue(e *gen.Entity, recv, fieldName string) jen.Code {
	ref := jen.Id(recv).Dot(exported(fieldName))
	fld := e.Field(fieldName)
	if fld == nil || fld.Required || !pointerable(fld.Kind) {
		return ref
	}
	switch fld.Kind {
	case schema.KindInteger:
		return jen.Qual(awsPkg, "ToInt64").Call(ref)
	case schema.KindDecimal:
		return jen.Qual(awsPkg, "ToFloat64").Call(ref)
	case schema.KindBoolean:
		return jen.Qual(awsPkg, "ToBool").Call(ref)
	default:
		return jen.Qual(awsPkg, "ToString").Call(ref)
	}
}

// fieldParamType returns the parameter type for a key builder argument.
func fieldParamType(e *gen.Entity, fieldName string) *jen.Statement {
	if fld := e.Field(fieldName); fld != nil {
		return primitiveCode(fld.Kind, fld.Element)
	}
	return jen.String()
}

// stepFields returns the distinct template fields across the steps in first
// appearance order.
func stepFields(steps []gen.KeyStep) []string {
	var out []string
	seen := make(map[string]bool)
	for _, step := range steps {
		for _, fn := range step.Template.Fields() {
			if !seen[fn] {
				seen[fn] = true
				out = append(out, fn)
			}
		}
	}
	return out
}

// templateFormat flattens a key template into a Sprintf format string plus
// the argument expressions for its field segments.
func templateFormat(t *keytemplate.Template, arg func(name string) jen.Code) (string, []jen.Code) {
	var b strings.Builder
	var args []jen.Code
	for _, seg := range t.Segments {
		if seg.Field != "" {
			b.WriteString("%v")
			args = append(args, arg(seg.Field))
			continue
		}
		b.WriteString(strings.ReplaceAll(seg.Literal, "%", "%%"))
	}
	return b.String(), args
}
