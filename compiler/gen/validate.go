package gen

import (
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/tabledsl/ddbgen"
	"github.com/tabledsl/ddbgen/compiler/load"
	"github.com/tabledsl/ddbgen/schema"
)

// Validate applies every semantic rule group to the document and returns the
// accumulated diagnostics. It never stops on the first failure: each group
// walks the whole document so the caller can surface all violations at once.
// Generation must never run against a document with outstanding diagnostics.
func Validate(doc *load.Document) *ddbgen.Diagnostics {
	diags := ddbgen.NewDiagnostics()
	v := &docValidator{doc: doc, diags: diags}
	v.checkGlobalUniqueness()
	v.checkTables()
	v.checkEntities()
	v.checkTransactions()
	return diags
}

// docValidator carries the document and the shared diagnostics sink through
// the rule groups. The sink supports concurrent append; per-entity groups run
// in parallel.
type docValidator struct {
	doc   *load.Document
	diags *ddbgen.Diagnostics
}

// checkGlobalUniqueness enforces document-wide uniqueness: table names,
// entity names, and pattern ids across both per-table and cross-table
// patterns. A pattern id reused anywhere in the document is a violation even
// when the two patterns are scoped to different tables.
func (v *docValidator) checkGlobalUniqueness() {
	tableSeen := make(map[string]string)
	entitySeen := make(map[string]string)
	idSeen := make(map[int]string)

	for ti, t := range v.doc.Tables {
		tPath := fmt.Sprintf("tables[%d]", ti)
		if t.Name != "" {
			if prev, ok := tableSeen[t.Name]; ok {
				v.diags.Append(ddbgen.UniquenessViolation(tPath, prev, "duplicate table name %q", t.Name))
			} else {
				tableSeen[t.Name] = tPath
			}
		}
		for ei, e := range t.Entities {
			ePath := fmt.Sprintf("%s.entities[%d]", tPath, ei)
			if e.Name != "" {
				if prev, ok := entitySeen[e.Name]; ok {
					v.diags.Append(ddbgen.UniquenessViolation(ePath, prev, "duplicate entity name %q", e.Name))
				} else {
					entitySeen[e.Name] = ePath
				}
			}
			for pi, p := range e.AccessPatterns {
				if p.ID == nil {
					continue // structurally flagged by the loader
				}
				pPath := fmt.Sprintf("%s.access_patterns[%d]", ePath, pi)
				if prev, ok := idSeen[*p.ID]; ok {
					v.diags.Append(ddbgen.UniquenessViolation(pPath, prev, "duplicate pattern id %d", *p.ID))
				} else {
					idSeen[*p.ID] = pPath
				}
			}
		}
	}
	for xi, p := range v.doc.CrossTablePatterns {
		if p.ID == nil {
			continue
		}
		pPath := fmt.Sprintf("cross_table_access_patterns[%d]", xi)
		if prev, ok := idSeen[*p.ID]; ok {
			v.diags.Append(ddbgen.UniquenessViolation(pPath, prev, "duplicate pattern id %d", *p.ID))
		} else {
			idSeen[*p.ID] = pPath
		}
	}
}

// checkTables enforces the per-table index rules: name uniqueness,
// multi-attribute key cardinality, projection enum membership, and the
// Include projection attribute rules.
func (v *docValidator) checkTables() {
	for ti, t := range v.doc.Tables {
		tPath := fmt.Sprintf("tables[%d]", ti)
		indexSeen := make(map[string]string)
		for ii, idx := range t.Indexes {
			iPath := fmt.Sprintf("%s.indexes[%d]", tPath, ii)
			if idx.Name != "" {
				if prev, ok := indexSeen[idx.Name]; ok {
					v.diags.Append(ddbgen.UniquenessViolation(iPath, prev, "duplicate index name %q", idx.Name))
				} else {
					indexSeen[idx.Name] = iPath
				}
			}
			v.checkIndexKeyArity(iPath+".partition_key", idx.Name, "partition", idx.PartitionKey)
			v.checkIndexKeyArity(iPath+".sort_key", idx.Name, "sort", idx.SortKey)
			v.checkProjection(iPath, t, idx)
		}
	}
}

// checkIndexKeyArity enforces the 1–4 attribute limit on multi-attribute
// index keys.
func (v *docValidator) checkIndexKeyArity(path, index, role string, keys load.StringList) {
	if len(keys) > schema.MaxCompositeKeyParts {
		v.diags.Append(ddbgen.CardinalityError(path,
			"index %q %s key is composed of %d attributes, at most %d allowed",
			index, role, len(keys), schema.MaxCompositeKeyParts))
	}
}

// checkProjection enforces projection enum membership and the Include rules:
// the included-attribute list is non-empty exactly when the projection is
// include, and never lists a key attribute.
func (v *docValidator) checkProjection(iPath string, t *load.Table, idx *load.Index) {
	if idx.Projection == "" {
		if len(idx.Include) > 0 {
			v.diags.Append(ddbgen.ConsistencyError(iPath+".include",
				"index %q lists included attributes but its projection is not %q", idx.Name, schema.ProjectInclude))
		}
		return
	}
	proj := schema.Projection(idx.Projection)
	if !proj.Valid() {
		v.diags.Append(ddbgen.EnumViolation(iPath+".projection", idx.Projection,
			schema.Suggest(idx.Projection, schema.Projections()), schema.Projections()))
		return
	}
	switch {
	case proj == schema.ProjectInclude && len(idx.Include) == 0:
		v.diags.Append(ddbgen.ConsistencyError(iPath+".include",
			"index %q has projection %q but an empty included-attribute list", idx.Name, schema.ProjectInclude))
	case proj != schema.ProjectInclude && len(idx.Include) > 0:
		v.diags.Append(ddbgen.ConsistencyError(iPath+".include",
			"index %q lists included attributes but its projection is %q", idx.Name, proj))
	}
	keyAttrs := make(map[string]bool)
	keyAttrs[t.PartitionKey] = true
	if t.SortKey != "" {
		keyAttrs[t.SortKey] = true
	}
	for _, a := range idx.PartitionKey {
		keyAttrs[a] = true
	}
	for _, a := range idx.SortKey {
		keyAttrs[a] = true
	}
	for _, a := range idx.Include {
		if keyAttrs[a] {
			v.diags.Append(ddbgen.ConsistencyError(iPath+".include",
				"index %q includes key attribute %q; projections carry key attributes implicitly", idx.Name, a))
		}
	}
}

// checkEntities runs the per-entity rule groups. Entities share no mutable
// state except the diagnostics sink, so they are checked in parallel.
func (v *docValidator) checkEntities() {
	var eg errgroup.Group
	eg.SetLimit(runtime.GOMAXPROCS(0))
	for ti, t := range v.doc.Tables {
		for ei, e := range t.Entities {
			ti, t, ei, e := ti, t, ei, e
			eg.Go(func() error {
				v.checkEntity(fmt.Sprintf("tables[%d].entities[%d]", ti, ei), t, e)
				return nil
			})
		}
	}
	// Workers only append diagnostics; the group never carries an error.
	_ = eg.Wait()
}
