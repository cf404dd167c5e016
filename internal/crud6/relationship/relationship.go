// Package relationship resolves and builds nested-listing queries for
// GET /api/crud6/{model}/{id}/{relation}, joining against a declarative
// RelationshipSpec or DetailSpec instead of gorm's struct-tag driven
// Preload.
package relationship

import (
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/forbearing/crud6/internal/crud6/schema"
	"github.com/forbearing/crud6/internal/crud6/sprunje"
	crud6types "github.com/forbearing/crud6/types"
)

// quoteColumn returns "table"."column" (or the dialect's equivalent)
// quoted via q's own dialector, the same clause.Column-based quoting
// sprunje.go's sort/order handling already relies on. Pivot/through table
// and key names come straight from schema files an administrator authors,
// so they're never interpolated into raw SQL unescaped.
func quoteColumn(q *gorm.DB, table, column string) string {
	return q.Statement.Quote(clause.Column{Table: table, Name: column})
}

// Resolution is what Resolve finds for a given relation name.
type Resolution struct {
	Relationship *schema.RelationshipSpec
	Detail       *schema.DetailSpec
	RelatedModel string
}

// Resolve looks up relation against the parent schema: an explicit
// relationships entry, then a details entry, else KindNotFound.
func Resolve(parent *schema.Schema, relation string) (*Resolution, error) {
	if rel := parent.FindRelationship(relation); rel != nil {
		return &Resolution{Relationship: rel, RelatedModel: rel.Model}, nil
	}
	if det := parent.FindDetail(relation); det != nil {
		return &Resolution{Detail: det, RelatedModel: det.Model}, nil
	}
	return nil, crud6types.NewError(crud6types.KindNotFound, "unknown relation \""+relation+"\"")
}

// Build constructs the Sprunje that lists related's rows scoped to
// parentID, per res's kind. related is the target entity's own loaded
// schema, which drives the sortable/filterable/listable/searchable sets.
func Build(db *gorm.DB, related *schema.Schema, res *Resolution, parentID any) (*sprunje.Sprunje, error) {
	switch {
	case res.Relationship != nil:
		return buildRelationship(db, related, res.Relationship, parentID)
	case res.Detail != nil:
		return buildDetail(db, related, res.Detail, parentID)
	default:
		return nil, crud6types.NewError(crud6types.KindInternal, "resolution carries neither relationship nor detail")
	}
}

func buildRelationship(db *gorm.DB, related *schema.Schema, rel *schema.RelationshipSpec, parentID any) (*sprunje.Sprunje, error) {
	view := withListFieldsOverride(related, rel.ListFields)
	sp := sprunje.New(db, view)

	switch rel.Type {
	case schema.RelationshipManyToMany:
		if rel.PivotTable == "" || rel.ForeignKey == "" {
			return nil, crud6types.NewError(crud6types.KindInternal, "relationship \""+rel.Name+"\" is missing pivot_table/foreign_key")
		}
		relatedKey := rel.RelatedKey
		if relatedKey == "" {
			relatedKey = related.PrimaryKey
		}
		sp.WithBase(func(q *gorm.DB) *gorm.DB {
			join := fmt.Sprintf("JOIN %s ON %s = %s",
				q.Statement.Quote(rel.PivotTable),
				quoteColumn(q, rel.PivotTable, relatedKey),
				quoteColumn(q, related.Table, related.PrimaryKey),
			)
			return q.Joins(join).Where(fmt.Sprintf("%s = ?", quoteColumn(q, rel.PivotTable, rel.ForeignKey)), parentID)
		})
		return sp, nil

	case schema.RelationshipBelongsToManyThrough:
		if len(rel.Through) == 0 {
			return nil, crud6types.NewError(crud6types.KindInternal, "relationship \""+rel.Name+"\" declares no through chain")
		}
		sp.WithBase(func(q *gorm.DB) *gorm.DB {
			q = joinThroughChain(q, related.Table, related.PrimaryKey, rel.Through)
			first := rel.Through[0]
			return q.Where(fmt.Sprintf("%s = ?", quoteColumn(q, first.Table, first.ForeignKey)), parentID)
		})
		return sp, nil

	default:
		return nil, crud6types.NewError(crud6types.KindInternal, "unknown relationship type \""+string(rel.Type)+"\"")
	}
}

func buildDetail(db *gorm.DB, related *schema.Schema, detail *schema.DetailSpec, parentID any) (*sprunje.Sprunje, error) {
	if detail.ForeignKey == "" {
		return nil, crud6types.NewError(crud6types.KindInternal, "detail \""+detail.Model+"\" is missing foreign_key")
	}
	view := withListFieldsOverride(related, detail.ListFields)
	sp := sprunje.New(db, view).WithBase(func(q *gorm.DB) *gorm.DB {
		return q.Where(fmt.Sprintf("%s = ?", quoteColumn(q, related.Table, detail.ForeignKey)), parentID)
	})
	return sp, nil
}

// joinThroughChain composes a belongs_to_many_through chain into successive
// JOINs starting from the related table and walking backward to the hop
// nearest the parent. through[0] ends up nearest the parent; its ForeignKey
// is what the caller filters against the parent's primary key.
func joinThroughChain(q *gorm.DB, relatedTable, relatedPK string, through []schema.ThroughStep) *gorm.DB {
	prevTable, prevKey := relatedTable, relatedPK
	for i := len(through) - 1; i >= 0; i-- {
		step := through[i]
		join := fmt.Sprintf("JOIN %s ON %s = %s",
			q.Statement.Quote(step.Table),
			quoteColumn(q, step.Table, step.RelatedKey),
			quoteColumn(q, prevTable, prevKey),
		)
		q = q.Joins(join)
		prevTable, prevKey = step.Table, step.ForeignKey
	}
	return q
}

// withListFieldsOverride returns s unchanged when listFields is empty,
// otherwise a shallow copy whose Fields carry an adjusted Listable flag
// restricted to listFields: a DetailSpec's list_fields, when set, overrides
// the listable set.
func withListFieldsOverride(s *schema.Schema, listFields []string) *schema.Schema {
	if len(listFields) == 0 {
		return s
	}
	allow := make(map[string]bool, len(listFields))
	for _, f := range listFields {
		allow[f] = true
	}
	clone := *s
	clone.Fields = make(map[string]*schema.FieldSpec, len(s.Fields))
	for name, f := range s.Fields {
		fc := *f
		fc.Listable = allow[name]
		clone.Fields[name] = &fc
	}
	return &clone
}
