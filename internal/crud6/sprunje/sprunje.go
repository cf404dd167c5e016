// Package sprunje is the list query builder: it turns a query string plus
// a schema's declared sortable/filterable/listable/searchable sets into a
// paged result, driven by schema-declared field sets rather than
// reflecting over a Go struct's tags.
package sprunje

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/gorilla/schema"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	crud6schema "github.com/forbearing/crud6/internal/crud6/schema"
	crud6types "github.com/forbearing/crud6/types"
)

var decoder = schema.NewDecoder()

func init() {
	decoder.IgnoreUnknownKeys(true)
}

// SortParam is one parsed `sorts[field]=asc|desc` entry.
type SortParam struct {
	Field string
	Dir   string
}

// Params is the parsed form of a list query string.
type Params struct {
	Page    int
	Size    int
	Sorts   []SortParam
	Filters map[string]string
	Search  string
}

type rawParams struct {
	Page    int               `schema:"page"`
	Size    int               `schema:"size"`
	Search  string            `schema:"search"`
	Sorts   map[string]string `schema:"sorts"`
	Filters map[string]string `schema:"filters"`
}

// ParseParams decodes a raw query string's sprunje parameters. gorilla/schema
// decodes the bracketed "sorts[field]"/"filters[field]" keys into maps; sort
// request order (multiple sorts apply in request order) cannot survive a
// map, so it is separately recovered by re-walking the raw query string,
// which is the only place that order still exists.
func ParseParams(rawQuery string, defaultPageSize, maxPageSize int) (*Params, error) {
	values, err := url.ParseQuery(rawQuery)
	if err != nil {
		return nil, crud6types.Wrap(crud6types.KindBadRequest, err, "malformed query string")
	}
	var raw rawParams
	if err := decoder.Decode(&raw, values); err != nil {
		return nil, crud6types.Wrap(crud6types.KindBadRequest, err, "malformed query parameters")
	}

	size := raw.Size
	if size <= 0 {
		size = defaultPageSize
	}
	if maxPageSize > 0 && size > maxPageSize {
		size = maxPageSize
	}
	page := raw.Page
	if page < 0 {
		page = 0
	}

	return &Params{
		Page:    page,
		Size:    size,
		Search:  raw.Search,
		Filters: raw.Filters,
		Sorts:   sortsInOrder(rawQuery, raw.Sorts),
	}, nil
}

func sortsInOrder(rawQuery string, dirs map[string]string) []SortParam {
	var out []SortParam
	seen := map[string]bool{}
	for _, pair := range strings.Split(rawQuery, "&") {
		if pair == "" {
			continue
		}
		key := pair
		if idx := strings.IndexByte(pair, '='); idx >= 0 {
			key = pair[:idx]
		}
		key, err := url.QueryUnescape(key)
		if err != nil {
			continue
		}
		if !strings.HasPrefix(key, "sorts[") || !strings.HasSuffix(key, "]") {
			continue
		}
		field := strings.TrimSuffix(strings.TrimPrefix(key, "sorts["), "]")
		if seen[field] {
			continue
		}
		dir, ok := dirs[field]
		if !ok {
			continue
		}
		dir = strings.ToLower(dir)
		if dir != "asc" && dir != "desc" {
			continue
		}
		seen[field] = true
		out = append(out, SortParam{Field: field, Dir: dir})
	}
	return out
}

// Page is the sprunje result shape.
type Page struct {
	Count         int64             `json:"count"`
	CountFiltered int64             `json:"count_filtered"`
	Rows          []map[string]any  `json:"rows"`
	Listable      []string          `json:"listable"`
	Sortable      []string          `json:"sortable"`
	Filterable    []string          `json:"filterable"`
	Sorts         []SortParam       `json:"sorts"`
	Filters       map[string]string `json:"filters"`
	Size          int               `json:"size"`
	Page          int               `json:"page"`
}

// Sprunje builds and runs a schema-driven list query against a *gorm.DB
// table.
type Sprunje struct {
	db     *gorm.DB
	schema *crud6schema.Schema
	extra  []func(*gorm.DB) *gorm.DB
}

// New builds a Sprunje over s's table on db.
func New(db *gorm.DB, s *crud6schema.Schema) *Sprunje {
	return &Sprunje{db: db, schema: s}
}

// WithBase lets the caller (e.g. the relationship resolver) extend the base
// query — a join, an extra WHERE — before filters/sorts/pagination apply.
func (sp *Sprunje) WithBase(fn func(*gorm.DB) *gorm.DB) *Sprunje {
	sp.extra = append(sp.extra, fn)
	return sp
}

// Run executes the query and returns the paged result.
func (sp *Sprunje) Run(ctx context.Context, params *Params) (*Page, error) {
	s := sp.schema

	base := sp.db.WithContext(ctx).Table(s.Table)
	if s.SoftDelete {
		base = base.Where("deleted_at IS NULL")
	}
	for _, fn := range sp.extra {
		base = fn(base)
	}

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, crud6types.Wrap(crud6types.KindInternal, err, "failed to count records")
	}

	filtered := base.Session(&gorm.Session{})
	appliedFilters := map[string]string{}
	for field, raw := range params.Filters {
		f := s.Field(field)
		if f == nil || !f.Filterable {
			continue
		}
		filtered = applyFilter(filtered, field, f, raw)
		appliedFilters[field] = raw
	}
	if params.Search != "" {
		filtered = applySearch(filtered, s.Searchable(), params.Search)
	}

	var countFiltered int64
	if err := filtered.Session(&gorm.Session{}).Count(&countFiltered).Error; err != nil {
		return nil, crud6types.Wrap(crud6types.KindInternal, err, "failed to count filtered records")
	}

	sorts := params.Sorts
	if len(sorts) == 0 {
		sorts = defaultSorts(s.DefaultSort)
	}
	ordered := filtered.Session(&gorm.Session{})
	for _, sort := range sorts {
		f := s.Field(sort.Field)
		if f == nil || !f.Sortable {
			continue
		}
		ordered = ordered.Order(clause.OrderByColumn{Column: clause.Column{Name: sort.Field}, Desc: sort.Dir == "desc"})
	}
	// Final tie-breaker for stable pagination.
	ordered = ordered.Order(clause.OrderByColumn{Column: clause.Column{Name: s.PrimaryKey}})

	columns := append([]string{}, s.Listable()...)
	if !containsStr(columns, s.PrimaryKey) {
		columns = append(columns, s.PrimaryKey)
	}

	var rows []map[string]any
	if err := ordered.
		Select(columns).
		Offset(params.Page * params.Size).
		Limit(params.Size).
		Find(&rows).Error; err != nil {
		return nil, crud6types.Wrap(crud6types.KindInternal, err, "failed to list records")
	}

	return &Page{
		Count:         total,
		CountFiltered: countFiltered,
		Rows:          rows,
		Listable:      s.Listable(),
		Sortable:      s.Sortable(),
		Filterable:    s.Filterable(),
		Sorts:         sorts,
		Filters:       appliedFilters,
		Size:          params.Size,
		Page:          params.Page,
	}, nil
}

// applyFilter applies one filters[field] condition: exact-equality IN for
// numeric/boolean/date fields, case-insensitive substring OR'd across
// comma-separated values otherwise.
func applyFilter(q *gorm.DB, field string, f *crud6schema.FieldSpec, raw string) *gorm.DB {
	values := splitNonEmpty(raw)
	if len(values) == 0 {
		return q
	}
	if isExactMatchType(f.Type) {
		return q.Where(field+" IN (?)", values)
	}
	group := q.Session(&gorm.Session{NewDB: true})
	for i, v := range values {
		cond := fmt.Sprintf("LOWER(%s) LIKE ?", field)
		pattern := "%" + strings.ToLower(v) + "%"
		if i == 0 {
			group = group.Where(cond, pattern)
		} else {
			group = group.Or(cond, pattern)
		}
	}
	return q.Where(group)
}

// applySearch ORs a case-insensitive substring match across every
// searchable field.
func applySearch(q *gorm.DB, fields []string, search string) *gorm.DB {
	if len(fields) == 0 {
		return q
	}
	group := q.Session(&gorm.Session{NewDB: true})
	pattern := "%" + strings.ToLower(search) + "%"
	for i, field := range fields {
		cond := fmt.Sprintf("LOWER(%s) LIKE ?", field)
		if i == 0 {
			group = group.Where(cond, pattern)
		} else {
			group = group.Or(cond, pattern)
		}
	}
	return q.Where(group)
}

func isExactMatchType(t crud6schema.FieldType) bool {
	if t.IsBooleanVariant() {
		return true
	}
	switch t {
	case crud6schema.FieldInteger, crud6schema.FieldFloat, crud6schema.FieldDecimal,
		crud6schema.FieldDate, crud6schema.FieldDateTime:
		return true
	}
	return false
}

func splitNonEmpty(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func defaultSorts(m map[string]string) []SortParam {
	out := make([]SortParam, 0, len(m))
	for field, dir := range m {
		dir = strings.ToLower(dir)
		if dir != "asc" && dir != "desc" {
			dir = "asc"
		}
		out = append(out, SortParam{Field: field, Dir: dir})
	}
	return out
}

func containsStr(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
