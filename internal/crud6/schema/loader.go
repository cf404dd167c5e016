package schema

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/cockroachdb/errors"

	"github.com/forbearing/crud6/types"
	"github.com/forbearing/crud6/types/consts"
)

// Loader reads schema files from SchemaDir, validates, and caches them by
// (model, connection), using the same sync.Map double-checked-population
// idiom as a write-rarely-read-often cache.
type Loader struct {
	SchemaDir string
	cache     sync.Map // key: model+"@"+connection -> *Schema
}

// NewLoader builds a Loader rooted at dir.
func NewLoader(dir string) *Loader {
	return &Loader{SchemaDir: dir}
}

func cacheKey(model, connection string) string {
	if connection == "" {
		return model
	}
	return model + "@" + connection
}

// GetSchema loads (or returns the cached) schema for model, with an
// optional connection override.
func (l *Loader) GetSchema(model, connection string) (*Schema, error) {
	key := cacheKey(model, connection)
	if v, ok := l.cache.Load(key); ok {
		return v.(*Schema), nil
	}

	path := filepath.Join(l.SchemaDir, model+".json")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, types.NewError(types.KindNotFound, "unknown model \""+model+"\"")
		}
		return nil, types.Wrap(types.KindInternal, err, "failed to read schema file")
	}

	s, err := parse(data)
	if err != nil {
		return nil, types.Wrap(types.KindBadRequest, err, "malformed schema \""+model+"\"")
	}
	if connection != "" {
		s.Connection = connection
	}

	actual, _ := l.cache.LoadOrStore(key, s)
	return actual.(*Schema), nil
}

// FilterForContext returns a copy of schema whose Fields is restricted to
// the fields admissible in the requested view context(s). ctxs may name
// more than one context (?context=list,form); multiple contexts are
// returned as a Contexts map rather than merged into one Fields map.
type FilteredSchema struct {
	*Schema
	Contexts map[string]*ContextView `json:"contexts,omitempty"`
}

// ContextView is one entry of a multi-context schema response.
type ContextView struct {
	Fields map[string]*FieldSpec `json:"fields"`
}

func (l *Loader) FilterForContext(s *Schema, ctxs []string) *FilteredSchema {
	if len(ctxs) == 0 {
		ctxs = []string{consts.ContextForm}
	}
	if len(ctxs) == 1 {
		out := shallowCopy(s)
		if ctxs[0] != consts.ContextMeta {
			out.Fields = filterFields(s, ctxs[0])
		} else {
			out.Fields = nil
		}
		return &FilteredSchema{Schema: out}
	}

	out := shallowCopy(s)
	out.Fields = nil
	views := make(map[string]*ContextView, len(ctxs))
	for _, c := range ctxs {
		if c == consts.ContextMeta {
			views[c] = &ContextView{Fields: nil}
			continue
		}
		views[c] = &ContextView{Fields: filterFields(s, c)}
	}
	return &FilteredSchema{Schema: out, Contexts: views}
}

func filterFields(s *Schema, ctx string) map[string]*FieldSpec {
	out := make(map[string]*FieldSpec, len(s.Fields))
	for name, f := range s.Fields {
		if f.Type == FieldPassword && (ctx == consts.ContextList || ctx == consts.ContextDetail) {
			continue
		}
		switch ctx {
		case consts.ContextList:
			if !f.Listable {
				continue
			}
		case consts.ContextForm:
			if !f.IsEditable() {
				continue
			}
		case consts.ContextDetail:
			if !f.ShownIn(consts.ContextDetail) {
				continue
			}
		}
		cp := *f
		out[name] = &cp
	}
	return out
}

func shallowCopy(s *Schema) *Schema {
	cp := *s
	return &cp
}

// ValidModelName validates that a model name is well-formed; the actual
// binder construction lives in the database package, which depends on
// schema but not vice versa, so this only does the validation step that
// belongs conceptually to the loader.
var modelNamePattern = errors.New("model name must match ^[A-Za-z_][A-Za-z0-9_]*$")

func ValidModelName(name string) bool {
	if name == "" {
		return false
	}
	for i, r := range name {
		isLetter := (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || r == '_'
		isDigit := r >= '0' && r <= '9'
		if i == 0 && !isLetter {
			return false
		}
		if i > 0 && !isLetter && !isDigit {
			return false
		}
	}
	return true
}
