// Package schema loads and caches model schema files.
package schema

import (
	"bytes"
	"encoding/json"

	"github.com/cockroachdb/errors"
	"github.com/gertd/go-pluralize"
	"github.com/stoewer/go-strcase"
)

var pluralizeCli = pluralize.NewClient()

// DefaultTableName derives a table name from a model name: snake_case +
// pluralize, with no Go type involved.
func DefaultTableName(modelName string) string {
	return strcase.SnakeCase(pluralizeCli.Plural(modelName))
}

// FieldType is the closed set of field types a FieldSpec may declare.
type FieldType string

const (
	FieldString      FieldType = "string"
	FieldText        FieldType = "text"
	FieldInteger     FieldType = "integer"
	FieldFloat       FieldType = "float"
	FieldDecimal     FieldType = "decimal"
	FieldBoolean     FieldType = "boolean"
	FieldBooleanYN   FieldType = "boolean-yn"
	FieldBooleanTgl  FieldType = "boolean-tgl"
	FieldBooleanTog  FieldType = "boolean-toggle"
	FieldDate        FieldType = "date"
	FieldDateTime    FieldType = "datetime"
	FieldEmail       FieldType = "email"
	FieldURL         FieldType = "url"
	FieldPhone       FieldType = "phone"
	FieldZip         FieldType = "zip"
	FieldPassword    FieldType = "password"
	FieldJSON        FieldType = "json"
	FieldSmartLookup FieldType = "smartlookup"
	FieldAddress     FieldType = "address"
	FieldTextarea    FieldType = "textarea" // also textarea-r{R}c{C}, handled by HasPrefix in validate
)

// IsBooleanVariant reports whether t is one of the boolean-rendering variants.
func (t FieldType) IsBooleanVariant() bool {
	switch t {
	case FieldBoolean, FieldBooleanYN, FieldBooleanTgl, FieldBooleanTog:
		return true
	}
	return false
}

// FieldSpec describes one field of a schema.
type FieldSpec struct {
	Type        FieldType `json:"type"`
	Label       string    `json:"label,omitempty"`
	Description string    `json:"description,omitempty"`
	Placeholder string    `json:"placeholder,omitempty"`
	Icon        string    `json:"icon,omitempty"`

	Required      bool `json:"required,omitempty"`
	Readonly      bool `json:"readonly,omitempty"`
	Editable      *bool `json:"editable,omitempty"`
	AutoIncrement bool `json:"auto_increment,omitempty"`
	Computed      bool `json:"computed,omitempty"`

	Sortable   bool `json:"sortable,omitempty"`
	Filterable bool `json:"filterable,omitempty"`
	Searchable bool `json:"searchable,omitempty"`
	Listable   bool `json:"listable,omitempty"`

	ShowIn []string `json:"show_in,omitempty"`

	Default any `json:"default,omitempty"`

	Validation map[string]any `json:"validation,omitempty"`

	FieldTemplate string `json:"field_template,omitempty"`

	Lookup      string `json:"lookup,omitempty"`
	LookupModel string `json:"lookup_model,omitempty"`
	LookupID    string `json:"lookup_id,omitempty"`
	LookupDesc  string `json:"lookup_desc,omitempty"`
}

// IsEditable applies the default: editable unless readonly, auto_increment
// or computed is set, or Editable is explicitly false.
func (f *FieldSpec) IsEditable() bool {
	if f.Editable != nil {
		return *f.Editable
	}
	return !f.Readonly && !f.AutoIncrement && !f.Computed
}

// ShownIn reports whether the field should appear in the given view context
// ("list", "form", "detail"). Absent show_in means "shown everywhere".
func (f *FieldSpec) ShownIn(ctx string) bool {
	if len(f.ShowIn) == 0 {
		return true
	}
	for _, c := range f.ShowIn {
		if c == ctx {
			return true
		}
	}
	return false
}

// DetailSpec is a simple has-many relationship for nested listing.
type DetailSpec struct {
	Model      string   `json:"model"`
	ForeignKey string   `json:"foreign_key,omitempty"`
	ListFields []string `json:"list_fields,omitempty"`
	Title      string   `json:"title,omitempty"`
}

// RelationshipType is the closed set of explicit relationship kinds.
type RelationshipType string

const (
	RelationshipManyToMany           RelationshipType = "many_to_many"
	RelationshipBelongsToManyThrough RelationshipType = "belongs_to_many_through"
)

// ThroughStep is one hop of a belongs_to_many_through chain.
type ThroughStep struct {
	Table      string `json:"table"`
	ForeignKey string `json:"foreign_key"`
	RelatedKey string `json:"related_key"`
}

// RelationshipSpec is an explicit many-to-many or through relationship.
type RelationshipSpec struct {
	Name        string            `json:"name"`
	Type        RelationshipType  `json:"type"`
	Model       string            `json:"model"`
	PivotTable  string            `json:"pivot_table,omitempty"`
	ForeignKey  string            `json:"foreign_key,omitempty"`
	RelatedKey  string            `json:"related_key,omitempty"`
	Through     []ThroughStep     `json:"through,omitempty"`
	ListFields  []string          `json:"list_fields,omitempty"`
}

// ActionType is the closed set of custom action kinds.
type ActionType string

const (
	ActionFieldUpdate    ActionType = "field_update"
	ActionPasswordUpdate ActionType = "password_update"
	ActionCustom         ActionType = "custom"
)

// ActionSpec is a custom verb beyond the standard CRUD set.
type ActionSpec struct {
	Key            string         `json:"key"`
	Label          string         `json:"label,omitempty"`
	Type           ActionType     `json:"type,omitempty"`
	Permission     string         `json:"permission,omitempty"`
	Style          string         `json:"style,omitempty"`
	Icon           string         `json:"icon,omitempty"`
	Confirm        bool           `json:"confirm,omitempty"`
	VisibleWhen    map[string]any `json:"visible_when,omitempty"`
	Field          string         `json:"field,omitempty"`
	ModalConfig    map[string]any `json:"modal_config,omitempty"`
	SuccessMessage string         `json:"success_message,omitempty"`
}

// Action constants for the schema's permission map.
const (
	ActionRead        = "read"
	ActionCreate       = "create"
	ActionUpdate       = "update"
	ActionUpdateField  = "update_field"
	ActionDelete       = "delete"
)

// Schema describes one persisted entity, loaded from a JSON file.
type Schema struct {
	Model         string                 `json:"model"`
	Table         string                 `json:"table"`
	Connection    string                 `json:"connection,omitempty"`
	PrimaryKey    string                 `json:"primary_key,omitempty"`
	TitleField    string                 `json:"title_field,omitempty"`
	Title         string                 `json:"title,omitempty"`
	SingularTitle string                 `json:"singular_title,omitempty"`
	Description   string                 `json:"description,omitempty"`
	DefaultSort   map[string]string      `json:"default_sort,omitempty"`
	Timestamps    bool                   `json:"timestamps,omitempty"`
	SoftDelete    bool                   `json:"soft_delete,omitempty"`
	Permissions   map[string]string      `json:"permissions,omitempty"`
	Fields        map[string]*FieldSpec  `json:"fields"`
	FieldOrder    []string               `json:"-"`
	Details       []DetailSpec           `json:"details,omitempty"`
	Detail        *DetailSpec            `json:"detail,omitempty"`
	Relationships []RelationshipSpec     `json:"relationships,omitempty"`
	Actions       []ActionSpec           `json:"actions,omitempty"`
	FormLayout    string                 `json:"form_layout,omitempty"`
}

// normalize fills defaults and folds the "detail" sugar into "details", per
// the Open Question recorded in DESIGN.md.
func (s *Schema) normalize() {
	if s.PrimaryKey == "" {
		s.PrimaryKey = "id"
	}
	if s.Table == "" {
		s.Table = DefaultTableName(s.Model)
	}
	if s.Detail != nil {
		s.Details = append(s.Details, *s.Detail)
		s.Detail = nil
	}
}

// Permission resolves the permission slug for an action, falling back to
// crud6.{model}.{action}.
func (s *Schema) Permission(action string) string {
	if p, ok := s.Permissions[action]; ok && p != "" {
		return p
	}
	return "crud6." + s.Model + "." + action
}

// Field looks up a field by name, nil if absent.
func (s *Schema) Field(name string) *FieldSpec {
	return s.Fields[name]
}

// FindDetail returns the DetailSpec whose Model equals relation, if any.
func (s *Schema) FindDetail(relation string) *DetailSpec {
	for i := range s.Details {
		if s.Details[i].Model == relation {
			return &s.Details[i]
		}
	}
	return nil
}

// FindRelationship returns the RelationshipSpec named relation, if any.
func (s *Schema) FindRelationship(relation string) *RelationshipSpec {
	for i := range s.Relationships {
		if s.Relationships[i].Name == relation {
			return &s.Relationships[i]
		}
	}
	return nil
}

// FindAction returns the ActionSpec keyed by key, if any.
func (s *Schema) FindAction(key string) *ActionSpec {
	for i := range s.Actions {
		if s.Actions[i].Key == key {
			return &s.Actions[i]
		}
	}
	return nil
}

// Sortable, Filterable, Searchable, Listable return the field names marked
// with the corresponding flag, preserving the schema's field declaration
// order where it was recorded.
func (s *Schema) Sortable() []string   { return s.fieldsWhere(func(f *FieldSpec) bool { return f.Sortable }) }
func (s *Schema) Filterable() []string { return s.fieldsWhere(func(f *FieldSpec) bool { return f.Filterable }) }
func (s *Schema) Searchable() []string { return s.fieldsWhere(func(f *FieldSpec) bool { return f.Searchable }) }
func (s *Schema) Listable() []string   { return s.fieldsWhere(func(f *FieldSpec) bool { return f.Listable }) }

func (s *Schema) fieldsWhere(pred func(*FieldSpec) bool) []string {
	names := s.fieldOrder()
	out := make([]string, 0, len(names))
	for _, name := range names {
		if f := s.Fields[name]; f != nil && pred(f) {
			out = append(out, name)
		}
	}
	return out
}

func (s *Schema) fieldOrder() []string {
	if len(s.FieldOrder) == len(s.Fields) {
		return s.FieldOrder
	}
	names := make([]string, 0, len(s.Fields))
	for name := range s.Fields {
		names = append(names, name)
	}
	return names
}

// parse unmarshals raw schema JSON while preserving field declaration order,
// since encoding/json loses map key order. It walks the raw token stream
// once for that purpose; everything else unmarshals normally.
func parse(data []byte) (*Schema, error) {
	var s Schema
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, errors.Wrap(err, "malformed schema JSON")
	}
	if s.Model == "" {
		return nil, errors.New("schema missing required \"model\"")
	}
	if len(s.Fields) == 0 {
		return nil, errors.New("schema missing required \"fields\"")
	}
	order, err := fieldOrderOf(data)
	if err != nil {
		return nil, err
	}
	s.FieldOrder = order
	s.normalize()
	return &s, nil
}

// fieldOrderOf extracts the declaration order of the "fields" object's keys
// by re-decoding just that object with json.Decoder, which does preserve
// token order even though map decoding does not.
func fieldOrderOf(data []byte) ([]string, error) {
	var wrapper struct {
		Fields json.RawMessage `json:"fields"`
	}
	if err := json.Unmarshal(data, &wrapper); err != nil {
		return nil, errors.Wrap(err, "malformed schema JSON")
	}
	dec := json.NewDecoder(bytes.NewReader(wrapper.Fields))
	// consume opening brace
	if _, err := dec.Token(); err != nil {
		return nil, errors.Wrap(err, "malformed \"fields\" object")
	}
	var order []string
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, errors.Wrap(err, "malformed \"fields\" object")
		}
		key, _ := tok.(string)
		order = append(order, key)
		// skip the value
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, errors.Wrap(err, "malformed \"fields\" object")
		}
	}
	return order, nil
}
