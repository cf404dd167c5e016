// Package validate implements the field validator/transformer: a
// table-driven registry of per-field-type handlers keyed by schema.FieldType
// string instead of a Go type, since no per-entity Go type exists.
package validate

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/forbearing/crud6/internal/crud6/schema"
)

// Transformer coerces a raw input value to a field's declared type.
type Transformer func(raw any) (any, error)

var transformers = map[schema.FieldType]Transformer{
	schema.FieldInteger: transformInteger,
	schema.FieldFloat:   transformFloat,
	schema.FieldDecimal: transformFloat,
	schema.FieldBoolean: transformBoolean,
}

func transformerFor(t schema.FieldType) Transformer {
	if t.IsBooleanVariant() {
		return transformBoolean
	}
	if strings.HasPrefix(string(t), "textarea") {
		return transformString
	}
	if fn, ok := transformers[t]; ok {
		return fn
	}
	if t == schema.FieldJSON {
		return transformJSON
	}
	return transformString
}

func transformInteger(raw any) (any, error) {
	switch v := raw.(type) {
	case nil:
		return nil, nil
	case float64:
		return int64(v), nil
	case int64:
		return v, nil
	case int:
		return int64(v), nil
	case string:
		if strings.TrimSpace(v) == "" {
			return nil, nil
		}
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("not an integer: %q", v)
		}
		return n, nil
	default:
		return nil, fmt.Errorf("not an integer: %v", v)
	}
}

func transformFloat(raw any) (any, error) {
	switch v := raw.(type) {
	case nil:
		return nil, nil
	case float64:
		return v, nil
	case string:
		if strings.TrimSpace(v) == "" {
			return nil, nil
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return nil, fmt.Errorf("not a number: %q", v)
		}
		return f, nil
	default:
		return nil, fmt.Errorf("not a number: %v", v)
	}
}

func transformBoolean(raw any) (any, error) {
	switch v := raw.(type) {
	case nil:
		return nil, nil
	case bool:
		return v, nil
	case float64:
		return v != 0, nil
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "true", "yes":
			return true, nil
		case "0", "false", "no", "":
			return false, nil
		}
		return nil, fmt.Errorf("not a boolean: %q", v)
	default:
		return nil, fmt.Errorf("not a boolean: %v", v)
	}
}

func transformString(raw any) (any, error) {
	if raw == nil {
		return nil, nil
	}
	if s, ok := raw.(string); ok {
		return strings.TrimSpace(s), nil
	}
	return fmt.Sprintf("%v", raw), nil
}

func transformJSON(raw any) (any, error) {
	if raw == nil {
		return nil, nil
	}
	if s, ok := raw.(string); ok {
		return s, nil
	}
	// Structured values (maps/slices decoded from the request body) are
	// re-encoded by the caller (handlers package) via encoding/json;
	// transform only normalizes strings here.
	return raw, nil
}

// Transform coerces every value in input according to the field types
// declared by fields, dropping keys not present in the schema. jsonEncode
// is supplied by the caller to avoid an encoding/json import here, encoding
// structured values identically to how the handler already decoded the
// request body.
func Transform(fields map[string]*schema.FieldSpec, input map[string]any, jsonEncode func(any) (string, error)) (map[string]any, error) {
	out := make(map[string]any, len(input))
	for name, raw := range input {
		f, ok := fields[name]
		if !ok {
			continue
		}
		if f.Type == schema.FieldJSON {
			if _, isString := raw.(string); !isString && raw != nil {
				encoded, err := jsonEncode(raw)
				if err != nil {
					return nil, fmt.Errorf("field %q: %w", name, err)
				}
				out[name] = encoded
				continue
			}
		}
		v, err := transformerFor(f.Type)(raw)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", name, err)
		}
		out[name] = v
	}
	return out, nil
}

// UniqueChecker probes the database for an existing row with the given
// field value, excluding the record identified by excludePK (empty on
// create). Supplied by the database package to avoid an import cycle.
type UniqueChecker func(field string, value any, excludePK any) (bool, error)

// ValidateOptions carries the collaborators Validate needs beyond the pure
// per-value rule checks.
type ValidateOptions struct {
	Unique    UniqueChecker
	ExcludePK any
}

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// Validate evaluates the per-field validation rules against values,
// returning a structured {field: [ruleNames]} error map.
func Validate(fields map[string]*schema.FieldSpec, values map[string]any, opts ValidateOptions) map[string][]string {
	errs := map[string][]string{}
	for name, f := range fields {
		v, present := values[name]
		rules := f.Validation
		required := f.Required || boolRule(rules, "required")

		if required && (!present || isEmptyValue(v)) {
			errs[name] = append(errs[name], "required")
			continue
		}
		if !present || v == nil {
			continue
		}

		if minMax, ok := rules["length"].(map[string]any); ok {
			s := fmt.Sprintf("%v", v)
			n := utf8.RuneCountInString(s)
			if min, ok := numRule(minMax, "min"); ok && n < int(min) {
				errs[name] = append(errs[name], "length.min")
			}
			if max, ok := numRule(minMax, "max"); ok && n > int(max) {
				errs[name] = append(errs[name], "length.max")
			}
		}
		if boolRule(rules, "numeric") {
			switch v.(type) {
			case int64, float64:
			default:
				if _, err := strconv.ParseFloat(fmt.Sprintf("%v", v), 64); err != nil {
					errs[name] = append(errs[name], "numeric")
				}
			}
		}
		if minV, ok := rules["min"]; ok {
			if n, ok := asFloat(v); ok {
				if m, ok := asFloat(minV); ok && n < m {
					errs[name] = append(errs[name], "min")
				}
			}
		}
		if maxV, ok := rules["max"]; ok {
			if n, ok := asFloat(v); ok {
				if m, ok := asFloat(maxV); ok && n > m {
					errs[name] = append(errs[name], "max")
				}
			}
		}
		if boolRule(rules, "email") || f.Type == schema.FieldEmail {
			if s, ok := v.(string); !ok || !emailPattern.MatchString(s) {
				errs[name] = append(errs[name], "email")
			}
		}
		if boolRule(rules, "unique") && opts.Unique != nil {
			ok, err := opts.Unique(name, v, opts.ExcludePK)
			if err != nil || !ok {
				errs[name] = append(errs[name], "unique")
			}
		}
		if matchField, ok := rules["match"].(string); ok {
			if values[matchField] != v {
				errs[name] = append(errs[name], "match")
			}
		}
		if pattern, ok := rules["pattern"].(string); ok {
			re, err := regexp.Compile(pattern)
			s := fmt.Sprintf("%v", v)
			if err != nil || !re.MatchString(s) {
				errs[name] = append(errs[name], "pattern")
			}
		}
	}
	return errs
}

func boolRule(rules map[string]any, key string) bool {
	v, ok := rules[key]
	if !ok {
		return false
	}
	b, _ := v.(bool)
	return b
}

func numRule(m map[string]any, key string) (float64, bool) {
	v, ok := m[key]
	if !ok {
		return 0, false
	}
	return asFloat(v)
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int64:
		return float64(n), true
	case int:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(n, 64)
		return f, err == nil
	}
	return 0, false
}

func isEmptyValue(v any) bool {
	switch s := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(s) == ""
	}
	return false
}

// ApplyDefaults fills missing fields with their declared Default on create;
// on update, absent fields are left untouched by the caller — this function
// is only ever called from the Create handler.
func ApplyDefaults(fields map[string]*schema.FieldSpec, values map[string]any) {
	for name, f := range fields {
		if _, ok := values[name]; ok {
			continue
		}
		if f.Default != nil {
			values[name] = f.Default
		}
	}
}

// StripNonWritable removes fields the client must never assign directly:
// those marked readonly, auto_increment, or computed are never assigned
// from client input.
func StripNonWritable(fields map[string]*schema.FieldSpec, values map[string]any) (stripped []string) {
	for name, f := range fields {
		if _, ok := values[name]; !ok {
			continue
		}
		if f.Readonly || f.AutoIncrement || f.Computed {
			delete(values, name)
			stripped = append(stripped, name)
		}
	}
	return stripped
}
