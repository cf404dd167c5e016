package validate_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/forbearing/crud6/internal/crud6/schema"
	"github.com/forbearing/crud6/internal/crud6/validate"
)

func jsonEncode(v any) (string, error) {
	b, err := json.Marshal(v)
	return string(b), err
}

func TestTransformCoercesDeclaredTypesAndDropsUnknownFields(t *testing.T) {
	fields := map[string]*schema.FieldSpec{
		"age":    {Type: schema.FieldInteger},
		"price":  {Type: schema.FieldFloat},
		"active": {Type: schema.FieldBoolean},
		"name":   {Type: schema.FieldString},
	}
	out, err := validate.Transform(fields, map[string]any{
		"age":     "42",
		"price":   "1.5",
		"active":  "yes",
		"name":    "  Widget  ",
		"unknown": "dropped",
	}, jsonEncode)
	require.NoError(t, err)
	require.Equal(t, int64(42), out["age"])
	require.Equal(t, 1.5, out["price"])
	require.Equal(t, true, out["active"])
	require.Equal(t, "Widget", out["name"])
	require.NotContains(t, out, "unknown")
}

func TestTransformRejectsInvalidIntegerValue(t *testing.T) {
	fields := map[string]*schema.FieldSpec{"age": {Type: schema.FieldInteger}}
	_, err := validate.Transform(fields, map[string]any{"age": "not-a-number"}, jsonEncode)
	require.Error(t, err)
}

func TestTransformEncodesStructuredJSONFieldValues(t *testing.T) {
	fields := map[string]*schema.FieldSpec{"meta": {Type: schema.FieldJSON}}
	out, err := validate.Transform(fields, map[string]any{"meta": map[string]any{"k": "v"}}, jsonEncode)
	require.NoError(t, err)
	require.JSONEq(t, `{"k":"v"}`, out["meta"].(string))
}

func TestValidateRequiredFieldMissing(t *testing.T) {
	fields := map[string]*schema.FieldSpec{"name": {Type: schema.FieldString, Required: true}}
	errs := validate.Validate(fields, map[string]any{}, validate.ValidateOptions{})
	require.Equal(t, []string{"required"}, errs["name"])
}

func TestValidateRequiredFieldPresentButEmptyStringFails(t *testing.T) {
	fields := map[string]*schema.FieldSpec{"name": {Type: schema.FieldString, Required: true}}
	errs := validate.Validate(fields, map[string]any{"name": ""}, validate.ValidateOptions{})
	require.Equal(t, []string{"required"}, errs["name"])
}

func TestValidateLengthMinMax(t *testing.T) {
	fields := map[string]*schema.FieldSpec{
		"name": {Type: schema.FieldString, Validation: map[string]any{
			"length": map[string]any{"min": 3, "max": 5},
		}},
	}
	errs := validate.Validate(fields, map[string]any{"name": "ab"}, validate.ValidateOptions{})
	require.Equal(t, []string{"length.min"}, errs["name"])

	errs = validate.Validate(fields, map[string]any{"name": "abcdef"}, validate.ValidateOptions{})
	require.Equal(t, []string{"length.max"}, errs["name"])

	errs = validate.Validate(fields, map[string]any{"name": "abcd"}, validate.ValidateOptions{})
	require.Empty(t, errs["name"])
}

func TestValidateEmailRule(t *testing.T) {
	fields := map[string]*schema.FieldSpec{"contact": {Type: schema.FieldEmail}}
	errs := validate.Validate(fields, map[string]any{"contact": "not-an-email"}, validate.ValidateOptions{})
	require.Equal(t, []string{"email"}, errs["contact"])

	errs = validate.Validate(fields, map[string]any{"contact": "a@b.com"}, validate.ValidateOptions{})
	require.Empty(t, errs["contact"])
}

func TestValidateUniqueRuleCallsCheckerAndExcludesPK(t *testing.T) {
	fields := map[string]*schema.FieldSpec{
		"email": {Type: schema.FieldString, Validation: map[string]any{"unique": true}},
	}
	var gotExclude any
	errs := validate.Validate(fields, map[string]any{"email": "a@b.com"}, validate.ValidateOptions{
		Unique: func(field string, value any, excludePK any) (bool, error) {
			gotExclude = excludePK
			return false, nil
		},
		ExcludePK: 7,
	})
	require.Equal(t, []string{"unique"}, errs["email"])
	require.Equal(t, 7, gotExclude)
}

func TestValidateMatchRule(t *testing.T) {
	fields := map[string]*schema.FieldSpec{
		"confirm_password": {Type: schema.FieldString, Validation: map[string]any{"match": "password"}},
	}
	errs := validate.Validate(fields, map[string]any{"password": "secret", "confirm_password": "other"}, validate.ValidateOptions{})
	require.Equal(t, []string{"match"}, errs["confirm_password"])
}

func TestApplyDefaultsOnlyFillsMissingFields(t *testing.T) {
	fields := map[string]*schema.FieldSpec{
		"status": {Default: "pending"},
		"name":   {Default: "unused"},
	}
	values := map[string]any{"name": "Widget"}
	validate.ApplyDefaults(fields, values)
	require.Equal(t, "pending", values["status"])
	require.Equal(t, "Widget", values["name"])
}

func TestStripNonWritableRemovesReadonlyAutoIncrementAndComputedFields(t *testing.T) {
	fields := map[string]*schema.FieldSpec{
		"id":         {AutoIncrement: true},
		"created_by": {Readonly: true},
		"full_name":  {Computed: true},
		"name":       {},
	}
	values := map[string]any{
		"id":         999,
		"created_by": "attacker",
		"full_name":  "spoofed",
		"name":       "Widget",
	}
	stripped := validate.StripNonWritable(fields, values)
	require.ElementsMatch(t, []string{"id", "created_by", "full_name"}, stripped)
	require.Equal(t, map[string]any{"name": "Widget"}, values)
}
