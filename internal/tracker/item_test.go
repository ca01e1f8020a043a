package tracker

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeItem(t *testing.T, raw string) *Item {
	t.Helper()
	var item Item
	require.NoError(t, json.Unmarshal([]byte(raw), &item))
	return &item
}

func TestItemAttributesFormatting(t *testing.T) {
	item := decodeItem(t, `{
		"id": 17,
		"name": "Pikachu",
		"set_name": "Base Set",
		"qualifiers": ["FIRST_EDITION", "NON_HOLO"],
		"purchase_price": 1235,
		"list_price": 1234.56,
		"sale_total": null,
		"grade": 9.5,
		"cert": 12345678,
		"group_discount": false,
		"status": "STORAGE"
	}`)
	require.NoError(t, item.Validate())

	attrs := item.Attributes()
	assert.Equal(t, "Pikachu", attrs[FieldName])
	assert.Equal(t, "Base Set", attrs[FieldSetName])
	assert.Equal(t, "FIRST_EDITION, NON_HOLO", attrs[FieldQualifiers])
	assert.Equal(t, "¥1,235", attrs[FieldPurchasePrice])
	assert.Equal(t, "$1,234.56", attrs[FieldListPrice])
	assert.Equal(t, "", attrs[FieldSaleTotal])
	assert.Equal(t, "9.5", attrs[FieldGrade])
	assert.Equal(t, "12345678", attrs[FieldCert])
	assert.Equal(t, "No", attrs[FieldGroupDiscount])
	assert.Equal(t, "STORAGE", attrs[FieldStatus])
}

func TestItemAttributesAbsentFieldsAreEmpty(t *testing.T) {
	item := decodeItem(t, `{"id": 5, "name": "N/A"}`)
	require.NoError(t, item.Validate())

	attrs := item.Attributes()
	require.Len(t, attrs, len(Fields))
	for _, f := range Fields {
		if f == FieldName {
			continue
		}
		assert.Equal(t, "", attrs[f], f)
	}
}

func TestNilItemAttributesAreBlank(t *testing.T) {
	var item *Item
	assert.Equal(t, BlankAttributes(), item.Attributes())
}

func TestItemValidate(t *testing.T) {
	tests := []struct {
		name  string
		raw   string
		valid bool
	}{
		{"minimal", `{"id": 1, "name": "x"}`, true},
		{"missing id", `{"name": "x"}`, false},
		{"missing name", `{"id": 1}`, false},
		{"bad status", `{"id": 1, "name": "x", "status": "LOST"}`, false},
		{"bad qualifier", `{"id": 1, "name": "x", "qualifiers": ["SHINY"]}`, false},
		{"bad date", `{"id": 1, "name": "x", "purchase_date": "05/01/2024"}`, false},
		{"good date", `{"id": 1, "name": "x", "purchase_date": "2024-05-01"}`, true},
		{"grade out of range", `{"id": 1, "name": "x", "grade": 11}`, false},
		{"grading company", `{"id": 1, "name": "x", "grading_company": "PSA"}`, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := decodeItem(t, tt.raw).Validate()
			if tt.valid {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
		})
	}
}

func TestItemSanitize(t *testing.T) {
	item := decodeItem(t, `{
		"id": 1, "name": "x",
		"status": "LOST", "qualifiers": ["SHINY", "CRYSTAL"],
		"usd_to_jpy_rate": 0, "grade": 11,
		"intent": "KEEP", "purchase_date": "2024-05-01"
	}`)

	cleared, err := item.Sanitize()
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"status", "qualifiers", "usd_to_jpy_rate", "grade"}, cleared)
	assert.Nil(t, item.Status)
	assert.Nil(t, item.Qualifiers)
	assert.Nil(t, item.Grade)
	assert.Nil(t, item.USDToJPYRate)
	assert.Equal(t, "KEEP", *item.Intent)
	assert.Equal(t, "2024-05-01", *item.PurchaseDate)
	require.NoError(t, item.Validate())
}

func TestItemSanitizeRequiresIDAndName(t *testing.T) {
	for _, raw := range []string{`{"name": "x", "status": "LOST"}`, `{"id": 1}`} {
		_, err := decodeItem(t, raw).Sanitize()
		require.Error(t, err, raw)
	}
}
