package extraction

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseItemsArray(t *testing.T) {
	raw := `[{"date": "2025-03-01", "vendor_name": "セブンイレブン", "total_amount": 1234}]`

	items, err := ParseItems(raw)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "2025-03-01", items[0].Date)
	assert.Equal(t, "セブンイレブン", items[0].VendorName)
	assert.Equal(t, 1234, items[0].TotalAmount)
}

func TestParseItemsSingleObject(t *testing.T) {
	raw := `{"date": "2025-01-15", "vendor_name": "ローソン", "total_amount": 500}`

	items, err := ParseItems(raw)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "ローソン", items[0].VendorName)
}

func TestParseItemsMarkdownFence(t *testing.T) {
	raw := "```json\n[{\"date\": \"2025-06-10\", \"vendor_name\": \"Amazon\", \"total_amount\": 2980}]\n```"

	items, err := ParseItems(raw)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, 2980, items[0].TotalAmount)
}

func TestParseItemsTwoDigitYear(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"25-03-01", "2025-03-01"},
		{"26-12-31", "2026-12-31"},
		{"2025-03-01", "2025-03-01"},
		{"", ""},
		{"not a date", "not a date"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, normalizeDate(tt.in), "input %q", tt.in)
	}
}

func TestParseItemsCoercesAmounts(t *testing.T) {
	raw := `[
		{"date": "2025-03-01", "vendor_name": "A", "total_amount": "1,234"},
		{"date": "2025-03-02", "vendor_name": "B", "total_amount": "¥500"},
		{"date": "2025-03-03", "vendor_name": "C"}
	]`

	items, err := ParseItems(raw)
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, 1234, items[0].TotalAmount)
	assert.Equal(t, 500, items[1].TotalAmount)
	assert.Equal(t, 0, items[2].TotalAmount)
}

func TestParseItemsMissingFieldsDefault(t *testing.T) {
	items, err := ParseItems(`[{}]`)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Empty(t, items[0].Date)
	assert.Empty(t, items[0].VendorName)
	assert.Zero(t, items[0].TotalAmount)
}

func TestParseItemsRejectsGarbage(t *testing.T) {
	_, err := ParseItems("")
	assert.Error(t, err)

	_, err = ParseItems("これはJSONではありません")
	assert.Error(t, err)

	_, err = ParseItems(`"just a string"`)
	assert.Error(t, err)
}
