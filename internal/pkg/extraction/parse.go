package extraction

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// LineItem is a single receipt extracted by the vision model.
type LineItem struct {
	Date        string `json:"date"`
	VendorName  string `json:"vendor_name"`
	TotalAmount int    `json:"total_amount"`
}

// ParseItems turns the raw model response into line items. The model is
// asked for a JSON array but sometimes returns a single object or wraps
// the payload in a markdown code fence; both are tolerated. Missing
// fields fall back to zero values rather than failing the whole file.
func ParseItems(raw string) ([]LineItem, error) {
	text := stripFences(raw)
	if text == "" {
		return nil, fmt.Errorf("empty model response")
	}

	var decoded any
	if err := json.Unmarshal([]byte(text), &decoded); err != nil {
		return nil, fmt.Errorf("unmarshalling model response: %w", err)
	}

	var objects []map[string]any
	switch v := decoded.(type) {
	case []any:
		for _, entry := range v {
			obj, ok := entry.(map[string]any)
			if !ok {
				continue
			}
			objects = append(objects, obj)
		}
	case map[string]any:
		objects = append(objects, v)
	default:
		return nil, fmt.Errorf("unexpected model response shape %T", decoded)
	}

	items := make([]LineItem, 0, len(objects))
	for _, obj := range objects {
		items = append(items, LineItem{
			Date:        normalizeDate(stringField(obj, "date")),
			VendorName:  stringField(obj, "vendor_name"),
			TotalAmount: intField(obj, "total_amount"),
		})
	}
	return items, nil
}

// stripFences removes a surrounding ```json ... ``` markdown fence.
func stripFences(raw string) string {
	text := strings.TrimSpace(raw)
	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```json")
		text = strings.TrimPrefix(text, "```")
		text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	}
	return strings.TrimSpace(text)
}

// normalizeDate maps two-digit years onto the 2000s, so "25-03-01"
// becomes "2025-03-01". Anything that does not look like a dash-separated
// date passes through unchanged.
func normalizeDate(date string) string {
	parts := strings.Split(date, "-")
	if len(parts) != 3 {
		return date
	}
	switch len(parts[0]) {
	case 1:
		parts[0] = "200" + parts[0]
	case 2:
		parts[0] = "20" + parts[0]
	}
	return strings.Join(parts, "-")
}

func stringField(obj map[string]any, key string) string {
	if v, ok := obj[key].(string); ok {
		return strings.TrimSpace(v)
	}
	return ""
}

// intField coerces the amount whether the model emitted a JSON number or
// a quoted string.
func intField(obj map[string]any, key string) int {
	switch v := obj[key].(type) {
	case float64:
		return int(v)
	case string:
		cleaned := strings.NewReplacer(",", "", "¥", "", "￥", "").Replace(strings.TrimSpace(v))
		if n, err := strconv.Atoi(cleaned); err == nil {
			return n
		}
	}
	return 0
}
