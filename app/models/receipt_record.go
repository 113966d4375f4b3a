package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	// DefaultCategory is the sentinel for records the user has not
	// categorized yet ("other").
	DefaultCategory = "その他"

	SOURCE_WEB  = "web"
	SOURCE_LINE = "line"
)

// StringSlice stores a list of strings as a JSON column.
type StringSlice []string

func (s StringSlice) Value() (driver.Value, error) {
	if len(s) == 0 {
		return "[]", nil
	}
	data, err := json.Marshal([]string(s))
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

func (s *StringSlice) Scan(value interface{}) error {
	if value == nil {
		*s = StringSlice{}
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported type %T for StringSlice", value)
	}
	if len(data) == 0 {
		*s = StringSlice{}
		return nil
	}
	return json.Unmarshal(data, (*[]string)(s))
}

// ReceiptRecord is one structured line item extracted from an uploaded
// receipt. The id is millisecond-derived and unique within a batch. The
// blob object keys are stored next to the public URLs so deletion never
// has to reparse a URL.
type ReceiptRecord struct {
	ID               string      `gorm:"primaryKey;type:varchar(32)" json:"id"`
	UserID           uint        `gorm:"index;not null" json:"-"`
	Date             string      `gorm:"type:varchar(10)" json:"date"`
	VendorName       string      `gorm:"type:varchar(255)" json:"vendor_name"`
	TotalAmount      int         `gorm:"not null;default:0" json:"total_amount"`
	ImageURL         string      `gorm:"type:varchar(512)" json:"image_url"`
	StorageKey       string      `gorm:"type:varchar(255)" json:"-"`
	IsPDF            bool        `gorm:"column:is_pdf;not null;default:false" json:"is_pdf"`
	PDFImages        StringSlice `gorm:"column:pdf_images;type:json" json:"pdf_images"`
	PDFImageKeys     StringSlice `gorm:"column:pdf_image_keys;type:json" json:"-"`
	Category         string      `gorm:"type:varchar(100);default:'その他'" json:"category"`
	Source           string      `gorm:"type:varchar(10);default:'web'" json:"source"`
	OriginalFilename string      `gorm:"type:varchar(255)" json:"original_filename"`
	CreatedAt        time.Time   `gorm:"autoCreateTime" json:"created_at"`
}

// NormalizeAmount parses a user-supplied amount that may carry thousands
// separators or a currency symbol ("¥1,234" -> 1234). Whole currency units
// only; negative or non-numeric input is rejected.
func NormalizeAmount(raw string) (int, error) {
	cleaned := strings.TrimSpace(raw)
	for _, sym := range []string{",", "¥", "￥"} {
		cleaned = strings.ReplaceAll(cleaned, sym, "")
	}
	cleaned = strings.TrimSpace(cleaned)
	if cleaned == "" {
		return 0, fmt.Errorf("amount is empty")
	}
	amount, err := strconv.Atoi(cleaned)
	if err != nil {
		return 0, fmt.Errorf("amount %q is not a number", raw)
	}
	if amount < 0 {
		return 0, fmt.Errorf("amount must not be negative")
	}
	return amount, nil
}
