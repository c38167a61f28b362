// Package orders implements the nested order update engine shared by the
// sales and purchasing modules: sparse field patches, basket operation
// classification and the transactional apply loop.
package orders

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"
)

// Field is a sparse patch value decoded from a request body. Absent keys,
// JSON null and the empty string all mean "leave the stored value untouched";
// clients rely on the empty-string case behaving exactly like absence.
type Field struct {
	present bool
	raw     string
}

// NewField builds a present field, for tests and programmatic patches.
func NewField(raw string) Field {
	if raw == "" {
		return Field{}
	}
	return Field{present: true, raw: raw}
}

// UnmarshalJSON accepts strings, numbers and null.
func (f *Field) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		if s == "" {
			return nil
		}
		f.present, f.raw = true, s
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err == nil {
		f.present, f.raw = true, n.String()
		return nil
	}
	return fmt.Errorf("orders: unsupported field value %s", string(data))
}

// Present reports whether the field carries a value to apply.
func (f Field) Present() bool {
	return f.present
}

// String returns the raw value, empty when absent.
func (f Field) String() string {
	return f.raw
}

// Int64 parses the field as an identifier.
func (f Field) Int64() (int64, error) {
	n, err := strconv.ParseInt(f.raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("orders: parse %q as id: %w", f.raw, err)
	}
	return n, nil
}

// Decimal parses the field as a money or weight amount.
func (f Field) Decimal() (decimal.Decimal, error) {
	d, err := decimal.NewFromString(f.raw)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("orders: parse %q as amount: %w", f.raw, err)
	}
	return d, nil
}
