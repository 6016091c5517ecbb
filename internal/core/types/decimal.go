// Package types provides money and measurement value types built on shopspring/decimal.
package types

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
)

// Money represents a monetary value with full precision.
// Uses decimal.Decimal to avoid floating-point errors.
type Money = decimal.Decimal

const (
	// MoneyPlaces is the scale of every monetary value and of density.
	MoneyPlaces int32 = 2
	// VolumePlaces is the scale of cubic-meter volumes.
	VolumePlaces int32 = 4
)

// NewMoneyFromString creates a Money value from a string.
func NewMoneyFromString(s string) (Money, error) {
	return decimal.NewFromString(s)
}

// MustMoney creates a Money value from a string, panics on error.
// Use only for constants and tests.
func MustMoney(s string) Money {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

// Zero returns zero Money value.
func Zero() Money {
	return decimal.Zero
}

// RoundMoney rounds half away from zero to two places.
func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(MoneyPlaces)
}

// Ptr returns a pointer to a copy of d.
func Ptr(d decimal.Decimal) *decimal.Decimal {
	return &d
}

// Positive reports whether p is present and strictly greater than zero.
func Positive(p *decimal.Decimal) bool {
	return p != nil && p.IsPositive()
}

// ValueOrZero dereferences p, treating nil as zero.
func ValueOrZero(p *decimal.Decimal) decimal.Decimal {
	if p == nil {
		return decimal.Zero
	}
	return *p
}

// EqualPtr compares two optional decimals by value.
func EqualPtr(a, b *decimal.Decimal) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}

// ParseMeasure parses operator input leniently: blank or non-numeric input yields nil.
// Comma decimal separators are accepted.
func ParseMeasure(s string) *decimal.Decimal {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", "."))
	if s == "" {
		return nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil
	}
	return &d
}

// Measure is an optional decimal read from form-like JSON input.
// It accepts a number, a numeric string, an empty string or null; anything
// unparseable decodes as absent instead of failing the whole request.
type Measure struct {
	value *decimal.Decimal
}

// NewMeasure wraps an optional decimal.
func NewMeasure(d *decimal.Decimal) Measure {
	return Measure{value: d}
}

// Decimal returns the parsed value or nil.
func (m Measure) Decimal() *decimal.Decimal {
	return m.value
}

// MarshalJSON encodes the value as a JSON number or null.
func (m Measure) MarshalJSON() ([]byte, error) {
	if m.value == nil {
		return []byte("null"), nil
	}
	return []byte(m.value.String()), nil
}

// UnmarshalJSON accepts either a JSON number or string.
func (m *Measure) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		m.value = nil
		return nil
	}

	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		m.value = ParseMeasure(s)
		return nil
	}

	m.value = ParseMeasure(string(data))
	return nil
}
