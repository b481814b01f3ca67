package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// Float is a numeric value that may be missing.
// Missing is distinct from zero and is never represented as NaN or Inf.
type Float struct {
	V     float64
	Valid bool
}

// Missing is the explicit "no value" sentinel
var Missing = Float{}

// Some wraps v, normalizing NaN and ±Inf to Missing
func Some(v float64) Float {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return Missing
	}
	return Float{V: v, Valid: true}
}

// IsMissing reports whether the value is absent
func (f Float) IsMissing() bool {
	return !f.Valid
}

// Get returns the value and whether it is present
func (f Float) Get() (float64, bool) {
	return f.V, f.Valid
}

// Or returns the value, or def if missing
func (f Float) Or(def float64) float64 {
	if !f.Valid {
		return def
	}
	return f.V
}

func (f Float) String() string {
	if !f.Valid {
		return "NA"
	}
	return strconv.FormatFloat(f.V, 'g', -1, 64)
}

// MarshalJSON encodes a missing value as null
func (f Float) MarshalJSON() ([]byte, error) {
	if !f.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(f.V)
}

// UnmarshalJSON decodes null as Missing
func (f *Float) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*f = Missing
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*f = Some(v)
	return nil
}

// Scan implements sql.Scanner
func (f *Float) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*f = Missing
	case float64:
		*f = Some(v)
	case float32:
		*f = Some(float64(v))
	case int64:
		*f = Some(float64(v))
	case int32:
		*f = Some(float64(v))
	default:
		return fmt.Errorf("cannot scan %T into model.Float", src)
	}
	return nil
}

// Value implements driver.Valuer
func (f Float) Value() (driver.Value, error) {
	if !f.Valid {
		return nil, nil
	}
	return f.V, nil
}
