package table

import (
	"math"
	"strconv"
)

// Float is a float64 that encodes NaN and ±Inf as JSON null.
type Float float64

// MarshalJSON implements json.Marshaler.
func (f Float) MarshalJSON() ([]byte, error) {
	v := float64(f)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return []byte("null"), nil
	}
	return strconv.AppendFloat(nil, v, 'g', -1, 64), nil
}

// UnmarshalJSON implements json.Unmarshaler; null decodes to NaN.
func (f *Float) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*f = Float(math.NaN())
		return nil
	}
	v, err := strconv.ParseFloat(string(b), 64)
	if err != nil {
		return err
	}
	*f = Float(v)
	return nil
}

// Floats converts values for JSON encoding.
func Floats(values []float64) []Float {
	out := make([]Float, len(values))
	for i, v := range values {
		out[i] = Float(v)
	}
	return out
}

// JSONValues returns the cells of c for JSON encoding: numbers as Float,
// categorical values as strings and missing cells as nil.
func JSONValues(c *Column) []any {
	out := make([]any, c.Len())
	for i := range out {
		switch {
		case c.IsNull(i):
		case c.IsNumeric():
			v, _ := c.Float(i)
			out[i] = Float(v)
		default:
			out[i], _ = c.Str(i)
		}
	}
	return out
}
