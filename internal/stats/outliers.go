package stats

import (
	"slices"

	"github.com/JonMunkholm/eda/internal/table"
)

// OutlierReport lists the rows of one column outside the IQR fences
// [Q1 - 1.5·IQR, Q3 + 1.5·IQR].
type OutlierReport struct {
	Column string        `json:"column" yaml:"column"`
	Q1     table.Float   `json:"q1" yaml:"q1"`
	Q3     table.Float   `json:"q3" yaml:"q3"`
	IQR    table.Float   `json:"iqr" yaml:"iqr"`
	Lower  table.Float   `json:"lower" yaml:"lower"`
	Upper  table.Float   `json:"upper" yaml:"upper"`
	Rows   []int         `json:"rows" yaml:"rows"`
	Values []table.Float `json:"values" yaml:"values"`
}

// IQRMultiplier scales the interquartile range to place the fences.
const IQRMultiplier = 1.5

// Outliers applies the IQR rule to each selected numeric column. Rows are
// 0-based positions in t. Columns without values are omitted.
func Outliers(t *table.Table, cols []string) map[string]OutlierReport {
	out := make(map[string]OutlierReport)
	for _, c := range SelectNumeric(t, cols) {
		values := c.Floats()
		if len(values) == 0 {
			continue
		}
		sorted := slices.Clone(values)
		slices.Sort(sorted)

		q1, q3 := Quantile(sorted, 0.25), Quantile(sorted, 0.75)
		iqr := q3 - q1
		lower, upper := q1-IQRMultiplier*iqr, q3+IQRMultiplier*iqr

		rep := OutlierReport{
			Column: c.Name(),
			Q1:     table.Float(q1),
			Q3:     table.Float(q3),
			IQR:    table.Float(iqr),
			Lower:  table.Float(lower),
			Upper:  table.Float(upper),
			Rows:   []int{},
			Values: []table.Float{},
		}
		for i := 0; i < c.Len(); i++ {
			v, ok := c.Float(i)
			if ok && (v < lower || v > upper) {
				rep.Rows = append(rep.Rows, i)
				rep.Values = append(rep.Values, table.Float(v))
			}
		}
		out[c.Name()] = rep
	}
	return out
}
