package metric

import (
	"bytes"

	"github.com/JonMunkholm/eda/internal/table"
)

// Export encodes a result for download: a column result as a one-column CSV,
// anything else as plain text.
func Export(r Result) (data []byte, filename, contentType string) {
	if r.Kind == ResultColumn && r.Column != nil {
		var buf bytes.Buffer
		if err := table.WriteCSV(&buf, table.MustNew(r.Column)); err == nil {
			return buf.Bytes(), "result.csv", "text/csv"
		}
	}
	return []byte(r.String()), "result.txt", "text/plain"
}
