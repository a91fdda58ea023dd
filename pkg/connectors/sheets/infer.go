package sheets

import (
	"fmt"

	"github.com/datalinkhq/connector-engine/pkg/connectors"
)

// inferColumns derives column descriptors from sampled rows: the first row
// is the header, the rest drive type inference. Sheets never enforce
// presence, so every column is nullable.
func inferColumns(rows [][]any) []connectors.Column {
	if len(rows) == 0 {
		return nil
	}

	headers := rows[0]
	columns := make([]connectors.Column, 0, len(headers))
	for i, header := range headers {
		columns = append(columns, connectors.Column{
			Name:     fmt.Sprintf("%v", header),
			Type:     inferColumnType(rows[1:], i),
			Nullable: true,
		})
	}
	return columns
}

// inferColumnType scans one column across the data rows. The last
// non-default type observed wins; cells a row doesn't reach are skipped.
func inferColumnType(dataRows [][]any, col int) string {
	columnType := "string"
	for _, row := range dataRows {
		if col >= len(row) {
			continue
		}
		switch row[col].(type) {
		case bool:
			columnType = "boolean"
		case float64, int, int64:
			columnType = "number"
		}
	}
	return columnType
}
