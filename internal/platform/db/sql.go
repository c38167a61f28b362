package db

import (
	"fmt"
	"sort"
	"strings"
)

// BuildUpdate assembles a single-row UPDATE statement from a sparse column
// map. Columns are sorted so the generated SQL is stable for logging and
// tests. Callers must only pass trusted column names.
func BuildUpdate(table string, fields map[string]any, id int64) (string, []any) {
	columns := make([]string, 0, len(fields))
	for column := range fields {
		columns = append(columns, column)
	}
	sort.Strings(columns)

	var sb strings.Builder
	sb.WriteString("UPDATE ")
	sb.WriteString(table)
	sb.WriteString(" SET ")

	args := make([]any, 0, len(fields)+1)
	for i, column := range columns {
		if i > 0 {
			sb.WriteString(", ")
		}
		args = append(args, fields[column])
		sb.WriteString(fmt.Sprintf("%s = $%d", column, len(args)))
	}
	args = append(args, id)
	sb.WriteString(fmt.Sprintf(" WHERE id = $%d", len(args)))

	return sb.String(), args
}
