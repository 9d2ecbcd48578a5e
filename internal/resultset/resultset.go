// Package resultset decodes the textual payload returned by the execution
// adapter into a fixed-width table. The payload grammar is a bracket-delimited
// sequence of rows; each row is either a tuple of scalars or a bare scalar,
// and scalars are null, number, text, boolean, or a byte literal. Decimal
// wrapper tokens are unwrapped before decoding.
package resultset

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"
)

// ColumnSource records where a table's column names came from.
type ColumnSource string

const (
	SourceMetadata    ColumnSource = "execution_metadata"
	SourceCatalog     ColumnSource = "catalog"
	SourceSynthesized ColumnSource = "synthesized"
)

// ColumnSet is an ordered list of column names tagged with its provenance.
type ColumnSet struct {
	Names  []string
	Source ColumnSource
}

// Table is the normalized result of a row-returning statement. When Columns
// and Rows are both non-empty, every row has exactly len(Columns) cells.
type Table struct {
	Columns  []string
	Source   ColumnSource
	Rows     [][]string
	RowCount int
}

// Resolver re-resolves column names from catalog metadata when the decoded
// row width disagrees with the resolved ColumnSet.
type Resolver func() ([]string, bool)

var (
	decimalWrapperPattern = regexp.MustCompile(`Decimal\('([^']+)'\)`)
	affectedRowsPattern   = regexp.MustCompile(`(\d+) rows? affected`)
)

// BuildTable decodes a raw payload for a row-returning statement, reconciling
// the decoded row width with the resolved columns. Width conflicts trigger
// one catalog re-resolution through refetch; if names are still missing or
// still disagree, placeholder names are synthesized from the row width so an
// emitted table is always consistent.
func BuildTable(raw string, columns ColumnSet, refetch Resolver) (Table, error) {
	clean := strings.TrimSpace(raw)

	if isEmptyResult(clean) {
		names := columns.Names
		if names == nil {
			names = []string{}
		}
		return Table{Columns: names, Source: columns.Source, Rows: [][]string{}, RowCount: 0}, nil
	}

	if !strings.HasPrefix(clean, "[") || !strings.HasSuffix(clean, "]") {
		return Table{}, fmt.Errorf("unexpected result format: %s", truncate(clean, 200))
	}

	rows, err := decodeRows(clean)
	if err != nil {
		return Table{}, fmt.Errorf("failed to parse query results: %w", err)
	}

	names := columns.Names
	source := columns.Source
	if len(rows) > 0 {
		width := len(rows[0])
		if len(names) > 0 && len(names) != width && refetch != nil {
			if refetched, ok := refetch(); ok && len(refetched) > 0 {
				names = refetched
				source = SourceCatalog
			}
		}
		if len(names) != width {
			names = SynthesizeColumns(width)
			source = SourceSynthesized
		}
	}
	if names == nil {
		names = []string{}
	}

	return Table{Columns: names, Source: source, Rows: rows, RowCount: len(rows)}, nil
}

// ParseStatus interprets the raw payload of a non-row-returning statement.
// Payloads carrying an affected-row marker produce a templated success
// message; anything else is passed through (or replaced with a default when
// empty).
func ParseStatus(raw string) (string, int) {
	clean := strings.TrimSpace(raw)

	if strings.Contains(clean, "Query OK") || strings.Contains(clean, "rows affected") || strings.Contains(clean, "row affected") {
		affected := 0
		if match := affectedRowsPattern.FindStringSubmatch(clean); match != nil {
			affected, _ = strconv.Atoi(match[1])
		}
		plural := "s"
		if affected == 1 {
			plural = ""
		}
		return fmt.Sprintf("Statement executed successfully. %d row%s affected.", affected, plural), affected
	}

	if clean == "" {
		return "Statement executed successfully.", 0
	}
	return clean, 0
}

// SynthesizeColumns produces placeholder names column_0..column_{n-1}.
func SynthesizeColumns(n int) []string {
	names := make([]string, n)
	for i := range names {
		names[i] = "column_" + strconv.Itoa(i)
	}
	return names
}

func isEmptyResult(clean string) bool {
	return clean == "[]" || clean == "" || strings.Contains(clean, "Empty set") || strings.Contains(clean, "0 rows")
}

// decodeRows tries a strict JSON-normalized decode of the bracket literal
// and falls back to the lenient literal parser. Rows may be tuples
// (multi-column) or bare scalars (single-column).
func decodeRows(clean string) ([][]string, error) {
	unwrapped := decimalWrapperPattern.ReplaceAllString(clean, "'$1'")

	values, strictErr := decodeStrict(unwrapped)
	if strictErr != nil {
		var lenientErr error
		values, lenientErr = parseLiteral(unwrapped)
		if lenientErr != nil {
			return nil, lenientErr
		}
	}

	rows := make([][]string, 0, len(values))
	for _, rowValue := range values {
		if cells, ok := rowValue.([]any); ok {
			row := make([]string, 0, len(cells))
			for _, cell := range cells {
				row = append(row, coerceCell(cell))
			}
			rows = append(rows, row)
			continue
		}
		rows = append(rows, []string{coerceCell(rowValue)})
	}
	return rows, nil
}

// coerceCell maps a decoded scalar to its table-cell string: null becomes
// the empty string, numbers their decimal representation, booleans the
// capitalized True/False tokens, byte literals a best-effort UTF-8 decode
// with invalid bytes dropped.
func coerceCell(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		if v {
			return "True"
		}
		return "False"
	case []byte:
		return dropInvalidUTF8(v)
	default:
		return fmt.Sprintf("%v", v)
	}
}

func dropInvalidUTF8(raw []byte) string {
	if utf8.Valid(raw) {
		return string(raw)
	}
	var builder strings.Builder
	for len(raw) > 0 {
		r, size := utf8.DecodeRune(raw)
		if r != utf8.RuneError || size > 1 {
			builder.WriteRune(r)
		}
		raw = raw[size:]
	}
	return builder.String()
}

func truncate(value string, limit int) string {
	if len(value) <= limit {
		return value
	}
	return value[:limit]
}
