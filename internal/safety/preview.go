package safety

import (
	"regexp"
	"strings"
)

const (
	previewPlaceholder = "-"
	previewImpact      = "Removes/modifies record(s) permanently"
)

// Preview is a human-reviewable summary of what a dangerous statement would
// do: one fixed header row and exactly one data row. Extraction is regex
// based and not guaranteed accurate; it exists so a user can eyeball the
// blast radius before confirming.
type Preview struct {
	Columns []string   `json:"columns"`
	Data    [][]string `json:"data"`
}

var (
	deleteTablePattern = regexp.MustCompile("FROM\\s+`?(\\w+)`?")
	updateTablePattern = regexp.MustCompile("UPDATE\\s+`?(\\w+)`?")
	dropTablePattern   = regexp.MustCompile("DROP\\s+TABLE\\s+`?(\\w+)`?")
	wherePattern       = regexp.MustCompile(`(?i)WHERE\s+(.+)`)
)

// ExtractPreview builds the confirmation descriptor for a statement already
// classified as dangerous. Action comes from the leading keyword, table from
// a keyword-specific pattern over the uppercased text, condition from the
// WHERE clause of the original text.
func ExtractPreview(sql string) Preview {
	upper := strings.ToUpper(strings.TrimSpace(sql))
	action := "UNKNOWN"
	table := previewPlaceholder
	condition := previewPlaceholder

	switch {
	case strings.HasPrefix(upper, "DELETE"):
		action = "DELETE"
		if match := deleteTablePattern.FindStringSubmatch(upper); match != nil {
			table = match[1]
		}
		if match := wherePattern.FindStringSubmatch(sql); match != nil {
			condition = match[1]
		}
	case strings.HasPrefix(upper, "UPDATE"):
		action = "UPDATE"
		if match := updateTablePattern.FindStringSubmatch(upper); match != nil {
			table = match[1]
		}
		if match := wherePattern.FindStringSubmatch(sql); match != nil {
			condition = match[1]
		}
	case strings.HasPrefix(upper, "DROP"):
		action = "DROP"
		if match := dropTablePattern.FindStringSubmatch(upper); match != nil {
			table = match[1]
		}
	}

	return Preview{
		Columns: []string{"Action", "Table", "Condition", "Impact"},
		Data:    [][]string{{action, table, condition, previewImpact}},
	}
}
