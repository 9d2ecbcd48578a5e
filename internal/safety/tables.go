package safety

import "regexp"

// Clause patterns tried in order; the first match wins. FROM before JOIN so
// the primary table of a join query is picked over the joined one.
var tableClausePatterns = []*regexp.Regexp{
	regexp.MustCompile("(?i)\\bFROM\\s+`?(\\w+)`?"),
	regexp.MustCompile("(?i)\\bJOIN\\s+`?(\\w+)`?"),
	regexp.MustCompile("(?i)\\bINTO\\s+`?(\\w+)`?"),
	regexp.MustCompile("(?i)\\bUPDATE\\s+`?(\\w+)`?"),
}

// ExtractTableName returns the first table name a statement references, for
// catalog lookups when result metadata is unavailable. Empty when no clause
// pattern matches.
func ExtractTableName(sql string) string {
	for _, pattern := range tableClausePatterns {
		if match := pattern.FindStringSubmatch(sql); match != nil {
			return match[1]
		}
	}
	return ""
}
