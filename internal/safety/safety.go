// Package safety holds the text-level heuristics that decide whether a
// generated SQL statement may run immediately or needs user confirmation.
// Classification is a best-effort scan over text, not a semantic analysis;
// it deliberately over-flags rather than attempting to parse SQL.
package safety

import (
	"regexp"
	"strings"
)

type Verdict int

const (
	Safe Verdict = iota
	RequiresConfirmation
)

// Classification is the verdict for one sanitized statement, with the
// ordered list of keywords and injection signatures that triggered it.
// It is computed once per statement and never re-derived.
type Classification struct {
	Verdict Verdict
	Reasons []string
}

func (c Classification) Dangerous() bool {
	return c.Verdict == RequiresConfirmation
}

var destructiveKeywords = []string{"DROP", "TRUNCATE", "DELETE", "ALTER", "UPDATE"}

var keywordPatterns = func() []*regexp.Regexp {
	patterns := make([]*regexp.Regexp, 0, len(destructiveKeywords))
	for _, keyword := range destructiveKeywords {
		patterns = append(patterns, regexp.MustCompile(`(?i)\b`+keyword+`\b`))
	}
	return patterns
}()

// injectionSignatures mirror common injection shapes: statement chaining into
// DROP/EXEC, comment tokens, UNION SELECT, always-true tails, quote-based OR
// injection, and the SQL Server command-execution procedure.
var injectionSignatures = []struct {
	ID      string
	Pattern *regexp.Regexp
}{
	{`;\s*DROP`, regexp.MustCompile(`(?i);\s*DROP`)},
	{`--`, regexp.MustCompile(`--`)},
	{`/\*.*\*/`, regexp.MustCompile(`/\*.*\*/`)},
	{`UNION\s+SELECT`, regexp.MustCompile(`(?i)UNION\s+SELECT`)},
	{`OR\s+1\s*=\s*1`, regexp.MustCompile(`(?i)OR\s+1\s*=\s*1`)},
	{`AND\s+1\s*=\s*1`, regexp.MustCompile(`(?i)AND\s+1\s*=\s*1`)},
	{`'\s*OR\s*'`, regexp.MustCompile(`(?i)'\s*OR\s*'`)},
	{`;\s*EXEC`, regexp.MustCompile(`(?i);\s*EXEC`)},
	{`xp_cmdshell`, regexp.MustCompile(`(?i)xp_cmdshell`)},
}

var (
	lineCommentPattern  = regexp.MustCompile(`(?m)--.*$`)
	blockCommentPattern = regexp.MustCompile(`(?s)/\*.*?\*/`)
)

// Sanitize strips line and block comments from a generated statement and
// trims surrounding whitespace. Applying it twice is a no-op.
func Sanitize(sql string) string {
	sql = lineCommentPattern.ReplaceAllString(sql, "")
	sql = blockCommentPattern.ReplaceAllString(sql, "")
	return strings.TrimSpace(sql)
}

// Classify scans sanitized statement text for destructive keywords and
// injection signatures. Both checks run fully; their reasons are
// concatenated in a fixed order so the verdict is deterministic.
func Classify(sql string) Classification {
	reasons := make([]string, 0, 2)
	for i, pattern := range keywordPatterns {
		if pattern.MatchString(sql) {
			reasons = append(reasons, destructiveKeywords[i])
		}
	}
	for _, signature := range injectionSignatures {
		if signature.Pattern.MatchString(sql) {
			reasons = append(reasons, "INJECTION_PATTERN: "+signature.ID)
		}
	}

	if len(reasons) == 0 {
		return Classification{Verdict: Safe}
	}
	return Classification{Verdict: RequiresConfirmation, Reasons: reasons}
}

// IsRowReturning reports whether the statement produces a result set worth
// tabulating. The check is the leading keyword, consistent with the rest of
// the heuristics here.
func IsRowReturning(sql string) bool {
	return strings.HasPrefix(strings.ToUpper(strings.TrimSpace(sql)), "SELECT")
}
