// Package sqlguard screens generated SQL before execution.
//
// The validator is a regex heuristic, not a grammar: it is defense-in-depth
// on top of the single-SELECT constraint enforced at generation time. It can
// over-reject (a keyword inside a string literal) and under-reject (creative
// obfuscation). That trade-off is deliberate; callers must still execute with
// read-only credentials.
package sqlguard

import (
	"fmt"
	"regexp"
	"strings"
)

// Verdict is the validator's answer: safe or not, with a readable reason.
type Verdict struct {
	Safe   bool
	Reason string
}

var dangerousKeywords = []string{
	"DROP", "DELETE", "TRUNCATE", "ALTER", "CREATE",
	"INSERT", "UPDATE", "REPLACE", "GRANT", "REVOKE",
	"EXEC", "EXECUTE",
}

var keywordPatterns = compileKeywordPatterns()

// procPrefixPattern catches privileged procedure families (xp_cmdshell,
// sp_executesql, ...) by prefix rather than whole word.
var procPrefixPattern = regexp.MustCompile(`(?i)\b(?:XP|SP)_\w+`)

type injectionPattern struct {
	re     *regexp.Regexp
	reason string
}

var injectionPatterns = []injectionPattern{
	{regexp.MustCompile(`(?i)OR\s+1\s*=\s*1`), "tautology OR 1=1"},
	{regexp.MustCompile(`(?i)OR\s+'1'\s*=\s*'1'`), "tautology OR '1'='1'"},
	{regexp.MustCompile(`(?i)UNION\s+SELECT`), "UNION SELECT"},
	{regexp.MustCompile(`(?m)--\s*$`), "trailing line comment"},
	{regexp.MustCompile(`(?i);\s*DROP`), "statement terminator followed by DROP"},
	{regexp.MustCompile(`(?i);\s*DELETE`), "statement terminator followed by DELETE"},
	{regexp.MustCompile(`'\s*[Oo][Rr]\s*'`), "quoted OR clause"},
	{regexp.MustCompile(`'\s*;\s*--`), "quote, terminator and comment"},
	{regexp.MustCompile(`(?i)xp_cmdshell`), "command execution procedure"},
	{regexp.MustCompile(`(?s)/\*.*\*/`), "block comment"},
}

func compileKeywordPatterns() map[string]*regexp.Regexp {
	patterns := make(map[string]*regexp.Regexp, len(dangerousKeywords))
	for _, keyword := range dangerousKeywords {
		patterns[keyword] = regexp.MustCompile(`(?i)\b` + keyword + `\b`)
	}
	return patterns
}

// Validate screens a candidate query. Checks short-circuit in a fixed order:
// empty input, mutating/DDL keywords, injection signatures, multi-statement.
func Validate(query string) Verdict {
	if strings.TrimSpace(query) == "" {
		return Verdict{Safe: false, Reason: "query is empty"}
	}

	for _, keyword := range dangerousKeywords {
		if keywordPatterns[keyword].MatchString(query) {
			return Verdict{Safe: false, Reason: fmt.Sprintf("dangerous keyword detected: %s", keyword)}
		}
	}
	if match := procPrefixPattern.FindString(query); match != "" {
		return Verdict{Safe: false, Reason: fmt.Sprintf("dangerous keyword detected: %s", strings.ToUpper(match))}
	}

	for _, pattern := range injectionPatterns {
		if pattern.re.MatchString(query) {
			return Verdict{Safe: false, Reason: "injection pattern detected: " + pattern.reason}
		}
	}

	// Conservative single-statement enforcement: one trailing terminator is
	// tolerated, more than one is rejected.
	if strings.Count(query, ";") > 1 {
		return Verdict{Safe: false, Reason: "multiple statements detected"}
	}

	return Verdict{Safe: true, Reason: "query passed validation"}
}
