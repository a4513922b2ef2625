package nl2sql

import (
	"sort"
	"strings"
	"unicode"
)

// Repair normalizes a model-produced SELECT statement before validation.
// Model output over multi-line SELECT lists is frequently missing the
// trailing comma between expressions, mixes full-width commas into the list,
// and references SELECT aliases from GROUP BY or ORDER BY, which MySQL
// rejects when the alias shadows a grouped expression. Repair fixes those
// three defects and leaves everything else untouched.
func Repair(sql string) string {
	trimmed := strings.TrimSpace(sql)
	if trimmed == "" {
		return trimmed
	}

	lines := strings.Split(trimmed, "\n")
	aliases := collectAliases(lines)

	inSelect := false
	for i, line := range lines {
		upper := strings.ToUpper(line)
		if strings.Contains(upper, "SELECT") {
			inSelect = true
		}
		if containsClauseKeyword(upper) {
			inSelect = false
		}

		if inSelect {
			lines[i] = appendMissingComma(lines, i)
		}

		// Only the clause tail is rewritten so an `AS alias` earlier on the
		// same line keeps its name.
		if idx := groupOrOrderByIndex(upper); idx >= 0 {
			lines[i] = lines[i][:idx] + substituteAliases(lines[i][idx:], aliases)
		}
	}

	// Full-width commas sneak in with CJK questions. Normalize them first,
	// then collapse comma runs the comma pass may have produced.
	repaired := strings.Join(lines, "\n")
	repaired = strings.ReplaceAll(repaired, "，", ",")
	for strings.Contains(repaired, ",,") {
		repaired = strings.ReplaceAll(repaired, ",,", ",")
	}
	return repaired
}

var clauseKeywords = []string{"FROM", "WHERE", "GROUP BY", "ORDER BY", "LIMIT", "HAVING"}

func containsClauseKeyword(upperLine string) bool {
	return clauseKeywordIndex(upperLine) >= 0
}

// clauseKeywordIndex returns the position of the earliest clause keyword on
// the line, or -1.
func clauseKeywordIndex(upperLine string) int {
	idx := -1
	for _, kw := range clauseKeywords {
		if i := strings.Index(upperLine, kw); i >= 0 && (idx < 0 || i < idx) {
			idx = i
		}
	}
	return idx
}

func groupOrOrderByIndex(upperLine string) int {
	idx := -1
	for _, kw := range []string{"GROUP BY", "ORDER BY"} {
		if i := strings.Index(upperLine, kw); i >= 0 && (idx < 0 || i < idx) {
			idx = i
		}
	}
	return idx
}

// collectAliases maps every `expr AS alias` in the SELECT list to its
// expression so alias references in GROUP BY and ORDER BY can be expanded.
// On single-line statements only the segment between SELECT and the first
// clause keyword is scanned. An alias that names a column of its own
// expression, such as `YEAR(round_date) AS round_date`, is dropped: its
// references are already valid and expanding them would nest the expression
// inside itself on every pass.
func collectAliases(lines []string) map[string]string {
	aliases := make(map[string]string)
	inSelect := false
	for _, line := range lines {
		upper := strings.ToUpper(line)
		if idx := strings.Index(upper, "SELECT"); idx >= 0 {
			inSelect = true
			line = line[idx+len("SELECT"):]
			upper = upper[idx+len("SELECT"):]
		}
		if !inSelect {
			continue
		}
		if idx := clauseKeywordIndex(upper); idx >= 0 {
			line = line[:idx]
			inSelect = false
		}

		for _, segment := range splitTopLevel(line) {
			idx := strings.LastIndex(strings.ToUpper(segment), " AS ")
			if idx < 0 {
				continue
			}
			expr := strings.TrimSpace(segment[:idx])
			alias := strings.TrimSpace(segment[idx+len(" AS "):])
			alias = strings.TrimSuffix(alias, "，")
			if expr == "" || alias == "" || containsToken(expr, alias) {
				continue
			}
			aliases[alias] = expr
		}
	}
	return aliases
}

// splitTopLevel splits a SELECT list fragment on commas outside parentheses,
// keeping expressions like SUM(IFNULL(amount, 0)) in one piece.
func splitTopLevel(s string) []string {
	var parts []string
	depth := 0
	start := 0
	for i, r := range s {
		switch r {
		case '(':
			depth++
		case ')':
			if depth > 0 {
				depth--
			}
		case ',':
			if depth == 0 {
				parts = append(parts, s[start:i])
				start = i + 1
			}
		}
	}
	return append(parts, s[start:])
}

// appendMissingComma adds the separating comma to an alias-defining SELECT
// list line when the following line continues the list. Lines without
// `AS` are continuation text of a multi-line expression and must stay
// untouched; the last expression before FROM must not get a comma either.
func appendMissingComma(lines []string, i int) string {
	line := lines[i]
	trimmed := strings.TrimRight(line, " \t")
	if !strings.Contains(strings.ToUpper(trimmed), " AS ") {
		return line
	}
	if strings.HasSuffix(trimmed, ",") || strings.HasSuffix(trimmed, "，") {
		return trimmed
	}

	next := nextNonEmptyLine(lines, i+1)
	if next == "" {
		return line
	}
	if containsClauseKeyword(strings.ToUpper(next)) {
		return line
	}
	return trimmed + ","
}

func nextNonEmptyLine(lines []string, start int) string {
	for _, line := range lines[start:] {
		if strings.TrimSpace(line) != "" {
			return strings.TrimSpace(line)
		}
	}
	return ""
}

// substituteAliases replaces whole-token alias references with their original
// expressions. Longest aliases go first so that an alias which is a prefix of
// another (common with CJK names) never clobbers the longer one.
func substituteAliases(line string, aliases map[string]string) string {
	if len(aliases) == 0 {
		return line
	}
	names := make([]string, 0, len(aliases))
	for alias := range aliases {
		names = append(names, alias)
	}
	sort.Slice(names, func(i, j int) bool {
		if len(names[i]) != len(names[j]) {
			return len(names[i]) > len(names[j])
		}
		return names[i] < names[j]
	})

	for _, alias := range names {
		line = replaceToken(line, alias, aliases[alias])
	}
	return line
}

// replaceToken substitutes occurrences of token in line only when the
// neighbouring runes are not identifier characters.
func replaceToken(line, token, replacement string) string {
	var b strings.Builder
	rest := line
	offset := 0
	for {
		idx := strings.Index(rest, token)
		if idx < 0 {
			b.WriteString(rest)
			break
		}
		before := line[:offset+idx]
		after := rest[idx+len(token):]
		if boundaryOK(before, after) {
			b.WriteString(rest[:idx])
			b.WriteString(replacement)
		} else {
			b.WriteString(rest[:idx+len(token)])
		}
		offset += idx + len(token)
		rest = after
	}
	return b.String()
}

// containsToken reports whether token occurs in s as a whole identifier.
func containsToken(s, token string) bool {
	rest := s
	offset := 0
	for {
		idx := strings.Index(rest, token)
		if idx < 0 {
			return false
		}
		if boundaryOK(s[:offset+idx], rest[idx+len(token):]) {
			return true
		}
		offset += idx + len(token)
		rest = s[offset:]
	}
}

func boundaryOK(before, after string) bool {
	runesBefore := []rune(before)
	if len(runesBefore) > 0 && isIdentRune(runesBefore[len(runesBefore)-1]) {
		return false
	}
	runesAfter := []rune(after)
	if len(runesAfter) > 0 && isIdentRune(runesAfter[0]) {
		return false
	}
	return true
}

func isIdentRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}
