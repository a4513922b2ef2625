package sqlguard

import (
	"regexp"
	"strings"
)

// dangerousSequences are stripped from free text that ends up in search
// queries or filenames. SQL values never go through this path: the execution
// gateway parameterizes values instead of sanitizing strings.
var dangerousSequences = []string{"'", `"`, ";", "--", "/*", "*/"}

var identifierPattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

const maxIdentifierLength = 64

// SanitizeFreeText removes quote, terminator and comment sequences from user
// supplied free text.
func SanitizeFreeText(input string) string {
	if input == "" {
		return ""
	}
	sanitized := input
	for _, sequence := range dangerousSequences {
		sanitized = strings.ReplaceAll(sanitized, sequence, "")
	}
	return strings.TrimSpace(sanitized)
}

// ValidateIdentifier checks a table or column name: letters, digits and
// underscores only, not starting with a digit, at most 64 characters.
func ValidateIdentifier(name string) Verdict {
	if name == "" {
		return Verdict{Safe: false, Reason: "identifier is empty"}
	}
	if !identifierPattern.MatchString(name) {
		return Verdict{Safe: false, Reason: "identifier may only contain letters, digits and underscores"}
	}
	if len(name) > maxIdentifierLength {
		return Verdict{Safe: false, Reason: "identifier exceeds 64 characters"}
	}
	return Verdict{Safe: true, Reason: "identifier is valid"}
}
