package nl2sql

import (
	"fmt"
	"strings"

	"github.com/askdb/askdb/internal/schema"
)

const (
	// Excerpt caps keep the prompt inside the model's context budget.
	schemaExcerptLimit   = 2000
	examplesExcerptLimit = 2000
)

const systemPrompt = "You are a SQL expert. You convert business questions into a single, " +
	"valid MySQL SELECT statement. Return ONLY SQL. No markdown, no explanation."

// ruleBlock is the fixed constraint list injected into every prompt. The
// comma and alias rules exist because the repair pass downstream depends on
// the model at least attempting this shape.
const ruleBlock = `Rules:
1. Return exactly one SELECT statement, no prose.
2. In the SELECT list, every expression except the last must end with a comma.
3. Join predicates across text columns must append COLLATE utf8mb4_unicode_ci, e.g. ON a.eid = b.eid COLLATE utf8mb4_unicode_ci.
4. Never use SELECT *.
5. Default time filters to the last 3 years unless the question states a range.
6. Cap result rows with LIMIT 1000.
7. Use IFNULL(expr, 0) for null-safe defaults and COUNT(DISTINCT col) for deduplicated counts.
8. GROUP BY and ORDER BY must reference original columns or expressions, never SELECT aliases.`

func buildPrompt(loader *schema.Loader, req Request) string {
	schemaDoc := ""
	examples := ""
	if loader != nil {
		schemaDoc = loader.Schema(req.Scenario)
		examples = loader.Examples()
	}
	if strings.TrimSpace(schemaDoc) == "" {
		schemaDoc = schema.FallbackHint(req.Scenario)
	}

	var b strings.Builder
	b.WriteString("## Schema\n")
	b.WriteString(schema.Excerpt(schemaDoc, schemaExcerptLimit))
	b.WriteString("\n\n")
	if strings.TrimSpace(examples) != "" {
		b.WriteString("## Examples\n")
		b.WriteString(schema.Excerpt(examples, examplesExcerptLimit))
		b.WriteString("\n\n")
	}
	b.WriteString(ruleBlock)
	b.WriteString("\n\n## Question\n")
	b.WriteString(strings.TrimSpace(req.Question))
	b.WriteString("\n\nSQL:")
	return b.String()
}

// stripMarkdownSQL removes code-fence markers from a raw completion.
func stripMarkdownSQL(value string) string {
	trimmed := strings.TrimSpace(value)
	if strings.HasPrefix(trimmed, "```") {
		trimmed = strings.TrimPrefix(trimmed, "```sql")
		trimmed = strings.TrimPrefix(trimmed, "```")
		trimmed = strings.TrimSuffix(trimmed, "```")
		return strings.TrimSpace(trimmed)
	}
	return trimmed
}

var errEmptyCompletion = fmt.Errorf("model returned no SELECT statement")
