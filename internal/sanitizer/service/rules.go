// Package service implements the threat rule table and the recursive input
// scanner.
package service

import (
	"regexp"

	sanitizerDomain "github.com/allisson/credguard/internal/sanitizer/domain"
)

// Rule is one detection pattern. Rules are grouped by category and evaluated
// in table order; within a category the first match wins and scanning moves
// on to the next category.
type Rule struct {
	ID       string
	Category sanitizerDomain.Category
	Pattern  *regexp.Regexp
}

// defaultRules is the built-in detection table. Patterns favor recall over
// precision: a false positive in moderate mode costs a rewrite, a false
// negative costs an injection.
var defaultRules = []Rule{
	// XSS
	{
		ID:       "xss_script_tag",
		Category: sanitizerDomain.CategoryXSS,
		Pattern:  regexp.MustCompile(`(?i)<\s*script`),
	},
	{
		ID:       "xss_event_handler",
		Category: sanitizerDomain.CategoryXSS,
		Pattern:  regexp.MustCompile(`(?i)\bon[a-z]+\s*=`),
	},
	{
		ID:       "xss_javascript_uri",
		Category: sanitizerDomain.CategoryXSS,
		Pattern:  regexp.MustCompile(`(?i)javascript\s*:`),
	},
	{
		ID:       "xss_embed_tag",
		Category: sanitizerDomain.CategoryXSS,
		Pattern:  regexp.MustCompile(`(?i)<\s*(iframe|object|embed|svg)`),
	},

	// SQL injection
	{
		ID:       "sql_tautology",
		Category: sanitizerDomain.CategorySQLInjection,
		Pattern:  regexp.MustCompile(`(?i)'\s*(or|and)\s+\S+\s*=`),
	},
	{
		ID:       "sql_union_select",
		Category: sanitizerDomain.CategorySQLInjection,
		Pattern:  regexp.MustCompile(`(?i)\bunion\b[\s\S]*\bselect\b`),
	},
	{
		ID:       "sql_stacked_statement",
		Category: sanitizerDomain.CategorySQLInjection,
		Pattern:  regexp.MustCompile(`(?i);\s*(drop|delete|insert|update|alter)\b`),
	},
	{
		ID:       "sql_comment",
		Category: sanitizerDomain.CategorySQLInjection,
		Pattern:  regexp.MustCompile(`(--|/\*|\*/|\bxp_)`),
	},

	// Path traversal
	{
		ID:       "path_dotdot",
		Category: sanitizerDomain.CategoryPathTraversal,
		Pattern:  regexp.MustCompile(`\.\.[/\\]`),
	},
	{
		ID:       "path_dotdot_encoded",
		Category: sanitizerDomain.CategoryPathTraversal,
		Pattern:  regexp.MustCompile(`(?i)(%2e%2e|\.\.%2f|%2e%2e%5c)`),
	},

	// Command injection
	{
		ID:       "cmd_substitution",
		Category: sanitizerDomain.CategoryCommandInjection,
		Pattern:  regexp.MustCompile("(\\$\\(|`)"),
	},
	{
		ID:       "cmd_chaining",
		Category: sanitizerDomain.CategoryCommandInjection,
		Pattern:  regexp.MustCompile(`(\|\||&&|;\s*(rm|cat|wget|curl|sh|bash|nc)\b)`),
	},

	// Encoding abuse
	{
		ID:       "enc_double_url",
		Category: sanitizerDomain.CategoryEncodingAbuse,
		Pattern:  regexp.MustCompile(`(?i)%25[0-9a-f]{2}`),
	},
	{
		ID:       "enc_escape_sequence",
		Category: sanitizerDomain.CategoryEncodingAbuse,
		Pattern:  regexp.MustCompile(`(?i)(\\x[0-9a-f]{2}|\\u[0-9a-f]{4})`),
	},
	{
		ID:       "enc_null_byte",
		Category: sanitizerDomain.CategoryEncodingAbuse,
		Pattern:  regexp.MustCompile(`(?i)%00`),
	},

	// Control characters (category also covers raw NUL bytes)
	{
		ID:       "ctl_raw",
		Category: sanitizerDomain.CategoryControlChars,
		Pattern:  regexp.MustCompile("[\x00-\x08\x0b\x0c\x0e-\x1f\x7f]"),
	},
}

// scanOrder fixes the category evaluation order so results are deterministic
// regardless of how the table is edited.
var scanOrder = []sanitizerDomain.Category{
	sanitizerDomain.CategoryXSS,
	sanitizerDomain.CategorySQLInjection,
	sanitizerDomain.CategoryPathTraversal,
	sanitizerDomain.CategoryCommandInjection,
	sanitizerDomain.CategoryEncodingAbuse,
	sanitizerDomain.CategoryControlChars,
}

// rulesByCategory indexes the table for scan-time lookups.
func rulesByCategory(rules []Rule) map[sanitizerDomain.Category][]Rule {
	index := make(map[sanitizerDomain.Category][]Rule)
	for _, rule := range rules {
		index[rule.Category] = append(index[rule.Category], rule)
	}
	return index
}
