// Package domain defines threat categories, sanitization modes, and scan
// findings for boundary input sanitization.
package domain

// Mode selects how aggressively findings are acted on.
type Mode string

const (
	// ModeStrict blocks the request on any finding.
	ModeStrict Mode = "strict"

	// ModeModerate rewrites offending fields and lets the request through.
	ModeModerate Mode = "moderate"

	// ModeBasic records findings without altering the input.
	ModeBasic Mode = "basic"
)

// ParseMode maps a config string to a Mode, defaulting to strict: an
// unrecognized mode must fail closed, not open.
func ParseMode(s string) Mode {
	switch Mode(s) {
	case ModeModerate:
		return ModeModerate
	case ModeBasic:
		return ModeBasic
	default:
		return ModeStrict
	}
}

// Category classifies a detected threat.
type Category string

const (
	CategoryXSS              Category = "xss"
	CategorySQLInjection     Category = "sql_injection"
	CategoryPathTraversal    Category = "path_traversal"
	CategoryCommandInjection Category = "command_injection"
	CategoryEncodingAbuse    Category = "encoding_abuse"
	CategoryControlChars     Category = "control_chars"
	CategoryOversized        Category = "oversized"
)
