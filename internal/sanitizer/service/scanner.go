package service

import (
	"fmt"
	"html"
	"maps"
	"slices"
	"strings"
	"unicode/utf8"

	sanitizerDomain "github.com/allisson/credguard/internal/sanitizer/domain"
)

// Config bounds accepted input.
type Config struct {
	// MaxFieldLength caps individual string fields (runes).
	MaxFieldLength int

	// MaxTotalSize caps the summed byte size of all string fields.
	MaxTotalSize int
}

// Scanner walks an input document, detects threats against the rule table,
// and produces sanitized copies of offending fields. The scanner itself is
// mode-agnostic: deciding whether to block or rewrite is the caller's job.
type Scanner struct {
	rules  map[sanitizerDomain.Category][]Rule
	config Config
}

// NewScanner returns a Scanner over the built-in rule table.
func NewScanner(config Config) *Scanner {
	return &Scanner{
		rules:  rulesByCategory(defaultRules),
		config: config,
	}
}

// TotalSize sums the byte size of every string field in the document.
func (s *Scanner) TotalSize(input map[string]any) int {
	total := 0
	walkStrings(input, "", func(_ string, value string) string {
		total += len(value)
		return value
	})
	return total
}

// ExceedsTotalSize reports whether the document plus extra bytes already
// consumed elsewhere in the request busts the total size cap.
func (s *Scanner) ExceedsTotalSize(input map[string]any, extra int) bool {
	return s.config.MaxTotalSize > 0 && s.TotalSize(input)+extra > s.config.MaxTotalSize
}

// Scan walks the document depth-first in key order and returns every finding
// plus a sanitized copy. The input document is never mutated.
//
// Per field, the oversized check and every category match against the
// original value; the rewrites for the matched categories are then applied
// in fixed category order, truncation first.
func (s *Scanner) Scan(input map[string]any) *sanitizerDomain.Result {
	result := &sanitizerDomain.Result{}

	result.Sanitized = copyMap(input)
	walkStrings(result.Sanitized, "", func(path string, value string) string {
		return s.scanField(path, value, result)
	})

	return result
}

func (s *Scanner) scanField(
	path string,
	value string,
	result *sanitizerDomain.Result,
) string {
	truncate := false
	if s.config.MaxFieldLength > 0 && utf8.RuneCountInString(value) > s.config.MaxFieldLength {
		result.Findings = append(result.Findings, sanitizerDomain.Finding{
			FieldPath: path,
			Category:  sanitizerDomain.CategoryOversized,
			RuleID:    "field_too_long",
		})
		truncate = true
	}

	// Every category matches against the original value: a rewrite for an
	// earlier category must not hide what a later category would have found.
	matched := make([]sanitizerDomain.Category, 0)
	for _, category := range scanOrder {
		for _, rule := range s.rules[category] {
			if rule.Pattern.MatchString(value) {
				result.Findings = append(result.Findings, sanitizerDomain.Finding{
					FieldPath: path,
					Category:  category,
					RuleID:    rule.ID,
				})
				matched = append(matched, category)
				break
			}
		}
	}

	if truncate {
		value = truncateRunes(value, s.config.MaxFieldLength)
	}
	for _, category := range matched {
		value = sanitizeCategory(category, value)
	}

	return value
}

// sanitizeCategory rewrites a value to neutralize one threat category.
func sanitizeCategory(category sanitizerDomain.Category, value string) string {
	switch category {
	case sanitizerDomain.CategoryXSS:
		return html.EscapeString(value)

	case sanitizerDomain.CategorySQLInjection:
		replacer := strings.NewReplacer(
			"'", "", `"`, "", "\\", "", ";", "", "--", "", "/*", "", "*/", "",
		)
		return replacer.Replace(value)

	case sanitizerDomain.CategoryPathTraversal:
		replacer := strings.NewReplacer(
			"../", "", `..\`, "", "%2e%2e", "", "%2E%2E", "",
		)
		// Repeated application handles nested sequences like "....//"
		for {
			replaced := replacer.Replace(value)
			if replaced == value {
				return replaced
			}
			value = replaced
		}

	case sanitizerDomain.CategoryCommandInjection:
		return strings.Map(func(r rune) rune {
			if strings.ContainsRune("`$|&;<>(){}", r) {
				return -1
			}
			return r
		}, value)

	case sanitizerDomain.CategoryEncodingAbuse:
		replacer := strings.NewReplacer("%25", "", "%00", "", `\x`, "", `\u`, "")
		return replacer.Replace(value)

	case sanitizerDomain.CategoryControlChars:
		return strings.Map(func(r rune) rune {
			if r < 0x20 && r != '\t' && r != '\n' && r != '\r' {
				return -1
			}
			if r == 0x7f {
				return -1
			}
			return r
		}, value)

	default:
		return value
	}
}

func truncateRunes(value string, limit int) string {
	runes := []rune(value)
	if len(runes) <= limit {
		return value
	}
	return string(runes[:limit])
}

// walkStrings visits every string field depth-first, replacing each with the
// visitor's return value. Paths use bracket notation: key[subkey][0].
func walkStrings(node any, path string, visit func(path string, value string) string) any {
	switch typed := node.(type) {
	case map[string]any:
		// Sorted keys keep the finding order stable across runs
		for _, key := range slices.Sorted(maps.Keys(typed)) {
			typed[key] = walkStrings(typed[key], childPath(path, key), visit)
		}
		return typed
	case []any:
		for i, value := range typed {
			typed[i] = walkStrings(value, fmt.Sprintf("%s[%d]", path, i), visit)
		}
		return typed
	case string:
		return visit(path, typed)
	default:
		return node
	}
}

func childPath(parent, key string) string {
	if parent == "" {
		return key
	}
	return fmt.Sprintf("%s[%s]", parent, key)
}

// copyMap deep-copies the container structure so sanitization never mutates
// the caller's document. String and scalar leaves are shared.
func copyMap(input map[string]any) map[string]any {
	if input == nil {
		return nil
	}
	out := make(map[string]any, len(input))
	for key, value := range input {
		out[key] = copyValue(value)
	}
	return out
}

func copyValue(value any) any {
	switch typed := value.(type) {
	case map[string]any:
		return copyMap(typed)
	case []any:
		out := make([]any, len(typed))
		for i, item := range typed {
			out[i] = copyValue(item)
		}
		return out
	default:
		return typed
	}
}
