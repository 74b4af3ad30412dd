package domain

// Finding is one detected threat in one input field.
type Finding struct {
	// FieldPath locates the offending field, nested keys joined as
	// key[subkey][0].
	FieldPath string `json:"field_path"`

	// Category is the threat classification.
	Category Category `json:"category"`

	// RuleID names the rule that matched. Findings never carry the offending
	// value itself.
	RuleID string `json:"rule_id"`
}

// Result is the outcome of sanitizing one input document.
type Result struct {
	// Sanitized is the document handed back to the caller: rewritten in
	// moderate mode, the original input in basic mode, nil in strict mode
	// when the request is blocked.
	Sanitized map[string]any

	// Findings lists every detected threat in scan order.
	Findings []Finding
}

// Categories returns the distinct categories present in the findings,
// in first-seen order.
func (r *Result) Categories() []Category {
	seen := make(map[Category]bool)
	categories := make([]Category, 0)
	for _, f := range r.Findings {
		if !seen[f.Category] {
			seen[f.Category] = true
			categories = append(categories, f.Category)
		}
	}
	return categories
}
