// Package validation provides custom validation rules for the application.
package validation

import (
	"fmt"
	"strings"

	validation "github.com/jellydator/validation"

	apperrors "github.com/allisson/credguard/internal/errors"
)

const (
	// APIKeyPrefix is the required prefix for API-key-shaped credential fields.
	APIKeyPrefix = "clb_"

	// APIKeyMinLength is the minimum total length of an API key, prefix included.
	APIKeyMinLength = 20
)

// WrapValidationError wraps validation errors as domain ErrInvalidInput.
func WrapValidationError(err error) error {
	if err == nil {
		return nil
	}
	return apperrors.Wrap(apperrors.ErrInvalidInput, err.Error())
}

// APIKey validates that a credential field looks like a well-formed API key:
// required prefix plus a minimum overall length.
var APIKey = validation.NewStringRuleWithError(
	func(s string) bool {
		return strings.HasPrefix(s, APIKeyPrefix) && len(s) >= APIKeyMinLength
	},
	validation.NewError(
		"validation_api_key_format",
		fmt.Sprintf("must start with %q and be at least %d characters", APIKeyPrefix, APIKeyMinLength),
	),
)

// TenantID validates tenant identifiers: non-blank, no whitespace, bounded length.
var TenantID = validation.NewStringRuleWithError(
	func(s string) bool {
		if s == "" || s != strings.TrimSpace(s) {
			return false
		}
		return len(s) <= 128 && !strings.ContainsAny(s, " \t\n")
	},
	validation.NewError("validation_tenant_id", "must be a non-blank identifier without whitespace"),
)

// NoWhitespace validates that string doesn't contain leading/trailing whitespace.
var NoWhitespace = validation.NewStringRuleWithError(
	func(s string) bool {
		return s == strings.TrimSpace(s)
	},
	validation.NewError("validation_no_whitespace", "must not contain leading or trailing whitespace"),
)

// NotBlank validates that a string is not empty after trimming whitespace.
var NotBlank = validation.NewStringRuleWithError(
	func(s string) bool {
		return strings.TrimSpace(s) != ""
	},
	validation.NewError("validation_not_blank", "must not be blank"),
)
