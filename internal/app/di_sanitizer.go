package app

import (
	"fmt"

	sanitizerDomain "github.com/allisson/credguard/internal/sanitizer/domain"
	sanitizerService "github.com/allisson/credguard/internal/sanitizer/service"
	sanitizerUsecase "github.com/allisson/credguard/internal/sanitizer/usecase"
)

// Sanitizer returns the input sanitizer guarding the API boundary.
func (c *Container) Sanitizer() (sanitizerUsecase.Sanitizer, error) {
	var err error
	c.sanitizerInit.Do(func() {
		c.sanitizer, err = c.initSanitizer()
		if err != nil {
			c.initErrors["sanitizer"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["sanitizer"]; exists {
		return nil, storedErr
	}
	return c.sanitizer, nil
}

// initSanitizer creates the sanitizer with the configured mode and limits.
// Unknown modes fall back to strict.
func (c *Container) initSanitizer() (sanitizerUsecase.Sanitizer, error) {
	auditUseCase, err := c.AuditUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get audit use case for sanitizer: %w", err)
	}

	businessMetrics, err := c.BusinessMetrics()
	if err != nil {
		return nil, fmt.Errorf("failed to get business metrics for sanitizer: %w", err)
	}

	scanner := sanitizerService.NewScanner(c.sanitizerConfig())
	mode := sanitizerDomain.ParseMode(c.config.SanitizationMode)

	sanitizer := sanitizerUsecase.NewSanitizer(scanner, mode, auditUseCase, c.Logger())

	return sanitizerUsecase.NewSanitizerWithMetrics(sanitizer, businessMetrics), nil
}
