package usecase

import (
	"context"
	"fmt"
	"log/slog"

	auditDomain "github.com/allisson/credguard/internal/audit/domain"
	auditUsecase "github.com/allisson/credguard/internal/audit/usecase"
	sanitizerDomain "github.com/allisson/credguard/internal/sanitizer/domain"
	sanitizerService "github.com/allisson/credguard/internal/sanitizer/service"
)

type sanitizerUseCase struct {
	scanner *sanitizerService.Scanner
	mode    sanitizerDomain.Mode
	audit   auditUsecase.UseCase
	logger  *slog.Logger
}

// NewSanitizer returns a Sanitizer applying the given mode.
func NewSanitizer(
	scanner *sanitizerService.Scanner,
	mode sanitizerDomain.Mode,
	audit auditUsecase.UseCase,
	logger *slog.Logger,
) Sanitizer {
	return &sanitizerUseCase{
		scanner: scanner,
		mode:    mode,
		audit:   audit,
		logger:  logger,
	}
}

// Mode returns the configured sanitization mode.
func (s *sanitizerUseCase) Mode() sanitizerDomain.Mode {
	return s.mode
}

// Sanitize enforces the size cap, scans, and applies the mode policy.
func (s *sanitizerUseCase) Sanitize(
	ctx context.Context,
	input map[string]any,
	extraBytes int,
	sourceIP string,
) (*sanitizerDomain.Result, error) {
	var findings []sanitizerDomain.Finding
	if s.scanner.ExceedsTotalSize(input, extraBytes) {
		oversized := sanitizerDomain.Finding{
			FieldPath: "",
			Category:  sanitizerDomain.CategoryOversized,
			RuleID:    "input_too_large",
		}
		if s.mode == sanitizerDomain.ModeStrict {
			s.emitThreat(ctx, sourceIP, []sanitizerDomain.Finding{oversized}, true)
			return nil, sanitizerDomain.ErrInputTooLarge
		}
		// Moderate truncates fields below and continues, basic passes through
		findings = append(findings, oversized)
	}

	// Every mode scans the full rule table: the mode decides what happens to
	// a finding, never whether it is detected and audited.
	result := s.scanner.Scan(input)
	result.Findings = append(findings, result.Findings...)

	if len(result.Findings) == 0 {
		return result, nil
	}

	switch s.mode {
	case sanitizerDomain.ModeStrict:
		s.emitThreat(ctx, sourceIP, result.Findings, true)
		s.logger.WarnContext(ctx, "input blocked by threat detection",
			slog.Int("findings", len(result.Findings)),
			slog.String("source_ip", sourceIP),
		)
		return &sanitizerDomain.Result{Findings: result.Findings}, sanitizerDomain.ErrThreatBlocked

	case sanitizerDomain.ModeBasic:
		s.emitThreat(ctx, sourceIP, result.Findings, false)
		return &sanitizerDomain.Result{Sanitized: input, Findings: result.Findings}, nil

	default:
		s.emitThreat(ctx, sourceIP, result.Findings, false)
		return result, nil
	}
}

// emitThreat records one audit event per detected category. Details name the
// threat type and the offending field paths but never the input itself.
func (s *sanitizerUseCase) emitThreat(
	ctx context.Context,
	sourceIP string,
	findings []sanitizerDomain.Finding,
	blocked bool,
) {
	if s.audit == nil {
		return
	}

	byCategory := make(map[sanitizerDomain.Category][]string)
	for _, f := range findings {
		byCategory[f.Category] = append(byCategory[f.Category], f.FieldPath)
	}

	requestID := auditDomain.RequestIDFromContext(ctx)
	for category, paths := range byCategory {
		details := map[string]any{
			"threat_type": fmt.Sprintf("%s_attempt", category),
			"field_paths": paths,
			"blocked":     blocked,
		}
		if err := s.audit.Emit(
			ctx, requestID, auditDomain.EventThreatDetected, auditDomain.ActorNone, sourceIP, details,
		); err != nil {
			s.logger.WarnContext(ctx, "failed to emit audit event", slog.Any("error", err))
		}
	}
}
