// Package usecase applies the sanitization mode policy on top of the scanner
// and reports threats to the audit sink.
package usecase

import (
	"context"

	sanitizerDomain "github.com/allisson/credguard/internal/sanitizer/domain"
)

// Sanitizer is the boundary input sanitizer.
type Sanitizer interface {
	// Sanitize scans the document against the full rule table and applies the
	// configured mode: strict blocks on any finding with ErrThreatDetected,
	// moderate returns a rewritten document, basic records findings without
	// altering the input. extraBytes counts request bytes outside the document
	// (headers) toward the total size cap; busting the cap blocks only in
	// strict mode. sourceIP is recorded on threat audit events.
	Sanitize(
		ctx context.Context,
		input map[string]any,
		extraBytes int,
		sourceIP string,
	) (*sanitizerDomain.Result, error)

	// Mode returns the configured sanitization mode.
	Mode() sanitizerDomain.Mode
}
