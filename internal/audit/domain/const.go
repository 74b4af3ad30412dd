package domain

// Audit event names emitted by the subsystems.
const (
	// EventContextRegistered records a new credential context registration.
	EventContextRegistered = "context_registered"

	// EventContextSwitch records a context switch attempt with its outcome.
	EventContextSwitch = "context_switch"

	// EventContextSwitchDenied records a switch denied by the rate limiter.
	EventContextSwitchDenied = "context_switch_denied"

	// EventCredentialRotated records an atomic credential rotation.
	EventCredentialRotated = "credential_rotated"

	// EventContextExpired records contexts removed by an expiry sweep.
	EventContextExpired = "context_expired"

	// EventThreatDetected records sanitizer findings for one request.
	EventThreatDetected = "threat_detected"

	// EventConflictResolution records a conflict resolution attempt and outcome.
	EventConflictResolution = "conflict_resolution"
)

// Actor context used when no credential context is active.
const ActorNone = "none"
