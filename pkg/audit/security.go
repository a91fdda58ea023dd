// Package audit provides security audit logging for SIEM consumption.
// Events are emitted as structured JSON under a dedicated logger namespace
// so they can be filtered from operational logs.
package audit

import (
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SecurityEventType categorizes security-relevant events for filtering and alerting.
type SecurityEventType string

const (
	// EventAuthFailure is logged when an API request presents a missing or
	// invalid API key.
	EventAuthFailure SecurityEventType = "auth_failure"
	// EventParamsAccess is logged whenever stored connection credentials are
	// decrypted for a capability invocation.
	EventParamsAccess SecurityEventType = "connection_params_access"
	// EventConnectionChange is logged for create, update and delete of
	// stored connections.
	EventConnectionChange SecurityEventType = "connection_change"
	// EventDecryptionFailure is logged when a stored parameter document
	// cannot be decrypted. Usually means key rotation without migration.
	EventDecryptionFailure SecurityEventType = "decryption_failure"
)

// SecurityAuditor logs security events for SIEM consumption.
type SecurityAuditor struct {
	logger *zap.Logger
}

// NewSecurityAuditor creates an auditor with a dedicated "security_audit"
// logger namespace. A nil logger yields a no-op auditor.
func NewSecurityAuditor(logger *zap.Logger) *SecurityAuditor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SecurityAuditor{
		logger: logger.Named("security_audit"),
	}
}

// AuthFailure records a rejected API request.
func (a *SecurityAuditor) AuthFailure(remoteAddr, path string) {
	a.logger.Warn("security event",
		zap.String("event_type", string(EventAuthFailure)),
		zap.Time("timestamp", time.Now().UTC()),
		zap.String("severity", "warning"),
		zap.String("remote_addr", remoteAddr),
		zap.String("path", path),
	)
}

// ParamsAccess records a decryption of stored connection credentials.
// purpose names the operation that needed them ("test", "metadata", "schema").
func (a *SecurityAuditor) ParamsAccess(connectionID uuid.UUID, purpose string) {
	a.logger.Info("security event",
		zap.String("event_type", string(EventParamsAccess)),
		zap.Time("timestamp", time.Now().UTC()),
		zap.String("severity", "info"),
		zap.String("connection_id", connectionID.String()),
		zap.String("purpose", purpose),
	)
}

// ConnectionChange records a mutation of the connection store.
func (a *SecurityAuditor) ConnectionChange(connectionID uuid.UUID, action string) {
	a.logger.Info("security event",
		zap.String("event_type", string(EventConnectionChange)),
		zap.Time("timestamp", time.Now().UTC()),
		zap.String("severity", "info"),
		zap.String("connection_id", connectionID.String()),
		zap.String("action", action),
	)
}

// DecryptionFailure records a stored document that could not be decrypted.
func (a *SecurityAuditor) DecryptionFailure(connectionID uuid.UUID) {
	a.logger.Error("security event",
		zap.String("event_type", string(EventDecryptionFailure)),
		zap.Time("timestamp", time.Now().UTC()),
		zap.String("severity", "critical"),
		zap.String("connection_id", connectionID.String()),
	)
}
