// Package services contains the dispatch layer between HTTP handlers and
// connector implementations.
package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/datalinkhq/connector-engine/pkg/apperrors"
	"github.com/datalinkhq/connector-engine/pkg/audit"
	"github.com/datalinkhq/connector-engine/pkg/connectors"
	"github.com/datalinkhq/connector-engine/pkg/logging"
	"github.com/datalinkhq/connector-engine/pkg/repositories"
)

// TestResult is the outcome of a connectivity test. Test operations report
// failure through Success=false, never through an error return.
type TestResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// DispatchService routes capability operations to the registered connector
// for a type tag, resolving stored connections through the repository.
// Every backend invocation runs under its own timeout.
type DispatchService struct {
	registry *connectors.Registry
	repo     repositories.ConnectionRepository
	timeout  time.Duration
	logger   *zap.Logger
	auditor  *audit.SecurityAuditor
}

// NewDispatchService creates a dispatch service. A non-positive timeout
// falls back to 10 seconds.
func NewDispatchService(registry *connectors.Registry, repo repositories.ConnectionRepository, timeout time.Duration, logger *zap.Logger) *DispatchService {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DispatchService{
		registry: registry,
		repo:     repo,
		timeout:  timeout,
		logger:   logger,
		auditor:  audit.NewSecurityAuditor(logger),
	}
}

// ListConnectors returns the catalog of registered connector identities.
func (s *DispatchService) ListConnectors() []connectors.Info {
	return s.registry.List()
}

// ValidateParams resolves the connector for connectorType and validates
// params against it, returning the normalized copy. Used on the connection
// create path so bad type tags and malformed params are rejected before
// anything is persisted.
func (s *DispatchService) ValidateParams(connectorType string, params map[string]any) (map[string]any, error) {
	connector, err := s.registry.Lookup(connectorType)
	if err != nil {
		return nil, err
	}
	return connector.ValidateParams(params)
}

// TestByParams tests connectivity with caller-supplied params.
func (s *DispatchService) TestByParams(ctx context.Context, connectorType string, params map[string]any) TestResult {
	connector, err := s.registry.Lookup(connectorType)
	if err != nil {
		return failure(err)
	}
	return s.test(ctx, connector, params)
}

// TestByConnection tests connectivity using the stored params of a saved
// connection.
func (s *DispatchService) TestByConnection(ctx context.Context, id uuid.UUID) TestResult {
	connector, params, err := s.resolve(ctx, id, "test")
	if err != nil {
		return failure(err)
	}
	return s.test(ctx, connector, params)
}

func (s *DispatchService) test(ctx context.Context, connector connectors.Connector, params map[string]any) TestResult {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if err := connector.TestConnection(ctx, params); err != nil {
		s.logger.Info("connection test failed",
			zap.String("connector_type", connector.Info().Type),
			zap.String("error", logging.SanitizeError(err)))
		return failure(err)
	}
	return TestResult{Success: true, Message: "Connection successful"}
}

// MetadataByParams fetches source metadata with caller-supplied params.
func (s *DispatchService) MetadataByParams(ctx context.Context, connectorType string, params map[string]any) (connectors.Metadata, error) {
	connector, err := s.registry.Lookup(connectorType)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return connector.GetMetadata(ctx, params)
}

// MetadataByConnection fetches source metadata for a saved connection.
func (s *DispatchService) MetadataByConnection(ctx context.Context, id uuid.UUID) (connectors.Metadata, error) {
	connector, params, err := s.resolve(ctx, id, "metadata")
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return connector.GetMetadata(ctx, params)
}

// SchemaByParams fetches schema descriptors with caller-supplied params.
func (s *DispatchService) SchemaByParams(ctx context.Context, connectorType string, params map[string]any, opts connectors.SchemaOptions) ([]connectors.TableSchema, error) {
	connector, err := s.registry.Lookup(connectorType)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return connector.GetSchema(ctx, params, opts)
}

// SchemaByConnection fetches schema descriptors for a saved connection.
func (s *DispatchService) SchemaByConnection(ctx context.Context, id uuid.UUID, opts connectors.SchemaOptions) ([]connectors.TableSchema, error) {
	connector, params, err := s.resolve(ctx, id, "schema")
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return connector.GetSchema(ctx, params, opts)
}

// resolve loads a saved connection's connector and decrypted params.
// Every decryption of stored credentials is audited under the purpose that
// needed it.
func (s *DispatchService) resolve(ctx context.Context, id uuid.UUID, purpose string) (connectors.Connector, map[string]any, error) {
	conn, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	connector, err := s.registry.Lookup(conn.ConnectorType)
	if err != nil {
		return nil, nil, err
	}
	params, err := s.repo.GetDecryptedParams(ctx, id)
	if err != nil {
		if errors.Is(err, apperrors.ErrDecryptionFailed) {
			s.auditor.DecryptionFailure(id)
		}
		return nil, nil, err
	}
	s.auditor.ParamsAccess(id, purpose)
	return connector, params, nil
}

// failure converts an error into a TestResult with credentials scrubbed
// from the message.
func failure(err error) TestResult {
	return TestResult{Success: false, Message: logging.SanitizeError(err)}
}
