package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/datalinkhq/connector-engine/pkg/apperrors"
	"github.com/datalinkhq/connector-engine/pkg/connectors"
	"github.com/datalinkhq/connector-engine/pkg/models"
	"github.com/datalinkhq/connector-engine/pkg/repositories"
)

// stubConnector records invocations and returns canned results.
type stubConnector struct {
	info      connectors.Info
	testErr   error
	metadata  connectors.Metadata
	metaErr   error
	schema    []connectors.TableSchema
	schemaErr error

	lastParams  map[string]any
	lastOpts    connectors.SchemaOptions
	sawDeadline bool
}

func (s *stubConnector) Info() connectors.Info { return s.info }

func (s *stubConnector) ValidateParams(params map[string]any) (map[string]any, error) {
	if _, ok := params["connection_string"]; !ok {
		return nil, apperrors.MissingParam("connection_string")
	}
	return params, nil
}

func (s *stubConnector) TestConnection(ctx context.Context, params map[string]any) error {
	_, s.sawDeadline = ctx.Deadline()
	s.lastParams = params
	return s.testErr
}

func (s *stubConnector) GetMetadata(ctx context.Context, params map[string]any) (connectors.Metadata, error) {
	s.lastParams = params
	return s.metadata, s.metaErr
}

func (s *stubConnector) GetSchema(ctx context.Context, params map[string]any, opts connectors.SchemaOptions) ([]connectors.TableSchema, error) {
	s.lastParams = params
	s.lastOpts = opts
	return s.schema, s.schemaErr
}

// stubRepo serves a single in-memory connection.
type stubRepo struct {
	conn   *models.Connection
	params map[string]any
}

func (r *stubRepo) Create(ctx context.Context, conn *models.Connection) error { return nil }

func (r *stubRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Connection, error) {
	if r.conn == nil || r.conn.ID != id {
		return nil, apperrors.ErrNotFound
	}
	return r.conn, nil
}

func (r *stubRepo) List(ctx context.Context, connectorType string) ([]*models.Connection, error) {
	return nil, nil
}

func (r *stubRepo) Update(ctx context.Context, id uuid.UUID, upd *models.ConnectionUpdate) (*models.Connection, error) {
	return nil, apperrors.ErrNotFound
}

func (r *stubRepo) Delete(ctx context.Context, id uuid.UUID) error { return apperrors.ErrNotFound }

func (r *stubRepo) GetDecryptedParams(ctx context.Context, id uuid.UUID) (map[string]any, error) {
	if r.conn == nil || r.conn.ID != id {
		return nil, apperrors.ErrNotFound
	}
	return r.params, nil
}

var _ repositories.ConnectionRepository = (*stubRepo)(nil)

func newFixture(t *testing.T, stub *stubConnector) (*DispatchService, uuid.UUID) {
	t.Helper()

	registry := connectors.NewRegistry(nil)
	registry.Register(stub)

	id := uuid.New()
	repo := &stubRepo{
		conn: &models.Connection{
			ID:            id,
			Name:          "prod-db",
			ConnectorType: stub.info.Type,
			IsActive:      true,
		},
		params: map[string]any{"connection_string": "postgresql://u:p@db:5432/app"},
	}

	return NewDispatchService(registry, repo, time.Second, nil), id
}

func TestTestByConnectionSuccess(t *testing.T) {
	stub := &stubConnector{info: connectors.Info{Type: "postgresql"}}
	svc, id := newFixture(t, stub)

	result := svc.TestByConnection(context.Background(), id)
	if !result.Success {
		t.Fatalf("expected success, got %q", result.Message)
	}
	if stub.lastParams["connection_string"] == nil {
		t.Error("stored params were not passed through")
	}
	if !stub.sawDeadline {
		t.Error("test invocation must carry a deadline")
	}
}

func TestTestNeverReturnsError(t *testing.T) {
	tests := []struct {
		name string
		stub *stubConnector
		call func(svc *DispatchService, id uuid.UUID) TestResult
	}{
		{
			name: "backend failure",
			stub: &stubConnector{
				info:    connectors.Info{Type: "postgresql"},
				testErr: apperrors.NewConnectionError("PostgreSQL", errors.New("dial tcp: refused")),
			},
			call: func(svc *DispatchService, id uuid.UUID) TestResult {
				return svc.TestByConnection(context.Background(), id)
			},
		},
		{
			name: "unknown connection",
			stub: &stubConnector{info: connectors.Info{Type: "postgresql"}},
			call: func(svc *DispatchService, _ uuid.UUID) TestResult {
				return svc.TestByConnection(context.Background(), uuid.New())
			},
		},
		{
			name: "unknown connector type",
			stub: &stubConnector{info: connectors.Info{Type: "postgresql"}},
			call: func(svc *DispatchService, _ uuid.UUID) TestResult {
				return svc.TestByParams(context.Background(), "oracle", map[string]any{})
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, id := newFixture(t, tt.stub)
			result := tt.call(svc, id)
			if result.Success {
				t.Fatal("expected failure result")
			}
			if result.Message == "" {
				t.Error("failure result must carry a message")
			}
		})
	}
}

func TestTestFailureMessageIsSanitized(t *testing.T) {
	stub := &stubConnector{
		info: connectors.Info{Type: "postgresql"},
		testErr: apperrors.NewConnectionError("PostgreSQL",
			errors.New(`auth failed for "postgresql://admin:hunter2@db:5432/app"`)),
	}
	svc, id := newFixture(t, stub)

	result := svc.TestByConnection(context.Background(), id)
	if result.Success {
		t.Fatal("expected failure result")
	}
	if strings.Contains(result.Message, "hunter2") {
		t.Errorf("credential leaked into message: %q", result.Message)
	}
}

func TestMetadataPropagatesErrors(t *testing.T) {
	wantErr := apperrors.NewConnectionError("PostgreSQL", errors.New("timeout"))
	stub := &stubConnector{info: connectors.Info{Type: "postgresql"}, metaErr: wantErr}
	svc, id := newFixture(t, stub)

	if _, err := svc.MetadataByConnection(context.Background(), id); !apperrors.IsConnection(err) {
		t.Errorf("expected ConnectionError, got %v", err)
	}

	if _, err := svc.MetadataByConnection(context.Background(), uuid.New()); !errors.Is(err, apperrors.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	if _, err := svc.MetadataByParams(context.Background(), "oracle", nil); !errors.Is(err, apperrors.ErrUnknownConnectorType) {
		t.Errorf("expected ErrUnknownConnectorType, got %v", err)
	}
}

func TestSchemaByConnectionPassesOptions(t *testing.T) {
	stub := &stubConnector{
		info:   connectors.Info{Type: "postgresql"},
		schema: []connectors.TableSchema{{Table: "users"}},
	}
	svc, id := newFixture(t, stub)

	opts := connectors.SchemaOptions{SchemaName: "public", TableName: "users"}
	schema, err := svc.SchemaByConnection(context.Background(), id, opts)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(schema) != 1 || schema[0].Table != "users" {
		t.Errorf("unexpected schema: %+v", schema)
	}
	if stub.lastOpts != opts {
		t.Errorf("opts = %+v, want %+v", stub.lastOpts, opts)
	}
}

func TestValidateParams(t *testing.T) {
	stub := &stubConnector{info: connectors.Info{Type: "postgresql"}}
	svc, _ := newFixture(t, stub)

	if _, err := svc.ValidateParams("oracle", nil); !errors.Is(err, apperrors.ErrUnknownConnectorType) {
		t.Errorf("expected ErrUnknownConnectorType, got %v", err)
	}
	if _, err := svc.ValidateParams("postgresql", map[string]any{}); !apperrors.IsValidation(err) {
		t.Errorf("expected ValidationError, got %v", err)
	}
	if _, err := svc.ValidateParams("postgresql", map[string]any{"connection_string": "x"}); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}
