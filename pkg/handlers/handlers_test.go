package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/datalinkhq/connector-engine/pkg/apperrors"
	"github.com/datalinkhq/connector-engine/pkg/connectors"
	"github.com/datalinkhq/connector-engine/pkg/models"
	"github.com/datalinkhq/connector-engine/pkg/repositories"
	"github.com/datalinkhq/connector-engine/pkg/services"
)

// memRepo is an in-memory ConnectionRepository for handler tests.
type memRepo struct {
	connections map[uuid.UUID]*models.Connection
	params      map[uuid.UUID]map[string]any
}

func newMemRepo() *memRepo {
	return &memRepo{
		connections: make(map[uuid.UUID]*models.Connection),
		params:      make(map[uuid.UUID]map[string]any),
	}
}

func (r *memRepo) Create(ctx context.Context, conn *models.Connection) error {
	for _, existing := range r.connections {
		if existing.IsActive && existing.Name == conn.Name {
			return apperrors.ErrDuplicateName
		}
	}
	now := time.Now()
	conn.ID = uuid.New()
	conn.CreatedAt = now
	conn.UpdatedAt = now
	conn.IsActive = true

	stored := *conn
	stored.Params = nil
	r.connections[conn.ID] = &stored
	r.params[conn.ID] = conn.Params
	return nil
}

func (r *memRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Connection, error) {
	conn, ok := r.connections[id]
	if !ok || !conn.IsActive {
		return nil, apperrors.ErrNotFound
	}
	copied := *conn
	return &copied, nil
}

func (r *memRepo) List(ctx context.Context, connectorType string) ([]*models.Connection, error) {
	var result []*models.Connection
	for _, conn := range r.connections {
		if !conn.IsActive {
			continue
		}
		if connectorType != "" && conn.ConnectorType != connectorType {
			continue
		}
		copied := *conn
		result = append(result, &copied)
	}
	return result, nil
}

func (r *memRepo) Update(ctx context.Context, id uuid.UUID, upd *models.ConnectionUpdate) (*models.Connection, error) {
	conn, ok := r.connections[id]
	if !ok || !conn.IsActive {
		return nil, apperrors.ErrNotFound
	}
	if upd.Name != nil {
		for otherID, other := range r.connections {
			if otherID != id && other.IsActive && other.Name == *upd.Name {
				return nil, apperrors.ErrDuplicateName
			}
		}
		conn.Name = *upd.Name
	}
	if upd.Description != nil {
		conn.Description = *upd.Description
	}
	if upd.Params != nil {
		r.params[id] = upd.Params
	}
	conn.UpdatedAt = time.Now()
	copied := *conn
	return &copied, nil
}

func (r *memRepo) Delete(ctx context.Context, id uuid.UUID) error {
	conn, ok := r.connections[id]
	if !ok || !conn.IsActive {
		return apperrors.ErrNotFound
	}
	conn.IsActive = false
	return nil
}

func (r *memRepo) GetDecryptedParams(ctx context.Context, id uuid.UUID) (map[string]any, error) {
	conn, ok := r.connections[id]
	if !ok || !conn.IsActive {
		return nil, apperrors.ErrNotFound
	}
	return r.params[id], nil
}

var _ repositories.ConnectionRepository = (*memRepo)(nil)

// fakeConnector is a controllable connector for handler tests.
type fakeConnector struct {
	info      connectors.Info
	testErr   error
	metadata  connectors.Metadata
	metaErr   error
	schema    []connectors.TableSchema
	schemaErr error
}

func (f *fakeConnector) Info() connectors.Info { return f.info }

func (f *fakeConnector) ValidateParams(params map[string]any) (map[string]any, error) {
	if _, ok := params["connection_string"]; !ok {
		return nil, apperrors.MissingParam("connection_string")
	}
	return params, nil
}

func (f *fakeConnector) TestConnection(ctx context.Context, params map[string]any) error {
	return f.testErr
}

func (f *fakeConnector) GetMetadata(ctx context.Context, params map[string]any) (connectors.Metadata, error) {
	return f.metadata, f.metaErr
}

func (f *fakeConnector) GetSchema(ctx context.Context, params map[string]any, opts connectors.SchemaOptions) ([]connectors.TableSchema, error) {
	return f.schema, f.schemaErr
}

// newTestMux wires the handlers with an in-memory repository and a single
// fake postgresql connector, mirroring the production route setup.
func newTestMux(fake *fakeConnector) (*http.ServeMux, *memRepo) {
	registry := connectors.NewRegistry(nil)
	registry.Register(fake)

	repo := newMemRepo()
	dispatch := services.NewDispatchService(registry, repo, time.Second, nil)

	mux := http.NewServeMux()
	NewConnectionsHandler(repo, dispatch, nopLogger()).RegisterRoutes(mux)
	NewConnectorsHandler(dispatch, nopLogger()).RegisterRoutes(mux)
	return mux, repo
}
