package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/datalinkhq/connector-engine/pkg/apperrors"
	"github.com/datalinkhq/connector-engine/pkg/audit"
	"github.com/datalinkhq/connector-engine/pkg/models"
	"github.com/datalinkhq/connector-engine/pkg/repositories"
	"github.com/datalinkhq/connector-engine/pkg/services"
)

// CreateConnectionRequest is the payload for POST /api/connections.
type CreateConnectionRequest struct {
	Name          string         `json:"name"`
	ConnectorType string         `json:"connector_type"`
	Params        map[string]any `json:"connection_params"`
	Description   string         `json:"description"`
}

// UpdateConnectionRequest is the payload for PUT /api/connections/{id}.
// Absent fields are left unchanged; connection_params, when present,
// replaces the whole stored parameter document.
type UpdateConnectionRequest struct {
	Name        *string        `json:"name"`
	Params      map[string]any `json:"connection_params"`
	Description *string        `json:"description"`
}

// ConnectionResponse is the wire form of a stored connection. Params never
// appear: they stay encrypted at rest and are only used server-side.
type ConnectionResponse struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	ConnectorType string `json:"connector_type"`
	Description   string `json:"description,omitempty"`
	CreatedAt     string `json:"created_at"`
	UpdatedAt     string `json:"updated_at"`
}

// ListConnectionsResponse is the payload for GET /api/connections.
type ListConnectionsResponse struct {
	Connections []ConnectionResponse `json:"connections"`
}

// ConnectionsHandler handles connection CRUD endpoints.
type ConnectionsHandler struct {
	repo     repositories.ConnectionRepository
	dispatch *services.DispatchService
	logger   *zap.Logger
	auditor  *audit.SecurityAuditor
}

// NewConnectionsHandler creates a new ConnectionsHandler.
func NewConnectionsHandler(repo repositories.ConnectionRepository, dispatch *services.DispatchService, logger *zap.Logger) *ConnectionsHandler {
	return &ConnectionsHandler{
		repo:     repo,
		dispatch: dispatch,
		logger:   logger,
		auditor:  audit.NewSecurityAuditor(logger),
	}
}

// RegisterRoutes registers the connection CRUD routes on the given mux.
func (h *ConnectionsHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/connections", h.List)
	mux.HandleFunc("POST /api/connections", h.Create)
	mux.HandleFunc("GET /api/connections/{id}", h.Get)
	mux.HandleFunc("PUT /api/connections/{id}", h.Update)
	mux.HandleFunc("DELETE /api/connections/{id}", h.Delete)
}

// writeError writes an error response, logging encode failures.
func (h *ConnectionsHandler) writeError(w http.ResponseWriter, statusCode int, errorCode, message string) {
	if err := ErrorResponse(w, statusCode, errorCode, message); err != nil {
		h.logger.Error("Failed to write error response", zap.Error(err))
	}
}

func toConnectionResponse(conn *models.Connection) ConnectionResponse {
	return ConnectionResponse{
		ID:            conn.ID.String(),
		Name:          conn.Name,
		ConnectorType: conn.ConnectorType,
		Description:   conn.Description,
		CreatedAt:     conn.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		UpdatedAt:     conn.UpdatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}

// List handles GET /api/connections
// Returns all active connections, optionally filtered by ?connector_type=.
func (h *ConnectionsHandler) List(w http.ResponseWriter, r *http.Request) {
	connectorType := r.URL.Query().Get("connector_type")

	connections, err := h.repo.List(r.Context(), connectorType)
	if err != nil {
		h.logger.Error("Failed to list connections", zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, "internal_error", "Failed to list connections")
		return
	}

	data := ListConnectionsResponse{
		Connections: make([]ConnectionResponse, len(connections)),
	}
	for i, conn := range connections {
		data.Connections[i] = toConnectionResponse(conn)
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: data}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Create handles POST /api/connections
// Validates params against the named connector before anything is persisted.
func (h *ConnectionsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateConnectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid_request", "Invalid request body")
		return
	}

	if req.Name == "" {
		h.writeError(w, http.StatusBadRequest, "missing_name", "Connection name is required")
		return
	}
	if req.ConnectorType == "" {
		h.writeError(w, http.StatusBadRequest, "missing_type", "Connector type is required")
		return
	}

	normalized, err := h.dispatch.ValidateParams(req.ConnectorType, req.Params)
	if err != nil {
		if errors.Is(err, apperrors.ErrUnknownConnectorType) {
			h.writeError(w, http.StatusBadRequest, "unknown_connector_type", "Unknown connector type: "+req.ConnectorType)
			return
		}
		h.writeError(w, http.StatusBadRequest, "invalid_params", err.Error())
		return
	}

	conn := &models.Connection{
		Name:          req.Name,
		ConnectorType: req.ConnectorType,
		Params:        normalized,
		Description:   req.Description,
	}
	if err := h.repo.Create(r.Context(), conn); err != nil {
		if errors.Is(err, apperrors.ErrDuplicateName) {
			h.writeError(w, http.StatusConflict, "duplicate_name", "A connection with this name already exists")
			return
		}
		h.logger.Error("Failed to create connection", zap.String("name", req.Name), zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, "create_failed", "Failed to create connection")
		return
	}
	h.auditor.ConnectionChange(conn.ID, "create")

	if err := WriteJSON(w, http.StatusCreated, ApiResponse{Success: true, Data: toConnectionResponse(conn)}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Get handles GET /api/connections/{id}
func (h *ConnectionsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid_connection_id", "Invalid connection ID format")
		return
	}

	conn, err := h.repo.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			h.writeError(w, http.StatusNotFound, "not_found", "Connection not found")
			return
		}
		h.logger.Error("Failed to get connection", zap.String("connection_id", id.String()), zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, "internal_error", "Failed to get connection")
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: toConnectionResponse(conn)}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Update handles PUT /api/connections/{id}
// Connector type is immutable; new params are validated against the stored
// connection's connector before being persisted.
func (h *ConnectionsHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid_connection_id", "Invalid connection ID format")
		return
	}

	var req UpdateConnectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid_request", "Invalid request body")
		return
	}
	if req.Name != nil && *req.Name == "" {
		h.writeError(w, http.StatusBadRequest, "missing_name", "Connection name cannot be empty")
		return
	}

	params := req.Params
	if params != nil {
		current, err := h.repo.GetByID(r.Context(), id)
		if err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				h.writeError(w, http.StatusNotFound, "not_found", "Connection not found")
				return
			}
			h.logger.Error("Failed to get connection", zap.String("connection_id", id.String()), zap.Error(err))
			h.writeError(w, http.StatusInternalServerError, "internal_error", "Failed to get connection")
			return
		}
		params, err = h.dispatch.ValidateParams(current.ConnectorType, params)
		if err != nil {
			h.writeError(w, http.StatusBadRequest, "invalid_params", err.Error())
			return
		}
	}

	conn, err := h.repo.Update(r.Context(), id, &models.ConnectionUpdate{
		Name:        req.Name,
		Params:      params,
		Description: req.Description,
	})
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			h.writeError(w, http.StatusNotFound, "not_found", "Connection not found")
			return
		}
		if errors.Is(err, apperrors.ErrDuplicateName) {
			h.writeError(w, http.StatusConflict, "duplicate_name", "A connection with this name already exists")
			return
		}
		h.logger.Error("Failed to update connection", zap.String("connection_id", id.String()), zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, "update_failed", "Failed to update connection")
		return
	}
	h.auditor.ConnectionChange(id, "update")

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: toConnectionResponse(conn)}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Delete handles DELETE /api/connections/{id}
// Soft-deletes: the record is kept but excluded from every read path.
func (h *ConnectionsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid_connection_id", "Invalid connection ID format")
		return
	}

	if err := h.repo.Delete(r.Context(), id); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			h.writeError(w, http.StatusNotFound, "not_found", "Connection not found")
			return
		}
		h.logger.Error("Failed to delete connection", zap.String("connection_id", id.String()), zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, "delete_failed", "Failed to delete connection")
		return
	}
	h.auditor.ConnectionChange(id, "delete")

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}
