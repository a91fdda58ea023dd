package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/datalinkhq/connector-engine/pkg/apperrors"
	"github.com/datalinkhq/connector-engine/pkg/connectors"
	"github.com/datalinkhq/connector-engine/pkg/logging"
	"github.com/datalinkhq/connector-engine/pkg/services"
)

// InvokeRequest is the payload for the connector operation endpoints.
// Callers either reference a saved connection by ID or supply a connector
// type and parameters inline; connection_id wins when both are present.
type InvokeRequest struct {
	ConnectionID  string         `json:"connection_id"`
	ConnectorType string         `json:"connector_type"`
	Params        map[string]any `json:"connection_params"`

	// Schema narrowing, used by the schema endpoint only.
	SchemaName string `json:"schema_name"`
	TableName  string `json:"table_name"`
	SheetName  string `json:"sheet_name"`
}

// ConnectorsHandler handles connector discovery and capability invocation.
type ConnectorsHandler struct {
	dispatch *services.DispatchService
	logger   *zap.Logger
}

// NewConnectorsHandler creates a new ConnectorsHandler.
func NewConnectorsHandler(dispatch *services.DispatchService, logger *zap.Logger) *ConnectorsHandler {
	return &ConnectorsHandler{dispatch: dispatch, logger: logger}
}

// RegisterRoutes registers the connector routes on the given mux.
func (h *ConnectorsHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/connectors/types", h.Types)
	mux.HandleFunc("POST /api/connectors/test", h.Test)
	mux.HandleFunc("POST /api/connectors/metadata", h.Metadata)
	mux.HandleFunc("POST /api/connectors/schema", h.Schema)
}

func (h *ConnectorsHandler) writeError(w http.ResponseWriter, statusCode int, errorCode, message string) {
	if err := ErrorResponse(w, statusCode, errorCode, message); err != nil {
		h.logger.Error("Failed to write error response", zap.Error(err))
	}
}

// decodeInvoke parses the request body and checks the target reference.
// Returns the parsed connection ID when one was supplied.
func (h *ConnectorsHandler) decodeInvoke(w http.ResponseWriter, r *http.Request) (*InvokeRequest, uuid.UUID, bool) {
	var req InvokeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid_request", "Invalid request body")
		return nil, uuid.Nil, false
	}

	if req.ConnectionID != "" {
		id, err := uuid.Parse(req.ConnectionID)
		if err != nil {
			h.writeError(w, http.StatusBadRequest, "invalid_connection_id", "Invalid connection ID format")
			return nil, uuid.Nil, false
		}
		return &req, id, true
	}

	if req.ConnectorType == "" {
		h.writeError(w, http.StatusBadRequest, "missing_target",
			"Either connection_id or connector_type is required")
		return nil, uuid.Nil, false
	}
	return &req, uuid.Nil, true
}

// writeInvokeError maps dispatch errors to HTTP statuses. Backend error text
// is scrubbed of credentials before leaving the service.
func (h *ConnectorsHandler) writeInvokeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		h.writeError(w, http.StatusNotFound, "not_found", "Connection not found")
	case errors.Is(err, apperrors.ErrUnknownConnectorType):
		h.writeError(w, http.StatusBadRequest, "unknown_connector_type", "Unknown connector type")
	case apperrors.IsValidation(err):
		h.writeError(w, http.StatusBadRequest, "invalid_params", err.Error())
	case apperrors.IsConnection(err):
		h.writeError(w, http.StatusBadGateway, "connection_failed", logging.SanitizeError(err))
	case errors.Is(err, apperrors.ErrDecryptionFailed):
		h.writeError(w, http.StatusInternalServerError, "decryption_failed",
			"Stored connection parameters could not be decrypted")
	default:
		h.logger.Error("Connector operation failed", zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, "internal_error", "Connector operation failed")
	}
}

func connectorsSchemaOptions(req *InvokeRequest) connectors.SchemaOptions {
	return connectors.SchemaOptions{
		SchemaName: req.SchemaName,
		TableName:  req.TableName,
		SheetName:  req.SheetName,
	}
}

// Types handles GET /api/connectors/types
// Returns the catalog of registered connector identities.
func (h *ConnectorsHandler) Types(w http.ResponseWriter, r *http.Request) {
	data := map[string]any{"connectors": h.dispatch.ListConnectors()}
	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: data}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Test handles POST /api/connectors/test
// Always responds 200 with a TestResult; connectivity failures surface as
// success=false, never as an HTTP error.
func (h *ConnectorsHandler) Test(w http.ResponseWriter, r *http.Request) {
	req, id, ok := h.decodeInvoke(w, r)
	if !ok {
		return
	}

	var result services.TestResult
	if id != uuid.Nil {
		result = h.dispatch.TestByConnection(r.Context(), id)
	} else {
		result = h.dispatch.TestByParams(r.Context(), req.ConnectorType, req.Params)
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: result}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Metadata handles POST /api/connectors/metadata
func (h *ConnectorsHandler) Metadata(w http.ResponseWriter, r *http.Request) {
	req, id, ok := h.decodeInvoke(w, r)
	if !ok {
		return
	}

	var (
		metadata any
		err      error
	)
	if id != uuid.Nil {
		metadata, err = h.dispatch.MetadataByConnection(r.Context(), id)
	} else {
		metadata, err = h.dispatch.MetadataByParams(r.Context(), req.ConnectorType, req.Params)
	}
	if err != nil {
		h.writeInvokeError(w, err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: metadata}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Schema handles POST /api/connectors/schema
func (h *ConnectorsHandler) Schema(w http.ResponseWriter, r *http.Request) {
	req, id, ok := h.decodeInvoke(w, r)
	if !ok {
		return
	}

	opts := connectorsSchemaOptions(req)
	var (
		schema any
		err    error
	)
	if id != uuid.Nil {
		schema, err = h.dispatch.SchemaByConnection(r.Context(), id, opts)
	} else {
		schema, err = h.dispatch.SchemaByParams(r.Context(), req.ConnectorType, req.Params, opts)
	}
	if err != nil {
		h.writeInvokeError(w, err)
		return
	}

	data := map[string]any{"tables": schema}
	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: data}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}
