package models

import (
	"time"

	"github.com/google/uuid"
)

// Connection is a persisted descriptor for a configured external data
// source. Params holds connection details (host, credentials, URIs) and is
// stored encrypted at rest as a single opaque token; it is only populated
// in memory on the create path or via the repository's explicit decrypt
// operation, never on ordinary reads.
type Connection struct {
	ID            uuid.UUID      `json:"id"`
	Name          string         `json:"name"`
	ConnectorType string         `json:"connector_type"` // "postgresql", "mysql", "mongodb", ...
	Params        map[string]any `json:"connection_params,omitempty"`
	Description   string         `json:"description,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	IsActive      bool           `json:"is_active"`
}

// ConnectionUpdate carries a partial update. Nil fields are left unchanged;
// Params, when non-nil, replaces the whole stored parameter document.
type ConnectionUpdate struct {
	Name        *string
	Params      map[string]any
	Description *string
}
