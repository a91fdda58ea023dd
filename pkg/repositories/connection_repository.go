// Package repositories implements data access over PostgreSQL.
package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/datalinkhq/connector-engine/pkg/apperrors"
	"github.com/datalinkhq/connector-engine/pkg/crypto"
	"github.com/datalinkhq/connector-engine/pkg/database"
	"github.com/datalinkhq/connector-engine/pkg/models"
)

// ConnectionRepository defines the interface for connection data access.
// Connection params are encrypted before write and only decrypted through
// GetDecryptedParams — ordinary reads return records with Params unset.
type ConnectionRepository interface {
	// Create inserts a new connection, encrypting its params. Returns
	// apperrors.ErrDuplicateName if an active connection already uses the name.
	Create(ctx context.Context, conn *models.Connection) error

	// GetByID retrieves an active connection by ID, params unset.
	GetByID(ctx context.Context, id uuid.UUID) (*models.Connection, error)

	// List retrieves all active connections, params unset, optionally
	// filtered by connector type.
	List(ctx context.Context, connectorType string) ([]*models.Connection, error)

	// Update applies a partial update. A non-nil Params replaces the whole
	// stored parameter document.
	Update(ctx context.Context, id uuid.UUID, upd *models.ConnectionUpdate) (*models.Connection, error)

	// Delete soft-deletes a connection. A second delete of the same ID
	// returns apperrors.ErrNotFound.
	Delete(ctx context.Context, id uuid.UUID) error

	// GetDecryptedParams retrieves and decrypts the stored parameter
	// document of an active connection.
	GetDecryptedParams(ctx context.Context, id uuid.UUID) (map[string]any, error)
}

// connectionRepository implements ConnectionRepository using PostgreSQL.
type connectionRepository struct {
	db     *database.DB
	cipher *crypto.ParamsCipher
}

// NewConnectionRepository creates a connection repository backed by db,
// encrypting parameter documents with cipher.
func NewConnectionRepository(db *database.DB, cipher *crypto.ParamsCipher) ConnectionRepository {
	return &connectionRepository{db: db, cipher: cipher}
}

// Create inserts a new connection.
func (r *connectionRepository) Create(ctx context.Context, conn *models.Connection) error {
	encrypted, err := r.cipher.EncryptDocument(conn.Params)
	if err != nil {
		return fmt.Errorf("failed to encrypt connection params: %w", err)
	}

	now := time.Now()
	conn.ID = uuid.New()
	conn.CreatedAt = now
	conn.UpdatedAt = now
	conn.IsActive = true

	query := `
		INSERT INTO connections (id, name, connector_type, connection_params, description, created_at, updated_at, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err = r.db.Exec(ctx, query,
		conn.ID,
		conn.Name,
		conn.ConnectorType,
		encrypted,
		conn.Description,
		conn.CreatedAt,
		conn.UpdatedAt,
		conn.IsActive,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return apperrors.ErrDuplicateName
		}
		return fmt.Errorf("failed to create connection: %w", err)
	}
	return nil
}

// GetByID retrieves an active connection by ID.
func (r *connectionRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Connection, error) {
	conn, _, err := r.getRow(ctx, id)
	return conn, err
}

// getRow fetches the record plus its encrypted parameter token.
func (r *connectionRepository) getRow(ctx context.Context, id uuid.UUID) (*models.Connection, string, error) {
	query := `
		SELECT id, name, connector_type, connection_params, description, created_at, updated_at, is_active
		FROM connections
		WHERE id = $1 AND is_active`

	var conn models.Connection
	var encrypted string
	err := r.db.QueryRow(ctx, query, id).Scan(
		&conn.ID,
		&conn.Name,
		&conn.ConnectorType,
		&encrypted,
		&conn.Description,
		&conn.CreatedAt,
		&conn.UpdatedAt,
		&conn.IsActive,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, "", apperrors.ErrNotFound
		}
		return nil, "", fmt.Errorf("failed to get connection: %w", err)
	}
	return &conn, encrypted, nil
}

// List retrieves all active connections, newest first.
func (r *connectionRepository) List(ctx context.Context, connectorType string) ([]*models.Connection, error) {
	query := `
		SELECT id, name, connector_type, description, created_at, updated_at, is_active
		FROM connections
		WHERE is_active AND ($1 = '' OR connector_type = $1)
		ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, query, connectorType)
	if err != nil {
		return nil, fmt.Errorf("failed to list connections: %w", err)
	}
	defer rows.Close()

	var connections []*models.Connection
	for rows.Next() {
		var conn models.Connection
		err := rows.Scan(
			&conn.ID,
			&conn.Name,
			&conn.ConnectorType,
			&conn.Description,
			&conn.CreatedAt,
			&conn.UpdatedAt,
			&conn.IsActive,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan connection: %w", err)
		}
		connections = append(connections, &conn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating connections: %w", err)
	}
	return connections, nil
}

// Update applies a partial update and returns the refreshed record.
func (r *connectionRepository) Update(ctx context.Context, id uuid.UUID, upd *models.ConnectionUpdate) (*models.Connection, error) {
	current, encrypted, err := r.getRow(ctx, id)
	if err != nil {
		return nil, err
	}

	name := current.Name
	if upd.Name != nil {
		name = *upd.Name
	}
	description := current.Description
	if upd.Description != nil {
		description = *upd.Description
	}
	if upd.Params != nil {
		encrypted, err = r.cipher.EncryptDocument(upd.Params)
		if err != nil {
			return nil, fmt.Errorf("failed to encrypt connection params: %w", err)
		}
	}

	query := `
		UPDATE connections
		SET name = $2, connection_params = $3, description = $4, updated_at = $5
		WHERE id = $1 AND is_active`

	now := time.Now()
	result, err := r.db.Exec(ctx, query, id, name, encrypted, description, now)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, apperrors.ErrDuplicateName
		}
		return nil, fmt.Errorf("failed to update connection: %w", err)
	}
	if result.RowsAffected() == 0 {
		return nil, apperrors.ErrNotFound
	}

	current.Name = name
	current.Description = description
	current.UpdatedAt = now
	return current, nil
}

// Delete soft-deletes a connection. The partial unique index on name only
// covers active rows, so the name becomes reusable immediately.
func (r *connectionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE connections SET is_active = FALSE, updated_at = $2 WHERE id = $1 AND is_active`

	result, err := r.db.Exec(ctx, query, id, time.Now())
	if err != nil {
		return fmt.Errorf("failed to delete connection: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// GetDecryptedParams retrieves and decrypts the stored parameter document.
func (r *connectionRepository) GetDecryptedParams(ctx context.Context, id uuid.UUID) (map[string]any, error) {
	_, encrypted, err := r.getRow(ctx, id)
	if err != nil {
		return nil, err
	}

	params, err := r.cipher.DecryptDocument(encrypted)
	if err != nil {
		return nil, fmt.Errorf("connection %s: %w", id, err)
	}
	return params, nil
}

// Ensure connectionRepository implements ConnectionRepository at compile time.
var _ ConnectionRepository = (*connectionRepository)(nil)
