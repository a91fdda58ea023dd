// Package postgres implements the capability contract for PostgreSQL.
package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/datalinkhq/connector-engine/pkg/apperrors"
	"github.com/datalinkhq/connector-engine/pkg/connectors"
)

// Connector connects to PostgreSQL via a connection string.
type Connector struct{}

// New creates the PostgreSQL connector.
func New() *Connector {
	return &Connector{}
}

// Info returns the connector identity.
func (c *Connector) Info() connectors.Info {
	return connectors.Info{
		Type:        "postgresql",
		DisplayName: "PostgreSQL",
		Description: "Connect to PostgreSQL databases",
	}
}

// ValidateParams requires a connection_string with a postgresql:// or
// postgres:// scheme. Returns a normalized copy of the input.
func (c *Connector) ValidateParams(params map[string]any) (map[string]any, error) {
	connStr, ok := params["connection_string"].(string)
	if !ok || connStr == "" {
		return nil, apperrors.MissingParam("connection_string")
	}
	if !strings.HasPrefix(connStr, "postgresql://") && !strings.HasPrefix(connStr, "postgres://") {
		return nil, apperrors.NewValidationError("connection_string",
			"must start with postgresql:// or postgres://")
	}

	normalized := make(map[string]any, len(params))
	for k, v := range params {
		normalized[k] = v
	}
	return normalized, nil
}

// connect validates params and opens a pool. Callers own the returned pool
// and must Close it on every exit path.
func (c *Connector) connect(ctx context.Context, params map[string]any) (*pgxpool.Pool, error) {
	validated, err := c.ValidateParams(params)
	if err != nil {
		return nil, err
	}
	connStr := validated["connection_string"].(string)

	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		return nil, apperrors.NewConnectionError("PostgreSQL", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, apperrors.NewConnectionError("PostgreSQL", err)
	}
	return pool, nil
}

// TestConnection pings the server and runs a trivial round-trip query.
func (c *Connector) TestConnection(ctx context.Context, params map[string]any) error {
	pool, err := c.connect(ctx, params)
	if err != nil {
		return err
	}
	defer pool.Close()

	var result int
	if err := pool.QueryRow(ctx, "SELECT 1").Scan(&result); err != nil {
		return apperrors.NewConnectionError("PostgreSQL", err)
	}
	return nil
}

// GetMetadata returns server version, current database and user table count.
func (c *Connector) GetMetadata(ctx context.Context, params map[string]any) (connectors.Metadata, error) {
	pool, err := c.connect(ctx, params)
	if err != nil {
		return nil, err
	}
	defer pool.Close()

	var version, database string
	if err := pool.QueryRow(ctx, "SELECT version()").Scan(&version); err != nil {
		return nil, apperrors.NewConnectionError("PostgreSQL", err)
	}
	if err := pool.QueryRow(ctx, "SELECT current_database()").Scan(&database); err != nil {
		return nil, apperrors.NewConnectionError("PostgreSQL", err)
	}

	var tableCount int64
	const countQuery = `
		SELECT COUNT(*)
		FROM information_schema.tables
		WHERE table_type = 'BASE TABLE'
		  AND table_schema NOT IN ('pg_catalog', 'information_schema', 'pg_toast')`
	if err := pool.QueryRow(ctx, countQuery).Scan(&tableCount); err != nil {
		return nil, apperrors.NewConnectionError("PostgreSQL", err)
	}

	return connectors.Metadata{
		"type":        "postgresql",
		"version":     version,
		"database":    database,
		"table_count": tableCount,
	}, nil
}

// GetSchema returns table descriptors with columns, primary keys and
// foreign keys. opts may narrow by schema and/or table name; naming a
// target that does not exist is an error, not a fallback.
func (c *Connector) GetSchema(ctx context.Context, params map[string]any, opts connectors.SchemaOptions) ([]connectors.TableSchema, error) {
	pool, err := c.connect(ctx, params)
	if err != nil {
		return nil, err
	}
	defer pool.Close()

	tables, err := listTables(ctx, pool, opts)
	if err != nil {
		return nil, err
	}
	if len(tables) == 0 && (opts.SchemaName != "" || opts.TableName != "") {
		return nil, apperrors.NewValidationError("table_name",
			fmt.Sprintf("no tables match schema=%q table=%q", opts.SchemaName, opts.TableName))
	}

	result := make([]connectors.TableSchema, 0, len(tables))
	for _, tbl := range tables {
		columns, err := listColumns(ctx, pool, tbl.schema, tbl.name)
		if err != nil {
			return nil, err
		}
		pks, err := listPrimaryKeys(ctx, pool, tbl.schema, tbl.name)
		if err != nil {
			return nil, err
		}
		fks, err := listForeignKeys(ctx, pool, tbl.schema, tbl.name)
		if err != nil {
			return nil, err
		}

		result = append(result, connectors.TableSchema{
			Schema:      tbl.schema,
			Table:       tbl.name,
			Columns:     columns,
			PrimaryKeys: pks,
			ForeignKeys: fks,
		})
	}
	return result, nil
}

// Ensure Connector satisfies the capability contract at compile time.
var _ connectors.Connector = (*Connector)(nil)
