// Package sqlserver implements the capability contract for Microsoft SQL
// Server using SQL authentication.
package sqlserver

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"

	_ "github.com/microsoft/go-mssqldb" // SQL Server driver

	"github.com/datalinkhq/connector-engine/pkg/apperrors"
	"github.com/datalinkhq/connector-engine/pkg/connectors"
)

const defaultPort = 1433

// Connector connects to SQL Server via discrete host/port parameters.
type Connector struct{}

// New creates the SQL Server connector.
func New() *Connector {
	return &Connector{}
}

// Info returns the connector identity.
func (c *Connector) Info() connectors.Info {
	return connectors.Info{
		Type:        "sqlserver",
		DisplayName: "SQL Server",
		Description: "Connect to Microsoft SQL Server databases",
	}
}

// ValidateParams requires host, username and database. Port defaults to
// 1433, encrypt to true, trust_server_certificate to false. Returns a
// normalized copy with the defaults applied.
func (c *Connector) ValidateParams(params map[string]any) (map[string]any, error) {
	host, ok := params["host"].(string)
	if !ok || host == "" {
		return nil, apperrors.MissingParam("host")
	}
	username, ok := params["username"].(string)
	if !ok || username == "" {
		return nil, apperrors.MissingParam("username")
	}
	database, ok := params["database"].(string)
	if !ok || database == "" {
		return nil, apperrors.MissingParam("database")
	}

	port, err := connectors.IntParam(params, "port", defaultPort)
	if err != nil {
		return nil, err
	}
	if port < 1 || port > 65535 {
		return nil, apperrors.NewValidationError("port", "must be between 1 and 65535")
	}

	encrypt, err := connectors.BoolParam(params, "encrypt", true)
	if err != nil {
		return nil, err
	}
	trust, err := connectors.BoolParam(params, "trust_server_certificate", false)
	if err != nil {
		return nil, err
	}

	normalized := make(map[string]any, len(params))
	for k, v := range params {
		normalized[k] = v
	}
	normalized["port"] = port
	normalized["encrypt"] = encrypt
	normalized["trust_server_certificate"] = trust
	return normalized, nil
}

// connectionString builds a sqlserver:// URL for SQL authentication.
func connectionString(params map[string]any) string {
	query := url.Values{}
	query.Add("database", params["database"].(string))
	if params["encrypt"].(bool) {
		query.Add("encrypt", "true")
	} else {
		query.Add("encrypt", "false")
	}
	if params["trust_server_certificate"].(bool) {
		query.Add("TrustServerCertificate", "true")
	}

	password, _ := params["password"].(string)
	return fmt.Sprintf("sqlserver://%s:%s@%s:%d?%s",
		url.QueryEscape(params["username"].(string)),
		url.QueryEscape(password),
		params["host"].(string),
		params["port"].(int),
		query.Encode(),
	)
}

// connect validates params and opens a pinged database handle. Callers must
// Close the handle on every exit path.
func (c *Connector) connect(ctx context.Context, params map[string]any) (*sql.DB, error) {
	validated, err := c.ValidateParams(params)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlserver", connectionString(validated))
	if err != nil {
		return nil, apperrors.NewConnectionError("SQL Server", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, apperrors.NewConnectionError("SQL Server", err)
	}
	return db, nil
}

// TestConnection pings the server and verifies the target database is the
// active one.
func (c *Connector) TestConnection(ctx context.Context, params map[string]any) error {
	db, err := c.connect(ctx, params)
	if err != nil {
		return err
	}
	defer db.Close()

	var name string
	if err := db.QueryRowContext(ctx, "SELECT DB_NAME()").Scan(&name); err != nil {
		return apperrors.NewConnectionError("SQL Server", err)
	}
	return nil
}

// GetMetadata returns server version, database name and table count.
func (c *Connector) GetMetadata(ctx context.Context, params map[string]any) (connectors.Metadata, error) {
	db, err := c.connect(ctx, params)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	var version, database string
	if err := db.QueryRowContext(ctx, "SELECT @@VERSION").Scan(&version); err != nil {
		return nil, apperrors.NewConnectionError("SQL Server", err)
	}
	if err := db.QueryRowContext(ctx, "SELECT DB_NAME()").Scan(&database); err != nil {
		return nil, apperrors.NewConnectionError("SQL Server", err)
	}

	var tableCount int64
	const countQuery = `SELECT COUNT(*) FROM information_schema.tables WHERE table_type = 'BASE TABLE'`
	if err := db.QueryRowContext(ctx, countQuery).Scan(&tableCount); err != nil {
		return nil, apperrors.NewConnectionError("SQL Server", err)
	}

	return connectors.Metadata{
		"type":        "sqlserver",
		"version":     version,
		"database":    database,
		"table_count": tableCount,
	}, nil
}

// GetSchema returns table descriptors with columns, primary keys and foreign
// keys. An empty opts.SchemaName means dbo. Naming a table that does not
// exist is an error, not a fallback.
func (c *Connector) GetSchema(ctx context.Context, params map[string]any, opts connectors.SchemaOptions) ([]connectors.TableSchema, error) {
	db, err := c.connect(ctx, params)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	schemaName := opts.SchemaName
	if schemaName == "" {
		schemaName = "dbo"
	}

	tables, err := listTables(ctx, db, schemaName, opts.TableName)
	if err != nil {
		return nil, err
	}
	if len(tables) == 0 && opts.TableName != "" {
		return nil, apperrors.NewValidationError("table_name",
			fmt.Sprintf("table %q not found in schema %q", opts.TableName, schemaName))
	}

	result := make([]connectors.TableSchema, 0, len(tables))
	for _, table := range tables {
		columns, err := listColumns(ctx, db, schemaName, table)
		if err != nil {
			return nil, err
		}
		pks, err := listPrimaryKeys(ctx, db, schemaName, table)
		if err != nil {
			return nil, err
		}
		fks, err := listForeignKeys(ctx, db, schemaName, table)
		if err != nil {
			return nil, err
		}

		result = append(result, connectors.TableSchema{
			Schema:      schemaName,
			Table:       table,
			Columns:     columns,
			PrimaryKeys: pks,
			ForeignKeys: fks,
		})
	}
	return result, nil
}

// Ensure Connector satisfies the capability contract at compile time.
var _ connectors.Connector = (*Connector)(nil)
