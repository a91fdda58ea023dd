// Package connectors defines the capability contract every backend
// integration satisfies, plus the registry used to dispatch on connector
// type tags.
package connectors

import "context"

// Info identifies a connector for discovery and UI population.
type Info struct {
	Type        string `json:"type"`        // "postgresql", "mysql", "mongodb", ...
	DisplayName string `json:"name"`        // "PostgreSQL"
	Description string `json:"description"` // "Connect to PostgreSQL databases"
}

// Connector is the fixed capability contract. Implementations are stateless;
// every operation receives the full connection-parameter document and owns
// the lifecycle of any backend connection it opens — connections are
// released on every exit path, including errors and context cancellation.
//
// ValidateParams runs before any network I/O: TestConnection, GetMetadata
// and GetSchema re-invoke it internally rather than trusting callers.
type Connector interface {
	// Info returns the connector's identity. Pure, no I/O.
	Info() Info

	// ValidateParams checks presence and shape of the required parameters
	// and returns a normalized copy with defaults applied. Failures are
	// *apperrors.ValidationError naming the offending field. Idempotent,
	// side-effect free.
	ValidateParams(params map[string]any) (map[string]any, error)

	// TestConnection opens a real connection, performs the cheapest
	// possible liveness probe and releases all resources before returning.
	// Failures are *apperrors.ConnectionError wrapping the backend reason.
	TestConnection(ctx context.Context, params map[string]any) error

	// GetMetadata returns backend-identity facts: version, active database
	// name, object counts. Requires a successful connection.
	GetMetadata(ctx context.Context, params map[string]any) (Metadata, error)

	// GetSchema returns table/collection descriptors, optionally narrowed
	// by opts. Policy for a named target that does not exist is
	// connector-specific and documented on each implementation.
	GetSchema(ctx context.Context, params map[string]any, opts SchemaOptions) ([]TableSchema, error)
}

// Metadata is a backend-specific key/value document describing the source.
type Metadata map[string]any

// SchemaOptions narrows schema discovery to a named target.
type SchemaOptions struct {
	SchemaName string `json:"schema_name,omitempty"`
	TableName  string `json:"table_name,omitempty"`
	SheetName  string `json:"sheet_name,omitempty"`
}

// TableSchema describes one table, collection or sheet.
type TableSchema struct {
	Schema      string       `json:"schema,omitempty"`
	Table       string       `json:"table,omitempty"`
	Sheet       string       `json:"sheet,omitempty"`
	Columns     []Column     `json:"columns"`
	PrimaryKeys []string     `json:"primary_keys,omitempty"`
	ForeignKeys []ForeignKey `json:"foreign_keys,omitempty"`
	Indexes     []Index      `json:"indexes,omitempty"`
	RowCount    *int64       `json:"row_count,omitempty"`
}

// Column describes a column or inferred field.
type Column struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Nullable bool   `json:"nullable"`
}

// ForeignKey describes a referential constraint.
type ForeignKey struct {
	Name             string `json:"name,omitempty"`
	Column           string `json:"column"`
	ReferencedSchema string `json:"referenced_schema,omitempty"`
	ReferencedTable  string `json:"referenced_table"`
	ReferencedColumn string `json:"referenced_column"`
}

// Index describes a secondary index.
type Index struct {
	Name    string   `json:"name"`
	Unique  bool     `json:"unique"`
	Columns []string `json:"columns"`
}
