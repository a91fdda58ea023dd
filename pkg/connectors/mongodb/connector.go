// Package mongodb implements the capability contract for MongoDB.
//
// MongoDB has no declared table schema, so GetSchema samples documents per
// collection and reports the union of observed fields with their BSON types.
package mongodb

import (
	"context"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/datalinkhq/connector-engine/pkg/apperrors"
	"github.com/datalinkhq/connector-engine/pkg/connectors"
)

// sampleSize bounds how many documents per collection feed field inference.
const sampleSize = 10

// Connector connects to MongoDB via a uri plus a database name.
type Connector struct{}

// New creates the MongoDB connector.
func New() *Connector {
	return &Connector{}
}

// Info returns the connector identity.
func (c *Connector) Info() connectors.Info {
	return connectors.Info{
		Type:        "mongodb",
		DisplayName: "MongoDB",
		Description: "Connect to MongoDB databases",
	}
}

// ValidateParams requires uri (mongodb:// or mongodb+srv://) and database.
// Returns a normalized copy.
func (c *Connector) ValidateParams(params map[string]any) (map[string]any, error) {
	uri, ok := params["uri"].(string)
	if !ok || uri == "" {
		return nil, apperrors.MissingParam("uri")
	}
	if !strings.HasPrefix(uri, "mongodb://") && !strings.HasPrefix(uri, "mongodb+srv://") {
		return nil, apperrors.NewValidationError("uri",
			"must start with mongodb:// or mongodb+srv://")
	}

	database, ok := params["database"].(string)
	if !ok || database == "" {
		return nil, apperrors.MissingParam("database")
	}

	normalized := make(map[string]any, len(params))
	for k, v := range params {
		normalized[k] = v
	}
	return normalized, nil
}

// connect validates params and returns a pinged client plus the target
// database handle. Callers must Disconnect the client on every exit path.
func (c *Connector) connect(ctx context.Context, params map[string]any) (*mongo.Client, *mongo.Database, error) {
	validated, err := c.ValidateParams(params)
	if err != nil {
		return nil, nil, err
	}

	uri := validated["uri"].(string)
	database := validated["database"].(string)

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, nil, apperrors.NewConnectionError("MongoDB", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, nil, apperrors.NewConnectionError("MongoDB", err)
	}
	return client, client.Database(database), nil
}

// TestConnection pings the server and runs the ping command against the
// target database.
func (c *Connector) TestConnection(ctx context.Context, params map[string]any) error {
	client, db, err := c.connect(ctx, params)
	if err != nil {
		return err
	}
	defer func() { _ = client.Disconnect(ctx) }()

	if err := db.RunCommand(ctx, bson.D{{Key: "ping", Value: 1}}).Err(); err != nil {
		return apperrors.NewConnectionError("MongoDB", err)
	}
	return nil
}

// GetMetadata returns server version, database name and collection count.
func (c *Connector) GetMetadata(ctx context.Context, params map[string]any) (connectors.Metadata, error) {
	client, db, err := c.connect(ctx, params)
	if err != nil {
		return nil, err
	}
	defer func() { _ = client.Disconnect(ctx) }()

	var buildInfo struct {
		Version string `bson:"version"`
	}
	if err := db.RunCommand(ctx, bson.D{{Key: "buildInfo", Value: 1}}).Decode(&buildInfo); err != nil {
		return nil, apperrors.NewConnectionError("MongoDB", err)
	}

	names, err := db.ListCollectionNames(ctx, bson.D{})
	if err != nil {
		return nil, apperrors.NewConnectionError("MongoDB", err)
	}

	return connectors.Metadata{
		"type":             "mongodb",
		"version":          buildInfo.Version,
		"database":         db.Name(),
		"collection_count": len(names),
	}, nil
}

// GetSchema infers per-collection fields from a bounded document sample.
// A named collection that does not exist is an error, not a fallback.
func (c *Connector) GetSchema(ctx context.Context, params map[string]any, opts connectors.SchemaOptions) ([]connectors.TableSchema, error) {
	client, db, err := c.connect(ctx, params)
	if err != nil {
		return nil, err
	}
	defer func() { _ = client.Disconnect(ctx) }()

	filter := bson.D{}
	if opts.TableName != "" {
		filter = bson.D{{Key: "name", Value: opts.TableName}}
	}
	names, err := db.ListCollectionNames(ctx, filter)
	if err != nil {
		return nil, apperrors.NewConnectionError("MongoDB", err)
	}
	if len(names) == 0 && opts.TableName != "" {
		return nil, apperrors.NewValidationError("table_name",
			fmt.Sprintf("collection %q not found in %q", opts.TableName, db.Name()))
	}

	result := make([]connectors.TableSchema, 0, len(names))
	for _, name := range names {
		columns, err := sampleFields(ctx, db.Collection(name))
		if err != nil {
			return nil, err
		}
		count, err := db.Collection(name).EstimatedDocumentCount(ctx)
		if err != nil {
			return nil, apperrors.NewConnectionError("MongoDB", err)
		}

		result = append(result, connectors.TableSchema{
			Schema:   db.Name(),
			Table:    name,
			Columns:  columns,
			RowCount: &count,
		})
	}
	return result, nil
}

// Ensure Connector satisfies the capability contract at compile time.
var _ connectors.Connector = (*Connector)(nil)
