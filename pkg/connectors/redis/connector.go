// Package redis implements the capability contract for Redis.
//
// Redis is schemaless key/value storage, so GetSchema reports a bounded
// sample of keys with their value types instead of table descriptors.
package redis

import (
	"context"
	"crypto/tls"
	"fmt"
	"strings"

	goredis "github.com/redis/go-redis/v9"

	"github.com/datalinkhq/connector-engine/pkg/apperrors"
	"github.com/datalinkhq/connector-engine/pkg/connectors"
)

// keySampleSize bounds how many keys GetSchema reports.
const keySampleSize = 100

// Connector connects to Redis via discrete host/port parameters.
type Connector struct{}

// New creates the Redis connector.
func New() *Connector {
	return &Connector{}
}

// Info returns the connector identity.
func (c *Connector) Info() connectors.Info {
	return connectors.Info{
		Type:        "redis",
		DisplayName: "Redis",
		Description: "Connect to Redis key/value stores",
	}
}

// ValidateParams requires host; port defaults to 6379, db to 0, ssl to
// false. Returns a normalized copy with the defaults applied.
func (c *Connector) ValidateParams(params map[string]any) (map[string]any, error) {
	host, ok := params["host"].(string)
	if !ok || host == "" {
		return nil, apperrors.MissingParam("host")
	}

	port, err := connectors.IntParam(params, "port", 6379)
	if err != nil {
		return nil, err
	}
	if port < 1 || port > 65535 {
		return nil, apperrors.NewValidationError("port", "must be between 1 and 65535")
	}

	db, err := connectors.IntParam(params, "db", 0)
	if err != nil {
		return nil, err
	}
	if db < 0 {
		return nil, apperrors.NewValidationError("db", "must not be negative")
	}

	ssl, err := connectors.BoolParam(params, "ssl", false)
	if err != nil {
		return nil, err
	}

	normalized := make(map[string]any, len(params))
	for k, v := range params {
		normalized[k] = v
	}
	normalized["port"] = port
	normalized["db"] = db
	normalized["ssl"] = ssl
	return normalized, nil
}

// connect validates params and returns a pinged client. Callers must Close
// the client on every exit path.
func (c *Connector) connect(ctx context.Context, params map[string]any) (*goredis.Client, error) {
	validated, err := c.ValidateParams(params)
	if err != nil {
		return nil, err
	}

	opts := &goredis.Options{
		Addr: fmt.Sprintf("%s:%d", validated["host"].(string), validated["port"].(int)),
		DB:   validated["db"].(int),
	}
	if password, ok := validated["password"].(string); ok {
		opts.Password = password
	}
	if validated["ssl"].(bool) {
		opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}

	client := goredis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, apperrors.NewConnectionError("Redis", err)
	}
	return client, nil
}

// TestConnection pings the server.
func (c *Connector) TestConnection(ctx context.Context, params map[string]any) error {
	client, err := c.connect(ctx, params)
	if err != nil {
		return err
	}
	defer client.Close()
	return nil
}

// GetMetadata returns server version, mode and key count from INFO/DBSIZE.
func (c *Connector) GetMetadata(ctx context.Context, params map[string]any) (connectors.Metadata, error) {
	client, err := c.connect(ctx, params)
	if err != nil {
		return nil, err
	}
	defer client.Close()

	info, err := client.Info(ctx, "server").Result()
	if err != nil {
		return nil, apperrors.NewConnectionError("Redis", err)
	}
	keyCount, err := client.DBSize(ctx).Result()
	if err != nil {
		return nil, apperrors.NewConnectionError("Redis", err)
	}

	fields := parseInfoSection(info)
	return connectors.Metadata{
		"type":      "redis",
		"version":   fields["redis_version"],
		"mode":      fields["redis_mode"],
		"key_count": keyCount,
	}, nil
}

// GetSchema reports a bounded sample of keys grouped by value type. The
// opts.TableName field narrows the SCAN to a key pattern.
func (c *Connector) GetSchema(ctx context.Context, params map[string]any, opts connectors.SchemaOptions) ([]connectors.TableSchema, error) {
	client, err := c.connect(ctx, params)
	if err != nil {
		return nil, err
	}
	defer client.Close()

	pattern := opts.TableName
	if pattern == "" {
		pattern = "*"
	}

	columns := make([]connectors.Column, 0, keySampleSize)
	iter := client.Scan(ctx, 0, pattern, keySampleSize).Iterator()
	for iter.Next(ctx) && len(columns) < keySampleSize {
		key := iter.Val()
		keyType, err := client.Type(ctx, key).Result()
		if err != nil {
			return nil, apperrors.NewConnectionError("Redis", err)
		}
		columns = append(columns, connectors.Column{Name: key, Type: keyType})
	}
	if err := iter.Err(); err != nil {
		return nil, apperrors.NewConnectionError("Redis", err)
	}

	count := int64(len(columns))
	return []connectors.TableSchema{{
		Table:    pattern,
		Columns:  columns,
		RowCount: &count,
	}}, nil
}

// parseInfoSection turns INFO's "key:value\r\n" lines into a map.
func parseInfoSection(info string) map[string]string {
	fields := make(map[string]string)
	for _, line := range strings.Split(info, "\n") {
		line = strings.TrimRight(line, "\r")
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if key, value, found := strings.Cut(line, ":"); found {
			fields[key] = value
		}
	}
	return fields
}

// Ensure Connector satisfies the capability contract at compile time.
var _ connectors.Connector = (*Connector)(nil)
