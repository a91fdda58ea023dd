package mongodb

import (
	"context"
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/datalinkhq/connector-engine/pkg/apperrors"
	"github.com/datalinkhq/connector-engine/pkg/connectors"
)

// sampleFields reads up to sampleSize documents and reports the union of
// field names with inferred types. A field absent from some sampled
// documents is marked nullable. Mixed-type fields collapse to "mixed".
func sampleFields(ctx context.Context, coll *mongo.Collection) ([]connectors.Column, error) {
	cursor, err := coll.Find(ctx, bson.D{}, options.Find().SetLimit(sampleSize))
	if err != nil {
		return nil, apperrors.NewConnectionError("MongoDB", err)
	}
	defer cursor.Close(ctx)

	type observed struct {
		fieldType string
		count     int
	}
	fields := make(map[string]*observed)
	sampled := 0

	for cursor.Next(ctx) {
		var doc bson.M
		if err := cursor.Decode(&doc); err != nil {
			return nil, apperrors.NewConnectionError("MongoDB", err)
		}
		sampled++
		for name, value := range doc {
			t := bsonTypeName(value)
			obs, ok := fields[name]
			if !ok {
				fields[name] = &observed{fieldType: t, count: 1}
				continue
			}
			obs.count++
			if obs.fieldType != t {
				obs.fieldType = "mixed"
			}
		}
	}
	if err := cursor.Err(); err != nil {
		return nil, apperrors.NewConnectionError("MongoDB", err)
	}

	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)

	columns := make([]connectors.Column, 0, len(names))
	for _, name := range names {
		obs := fields[name]
		columns = append(columns, connectors.Column{
			Name:     name,
			Type:     obs.fieldType,
			Nullable: obs.count < sampled,
		})
	}
	return columns, nil
}

func bsonTypeName(value any) string {
	switch value.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case bool:
		return "bool"
	case int32:
		return "int"
	case int64:
		return "long"
	case float64:
		return "double"
	case primitive.ObjectID:
		return "objectId"
	case primitive.DateTime, time.Time:
		return "date"
	case primitive.Decimal128:
		return "decimal"
	case primitive.Binary:
		return "binData"
	case bson.M, bson.D:
		return "object"
	case bson.A:
		return "array"
	default:
		return "unknown"
	}
}
