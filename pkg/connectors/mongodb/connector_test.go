package mongodb

import (
	"errors"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/datalinkhq/connector-engine/pkg/apperrors"
)

func TestInfo(t *testing.T) {
	info := New().Info()
	if info.Type != "mongodb" {
		t.Errorf("Type = %q, want mongodb", info.Type)
	}
}

func TestValidateParams(t *testing.T) {
	tests := []struct {
		name    string
		params  map[string]any
		wantErr bool
		field   string
	}{
		{
			name: "valid",
			params: map[string]any{
				"uri":      "mongodb://localhost:27017",
				"database": "app",
			},
		},
		{
			name: "valid srv",
			params: map[string]any{
				"uri":      "mongodb+srv://cluster0.example.mongodb.net",
				"database": "app",
			},
		},
		{
			name:    "missing uri",
			params:  map[string]any{"database": "app"},
			wantErr: true,
			field:   "uri",
		},
		{
			name: "wrong scheme",
			params: map[string]any{
				"uri":      "postgres://localhost/app",
				"database": "app",
			},
			wantErr: true,
			field:   "uri",
		},
		{
			name:    "missing database",
			params:  map[string]any{"uri": "mongodb://localhost:27017"},
			wantErr: true,
			field:   "database",
		},
		{
			name: "database not a string",
			params: map[string]any{
				"uri":      "mongodb://localhost:27017",
				"database": 7,
			},
			wantErr: true,
			field:   "database",
		},
	}

	c := New()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			normalized, err := c.ValidateParams(tt.params)
			if tt.wantErr {
				var verr *apperrors.ValidationError
				if !errors.As(err, &verr) {
					t.Fatalf("expected ValidationError, got %v", err)
				}
				if verr.Field != tt.field {
					t.Errorf("Field = %q, want %q", verr.Field, tt.field)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if normalized == nil {
				t.Fatal("expected normalized params")
			}
		})
	}
}

func TestBSONTypeName(t *testing.T) {
	tests := []struct {
		value any
		want  string
	}{
		{nil, "null"},
		{"hello", "string"},
		{true, "bool"},
		{int32(1), "int"},
		{int64(1), "long"},
		{1.5, "double"},
		{primitive.NewObjectID(), "objectId"},
		{primitive.NewDateTimeFromTime(time.Now()), "date"},
		{bson.M{"k": "v"}, "object"},
		{bson.A{1, 2}, "array"},
		{struct{}{}, "unknown"},
	}

	for _, tt := range tests {
		if got := bsonTypeName(tt.value); got != tt.want {
			t.Errorf("bsonTypeName(%v) = %q, want %q", tt.value, got, tt.want)
		}
	}
}
