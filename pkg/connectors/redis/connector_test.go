package redis

import (
	"errors"
	"testing"

	"github.com/datalinkhq/connector-engine/pkg/apperrors"
)

func TestInfo(t *testing.T) {
	info := New().Info()
	if info.Type != "redis" {
		t.Errorf("Type = %q, want redis", info.Type)
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
			name:   "host only gets defaults",
			params: map[string]any{"host": "localhost"},
		},
		{
			name: "full params",
			params: map[string]any{
				"host":     "cache.example.com",
				"port":     6380,
				"password": "secret",
				"db":       2,
				"ssl":      true,
			},
		},
		{
			name:   "port as json float",
			params: map[string]any{"host": "localhost", "port": float64(6379)},
		},
		{
			name:    "missing host",
			params:  map[string]any{"port": 6379},
			wantErr: true,
			field:   "host",
		},
		{
			name:    "port out of range",
			params:  map[string]any{"host": "localhost", "port": 70000},
			wantErr: true,
			field:   "port",
		},
		{
			name:    "fractional port",
			params:  map[string]any{"host": "localhost", "port": 6379.5},
			wantErr: true,
			field:   "port",
		},
		{
			name:    "negative db",
			params:  map[string]any{"host": "localhost", "db": -1},
			wantErr: true,
			field:   "db",
		},
		{
			name:    "ssl not a bool",
			params:  map[string]any{"host": "localhost", "ssl": "yes"},
			wantErr: true,
			field:   "ssl",
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
			if normalized["port"] == nil || normalized["db"] == nil || normalized["ssl"] == nil {
				t.Error("expected defaults for port, db and ssl")
			}
		})
	}
}

func TestValidateParamsDefaults(t *testing.T) {
	c := New()
	normalized, err := c.ValidateParams(map[string]any{"host": "localhost"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := normalized["port"].(int); got != 6379 {
		t.Errorf("port = %d, want 6379", got)
	}
	if got := normalized["db"].(int); got != 0 {
		t.Errorf("db = %d, want 0", got)
	}
	if got := normalized["ssl"].(bool); got {
		t.Error("ssl should default to false")
	}
}

func TestParseInfoSection(t *testing.T) {
	info := "# Server\r\nredis_version:7.2.4\r\nredis_mode:standalone\r\n\r\n"
	fields := parseInfoSection(info)
	if fields["redis_version"] != "7.2.4" {
		t.Errorf("redis_version = %q, want 7.2.4", fields["redis_version"])
	}
	if fields["redis_mode"] != "standalone" {
		t.Errorf("redis_mode = %q, want standalone", fields["redis_mode"])
	}
	if _, present := fields["# Server"]; present {
		t.Error("comment lines should be skipped")
	}
}
