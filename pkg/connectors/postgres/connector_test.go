package postgres

import (
	"errors"
	"testing"

	"github.com/datalinkhq/connector-engine/pkg/apperrors"
)

func TestInfo(t *testing.T) {
	c := New()
	info := c.Info()
	if info.Type != "postgresql" {
		t.Errorf("Type = %q, want postgresql", info.Type)
	}
	if info.DisplayName != "PostgreSQL" {
		t.Errorf("DisplayName = %q", info.DisplayName)
	}
}

func TestValidateParams(t *testing.T) {
	c := New()

	tests := []struct {
		name      string
		params    map[string]any
		wantErr   bool
		wantField string
	}{
		{
			name:   "valid postgresql scheme",
			params: map[string]any{"connection_string": "postgresql://u:p@host:5432/db"},
		},
		{
			name:   "valid postgres scheme",
			params: map[string]any{"connection_string": "postgres://u:p@host/db"},
		},
		{
			name:      "missing connection string",
			params:    map[string]any{},
			wantErr:   true,
			wantField: "connection_string",
		},
		{
			name:      "wrong scheme",
			params:    map[string]any{"connection_string": "mysql://u:p@host/db"},
			wantErr:   true,
			wantField: "connection_string",
		},
		{
			name:      "non-string value",
			params:    map[string]any{"connection_string": 42},
			wantErr:   true,
			wantField: "connection_string",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := c.ValidateParams(tt.params)
			if !tt.wantErr {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if got["connection_string"] != tt.params["connection_string"] {
					t.Errorf("normalized params lost connection_string")
				}
				return
			}

			var ve *apperrors.ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if ve.Field != tt.wantField {
				t.Errorf("Field = %q, want %q", ve.Field, tt.wantField)
			}
		})
	}
}

func TestValidateParamsReturnsCopy(t *testing.T) {
	c := New()
	params := map[string]any{"connection_string": "postgresql://u:p@host/db"}

	got, err := c.ValidateParams(params)
	if err != nil {
		t.Fatalf("ValidateParams: %v", err)
	}

	got["connection_string"] = "mutated"
	if params["connection_string"] != "postgresql://u:p@host/db" {
		t.Error("ValidateParams returned the input map instead of a copy")
	}
}
