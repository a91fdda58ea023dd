package connectors

import (
	"errors"
	"testing"

	"github.com/datalinkhq/connector-engine/pkg/apperrors"
)

func TestIntParam(t *testing.T) {
	tests := []struct {
		name    string
		params  map[string]any
		want    int
		wantErr bool
	}{
		{name: "absent uses fallback", params: map[string]any{}, want: 42},
		{name: "int", params: map[string]any{"port": 5432}, want: 5432},
		{name: "int64", params: map[string]any{"port": int64(5432)}, want: 5432},
		{name: "json float", params: map[string]any{"port": float64(5432)}, want: 5432},
		{name: "fractional float", params: map[string]any{"port": 54.32}, wantErr: true},
		{name: "string", params: map[string]any{"port": "5432"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := IntParam(tt.params, "port", 42)
			if tt.wantErr {
				var verr *apperrors.ValidationError
				if !errors.As(err, &verr) {
					t.Fatalf("expected ValidationError, got %v", err)
				}
				if verr.Field != "port" {
					t.Errorf("Field = %q, want port", verr.Field)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %d, want %d", got, tt.want)
			}
		})
	}
}

func TestBoolParam(t *testing.T) {
	if got, err := BoolParam(map[string]any{}, "ssl", true); err != nil || !got {
		t.Errorf("absent: got (%v, %v), want (true, nil)", got, err)
	}
	if got, err := BoolParam(map[string]any{"ssl": false}, "ssl", true); err != nil || got {
		t.Errorf("explicit false: got (%v, %v), want (false, nil)", got, err)
	}
	if _, err := BoolParam(map[string]any{"ssl": "yes"}, "ssl", false); err == nil {
		t.Error("string value: expected ValidationError")
	}
}
