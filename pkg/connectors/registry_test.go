package connectors

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/datalinkhq/connector-engine/pkg/apperrors"
)

// stubConnector is a minimal Connector for registry tests.
type stubConnector struct {
	info Info
}

func (s *stubConnector) Info() Info { return s.info }

func (s *stubConnector) ValidateParams(params map[string]any) (map[string]any, error) {
	return params, nil
}

func (s *stubConnector) TestConnection(ctx context.Context, params map[string]any) error {
	return nil
}

func (s *stubConnector) GetMetadata(ctx context.Context, params map[string]any) (Metadata, error) {
	return Metadata{}, nil
}

func (s *stubConnector) GetSchema(ctx context.Context, params map[string]any, opts SchemaOptions) ([]TableSchema, error) {
	return nil, nil
}

func TestRegistryLookup(t *testing.T) {
	reg := NewRegistry(zap.NewNop())
	reg.Register(&stubConnector{info: Info{Type: "postgresql", DisplayName: "PostgreSQL"}})

	c, err := reg.Lookup("postgresql")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if c.Info().Type != "postgresql" {
		t.Errorf("Info().Type = %q, want postgresql", c.Info().Type)
	}
}

func TestRegistryLookupUnknownType(t *testing.T) {
	reg := NewRegistry(zap.NewNop())

	_, err := reg.Lookup("oracle")
	if !errors.Is(err, apperrors.ErrUnknownConnectorType) {
		t.Errorf("expected ErrUnknownConnectorType, got %v", err)
	}
}

func TestRegistryLastRegistrationWins(t *testing.T) {
	reg := NewRegistry(zap.NewNop())
	reg.Register(&stubConnector{info: Info{Type: "mysql", DisplayName: "first"}})
	reg.Register(&stubConnector{info: Info{Type: "mysql", DisplayName: "second"}})

	c, err := reg.Lookup("mysql")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if c.Info().DisplayName != "second" {
		t.Errorf("DisplayName = %q, want second (last registration wins)", c.Info().DisplayName)
	}

	if got := len(reg.List()); got != 1 {
		t.Errorf("List() returned %d entries, want 1", got)
	}
}

func TestRegistryList(t *testing.T) {
	reg := NewRegistry(zap.NewNop())
	reg.Register(&stubConnector{info: Info{Type: "postgresql"}})
	reg.Register(&stubConnector{info: Info{Type: "redis"}})

	infos := reg.List()
	if len(infos) != 2 {
		t.Fatalf("List() returned %d entries, want 2", len(infos))
	}

	types := map[string]bool{}
	for _, info := range infos {
		types[info.Type] = true
	}
	if !types["postgresql"] || !types["redis"] {
		t.Errorf("List() missing expected types: %v", types)
	}
}
