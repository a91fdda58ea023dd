package connectors

import (
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/datalinkhq/connector-engine/pkg/apperrors"
)

// Registry maps connector type tags to capability implementations. It is
// populated once during process initialization, before any request is
// served, and is effectively read-only afterwards; the mutex exists so
// registration order never matters.
type Registry struct {
	mu         sync.RWMutex
	connectors map[string]Connector
	logger     *zap.Logger
}

// NewRegistry creates an empty registry. Pass the registry instance to the
// dispatch layer explicitly; there is no package-level singleton.
func NewRegistry(logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		connectors: make(map[string]Connector),
		logger:     logger,
	}
}

// Register binds a connector's declared type tag to itself. Registering a
// second connector under an already-used tag overwrites the prior binding;
// that usually indicates a configuration bug, so it is logged as a warning.
func (r *Registry) Register(c Connector) {
	info := c.Info()

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.connectors[info.Type]; exists {
		r.logger.Warn("Overwriting existing connector registration",
			zap.String("type", info.Type))
	}
	r.connectors[info.Type] = c
}

// Lookup returns the connector bound to the given type tag. All capability
// dispatch funnels through here; the rest of the system carries no
// per-backend conditionals.
func (r *Registry) Lookup(connectorType string) (Connector, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.connectors[connectorType]
	if !ok {
		return nil, fmt.Errorf("%w: %q", apperrors.ErrUnknownConnectorType, connectorType)
	}
	return c, nil
}

// List returns identity info for every registered connector.
func (r *Registry) List() []Info {
	r.mu.RLock()
	defer r.mu.RUnlock()

	infos := make([]Info, 0, len(r.connectors))
	for _, c := range r.connectors {
		infos = append(infos, c.Info())
	}
	return infos
}
