package ports

import (
	"context"

	"github.com/aretw0/ivrflow/pkg/domain"
)

// FlowSource defines where flow definitions come from.
// Parsing is the source's concern; validation happens in the flow store.
type FlowSource interface {
	// Load returns every flow definition currently available.
	Load(ctx context.Context) ([]*domain.FlowDefinition, error)
}

// Watchable defines an interface for sources that can notify about backend changes.
// This is used for hot-reload of flow definitions.
type Watchable interface {
	// Watch returns a channel that is signaled when the underlying definitions change.
	// The payload names what changed (e.g. a file path) and is informational only.
	Watch(ctx context.Context) (<-chan string, error)
}

// FlowCatalog is a read-only view over a validated set of flows.
type FlowCatalog interface {
	// Get returns the named flow or an error wrapping domain.ErrFlowNotFound.
	Get(name string) (*domain.FlowDefinition, error)

	// Names lists the flows in the catalog, sorted.
	Names() []string
}
