package ports

import (
	"context"

	"github.com/DrewCarlson/Fin/pkg/domain"
)

// Dispatcher is the state-agnostic entry point of a processor.
// Adapters that only need to feed actions in (HTTP handlers, stream pumps)
// depend on this interface rather than on a concrete processor type.
type Dispatcher interface {
	Dispatch(ctx context.Context, action domain.Action) error
}
