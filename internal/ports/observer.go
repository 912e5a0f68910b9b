package ports

import (
	"context"

	"naasprov/internal/types"
)

// QuoteObserver is notified after a price request succeeds. Observer failures never fail the workflow.
type QuoteObserver interface {
	OnQuote(ctx context.Context, event types.QuoteEvent) error
}
