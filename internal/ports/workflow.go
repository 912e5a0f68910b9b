package ports

import (
	"context"
	"time"

	"naasprov/internal/types"
)

// TokenSource hands out a bearer credential valid for at least buffer.
type TokenSource interface {
	GetValid(ctx context.Context, buffer time.Duration) (types.CredentialRecord, error)
}

type InventoryResolver interface {
	Resolve(ctx context.Context, serviceID, customerNumber, token string) (types.InventoryFacts, error)
}

type QuoteRequester interface {
	RequestQuote(ctx context.Context, in types.QuoteInput) (types.QuoteRecord, error)
}

type OrderRequester interface {
	RequestOrder(ctx context.Context, in types.OrderInput) (types.OrderRecord, error)
}

// RunRecorder receives run level measurements.
type RunRecorder interface {
	RunFinished(outcome string, at time.Time)
	StepFailed(step string)
}
