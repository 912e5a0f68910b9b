package ports

import "context"

// EgressProbe reports the address this process appears to originate from.
type EgressProbe interface {
	EgressAddress(ctx context.Context) (string, error)
}
