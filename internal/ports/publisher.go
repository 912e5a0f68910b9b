package ports

import "context"

// Publisher delivers a raw message to a topic identified by arn.
type Publisher interface {
	PublishRaw(ctx context.Context, arn string, payload []byte) error
}
