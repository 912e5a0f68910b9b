package pub

import (
	"context"
	"strings"

	"naasprov/internal/ports"
	"naasprov/internal/types"

	"github.com/goccy/go-json"
	log "github.com/sirupsen/logrus"
)

const QuoteEventType = "naasprov.quote"

// QuoteNotifier publishes every accepted quote to a topic so that downstream systems learn about a
// bandwidth change before the order lands.
type QuoteNotifier struct {
	publisher ports.Publisher
	topicArn  string
}

func NewQuoteNotifier(p ports.Publisher, topicArn string) *QuoteNotifier {
	return &QuoteNotifier{publisher: p, topicArn: strings.TrimSpace(topicArn)}
}

func (n *QuoteNotifier) OnQuote(ctx context.Context, event types.QuoteEvent) error {
	if n.topicArn == "" {
		return nil
	}
	payload, err := json.Marshal(struct {
		Type string `json:"type"`
		types.QuoteEvent
	}{Type: QuoteEventType, QuoteEvent: event})
	if err != nil {
		return types.Err(types.ErrConfig, err, "encode quote event")
	}
	if err := n.publisher.PublishRaw(ctx, n.topicArn, payload); err != nil {
		return err
	}
	log.WithFields(log.Fields{"quote_id": event.QuoteID, "topic": n.topicArn}).Info("quote event published")
	return nil
}

var _ ports.QuoteObserver = (*QuoteNotifier)(nil)
