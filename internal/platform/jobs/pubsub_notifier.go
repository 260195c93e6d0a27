package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"cloud.google.com/go/pubsub"

	"github.com/chung140204/storefront-api/internal/services"
)

// PubSubOrderNotifier publishes order confirmation events to a Pub/Sub topic.
// Downstream consumers handle email and messaging fan-out.
type PubSubOrderNotifier struct {
	topic   *pubsub.Topic
	marshal func(any) ([]byte, error)
}

// NewPubSubOrderNotifier constructs a Pub/Sub backed order notifier.
func NewPubSubOrderNotifier(topic *pubsub.Topic) (*PubSubOrderNotifier, error) {
	if topic == nil {
		return nil, errors.New("pubsub order notifier: topic is required")
	}
	return &PubSubOrderNotifier{
		topic:   topic,
		marshal: json.Marshal,
	}, nil
}

// SendOrderConfirmation enqueues the confirmation payload on the topic.
func (p *PubSubOrderNotifier) SendOrderConfirmation(ctx context.Context, msg services.OrderConfirmation) error {
	if p == nil || p.topic == nil {
		return errors.New("pubsub order notifier: not initialised")
	}

	data, err := p.marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal order confirmation: %w", err)
	}

	attrs := make(map[string]string)
	setAttr(attrs, "event", "order.confirmed")
	setAttr(attrs, "orderId", msg.OrderID)
	setAttr(attrs, "orderNumber", msg.OrderNumber)
	setAttr(attrs, "userId", msg.UserID)

	result := p.topic.Publish(ctx, &pubsub.Message{
		Data:       data,
		Attributes: attrs,
	})
	if _, err := result.Get(ctx); err != nil {
		return fmt.Errorf("publish order confirmation: %w", err)
	}
	return nil
}

func setAttr(attrs map[string]string, key string, value string) {
	if v := strings.TrimSpace(value); v != "" {
		attrs[key] = v
	}
}
