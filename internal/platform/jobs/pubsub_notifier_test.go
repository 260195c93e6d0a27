package jobs

import (
	"context"
	"encoding/json"
	"testing"

	"cloud.google.com/go/pubsub"
	"cloud.google.com/go/pubsub/pstest"
	"google.golang.org/api/option"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/chung140204/storefront-api/internal/services"
)

func TestPubSubOrderNotifierPublishesMessage(t *testing.T) {
	ctx := context.Background()
	srv := pstest.NewServer()
	defer srv.Close()

	client, err := pubsub.NewClient(ctx, "test-project",
		option.WithEndpoint(srv.Addr),
		option.WithoutAuthentication(),
		option.WithGRPCDialOption(grpc.WithTransportCredentials(insecure.NewCredentials())),
	)
	if err != nil {
		t.Fatalf("pubsub.NewClient: %v", err)
	}
	defer func() {
		_ = client.Close()
	}()

	topic, err := client.CreateTopic(ctx, "order-events")
	if err != nil {
		t.Fatalf("CreateTopic: %v", err)
	}

	notifier, err := NewPubSubOrderNotifier(topic)
	if err != nil {
		t.Fatalf("NewPubSubOrderNotifier: %v", err)
	}

	msg := services.OrderConfirmation{
		OrderID:     "order-1",
		OrderNumber: "SF-2026-000042",
		UserID:      "user-1",
		Subtotal:    750000,
		TotalVAT:    67500,
		TotalAmount: 742500,
	}
	if err := notifier.SendOrderConfirmation(ctx, msg); err != nil {
		t.Fatalf("SendOrderConfirmation: %v", err)
	}

	messages := srv.Messages()
	if len(messages) != 1 {
		t.Fatalf("expected 1 message, got %d", len(messages))
	}

	var payload services.OrderConfirmation
	if err := json.Unmarshal(messages[0].Data, &payload); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	if payload.OrderID != msg.OrderID || payload.TotalAmount != msg.TotalAmount {
		t.Fatalf("unexpected payload %#v", payload)
	}
	if attr := messages[0].Attributes["orderNumber"]; attr != "SF-2026-000042" {
		t.Fatalf("expected orderNumber attribute, got %q", attr)
	}
	if attr := messages[0].Attributes["event"]; attr != "order.confirmed" {
		t.Fatalf("expected event attribute, got %q", attr)
	}
}
