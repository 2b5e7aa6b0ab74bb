package jobs

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"cloud.google.com/go/pubsub"
	"cloud.google.com/go/pubsub/pstest"
	"google.golang.org/api/option"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/lembar-pintar/studio/internal/services"
)

func TestDesignEventPublisherPublishesMessage(t *testing.T) {
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
	defer func() { _ = client.Close() }()

	topic, err := client.CreateTopic(ctx, "design-events")
	if err != nil {
		t.Fatalf("CreateTopic: %v", err)
	}
	publisher, err := NewDesignEventPublisher(topic)
	if err != nil {
		t.Fatalf("NewDesignEventPublisher: %v", err)
	}
	defer publisher.Stop()

	msg := services.DesignPublishedMessage{
		EventID:     "evt_1",
		DesignID:    "dsg_1",
		TemplateID:  "tpl_1",
		Title:       "Huruf A",
		Level:       "sd",
		PublishedAt: time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC),
	}
	if _, err := publisher.PublishDesignPublished(ctx, msg); err != nil {
		t.Fatalf("PublishDesignPublished: %v", err)
	}

	messages := srv.Messages()
	if len(messages) != 1 {
		t.Fatalf("expected 1 message, got %d", len(messages))
	}
	var payload services.DesignPublishedMessage
	if err := json.Unmarshal(messages[0].Data, &payload); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	if payload.DesignID != "dsg_1" || payload.TemplateID != "tpl_1" || !payload.PublishedAt.Equal(msg.PublishedAt) {
		t.Fatalf("unexpected payload %#v", payload)
	}
	attrs := messages[0].Attributes
	if attrs["event"] != "design.published" || attrs["designId"] != "dsg_1" {
		t.Fatalf("unexpected attributes %v", attrs)
	}
	if _, ok := attrs["gradeId"]; ok {
		t.Fatalf("empty attributes should be omitted")
	}
}

func TestNewDesignEventPublisherRequiresTopic(t *testing.T) {
	if _, err := NewDesignEventPublisher(nil); err == nil {
		t.Fatalf("expected error")
	}
}
