// Package jobs enqueues background work on Pub/Sub.
package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"cloud.google.com/go/pubsub"

	"github.com/lembar-pintar/studio/internal/services"
)

const eventDesignPublished = "design.published"

// DesignEventPublisher publishes design.published jobs to a Pub/Sub topic.
type DesignEventPublisher struct {
	topic   *pubsub.Topic
	marshal func(any) ([]byte, error)
}

func NewDesignEventPublisher(topic *pubsub.Topic) (*DesignEventPublisher, error) {
	if topic == nil {
		return nil, errors.New("design event publisher: topic is required")
	}
	return &DesignEventPublisher{topic: topic, marshal: json.Marshal}, nil
}

// PublishDesignPublished blocks until Pub/Sub acknowledges the message.
func (p *DesignEventPublisher) PublishDesignPublished(ctx context.Context, msg services.DesignPublishedMessage) (string, error) {
	if p == nil || p.topic == nil {
		return "", errors.New("design event publisher: not initialised")
	}
	data, err := p.marshal(msg)
	if err != nil {
		return "", fmt.Errorf("marshal design event: %w", err)
	}

	attrs := map[string]string{"event": eventDesignPublished}
	setAttr(attrs, "eventId", msg.EventID)
	setAttr(attrs, "designId", msg.DesignID)
	setAttr(attrs, "templateId", msg.TemplateID)
	setAttr(attrs, "level", msg.Level)

	result := p.topic.Publish(ctx, &pubsub.Message{Data: data, Attributes: attrs})
	id, err := result.Get(ctx)
	if err != nil {
		return "", fmt.Errorf("publish design event: %w", err)
	}
	return id, nil
}

// Stop flushes pending messages.
func (p *DesignEventPublisher) Stop() {
	if p != nil && p.topic != nil {
		p.topic.Stop()
	}
}

func setAttr(attrs map[string]string, key, value string) {
	if v := strings.TrimSpace(value); v != "" {
		attrs[key] = v
	}
}
