package service

import (
	"context"

	"ai-devguide-be/internal/entity"
	"ai-devguide-be/internal/pkg/logger"
	"ai-devguide-be/pkg/events"
)

// EventPublisher is satisfied by the NATS publisher.
type EventPublisher interface {
	Publish(ctx context.Context, event events.Event) error
}

// publishEvent is a no-op without a publisher. Failures are logged only.
func publishEvent(ctx context.Context, pub EventPublisher, log logger.ILogger, event events.Event) {
	if pub == nil {
		return
	}
	if err := pub.Publish(ctx, event); err != nil {
		log.Warn("EventPublisher", "Failed to publish event", map[string]interface{}{
			"event": event.EventType(),
			"error": err.Error(),
		})
	}
}

// ChatEventListener forwards appended chat messages to the event stream.
type ChatEventListener struct {
	publisher EventPublisher
	logger    logger.ILogger
}

func NewChatEventListener(publisher EventPublisher, log logger.ILogger) *ChatEventListener {
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &ChatEventListener{publisher: publisher, logger: log}
}

func (l *ChatEventListener) OnMessageAppended(ctx context.Context, msg entity.ChatMessage, session *entity.ChatSession) {
	data := map[string]interface{}{
		"sessionId":    session.Id,
		"sessionTitle": session.Title,
		"messageId":    msg.Id,
		"role":         msg.Role,
		"content":      msg.Content,
		"timestamp":    msg.Timestamp,
	}
	if msg.Metadata != nil && msg.Metadata.Type != "" {
		data["type"] = msg.Metadata.Type
	}
	publishEvent(ctx, l.publisher, l.logger, events.New(events.ChatMessageAppended, data))
}
