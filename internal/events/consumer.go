package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
)

// HandlerFunc processes one decoded event. Returning an error makes the
// router retry the message.
type HandlerFunc func(ctx context.Context, event *Event) error

// Consumer routes events from a subscriber to handlers.
type Consumer struct {
	router      *message.Router
	subscriber  message.Subscriber
	topicPrefix string
	logger      *slog.Logger
}

func NewConsumer(subscriber message.Subscriber, topicPrefix string, logger *slog.Logger) (*Consumer, error) {
	wmLogger := watermill.NewSlogLogger(logger)

	router, err := message.NewRouter(message.RouterConfig{CloseTimeout: 15 * time.Second}, wmLogger)
	if err != nil {
		return nil, fmt.Errorf("create event router: %w", err)
	}

	router.AddMiddleware(
		middleware.Recoverer,
		middleware.Retry{
			MaxRetries:      3,
			InitialInterval: 500 * time.Millisecond,
			Multiplier:      2,
			Logger:          wmLogger,
		}.Middleware,
	)

	return &Consumer{
		router:      router,
		subscriber:  subscriber,
		topicPrefix: topicPrefix,
		logger:      logger,
	}, nil
}

// Handle registers handler for eventType. Must be called before Run.
func (c *Consumer) Handle(eventType EventType, name string, handler HandlerFunc) {
	c.router.AddNoPublisherHandler(
		name,
		Topic(c.topicPrefix, eventType),
		c.subscriber,
		func(msg *message.Message) error {
			var event Event
			if err := json.Unmarshal(msg.Payload, &event); err != nil {
				// Undecodable messages would never succeed; ack and drop them.
				c.logger.Error("Dropping malformed event", "message_id", msg.UUID, "error", err)
				return nil
			}
			return handler(msg.Context(), &event)
		},
	)
}

// Run blocks until ctx is cancelled or Close is called.
func (c *Consumer) Run(ctx context.Context) error {
	return c.router.Run(ctx)
}

// Running is closed once every handler is subscribed.
func (c *Consumer) Running() chan struct{} {
	return c.router.Running()
}

func (c *Consumer) Close() error {
	return c.router.Close()
}
