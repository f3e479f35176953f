package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/events"
	"github.com/spec-kit/helpdesk/internal/persistence"
)

// Publisher fans events out to an external channel.
type Publisher interface {
	Publish(ctx context.Context, channel string, payload []byte) error
}

// defaultPublishTimeout bounds a publish made on the request path; the ticket
// write has already committed by then.
const defaultPublishTimeout = 2 * time.Second

// NotificationService forwards ticket events to the external channel.
type NotificationService struct {
	dispatcher     events.Dispatcher
	publisher      Publisher
	channel        string
	logger         *zap.Logger
	publishTimeout time.Duration
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, publisher Publisher, channel string, logger *zap.Logger) *NotificationService {
	return &NotificationService{
		dispatcher:     dispatcher,
		publisher:      publisher,
		channel:        channel,
		logger:         logger,
		publishTimeout: defaultPublishTimeout,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventTicketCreated, n.handleTicketEvent)
	n.dispatcher.Subscribe(events.EventTicketUpdated, n.handleTicketEvent)
}

func (n *NotificationService) handleTicketEvent(ctx context.Context, event events.Event) error {
	n.logger.Info(string(event.Type), zap.Int64("ticket_id", event.TicketID), zap.Any("payload", event.Payload))
	if n.publisher == nil {
		return nil
	}
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode %s: %w", event.Type, err)
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), n.publishTimeout)
	defer cancel()
	if err := n.publisher.Publish(ctx, n.channel, body); err != nil {
		if errors.Is(err, persistence.ErrRedisDisabled) {
			return nil
		}
		return fmt.Errorf("publish %s: %w", event.Type, err)
	}
	n.logger.Debug("ticket event published",
		zap.String("channel", n.channel),
		zap.String("event_id", event.ID))
	return nil
}
