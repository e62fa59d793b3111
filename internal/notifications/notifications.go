package notifications

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type EventType string

const (
	RequestCreated   EventType = "request.created"
	RequestSubmitted EventType = "request.submitted"
	RequestApproved  EventType = "request.approved"
	RequestRejected  EventType = "request.rejected"
	RequestFulfilled EventType = "request.fulfilled"
	RequestCancelled EventType = "request.cancelled"
	RequestClosed    EventType = "request.closed"
)

type Event struct {
	ID            uuid.UUID              `json:"id"`
	Type          EventType              `json:"type"`
	RequestID     int                    `json:"request_id"`
	RequestNumber string                 `json:"request_number"`
	ActorID       int                    `json:"actor_id"`
	Recipients    []int                  `json:"recipients"`
	OccurredAt    time.Time              `json:"occurred_at"`
	Payload       map[string]interface{} `json:"payload,omitempty"`
}

func NewEvent(eventType EventType, requestID int, requestNumber string, actorID int, recipients ...int) Event {
	return Event{
		ID:            uuid.New(),
		Type:          eventType,
		RequestID:     requestID,
		RequestNumber: requestNumber,
		ActorID:       actorID,
		Recipients:    recipients,
		OccurredAt:    time.Now().UTC(),
	}
}

type Dispatcher interface {
	Dispatch(ctx context.Context, event Event) error
}

// Notifier delivers events in the background. Delivery errors and panics are logged, never returned.
type Notifier struct {
	dispatcher Dispatcher
	logger     *zap.Logger
	timeout    time.Duration
	wg         sync.WaitGroup
}

func NewNotifier(dispatcher Dispatcher, logger *zap.Logger, timeout time.Duration) *Notifier {
	return &Notifier{
		dispatcher: dispatcher,
		logger:     logger,
		timeout:    timeout,
	}
}

func (n *Notifier) Notify(event Event) {
	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		defer func() {
			if p := recover(); p != nil {
				n.logger.Error("Notification dispatcher panicked",
					zap.String("event_id", event.ID.String()),
					zap.String("type", string(event.Type)),
					zap.String("panic", fmt.Sprint(p)))
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), n.timeout)
		defer cancel()

		if err := n.dispatcher.Dispatch(ctx, event); err != nil {
			n.logger.Warn("Failed to dispatch notification",
				zap.String("event_id", event.ID.String()),
				zap.String("type", string(event.Type)),
				zap.Int("request_id", event.RequestID),
				zap.Error(err))
		}
	}()
}

// Wait blocks until every in-flight notification has finished; used on shutdown.
func (n *Notifier) Wait() {
	n.wg.Wait()
}

type LogDispatcher struct {
	logger *zap.Logger
}

func NewLogDispatcher(logger *zap.Logger) *LogDispatcher {
	return &LogDispatcher{logger: logger}
}

func (d *LogDispatcher) Dispatch(ctx context.Context, event Event) error {
	d.logger.Info("Notification",
		zap.String("event_id", event.ID.String()),
		zap.String("type", string(event.Type)),
		zap.Int("request_id", event.RequestID),
		zap.String("request_number", event.RequestNumber),
		zap.Ints("recipients", event.Recipients))
	return nil
}
