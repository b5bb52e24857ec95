// Package events provides in-process publish/subscribe of ledger events.
package events

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// EventType names a ledger event
type EventType string

const (
	WarehouseCreated  EventType = "warehouse.created"
	WarehouseUpdated  EventType = "warehouse.updated"
	WarehouseArchived EventType = "warehouse.archived"
	WarehouseRestored EventType = "warehouse.restored"
	ItemCreated       EventType = "item.created"
	StockAdded        EventType = "item.stock_added"
	StockConsumed     EventType = "item.stock_consumed"
	ItemArchived      EventType = "item.archived"
	ItemRestored      EventType = "item.restored"
	ReportArchived    EventType = "report.archived"
	DataImported      EventType = "data.imported"
)

// Event is one published notification. Fields irrelevant to the type stay empty.
type Event struct {
	ID             string
	Type           EventType
	Source         string
	Timestamp      time.Time
	WarehouseID    string
	ItemID         string
	ReportID       string
	QuantityBefore int
	QuantityAfter  int
	Actor          string
}

// EventHandler defines the interface for handling events
type EventHandler func(ctx context.Context, event Event) error

// Publisher is the subset of the bus the service depends on
type Publisher interface {
	Publish(ctx context.Context, event Event)
}

// EventBus delivers events to subscribers asynchronously
type EventBus struct {
	mu          sync.RWMutex
	subscribers map[EventType][]EventHandler
	wildcard    []EventHandler
	serviceName string
	logger      *logrus.Logger
	inflight    sync.WaitGroup
}

// NewEventBus creates a new event bus for a service
func NewEventBus(serviceName string, logger *logrus.Logger) *EventBus {
	if logger == nil {
		logger = logrus.New()
	}
	return &EventBus{
		subscribers: make(map[EventType][]EventHandler),
		serviceName: serviceName,
		logger:      logger,
	}
}

// Subscribe registers a handler for a specific event type
func (eb *EventBus) Subscribe(eventType EventType, handler EventHandler) {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	eb.subscribers[eventType] = append(eb.subscribers[eventType], handler)
}

// SubscribeAll registers a handler receiving every event
func (eb *EventBus) SubscribeAll(handler EventHandler) {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	eb.wildcard = append(eb.wildcard, handler)
}

// Publish stamps the event and hands it to every matching handler in its own
// goroutine. Handlers run detached from ctx cancellation.
func (eb *EventBus) Publish(ctx context.Context, event Event) {
	eb.mu.RLock()
	handlers := make([]EventHandler, 0, len(eb.subscribers[event.Type])+len(eb.wildcard))
	handlers = append(handlers, eb.subscribers[event.Type]...)
	handlers = append(handlers, eb.wildcard...)
	eb.mu.RUnlock()

	if len(handlers) == 0 {
		return
	}

	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	event.Source = eb.serviceName

	detached := context.WithoutCancel(ctx)
	for _, handler := range handlers {
		eb.inflight.Add(1)
		go func(h EventHandler) {
			defer eb.inflight.Done()
			if err := h(detached, event); err != nil {
				eb.logger.WithFields(logrus.Fields{
					"event_id":   event.ID,
					"event_type": event.Type,
				}).WithError(err).Warn("event handler failed")
			}
		}(handler)
	}
}

// Wait blocks until every handler started so far has returned
func (eb *EventBus) Wait() {
	eb.inflight.Wait()
}

// LogHandler returns a handler writing each event to logger at debug level
func LogHandler(logger *logrus.Logger) EventHandler {
	return func(_ context.Context, event Event) error {
		logger.WithFields(logrus.Fields{
			"event_type":   event.Type,
			"warehouse_id": event.WarehouseID,
			"item_id":      event.ItemID,
			"report_id":    event.ReportID,
			"actor":        event.Actor,
		}).Debug("ledger event")
		return nil
	}
}
