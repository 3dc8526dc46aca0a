package worker

import (
	"context"

	"phone-storefront/internal/broker"
	"phone-storefront/internal/models"
	"phone-storefront/internal/util"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// Source delivers relay messages to a handler until ctx is done
type Source interface {
	StartConsuming(ctx context.Context, handler broker.MessageHandler) error
	Close() error
}

// Dispatcher delivers decoded events to local subscribers
type Dispatcher interface {
	Origin() string
	Dispatch(ctx context.Context, event models.Event) error
}

// RelayWorker feeds events produced by other instances into the local bus
type RelayWorker struct {
	source Source
	bus    Dispatcher
	logger *zap.Logger
}

// NewRelayWorker creates a new relay worker
func NewRelayWorker(source Source, bus Dispatcher) *RelayWorker {
	return &RelayWorker{
		source: source,
		bus:    bus,
		logger: util.Named("relay-worker"),
	}
}

// Start consumes until ctx is done
func (w *RelayWorker) Start(ctx context.Context) error {
	w.logger.Info("Starting relay worker", zap.String("origin", w.bus.Origin()))
	return w.source.StartConsuming(ctx, w.HandleMessage)
}

// HandleMessage decodes one relayed message and dispatches it.
// Undecodable messages and this instance's own events are acknowledged and dropped.
func (w *RelayWorker) HandleMessage(ctx context.Context, msg kafka.Message) error {
	event, err := broker.DecodeEvent(msg.Value)
	if err != nil {
		w.logger.Warn("Dropping undecodable relay message",
			zap.Int64("offset", msg.Offset),
			zap.Error(err))
		return nil
	}

	meta := event.Meta()
	if meta.Origin == w.bus.Origin() {
		return nil
	}

	util.RelayedEventsTotal.WithLabelValues("in", meta.EventType).Inc()
	w.logger.Debug("Dispatching relayed event",
		zap.String("event_id", meta.EventID),
		zap.String("event_type", meta.EventType),
		zap.String("origin", meta.Origin))
	return w.bus.Dispatch(ctx, event)
}

// Stop stops the worker
func (w *RelayWorker) Stop() error {
	w.logger.Info("Stopping relay worker")
	return w.source.Close()
}
