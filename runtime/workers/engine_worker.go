package workers

import (
	"chat-relay/contract"
	"chat-relay/domain/event"
	"context"
	"log/slog"
	"time"
)

var _ contract.Worker = (*EngineWorker)(nil)

// EngineWorker is the single consumer of inbound events.
// Running exactly one of them gives every event a total order:
// each one is dispatched to completion before the next is read.
type EngineWorker struct {
	log           *slog.Logger
	dispatcher    contract.Dispatcher
	inbound       chan event.Envelope
	emissions     chan []event.Emission
	telemetryChan chan event.Event
}

func NewEngineWorker(
	log *slog.Logger,
	dispatcher contract.Dispatcher,
	inbound chan event.Envelope,
	emissions chan []event.Emission,
	telemetryChan chan event.Event) *EngineWorker {
	return &EngineWorker{
		log:           log,
		dispatcher:    dispatcher,
		inbound:       inbound,
		emissions:     emissions,
		telemetryChan: telemetryChan,
	}
}

func (w *EngineWorker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Stopping engine worker")
			return ctx.Err()
		case env, ok := <-w.inbound:
			if !ok {
				w.log.Debug("Inbound channel is closed")
				return nil
			}
			emissions := w.dispatcher.Dispatch(env.ConnID, env.Event)
			w.report(env, len(emissions))
			if len(emissions) == 0 {
				continue
			}
			select {
			case <-ctx.Done():
				return ctx.Err()
			case w.emissions <- emissions:
			}
		}
	}
}

func (w *EngineWorker) report(env event.Envelope, emissions int) {
	select {
	case w.telemetryChan <- toProcessedEvent(env, emissions):
	default:
		w.log.Debug("Observability telemetry event lost")
	}
}

func toProcessedEvent(env event.Envelope, emissions int) event.Event {
	var latency time.Duration
	if !env.ReceivedAt.IsZero() {
		latency = time.Since(env.ReceivedAt)
	}
	return event.Event{
		Type:      event.EventProcessedType,
		CreatedAt: time.Now().UTC(),
		Payload: event.EventProcessed{
			Kind:      env.Event.Kind(),
			Emissions: emissions,
			Latency:   latency,
		},
	}
}
