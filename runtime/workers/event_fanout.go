package workers

import (
	"chat-relay/contract"
	"chat-relay/domain/event"
	"context"
	"log/slog"
)

var _ contract.Worker = (*EventFanout)(nil)

// EventFanout resolves the recipients of each emission and hands it to the gateway.
//
// Delivery is fire-and-forget: the gateway never blocks on a slow connection,
// so one reader cannot stall the others. Emissions are forwarded in the order
// the engine produced them.
type EventFanout struct {
	log       *slog.Logger
	gateway   contract.Gateway
	emissions chan []event.Emission
}

func NewEventFanout(log *slog.Logger, gateway contract.Gateway, emissions chan []event.Emission) *EventFanout {
	return &EventFanout{log: log, gateway: gateway, emissions: emissions}
}

func (w *EventFanout) Run(ctx context.Context) error {
	for {
		select {
		case batch, ok := <-w.emissions:
			if !ok {
				w.log.Debug("Emission channel is closed")
				return nil
			}
			for _, emission := range batch {
				w.Fanout(ctx, emission)
			}
		case <-ctx.Done():
			w.log.Debug("Context done, stopping fanout")
			return nil
		}
	}
}

// Fanout delivers one emission through the gateway.
func (w *EventFanout) Fanout(ctx context.Context, emission event.Emission) {
	switch emission.Audience {
	case event.All:
		w.gateway.BroadcastToAll(ctx, emission.Event)
	case event.Others:
		w.gateway.BroadcastToOthers(ctx, emission.Sender, emission.Event)
	default:
		w.log.Error("Unknown audience", "audience", emission.Audience, "event", emission.Event.Name())
	}
}
