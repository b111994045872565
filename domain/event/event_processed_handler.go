package event

import (
	"chat-relay/errors"
	"log/slog"
)

// EventProcessedHandler counts inbound events handled by the engine,
// the messages and typing updates dropped before join and the emissions produced.
type EventProcessedHandler struct {
	log     *slog.Logger
	counter *Counter
}

func NewEventProcessedHandler(log *slog.Logger, counter *Counter) *EventProcessedHandler {
	return &EventProcessedHandler{log: log, counter: counter}
}

func (h *EventProcessedHandler) Handle(event Event) {
	switch event.Type {
	case EventProcessedType:
		payload, ok := event.Payload.(EventProcessed)
		if !ok {
			h.log.Error(errors.ErrInvalidPayload.Error(), "type", event.Type)
			return
		}
		h.counter.Increment(EventProcessedType)
		if payload.Emissions == 0 {
			if isSequenceViolation(payload.Kind) {
				h.counter.Increment(EventDroppedType)
			}
			return
		}
		h.counter.Add(EmissionType, uint64(payload.Emissions))
	}
}

// isSequenceViolation reports the kinds that only fail to emit when sent before join.
func isSequenceViolation(kind Kind) bool {
	return kind == KindChatMessage || kind == KindTyping
}
