//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"chat-relay/domain"
	"chat-relay/domain/event"
	"context"
	"reflect"
)

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Start(ctx context.Context, worker Worker)
	Stop()
}

type WorkerName string

// Worker doesn't protect itself
// Can be silly, focused
type Worker interface {
	Run(ctx context.Context) error
}

// GetWorkerName uses reflection to retrieve the type name of the worker.
// This is used for logging and supervision purposes during worker initialization
// or lifecycle events, avoiding the need for manual naming in the Worker interface.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}

// EventSink is the outbound queue of one connection.
type EventSink interface {
	Consume(ctx context.Context, e event.Outbound) error
}

// Gateway is the transport side of the fanout: it owns every open connection.
type Gateway interface {
	BroadcastToAll(ctx context.Context, e event.Outbound)
	BroadcastToOthers(ctx context.Context, sender domain.ConnectionID, e event.Outbound)
}

// Dispatcher applies one inbound event to the chat state and returns what must be sent.
type Dispatcher interface {
	Dispatch(connID domain.ConnectionID, in event.Inbound) []event.Emission
}

// Submitter queues inbound events for the engine. The gateway calls it from its read loops.
type Submitter interface {
	Submit(ctx context.Context, connID domain.ConnectionID, in event.Inbound) error
}
