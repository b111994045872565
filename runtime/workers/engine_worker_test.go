package workers

import (
	"chat-relay/domain"
	"chat-relay/domain/event"
	"chat-relay/mocks"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestEngineWorker_Dispatches_In_Arrival_Order(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	dispatcher := mocks.NewMockDispatcher(ctrl)

	inbound := make(chan event.Envelope, 3)
	emissions := make(chan []event.Emission, 3)
	telemetryChan := make(chan event.Event, 3)
	worker := NewEngineWorker(log, dispatcher, inbound, emissions, telemetryChan)

	count := event.ToAll(event.UsersCount{Count: 1})
	gomock.InOrder(
		dispatcher.EXPECT().Dispatch(domain.ConnectionID("A"), event.Join{Name: "Alice"}).
			Return([]event.Emission{count}),
		dispatcher.EXPECT().Dispatch(domain.ConnectionID("B"), event.PostMessage{Text: "too early"}).
			Return(nil),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = worker.Run(ctx) }()

	// When a join then an out-of-order message arrive
	inbound <- event.Envelope{ConnID: "A", Event: event.Join{Name: "Alice"}, ReceivedAt: time.Now()}
	inbound <- event.Envelope{ConnID: "B", Event: event.PostMessage{Text: "too early"}, ReceivedAt: time.Now()}

	// Then only the join produces a batch
	select {
	case batch := <-emissions:
		req.Equal([]event.Emission{count}, batch)
	case <-time.After(time.Second):
		req.Fail("No emission produced")
	}

	// And both events are reported to telemetry
	for _, expected := range []struct {
		kind      event.Kind
		emissions int
	}{{event.KindJoin, 1}, {event.KindChatMessage, 0}} {
		select {
		case evt := <-telemetryChan:
			payload, ok := evt.Payload.(event.EventProcessed)
			req.True(ok)
			req.Equal(expected.kind, payload.Kind)
			req.Equal(expected.emissions, payload.Emissions)
		case <-time.After(time.Second):
			req.Fail("No telemetry reported")
		}
	}
	req.Empty(emissions)
}

func TestEngineWorker_Stops_On_Closed_Channel(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	inbound := make(chan event.Envelope)
	close(inbound)

	worker := NewEngineWorker(slog.Default(), mocks.NewMockDispatcher(ctrl), inbound, nil, nil)

	req.NoError(worker.Run(context.Background()))
}

func TestTelemetryWorker_Calls_Every_Handler(t *testing.T) {
	req := require.New(t)
	telemetryChan := make(chan event.Event)
	counter := event.NewCounter()
	log := slog.Default()
	worker := NewTelemetryWorker(log, telemetryChan, []event.Handler{
		event.NewEventProcessedHandler(log, counter),
		event.NewWorkerRestartedAfterPanicHandler(log, counter),
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = worker.Run(ctx)
		close(done)
	}()

	telemetryChan <- event.Event{Type: event.EventProcessedType, Payload: event.EventProcessed{Kind: event.KindJoin, Emissions: 2}}
	telemetryChan <- event.Event{Type: event.RestartedAfterPanicType, Payload: event.WorkerRestartedAfterPanic{WorkerName: "EventFanout"}}
	cancel()
	<-done

	req.Equal(uint64(1), counter.Get(event.EventProcessedType))
	req.Equal(uint64(2), counter.Get(event.EmissionType))
	req.Equal(uint64(1), counter.Get(event.RestartedAfterPanicType))
}

func TestChannelCapacityWorker_Reports_Usage(t *testing.T) {
	req := require.New(t)
	telemetryChan := make(chan event.Event, 4)
	inbound := make(chan event.Envelope, 8)
	inbound <- event.Envelope{}
	worker := NewChannelCapacityWorker(slog.Default(),
		[]NamedChannel{{Name: "inbound", Channel: inbound}, {Name: "broken", Channel: 42}},
		telemetryChan, 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = worker.Run(ctx) }()

	select {
	case evt := <-telemetryChan:
		req.Equal(event.ChannelCapacityType, evt.Type)
		req.Equal(event.ChannelCapacity{ChannelName: "inbound", Capacity: 8, Length: 1}, evt.Payload)
	case <-time.After(time.Second):
		req.Fail("No capacity reported")
	}
}
