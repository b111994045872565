package runtime_test

import (
	"chat-relay/domain"
	"chat-relay/domain/event"
	"chat-relay/errors"
	"chat-relay/mocks"
	"chat-relay/runtime"
	"chat-relay/runtime/workers"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestOrchestrator_Join_Reaches_Gateway(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	gateway := mocks.NewMockGateway(ctrl)

	telemetryChan := make(chan event.Event, 16)
	counter := event.NewCounter()
	engine := runtime.NewEngine(log, runtime.NewRegistry(), runtime.NewTypingSet())
	orchestrator := runtime.NewOrchestrator(log,
		workers.NewSupervisor(log, telemetryChan, 50*time.Millisecond),
		engine, gateway, telemetryChan, 16, time.Second, 2)
	orchestrator.RegisterHandlers(event.NewEventProcessedHandler(log, counter))

	done := make(chan struct{})
	gomock.InOrder(
		gateway.EXPECT().BroadcastToOthers(gomock.Any(), domain.ConnectionID("A"), gomock.AssignableToTypeOf(event.UserJoined{})),
		gateway.EXPECT().BroadcastToAll(gomock.Any(), event.UsersCount{Count: 1}).
			Do(func(context.Context, event.Outbound) { close(done) }),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = orchestrator.Start(ctx) }()

	// When a join is submitted
	req.NoError(orchestrator.Submit(ctx, "A", event.Join{Name: "Alice"}))

	// Then the gateway receives both emissions
	select {
	case <-done:
	case <-time.After(time.Second):
		req.Fail("Gateway was not called")
	}
	req.Equal(1, engine.Online())
	req.Eventually(func() bool {
		return counter.Get(event.EventProcessedType) == 1
	}, time.Second, 10*time.Millisecond)
}

func TestOrchestrator_Submit_After_Stop(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	supervisor := mocks.NewMockISupervisor(ctrl)
	supervisor.EXPECT().Stop().Times(1)

	// Given an unbuffered orchestrator that was never started
	orchestrator := runtime.NewOrchestrator(log, supervisor,
		runtime.NewEngine(log, runtime.NewRegistry(), runtime.NewTypingSet()),
		mocks.NewMockGateway(ctrl), nil, 0, time.Second, 0)

	// When it is stopped twice
	orchestrator.Stop()
	orchestrator.Stop()

	// Then submitting fails instead of blocking forever
	err := orchestrator.Submit(context.Background(), "A", event.Disconnect{})
	req.ErrorIs(err, errors.ErrEngineStopped)
}
