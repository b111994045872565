package test

import (
	"chat-relay/domain"
	"chat-relay/domain/event"
	"chat-relay/gateway"
	"chat-relay/mocks"
	"chat-relay/runtime"
	"chat-relay/runtime/workers"
	"chat-relay/sink"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func next(t *testing.T, s *sink.ConnectionSink) event.Outbound {
	t.Helper()
	select {
	case e := <-s.Outbound:
		return e
	case <-time.After(time.Second):
		t.Fatal("no event delivered")
		return nil
	}
}

func Test_Scenario(t *testing.T) {
	ctx := context.Background()
	req := require.New(t)

	// 1. Wire the whole relay except the sockets
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	telemetryChan := make(chan event.Event, 64)
	supervisor := workers.NewSupervisor(log, telemetryChan, 200*time.Millisecond)
	engine := runtime.NewEngine(log, runtime.NewRegistry(), runtime.NewTypingSet())
	hub := gateway.NewHub(log)
	counter := event.NewCounter()
	orchestrator := runtime.NewOrchestrator(log, supervisor, engine, hub, telemetryChan, 100, time.Second, 10)
	orchestrator.RegisterHandlers(event.NewEventProcessedHandler(log, counter))

	alice, bob := sink.NewConnectionSink(16), sink.NewConnectionSink(16)
	hub.Add("A", alice)
	hub.Add("B", bob)

	go func() {
		err := orchestrator.Start(ctx)
		req.NoError(err)
	}()

	// Clean everything at the end of the test
	t.Cleanup(func() {
		orchestrator.Stop()
	})

	// 2. Alice joins, then Bob
	req.NoError(orchestrator.Submit(ctx, "A", event.Join{Name: "Alice"}))
	req.Equal(event.UsersCount{Count: 1}, next(t, alice))
	next(t, bob) // user-joined Alice: Bob is connected but anonymous
	req.Equal(event.UsersCount{Count: 1}, next(t, bob))

	req.NoError(orchestrator.Submit(ctx, "B", event.Join{Name: "Bob"}))
	joined, ok := next(t, alice).(event.UserJoined)
	req.True(ok)
	req.Equal("Bob joined the chat", joined.Message)
	req.Equal(event.UsersCount{Count: 2}, next(t, alice))
	req.Equal(event.UsersCount{Count: 2}, next(t, bob))

	// 3. Bob types then talks
	req.NoError(orchestrator.Submit(ctx, "B", event.Typing{IsTyping: true}))
	req.NoError(orchestrator.Submit(ctx, "B", event.PostMessage{Text: "hi"}))
	typing, ok := next(t, alice).(event.TypingStatus)
	req.True(ok)
	req.Equal([]string{"Bob"}, typing.TypingUsers)
	for _, s := range []*sink.ConnectionSink{alice, bob} {
		msg, ok := next(t, s).(event.MessagePosted)
		req.True(ok)
		req.Equal("hi", msg.Message)
		req.Equal(domain.ConnectionID("B"), msg.SenderID)
	}

	// 4. Bob goes away
	hub.Remove("B")
	bob.Close()
	req.NoError(orchestrator.Submit(ctx, "B", event.Disconnect{}))
	left, ok := next(t, alice).(event.UserLeft)
	req.True(ok)
	req.Equal("Bob", left.Username)
	req.Equal(event.UsersCount{Count: 1}, next(t, alice))

	req.Equal(1, engine.Online())
	req.Empty(engine.TypingMembers())
	req.Eventually(func() bool {
		return counter.Get(event.EventProcessedType) == 5
	}, time.Second, 10*time.Millisecond)
}

func Test_Engine_Worker_Restarts_After_Panic(t *testing.T) {
	ctx := context.Background()
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	ctrl := gomock.NewController(t)
	dispatcher := mocks.NewMockDispatcher(ctrl)
	gw := mocks.NewMockGateway(ctrl)

	telemetryChan := make(chan event.Event, 64)
	counter := event.NewCounter()
	orchestrator := runtime.NewOrchestrator(log,
		workers.NewSupervisor(log, telemetryChan, 10*time.Millisecond),
		dispatcher, gw, telemetryChan, 16, time.Second, 2)
	orchestrator.RegisterHandlers(event.NewWorkerRestartedAfterPanicHandler(log, counter))

	done := make(chan struct{})
	gomock.InOrder(
		dispatcher.EXPECT().Dispatch(domain.ConnectionID("A"), event.Join{Name: "Alice"}).
			Do(func(domain.ConnectionID, event.Inbound) { panic("boom") }),
		dispatcher.EXPECT().Dispatch(domain.ConnectionID("A"), event.PostMessage{Text: "still here"}).
			Return([]event.Emission{event.ToAll(event.UsersCount{Count: 1})}),
	)
	gw.EXPECT().BroadcastToAll(gomock.Any(), event.UsersCount{Count: 1}).
		Do(func(context.Context, event.Outbound) { close(done) })

	go func() { _ = orchestrator.Start(ctx) }()
	t.Cleanup(orchestrator.Stop)

	// When the first event makes the engine panic
	req.NoError(orchestrator.Submit(ctx, "A", event.Join{Name: "Alice"}))
	req.NoError(orchestrator.Submit(ctx, "A", event.PostMessage{Text: "still here"}))

	// Then the worker is restarted and the next event still flows
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		req.Fail("engine worker did not recover")
	}
	req.Eventually(func() bool {
		return counter.Get(event.RestartedAfterPanicType) == 1
	}, time.Second, 10*time.Millisecond)
}
