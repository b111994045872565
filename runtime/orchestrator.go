package runtime

import (
	"chat-relay/contract"
	"chat-relay/domain"
	"chat-relay/domain/event"
	"chat-relay/errors"
	"chat-relay/runtime/workers"
	"context"
	"log/slog"
	"sync"
	"time"
)

var _ contract.Submitter = (*Orchestrator)(nil)

// Orchestrator wires the engine to the gateway through two queues:
// inbound events wait for the single engine worker, emissions wait for the fanout worker.
type Orchestrator struct {
	mu                   sync.Mutex
	log                  *slog.Logger
	supervisor           contract.ISupervisor
	dispatcher           contract.Dispatcher
	gateway              contract.Gateway
	inbound              chan event.Envelope
	emissions            chan []event.Emission
	telemetryChan        chan event.Event
	handlers             []event.Handler
	metricInterval       time.Duration
	lowCapacityThreshold int
	stopped              chan struct{}
	stopOnce             sync.Once
}

func NewOrchestrator(log *slog.Logger,
	supervisor contract.ISupervisor,
	dispatcher contract.Dispatcher,
	gateway contract.Gateway,
	telemetryChan chan event.Event,
	bufferSize int,
	metricInterval time.Duration,
	lowCapacityThreshold int) *Orchestrator {
	return &Orchestrator{
		log:                  log,
		supervisor:           supervisor,
		dispatcher:           dispatcher,
		gateway:              gateway,
		inbound:              make(chan event.Envelope, bufferSize),
		emissions:            make(chan []event.Emission, bufferSize),
		telemetryChan:        telemetryChan,
		metricInterval:       metricInterval,
		lowCapacityThreshold: lowCapacityThreshold,
		stopped:              make(chan struct{}),
	}
}

// RegisterHandlers adds telemetry handlers. Must be called before Start.
func (o *Orchestrator) RegisterHandlers(handlers ...event.Handler) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.handlers = append(o.handlers, handlers...)
}

// Submit queues an inbound event from connID.
// It blocks while the queue is full, so a flooding client slows down its own read loop only.
func (o *Orchestrator) Submit(ctx context.Context, connID domain.ConnectionID, in event.Inbound) error {
	env := event.Envelope{ConnID: connID, Event: in, ReceivedAt: time.Now()}
	select {
	case o.inbound <- env:
		return nil
	case <-o.stopped:
		return errors.ErrEngineStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Start registers the workers on the supervisor and blocks until they are all stopped.
func (o *Orchestrator) Start(ctx context.Context) error {
	o.mu.Lock()
	o.supervisor.Add(
		workers.NewEngineWorker(o.log, o.dispatcher, o.inbound, o.emissions, o.telemetryChan),
		workers.NewEventFanout(o.log, o.gateway, o.emissions),
		workers.NewTelemetryWorker(o.log, o.telemetryChan, o.prepareHandlers()),
		workers.NewChannelCapacityWorker(o.log, []workers.NamedChannel{
			{Name: "inbound", Channel: o.inbound},
			{Name: "emissions", Channel: o.emissions},
		}, o.telemetryChan, o.metricInterval),
	)
	o.mu.Unlock()

	o.log.Info("Starting orchestrator and all supervised workers")
	o.supervisor.Run(ctx)
	return nil
}

func (o *Orchestrator) prepareHandlers() []event.Handler {
	handlers := []event.Handler{event.NewChannelCapacityHandler(o.log, o.lowCapacityThreshold)}
	return append(handlers, o.handlers...)
}

// Stop initiates a graceful shutdown: pending and future Submit calls fail with ErrEngineStopped.
func (o *Orchestrator) Stop() {
	o.stopOnce.Do(func() {
		o.log.Info("Requesting orchestrator shutdown")
		close(o.stopped)
		o.supervisor.Stop()
	})
}
