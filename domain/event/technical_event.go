package event

import "time"

type Type string

const (
	RestartedAfterPanicType Type = "WORKER_RESTARTED_AFTER_PANIC"
	ChannelCapacityType     Type = "CHANNEL_CAPACITY"
	EventProcessedType      Type = "EVENT_PROCESSED"
	EventDroppedType        Type = "EVENT_DROPPED"
	EmissionType            Type = "EMISSION"
)

// Event is a technical event flowing on the telemetry channel.
type Event struct {
	Type      Type
	CreatedAt time.Time
	Payload   any
}

type WorkerRestartedAfterPanic struct {
	WorkerName string
}

type ChannelCapacity struct {
	ChannelName string
	Capacity    int
	Length      int
}

// EventProcessed is reported by the engine worker after each inbound event.
type EventProcessed struct {
	Kind      Kind
	Emissions int
	Latency   time.Duration
}
