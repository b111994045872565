package errors

import "fmt"

var (
	ErrWorkerPanic      = fmt.Errorf("worker panic")
	ErrUnknownEvent     = fmt.Errorf("unknown event")
	ErrInvalidPayload   = fmt.Errorf("invalid payload")
	ErrInvalidConfig    = fmt.Errorf("invalid configuration")
	ErrConnectionClosed = fmt.Errorf("connection closed")
	ErrSinkFull         = fmt.Errorf("connection buffer full")
	ErrEngineStopped    = fmt.Errorf("engine stopped")
)
