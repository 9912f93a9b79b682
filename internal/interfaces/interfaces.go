// Package interfaces holds the small seams internal packages depend on,
// kept separate from the public coreio package to avoid import cycles.
package interfaces

// Logger mirrors the method set of internal/logging.Logger. The subsystem
// packages currently hold a *logging.Logger directly and do not accept this
// interface.
type Logger interface {
	Debug(msg string, args ...any)
	Debugf(format string, args ...any)
	Info(msg string, args ...any)
	Infof(format string, args ...any)
	Warn(msg string, args ...any)
	Warnf(format string, args ...any)
	Error(msg string, args ...any)
	Errorf(format string, args ...any)
}

// Observer receives per-operation measurements from the AIO Manager,
// Signal Capture and Bulk Transfer Dispatcher. Implementations must be
// safe for concurrent use: the Bulk Dispatcher calls it from worker
// goroutines as well as from Queue, while the AIO Manager and Signal
// Capture call it from whichever goroutine calls Submit or Harvest.
type Observer interface {
	ObserveAIOCompletion(bytes uint64, latencyNs uint64, success bool)
	ObserveSignalHarvest(count int, overflowed bool)
	ObserveBulkCompletion(bytes uint64, latencyNs uint64, success bool)
	ObserveQueueDepth(depth uint32)
}

// NoOpObserver discards every measurement; it is the default observer for
// a Manager/Capture/Dispatcher built without an explicit SetObserver call.
type NoOpObserver struct{}

func (NoOpObserver) ObserveAIOCompletion(uint64, uint64, bool)  {}
func (NoOpObserver) ObserveSignalHarvest(int, bool)             {}
func (NoOpObserver) ObserveBulkCompletion(uint64, uint64, bool) {}
func (NoOpObserver) ObserveQueueDepth(uint32)                   {}
