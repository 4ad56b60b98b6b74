package hal

// waker is the sleeping scheduler's wakeup source. Signals are level
// triggered: a signal sent before wait is not lost.
type waker interface {
	signal()
	wait() error
	close() error
}
