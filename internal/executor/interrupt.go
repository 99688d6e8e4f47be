package executor

import (
	"os"
	"os/signal"
	"sync"
	"syscall"
)

// Interrupt is the cooperative pause flag. Signal handlers and the
// interactive surface set it; the executor polls it between steps and
// suspends cleanly at the next boundary. Nothing is ever killed mid-step.
type Interrupt struct {
	mu      sync.Mutex
	pending bool
}

// NewInterrupt creates an Interrupt with no pause requested.
func NewInterrupt() *Interrupt {
	return &Interrupt{}
}

// Request asks the executor to pause at the next step boundary.
func (i *Interrupt) Request() {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.pending = true
}

// Pending reports whether a pause has been requested.
func (i *Interrupt) Pending() bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.pending
}

// Reset clears the flag before a new run.
func (i *Interrupt) Reset() {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.pending = false
}

// WatchSignals routes SIGINT and SIGTERM into Request until the returned
// stop function is called.
func (i *Interrupt) WatchSignals() (stop func()) {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	done := make(chan struct{})

	go func() {
		for {
			select {
			case <-ch:
				i.Request()
			case <-done:
				return
			}
		}
	}()

	return func() {
		signal.Stop(ch)
		close(done)
	}
}
