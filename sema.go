package uartdma

import (
	"math"
	"time"
)

// WaitForever blocks a Receive call until enough bytes arrive, with no bound.
const WaitForever = time.Duration(math.MaxInt64)

// semaphore is a counting semaphore with capacity one, used to hand a
// completion event from interrupt context to a waiting thread. signal never
// blocks, so it is safe to call from an interrupt handler; an already-raised
// semaphore absorbs further signals.
type semaphore struct {
	ch chan struct{}
}

func newSemaphore() *semaphore {
	return &semaphore{ch: make(chan struct{}, 1)}
}

// signal raises the semaphore without blocking. A nil semaphore (feature not
// active) absorbs the signal.
func (s *semaphore) signal() {
	if s == nil {
		return
	}
	select {
	case s.ch <- struct{}{}:
	default:
	}
}

// acquire blocks until the semaphore is raised or timeout expires.
// WaitForever waits unconditionally.
func (s *semaphore) acquire(timeout time.Duration) error {
	if timeout == WaitForever {
		<-s.ch
		return nil
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-s.ch:
		return nil
	case <-timer.C:
		return ErrTimeout
	}
}

// drain consumes a pending signal, if any. Called while arming a transfer so
// a completion left over from an abandoned wait cannot satisfy the new one.
func (s *semaphore) drain() {
	select {
	case <-s.ch:
	default:
	}
}
