package models

import (
	"context"
	"sync"
	"time"

	uartdma "github.com/allbin/go-uartdma"
	"github.com/allbin/go-uartdma/internal/tui/components"
)

// InputMode is the vim-style input mode for the monitor.
type InputMode int

const (
	InputModeNormal InputMode = iota
	InputModeInsert
)

func (m InputMode) String() string {
	if m == InputModeInsert {
		return "INSERT"
	}
	return "NORMAL"
}

// StatusMsg reports a connection state change to the TUI.
type StatusMsg struct {
	Connected bool
	Err       error
}

// TrafficMsg carries one logged transfer into the TUI.
type TrafficMsg struct {
	Time time.Time
	Data []byte
	TX   bool
	Err  error
}

// TickMsg drives the periodic stats/clock refresh.
type TickMsg time.Time

// Session is the shared state between the TUI model and the background
// receive pump: the driver handle, counters, and lifecycle context.
type Session struct {
	device  string
	ringCap int

	mu        sync.RWMutex
	driver    *uartdma.Driver
	connected bool
	err       error
	mode      InputMode

	txBytes     int64
	rxBytes     int64
	txTransfers int64
	txErrors    int64

	ctx    context.Context
	cancel context.CancelFunc
}

func NewSession(device string, ringCap int) *Session {
	ctx, cancel := context.WithCancel(context.Background())
	return &Session{
		device:  device,
		ringCap: ringCap,
		ctx:     ctx,
		cancel:  cancel,
	}
}

func (s *Session) Device() string { return s.device }

func (s *Session) Driver() *uartdma.Driver {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.driver
}

func (s *Session) SetDriver(d *uartdma.Driver) {
	s.mu.Lock()
	s.driver = d
	s.mu.Unlock()
}

func (s *Session) Connected() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.connected
}

func (s *Session) SetConnected(up bool, err error) {
	s.mu.Lock()
	s.connected = up
	s.err = err
	s.mu.Unlock()
}

func (s *Session) Mode() InputMode {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.mode
}

func (s *Session) SetMode(mode InputMode) {
	s.mu.Lock()
	s.mode = mode
	s.mu.Unlock()
}

func (s *Session) CountTX(n int, err error) {
	s.mu.Lock()
	s.txTransfers++
	if err != nil {
		s.txErrors++
	} else {
		s.txBytes += int64(n)
	}
	s.mu.Unlock()
}

func (s *Session) CountRX(n int) {
	s.mu.Lock()
	s.rxBytes += int64(n)
	s.mu.Unlock()
}

// Stats snapshots the counters plus the driver's current ring occupancy.
func (s *Session) Stats() components.Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := components.Stats{
		TXBytes:     s.txBytes,
		RXBytes:     s.rxBytes,
		TXTransfers: s.txTransfers,
		TXErrors:    s.txErrors,
		RingCap:     s.ringCap,
	}
	if s.driver != nil {
		st.RingUsed = s.driver.BytesAvailable()
	}
	return st
}

func (s *Session) Context() context.Context { return s.ctx }

func (s *Session) Cancel() {
	if s.cancel != nil {
		s.cancel()
	}
}
