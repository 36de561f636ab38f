package simhw

import (
	"sync"

	uartdma "github.com/allbin/go-uartdma"
)

// Capability adapters. Each one locks the port, mutates simulated register
// state, and records the events the tests assert on.

type controller struct{ p *Port }

func (c controller) Configure(lc uartdma.LineConfig) error {
	if lc.BaudRate <= 0 {
		return uartdma.ErrInvalidBaudRate
	}
	c.p.mu.Lock()
	c.p.line = lc
	c.p.mu.Unlock()
	return nil
}

func (c controller) Enable() {
	c.p.mu.Lock()
	c.p.enabled = true
	c.p.mu.Unlock()
}

func (c controller) Disable() {
	c.p.mu.Lock()
	c.p.enabled = false
	c.p.mu.Unlock()
}

func (c controller) EnableTransmitter() {
	c.p.mu.Lock()
	c.p.txLineOn = true
	c.p.mu.Unlock()
}

func (c controller) EnableReceiver() {
	c.p.mu.Lock()
	c.p.rxLineOn = true
	c.p.mu.Unlock()
	c.p.pump()
}

func (c controller) SetRxInterrupt(enable bool) {
	c.p.mu.Lock()
	c.p.rxIRQOn = enable
	c.p.mu.Unlock()
}

func (c controller) ClearStatus() {
	// Status flags other than TC are implicit in this simulation; nothing
	// latches that would re-raise the progress interrupt.
}

func (c controller) SetDMARequest(dir uartdma.Direction, enable bool) {
	c.p.mu.Lock()
	if dir == uartdma.DirTransmit {
		c.p.txReq = enable
		if enable {
			c.p.record("tx:req-on")
		} else {
			c.p.record("tx:req-off")
		}
	} else {
		c.p.rxReq = enable
	}
	c.p.mu.Unlock()
	if enable {
		if dir == uartdma.DirTransmit {
			c.p.maybeStartTransmit()
		} else {
			c.p.pump()
		}
	}
}

func (c controller) ClearTransmitComplete() {
	c.p.mu.Lock()
	c.p.tcFlag = false
	c.p.mu.Unlock()
}

func (c controller) TransmitComplete() bool {
	c.p.mu.Lock()
	defer c.p.mu.Unlock()
	return c.p.tcFlag
}

type channel struct {
	p   *Port
	dir uartdma.Direction
}

func (ch channel) state() *dmaState {
	if ch.dir == uartdma.DirTransmit {
		return &ch.p.tx
	}
	return &ch.p.rx
}

func (ch channel) name() string {
	if ch.dir == uartdma.DirTransmit {
		return "tx"
	}
	return "rx"
}

func (ch channel) Configure(cfg uartdma.DMAConfig) {
	ch.p.mu.Lock()
	ch.state().cfg = cfg
	ch.p.mu.Unlock()
}

func (ch channel) SetTransfer(buf []byte, circular bool) {
	ch.p.mu.Lock()
	st := ch.state()
	st.buf = buf
	st.circular = circular
	st.pos = 0
	st.remaining = len(buf)
	ch.p.record(ch.name() + ":arm")
	ch.p.mu.Unlock()
}

func (ch channel) Enable() {
	ch.p.mu.Lock()
	ch.state().enabled = true
	ch.p.record(ch.name() + ":enable")
	ch.p.mu.Unlock()
	if ch.dir == uartdma.DirTransmit {
		ch.p.maybeStartTransmit()
	} else {
		ch.p.pump()
	}
}

func (ch channel) Disable() {
	ch.p.mu.Lock()
	ch.state().enabled = false
	ch.p.record(ch.name() + ":disable")
	ch.p.mu.Unlock()
}

func (ch channel) Remaining() int {
	ch.p.mu.Lock()
	defer ch.p.mu.Unlock()
	return ch.state().remaining
}

func (ch channel) Status() uartdma.DMAStatus {
	ch.p.mu.Lock()
	defer ch.p.mu.Unlock()
	return ch.state().status
}

func (ch channel) ClearStatus(st uartdma.DMAStatus) {
	ch.p.mu.Lock()
	defer ch.p.mu.Unlock()
	cur := ch.state()
	if st.Completed {
		cur.status.Completed = false
	}
	if st.Errored {
		cur.status.Errored = false
	}
}

func (ch channel) SetInterrupts(enable bool) {
	ch.p.mu.Lock()
	ch.state().irqSrcOn = enable
	ch.p.mu.Unlock()
}

const (
	irqController = iota
	irqTxDMA
	irqRxDMA
)

type irqLine struct {
	p     *Port
	which int
}

func (l irqLine) Enable(handler func()) {
	l.p.mu.Lock()
	switch l.which {
	case irqController:
		l.p.ctrlHandler = handler
	case irqTxDMA:
		l.p.txHandler = handler
	case irqRxDMA:
		l.p.rxHandler = handler
	}
	l.p.mu.Unlock()
}

func (l irqLine) Disable() {
	l.p.mu.Lock()
	switch l.which {
	case irqController:
		l.p.ctrlHandler = nil
	case irqTxDMA:
		l.p.txHandler = nil
	case irqRxDMA:
		l.p.rxHandler = nil
	}
	l.p.mu.Unlock()
}

// Pin is a simulated GPIO pin: it remembers whether the driver routed it to
// the controller and holds the wake handler for edge interrupts.
type Pin struct {
	mu         sync.Mutex
	configured bool
	edge       func()
}

func (pin *Pin) ConfigureFunction() {
	pin.mu.Lock()
	pin.configured = true
	pin.mu.Unlock()
}

func (pin *Pin) EnableFallingEdgeIRQ(handler func()) {
	pin.mu.Lock()
	pin.edge = handler
	pin.mu.Unlock()
}

func (pin *Pin) DisableIRQ() {
	pin.mu.Lock()
	pin.edge = nil
	pin.mu.Unlock()
}

// FallingEdge simulates a falling edge on the pin, invoking an armed handler.
func (pin *Pin) FallingEdge() {
	pin.mu.Lock()
	h := pin.edge
	pin.mu.Unlock()
	if h != nil {
		h()
	}
}

// Configured reports whether the pin was routed to the controller.
func (pin *Pin) Configured() bool {
	pin.mu.Lock()
	defer pin.mu.Unlock()
	return pin.configured
}

type clock struct{ p *Port }

func (c clock) Enable() {
	c.p.mu.Lock()
	c.p.clockOn = true
	c.p.mu.Unlock()
}

func (c clock) Disable() {
	c.p.mu.Lock()
	c.p.clockOn = false
	c.p.mu.Unlock()
}

type powerGate struct{ p *Port }

func (g powerGate) Disable() {
	g.p.mu.Lock()
	g.p.powerHold++
	g.p.mu.Unlock()
}

func (g powerGate) Enable() {
	g.p.mu.Lock()
	g.p.powerHold--
	g.p.mu.Unlock()
}
