// Package simhw implements a simulated serial port: a controller, two DMA
// engines and their interrupt lines, connected by a software wire. It backs
// the driver tests and the loopback self-test command. Interrupt handlers are
// invoked from the simulation's own goroutines, so they genuinely preempt
// application code the way hardware vectors do.
package simhw

import (
	"sync"

	uartdma "github.com/allbin/go-uartdma"
)

// Port is one simulated serial port with its DMA wiring.
type Port struct {
	mu sync.Mutex

	line      uartdma.LineConfig
	enabled   bool
	txLineOn  bool
	rxLineOn  bool
	rxIRQOn   bool // controller per-byte progress interrupt source
	txReq     bool // DMA request lines
	rxReq     bool
	tcFlag    bool // line-level "transmission complete"
	clockOn   bool
	powerHold int

	ctrlHandler func()
	txHandler   func()
	rxHandler   func()

	tx dmaState
	rx dmaState

	sink      func([]byte) // wire for transmitted bytes
	pendingRx []byte       // wire bytes not yet accepted by the rx engine
	holdRx    bool

	failNextTx bool
	failNextRx bool
	txBusy     bool

	events []string

	pinTx, pinRx, pinCTS, pinRTS Pin
}

type dmaState struct {
	cfg       uartdma.DMAConfig
	buf       []byte
	circular  bool
	pos       int
	remaining int
	enabled   bool
	irqSrcOn  bool
	status    uartdma.DMAStatus
}

// New returns an unwired simulated port. Transmitted bytes are discarded
// until Wire or Loopback attaches a destination.
func New() *Port {
	return &Port{}
}

// Loopback wires the port's transmitter to its own receiver.
func (p *Port) Loopback() {
	p.Wire(p.Feed)
}

// Wire attaches a destination for transmitted bytes, e.g. another port's
// Feed.
func (p *Port) Wire(sink func([]byte)) {
	p.mu.Lock()
	p.sink = sink
	p.mu.Unlock()
}

// Peripheral assembles the capability object the driver consumes.
func (p *Port) Peripheral() *uartdma.Peripheral {
	return &uartdma.Peripheral{
		Controller:    controller{p},
		TxDMA:         channel{p, uartdma.DirTransmit},
		RxDMA:         channel{p, uartdma.DirReceive},
		ControllerIRQ: irqLine{p, irqController},
		TxDMAIRQ:      irqLine{p, irqTxDMA},
		RxDMAIRQ:      irqLine{p, irqRxDMA},
		PinTx:         &p.pinTx,
		PinRx:         &p.pinRx,
		PinCTS:        &p.pinCTS,
		PinRTS:        &p.pinRTS,
		Clock:         clock{p},
		Power:         powerGate{p},
	}
}

// Feed delivers bytes to the port's receive line, as if they arrived on the
// wire.
func (p *Port) Feed(data []byte) {
	p.mu.Lock()
	p.pendingRx = append(p.pendingRx, data...)
	p.mu.Unlock()
	p.pump()
}

// HoldReceive pauses (true) or resumes (false) delivery from the wire into
// the receive DMA engine. Used to provoke receive timeouts.
func (p *Port) HoldReceive(hold bool) {
	p.mu.Lock()
	p.holdRx = hold
	p.mu.Unlock()
	if !hold {
		p.pump()
	}
}

// FailNextTransmit makes the transmit engine report a transfer error instead
// of moving the next armed buffer.
func (p *Port) FailNextTransmit() {
	p.mu.Lock()
	p.failNextTx = true
	p.mu.Unlock()
}

// FailNextReceive makes the receive engine report a transfer error when the
// next one-shot transfer completes.
func (p *Port) FailNextReceive() {
	p.mu.Lock()
	p.failNextRx = true
	p.mu.Unlock()
}

// Events returns the recorded arm/disarm sequence.
func (p *Port) Events() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.events...)
}

// LineConfig returns the configuration the driver programmed.
func (p *Port) LineConfig() uartdma.LineConfig {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.line
}

// DMAWidth returns the common transfer width programmed into the transmit
// channel.
func (p *Port) DMAWidth() uartdma.TransferWidth {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.tx.cfg.Width
}

// ActiveInterruptSources lists every interrupt source still enabled; empty
// after a clean Deinit.
func (p *Port) ActiveInterruptSources() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	var on []string
	if p.ctrlHandler != nil {
		on = append(on, "controller-line")
	}
	if p.txHandler != nil {
		on = append(on, "txdma-line")
	}
	if p.rxHandler != nil {
		on = append(on, "rxdma-line")
	}
	if p.rxIRQOn {
		on = append(on, "controller-rxne")
	}
	if p.tx.irqSrcOn {
		on = append(on, "txdma-src")
	}
	if p.rx.irqSrcOn {
		on = append(on, "rxdma-src")
	}
	return on
}

// PowerHold returns the current depth of the simulated low-power gate; zero
// means every Disable was paired with an Enable.
func (p *Port) PowerHold() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.powerHold
}

// ClockEnabled reports the simulated peripheral clock state.
func (p *Port) ClockEnabled() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.clockOn
}

// RxPin returns the simulated receive pin, used to trigger wake edges.
func (p *Port) RxPin() *Pin { return &p.pinRx }

// CTSPin and RTSPin expose the flow-control pins for configuration asserts.
func (p *Port) CTSPin() *Pin { return &p.pinCTS }
func (p *Port) RTSPin() *Pin { return &p.pinRTS }

func (p *Port) record(ev string) {
	p.events = append(p.events, ev)
}

// pump moves wire bytes into the receive DMA engine one at a time, raising
// the per-byte progress interrupt (circular capture) or the channel
// completion interrupt (one-shot) as the hardware would. Handlers run with
// the port lock released.
func (p *Port) pump() {
	for {
		p.mu.Lock()
		ch := &p.rx
		armed := ch.enabled && p.rxReq && p.enabled && p.rxLineOn && !p.holdRx
		if !armed || len(p.pendingRx) == 0 || ch.remaining == 0 {
			p.mu.Unlock()
			return
		}

		b := p.pendingRx[0]
		p.pendingRx = p.pendingRx[1:]
		if ch.pos < len(ch.buf) {
			ch.buf[ch.pos] = b
		}
		ch.pos++
		ch.remaining--

		var callCtrl, callRx func()
		if ch.circular {
			if ch.remaining == 0 {
				// Auto-reload: wrap to the start of the buffer.
				ch.remaining = len(ch.buf)
				ch.pos = 0
			}
			if p.rxIRQOn {
				callCtrl = p.ctrlHandler
			}
		} else if ch.remaining == 0 {
			if p.failNextRx {
				ch.status.Errored = true
				p.failNextRx = false
			} else {
				ch.status.Completed = true
			}
			ch.enabled = false
			if ch.irqSrcOn {
				callRx = p.rxHandler
			}
		}
		p.mu.Unlock()

		if callCtrl != nil {
			callCtrl()
		}
		if callRx != nil {
			callRx()
		}
	}
}

// maybeStartTransmit kicks the transmit engine once the channel is enabled
// and the request line is up. The transfer runs on its own goroutine; the
// completion interrupt fires from there, preempting the waiting caller.
func (p *Port) maybeStartTransmit() {
	p.mu.Lock()
	if p.txBusy || !p.tx.enabled || !p.txReq || !p.enabled || !p.txLineOn || p.tx.remaining == 0 {
		p.mu.Unlock()
		return
	}
	p.txBusy = true
	data := append([]byte(nil), p.tx.buf[:p.tx.remaining]...)
	fail := p.failNextTx
	p.failNextTx = false
	sink := p.sink
	p.mu.Unlock()

	go func() {
		if !fail && sink != nil {
			sink(data)
		}

		p.mu.Lock()
		p.tx.remaining = 0
		p.tx.enabled = false
		if fail {
			p.tx.status.Errored = true
		} else {
			p.tx.status.Completed = true
		}
		// Last byte has left the shift register by the time the
		// completion interrupt is taken.
		p.tcFlag = true
		var h func()
		if p.tx.irqSrcOn {
			h = p.txHandler
		}
		p.txBusy = false
		p.mu.Unlock()

		if h != nil {
			h()
		}
	}()
}
