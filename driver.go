package uartdma

import (
	"runtime"
	"sync"
	"time"

	"github.com/allbin/go-uartdma/ring"
)

// Driver is the per-port driver instance. One Driver owns one serial
// controller and its two DMA channels. The zero value is ready for Init.
//
// Two concurrency domains touch a Driver: application goroutines calling the
// blocking API, and the interrupt service entry points invoked by the
// platform. The transfer-state fields they share are guarded by mu; the
// completion semaphores carry the wakeups between the two domains.
type Driver struct {
	peripheral *Peripheral
	config     Config
	rxBuffer   *ring.Buffer // nil selects direct (one-shot) receive mode

	txMutex sync.Mutex // serializes Transmit callers onto the one tx channel

	txComplete *semaphore
	rxComplete *semaphore
	wakeup     *semaphore // activity semaphore, non-nil only with the wake helper

	mu                 sync.Mutex
	rxSize             int // receive watermark; 0 means no one is waiting
	txSize             int // in-flight transmit length; 0 means none pending
	lastTransmitResult error
	lastReceiveResult  error

	initialized bool
	helper      *wakeHelper
}

// Init programs the controller and both DMA channels, wires up pins and
// interrupt lines, and allocates the synchronization primitives. Supplying a
// ring buffer selects buffered mode: a circular background capture is armed
// immediately and Receive serves requests out of the ring. Without one the
// driver runs in direct mode and each Receive arms a one-shot transfer into
// the caller's buffer.
//
// The ring buffer is caller-owned and must be freshly created (or Reset)
// before it is handed in.
func (d *Driver) Init(peripheral *Peripheral, rxBuffer *ring.Buffer, opts ...Option) error {
	if d == nil || peripheral == nil {
		return ErrInvalidParam
	}

	pw := peripheral.power()
	pw.Disable()
	defer pw.Enable()

	if peripheral.Controller == nil || peripheral.TxDMA == nil || peripheral.RxDMA == nil {
		return ErrInvalidParam
	}
	if rxBuffer != nil && (rxBuffer.Bytes() == nil || rxBuffer.Capacity() == 0) {
		return ErrInvalidParam
	}

	cfg := DefaultConfig()
	for _, opt := range opts {
		if err := opt(&cfg); err != nil {
			return err
		}
	}

	d.peripheral = peripheral
	d.config = cfg
	d.rxBuffer = nil
	d.txComplete = newSemaphore()
	d.rxComplete = newSemaphore()
	d.mu.Lock()
	d.rxSize = 0
	d.txSize = 0
	d.lastTransmitResult = nil
	d.lastReceiveResult = nil
	d.mu.Unlock()

	// Route the pins to the controller. CTS/RTS only when both the config
	// asks for the mode and the board actually wired the pin.
	if peripheral.PinTx != nil {
		peripheral.PinTx.ConfigureFunction()
	}
	if peripheral.PinRx != nil {
		peripheral.PinRx.ConfigureFunction()
	}
	if peripheral.PinCTS != nil && (cfg.FlowControl == FlowControlCTS || cfg.FlowControl == FlowControlCTSRTS) {
		peripheral.PinCTS.ConfigureFunction()
	}
	if peripheral.PinRTS != nil && (cfg.FlowControl == FlowControlRTS || cfg.FlowControl == FlowControlCTSRTS) {
		peripheral.PinRTS.ConfigureFunction()
	}

	if cfg.WakeOnReceive {
		d.startWakeHelper()
	}

	if peripheral.Clock != nil {
		peripheral.Clock.Enable()
	}

	line := LineConfig{
		BaudRate:    cfg.BaudRate,
		WordLength:  cfg.wordLength(),
		StopBits:    cfg.StopBits,
		Parity:      cfg.Parity,
		FlowControl: cfg.FlowControl,
	}
	if err := peripheral.Controller.Configure(line); err != nil {
		return err
	}

	dmaCfg := DMAConfig{
		Width:               cfg.transferWidth(),
		MemoryIncrement:     true,
		PeripheralIncrement: false,
		Priority:            PriorityVeryHigh,
	}
	peripheral.TxDMA.Configure(dmaCfg)
	peripheral.RxDMA.Configure(dmaCfg)

	// Transmit completion path.
	if peripheral.TxDMAIRQ != nil {
		peripheral.TxDMAIRQ.Enable(d.ServiceTransmitDMAIRQ)
	}
	queryAndClear(peripheral.TxDMA)
	peripheral.TxDMA.SetInterrupts(true)

	if peripheral.ControllerIRQ != nil {
		peripheral.ControllerIRQ.Enable(d.ServiceControllerIRQ)
	}
	peripheral.Controller.SetDMARequest(DirTransmit, false)

	peripheral.Controller.Enable()
	peripheral.Controller.EnableTransmitter()
	peripheral.Controller.EnableReceiver()

	if rxBuffer != nil {
		d.rxBuffer = rxBuffer
		// Fire-and-forget: arm the circular background capture over the
		// ring's backing store. Progress arrives via per-byte interrupts.
		d.receiveDirect(rxBuffer.Bytes(), 0)
	} else {
		if peripheral.RxDMAIRQ != nil {
			peripheral.RxDMAIRQ.Enable(d.ServiceReceiveDMAIRQ)
		}
		queryAndClear(peripheral.RxDMA)
		peripheral.RxDMA.SetInterrupts(true)
	}

	d.initialized = true
	return nil
}

// Deinit stops the controller, de-programs both DMA channels and their
// interrupt lines, and tears down the synchronization primitives. Not safe to
// call while a Transmit or Receive is in flight.
func (d *Driver) Deinit() error {
	if d == nil {
		return ErrInvalidParam
	}

	pw := d.peripheral.power()
	pw.Disable()
	defer pw.Enable()

	if !d.initialized {
		return ErrNotInitialized
	}
	p := d.peripheral

	p.Controller.Disable()

	p.TxDMA.Disable()
	p.RxDMA.Disable()
	p.TxDMA.SetInterrupts(false)
	p.RxDMA.SetInterrupts(false)
	if p.TxDMAIRQ != nil {
		p.TxDMAIRQ.Disable()
	}

	p.Controller.SetRxInterrupt(false)
	if p.ControllerIRQ != nil {
		p.ControllerIRQ.Disable()
	}
	if p.RxDMAIRQ != nil {
		p.RxDMAIRQ.Disable()
	}

	if p.Clock != nil {
		p.Clock.Disable()
	}

	d.stopWakeHelper()

	d.txComplete = nil
	d.rxComplete = nil
	d.mu.Lock()
	d.rxSize = 0
	d.txSize = 0
	d.lastTransmitResult = nil
	d.lastReceiveResult = nil
	d.mu.Unlock()
	d.rxBuffer = nil
	d.initialized = false
	return nil
}

// Transmit sends data and blocks until the transfer completed or errored.
// Concurrent callers serialize on the transmit mutex, so at most one transfer
// is in flight per port.
//
// The completion wait is unbounded: the transmit-DMA interrupt signals the
// waiter on success and on error alike, which is what keeps this from
// wedging. A DMA channel that stops responding entirely would hang the
// caller.
func (d *Driver) Transmit(data []byte) error {
	if d == nil {
		return ErrInvalidParam
	}

	pw := d.peripheral.power()
	pw.Disable()
	defer pw.Enable()

	d.txMutex.Lock()
	defer d.txMutex.Unlock()

	if !d.initialized {
		return ErrNotInitialized
	}
	if len(data) == 0 {
		return ErrInvalidParam
	}
	p := d.peripheral

	// Clear stale status before enabling the channel, otherwise a leftover
	// error flag fires immediately. A leftover completion signal from a
	// transfer nobody waited on is drained for the same reason.
	queryAndClear(p.TxDMA)
	d.txComplete.drain()

	// Arm the wait before the hardware event source is enabled. The result
	// starts out as a failure and only the completion interrupt upgrades it.
	d.mu.Lock()
	d.lastTransmitResult = ErrHardware
	d.txSize = len(data)
	d.mu.Unlock()

	p.TxDMA.SetTransfer(data, false)
	p.Controller.SetDMARequest(DirTransmit, true)
	p.Controller.ClearTransmitComplete()
	p.TxDMA.Enable()

	d.txComplete.acquire(WaitForever)

	// The DMA completion only says the buffer was moved into the
	// controller; spin until the final byte has left the shift register.
	// This is a polling busy-wait, not a blocking sleep.
	for !p.Controller.TransmitComplete() {
		runtime.Gosched()
	}

	p.Controller.SetDMARequest(DirTransmit, false)

	d.mu.Lock()
	d.txSize = 0
	err := d.lastTransmitResult
	d.mu.Unlock()
	return err
}

// Receive fills buf and blocks until enough bytes arrived or timeout
// expired. Pass WaitForever for an unbounded wait.
//
// In buffered mode the request is served out of the ring in chunks of at
// most half its capacity, bounding how much unread data the background
// capture can overwrite between wakeups. In direct mode a one-shot DMA
// transfer lands straight in buf; a zero timeout arms the transfer and
// returns immediately.
func (d *Driver) Receive(buf []byte, timeout time.Duration) error {
	if d == nil || len(buf) == 0 {
		return ErrInvalidParam
	}
	if !d.initialized {
		return ErrNotInitialized
	}

	if d.rxBuffer == nil {
		return d.receiveDirect(buf, timeout)
	}

	var result error
	remaining := buf
	for len(remaining) > 0 {
		chunk := d.rxBuffer.Capacity() / 2
		if chunk > len(remaining) {
			chunk = len(remaining)
		}

		if chunk > d.rxBuffer.Used() {
			// Register the watermark and wait for the progress interrupt
			// to satisfy it.
			d.mu.Lock()
			d.lastReceiveResult = nil
			d.rxSize = chunk
			d.mu.Unlock()

			err := d.rxComplete.acquire(timeout)

			// Reset the watermark so a late interrupt cannot mistake an
			// abandoned wait for a live one.
			d.mu.Lock()
			d.rxSize = 0
			d.mu.Unlock()

			if err != nil {
				return err
			}
		}

		d.mu.Lock()
		result = d.lastReceiveResult
		d.mu.Unlock()

		// Copy the chunk out of the ring; a run that wraps past the
		// physical end arrives as two spans.
		n := chunk
		for n > 0 {
			span := d.rxBuffer.Peek()
			if len(span) == 0 {
				break
			}
			if len(span) > n {
				span = span[:n]
			}
			copied := copy(remaining, span)
			d.rxBuffer.Consume(copied)
			remaining = remaining[copied:]
			n -= copied
		}
	}
	return result
}

// BytesAvailable returns the number of unread bytes in the receive ring. It
// never exceeds the ring's capacity and only decreases through Receive
// consuming data. Direct-mode drivers always report zero.
func (d *Driver) BytesAvailable() int {
	if d == nil || d.rxBuffer == nil {
		return 0
	}
	return d.rxBuffer.Used()
}
