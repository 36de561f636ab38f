// Package uartdma provides an asynchronous, interrupt-driven serial-port
// driver with blocking, timeout-bounded transmit and receive operations. The
// byte transfer itself is carried out by a DMA engine; completion is signaled
// from interrupt context and handed to waiting goroutines through counting
// semaphores.
//
// The driver sits directly above raw hardware described by a Peripheral: a
// serial controller, one DMA channel per direction, and three interrupt
// lines. Hardware is injected as a capability object, so the same core runs
// against the simulated port used by the tests, a termios-backed host tty
// (see the hostport package), or a real register-level implementation.
//
// # Basic Usage
//
// Initialize a driver in buffered mode with a 1 KiB receive ring:
//
//	var d uartdma.Driver
//	rb := ring.New(1024)
//	err := d.Init(peripheral, rb,
//	    uartdma.WithBaudRate(115200),
//	    uartdma.WithParity(uartdma.ParityNone),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer d.Deinit()
//
//	// Blocking I/O
//	err = d.Transmit([]byte("Hello"))
//	buf := make([]byte, 256)
//	err = d.Receive(buf, 500*time.Millisecond)
//
// # Receive Modes
//
// With a ring buffer the driver keeps a circular DMA capture running in the
// background; Receive copies out of the ring and only sleeps when the ring
// does not yet hold enough bytes. Without one, each Receive arms a one-shot
// DMA transfer straight into the caller's buffer.
//
// # Interrupt Wiring
//
// Platforms invoke the three service entry points from their vector table
// equivalents: ServiceControllerIRQ (per-byte progress), ServiceTransmitDMAIRQ
// and ServiceReceiveDMAIRQ (channel completion/error). The driver installs
// them through the Peripheral's IRQLine fields during Init.
//
// # Error Handling
//
// Results follow a small taxonomy checked with errors.Is:
//
//	var (
//	    ErrInvalidParam // bad argument, no hardware side effect
//	    ErrTimeout      // wait bound exceeded; state consistent for retry
//	    ErrHardware     // DMA reported a transfer error
//	)
//
// Transmit errors are never swallowed: the transmit-DMA interrupt records the
// failure and still wakes the waiting goroutine.
//
// # Low-Power Gating
//
// Operations that touch the peripheral bracket themselves with the
// Peripheral's PowerGate. The optional wake-on-receive helper
// (WithWakeOnReceive) releases the gate after an idle second and re-acquires
// it from a falling edge on the receive pin.
package uartdma
