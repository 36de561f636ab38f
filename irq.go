package uartdma

// Interrupt service entry points. The platform wires these to the hardware
// vectors (see Peripheral's IRQLine fields); they run in interrupt context,
// never block, and may interleave arbitrarily with the blocking API and with
// each other.

// ServiceControllerIRQ handles the serial controller's per-byte progress
// interrupt. Buffered mode only: it republishes the ring's write cursor from
// the DMA remaining-transfer count and wakes a waiter whose watermark is met.
func (d *Driver) ServiceControllerIRQ() {
	p := d.peripheral

	// Clear everything pending. Safe because only the receive progress
	// interrupt class is enabled in this mode.
	p.Controller.ClearStatus()

	rb := d.rxBuffer
	if rb == nil {
		return
	}

	// The DMA is the byte mover; software only tracks where it has gotten
	// to.
	rb.SetWriteIndex(rb.Capacity() - p.RxDMA.Remaining())

	d.mu.Lock()
	if d.rxSize > 0 && rb.Used() >= d.rxSize {
		d.rxComplete.signal()
		// Clear the watermark with the signal so the waiter is woken at
		// most once per registration.
		d.rxSize = 0
	}
	d.mu.Unlock()

	d.wakeup.signal()
}

// ServiceTransmitDMAIRQ handles transmit-channel completion and error
// interrupts.
func (d *Driver) ServiceTransmitDMAIRQ() {
	st := queryAndClear(d.peripheral.TxDMA)

	d.mu.Lock()
	if st.Completed {
		d.lastTransmitResult = nil
	}
	if st.Errored {
		d.lastTransmitResult = ErrHardware
	}
	pending := d.txSize > 0
	d.mu.Unlock()

	if pending {
		// Signal regardless of result so the waiting thread never blocks
		// forever on a failed transfer.
		d.txComplete.signal()
	}
}

// ServiceReceiveDMAIRQ handles receive-channel completion and error
// interrupts. Direct mode only; the buffered path completes through
// ServiceControllerIRQ instead.
func (d *Driver) ServiceReceiveDMAIRQ() {
	st := queryAndClear(d.peripheral.RxDMA)

	d.mu.Lock()
	if st.Completed {
		d.lastReceiveResult = nil
	}
	if st.Errored {
		d.lastReceiveResult = ErrHardware
	}
	pending := d.rxSize > 0
	d.mu.Unlock()

	if pending {
		d.rxComplete.signal()
	}
}
