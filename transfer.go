package uartdma

import "time"

// queryAndClear reads the completion/error flags visible for a channel and
// clears exactly the bits observed. Blind-clearing would mask an event that
// raised between the read and the write-back.
func queryAndClear(ch DMAChannel) DMAStatus {
	st := ch.Status()
	if st.Any() {
		ch.ClearStatus(st)
	}
	return st
}

// receiveDirect arms a DMA transfer into buf and optionally waits for it.
//
// With a ring buffer attached this is the circular background capture: the
// channel auto-reloads forever and per-byte controller interrupts report
// progress; Init calls it once with a zero timeout and it is never re-armed
// per logical request. Without a ring it is the one-shot direct read: the
// completion arrives through the receive-DMA interrupt.
func (d *Driver) receiveDirect(buf []byte, timeout time.Duration) error {
	p := d.peripheral
	circular := d.rxBuffer != nil

	if circular {
		// Per-byte interrupts drive the ring's write cursor.
		p.Controller.ClearStatus()
		p.Controller.SetRxInterrupt(true)
	} else {
		// Arm the wait before the event source goes live.
		d.mu.Lock()
		d.lastReceiveResult = nil
		d.rxSize = len(buf)
		d.mu.Unlock()
		d.rxComplete.drain()
	}

	queryAndClear(p.RxDMA)

	p.RxDMA.SetTransfer(buf, circular)
	p.RxDMA.Enable()
	p.Controller.SetDMARequest(DirReceive, true)

	if timeout == 0 {
		// Fire and forget; used while arming the background capture.
		return nil
	}

	err := d.rxComplete.acquire(timeout)

	d.mu.Lock()
	d.rxSize = 0
	result := d.lastReceiveResult
	d.mu.Unlock()

	if err != nil {
		return err
	}
	return result
}
