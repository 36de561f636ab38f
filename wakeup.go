package uartdma

import "time"

// wakeIdleTimeout is how long the helper waits for receive activity before it
// lets the port drop into low-power mode.
const wakeIdleTimeout = time.Second

// wakeHelper is the optional wake-on-receive task. While the port sees
// receive activity it holds the power gate; after an idle period it arms a
// falling-edge interrupt on the receive pin, releases the gate, and waits for
// the pin to pull everything back up. It communicates with the driver only
// through the activity semaphore.
type wakeHelper struct {
	driver *Driver
	stop   chan struct{}
	done   chan struct{}
}

func (d *Driver) startWakeHelper() {
	if d.helper != nil {
		return
	}
	d.wakeup = newSemaphore()
	h := &wakeHelper{
		driver: d,
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
	d.helper = h
	go h.run()
}

func (d *Driver) stopWakeHelper() {
	if d.helper == nil {
		return
	}
	close(d.helper.stop)
	<-d.helper.done
	d.helper = nil
}

func (h *wakeHelper) run() {
	defer close(h.done)
	p := h.driver.peripheral
	sleeping := false
	for {
		idle, stopped := h.waitActivity(wakeIdleTimeout)
		if stopped {
			return
		}
		if idle {
			if sleeping {
				continue
			}
			// Nothing received for a while: hand wakeup duty to the pin
			// edge and let the process power down.
			if p.PinRx != nil {
				p.PinRx.EnableFallingEdgeIRQ(h.pinWake)
			}
			p.power().Enable()
			sleeping = true
			continue
		}
		sleeping = false
	}
}

// waitActivity blocks on the activity semaphore up to d.
func (h *wakeHelper) waitActivity(d time.Duration) (idle, stopped bool) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-h.driver.wakeup.ch:
		return false, false
	case <-timer.C:
		return true, false
	case <-h.stop:
		return false, true
	}
}

// pinWake runs in interrupt context on the receive pin's falling edge. It
// restores clocks, re-acquires the power gate and signals the helper so the
// port is receiving again before the first DMA request arrives.
func (h *wakeHelper) pinWake() {
	p := h.driver.peripheral
	if p.Clock != nil {
		p.Clock.Enable()
	}
	if p.PinRx != nil {
		p.PinRx.DisableIRQ()
	}
	p.power().Disable()
	h.driver.wakeup.signal()
}
