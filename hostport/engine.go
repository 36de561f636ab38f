package hostport

import (
	"golang.org/x/sys/unix"

	uartdma "github.com/allbin/go-uartdma"
)

// Capability adapters over Port, plus the goroutines that stand in for the
// DMA engines. The adapters keep the same contract as register-level
// implementations: arming is cheap and synchronous, completion arrives later
// through the installed handlers.

type hostController struct{ p *Port }

func (c hostController) Configure(lc uartdma.LineConfig) error {
	return c.p.applyLine(lc)
}

func (c hostController) Enable() {
	c.p.mu.Lock()
	c.p.enabled = true
	c.p.mu.Unlock()
}

func (c hostController) Disable() {
	c.p.mu.Lock()
	c.p.enabled = false
	c.p.mu.Unlock()
}

func (c hostController) EnableTransmitter() {
	c.p.mu.Lock()
	c.p.txOn = true
	c.p.mu.Unlock()
}

func (c hostController) EnableReceiver() {
	c.p.mu.Lock()
	c.p.rxOn = true
	c.p.mu.Unlock()
}

func (c hostController) SetRxInterrupt(enable bool) {
	c.p.mu.Lock()
	c.p.rxIRQOn = enable
	c.p.mu.Unlock()
}

func (c hostController) ClearStatus() {}

func (c hostController) SetDMARequest(dir uartdma.Direction, enable bool) {
	c.p.mu.Lock()
	if dir == uartdma.DirTransmit {
		c.p.txReq = enable
	} else {
		c.p.rxReq = enable
	}
	c.p.mu.Unlock()
	if enable {
		if dir == uartdma.DirTransmit {
			c.p.maybeStartTransmit()
		} else {
			c.p.maybeStartReceive()
		}
	}
}

func (c hostController) ClearTransmitComplete() {
	c.p.mu.Lock()
	c.p.tcFlag = false
	c.p.mu.Unlock()
}

func (c hostController) TransmitComplete() bool {
	c.p.mu.Lock()
	defer c.p.mu.Unlock()
	return c.p.tcFlag
}

type hostChannel struct {
	p   *Port
	dir uartdma.Direction
}

func (ch hostChannel) state() *engine {
	if ch.dir == uartdma.DirTransmit {
		return &ch.p.tx
	}
	return &ch.p.rx
}

func (ch hostChannel) Configure(cfg uartdma.DMAConfig) {
	ch.p.mu.Lock()
	ch.state().cfg = cfg
	ch.p.mu.Unlock()
}

func (ch hostChannel) SetTransfer(buf []byte, circular bool) {
	ch.p.mu.Lock()
	st := ch.state()
	st.buf = buf
	st.circular = circular
	st.pos = 0
	st.remaining = len(buf)
	ch.p.mu.Unlock()
}

func (ch hostChannel) Enable() {
	ch.p.mu.Lock()
	ch.state().enabled = true
	ch.p.mu.Unlock()
	if ch.dir == uartdma.DirTransmit {
		ch.p.maybeStartTransmit()
	} else {
		ch.p.maybeStartReceive()
	}
}

func (ch hostChannel) Disable() {
	ch.p.mu.Lock()
	ch.state().enabled = false
	ch.p.mu.Unlock()
}

func (ch hostChannel) Remaining() int {
	ch.p.mu.Lock()
	defer ch.p.mu.Unlock()
	return ch.state().remaining
}

func (ch hostChannel) Status() uartdma.DMAStatus {
	ch.p.mu.Lock()
	defer ch.p.mu.Unlock()
	return ch.state().status
}

func (ch hostChannel) ClearStatus(st uartdma.DMAStatus) {
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

func (ch hostChannel) SetInterrupts(enable bool) {
	ch.p.mu.Lock()
	ch.state().irqSrcOn = enable
	ch.p.mu.Unlock()
}

const (
	irqController = iota
	irqTxDMA
	irqRxDMA
)

type hostIRQ struct {
	p     *Port
	which int
}

func (l hostIRQ) Enable(handler func()) {
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

func (l hostIRQ) Disable() {
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

// hostPin satisfies the pin capability. A tty exposes no GPIO, so function
// selection and edge interrupts are accepted and ignored.
type hostPin struct{}

func (*hostPin) ConfigureFunction()          {}
func (*hostPin) EnableFallingEdgeIRQ(func()) {}
func (*hostPin) DisableIRQ()                 {}

// maybeStartTransmit starts the transmit engine once the channel is enabled
// and the request line is up. The write runs on its own goroutine and the
// completion handler fires from there.
func (p *Port) maybeStartTransmit() {
	p.mu.Lock()
	if p.tx.busy || p.closed || !p.tx.enabled || !p.txReq || !p.enabled || !p.txOn || p.tx.remaining == 0 {
		p.mu.Unlock()
		return
	}
	p.tx.busy = true
	data := append([]byte(nil), p.tx.buf[:p.tx.remaining]...)
	fd := p.fd
	p.mu.Unlock()

	go func() {
		err := writeFull(fd, data)
		if err == nil {
			// Wait for the kernel to push the last byte out the line, the
			// moral equivalent of polling the transmit-complete flag.
			unix.IoctlSetInt(fd, unix.TCSBRK, 1)
		}

		p.mu.Lock()
		p.tx.remaining = 0
		p.tx.enabled = false
		if err != nil {
			p.tx.status.Errored = true
		} else {
			p.tx.status.Completed = true
		}
		p.tcFlag = true
		var h func()
		if p.tx.irqSrcOn {
			h = p.txHandler
		}
		p.tx.busy = false
		p.mu.Unlock()

		if h != nil {
			h()
		}
	}()
}

// maybeStartReceive starts the receive engine. One goroutine serves the
// transfer until it completes (one-shot) or is disarmed (circular); reads use
// the tty's decisecond granularity so disarming is observed promptly.
func (p *Port) maybeStartReceive() {
	p.mu.Lock()
	if p.rx.busy || p.closed || !p.rx.enabled || !p.rxReq || !p.enabled || !p.rxOn {
		p.mu.Unlock()
		return
	}
	p.rx.busy = true
	fd := p.fd
	p.mu.Unlock()

	go func() {
		tmp := make([]byte, 512)
		for {
			p.mu.Lock()
			if p.closed || !p.rx.enabled || !p.rxReq || !p.enabled || !p.rxOn {
				p.rx.busy = false
				p.mu.Unlock()
				return
			}
			chunk := p.rx.remaining
			if chunk > len(tmp) {
				chunk = len(tmp)
			}
			p.mu.Unlock()

			n, err := unix.Read(fd, tmp[:chunk])
			if err == unix.EINTR {
				continue
			}

			p.mu.Lock()
			if p.closed {
				p.rx.busy = false
				p.mu.Unlock()
				return
			}
			if err != nil {
				p.rx.status.Errored = true
				p.rx.enabled = false
				p.rx.busy = false
				var h func()
				if p.rx.irqSrcOn {
					h = p.rxHandler
				}
				p.mu.Unlock()
				if h != nil {
					h()
				}
				return
			}
			if n == 0 {
				p.mu.Unlock()
				continue
			}

			st := &p.rx
			if st.enabled {
				for i := 0; i < n; i++ {
					if st.pos < len(st.buf) {
						st.buf[st.pos] = tmp[i]
					}
					st.pos++
					st.remaining--
					if st.circular && st.remaining == 0 {
						st.remaining = len(st.buf)
						st.pos = 0
					}
				}
			}

			var progress, complete func()
			if st.circular {
				if p.rxIRQOn {
					progress = p.ctrlHandler
				}
			} else if st.remaining == 0 {
				st.status.Completed = true
				st.enabled = false
				st.busy = false
				if st.irqSrcOn {
					complete = p.rxHandler
				}
			}
			p.mu.Unlock()

			if progress != nil {
				progress()
			}
			if complete != nil {
				complete()
				return
			}
		}
	}()
}

// writeFull writes all of data, retrying on short writes and EINTR.
func writeFull(fd int, data []byte) error {
	for len(data) > 0 {
		n, err := unix.Write(fd, data)
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return err
		}
		data = data[n:]
	}
	return nil
}
