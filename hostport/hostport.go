// Package hostport implements the driver's hardware capability surface on top
// of a host tty. The controller maps onto termios, and the two DMA channels
// are emulated by goroutines moving bytes between the armed buffers and the
// file descriptor. It exists so the same driver core that runs against
// register-level hardware can drive /dev/ttyUSB0 on a workstation.
package hostport

import (
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sys/unix"

	uartdma "github.com/allbin/go-uartdma"
)

var (
	// ErrPortClosed is returned for operations on a closed port.
	ErrPortClosed = errors.New("port is closed")

	// ErrDeviceNotFound is returned when the device path does not name a
	// character device.
	ErrDeviceNotFound = errors.New("device not found")
)

// Port is one open host tty exposing the capability surface consumed by
// uartdma.Driver. Obtain one with Open and hand Peripheral() to Driver.Init.
type Port struct {
	mu     sync.Mutex
	fd     int
	device string
	closed bool

	line    uartdma.LineConfig
	enabled bool
	txOn    bool
	rxOn    bool
	rxIRQOn bool
	txReq   bool
	rxReq   bool
	tcFlag  bool

	ctrlHandler func()
	txHandler   func()
	rxHandler   func()

	tx engine
	rx engine

	pinTx, pinRx, pinCTS, pinRTS hostPin
}

// engine is one emulated DMA channel.
type engine struct {
	cfg       uartdma.DMAConfig
	buf       []byte
	circular  bool
	pos       int
	remaining int
	enabled   bool
	irqSrcOn  bool
	busy      bool
	status    uartdma.DMAStatus
}

// Open opens a host tty in raw mode. Line parameters are programmed later,
// when Driver.Init calls Configure on the controller.
func Open(device string) (*Port, error) {
	if !isCharacterDevice(device) {
		return nil, ErrDeviceNotFound
	}

	fd, err := unix.Open(device, unix.O_RDWR|unix.O_NOCTTY, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %v", device, err)
	}

	p := &Port{fd: fd, device: device}
	if err := p.rawMode(); err != nil {
		unix.Close(fd)
		return nil, err
	}
	return p, nil
}

// Close tears down the port. Deinit the driver first.
func (p *Port) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrPortClosed
	}
	p.closed = true
	return unix.Close(p.fd)
}

// Device returns the path the port was opened with.
func (p *Port) Device() string { return p.device }

// Peripheral assembles the capability object for Driver.Init. The pins, clock
// and power gate are inert; a host tty has none of those.
func (p *Port) Peripheral() *uartdma.Peripheral {
	return &uartdma.Peripheral{
		Controller:    hostController{p},
		TxDMA:         hostChannel{p, uartdma.DirTransmit},
		RxDMA:         hostChannel{p, uartdma.DirReceive},
		ControllerIRQ: hostIRQ{p, irqController},
		TxDMAIRQ:      hostIRQ{p, irqTxDMA},
		RxDMAIRQ:      hostIRQ{p, irqRxDMA},
		PinTx:         &p.pinTx,
		PinRx:         &p.pinRx,
		PinCTS:        &p.pinCTS,
		PinRTS:        &p.pinRTS,
	}
}

// rawMode puts the tty into raw 8N1 mode with a short read granularity so the
// receive engine can poll for disarm without busy-spinning.
func (p *Port) rawMode() error {
	termios, err := unix.IoctlGetTermios(p.fd, unix.TCGETS)
	if err != nil {
		return fmt.Errorf("failed to get termios: %v", err)
	}

	termios.Cflag = unix.CS8 | unix.CREAD | unix.CLOCAL
	termios.Iflag = 0
	termios.Oflag = 0
	termios.Lflag = 0

	// VMIN=0, VTIME=1: reads return within a decisecond even when the line
	// is quiet.
	termios.Cc[unix.VMIN] = 0
	termios.Cc[unix.VTIME] = 1

	if err := unix.IoctlSetTermios(p.fd, unix.TCSETS, termios); err != nil {
		return fmt.Errorf("failed to set termios: %v", err)
	}
	return nil
}

// applyLine programs the line parameters handed down from Driver.Init.
func (p *Port) applyLine(lc uartdma.LineConfig) error {
	// A 9-bit frame has no termios encoding.
	if lc.WordLength == uartdma.WordLength9 {
		return uartdma.ErrInvalidConfig
	}

	baud, err := baudConstant(lc.BaudRate)
	if err != nil {
		return err
	}

	termios, err := unix.IoctlGetTermios(p.fd, unix.TCGETS)
	if err != nil {
		return fmt.Errorf("failed to get termios: %v", err)
	}

	termios.Cflag = (termios.Cflag &^ unix.CBAUD) | baud
	termios.Ispeed = baud
	termios.Ospeed = baud

	if lc.StopBits == 2 {
		termios.Cflag |= unix.CSTOPB
	} else {
		termios.Cflag &^= unix.CSTOPB
	}

	termios.Cflag &^= unix.PARENB | unix.PARODD
	switch lc.Parity {
	case uartdma.ParityEven:
		termios.Cflag |= unix.PARENB
	case uartdma.ParityOdd:
		termios.Cflag |= unix.PARENB | unix.PARODD
	}

	if lc.FlowControl == uartdma.FlowControlCTSRTS {
		termios.Cflag |= unix.CRTSCTS
	} else {
		termios.Cflag &^= unix.CRTSCTS
	}

	if err := unix.IoctlSetTermios(p.fd, unix.TCSETS, termios); err != nil {
		return fmt.Errorf("failed to set termios: %v", err)
	}

	// With RTS/CTS flow control, assert RTS to signal readiness.
	if lc.FlowControl == uartdma.FlowControlCTSRTS || lc.FlowControl == uartdma.FlowControlRTS {
		unix.IoctlSetInt(p.fd, unix.TIOCMBIS, unix.TIOCM_RTS)
	}

	p.mu.Lock()
	p.line = lc
	p.mu.Unlock()
	return nil
}

// FlushInput discards any unread input data.
func (p *Port) FlushInput() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrPortClosed
	}
	return unix.IoctlSetInt(p.fd, unix.TCFLSH, unix.TCIFLUSH)
}

// FlushOutput discards any unwritten output data.
func (p *Port) FlushOutput() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrPortClosed
	}
	return unix.IoctlSetInt(p.fd, unix.TCFLSH, unix.TCOFLUSH)
}

// ModemSignals reports the current modem control signal states.
type ModemSignals struct {
	CTS bool // Clear To Send
	DSR bool // Data Set Ready
	RI  bool // Ring Indicator
	DCD bool // Data Carrier Detect
	RTS bool // Request To Send
	DTR bool // Data Terminal Ready
}

// Signals returns the current state of all modem control signals.
func (p *Port) Signals() (ModemSignals, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ModemSignals{}, ErrPortClosed
	}

	status, err := unix.IoctlGetInt(p.fd, unix.TIOCMGET)
	if err != nil {
		return ModemSignals{}, err
	}
	return ModemSignals{
		CTS: status&unix.TIOCM_CTS != 0,
		DSR: status&unix.TIOCM_DSR != 0,
		RI:  status&unix.TIOCM_RI != 0,
		DCD: status&unix.TIOCM_CAR != 0,
		RTS: status&unix.TIOCM_RTS != 0,
		DTR: status&unix.TIOCM_DTR != 0,
	}, nil
}

// SetRTS manually sets the RTS signal state.
func (p *Port) SetRTS(state bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrPortClosed
	}
	if state {
		return unix.IoctlSetInt(p.fd, unix.TIOCMBIS, unix.TIOCM_RTS)
	}
	return unix.IoctlSetInt(p.fd, unix.TIOCMBIC, unix.TIOCM_RTS)
}

// SetDTR sets the DTR signal state.
func (p *Port) SetDTR(state bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrPortClosed
	}
	if state {
		return unix.IoctlSetInt(p.fd, unix.TIOCMBIS, unix.TIOCM_DTR)
	}
	return unix.IoctlSetInt(p.fd, unix.TIOCMBIC, unix.TIOCM_DTR)
}

// baudConstant converts an integer baud rate to the termios constant.
func baudConstant(rate int) (uint32, error) {
	switch rate {
	case 50:
		return unix.B50, nil
	case 75:
		return unix.B75, nil
	case 110:
		return unix.B110, nil
	case 134:
		return unix.B134, nil
	case 150:
		return unix.B150, nil
	case 200:
		return unix.B200, nil
	case 300:
		return unix.B300, nil
	case 600:
		return unix.B600, nil
	case 1200:
		return unix.B1200, nil
	case 1800:
		return unix.B1800, nil
	case 2400:
		return unix.B2400, nil
	case 4800:
		return unix.B4800, nil
	case 9600:
		return unix.B9600, nil
	case 19200:
		return unix.B19200, nil
	case 38400:
		return unix.B38400, nil
	case 57600:
		return unix.B57600, nil
	case 115200:
		return unix.B115200, nil
	case 230400:
		return unix.B230400, nil
	case 460800:
		return unix.B460800, nil
	case 500000:
		return unix.B500000, nil
	case 576000:
		return unix.B576000, nil
	case 921600:
		return unix.B921600, nil
	case 1000000:
		return unix.B1000000, nil
	case 1152000:
		return unix.B1152000, nil
	case 1500000:
		return unix.B1500000, nil
	case 2000000:
		return unix.B2000000, nil
	case 2500000:
		return unix.B2500000, nil
	case 3000000:
		return unix.B3000000, nil
	case 3500000:
		return unix.B3500000, nil
	case 4000000:
		return unix.B4000000, nil
	default:
		return 0, uartdma.ErrInvalidBaudRate
	}
}
