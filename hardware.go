package uartdma

// Direction identifies one of the two DMA-backed transfer directions.
type Direction int

const (
	DirTransmit Direction = iota
	DirReceive
)

// WordLength is the frame word length programmed into the controller.
type WordLength int

const (
	WordLength8 WordLength = iota
	WordLength9
)

// TransferWidth is the DMA memory/peripheral access width.
type TransferWidth int

const (
	TransferByte TransferWidth = iota
	TransferHalfWord
)

// DMAPriority selects the channel arbitration priority.
type DMAPriority int

const (
	PriorityLow DMAPriority = iota
	PriorityMedium
	PriorityHigh
	PriorityVeryHigh
)

// LineConfig is the register-level line setup handed to the controller.
type LineConfig struct {
	BaudRate    int
	WordLength  WordLength
	StopBits    int
	Parity      Parity
	FlowControl FlowControl
}

// DMAConfig carries the direction-independent channel parameters programmed
// once at Init.
type DMAConfig struct {
	Width               TransferWidth
	MemoryIncrement     bool
	PeripheralIncrement bool
	Priority            DMAPriority
}

// DMAStatus reports the completion/error flags visible for a channel. Flags
// are cleared selectively: only bits actually observed are ever written back,
// so a pending event is not lost and a future one is not masked.
type DMAStatus struct {
	Completed bool
	Errored   bool
}

// Any reports whether any status flag is raised.
func (s DMAStatus) Any() bool { return s.Completed || s.Errored }

// Controller is the serial-controller register surface the driver consumes.
// Register-level implementations live outside the driver core; see
// internal/simhw for the simulated one and hostport for the termios-backed
// one.
type Controller interface {
	// Configure programs baud rate, word length, stop bits, parity and
	// hardware flow control. Called once by Init.
	Configure(LineConfig) error

	Enable()
	Disable()
	EnableTransmitter()
	EnableReceiver()

	// SetRxInterrupt enables or disables the per-byte "receive not empty"
	// progress interrupt used in buffered mode.
	SetRxInterrupt(enable bool)
	// ClearStatus clears all pending controller status flags. Safe in
	// buffered mode because only the receive progress interrupt is enabled.
	ClearStatus()

	// SetDMARequest raises or lowers the peripheral's DMA request line for
	// one direction.
	SetDMARequest(dir Direction, enable bool)

	// ClearTransmitComplete clears the line-level "transmission complete"
	// flag before a transfer; TransmitComplete polls it afterwards. The DMA
	// completion only means the buffer was moved, not that the final byte
	// left the shift register.
	ClearTransmitComplete()
	TransmitComplete() bool
}

// DMAChannel is one direction's DMA stream.
type DMAChannel interface {
	// Configure programs the common channel parameters.
	Configure(DMAConfig)
	// SetTransfer sets base address and length for the next transfer and
	// selects one-shot or auto-reload (circular) mode. Precondition: the
	// channel is disabled.
	SetTransfer(buf []byte, circular bool)
	Enable()
	Disable()
	// Remaining returns the hardware remaining-transfer count. In circular
	// mode it reflects how far into the buffer the engine has written.
	Remaining() int
	// Status returns the currently raised completion/error flags without
	// clearing them; ClearStatus clears exactly the given flags.
	Status() DMAStatus
	ClearStatus(DMAStatus)
	// SetInterrupts enables or disables the channel's completion and error
	// interrupt sources.
	SetInterrupts(enable bool)
}

// IRQLine is one interrupt-controller line. Enable installs the handler that
// the platform invokes from interrupt context.
type IRQLine interface {
	Enable(handler func())
	Disable()
}

// Pin is a GPIO pin as far as the driver cares: alternate-function selection
// at Init and an optional falling-edge interrupt for the wake helper.
type Pin interface {
	ConfigureFunction()
	EnableFallingEdgeIRQ(handler func())
	DisableIRQ()
}

// Clock gates the peripheral clock.
type Clock interface {
	Enable()
	Disable()
}

// PowerGate is the process-wide low-power mode hook. Disable is called before
// any operation that touches the peripheral and Enable on every exit path;
// calls nest (one Enable per Disable).
type PowerGate interface {
	Disable()
	Enable()
}

// Peripheral is the per-port hardware description injected at Init. It
// replaces fixed-size port lookup tables with a capability object, so the
// driver carries no assumptions about how many ports exist.
type Peripheral struct {
	Controller Controller
	TxDMA      DMAChannel
	RxDMA      DMAChannel

	ControllerIRQ IRQLine
	TxDMAIRQ      IRQLine
	RxDMAIRQ      IRQLine

	PinTx  Pin
	PinRx  Pin
	PinCTS Pin // optional
	PinRTS Pin // optional

	Clock Clock     // optional
	Power PowerGate // optional
}

// power returns the peripheral's power gate, or a no-op one.
func (p *Peripheral) power() PowerGate {
	if p == nil || p.Power == nil {
		return nopPowerGate{}
	}
	return p.Power
}

type nopPowerGate struct{}

func (nopPowerGate) Disable() {}
func (nopPowerGate) Enable()  {}
