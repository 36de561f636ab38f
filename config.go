package uartdma

// Parity represents the parity mode
type Parity int

const (
	ParityNone Parity = iota
	ParityEven
	ParityOdd
)

// FlowControl represents the hardware flow control mode
type FlowControl int

const (
	FlowControlNone FlowControl = iota
	FlowControlCTS
	FlowControlRTS
	FlowControlCTSRTS
)

// Config holds the line and driver configuration applied at Init time
type Config struct {
	BaudRate      int
	DataBits      int // 8 or 9 bits per frame
	StopBits      int // 1 or 2
	Parity        Parity
	FlowControl   FlowControl
	WakeOnReceive bool // spawn the low-power wake helper
}

// Option is a functional option for configuring the driver
type Option func(*Config) error

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() Config {
	return Config{
		BaudRate:    115200,
		DataBits:    8,
		StopBits:    1,
		Parity:      ParityNone,
		FlowControl: FlowControlNone,
	}
}

// WithBaudRate sets the hardware bit rate
func WithBaudRate(rate int) Option {
	return func(c *Config) error {
		if rate <= 0 {
			return ErrInvalidBaudRate
		}
		c.BaudRate = rate
		return nil
	}
}

// WithDataBits sets the number of data bits per frame (8 or 9)
func WithDataBits(bits int) Option {
	return func(c *Config) error {
		if bits != 8 && bits != 9 {
			return ErrInvalidConfig
		}
		c.DataBits = bits
		return nil
	}
}

// WithStopBits sets the number of stop bits (1 or 2)
func WithStopBits(bits int) Option {
	return func(c *Config) error {
		if bits != 1 && bits != 2 {
			return ErrInvalidConfig
		}
		c.StopBits = bits
		return nil
	}
}

// WithParity sets the parity mode
func WithParity(parity Parity) Option {
	return func(c *Config) error {
		switch parity {
		case ParityNone, ParityEven, ParityOdd:
			c.Parity = parity
			return nil
		}
		return ErrInvalidConfig
	}
}

// WithFlowControl sets the hardware flow control mode
func WithFlowControl(fc FlowControl) Option {
	return func(c *Config) error {
		switch fc {
		case FlowControlNone, FlowControlCTS, FlowControlRTS, FlowControlCTSRTS:
			c.FlowControl = fc
			return nil
		}
		return ErrInvalidConfig
	}
}

// WithWakeOnReceive enables the auxiliary low-power wake helper, driven by a
// falling edge on the receive pin while the port is otherwise idle.
func WithWakeOnReceive() Option {
	return func(c *Config) error {
		c.WakeOnReceive = true
		return nil
	}
}

// wordLength returns the frame word length the controller must be programmed
// with. Parity consumes one data bit in hardware, so an 8-bit request with
// parity enabled needs a 9-bit frame.
func (c Config) wordLength() WordLength {
	if c.DataBits == 9 || (c.DataBits == 8 && c.Parity != ParityNone) {
		return WordLength9
	}
	return WordLength8
}

// transferWidth returns the DMA transfer width matching the word length.
func (c Config) transferWidth() TransferWidth {
	if c.DataBits == 9 {
		return TransferHalfWord
	}
	return TransferByte
}
