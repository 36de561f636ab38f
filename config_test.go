package uartdma

import (
	"errors"
	"testing"
)

func TestWithBaudRate(t *testing.T) {
	tests := []struct {
		name    string
		rate    int
		wantErr bool
	}{
		{"9600 (valid)", 9600, false},
		{"115200 (valid)", 115200, false},
		{"921600 (valid)", 921600, false},
		{"0 (invalid)", 0, true},
		{"-9600 (negative)", -9600, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := DefaultConfig()
			err := WithBaudRate(tt.rate)(&config)
			if (err != nil) != tt.wantErr {
				t.Errorf("WithBaudRate(%d) error = %v, wantErr %v", tt.rate, err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidBaudRate) {
				t.Errorf("WithBaudRate(%d) error = %v, want ErrInvalidBaudRate", tt.rate, err)
			}
			if err == nil && config.BaudRate != tt.rate {
				t.Errorf("BaudRate = %d, want %d", config.BaudRate, tt.rate)
			}
		})
	}
}

func TestWithDataBits(t *testing.T) {
	tests := []struct {
		name    string
		bits    int
		wantErr bool
	}{
		{"8 bits", 8, false},
		{"9 bits", 9, false},
		{"7 bits (unsupported)", 7, true},
		{"0 bits", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := DefaultConfig()
			err := WithDataBits(tt.bits)(&config)
			if (err != nil) != tt.wantErr {
				t.Errorf("WithDataBits(%d) error = %v, wantErr %v", tt.bits, err, tt.wantErr)
			}
			if err == nil && config.DataBits != tt.bits {
				t.Errorf("DataBits = %d, want %d", config.DataBits, tt.bits)
			}
		})
	}
}

func TestWithStopBits(t *testing.T) {
	tests := []struct {
		name    string
		bits    int
		wantErr bool
	}{
		{"1 stop bit", 1, false},
		{"2 stop bits", 2, false},
		{"0 stop bits", 0, true},
		{"3 stop bits", 3, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := DefaultConfig()
			err := WithStopBits(tt.bits)(&config)
			if (err != nil) != tt.wantErr {
				t.Errorf("WithStopBits(%d) error = %v, wantErr %v", tt.bits, err, tt.wantErr)
			}
			if err == nil && config.StopBits != tt.bits {
				t.Errorf("StopBits = %d, want %d", config.StopBits, tt.bits)
			}
		})
	}
}

func TestWithParity(t *testing.T) {
	tests := []struct {
		name    string
		parity  Parity
		wantErr bool
	}{
		{"none", ParityNone, false},
		{"even", ParityEven, false},
		{"odd", ParityOdd, false},
		{"out of range", Parity(42), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := DefaultConfig()
			err := WithParity(tt.parity)(&config)
			if (err != nil) != tt.wantErr {
				t.Errorf("WithParity(%v) error = %v, wantErr %v", tt.parity, err, tt.wantErr)
			}
			if err == nil && config.Parity != tt.parity {
				t.Errorf("Parity = %v, want %v", config.Parity, tt.parity)
			}
		})
	}
}

func TestWithFlowControl(t *testing.T) {
	tests := []struct {
		name    string
		fc      FlowControl
		wantErr bool
	}{
		{"none", FlowControlNone, false},
		{"cts", FlowControlCTS, false},
		{"rts", FlowControlRTS, false},
		{"cts+rts", FlowControlCTSRTS, false},
		{"out of range", FlowControl(-1), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := DefaultConfig()
			err := WithFlowControl(tt.fc)(&config)
			if (err != nil) != tt.wantErr {
				t.Errorf("WithFlowControl(%v) error = %v, wantErr %v", tt.fc, err, tt.wantErr)
			}
			if err == nil && config.FlowControl != tt.fc {
				t.Errorf("FlowControl = %v, want %v", config.FlowControl, tt.fc)
			}
		})
	}
}

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()
	if config.BaudRate != 115200 {
		t.Errorf("BaudRate = %d, want 115200", config.BaudRate)
	}
	if config.DataBits != 8 {
		t.Errorf("DataBits = %d, want 8", config.DataBits)
	}
	if config.StopBits != 1 {
		t.Errorf("StopBits = %d, want 1", config.StopBits)
	}
	if config.Parity != ParityNone {
		t.Errorf("Parity = %v, want ParityNone", config.Parity)
	}
	if config.FlowControl != FlowControlNone {
		t.Errorf("FlowControl = %v, want FlowControlNone", config.FlowControl)
	}
	if config.WakeOnReceive {
		t.Error("WakeOnReceive = true, want false")
	}
}

func TestWordLength(t *testing.T) {
	tests := []struct {
		name   string
		bits   int
		parity Parity
		want   WordLength
	}{
		{"8N", 8, ParityNone, WordLength8},
		{"8E (parity bit widens frame)", 8, ParityEven, WordLength9},
		{"8O (parity bit widens frame)", 8, ParityOdd, WordLength9},
		{"9N", 9, ParityNone, WordLength9},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Config{DataBits: tt.bits, Parity: tt.parity}
			if got := c.wordLength(); got != tt.want {
				t.Errorf("wordLength() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTransferWidth(t *testing.T) {
	c := Config{DataBits: 8}
	if got := c.transferWidth(); got != TransferByte {
		t.Errorf("transferWidth() = %v, want TransferByte", got)
	}
	c.DataBits = 9
	if got := c.transferWidth(); got != TransferHalfWord {
		t.Errorf("transferWidth() = %v, want TransferHalfWord", got)
	}
}
