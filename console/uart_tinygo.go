//go:build tinygo

package console

import (
	"machine"
	"time"
)

// UARTPort adapts a machine.UART to the console Port contract, adding the
// bounded-time semantics the transfer paths rely on.
type UARTPort struct {
	UART    *machine.UART
	Timeout time.Duration
}

// Write transmits the buffer. machine.UART writes are buffered and drained by
// the peripheral, so this does not block beyond the FIFO.
func (p *UARTPort) Write(b []byte) (int, error) {
	return p.UART.Write(b)
}

// ReadFull blocks until b is filled or the timeout lapses.
func (p *UARTPort) ReadFull(b []byte) error {
	deadline := time.Now().Add(p.Timeout)
	got := 0
	for got < len(b) {
		if p.UART.Buffered() > 0 {
			v, err := p.UART.ReadByte()
			if err != nil {
				return err
			}
			b[got] = v
			got++
			continue
		}
		if time.Now().After(deadline) {
			return ErrTimeout
		}
		time.Sleep(100 * time.Microsecond)
	}
	return nil
}

// TryReadByte returns a buffered byte without blocking.
func (p *UARTPort) TryReadByte() (byte, bool) {
	if p.UART.Buffered() == 0 {
		return 0, false
	}
	v, err := p.UART.ReadByte()
	if err != nil {
		return 0, false
	}
	return v, true
}
