// Package serial drives a 16550-compatible COM port in polled mode:
// enough to emit boot trace lines when preinit_serial is set and the
// panic path's COM0 crash report. Interrupt-driven transmit/receive
// buffering stays out of scope; nothing in this core needs more than
// "write these bytes out".
package serial

import "aasvogel/kernel/cpu"

// Standard PC COM port base addresses.
const (
	COM1 = 0x3F8
	COM2 = 0x2F8
	COM3 = 0x3E8
	COM4 = 0x2E8
)

const (
	baudBase       = 115200
	defaultBaud    = 9600
	lineControl8N1 = 0x03
)

// portOutb/portInb indirect through cpu.Outb/cpu.Inb so the port
// sequence can be exercised from host tests, matching the
// mock-function-variable style used throughout this kernel.
var (
	portOutb = cpu.Outb
	portInb  = cpu.Inb
)

// Port is one initialized serial line.
type Port struct {
	io uint16
}

// Open configures the UART at io for 9600 baud, 8N1, with FIFOs
// enabled, and returns a Port ready for WriteByte/Write.
func Open(io uint16) *Port {
	divisor := uint16(baudBase / defaultBaud)

	portOutb(io+1, 0x00)                // disable interrupts
	portOutb(io+3, 0x80)                // enable DLAB to program the divisor
	portOutb(io+0, byte(divisor&0xff))  // divisor low byte
	portOutb(io+1, byte(divisor>>8))    // divisor high byte
	portOutb(io+3, lineControl8N1)      // 8N1, DLAB cleared
	portOutb(io+2, 0xC7)                // enable + clear FIFOs, 14-byte threshold
	portOutb(io+4, 0x0B)                // DTR, RTS, OUT2 (OUT2 gates the IRQ line)

	return &Port{io: io}
}

func (p *Port) sendReady() bool {
	return portInb(p.io+5)&0x20 == 0x20
}

// WriteByte blocks until the transmit holding register is empty, then
// sends c.
func (p *Port) WriteByte(c byte) {
	for !p.sendReady() {
		cpu.Pause()
	}
	portOutb(p.io, c)
}

// Write implements io.Writer, sending every byte of p in order.
func (p *Port) Write(data []byte) (int, error) {
	for _, c := range data {
		p.WriteByte(c)
	}
	return len(data), nil
}
