//go:build baremetal && amd64

package hal

// 16550 UART on the first serial port.
const (
	com1Base = 0x3F8

	uartData        = 0
	uartIntEnable   = 1
	uartFIFOCtrl    = 2
	uartLineCtrl    = 3
	uartModemCtrl   = 4
	uartLineStatus  = 5
	uartLineDLAB    = 0x80
	uartLine8N1     = 0x03
	uartTxEmpty     = 0x20
	uartFIFOEnable  = 0xC7
	uartModemReady  = 0x0B
	uartDivisor38k4 = 3
)

type uartLogger struct {
	base uint16
}

func newUARTLogger(base uint16) *uartLogger {
	outb(base+uartIntEnable, 0x00)
	outb(base+uartLineCtrl, uartLineDLAB)
	outb(base+uartData, uartDivisor38k4)
	outb(base+uartIntEnable, 0x00)
	outb(base+uartLineCtrl, uartLine8N1)
	outb(base+uartFIFOCtrl, uartFIFOEnable)
	outb(base+uartModemCtrl, uartModemReady)
	return &uartLogger{base: base}
}

func (l *uartLogger) writeByte(b byte) {
	for inb(l.base+uartLineStatus)&uartTxEmpty == 0 {
	}
	outb(l.base+uartData, b)
}

func (l *uartLogger) WriteLineString(s string) {
	for i := 0; i < len(s); i++ {
		l.writeByte(s[i])
	}
	l.writeByte('\r')
	l.writeByte('\n')
}

func (l *uartLogger) WriteLineBytes(b []byte) {
	for i := 0; i < len(b); i++ {
		l.writeByte(b[i])
	}
	l.writeByte('\r')
	l.writeByte('\n')
}
