package receipt

import (
	"bytes"

	"golang.org/x/text/encoding/charmap"
)

// ESC/POS commands used by the receipt stream.
var (
	cmdInit        = []byte{0x1B, 0x40}
	cmdAlignLeft   = []byte{0x1B, 0x61, 0x00}
	cmdAlignCenter = []byte{0x1B, 0x61, 0x01}
	cmdAlignRight  = []byte{0x1B, 0x61, 0x02}
	cmdBoldOn      = []byte{0x1B, 0x45, 0x01}
	cmdBoldOff     = []byte{0x1B, 0x45, 0x00}
	cmdCut         = []byte{0x1D, 0x56, 0x00}
)

// LineWidth is the character width of a 58mm printer in font A.
const LineWidth = 32

var Divider = bytes.Repeat([]byte{'-'}, LineWidth)

// Encode renders r as the printer byte stream. Field order, casing and
// divider placement are fixed; existing printers depend on them. Text is
// encoded to code page 437 and unsupported runes become '?'.
func Encode(r Receipt) []byte {
	e := &escposWriter{cp: charmap.CodePage437}

	e.raw(cmdInit)

	e.raw(cmdAlignCenter)
	e.text(r.Business.Name)
	e.text(r.Business.Tagline)
	for _, line := range r.Business.Address {
		e.text(line)
	}
	e.text(r.Business.Contact)
	e.divider()

	e.raw(cmdAlignLeft)
	e.text("Pelanggan: " + r.CustomerName)
	e.text("No. Order: " + r.OrderID)
	e.text("Meja: " + r.TableNumber)
	e.text("Tipe: " + r.OrderType)
	e.divider()

	for _, l := range r.Lines {
		e.raw(cmdAlignLeft)
		e.text(l.ItemText())
		e.raw(cmdAlignRight)
		e.text(l.PriceText())
		if l.Notes != "" {
			e.raw(cmdAlignLeft)
			e.text("* " + l.Notes)
		}
	}
	e.raw(cmdAlignLeft)
	e.divider()

	e.raw(cmdAlignRight)
	e.raw(cmdBoldOn)
	e.text(r.TotalText())
	e.raw(cmdBoldOff)

	e.raw(cmdAlignCenter)
	for _, line := range r.Business.Closing {
		e.text(line)
	}
	e.buf.WriteString("\n\n\n")
	e.raw(cmdCut)

	return e.buf.Bytes()
}

type escposWriter struct {
	buf bytes.Buffer
	cp  *charmap.Charmap
}

func (e *escposWriter) raw(cmd []byte) {
	e.buf.Write(cmd)
}

func (e *escposWriter) text(s string) {
	for _, r := range s {
		b, ok := e.cp.EncodeRune(r)
		if !ok {
			b = '?'
		}
		e.buf.WriteByte(b)
	}
	e.buf.WriteByte('\n')
}

func (e *escposWriter) divider() {
	e.buf.Write(Divider)
	e.buf.WriteByte('\n')
}
