// Package printer sends ESC/POS byte streams to a thermal receipt printer.
// A print is single shot: no retries, no queue.
package printer

import (
	"context"
	"sync/atomic"

	"github.com/go-faster/errors"
)

// Transport delivers one formatted receipt to a printer.
type Transport interface {
	Print(ctx context.Context, data []byte) error
}

var (
	ErrNoDevice          = errors.New("no compatible printer found")
	ErrRadioUnavailable  = errors.New("bluetooth radio unavailable")
	ErrConnect           = errors.New("printer refused connection")
	ErrWriteRejected     = errors.New("printer rejected write")
	ErrBusy              = errors.New("a print is already in progress")
	ErrTransportDisabled = errors.New("printing is disabled on this console")
)

// UserMessage is the alert shown to the cashier for a failed print.
func UserMessage(err error) string {
	switch {
	case err == nil:
		return "Struk berhasil dicetak"
	case errors.Is(err, ErrBusy):
		return "Printer sedang mencetak, tunggu sebentar"
	case errors.Is(err, ErrRadioUnavailable):
		return "Bluetooth tidak tersedia. Pastikan Bluetooth aktif dan printer menyala"
	case errors.Is(err, ErrNoDevice):
		return "Printer tidak ditemukan. Pastikan Bluetooth aktif dan printer menyala"
	case errors.Is(err, ErrConnect):
		return "Gagal terhubung ke printer. Pastikan printer menyala lalu coba lagi"
	case errors.Is(err, ErrWriteRejected):
		return "Printer menolak data. Coba cetak ulang"
	case errors.Is(err, ErrTransportDisabled):
		return "Printer belum diatur di konsol ini"
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return "Waktu habis saat menghubungi printer"
	}
	return "Gagal mencetak struk"
}

// Guard rejects a print while another one through the same guard is in
// flight. It does not queue.
type Guard struct {
	next Transport
	busy atomic.Bool
}

func NewGuard(next Transport) *Guard {
	return &Guard{next: next}
}

func (g *Guard) Print(ctx context.Context, data []byte) error {
	if !g.busy.CompareAndSwap(false, true) {
		return ErrBusy
	}
	defer g.busy.Store(false)
	return g.next.Print(ctx, data)
}

// Disabled is the transport for consoles without a printer.
type Disabled struct{}

func (Disabled) Print(context.Context, []byte) error {
	return ErrTransportDisabled
}
