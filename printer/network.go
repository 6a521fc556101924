package printer

import (
	"context"
	"net"
	"time"

	"github.com/go-faster/errors"

	"github.com/yeremiapane/fantasteak-pos/utils"
)

// Network prints to a raw TCP socket, port 9100 on most LAN printers.
type Network struct {
	Addr    string
	Timeout time.Duration
}

func NewNetwork(addr string, timeout time.Duration) *Network {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Network{Addr: addr, Timeout: timeout}
}

func (n *Network) Print(ctx context.Context, data []byte) error {
	if n.Addr == "" {
		return ErrNoDevice
	}

	dialer := net.Dialer{Timeout: n.Timeout}
	conn, err := dialer.DialContext(ctx, "tcp", n.Addr)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return errors.Wrap(ErrConnect, err.Error())
	}
	defer conn.Close()

	deadline := time.Now().Add(n.Timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := conn.SetWriteDeadline(deadline); err != nil {
		return errors.Wrap(ErrConnect, err.Error())
	}
	if _, err := conn.Write(data); err != nil {
		return errors.Wrap(ErrWriteRejected, err.Error())
	}
	utils.InfoLogger.WithField("printer", n.Addr).WithField("bytes", len(data)).Info("Receipt sent to printer")
	return nil
}
