package printer

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"tinygo.org/x/bluetooth"

	"github.com/yeremiapane/fantasteak-pos/utils"
)

// Common service and characteristic of cheap BLE thermal printers.
const (
	DefaultServiceUUID = "0x18F0"
	DefaultCharUUID    = "0x2AF1"
)

type BLEConfig struct {
	ServiceUUID bluetooth.UUID
	CharUUID    bluetooth.UUID
	// NamePrefix narrows discovery to devices whose local name starts with it.
	NamePrefix  string
	ScanTimeout time.Duration
	// ChunkSize bounds each characteristic write.
	ChunkSize int
	// ChunkDelay paces writes so the printer buffer keeps up.
	ChunkDelay time.Duration
}

// BLE prints over a GATT characteristic. Each Print scans, connects, writes
// and disconnects.
type BLE struct {
	adapter *bluetooth.Adapter
	cfg     BLEConfig
}

func NewBLE(adapter *bluetooth.Adapter, cfg BLEConfig) *BLE {
	if cfg.ScanTimeout <= 0 {
		cfg.ScanTimeout = 10 * time.Second
	}
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = 180
	}
	if adapter == nil {
		adapter = bluetooth.DefaultAdapter
	}
	return &BLE{adapter: adapter, cfg: cfg}
}

func (b *BLE) Print(ctx context.Context, data []byte) error {
	if err := b.adapter.Enable(); err != nil {
		return errors.Wrap(ErrRadioUnavailable, err.Error())
	}

	found, err := b.discover(ctx)
	if err != nil {
		return err
	}
	log := utils.InfoLogger.WithField("printer", found.Address.String())
	log.Info("Printer found, connecting")

	device, err := b.adapter.Connect(found.Address, bluetooth.ConnectionParams{})
	if err != nil {
		return errors.Wrap(ErrConnect, err.Error())
	}
	defer func() {
		if err := device.Disconnect(); err != nil {
			utils.ErrorLogger.WithError(err).Warn("Printer disconnect failed")
		}
	}()

	services, err := device.DiscoverServices([]bluetooth.UUID{b.cfg.ServiceUUID})
	if err != nil || len(services) == 0 {
		return errors.Wrapf(ErrConnect, "service %s not available", b.cfg.ServiceUUID.String())
	}
	chars, err := services[0].DiscoverCharacteristics([]bluetooth.UUID{b.cfg.CharUUID})
	if err != nil || len(chars) == 0 {
		return errors.Wrapf(ErrWriteRejected, "characteristic %s not available", b.cfg.CharUUID.String())
	}

	for i, chunk := range chunks(data, b.cfg.ChunkSize) {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, err := chars[0].WriteWithoutResponse(chunk); err != nil {
			return errors.Wrapf(ErrWriteRejected, "chunk %d: %v", i, err)
		}
		if b.cfg.ChunkDelay > 0 {
			time.Sleep(b.cfg.ChunkDelay)
		}
	}
	log.WithField("bytes", len(data)).Info("Receipt sent to printer")
	return nil
}

// discover scans until a device advertising the printer service shows up.
func (b *BLE) discover(ctx context.Context) (bluetooth.ScanResult, error) {
	found := make(chan bluetooth.ScanResult, 1)
	scanErr := make(chan error, 1)

	go func() {
		scanErr <- b.adapter.Scan(func(a *bluetooth.Adapter, res bluetooth.ScanResult) {
			if !res.HasServiceUUID(b.cfg.ServiceUUID) {
				return
			}
			if b.cfg.NamePrefix != "" && !strings.HasPrefix(res.LocalName(), b.cfg.NamePrefix) {
				return
			}
			select {
			case found <- res:
				_ = a.StopScan()
			default:
			}
		})
	}()

	timer := time.NewTimer(b.cfg.ScanTimeout)
	defer timer.Stop()

	select {
	case res := <-found:
		return res, nil
	case err := <-scanErr:
		select {
		case res := <-found:
			return res, nil
		default:
		}
		if err != nil {
			return bluetooth.ScanResult{}, errors.Wrap(ErrRadioUnavailable, err.Error())
		}
		return bluetooth.ScanResult{}, ErrNoDevice
	case <-timer.C:
		_ = b.adapter.StopScan()
		return bluetooth.ScanResult{}, ErrNoDevice
	case <-ctx.Done():
		_ = b.adapter.StopScan()
		return bluetooth.ScanResult{}, ctx.Err()
	}
}

func chunks(data []byte, size int) [][]byte {
	var out [][]byte
	for len(data) > 0 {
		n := min(size, len(data))
		out = append(out, data[:n])
		data = data[n:]
	}
	return out
}

// ParseUUID accepts a 16-bit short form ("0x18F0", "18f0") or a full
// 128-bit UUID string.
func ParseUUID(s string) (bluetooth.UUID, error) {
	s = strings.TrimSpace(s)
	short := strings.TrimPrefix(strings.ToLower(s), "0x")
	if len(short) <= 4 {
		v, err := strconv.ParseUint(short, 16, 16)
		if err != nil {
			return bluetooth.UUID{}, errors.Wrapf(err, "parse uuid %q", s)
		}
		return bluetooth.New16BitUUID(uint16(v)), nil
	}
	u, err := bluetooth.ParseUUID(s)
	if err != nil {
		return bluetooth.UUID{}, errors.Wrapf(err, "parse uuid %q", s)
	}
	return u, nil
}
