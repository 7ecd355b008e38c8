// Package printer drives a Nelko P21 over a serial device node. Each
// operation opens the port, performs one request/reply exchange and
// closes the port again; the Bluetooth RFCOMM binding behaves better
// with short-lived opens than with a long-held descriptor.
package printer

import (
	"bytes"
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/mzyy94/nelprint/internal/tspl"
)

// replyTimeout bounds the wait for a complete reply across read ticks.
const replyTimeout = 3 * time.Second

// Printer talks to one device. Operations are safe for concurrent use;
// a mutex keeps a single request outstanding at a time.
type Printer struct {
	device  string
	timeout time.Duration

	mu   sync.Mutex
	open func(device string) (Port, error)
}

// New returns a Printer for the given serial device path.
func New(device string) *Printer {
	return &Printer{device: device, timeout: replyTimeout, open: openSerial}
}

// Device returns the serial device path this printer talks to.
func (p *Printer) Device() string { return p.device }

// session opens the port, runs fn and closes the port on every path.
func (p *Printer) session(fn func(Port) error) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	port, err := p.open(p.device)
	if err != nil {
		return fmt.Errorf("open %s: %w", p.device, err)
	}
	defer port.Close()
	return fn(port)
}

// send writes a frame the device does not answer.
func (p *Printer) send(ctx context.Context, frame []byte) error {
	return p.session(func(port Port) error {
		return writeFrame(ctx, port, frame)
	})
}

// exchangeFixed writes a frame and reads an exact byte count back.
func (p *Printer) exchangeFixed(ctx context.Context, frame []byte, n int) ([]byte, error) {
	var reply []byte
	err := p.session(func(port Port) error {
		if err := writeFrame(ctx, port, frame); err != nil {
			return err
		}
		var err error
		reply, err = readFixed(ctx, port, n, p.timeout)
		return err
	})
	if err != nil {
		return nil, err
	}
	slog.Debug("serial exchange", "tx", len(frame), "rx", hex.EncodeToString(reply))
	return reply, nil
}

// exchangeLine writes a frame and reads one LF-terminated reply line.
func (p *Printer) exchangeLine(ctx context.Context, frame []byte) ([]byte, error) {
	var reply []byte
	err := p.session(func(port Port) error {
		if err := writeFrame(ctx, port, frame); err != nil {
			return err
		}
		var err error
		reply, err = readLine(ctx, port, p.timeout)
		return err
	})
	if err != nil {
		return nil, err
	}
	slog.Debug("serial exchange", "tx", len(frame), "rx", hex.EncodeToString(reply))
	return reply, nil
}

// writeFrame discards stale buffered bytes, then writes the frame.
func writeFrame(ctx context.Context, port Port, frame []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := port.Flush(); err != nil {
		return fmt.Errorf("flush: %w", err)
	}
	if _, err := port.Write(frame); err != nil {
		return fmt.Errorf("serial write: %w", err)
	}
	return nil
}

// readFixed accumulates exactly n bytes. The serial driver reports a
// timed-out read tick as (0, io.EOF); that only means no data yet, so
// the loop keeps going until the overall deadline.
func readFixed(ctx context.Context, port Port, n int, timeout time.Duration) ([]byte, error) {
	buf := make([]byte, 0, n)
	tmp := make([]byte, n)
	deadline := time.Now().Add(timeout)
	for len(buf) < n {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !time.Now().Before(deadline) {
			return nil, fmt.Errorf("reply timeout: got %d of %d bytes", len(buf), n)
		}
		k, err := port.Read(tmp[:n-len(buf)])
		buf = append(buf, tmp[:k]...)
		if err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("serial read: %w", err)
		}
		if k == 0 {
			time.Sleep(10 * time.Millisecond)
		}
	}
	return buf, nil
}

// readLine accumulates until the first LF. A reply cut short by the
// deadline is returned as-is so the decoder can report what arrived;
// no data at all is a timeout.
func readLine(ctx context.Context, port Port, timeout time.Duration) ([]byte, error) {
	buf := make([]byte, 0, 64)
	tmp := make([]byte, 64)
	deadline := time.Now().Add(timeout)
	for {
		if i := bytes.IndexByte(buf, '\n'); i >= 0 {
			return buf[:i+1], nil
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !time.Now().Before(deadline) {
			if len(buf) > 0 {
				return buf, nil
			}
			return nil, errors.New("reply timeout: no data")
		}
		k, err := port.Read(tmp)
		buf = append(buf, tmp[:k]...)
		if err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("serial read: %w", err)
		}
		if k == 0 {
			time.Sleep(10 * time.Millisecond)
		}
	}
}

// Status asks for the label status frame and decodes it.
func (p *Printer) Status(ctx context.Context) (*tspl.DeviceStatus, error) {
	reply, err := p.exchangeFixed(ctx, tspl.StatusQuery(), tspl.StatusFrameSize)
	if err != nil {
		return nil, err
	}
	return tspl.ParseStatus(reply)
}

// Readiness runs the short readiness probe.
func (p *Printer) Readiness(ctx context.Context) (tspl.Readiness, error) {
	reply, err := p.exchangeFixed(ctx, tspl.ReadinessQuery(), tspl.ReadinessReplySize)
	if err != nil {
		return 0, err
	}
	return tspl.ParseReadiness(reply)
}

// Config queries the device configuration.
func (p *Printer) Config(ctx context.Context) (*tspl.DeviceConfig, error) {
	reply, err := p.exchangeLine(ctx, tspl.ConfigQuery())
	if err != nil {
		return nil, err
	}
	return tspl.ParseConfig(reply)
}

// Battery queries the battery state.
func (p *Printer) Battery(ctx context.Context) (*tspl.BatteryState, error) {
	reply, err := p.exchangeLine(ctx, tspl.BatteryQuery())
	if err != nil {
		return nil, err
	}
	return tspl.ParseBattery(reply)
}

// SetTimeout selects the auto power-off interval. minutes must be one
// of 0, 15, 30 or 60. The device sends no acknowledgement; callers
// confirm the change with Config.
func (p *Printer) SetTimeout(ctx context.Context, minutes int) error {
	frame, err := tspl.SetTimeout(minutes)
	if err != nil {
		return err
	}
	return p.send(ctx, frame)
}

// SetBeep switches the print beep on or off. No acknowledgement.
func (p *Printer) SetBeep(ctx context.Context, enabled bool) error {
	return p.send(ctx, tspl.SetBeep(enabled))
}

// Print sends a complete print job. The job opens with a status query,
// so the device answers with a status frame before feeding; that frame
// is decoded and returned so callers can tell whether the job landed
// on a ready printer.
func (p *Printer) Print(ctx context.Context, bitmap []byte, density, copies int) (*tspl.DeviceStatus, error) {
	job, err := tspl.PrintJob(bitmap, density, copies)
	if err != nil {
		return nil, err
	}
	slog.Info("sending print job", "bytes", len(job), "density", density, "copies", copies)
	reply, err := p.exchangeFixed(ctx, job, tspl.StatusFrameSize)
	if err != nil {
		return nil, err
	}
	return tspl.ParseStatus(reply)
}

// SelfTest asks the device to print its built-in test page.
func (p *Printer) SelfTest(ctx context.Context) error {
	return p.send(ctx, tspl.SelfTest())
}
