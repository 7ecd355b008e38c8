package printer

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/mzyy94/nelprint/internal/tspl"
)

// fakePort hands out one queued chunk per Read call and records writes.
// An empty queue reads like a timed-out serial tick: (0, io.EOF).
type fakePort struct {
	replies [][]byte
	wrote   bytes.Buffer
	flushed int
	closed  bool
}

func (f *fakePort) Read(b []byte) (int, error) {
	if len(f.replies) == 0 {
		return 0, io.EOF
	}
	chunk := f.replies[0]
	n := copy(b, chunk)
	if n < len(chunk) {
		f.replies[0] = chunk[n:]
	} else {
		f.replies = f.replies[1:]
	}
	return n, nil
}

func (f *fakePort) Write(b []byte) (int, error) { return f.wrote.Write(b) }

func (f *fakePort) Flush() error { f.flushed++; return nil }

func (f *fakePort) Close() error { f.closed = true; return nil }

func testPrinter(f *fakePort) *Printer {
	return &Printer{
		device:  "fake0",
		timeout: 200 * time.Millisecond,
		open: func(string) (Port, error) {
			return f, nil
		},
	}
}

// statusFrame builds a 16-byte status frame from a payload by
// appending its checksum.
func statusFrame(payload [14]byte) []byte {
	sum := tspl.Checksum(payload[:])
	return append(payload[:], sum[0], sum[1])
}

var busyPayload = [14]byte{0x20, 0x0C, 0x01, 0x12, 0x03, 0x00, 0x03, 0x01, 0x12, 0x12, 0x15, 0x28, 0x0F, 0x0E}

func TestStatus(t *testing.T) {
	frame := statusFrame(busyPayload)
	// Deliver the reply in two chunks to exercise reassembly.
	f := &fakePort{replies: [][]byte{frame[:7], frame[7:]}}
	p := testPrinter(f)

	status, err := p.Status(context.Background())
	if err != nil {
		t.Fatalf("Status failed: %v", err)
	}

	if got := f.wrote.Bytes(); !bytes.Equal(got, []byte{0x1B, '!', 'o', '\r', '\n'}) {
		t.Errorf("wrote % X, want the status query", got)
	}
	if status.Readiness != tspl.Busy {
		t.Errorf("Readiness = %d, want Busy", status.Readiness)
	}
	if status.LabelWidth != 14 || status.LabelLength != 40 {
		t.Errorf("label = %dx%d, want 14x40", status.LabelWidth, status.LabelLength)
	}
	if f.flushed != 1 {
		t.Errorf("flushed %d times, want 1", f.flushed)
	}
	if !f.closed {
		t.Error("port left open")
	}
}

func TestReadiness(t *testing.T) {
	f := &fakePort{replies: [][]byte{{0x00}}}
	p := testPrinter(f)

	readiness, err := p.Readiness(context.Background())
	if err != nil {
		t.Fatalf("Readiness failed: %v", err)
	}
	if readiness != tspl.Ready {
		t.Errorf("readiness = %d, want Ready", readiness)
	}
	if got := f.wrote.Bytes(); !bytes.Equal(got, []byte{0x1B, '!', '?'}) {
		t.Errorf("wrote % X, want the readiness query", got)
	}
}

func TestConfig(t *testing.T) {
	envelope := append([]byte("CONFIG "), 0xCB, 1, 0, 0, 2, 3, 4, 0x01, 0x01, '\r', '\n')
	f := &fakePort{replies: [][]byte{envelope[:5], envelope[5:]}}
	p := testPrinter(f)

	cfg, err := p.Config(context.Background())
	if err != nil {
		t.Fatalf("Config failed: %v", err)
	}
	if got := f.wrote.String(); got != "CONFIG?\r\n" {
		t.Errorf("wrote %q, want the config query", got)
	}
	if cfg.DPI != 203 {
		t.Errorf("DPI = %d, want 203", cfg.DPI)
	}
	if cfg.Timeout != tspl.Timeout15Min {
		t.Errorf("Timeout = %d, want Timeout15Min", cfg.Timeout)
	}
	if cfg.Beep != tspl.BeepOn {
		t.Errorf("Beep = %d, want BeepOn", cfg.Beep)
	}
}

// TestConfig_StopsAtLF checks that bytes after the terminator do not
// leak into the decoded reply.
func TestConfig_StopsAtLF(t *testing.T) {
	envelope := append([]byte("CONFIG "), 0xCB, 1, 0, 0, 2, 3, 4, 0x00, 0x00, '\r', '\n')
	envelope = append(envelope, "noise after the line"...)
	f := &fakePort{replies: [][]byte{envelope}}
	p := testPrinter(f)

	cfg, err := p.Config(context.Background())
	if err != nil {
		t.Fatalf("Config failed: %v", err)
	}
	if cfg.Beep != tspl.BeepOff {
		t.Errorf("Beep = %d, want BeepOff", cfg.Beep)
	}
}

func TestBattery(t *testing.T) {
	envelope := append([]byte("BATTERY "), 0x42, 0x01, '\r', '\n')
	f := &fakePort{replies: [][]byte{envelope}}
	p := testPrinter(f)

	battery, err := p.Battery(context.Background())
	if err != nil {
		t.Fatalf("Battery failed: %v", err)
	}
	if got := f.wrote.String(); got != "BATTERY?\r\n" {
		t.Errorf("wrote %q, want the battery query", got)
	}
	if battery.Level != 42 {
		t.Errorf("Level = %d, want 42", battery.Level)
	}
	if !battery.Charging {
		t.Error("Charging = false, want true")
	}
}

func TestSetTimeout(t *testing.T) {
	f := &fakePort{}
	p := testPrinter(f)

	if err := p.SetTimeout(context.Background(), 30); err != nil {
		t.Fatalf("SetTimeout failed: %v", err)
	}
	want := []byte{'T', 'I', 'M', 'E', 'O', 'U', 'T', ' ', 0x02, '\r', '\n'}
	if got := f.wrote.Bytes(); !bytes.Equal(got, want) {
		t.Errorf("wrote % X, want % X", got, want)
	}
	if !f.closed {
		t.Error("port left open")
	}
}

// TestSetTimeout_InvalidSkipsPort ensures a rejected parameter never
// touches the device.
func TestSetTimeout_InvalidSkipsPort(t *testing.T) {
	opened := false
	p := &Printer{
		device:  "fake0",
		timeout: 200 * time.Millisecond,
		open: func(string) (Port, error) {
			opened = true
			return &fakePort{}, nil
		},
	}

	err := p.SetTimeout(context.Background(), 45)
	if !errors.Is(err, tspl.ErrInvalidParameter) {
		t.Fatalf("error = %v, want ErrInvalidParameter", err)
	}
	if opened {
		t.Error("port opened for an invalid parameter")
	}
}

func TestSetBeep(t *testing.T) {
	f := &fakePort{}
	p := testPrinter(f)

	if err := p.SetBeep(context.Background(), true); err != nil {
		t.Fatalf("SetBeep failed: %v", err)
	}
	want := []byte{'B', 'E', 'E', 'P', ' ', 0x01, '\r', '\n'}
	if got := f.wrote.Bytes(); !bytes.Equal(got, want) {
		t.Errorf("wrote % X, want % X", got, want)
	}
}

func TestPrint(t *testing.T) {
	ready := busyPayload
	ready[0] = 0x00
	f := &fakePort{replies: [][]byte{statusFrame(ready)}}
	p := testPrinter(f)

	bitmap := bytes.Repeat([]byte{0xFF}, tspl.BitmapSize)
	status, err := p.Print(context.Background(), bitmap, 8, 2)
	if err != nil {
		t.Fatalf("Print failed: %v", err)
	}
	if status.Readiness != tspl.Ready {
		t.Errorf("Readiness = %d, want Ready", status.Readiness)
	}

	job := f.wrote.Bytes()
	if !bytes.HasPrefix(job, []byte{0x1B, '!', 'o', '\r', '\n'}) {
		t.Errorf("job starts with % X, want the status query", job[:5])
	}
	if !bytes.Contains(job, []byte("DENSITY 8\r\n")) {
		t.Error("job missing DENSITY 8")
	}
	if !bytes.HasSuffix(job, []byte("\r\nPRINT 2\r\n")) {
		t.Errorf("job ends with %q, want the PRINT trailer", job[len(job)-11:])
	}
}

func TestPrint_BadBitmapSkipsPort(t *testing.T) {
	opened := false
	p := &Printer{
		device:  "fake0",
		timeout: 200 * time.Millisecond,
		open: func(string) (Port, error) {
			opened = true
			return &fakePort{}, nil
		},
	}

	_, err := p.Print(context.Background(), make([]byte, 100), 8, 1)
	if !errors.Is(err, tspl.ErrInvalidBitmapLength) {
		t.Fatalf("error = %v, want ErrInvalidBitmapLength", err)
	}
	if opened {
		t.Error("port opened for an invalid bitmap")
	}
}

func TestSelfTest(t *testing.T) {
	f := &fakePort{}
	p := testPrinter(f)

	if err := p.SelfTest(context.Background()); err != nil {
		t.Fatalf("SelfTest failed: %v", err)
	}
	if got := f.wrote.String(); got != "SELFTEST\r\n" {
		t.Errorf("wrote %q, want the self test command", got)
	}
}

func TestStatus_ReplyTimeout(t *testing.T) {
	f := &fakePort{} // never answers
	p := testPrinter(f)

	_, err := p.Status(context.Background())
	if err == nil {
		t.Fatal("expected a timeout error, got nil")
	}
	if !f.closed {
		t.Error("port left open after timeout")
	}
}

// TestStatus_PartialReplyTimeout covers a device that stops mid-frame.
func TestStatus_PartialReplyTimeout(t *testing.T) {
	f := &fakePort{replies: [][]byte{{0x20, 0x0C, 0x01}}}
	p := testPrinter(f)

	_, err := p.Status(context.Background())
	if err == nil {
		t.Fatal("expected a timeout error, got nil")
	}
}

func TestStatus_ContextCanceled(t *testing.T) {
	f := &fakePort{replies: [][]byte{statusFrame(busyPayload)}}
	p := testPrinter(f)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.Status(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("error = %v, want context.Canceled", err)
	}
	if !f.closed {
		t.Error("port left open after cancellation")
	}
}

func TestStatus_OpenError(t *testing.T) {
	openErr := errors.New("no such device")
	p := &Printer{
		device:  "missing0",
		timeout: 200 * time.Millisecond,
		open: func(string) (Port, error) {
			return nil, openErr
		},
	}

	_, err := p.Status(context.Background())
	if !errors.Is(err, openErr) {
		t.Fatalf("error = %v, want the open error", err)
	}
}

func TestNewDefaults(t *testing.T) {
	p := New("/dev/rfcomm0")
	if p.Device() != "/dev/rfcomm0" {
		t.Errorf("Device() = %q, want /dev/rfcomm0", p.Device())
	}
	if p.timeout != replyTimeout {
		t.Errorf("timeout = %v, want %v", p.timeout, replyTimeout)
	}
	if p.open == nil {
		t.Error("open function not set")
	}
}
