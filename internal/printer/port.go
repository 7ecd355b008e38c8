package printer

import (
	"io"
	"time"

	"github.com/tarm/serial"
)

// Port is the transport an exchange runs over. The serial driver
// satisfies it; tests substitute an in-memory fake.
type Port interface {
	io.ReadWriteCloser
	Flush() error
}

const (
	// The P21 talks at a fixed rate over its RFCOMM binding.
	baudRate = 115200
	// readTick bounds a single Read call; the overall reply deadline
	// is enforced by the exchange loop.
	readTick = time.Second
)

func openSerial(device string) (Port, error) {
	port, err := serial.OpenPort(&serial.Config{
		Name:        device,
		Baud:        baudRate,
		ReadTimeout: readTick,
	})
	if err != nil {
		return nil, err
	}
	return port, nil
}
