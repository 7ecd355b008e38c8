package tspl

import (
	"bytes"
	"fmt"
)

// StatusQuery returns the status query escape sequence (ESC !o CR LF).
// The reply is a 16-byte checksummed status frame.
func StatusQuery() []byte {
	return []byte{esc, '!', 'o', '\r', '\n'}
}

// ReadinessQuery returns the readiness probe (ESC !?). It carries no
// terminator; the reply is a single readiness byte.
func ReadinessQuery() []byte {
	return []byte{esc, '!', '?'}
}

// ConfigQuery returns the device configuration query.
func ConfigQuery() []byte {
	return []byte("CONFIG?\r\n")
}

// BatteryQuery returns the battery state query.
func BatteryQuery() []byte {
	return []byte("BATTERY?\r\n")
}

// SelfTest returns the command that starts the built-in test print.
func SelfTest() []byte {
	return []byte("SELFTEST\r\n")
}

// SetTimeout builds the auto power-off command. minutes must be 0
// (never), 15, 30 or 60. The setting ordinal is embedded as a single
// byte, not as decimal digits.
func SetTimeout(minutes int) ([]byte, error) {
	var setting TimeoutSetting
	switch minutes {
	case 0:
		setting = TimeoutNever
	case 15:
		setting = Timeout15Min
	case 30:
		setting = Timeout30Min
	case 60:
		setting = Timeout60Min
	default:
		return nil, fmt.Errorf("%w: timeout %d minutes, must be 0, 15, 30 or 60", ErrInvalidParameter, minutes)
	}
	return append([]byte("TIMEOUT "), byte(setting), '\r', '\n'), nil
}

// SetBeep builds the key-beep switch command. The ordinal is embedded
// as a single byte, like SetTimeout.
func SetBeep(enabled bool) []byte {
	setting := BeepOff
	if enabled {
		setting = BeepOn
	}
	return append([]byte("BEEP "), byte(setting), '\r', '\n')
}

// PrintJob builds the complete print command: a status-query preamble,
// the fixed label geometry, density, a buffer clear, the BITMAP payload
// and the PRINT trailer. bitmap must be exactly BitmapSize bytes,
// already packed and padded by the producer; it is embedded verbatim,
// never padded or truncated here. The printer answers a print job with
// a status frame.
func PrintJob(bitmap []byte, density, copies int) ([]byte, error) {
	if len(bitmap) != BitmapSize {
		return nil, fmt.Errorf("%w: %d bytes, need %d", ErrInvalidBitmapLength, len(bitmap), BitmapSize)
	}
	if density < MinDensity || density > MaxDensity {
		return nil, fmt.Errorf("%w: density %d, must be %d-%d", ErrInvalidParameter, density, MinDensity, MaxDensity)
	}
	if copies < 1 {
		return nil, fmt.Errorf("%w: copies %d, must be at least 1", ErrInvalidParameter, copies)
	}

	var buf bytes.Buffer
	buf.Write(StatusQuery())
	buf.WriteString("SIZE 14.0 mm,40.0 mm\r\n")
	buf.WriteString("GAP 5.0 mm,0 mm\r\n")
	buf.WriteString("DIRECTION 1,1\r\n")
	fmt.Fprintf(&buf, "DENSITY %d\r\n", density)
	buf.WriteString("CLS\r\n")
	fmt.Fprintf(&buf, "BITMAP 0,0,%d,%d,1,", BitmapRowBytes, BitmapRows)
	buf.Write(bitmap)
	fmt.Fprintf(&buf, "\r\nPRINT %d\r\n", copies)
	return buf.Bytes(), nil
}
