// Package tspl implements the TSPL-derived wire protocol spoken by
// Nelko P21 label printers: command frame encoding, response decoding
// and the CRC-16 scheme framing binary replies. The package is pure;
// it performs no I/O and holds no state.
package tspl

import (
	"encoding/hex"
	"fmt"
)

// stripEnvelope removes an ASCII prefix and the trailing CR LF from a
// keyword reply and checks the remaining payload length. Keyword
// replies carry no checksum.
func stripEnvelope(envelope []byte, prefix string, payloadLen int) ([]byte, error) {
	if len(envelope) < len(prefix)+2 || string(envelope[:len(prefix)]) != prefix {
		return nil, fmt.Errorf("%w: no %q prefix in %s", ErrMalformedResponse, prefix, hex.EncodeToString(envelope))
	}
	payload := envelope[len(prefix) : len(envelope)-2]
	if len(payload) != payloadLen {
		return nil, fmt.Errorf("%w: payload is %d bytes, want %d in %s", ErrMalformedResponse, len(payload), payloadLen, hex.EncodeToString(envelope))
	}
	return payload, nil
}

// ParseStatus decodes the 16-byte status frame returned by the status
// query and by print jobs. The trailing checksum covers the first 14
// bytes and is validated before any field is read. Reserved positions
// (bytes 2, 3, 5, 8, 9, 10) stay uninterpreted in Raw.
func ParseStatus(frame []byte) (*DeviceStatus, error) {
	if len(frame) != StatusFrameSize {
		return nil, fmt.Errorf("%w: status frame is %d bytes, want %d", ErrMalformedResponse, len(frame), StatusFrameSize)
	}
	if _, err := Validate(frame); err != nil {
		return nil, err
	}
	return &DeviceStatus{
		Readiness:    Readiness(frame[0]),
		DataLength:   int(frame[1]),
		PaperColor:   PaperColor(frame[4]),
		BorderRadius: int(frame[6]),
		PaperType:    PaperType(frame[7]),
		LabelLength:  int(frame[11]),
		MaxWidth:     int(frame[12]),
		LabelWidth:   int(frame[13]),
		Raw:          [StatusFrameSize]byte(frame),
	}, nil
}

// ParseReadiness decodes the single-byte readiness reply. Unknown
// values decode successfully and render as "Unknown".
func ParseReadiness(data []byte) (Readiness, error) {
	if len(data) != ReadinessReplySize {
		return 0, fmt.Errorf("%w: readiness reply is %d bytes, want %d", ErrMalformedResponse, len(data), ReadinessReplySize)
	}
	return Readiness(data[0]), nil
}

// ParseConfig decodes a CONFIG reply envelope into the device
// configuration.
func ParseConfig(envelope []byte) (*DeviceConfig, error) {
	payload, err := stripEnvelope(envelope, ConfigPrefix, ConfigPayloadSize)
	if err != nil {
		return nil, err
	}
	beep := BeepOff
	if payload[8] != 0 {
		beep = BeepOn
	}
	return &DeviceConfig{
		DPI:             int(payload[0]),
		HardwareVersion: Version{payload[1], payload[2], payload[3]},
		SecondFirmware:  Version{payload[4], payload[5], payload[6]},
		Timeout:         TimeoutSetting(payload[7]),
		Beep:            beep,
	}, nil
}

// ParseBattery decodes a BATTERY reply envelope. Byte 0 carries the
// charge percentage in BCD, byte 1 the charging flag. While charging
// the reported level is not a live measurement; BatteryState's
// rendering says so.
func ParseBattery(envelope []byte) (*BatteryState, error) {
	payload, err := stripEnvelope(envelope, BatteryPrefix, BatteryPayloadSize)
	if err != nil {
		return nil, err
	}
	level := int(payload[0]>>4&0x0F)*10 + int(payload[0]&0x0F)
	return &BatteryState{
		Level:    level,
		Charging: payload[1] != 0,
	}, nil
}
