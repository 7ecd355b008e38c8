package tspl

import "fmt"

// Checksum computes the CRC-16 that frames binary responses: polynomial
// 0xA001 (reflected), initial register 0xFFFF, no final XOR. The result
// is returned high byte first, the order the device transmits it in.
func Checksum(data []byte) [2]byte {
	crc := uint16(0xFFFF)
	for _, b := range data {
		crc ^= uint16(b)
		for range 8 {
			if crc&1 != 0 {
				crc = crc>>1 ^ 0xA001
			} else {
				crc >>= 1
			}
		}
	}
	return [2]byte{byte(crc >> 8), byte(crc)}
}

// Validate checks the trailing 2-byte checksum of a frame. The checksum
// covers every byte before it. On success the payload (the frame
// without its checksum) is returned; a mismatched frame must be
// discarded by the caller, never partially applied.
func Validate(frame []byte) ([]byte, error) {
	if len(frame) < 2 {
		return nil, fmt.Errorf("%w: frame too short for checksum (%d bytes)", ErrMalformedResponse, len(frame))
	}
	payload := frame[:len(frame)-2]
	sum := Checksum(payload)
	want := uint16(sum[0])<<8 | uint16(sum[1])
	got := uint16(frame[len(frame)-2])<<8 | uint16(frame[len(frame)-1])
	if got != want {
		return nil, fmt.Errorf("%w: expected %04x, got %04x", ErrChecksumMismatch, want, got)
	}
	return payload, nil
}
