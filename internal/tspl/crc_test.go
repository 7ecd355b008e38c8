package tspl

import (
	"bytes"
	"errors"
	"testing"
)

func TestChecksum_KnownVectors(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want [2]byte
	}{
		{"Empty", nil, [2]byte{0xFF, 0xFF}},
		{"SingleZero", []byte{0x00}, [2]byte{0x40, 0xBF}},
		{"CheckString", []byte("123456789"), [2]byte{0x4B, 0x37}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Checksum(tt.data)
			if got != tt.want {
				t.Errorf("Checksum = %02X %02X, want %02X %02X", got[0], got[1], tt.want[0], tt.want[1])
			}
		})
	}
}

// TestChecksum_CapturedFrame verifies the checksum of a status frame
// captured from a real device: the device computed 0D22 over the first
// 14 bytes and stored it high byte first.
func TestChecksum_CapturedFrame(t *testing.T) {
	frame := buildCapturedStatusFrame()

	got := Checksum(frame[:14])
	if got != [2]byte{0x0D, 0x22} {
		t.Errorf("Checksum = %02X %02X, want 0D 22", got[0], got[1])
	}
}

func TestValidate_RoundTrip(t *testing.T) {
	payloads := [][]byte{
		{},
		{0x00},
		{0x01, 0x02, 0x03},
		[]byte("CONFIG?"),
		bytes.Repeat([]byte{0xA5}, 64),
	}
	for _, payload := range payloads {
		sum := Checksum(payload)
		frame := append(append([]byte{}, payload...), sum[0], sum[1])

		got, err := Validate(frame)
		if err != nil {
			t.Fatalf("Validate failed for %d-byte payload: %v", len(payload), err)
		}
		if !bytes.Equal(got, payload) {
			t.Errorf("Validate payload = % X, want % X", got, payload)
		}
	}
}

// TestValidate_SingleByteCorruption flips one bit in every payload
// position of a valid frame; each corruption must be detected.
func TestValidate_SingleByteCorruption(t *testing.T) {
	frame := buildCapturedStatusFrame()
	if _, err := Validate(frame); err != nil {
		t.Fatalf("Validate failed on intact frame: %v", err)
	}

	for i := range 14 {
		corrupted := append([]byte{}, frame...)
		corrupted[i] ^= 0x01

		_, err := Validate(corrupted)
		if err == nil {
			t.Errorf("Validate accepted frame corrupted at byte %d", i)
			continue
		}
		if !errors.Is(err, ErrChecksumMismatch) {
			t.Errorf("corruption at byte %d: error = %v, want ErrChecksumMismatch", i, err)
		}
	}
}

func TestValidate_CorruptedChecksum(t *testing.T) {
	frame := buildCapturedStatusFrame()
	frame[15] ^= 0xFF

	_, err := Validate(frame)
	if !errors.Is(err, ErrChecksumMismatch) {
		t.Errorf("error = %v, want ErrChecksumMismatch", err)
	}
}

func TestValidate_TooShort(t *testing.T) {
	for _, frame := range [][]byte{nil, {0xFF}} {
		_, err := Validate(frame)
		if err == nil {
			t.Fatalf("expected error for %d-byte frame, got nil", len(frame))
		}
		if !errors.Is(err, ErrMalformedResponse) {
			t.Errorf("error = %v, want ErrMalformedResponse", err)
		}
	}
}

// TestValidate_ChecksumOnly covers the degenerate frame holding nothing
// but a checksum: the empty payload's CRC is FFFF.
func TestValidate_ChecksumOnly(t *testing.T) {
	payload, err := Validate([]byte{0xFF, 0xFF})
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if len(payload) != 0 {
		t.Errorf("payload = % X, want empty", payload)
	}
}
