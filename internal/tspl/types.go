package tspl

import "fmt"

// Readiness is the single-byte printer state returned by the readiness
// query and carried in byte 0 of the status frame. Values outside the
// known set still decode; they render as "Unknown".
type Readiness int

const (
	Ready      Readiness = 0
	LidOpen    Readiness = 1
	OutOfPaper Readiness = 4
	Busy       Readiness = 32
)

func (r Readiness) String() string {
	switch r {
	case Ready:
		return "Ready"
	case LidOpen:
		return "Lid Open"
	case OutOfPaper:
		return "Paper not loaded"
	case Busy:
		return "Busy"
	default:
		return "Unknown"
	}
}

// PaperType identifies how label boundaries are detected.
type PaperType int

const (
	PaperContinuous PaperType = 0
	PaperGapped     PaperType = 1
	PaperBlackmark  PaperType = 2
)

func (p PaperType) String() string {
	switch p {
	case PaperContinuous:
		return "Continuous"
	case PaperGapped:
		return "Gapped"
	case PaperBlackmark:
		return "Blackmark"
	default:
		return "Unknown"
	}
}

// PaperColor is the label stock color read from the roll's RFID tag.
// 0 is reported by the device itself for unknown stock; 1 and values
// above 6 are not catalogued.
type PaperColor int

const (
	ColorUnknown     PaperColor = 0
	ColorTransparent PaperColor = 2
	ColorWhite       PaperColor = 3
	ColorPink        PaperColor = 4
	ColorBlue        PaperColor = 5
	ColorYellow      PaperColor = 6
)

func (c PaperColor) String() string {
	switch c {
	case ColorTransparent:
		return "Transparent"
	case ColorWhite:
		return "White"
	case ColorPink:
		return "Pink"
	case ColorBlue:
		return "Blue"
	case ColorYellow:
		return "Yellow"
	default:
		return "Unknown"
	}
}

// TimeoutSetting is the auto power-off interval stored on the device.
type TimeoutSetting int

const (
	TimeoutNever TimeoutSetting = 0
	Timeout15Min TimeoutSetting = 1
	Timeout30Min TimeoutSetting = 2
	Timeout60Min TimeoutSetting = 3
)

func (t TimeoutSetting) String() string {
	switch t {
	case TimeoutNever:
		return "Never"
	case Timeout15Min:
		return "15 minutes"
	case Timeout30Min:
		return "30 minutes"
	case Timeout60Min:
		return "60 minutes"
	default:
		return "Unknown"
	}
}

// BeepSetting is the key-beep switch.
type BeepSetting int

const (
	BeepOff BeepSetting = 0
	BeepOn  BeepSetting = 1
)

func (b BeepSetting) String() string {
	switch b {
	case BeepOn:
		return "On"
	case BeepOff:
		return "Off"
	default:
		return "Unknown"
	}
}

// Version is a hardware or firmware version triple.
type Version struct {
	Major byte
	Minor byte
	Patch byte
}

func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// DeviceStatus is the decoded 16-byte status frame. Several byte
// positions are reserved and not interpreted; Raw keeps the whole frame
// for diagnostics.
type DeviceStatus struct {
	Readiness    Readiness
	DataLength   int // byte 1: payload length reported by the device
	PaperColor   PaperColor
	BorderRadius int // byte 6: semantics unconfirmed
	PaperType    PaperType
	LabelLength  int // mm
	MaxWidth     int // mm
	LabelWidth   int // mm
	Raw          [StatusFrameSize]byte
}

// NoTag reports whether the printer failed to read the label roll's
// RFID tag. Paper type and color carry no meaning in that case.
func (s *DeviceStatus) NoTag() bool {
	return s.LabelWidth == 0 && s.LabelLength == 0
}

func (s *DeviceStatus) String() string {
	if s.NoTag() {
		return s.Readiness.String() + "\nThe printer found no readable RFID tag."
	}
	return fmt.Sprintf("%s\nLabel Type: %dx%dmm(%s), %s color",
		s.Readiness, s.LabelWidth, s.LabelLength, s.PaperType, s.PaperColor)
}

// DeviceConfig is the decoded CONFIG reply payload.
type DeviceConfig struct {
	DPI             int
	HardwareVersion Version
	SecondFirmware  Version
	Timeout         TimeoutSetting
	Beep            BeepSetting
}

func (c *DeviceConfig) String() string {
	return fmt.Sprintf("DPI Resolution: %d\nHardware Version: %s\nSecond Firmware Version: %s\nTimeout: %s\nBeep: %s",
		c.DPI, c.HardwareVersion, c.SecondFirmware, c.Timeout, c.Beep)
}

// BatteryState is the decoded BATTERY reply payload.
type BatteryState struct {
	Level    int // percent, decoded from BCD
	Charging bool
}

func (b *BatteryState) String() string {
	charging := "Not Charging"
	if b.Charging {
		charging = "Charging"
	}
	s := fmt.Sprintf("Battery Level: %d%%\nCharging: %s", b.Level, charging)
	if b.Charging {
		// On external power the device pins the reading at 99%.
		s += "\nUnplug the printer to get a current battery reading."
	}
	return s
}
