package tspl

// esc opens the two query escape sequences inherited from TSPL.
const esc = 0x1B

// Reply framing sizes.
const (
	StatusFrameSize    = 16 // 14 payload bytes + 2 checksum bytes
	ReadinessReplySize = 1  // single readiness byte, no checksum
	ConfigPayloadSize  = 9  // inside the CONFIG envelope
	BatteryPayloadSize = 2  // inside the BATTERY envelope
)

// ASCII envelope prefixes on keyword query replies.
const (
	ConfigPrefix  = "CONFIG "
	BatteryPrefix = "BATTERY "
)

// BITMAP geometry. The printer renders 96 dots across (12 packed bytes
// per row) over 284 rows, fixed for the 14x40 mm label stock.
const (
	BitmapRowBytes = 12
	BitmapRows     = 284
	BitmapSize     = BitmapRowBytes * BitmapRows // 3408
)

// Print parameter domains.
const (
	MinDensity = 1
	MaxDensity = 15
)
