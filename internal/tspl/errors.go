package tspl

import "errors"

// Protocol error sentinels. Call sites wrap them with detail via
// fmt.Errorf("%w: ...", ...) so errors.Is still classifies them.
var (
	ErrChecksumMismatch    = errors.New("checksum mismatch")
	ErrMalformedResponse   = errors.New("malformed response")
	ErrInvalidParameter    = errors.New("invalid parameter")
	ErrInvalidBitmapLength = errors.New("invalid bitmap length")
)
