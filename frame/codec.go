// Package frame reads scan reports from the keypad controller. A report is
// one line: a colon, up to 16 hex digits, CR LF, e.g. ":0000000000004080\r\n".
package frame

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
)

const (
	// MaxLine is the longest accepted line including its terminator.
	MaxLine = 1023
	// MaxDigits is the number of hex digits in a full 64-bit report.
	MaxDigits = 16
)

// ErrMalformed marks a line that is not a scan report. The stream itself is
// still usable.
var ErrMalformed = errors.New("malformed frame")

// MalformedError carries the offending line.
type MalformedError struct {
	Line   []byte
	Reason string
}

func (e *MalformedError) Error() string {
	return fmt.Sprintf("%s: %s (%q)", ErrMalformed, e.Reason, e.Line)
}

func (e *MalformedError) Unwrap() error {
	return ErrMalformed
}

func malformed(line []byte, reason string) error {
	return &MalformedError{Line: bytes.Clone(line), Reason: reason}
}

// Decode parses one report line. The CR LF terminator is optional.
func Decode(line []byte) (uint64, error) {
	body := bytes.TrimRight(line, "\r\n")
	if len(body) == 0 || body[0] != ':' {
		return 0, malformed(line, "missing ':' prefix")
	}
	digits := body[1:]
	if len(digits) == 0 {
		return 0, malformed(line, "no hex digits")
	}
	if len(digits) > MaxDigits {
		return 0, malformed(line, fmt.Sprintf("%d hex digits, at most %d allowed", len(digits), MaxDigits))
	}
	v, err := strconv.ParseUint(string(digits), 16, 64)
	if err != nil {
		return 0, malformed(line, "invalid hex digits")
	}
	return v, nil
}

// Encode renders v as a full report line.
func Encode(v uint64) []byte {
	return fmt.Appendf(nil, ":%016X\r\n", v)
}
