package frame

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/nwkbd/nwkbd/internal/log"
)

// Reader splits a byte stream into scan reports.
type Reader struct {
	br  *bufio.Reader
	raw log.RawLogger
	// pending is returned by the next call, after the malformed line that
	// ran into it has been reported.
	pending error
}

// NewReader reads reports from r. raw may be nil.
func NewReader(r io.Reader, raw log.RawLogger) *Reader {
	if raw == nil {
		raw = log.NewRaw(nil)
	}
	return &Reader{br: bufio.NewReaderSize(r, MaxLine+1), raw: raw}
}

// Next blocks until a full line arrives and decodes it. A line that does not
// decode yields an error matching ErrMalformed and the reader stays usable.
// Any other error comes from the underlying stream; io.EOF means the stream
// ended cleanly between lines.
func (r *Reader) Next() (uint64, error) {
	if err := r.pending; err != nil {
		r.pending = nil
		return 0, err
	}
	line, err := r.br.ReadSlice('\n')
	switch {
	case err == nil:
	case errors.Is(err, bufio.ErrBufferFull):
		head := bytes.Clone(line[:32])
		r.pending = r.skipLine()
		r.raw.Log(head)
		return 0, malformed(head, fmt.Sprintf("line longer than %d bytes", MaxLine))
	case errors.Is(err, io.EOF) && len(line) > 0:
		// Last line without a terminator.
	default:
		return 0, fmt.Errorf("read frame: %w", err)
	}

	r.raw.Log(line)
	return Decode(line)
}

func (r *Reader) skipLine() error {
	for {
		_, err := r.br.ReadSlice('\n')
		if err == nil {
			return nil
		}
		if !errors.Is(err, bufio.ErrBufferFull) {
			return fmt.Errorf("read frame: %w", err)
		}
	}
}
