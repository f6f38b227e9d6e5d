// Package bridge runs the receive loop: serial line in, input events out.
package bridge

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync/atomic"

	"github.com/nwkbd/nwkbd/frame"
	"github.com/nwkbd/nwkbd/internal/log"
	"github.com/nwkbd/nwkbd/internal/metrics"
	"github.com/nwkbd/nwkbd/scan"
	"github.com/nwkbd/nwkbd/sink"
)

type Options struct {
	// Strict stops on the first malformed line instead of skipping it.
	Strict bool
	// StopAtEOF treats the end of input as a normal stop. A serial port
	// never ends, so for it EOF is an error.
	StopAtEOF bool
	// Metrics may be nil.
	Metrics *metrics.Metrics
}

type Bridge struct {
	src    io.ReadCloser
	reader *frame.Reader
	proc   *scan.Processor
	opts   Options
	logger *slog.Logger
	closed atomic.Bool
}

func New(src io.ReadCloser, proc *scan.Processor, opts Options, logger *slog.Logger, rawLogger log.RawLogger) *Bridge {
	return &Bridge{
		src:    src,
		reader: frame.NewReader(src, rawLogger),
		proc:   proc,
		opts:   opts,
		logger: logger,
	}
}

// Serve processes frames until the input fails, the sink fails or Close is
// called. It returns nil after Close.
func (b *Bridge) Serve() error {
	for {
		v, err := b.reader.Next()
		if err != nil {
			if errors.Is(err, frame.ErrMalformed) {
				if b.opts.Metrics != nil {
					b.opts.Metrics.Malformed.Inc()
				}
				if b.opts.Strict {
					return err
				}
				b.logger.Warn("Undecodable frame", "error", err)
				continue
			}
			if b.closed.Load() {
				return nil
			}
			if errors.Is(err, io.EOF) {
				if b.opts.StopAtEOF {
					return nil
				}
				return fmt.Errorf("keypad input ended: %w", err)
			}
			return err
		}

		b.logger.Log(context.Background(), log.LevelTrace, "Frame", "scan", fmt.Sprintf("%016x", v))
		if err := b.proc.Process(scan.Value(v)); err != nil {
			if b.closed.Load() && errors.Is(err, sink.ErrClosed) {
				return nil
			}
			return err
		}
		if b.opts.Metrics != nil {
			b.opts.Metrics.Frames.Inc()
			b.opts.Metrics.Layer.Set(float64(b.proc.Layer()))
		}
	}
}

// Close stops Serve by closing its input. A frame being processed is
// finished or cut short by the sink shutting down.
func (b *Bridge) Close() error {
	if b.closed.Swap(true) {
		return nil
	}
	return b.src.Close()
}
