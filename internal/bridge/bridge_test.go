package bridge_test

import (
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	evdev "github.com/holoplot/go-evdev"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nwkbd/nwkbd/frame"
	"github.com/nwkbd/nwkbd/internal/bridge"
	"github.com/nwkbd/nwkbd/internal/log"
	"github.com/nwkbd/nwkbd/internal/metrics"
	"github.com/nwkbd/nwkbd/keymap"
	"github.com/nwkbd/nwkbd/scan"
	"github.com/nwkbd/nwkbd/sink"
)

var discard = slog.New(slog.DiscardHandler)

func TestServe(t *testing.T) {
	input := ":0000000000000002\r\n" +
		"noise\r\n" +
		":0000000000008002\r\n" +
		":0000000000000000\r\n"

	tests := []struct {
		name       string
		opts       bridge.Options
		wantErr    error
		wantEvents []sink.Event
		wantFrames float64
	}{
		{
			name: "skips malformed and stops at eof",
			opts: bridge.Options{StopAtEOF: true},
			wantEvents: []sink.Event{
				{Kind: sink.Key, Code: evdev.KEY_KP8, Value: 1},
				{Kind: sink.Sync, Code: evdev.SYN_REPORT},
				{Kind: sink.Sync, Code: evdev.SYN_REPORT},
				{Kind: sink.Key, Code: evdev.KEY_KP8, Value: 0},
				{Kind: sink.Sync, Code: evdev.SYN_REPORT},
			},
			wantFrames: 3,
		},
		{
			name:    "eof is an error for a live line",
			opts:    bridge.Options{},
			wantErr: io.EOF,
			wantEvents: []sink.Event{
				{Kind: sink.Key, Code: evdev.KEY_KP8, Value: 1},
				{Kind: sink.Sync, Code: evdev.SYN_REPORT},
				{Kind: sink.Sync, Code: evdev.SYN_REPORT},
				{Kind: sink.Key, Code: evdev.KEY_KP8, Value: 0},
				{Kind: sink.Sync, Code: evdev.SYN_REPORT},
			},
			wantFrames: 3,
		},
		{
			name:    "strict stops on malformed",
			opts:    bridge.Options{Strict: true},
			wantErr: frame.ErrMalformed,
			wantEvents: []sink.Event{
				{Kind: sink.Key, Code: evdev.KEY_KP8, Value: 1},
				{Kind: sink.Sync, Code: evdev.SYN_REPORT},
			},
			wantFrames: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := metrics.New()
			tt.opts.Metrics = m
			rec := &sink.Recorder{}
			proc := scan.New(keymap.Default(), rec, discard)
			b := bridge.New(io.NopCloser(strings.NewReader(input)), proc, tt.opts, discard, log.NewRaw(nil))

			err := b.Serve()
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.wantEvents, rec.Events())
			assert.Equal(t, tt.wantFrames, testutil.ToFloat64(m.Frames))
			assert.Equal(t, 1.0, testutil.ToFloat64(m.Malformed))
		})
	}
}

func TestServeCountsOverlongLastLine(t *testing.T) {
	m := metrics.New()
	rec := &sink.Recorder{}
	proc := scan.New(keymap.Default(), rec, discard)
	input := ":0000000000000002\r\n:" + strings.Repeat("0", 4000)
	b := bridge.New(io.NopCloser(strings.NewReader(input)), proc, bridge.Options{StopAtEOF: true, Metrics: m}, discard, nil)

	require.NoError(t, b.Serve())
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Frames))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Malformed))
}

func TestServeSinkError(t *testing.T) {
	boom := errors.New("device lost")
	rec := &sink.Recorder{EmitErr: boom}
	proc := scan.New(keymap.Default(), rec, discard)
	b := bridge.New(io.NopCloser(strings.NewReader(":1\r\n")), proc, bridge.Options{StopAtEOF: true}, discard, nil)

	assert.ErrorIs(t, b.Serve(), boom)
}

func TestCloseStopsServe(t *testing.T) {
	pr, pw := io.Pipe()
	rec := &sink.Recorder{}
	guard := sink.NewGuard(rec)
	proc := scan.New(keymap.Default(), guard, discard)
	b := bridge.New(pr, proc, bridge.Options{}, discard, nil)

	errCh := make(chan error, 1)
	go func() { errCh <- b.Serve() }()

	_, err := pw.Write([]byte(":0000000000000002\r\n"))
	require.NoError(t, err)

	require.Eventually(t, func() bool { return proc.Previous() == scan.Value(2) }, time.Second, time.Millisecond)

	require.NoError(t, b.Close())
	require.NoError(t, guard.Shutdown())
	require.NoError(t, b.Close())

	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Serve did not return after Close")
	}
	assert.Equal(t, 1, rec.Shutdowns())
}
