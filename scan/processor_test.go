package scan_test

import (
	"errors"
	"math/rand/v2"
	"testing"

	evdev "github.com/holoplot/go-evdev"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nwkbd/nwkbd/keymap"
	"github.com/nwkbd/nwkbd/scan"
	"github.com/nwkbd/nwkbd/sink"
)

var syncEvent = sink.Event{Kind: sink.Sync, Code: evdev.SYN_REPORT, Value: 0}

func key(code evdev.EvCode, value int32) sink.Event {
	return sink.Event{Kind: sink.Key, Code: code, Value: value}
}

func bits(positions ...int) scan.Value {
	var v scan.Value
	for _, p := range positions {
		v |= 1 << uint(p)
	}
	return v
}

func newProcessor(t *testing.T) (*scan.Processor, *sink.Recorder) {
	t.Helper()
	rec := &sink.Recorder{}
	return scan.New(keymap.Default(), rec, nil), rec
}

func TestProcessFrames(t *testing.T) {
	tests := []struct {
		name      string
		frames    []scan.Value
		want      [][]sink.Event
		wantLayer int
		refreshes int
	}{
		{
			name:   "scan 0x10 presses and releases ok",
			frames: []scan.Value{0x10, 0x00},
			want: [][]sink.Event{
				{key(evdev.BTN_LEFT, 1), syncEvent},
				{key(evdev.BTN_LEFT, 0), syncEvent},
			},
		},
		{
			name:   "arrow key press and release",
			frames: []scan.Value{bits(1), 0},
			want: [][]sink.Event{
				{key(evdev.KEY_KP8, 1), syncEvent},
				{key(evdev.KEY_KP8, 0), syncEvent},
			},
		},
		{
			name:   "repeated scan only syncs",
			frames: []scan.Value{bits(18), bits(18)},
			want: [][]sink.Event{
				{key(evdev.KEY_A, 1), syncEvent},
				{syncEvent},
			},
		},
		{
			name:   "empty scan on fresh state only syncs",
			frames: []scan.Value{0},
			want:   [][]sink.Event{{syncEvent}},
		},
		{
			name:   "aux press and release emits shift then numlock",
			frames: []scan.Value{bits(keymap.AuxBit), 0},
			want: [][]sink.Event{
				{key(evdev.KEY_LEFTSHIFT, 1), key(evdev.KEY_NUMLOCK, 1), syncEvent},
				{key(evdev.KEY_LEFTSHIFT, 0), key(evdev.KEY_NUMLOCK, 0), syncEvent},
			},
		},
		{
			name:   "aux held produces nothing",
			frames: []scan.Value{bits(keymap.AuxBit), bits(keymap.AuxBit)},
			want: [][]sink.Event{
				{key(evdev.KEY_LEFTSHIFT, 1), key(evdev.KEY_NUMLOCK, 1), syncEvent},
				{syncEvent},
			},
		},
		{
			name:   "unchanged scan without select bit does not refresh",
			frames: []scan.Value{bits(1), bits(1), bits(1)},
			want: [][]sink.Event{
				{key(evdev.KEY_KP8, 1), syncEvent},
				{syncEvent},
				{syncEvent},
			},
		},
		{
			name:      "layer 1 select",
			frames:    []scan.Value{bits(keymap.SelectBit1)},
			want:      [][]sink.Event{{syncEvent}},
			wantLayer: 1,
			refreshes: 1,
		},
		{
			name:      "layer switch and key in the same frame uses new layer",
			frames:    []scan.Value{bits(keymap.SelectBit1, 18)},
			want:      [][]sink.Event{{key(evdev.KEY_F1, 1), syncEvent}},
			wantLayer: 1,
			refreshes: 1,
		},
		{
			name:   "layer sticks after select released",
			frames: []scan.Value{bits(keymap.SelectBit1), 0, bits(19), 0},
			want: [][]sink.Event{
				{syncEvent},
				{syncEvent},
				{key(evdev.KEY_F2, 1), syncEvent},
				{key(evdev.KEY_F2, 0), syncEvent},
			},
			wantLayer: 1,
			refreshes: 1,
		},
		{
			name:   "select held refreshes every frame",
			frames: []scan.Value{bits(keymap.SelectBit0), bits(keymap.SelectBit0), bits(keymap.SelectBit0)},
			want: [][]sink.Event{
				{syncEvent},
				{syncEvent},
				{syncEvent},
			},
			refreshes: 3,
		},
		{
			name:      "both select bits set picks layer 0",
			frames:    []scan.Value{bits(keymap.SelectBit1), bits(keymap.SelectBit0, keymap.SelectBit1)},
			want:      [][]sink.Event{{syncEvent}, {syncEvent}},
			wantLayer: 0,
			refreshes: 2,
		},
		{
			name:   "release after layer switch uses the active layer code",
			frames: []scan.Value{bits(18), bits(18, keymap.SelectBit1), bits(keymap.SelectBit1)},
			want: [][]sink.Event{
				{key(evdev.KEY_A, 1), syncEvent},
				{syncEvent},
				{key(evdev.KEY_F1, 0), syncEvent},
			},
			wantLayer: 1,
			refreshes: 2,
		},
		{
			name:   "unmapped and out of table bits are ignored",
			frames: []scan.Value{bits(6, 8, 35, 60, 63)},
			want:   [][]sink.Event{{syncEvent}},
		},
		{
			name:   "several keys in index order",
			frames: []scan.Value{bits(52, 0, 17)},
			want: [][]sink.Event{
				{key(evdev.KEY_KP4, 1), key(evdev.KEY_BACKSPACE, 1), key(evdev.KEY_ENTER, 1), syncEvent},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, rec := newProcessor(t)
			for i, f := range tt.frames {
				require.NoError(t, p.Process(f))
				assert.Equal(t, tt.want[i], rec.Events(), "frame %d", i)
			}
			assert.Equal(t, tt.wantLayer, p.Layer())
			assert.Equal(t, tt.refreshes, rec.Refreshes())
			assert.Equal(t, tt.frames[len(tt.frames)-1], p.Previous())
		})
	}
}

func TestInitialState(t *testing.T) {
	p, rec := newProcessor(t)
	assert.Equal(t, 0, p.Layer())
	assert.Equal(t, scan.Value(0), p.Previous())
	assert.Empty(t, rec.Events())
}

// Every emitted key corresponds to a changed bit with a present code in the
// active layer, and every frame ends with one sync.
func TestEdgeCorrectness(t *testing.T) {
	tbl := keymap.Default()
	rng := rand.New(rand.NewPCG(1, 2))
	p, rec := newProcessor(t)

	prev := scan.Value(0)
	for i := 0; i < 500; i++ {
		// Keep select and aux bits clear so the layer stays put.
		next := scan.Value(rng.Uint64()) &^ bits(keymap.AuxBit, keymap.SelectBit0, keymap.SelectBit1)
		require.NoError(t, p.Process(next))

		var want []sink.Event
		changed := prev ^ next
		for idx := 0; idx < tbl.Size(); idx++ {
			if !changed.Bit(idx) {
				continue
			}
			if code, ok := tbl.Lookup(idx, 0); ok {
				v := int32(0)
				if next.Bit(idx) {
					v = 1
				}
				want = append(want, key(code, v))
			}
		}
		want = append(want, syncEvent)

		got := rec.Events()
		require.Equal(t, want, got, "frame %d", i)
		prev = next
	}
}

func TestSinkErrorStopsFrame(t *testing.T) {
	boom := errors.New("write failed")
	rec := &sink.Recorder{EmitErr: boom}
	p := scan.New(keymap.Default(), rec, nil)

	err := p.Process(bits(1))
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, scan.Value(0), p.Previous())

	rec.EmitErr = nil
	require.NoError(t, p.Process(bits(1)))
	assert.Equal(t, []sink.Event{key(evdev.KEY_KP8, 1), syncEvent}, rec.Events())
}

func TestRefreshErrorIsReturned(t *testing.T) {
	boom := errors.New("uinput gone")
	rec := &sink.Recorder{RefreshErr: boom}
	p := scan.New(keymap.Default(), rec, nil)

	assert.ErrorIs(t, p.Process(bits(keymap.SelectBit1)), boom)
}

func TestSingleLayerTable(t *testing.T) {
	tbl := &keymap.Table{
		Layers: 1,
		Aux:    keymap.Aux{Bit: 3, Codes: []evdev.EvCode{evdev.KEY_LEFTCTRL}},
		Select: []int{2},
		Entries: []keymap.Entry{
			{Label: "zero", Codes: []keymap.Code{keymap.Key(evdev.KEY_RESERVED)}},
			{Label: "fire", Codes: []keymap.Code{keymap.Key(evdev.BTN_LEFT)}},
		},
	}
	require.NoError(t, tbl.Validate())

	rec := &sink.Recorder{}
	p := scan.New(tbl, rec, nil)
	require.NoError(t, p.Process(bits(0, 1, 3)))
	assert.Equal(t, []sink.Event{
		key(evdev.KEY_LEFTCTRL, 1),
		key(evdev.KEY_RESERVED, 1),
		key(evdev.BTN_LEFT, 1),
		syncEvent,
	}, rec.Events())
}

func TestValueBit(t *testing.T) {
	v := scan.Value(0x8000000000000001)
	assert.True(t, v.Bit(0))
	assert.True(t, v.Bit(63))
	assert.False(t, v.Bit(1))
	assert.False(t, v.Bit(64))
	assert.False(t, v.Bit(-1))
}
