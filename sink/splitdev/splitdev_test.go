package splitdev

import (
	"errors"
	"fmt"
	"log/slog"
	"testing"

	evdev "github.com/holoplot/go-evdev"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nwkbd/nwkbd/sink"
)

type fakeKeyboard struct {
	calls  []string
	closed bool
}

func (k *fakeKeyboard) KeyDown(key int) error { k.calls = append(k.calls, fmt.Sprintf("down %d", key)); return nil }
func (k *fakeKeyboard) KeyUp(key int) error   { k.calls = append(k.calls, fmt.Sprintf("up %d", key)); return nil }
func (k *fakeKeyboard) Close() error          { k.closed = true; return nil }

type fakeMouse struct {
	calls  []string
	closed bool
	err    error
}

func (m *fakeMouse) record(s string) error {
	if m.err != nil {
		return m.err
	}
	m.calls = append(m.calls, s)
	return nil
}

func (m *fakeMouse) LeftPress() error     { return m.record("left press") }
func (m *fakeMouse) LeftRelease() error   { return m.record("left release") }
func (m *fakeMouse) RightPress() error    { return m.record("right press") }
func (m *fakeMouse) RightRelease() error  { return m.record("right release") }
func (m *fakeMouse) MiddlePress() error   { return m.record("middle press") }
func (m *fakeMouse) MiddleRelease() error { return m.record("middle release") }
func (m *fakeMouse) Move(x, y int32) error {
	return m.record(fmt.Sprintf("move %d %d", x, y))
}
func (m *fakeMouse) Close() error { m.closed = true; return nil }

type fakes struct {
	keyboards []*fakeKeyboard
	mice      []*fakeMouse
	names     []string
}

func (f *fakes) factory() factory {
	return factory{
		keyboard: func(path string, name []byte) (keyboard, error) {
			k := &fakeKeyboard{}
			f.keyboards = append(f.keyboards, k)
			f.names = append(f.names, string(name))
			return k, nil
		},
		mouse: func(path string, name []byte) (mouse, error) {
			m := &fakeMouse{}
			f.mice = append(f.mice, m)
			f.names = append(f.names, string(name))
			return m, nil
		},
	}
}

func newTestSink(t *testing.T) (*Sink, *fakes) {
	t.Helper()
	f := &fakes{}
	s, err := newSink("/dev/uinput", "NW Keyboard", slog.New(slog.DiscardHandler), f.factory())
	require.NoError(t, err)
	return s, f
}

func TestRouting(t *testing.T) {
	s, f := newTestSink(t)
	assert.Equal(t, []string{"NW Keyboard", "NW Keyboard Mouse"}, f.names)

	events := []sink.Event{
		{Kind: sink.Key, Code: evdev.KEY_A, Value: 1},
		{Kind: sink.Key, Code: evdev.BTN_LEFT, Value: 1},
		{Kind: sink.Sync, Code: evdev.SYN_REPORT},
		{Kind: sink.Key, Code: evdev.BTN_RIGHT, Value: 1},
		{Kind: sink.Key, Code: evdev.BTN_RIGHT, Value: 0},
		{Kind: sink.Key, Code: evdev.BTN_MIDDLE, Value: 1},
		{Kind: sink.Key, Code: evdev.BTN_MIDDLE, Value: 0},
		{Kind: sink.RelativeMotion, Code: evdev.REL_X, Value: 5},
		{Kind: sink.RelativeMotion, Code: evdev.REL_Y, Value: -2},
		{Kind: sink.Key, Code: evdev.BTN_LEFT, Value: 0},
		{Kind: sink.Key, Code: evdev.KEY_A, Value: 0},
	}
	for _, ev := range events {
		require.NoError(t, s.Emit(ev.Kind, ev.Code, ev.Value))
	}

	assert.Equal(t, []string{
		fmt.Sprintf("down %d", evdev.KEY_A),
		fmt.Sprintf("up %d", evdev.KEY_A),
	}, f.keyboards[0].calls)
	assert.Equal(t, []string{
		"left press",
		"right press",
		"right release",
		"middle press",
		"middle release",
		"move 5 0",
		"move 0 -2",
		"left release",
	}, f.mice[0].calls)
}

func TestUnsupported(t *testing.T) {
	s, _ := newTestSink(t)
	assert.Error(t, s.Emit(sink.RelativeMotion, evdev.REL_WHEEL, 1))
	assert.Error(t, s.Emit(sink.Kind(7), 0, 0))
}

func TestMouseError(t *testing.T) {
	s, f := newTestSink(t)
	boom := errors.New("EBADF")
	f.mice[0].err = boom
	assert.ErrorIs(t, s.Emit(sink.Key, evdev.BTN_LEFT, 1), boom)
}

func TestShutdownAndRegister(t *testing.T) {
	s, f := newTestSink(t)

	require.NoError(t, s.EnsureRegistered())
	assert.Len(t, f.keyboards, 1)

	require.NoError(t, s.Shutdown())
	assert.True(t, f.keyboards[0].closed)
	assert.True(t, f.mice[0].closed)
	assert.Error(t, s.Emit(sink.Key, evdev.KEY_A, 1))

	require.NoError(t, s.EnsureRegistered())
	assert.Len(t, f.keyboards, 2)
	assert.Len(t, f.mice, 2)
}
