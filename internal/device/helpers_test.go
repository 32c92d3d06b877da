package device

import (
	"encoding/binary"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	evdev "github.com/holoplot/go-evdev"
	"go.uber.org/zap"

	"github.com/ledkeys/ledkeys/internal/input"
	"github.com/ledkeys/ledkeys/internal/source"
)

var testLogger = zap.NewNop().Sugar()

// record encodes one raw input event the way the kernel lays it out.
func record(typ evdev.EvType, code evdev.EvCode, value int32) []byte {
	b := make([]byte, input.RecordSize)
	binary.LittleEndian.PutUint16(b[16:], uint16(typ))
	binary.LittleEndian.PutUint16(b[18:], uint16(code))
	binary.LittleEndian.PutUint32(b[20:], uint32(value))
	return b
}

func keyDown(code evdev.EvCode) []byte {
	return record(evdev.EV_KEY, code, input.ValuePressed)
}

// fakeDevices hands out in-memory pipes instead of device files.
type fakeDevices struct {
	mu      sync.Mutex
	writers map[string]*io.PipeWriter
	opens   map[string]int
	fail    map[string]error
}

func newFakeDevices() *fakeDevices {
	return &fakeDevices{
		writers: make(map[string]*io.PipeWriter),
		opens:   make(map[string]int),
		fail:    make(map[string]error),
	}
}

func (f *fakeDevices) open(path string) (io.ReadCloser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.fail[path]; ok {
		return nil, err
	}
	pr, pw := io.Pipe()
	f.writers[path] = pw
	f.opens[path]++
	return pr, nil
}

func (f *fakeDevices) setFail(path string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err == nil {
		delete(f.fail, path)
	} else {
		f.fail[path] = err
	}
}

func (f *fakeDevices) writer(t *testing.T, path string) *io.PipeWriter {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	pw, ok := f.writers[path]
	if !ok {
		t.Fatalf("device %s was never opened", path)
	}
	return pw
}

func (f *fakeDevices) openCount(path string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.opens[path]
}

// write feeds bytes into a device, failing the test if the session is gone.
func (f *fakeDevices) write(t *testing.T, path string, chunks ...[]byte) {
	t.Helper()
	pw := f.writer(t, path)
	for _, c := range chunks {
		if _, err := pw.Write(c); err != nil {
			t.Fatalf("write to %s: %v", path, err)
		}
	}
}

// closed reports whether the reading side of a device has been closed.
func (f *fakeDevices) closed(t *testing.T, path string) bool {
	t.Helper()
	_, err := f.writer(t, path).Write(record(evdev.EV_SYN, 0, 0))
	return errors.Is(err, io.ErrClosedPipe)
}

func nextPress(t *testing.T, presses <-chan source.Press) source.Press {
	t.Helper()
	select {
	case p := <-presses:
		return p
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for press")
		return source.Press{}
	}
}

func expectNoPress(t *testing.T, presses <-chan source.Press) {
	t.Helper()
	select {
	case p := <-presses:
		t.Fatalf("unexpected press %+v", p)
	case <-time.After(50 * time.Millisecond):
	}
}

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(5 * time.Millisecond)
	}
}
