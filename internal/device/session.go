package device

import (
	"errors"
	"io"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ledkeys/ledkeys/internal/input"
	"github.com/ledkeys/ledkeys/internal/source"
)

// readChunk is how much a session asks for per read. The kernel hands out
// whole records, but nothing here depends on that.
const readChunk = 64 * input.RecordSize

// sessionExit is posted by a session's reader when its source fails or ends.
type sessionExit struct {
	session *session
	err     error // nil on EOF
}

// session reads one event device and emits its key presses.
type session struct {
	path   string
	rc     io.ReadCloser
	parser input.Parser
	logger *zap.SugaredLogger

	done      chan struct{}
	closeOnce sync.Once
	closeErr  error
}

func newSession(path string, rc io.ReadCloser, logger *zap.SugaredLogger) *session {
	return &session{
		path:   path,
		rc:     rc,
		logger: logger,
		done:   make(chan struct{}),
	}
}

// run reads until the source fails or the session is closed. It must be
// started on its own goroutine.
func (s *session) run(presses chan<- source.Press, exits chan<- sessionExit) {
	buf := make([]byte, readChunk)
	for {
		n, err := s.rc.Read(buf)
		if n > 0 && !s.emit(buf[:n], presses) {
			return
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				err = nil
			}
			select {
			case exits <- sessionExit{session: s, err: err}:
			case <-s.done:
			}
			return
		}
	}
}

// emit feeds a chunk through the parser and forwards bound key presses. It
// returns false once the session has been closed.
func (s *session) emit(chunk []byte, presses chan<- source.Press) bool {
	for _, rec := range s.parser.Feed(chunk) {
		if !rec.IsKeyPress() {
			continue
		}
		sym, ok := input.Symbol(rec.Code)
		if !ok {
			s.logger.Debugw("Unbound key", "device", s.path, "record", rec.String())
			continue
		}

		select {
		case <-s.done:
			return false
		default:
		}

		select {
		case presses <- source.Press{Symbol: sym, Device: s.path, Time: time.Now()}:
		case <-s.done:
			return false
		}
	}
	return true
}

// Close stops the session and releases its source. Safe to call more than
// once; only the first call closes the reader.
func (s *session) Close() error {
	s.closeOnce.Do(func() {
		close(s.done)
		s.closeErr = s.rc.Close()
		if errors.Is(s.closeErr, os.ErrClosed) {
			s.closeErr = nil
		}
	})
	return s.closeErr
}
