package parser

import (
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/spaghettifunk/anima-loader/engine/core"
	"github.com/spaghettifunk/anima-loader/engine/resources"
)

type State uint8

const (
	// Loader has not parsed yet
	StateIdle State = iota
	// Stream is being acquired from the origin
	StateOpening
	// Decoder is consuming the stream
	StateParsing
	// Stream is being released
	StateClosing
	// Last parse succeeded
	StateDone
	// Last parse failed
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateOpening:
		return "opening"
	case StateParsing:
		return "parsing"
	case StateClosing:
		return "closing"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Decoder turns the bytes of one format into the decoder's own result.
// Errors that do not already carry a kind are reported as core.ErrFormat.
type Decoder interface {
	Decode(s *Stream) error
}

// DecoderFunc adapts a plain function to Decoder.
type DecoderFunc func(s *Stream) error

func (f DecoderFunc) Decode(s *Stream) error {
	return f(s)
}

// Loader binds one origin to one decoder. Every Parse call opens the origin,
// runs the decoder and closes the stream again, whatever happened before.
// A Loader must not be parsed from several goroutines at once.
type Loader struct {
	id        uuid.UUID
	origin    resources.Origin
	locator   *resources.Locator
	decoder   Decoder
	state     State
	maxString int
}

type LoaderOption func(*Loader)

// WithStringLimit bounds null-terminated strings read by the decoder.
func WithStringLimit(n int) LoaderOption {
	return func(l *Loader) {
		l.maxString = n
	}
}

func NewLoader(origin resources.Origin, locator *resources.Locator, decoder Decoder, opts ...LoaderOption) *Loader {
	l := &Loader{
		id:        uuid.New(),
		origin:    origin,
		locator:   locator,
		decoder:   decoder,
		state:     StateIdle,
		maxString: core.DefaultMaxStringLength,
	}
	for _, o := range opts {
		o(l)
	}
	return l
}

func (l *Loader) ID() uuid.UUID {
	return l.id
}

func (l *Loader) Origin() resources.Origin {
	return l.origin
}

func (l *Loader) Locator() *resources.Locator {
	return l.locator
}

func (l *Loader) State() State {
	return l.state
}

func (l *Loader) FilePath() (string, bool) {
	return l.locator.FilePath(l.origin)
}

func (l *Loader) ParentFolder() (string, bool) {
	return l.locator.ParentFolder(l.origin)
}

// Parse runs Opening, Parsing and Closing once. On success it returns the
// loader itself. On failure the original cause is returned wrapped in a
// *core.ParseError. A failure to close the stream is logged and never
// returned.
func (l *Loader) Parse() (*Loader, error) {
	logger := l.sessionLogger()
	clock := core.NewClock()
	clock.Start()

	var (
		rc     io.ReadCloser
		stream *Stream
		cause  error
	)

	l.state = StateOpening
	if l.locator == nil {
		cause = fmt.Errorf("%w: loader has no locator", core.ErrNotFound)
	} else {
		rc, cause = l.locator.Open(l.origin)
	}

	if cause == nil {
		l.state = StateParsing
		stream = NewStream(rc, WithMaxStringLength(l.maxString))
		cause = l.decode(stream)
	}

	l.state = StateClosing
	if rc != nil {
		if err := rc.Close(); err != nil {
			logger.Warn("failed to release stream", "err", fmt.Errorf("%w: %w", core.ErrClose, err))
		}
	}

	clock.Stop()
	var consumed int64
	if stream != nil {
		consumed = stream.Pos()
	}
	core.MetricsRecordParse(clock.Elapsed(), consumed, cause != nil)

	if cause != nil {
		l.state = StateFailed
		logger.Error("parse error", "err", cause)
		return nil, &core.ParseError{Origin: l.origin.String(), Cause: cause}
	}
	l.state = StateDone
	logger.Debug("parsed", "bytes", consumed, "elapsed", clock.Elapsed())
	return l, nil
}

func (l *Loader) decode(s *Stream) (err error) {
	if l.decoder == nil {
		return fmt.Errorf("%w: loader has no decoder", core.ErrFormat)
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: decoder panic at offset %d: %v", core.ErrFormat, s.Pos(), r)
		}
	}()
	err = l.decoder.Decode(s)
	if err != nil && !errors.Is(err, core.ErrFormat) && !errors.Is(err, core.ErrIO) && !errors.Is(err, core.ErrNotFound) {
		err = fmt.Errorf("%w: %w", core.ErrFormat, err)
	}
	return err
}

// sessionLogger returns a logger tagged with this loader's session.
func (l *Loader) sessionLogger() *log.Logger {
	return core.LogWith("session", l.id.String()[:8], "origin", l.origin.String())
}
