package parser

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/spaghettifunk/anima-loader/engine/core"
)

// Stream reads little-endian primitives from an open byte stream. Every read
// consumes exactly the bytes of its value and advances Pos. A stream that
// ends inside a value is reported as core.ErrShortRead, never as a sentinel
// byte value.
type Stream struct {
	r         *bufio.Reader
	pos       int64
	maxString int
	scratch   [4]byte
	str       bytes.Buffer
}

type StreamOption func(*Stream)

// WithMaxStringLength bounds ReadCString. Values <= 0 keep the default.
func WithMaxStringLength(n int) StreamOption {
	return func(s *Stream) {
		if n > 0 {
			s.maxString = n
		}
	}
}

func NewStream(r io.Reader, opts ...StreamOption) *Stream {
	s := &Stream{
		r:         bufio.NewReader(r),
		maxString: core.DefaultMaxStringLength,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Pos returns the number of bytes consumed so far.
func (s *Stream) Pos() int64 {
	return s.pos
}

// Read implements io.Reader so text formats can scan the same stream.
func (s *Stream) Read(p []byte) (int, error) {
	n, err := s.r.Read(p)
	s.pos += int64(n)
	if err != nil && err != io.EOF {
		err = fmt.Errorf("%w: %w", core.ErrIO, err)
	}
	return n, err
}

// ReadByte implements io.ByteReader.
func (s *Stream) ReadByte() (byte, error) {
	b, err := s.r.ReadByte()
	if err != nil {
		return 0, s.readErr("byte", 0, err)
	}
	s.pos++
	return b, nil
}

// readExact fills buf or reports how the stream ended.
func (s *Stream) readExact(what string, buf []byte) error {
	n, err := io.ReadFull(s.r, buf)
	s.pos += int64(n)
	if err != nil {
		return s.readErr(what, n, err)
	}
	return nil
}

func (s *Stream) readErr(what string, got int, err error) error {
	switch {
	case errors.Is(err, io.EOF) && got == 0:
		return fmt.Errorf("%w: %s at offset %d: %w", core.ErrShortRead, what, s.pos, io.EOF)
	case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		return fmt.Errorf("%w: %s at offset %d: %w", core.ErrShortRead, what, s.pos-int64(got), io.ErrUnexpectedEOF)
	default:
		return fmt.Errorf("%w: %s at offset %d: %w", core.ErrIO, what, s.pos-int64(got), err)
	}
}

// ReadInt32 reads b0 | b1<<8 | b2<<16 | b3<<24 with the sign in b3.
func (s *Stream) ReadInt32() (int32, error) {
	u, err := s.ReadUint32()
	return int32(u), err
}

func (s *Stream) ReadUint32() (uint32, error) {
	buf := s.scratch[:4]
	if err := s.readExact("int32", buf); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(buf), nil
}

// ReadInt16 reads a signed little-endian 16 bit value.
func (s *Stream) ReadInt16() (int16, error) {
	u, err := s.ReadUint16()
	return int16(u), err
}

// ReadUint16 reads b0 | b1<<8 without sign extension.
func (s *Stream) ReadUint16() (uint16, error) {
	buf := s.scratch[:2]
	if err := s.readExact("int16", buf); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(buf), nil
}

// ReadFloat32 reinterprets the bits of ReadInt32 as an IEEE-754 float.
func (s *Stream) ReadFloat32() (float32, error) {
	u, err := s.ReadUint32()
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(u), nil
}

// ReadUint8 reads a single unsigned byte.
func (s *Stream) ReadUint8() (uint8, error) {
	return s.ReadByte()
}

// ReadCString reads bytes up to a 0x00 terminator. The terminator is consumed
// and not returned. Strings longer than the configured maximum fail with
// core.ErrStringTooLong; a stream ending before the terminator fails with
// core.ErrShortRead.
func (s *Stream) ReadCString() (string, error) {
	s.str.Reset()
	start := s.pos
	for {
		b, err := s.r.ReadByte()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return "", fmt.Errorf("%w: unterminated string at offset %d: %w", core.ErrShortRead, start, io.ErrUnexpectedEOF)
			}
			return "", fmt.Errorf("%w: string at offset %d: %w", core.ErrIO, start, err)
		}
		s.pos++
		if b == 0 {
			return s.str.String(), nil
		}
		if s.str.Len() >= s.maxString {
			return "", fmt.Errorf("%w: string at offset %d longer than %d bytes", core.ErrStringTooLong, start, s.maxString)
		}
		s.str.WriteByte(b)
	}
}

// ReadBytes reads exactly n bytes.
func (s *Stream) ReadBytes(n int) ([]byte, error) {
	if n < 0 {
		return nil, fmt.Errorf("%w: negative length %d at offset %d", core.ErrFormat, n, s.pos)
	}
	buf := make([]byte, n)
	if err := s.readExact("bytes", buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// Skip discards exactly n bytes.
func (s *Stream) Skip(n int64) error {
	if n < 0 {
		return fmt.Errorf("%w: negative skip %d at offset %d", core.ErrFormat, n, s.pos)
	}
	got, err := s.r.Discard(int(n))
	s.pos += int64(got)
	if err != nil {
		return s.readErr("skip", got, err)
	}
	return nil
}

// Errorf builds a format error annotated with the current stream offset.
func (s *Stream) Errorf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: offset %d: %s", core.ErrFormat, s.pos, fmt.Sprintf(format, args...))
}
