// Package serial reads newline-terminated records from a serial device or stdin.
package serial

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"
	"unicode/utf8"
)

// MaxLineLength bounds a single record. Longer input is discarded up to the
// next newline and reported once as ErrLineTooLong.
const MaxLineLength = 4096

const readChunkSize = 512

// Source yields one record per call.
type Source interface {
	// ReadLine returns the next record without its terminator. It returns
	// ErrTimeout when no complete record arrived within the read timeout and
	// io.EOF once the transport is exhausted.
	ReadLine(ctx context.Context) ([]byte, error)

	// Close releases the transport.
	Close() error
}

type chunk struct {
	data []byte
	err  error
}

// LineReader frames an io.Reader into records with a bounded wait per call.
//
// A background goroutine owns the blocking reads so that ReadLine can give up
// after the timeout while keeping any partial bytes for the next call.
type LineReader struct {
	closer  io.Closer
	timeout time.Duration
	maxLine int

	chunks chan chunk
	done   chan struct{}
	once   sync.Once

	pending    []byte
	discarding bool
	readErr    error
}

var _ Source = (*LineReader)(nil)

// NewLineReader starts reading r. closer may be nil; timeout <= 0 waits forever.
func NewLineReader(r io.Reader, closer io.Closer, timeout time.Duration) *LineReader {
	lr := &LineReader{
		closer:  closer,
		timeout: timeout,
		maxLine: MaxLineLength,
		chunks:  make(chan chunk, 1),
		done:    make(chan struct{}),
	}
	go lr.readLoop(r)
	return lr
}

func (lr *LineReader) readLoop(r io.Reader) {
	buf := make([]byte, readChunkSize)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			data := make([]byte, n)
			copy(data, buf[:n])
			select {
			case lr.chunks <- chunk{data: data}:
			case <-lr.done:
				return
			}
		}
		if err != nil {
			select {
			case lr.chunks <- chunk{err: err}:
			case <-lr.done:
			}
			return
		}
		// A serial port with a read timeout returns (0, nil) when idle.
	}
}

// ReadLine implements Source.ReadLine.
func (lr *LineReader) ReadLine(ctx context.Context) ([]byte, error) {
	var deadline <-chan time.Time
	if lr.timeout > 0 {
		timer := time.NewTimer(lr.timeout)
		defer timer.Stop()
		deadline = timer.C
	}

	for {
		if line, ok, err := lr.nextRecord(); ok {
			return line, err
		}
		if lr.readErr != nil {
			return lr.finish()
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-lr.done:
			return nil, ErrClosed
		case <-deadline:
			return nil, ErrTimeout
		case c := <-lr.chunks:
			if c.err != nil {
				lr.readErr = c.err
				continue
			}
			lr.pending = append(lr.pending, c.data...)
		}
	}
}

// nextRecord extracts one complete record from pending, if there is one.
func (lr *LineReader) nextRecord() ([]byte, bool, error) {
	i := bytes.IndexByte(lr.pending, '\n')
	if i < 0 {
		if len(lr.pending) > lr.maxLine {
			lr.pending = lr.pending[:0]
			lr.discarding = true
		}
		return nil, false, nil
	}

	raw := lr.pending[:i]
	tooLong := lr.discarding || len(raw) > lr.maxLine
	var line []byte
	if !tooLong {
		line = bytes.TrimSuffix(bytes.Clone(raw), []byte{'\r'})
	}
	lr.pending = append(lr.pending[:0], lr.pending[i+1:]...)
	lr.discarding = false

	if tooLong {
		return nil, true, fmt.Errorf("%w: limit %d bytes", ErrLineTooLong, lr.maxLine)
	}
	return line, true, nil
}

// finish returns an unterminated trailing record once, then the read error.
func (lr *LineReader) finish() ([]byte, error) {
	if len(lr.pending) > 0 && !lr.discarding {
		line := bytes.TrimSuffix(bytes.Clone(lr.pending), []byte{'\r'})
		lr.pending = lr.pending[:0]
		return line, nil
	}
	lr.pending = lr.pending[:0]
	if errors.Is(lr.readErr, io.EOF) {
		return nil, io.EOF
	}
	return nil, fmt.Errorf("%w: %w", ErrTransport, lr.readErr)
}

// Close implements Source.Close.
func (lr *LineReader) Close() error {
	var err error
	lr.once.Do(func() {
		close(lr.done)
		if lr.closer != nil {
			err = lr.closer.Close()
		}
	})
	return err
}

// Decode validates a record as UTF-8 text.
func Decode(raw []byte) (string, error) {
	if !utf8.Valid(raw) {
		return "", fmt.Errorf("%w: %d bytes", ErrInvalidEncoding, len(raw))
	}
	return string(raw), nil
}
