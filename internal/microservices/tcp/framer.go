package tcp

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// MaxMessageSize is the default cap on one request line.
const MaxMessageSize = 1024 * 1024 // 1MB

// ErrFrameTooLarge is returned for a line longer than the framer's limit.
// The line is consumed, so the next ReadFrame starts at the following request.
var ErrFrameTooLarge = errors.New("frame exceeds maximum message size")

// Framer splits a stream into newline-terminated JSON messages and writes
// responses in the same format.
type Framer struct {
	r       *bufio.Reader
	w       *bufio.Writer
	maxSize int
	buf     []byte
}

func NewFramer(rw io.ReadWriter, maxSize int) *Framer {
	if maxSize <= 0 {
		maxSize = MaxMessageSize
	}
	return &Framer{
		r:       bufio.NewReader(rw),
		w:       bufio.NewWriter(rw),
		maxSize: maxSize,
	}
}

// ReadFrame returns the next line without its terminator. The returned slice
// is only valid until the next call.
//
// io.EOF means the peer closed between messages; io.ErrUnexpectedEOF means it
// closed in the middle of one. Partial lines are never returned.
func (f *Framer) ReadFrame() ([]byte, error) {
	f.buf = f.buf[:0]
	tooLarge := false
	// room for the content plus "\r\n"
	limit := f.maxSize + 2

	for {
		chunk, err := f.r.ReadSlice('\n')
		if !tooLarge {
			if len(f.buf)+len(chunk) > limit {
				tooLarge = true
				f.buf = f.buf[:0]
			} else {
				f.buf = append(f.buf, chunk...)
			}
		}
		if err == nil {
			break
		}
		if errors.Is(err, bufio.ErrBufferFull) {
			continue
		}
		if errors.Is(err, io.EOF) {
			if tooLarge || len(f.buf) > 0 {
				return nil, io.ErrUnexpectedEOF
			}
			return nil, io.EOF
		}
		return nil, err
	}

	if tooLarge {
		return nil, ErrFrameTooLarge
	}
	line := bytes.TrimSuffix(f.buf, []byte("\n"))
	line = bytes.TrimSuffix(line, []byte("\r"))
	if len(line) > f.maxSize {
		return nil, ErrFrameTooLarge
	}
	return line, nil
}

// WriteResponse writes resp as one JSON line and flushes it.
func (f *Framer) WriteResponse(resp Response) error {
	data, err := json.Marshal(resp)
	if err != nil {
		// a handler result that cannot be encoded still gets a reply
		data, _ = json.Marshal(Failure(fmt.Sprintf("failed to encode result: %v", err)))
	}
	return f.writeLine(data)
}

// WriteRequest writes req as one JSON line and flushes it. Used by clients.
func (f *Framer) WriteRequest(req Request) error {
	data, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}
	return f.writeLine(data)
}

func (f *Framer) writeLine(data []byte) error {
	if _, err := f.w.Write(data); err != nil {
		return fmt.Errorf("failed to write data: %w", err)
	}
	if err := f.w.WriteByte('\n'); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}
	if err := f.w.Flush(); err != nil {
		return fmt.Errorf("failed to flush writer: %w", err)
	}
	return nil
}
