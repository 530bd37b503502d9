package packet

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"sync"
)

const (
	headerSize = 4

	// MaxSize bounds a single frame payload.
	MaxSize = 1024 * 1024
)

// ErrInvalidLength is returned for a zero or oversized length prefix.
var ErrInvalidLength = errors.New("invalid frame length")

// Conn reads and writes length-prefixed messages.
type Conn struct {
	rw io.ReadWriter

	wmu sync.Mutex
}

// NewConn wraps rw.
func NewConn(rw io.ReadWriter) *Conn { return &Conn{rw: rw} }

// WriteMessage writes b as one frame.
func (c *Conn) WriteMessage(b []byte) error {
	if len(b) == 0 || len(b) > MaxSize {
		return fmt.Errorf("%w: %d", ErrInvalidLength, len(b))
	}
	frame := make([]byte, headerSize+len(b))
	binary.BigEndian.PutUint32(frame, uint32(len(b)))
	copy(frame[headerSize:], b)

	c.wmu.Lock()
	defer c.wmu.Unlock()
	_, err := c.rw.Write(frame)
	return err
}

// ReadMessage blocks until one full frame is available.
//
// It returns io.EOF when the stream closes cleanly between frames and
// io.ErrUnexpectedEOF when it closes inside one.
func (c *Conn) ReadMessage() ([]byte, error) {
	var header [headerSize]byte
	if _, err := io.ReadFull(c.rw, header[:]); err != nil {
		return nil, err
	}
	n := binary.BigEndian.Uint32(header[:])
	if n == 0 || n > MaxSize {
		return nil, fmt.Errorf("%w: %d", ErrInvalidLength, n)
	}
	b := make([]byte, n)
	if _, err := io.ReadFull(c.rw, b); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.ErrUnexpectedEOF
		}
		return nil, err
	}
	return b, nil
}
