package tiff

import (
	"encoding/binary"
	"errors"
)

// ErrOutOfRange is returned whenever a read or an entry reference
// reaches outside the file buffer.
var ErrOutOfRange = errors.New("tiff: reference outside buffer")

// Reader reads integers of either byte order from a byte slice at an
// advancing cursor. Every read is bounds-checked; a read past the end
// of the buffer returns ErrOutOfRange, never a zero value.
type Reader struct {
	buf   []byte
	off   int
	Order binary.ByteOrder
}

// NewReader returns a Reader positioned at off.
func NewReader(buf []byte, off int, order binary.ByteOrder) *Reader {
	return &Reader{buf: buf, off: off, Order: order}
}

// Offset returns the current cursor position.
func (r *Reader) Offset() int {
	return r.off
}

// Skip advances the cursor n bytes without reading.
func (r *Reader) Skip(n int) error {
	if n < 0 || r.off+n > len(r.buf) {
		return ErrOutOfRange
	}
	r.off += n
	return nil
}

func (r *Reader) slice(n int) ([]byte, error) {
	if r.off < 0 || r.off+n > len(r.buf) {
		return nil, ErrOutOfRange
	}
	return r.buf[r.off : r.off+n], nil
}

// Uint8 reads one byte and advances the cursor.
func (r *Reader) Uint8() (uint8, error) {
	b, err := r.slice(1)
	if err != nil {
		return 0, err
	}
	r.off++
	return b[0], nil
}

// Uint16 reads a 16-bit integer and advances the cursor.
func (r *Reader) Uint16() (uint16, error) {
	b, err := r.slice(2)
	if err != nil {
		return 0, err
	}
	r.off += 2
	return r.Order.Uint16(b), nil
}

// Uint32 reads a 32-bit integer and advances the cursor.
func (r *Reader) Uint32() (uint32, error) {
	b, err := r.slice(4)
	if err != nil {
		return 0, err
	}
	r.off += 4
	return r.Order.Uint32(b), nil
}

// PeekUint16 reads a 16-bit integer without advancing the cursor.
func (r *Reader) PeekUint16() (uint16, error) {
	b, err := r.slice(2)
	if err != nil {
		return 0, err
	}
	return r.Order.Uint16(b), nil
}

// PeekUint32 reads a 32-bit integer without advancing the cursor.
func (r *Reader) PeekUint32() (uint32, error) {
	b, err := r.slice(4)
	if err != nil {
		return 0, err
	}
	return r.Order.Uint32(b), nil
}

// Bytes reads n raw bytes and advances the cursor.
func (r *Reader) Bytes(n int) ([]byte, error) {
	b, err := r.slice(n)
	if err != nil {
		return nil, err
	}
	r.off += n
	return b, nil
}

// IntValue reifies a 1 to 4 byte little-endian value into a uint32,
// zero-extending on the high side. IFD entries store short inline
// values this way.
func IntValue(b []byte) uint32 {
	var tmp [4]byte
	copy(tmp[:], b)
	return binary.LittleEndian.Uint32(tmp[:])
}
