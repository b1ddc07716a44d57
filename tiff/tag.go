package tiff

import (
	"encoding/binary"
	"fmt"
	"strings"
	"unicode"
)

// DataType is the 2-byte type field of an IFD entry (1 through 12 in
// TIFF 6.0). Unrecognized values are preserved and have size zero.
type DataType uint16

const (
	DTByte      DataType = 1
	DTAscii     DataType = 2
	DTShort     DataType = 3
	DTLong      DataType = 4
	DTRational  DataType = 5
	DTSByte     DataType = 6
	DTUndefined DataType = 7
	DTSShort    DataType = 8
	DTSLong     DataType = 9
	DTSRational DataType = 10
	DTFloat     DataType = 11
	DTDouble    DataType = 12
)

var typeSize = map[DataType]uint32{
	DTByte:      1,
	DTAscii:     1,
	DTShort:     2,
	DTLong:      4,
	DTRational:  8,
	DTSByte:     1,
	DTUndefined: 1,
	DTSShort:    2,
	DTSLong:     4,
	DTSRational: 8,
	DTFloat:     4,
	DTDouble:    8,
}

// Size returns the byte size of a single component of this type, or 0
// for an unrecognized type.
func (t DataType) Size() uint32 {
	return typeSize[t]
}

// Entry is one parsed 12-byte IFD record. Value holds the raw 4-byte
// value-or-offset field; BaseOffset is the base of the enclosing IFD,
// against which offset-form values resolve (Nikon maker notes store
// offsets relative to their own TIFF header, not to the file start).
type Entry struct {
	Tag        uint16
	Type       DataType
	Count      uint32
	Value      [4]byte
	BaseOffset uint32
}

// DataLength returns Count times the component size of Type.
func (e *Entry) DataLength() uint32 {
	return e.Count * e.Type.Size()
}

// IsOffset reports whether the value field holds an offset rather than
// the data itself.
func (e *Entry) IsOffset() bool {
	return e.DataLength() > 4
}

// Offset returns the value field as an integer. For offset-form
// entries this is the offset relative to BaseOffset.
func (e *Entry) Offset() uint32 {
	return IntValue(e.Value[:])
}

// Data resolves the entry's value bytes against buf: the inline bytes
// truncated to DataLength for short values, or the referenced slice
// for offset-form entries.
func (e *Entry) Data(buf []byte) ([]byte, error) {
	n := e.DataLength()
	if !e.IsOffset() {
		return e.Value[:n], nil
	}
	start := uint64(e.BaseOffset) + uint64(e.Offset())
	end := start + uint64(n)
	if end > uint64(len(buf)) {
		return nil, ErrOutOfRange
	}
	return buf[start:end], nil
}

// Uint returns the i'th component as an unsigned integer. Only the
// byte, short and long types are supported.
func (e *Entry) Uint(buf []byte, i int) (uint32, error) {
	if i < 0 || uint32(i) >= e.Count {
		return 0, fmt.Errorf("tiff: component %d out of range for tag 0x%04X", i, e.Tag)
	}
	data, err := e.Data(buf)
	if err != nil {
		return 0, err
	}
	switch e.Type {
	case DTByte:
		return uint32(data[i]), nil
	case DTShort:
		return uint32(binary.LittleEndian.Uint16(data[2*i:])), nil
	case DTLong:
		return binary.LittleEndian.Uint32(data[4*i:]), nil
	}
	return 0, fmt.Errorf("tiff: tag 0x%04X has non-integer type %d", e.Tag, e.Type)
}

// Rat returns the i'th component as a numerator-denominator pair.
// Only the unsigned rational type is supported.
func (e *Entry) Rat(buf []byte, i int) (num, den uint32, err error) {
	if e.Type != DTRational {
		return 0, 0, fmt.Errorf("tiff: tag 0x%04X is not rational", e.Tag)
	}
	if i < 0 || uint32(i) >= e.Count {
		return 0, 0, fmt.Errorf("tiff: component %d out of range for tag 0x%04X", i, e.Tag)
	}
	data, err := e.Data(buf)
	if err != nil {
		return 0, 0, err
	}
	num = binary.LittleEndian.Uint32(data[8*i:])
	den = binary.LittleEndian.Uint32(data[8*i+4:])
	return num, den, nil
}

// StringVal returns the entry's value as an ASCII string with the
// trailing NUL stripped.
func (e *Entry) StringVal(buf []byte) (string, error) {
	if e.Type != DTAscii {
		return "", fmt.Errorf("tiff: tag 0x%04X is not an ASCII string", e.Tag)
	}
	data, err := e.Data(buf)
	if err != nil {
		return "", err
	}
	return strings.TrimRight(string(data), "\x00"), nil
}

// String returns a short description of the entry for directory dumps.
func (e *Entry) String() string {
	return fmt.Sprintf("Entry{Tag=0x%04X %s, Type=%d, Count=%d, Value=% X}",
		e.Tag, TagName(e.Tag), e.Type, e.Count, e.Value)
}

// Describe formats the entry with its value resolved against buf.
func (e *Entry) Describe(buf []byte) string {
	var val string
	data, err := e.Data(buf)
	switch {
	case err != nil:
		val = "<" + err.Error() + ">"
	case e.Type == DTAscii:
		val = printable(data)
	case e.Type == DTByte || e.Type == DTShort || e.Type == DTLong:
		parts := make([]string, 0, 8)
		for i := 0; uint32(i) < e.Count && i < 8; i++ {
			u, err := e.Uint(buf, i)
			if err != nil {
				break
			}
			parts = append(parts, fmt.Sprint(u))
		}
		if uint32(len(parts)) < e.Count {
			parts = append(parts, "...")
		}
		val = strings.Join(parts, " ")
	default:
		val = fmt.Sprintf("%d bytes", e.DataLength())
	}
	return fmt.Sprintf("0x%04X %-26s %s", e.Tag, TagName(e.Tag), val)
}

func printable(in []byte) string {
	var b strings.Builder
	b.WriteByte('"')
	for _, c := range in {
		if unicode.IsPrint(rune(c)) {
			b.WriteByte(c)
		}
	}
	b.WriteByte('"')
	return b.String()
}
