package nikon

import (
	"errors"
	"fmt"
)

// ErrHuffmanIncomplete is returned when a table's code-length
// distribution does not form a complete prefix code.
var ErrHuffmanIncomplete = errors.New("nikon: huffman table is not a complete prefix code")

// The six compiled-in Nikon code tables, selected by the maker note
// version and bit depth. Each begins with the count of codes per
// length 1..16 followed by the symbols in code order. A symbol's low
// nibble is the residual bit count and its high nibble a shift
// applied to the residual.
var nikonTables = [6]struct {
	bits    [16]byte
	huffval []byte
}{
	{ // 12-bit lossy
		[16]byte{0, 1, 5, 1, 1, 1, 1, 1, 1, 2, 0, 0, 0, 0, 0, 0},
		[]byte{5, 4, 3, 6, 2, 7, 1, 0, 8, 9, 11, 10, 12, 0},
	},
	{ // 12-bit lossy after split
		[16]byte{0, 1, 5, 1, 1, 1, 1, 1, 1, 2, 0, 0, 0, 0, 0, 0},
		[]byte{0x39, 0x5a, 0x38, 0x27, 0x16, 5, 4, 3, 2, 1, 0, 11, 12, 12},
	},
	{ // 12-bit lossless
		[16]byte{0, 1, 4, 2, 3, 1, 2, 0, 0, 0, 0, 0, 0, 0, 0, 0},
		[]byte{5, 4, 6, 3, 7, 2, 8, 1, 9, 0, 10, 11, 12},
	},
	{ // 14-bit lossy
		[16]byte{0, 1, 4, 3, 1, 1, 1, 1, 1, 2, 0, 0, 0, 0, 0, 0},
		[]byte{5, 6, 4, 7, 8, 3, 9, 2, 1, 0, 10, 11, 12, 13, 14},
	},
	{ // 14-bit lossy after split
		[16]byte{0, 1, 5, 1, 1, 1, 1, 1, 1, 1, 2, 0, 0, 0, 0, 0},
		[]byte{8, 0x5c, 0x4b, 0x3a, 0x29, 7, 6, 5, 4, 3, 2, 1, 0, 13, 14},
	},
	{ // 14-bit lossless
		[16]byte{0, 1, 4, 2, 2, 3, 1, 2, 0, 0, 0, 0, 0, 0, 0, 0},
		[]byte{7, 6, 8, 5, 9, 4, 10, 3, 11, 12, 2, 0, 1, 13, 14},
	},
}

const lutBits = 15

// HuffmanTable decodes one Nikon residual per call through a direct
// lookup on the next 15 bits of the stream. Each lookup entry packs
// the code length in the high byte and the symbol in the low byte.
type HuffmanTable struct {
	lut [1 << lutBits]uint16
}

// NewHuffmanTable builds the table for the given selector, 0 through 5.
func NewHuffmanTable(selector int) (*HuffmanTable, error) {
	if selector < 0 || selector >= len(nikonTables) {
		return nil, fmt.Errorf("nikon: huffman table selector %d out of range", selector)
	}
	t := nikonTables[selector]
	return newHuffmanTable(t.bits, t.huffval)
}

func newHuffmanTable(bits [16]byte, huffval []byte) (*HuffmanTable, error) {
	h := new(HuffmanTable)
	var code, filled uint32
	sym := 0
	for length := 1; length <= 16; length++ {
		code <<= 1
		for i := 0; i < int(bits[length-1]); i++ {
			if length > lutBits || sym >= len(huffval) {
				return nil, ErrHuffmanIncomplete
			}
			span := uint32(1) << (lutBits - length)
			start := code << (lutBits - length)
			if start+span > 1<<lutBits {
				// Over-full: this code would run past the table.
				return nil, ErrHuffmanIncomplete
			}
			entry := uint16(length)<<8 | uint16(huffval[sym])
			for j := start; j < start+span; j++ {
				h.lut[j] = entry
			}
			filled += span
			code++
			sym++
		}
	}
	if filled != 1<<lutBits {
		return nil, ErrHuffmanIncomplete
	}
	return h, nil
}

// Decode reads one Huffman-coded residual from the pump: the coded
// (length, shift) pair, then the raw residual bits, sign-extended.
func (h *HuffmanTable) Decode(p *BitPump) int32 {
	e := h.lut[p.Peek(lutBits)]
	p.Consume(uint32(e >> 8))
	sym := uint32(e & 0xFF)
	length := sym & 0x0F
	shift := sym >> 4

	var raw uint32
	if n := length - shift; n > 0 {
		raw = p.Peek(n)
		p.Consume(n)
	}
	diff := int32(((raw<<1)+1)<<shift) >> 1
	if length > 0 && diff&(1<<(length-1)) == 0 {
		sub := int32(1) << length
		if shift == 0 {
			sub--
		}
		diff -= sub
	}
	return diff
}
