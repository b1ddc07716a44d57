package nikon

import (
	"errors"
	"fmt"
)

// ErrBitPumpUnderrun is returned when the decode consumed more bits
// than the compressed strip provides.
var ErrBitPumpUnderrun = errors.New("nikon: compressed strip exhausted before last row")

// ErrOddWidth is returned for images whose width is not even: the
// predictor pairs advance two columns at a time, and an odd tail
// would leave samples unwritten.
var ErrOddWidth = errors.New("nikon: odd image width")

// Decompress decodes the compressed raw strip into width*height
// linearized samples in row-major sensor order. The decode is
// all-or-nothing: on any error the output is discarded.
//
// Two predictor chains run per row parity, one per column parity;
// each sample is the running sum of Huffman-coded residuals, clamped
// to the working bit depth and mapped through the linearization curve
// with dithering. When the state carries a split row, the table for
// selector+1 takes over from that row on.
func Decompress(strip []byte, width, height int, bps uint16, s *DecoderState) ([]uint16, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("nikon: invalid dimensions %dx%d", width, height)
	}
	if width%2 != 0 {
		return nil, fmt.Errorf("%w: %d", ErrOddWidth, width)
	}
	if s.Split != 0 && (s.Split < 0 || s.Split >= height) {
		return nil, fmt.Errorf("nikon: split row %d outside image of height %d", s.Split, height)
	}

	ht, err := NewHuffmanTable(s.Selector)
	if err != nil {
		return nil, err
	}
	pump := NewBitPump(strip)

	// The dither seed is the first 24 bits of the strip, peeked
	// before any consume. Consuming them first would change every
	// output sample.
	rand := pump.Peek(24)

	var predUp [2][2]int32
	for i := 0; i < 2; i++ {
		for j := 0; j < 2; j++ {
			predUp[i][j] = int32(s.VPred[i][j])
		}
	}

	out := make([]uint16, width*height)
	var predLeft [2]int32
	for row := 0; row < height; row++ {
		if s.Split > 0 && row == s.Split {
			ht, err = NewHuffmanTable(s.Selector + 1)
			if err != nil {
				return nil, err
			}
		}
		p := row & 1
		predUp[p][0] += ht.Decode(pump)
		predUp[p][1] += ht.Decode(pump)
		predLeft[0] = predUp[p][0]
		predLeft[1] = predUp[p][1]
		for col := 0; col < width; col += 2 {
			if col > 0 {
				predLeft[0] += ht.Decode(pump)
				predLeft[1] += ht.Decode(pump)
			}
			out[row*width+col] = s.Curve.Dither(clampBits(predLeft[0], bps), &rand)
			out[row*width+col+1] = s.Curve.Dither(clampBits(predLeft[1], bps), &rand)
		}
	}
	if pump.Underrun() {
		return nil, ErrBitPumpUnderrun
	}
	return out, nil
}

// clampBits limits v to the inclusive range [0, 2^bps-1].
func clampBits(v int32, bps uint16) uint16 {
	if v < 0 {
		return 0
	}
	if limit := int32(1)<<bps - 1; v > limit {
		return uint16(limit)
	}
	return uint16(v)
}
