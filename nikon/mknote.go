// Package nikon implements the Nikon-specific half of NEF decoding:
// the decoder state stored in maker note tag 0x96, the predictive
// Huffman decompressor for the raw strip, and the linearization curve
// with its dither source.
package nikon

import (
	"encoding/binary"
	"fmt"

	"github.com/Lemminkyinen/read-nef/tiff"
)

// UnsupportedVersionError reports a maker note decoder blob whose
// version combination is not handled.
type UnsupportedVersionError struct {
	V0, V1 byte
}

func (e *UnsupportedVersionError) Error() string {
	return fmt.Sprintf("nikon: unsupported decoder state version %#02x %#02x", e.V0, e.V1)
}

// Offset of the split-row field inside the 0x96 blob for the maker
// note versions that carry one.
const splitOffset = 562

// Maximum curve point count accepted in direct storage form.
const maxCurveSize = 0x4001

// DecoderState is the parsed content of maker note tag 0x96 plus the
// derived decode parameters: the initial vertical predictors, the
// Huffman table selector, the optional mid-image table split row, and
// the linearization curve already extended to the working range.
type DecoderState struct {
	Version  [2]byte
	VPred    [2][2]uint16
	Split    int
	Selector int
	Curve    *Curve
}

// ParseMakerNote locates tag 0x96 in the maker note directory and
// parses the decoder state. bps is the raw directory's BitsPerSample,
// which selects between the 12- and 14-bit table groups.
func ParseMakerNote(buf []byte, mn *tiff.Ifd, bps uint16) (*DecoderState, error) {
	e := mn.Get(tiff.NikonDecoderState)
	if e == nil {
		return nil, fmt.Errorf("nikon: maker note has no decoder state (tag 0x%04X)", tiff.NikonDecoderState)
	}
	data, err := e.Data(buf)
	if err != nil {
		return nil, fmt.Errorf("nikon: decoder state data: %w", err)
	}
	return parseDecoderState(data, bps)
}

func parseDecoderState(data []byte, bps uint16) (*DecoderState, error) {
	r := tiff.NewReader(data, 0, binary.LittleEndian)
	v0, err := r.Uint8()
	if err != nil {
		return nil, fmt.Errorf("nikon: decoder state: %w", err)
	}
	v1, err := r.Uint8()
	if err != nil {
		return nil, fmt.Errorf("nikon: decoder state: %w", err)
	}

	s := &DecoderState{Version: [2]byte{v0, v1}}
	for i := 0; i < 2; i++ {
		for j := 0; j < 2; j++ {
			v, err := r.Uint16()
			if err != nil {
				return nil, fmt.Errorf("nikon: vertical predictors: %w", err)
			}
			s.VPred[i][j] = v
		}
	}
	csize, err := r.Uint16()
	if err != nil {
		return nil, fmt.Errorf("nikon: curve size: %w", err)
	}

	if v0 == 0x46 {
		s.Selector = 2
	}
	if bps == 14 {
		s.Selector += 3
	}

	max := int(1<<bps) & 0x7FFF
	if v1 == 0x40 {
		// 14-bit lossless variant stores a quarter-range curve.
		max /= 4
	}
	step := 0
	if csize > 1 {
		step = max / (int(csize) - 1)
	}

	var samples []uint16
	interpolated := v0 == 0x44 && v1 == 0x20 && step > 0
	if interpolated {
		samples, err = interpolateCurve(r, int(csize), step, max)
	} else {
		samples, err = directCurve(r, v0, v1, int(csize), max)
	}
	if err != nil {
		return nil, err
	}

	if v0 == 0x44 && (v1 == 0x20 || v1 == 0x40) {
		if len(data) < splitOffset+2 {
			return nil, fmt.Errorf("nikon: decoder state has no split field: %w", tiff.ErrOutOfRange)
		}
		s.Split = int(binary.LittleEndian.Uint16(data[splitOffset:]))
	}

	// A flat tail means the usable range ends early.
	for max > 2 && samples[max-2] == samples[max-1] {
		max--
	}
	s.Curve = NewCurve(samples[:max])
	return s, nil
}

// directCurve reads the stored samples and extends them to max by
// repeating the nearest stored index. Lossless files (version 0x46)
// store no curve at all and map linearly.
func directCurve(r *tiff.Reader, v0, v1 byte, csize, max int) ([]uint16, error) {
	samples := make([]uint16, max)
	if v0 == 0x46 {
		for i := range samples {
			samples[i] = uint16(i)
		}
		return samples, nil
	}
	if csize > maxCurveSize {
		return nil, &UnsupportedVersionError{V0: v0, V1: v1}
	}
	var last uint16
	for i := 0; i < max; i++ {
		if i < csize {
			v, err := r.Uint16()
			if err != nil {
				return nil, fmt.Errorf("nikon: curve point %d: %w", i, err)
			}
			last = v
		}
		samples[i] = last
	}
	return samples, nil
}

// interpolateCurve reads step-spaced anchor samples and fills the
// points between each pair linearly.
func interpolateCurve(r *tiff.Reader, csize, step, max int) ([]uint16, error) {
	anchors := make([]uint16, max+step+1)
	for i := 0; i < csize; i++ {
		v, err := r.Uint16()
		if err != nil {
			return nil, fmt.Errorf("nikon: curve anchor %d: %w", i, err)
		}
		if i*step < len(anchors) {
			anchors[i*step] = v
		}
	}
	samples := make([]uint16, max)
	for i := 0; i < max; i++ {
		lo := i - i%step
		samples[i] = uint16((uint32(anchors[lo])*uint32(step-i%step) +
			uint32(anchors[lo+step])*uint32(i%step)) / uint32(step))
	}
	return samples, nil
}
