// Package nef decodes Nikon NEF raw files into a plane of linearized
// 16-bit sensor samples. Parse walks the TIFF/EP directory graph and
// locates the raw image directory and the Nikon maker note; DecodeRaw
// drives the predictive Huffman decompressor over the raw strip.
package nef

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/Lemminkyinen/read-nef/nikon"
	"github.com/Lemminkyinen/read-nef/tiff"
)

var leMagic = []byte{0x49, 0x49, 0x2A, 0x00}

// File is a parsed NEF container. The buffer is borrowed, read-only,
// for the lifetime of the File.
type File struct {
	// Ifds holds every directory discovered in the file, in
	// traversal order.
	Ifds []*tiff.Ifd

	Width         uint32
	Height        uint32
	BitsPerSample uint16

	buf         []byte
	raw         *tiff.Ifd
	makerNote   *tiff.Ifd
	stripOffset uint32
	stripCount  uint32
}

// RawImage is the decoded sensor plane: Samples holds Width*Height
// values in row-major order, in the sensor's native CFA pattern.
type RawImage struct {
	Width   uint32
	Height  uint32
	Samples []uint16
}

// Parse reads the NEF directory structure from buf and locates the
// raw image directory, its strip, and the Nikon maker note. Only
// little-endian files are supported; a big-endian header is rejected
// as bad magic.
func Parse(buf []byte) (*File, error) {
	if len(buf) < 8 || !bytes.Equal(buf[:4], leMagic) {
		return nil, &ParseError{Kind: KindBadMagic, Err: fmt.Errorf("no little-endian TIFF header")}
	}
	first := binary.LittleEndian.Uint32(buf[4:8])
	root := uint32(0)
	if first != 8 {
		root = first
	}
	ifds, err := tiff.Parse(buf, root)
	if err != nil {
		return nil, classify(err)
	}

	f := &File{Ifds: ifds, buf: buf}
	if f.raw = selectRawIfd(buf, ifds); f.raw == nil {
		return nil, missingTag(tiff.StripOffsets)
	}
	for _, d := range ifds {
		if d.Kind == tiff.NikonMakerNote {
			f.makerNote = d
			break
		}
	}
	if f.makerNote == nil {
		return nil, missingTag(tiff.MakerNote)
	}

	if f.Width, err = requiredUint(buf, f.raw, tiff.ImageWidth); err != nil {
		return nil, classify(err)
	}
	if f.Height, err = requiredUint(buf, f.raw, tiff.ImageLength); err != nil {
		return nil, classify(err)
	}
	bps, err := requiredUint(buf, f.raw, tiff.BitsPerSample)
	if err != nil {
		return nil, classify(err)
	}
	if bps != 12 && bps != 14 {
		return nil, &ParseError{
			Kind: KindUnsupportedVersion,
			Err:  fmt.Errorf("BitsPerSample %d (want 12 or 14)", bps),
		}
	}
	f.BitsPerSample = uint16(bps)

	if f.stripOffset, err = requiredUint(buf, f.raw, tiff.StripOffsets); err != nil {
		return nil, classify(err)
	}
	if f.stripCount, err = requiredUint(buf, f.raw, tiff.StripByteCounts); err != nil {
		return nil, classify(err)
	}
	if uint64(f.stripOffset)+uint64(f.stripCount) > uint64(len(buf)) {
		return nil, &ParseError{Kind: KindOutOfRange, Err: fmt.Errorf("raw strip [%d:+%d]", f.stripOffset, f.stripCount)}
	}
	return f, nil
}

// DecodeRaw decompresses the raw strip. The result is all-or-nothing:
// either a fully populated sample plane or an error.
func (f *File) DecodeRaw() (*RawImage, error) {
	if f.makerNote.Get(tiff.NikonDecoderState) == nil {
		return nil, missingTag(tiff.NikonDecoderState)
	}
	state, err := nikon.ParseMakerNote(f.buf, f.makerNote, f.BitsPerSample)
	if err != nil {
		return nil, classify(err)
	}
	strip := f.buf[f.stripOffset : f.stripOffset+f.stripCount]
	samples, err := nikon.Decompress(strip, int(f.Width), int(f.Height), f.BitsPerSample, state)
	if err != nil {
		return nil, classify(err)
	}
	return &RawImage{Width: f.Width, Height: f.Height, Samples: samples}, nil
}

// Thumbnail returns the embedded JPEG thumbnail bytes, located via
// the JpgFromRawStart/JpgFromRawLength pair of any directory that
// carries both. The bytes are returned as stored; decoding them is
// the caller's business.
func (f *File) Thumbnail() ([]byte, error) {
	for _, d := range f.Ifds {
		off := d.Get(tiff.JpgFromRawStart)
		count := d.Get(tiff.JpgFromRawLength)
		if off == nil || count == nil {
			continue
		}
		start, err := off.Uint(f.buf, 0)
		if err != nil {
			return nil, classify(err)
		}
		n, err := count.Uint(f.buf, 0)
		if err != nil {
			return nil, classify(err)
		}
		start += d.BaseOffset
		if uint64(start)+uint64(n) > uint64(len(f.buf)) {
			return nil, &ParseError{Kind: KindOutOfRange, Err: fmt.Errorf("thumbnail [%d:+%d]", start, n)}
		}
		jpg := f.buf[start : start+n]
		if len(jpg) < 2 || jpg[0] != 0xFF || jpg[1] != 0xD8 {
			continue
		}
		return jpg, nil
	}
	return nil, missingTag(tiff.JpgFromRawStart)
}

// selectRawIfd picks the raw image directory: the first whose
// photometric interpretation is CFA, or failing that the directory
// with the largest strip byte count.
func selectRawIfd(buf []byte, ifds []*tiff.Ifd) *tiff.Ifd {
	var largest *tiff.Ifd
	var largestCount uint32
	for _, d := range ifds {
		if d.Kind != tiff.Standard {
			continue
		}
		if e := d.Get(tiff.PhotometricInterpretation); e != nil {
			if v, err := e.Uint(buf, 0); err == nil && v == tiff.PhotometricCFA {
				return d
			}
		}
		if e := d.Get(tiff.StripByteCounts); e != nil {
			if v, err := e.Uint(buf, 0); err == nil && v > largestCount {
				largest, largestCount = d, v
			}
		}
	}
	return largest
}

func requiredUint(buf []byte, d *tiff.Ifd, tag uint16) (uint32, error) {
	e := d.Get(tag)
	if e == nil {
		return 0, missingTag(tag)
	}
	return e.Uint(buf, 0)
}
