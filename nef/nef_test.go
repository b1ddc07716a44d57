package nef

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/Lemminkyinen/read-nef/tiff"
)

// Synthetic NEF layout used by the tests below.
const (
	ifd0Offset  = 8
	rawOffset   = 100
	exifOffset  = 180
	mnOffset    = 260
	blobOffset  = 300
	thumbOffset = 320
	makeOffset  = 340
	modelOffset = 360
	dateOffset  = 380
	expOffset   = 400
	fnumOffset  = 410
	stripOffset = 430
)

var (
	thumbBytes = []byte{0xFF, 0xD8, 0xFF, 0xD9}
	makeBytes  = []byte("NIKON CORPORATION\x00")
	modelBytes = []byte("NIKON D5100\x00")
	dateBytes  = []byte("2013:05:04 11:53:44\x00")
)

type nefOpts struct {
	width, height uint32
	bps           uint16
	strip         []byte
	noMakerNote   bool
	stripCount    uint32 // 0 means len(strip)
}

func le16(v uint16) []byte {
	b := make([]byte, 2)
	binary.LittleEndian.PutUint16(b, v)
	return b
}

func le32(v uint32) []byte {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, v)
	return b
}

type entrySpec struct {
	tag   uint16
	typ   tiff.DataType
	count uint32
	val   []byte
}

func ifdBytes(entries []entrySpec, next uint32) []byte {
	out := le16(uint16(len(entries)))
	for _, e := range entries {
		out = append(out, le16(e.tag)...)
		out = append(out, le16(uint16(e.typ))...)
		out = append(out, le32(e.count)...)
		var val [4]byte
		copy(val[:], e.val)
		out = append(out, val[:]...)
	}
	return append(out, le32(next)...)
}

func writeAt(buf []byte, off int, b []byte) []byte {
	if need := off + len(b); need > len(buf) {
		buf = append(buf, make([]byte, need-len(buf))...)
	}
	copy(buf[off:], b)
	return buf
}

// buildNEF assembles a minimal little-endian NEF: IFD0 pointing at a
// CFA raw sub-IFD and an Exif IFD, the Exif IFD carrying a Nikon
// maker note whose 0x96 blob describes a constant-42 curve with zero
// predictors, and the compressed strip.
func buildNEF(opts nefOpts) []byte {
	stripCount := opts.stripCount
	if stripCount == 0 {
		stripCount = uint32(len(opts.strip))
	}

	buf := append([]byte{0x49, 0x49, 0x2A, 0x00}, le32(8)...)

	ifd0 := []entrySpec{
		{tag: tiff.Make, typ: tiff.DTAscii, count: uint32(len(makeBytes)), val: le32(makeOffset)},
		{tag: tiff.Model, typ: tiff.DTAscii, count: uint32(len(modelBytes)), val: le32(modelOffset)},
		{tag: tiff.Orientation, typ: tiff.DTShort, count: 1, val: le16(1)},
		{tag: tiff.SubIFDs, typ: tiff.DTLong, count: 1, val: le32(rawOffset)},
		{tag: tiff.JpgFromRawStart, typ: tiff.DTLong, count: 1, val: le32(thumbOffset)},
		{tag: tiff.JpgFromRawLength, typ: tiff.DTLong, count: 1, val: le32(uint32(len(thumbBytes)))},
	}
	if !opts.noMakerNote {
		ifd0 = append(ifd0, entrySpec{tag: tiff.ExifIFDPointer, typ: tiff.DTLong, count: 1, val: le32(exifOffset)})
	}
	buf = writeAt(buf, ifd0Offset, ifdBytes(ifd0, 0))
	buf = writeAt(buf, makeOffset, makeBytes)
	buf = writeAt(buf, modelOffset, modelBytes)

	buf = writeAt(buf, rawOffset, ifdBytes([]entrySpec{
		{tag: tiff.ImageWidth, typ: tiff.DTLong, count: 1, val: le32(opts.width)},
		{tag: tiff.ImageLength, typ: tiff.DTLong, count: 1, val: le32(opts.height)},
		{tag: tiff.BitsPerSample, typ: tiff.DTShort, count: 1, val: le16(opts.bps)},
		{tag: tiff.PhotometricInterpretation, typ: tiff.DTShort, count: 1, val: le16(tiff.PhotometricCFA)},
		{tag: tiff.StripOffsets, typ: tiff.DTLong, count: 1, val: le32(stripOffset)},
		{tag: tiff.StripByteCounts, typ: tiff.DTLong, count: 1, val: le32(stripCount)},
	}, 0))

	if !opts.noMakerNote {
		// Offset-form values in the Exif IFD are relative to its base.
		buf = writeAt(buf, exifOffset, ifdBytes([]entrySpec{
			{tag: tiff.ExposureTime, typ: tiff.DTRational, count: 1, val: le32(expOffset - exifOffset)},
			{tag: tiff.FNumber, typ: tiff.DTRational, count: 1, val: le32(fnumOffset - exifOffset)},
			{tag: tiff.ISOSpeedRatings, typ: tiff.DTShort, count: 1, val: le16(400)},
			{tag: tiff.DateTimeOriginal, typ: tiff.DTAscii, count: uint32(len(dateBytes)), val: le32(dateOffset - exifOffset)},
			{tag: tiff.MakerNote, typ: tiff.DTUndefined, count: 64, val: le32(mnOffset - exifOffset)},
		}, 0))
		buf = writeAt(buf, dateOffset, dateBytes)
		buf = writeAt(buf, expOffset, append(le32(1), le32(250)...))
		buf = writeAt(buf, fnumOffset, append(le32(56), le32(10)...))

		mn := append([]byte("Nikon\x00"), 0x02, 0x10, 0x00, 0x00)
		mn = append(mn, 0x49, 0x49, 0x2A, 0x00)
		mn = append(mn, le32(8)...)
		mn = append(mn, ifdBytes([]entrySpec{
			// Offset relative to the maker note's own TIFF header.
			{tag: tiff.NikonDecoderState, typ: tiff.DTUndefined, count: 14,
				val: le32(blobOffset - (mnOffset + 10))},
		}, 0)...)
		buf = writeAt(buf, mnOffset, mn)

		// v0 0x49, v1 0x58, zero predictors, one curve point of 42.
		blob := []byte{0x49, 0x58}
		blob = append(blob, make([]byte, 8)...)
		blob = append(blob, le16(1)...)
		blob = append(blob, le16(42)...)
		buf = writeAt(buf, blobOffset, blob)
	}

	buf = writeAt(buf, thumbOffset, thumbBytes)
	return writeAt(buf, stripOffset, opts.strip)
}

// zeroStrip encodes n zero residuals for selector 0: symbol 0 is the
// five-bit code 11110.
func zeroStrip(n int) []byte {
	var out []byte
	var cur byte
	bits := 0
	for i := 0; i < 5*n; i++ {
		b := byte(1)
		if i%5 == 4 {
			b = 0
		}
		cur = cur<<1 | b
		if bits++; bits == 8 {
			out = append(out, cur)
			cur, bits = 0, 0
		}
	}
	if bits > 0 {
		out = append(out, cur<<(8-bits))
	}
	return out
}

func TestParseAndDecode(t *testing.T) {
	buf := buildNEF(nefOpts{width: 2, height: 2, bps: 12, strip: zeroStrip(4)})
	f, err := Parse(buf)
	if err != nil {
		t.Fatal(err)
	}
	if len(f.Ifds) < 2 {
		t.Fatalf("got %d IFDs; want at least 2", len(f.Ifds))
	}
	if f.Width != 2 || f.Height != 2 || f.BitsPerSample != 12 {
		t.Fatalf("dimensions %dx%d @%d bps", f.Width, f.Height, f.BitsPerSample)
	}

	img, err := f.DecodeRaw()
	if err != nil {
		t.Fatal(err)
	}
	if img.Width != 2 || img.Height != 2 {
		t.Fatalf("image %dx%d; want 2x2", img.Width, img.Height)
	}
	if len(img.Samples) != 4 {
		t.Fatalf("len(Samples) = %d; want 4", len(img.Samples))
	}
	for i, s := range img.Samples {
		if s != 42 {
			t.Errorf("sample %d = %d; want 42", i, s)
		}
	}
}

func TestDecodeIsDeterministic(t *testing.T) {
	buf := buildNEF(nefOpts{width: 2, height: 2, bps: 12, strip: zeroStrip(4)})
	f, err := Parse(buf)
	if err != nil {
		t.Fatal(err)
	}
	a, err := f.DecodeRaw()
	if err != nil {
		t.Fatal(err)
	}
	b, err := f.DecodeRaw()
	if err != nil {
		t.Fatal(err)
	}
	if !equalSamples(a.Samples, b.Samples) {
		t.Fatalf("two decodes of the same buffer differ")
	}
}

func equalSamples(a, b []uint16) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestSampleRange(t *testing.T) {
	buf := buildNEF(nefOpts{width: 2, height: 2, bps: 12, strip: zeroStrip(4)})
	f, err := Parse(buf)
	if err != nil {
		t.Fatal(err)
	}
	img, err := f.DecodeRaw()
	if err != nil {
		t.Fatal(err)
	}
	for i, s := range img.Samples {
		if s > (1<<12)-1 {
			t.Errorf("sample %d = %d exceeds 12-bit range", i, s)
		}
	}
}

func TestBadMagic(t *testing.T) {
	cases := map[string][]byte{
		"empty":      {},
		"short":      {0x49, 0x49},
		"big endian": append([]byte{0x4D, 0x4D, 0x00, 0x2A}, make([]byte, 8)...),
		"not tiff":   append([]byte("GIF89a"), make([]byte, 8)...),
	}
	for name, buf := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse(buf)
			pe, ok := err.(*ParseError)
			if !ok || pe.Kind != KindBadMagic {
				t.Fatalf("Parse = %v; want bad magic", err)
			}
		})
	}
}

func TestMissingMakerNote(t *testing.T) {
	buf := buildNEF(nefOpts{width: 2, height: 2, bps: 12, strip: zeroStrip(4), noMakerNote: true})
	_, err := Parse(buf)
	pe, ok := err.(*ParseError)
	if !ok || pe.Kind != KindMissingTag || pe.Tag != tiff.MakerNote {
		t.Fatalf("Parse = %v; want missing maker note", err)
	}
}

func TestUnsupportedBitDepth(t *testing.T) {
	buf := buildNEF(nefOpts{width: 2, height: 2, bps: 16, strip: zeroStrip(4)})
	_, err := Parse(buf)
	pe, ok := err.(*ParseError)
	if !ok || pe.Kind != KindUnsupportedVersion {
		t.Fatalf("Parse = %v; want unsupported version", err)
	}
}

func TestStripOutOfRange(t *testing.T) {
	buf := buildNEF(nefOpts{width: 2, height: 2, bps: 12, strip: zeroStrip(4), stripCount: 1 << 20})
	_, err := Parse(buf)
	pe, ok := err.(*ParseError)
	if !ok || pe.Kind != KindOutOfRange {
		t.Fatalf("Parse = %v; want out of range", err)
	}
}

func TestOddWidthRejected(t *testing.T) {
	buf := buildNEF(nefOpts{width: 3, height: 2, bps: 12, strip: zeroStrip(8)})
	f, err := Parse(buf)
	if err != nil {
		t.Fatal(err)
	}
	_, err = f.DecodeRaw()
	pe, ok := err.(*ParseError)
	if !ok || pe.Kind != KindOddWidth {
		t.Fatalf("DecodeRaw = %v; want odd width", err)
	}
}

func TestThumbnail(t *testing.T) {
	buf := buildNEF(nefOpts{width: 2, height: 2, bps: 12, strip: zeroStrip(4)})
	f, err := Parse(buf)
	if err != nil {
		t.Fatal(err)
	}
	jpg, err := f.Thumbnail()
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(jpg, thumbBytes) {
		t.Fatalf("Thumbnail = % X; want % X", jpg, thumbBytes)
	}
}
