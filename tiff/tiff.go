// Package tiff implements parsing of the TIFF/EP directory structure
// used by Nikon NEF raw files: classic IFD chains plus the vendor
// maker note sub-directory whose offsets are relative to its own
// embedded TIFF header.
package tiff

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// IfdKind distinguishes standard TIFF directories from the Nikon
// maker note directory, whose entry offsets resolve against the maker
// note's own TIFF header.
type IfdKind int

const (
	Standard IfdKind = iota
	NikonMakerNote
)

func (k IfdKind) String() string {
	if k == NikonMakerNote {
		return "NikonMakerNote"
	}
	return "Standard"
}

// Ifd is one parsed Image File Directory: its entries in file order,
// its kind, and the base offset against which the entries' offset
// values resolve. Ifds are immutable after parse.
type Ifd struct {
	Kind       IfdKind
	BaseOffset uint32
	Entries    []*Entry
}

// Get returns the entry with the given tag, or nil if the directory
// does not contain it.
func (d *Ifd) Get(tag uint16) *Entry {
	for _, e := range d.Entries {
		if e.Tag == tag {
			return e
		}
	}
	return nil
}

// String returns a one-line summary of the directory.
func (d *Ifd) String() string {
	return fmt.Sprintf("Ifd{%s, base=%d, %d entries}", d.Kind, d.BaseOffset, len(d.Entries))
}

// Untrusted input could link directories into a cycle; the visited
// set catches revisits and maxDepth bounds pathological chains that
// never repeat an offset.
const maxDepth = 16

var (
	tiffHeader  = []byte{'I', 'I', 0x2A, 0x00}
	nikonHeader = []byte{'N', 'i', 'k', 'o', 'n', 0x00}
)

// Parse reads the IFD graph rooted at offset and returns the
// directories in discovery order: depth-first, children before the
// next sibling. SubIFDs, the Exif pointer and the maker note are
// followed from standard directories; the trailing next-IFD link
// terminates at zero. Downstream lookups take the first matching
// directory in this order, so the order is part of the contract.
func Parse(buf []byte, offset uint32) ([]*Ifd, error) {
	p := &parser{buf: buf, visited: make(map[uint32]bool)}
	if err := p.parse(offset, 0); err != nil {
		return nil, err
	}
	return p.ifds, nil
}

type parser struct {
	buf     []byte
	ifds    []*Ifd
	visited map[uint32]bool
}

func (p *parser) parse(offset uint32, depth int) error {
	if depth > maxDepth {
		return fmt.Errorf("tiff: IFD nesting deeper than %d at offset %d", maxDepth, offset)
	}
	if p.visited[offset] {
		return fmt.Errorf("tiff: IFD cycle through offset %d", offset)
	}
	p.visited[offset] = true
	if uint64(offset) >= uint64(len(p.buf)) {
		return fmt.Errorf("tiff: IFD offset %d: %w", offset, ErrOutOfRange)
	}

	// Three header forms can introduce a directory: a TIFF header
	// whose first-IFD offset is the conventional 8, the 10-byte Nikon
	// maker note signature followed by a fresh TIFF header, or a bare
	// directory starting immediately at offset.
	rest := p.buf[offset:]
	base := offset
	entryStart := offset
	kind := Standard
	switch {
	case bytes.HasPrefix(rest, tiffHeader) && len(rest) >= 8 &&
		binary.LittleEndian.Uint32(rest[4:8]) == 8:
		entryStart = offset + 8
	case isNikonHeader(rest):
		// 10 signature bytes, then a TIFF header owning the maker
		// note's offset space.
		base = offset + 10
		entryStart = base + 8
		kind = NikonMakerNote
	}

	d := &Ifd{Kind: kind, BaseOffset: base}
	r := NewReader(p.buf, int(entryStart), binary.LittleEndian)
	n, err := r.Uint16()
	if err != nil {
		return fmt.Errorf("tiff: entry count at offset %d: %w", entryStart, err)
	}
	for i := 0; i < int(n); i++ {
		e, err := p.parseEntry(r, base)
		if err != nil {
			return err
		}
		d.Entries = append(d.Entries, e)
	}
	next, err := r.Uint32()
	if err != nil {
		return fmt.Errorf("tiff: next-IFD link after offset %d: %w", entryStart, err)
	}
	p.ifds = append(p.ifds, d)

	if kind != Standard {
		return nil
	}

	// Children before the next sibling.
	if e := d.Get(SubIFDs); e != nil {
		data, err := e.Data(p.buf)
		if err != nil {
			return fmt.Errorf("tiff: SubIFDs data: %w", err)
		}
		size := int(e.Type.Size())
		if size == 0 {
			size = 4
		}
		for i := 0; i+size <= len(data); i += size {
			if err := p.parse(base+IntValue(data[i:i+size]), depth+1); err != nil {
				return err
			}
		}
	}
	if e := d.Get(ExifIFDPointer); e != nil {
		if err := p.parse(base+e.Offset(), depth+1); err != nil {
			return err
		}
	}
	if e := d.Get(MakerNote); e != nil && e.IsOffset() {
		if err := p.parse(base+e.Offset(), depth+1); err != nil {
			return err
		}
	}
	if next != 0 {
		if err := p.parse(base+next, depth+1); err != nil {
			return err
		}
	}
	return nil
}

func (p *parser) parseEntry(r *Reader, base uint32) (*Entry, error) {
	tag, err := r.Uint16()
	if err != nil {
		return nil, fmt.Errorf("tiff: entry truncated: %w", err)
	}
	typ, err := r.Uint16()
	if err != nil {
		return nil, fmt.Errorf("tiff: entry truncated: %w", err)
	}
	count, err := r.Uint32()
	if err != nil {
		return nil, fmt.Errorf("tiff: entry truncated: %w", err)
	}
	val, err := r.Bytes(4)
	if err != nil {
		return nil, fmt.Errorf("tiff: entry truncated: %w", err)
	}
	e := &Entry{Tag: tag, Type: DataType(typ), Count: count, BaseOffset: base}
	copy(e.Value[:], val)
	if e.IsOffset() {
		end := uint64(base) + uint64(e.Offset()) + uint64(e.DataLength())
		if end > uint64(len(p.buf)) {
			return nil, fmt.Errorf("tiff: tag 0x%04X data [%d+%d+%d]: %w",
				tag, base, e.Offset(), e.DataLength(), ErrOutOfRange)
		}
	}
	return e, nil
}

// isNikonHeader reports whether buf begins with the maker note
// signature "Nikon\0" and a supported version word 02 00/10/11 00 00.
func isNikonHeader(buf []byte) bool {
	if len(buf) < 10 || !bytes.HasPrefix(buf, nikonHeader) {
		return false
	}
	if buf[6] != 0x02 || buf[8] != 0x00 || buf[9] != 0x00 {
		return false
	}
	switch buf[7] {
	case 0x00, 0x10, 0x11:
		return true
	}
	return false
}
