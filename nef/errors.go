package nef

import (
	"errors"
	"fmt"

	"github.com/Lemminkyinen/read-nef/nikon"
	"github.com/Lemminkyinen/read-nef/tiff"
)

// ErrorKind classifies the ways a NEF can fail to decode.
type ErrorKind int

const (
	// KindIo: the byte buffer could not be obtained.
	KindIo ErrorKind = iota
	// KindBadMagic: the header prefix matched no supported signature.
	// It is also the kind given to structural errors that match no
	// other kind, such as an IFD cycle.
	KindBadMagic
	// KindOutOfRange: an offset plus length exceeds the buffer.
	KindOutOfRange
	// KindMissingTag: a required tag is absent from its IFD.
	KindMissingTag
	// KindUnsupportedVersion: the maker note decoder blob has a
	// version combination that is not handled.
	KindUnsupportedVersion
	// KindHuffmanIncomplete: a code-length distribution is not a
	// complete prefix code.
	KindHuffmanIncomplete
	// KindBitPumpUnderrun: the decoder consumed more bits than the
	// strip provides.
	KindBitPumpUnderrun
	// KindOddWidth: the raw image width is odd, which the paired
	// predictor loop cannot emit.
	KindOddWidth
)

var kindNames = map[ErrorKind]string{
	KindIo:                 "io",
	KindBadMagic:           "bad magic",
	KindOutOfRange:         "out of range",
	KindMissingTag:         "missing tag",
	KindUnsupportedVersion: "unsupported version",
	KindHuffmanIncomplete:  "huffman incomplete",
	KindBitPumpUnderrun:    "bit pump underrun",
	KindOddWidth:           "odd width",
}

func (k ErrorKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("ErrorKind(%d)", int(k))
}

// ParseError is the error type surfaced by this package. Kind gives
// the structured reason; Tag is set for KindMissingTag.
type ParseError struct {
	Kind ErrorKind
	Tag  uint16
	Err  error
}

func (e *ParseError) Error() string {
	if e.Kind == KindMissingTag {
		return fmt.Sprintf("nef: %s 0x%04X (%s)", e.Kind, e.Tag, tiff.TagName(e.Tag))
	}
	if e.Err != nil {
		return fmt.Sprintf("nef: %s: %v", e.Kind, e.Err)
	}
	return "nef: " + e.Kind.String()
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

func missingTag(tag uint16) *ParseError {
	return &ParseError{Kind: KindMissingTag, Tag: tag}
}

// classify wraps an error from the tiff or nikon packages into a
// ParseError with the matching kind; an error that matches none of
// them is reported as KindBadMagic.
func classify(err error) *ParseError {
	var pe *ParseError
	if errors.As(err, &pe) {
		return pe
	}
	kind := KindBadMagic
	var uv *nikon.UnsupportedVersionError
	switch {
	case errors.Is(err, tiff.ErrOutOfRange):
		kind = KindOutOfRange
	case errors.Is(err, nikon.ErrHuffmanIncomplete):
		kind = KindHuffmanIncomplete
	case errors.Is(err, nikon.ErrBitPumpUnderrun):
		kind = KindBitPumpUnderrun
	case errors.Is(err, nikon.ErrOddWidth):
		kind = KindOddWidth
	case errors.As(err, &uv):
		kind = KindUnsupportedVersion
	}
	return &ParseError{Kind: kind, Err: err}
}
