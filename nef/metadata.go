package nef

import (
	"time"

	"github.com/Lemminkyinen/read-nef/tiff"
)

// Layout of EXIF date strings, e.g. "2013:05:04 11:53:44".
const exifTimeLayout = "2006:01:02 15:04:05"

// Metadata is the camera information carried beside the raw image.
// Lookup is best-effort: fields whose tags are absent keep their zero
// value, since none of them gate the decode itself.
type Metadata struct {
	Make     string
	Model    string
	Software string

	// CreateDate comes from DateTimeOriginal, falling back to the
	// file-level DateTime.
	CreateDate time.Time

	Orientation  uint16
	ISOSpeed     uint16
	ExposureTime float64
	FNumber      float64
}

// Metadata collects camera metadata from the file's directories.
func (f *File) Metadata() *Metadata {
	m := &Metadata{
		Make:     f.findString(tiff.Make),
		Model:    f.findString(tiff.Model),
		Software: f.findString(tiff.Software),
	}
	if v, ok := f.findUint(tiff.Orientation); ok {
		m.Orientation = uint16(v)
	}
	if v, ok := f.findUint(tiff.ISOSpeedRatings); ok {
		m.ISOSpeed = uint16(v)
	}
	m.ExposureTime = f.findRat(tiff.ExposureTime)
	m.FNumber = f.findRat(tiff.FNumber)

	date := f.findString(tiff.DateTimeOriginal)
	if date == "" {
		date = f.findString(tiff.DateTime)
	}
	if t, err := time.Parse(exifTimeLayout, date); err == nil {
		m.CreateDate = t
	}
	return m
}

// findEntry returns the first entry with the given tag across all
// standard directories, in discovery order.
func (f *File) findEntry(tag uint16) *tiff.Entry {
	for _, d := range f.Ifds {
		if d.Kind != tiff.Standard {
			continue
		}
		if e := d.Get(tag); e != nil {
			return e
		}
	}
	return nil
}

func (f *File) findString(tag uint16) string {
	e := f.findEntry(tag)
	if e == nil {
		return ""
	}
	s, err := e.StringVal(f.buf)
	if err != nil {
		return ""
	}
	return s
}

func (f *File) findUint(tag uint16) (uint32, bool) {
	e := f.findEntry(tag)
	if e == nil {
		return 0, false
	}
	v, err := e.Uint(f.buf, 0)
	if err != nil {
		return 0, false
	}
	return v, true
}

func (f *File) findRat(tag uint16) float64 {
	e := f.findEntry(tag)
	if e == nil {
		return 0
	}
	num, den, err := e.Rat(f.buf, 0)
	if err != nil || den == 0 {
		return 0
	}
	return float64(num) / float64(den)
}
