package tiff

import "fmt"

// Tags with symbolic constants: those the decoder and the metadata
// lookup use, plus a few common TIFF structure tags. The rest of the
// table below only names tags for directory dumps.
const (
	NewSubfileType            uint16 = 0x00FE
	ImageWidth                uint16 = 0x0100
	ImageLength               uint16 = 0x0101
	BitsPerSample             uint16 = 0x0102
	Compression               uint16 = 0x0103
	PhotometricInterpretation uint16 = 0x0106
	Make                      uint16 = 0x010F
	Model                     uint16 = 0x0110
	StripOffsets              uint16 = 0x0111
	Orientation               uint16 = 0x0112
	SamplesPerPixel           uint16 = 0x0115
	RowsPerStrip              uint16 = 0x0116
	StripByteCounts           uint16 = 0x0117
	Software                  uint16 = 0x0131
	DateTime                  uint16 = 0x0132
	SubIFDs                   uint16 = 0x014A
	JpgFromRawStart           uint16 = 0x0201
	JpgFromRawLength          uint16 = 0x0202
	ExposureTime              uint16 = 0x829A
	FNumber                   uint16 = 0x829D
	ExifIFDPointer            uint16 = 0x8769
	ISOSpeedRatings           uint16 = 0x8827
	DateTimeOriginal          uint16 = 0x9003
	MakerNote                 uint16 = 0x927C

	// Nikon maker note tags. The decoder state blob is 0x96; the
	// quantization blob 0x8C is carried for inspection only.
	NikonQuantization uint16 = 0x008C
	NikonDecoderState uint16 = 0x0096

	// PhotometricInterpretation value marking a color filter array.
	PhotometricCFA = 32803
)

var tagNames = map[uint16]string{
	0x00FE: "NewSubfileType",
	0x0100: "ImageWidth",
	0x0101: "ImageLength",
	0x0102: "BitsPerSample",
	0x0103: "Compression",
	0x0106: "PhotometricInterpretation",
	0x010F: "Make",
	0x0110: "Model",
	0x0111: "StripOffsets",
	0x0112: "Orientation",
	0x0115: "SamplesPerPixel",
	0x0116: "RowsPerStrip",
	0x0117: "StripByteCounts",
	0x011A: "XResolution",
	0x011B: "YResolution",
	0x011C: "PlanarConfiguration",
	0x0128: "ResolutionUnit",
	0x0131: "Software",
	0x0132: "DateTime",
	0x013B: "Artist",
	0x014A: "SubIFDs",
	0x0201: "JpgFromRawStart",
	0x0202: "JpgFromRawLength",
	0x0213: "YCbCrPositioning",
	0x0214: "ReferenceBlackNWhite",
	0x02BC: "XMLMetaData",
	0x828D: "CFARepeatPatternDim",
	0x828E: "CFAPattern",
	0x8298: "Copyright",
	0x829A: "ExposureTime",
	0x829D: "FNumber",
	0x8769: "ExifIFDPointer",
	0x8822: "ExposureProgram",
	0x8825: "GPSInfo",
	0x8827: "ISOSpeedRatings",
	0x8830: "SensitivityType",
	0x8832: "RecommendedExposureIndex",
	0x9003: "DateTimeOriginal",
	0x9004: "DateTimeDigitized",
	0x9010: "NikonPictureControlVersion",
	0x9011: "NikonPictureControlName",
	0x9012: "NikonPictureControlComment",
	0x9204: "ExposureBias",
	0x9205: "MaxAperture",
	0x9207: "ExposureMeteringMode",
	0x9208: "LightSource",
	0x9209: "Flash",
	0x920A: "FocalLength",
	0x9216: "TIFFEPStandardID",
	0x9217: "SensingMethod",
	0x927C: "MakerNote",
	0x9286: "UserComment",
	0x9290: "SubSecTime",
	0x9291: "SubSecTimeOriginal",
	0x9292: "SubSecTimeDigitized",
	0xA217: "NikonAFInfo2",
	0xA300: "FileSource",
	0xA301: "NikonCaptureVersion",
	0xA302: "NikonCaptureOffset",
	0xA401: "NikonScanIFD",
	0xA402: "NikonCaptureEditVersion",
	0xA403: "NikonCaptureEditCount",
	0xA405: "NikonCaptureEditApplied",
	0xA406: "NikonCaptureToneCurve",
	0xA407: "NikonCaptureSharpener",
	0xA408: "NikonCaptureColorMode",
	0xA409: "NikonCaptureColorHue",
	0xA40A: "NikonCaptureSaturation",
	0xA40C: "NikonCaptureNoiseReduction",
	0x008C: "NikonQuantization",
	0x0096: "NikonDecoderState",
}

// TagName returns the symbolic name of a tag, or Unknown(0x....) for
// tags outside the table.
func TagName(tag uint16) string {
	if name, ok := tagNames[tag]; ok {
		return name
	}
	return fmt.Sprintf("Unknown(0x%04X)", tag)
}
