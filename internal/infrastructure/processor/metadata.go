package processor

import (
	"bytes"
	"fmt"
	"io"
	"time"

	exif "github.com/dsoprea/go-exif/v3"
	exifcommon "github.com/dsoprea/go-exif/v3/common"
	jpegstructure "github.com/dsoprea/go-jpeg-image-structure/v2"
	goexif "github.com/rwcarlsen/goexif/exif"
)

const (
	exifDateLayout = "2006:01:02 15:04:05"

	// APP1 length field covers itself, the Exif\0\0 prefix and the payload.
	maxSegmentLength = 0xFFFF
	app1Overhead     = 2 + 6
)

// ReadExif returns the raw EXIF block (TIFF header onwards) of a JPEG or TIFF
// stream, or nil when the stream carries none.
func ReadExif(r io.Reader) []byte {
	x, err := goexif.Decode(r)
	if err != nil && (x == nil || goexif.IsCriticalError(err)) {
		return nil
	}
	if x == nil || len(x.Raw) == 0 {
		return nil
	}
	return x.Raw
}

// SynthesizeExif builds a minimal EXIF block holding only DateTimeOriginal.
func SynthesizeExif(t time.Time) ([]byte, error) {
	return encodeExif(func(root *exif.IfdBuilder) error {
		exifIb, err := exif.GetOrCreateIbFromRootIb(root, "IFD/Exif")
		if err != nil {
			return fmt.Errorf("exif sub-ifd: %w", err)
		}
		return exifIb.SetStandardWithName("DateTimeOriginal", t.Format(exifDateLayout))
	})
}

// encodeExif runs build against an empty IFD0 and serializes the result.
func encodeExif(build func(root *exif.IfdBuilder) error) ([]byte, error) {
	im, err := exifcommon.NewIfdMappingWithStandard()
	if err != nil {
		return nil, fmt.Errorf("ifd mapping: %w", err)
	}
	root := exif.NewIfdBuilder(im, exif.NewTagIndex(), exifcommon.IfdStandardIfdIdentity, exifcommon.EncodeDefaultByteOrder)
	if err := build(root); err != nil {
		return nil, err
	}

	raw, err := exif.NewIfdByteEncoder().EncodeToExif(root)
	if err != nil {
		return nil, fmt.Errorf("encode exif: %w", err)
	}
	return raw, nil
}

// InjectExif sets payload as the EXIF segment of a JPEG stream, replacing any
// segment already present.
func InjectExif(jpegData, payload []byte) ([]byte, error) {
	if len(jpegData) < 2 || jpegData[0] != 0xFF || jpegData[1] != 0xD8 {
		return nil, fmt.Errorf("not a jpeg stream")
	}
	if app1Overhead+len(payload) > maxSegmentLength {
		return nil, fmt.Errorf("exif block too large: %d bytes", len(payload))
	}

	im, err := exifcommon.NewIfdMappingWithStandard()
	if err != nil {
		return nil, fmt.Errorf("ifd mapping: %w", err)
	}
	_, index, err := exif.Collect(im, exif.NewTagIndex(), payload)
	if err != nil {
		return nil, fmt.Errorf("parse exif block: %w", err)
	}

	parsed, err := jpegstructure.NewJpegMediaParser().ParseBytes(jpegData)
	if err != nil {
		return nil, fmt.Errorf("parse jpeg: %w", err)
	}
	sl, ok := parsed.(*jpegstructure.SegmentList)
	if !ok {
		return nil, fmt.Errorf("unexpected jpeg media context %T", parsed)
	}
	if err := sl.SetExif(exif.NewIfdBuilderFromExistingChain(index.RootIfd)); err != nil {
		return nil, fmt.Errorf("set exif segment: %w", err)
	}

	var buf bytes.Buffer
	buf.Grow(len(jpegData) + len(payload) + app1Overhead)
	if err := sl.Write(&buf); err != nil {
		return nil, fmt.Errorf("write jpeg: %w", err)
	}
	return buf.Bytes(), nil
}
