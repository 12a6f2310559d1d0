package processor

import (
	"bytes"
	"image"
	"image/color"
	"os"
	"testing"
	"time"

	"github.com/disintegration/imaging"
	exifbuild "github.com/dsoprea/go-exif/v3"
	"github.com/rwcarlsen/goexif/exif"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wb-go/wbf/zlog"
	"github.com/yokitheyo/imageresizer/internal/config"
	"github.com/yokitheyo/imageresizer/internal/domain"
)

func TestMain(m *testing.M) {
	zlog.Init()
	os.Exit(m.Run())
}

var fixedNow = time.Date(2024, time.March, 9, 14, 30, 5, 0, time.Local)

func newTestProcessor(t *testing.T, ext, metadata string) *ImageProcessor {
	t.Helper()
	p, err := NewImageProcessor(&config.ProcessingConfig{
		OutputQuality: 85,
		Filter:        "lanczos",
		Metadata:      metadata,
	}, ext)
	require.NoError(t, err)
	p.now = func() time.Time { return fixedNow }
	return p
}

func testJPEG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, imaging.Encode(&buf, img, imaging.JPEG))
	return buf.Bytes()
}

func synthesized(t *testing.T, at time.Time) []byte {
	t.Helper()
	raw, err := SynthesizeExif(at)
	require.NoError(t, err)
	return raw
}

func exifTimestamp(t *testing.T, raw []byte) string {
	t.Helper()
	x, err := exif.Decode(bytes.NewReader(raw))
	require.NoError(t, err)
	tag, err := x.Get(exif.DateTimeOriginal)
	require.NoError(t, err)
	s, err := tag.StringVal()
	require.NoError(t, err)
	return s
}

// orientedJPEG returns a w x h JPEG whose EXIF asks viewers to apply the
// given orientation.
func orientedJPEG(t *testing.T, w, h int, orientation uint16) []byte {
	t.Helper()
	raw, err := encodeExif(func(root *exifbuild.IfdBuilder) error {
		return root.SetStandardWithName("Orientation", []uint16{orientation})
	})
	require.NoError(t, err)
	out, err := InjectExif(testJPEG(t, w, h), raw)
	require.NoError(t, err)
	return out
}

func TestNewImageProcessor_Errors(t *testing.T) {
	_, err := NewImageProcessor(&config.ProcessingConfig{OutputQuality: 90, Filter: "lanczos"}, "gif2")
	assert.ErrorIs(t, err, domain.ErrConfiguration)

	_, err = NewImageProcessor(&config.ProcessingConfig{OutputQuality: 90, Metadata: "strip"}, "jpg")
	assert.ErrorIs(t, err, domain.ErrConfiguration)
}

func TestImageProcessor_Probe(t *testing.T) {
	p := newTestProcessor(t, "jpg", "none")

	dim, err := p.Probe(bytes.NewReader(testJPEG(t, 320, 200)))
	require.NoError(t, err)
	assert.Equal(t, domain.NewDimension(320, 200), dim)

	_, err = p.Probe(bytes.NewReader([]byte("not an image")))
	assert.ErrorIs(t, err, domain.ErrSourceUnavailable)
}

func TestImageProcessor_Decode(t *testing.T) {
	p := newTestProcessor(t, "jpg", "none")
	data := testJPEG(t, 400, 300)

	full, err := p.Decode(bytes.NewReader(data), 1)
	require.NoError(t, err)
	assert.Equal(t, 400, full.Bounds().Dx())
	assert.Equal(t, 300, full.Bounds().Dy())

	reduced, err := p.Decode(bytes.NewReader(data), 4)
	require.NoError(t, err)
	assert.Equal(t, 100, reduced.Bounds().Dx())
	assert.Equal(t, 75, reduced.Bounds().Dy())

	_, err = p.Decode(bytes.NewReader([]byte{0xFF, 0xD8, 0x00}), 1)
	assert.ErrorIs(t, err, domain.ErrDecodeFailure)
}

func TestImageProcessor_Scale(t *testing.T) {
	p := newTestProcessor(t, "jpg", "none")
	img := image.NewRGBA(image.Rect(0, 0, 200, 100))

	assert.Same(t, img, p.Scale(img, 200, 100))

	scaled := p.Scale(img, 50, 25)
	assert.Equal(t, 50, scaled.Bounds().Dx())
	assert.Equal(t, 25, scaled.Bounds().Dy())
}

func TestImageProcessor_EncodeWithSynthesizedExif(t *testing.T) {
	p := newTestProcessor(t, "jpg", "synthesize")
	img := image.NewRGBA(image.Rect(0, 0, 64, 32))

	meta := p.Metadata(bytes.NewReader(testJPEG(t, 8, 8)))
	require.NotEmpty(t, meta)

	var out bytes.Buffer
	require.NoError(t, p.Encode(&out, img, meta))

	cfg, format, err := image.DecodeConfig(bytes.NewReader(out.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)
	assert.Equal(t, 64, cfg.Width)
	assert.Equal(t, 32, cfg.Height)

	x, err := exif.Decode(bytes.NewReader(out.Bytes()))
	require.NoError(t, err)
	taken, err := x.DateTime()
	require.NoError(t, err)
	assert.Equal(t, fixedNow.Format(exifDateLayout), taken.Format(exifDateLayout))
}

func TestImageProcessor_MetadataStrategies(t *testing.T) {
	plain := testJPEG(t, 16, 16)
	earlier := fixedNow.Add(-time.Hour).Format(exifDateLayout)

	withExif, err := InjectExif(plain, synthesized(t, fixedNow.Add(-time.Hour)))
	require.NoError(t, err)

	none := newTestProcessor(t, "jpg", "none")
	assert.Nil(t, none.Metadata(bytes.NewReader(withExif)))

	preserve := newTestProcessor(t, "jpg", "preserve")
	assert.Nil(t, preserve.Metadata(bytes.NewReader(plain)))
	assert.Equal(t, earlier, exifTimestamp(t, preserve.Metadata(bytes.NewReader(withExif))))

	synthesize := newTestProcessor(t, "jpg", "synthesize")
	assert.Equal(t, synthesized(t, fixedNow), synthesize.Metadata(bytes.NewReader(plain)))
	assert.Equal(t, earlier, exifTimestamp(t, synthesize.Metadata(bytes.NewReader(withExif))))
}

func TestImageProcessor_DecodeOrientation(t *testing.T) {
	// stored 40x20, displayed 20x40
	rotated := orientedJPEG(t, 40, 20, 6)

	tests := []struct {
		ext, metadata string
		wantW, wantH  int
	}{
		{"png", "synthesize", 20, 40},
		{"png", "preserve", 20, 40},
		{"png", "none", 20, 40},
		{"jpg", "none", 20, 40},
		{"jpg", "synthesize", 40, 20},
		{"jpg", "preserve", 40, 20},
	}
	for _, tt := range tests {
		t.Run(tt.ext+"/"+tt.metadata, func(t *testing.T) {
			p := newTestProcessor(t, tt.ext, tt.metadata)
			img, err := p.Decode(bytes.NewReader(rotated), 1)
			require.NoError(t, err)
			assert.Equal(t, tt.wantW, img.Bounds().Dx())
			assert.Equal(t, tt.wantH, img.Bounds().Dy())
		})
	}
}

func TestImageProcessor_EncodeKeepsOrientationTag(t *testing.T) {
	p := newTestProcessor(t, "jpg", "preserve")
	rotated := orientedJPEG(t, 40, 20, 6)

	img, err := p.Decode(bytes.NewReader(rotated), 1)
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, p.Encode(&out, img, p.Metadata(bytes.NewReader(rotated))))

	x, err := exif.Decode(bytes.NewReader(out.Bytes()))
	require.NoError(t, err)
	tag, err := x.Get(exif.Orientation)
	require.NoError(t, err)
	v, err := tag.Int(0)
	require.NoError(t, err)
	assert.Equal(t, 6, v)
}

func TestImageProcessor_EncodePNGIgnoresExif(t *testing.T) {
	p := newTestProcessor(t, "png", "synthesize")
	img := image.NewRGBA(image.Rect(0, 0, 10, 10))

	var out bytes.Buffer
	require.NoError(t, p.Encode(&out, img, synthesized(t, fixedNow)))

	_, format, err := image.DecodeConfig(bytes.NewReader(out.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, "png", format)
}

func TestSynthesizeExif_Layout(t *testing.T) {
	raw := synthesized(t, fixedNow)

	assert.Equal(t, []byte("MM\x00\x2a"), raw[:4])
	assert.Less(t, len(raw), maxSegmentLength-app1Overhead)
	assert.Equal(t, fixedNow.Format(exifDateLayout), exifTimestamp(t, raw))
}

func TestInjectExif_ReplacesExistingSegment(t *testing.T) {
	first, err := InjectExif(testJPEG(t, 8, 8), synthesized(t, fixedNow.Add(-time.Hour)))
	require.NoError(t, err)
	second, err := InjectExif(first, synthesized(t, fixedNow))
	require.NoError(t, err)

	assert.Equal(t, 1, bytes.Count(second, []byte("Exif\x00\x00")))
	assert.Equal(t, fixedNow.Format(exifDateLayout), exifTimestamp(t, ReadExif(bytes.NewReader(second))))

	cfg, _, err := image.DecodeConfig(bytes.NewReader(second))
	require.NoError(t, err)
	assert.Equal(t, 8, cfg.Width)
}

func TestInjectExif_Errors(t *testing.T) {
	_, err := InjectExif([]byte("PNG"), synthesized(t, fixedNow))
	assert.Error(t, err)

	_, err = InjectExif(testJPEG(t, 4, 4), make([]byte, maxSegmentLength))
	assert.Error(t, err)
}

func TestReadExif_NoExif(t *testing.T) {
	assert.Nil(t, ReadExif(bytes.NewReader(testJPEG(t, 4, 4))))
	assert.Nil(t, ReadExif(bytes.NewReader([]byte("garbage"))))
}
