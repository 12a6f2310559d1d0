package processor

import (
	"bytes"
	"fmt"
	"image"
	"io"
	"time"

	"github.com/disintegration/imaging"
	"github.com/wb-go/wbf/zlog"
	"github.com/yokitheyo/imageresizer/internal/config"
	"github.com/yokitheyo/imageresizer/internal/domain"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

var filters = map[string]imaging.ResampleFilter{
	"lanczos":    imaging.Lanczos,
	"linear":     imaging.Linear,
	"catmullrom": imaging.CatmullRom,
	"box":        imaging.Box,
	"nearest":    imaging.NearestNeighbor,
}

type ImageProcessor struct {
	format   imaging.Format
	quality  int
	filter   imaging.ResampleFilter
	metadata domain.MetadataStrategy
	now      func() time.Time
}

func NewImageProcessor(cfg *config.ProcessingConfig, ext string) (*ImageProcessor, error) {
	format, err := imaging.FormatFromExtension(ext)
	if err != nil {
		return nil, fmt.Errorf("%w: output extension %q: %v", domain.ErrConfiguration, ext, err)
	}

	filter, ok := filters[cfg.Filter]
	if !ok {
		zlog.Logger.Warn().Str("filter", cfg.Filter).Msg("unknown resample filter, using lanczos")
		filter = imaging.Lanczos
	}

	metadata, err := domain.ParseMetadataStrategy(cfg.Metadata)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrConfiguration, err)
	}

	quality := cfg.OutputQuality
	if quality < 1 || quality > 100 {
		zlog.Logger.Warn().Int("output_quality", quality).Msg("invalid output quality, using default")
		quality = config.DefaultOutputQuality
	}

	zlog.Logger.Info().
		Str("format", format.String()).
		Int("output_quality", quality).
		Str("filter", cfg.Filter).
		Str("metadata", string(metadata)).
		Msg("ImageProcessor initialized")

	return &ImageProcessor{
		format:   format,
		quality:  quality,
		filter:   filter,
		metadata: metadata,
		now:      time.Now,
	}, nil
}

func (p *ImageProcessor) MetadataStrategy() domain.MetadataStrategy {
	return p.metadata
}

func (p *ImageProcessor) writesExif() bool {
	return p.metadata != domain.MetadataNone && p.format == imaging.JPEG
}

// Probe reads the image header and returns the natural size of the source.
func (p *ImageProcessor) Probe(r io.Reader) (domain.Dimension, error) {
	cfg, _, err := image.DecodeConfig(r)
	if err != nil {
		return domain.Dimension{}, fmt.Errorf("%w: probe: %w", domain.ErrSourceUnavailable, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return domain.Dimension{}, fmt.Errorf("%w: empty image bounds %dx%d", domain.ErrSourceUnavailable, cfg.Width, cfg.Height)
	}
	return domain.NewDimension(cfg.Width, cfg.Height), nil
}

// Decode decodes the source and, for factor > 1, reduces it by that factor
// on both axes. Orientation from EXIF is baked into the pixels unless the
// block, orientation tag included, is written back to JPEG output.
func (p *ImageProcessor) Decode(r io.Reader, factor int) (image.Image, error) {
	img, err := imaging.Decode(r, imaging.AutoOrientation(!p.writesExif()))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrDecodeFailure, err)
	}

	bounds := img.Bounds()
	if bounds.Dx() == 0 || bounds.Dy() == 0 {
		return nil, fmt.Errorf("%w: decoded image is empty", domain.ErrDecodeFailure)
	}
	if factor <= 1 {
		return img, nil
	}

	w := max(1, bounds.Dx()/factor)
	h := max(1, bounds.Dy()/factor)
	reduced := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.ApproxBiLinear.Scale(reduced, reduced.Bounds(), img, bounds, draw.Src, nil)

	zlog.Logger.Debug().
		Int("width", bounds.Dx()).
		Int("height", bounds.Dy()).
		Int("factor", factor).
		Int("reduced_width", w).
		Int("reduced_height", h).
		Msg("image decoded at reduced resolution")

	return reduced, nil
}

func (p *ImageProcessor) Scale(img image.Image, width, height int) image.Image {
	b := img.Bounds()
	if b.Dx() == width && b.Dy() == height {
		return img
	}
	return imaging.Resize(img, width, height, p.filter)
}

// Metadata returns the EXIF block to write into every derivative of the
// source read from r. r is not read for the none strategy.
func (p *ImageProcessor) Metadata(r io.Reader) []byte {
	switch p.metadata {
	case domain.MetadataNone:
		return nil
	case domain.MetadataPreserve:
		if r == nil {
			return nil
		}
		return ReadExif(r)
	default:
		if r != nil {
			if raw := ReadExif(r); raw != nil {
				return raw
			}
		}
		raw, err := SynthesizeExif(p.now())
		if err != nil {
			zlog.Logger.Warn().Err(err).Msg("failed to synthesize exif block")
			return nil
		}
		return raw
	}
}

// Encode writes img in the output format. A non-empty exif block is embedded
// for JPEG output only.
func (p *ImageProcessor) Encode(w io.Writer, img image.Image, exif []byte) error {
	if p.format != imaging.JPEG || len(exif) == 0 {
		if err := imaging.Encode(w, img, p.format, imaging.JPEGQuality(p.quality)); err != nil {
			return fmt.Errorf("%w: %w", domain.ErrEncodeFailure, err)
		}
		return nil
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(p.quality)); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrEncodeFailure, err)
	}

	out, err := InjectExif(buf.Bytes(), exif)
	if err != nil {
		zlog.Logger.Warn().Err(err).Msg("skipping exif block")
		out = buf.Bytes()
	}

	if _, err := w.Write(out); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrEncodeFailure, err)
	}
	return nil
}
