package usecase

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"time"

	"github.com/wb-go/wbf/zlog"
	"github.com/yokitheyo/imageresizer/internal/domain"
	"github.com/yokitheyo/imageresizer/internal/infrastructure/processor"
	"github.com/yokitheyo/imageresizer/internal/metrics"
)

// ImageCodec is the image handling ImageResizer needs from the processor.
type ImageCodec interface {
	Probe(r io.Reader) (domain.Dimension, error)
	Decode(r io.Reader, factor int) (image.Image, error)
	Scale(img image.Image, width, height int) image.Image
	Encode(w io.Writer, img image.Image, exif []byte) error
	Metadata(r io.Reader) []byte
	MetadataStrategy() domain.MetadataStrategy
}

// SlotStore hands out artifact slots and opens them for writing.
type SlotStore interface {
	Allocate() domain.ArtifactSlot
	Create(slot domain.ArtifactSlot) (io.WriteCloser, error)
	Remove(slot domain.ArtifactSlot) error
}

type ImageResizer struct {
	codec ImageCodec
	store SlotStore
}

func NewImageResizer(codec ImageCodec, store SlotStore) *ImageResizer {
	return &ImageResizer{
		codec: codec,
		store: store,
	}
}

type derivative struct {
	slot   domain.ArtifactSlot
	width  int
	height int
}

// Resize produces one derivative per enabled profile of cfg, in ProfileOrder.
// A failing profile is recorded in its result and never stops the others.
// The returned error is non-nil only for an invalid cfg, reported before the
// source is touched, or when ctx was canceled before every profile ran.
func (r *ImageResizer) Resize(ctx context.Context, source domain.SourceImage, cfg *domain.ResizeConfig) (domain.ResizeOutcome, error) {
	if cfg == nil {
		cfg = domain.NewResizeConfig()
	}
	if err := cfg.Validate(); err != nil {
		zlog.Logger.Error().Err(err).Str("source", source.Name()).Msg("rejecting resize request")
		return domain.ResizeOutcome{}, err
	}
	profiles := cfg.Profiles()
	// cancellation is observed between profiles only
	work := context.WithoutCancel(ctx)

	var meta []byte
	for _, p := range profiles {
		if p.Enabled && ctx.Err() == nil {
			meta = r.metadata(work, source)
			break
		}
	}

	outcome := domain.ResizeOutcome{Results: make([]domain.ResizeResult, 0, len(profiles))}
	canceled := false
	for _, p := range profiles {
		result := domain.ResizeResult{Profile: p.Name}

		switch {
		case ctx.Err() != nil:
			canceled = true
			result.Status = domain.StatusCanceled
			result.Err = ctx.Err()
		case !p.Enabled:
			result.Status = domain.StatusDisabled
		default:
			start := time.Now()
			d, err := r.resizeProfile(work, source, p.Name, p.Dimension, meta)
			metrics.ProfileDuration.WithLabelValues(string(p.Name)).Observe(time.Since(start).Seconds())
			if err != nil {
				result.MarkAsFailed(err)
				zlog.Logger.Error().
					Err(err).
					Str("source", source.Name()).
					Str("profile", string(p.Name)).
					Msg("profile failed")
				break
			}
			result.MarkAsCompleted(d.slot, d.width, d.height)
		}

		metrics.ProfilesTotal.WithLabelValues(string(p.Name), string(result.Status)).Inc()
		outcome.Results = append(outcome.Results, result)
	}

	zlog.Logger.Info().
		Str("source", source.Name()).
		Int("completed", outcome.Completed()).
		Int("profiles", len(outcome.Results)).
		Msg("resize finished")

	if canceled {
		return outcome, ctx.Err()
	}
	return outcome, nil
}

// ScaleImage produces a single derivative fitted into target, independent of
// any profile configuration.
func (r *ImageResizer) ScaleImage(ctx context.Context, source domain.SourceImage, target domain.Dimension) (domain.ArtifactSlot, error) {
	if !target.Valid() {
		return domain.ArtifactSlot{}, fmt.Errorf("%w: target %s", domain.ErrConfiguration, target)
	}
	if err := ctx.Err(); err != nil {
		return domain.ArtifactSlot{}, err
	}

	work := context.WithoutCancel(ctx)
	d, err := r.resizeProfile(work, source, domain.ProfileName(target.String()), target, r.metadata(work, source))
	if err != nil {
		return domain.ArtifactSlot{}, err
	}
	return d.slot, nil
}

func (r *ImageResizer) resizeProfile(
	ctx context.Context,
	source domain.SourceImage,
	name domain.ProfileName,
	target domain.Dimension,
	meta []byte,
) (derivative, error) {
	src, err := r.probe(ctx, source)
	if err != nil {
		return derivative{}, domain.NewProfileError(name, "probe", err)
	}

	factor := processor.SampleSize(src.Width, src.Height, target.Width, target.Height)
	metrics.SampleFactor.WithLabelValues(string(name)).Observe(float64(factor))

	img, err := r.decode(ctx, source, factor)
	if err != nil {
		return derivative{}, domain.NewProfileError(name, "decode", err)
	}

	bounds := img.Bounds()
	outW, outH := processor.FitSize(bounds.Dx(), bounds.Dy(), target.Width, target.Height)
	scaled := r.codec.Scale(img, outW, outH)

	slot := r.store.Allocate()
	metrics.SlotsAllocated.Inc()

	if err := r.write(slot, scaled, meta); err != nil {
		return derivative{}, domain.NewProfileError(name, "encode", err)
	}

	zlog.Logger.Info().
		Str("source", source.Name()).
		Str("profile", string(name)).
		Int("source_width", src.Width).
		Int("source_height", src.Height).
		Int("factor", factor).
		Int("width", outW).
		Int("height", outH).
		Int("slot", slot.Index).
		Msg("derivative written")

	return derivative{slot: slot, width: outW, height: outH}, nil
}

func (r *ImageResizer) probe(ctx context.Context, source domain.SourceImage) (domain.Dimension, error) {
	rc, err := source.Open(ctx)
	if err != nil {
		return domain.Dimension{}, sourceError(err)
	}
	defer rc.Close()

	return r.codec.Probe(rc)
}

func (r *ImageResizer) decode(ctx context.Context, source domain.SourceImage, factor int) (image.Image, error) {
	rc, err := source.Open(ctx)
	if err != nil {
		return nil, sourceError(err)
	}
	defer rc.Close()

	return r.codec.Decode(rc, factor)
}

// write encodes img into slot. A partial file is removed so the slot never
// serves a truncated artifact.
func (r *ImageResizer) write(slot domain.ArtifactSlot, img image.Image, meta []byte) error {
	w, err := r.store.Create(slot)
	if err != nil {
		return err
	}

	err = r.codec.Encode(w, img, meta)
	if cerr := w.Close(); cerr != nil && err == nil {
		err = fmt.Errorf("%w: close %s: %w", domain.ErrEncodeFailure, slot.Path, cerr)
	}
	if err != nil {
		if rerr := r.store.Remove(slot); rerr != nil {
			zlog.Logger.Warn().Err(rerr).Int("slot", slot.Index).Msg("failed to remove partial artifact")
		}
		return err
	}
	return nil
}

// metadata reads the EXIF block shared by every derivative of source.
func (r *ImageResizer) metadata(ctx context.Context, source domain.SourceImage) []byte {
	if r.codec.MetadataStrategy() == domain.MetadataNone {
		return nil
	}

	rc, err := source.Open(ctx)
	if err != nil {
		zlog.Logger.Warn().Err(err).Str("source", source.Name()).Msg("source metadata unavailable")
		return r.codec.Metadata(nil)
	}
	defer rc.Close()

	return r.codec.Metadata(rc)
}

func sourceError(err error) error {
	if errors.Is(err, domain.ErrSourceUnavailable) {
		return err
	}
	return fmt.Errorf("%w: %w", domain.ErrSourceUnavailable, err)
}
