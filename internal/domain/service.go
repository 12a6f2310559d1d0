package domain

import (
	"context"
	"io"
)

// SourceImage is a re-openable handle to a caller supplied image. Every call
// to Open returns a fresh reader positioned at the start of the image.
type SourceImage interface {
	Open(ctx context.Context) (io.ReadCloser, error)
	Name() string
}

type ResizerService interface {
	Resize(ctx context.Context, source SourceImage, cfg *ResizeConfig) (ResizeOutcome, error)
	ScaleImage(ctx context.Context, source SourceImage, target Dimension) (ArtifactSlot, error)
}

type ArtifactService interface {
	Open(index int) (io.ReadCloser, error)
	Flush() error
	Capacity() int
}

type OutcomePublisher interface {
	PublishOutcome(ctx context.Context, taskID string, outcome ResizeOutcome) error
	Close() error
}
