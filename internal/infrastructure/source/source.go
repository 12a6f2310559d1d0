package source

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/yokitheyo/imageresizer/internal/domain"
)

type fileSource struct {
	path string
}

// NewFileSource returns a source that reopens path on every Open.
func NewFileSource(path string) domain.SourceImage {
	return &fileSource{path: path}
}

func (s *fileSource) Open(ctx context.Context) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %w", domain.ErrSourceUnavailable, s.path, err)
	}
	return f, nil
}

func (s *fileSource) Name() string {
	return filepath.Base(s.path)
}

type bytesSource struct {
	name string
	data []byte
}

// NewBytesSource wraps an in-memory image, e.g. an uploaded file.
func NewBytesSource(name string, data []byte) domain.SourceImage {
	return &bytesSource{name: name, data: data}
}

func (s *bytesSource) Open(ctx context.Context) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(s.data) == 0 {
		return nil, fmt.Errorf("%w: %s is empty", domain.ErrSourceUnavailable, s.name)
	}
	return io.NopCloser(bytes.NewReader(s.data)), nil
}

func (s *bytesSource) Name() string {
	return s.name
}
