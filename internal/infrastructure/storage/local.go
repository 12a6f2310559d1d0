package storage

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/wb-go/wbf/zlog"
	"github.com/yokitheyo/imageresizer/internal/domain"
)

// Capacity is the number of slots in the rotating pool.
const Capacity = 10

// ArtifactStore is a ring of Capacity files in a scratch directory. Slot i
// always maps to image{i}.{ext}; a write to a reused slot truncates the file
// left there by the previous rotation.
type ArtifactStore struct {
	mu   sync.Mutex
	dir  string
	ext  string
	next uint64
}

func NewArtifactStore(dir, ext string) (*ArtifactStore, error) {
	if dir == "" {
		return nil, fmt.Errorf("store dir is empty, set store.dir in config or env")
	}
	if ext == "" {
		return nil, fmt.Errorf("store extension is empty")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}

	zlog.Logger.Info().
		Str("dir", dir).
		Str("ext", ext).
		Int("capacity", Capacity).
		Msg("ArtifactStore initialized")

	return &ArtifactStore{dir: dir, ext: ext}, nil
}

// Allocate returns the next slot in rotation and advances the counter.
func (s *ArtifactStore) Allocate() domain.ArtifactSlot {
	s.mu.Lock()
	index := int(s.next % Capacity)
	s.next++
	s.mu.Unlock()

	return domain.ArtifactSlot{Index: index, Path: s.path(index)}
}

// Create opens the slot file for writing, truncating any previous artifact.
func (s *ArtifactStore) Create(slot domain.ArtifactSlot) (io.WriteCloser, error) {
	if _, err := os.Stat(slot.Path); err == nil {
		zlog.Logger.Debug().Int("slot", slot.Index).Str("path", slot.Path).Msg("slot reused, previous artifact will be overwritten")
	}

	file, err := os.Create(slot.Path)
	if err != nil {
		zlog.Logger.Error().Err(err).Str("path", slot.Path).Msg("failed to create file")
		return nil, fmt.Errorf("%w: create file %s: %w", domain.ErrEncodeFailure, slot.Path, err)
	}
	return file, nil
}

// Remove deletes the file held by slot. A slot that holds nothing is not an
// error.
func (s *ArtifactStore) Remove(slot domain.ArtifactSlot) error {
	if err := os.Remove(slot.Path); err != nil && !os.IsNotExist(err) {
		zlog.Logger.Error().Err(err).Str("path", slot.Path).Msg("failed to delete file")
		return fmt.Errorf("delete file %s: %w", slot.Path, err)
	}
	return nil
}

// Open returns the artifact currently held by slot index.
func (s *ArtifactStore) Open(index int) (io.ReadCloser, error) {
	if index < 0 || index >= Capacity {
		return nil, fmt.Errorf("%w: slot %d out of range", domain.ErrArtifactNotFound, index)
	}

	fullPath := s.path(index)
	file, err := os.Open(fullPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: slot %d", domain.ErrArtifactNotFound, index)
		}
		zlog.Logger.Error().Err(err).Str("path", fullPath).Msg("failed to open file")
		return nil, fmt.Errorf("open file %s: %w", fullPath, err)
	}
	return file, nil
}

// Flush removes every slot file, present or not, and restarts the rotation
// at slot 0.
func (s *ArtifactStore) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var errs []error
	removed := 0
	for i := 0; i < Capacity; i++ {
		fullPath := s.path(i)
		if err := os.Remove(fullPath); err != nil {
			if os.IsNotExist(err) {
				continue
			}
			zlog.Logger.Error().Err(err).Str("path", fullPath).Msg("failed to delete file")
			errs = append(errs, fmt.Errorf("delete file %s: %w", fullPath, err))
			continue
		}
		removed++
	}
	s.next = 0

	zlog.Logger.Info().Int("removed", removed).Msg("artifact store flushed")
	return errors.Join(errs...)
}

func (s *ArtifactStore) Capacity() int {
	return Capacity
}

func (s *ArtifactStore) Extension() string {
	return s.ext
}

func (s *ArtifactStore) path(index int) string {
	return filepath.Join(s.dir, fmt.Sprintf("image%d.%s", index, s.ext))
}
