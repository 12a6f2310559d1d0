package storage

import (
	"github.com/yokitheyo/imageresizer/internal/config"
)

// New builds the artifact store described by the store section of the config.
func New(cfg *config.StoreConfig) (*ArtifactStore, error) {
	return NewArtifactStore(cfg.Dir, cfg.Extension)
}
