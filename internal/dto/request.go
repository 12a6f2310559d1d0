package dto

import (
	"fmt"
	"strings"

	"github.com/yokitheyo/imageresizer/internal/domain"
	"github.com/yokitheyo/imageresizer/internal/helpers"
)

// ResizeTask is the Kafka message asking the worker to resize one file.
type ResizeTask struct {
	TaskID     string   `json:"task_id"`
	SourcePath string   `json:"source_path"`
	Profiles   []string `json:"profiles,omitempty"`
}

func (t *ResizeTask) Validate() error {
	if strings.TrimSpace(t.TaskID) == "" {
		return fmt.Errorf("task_id is required")
	}
	if strings.TrimSpace(t.SourcePath) == "" {
		return fmt.Errorf("source_path is required")
	}
	return nil
}

// ApplyProfiles restricts base to the requested profile names. An empty
// request keeps base unchanged.
func ApplyProfiles(base *domain.ResizeConfig, names []string) (*domain.ResizeConfig, error) {
	cfg := base.Clone()
	if len(names) == 0 {
		return cfg, nil
	}

	selected := make([]domain.ProfileName, 0, len(names))
	for _, n := range names {
		name, err := domain.ParseProfileName(n)
		if err != nil {
			return nil, err
		}
		selected = append(selected, name)
	}
	return cfg.Only(selected...), nil
}

// ParseProfileList splits a comma separated form value such as "large,small".
func ParseProfileList(s string) []string {
	return helpers.SplitList(s)
}
