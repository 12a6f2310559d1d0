package domain

import (
	"fmt"
	"strings"
)

type ResultStatus string

const (
	StatusCompleted ResultStatus = "completed"
	StatusDisabled  ResultStatus = "disabled"
	StatusFailed    ResultStatus = "failed"
	StatusCanceled  ResultStatus = "canceled"
)

type MetadataStrategy string

const (
	// MetadataNone re-encodes pixels only.
	MetadataNone MetadataStrategy = "none"
	// MetadataPreserve copies the source EXIF block when there is one.
	MetadataPreserve MetadataStrategy = "preserve"
	// MetadataSynthesize copies the source EXIF block, or writes a minimal one
	// carrying only the capture timestamp when the source has none.
	MetadataSynthesize MetadataStrategy = "synthesize"
)

func ParseMetadataStrategy(s string) (MetadataStrategy, error) {
	switch m := MetadataStrategy(strings.ToLower(strings.TrimSpace(s))); m {
	case MetadataNone, MetadataPreserve, MetadataSynthesize:
		return m, nil
	case "":
		return MetadataSynthesize, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidMetadata, s)
	}
}

// ArtifactSlot is one file of the rotating artifact pool.
type ArtifactSlot struct {
	Index int    `json:"index"`
	Path  string `json:"path"`
}

type ResizeResult struct {
	Profile ProfileName   `json:"profile"`
	Status  ResultStatus  `json:"status"`
	Slot    *ArtifactSlot `json:"slot,omitempty"`
	Width   int           `json:"width,omitempty"`
	Height  int           `json:"height,omitempty"`
	Err     error         `json:"-"`
}

func (r ResizeResult) IsCompleted() bool {
	return r.Status == StatusCompleted && r.Slot != nil
}

func (r *ResizeResult) MarkAsCompleted(slot ArtifactSlot, width, height int) {
	r.Status = StatusCompleted
	r.Slot = &slot
	r.Width = width
	r.Height = height
	r.Err = nil
}

func (r *ResizeResult) MarkAsFailed(err error) {
	r.Status = StatusFailed
	r.Slot = nil
	r.Err = err
}

// ResizeOutcome holds exactly one result per known profile, in ProfileOrder.
type ResizeOutcome struct {
	Results []ResizeResult `json:"results"`
}

// Get returns the result recorded for name.
func (o ResizeOutcome) Get(name ProfileName) (ResizeResult, bool) {
	for _, r := range o.Results {
		if r.Profile == name {
			return r, true
		}
	}
	return ResizeResult{}, false
}

// Slot returns the artifact for name, or nil when the profile was disabled,
// failed or canceled.
func (o ResizeOutcome) Slot(name ProfileName) *ArtifactSlot {
	r, ok := o.Get(name)
	if !ok || !r.IsCompleted() {
		return nil
	}
	return r.Slot
}

func (o ResizeOutcome) Completed() int {
	n := 0
	for _, r := range o.Results {
		if r.IsCompleted() {
			n++
		}
	}
	return n
}
