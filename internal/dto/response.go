package dto

import (
	"fmt"
	"time"

	"github.com/yokitheyo/imageresizer/internal/domain"
)

type ProfileResultResponse struct {
	Profile string `json:"profile"`
	Status  string `json:"status"`
	Slot    *int   `json:"slot,omitempty"`
	Path    string `json:"path,omitempty"`
	URL     string `json:"url,omitempty"`
	Key     string `json:"key,omitempty"`
	Width   int    `json:"width,omitempty"`
	Height  int    `json:"height,omitempty"`
	Error   string `json:"error,omitempty"`
}

type ResizeResponse struct {
	RequestID string                  `json:"request_id"`
	Source    string                  `json:"source"`
	Completed int                     `json:"completed"`
	Results   []ProfileResultResponse `json:"results"`
}

// ResizeOutcomeMessage is published to the result topic once a task is done.
type ResizeOutcomeMessage struct {
	TaskID     string                  `json:"task_id"`
	Completed  int                     `json:"completed"`
	Results    []ProfileResultResponse `json:"results"`
	FinishedAt time.Time               `json:"finished_at"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Code    int    `json:"code,omitempty"`
}

// MapOutcomeToResults converts an outcome into one entry per profile. Completed
// entries carry the slot file path; decorate, when set, fills the rest.
func MapOutcomeToResults(outcome domain.ResizeOutcome, decorate func(r domain.ResizeResult, resp *ProfileResultResponse)) []ProfileResultResponse {
	results := make([]ProfileResultResponse, 0, len(outcome.Results))
	for _, r := range outcome.Results {
		resp := ProfileResultResponse{
			Profile: string(r.Profile),
			Status:  string(r.Status),
		}
		if r.IsCompleted() {
			index := r.Slot.Index
			resp.Slot = &index
			resp.Path = r.Slot.Path
			resp.Width = r.Width
			resp.Height = r.Height
			if decorate != nil {
				decorate(r, &resp)
			}
		}
		if r.Err != nil {
			resp.Error = r.Err.Error()
		}
		results = append(results, resp)
	}
	return results
}

func MapOutcomeToResponse(requestID, source string, outcome domain.ResizeOutcome, baseURL string) *ResizeResponse {
	return &ResizeResponse{
		RequestID: requestID,
		Source:    source,
		Completed: outcome.Completed(),
		Results: MapOutcomeToResults(outcome, func(r domain.ResizeResult, resp *ProfileResultResponse) {
			resp.URL = fmt.Sprintf("%s/artifact/%d", baseURL, r.Slot.Index)
		}),
	}
}

// MapOutcomeToMessage reports each derivative by its slot path. Key is the
// suggested {task_id}_{profile}.{ext} name for consumers that copy the file
// out of the rotating store; no file is written under that name.
func MapOutcomeToMessage(taskID string, outcome domain.ResizeOutcome, ext string, finishedAt time.Time) *ResizeOutcomeMessage {
	return &ResizeOutcomeMessage{
		TaskID:    taskID,
		Completed: outcome.Completed(),
		Results: MapOutcomeToResults(outcome, func(r domain.ResizeResult, resp *ProfileResultResponse) {
			resp.Key = fmt.Sprintf("%s_%s.%s", taskID, r.Profile, ext)
		}),
		FinishedAt: finishedAt,
	}
}
