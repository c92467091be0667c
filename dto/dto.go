package dto

import "github.com/google/uuid"

// RunRequest asks the worker to schedule a pipeline pass.
type RunRequest struct {
	RequestId uuid.UUID `json:"requestId"`
	Reason    string    `json:"reason"`
	Subtitles bool      `json:"subtitles"`
}

type RunAccepted struct {
	Accepted bool   `json:"accepted"`
	Message  string `json:"message"`
}
