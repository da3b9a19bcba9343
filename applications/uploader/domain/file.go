package domain

import (
	"encoding/json"
	"io"
)

type SelectedFile struct {
	Name string
	Size int64
	Open func() (io.ReadCloser, error)
}

type UploadResult struct {
	Success   bool              `json:"success"`
	Questions []json.RawMessage `json:"questions,omitempty"`
	Error     string            `json:"error,omitempty"`
}

type Notification struct {
	SubmissionID string
	Success      bool
	Message      string
}
