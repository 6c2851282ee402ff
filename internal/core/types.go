// Package core defines the domain types and interfaces shared by the music
// generation client and worker.
package core

import "context"

// JobStatus is the platform-reported lifecycle state of a submitted job.
type JobStatus string

// Job statuses as reported by the serverless platform.
const (
	JobStatusInQueue    JobStatus = "IN_QUEUE"
	JobStatusInProgress JobStatus = "IN_PROGRESS"
	JobStatusCompleted  JobStatus = "COMPLETED"
	JobStatusFailed     JobStatus = "FAILED"
)

// Terminal reports whether no further status transitions can occur.
func (s JobStatus) Terminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// GenerationResult is the immutable output of a completed generation job.
// SizeBytes always equals the byte length of the decoded AudioBase64 payload.
type GenerationResult struct {
	AudioBase64 string `json:"audio_base64"`
	DurationMS  int    `json:"duration_ms"`
	SampleRate  int    `json:"sample_rate"`
	Format      string `json:"format"`
	SizeBytes   int    `json:"size_bytes"`
}

// Audio holds raw generated audio together with the metadata the model
// runtime reports for it.
type Audio struct {
	Data       []byte
	DurationMS int
	SampleRate int
	Format     string
}

// MusicGenerator turns a validated generation request into raw audio.
// Implementations must be safe for concurrent use after initialization.
type MusicGenerator interface {
	Generate(ctx context.Context, req GenerationRequest) (*Audio, error)
}
