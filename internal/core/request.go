package core

import (
	"errors"
	"fmt"
)

// Default values applied to optional request fields.
const (
	DefaultTags             = "pop,upbeat"
	DefaultMaxAudioLengthMS = 120000
	DefaultTemperature      = 1.0
	DefaultTopK             = 50
	DefaultCFGScale         = 1.5
)

// Bounds for the requested audio length.
const (
	MinAudioLengthMS = 10000
	MaxAudioLengthMS = 240000
)

// Static validation errors.
var (
	// ErrLyricsRequired indicates that the mandatory lyrics field is missing or empty.
	ErrLyricsRequired = errors.New("lyrics is required and cannot be empty")
	// ErrMaxAudioLengthRange indicates that max_audio_length_ms is outside [10000, 240000].
	ErrMaxAudioLengthRange = errors.New("max_audio_length_ms must be between 10000 and 240000")
	// ErrTemperatureRange indicates that the temperature is not a positive number.
	ErrTemperatureRange = errors.New("temperature must be greater than 0.0")
	// ErrTopKRange indicates that topk is not a positive integer.
	ErrTopKRange = errors.New("topk must be greater than 0")
	// ErrCFGScaleRange indicates that cfg_scale is not a positive number.
	ErrCFGScaleRange = errors.New("cfg_scale must be greater than 0.0")
)

// GenerationRequest describes one music generation job. Lyrics is mandatory;
// every other field is optional and defaulted by ApplyDefaults. Section
// markers inside the lyrics ([Verse], [Chorus], ...) are passed through
// verbatim, the platform does not parse structure.
type GenerationRequest struct {
	Lyrics           string  `json:"lyrics"`
	Tags             string  `json:"tags,omitempty"`
	MaxAudioLengthMS int     `json:"max_audio_length_ms,omitempty"`
	Temperature      float64 `json:"temperature,omitempty"`
	TopK             int     `json:"topk,omitempty"`
	CFGScale         float64 `json:"cfg_scale,omitempty"`
}

// ApplyDefaults fills zero-valued optional fields with their documented
// defaults. Lyrics is never defaulted.
func (r *GenerationRequest) ApplyDefaults() {
	if r.Tags == "" {
		r.Tags = DefaultTags
	}

	if r.MaxAudioLengthMS == 0 {
		r.MaxAudioLengthMS = DefaultMaxAudioLengthMS
	}

	if r.Temperature == 0 {
		r.Temperature = DefaultTemperature
	}

	if r.TopK == 0 {
		r.TopK = DefaultTopK
	}

	if r.CFGScale == 0 {
		r.CFGScale = DefaultCFGScale
	}
}

// Validate checks the request after defaults have been applied. An
// out-of-range max_audio_length_ms is rejected rather than clamped, so the
// caller learns that the requested length cannot be honored.
func (r *GenerationRequest) Validate() error {
	if r.Lyrics == "" {
		return ErrLyricsRequired
	}

	if r.MaxAudioLengthMS < MinAudioLengthMS || r.MaxAudioLengthMS > MaxAudioLengthMS {
		return fmt.Errorf("%w: got %d", ErrMaxAudioLengthRange, r.MaxAudioLengthMS)
	}

	if r.Temperature <= 0 {
		return fmt.Errorf("%w: got %f", ErrTemperatureRange, r.Temperature)
	}

	if r.TopK <= 0 {
		return fmt.Errorf("%w: got %d", ErrTopKRange, r.TopK)
	}

	if r.CFGScale <= 0 {
		return fmt.Errorf("%w: got %f", ErrCFGScaleRange, r.CFGScale)
	}

	return nil
}
