// Package handler adapts one platform-delivered job payload into one model
// invocation and one response payload.
package handler

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/book-expert/logger"
	"github.com/book-expert/musicgen-service/internal/core"
)

// ErrInvalidInput indicates that the job input payload could not be decoded
// into a generation request.
var ErrInvalidInput = errors.New("invalid job input")

// Handler processes generation jobs. It is stateless across invocations; the
// only shared state in the process is the generator behind it, which is
// read-only after its one-time initialization.
type Handler struct {
	generator core.MusicGenerator
	log       *logger.Logger
}

// New creates a handler backed by the given generator.
func New(generator core.MusicGenerator, log *logger.Logger) *Handler {
	return &Handler{
		generator: generator,
		log:       log,
	}
}

// Handle decodes a raw job input mapping, validates it, invokes the model and
// assembles the response. Unknown input keys are ignored; a missing lyrics
// field or an out-of-range parameter fails the job before the model is ever
// invoked. All failures are returned as errors so the transport can report
// the job FAILED instead of crashing the worker.
func (h *Handler) Handle(ctx context.Context, raw json.RawMessage) (*core.GenerationResult, error) {
	req, err := parseInput(raw)
	if err != nil {
		return nil, err
	}

	req.ApplyDefaults()

	validationErr := req.Validate()
	if validationErr != nil {
		return nil, validationErr
	}

	audio, err := h.generator.Generate(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("model invocation failed: %w", err)
	}

	result := encodeResult(audio)

	h.log.Info("Generated %d bytes of %s audio (%d ms)",
		result.SizeBytes, result.Format, result.DurationMS)

	return result, nil
}

// parseInput decodes the loose input mapping into a typed request. A JSON
// type mismatch on a known key is a validation failure, not a worker crash.
func parseInput(raw json.RawMessage) (core.GenerationRequest, error) {
	var req core.GenerationRequest

	if len(raw) == 0 {
		return req, fmt.Errorf("%w: empty input", ErrInvalidInput)
	}

	err := json.Unmarshal(raw, &req)
	if err != nil {
		return req, fmt.Errorf("%w: %s", ErrInvalidInput, err)
	}

	return req, nil
}

// encodeResult packages raw audio into the text-safe response wire shape.
func encodeResult(audio *core.Audio) *core.GenerationResult {
	return &core.GenerationResult{
		AudioBase64: base64.StdEncoding.EncodeToString(audio.Data),
		DurationMS:  audio.DurationMS,
		SampleRate:  audio.SampleRate,
		Format:      audio.Format,
		SizeBytes:   len(audio.Data),
	}
}
