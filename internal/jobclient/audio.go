package jobclient

import (
	"encoding/base64"
	"errors"
	"fmt"
	"os"

	"github.com/book-expert/musicgen-service/internal/core"
)

const filePermissions = 0o600

// Static errors.
var (
	// ErrNoAudioData indicates that the result carries no audio payload.
	ErrNoAudioData = errors.New("no audio data in result")
	// ErrUnrecognizedFormat indicates a format tag outside the supported set.
	ErrUnrecognizedFormat = errors.New("unrecognized audio format")
)

// Audio formats this client knows how to persist.
var recognizedFormats = map[string]struct{}{
	"mp3":  {},
	"wav":  {},
	"flac": {},
	"ogg":  {},
}

// SaveAudio decodes the result's audio payload and writes it to the given
// path. It fails if the result's format is unrecognized, the payload is
// missing or not valid base64, or the path is not writable.
func SaveAudio(result *core.GenerationResult, path string) error {
	if result == nil || result.AudioBase64 == "" {
		return ErrNoAudioData
	}

	if _, ok := recognizedFormats[result.Format]; !ok {
		return fmt.Errorf("%w: %q", ErrUnrecognizedFormat, result.Format)
	}

	audioData, err := base64.StdEncoding.DecodeString(result.AudioBase64)
	if err != nil {
		return fmt.Errorf("failed to decode audio payload: %w", err)
	}

	err = os.WriteFile(path, audioData, filePermissions)
	if err != nil {
		return fmt.Errorf("failed to write audio file: %w", err)
	}

	return nil
}
