package musicgen

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/book-expert/logger"
	"github.com/book-expert/musicgen-service/internal/config"
	"github.com/book-expert/musicgen-service/internal/core"
)

// WarmupTimeout bounds the one-time readiness probe performed on first use.
const WarmupTimeout = 10 * time.Second

// Engine implements core.MusicGenerator on top of the inference service
// client. The model behind the service is loaded once per worker process; the
// engine mirrors that lifecycle by warming up exactly once, guarded against
// racing cold-start invocations. After warmup the engine holds no mutable
// state and is safe for concurrent use.
type Engine struct {
	client     *HTTPClient
	sampleRate int
	format     string
	log        *logger.Logger

	warmOnce sync.Once
	warmErr  error
}

// NewEngine creates an engine with the provided configuration. The engine
// communicates with the inference service at the configured URL and uses the
// configured timeout for generation calls.
func NewEngine(cfg config.EngineConfig, log *logger.Logger) *Engine {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	client := NewHTTPClient(cfg.BaseURL, timeout)

	return NewEngineWithClient(cfg, log, client)
}

// NewEngineWithClient creates an engine with a custom client. This constructor
// is primarily for testing purposes, allowing injection of clients pointed at
// test servers while maintaining the same engine behavior.
func NewEngineWithClient(
	cfg config.EngineConfig,
	log *logger.Logger,
	client *HTTPClient,
) *Engine {
	return &Engine{
		client:     client,
		sampleRate: cfg.SampleRate,
		format:     cfg.AudioFormat,
		log:        log,
		warmOnce:   sync.Once{},
		warmErr:    nil,
	}
}

// Generate produces one clip of audio for the given validated request. The
// first call in a process performs the warmup probe; its outcome is cached,
// so a worker whose model never became ready fails every job the same way.
func (e *Engine) Generate(ctx context.Context, req core.GenerationRequest) (*core.Audio, error) {
	warmErr := e.ensureReady()
	if warmErr != nil {
		return nil, fmt.Errorf("inference service not ready: %w", warmErr)
	}

	data, err := e.client.GenerateMusic(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to generate music: %w", err)
	}

	e.log.Info("Generated audio: %d bytes (%d ms requested)", len(data), req.MaxAudioLengthMS)

	// The model runtime reports the requested length as the clip duration.
	return &core.Audio{
		Data:       data,
		DurationMS: req.MaxAudioLengthMS,
		SampleRate: e.sampleRate,
		Format:     e.format,
	}, nil
}

func (e *Engine) ensureReady() error {
	e.warmOnce.Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), WarmupTimeout)
		defer cancel()

		e.log.Info("Warming up inference service at cold start")

		e.warmErr = e.client.HealthCheck(ctx)
		if e.warmErr == nil {
			e.log.Info("Inference service ready")
		}
	})

	return e.warmErr
}
