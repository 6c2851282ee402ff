// Package core_test tests request defaulting and validation.
package core_test

import (
	"testing"

	"github.com/book-expert/musicgen-service/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerationRequest_ApplyDefaults(t *testing.T) {
	t.Parallel()

	req := core.GenerationRequest{Lyrics: "[Verse]\nHello world"}
	req.ApplyDefaults()

	assert.Equal(t, "pop,upbeat", req.Tags)
	assert.Equal(t, 120000, req.MaxAudioLengthMS)
	assert.InEpsilon(t, 1.0, req.Temperature, 0.001)
	assert.Equal(t, 50, req.TopK)
	assert.InEpsilon(t, 1.5, req.CFGScale, 0.001)
}

func TestGenerationRequest_ApplyDefaults_KeepsExplicitValues(t *testing.T) {
	t.Parallel()

	req := core.GenerationRequest{
		Lyrics:           "la la la",
		Tags:             "jazz,piano",
		MaxAudioLengthMS: 60000,
		Temperature:      0.8,
		TopK:             20,
		CFGScale:         2.0,
	}
	req.ApplyDefaults()

	assert.Equal(t, "jazz,piano", req.Tags)
	assert.Equal(t, 60000, req.MaxAudioLengthMS)
	assert.InEpsilon(t, 0.8, req.Temperature, 0.001)
	assert.Equal(t, 20, req.TopK)
	assert.InEpsilon(t, 2.0, req.CFGScale, 0.001)
}

func TestGenerationRequest_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*core.GenerationRequest)
		wantErr error
	}{
		{
			name:    "valid request",
			mutate:  func(_ *core.GenerationRequest) {},
			wantErr: nil,
		},
		{
			name:    "missing lyrics",
			mutate:  func(r *core.GenerationRequest) { r.Lyrics = "" },
			wantErr: core.ErrLyricsRequired,
		},
		{
			name:    "audio length below minimum",
			mutate:  func(r *core.GenerationRequest) { r.MaxAudioLengthMS = 9999 },
			wantErr: core.ErrMaxAudioLengthRange,
		},
		{
			name:    "audio length above maximum",
			mutate:  func(r *core.GenerationRequest) { r.MaxAudioLengthMS = 240001 },
			wantErr: core.ErrMaxAudioLengthRange,
		},
		{
			name:    "negative temperature",
			mutate:  func(r *core.GenerationRequest) { r.Temperature = -0.5 },
			wantErr: core.ErrTemperatureRange,
		},
		{
			name:    "negative topk",
			mutate:  func(r *core.GenerationRequest) { r.TopK = -1 },
			wantErr: core.ErrTopKRange,
		},
		{
			name:    "negative cfg scale",
			mutate:  func(r *core.GenerationRequest) { r.CFGScale = -1.5 },
			wantErr: core.ErrCFGScaleRange,
		},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			req := core.GenerationRequest{Lyrics: "some lyrics"}
			req.ApplyDefaults()
			testCase.mutate(&req)

			err := req.Validate()
			if testCase.wantErr == nil {
				require.NoError(t, err)

				return
			}

			require.ErrorIs(t, err, testCase.wantErr)
		})
	}
}

func TestGenerationRequest_BoundaryLengthsAccepted(t *testing.T) {
	t.Parallel()

	for _, length := range []int{core.MinAudioLengthMS, core.MaxAudioLengthMS} {
		req := core.GenerationRequest{Lyrics: "x", MaxAudioLengthMS: length}
		req.ApplyDefaults()
		require.NoError(t, req.Validate())
	}
}

func TestJobStatus_Terminal(t *testing.T) {
	t.Parallel()

	assert.False(t, core.JobStatusInQueue.Terminal())
	assert.False(t, core.JobStatusInProgress.Terminal())
	assert.True(t, core.JobStatusCompleted.Terminal())
	assert.True(t, core.JobStatusFailed.Terminal())
}
