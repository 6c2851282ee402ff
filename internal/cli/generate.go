package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/book-expert/musicgen-service/internal/core"
	"github.com/book-expert/musicgen-service/internal/jobclient"
	"github.com/spf13/cobra"
)

var (
	lyricsArg    string
	tags         string
	outputPath   string
	maxLengthMS  int
	temperature  float64
	topK         int
	cfgScale     float64
	pollTimeout  time.Duration
	pollInterval time.Duration
	useSync      bool

	generateCmd = &cobra.Command{
		Use:   "generate",
		Short: "Generate music from lyrics and save it to a file",
		RunE:  runGenerate,
	}
)

func init() {
	rootCmd.AddCommand(generateCmd)

	generateCmd.Flags().StringVarP(&lyricsArg, "lyrics", "l", "", "Lyrics text or path to a lyrics file")
	generateCmd.Flags().StringVarP(&tags, "tags", "t", core.DefaultTags, "Comma-separated style tags")
	generateCmd.Flags().StringVarP(&outputPath, "output", "o", "output.mp3", "Output file path")
	generateCmd.Flags().IntVar(&maxLengthMS, "max-length", core.DefaultMaxAudioLengthMS, "Max audio length in ms")
	generateCmd.Flags().Float64Var(&temperature, "temperature", core.DefaultTemperature, "Sampling temperature")
	generateCmd.Flags().IntVar(&topK, "topk", core.DefaultTopK, "Top-k sampling width")
	generateCmd.Flags().Float64Var(&cfgScale, "cfg-scale", core.DefaultCFGScale, "Classifier-free guidance scale")
	generateCmd.Flags().DurationVar(&pollTimeout, "timeout", jobclient.DefaultPollTimeout, "Max time to wait for completion")
	generateCmd.Flags().DurationVar(&pollInterval, "poll-interval", jobclient.DefaultPollInterval, "Time between status checks")
	generateCmd.Flags().BoolVar(&useSync, "sync", false, "Use the synchronous endpoint (short clips only)")

	_ = generateCmd.MarkFlagRequired("lyrics")
}

func runGenerate(cmd *cobra.Command, _ []string) error {
	log, err := setup()
	if err != nil {
		return err
	}

	defer func() {
		_ = log.Close()
	}()

	lyrics, err := resolveLyrics(lyricsArg)
	if err != nil {
		return err
	}

	client, err := jobclient.New(jobclient.Options{
		APIKey:       apiKey,
		EndpointID:   endpointID,
		BaseURL:      baseURL,
		PollInterval: pollInterval,
		PollTimeout:  pollTimeout,
		HTTPTimeout:  jobclient.DefaultHTTPTimeout,
	}, log)
	if err != nil {
		return err
	}

	req := core.GenerationRequest{
		Lyrics:           lyrics,
		Tags:             tags,
		MaxAudioLengthMS: maxLengthMS,
		Temperature:      temperature,
		TopK:             topK,
		CFGScale:         cfgScale,
	}

	fmt.Println("Generating music...")

	ctx := cmd.Context()

	var result *core.GenerationResult
	if useSync {
		result, err = client.GenerateSync(ctx, req)
	} else {
		result, err = client.Generate(ctx, req)
	}

	if err != nil {
		log.Error("Generation failed: %v", err)

		return fmt.Errorf("generation failed: %w", err)
	}

	saveErr := jobclient.SaveAudio(result, outputPath)
	if saveErr != nil {
		log.Error("Failed to save audio: %v", saveErr)

		return fmt.Errorf("failed to save audio: %w", saveErr)
	}

	fmt.Printf("Saved audio to: %s\n", outputPath)
	fmt.Printf("Size: %d bytes\n", result.SizeBytes)
	fmt.Printf("Format: %s\n", result.Format)
	fmt.Printf("Sample rate: %d Hz\n", result.SampleRate)

	return nil
}

// resolveLyrics returns the contents of the named file when the argument is a
// path to an existing file, otherwise the argument itself as inline lyrics.
func resolveLyrics(arg string) (string, error) {
	info, statErr := os.Stat(arg)
	if statErr != nil || info.IsDir() {
		return arg, nil
	}

	data, err := os.ReadFile(arg)
	if err != nil {
		return "", fmt.Errorf("failed to read lyrics file %s: %w", arg, err)
	}

	return string(data), nil
}
