// Package cli defines the cobra commands for the musicgen client.
package cli

import (
	"fmt"
	"os"

	"github.com/book-expert/logger"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

const logFileName = "musicgen-client.log"

var (
	apiKey     string
	endpointID string
	baseURL    string
	logDir     string

	rootCmd = &cobra.Command{
		Use:   "musicgen-client",
		Short: "Client for the musicgen serverless endpoint",
		Long: `Submits lyrics-to-music generation jobs to the serverless platform,
polls until completion and saves the generated audio. Credentials come from
the --api-key/--endpoint-id flags, the environment, or a .env file.`,
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&apiKey, "api-key", "", "Platform API key (or set RUNPOD_API_KEY)")
	rootCmd.PersistentFlags().StringVar(&endpointID, "endpoint-id", "", "Platform endpoint ID (or set RUNPOD_ENDPOINT_ID)")
	rootCmd.PersistentFlags().StringVar(&baseURL, "base-url", "", "Platform base URL override")
	rootCmd.PersistentFlags().StringVar(&logDir, "log-dir", os.TempDir(), "Directory for client log files")
}

// setup loads the optional .env file and initializes the client logger.
func setup() (*logger.Logger, error) {
	// A missing .env file is not an error; flags and the environment
	// remain authoritative.
	_ = godotenv.Load()

	log, err := logger.New(logDir, logFileName)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	return log, nil
}
