package cli

import (
	"fmt"

	"github.com/book-expert/musicgen-service/internal/jobclient"
	"github.com/spf13/cobra"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check that credentials resolve and the endpoint answers",
	RunE:  runHealth,
}

func init() {
	rootCmd.AddCommand(healthCmd)
}

func runHealth(cmd *cobra.Command, _ []string) error {
	log, err := setup()
	if err != nil {
		return err
	}

	defer func() {
		_ = log.Close()
	}()

	client, err := jobclient.New(jobclient.Options{
		APIKey:     apiKey,
		EndpointID: endpointID,
		BaseURL:    baseURL,
	}, log)
	if err != nil {
		return err
	}

	healthErr := client.HealthCheck(cmd.Context())
	if healthErr != nil {
		fmt.Printf("Endpoint is not healthy: %v\n", healthErr)

		return healthErr
	}

	fmt.Println("Endpoint is healthy")

	return nil
}
