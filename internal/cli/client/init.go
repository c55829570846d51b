package client

import (
	"fmt"

	"github.com/spf13/cobra"
)

func InitCmd() *cobra.Command {
	var apiToken string
	var apiURL string

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Configure the sophia client",
		Long:  "Saves the daemon URL and API token to the user config directory and verifies connectivity.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(apiToken, apiURL)
		},
	}

	cmd.Flags().StringVar(&apiToken, "api-token", "", "API token (omit if the daemon runs without auth)")
	cmd.Flags().StringVar(&apiURL, "api-url", defaultAPIURL, "Daemon base URL")

	return cmd
}

func runInit(apiToken, apiURL string) error {
	api := NewAPIClientWithConfig(apiToken, apiURL)
	if _, err := api.Get("/health"); err != nil {
		return fmt.Errorf("could not reach daemon at %s: %w", apiURL, err)
	}

	if err := SaveGlobalConfig(&GlobalConfig{APIToken: apiToken, APIURL: apiURL}); err != nil {
		return err
	}

	configPath, err := GetConfigPath()
	if err != nil {
		return err
	}
	fmt.Printf("Configuration saved to %s\n", configPath)
	return nil
}
