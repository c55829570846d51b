package client

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/cloo-solutions/sophia/internal/domain"
	"github.com/spf13/cobra"
)

type searchRequest struct {
	Query string `json:"query"`
	TopK  int    `json:"top_k,omitempty"`
}

// SearchCmd creates the search command.
func SearchCmd() *cobra.Command {
	var topK int

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search indexed documents",
		Long:  "Runs a similarity search over indexed document chunks.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			return runSearch(cmd, args[0], topK, outputJSON)
		},
	}

	cmd.Flags().IntVarP(&topK, "top-k", "n", 5, "Maximum number of results")

	return cmd
}

func runSearch(cmd *cobra.Command, query string, topK int, outputJSON bool) error {
	api, err := NewAPIClientWithCmd(cmd)
	if err != nil {
		return err
	}

	resp, err := api.Post("/search", searchRequest{Query: query, TopK: topK})
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	var items []domain.ContextItem
	if err := json.Unmarshal(resp.Data, &items); err != nil {
		return fmt.Errorf("failed to parse search results: %w", err)
	}

	if outputJSON {
		output, _ := json.MarshalIndent(items, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	if len(items) == 0 {
		fmt.Println("No results found.")
		return nil
	}

	fmt.Printf("Found %d results:\n\n", len(items))
	for i, item := range items {
		fmt.Printf("%d. [%s #%d] (%.2f)\n", i+1, item.Metadata.Source, item.Metadata.ChunkIndex, item.Relevance)
		text := item.Text
		if len(text) > 200 {
			text = text[:197] + "..."
		}
		fmt.Printf("   %s\n", text)
		if i < len(items)-1 {
			fmt.Println(strings.Repeat("-", 40))
		}
	}

	return nil
}
