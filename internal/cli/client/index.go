package client

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
)

type indexRequest struct {
	DocumentID string `json:"document_id"`
	Text       string `json:"text"`
}

type indexResponse struct {
	DocumentID    string `json:"document_id"`
	ChunksIndexed int    `json:"chunks_indexed"`
}

// IndexCmd creates the index command.
func IndexCmd() *cobra.Command {
	var documentID string

	cmd := &cobra.Command{
		Use:   "index <file>",
		Short: "Index a project document",
		Long:  "Reads a text file, chunks it, and indexes it for retrieval. Re-indexing a document ID replaces its chunks.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIndex(cmd, args[0], documentID)
		},
	}

	cmd.Flags().StringVar(&documentID, "id", "", "Document ID (default: file name without extension)")

	return cmd
}

func documentIDFromPath(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func runIndex(cmd *cobra.Command, path, documentID string) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	if documentID == "" {
		documentID = documentIDFromPath(path)
	}

	api, err := NewAPIClientWithCmd(cmd)
	if err != nil {
		return err
	}

	resp, err := api.Post("/documents", indexRequest{DocumentID: documentID, Text: string(content)})
	if err != nil {
		return fmt.Errorf("indexing failed: %w", err)
	}

	var result indexResponse
	if err := json.Unmarshal(resp.Data, &result); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	fmt.Printf("Indexed '%s': %d chunks\n", result.DocumentID, result.ChunksIndexed)
	return nil
}

// DeleteCmd creates the delete command.
func DeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <document-id>",
		Short: "Remove a document from the index",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := NewAPIClientWithCmd(cmd)
			if err != nil {
				return err
			}

			if _, err := api.Delete("/documents/" + args[0]); err != nil {
				return fmt.Errorf("delete failed: %w", err)
			}

			fmt.Printf("Deleted '%s'\n", args[0])
			return nil
		},
	}
}
