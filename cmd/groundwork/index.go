// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/groundwork/pkg/types"
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Build or inspect the document index",
}

var indexRebuildCmd = &cobra.Command{
	Use:   "rebuild",
	Short: "Reload the data folder and rebuild the index",
	Long: `Rebuild reads every .txt, .md and .pdf file in the data folder, splits
them into overlapping chunks, embeds the chunks and replaces the persisted
index. PDF files are converted only when corpus.convert_pdf is set and a
container runtime is available.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, _, logger, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer logger.Sync() //nolint:errcheck
		defer a.Close()

		status, err := a.Rebuild(cmd.Context())
		if err != nil {
			return err
		}
		asJSON, _ := cmd.Flags().GetBool("json")
		return printStatus(status, asJSON)
	},
}

var indexStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show what the persisted index holds",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, _, logger, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer logger.Sync() //nolint:errcheck
		defer a.Close()

		asJSON, _ := cmd.Flags().GetBool("json")
		return printStatus(a.Status(), asJSON)
	},
}

func printStatus(s types.IndexStatus, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(s)
	}
	if s.Chunks == 0 {
		fmt.Println("Index is empty. Add documents to the data folder and run: groundwork index rebuild")
		return nil
	}
	fmt.Printf("Documents: %d\n", s.Documents)
	fmt.Printf("Chunks:    %d\n", s.Chunks)
	fmt.Printf("Model:     %s\n", s.Model)
	if !s.BuiltAt.IsZero() {
		fmt.Printf("Built:     %s\n", s.BuiltAt.Local().Format(time.RFC1123))
	}
	return nil
}

func init() {
	indexRebuildCmd.Flags().Bool("json", false, "output status as JSON")
	indexStatusCmd.Flags().Bool("json", false, "output status as JSON")

	indexCmd.AddCommand(indexRebuildCmd, indexStatusCmd)
	rootCmd.AddCommand(indexCmd)
}
