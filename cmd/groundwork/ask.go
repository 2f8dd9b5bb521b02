// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/groundwork/internal/draft"
	"github.com/pdiddy/groundwork/internal/pipeline"
	"github.com/pdiddy/groundwork/pkg/types"
)

var askCmd = &cobra.Command{
	Use:   "ask [request]",
	Short: "Answer a request from the indexed documents",
	Long: `Ask runs one request through the pipeline and prints the final output,
the verification result and the trace table. A failed verification does not
fail the command; the warnings are part of the output.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, _, logger, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer logger.Sync() //nolint:errcheck
		defer a.Close()

		res, err := a.Run(cmd.Context(), strings.Join(args, " "))
		if err != nil {
			return err
		}

		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(res)
		}
		showPlan, _ := cmd.Flags().GetBool("show-plan")
		showNotes, _ := cmd.Flags().GetBool("show-notes")
		printResult(os.Stdout, res, showPlan, showNotes)
		return nil
	},
}

func printResult(w io.Writer, res types.Result, showPlan, showNotes bool) {
	if showPlan {
		fmt.Fprintln(w, "## Plan")
		fmt.Fprintln(w)
		fmt.Fprintln(w, res.Plan.Raw)
		fmt.Fprintln(w)
	}
	if showNotes {
		fmt.Fprintln(w, "## Research Notes")
		fmt.Fprintln(w)
		fmt.Fprintln(w, draft.FormatNotes(res.ResearchNotes))
		fmt.Fprintln(w)
	}

	fmt.Fprintln(w, res.FinalOutput)
	fmt.Fprintln(w)

	fmt.Fprintf(w, "## Verification: %s\n\n", res.Verification.Status)
	if len(res.Verification.Issues) == 0 {
		fmt.Fprintln(w, "No issues found.")
	}
	for _, issue := range res.Verification.Issues {
		fmt.Fprintf(w, "- %s\n", issue)
	}
	for _, e := range res.Errors {
		fmt.Fprintf(w, "- ERROR: %s\n", e)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "## Trace")
	fmt.Fprintln(w)
	fmt.Fprint(w, pipeline.FormatTraceTable(res.Trace))
}

func init() {
	askCmd.Flags().Bool("json", false, "output the full result as JSON")
	askCmd.Flags().Bool("show-plan", false, "print the planner output")
	askCmd.Flags().Bool("show-notes", false, "print the extracted research notes")

	rootCmd.AddCommand(askCmd)
}
