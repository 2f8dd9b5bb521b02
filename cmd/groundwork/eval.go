// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/groundwork/internal/evalcases"
)

var evalCmd = &cobra.Command{
	Use:   "eval",
	Short: "Run the evaluation requests and write a report",
	Long: `Eval runs each evaluation request through the pipeline against the
current index, scores the final outputs with mechanical checks and writes a
YAML report. Use --cases to replace the built-in requests.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cases, err := evalcases.Builtin()
		if path, _ := cmd.Flags().GetString("cases"); path != "" {
			data, rerr := os.ReadFile(path)
			if rerr != nil {
				return fmt.Errorf("reading cases: %w", rerr)
			}
			cases, err = evalcases.Parse(data)
		}
		if err != nil {
			return err
		}

		a, _, logger, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer logger.Sync() //nolint:errcheck
		defer a.Close()

		rep := evalcases.Run(cmd.Context(), a, cases, logger)

		reportPath, _ := cmd.Flags().GetString("report")
		if err := evalcases.WriteReport(reportPath, rep); err != nil {
			return err
		}

		for _, o := range rep.Outcomes {
			mark := "PASS"
			if !o.Passed() {
				mark = "FAIL"
			}
			fmt.Printf("%s  #%d %s\n", mark, o.ID, o.Input)
			for _, c := range o.ChecksFailed {
				fmt.Printf("      failed check: %s\n", c)
			}
			if o.Error != "" {
				fmt.Printf("      error: %s\n", o.Error)
			}
		}
		fmt.Printf("\n%d/%d completed, %d verified, %d passed checks\n", rep.Completed, rep.Total, rep.Verified, rep.Passed)
		fmt.Printf("Report written to %s\n", reportPath)
		return nil
	},
}

func init() {
	evalCmd.Flags().String("report", "eval-report.yaml", "report output path")
	evalCmd.Flags().String("cases", "", "YAML file of cases (default: built-in cases)")

	rootCmd.AddCommand(evalCmd)
}
