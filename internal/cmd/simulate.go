package cmd

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/MakeNowJust/heredoc"
	"github.com/spf13/cobra"

	"github.com/tujuhre12/vlist/internal/simulate"
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Run the list engine headless against random edits",
	Long: heredoc.Doc(`
		Drive the list engine with a seeded stream of splices, scrolls and
		resizes, checking after every frame that the rendered window matches
		the model. Runs with the same seed are identical.
	`),
	Example: heredoc.Doc(`
		# Run the default simulation
		vlist simulate

		# A longer run, reported as JSON
		vlist simulate --steps 100000 --seed 7 --format json
	`),
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")
		if !slices.Contains(simulate.Formats, format) {
			return fmt.Errorf("%w %q, use one of %s", simulate.ErrFormat, format, strings.Join(simulate.Formats, ", "))
		}

		cfg, err := setupConfig(cmd)
		if err != nil {
			return err
		}

		opts := simulate.Options{Grace: cfg.Grace()}
		opts.Steps, _ = cmd.Flags().GetInt("steps")
		opts.Items, _ = cmd.Flags().GetInt("items")
		opts.Width, _ = cmd.Flags().GetInt("width")
		opts.Height, _ = cmd.Flags().GetInt("height")
		opts.Seed, _ = cmd.Flags().GetUint64("seed")

		report, runErr := simulate.Run(cmd.Context(), opts)
		if report != nil {
			if err := report.Write(cmd.OutOrStdout(), format); err != nil {
				return err
			}
		}
		if errors.Is(runErr, simulate.ErrViolation) {
			cmd.SilenceUsage = true
		}
		return runErr
	},
}

func init() {
	rootCmd.AddCommand(simulateCmd)
	simulateCmd.Flags().Int("steps", 1000, "Number of random operations")
	simulateCmd.Flags().Uint64("seed", 1, "Random seed")
	simulateCmd.Flags().Int("items", 500, "Initial number of items")
	simulateCmd.Flags().Int("width", 80, "Viewport width")
	simulateCmd.Flags().Int("height", 24, "Viewport height")
	simulateCmd.Flags().StringP("format", "f", "text", "Output format (text, json, yaml)")
}
