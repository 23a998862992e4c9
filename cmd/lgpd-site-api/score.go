package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"lgpd-site-api/internal/domain"
	"lgpd-site-api/internal/scoring"

	"github.com/spf13/cobra"
)

var scoreCmd = &cobra.Command{
	Use:   "score [responses.json]",
	Short: "Score diagnostic responses offline",
	Long: `Read a JSON object mapping question ids to answer labels from a file
(or stdin when omitted or "-") and print the maturity result.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runScore,
}

func init() {
	rootCmd.AddCommand(scoreCmd)
}

func runScore(cmd *cobra.Command, args []string) error {
	in := cmd.InOrStdin()
	if len(args) == 1 && args[0] != "-" {
		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("open responses: %w", err)
		}
		defer f.Close()
		in = f
	}

	result, err := scoreResponses(in)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

func scoreResponses(r io.Reader) (scoring.Result, error) {
	var responses domain.Responses
	if err := json.NewDecoder(r).Decode(&responses); err != nil {
		return scoring.Result{}, fmt.Errorf("decode responses: %w", err)
	}
	if !responses.IsObject() {
		return scoring.Result{}, fmt.Errorf("responses must be a JSON object")
	}
	return scoring.Score(responses.Answers()), nil
}
