package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/yungbote/clipfinder/internal/analyzer"
	"github.com/yungbote/clipfinder/internal/app"
)

func newAnalyzeCmd(root *rootOptions) *cobra.Command {
	var transcript string
	var compact bool
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Ask the configured model for segments of a transcript",
		Long: `Send a transcript to the configured OpenAI-compatible endpoint and resolve the
answer. Requires OPENROUTER_API_KEY (or llm.api_key in the config file).`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := root.load()
			if err != nil {
				return err
			}
			input, err := readInput(cmd, transcript)
			if err != nil {
				return err
			}
			a, err := app.New(cmd.Context(), cfg, Version)
			if err != nil {
				return err
			}
			defer a.Close(cmd.Context())

			res, err := a.Analyzer.AnalyzeTranscript(cmd.Context(), string(input))
			if errors.Is(err, analyzer.ErrUnavailable) {
				return &ExitError{Code: 2, Err: err}
			}
			if res != nil {
				if werr := writeJSON(cmd.OutOrStdout(), res, !compact); werr != nil {
					return werr
				}
			}
			if err != nil {
				return &ExitError{Code: 1, Err: err}
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&transcript, "transcript", "t", "-", "transcript file, - for stdin")
	cmd.Flags().BoolVar(&compact, "compact", false, "print compact JSON")
	return cmd
}
