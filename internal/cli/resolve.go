package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/yungbote/clipfinder/internal/app"
	"github.com/yungbote/clipfinder/internal/platform/logger"
	"github.com/yungbote/clipfinder/internal/resolve"
)

type resolveOptions struct {
	file    string
	content bool
	policy  string
	compact bool
}

func newResolveCmd(root *rootOptions) *cobra.Command {
	opts := &resolveOptions{}
	cmd := &cobra.Command{
		Use:   "resolve",
		Short: "Resolve a chat-completion envelope into segments",
		Long: `Read a chat-completion response (or, with --content, the bare assistant text)
and print the resolution result as JSON. Exits 1 when no segment survives.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runResolve(cmd, root, opts)
		},
	}
	cmd.Flags().StringVarP(&opts.file, "file", "f", "-", "input file, - for stdin")
	cmd.Flags().BoolVar(&opts.content, "content", false, "input is raw assistant content, not an envelope")
	cmd.Flags().StringVar(&opts.policy, "policy", "", "terminal policy override: fail_empty or synthesize_placeholder")
	cmd.Flags().BoolVar(&opts.compact, "compact", false, "print compact JSON")
	return cmd
}

func runResolve(cmd *cobra.Command, root *rootOptions, opts *resolveOptions) error {
	cfg, err := root.load()
	if err != nil {
		return err
	}
	if opts.policy != "" {
		cfg.Resolver.TerminalPolicy = opts.policy
	}
	log, err := logger.New(cfg.Log.Mode, cfg.Log.Level)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	pipeline, err := app.NewPipeline(cfg, log, nil)
	if err != nil {
		return err
	}
	input, err := readInput(cmd, opts.file)
	if err != nil {
		return err
	}

	var res *resolve.Result
	if opts.content {
		res, err = pipeline.ResolveContent(cmd.Context(), string(input))
	} else {
		res, err = pipeline.ResolveRaw(cmd.Context(), input)
	}
	if werr := writeJSON(cmd.OutOrStdout(), res, !opts.compact); werr != nil {
		return werr
	}
	if err != nil {
		return &ExitError{Code: 1, Err: err}
	}
	return nil
}

func writeJSON(w io.Writer, v any, pretty bool) error {
	enc := json.NewEncoder(w)
	if pretty {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("write result: %w", err)
	}
	return nil
}
