package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	fuzzratio "fuzzratio/pkg"
)

func newCalcCmd() *cobra.Command {
	var flags fuzzFlags

	cmd := &cobra.Command{
		Use:   "calc WIDTHxHEIGHT | calc WIDTH HEIGHT",
		Short: "Fuzz the aspect ratio of a single size",
		Example: `  fuzzratio calc 1920x1080
  fuzzratio calc 796 1134 --type range --tolerance 2
  fuzzratio calc 1366x768 --tolerance 1 --standard`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			size, err := parseSize(args)
			if err != nil {
				return err
			}

			opts, err := flags.options(cmd)
			if err != nil {
				return err
			}
			opts.Width, opts.Height = size.Width, size.Height

			logger := loggerFromContext(cmd.Context())
			logger.Debug("fuzzing", "size", size, "type", opts.Type, "tolerance", opts.Tolerance, "allowed", len(opts.AllowedRatios))

			result, err := fuzzratio.Compute(opts)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if flags.json || !isTerminal(out) {
				return writeJSON(out, result)
			}
			_, err = fmt.Fprintln(out, renderResult(result))
			return err
		},
	}

	flags.register(cmd)
	return cmd
}

func parseSize(args []string) (fuzzratio.Ratio, error) {
	if len(args) == 1 {
		return fuzzratio.ParseRatio(args[0])
	}

	w, err := strconv.ParseFloat(args[0], 64)
	if err != nil {
		return fuzzratio.Ratio{}, fmt.Errorf("invalid width %q: %w", args[0], err)
	}
	h, err := strconv.ParseFloat(args[1], 64)
	if err != nil {
		return fuzzratio.Ratio{}, fmt.Errorf("invalid height %q: %w", args[1], err)
	}
	return fuzzratio.Ratio{Width: w, Height: h}, nil
}
