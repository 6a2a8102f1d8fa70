package main

import (
	"fmt"

	"github.com/spf13/cobra"

	fuzzratio "fuzzratio/pkg"
)

func newScanCmd() *cobra.Command {
	var (
		flags       fuzzFlags
		limit       int
		concurrency int
		rank        int
		worldSize   int
	)

	cmd := &cobra.Command{
		Use:   "scan DIR",
		Short: "Fuzz the aspect ratio of every image below a directory",
		Example: `  fuzzratio scan ./photos --tolerance 0.5 --standard
  fuzzratio scan ./frames --type range --tolerance 2 --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := flags.options(cmd)
			if err != nil {
				return err
			}

			logger := loggerFromContext(cmd.Context())

			config := fuzzratio.GetScanConfig()
			config.RootPath = args[0]
			config.Fuzz = opts
			config.Limit = limit
			config.Concurrency = concurrency
			config.Rank = rank
			config.WorldSize = worldSize
			config.Logger = logger

			client, err := fuzzratio.GetScanClient(config)
			if err != nil {
				return err
			}

			prog := newProgress(logger)
			client.StartContext(cmd.Context())
			defer client.Stop()

			var samples []fuzzratio.Sample
			for {
				sample := client.GetSample()
				if sample.ID == "" {
					break
				}
				samples = append(samples, sample)
			}
			if err := cmd.Context().Err(); err != nil {
				return err
			}
			if err := client.Err(); err != nil {
				return err
			}
			prog.done(fmt.Sprintf("Scanned %d images", len(samples)))

			out := cmd.OutOrStdout()
			if flags.json || !isTerminal(out) {
				return writeJSON(out, samples)
			}
			_, err = fmt.Fprintln(out, renderSamples(samples))
			return err
		},
	}

	flags.register(cmd)
	cmd.Flags().IntVar(&limit, "limit", 0, "stop after this many images, 0 for all")
	cmd.Flags().IntVar(&concurrency, "concurrency", 0, "number of probing workers, 0 for one per CPU")
	cmd.Flags().IntVar(&rank, "rank", 0, "shard index when splitting a scan across processes")
	cmd.Flags().IntVar(&worldSize, "world-size", 1, "number of shards")
	return cmd
}
