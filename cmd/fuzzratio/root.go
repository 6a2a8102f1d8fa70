package main

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	fuzzratio "fuzzratio/pkg"
)

// newRootCmd wires the subcommands. Results go to out, logs to errOut.
func newRootCmd(out, errOut io.Writer) *cobra.Command {
	var verbose bool

	root := &cobra.Command{
		Use:          "fuzzratio",
		Short:        "Find the small-integer aspect ratio behind noisy pixel dimensions",
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := log.InfoLevel
			if verbose {
				level = log.DebugLevel
			}
			cmd.SetContext(withLogger(cmd.Context(), newLogger(errOut, level)))
		},
	}
	root.SetOut(out)
	root.SetErr(errOut)
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")

	root.AddCommand(newCalcCmd())
	root.AddCommand(newScanCmd())
	return root
}

// fuzzFlags are the tolerance flags shared by calc and scan
type fuzzFlags struct {
	fuzzType    string
	tolerance   float64
	allow       []string
	standard    bool
	optionsPath string
	json        bool
}

func (f *fuzzFlags) register(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringVarP(&f.fuzzType, "type", "t", string(fuzzratio.FuzzTypePercent), "error metric: percent or range")
	flags.Float64VarP(&f.tolerance, "tolerance", "n", 0, "maximum deviation, in percent (0-100) or pixels depending on --type")
	flags.StringSliceVarP(&f.allow, "allow", "a", nil, "only accept these ratios, e.g. --allow 16:9,4:3")
	flags.BoolVar(&f.standard, "standard", false, "only accept common display ratios")
	flags.StringVar(&f.optionsPath, "options", "", "TOML file holding type, tolerance and allowed_ratios")
	flags.BoolVar(&f.json, "json", false, "print JSON even on a terminal")
}

// options resolves the options file first, explicit flags override it
func (f *fuzzFlags) options(cmd *cobra.Command) (fuzzratio.Options, error) {
	opts := fuzzratio.GetOptions()
	if f.optionsPath != "" {
		file, err := os.Open(f.optionsPath)
		if err != nil {
			return fuzzratio.Options{}, fmt.Errorf("open options: %w", err)
		}
		defer file.Close()

		opts, err = fuzzratio.OptionsFromTOML(file)
		if err != nil {
			return fuzzratio.Options{}, err
		}
	}

	flags := cmd.Flags()
	if flags.Changed("type") {
		opts.Type = fuzzratio.FuzzType(f.fuzzType)
	}
	if flags.Changed("tolerance") {
		opts.Tolerance = f.tolerance
	}
	if f.standard {
		opts.AllowedRatios = append(opts.AllowedRatios, fuzzratio.StandardRatios()...)
	}
	for _, s := range f.allow {
		r, err := fuzzratio.ParseRatio(s)
		if err != nil {
			return fuzzratio.Options{}, err
		}
		opts.AllowedRatios = append(opts.AllowedRatios, r)
	}
	return opts, nil
}
