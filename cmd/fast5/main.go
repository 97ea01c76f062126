// Command fast5 converts, compresses, filters and demultiplexes fast5
// files.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "fast5",
		Short: "Tools for nanopore fast5 files",
		Long: `fast5 converts between single- and multi-read fast5 files, rewrites
raw data compression, and extracts or demultiplexes reads into batched
multi-read files.

Examples:
  fast5 multi-to-single -i reads/ -s single/ -r
  fast5 single-to-multi -i single/ -s multi/ -n 8000 -c vbz
  fast5 compress -i multi/ -s vbz/ -c vbz -t 4
  fast5 subset -i multi/ -s picked/ -l read_ids.txt
  fast5 demux -i multi/ -s barcodes/ --summary-file sequencing_summary.txt`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.configPath, "config", "", "config file (default .fast5.yaml in the working or home directory)")
	flags.StringVar(&a.metricsFile, "metrics-file", "", "write run counters to this file in Prometheus text format")
	flags.BoolVarP(&a.verbose, "verbose", "v", false, "log debug messages")
	flags.BoolVarP(&a.quiet, "quiet", "q", false, "log errors only and hide progress and reports")
	root.MarkFlagsMutuallyExclusive("verbose", "quiet")

	root.AddCommand(
		newMultiToSingleCmd(a),
		newSingleToMultiCmd(a),
		newCompressCmd(a),
		newCheckCompressionCmd(a),
		newSubsetCmd(a),
		newDemuxCmd(a),
		versionCmd(),
	)
	return root
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return nil
		},
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "fast5 %s\n", Version)
		},
	}
}
