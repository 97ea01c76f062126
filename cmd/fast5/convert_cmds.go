package main

import (
	"github.com/spf13/cobra"

	"github.com/robert-malhotra/go-fast5/convert"
)

func newMultiToSingleCmd(a *app) *cobra.Command {
	var paths ioFlags
	cmd := &cobra.Command{
		Use:   "multi-to-single",
		Short: "Split multi-read files into single-read files",
		Long: `Split every multi-read file into one single-read file per read. The reads
of the n-th input go to <save-path>/<n>/<read_id>.fast5 and every output
is listed in filename_mapping.txt.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			o, err := a.options(cmd, "multi-to-single", &paths)
			if err != nil {
				return err
			}
			rep, err := convert.MultiToSingle(cmd.Context(), paths.input, paths.output, o)
			if err != nil {
				return err
			}
			printReport(a.output(cmd), rep, false)
			return a.finish(o.Metrics)
		},
	}
	paths.register(cmd, "directory receiving the single-read files")
	_ = cmd.MarkFlagRequired("save-path")
	return cmd
}

func newSingleToMultiCmd(a *app) *cobra.Command {
	var (
		paths ioFlags
		batch batchFlags
	)
	cmd := &cobra.Command{
		Use:   "single-to-multi",
		Short: "Pack single-read files into multi-read files",
		Long: `Pack single-read files into multi-read files <filename-base>_<n>.fast5
holding at most batch-size reads each. Existing outputs are appended to.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			o, err := a.batchOptions(cmd, "single-to-multi", &paths, &batch)
			if err != nil {
				return err
			}
			rep, err := convert.SingleToMulti(cmd.Context(), paths.input, paths.output, o)
			if err != nil {
				return err
			}
			printReport(a.output(cmd), rep, false)
			return a.finish(o.Metrics)
		},
	}
	paths.register(cmd, "directory receiving the multi-read files")
	batch.register(cmd, convert.DefaultBase)
	_ = cmd.MarkFlagRequired("save-path")
	return cmd
}

func newCompressCmd(a *app) *cobra.Command {
	var (
		paths       ioFlags
		compression string
		inPlace     bool
		sanitize    bool
	)
	cmd := &cobra.Command{
		Use:   "compress",
		Short: "Rewrite the raw data compression of fast5 files",
		Long: `Rewrite fast5 files with a new raw data compression. Outputs mirror the
input tree below save-path, or replace the inputs with --in-place. Raw
data already using the target compression is copied without decoding.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Flags().Changed("compression") {
				a.cfg.Compression = compression
				if err := a.cfg.Validate(); err != nil {
					return err
				}
			}
			target, ok := a.cfg.TargetCompression()
			if !ok {
				return errNoCompression
			}
			opts, err := a.options(cmd, "compress", &paths)
			if err != nil {
				return err
			}
			o := convert.CompressOptions{
				Options:  opts,
				Target:   target,
				InPlace:  inPlace,
				Sanitize: sanitize,
			}
			rep, err := convert.Compress(cmd.Context(), paths.input, paths.output, o)
			if err != nil {
				return err
			}
			printCompressReport(a.output(cmd), rep, target.String())
			return a.finish(o.Metrics)
		},
	}
	paths.register(cmd, "directory receiving the rewritten files")
	fl := cmd.Flags()
	fl.StringVarP(&compression, "compression", "c", "",
		"target compression ("+compressionChoices()+"); defaults to the configured compression")
	fl.BoolVar(&inPlace, "in-place", false, "replace the input files")
	fl.BoolVar(&sanitize, "sanitize", false, "leave out optional groups such as Analyses")
	cmd.MarkFlagsMutuallyExclusive("in-place", "save-path")
	cmd.MarkFlagsMutuallyExclusive("in-place", "sanitize")
	cmd.MarkFlagsOneRequired("in-place", "save-path")
	return cmd
}

func newCheckCompressionCmd(a *app) *cobra.Command {
	var (
		paths    ioFlags
		allReads bool
	)
	cmd := &cobra.Command{
		Use:   "check-compression",
		Short: "Report the raw data compression of fast5 files",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			o, err := a.options(cmd, "check-compression", &paths)
			if err != nil {
				return err
			}
			o.Progress = nil
			results, err := convert.CheckCompression(paths.input, allReads, o)
			if err != nil {
				return err
			}
			printCompressions(cmd.OutOrStdout(), results)
			return a.finish(o.Metrics)
		},
	}
	paths.register(cmd, "")
	cmd.Flags().BoolVarP(&allReads, "all-reads", "a", false, "check every read instead of the first read of each file")
	return cmd
}
