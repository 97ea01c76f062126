package main

import (
	"github.com/spf13/cobra"

	"github.com/robert-malhotra/go-fast5/convert"
)

func newSubsetCmd(a *app) *cobra.Command {
	var (
		paths    ioFlags
		batch    batchFlags
		readList string
		fileList string
	)
	cmd := &cobra.Command{
		Use:   "subset",
		Short: "Extract a list of reads into multi-read files",
		Long: `Extract the reads named in a read id list, or in the read_id column of a
sequencing summary, into multi-read files <filename-base><n>.fast5 of at
most batch-size reads.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			o, err := a.batchOptions(cmd, "subset", &paths, &batch)
			if err != nil {
				return err
			}
			reads, err := convert.ReadList(readList)
			if err != nil {
				return err
			}
			rep, err := convert.Subset(cmd.Context(), paths.input, paths.output, reads,
				convert.SubsetOptions{BatchOptions: o, FileList: fileList})
			if err != nil {
				return err
			}
			printReport(a.output(cmd), rep, true)
			return a.finish(o.Metrics)
		},
	}
	paths.register(cmd, "directory receiving the multi-read files")
	batch.register(cmd, convert.DefaultBase)
	fl := cmd.Flags()
	fl.StringVarP(&readList, "read-id-list", "l", "", "file of read ids, one per line or in a read_id column")
	fl.StringVar(&fileList, "file-list", "", "only search the input files named in this file")
	_ = cmd.MarkFlagRequired("save-path")
	_ = cmd.MarkFlagRequired("read-id-list")
	return cmd
}

func newDemuxCmd(a *app) *cobra.Command {
	var (
		paths   ioFlags
		batch   batchFlags
		summary string
		readCol string
		binCol  string
	)
	cmd := &cobra.Command{
		Use:   "demux",
		Short: "Split reads into one directory per barcode",
		Long: `Bin the reads by a column of a sequencing summary and write every bin to
<save-path>/<bin>/ as multi-read files of at most batch-size reads.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			o, err := a.batchOptions(cmd, "demux", &paths, &batch)
			if err != nil {
				return err
			}
			rep, err := convert.Demux(cmd.Context(), paths.input, paths.output, summary, convert.DemuxOptions{
				BatchOptions: o,
				ReadIDColumn: readCol,
				BinColumn:    binCol,
			})
			if err != nil {
				return err
			}
			printReport(a.output(cmd), rep, true)
			return a.finish(o.Metrics)
		},
	}
	paths.register(cmd, "directory receiving one subdirectory per bin")
	batch.register(cmd, convert.DefaultBase)
	fl := cmd.Flags()
	fl.StringVar(&summary, "summary-file", "", "tab separated sequencing summary")
	fl.StringVar(&readCol, "read-id-column", convert.ReadIDColumn, "summary column holding the read id")
	fl.StringVar(&binCol, "demultiplex-column", convert.BarcodeColumn, "summary column holding the bin")
	_ = cmd.MarkFlagRequired("save-path")
	_ = cmd.MarkFlagRequired("summary-file")
	return cmd
}
