package main

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/robert-malhotra/go-fast5/convert"
	"github.com/robert-malhotra/go-fast5/fast5"
	"github.com/robert-malhotra/go-fast5/internal/config"
	"github.com/robert-malhotra/go-fast5/internal/filter"
	"github.com/robert-malhotra/go-fast5/internal/logging"
)

// app holds the state shared by all subcommands of one invocation.
type app struct {
	configPath  string
	metricsFile string
	verbose     bool
	quiet       bool

	cfg *config.Config
	log *slog.Logger
}

func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.metricsFile != "" {
		cfg.MetricsFile = a.metricsFile
	}
	opts := cfg.Logging()
	switch {
	case a.verbose:
		opts.Level = slog.LevelDebug
	case a.quiet:
		opts.Level = slog.LevelError
	}
	opts.Writer = cmd.ErrOrStderr()
	log, err := logging.New(opts)
	if err != nil {
		return err
	}
	a.cfg, a.log = cfg, log
	return a.loadPlugins()
}

// loadPlugins registers the filter plugins found on the plugin path.
// Shared objects that are not Go filter plugins, such as the native VBZ
// library, are logged and skipped.
func (a *app) loadPlugins() error {
	path := filter.PluginPath()
	plugins, err := filter.LoadPlugins(path)
	if err != nil {
		return fmt.Errorf("loading filter plugins: %w", err)
	}
	for _, s := range plugins.Skipped {
		a.log.Warn("skipping filter plugin", "path", s.Path, "error", s.Err)
	}
	if len(plugins.Loaded) == 0 {
		a.log.Debug("no filter plugins found", "path", path)
		return nil
	}
	a.log.Info("loaded filter plugins", "path", path, "plugins", plugins.Loaded)
	return nil
}

// ioFlags are the input and output selection flags of every tool.
type ioFlags struct {
	input          string
	output         string
	recursive      bool
	ignoreSymlinks bool
	threads        int
}

func (f *ioFlags) register(cmd *cobra.Command, outputUsage string) {
	fl := cmd.Flags()
	fl.StringVarP(&f.input, "input", "i", "", "input fast5 file or directory")
	if outputUsage != "" {
		fl.StringVarP(&f.output, "save-path", "s", "", outputUsage)
	}
	fl.BoolVarP(&f.recursive, "recursive", "r", false, "search the input directory recursively")
	fl.BoolVar(&f.ignoreSymlinks, "ignore-symlinks", false, "do not enter symlinked directories when searching recursively")
	fl.IntVarP(&f.threads, "threads", "t", config.DefaultThreads, "number of files processed at once")
	_ = cmd.MarkFlagRequired("input")
}

// batchFlags configure the tools writing batched multi-read files.
type batchFlags struct {
	batchSize   int
	base        string
	compression string
}

func (f *batchFlags) register(cmd *cobra.Command, base string) {
	fl := cmd.Flags()
	fl.IntVarP(&f.batchSize, "batch-size", "n", config.DefaultBatchSize, "maximum number of reads per output file")
	fl.StringVarP(&f.base, "filename-base", "f", base, "prefix of the output file names")
	fl.StringVarP(&f.compression, "compression", "c", "",
		fmt.Sprintf("re-encode raw data with this compression (%s); kept as is when empty", compressionChoices()))
}

func compressionChoices() string {
	return strings.Join(fast5.CompressionNames(), ", ")
}

// options builds the tool options from the config file and the flags
// given on the command line.
func (a *app) options(cmd *cobra.Command, tool string, f *ioFlags) (convert.Options, error) {
	o := convert.Options{
		Threads:        a.cfg.Threads,
		Recursive:      a.cfg.Recursive || f.recursive,
		FollowSymlinks: a.cfg.FollowSymlinks && !f.ignoreSymlinks,
		Logger:         a.log,
		Metrics:        convert.NewMetrics(tool),
	}
	if cmd.Flags().Changed("threads") {
		o.Threads = f.threads
	}
	if o.Threads < 1 {
		return o, fmt.Errorf("--threads: %w, not %d", config.ErrInvalidThreads, o.Threads)
	}
	if !a.quiet {
		o.Progress = newProgressBar(cmd.ErrOrStderr(), tool)
	}
	return o, nil
}

func (a *app) batchOptions(cmd *cobra.Command, tool string, f *ioFlags, b *batchFlags) (convert.BatchOptions, error) {
	opts, err := a.options(cmd, tool, f)
	if err != nil {
		return convert.BatchOptions{}, err
	}
	o := convert.BatchOptions{
		Options:      opts,
		BatchSize:    a.cfg.BatchSize,
		FilenameBase: b.base,
	}
	if cmd.Flags().Changed("batch-size") {
		o.BatchSize = b.batchSize
	}
	if o.BatchSize < 1 {
		return o, fmt.Errorf("--batch-size: %w, not %d", config.ErrInvalidBatchSize, o.BatchSize)
	}
	if b.compression != "" {
		c, err := fast5.LookupCompression(b.compression)
		if err != nil {
			return o, err
		}
		o.Compression = &c
	}
	return o, nil
}

// finish writes the run counters when a metrics file is configured.
func (a *app) finish(m *convert.Metrics) error {
	if a.cfg.MetricsFile == "" || m == nil {
		return nil
	}
	if err := m.WriteTextfile(a.cfg.MetricsFile); err != nil {
		return fmt.Errorf("writing metrics: %w", err)
	}
	a.log.Debug("wrote metrics", "path", a.cfg.MetricsFile)
	return nil
}

// output returns where reports go, or io.Discard in quiet mode.
func (a *app) output(cmd *cobra.Command) io.Writer {
	if a.quiet {
		return io.Discard
	}
	return cmd.OutOrStdout()
}
