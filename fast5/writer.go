package fast5

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/robert-malhotra/go-fast5/internal/dtype"
)

// StrandRead holds the identifying attributes of one strand.
type StrandRead struct {
	ReadNumber   int64
	ReadID       string
	StartTime    int64
	Duration     int64
	StartMux     int64
	MedianBefore float64
	ScalingUsed  int64
}

// Strand is one read as produced by an acquisition stream: channel
// calibration, read attributes and raw and/or event data.
type Strand struct {
	Channel      int
	Offset       float64
	Range        float64
	Digitisation float64
	SamplingRate float64
	Read         StrandRead
	RawData      []int16
	EventData    *dtype.Table
}

// WriterOption configures a Writer.
type WriterOption func(*Writer)

// WithReadsPerFile caps the number of strands in one output file.
func WithReadsPerFile(n int) WriterOption {
	return func(w *Writer) {
		w.readsPerFile = max(1, n)
	}
}

// WithTrackingID sets the tracking_id attributes of every output file. A
// missing run_id is filled with a random id shared by all files.
func WithTrackingID(attrs map[string]any) WriterOption {
	return func(w *Writer) {
		w.trackingID = attrs
	}
}

// WithContextTags sets the context_tags attributes of every output file.
func WithContextTags(attrs map[string]any) WriterOption {
	return func(w *Writer) {
		w.contextTags = attrs
	}
}

// WithConfig sets the event detection configuration sections.
func WithConfig(config map[string]map[string]any) WriterOption {
	return func(w *Writer) {
		w.config = config
	}
}

// WithCompression selects the raw data compression. The default is VBZ.
func WithCompression(c Compression) WriterOption {
	return func(w *Writer) {
		w.compression = c
	}
}

// Writer streams strands into single-read files. A new file is started
// when the channel changes or the current file holds readsPerFile strands.
// Every strand is listed in <base>_index.txt.
type Writer struct {
	dir          string
	base         string
	readsPerFile int
	trackingID   map[string]any
	contextTags  map[string]any
	config       map[string]map[string]any
	compression  Compression

	indexFile  *os.File
	index      *bufio.Writer
	current    *SingleFile
	fileNumber int64
	strands    int
	channel    int
	started    bool
}

// NewWriter creates dir/<base>_index.txt and returns a writer for strands.
func NewWriter(dir, base string, opts ...WriterOption) (*Writer, error) {
	w := &Writer{
		dir:          dir,
		base:         base,
		readsPerFile: 1,
		compression:  VBZ,
	}
	for _, opt := range opts {
		opt(w)
	}
	tracking := make(map[string]any, len(w.trackingID)+1)
	for k, v := range w.trackingID {
		tracking[k] = v
	}
	if _, ok := tracking["run_id"]; !ok {
		tracking["run_id"] = uuid.NewString()
	}
	w.trackingID = tracking
	if err := w.compression.Available(); err != nil {
		return nil, err
	}

	f, err := os.Create(filepath.Join(dir, base+"_index.txt"))
	if err != nil {
		return nil, err
	}
	w.indexFile = f
	w.index = bufio.NewWriter(f)
	if _, err := w.index.WriteString("channel\tread_number\tfile_number\tfilename\n"); err != nil {
		f.Close()
		return nil, err
	}
	return w, nil
}

func (w *Writer) filename() string {
	return fmt.Sprintf("%s_ch%d_read%d_strand.fast5", w.base, w.channel, w.fileNumber)
}

// WriteStrand appends s to the current file, starting a new one first if
// needed.
func (w *Writer) WriteStrand(s Strand) error {
	if w.index == nil {
		return fmt.Errorf("%w: strand writer %s", ErrClosed, w.base)
	}
	if !w.started || s.Channel != w.channel || w.strands == w.readsPerFile {
		if err := w.startFile(s); err != nil {
			return err
		}
	}
	if err := w.writeStrand(s); err != nil {
		return fmt.Errorf("writing read %d to %s: %w", s.Read.ReadNumber, w.filename(), err)
	}
	_, err := fmt.Fprintf(w.index, "%d\t%d\t%d\t%s\n", s.Channel, s.Read.ReadNumber, w.fileNumber, w.filename())
	return err
}

func (w *Writer) startFile(s Strand) error {
	if err := w.closeCurrent(); err != nil {
		return err
	}
	w.started = true
	w.fileNumber = s.Read.ReadNumber
	w.strands = 0
	w.channel = s.Channel

	path := filepath.Join(w.dir, w.filename())
	f, err := OpenSingle(path, ModeCreate)
	if err != nil {
		return err
	}
	if err := initStrandFile(f, w, s); err != nil {
		// A half-initialised file is never left behind for later strands.
		w.started = false
		return errors.Join(err, f.Close(), os.Remove(path))
	}
	w.current = f
	return nil
}

func initStrandFile(f *SingleFile, w *Writer, s Strand) error {
	if err := f.SetTrackingID(w.trackingID, false); err != nil {
		return err
	}
	if err := f.AddContextTags(w.contextTags, false); err != nil {
		return err
	}
	return f.AddChannelInfo(map[string]any{
		"channel_number": fmt.Sprint(s.Channel),
		"offset":         s.Offset,
		"range":          s.Range,
		"digitisation":   s.Digitisation,
		"sampling_rate":  s.SamplingRate,
	}, false)
}

func (w *Writer) writeStrand(s Strand) error {
	f := w.current
	r := s.Read
	if err := f.AddRead(r.ReadNumber, r.ReadID, r.StartTime, r.Duration, r.StartMux, r.MedianBefore); err != nil {
		return err
	}
	if s.RawData != nil {
		if err := f.readFor(r.ReadNumber).AddRawData(s.RawData, nil, w.compression); err != nil {
			return err
		}
	}
	if s.EventData != nil {
		if err := w.writeEvents(f, s); err != nil {
			return err
		}
	}
	w.strands++
	return nil
}

func (w *Writer) writeEvents(f *SingleFile, s Strand) error {
	group, err := f.LatestAnalysis("EventDetection", false)
	if err != nil {
		return err
	}
	if group == "" {
		group = "EventDetection_000"
		version, ok := w.trackingID["version"]
		if !ok {
			version = "unknown"
		}
		attrs := map[string]any{"name": "MinKNOW", "version": version}
		if err := f.AddAnalysis("event_detection", group, attrs, w.config); err != nil {
			return err
		}
	}
	r := s.Read
	sub := fmt.Sprintf("Reads/Read_%d", r.ReadNumber)
	if err := f.AddAnalysisSubgroup(group, sub, map[string]any{
		"duration":      uint32(r.Duration),
		"median_before": r.MedianBefore,
		"read_id":       r.ReadID,
		"read_number":   int32(r.ReadNumber),
		"scaling_used":  int32(r.ScalingUsed),
		"start_mux":     uint8(r.StartMux),
		"start_time":    uint64(r.StartTime),
	}); err != nil {
		return err
	}
	return f.AddAnalysisDataset(group+"/"+sub, "Events", s.EventData, nil)
}

func (w *Writer) closeCurrent() error {
	if w.current == nil {
		return nil
	}
	err := w.current.Close()
	w.current = nil
	return err
}

// Close closes the current output file and the index. Closing twice is a
// no-op.
func (w *Writer) Close() error {
	if w.index == nil {
		return nil
	}
	err := errors.Join(w.closeCurrent(), w.index.Flush(), w.indexFile.Close())
	w.index = nil
	return err
}
