package fast5

import (
	"errors"
	"fmt"
	"path"

	"github.com/robert-malhotra/go-fast5/internal/filter"
	"github.com/robert-malhotra/go-fast5/internal/store"
)

// Read is one logical read, the same way whether it lives alone in a
// single-read file or next to others in a multi-read file. A Read is owned
// by its file and is invalid once the file is closed.
type Read interface {
	ReadID() string
	RunID() (string, error)
	Filename() string
	IsOpen() bool

	AddRawData(samples []int16, attrs map[string]any, comp Compression) error
	HasRawData() bool
	RawData(opts ...RawOption) ([]int16, error)
	ScaledRawData(opts ...RawOption) ([]float32, error)
	RawAttributes() (map[string]any, error)
	Calibration() (Calibration, error)
	RawCompression() ([]filter.Info, error)

	ChannelInfo() (map[string]any, error)
	AddChannelInfo(attrs map[string]any, clear bool) error
	TrackingID() (map[string]any, error)
	SetTrackingID(attrs map[string]any, clear bool) error
	AddTrackingID(attrs map[string]any, clear bool) error
	HasContextTags() bool
	ContextTags() (map[string]any, error)
	AddContextTags(attrs map[string]any, clear bool) error

	AddAnalysis(component, group string, attrs map[string]any, config map[string]map[string]any) error
	ListAnalyses(component string) ([]Analysis, error)
	LatestAnalysis(base string, increment bool) (string, error)
	AddChain(group string, components map[string]string) error
	Chain(group string) ([]Analysis, error)
	AddAnalysisSubgroup(group, subgroup string, attrs map[string]any) error
	AddAnalysisAttributes(path string, attrs map[string]any, clear bool) error
	AnalysisAttributes(path string) (map[string]any, error)
	AddAnalysisDataset(group, name string, data any, attrs map[string]any) error
	AnalysisDataset(group, name string) (any, error)
	SetSummaryData(group, section string, data map[string]any) error
	SummaryData(group string) (map[string]map[string]any, error)
	SetAnalysisConfig(group string, config map[string]map[string]any) error
	AnalysisConfig(group string) (map[string]map[string]any, error)
	AddLog(group, field, log string) error

	core() *readCore
}

// container is the open file shared by every read it holds.
type container struct {
	path string
	mode Mode
	file *store.File
}

func (c *container) isOpen() bool {
	return c.file != nil && !c.file.Closed()
}

func (c *container) assertOpen() error {
	if !c.isOpen() {
		return fmt.Errorf("%w: %s", ErrClosed, c.path)
	}
	return nil
}

func (c *container) assertWritable() error {
	if err := c.assertOpen(); err != nil {
		return err
	}
	if c.mode == ModeRead {
		return fmt.Errorf("%w: mode %q: %s", ErrReadOnly, c.mode, c.path)
	}
	return nil
}

func (c *container) close() error {
	if c.file == nil {
		return nil
	}
	err := c.file.Close()
	c.file = nil
	return err
}

// readCore implements Read for both container kinds. Paths are relative
// to prefix, the read's root group; metadata groups additionally sit
// under globalKey.
type readCore struct {
	c         *container
	prefix    string
	globalKey string
	id        func() string
	rawGroup  func() string
	onRaw     func()
}

func (r *readCore) core() *readCore { return r }

func (r *readCore) path(rel string) string {
	return store.JoinPath(r.prefix, rel)
}

func (r *readCore) meta(name string) string {
	return r.path(r.globalKey + name)
}

func (r *readCore) root() *store.Group {
	return r.c.file.Root()
}

func (r *readCore) group(rel string) (*store.Group, error) {
	g, err := r.root().Group(r.path(rel))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", r.c.path, err)
	}
	return g, nil
}

func (r *readCore) holder(rel string) (attrHolder, error) {
	obj, err := r.root().Object(r.path(rel))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", r.c.path, err)
	}
	return holderOf(obj), nil
}

func (r *readCore) exists(rel string) bool {
	return r.root().Has(r.path(rel))
}

// addGroup creates a group with intermediates and sets attrs on it. The
// group must not exist.
func (r *readCore) addGroup(rel string, attrs map[string]any) (*store.Group, error) {
	g, err := r.root().CreateGroup(r.path(rel))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", r.c.path, err)
	}
	if attrs != nil {
		if err := writeAttrs(g, attrs, false); err != nil {
			return nil, err
		}
	}
	return g, nil
}

// removeGroup unlinks the group at rel from its parent.
func (r *readCore) removeGroup(rel string) error {
	full := r.path(rel)
	parent, err := r.root().Group(path.Dir(full))
	if err != nil {
		return fmt.Errorf("%s: %w", r.c.path, err)
	}
	if err := parent.Unlink(path.Base(full)); err != nil {
		return fmt.Errorf("%s: %w", r.c.path, err)
	}
	return nil
}

func (r *readCore) setAttrs(rel string, attrs map[string]any, clear bool) error {
	h, err := r.holder(rel)
	if err != nil {
		return err
	}
	return writeAttrs(h, attrs, clear)
}

func (r *readCore) getAttrs(rel string) (map[string]any, error) {
	h, err := r.holder(rel)
	if err != nil {
		return nil, err
	}
	return readAttrs(h)
}

// ReadID returns the read id.
func (r *readCore) ReadID() string {
	return r.id()
}

// Filename returns the path of the owning file.
func (r *readCore) Filename() string {
	return r.c.path
}

// IsOpen reports whether the owning file is still open.
func (r *readCore) IsOpen() bool {
	return r.c.isOpen()
}

// RunID returns the run_id tracking attribute.
func (r *readCore) RunID() (string, error) {
	if err := r.c.assertOpen(); err != nil {
		return "", err
	}
	h, err := r.holder(r.globalKey + "tracking_id")
	if err != nil {
		return "", err
	}
	v, err := h.AttrValue("run_id")
	if err != nil {
		return "", err
	}
	return asString(v), nil
}

func (r *readCore) rawDatasetName() string {
	return r.rawGroup() + "/Signal"
}

// AddRawData writes the raw signal. A read holds raw data at most once.
// Non-nil attrs replace the attributes of the raw group.
func (r *readCore) AddRawData(samples []int16, attrs map[string]any, comp Compression) error {
	return r.addRawData(samples, comp, func(g *store.Group) error {
		if attrs == nil {
			return nil
		}
		return writeAttrs(g, attrs, true)
	})
}

// addRawData writes samples and then lets setAttrs decorate the raw group.
func (r *readCore) addRawData(samples []int16, comp Compression, setAttrs func(*store.Group) error) error {
	if err := r.c.assertWritable(); err != nil {
		return err
	}
	if r.exists(r.rawDatasetName()) {
		return fmt.Errorf("%w: read %s in %s", ErrRawDataExists, r.ReadID(), r.c.path)
	}
	g, err := r.root().RequireGroup(r.path(r.rawGroup()))
	if err != nil {
		return fmt.Errorf("%s: %w", r.c.path, err)
	}
	if samples == nil {
		samples = []int16{}
	}
	if _, err := g.CreateDataset("Signal", samples, comp.datasetOptions()...); err != nil {
		return fmt.Errorf("writing raw data for read %s: %w", r.ReadID(), wrapCodecError(err))
	}
	if r.onRaw != nil {
		r.onRaw()
	}
	if setAttrs != nil {
		return setAttrs(g)
	}
	return nil
}

// HasRawData reports whether a raw signal dataset exists.
func (r *readCore) HasRawData() bool {
	return r.IsOpen() && r.exists(r.rawDatasetName())
}

func (r *readCore) rawDataset() (*store.Dataset, error) {
	if err := r.c.assertOpen(); err != nil {
		return nil, err
	}
	ds, err := r.root().Dataset(r.path(r.rawDatasetName()))
	if errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("%w: read %s in %s", ErrNoRawData, r.ReadID(), r.c.path)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", r.c.path, err)
	}
	return ds, nil
}

// RawOption narrows a raw data read.
type RawOption func(*rawOptions)

type rawOptions struct {
	start, end int
	bounded    bool
}

// WithRange reads samples [start, end). Negative values count from the
// end of the signal, like a Python slice.
func WithRange(start, end int) RawOption {
	return func(o *rawOptions) {
		o.start, o.end, o.bounded = start, end, true
	}
}

// WithStart reads from start to the end of the signal.
func WithStart(start int) RawOption {
	return func(o *rawOptions) {
		o.start = start
	}
}

// RawData returns the raw DAQ samples.
func (r *readCore) RawData(opts ...RawOption) ([]int16, error) {
	ds, err := r.rawDataset()
	if err != nil {
		return nil, err
	}
	o := rawOptions{}
	for _, opt := range opts {
		opt(&o)
	}
	if !o.bounded {
		o.end = ds.Len()
	}
	v, err := ds.ReadSlice(o.start, o.end)
	if err != nil {
		return nil, fmt.Errorf("reading raw data for read %s: %w", r.ReadID(), wrapCodecError(err))
	}
	samples, ok := v.([]int16)
	if !ok {
		return nil, fmt.Errorf("%w: raw data of read %s is %s", ErrFormat, r.ReadID(), ds.Type())
	}
	return samples, nil
}

// Calibration holds the channel constants that convert DAQ values to pA.
type Calibration struct {
	Digitisation float64
	Range        float64
	Offset       float64
}

// Scale returns the pA value of a raw sample.
func (c Calibration) Scale(raw int16) float32 {
	return float32(c.Range / c.Digitisation * (float64(raw) + c.Offset))
}

// Calibration reads the scaling constants from channel_id.
func (r *readCore) Calibration() (Calibration, error) {
	var cal Calibration
	if err := r.c.assertOpen(); err != nil {
		return cal, err
	}
	h, err := r.holder(r.globalKey + "channel_id")
	if err != nil {
		return cal, err
	}
	for _, f := range []struct {
		name string
		dst  *float64
	}{{"digitisation", &cal.Digitisation}, {"range", &cal.Range}, {"offset", &cal.Offset}} {
		v, err := h.AttrValue(f.name)
		if err != nil {
			return cal, fmt.Errorf("%s: %w", r.c.path, err)
		}
		if *f.dst, err = asFloat(v); err != nil {
			return cal, fmt.Errorf("%s: channel %s: %w", r.c.path, f.name, err)
		}
	}
	return cal, nil
}

// ScaledRawData returns the raw signal in pA:
// range/digitisation * (raw + offset).
func (r *readCore) ScaledRawData(opts ...RawOption) ([]float32, error) {
	raw, err := r.RawData(opts...)
	if err != nil {
		return nil, err
	}
	cal, err := r.Calibration()
	if err != nil {
		return nil, err
	}
	out := make([]float32, len(raw))
	for i, v := range raw {
		out[i] = cal.Scale(v)
	}
	return out, nil
}

// RawAttributes returns the attributes of the raw group.
func (r *readCore) RawAttributes() (map[string]any, error) {
	if err := r.c.assertOpen(); err != nil {
		return nil, err
	}
	return r.getAttrs(r.rawGroup())
}

// RawCompression returns the filter pipeline of the raw dataset.
func (r *readCore) RawCompression() ([]filter.Info, error) {
	ds, err := r.rawDataset()
	if err != nil {
		return nil, err
	}
	return ds.Filters(), nil
}

// ChannelInfo returns channel_id attributes with channel_number as an int.
func (r *readCore) ChannelInfo() (map[string]any, error) {
	if err := r.c.assertOpen(); err != nil {
		return nil, err
	}
	info, err := r.getAttrs(r.globalKey + "channel_id")
	if err != nil {
		return nil, err
	}
	if v, ok := info["channel_number"]; ok {
		n, err := asInt(v)
		if err != nil {
			return nil, fmt.Errorf("%s: channel_number: %w", r.c.path, err)
		}
		info["channel_number"] = int(n)
	}
	return info, nil
}

// AddChannelInfo writes channel_id attributes, creating the group if needed.
func (r *readCore) AddChannelInfo(attrs map[string]any, clear bool) error {
	return r.addMeta("channel_id", attrs, clear)
}

func (r *readCore) addMeta(name string, attrs map[string]any, clear bool) error {
	if err := r.c.assertWritable(); err != nil {
		return err
	}
	if _, err := r.root().RequireGroup(r.meta(name)); err != nil {
		return fmt.Errorf("%s: %w", r.c.path, err)
	}
	return r.setAttrs(r.globalKey+name, attrs, clear)
}

// TrackingID returns the tracking_id attributes.
func (r *readCore) TrackingID() (map[string]any, error) {
	if err := r.c.assertOpen(); err != nil {
		return nil, err
	}
	return r.getAttrs(r.globalKey + "tracking_id")
}

// SetTrackingID writes attributes to an existing tracking_id group.
func (r *readCore) SetTrackingID(attrs map[string]any, clear bool) error {
	if err := r.c.assertWritable(); err != nil {
		return err
	}
	return r.setAttrs(r.globalKey+"tracking_id", attrs, clear)
}

// AddTrackingID writes tracking_id attributes, creating the group if needed.
func (r *readCore) AddTrackingID(attrs map[string]any, clear bool) error {
	return r.addMeta("tracking_id", attrs, clear)
}

// HasContextTags reports whether a context_tags group exists.
func (r *readCore) HasContextTags() bool {
	return r.IsOpen() && r.exists(r.globalKey+"context_tags")
}

// ContextTags returns context_tags attributes, or an empty map when the
// group is missing.
func (r *readCore) ContextTags() (map[string]any, error) {
	if err := r.c.assertOpen(); err != nil {
		return nil, err
	}
	if !r.HasContextTags() {
		return map[string]any{}, nil
	}
	return r.getAttrs(r.globalKey + "context_tags")
}

// AddContextTags writes context_tags attributes, creating the group if
// needed.
func (r *readCore) AddContextTags(attrs map[string]any, clear bool) error {
	return r.addMeta("context_tags", attrs, clear)
}

// AddLog stores a text log as a dataset field under group. group is
// relative to the read root, not to Analyses.
func (r *readCore) AddLog(group, field, log string) error {
	if err := r.c.assertWritable(); err != nil {
		return err
	}
	g, err := r.root().RequireGroup(r.path(group))
	if err != nil {
		return fmt.Errorf("%s: %w", r.c.path, err)
	}
	if _, err := g.CreateDataset(field, []byte(log)); err != nil {
		return fmt.Errorf("%s: %w", r.c.path, err)
	}
	return nil
}
