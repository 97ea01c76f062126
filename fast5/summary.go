package fast5

import (
	"fmt"
	"path/filepath"
	"sort"
)

// ReadSummary is the per-read part of a Summary.
type ReadSummary struct {
	ReadNumber int64  `json:"read_number"`
	ReadID     string `json:"read_id"`
	StartTime  int64  `json:"start_time"`
	Duration   int64  `json:"duration"`
	StartMux   int64  `json:"start_mux"`
}

// Summary collects the metadata and the latest analysis results of one
// component, in a form suitable for JSON encoding.
type Summary struct {
	TrackingID map[string]any            `json:"tracking_id"`
	ChannelID  map[string]any            `json:"channel_id"`
	Reads      []ReadSummary             `json:"reads"`
	Software   map[string]any            `json:"software"`
	Data       map[string]map[string]any `json:"data"`
	Filename   string                    `json:"filename"`
}

// ReadSummaryData summarizes a single-read file using the most recent
// analysis group of component.
func ReadSummaryData(path, component string) (*Summary, error) {
	f, err := OpenSingle(path, ModeRead)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	s := &Summary{Filename: filepath.Base(path)}
	if s.TrackingID, err = f.TrackingID(); err != nil {
		return nil, err
	}
	if s.ChannelID, err = f.ChannelInfo(); err != nil {
		return nil, err
	}
	for _, ri := range f.Status().Reads {
		s.Reads = append(s.Reads, ReadSummary{
			ReadNumber: ri.ReadNumber,
			ReadID:     ri.ReadID,
			StartTime:  ri.StartTime,
			Duration:   ri.Duration,
			StartMux:   ri.StartMux,
		})
	}

	analyses, err := f.ListAnalyses(component)
	if err != nil {
		return nil, err
	}
	if len(analyses) == 0 {
		return nil, fmt.Errorf("%w: no %s analysis in %s", ErrNotFound, component, path)
	}
	groups := make([]string, len(analyses))
	for i, a := range analyses {
		groups[i] = a.Group
	}
	sort.Strings(groups)
	latest := groups[len(groups)-1]

	if s.Software, err = f.AnalysisAttributes(latest); err != nil {
		return nil, err
	}
	if s.Software == nil {
		s.Software = map[string]any{}
	}
	s.Software["component"] = baseName(latest)
	if s.Data, err = f.SummaryData(latest); err != nil {
		return nil, err
	}
	return s, nil
}
