package fast5

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/robert-malhotra/go-fast5/internal/dtype"
	"github.com/robert-malhotra/go-fast5/internal/store"
)

// LegacyComponentNames maps analysis group base names to component names
// for files written before groups carried a component attribute.
var LegacyComponentNames = map[string]string{
	"Alignment":          "alignment",
	"Basecall_1D":        "basecall_1d",
	"OnlineBasecall":     "basecall_1d",
	"Basecall_2D":        "basecall_2d",
	"Calibration_Strand": "calibration_strand",
	"EventDetection":     "event_detection",
	"Segmentation":       "segmentation",
	"Hairpin_Split":      "segmentation",
	"Segment_Linear":     "segmentation",
	"Validation":         "segmentation",
	"AlignToRef":         "align_to_ref",
	"Barcoding":          "barcoding",
	"Classification":     "classification",
	"Evaluation":         "evaluation",
	"Multiple_Alignment": "multiple_alignment",
	"Squiggle_Map":       "squiggle_map",
	"Sam_Segmentor":      "sam_segmentor",
	"arma":               "arma",
	"Basic_component":    "basic_component",
	"RawGenomeCorrected": "raw_genome_corrected",
}

// analysisGzip is the deflate level used for analysis datasets.
const analysisGzip = 4

// Analysis names one analysis group and the component that wrote it.
type Analysis struct {
	Component string
	Group     string
}

// baseName strips the _NNN index suffix of an analysis group name.
func baseName(group string) string {
	if len(group) < 4 {
		return ""
	}
	return group[:len(group)-4]
}

func analysesPath(group string) string {
	return analysesGroup + "/" + group
}

// AddAnalysis creates Analyses/<group> with Summary and Configuration
// subgroups. config sections become groups under Configuration.
func (r *readCore) AddAnalysis(component, group string, attrs map[string]any, config map[string]map[string]any) error {
	if err := r.c.assertWritable(); err != nil {
		return err
	}
	groupAttrs := make(map[string]any, len(attrs)+1)
	for k, v := range attrs {
		groupAttrs[k] = v
	}
	groupAttrs["component"] = component
	if _, err := r.addGroup(analysesPath(group), groupAttrs); err != nil {
		return err
	}
	for _, sub := range []string{"Summary", "Configuration"} {
		if _, err := r.addGroup(analysesPath(group)+"/"+sub, nil); err != nil {
			return err
		}
	}
	if config != nil {
		return r.addAttrTree(analysesPath(group)+"/Configuration", config)
	}
	return nil
}

func (r *readCore) addAttrTree(base string, tree map[string]map[string]any) error {
	sections := make([]string, 0, len(tree))
	for name := range tree {
		sections = append(sections, name)
	}
	sort.Strings(sections)
	for _, name := range sections {
		if _, err := r.addGroup(base+"/"+name, tree[name]); err != nil {
			return err
		}
	}
	return nil
}

func (r *readCore) parseAttrTree(base string) (map[string]map[string]any, error) {
	g, err := r.group(base)
	if err != nil {
		return nil, err
	}
	names, err := g.Members()
	if err != nil {
		return nil, err
	}
	out := make(map[string]map[string]any, len(names))
	for _, name := range names {
		obj, err := g.Object(name)
		if err != nil {
			return nil, err
		}
		if out[name], err = readAttrs(holderOf(obj)); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// componentOf returns the component of an analysis group, falling back
// on the legacy name table.
func componentOf(g *store.Group, name string) (string, bool) {
	if g.HasAttr("component") {
		v, err := g.AttrValue("component")
		if err == nil {
			return asString(v), true
		}
	}
	comp, ok := LegacyComponentNames[baseName(name)]
	return comp, ok
}

// ListAnalyses returns the analysis groups in creation order, restricted
// to one component unless component is empty. Groups whose component
// cannot be determined are skipped.
func (r *readCore) ListAnalyses(component string) ([]Analysis, error) {
	if err := r.c.assertOpen(); err != nil {
		return nil, err
	}
	if !r.exists(analysesGroup) {
		return nil, nil
	}
	ana, err := r.group(analysesGroup)
	if err != nil {
		return nil, err
	}
	names, err := ana.Members()
	if err != nil {
		return nil, err
	}
	var out []Analysis
	for _, name := range names {
		g, err := ana.Group(name)
		if err != nil {
			continue
		}
		comp, ok := componentOf(g, name)
		if ok && (component == "" || comp == component) {
			out = append(out, Analysis{Component: comp, Group: name})
		}
	}
	return out, nil
}

// LatestAnalysis returns the highest indexed group named <base>_NNN. With
// increment set it returns the next unused name instead, starting at
// <base>_000. Without increment and without a match it returns "".
func (r *readCore) LatestAnalysis(base string, increment bool) (string, error) {
	all, err := r.ListAnalyses("")
	if err != nil {
		return "", err
	}
	var selected []string
	for _, a := range all {
		if baseName(a.Group) == base {
			selected = append(selected, a.Group)
		}
	}
	if len(selected) == 0 {
		if increment {
			return base + "_000", nil
		}
		return "", nil
	}
	sort.Strings(selected)
	latest := selected[len(selected)-1]
	if !increment {
		return latest, nil
	}
	n, err := strconv.Atoi(latest[len(latest)-3:])
	if err != nil {
		return "", fmt.Errorf("%w: analysis group %q has no numeric index", ErrFormat, latest)
	}
	return fmt.Sprintf("%s_%03d", base, n+1), nil
}

// AddChain records the groups that group was computed from. Values may be
// group names or paths starting with "Analyses/".
func (r *readCore) AddChain(group string, components map[string]string) error {
	if err := r.c.assertWritable(); err != nil {
		return err
	}
	attrs := make(map[string]any, len(components))
	for comp, p := range components {
		if !strings.HasPrefix(p, analysesGroup+"/") {
			p = analysesPath(p)
		}
		attrs[comp] = p
	}
	return r.AddAnalysisAttributes(group, attrs, false)
}

// chainEdges returns the predecessors recorded on one analysis group, in
// attribute order.
func (r *readCore) chainEdges(groupPath string) ([]Analysis, error) {
	h, err := r.holder(groupPath)
	if err != nil {
		return nil, err
	}
	var edges []Analysis
	for _, name := range h.Attrs() {
		v, err := h.AttrValue(name)
		if err != nil {
			return nil, err
		}
		s, ok := Clean(v).(string)
		if ok && strings.HasPrefix(s, analysesGroup+"/") {
			edges = append(edges, Analysis{Component: name, Group: s[len(analysesGroup)+1:]})
		}
	}
	return edges, nil
}

// Chain returns the provenance of group, breadth first starting with group
// itself. A group reached again moves to the end of the chain.
func (r *readCore) Chain(group string) ([]Analysis, error) {
	if err := r.c.assertOpen(); err != nil {
		return nil, err
	}
	end, err := r.group(analysesPath(group))
	if err != nil {
		return nil, err
	}
	comp, ok := componentOf(end, group)
	if !ok {
		return nil, fmt.Errorf("%w: unknown component for analysis %s", ErrFormat, group)
	}

	edges := make(map[string][]Analysis)
	lookup := func(g string) ([]Analysis, error) {
		if e, ok := edges[g]; ok {
			return e, nil
		}
		e, err := r.chainEdges(analysesPath(g))
		if err != nil {
			return nil, err
		}
		edges[g] = e
		return e, nil
	}
	if err := r.checkAcyclic(group, lookup); err != nil {
		return nil, err
	}

	chain := []Analysis{{Component: comp, Group: group}}
	queue := []string{group}
	for len(queue) > 0 {
		g := queue[0]
		queue = queue[1:]
		next, err := lookup(g)
		if err != nil {
			return nil, err
		}
		for _, entry := range next {
			for i, seen := range chain {
				if seen == entry {
					chain = append(chain[:i], chain[i+1:]...)
					break
				}
			}
			chain = append(chain, entry)
			queue = append(queue, entry.Group)
		}
	}
	return chain, nil
}

func (r *readCore) checkAcyclic(start string, lookup func(string) ([]Analysis, error)) error {
	const (
		visiting = 1
		done     = 2
	)
	state := make(map[string]int)
	var visit func(g string) error
	visit = func(g string) error {
		switch state[g] {
		case visiting:
			return fmt.Errorf("%w: analysis chain of %s loops through %s", ErrFormat, start, g)
		case done:
			return nil
		}
		state[g] = visiting
		next, err := lookup(g)
		if err != nil {
			return err
		}
		for _, e := range next {
			if err := visit(e.Group); err != nil {
				return err
			}
		}
		state[g] = done
		return nil
	}
	return visit(start)
}

// AddAnalysisSubgroup creates Analyses/<group>/<subgroup>, which may be a
// nested name such as "Template/Data". It must not already exist.
func (r *readCore) AddAnalysisSubgroup(group, subgroup string, attrs map[string]any) error {
	if err := r.c.assertWritable(); err != nil {
		return err
	}
	_, err := r.addGroup(analysesPath(group)+"/"+subgroup, attrs)
	return err
}

// AddAnalysisAttributes sets attributes on any existing group or dataset
// below Analyses.
func (r *readCore) AddAnalysisAttributes(path string, attrs map[string]any, clear bool) error {
	if err := r.c.assertWritable(); err != nil {
		return err
	}
	return r.setAttrs(analysesPath(path), attrs, clear)
}

// AnalysisAttributes returns the attributes of a group or dataset below
// Analyses, or nil when it does not exist.
func (r *readCore) AnalysisAttributes(path string) (map[string]any, error) {
	if err := r.c.assertOpen(); err != nil {
		return nil, err
	}
	if !r.exists(analysesPath(path)) {
		return nil, nil
	}
	return r.getAttrs(analysesPath(path))
}

// AddAnalysisDataset stores data below an existing analysis group. Text
// is encoded for storage and arrays are deflate compressed.
func (r *readCore) AddAnalysisDataset(group, name string, data any, attrs map[string]any) error {
	if err := r.c.assertWritable(); err != nil {
		return err
	}
	g, err := r.group(analysesPath(group))
	if err != nil {
		return fmt.Errorf("dataset cannot be added to non-existent group %s: %w", analysesPath(group), err)
	}
	stored, err := EncodeForStorage(data)
	if err != nil {
		return err
	}
	dt, shape, raw, err := dtype.Marshal(stored)
	if err != nil {
		return fmt.Errorf("dataset %s: %w", name, err)
	}
	var opts []store.DatasetOption
	if len(shape) > 0 {
		opts = append(opts, store.WithDeflate(analysisGzip))
	}
	ds, err := g.CreateDatasetRaw(name, dt, shape, raw, opts...)
	if err != nil {
		return fmt.Errorf("%s: %w", r.c.path, err)
	}
	if attrs != nil {
		return writeAttrs(ds, attrs, false)
	}
	return nil
}

// AnalysisDataset reads a dataset below Analyses with text decoded, or
// returns nil when it does not exist.
func (r *readCore) AnalysisDataset(group, name string) (any, error) {
	if err := r.c.assertOpen(); err != nil {
		return nil, err
	}
	p := analysesPath(group) + "/" + name
	if !r.exists(p) {
		return nil, nil
	}
	ds, err := r.root().Dataset(r.path(p))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", r.c.path, err)
	}
	v, err := ds.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", r.c.path, wrapCodecError(err))
	}
	return DecodeForPresentation(v), nil
}

// SetSummaryData writes one summary section of an analysis group.
func (r *readCore) SetSummaryData(group, section string, data map[string]any) error {
	if err := r.c.assertWritable(); err != nil {
		return err
	}
	_, err := r.addGroup(analysesPath(group)+"/Summary/"+section, data)
	return err
}

// SummaryData returns the summary sections of an analysis group, or nil
// when the group has no Summary.
func (r *readCore) SummaryData(group string) (map[string]map[string]any, error) {
	if err := r.c.assertOpen(); err != nil {
		return nil, err
	}
	p := analysesPath(group) + "/Summary"
	if !r.exists(p) {
		return nil, nil
	}
	return r.parseAttrTree(p)
}

// SetAnalysisConfig writes configuration sections of an existing analysis
// group.
func (r *readCore) SetAnalysisConfig(group string, config map[string]map[string]any) error {
	if err := r.c.assertWritable(); err != nil {
		return err
	}
	if !r.exists(analysesPath(group)) {
		return fmt.Errorf("%w: analysis group %s in %s", ErrNotFound, analysesPath(group), r.c.path)
	}
	return r.addAttrTree(analysesPath(group)+"/Configuration", config)
}

// AnalysisConfig returns the configuration sections of an analysis group,
// or nil when it has none.
func (r *readCore) AnalysisConfig(group string) (map[string]map[string]any, error) {
	if err := r.c.assertOpen(); err != nil {
		return nil, err
	}
	p := analysesPath(group) + "/Configuration"
	if !r.exists(p) {
		return nil, nil
	}
	return r.parseAttrTree(p)
}
