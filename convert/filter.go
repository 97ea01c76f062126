package convert

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/robert-malhotra/go-fast5/fast5"
)

// filterWorker extracts the reads of one read set from a list of input
// files into ceil(len(reads)/batch) multi-read outputs.
//
// Inputs and output slots are paired greedily. A slot is available while
// it holds fewer than batch reads. A unit that fills its slot before the
// input is exhausted puts the input back in the queue; an exhausted input
// is dropped. All bookkeeping happens on the goroutine calling run.
type filterWorker struct {
	pool     *Pool
	batch    int
	copyOpts []fast5.CopyOption
	mapping  *MappingLog
	opts     *Options

	inputs    []string
	outFiles  map[string]ReadSet
	available []string
	failed    int

	mu    sync.RWMutex // guards reads against concurrent units
	reads ReadSet
}

type filterTask struct {
	input  string
	output string
	count  int
}

type extraction struct {
	filterTask
	found   []string
	failed  []string
	requeue bool
	err     error
}

func newFilterWorker(inputs []string, outDir string, reads ReadSet, pool *Pool, o *BatchOptions) (*filterWorker, error) {
	if _, err := os.Stat(filepath.Join(outDir, MappingFile)); err == nil {
		o.Logger.Info("overwriting filename mapping file", "path", filepath.Join(outDir, MappingFile))
	}
	mapping, err := NewMappingLog(outDir)
	if err != nil {
		return nil, err
	}
	w := &filterWorker{
		pool:     pool,
		batch:    o.BatchSize,
		copyOpts: o.copyOptions(),
		mapping:  mapping,
		opts:     &o.Options,
		inputs:   append([]string(nil), inputs...),
		outFiles: map[string]ReadSet{},
		reads:    make(ReadSet, len(reads)),
	}
	for id := range reads {
		w.reads[id] = struct{}{}
	}
	n := numOutputs(len(reads), o.BatchSize)
	for i := n - 1; i >= 0; i-- {
		out := filepath.Join(outDir, fmt.Sprintf("%s%d%s", o.FilenameBase, i, Extension))
		if _, err := os.Stat(out); err == nil {
			o.Logger.Info("overwriting multi-read file", "path", out)
			if err := os.Remove(out); err != nil {
				mapping.Close()
				return nil, err
			}
		}
		w.outFiles[out] = ReadSet{}
		w.available = append(w.available, out)
	}
	return w, nil
}

// next pairs the next input with the lowest available output slot.
func (w *filterWorker) next() (filterTask, bool) {
	if len(w.available) == 0 || len(w.inputs) == 0 {
		return filterTask{}, false
	}
	out := w.available[len(w.available)-1]
	w.available = w.available[:len(w.available)-1]
	in := w.inputs[len(w.inputs)-1]
	w.inputs = w.inputs[:len(w.inputs)-1]
	return filterTask{input: in, output: out, count: w.batch - len(w.outFiles[out])}, true
}

// run processes tasks until no input can be paired with a slot. With a
// single worker the units run on the calling goroutine; otherwise every
// completed unit immediately schedules the pairings it made possible.
func (w *filterWorker) run(ctx context.Context) error {
	if w.pool.Size() == 1 {
		for t, ok := w.next(); ok; t, ok = w.next() {
			if err := ctx.Err(); err != nil {
				return errors.Join(err, w.mapping.Close())
			}
			w.update(w.extract(t))
		}
		return w.mapping.Close()
	}

	results := make(chan extraction)
	inflight := 0
	launch := func() {
		for t, ok := w.next(); ok; t, ok = w.next() {
			inflight++
			go func() {
				var res extraction
				if err := w.pool.Do(ctx, func() { res = w.extract(t) }); err != nil {
					res = extraction{filterTask: t, err: err}
				}
				results <- res
			}()
		}
	}
	launch()
	for inflight > 0 {
		res := <-results
		inflight--
		w.update(res)
		if ctx.Err() == nil {
			launch()
		}
	}
	return errors.Join(ctx.Err(), w.mapping.Close())
}

// wanted returns the ids that are still to be extracted, in file
// order.
func (w *filterWorker) wanted(ids []string) []string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	var out []string
	for _, id := range ids {
		if w.reads.Has(id) {
			out = append(out, id)
		}
	}
	return out
}

// extract copies at most t.count wanted reads of t.input into t.output.
func (w *filterWorker) extract(t filterTask) (res extraction) {
	res.filterTask = t
	in, err := fast5.OpenAny(t.input, fast5.ModeRead)
	if err != nil {
		res.err = err
		return res
	}
	defer in.Close()
	ids, err := in.ReadIDs()
	if err != nil {
		res.err = err
		return res
	}
	wanted := w.wanted(ids)
	if len(wanted) == 0 {
		return res
	}

	out, err := fast5.OpenMulti(t.output, fast5.ModeAppend)
	if err != nil {
		res.err = err
		return res
	}
	defer func() {
		if err := out.Close(); err != nil {
			res.found, res.err = nil, errors.Join(res.err, err)
		}
	}()
	presentIDs, err := out.ReadIDs()
	if err != nil {
		res.err = err
		return res
	}
	present := NewReadSet(presentIDs...)

	for _, id := range wanted {
		if !present.Has(id) {
			if err := w.copyRead(in, out, id); err != nil {
				w.opts.Logger.Error("extracting read", "read_id", id, "input", t.input, "output", t.output, "error", err)
				w.opts.Metrics.ReadsFailed.Inc()
				res.failed = append(res.failed, id)
				continue
			}
			present[id] = struct{}{}
		}
		res.found = append(res.found, id)
		if len(res.found) >= t.count {
			res.requeue = true
			return res
		}
	}
	return res
}

func (w *filterWorker) copyRead(in fast5.Container, out *fast5.MultiFile, id string) error {
	r, err := in.Read(id)
	if err != nil {
		return err
	}
	w.opts.Metrics.ReadsProcessed.Inc()
	if err := out.AddExistingRead(r, w.copyOpts...); err != nil {
		// Drop whatever part of the read was written.
		_ = out.DeleteRead(id)
		return err
	}
	return nil
}

// update records a finished unit. A failed unit contributes no reads and
// its input is not retried.
func (w *filterWorker) update(res extraction) {
	if res.err != nil {
		w.opts.Logger.Error("processing file", "input", res.input, "output", res.output, "error", res.err)
		w.opts.Metrics.FilesFailed.Inc()
		res.found, res.requeue = nil, false
	}
	w.failed += len(res.failed)
	exhausted := int64(1)
	if res.requeue {
		w.inputs = append(w.inputs, res.input)
		exhausted = 0
	}

	slot := w.outFiles[res.output]
	w.mu.Lock()
	for _, id := range res.found {
		slot[id] = struct{}{}
		delete(w.reads, id)
	}
	for _, id := range res.failed {
		delete(w.reads, id)
	}
	w.mu.Unlock()
	if len(slot) < w.batch {
		w.available = append(w.available, res.output)
	}

	name := filepath.Base(res.output)
	for _, id := range res.found {
		if err := w.mapping.Add(id, name); err != nil {
			w.opts.Logger.Error("writing filename mapping", "path", w.mapping.Path(), "error", err)
			break
		}
	}
	w.opts.Metrics.ReadsExtracted.Add(float64(len(res.found)))
	w.opts.Progress.Add(int64(len(res.found)) + exhausted)
}

// extracted returns the number of reads written to all outputs.
func (w *filterWorker) extracted() int {
	n := 0
	for _, reads := range w.outFiles {
		n += len(reads)
	}
	return n
}

// files returns the number of outputs holding at least one read.
func (w *filterWorker) files() int {
	n := 0
	for _, reads := range w.outFiles {
		if len(reads) > 0 {
			n++
		}
	}
	return n
}

func (w *filterWorker) report(rep *Report) {
	rep.Requested += w.extracted() + w.failed + w.remaining()
	rep.Extracted += w.extracted()
	rep.Failed += w.failed
	rep.Files += w.files()
}

// remaining returns the number of reads not extracted.
func (w *filterWorker) remaining() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return len(w.reads)
}
