// Copyright 2026 The Overmatch Authors
// SPDX-License-Identifier: Apache-2.0

package conflate

import (
	"errors"
	"fmt"
	"log"
	"math"
	"os"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/overmatch/overmatch/spatial"
	"github.com/schollz/progressbar/v3"
)

// ErrTooManyErrors aborts a run in which per-record failures exceed the
// configured threshold; scattered noise at that volume is a systemic
// bug, not bad data.
var ErrTooManyErrors = errors.New("too many per-record errors")

// Options configures a matching run.
type Options struct {
	// BufferMeters is the search radius around each source point.
	BufferMeters float64

	// Threshold is the minimum name similarity for a match.
	Threshold float64

	// MaxProcs caps the worker pool. Defaults to the number of CPUs.
	MaxProcs int

	// MaxErrors is the per-record error budget before the run aborts.
	MaxErrors int

	// Progress draws a progress bar when stderr is a terminal.
	Progress bool
}

func (o Options) withDefaults() Options {
	if o.BufferMeters <= 0 {
		o.BufferMeters = 100
	}

	if o.Threshold <= 0 {
		o.Threshold = 0.6
	}

	if o.MaxProcs <= 0 {
		o.MaxProcs = runtime.NumCPU()
	}

	if o.MaxErrors <= 0 {
		o.MaxErrors = 100
	}

	return o
}

// Metrics tracks counters for one matching run.
type Metrics struct {
	Processed     int
	SkippedNoName int
	Matched       int
	Vetoed        int
	Errors        int

	IndexElapsed time.Duration
	MatchElapsed time.Duration
}

// Merge combines the metrics from another instance into this one.
func (m *Metrics) Merge(other *Metrics) *Metrics {
	if other == nil {
		return m
	}

	m.Processed += other.Processed
	m.SkippedNoName += other.SkippedNoName
	m.Matched += other.Matched
	m.Vetoed += other.Vetoed
	m.Errors += other.Errors

	return m
}

// Engine matches source points against an immutable reference
// collection. The spatial index and reference slice are shared
// read-only across workers; an Engine must not be reused across runs.
type Engine struct {
	opts       Options
	refs       []ReferencePoint
	index      *spatial.Index
	reconciler *Reconciler

	Metrics Metrics
}

// NewEngine builds the spatial index over the reference collection and
// returns an engine ready to run.
func NewEngine(refs []ReferencePoint, reconciler *Reconciler, opts Options) *Engine {
	start := time.Now()

	index := spatial.NewIndex()
	for i := range refs {
		index.Insert(i, refs[i].X, refs[i].Y)
	}

	e := &Engine{
		opts:       opts.withDefaults(),
		refs:       refs,
		index:      index,
		reconciler: reconciler,
	}
	e.Metrics.IndexElapsed = time.Since(start)

	log.Printf("Spatial index built with %d features in %s", index.Len(), e.Metrics.IndexElapsed.Round(time.Millisecond))

	return e
}

// matchPoint runs the search, distance, similarity and reconciliation
// stages for a single source point, accumulating skip counters into m.
// Unexpected panics in the pipeline surface as per-record errors
// counted against the error budget.
func (e *Engine) matchPoint(p *SourcePoint, m *Metrics) (records []MatchRecord, err error) {
	defer func() {
		if r := recover(); r != nil {
			records, err = nil, fmt.Errorf("matching %s: panic: %v", p.ID, r)
		}
	}()

	// Cheap bbox prune first; exact geometry only for the survivors.
	envelope := spatial.Envelope(p.X, p.Y, e.opts.BufferMeters)

	for _, handle := range e.index.Search(envelope) {
		ref := &e.refs[handle]

		dx, dy := ref.X-p.X, ref.Y-p.Y

		distance := math.Hypot(dx, dy)
		if distance > e.opts.BufferMeters {
			continue
		}

		if ref.Name == "" {
			// A reference without a display name can never match.
			continue
		}

		similarity := Similarity(p.Name, ref.Name)
		if similarity < e.opts.Threshold {
			continue
		}

		tags, ok := e.reconciler.Reconcile(p, ref)
		if !ok {
			m.Vetoed++

			if e.reconciler.Verbose {
				log.Printf("Vetoed %s / %s on house number conflict", p.ID, ref.ID)
			}

			continue
		}

		records = append(records, MatchRecord{
			OSMID:        p.ID,
			OvertureID:   ref.ID,
			Lon:          ref.Lon,
			Lat:          ref.Lat,
			DistanceM:    distance,
			Similarity:   similarity,
			OvertureTags: tags,
		})
	}

	return records, nil
}

// Run matches every source point against the reference collection. The
// work fans out over a fixed pool of workers processing disjoint
// chunks; chunk results are concatenated in input order so the output
// is deterministic at any worker count. Run returns the records
// collected so far together with ErrTooManyErrors when the per-record
// error budget is exhausted.
func (e *Engine) Run(source []SourcePoint) ([]MatchRecord, error) {
	start := time.Now()

	chunks := chunkRange(len(source), e.opts.MaxProcs)

	var bar *progressbar.ProgressBar
	if e.opts.Progress && isatty.IsTerminal(os.Stderr.Fd()) {
		bar = progressbar.NewOptions(len(source),
			progressbar.OptionSetDescription("Matching"),
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionShowCount(),
			progressbar.OptionClearOnFinish(),
		)
	}

	var (
		wg        sync.WaitGroup
		errCount  atomic.Int64
		stopOnce  sync.Once
		stop      = make(chan struct{})
		semaphore = make(chan struct{}, e.opts.MaxProcs)
		results   = make([][]MatchRecord, len(chunks))
		metrics   = make([]Metrics, len(chunks))
	)

	for ci, chunk := range chunks {
		wg.Add(1)

		go func(ci int, chunk [2]int) {
			defer wg.Done()
			semaphore <- struct{}{}

			defer func() { <-semaphore }()

			m := &metrics[ci]

			for i := chunk[0]; i < chunk[1]; i++ {
				select {
				case <-stop:
					return
				default:
				}

				p := &source[i]
				m.Processed++

				if p.Name == "" {
					m.SkippedNoName++
				} else {
					records, err := e.matchPoint(p, m)
					if err != nil {
						m.Errors++

						log.Printf("Match failed - %s", err)

						if errCount.Add(1) > int64(e.opts.MaxErrors) {
							stopOnce.Do(func() { close(stop) })

							return
						}
					}

					m.Matched += len(records)
					results[ci] = append(results[ci], records...)
				}

				if bar != nil {
					_ = bar.Add(1)
				}
			}
		}(ci, chunk)
	}

	wg.Wait()

	for i := range metrics {
		e.Metrics.Merge(&metrics[i])
	}

	e.Metrics.MatchElapsed = time.Since(start)

	var all []MatchRecord
	for _, records := range results {
		all = append(all, records...)
	}

	log.Printf(
		"Matching phase complete - %d points processed, %d without name, %d matches, %d vetoed, %d errors in %s",
		e.Metrics.Processed,
		e.Metrics.SkippedNoName,
		e.Metrics.Matched,
		e.Metrics.Vetoed,
		e.Metrics.Errors,
		e.Metrics.MatchElapsed.Round(time.Millisecond),
	)

	if errCount.Load() > int64(e.opts.MaxErrors) {
		return all, fmt.Errorf("%w: %d failures with a budget of %d", ErrTooManyErrors, errCount.Load(), e.opts.MaxErrors)
	}

	return all, nil
}

// chunkRange splits n items into at most 4*workers contiguous chunks.
func chunkRange(n, workers int) [][2]int {
	if n == 0 {
		return nil
	}

	size := n / (workers * 4)
	if size < 1 {
		size = 1
	}

	var chunks [][2]int
	for lo := 0; lo < n; lo += size {
		hi := lo + size
		if hi > n {
			hi = n
		}

		chunks = append(chunks, [2]int{lo, hi})
	}

	return chunks
}
