// Package metrics accumulates hydration counters across runs and exposes
// them as Prometheus metrics.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	nuxt "github.com/rahjooh/nuxt-scraper"
)

// Snapshot is a point-in-time view of the accumulated counters.
type Snapshot struct {
	Runs           uint64
	CellsVisited   uint64
	CacheEntries   uint64
	DecodeFailures uint64
	UnknownTags    uint64
}

// Recorder accumulates per-run hydration stats. Safe for concurrent use.
type Recorder struct {
	mu       sync.Mutex
	snapshot Snapshot
}

func NewRecorder() *Recorder {
	return &Recorder{}
}

// Observe folds one hydration run into the totals.
func (r *Recorder) Observe(stats nuxt.Stats) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.snapshot.Runs++
	r.snapshot.CellsVisited += uint64(stats.CellsVisited)
	r.snapshot.CacheEntries += uint64(stats.CacheSize)
	r.snapshot.DecodeFailures += uint64(stats.DecodeFailures)
	r.snapshot.UnknownTags += uint64(stats.UnknownTags)
}

func (r *Recorder) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshot
}

var (
	descRuns = prometheus.NewDesc(
		"nuxt_hydration_runs_total",
		"Number of completed hydration runs.",
		nil, nil,
	)
	descCells = prometheus.NewDesc(
		"nuxt_hydration_cells_visited_total",
		"Number of payload cells visited across all runs.",
		nil, nil,
	)
	descCache = prometheus.NewDesc(
		"nuxt_hydration_cache_entries_total",
		"Number of cache entries produced across all runs.",
		nil, nil,
	)
	descFailures = prometheus.NewDesc(
		"nuxt_hydration_decode_failures_total",
		"Number of cells replaced with null due to decode failures.",
		nil, nil,
	)
	descUnknown = prometheus.NewDesc(
		"nuxt_hydration_unknown_tags_total",
		"Number of unrecognized special tags decoded as plain objects.",
		nil, nil,
	)
)

// Collector exposes a Recorder's totals as Prometheus counters.
type Collector struct {
	recorder *Recorder
}

func NewCollector(recorder *Recorder) *Collector {
	return &Collector{recorder: recorder}
}

func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- descRuns
	ch <- descCells
	ch <- descCache
	ch <- descFailures
	ch <- descUnknown
}

func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	s := c.recorder.Snapshot()
	ch <- prometheus.MustNewConstMetric(descRuns, prometheus.CounterValue, float64(s.Runs))
	ch <- prometheus.MustNewConstMetric(descCells, prometheus.CounterValue, float64(s.CellsVisited))
	ch <- prometheus.MustNewConstMetric(descCache, prometheus.CounterValue, float64(s.CacheEntries))
	ch <- prometheus.MustNewConstMetric(descFailures, prometheus.CounterValue, float64(s.DecodeFailures))
	ch <- prometheus.MustNewConstMetric(descUnknown, prometheus.CounterValue, float64(s.UnknownTags))
}
