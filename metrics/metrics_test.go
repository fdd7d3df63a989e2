package metrics

import (
	"strings"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	nuxt "github.com/rahjooh/nuxt-scraper"
)

func TestRecorderAccumulates(t *testing.T) {
	r := NewRecorder()
	r.Observe(nuxt.Stats{CellsVisited: 4, CacheSize: 4})
	r.Observe(nuxt.Stats{CellsVisited: 2, CacheSize: 2, DecodeFailures: 1, UnknownTags: 1})

	s := r.Snapshot()
	require.Equal(t, uint64(2), s.Runs)
	require.Equal(t, uint64(6), s.CellsVisited)
	require.Equal(t, uint64(6), s.CacheEntries)
	require.Equal(t, uint64(1), s.DecodeFailures)
	require.Equal(t, uint64(1), s.UnknownTags)
}

func TestRecorderConcurrent(t *testing.T) {
	r := NewRecorder()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				r.Observe(nuxt.Stats{CellsVisited: 1, CacheSize: 1})
			}
		}()
	}
	wg.Wait()

	s := r.Snapshot()
	require.Equal(t, uint64(1000), s.Runs)
	require.Equal(t, uint64(1000), s.CellsVisited)
}

func TestCollectorReportsTotals(t *testing.T) {
	r := NewRecorder()
	r.Observe(nuxt.Stats{CellsVisited: 3, CacheSize: 3, DecodeFailures: 2, UnknownTags: 1})

	expected := `
# HELP nuxt_hydration_cache_entries_total Number of cache entries produced across all runs.
# TYPE nuxt_hydration_cache_entries_total counter
nuxt_hydration_cache_entries_total 3
# HELP nuxt_hydration_cells_visited_total Number of payload cells visited across all runs.
# TYPE nuxt_hydration_cells_visited_total counter
nuxt_hydration_cells_visited_total 3
# HELP nuxt_hydration_decode_failures_total Number of cells replaced with null due to decode failures.
# TYPE nuxt_hydration_decode_failures_total counter
nuxt_hydration_decode_failures_total 2
# HELP nuxt_hydration_runs_total Number of completed hydration runs.
# TYPE nuxt_hydration_runs_total counter
nuxt_hydration_runs_total 1
# HELP nuxt_hydration_unknown_tags_total Number of unrecognized special tags decoded as plain objects.
# TYPE nuxt_hydration_unknown_tags_total counter
nuxt_hydration_unknown_tags_total 1
`

	err := testutil.CollectAndCompare(NewCollector(r), strings.NewReader(expected))
	require.NoError(t, err)
}

func TestCollectorObservesHydration(t *testing.T) {
	result, err := nuxt.Hydrate(`[{}, {"items": 2}, [3, 4], "a", "b"]`)
	require.NoError(t, err)

	r := NewRecorder()
	r.Observe(result.Stats)

	s := r.Snapshot()
	require.Equal(t, uint64(1), s.Runs)
	require.Equal(t, uint64(result.Stats.CellsVisited), s.CellsVisited)

	count := testutil.CollectAndCount(NewCollector(r))
	require.Equal(t, 5, count)
}
