package tracker

import (
	"sync"
	"testing"
)

func TestTrackerCounts(t *testing.T) {
	tr := New()

	tr.TrackCacheHit("wikidata")
	tr.TrackCacheHit("wikidata")
	tr.TrackCacheMiss("wikidata")
	tr.TrackAPISuccess("wikidata")
	tr.TrackAPIFailure("wikisource")
	tr.TrackAPIZeroResult("wikidata")

	snap := tr.Snapshot()

	wd := snap["wikidata"]
	if wd.CacheHits != 2 || wd.CacheMisses != 1 || wd.APISuccess != 1 || wd.APIZeroResult != 1 {
		t.Errorf("unexpected wikidata stats: %+v", wd)
	}
	if snap["wikisource"].APIFailures != 1 {
		t.Errorf("unexpected wikisource stats: %+v", snap["wikisource"])
	}
}

func TestTrackerConcurrent(t *testing.T) {
	tr := New()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tr.TrackAPISuccess("wikidata")
			tr.TrackCacheHit("wikidata")
		}()
	}
	wg.Wait()

	snap := tr.Snapshot()
	if snap["wikidata"].APISuccess != 50 || snap["wikidata"].CacheHits != 50 {
		t.Errorf("lost updates: %+v", snap["wikidata"])
	}
}
