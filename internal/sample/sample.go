// Package sample selects the per-run batch: unseen entries only,
// uniformly shuffled, bounded to a random batch size.
package sample

import (
	"math/rand"

	"skyfeed/internal/ledger"
	"skyfeed/internal/metrics"
	"skyfeed/internal/news"
)

// Pick filters entries already present in the ledger, shuffles the
// remainder and returns a prefix of random length in [minN, maxN].
// An empty result means there is nothing to do this run.
func Pick(entries []news.Entry, led *ledger.Ledger, rng *rand.Rand, minN, maxN int) []news.Entry {
	if minN < 1 {
		minN = 1
	}
	if maxN < minN {
		maxN = minN
	}

	fresh := make([]news.Entry, 0, len(entries))
	for _, e := range entries {
		if led.Contains(e.ID()) {
			continue
		}
		fresh = append(fresh, e)
	}
	metrics.Global.AddDuplicatesFiltered(int64(len(entries) - len(fresh)))

	if len(fresh) == 0 {
		return nil
	}

	rng.Shuffle(len(fresh), func(i, j int) {
		fresh[i], fresh[j] = fresh[j], fresh[i]
	})

	n := minN + rng.Intn(maxN-minN+1)
	if n > len(fresh) {
		n = len(fresh)
	}
	return fresh[:n]
}
