package compare

import (
	"sort"
	"strings"
)

// pickWinner selects at most one provider ID from a finished run. A pinned
// provider wins whenever its branch is usable; otherwise usable branches rank
// by quality descending, latency ascending, configured priority, and finally
// provider ID. No usable branch means no winner.
func pickWinner(results []NormalizedResult, specs []ProviderSpec, pinned string) string {
	priority := make(map[string]int, len(specs))
	for _, spec := range specs {
		priority[spec.ID] = spec.Priority
	}

	var usable []NormalizedResult
	for _, r := range results {
		if r.OK && strings.TrimSpace(r.Text) != "" {
			usable = append(usable, r)
		}
	}
	if len(usable) == 0 {
		return ""
	}

	if pinned != "" {
		for _, r := range usable {
			if r.Provider == pinned {
				return pinned
			}
		}
	}

	quality := func(r NormalizedResult) int {
		if r.Quality == nil {
			return -1
		}
		return *r.Quality
	}

	sort.SliceStable(usable, func(i, j int) bool {
		a, b := usable[i], usable[j]
		if qa, qb := quality(a), quality(b); qa != qb {
			return qa > qb
		}
		if a.LatencyMS != b.LatencyMS {
			return a.LatencyMS < b.LatencyMS
		}
		if pa, pb := priority[a.Provider], priority[b.Provider]; pa != pb {
			return pa < pb
		}
		return a.Provider < b.Provider
	})
	return usable[0].Provider
}
