package retrieval

import (
	"fmt"

	"github.com/docmind/docmind/pkg/corpus"
)

// Merge combines a primary result list with auxiliary lists, deduplicating by
// URL. Primary results keep their relative order and always precede auxiliary
// results; auxiliary lists append in the order given. The merged list is
// capped at maxTotal entries; maxTotal <= 0 means no cap.
//
// Fragments without a URL are deduplicated by identity so that distinct
// anonymous fragments are not collapsed together.
func Merge(primary []*corpus.Fragment, maxTotal int, extras ...[]*corpus.Fragment) []*corpus.Fragment {
	seen := make(map[string]struct{}, len(primary))
	merged := make([]*corpus.Fragment, 0, len(primary))

	add := func(f *corpus.Fragment) bool {
		if f == nil {
			return true
		}
		key := f.URL
		if key == "" {
			key = fmt.Sprintf("anon:%p", f)
		}
		if _, ok := seen[key]; ok {
			return true
		}
		seen[key] = struct{}{}
		merged = append(merged, f)
		return maxTotal <= 0 || len(merged) < maxTotal
	}

	for _, f := range primary {
		if !add(f) {
			return merged
		}
	}
	for _, extra := range extras {
		for _, f := range extra {
			if !add(f) {
				return merged
			}
		}
	}
	return merged
}
