package core

import "tmods/internal/domain"

// MergeSearchResults concatenates results in argument order and drops every hit
// that shares a slug, name or description with any hit before it in the
// concatenated list. Each dropped hit decrements the combined count, so the
// first catalog passed always wins a tie.
func MergeSearchResults(results ...*domain.SearchResult) *domain.SearchResult {
	var (
		all   []domain.SearchHit
		count int
	)
	for _, r := range results {
		if r == nil {
			continue
		}
		all = append(all, r.Hits...)
		count += r.Count
	}

	merged := &domain.SearchResult{Hits: make([]domain.SearchHit, 0, len(all))}
	for i, hit := range all {
		if duplicatesEarlier(all[:i], hit) {
			count--
			continue
		}
		merged.Hits = append(merged.Hits, hit)
	}
	merged.Count = count
	return merged
}

// duplicatesEarlier compares against the full prefix, including hits that were
// themselves dropped as duplicates.
func duplicatesEarlier(earlier []domain.SearchHit, hit domain.SearchHit) bool {
	for _, e := range earlier {
		if sameMod(e, hit) {
			return true
		}
	}
	return false
}

func sameMod(a, b domain.SearchHit) bool {
	return a.Slug == b.Slug || a.Name == b.Name || a.Description == b.Description
}
