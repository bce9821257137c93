package domain

import "sort"

// VectorRecord is the unit persisted in a vector index.
// ID is unique per logical entity; re-upserting an ID replaces the record.
type VectorRecord struct {
	ID        string
	Embedding Embedding
	Metadata  map[string]string
}

// MatchCandidate is one ranked result of a similarity query.
type MatchCandidate struct {
	// ID is the matched record id.
	ID string

	// Score is a higher-is-better similarity (cosine for every shipped backend).
	Score float64

	// Metadata is the matched record's metadata.
	Metadata map[string]string
}

// EntityID returns the identity the candidate points at.
// Falls back to the record id when no entity_id metadata was stored.
func (m MatchCandidate) EntityID() string {
	if id := m.Metadata[MetaEntityID]; id != "" {
		return id
	}
	return m.ID
}

// MetadataFilter restricts a query to records whose metadata contains every pair.
type MetadataFilter map[string]string

// Matches reports whether metadata satisfies every key/value pair of the filter.
// An empty filter matches everything.
func (f MetadataFilter) Matches(metadata map[string]string) bool {
	for k, v := range f {
		if got, ok := metadata[k]; !ok || got != v {
			return false
		}
	}
	return true
}

// Keys returns the filter keys in sorted order.
func (f MetadataFilter) Keys() []string {
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// SortCandidates orders candidates by descending score, breaking ties by ascending id.
func SortCandidates(candidates []MatchCandidate) {
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].Score != candidates[j].Score {
			return candidates[i].Score > candidates[j].Score
		}
		return candidates[i].ID < candidates[j].ID
	})
}

// CopyMetadata returns a shallow copy of a metadata map.
func CopyMetadata(md map[string]string) map[string]string {
	out := make(map[string]string, len(md))
	for k, v := range md {
		out[k] = v
	}
	return out
}
