package domain

// DefaultSearchK is how many chunks a chat answer retrieves
const DefaultSearchK = 2

// SearchHit is a chunk returned by a nearest-neighbour search
type SearchHit struct {
	Chunk *Chunk      `json:"chunk"`
	Scope AccessScope `json:"scope"`
	Score float64     `json:"score"` // Cosine similarity, higher is closer
}

// UpsertReport describes the outcome of writing chunks to one index
type UpsertReport struct {
	Scope  AccessScope `json:"scope"`
	Stored []string    `json:"stored"`
	Failed []string    `json:"failed,omitempty"`
}

// OK reports whether every chunk was stored
func (r *UpsertReport) OK() bool {
	return len(r.Failed) == 0
}
