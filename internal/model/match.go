package model

// MatchMethod identifies which cascade stage decided an alignment
type MatchMethod string

const (
	MethodExact     MatchMethod = "exact"     // Identical normalized text, same content type
	MethodFuzzy     MatchMethod = "fuzzy"     // Token overlap + edit distance
	MethodEmbedding MatchMethod = "embedding" // Cosine similarity over injected vectors
	MethodHybrid    MatchMethod = "hybrid"    // Combined fuzzy + embedding signal
)

// AnchorMatch records the alignment of one anchor in a "from" version to one
// anchor in a "to" version. At most one match exists per
// (from_doc_version_id, to_doc_version_id, from_anchor_id); a from-anchor
// with no match is simply absent from the result set. Matches are created by
// an alignment run and never mutated; re-running alignment for the same
// version pair replaces the previous rows.
type AnchorMatch struct {
	DocumentID       string                 `json:"document_id"`
	FromDocVersionID string                 `json:"from_doc_version_id"`
	ToDocVersionID   string                 `json:"to_doc_version_id"`
	FromAnchorID     string                 `json:"from_anchor_id"`
	ToAnchorID       string                 `json:"to_anchor_id"`
	Score            float64                `json:"score"`  // 0..1
	Method           MatchMethod            `json:"method"` // Deciding cascade stage
	Debug            map[string]interface{} `json:"debug,omitempty"`
}
