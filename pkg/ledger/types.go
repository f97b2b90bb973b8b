package ledger

// Meta tracks a store's monotonic sequence. Every Store (the witness log
// and the finding ledger each use one) keeps exactly one of these behind
// its own key prefix.
type Meta struct {
	// Length is the number of records appended so far. Positions handed
	// out by Append are 1..Length and are never reused (spec.md I3, I7).
	Length uint64 `json:"length"`
}
