package domain

// ImportReport aggregates the recoverable conditions of one build run.
// Malformed records, unknown relations and per-record write failures are
// collected here instead of aborting the import.
type ImportReport struct {
	Domain           string         `json:"domain"`
	RecordsSeen      int            `json:"records_seen"`
	NodesUpserted    int            `json:"nodes_upserted"`
	EdgesUpserted    int            `json:"edges_upserted"`
	SkippedUnknown   int            `json:"skipped_unknown_type"`
	FilteredOut      int            `json:"filtered_out,omitempty"`
	Malformed        []string       `json:"malformed,omitempty"`
	DroppedRelations map[string]int `json:"dropped_relations,omitempty"`
	FailedWrites     []string       `json:"failed_writes,omitempty"`
}

func (r *ImportReport) Clean() bool {
	return len(r.Malformed) == 0 && len(r.DroppedRelations) == 0 && len(r.FailedWrites) == 0
}
