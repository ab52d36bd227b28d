package model

// HistoryWriter provides append-oriented writes for dispatched alerts.
type HistoryWriter interface {
	InsertDispatchBatch(dispatches []*Dispatch) error
}

// HistoryQuerier provides read-only queries on dispatch history.
type HistoryQuerier interface {
	RecentDispatches(limit int) ([]Dispatch, error)
	TierCounts() (map[string]int64, error)
	SourceCounts() (map[string]int64, error)
	TotalDispatchCount() (int64, error)
}

// SnapshotSource exposes the latest published display state.
type SnapshotSource interface {
	Snapshot() *Snapshot
}
