package tui

import (
	"context"
	"time"

	"github.com/shackmatrix/marquee/internal/model"
)

// Summary aggregates dispatch totals for the legend pane.
type Summary struct {
	Total   int64            `json:"total"`
	Tiers   map[string]int64 `json:"tiers"`
	Sources map[string]int64 `json:"sources"`
}

// HourPoint is one bar of the hourly activity chart.
type HourPoint struct {
	Hour     time.Time `json:"hour"`
	Info     int64     `json:"info"`
	Urgent   int64     `json:"urgent"`
	Critical int64     `json:"critical"`
	Total    int64     `json:"total"`
}

// DataSource is the read-only daemon contract the dashboard polls.
// The production implementation talks to the marquee HTTP API.
type DataSource interface {
	State(ctx context.Context) (*model.Snapshot, error)
	Recent(ctx context.Context, limit int) ([]model.Dispatch, error)
	Summary(ctx context.Context) (*Summary, error)
	Hourly(ctx context.Context, window time.Duration) ([]HourPoint, error)
}
