package history

import (
	"context"
	"log"
	"time"

	"github.com/shackmatrix/marquee/internal/model"
)

// queryCtx returns a context with the store's configured query timeout.
func (s *Store) queryCtx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), s.QueryTimeout)
}

// RecentDispatches returns the most recent dispatches in chronological order.
func (s *Store) RecentDispatches(limit int) ([]model.Dispatch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx, cancel := s.queryCtx()
	defer cancel()

	// Wrap so final results come back in chronological (ASC) order.
	rows, err := s.db.QueryContext(ctx, `
		SELECT * FROM (
			SELECT event_id, timestamp, identity, source, tier, title, mode, replay_interval_ms, one_shot
			FROM dispatches
			ORDER BY timestamp DESC
			LIMIT ?
		) ORDER BY timestamp ASC`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []model.Dispatch
	for rows.Next() {
		d, err := scanDispatch(rows)
		if err != nil {
			log.Printf("history scan error (RecentDispatches): %v", err)
			continue
		}
		results = append(results, d)
	}
	return results, rows.Err()
}

// TierCounts returns the total dispatch count per tier.
func (s *Store) TierCounts() (map[string]int64, error) {
	return s.groupCount("tier")
}

// SourceCounts returns the total dispatch count per source.
func (s *Store) SourceCounts() (map[string]int64, error) {
	return s.groupCount("source")
}

// groupCount aggregates dispatch counts over a fixed column name.
func (s *Store) groupCount(column string) (map[string]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx, cancel := s.queryCtx()
	defer cancel()

	// column is one of the hardcoded callers above, never user input.
	rows, err := s.db.QueryContext(ctx, `SELECT `+column+`, COUNT(*) FROM dispatches GROUP BY `+column)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make(map[string]int64)
	for rows.Next() {
		var key string
		var count int64
		if err := rows.Scan(&key, &count); err != nil {
			log.Printf("history scan error (groupCount %s): %v", column, err)
			continue
		}
		result[key] = count
	}
	return result, rows.Err()
}

// TotalDispatchCount returns the total number of dispatches recorded.
func (s *Store) TotalDispatchCount() (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx, cancel := s.queryCtx()
	defer cancel()

	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM dispatches`).Scan(&count)
	return count, err
}

// HourCounts is the per-hour dispatch breakdown used by the activity chart.
type HourCounts struct {
	Hour     time.Time `json:"hour"`
	Info     int64     `json:"info"`
	Urgent   int64     `json:"urgent"`
	Critical int64     `json:"critical"`
	Total    int64     `json:"total"`
}

// TierCountsByHour returns per-hour tier breakdowns for a time window.
func (s *Store) TierCountsByHour(window time.Duration) ([]HourCounts, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx, cancel := s.queryCtx()
	defer cancel()
	cutoff := time.Now().Add(-window)

	rows, err := s.db.QueryContext(ctx, `
		SELECT date_trunc('hour', timestamp) as hour,
			SUM(CASE WHEN tier='INFO' THEN 1 ELSE 0 END) as info,
			SUM(CASE WHEN tier='URGENT' THEN 1 ELSE 0 END) as urgent,
			SUM(CASE WHEN tier='CRITICAL' THEN 1 ELSE 0 END) as critical,
			COUNT(*) as total
		FROM dispatches
		WHERE timestamp >= ?
		GROUP BY hour ORDER BY hour`, cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []HourCounts
	for rows.Next() {
		var hc HourCounts
		if err := rows.Scan(&hc.Hour, &hc.Info, &hc.Urgent, &hc.Critical, &hc.Total); err != nil {
			log.Printf("history scan error (TierCountsByHour): %v", err)
			continue
		}
		results = append(results, hc)
	}
	return results, rows.Err()
}

// ActiveCooldowns returns the latest dispatch per identity that is still
// inside its replay interval at now. One-shot rows are excluded: their
// lifecycle ends with a clear the database never sees, so restoring them
// would wrongly suppress a re-issued alert after a restart.
func (s *Store) ActiveCooldowns(now time.Time) ([]model.CooldownRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx, cancel := s.queryCtx()
	defer cancel()

	rows, err := s.db.QueryContext(ctx, `
		SELECT identity, timestamp, replay_interval_ms
		FROM dispatches
		WHERE NOT one_shot
		  AND timestamp + to_milliseconds(replay_interval_ms) > ?
		QUALIFY row_number() OVER (PARTITION BY identity ORDER BY timestamp DESC) = 1`, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []model.CooldownRecord
	for rows.Next() {
		var rec model.CooldownRecord
		var intervalMs int64
		if err := rows.Scan(&rec.Identity, &rec.LastShown, &intervalMs); err != nil {
			log.Printf("history scan error (ActiveCooldowns): %v", err)
			continue
		}
		rec.ReplayInterval = time.Duration(intervalMs) * time.Millisecond
		results = append(results, rec)
	}
	return results, rows.Err()
}

// DeleteBefore removes dispatches older than cutoff and returns the
// number of rows deleted.
func (s *Store) DeleteBefore(cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ctx, cancel := s.queryCtx()
	defer cancel()

	res, err := s.db.ExecContext(ctx, `DELETE FROM dispatches WHERE timestamp < ?`, cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDispatch(row rowScanner) (model.Dispatch, error) {
	var d model.Dispatch
	var source, tier, mode string
	var intervalMs int64
	if err := row.Scan(&d.EventID, &d.Timestamp, &d.Identity, &source, &tier, &d.Title, &mode, &intervalMs, &d.OneShot); err != nil {
		return model.Dispatch{}, err
	}
	if err := d.Source.UnmarshalText([]byte(source)); err != nil {
		return model.Dispatch{}, err
	}
	if err := d.Tier.UnmarshalText([]byte(tier)); err != nil {
		return model.Dispatch{}, err
	}
	switch mode {
	case "TAKEOVER":
		d.Mode = model.ModeTakeover
	case "ROTATING_WITH_INSERT":
		d.Mode = model.ModeRotatingWithInsert
	default:
		d.Mode = model.ModeRotating
	}
	d.ReplayInterval = time.Duration(intervalMs) * time.Millisecond
	return d, nil
}
