package normalize

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shackmatrix/marquee/internal/model"
)

// Rank bands for the most-wanted list. Top 10 is a full jackpot
// takeover; 11-50 is a one-shot drop-in card; anything beyond is
// ordinary spot-card content, not an alert.
const (
	jackpotMaxRank = 10
	dropinMaxRank  = 50
)

// SpotRecord is one DX-cluster spot already matched against the
// most-wanted table by the feed.
type SpotRecord struct {
	Callsign  string  `json:"spotted"`
	Rank      int     `json:"rank"`
	Entity    string  `json:"entity"`
	Frequency float64 `json:"frequency"`
	Band      string  `json:"band"`
	Mode      string  `json:"mode"`
	Spotter   string  `json:"spotter"`
}

// Spot converts a most-wanted spot into an AlertEvent, or returns
// (nil, nil) when the rank is outside the alerting bands.
func Spot(rec SpotRecord, now time.Time) (*model.AlertEvent, error) {
	call := strings.ToUpper(strings.TrimSpace(rec.Callsign))
	if call == "" {
		return nil, &model.MalformedEventError{Feed: "rare-dx", Reason: "missing callsign"}
	}
	if rec.Rank <= 0 {
		return nil, &model.MalformedEventError{Feed: "rare-dx", Reason: "missing most-wanted rank"}
	}
	if rec.Rank > dropinMaxRank {
		return nil, nil
	}

	tier := model.TierUrgent
	title := fmt.Sprintf("TOP 50 #%d %s", rec.Rank, call)
	if rec.Rank <= jackpotMaxRank {
		tier = model.TierCritical
		title = fmt.Sprintf("MEGA JACKPOT #%d %s", rec.Rank, call)
	}

	return &model.AlertEvent{
		Source:    model.SourceRareDX,
		Tier:      tier,
		Identity:  fmt.Sprintf("%s#%d", call, rec.Rank),
		Title:     title,
		ArrivedAt: now,
		Payload: map[string]string{
			"callsign":  call,
			"rank":      strconv.Itoa(rec.Rank),
			"entity":    rec.Entity,
			"frequency": strconv.FormatFloat(rec.Frequency, 'f', 1, 64),
			"band":      rec.Band,
			"mode":      rec.Mode,
			"spotter":   rec.Spotter,
		},
	}, nil
}
