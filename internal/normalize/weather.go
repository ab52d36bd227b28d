package normalize

import (
	"strings"
	"time"

	"github.com/shackmatrix/marquee/internal/model"
)

// warningWeights holds the NWS warning classes that map to CRITICAL,
// with a weight used to order multiple simultaneous warnings from the
// same poll (tornado beats flash flood beats severe thunderstorm).
var warningWeights = map[string]int{
	"Tornado Warning":             6,
	"Tsunami Warning":             6,
	"Storm Surge Warning":         5,
	"Extreme Wind Warning":        5,
	"Flash Flood Warning":         4,
	"Blizzard Warning":            3,
	"Ice Storm Warning":           3,
	"Dust Storm Warning":          3,
	"Severe Thunderstorm Warning": 2,
	"Excessive Heat Warning":      2,
}

// watchEvents maps to URGENT: watches plus warning classes that merit a
// one-shot insert rather than a takeover.
var watchEvents = map[string]struct{}{
	"Tornado Watch":             {},
	"Severe Thunderstorm Watch": {},
	"Flash Flood Watch":         {},
	"Winter Storm Warning":      {},
	"Flood Warning":             {},
	"High Wind Warning":         {},
	"Red Flag Warning":          {},
	"Excessive Heat Watch":      {},
	"Blizzard Watch":            {},
	"Hurricane Warning":         {},
	"Hurricane Watch":           {},
	"Tropical Storm Warning":    {},
}

// eventShort maps NWS event names onto display-width titles.
var eventShort = map[string]string{
	"Tornado Warning":             "TORNADO WARNING",
	"Tornado Watch":               "TORNADO WATCH",
	"Severe Thunderstorm Warning": "SVR T-STORM WRN",
	"Severe Thunderstorm Watch":   "SVR T-STORM WATCH",
	"Flash Flood Warning":         "FLASH FLOOD WRN",
	"Flash Flood Watch":           "FLASH FLOOD WATCH",
	"Flood Warning":               "FLOOD WARNING",
	"Winter Storm Warning":        "WINTER STORM WRN",
	"Winter Storm Watch":          "WINTER STORM WATCH",
	"Winter Weather Advisory":     "WINTER WX ADVSRY",
	"Blizzard Warning":            "BLIZZARD WARNING",
	"Ice Storm Warning":           "ICE STORM WARNING",
	"High Wind Warning":           "HIGH WIND WARNING",
	"Wind Advisory":               "WIND ADVISORY",
	"Red Flag Warning":            "RED FLAG WARNING",
	"Excessive Heat Warning":      "EXTREME HEAT WRN",
	"Heat Advisory":               "HEAT ADVISORY",
	"Dense Fog Advisory":          "DENSE FOG ADVSRY",
	"Freeze Warning":              "FREEZE WARNING",
	"Frost Advisory":              "FROST ADVISORY",
	"Dust Storm Warning":          "DUST STORM WRN",
	"Special Weather Statement":   "SPECIAL WX STMT",
}

// WeatherRecord is one raw NWS active-alert feature as the weather feed
// sees it.
type WeatherRecord struct {
	ID          string `json:"id"`
	Event       string `json:"event"`
	Severity    string `json:"severity"`
	Urgency     string `json:"urgency"`
	Certainty   string `json:"certainty"`
	Headline    string `json:"headline"`
	Description string `json:"description"`
	Instruction string `json:"instruction"`
	AreaDesc    string `json:"areaDesc"`
	Sender      string `json:"senderName"`
	Onset       string `json:"onset"`
	Expires     string `json:"expires"`
}

// WeatherTier classifies an NWS event name. The mapping is fixed, not
// configurable.
func WeatherTier(event string) (model.Tier, int) {
	if w, ok := warningWeights[event]; ok {
		return model.TierCritical, w
	}
	if _, ok := watchEvents[event]; ok {
		return model.TierUrgent, 0
	}
	return model.TierInfo, 0
}

// ShortEvent returns a display-width title for an NWS event name.
func ShortEvent(event string) string {
	if s, ok := eventShort[event]; ok {
		return s
	}
	s := strings.ToUpper(event)
	if len(s) > 20 {
		s = s[:20]
	}
	return s
}

// Weather converts one NWS record into an AlertEvent. INFO-tier
// advisories are returned too; the arbiter never dispatches them, they
// only feed the weather summary card.
func Weather(rec WeatherRecord, now time.Time) (*model.AlertEvent, error) {
	if strings.TrimSpace(rec.ID) == "" {
		return nil, &model.MalformedEventError{Feed: "weather", Reason: "missing alert id"}
	}
	if strings.TrimSpace(rec.Event) == "" {
		return nil, &model.MalformedEventError{Feed: "weather", Reason: "missing event name"}
	}

	tier, weight := WeatherTier(rec.Event)

	ev := &model.AlertEvent{
		Source:    model.SourceWeather,
		Tier:      tier,
		Identity:  rec.ID,
		Title:     ShortEvent(rec.Event),
		ArrivedAt: now,
		Weight:    weight,
		Payload: map[string]string{
			"event":    rec.Event,
			"severity": rec.Severity,
			"headline": rec.Headline,
			"areas":    rec.AreaDesc,
			"sender":   rec.Sender,
		},
	}
	if exp, ok := parseNWSTime(rec.Expires); ok {
		ev.Expires = exp
		ev.Payload["expires"] = rec.Expires
	}
	return ev, nil
}

// WeatherClear builds the resolved signal for an alert that left the
// active set.
func WeatherClear(identity string, now time.Time) *model.AlertEvent {
	return &model.AlertEvent{
		Source:    model.SourceWeather,
		Identity:  identity,
		ArrivedAt: now,
		Clear:     true,
	}
}

// parseNWSTime parses the ISO 8601 timestamps NWS emits ("Z" or
// numeric offsets).
func parseNWSTime(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, true
	}
	return time.Time{}, false
}
