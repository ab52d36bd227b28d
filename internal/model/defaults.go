package model

import "time"

// Shared defaults used by both the daemon and CLI binaries.
const (
	DefaultDwell         = 30 * time.Second
	DefaultTickInterval  = time.Second
	DefaultEnterDuration = 2 * time.Second
	DefaultExitDuration  = 2 * time.Second

	// DefaultJackpotHold is how long a rare-DX jackpot celebration
	// holds the display before auto-exiting.
	DefaultJackpotHold = 15 * time.Second

	// DefaultUrgentWeatherReplay is the minimum gap between showings
	// of the same weather watch insert.
	DefaultUrgentWeatherReplay = 30 * time.Minute

	// DefaultJackpotReplay is the minimum gap before the same
	// callsign+rank may trigger another takeover.
	DefaultJackpotReplay = 4 * time.Hour

	// DefaultCooldownHorizon is how long an idle cooldown record is
	// kept before garbage collection. Memory bound, not correctness.
	DefaultCooldownHorizon = 7 * 24 * time.Hour
)
