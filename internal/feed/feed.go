package feed

import "github.com/shackmatrix/marquee/internal/model"

// Feed is a unified interface for all alert inputs (weather, rare-dx,
// contest, stdin).
type Feed interface {
	Events() <-chan model.FeedEvent // read-only stream of normalized events
	Stop()                          // graceful shutdown
	Name() string                   // "weather", "rare-dx", "contest", "stdin"
}
