package httpserver

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/shackmatrix/marquee/internal/history"
	"github.com/shackmatrix/marquee/internal/model"
)

// HistoryStore is the narrow store contract required by the HTTP API.
type HistoryStore interface {
	model.HistoryQuerier
}

// HourlyQuerier is implemented by stores that can bucket tier counts by hour.
// The hourly endpoint reports 503 when the store cannot.
type HourlyQuerier interface {
	TierCountsByHour(window time.Duration) ([]history.HourCounts, error)
}

// CardLister exposes the current rotation deck for inspection.
type CardLister interface {
	Cards() []*model.ViewCard
}

// Server provides an HTTP API for observing the display scheduler.
type Server struct {
	addr      string
	state     model.SnapshotSource
	store     HistoryStore
	cards     CardLister
	server    *http.Server
	ctx       context.Context
	cancel    context.CancelFunc
	startTime time.Time
}

// NewServer creates a new HTTP API server. store and cards may be nil;
// their endpoints then report 503.
func NewServer(addr string, state model.SnapshotSource, store HistoryStore, cards CardLister) *Server {
	if addr == "" {
		addr = "0.0.0.0:8590"
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		addr:   addr,
		state:  state,
		store:  store,
		cards:  cards,
		ctx:    ctx,
		cancel: cancel,
	}
}

// Start begins serving HTTP requests.
func (s *Server) Start() error {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	s.registerRoutes(r)

	s.server = &http.Server{
		Handler:           r,
		BaseContext:       func(_ net.Listener) context.Context { return s.ctx },
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
	}

	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}

	s.startTime = time.Now()

	go s.server.Serve(listener)
	return nil
}

// Stop gracefully shuts down the HTTP server.
func (s *Server) Stop() error {
	s.cancel()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.server.Shutdown(ctx)
}

func (s *Server) registerRoutes(r *gin.Engine) {
	r.GET("/api/health", s.handleHealth)
	r.GET("/api/state", s.handleState)
	r.GET("/api/cards", s.handleCards)
	r.GET("/api/history/recent", s.handleHistoryRecent)
	r.GET("/api/history/summary", s.handleHistorySummary)
	r.GET("/api/history/hourly", s.handleHistoryHourly)
}

func (s *Server) handleHealth(c *gin.Context) {
	resp := gin.H{
		"status": "ok",
		"uptime": time.Since(s.startTime).String(),
	}
	if s.store != nil {
		count, err := s.store.TotalDispatchCount()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read health metrics"})
			return
		}
		resp["dispatch_count"] = count
	}
	if snap := s.state.Snapshot(); snap != nil {
		resp["mode"] = snap.Mode.String()
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleState(c *gin.Context) {
	snap := s.state.Snapshot()
	if snap == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "scheduler not started"})
		return
	}
	c.JSON(http.StatusOK, snap)
}

func (s *Server) handleCards(c *gin.Context) {
	if s.cards == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "card deck unavailable"})
		return
	}

	type cardView struct {
		ID       string `json:"id"`
		Category string `json:"category"`
		DwellMs  int64  `json:"dwell_ms"`
		Enabled  bool   `json:"enabled"`
	}

	cards := s.cards.Cards()
	out := make([]cardView, 0, len(cards))
	for _, card := range cards {
		out = append(out, cardView{
			ID:       card.ID,
			Category: card.Category.String(),
			DwellMs:  card.Dwell.Milliseconds(),
			Enabled:  card.Enabled,
		})
	}
	c.JSON(http.StatusOK, gin.H{"cards": out, "count": len(out)})
}

func (s *Server) handleHistoryRecent(c *gin.Context) {
	if s.store == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "history store unavailable"})
		return
	}

	limit := 50
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > 1000 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be 1-1000"})
			return
		}
		limit = n
	}

	dispatches, err := s.store.RecentDispatches(limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read dispatch history"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"dispatches": dispatches, "count": len(dispatches)})
}

func (s *Server) handleHistoryHourly(c *gin.Context) {
	hourly, ok := s.store.(HourlyQuerier)
	if !ok || s.store == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "history store unavailable"})
		return
	}

	hours := 24
	if v := c.Query("hours"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > 24*30 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "hours must be 1-720"})
			return
		}
		hours = n
	}

	buckets, err := hourly.TierCountsByHour(time.Duration(hours) * time.Hour)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read hourly counts"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"hours": buckets, "count": len(buckets)})
}

func (s *Server) handleHistorySummary(c *gin.Context) {
	if s.store == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "history store unavailable"})
		return
	}

	tiers, err := s.store.TierCounts()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read tier counts"})
		return
	}
	sources, err := s.store.SourceCounts()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read source counts"})
		return
	}
	total, err := s.store.TotalDispatchCount()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read dispatch total"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"total":   total,
		"tiers":   tiers,
		"sources": sources,
	})
}
