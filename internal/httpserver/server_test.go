package httpserver

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/shackmatrix/marquee/internal/history"
	"github.com/shackmatrix/marquee/internal/model"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// fixedState publishes one snapshot for handler tests.
type fixedState struct{ snap *model.Snapshot }

func (f fixedState) Snapshot() *model.Snapshot { return f.snap }

// fixedDeck serves a static card list.
type fixedDeck struct{ cards []*model.ViewCard }

func (f fixedDeck) Cards() []*model.ViewCard { return f.cards }

func newTestServer(t *testing.T) (*history.Store, *gin.Engine) {
	t.Helper()
	store, err := history.NewStore("")
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	state := fixedState{snap: &model.Snapshot{
		Mode:   model.ModeRotating,
		CardID: "clock",
		At:     time.Now(),
	}}
	deck := fixedDeck{cards: []*model.ViewCard{
		{ID: "clock", Category: model.CardInfo, Dwell: 30 * time.Second, Enabled: true},
		{ID: "contest", Category: model.CardContest, Dwell: 30 * time.Second, Enabled: false},
	}}

	srv := NewServer("", state, store, deck)
	srv.startTime = time.Now()

	r := gin.New()
	r.Use(gin.Recovery())
	srv.registerRoutes(r)

	return store, r
}

func getJSON(t *testing.T, r *gin.Engine, path string) (int, map[string]interface{}) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var body map[string]interface{}
	if len(w.Body.Bytes()) > 0 {
		if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
			t.Fatalf("unmarshal %s: %v", path, err)
		}
	}
	return w.Code, body
}

func TestHealthEndpoint(t *testing.T) {
	_, r := newTestServer(t)

	code, body := getJSON(t, r, "/api/health")
	if code != http.StatusOK {
		t.Errorf("health status = %d, want %d", code, http.StatusOK)
	}
	if body["status"] != "ok" {
		t.Errorf("health status = %v, want ok", body["status"])
	}
	if body["mode"] != "ROTATING" {
		t.Errorf("health mode = %v, want ROTATING", body["mode"])
	}
}

func TestHealthEndpoint_WrongMethod(t *testing.T) {
	_, r := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/health", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	// Gin returns 405 when a route exists but not for this method
	if w.Code != http.StatusMethodNotAllowed && w.Code != http.StatusNotFound {
		t.Errorf("health POST status = %d, want 405 or 404", w.Code)
	}
}

func TestStateEndpoint(t *testing.T) {
	_, r := newTestServer(t)

	code, body := getJSON(t, r, "/api/state")
	if code != http.StatusOK {
		t.Errorf("state status = %d, want %d", code, http.StatusOK)
	}
	if body["mode"] != "ROTATING" {
		t.Errorf("state mode = %v, want ROTATING", body["mode"])
	}
	if body["card_id"] != "clock" {
		t.Errorf("state card = %v, want clock", body["card_id"])
	}
}

func TestCardsEndpoint(t *testing.T) {
	_, r := newTestServer(t)

	code, body := getJSON(t, r, "/api/cards")
	if code != http.StatusOK {
		t.Errorf("cards status = %d, want %d", code, http.StatusOK)
	}
	if body["count"] != float64(2) {
		t.Errorf("cards count = %v, want 2", body["count"])
	}
}

func TestHistoryRecentEndpoint(t *testing.T) {
	store, r := newTestServer(t)

	err := store.InsertDispatchBatch([]*model.Dispatch{
		{
			Timestamp: time.Now(),
			Identity:  "NWS-KOUN-TOR-001",
			Source:    model.SourceWeather,
			Tier:      model.TierCritical,
			Title:     "TORNADO WARNING",
			Mode:      model.ModeTakeover,
			OneShot:   true,
		},
	})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}

	code, body := getJSON(t, r, "/api/history/recent?limit=10")
	if code != http.StatusOK {
		t.Errorf("recent status = %d, want %d", code, http.StatusOK)
	}
	if body["count"] != float64(1) {
		t.Errorf("recent count = %v, want 1", body["count"])
	}
}

func TestHistoryRecentEndpoint_BadLimit(t *testing.T) {
	_, r := newTestServer(t)

	for _, q := range []string{"limit=0", "limit=-5", "limit=9999", "limit=abc"} {
		code, _ := getJSON(t, r, "/api/history/recent?"+q)
		if code != http.StatusBadRequest {
			t.Errorf("recent %s status = %d, want %d", q, code, http.StatusBadRequest)
		}
	}
}

func TestHistorySummaryEndpoint(t *testing.T) {
	store, r := newTestServer(t)

	err := store.InsertDispatchBatch([]*model.Dispatch{
		{Timestamp: time.Now(), Identity: "a", Source: model.SourceWeather, Tier: model.TierCritical, Mode: model.ModeTakeover},
		{Timestamp: time.Now(), Identity: "b", Source: model.SourceRareDX, Tier: model.TierUrgent, Mode: model.ModeRotatingWithInsert},
	})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}

	code, body := getJSON(t, r, "/api/history/summary")
	if code != http.StatusOK {
		t.Errorf("summary status = %d, want %d", code, http.StatusOK)
	}
	if body["total"] != float64(2) {
		t.Errorf("summary total = %v, want 2", body["total"])
	}
	tiers, ok := body["tiers"].(map[string]interface{})
	if !ok || tiers["CRITICAL"] != float64(1) {
		t.Errorf("summary tiers = %v", body["tiers"])
	}
}

func TestHistoryHourlyEndpoint(t *testing.T) {
	store, r := newTestServer(t)

	err := store.InsertDispatchBatch([]*model.Dispatch{
		{Timestamp: time.Now(), Identity: "a", Source: model.SourceWeather, Tier: model.TierCritical, Mode: model.ModeTakeover},
		{Timestamp: time.Now(), Identity: "b", Source: model.SourceRareDX, Tier: model.TierInfo, Mode: model.ModeRotating},
	})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}

	code, body := getJSON(t, r, "/api/history/hourly?hours=24")
	if code != http.StatusOK {
		t.Errorf("hourly status = %d, want %d", code, http.StatusOK)
	}
	if n, ok := body["count"].(float64); !ok || n < 1 {
		t.Errorf("hourly count = %v, want >= 1", body["count"])
	}

	for _, q := range []string{"hours=0", "hours=-1", "hours=100000", "hours=x"} {
		code, _ := getJSON(t, r, "/api/history/hourly?"+q)
		if code != http.StatusBadRequest {
			t.Errorf("hourly %s status = %d, want %d", q, code, http.StatusBadRequest)
		}
	}
}

func TestGinRecovery(t *testing.T) {
	r := gin.New()
	r.Use(gin.Recovery())
	r.GET("/panic", func(c *gin.Context) {
		panic("test panic")
	})

	req := httptest.NewRequest(http.MethodGet, "/panic", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Errorf("panic recovery status = %d, want %d", w.Code, http.StatusInternalServerError)
	}
}
