package main

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/shackmatrix/marquee/internal/model"
	"github.com/shackmatrix/marquee/internal/tui"
)

// apiClient implements tui.DataSource over the daemon's HTTP API.
type apiClient struct {
	http *resty.Client
}

func newAPIClient(baseURL string, timeout time.Duration) *apiClient {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &apiClient{
		http: resty.New().
			SetBaseURL(baseURL).
			SetTimeout(timeout).
			SetHeader("Accept", "application/json"),
	}
}

func (c *apiClient) State(ctx context.Context) (*model.Snapshot, error) {
	var snap model.Snapshot
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&snap).
		Get("/api/state")
	if err != nil {
		return nil, fmt.Errorf("fetch state: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("fetch state: %s", resp.Status())
	}
	return &snap, nil
}

func (c *apiClient) Recent(ctx context.Context, limit int) ([]model.Dispatch, error) {
	var out struct {
		Dispatches []model.Dispatch `json:"dispatches"`
	}
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("limit", fmt.Sprintf("%d", limit)).
		SetResult(&out).
		Get("/api/history/recent")
	if err != nil {
		return nil, fmt.Errorf("fetch recent dispatches: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("fetch recent dispatches: %s", resp.Status())
	}
	return out.Dispatches, nil
}

func (c *apiClient) Summary(ctx context.Context) (*tui.Summary, error) {
	var out tui.Summary
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&out).
		Get("/api/history/summary")
	if err != nil {
		return nil, fmt.Errorf("fetch summary: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("fetch summary: %s", resp.Status())
	}
	return &out, nil
}

func (c *apiClient) Hourly(ctx context.Context, window time.Duration) ([]tui.HourPoint, error) {
	hours := int(window / time.Hour)
	if hours < 1 {
		hours = 1
	}
	var out struct {
		Hours []tui.HourPoint `json:"hours"`
	}
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("hours", fmt.Sprintf("%d", hours)).
		SetResult(&out).
		Get("/api/history/hourly")
	if err != nil {
		return nil, fmt.Errorf("fetch hourly counts: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("fetch hourly counts: %s", resp.Status())
	}
	return out.Hours, nil
}
