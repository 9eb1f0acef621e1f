// Package routing wraps the OSRM road-network routing engine. The pipeline
// treats it as an optional dependency: when it is down, drive times stay on
// their distance-based proxies.
package routing

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

const (
	probeTimeout = 5 * time.Second
	routeTimeout = 10 * time.Second
)

// Client queries an OSRM instance over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewClient creates an OSRM client. queriesPerSecond throttles route
// requests across all workers; zero disables throttling.
func NewClient(baseURL string, queriesPerSecond float64) *Client {
	c := &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: routeTimeout,
		},
	}
	if queriesPerSecond > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(queriesPerSecond), 1)
	}
	return c
}

type routeResponse struct {
	Code   string `json:"code"`
	Routes []struct {
		Duration float64 `json:"duration"`
	} `json:"routes"`
}

// Ping issues one short test route to check that OSRM is reachable and has
// data loaded. Used as the liveness gate before the drive-time stage.
func (c *Client) Ping(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	// Two points in Manhattan; any loaded extract that covers them answers
	// instantly, and one that doesn't still proves the engine is up only if
	// it returns a well-formed response.
	seconds, err := c.route(ctx, 40.74, -73.98, 40.75, -73.97)
	return err == nil && seconds >= 0
}

// Route returns the driving duration in seconds from origin to destination.
// A transport-level failure is retried once; any other failure is returned
// to the caller, who decides whether to fall back.
func (c *Client) Route(ctx context.Context, fromLat, fromLon, toLat, toLon float64) (float64, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return 0, fmt.Errorf("waiting for rate limiter: %w", err)
		}
	}
	return c.route(ctx, fromLat, fromLon, toLat, toLon)
}

func (c *Client) route(ctx context.Context, fromLat, fromLon, toLat, toLon float64) (float64, error) {
	u := fmt.Sprintf("%s/route/v1/driving/%f,%f;%f,%f?overview=false",
		c.baseURL, fromLon, fromLat, toLon, toLat)

	resp, err := c.get(ctx, u)
	if err != nil {
		// One retry at the transport level.
		resp, err = c.get(ctx, u)
	}
	if err != nil {
		return 0, fmt.Errorf("osrm request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("osrm returned HTTP %d", resp.StatusCode)
	}

	var rr routeResponse
	if err := json.NewDecoder(resp.Body).Decode(&rr); err != nil {
		return 0, fmt.Errorf("decoding osrm response: %w", err)
	}
	if rr.Code != "Ok" {
		return 0, fmt.Errorf("osrm route failed: code=%s", rr.Code)
	}
	if len(rr.Routes) == 0 {
		return 0, fmt.Errorf("osrm returned no routes")
	}

	return rr.Routes[0].Duration, nil
}

func (c *Client) get(ctx context.Context, u string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	return c.httpClient.Do(req)
}
