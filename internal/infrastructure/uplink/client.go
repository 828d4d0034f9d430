package uplink

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"github.com/davidleathers/dependable-endpoint-agent/internal/domain/errors"
	"github.com/davidleathers/dependable-endpoint-agent/internal/domain/event"
	"github.com/davidleathers/dependable-endpoint-agent/internal/domain/risk"
	"github.com/davidleathers/dependable-endpoint-agent/internal/infrastructure/config"
)

const (
	devicesPath    = "/api/v1/devices"
	eventsPath     = "/api/v1/events"
	riskScoresPath = "/api/v1/risk_scores"

	// riskWindow is the span reported around each risk score.
	riskWindow = 60 * time.Second

	requestTimeout = 15 * time.Second
	connectTimeout = 5 * time.Second
)

// Payloads for the graph ingest API.
type devicePayload struct {
	NodeID    string `json:"node_id"`
	Platform  string `json:"platform"`
	FirstSeen string `json:"first_seen,omitempty"`
	LastSeen  string `json:"last_seen,omitempty"`
}

type eventPayload struct {
	EventID     string `json:"event_id"`
	Kind        string `json:"kind"`
	TS          string `json:"ts"`
	DeviceID    string `json:"device_id"`
	PayloadHash string `json:"payload_hash,omitempty"`
}

type riskPayload struct {
	ID          string  `json:"id"`
	Score       float64 `json:"score"`
	Level       string  `json:"level"`
	TS          string  `json:"ts"`
	WindowStart string  `json:"window_start"`
	WindowEnd   string  `json:"window_end"`
	Source      string  `json:"source"`
}

// Client reports devices, events, and risk scores to the graph/fusion API.
// Registration happens once per process; reporting failures are expected to
// be logged by callers rather than aborting collection.
type Client struct {
	client      *http.Client
	rateLimiter *rate.Limiter
	baseURL     string
	deviceID    string
	logger      *slog.Logger
	registered  atomic.Bool
}

// New builds a client from uplink policy. deviceID is normalized to a
// did:-prefixed node id for the graph.
func New(cfg config.UplinkConfig, deviceID string, logger *slog.Logger) (*Client, error) {
	endpoint := strings.TrimRight(cfg.Endpoint, "/")
	if endpoint == "" {
		return nil, errors.NewUplinkError("uplink endpoint is empty")
	}
	if !strings.HasPrefix(deviceID, "did:") {
		deviceID = "did:" + deviceID
	}

	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = 10
	}

	httpClient := &http.Client{
		Timeout: requestTimeout,
		Transport: &http.Transport{
			DialContext: (&net.Dialer{
				Timeout: connectTimeout,
			}).DialContext,
			MaxIdleConns:        10,
			MaxIdleConnsPerHost: 5,
			IdleConnTimeout:     90 * time.Second,
		},
	}

	return &Client{
		client:      httpClient,
		rateLimiter: rate.NewLimiter(rate.Limit(rps), rps*2),
		baseURL:     endpoint,
		deviceID:    deviceID,
		logger:      logger,
	}, nil
}

// DeviceID returns the did:-prefixed node id sent to the graph.
func (c *Client) DeviceID() string {
	return c.deviceID
}

func (c *Client) post(ctx context.Context, path string, body interface{}) error {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return errors.NewUplinkError("rate limiter interrupted").WithCause(err)
	}

	data, err := json.Marshal(body)
	if err != nil {
		return errors.NewSerializationError("encode uplink payload").WithCause(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return errors.NewUplinkError("build uplink request").WithCause(err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return errors.NewUplinkError(fmt.Sprintf("POST %s", path)).WithCause(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		text, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return errors.NewUplinkError(fmt.Sprintf("POST %s: %s %s", path, resp.Status, strings.TrimSpace(string(text))))
	}
	io.Copy(io.Discard, resp.Body)
	return nil
}

// EnsureDevice registers the device once per process. Registration failure
// is logged and retried on the next call; it never blocks reporting.
func (c *Client) EnsureDevice(ctx context.Context, platform string) {
	if c.registered.Load() {
		return
	}
	now := time.Now().UTC().Format(time.RFC3339)
	payload := devicePayload{
		NodeID:    c.deviceID,
		Platform:  platform,
		FirstSeen: now,
		LastSeen:  now,
	}
	if err := c.post(ctx, devicesPath, payload); err != nil {
		c.logger.Warn("uplink device registration failed",
			slog.String("device_id", c.deviceID),
			slog.Any("error", err))
		return
	}
	c.registered.Store(true)
	c.logger.Info("uplink device registered", slog.String("device_id", c.deviceID))
}

// Report sends every event and the cycle risk score to the graph API.
// Events are posted one by one and individual failures are logged, not
// propagated; a failed risk score post is returned to the caller.
func (c *Client) Report(ctx context.Context, platform string, events []event.Event, result risk.Result) error {
	c.EnsureDevice(ctx, platform)

	for _, ev := range events {
		payload := eventPayload{
			EventID:  ev.ID,
			Kind:     string(ev.Activity.Kind()),
			TS:       ev.TS.UTC().Format(time.RFC3339),
			DeviceID: c.deviceID,
		}
		if raw, err := json.Marshal(ev); err == nil {
			sum := sha256.Sum256(raw)
			payload.PayloadHash = hex.EncodeToString(sum[:])
		}
		if err := c.post(ctx, eventsPath, payload); err != nil {
			c.logger.Warn("uplink event failed",
				slog.String("event_id", ev.ID),
				slog.Any("error", err))
		}
	}

	windowStart := result.TS - riskWindow.Milliseconds()
	payload := riskPayload{
		ID:          fmt.Sprintf("risk_%s_%d", c.deviceID, result.TS),
		Score:       result.Score,
		Level:       result.Level.String(),
		TS:          tsISO(result.TS),
		WindowStart: tsISO(windowStart),
		WindowEnd:   tsISO(result.TS),
		// Source lets the graph link HAS_RISK_IN back to the device.
		Source: c.deviceID,
	}
	if err := c.post(ctx, riskScoresPath, payload); err != nil {
		return err
	}

	c.logger.Info("uplink risk reported",
		slog.Float64("score", result.Score),
		slog.String("level", result.Level.String()))
	return nil
}

func tsISO(ms int64) string {
	return time.UnixMilli(ms).UTC().Format(time.RFC3339)
}
