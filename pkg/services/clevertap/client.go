package clevertap

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"time"

	"github.com/letsmultiply/pulse/pkg/models/domain"
	"github.com/rs/zerolog"
)

const (
	defaultPollInterval    = 2 * time.Second
	defaultMaxPollAttempts = 10
	defaultHTTPTimeout     = 30 * time.Second

	internalUserAttribute = "Internal User"
)

// Config carries the credentials and tunables for one CleverTap project.
type Config struct {
	BaseURL         string
	AccountID       string
	Passcode        string
	PollInterval    time.Duration
	MaxPollAttempts int
	ExcludeInternal bool
	HTTPTimeout     time.Duration
}

// Client talks to the CleverTap HTTP API: event counts (sync or via an
// asynchronous job), profile fetch and event upload.
type Client struct {
	http            *http.Client
	baseURL         string
	accountID       string
	passcode        string
	pollInterval    time.Duration
	maxPollAttempts int
	excludeInternal bool
}

func NewClient(cfg Config) *Client {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = defaultPollInterval
	}
	if cfg.MaxPollAttempts <= 0 {
		cfg.MaxPollAttempts = defaultMaxPollAttempts
	}
	if cfg.HTTPTimeout <= 0 {
		cfg.HTTPTimeout = defaultHTTPTimeout
	}
	return &Client{
		http:            &http.Client{Timeout: cfg.HTTPTimeout},
		baseURL:         cfg.BaseURL,
		accountID:       cfg.AccountID,
		passcode:        cfg.Passcode,
		pollInterval:    cfg.PollInterval,
		maxPollAttempts: cfg.MaxPollAttempts,
		excludeInternal: cfg.ExcludeInternal,
	}
}

// countReply is the wire shape of both the submit and the poll responses.
// A synchronous answer carries status=success plus count; an asynchronous
// one carries a req_id to poll on.
type countReply struct {
	Status string      `json:"status"`
	Count  int         `json:"count"`
	ReqID  json.Number `json:"req_id"`
	Error  string      `json:"error"`
}

func (r countReply) status() domain.CountStatus {
	switch r.Status {
	case "success":
		return domain.CountSuccess
	case "fail":
		return domain.CountFail
	default:
		return domain.CountPending
	}
}

// SubmitEventCount issues one count query. The reply may already be terminal
// or carry a request id for polling.
func (c *Client) SubmitEventCount(ctx context.Context, q domain.CountQuery) (countReply, error) {
	body := map[string]any{
		"event_name": q.EventName,
		"from":       q.From,
		"to":         q.To,
		"unique":     q.Unique,
	}
	if q.ExcludeInternal {
		body["common_profile_properties"] = map[string]any{
			"profile_fields": []map[string]any{
				{"name": internalUserAttribute, "operator": "neq", "value": true},
			},
		}
	}

	var reply countReply
	err := c.doJSON(ctx, http.MethodPost, c.baseURL+"/1/counts/events.json", body, &reply)
	return reply, err
}

// PollEventCount checks on a previously submitted count job.
func (c *Client) PollEventCount(ctx context.Context, reqID string) (countReply, error) {
	var reply countReply
	endpoint := fmt.Sprintf("%s/1/counts/events.json?req_id=%s", c.baseURL, url.QueryEscape(reqID))
	err := c.doJSON(ctx, http.MethodGet, endpoint, nil, &reply)
	return reply, err
}

// CountEvents runs one count query to completion, polling the asynchronous
// job when the API does not answer synchronously.
func (c *Client) CountEvents(ctx context.Context, q domain.CountQuery) domain.CountResult {
	return PollUntilDone(ctx,
		func(ctx context.Context) (countReply, error) { return c.SubmitEventCount(ctx, q) },
		c.PollEventCount,
		c.maxPollAttempts,
		c.pollInterval,
	)
}

type profileRecord struct {
	Name         string                         `json:"name"`
	ProfileData  map[string]any                 `json:"profileData"`
	PlatformInfo []domain.PlatformInfo          `json:"platformInfo"`
	Events       map[string]domain.EventSummary `json:"events"`
}

type profileReply struct {
	Status string        `json:"status"`
	Error  string        `json:"error"`
	Record profileRecord `json:"record"`
}

// FetchProfile returns a user's profile reduced to the latest-seen device and
// the requested events.
func (c *Client) FetchProfile(ctx context.Context, identity string, filterEvents []string) (*domain.UserProfile, error) {
	endpoint := fmt.Sprintf("%s/1/profile.json?identity=%s", c.baseURL, url.QueryEscape(identity))

	var reply profileReply
	if err := c.doJSON(ctx, http.MethodGet, endpoint, nil, &reply); err != nil {
		return nil, fmt.Errorf("failed to fetch profile for %q: %w", identity, err)
	}
	if reply.Status == "fail" {
		return nil, fmt.Errorf("profile fetch for %q failed: %s", identity, reply.Error)
	}

	record := reply.Record
	sort.Slice(record.PlatformInfo, func(i, j int) bool {
		return record.PlatformInfo[i].LastSeen > record.PlatformInfo[j].LastSeen
	})
	var latest domain.PlatformInfo
	if len(record.PlatformInfo) > 0 {
		latest = record.PlatformInfo[0]
	}

	filtered := make(map[string]domain.EventSummary, len(filterEvents))
	for _, name := range filterEvents {
		if summary, ok := record.Events[name]; ok {
			filtered[name] = summary
		}
	}

	return &domain.UserProfile{
		Name:        record.Name,
		ProfileData: record.ProfileData,
		Platform:    latest,
		Events:      filtered,
	}, nil
}

type uploadReply struct {
	Status string         `json:"status"`
	Error  string         `json:"error"`
	Data   map[string]any `json:"data"`
}

// UploadEvent records a single event against a user identity, timestamped now.
func (c *Client) UploadEvent(ctx context.Context, identity, eventName string, eventData map[string]any) (map[string]any, error) {
	payload := map[string]any{
		"d": []map[string]any{{
			"identity": identity,
			"ts":       time.Now().Unix(),
			"type":     "event",
			"evtName":  eventName,
			"evtData":  eventData,
		}},
	}

	var reply uploadReply
	if err := c.doJSON(ctx, http.MethodPost, c.baseURL+"/1/upload", payload, &reply); err != nil {
		return nil, fmt.Errorf("failed to upload event %q: %w", eventName, err)
	}
	if reply.Status != "success" {
		return nil, fmt.Errorf("event upload rejected: %s", reply.Error)
	}
	return reply.Data, nil
}

func (c *Client) doJSON(ctx context.Context, method, endpoint string, body any, out any) error {
	logger := zerolog.Ctx(ctx)

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("X-CleverTap-Account-Id", c.accountID)
	req.Header.Set("X-CleverTap-Passcode", c.passcode)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		logger.Warn().Err(err).Str("endpoint", endpoint).Msg("clevertap request failed")
		return err
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logger.Warn().Err(err).Msg("failed to close response body")
		}
	}()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("clevertap returned %d: %s", resp.StatusCode, string(raw))
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("failed to decode clevertap response: %w", err)
	}
	return nil
}
