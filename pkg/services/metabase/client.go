package metabase

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/letsmultiply/pulse/pkg/models/domain"
	"github.com/rs/zerolog"
)

const (
	defaultCardPacing   = 200 * time.Millisecond
	defaultRetryBackoff = 2 * time.Second
	defaultHTTPTimeout  = 60 * time.Second

	userAgent = "MetabaseClient/1.0"
)

// ErrCardNotFound marks a card deleted upstream; such cards are skipped
// without retrying.
var ErrCardNotFound = errors.New("card not found")

// Config carries the Metabase connection details. DashboardURL may be either
// the full /dashboard/<id>-slug form or just a trailing id segment.
type Config struct {
	APIURL       string
	APIKey       string
	DashboardURL string
	CardPacing   time.Duration
	RetryBackoff time.Duration
	HTTPTimeout  time.Duration
}

// Client fetches a dashboard's cards, executing each card's query with
// limited retry. Any broad failure degrades to the fixed fallback snapshot
// so the report always has a dashboard section to render.
type Client struct {
	http         *http.Client
	apiURL       string
	apiKey       string
	dashboardURL string
	cardPacing   time.Duration
	retryBackoff time.Duration
	now          func() time.Time
}

func NewClient(cfg Config) *Client {
	if cfg.CardPacing <= 0 {
		cfg.CardPacing = defaultCardPacing
	}
	if cfg.RetryBackoff <= 0 {
		cfg.RetryBackoff = defaultRetryBackoff
	}
	if cfg.HTTPTimeout <= 0 {
		cfg.HTTPTimeout = defaultHTTPTimeout
	}
	return &Client{
		http:         &http.Client{Timeout: cfg.HTTPTimeout},
		apiURL:       normalizeAPIURL(cfg.APIURL),
		apiKey:       cfg.APIKey,
		dashboardURL: cfg.DashboardURL,
		cardPacing:   cfg.CardPacing,
		retryBackoff: cfg.RetryBackoff,
		now:          time.Now,
	}
}

// normalizeAPIURL strips a trailing slash and appends /api when the
// configured URL points at the Metabase root.
func normalizeAPIURL(raw string) string {
	raw = strings.TrimSuffix(raw, "/")
	if !strings.Contains(raw, "/api") {
		raw += "/api"
	}
	return raw
}

// ExtractDashboardID pulls the numeric id out of a dashboard URL. Supports
// the /dashboard/<id>-slug form and a bare trailing segment.
func ExtractDashboardID(dashboardURL string) string {
	var segment string
	if idx := strings.Index(dashboardURL, "/dashboard/"); idx >= 0 {
		segment = dashboardURL[idx+len("/dashboard/"):]
	} else {
		parts := strings.Split(dashboardURL, "/")
		segment = parts[len(parts)-1]
	}
	return strings.SplitN(segment, "-", 2)[0]
}

// dashboardReply tolerates the card-list key moving across Metabase
// versions (ordered_cards, dashcards, cards).
type dashboardReply struct {
	ID           json.Number `json:"id"`
	Name         string      `json:"name"`
	Description  string      `json:"description"`
	OrderedCards []cardItem  `json:"ordered_cards"`
	Dashcards    []cardItem  `json:"dashcards"`
	Cards        []cardItem  `json:"cards"`
}

func (r dashboardReply) cardList() []cardItem {
	switch {
	case len(r.OrderedCards) > 0:
		return r.OrderedCards
	case len(r.Dashcards) > 0:
		return r.Dashcards
	default:
		return r.Cards
	}
}

type cardItem struct {
	ID     json.Number `json:"id"`
	CardID json.Number `json:"card_id"`
	Name   string      `json:"name"`
	Card   struct {
		ID          json.Number `json:"id"`
		Name        string      `json:"name"`
		Display     string      `json:"display"`
		Description string      `json:"description"`
	} `json:"card"`
}

// resolveCard picks the effective card id, title and display type out of the
// layered dashcard/card structure.
func (ci cardItem) resolveCard() (id, title, display string) {
	switch {
	case ci.Card.ID.String() != "" && ci.Card.ID.String() != "0":
		id = ci.Card.ID.String()
	case ci.CardID.String() != "" && ci.CardID.String() != "0":
		id = ci.CardID.String()
	default:
		id = ci.ID.String()
	}
	title = ci.Card.Name
	if title == "" {
		title = ci.Name
	}
	if title == "" {
		title = "Card " + id
	}
	display = ci.Card.Display
	if display == "" {
		display = "scalar"
	}
	return id, title, display
}

type cardQueryReply struct {
	Data struct {
		Rows [][]any `json:"rows"`
		Cols []struct {
			Name        string `json:"name"`
			DisplayName string `json:"display_name"`
		} `json:"cols"`
	} `json:"data"`
}

// FetchDashboardSnapshot captures the dashboard's current card data. It never
// returns an error: a dashboard fetch failure, or zero successful cards,
// yields the fallback snapshot instead.
func (c *Client) FetchDashboardSnapshot(ctx context.Context) domain.DashboardSnapshot {
	logger := zerolog.Ctx(ctx)

	dashboardID := ExtractDashboardID(c.dashboardURL)
	if dashboardID == "" {
		logger.Error().Str("url", c.dashboardURL).Msg("could not extract dashboard id")
		return c.FallbackSnapshot()
	}

	dashboard, err := c.fetchDashboard(ctx, dashboardID)
	if err != nil {
		logger.Error().Err(err).Str("dashboard_id", dashboardID).Msg("dashboard fetch failed")
		return c.FallbackSnapshot()
	}

	items := dashboard.cardList()
	logger.Info().Str("dashboard", dashboard.Name).Int("cards", len(items)).Msg("fetched dashboard")

	var cards []domain.DashboardCard
	for i, item := range items {
		id, title, display := item.resolveCard()
		if id == "" || id == "0" {
			logger.Warn().Int("index", i).Msg("no card id found, skipping")
			continue
		}

		card, err := c.fetchCard(ctx, id, title, display)
		if err != nil {
			logger.Warn().Err(err).Str("card_id", id).Msg("giving up on card")
		} else {
			cards = append(cards, card)
		}

		// Pace requests to avoid hammering the upstream API.
		if i < len(items)-1 {
			select {
			case <-ctx.Done():
			case <-time.After(c.cardPacing):
			}
			if ctx.Err() != nil {
				break
			}
		}
	}

	if len(cards) == 0 {
		logger.Warn().Int("attempted", len(items)).Msg("no cards fetched, using fallback data")
		return c.FallbackSnapshot()
	}

	return domain.DashboardSnapshot{
		DashboardID:         dashboard.ID.String(),
		Name:                dashboard.Name,
		Description:         dashboard.Description,
		Cards:               cards,
		Source:              domain.SourceDirect,
		FetchedAt:           c.now(),
		TotalCardsAttempted: len(items),
		SuccessfulCards:     len(cards),
	}
}

func (c *Client) fetchDashboard(ctx context.Context, dashboardID string) (dashboardReply, error) {
	var reply dashboardReply
	err := c.doJSON(ctx, http.MethodGet, fmt.Sprintf("%s/dashboard/%s", c.apiURL, dashboardID), nil, &reply)
	return reply, err
}

// fetchCard executes one card's query. A 404 means the card was deleted
// upstream and is skipped without retrying; any other failure gets a single
// retry after a short backoff.
func (c *Client) fetchCard(ctx context.Context, id, title, display string) (domain.DashboardCard, error) {
	var lastErr error
	for attempt := 0; attempt <= 1; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return domain.DashboardCard{}, ctx.Err()
			case <-time.After(c.retryBackoff):
			}
		}

		var reply cardQueryReply
		err := c.doJSON(ctx, http.MethodPost, fmt.Sprintf("%s/card/%s/query", c.apiURL, id), map[string]any{}, &reply)
		if err == nil {
			cols := make([]domain.CardColumn, 0, len(reply.Data.Cols))
			for _, col := range reply.Data.Cols {
				cols = append(cols, domain.CardColumn{Name: col.Name, DisplayName: col.DisplayName})
			}
			return domain.DashboardCard{
				ID:          id,
				Title:       title,
				DisplayType: display,
				Rows:        reply.Data.Rows,
				Columns:     cols,
				FetchedAt:   c.now(),
			}, nil
		}
		if errors.Is(err, ErrCardNotFound) {
			return domain.DashboardCard{}, err
		}
		lastErr = err
	}
	return domain.DashboardCard{}, lastErr
}

func (c *Client) doJSON(ctx context.Context, method, endpoint string, body any, out any) error {
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
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}
	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%s: %w", endpoint, ErrCardNotFound)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("metabase returned %d: %s", resp.StatusCode, strconv.Quote(truncate(string(raw), 200)))
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("failed to decode metabase response: %w", err)
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
