// Package queryclient talks to the flight query service over HTTP.
package queryclient

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/ngmaloney/flightmap/internal/models"
)

// DefaultBaseURL is where cmd/flightmap-server listens by default.
const DefaultBaseURL = "http://localhost:8080"

// cacheDuration bounds how long reference listings are reused.
const cacheDuration = 15 * time.Minute

type cacheEntry struct {
	airports  []models.Airport
	airlines  []string
	fetchedAt time.Time
}

// Client implements the query service contract used by the terminal UI.
type Client struct {
	baseURL    string
	httpClient *http.Client
	userAgent  string
	cache      map[string]cacheEntry
	mu         sync.RWMutex
}

// New creates a client for the service at baseURL.
func New(baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		userAgent: "FlightMap/1.0 (github.com/ngmaloney/flightmap)",
		cache:     make(map[string]cacheEntry),
	}
}

// Airports lists airports whose code, city or name contains search.
// Entries the map could not place are dropped.
func (c *Client) Airports(ctx context.Context, search string, limit int) ([]models.Airport, error) {
	key := fmt.Sprintf("airports:%s:%d", search, limit)
	if entry, ok := c.cached(key); ok {
		return entry.airports, nil
	}

	params := url.Values{}
	if search != "" {
		params.Set("search", search)
	}
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}

	var raw []json.RawMessage
	if err := c.get(ctx, "/airports", params, &raw); err != nil {
		return nil, err
	}

	airports := make([]models.Airport, 0, len(raw))
	for _, doc := range raw {
		var a models.Airport
		if err := json.Unmarshal(doc, &a); err != nil {
			log.Printf("[queryclient] dropping airport record: %v", err)
			continue
		}
		airports = append(airports, a)
	}

	// An empty table usually means the server is still provisioning.
	if len(airports) > 0 {
		c.store(key, cacheEntry{airports: airports})
	}
	return airports, nil
}

// Flights runs a flight search. A single malformed record fails the whole
// response so the result list never shows partial data.
func (c *Client) Flights(ctx context.Context, q models.SearchQuery) ([]models.Flight, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	var flights []models.Flight
	if err := c.get(ctx, "/flights", q.Values(), &flights); err != nil {
		return nil, err
	}
	return flights, nil
}

// Airlines lists the distinct airline names, alphabetically.
func (c *Client) Airlines(ctx context.Context) ([]string, error) {
	const key = "airlines"
	if entry, ok := c.cached(key); ok {
		return entry.airlines, nil
	}

	var names []string
	if err := c.get(ctx, "/airlines", nil, &names); err != nil {
		return nil, err
	}

	c.store(key, cacheEntry{airlines: names})
	return names, nil
}

// Destinations lists the airports reachable from code.
func (c *Client) Destinations(ctx context.Context, code string) ([]models.AirportRef, error) {
	code = models.NormalizeCode(code)
	if !models.IsAirportCode(code) {
		return nil, &models.ValidationError{Field: "departure", Reason: fmt.Sprintf("must be a 3-letter code, got %q", code)}
	}

	var refs []models.AirportRef
	if err := c.get(ctx, "/destinations/"+url.PathEscape(code), nil, &refs); err != nil {
		return nil, err
	}
	return refs, nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values, out any) error {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &TransportError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return statusError(resp)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &TransportError{StatusCode: resp.StatusCode, Err: fmt.Errorf("failed to decode %s: %w", path, err)}
	}
	return nil
}

func statusError(resp *http.Response) error {
	terr := &TransportError{
		StatusCode: resp.StatusCode,
		Err:        fmt.Errorf("%s %s: status %d", resp.Request.Method, resp.Request.URL.Path, resp.StatusCode),
	}

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	var eb errorBody
	if json.Unmarshal(body, &eb) == nil {
		terr.Message = eb.Message
		if terr.Message == "" {
			terr.Message = eb.Error
		}
	}
	return terr
}

func (c *Client) cached(key string) (cacheEntry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.cache[key]
	if !ok || time.Since(entry.fetchedAt) > cacheDuration {
		return cacheEntry{}, false
	}
	return entry, true
}

func (c *Client) store(key string, entry cacheEntry) {
	entry.fetchedAt = time.Now()
	c.mu.Lock()
	c.cache[key] = entry
	c.mu.Unlock()
}
