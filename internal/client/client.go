// Package client is an HTTP client for the AirSense query API.
package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/AirSense/AirSense-Backend/internal/airquality"
	"github.com/goccy/go-json"
	"golang.org/x/time/rate"
)

// DefaultBaseURL is where a locally started server answers.
const DefaultBaseURL = "http://localhost:5050/api"

var (
	ErrValidation  = errors.New("invalid request")
	ErrNotFound    = errors.New("no data")
	ErrInternal    = errors.New("server error")
	ErrUnavailable = errors.New("server unreachable")
)

// APIError carries the server's message for a non-2xx response. It
// unwraps to ErrValidation, ErrNotFound or ErrInternal.
type APIError struct {
	Status     int
	Message    string
	Suggestion string
	kind       error
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api status %d", e.Status)
	}
	return fmt.Sprintf("api status %d: %s", e.Status, e.Message)
}

func (e *APIError) Unwrap() error { return e.kind }

type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithRateLimit paces outgoing requests to r per second with the given burst.
func WithRateLimit(r float64, burst int) Option {
	return func(c *Client) { c.limiter = rate.NewLimiter(rate.Limit(r), burst) }
}

func New(baseURL string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 15 * time.Second},
		limiter:    rate.NewLimiter(rate.Inf, 1),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Municipalities(ctx context.Context) ([]airquality.Municipality, error) {
	var out []airquality.Municipality
	return out, c.get(ctx, "/municipios", nil, &out)
}

func (c *Client) Stations(ctx context.Context, municipalityID int64) ([]airquality.StationLocation, error) {
	var out []airquality.StationLocation
	return out, c.get(ctx, fmt.Sprintf("/estaciones/%d", municipalityID), nil, &out)
}

func (c *Client) Years(ctx context.Context, municipalityID int64) (*airquality.AvailableYears, error) {
	var out airquality.AvailableYears
	if err := c.get(ctx, fmt.Sprintf("/anios/%d", municipalityID), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) StationsByYear(ctx context.Context, municipalityID int64, year int) (*airquality.StationsByYear, error) {
	var out airquality.StationsByYear
	if err := c.get(ctx, fmt.Sprintf("/estaciones/%d/%d", municipalityID, year), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Pollutants(ctx context.Context, stationID int64, year int) (*airquality.PollutantsByYear, error) {
	var out airquality.PollutantsByYear
	if err := c.get(ctx, fmt.Sprintf("/contaminantes/%d/%d", stationID, year), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) HistoricalData(ctx context.Context, stationID int64, year int, exposureID int64) (*airquality.HistoricalReport, error) {
	params := url.Values{}
	params.Set("estacion", strconv.FormatInt(stationID, 10))
	params.Set("anio", strconv.Itoa(year))
	params.Set("exposicion", strconv.FormatInt(exposureID, 10))

	var out airquality.HistoricalReport
	if err := c.get(ctx, "/datos", params, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Dictionary(ctx context.Context) ([]airquality.DictionaryEntry, error) {
	var out []airquality.DictionaryEntry
	return out, c.get(ctx, "/diccionario", nil, &out)
}

type errorPayload struct {
	Error      string `json:"error"`
	Message    string `json:"mensaje"`
	Suggestion string `json:"sugerencia"`
}

func (c *Client) get(ctx context.Context, path string, params url.Values, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	fullURL := c.baseURL + path
	if len(params) > 0 {
		fullURL += "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return fmt.Errorf("%w: read body: %w", ErrUnavailable, err)
	}

	if resp.StatusCode != http.StatusOK {
		return decodeError(resp.StatusCode, body)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

func decodeError(status int, body []byte) error {
	var p errorPayload
	_ = json.Unmarshal(body, &p)

	apiErr := &APIError{Status: status, Message: p.Error, Suggestion: p.Suggestion}
	if apiErr.Message == "" {
		apiErr.Message = p.Message
	}
	switch {
	case status == http.StatusNotFound:
		apiErr.kind = ErrNotFound
	case status >= 400 && status < 500:
		apiErr.kind = ErrValidation
	default:
		apiErr.kind = ErrInternal
	}
	return apiErr
}
