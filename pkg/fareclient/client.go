// Package fareclient fetches fare quotes from a remote fare API and falls
// back to computing them locally when the remote is unusable.
package fareclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/shiva/ridefare/internal/model"
	"github.com/shiva/ridefare/pkg/fare"
	"github.com/shiva/ridefare/pkg/logger"
)

const estimatePath = "/api/v1/fare/estimate"

// maxBody bounds how much of a response is read.
const maxBody = 1 << 20

// Client quotes fares for a trip. The zero value is not usable; use New.
type Client struct {
	baseURL string
	http    *http.Client
	engine  *fare.Engine
	loc     *time.Location
	now     func() time.Time
	log     logrus.FieldLogger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithTimeout sets the default HTTP client's timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http = &http.Client{Timeout: d} }
}

// WithLocation sets the zone the local surge hour is read in.
func WithLocation(loc *time.Location) Option {
	return func(c *Client) { c.loc = loc }
}

// WithClock replaces time.Now for the local fallback.
func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

// New creates a client for the fare API at baseURL. An empty baseURL makes
// every quote local.
func New(baseURL string, engine *fare.Engine, log logrus.FieldLogger, opts ...Option) *Client {
	c := &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 3 * time.Second},
		engine:  engine,
		loc:     time.UTC,
		now:     time.Now,
		log:     logger.Component(log, "fareclient"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type estimateRequest struct {
	Pickup      model.Location `json:"pickup"`
	Destination model.Location `json:"destination"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Field   string `json:"field"`
}

// GetFare returns totals and breakdowns for every vehicle class. Remote
// failures are logged and answered locally for the same coordinates;
// invalid input is always returned as a *fare.ValidationError.
func (c *Client) GetFare(ctx context.Context, pickup, destination model.Location) (*fare.FareSet, error) {
	if err := fare.ValidateTrip(pickup, destination); err != nil {
		return nil, err
	}

	if c.baseURL != "" {
		fs, err := c.fetch(ctx, pickup, destination)
		if err == nil {
			return fs, nil
		}
		if errors.Is(err, fare.ErrValidation) {
			return nil, err
		}
		c.log.WithError(err).WithFields(logrus.Fields{
			"degraded": true,
			"remote":   c.baseURL,
		}).Warn("remote fare quote failed, computing locally")
	}

	return c.Local(pickup, destination)
}

// Local computes the fare set in-process at the current hour.
func (c *Client) Local(pickup, destination model.Location) (*fare.FareSet, error) {
	return c.engine.QuoteAll(pickup, destination, c.now().In(c.loc).Hour())
}

func (c *Client) fetch(ctx context.Context, pickup, destination model.Location) (*fare.FareSet, error) {
	payload, err := json.Marshal(estimateRequest{Pickup: pickup, Destination: destination})
	if err != nil {
		return nil, fmt.Errorf("fareclient: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+estimatePath, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("fareclient: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fareclient: do request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, fmt.Errorf("fareclient: read response: %w", err)
	}

	if resp.StatusCode == http.StatusBadRequest {
		var er errorResponse
		if json.Unmarshal(body, &er) == nil && er.Field != "" {
			return nil, &fare.ValidationError{Field: er.Field, Reason: er.Message}
		}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("fareclient: unexpected status %d", resp.StatusCode)
	}

	var fs fare.FareSet
	if err := json.Unmarshal(body, &fs); err != nil {
		return nil, fmt.Errorf("fareclient: unmarshal response: %w", err)
	}
	if !fs.Complete() {
		return nil, errors.New("fareclient: response is missing vehicle classes")
	}
	return &fs, nil
}
