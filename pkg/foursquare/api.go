// Package foursquare is a small client for the Foursquare venues search API.
// It builds the "venues near a coordinate" request and maps the response
// into plain venue records.
package foursquare

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"nearme/internal/failure"
	"nearme/internal/models"
	coords "nearme/models"
)

const (
	DefaultBaseURL = "https://api.foursquare.com/v2/venues/search"
	DefaultVersion = "20211119"
	DefaultRadius  = 100
	DefaultLimit   = 5

	// maxBodyBytes bounds how much of a response body is read.
	maxBodyBytes = 4 << 20
)

// NoVenuesMessage is shown when a response carries no venues array.
const NoVenuesMessage = "There are no new venues to show"

// ErrNoVenues is the cause of a data error when the body has no venues array.
var ErrNoVenues = errors.New("response has no venues")

// ErrStatus is the cause of a data error for a non-2xx response.
var ErrStatus = errors.New("unexpected response status")

// Credentials identify the application to the API.
type Credentials struct {
	ClientID     string
	ClientSecret string
}

// Options are the fixed query values sent with every search.
type Options struct {
	BaseURL string
	Version string // YYYYMMDD
	Radius  int
	Limit   int
}

type Client struct {
	httpClient *http.Client
	userAgent  string
	creds      Credentials
	opts       Options
}

// NewClient returns a client using http.DefaultClient. Zero option values
// fall back to the package defaults.
func NewClient(creds Credentials, opts Options) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.Version == "" {
		opts.Version = DefaultVersion
	}
	if opts.Radius <= 0 {
		opts.Radius = DefaultRadius
	}
	if opts.Limit <= 0 {
		opts.Limit = DefaultLimit
	}
	return &Client{
		httpClient: http.DefaultClient,
		userAgent:  "nearme-client/1.0",
		creds:      creds,
		opts:       opts,
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	c.httpClient = hc
	return c
}

// SearchURL builds the search request URL for the given position.
func (c *Client) SearchURL(at coords.Coordinates) (string, error) {
	base, err := url.Parse(c.opts.BaseURL)
	if err != nil {
		return "", err
	}
	params := url.Values{}
	params.Set("client_id", c.creds.ClientID)
	params.Set("client_secret", c.creds.ClientSecret)
	params.Set("v", c.opts.Version)
	params.Set("ll", at.String())
	params.Set("intent", "browse")
	params.Set("radius", strconv.Itoa(c.opts.Radius))
	params.Set("limit", strconv.Itoa(c.opts.Limit))
	base.RawQuery = params.Encode()
	return base.String(), nil
}

// FetchNearbyVenues runs one search around (latitude, longitude). Transport
// failures are reported as network errors; a body that cannot be decoded or
// lacks response.venues is a data error. Individual venues missing required
// location fields are skipped and the rest of the batch is returned.
func (c *Client) FetchNearbyVenues(ctx context.Context, latitude, longitude float64) ([]models.Venue, error) {
	apiURL, err := c.SearchURL(coords.Coordinates{Lat: latitude, Lon: longitude})
	if err != nil {
		return nil, failure.NewData("Invalid URL, venues can't be fetched", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return nil, failure.NewData("Invalid URL, venues can't be fetched", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, failure.NewNetwork(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, failure.NewNetwork(fmt.Errorf("failed to read response body: %w", err))
	}

	var apiResp SearchResponse
	decodeErr := json.Unmarshal(body, &apiResp)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := NoVenuesMessage
		if decodeErr == nil && apiResp.Meta.ErrorDetail != "" {
			msg = apiResp.Meta.ErrorDetail
		}
		return nil, failure.NewData(msg, fmt.Errorf("%w: %d", ErrStatus, resp.StatusCode))
	}
	if decodeErr != nil {
		return nil, failure.NewData("failed to decode venues response", decodeErr)
	}
	if apiResp.Response == nil || apiResp.Response.Venues == nil {
		return nil, failure.NewData(NoVenuesMessage, ErrNoVenues)
	}

	return MapVenues(*apiResp.Response.Venues), nil
}
