package web

import (
	"context"
	"encoding/json"
	"fmt"
	"io/ioutil"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/ansel1/merry"
	"github.com/fpawel/castings/internal/casting"
)

// ErrUpstreamUnavailable reports that the castings API could not be reached
// or did not answer in time.
var ErrUpstreamUnavailable = merry.New("Unable to connect to API").WithHTTPCode(http.StatusBadGateway)

// ErrUpstream is returned for API answers other than 200 and 404.
var ErrUpstream = merry.New("API Error")

type ClientConfig struct {
	BaseURL       string
	LookupTimeout time.Duration
	QueryTimeout  time.Duration
}

// Client calls the castings API.
type Client struct {
	cfg  ClientConfig
	http *http.Client
}

func NewClient(cfg ClientConfig, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &Client{cfg: cfg, http: httpClient}
}

func (c *Client) Lookup(ctx context.Context, id string) (casting.Casting, error) {
	var x casting.Casting
	b, err := c.LookupRaw(ctx, id)
	if err != nil {
		return x, err
	}
	if err := json.Unmarshal(b, &x); err != nil {
		return x, ErrUpstream.Here().WithMessagef("API Error: malformed response: %v", err)
	}
	return x, nil
}

// LookupRaw returns the API response body of a lookup as is.
func (c *Client) LookupRaw(ctx context.Context, id string) ([]byte, error) {
	return c.get(ctx, c.cfg.LookupTimeout, "/lookup/"+url.PathEscape(id), nil)
}

func (c *Client) List(ctx context.Context, page, limit int) (casting.Page, error) {
	var p casting.Page
	err := c.getJSON(ctx, c.cfg.QueryTimeout, "/castings", url.Values{
		"page":  {strconv.Itoa(page)},
		"limit": {strconv.Itoa(limit)},
	}, &p)
	return p, err
}

func (c *Client) Search(ctx context.Context, q string) (casting.SearchResult, error) {
	var r casting.SearchResult
	err := c.getJSON(ctx, c.cfg.QueryTimeout, "/search", url.Values{"q": {q}}, &r)
	return r, err
}

func (c *Client) getJSON(ctx context.Context, timeout time.Duration, path string, query url.Values, v interface{}) error {
	b, err := c.get(ctx, timeout, path, query)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(b, v); err != nil {
		return ErrUpstream.Here().WithMessagef("API Error: malformed response: %v", err)
	}
	return nil
}

func (c *Client) get(ctx context.Context, timeout time.Duration, path string, query url.Values) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	target := c.cfg.BaseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, ErrUpstreamUnavailable.Here().WithMessagef("Unable to connect to API: %v", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, ErrUpstreamUnavailable.Here().WithMessagef("Unable to connect to API: %v", err)
	}
	defer resp.Body.Close()

	b, err := ioutil.ReadAll(resp.Body)
	if err != nil {
		return nil, ErrUpstreamUnavailable.Here().WithMessagef("Unable to connect to API: %v", err)
	}

	switch resp.StatusCode {
	case http.StatusOK:
		return b, nil
	case http.StatusNotFound:
		return nil, casting.ErrNotFound.Here()
	}
	return nil, upstreamError(resp.StatusCode, b)
}

// upstreamError prefers the detail sent by the API over a bare status line.
func upstreamError(status int, body []byte) error {
	msg := fmt.Sprintf("API Error: %d", status)
	var e struct {
		Detail json.RawMessage `json:"detail"`
	}
	if json.Unmarshal(body, &e) == nil && len(e.Detail) > 0 {
		var s string
		if json.Unmarshal(e.Detail, &s) == nil {
			if s != "" {
				msg = s
			}
		} else {
			msg = string(e.Detail)
		}
	}
	return ErrUpstream.Here().WithMessage(msg).WithHTTPCode(status).WithValue("status", status)
}
