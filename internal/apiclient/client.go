// Package apiclient is a small Go client for the filesmanager HTTP API.
package apiclient

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// APIError is a non-2xx answer from the server.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return http.StatusText(e.Status)
	}
	return fmt.Sprintf("%d %s", e.Status, e.Message)
}

type Client struct {
	baseURL *url.URL
	hc      *http.Client
	token   string
}

type ClientOptions struct {
	Addr     string
	Insecure bool
	Timeout  time.Duration
	// HTTPClient replaces the built-in client, e.g. in tests.
	HTTPClient *http.Client
}

func NewClient(opt ClientOptions) (*Client, error) {
	if opt.Addr == "" {
		return nil, errors.New("addr is required")
	}
	u, err := url.Parse(opt.Addr)
	if err != nil {
		return nil, err
	}
	if u.Scheme == "" {
		u.Scheme = "http"
	}
	if u.Host == "" {
		return nil, errors.New("invalid addr")
	}
	if opt.HTTPClient != nil {
		return &Client{baseURL: u, hc: opt.HTTPClient}, nil
	}

	t := &http.Transport{}
	if strings.EqualFold(u.Scheme, "https") {
		t.TLSClientConfig = &tls.Config{InsecureSkipVerify: opt.Insecure} //nolint:gosec
	}
	timeout := opt.Timeout
	if timeout == 0 {
		timeout = 20 * time.Second
	}
	return &Client{baseURL: u, hc: &http.Client{Transport: t, Timeout: timeout}}, nil
}

// Token returns the session token held by the client, if any.
func (c *Client) Token() string { return c.token }

// SetToken reuses a token obtained elsewhere.
func (c *Client) SetToken(tok string) { c.token = tok }

// Entry mirrors the server's entry projection.
type Entry struct {
	ID       int64  `json:"id"`
	UserID   int64  `json:"userId"`
	Name     string `json:"name"`
	Type     string `json:"type"`
	IsPublic bool   `json:"isPublic"`
	ParentID int64  `json:"parentId"`
}

// Upload is the body of a create request. Data is sent base64-encoded.
type Upload struct {
	Name     string
	Type     string
	ParentID int64
	IsPublic bool
	Data     []byte
}

type Status struct {
	Redis bool `json:"redis"`
	DB    bool `json:"db"`
}

type Stats struct {
	Users int64 `json:"users"`
	Files int64 `json:"files"`
}

func (c *Client) Status(ctx context.Context) (Status, error) {
	var s Status
	err := c.doJSON(ctx, http.MethodGet, "/status", nil, nil, &s)
	return s, err
}

func (c *Client) Stats(ctx context.Context) (Stats, error) {
	var s Stats
	err := c.doJSON(ctx, http.MethodGet, "/stats", nil, nil, &s)
	return s, err
}

// Connect logs in and keeps the returned token for later calls.
func (c *Client) Connect(ctx context.Context, email, password string) error {
	req, err := c.newRequest(ctx, http.MethodGet, "/connect", nil, nil)
	if err != nil {
		return err
	}
	req.SetBasicAuth(email, password)
	var resp struct {
		Token string `json:"token"`
	}
	if err := c.do(req, &resp); err != nil {
		return err
	}
	c.token = resp.Token
	return nil
}

func (c *Client) Disconnect(ctx context.Context) error {
	if err := c.doJSON(ctx, http.MethodGet, "/disconnect", nil, nil, nil); err != nil {
		return err
	}
	c.token = ""
	return nil
}

func (c *Client) Create(ctx context.Context, u Upload) (Entry, error) {
	body := map[string]any{"name": u.Name, "type": u.Type, "parentId": u.ParentID, "isPublic": u.IsPublic}
	if u.Data != nil {
		body["data"] = base64.StdEncoding.EncodeToString(u.Data)
	}
	var e Entry
	err := c.doJSON(ctx, http.MethodPost, "/files", nil, body, &e)
	return e, err
}

func (c *Client) Get(ctx context.Context, id int64) (Entry, error) {
	var e Entry
	err := c.doJSON(ctx, http.MethodGet, "/files/"+itoa(id), nil, nil, &e)
	return e, err
}

// List returns one page of the caller's entries. A nil parent lists all.
func (c *Client) List(ctx context.Context, parent *int64, page int) ([]Entry, error) {
	q := url.Values{}
	if parent != nil {
		q.Set("parentId", itoa(*parent))
	}
	if page > 0 {
		q.Set("page", strconv.Itoa(page))
	}
	var out []Entry
	err := c.doJSON(ctx, http.MethodGet, "/files", q, nil, &out)
	return out, err
}

func (c *Client) Publish(ctx context.Context, id int64) (Entry, error) {
	var e Entry
	err := c.doJSON(ctx, http.MethodPut, "/files/"+itoa(id)+"/publish", nil, nil, &e)
	return e, err
}

func (c *Client) Unpublish(ctx context.Context, id int64) (Entry, error) {
	var e Entry
	err := c.doJSON(ctx, http.MethodPut, "/files/"+itoa(id)+"/unpublish", nil, nil, &e)
	return e, err
}

// Data downloads content. size is "", "100", "250" or "500".
func (c *Client) Data(ctx context.Context, id int64, size string) ([]byte, string, error) {
	q := url.Values{}
	if size != "" {
		q.Set("size", size)
	}
	req, err := c.newRequest(ctx, http.MethodGet, "/files/"+itoa(id)+"/data", q, nil)
	if err != nil {
		return nil, "", err
	}
	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()
	if err := checkStatus(resp); err != nil {
		return nil, "", err
	}
	b, err := io.ReadAll(resp.Body)
	return b, resp.Header.Get("content-type"), err
}

func (c *Client) newRequest(ctx context.Context, method, path string, q url.Values, body any) (*http.Request, error) {
	var buf io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		buf = bytes.NewReader(b)
	}
	u := c.baseURL.ResolveReference(&url.URL{Path: path, RawQuery: q.Encode()})
	req, err := http.NewRequestWithContext(ctx, method, u.String(), buf)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("content-type", "application/json")
	}
	req.Header.Set("accept", "application/json")
	if c.token != "" {
		req.Header.Set("X-Token", c.token)
	}
	return req, nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, q url.Values, body, out any) error {
	req, err := c.newRequest(ctx, method, path, q, body)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.hc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if err := checkStatus(resp); err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func checkStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	var er struct {
		Error string `json:"error"`
	}
	_ = json.NewDecoder(resp.Body).Decode(&er)
	return &APIError{Status: resp.StatusCode, Message: er.Error}
}

func itoa(v int64) string {
	return strconv.FormatInt(v, 10)
}
