// Package client talks to the aspirasi REST API and keeps the admin views'
// local state.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/deanDev5200/web-aspirasi/internal/models"
)

const defaultTimeout = 15 * time.Second

// APIError is a non-2xx response.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api: %d: %s", e.StatusCode, e.Message)
}

type Client struct {
	baseURL string
	http    *http.Client
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// New returns a client for the API rooted at baseURL, e.g.
// "http://localhost:5000/api".
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: defaultTimeout},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

type ListOptions struct {
	Page      int
	Limit     int
	Search    string
	StartDate string
	EndDate   string
	Status    models.Status
}

func (o ListOptions) values() url.Values {
	v := url.Values{}
	if o.Page > 0 {
		v.Set("page", strconv.Itoa(o.Page))
	}
	if o.Limit > 0 {
		v.Set("limit", strconv.Itoa(o.Limit))
	}
	if o.Search != "" {
		v.Set("search", o.Search)
	}
	if o.StartDate != "" {
		v.Set("startDate", o.StartDate)
	}
	if o.EndDate != "" {
		v.Set("endDate", o.EndDate)
	}
	if o.Status != "" {
		v.Set("status", string(o.Status))
	}
	return v
}

type NewAspirasi struct {
	Nama        string `json:"nama"`
	Kelas       string `json:"kelas"`
	Aspirasi    string `json:"aspirasi"`
	IsAnonymous bool   `json:"isAnonymous"`
}

func (c *Client) List(ctx context.Context, opts ListOptions) (*models.Page, error) {
	path := "/aspirasi"
	if q := opts.values().Encode(); q != "" {
		path += "?" + q
	}
	var page models.Page
	if err := c.do(ctx, http.MethodGet, path, nil, &page); err != nil {
		return nil, err
	}
	if page.Data == nil {
		page.Data = []models.Aspirasi{}
	}
	return &page, nil
}

func (c *Client) Get(ctx context.Context, id string) (*models.Aspirasi, error) {
	var a models.Aspirasi
	if err := c.do(ctx, http.MethodGet, "/aspirasi/"+url.PathEscape(id), nil, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

func (c *Client) Create(ctx context.Context, in NewAspirasi) (*models.Aspirasi, error) {
	var a models.Aspirasi
	if err := c.do(ctx, http.MethodPost, "/aspirasi", in, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

func (c *Client) UpdateStatus(ctx context.Context, id string, status models.Status) (*models.Aspirasi, error) {
	var a models.Aspirasi
	body := map[string]string{"status": string(status)}
	if err := c.do(ctx, http.MethodPut, "/aspirasi/"+url.PathEscape(id), body, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

func (c *Client) Delete(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/aspirasi/"+url.PathEscape(id), nil, nil)
}

func (c *Client) Stats(ctx context.Context) (*models.Stats, error) {
	var st models.Stats
	if err := c.do(ctx, http.MethodGet, "/aspirasi/stats/overview", nil, &st); err != nil {
		return nil, err
	}
	return &st, nil
}

func (c *Client) Login(ctx context.Context, username, password string) error {
	body := map[string]string{"username": username, "password": password}
	return c.do(ctx, http.MethodPost, "/auth/login", body, nil)
}

func (c *Client) ChangePassword(ctx context.Context, current, next string) error {
	body := map[string]string{"currentPassword": current, "newPassword": next}
	return c.do(ctx, http.MethodPost, "/auth/change-password", body, nil)
}

func (c *Client) Profile(ctx context.Context) (*models.ProfileResponse, error) {
	var p models.ProfileResponse
	if err := c.do(ctx, http.MethodGet, "/auth/profile", nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("api: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 16<<20))
	if err != nil {
		return fmt.Errorf("api: read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{StatusCode: resp.StatusCode, Message: errorMessage(data, resp.Status)}
	}
	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("api: decode response: %w", err)
	}
	return nil
}

// errorMessage pulls the "error" field out of a JSON error body, falling
// back to the raw body or the status line.
func errorMessage(data []byte, status string) string {
	var body struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(data, &body) == nil && body.Error != "" {
		return body.Error
	}
	if s := strings.TrimSpace(string(data)); s != "" {
		return s
	}
	return status
}
