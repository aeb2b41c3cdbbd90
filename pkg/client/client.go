// Package client is a Go client for the Growen HTTP API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Client is the main Growen API client
type Client struct {
	baseURL    string
	httpClient *http.Client
	token      string // JWT token for authenticated requests
}

// Config holds the client configuration
type Config struct {
	BaseURL    string        // API base URL (e.g., "https://api.growen.ao")
	Timeout    time.Duration // HTTP client timeout (default: 30s)
	HTTPClient *http.Client  // Optional custom HTTP client
}

// File is a downloaded PDF or payment proof
type File struct {
	Name        string
	ContentType string
	Body        []byte
}

// NewClient creates a new Growen API client
func NewClient(cfg Config) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout: cfg.Timeout,
		}
	}

	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: httpClient,
	}
}

// SetToken sets the JWT token for authenticated requests
func (c *Client) SetToken(token string) {
	c.token = token
}

// GetToken returns the current JWT token
func (c *Client) GetToken() string {
	return c.token
}

// doRequest sends body as JSON and decodes a JSON reply into result
func (c *Client) doRequest(ctx context.Context, method, path string, body interface{}, result interface{}) error {
	var (
		reqBody     io.Reader
		contentType string
	)
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(data)
		contentType = "application/json"
	}

	resp, err := c.send(ctx, method, path, reqBody, contentType, "application/json")
	if err != nil {
		return err
	}
	if result != nil && len(resp.body) > 0 {
		if err := json.Unmarshal(resp.body, result); err != nil {
			return fmt.Errorf("failed to parse response: %w", err)
		}
	}
	return nil
}

// upload posts fields plus one file as multipart/form-data under "file"
func (c *Client) upload(ctx context.Context, path string, fields map[string]string, filename string, file io.Reader, result interface{}) error {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		if v == "" {
			continue
		}
		if err := mw.WriteField(k, v); err != nil {
			return err
		}
	}

	partType := mime.TypeByExtension(strings.ToLower(filepath.Ext(filename)))
	if partType == "" {
		partType = "application/octet-stream"
	}
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", mime.FormatMediaType("form-data", map[string]string{
		"name":     "file",
		"filename": filepath.Base(filename),
	}))
	header.Set("Content-Type", partType)
	part, err := mw.CreatePart(header)
	if err != nil {
		return err
	}
	if _, err := io.Copy(part, file); err != nil {
		return fmt.Errorf("failed to read %s: %w", filename, err)
	}
	if err := mw.Close(); err != nil {
		return err
	}

	resp, err := c.send(ctx, http.MethodPost, path, &buf, mw.FormDataContentType(), "application/json")
	if err != nil {
		return err
	}
	if result != nil && len(resp.body) > 0 {
		if err := json.Unmarshal(resp.body, result); err != nil {
			return fmt.Errorf("failed to parse response: %w", err)
		}
	}
	return nil
}

// download fetches a binary resource such as a PDF export
func (c *Client) download(ctx context.Context, method, path string) (*File, error) {
	resp, err := c.send(ctx, method, path, nil, "", "*/*")
	if err != nil {
		return nil, err
	}

	f := &File{ContentType: resp.header.Get("Content-Type"), Body: resp.body}
	if _, params, err := mime.ParseMediaType(resp.header.Get("Content-Disposition")); err == nil {
		f.Name = params["filename"]
	}
	return f, nil
}

type response struct {
	header http.Header
	body   []byte
}

func (c *Client) send(ctx context.Context, method, path string, body io.Reader, contentType, accept string) (*response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", accept)
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		return nil, newAPIError(resp, respBody)
	}
	return &response{header: resp.Header, body: respBody}, nil
}

func newAPIError(resp *http.Response, body []byte) *APIError {
	apiErr := &APIError{
		StatusCode: resp.StatusCode,
		RequestID:  resp.Header.Get("X-Request-ID"),
	}
	if secs, err := strconv.Atoi(resp.Header.Get("Retry-After")); err == nil {
		apiErr.RetryAfter = time.Duration(secs) * time.Second
	}
	if err := json.Unmarshal(body, apiErr); err != nil || apiErr.Detail == "" {
		apiErr.Detail = strings.TrimSpace(string(body))
	}
	return apiErr
}

// Plans returns the plan service
func (c *Client) Plans() *PlanService {
	return &PlanService{client: c}
}

// Payments returns the payment service
func (c *Client) Payments() *PaymentService {
	return &PaymentService{client: c}
}

// Admin returns the administration service
func (c *Client) Admin() *AdminService {
	return &AdminService{client: c}
}

// Clients returns the CRM client service
func (c *Client) Clients() *ClientService {
	return &ClientService{client: c}
}
