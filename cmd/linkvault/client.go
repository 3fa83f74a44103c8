package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"syscall"
	"time"

	"linkvault/internal/api"
)

// apiClient is a thin HTTP wrapper over the daemon API.
type apiClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

func newAPIClient(baseURL, token string) *apiClient {
	return &apiClient{
		baseURL:    baseURL,
		token:      token,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *apiClient) addPost(url string, priority int) (api.AddPostResponse, error) {
	var out api.AddPostResponse
	err := c.do(http.MethodPost, "/api/posts", api.AddPostRequest{URL: url, Priority: priority}, &out)
	return out, err
}

func (c *apiClient) describePost(id int64) (api.PostDetail, error) {
	var out api.PostDetail
	err := c.do(http.MethodGet, fmt.Sprintf("/api/posts/%d", id), nil, &out)
	return out, err
}

func (c *apiClient) listPosts(statuses []string) (api.PostListResponse, error) {
	path := "/api/posts"
	for i, status := range statuses {
		sep := "&"
		if i == 0 {
			sep = "?"
		}
		path += sep + "status=" + status
	}
	var out api.PostListResponse
	err := c.do(http.MethodGet, path, nil, &out)
	return out, err
}

func (c *apiClient) retryPost(id int64, priority int) error {
	return c.do(http.MethodPost, fmt.Sprintf("/api/posts/%d/retry", id), api.RetryRequest{Priority: priority}, nil)
}

func (c *apiClient) queue() (api.QueueResponse, error) {
	var out api.QueueResponse
	err := c.do(http.MethodGet, "/api/queue", nil, &out)
	return out, err
}

func (c *apiClient) groups() (api.GroupListResponse, error) {
	var out api.GroupListResponse
	err := c.do(http.MethodGet, "/api/groups", nil, &out)
	return out, err
}

func (c *apiClient) status() (api.DaemonStatus, error) {
	var out api.DaemonStatus
	err := c.do(http.MethodGet, "/api/status", nil, &out)
	return out, err
}

func (c *apiClient) do(method, path string, payload, out any) error {
	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(encoded)
	}

	req, err := http.NewRequest(method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return wrapDialError(err, c.baseURL)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return errors.New(readAPIError(resp))
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func readAPIError(resp *http.Response) string {
	var payload struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err == nil && payload.Error != "" {
		return payload.Error
	}
	return fmt.Sprintf("daemon returned status %d", resp.StatusCode)
}

func wrapDialError(err error, baseURL string) error {
	if errors.Is(err, syscall.ECONNREFUSED) {
		return fmt.Errorf("connect to daemon at %s: connection refused; verify linkvaultd is running", baseURL)
	}
	return fmt.Errorf("connect to daemon at %s: %w", baseURL, err)
}
