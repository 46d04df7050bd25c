package main

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

	"podforge/internal/podcast"
)

// apiClient is a thin wrapper over the podforged HTTP API.
type apiClient struct {
	baseURL    string
	httpClient *http.Client
}

func newAPIClient(baseURL string) *apiClient {
	return &apiClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

type createPayload struct {
	Title        string   `json:"title"`
	Description  string   `json:"description,omitempty"`
	Voice        string   `json:"voice,omitempty"`
	Script       string   `json:"script,omitempty"`
	SourceURLs   []string `json:"source_urls,omitempty"`
	MaterialsSet string   `json:"materials_set,omitempty"`
}

type createResult struct {
	ID string `json:"id"`
}

type listResult struct {
	Items []podcast.Snapshot `json:"items"`
	Total int                `json:"total"`
}

type rescanResult struct {
	Added int `json:"added"`
	Total int `json:"total"`
}

func (c *apiClient) create(ctx context.Context, payload createPayload) (createResult, error) {
	var out createResult
	err := c.do(ctx, http.MethodPost, "/podcasts", payload, &out)
	return out, err
}

func (c *apiClient) get(ctx context.Context, id string) (podcast.Snapshot, error) {
	var out podcast.Snapshot
	err := c.do(ctx, http.MethodGet, "/podcasts/"+url.PathEscape(id), nil, &out)
	return out, err
}

func (c *apiClient) dump(ctx context.Context, id string) (podcast.Dump, error) {
	var out podcast.Dump
	err := c.do(ctx, http.MethodGet, "/podcasts/_debug/"+url.PathEscape(id), nil, &out)
	return out, err
}

func (c *apiClient) list(ctx context.Context, status string, limit, offset int) (listResult, error) {
	query := url.Values{}
	if status != "" {
		query.Set("status", status)
	}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}
	if offset > 0 {
		query.Set("offset", strconv.Itoa(offset))
	}
	path := "/podcasts"
	if encoded := query.Encode(); encoded != "" {
		path += "?" + encoded
	}
	var out listResult
	err := c.do(ctx, http.MethodGet, path, nil, &out)
	return out, err
}

func (c *apiClient) remove(ctx context.Context, id string) (podcast.Snapshot, error) {
	var out podcast.Snapshot
	err := c.do(ctx, http.MethodDelete, "/podcasts/"+url.PathEscape(id), nil, &out)
	return out, err
}

func (c *apiClient) rescan(ctx context.Context) (rescanResult, error) {
	var out rescanResult
	err := c.do(ctx, http.MethodPost, "/podcasts/_rescan", nil, &out)
	return out, err
}

func (c *apiClient) health(ctx context.Context) error {
	var out map[string]string
	if err := c.do(ctx, http.MethodGet, "/healthz", nil, &out); err != nil {
		return err
	}
	if out["status"] != "ok" {
		return fmt.Errorf("daemon reported status %q", out["status"])
	}
	return nil
}

func (c *apiClient) do(ctx context.Context, method, path string, payload, target any) error {
	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		var apiErr struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(data, &apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("daemon: %s", apiErr.Error)
		}
		return fmt.Errorf("daemon: http %d", resp.StatusCode)
	}
	if target == nil {
		return nil
	}
	if err := json.Unmarshal(data, target); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
