// Package client talks to the eatsdash backend over JSON HTTP.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"eatsdash/internal/models"
)

type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// WithHTTPClient swaps the underlying client, mostly for tests.
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	c.httpClient = hc
	return c
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

type APIError struct {
	StatusCode int    `json:"-"`
	Code       string `json:"code"`
	Message    string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsNotFound reports whether err is a 404 from the backend.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

func (c *Client) do(ctx context.Context, method, path string, body, result any) error {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode >= 400 {
		var apiErr APIError
		if err := json.Unmarshal(respBody, &apiErr); err != nil || apiErr.Code == "" {
			return &APIError{
				StatusCode: resp.StatusCode,
				Code:       "unknown_error",
				Message:    strings.TrimSpace(string(respBody)),
			}
		}
		apiErr.StatusCode = resp.StatusCode
		return &apiErr
	}

	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("failed to unmarshal response: %w", err)
		}
	}

	return nil
}

func accountPath(entryID string, rest ...string) string {
	p := "/v1/accounts/" + url.PathEscape(entryID)
	for _, r := range rest {
		p += "/" + r
	}
	return p
}

func (c *Client) ListAccounts(ctx context.Context) (*models.AccountList, error) {
	var result models.AccountList
	if err := c.do(ctx, http.MethodGet, "/v1/accounts", nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) GetAccount(ctx context.Context, entryID string) (*models.AccountDetail, error) {
	var result models.AccountDetail
	if err := c.do(ctx, http.MethodGet, accountPath(entryID), nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) DeleteAccount(ctx context.Context, entryID string) error {
	return c.do(ctx, http.MethodDelete, accountPath(entryID), nil, nil)
}

func (c *Client) GetSettings(ctx context.Context, entryID string) (*models.NotificationSettings, error) {
	var result models.NotificationSettings
	if err := c.do(ctx, http.MethodGet, accountPath(entryID, "settings"), nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// SaveSettings replaces the whole settings document and returns what the
// backend stored.
func (c *Client) SaveSettings(ctx context.Context, entryID string, s models.NotificationSettings) (*models.NotificationSettings, error) {
	var result models.NotificationSettings
	if err := c.do(ctx, http.MethodPut, accountPath(entryID, "settings"), s, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) ListEntities(ctx context.Context) (*models.EntityCatalog, error) {
	var result models.EntityCatalog
	if err := c.do(ctx, http.MethodGet, "/v1/entities", nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) ListAutomations(ctx context.Context) ([]models.EntityRef, error) {
	var result models.AutomationList
	if err := c.do(ctx, http.MethodGet, "/v1/automations", nil, &result); err != nil {
		return nil, err
	}
	return result.Automations, nil
}

func (c *Client) TestVoice(ctx context.Context, test models.VoiceTest) error {
	return c.do(ctx, http.MethodPost, "/v1/voice/test", test, nil)
}

func (c *Client) GetHistory(ctx context.Context, entryID string) (*models.OrderHistory, error) {
	var result models.OrderHistory
	if err := c.do(ctx, http.MethodGet, accountPath(entryID, "history"), nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) GetProfile(ctx context.Context, entryID string) (*models.UserProfile, error) {
	var result models.UserProfile
	if err := c.do(ctx, http.MethodGet, accountPath(entryID, "profile"), nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// PushSnapshot uploads the latest poll result for an account.
func (c *Client) PushSnapshot(ctx context.Context, snap models.AccountSnapshot) error {
	return c.do(ctx, http.MethodPut, accountPath(snap.EntryID, "snapshot"), snap, nil)
}
