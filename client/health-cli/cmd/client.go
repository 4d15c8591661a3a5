package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// apiClient 是对后端 REST 接口的薄封装。
type apiClient struct {
	baseURL string
	http    *http.Client
}

func newAPIClient(baseURL string, timeout time.Duration) *apiClient {
	return &apiClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// Fact 与 GET /api/memory/:userId 的元素对应。
type Fact struct {
	ID        uint      `json:"id"`
	UserID    string    `json:"userId"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

func (c *apiClient) createUser() (string, error) {
	var out struct {
		UserID string `json:"userId"`
	}
	if err := c.do(http.MethodPost, "/api/user", nil, &out); err != nil {
		return "", err
	}
	return out.UserID, nil
}

func (c *apiClient) chat(userID, message string) (string, error) {
	payload := map[string]string{"userId": userID, "message": message}
	var out struct {
		Response string `json:"response"`
	}
	if err := c.do(http.MethodPost, "/api/chat", payload, &out); err != nil {
		return "", err
	}
	return out.Response, nil
}

func (c *apiClient) memory(userID string) ([]Fact, error) {
	var facts []Fact
	if err := c.do(http.MethodGet, "/api/memory/"+url.PathEscape(userID), nil, &facts); err != nil {
		return nil, err
	}
	return facts, nil
}

func (c *apiClient) do(method, path string, payload interface{}, out interface{}) error {
	var body io.Reader
	if payload != nil {
		jsonPayload, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("error creating JSON payload: %w", err)
		}
		body = bytes.NewReader(jsonPayload)
	}

	req, err := http.NewRequest(method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request to %s failed: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var apiErr struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&apiErr)
		if apiErr.Error != "" {
			return fmt.Errorf("server returned %d: %s", resp.StatusCode, apiErr.Error)
		}
		return fmt.Errorf("server returned %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("error decoding response: %w", err)
	}
	return nil
}
