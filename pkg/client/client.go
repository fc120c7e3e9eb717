package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/orgscope/orgscope/internal/config"
	"github.com/orgscope/orgscope/internal/domain"
)

// Client is the API client for the orgscope service
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new API client
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			// Full analyses can take a while
			Timeout: 10 * time.Minute,
		},
	}
}

// queryRequest mirrors the service's request envelope
type queryRequest struct {
	Action string                `json:"action"`
	Config config.AnalysisConfig `json:"config"`
}

// Validate checks the token (and organization, when set) against the service
func (c *Client) Validate(cfg config.AnalysisConfig) (bool, error) {
	var response struct {
		Data struct {
			Valid bool `json:"valid"`
		} `json:"data"`
	}
	if err := c.query("validate", cfg, &response); err != nil {
		return false, err
	}
	return response.Data.Valid, nil
}

// Analyze runs a full organization analysis
func (c *Client) Analyze(cfg config.AnalysisConfig) (*domain.OrganizationStats, error) {
	var response struct {
		Data *domain.OrganizationStats `json:"data"`
	}
	if err := c.query("analyze", cfg, &response); err != nil {
		return nil, err
	}
	return response.Data, nil
}

// RateLimit retrieves the remaining GitHub API quota for the token
func (c *Client) RateLimit(cfg config.AnalysisConfig) (*domain.RateLimit, error) {
	var response struct {
		Data *domain.RateLimit `json:"data"`
	}
	if err := c.query("rate-limit", cfg, &response); err != nil {
		return nil, err
	}
	return response.Data, nil
}

// HealthCheck checks if the API is healthy
func (c *Client) HealthCheck() error {
	resp, err := c.httpClient.Get(c.baseURL + "/health")
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var response struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return err
	}
	if response.Status != "ok" {
		return fmt.Errorf("unhealthy status: %s", response.Status)
	}
	return nil
}

func (c *Client) query(action string, cfg config.AnalysisConfig, result interface{}) error {
	body, err := json.Marshal(queryRequest{Action: action, Config: cfg})
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Post(c.baseURL+"/api/v1/query", "application/json", bytes.NewReader(body))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		var errResp struct {
			Error struct {
				Code    string `json:"code"`
				Message string `json:"message"`
			} `json:"error"`
		}
		if json.Unmarshal(raw, &errResp) == nil && errResp.Error.Message != "" {
			return fmt.Errorf("API error: %s - %s", errResp.Error.Code, errResp.Error.Message)
		}
		return fmt.Errorf("API error: %s - %s", resp.Status, string(raw))
	}

	return json.NewDecoder(resp.Body).Decode(result)
}
