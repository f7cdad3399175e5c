// Package client is a small Go client for the qatrack REST API, meant for
// automation harnesses that record their results as test executions.
package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

type Client struct {
	httpClient *http.Client
	baseURL    string
}

type ClientOption func(*Client)

func New(baseURL string, options ...ClientOption) *Client {
	c := &Client{
		httpClient: http.DefaultClient,
		baseURL:    baseURL,
	}

	for _, o := range options {
		o(c)
	}

	return c
}

func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// ExecutionRecord is the payload accepted by the execution recording
// endpoint. TestCaseID, ExecutedBy, and Status are required server-side.
type ExecutionRecord struct {
	TestCaseID    string `json:"test_case_id"`
	TestPlanID    string `json:"test_plan_id,omitempty"`
	ExecutedBy    string `json:"executed_by"`
	Status        string `json:"status"`
	ActualResult  string `json:"actual_result,omitempty"`
	Comments      string `json:"comments,omitempty"`
	Environment   string `json:"environment,omitempty"`
	BuildVersion  string `json:"build_version,omitempty"`
	ExecutionTime *int   `json:"execution_time,omitempty"`
}

type apiEnvelope struct {
	Success bool            `json:"success"`
	Error   string          `json:"error"`
	Data    json.RawMessage `json:"data"`
}

// RecordExecution posts a single execution and returns the id the server
// assigned to it.
func (c *Client) RecordExecution(record ExecutionRecord) (string, error) {
	payload, err := json.Marshal(record)
	if err != nil {
		return "", err
	}

	endpoint, err := url.JoinPath(c.baseURL, "api/test-executions")
	if err != nil {
		return "", err
	}

	req, err := http.NewRequest(http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Add("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var envelope apiEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return "", err
	}
	if !envelope.Success {
		return "", fmt.Errorf("record execution: %s", envelope.Error)
	}

	var data struct {
		ExecutionID string `json:"execution_id"`
	}
	if err := json.Unmarshal(envelope.Data, &data); err != nil {
		return "", err
	}
	return data.ExecutionID, nil
}
