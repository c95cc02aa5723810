// Package backend talks to the question-generation service.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"interviewer/log"
)

const (
	DefaultURL     = "http://127.0.0.1:8000"
	DefaultTimeout = 60 * time.Second

	StatusOngoing = "QNA"
)

// NetworkError is returned when a request fails in transport or comes back
// with a non-success status.
type NetworkError struct {
	Endpoint   string
	StatusCode int // 0 when no response was received
	Body       string
	Err        error
}

func (e *NetworkError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("backend %s: HTTP %d: %s", e.Endpoint, e.StatusCode, e.Body)
	}
	return fmt.Sprintf("backend %s: %v", e.Endpoint, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// IsNetworkError reports whether err came from a failed backend round trip.
func IsNetworkError(err error) bool {
	var ne *NetworkError
	return errors.As(err, &ne)
}

type NextRequest struct {
	Role       string   `json:"role"`
	UserAnswer string   `json:"user_answer"`
	History    []string `json:"history"`
}

type NextResponse struct {
	Question string `json:"question"`
	Status   string `json:"status"`
}

// Done reports whether the backend ended the interview. Only the explicit
// ongoing marker (or no status at all) keeps it going.
func (r NextResponse) Done() bool {
	s := strings.TrimSpace(r.Status)
	return s != "" && !strings.EqualFold(s, StatusOngoing)
}

type Client struct {
	baseURL string
	http    *tracedClient
}

func New(baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultURL
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    newTracedClient(timeout),
	}
}

func (c *Client) URL() string { return c.baseURL }

// Start asks for the opening question for role.
func (c *Client) Start(ctx context.Context, role string) (string, error) {
	var resp struct {
		Question string `json:"question"`
	}
	if err := c.post(ctx, "start", map[string]string{"role": role}, &resp); err != nil {
		return "", err
	}
	q := strings.TrimSpace(resp.Question)
	if q == "" {
		return "", &NetworkError{Endpoint: "start", Err: errors.New("empty question in response")}
	}
	return q, nil
}

func (c *Client) Next(ctx context.Context, req NextRequest) (NextResponse, error) {
	if req.History == nil {
		req.History = []string{}
	}
	var resp NextResponse
	if err := c.post(ctx, "next", req, &resp); err != nil {
		return NextResponse{}, err
	}
	resp.Question = strings.TrimSpace(resp.Question)
	return resp, nil
}

// Feedback fetches the running evaluation of the conversation so far.
func (c *Client) Feedback(ctx context.Context, role string, history []string) (string, error) {
	if history == nil {
		history = []string{}
	}
	body := struct {
		Role    string   `json:"role"`
		History []string `json:"history"`
	}{role, history}

	var resp struct {
		FeedbackReport string `json:"feedback_report"`
	}
	if err := c.post(ctx, "feedback", body, &resp); err != nil {
		return "", err
	}
	return strings.TrimSpace(resp.FeedbackReport), nil
}

// Ping checks that something answers at the base URL. Any HTTP status counts.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/", nil)
	if err != nil {
		return err
	}
	resp, err := c.http.client.Do(req)
	if err != nil {
		return &NetworkError{Endpoint: "/", Err: err}
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	return nil
}

func (c *Client) post(ctx context.Context, endpoint string, in, out any) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("encode %s request: %w", endpoint, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/"+endpoint, bytes.NewReader(payload))
	if err != nil {
		return &NetworkError{Endpoint: endpoint, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.do(req)
	if err != nil {
		log.Warnf("%s request failed: %v", endpoint, err)
		return &NetworkError{Endpoint: endpoint, Err: err}
	}
	log.Request(endpoint, resp.StatusCode, resp.Timings.logFields())

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &NetworkError{
			Endpoint:   endpoint,
			StatusCode: resp.StatusCode,
			Body:       truncate(string(resp.Body), 200),
		}
	}

	if err := json.Unmarshal(resp.Body, out); err != nil {
		return &NetworkError{Endpoint: endpoint, StatusCode: 0, Err: fmt.Errorf("parse response: %w", err)}
	}
	return nil
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
