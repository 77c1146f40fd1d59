package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	log "log/slog"
	"net/http"
	"strings"

	"secondbrain/internal/nlu"
	"secondbrain/internal/session"
)

const maxBodyBytes = 1 << 20

// Outcome is the presentable result of one backend call.
type Outcome struct {
	Success     bool   `json:"success"`
	DisplayText string `json:"display"`
	SpokenText  string `json:"spoken"`
}

func Failure(display, spoken string) Outcome {
	return Outcome{DisplayText: display, SpokenText: spoken}
}

func Success(display, spoken string) Outcome {
	return Outcome{Success: true, DisplayText: display, SpokenText: spoken}
}

// Sessions is the part of the session store the client needs.
type Sessions interface {
	Current() session.Session
	Adopt(id string) bool
}

// Client talks to the personal-data backend. None of its methods return
// errors: every failure ends up in the Outcome.
type Client struct {
	baseURL  string
	http     *http.Client
	sessions Sessions
}

func New(baseURL string, httpClient *http.Client, sessions Sessions) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		http:     httpClient,
		sessions: sessions,
	}
}

// ExecuteCommand posts a routed command to its endpoint.
func (c *Client) ExecuteCommand(ctx context.Context, cmd nlu.Command) Outcome {
	endpoint := cmd.Endpoint()
	if endpoint == "" {
		return Failure(cmd.FailurePhrase, "Request failed.")
	}

	status, body, err := c.postJSON(ctx, string(endpoint), cmd.Payload)
	if err != nil {
		log.Error("Command request failed", "endpoint", endpoint, "status", status, "err", err)
		display := fmt.Sprintf("%s Network error: %v", cmd.FailurePhrase, err)
		if status != 0 {
			display = fmt.Sprintf("[%d] %s", status, display)
		}
		return Failure(display, "Request failed.")
	}

	if !isSuccess(status) {
		log.Warn("Command rejected", "endpoint", endpoint, "status", status)
		display := fmt.Sprintf("[%d] %s", status, cmd.FailurePhrase)
		if text := strings.TrimSpace(string(body)); text != "" {
			display += " " + text
		}
		return Failure(display, "Request failed.")
	}

	log.Info("Command accepted", "endpoint", endpoint, "status", status)
	return Success(cmd.SuccessPhrase, cmd.SuccessPhrase)
}

func (c *Client) postJSON(ctx context.Context, endpoint string, v any) (int, []byte, error) {
	payload, err := json.Marshal(v)
	if err != nil {
		return 0, nil, fmt.Errorf("marshal %s payload: %w", endpoint, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url(endpoint), bytes.NewReader(payload))
	if err != nil {
		return 0, nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")

	return c.do(req)
}

func (c *Client) do(req *http.Request) (int, []byte, error) {
	log.Debug("Backend request", "method", req.Method, "url", req.URL.String())

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("read response: %w", err)
	}

	log.Debug("Backend response", "url", req.URL.String(), "status", resp.StatusCode, "bytes", len(body))
	return resp.StatusCode, body, nil
}

func (c *Client) url(endpoint string) string {
	return c.baseURL + "/" + endpoint
}

func isSuccess(status int) bool {
	return status >= 200 && status <= 299
}
