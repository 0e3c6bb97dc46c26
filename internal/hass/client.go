package hass

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Logger defines the logging interface used by the Client.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Config contains the connection settings for a Home Assistant instance.
type Config struct {
	// URL is the base URL, e.g. "http://homeassistant.local:8123".
	URL string

	// Token is a long-lived access token.
	Token string

	// Timeout bounds individual round trips. Defaults to 10s.
	Timeout time.Duration
}

// Client talks to a Home Assistant instance over its REST and WebSocket
// APIs. All methods are safe for concurrent use.
type Client struct {
	baseURL *url.URL
	token   string
	http    *http.Client
	timeout time.Duration
	logger  Logger
}

// NewClient creates a Client for the given instance.
//
// Returns:
//   - *Client: Ready-to-use client (no connection is made yet)
//   - error: If the base URL cannot be parsed
func NewClient(cfg Config) (*Client, error) {
	base, err := url.Parse(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parsing base URL: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("unsupported URL scheme %q", base.Scheme)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &Client{
		baseURL: base,
		token:   cfg.Token,
		http:    &http.Client{Timeout: timeout},
		timeout: timeout,
		logger:  noopLogger{},
	}, nil
}

// SetLogger sets the logger for the client.
func (c *Client) SetLogger(logger Logger) {
	c.logger = logger
}

// BaseURL returns the configured base URL, for building user-facing links.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// States fetches the current state snapshot of every entity.
func (c *Client) States(ctx context.Context) ([]Entity, error) {
	var entities []Entity
	if err := c.get(ctx, "states", &entities); err != nil {
		return nil, err
	}
	return entities, nil
}

// State fetches the current state of a single entity.
// Returns ErrNotFound if the entity does not exist.
func (c *Client) State(ctx context.Context, entityID string) (*Entity, error) {
	var entity Entity
	if err := c.get(ctx, "states/"+EscapeID(entityID), &entity); err != nil {
		return nil, err
	}
	return &entity, nil
}

// ServicesRaw fetches the services schema as raw JSON. The schema package
// owns parsing; keeping the wire payload opaque here avoids an import cycle
// between the boundary client and the selector model.
func (c *Client) ServicesRaw(ctx context.Context) (json.RawMessage, error) {
	var raw json.RawMessage
	if err := c.get(ctx, "services", &raw); err != nil {
		return nil, err
	}
	return raw, nil
}

// ServiceCallResult holds the outcome of a service call.
type ServiceCallResult struct {
	// ChangedEntities are the entity states changed while the call ran.
	ChangedEntities []Entity

	// Response is the structured service response, if one was requested
	// and returned.
	Response json.RawMessage
}

// CallService invokes a service.
//
// When returnResponse is set the call asks for a structured response; if the
// service does not support responses the distinguished ErrResponseUnsupported
// is returned so the caller can retry plainly.
//
// Parameters:
//   - domain: Service namespace (e.g. "light")
//   - service: Service name (e.g. "turn_on")
//   - data: Service data including any target ID lists
//   - returnResponse: Request a structured response
func (c *Client) CallService(ctx context.Context, domain, service string, data map[string]any, returnResponse bool) (*ServiceCallResult, error) {
	path := fmt.Sprintf("services/%s/%s", EscapeID(domain), EscapeID(service))
	if returnResponse {
		path += "?return_response"
	}

	body, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("encoding service data: %w", err)
	}

	respBody, err := c.post(ctx, path, body)
	if err != nil {
		return nil, err
	}

	result := &ServiceCallResult{}
	if returnResponse {
		// With return_response the payload wraps both parts.
		var wrapped struct {
			ChangedStates   []Entity        `json:"changed_states"`
			ServiceResponse json.RawMessage `json:"service_response"`
		}
		if err := json.Unmarshal(respBody, &wrapped); err != nil {
			return nil, fmt.Errorf("decoding service response: %w", err)
		}
		result.ChangedEntities = wrapped.ChangedStates
		result.Response = wrapped.ServiceResponse
		return result, nil
	}

	if err := json.Unmarshal(respBody, &result.ChangedEntities); err != nil {
		return nil, fmt.Errorf("decoding changed states: %w", err)
	}
	return result, nil
}

// ConversationResult holds the reply to a conversation request.
type ConversationResult struct {
	// Speech is the plain-text reply, if any.
	Speech string

	// Success reports whether the intent was handled (action done or
	// query answered).
	Success bool

	// ConversationID continues the conversation on the next request.
	ConversationID string

	// Continue reports whether the agent expects a follow-up.
	Continue bool
}

// Conversation sends text to the conversation agent.
//
// Parameters:
//   - text: The user's message
//   - language: Conversation language code (e.g. "en")
//   - conversationID: Prior conversation to continue, or "" to start fresh
func (c *Client) Conversation(ctx context.Context, text, language, conversationID string) (*ConversationResult, error) {
	payload := map[string]any{
		"text":     text,
		"language": language,
	}
	if conversationID != "" {
		payload["conversation_id"] = conversationID
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encoding conversation request: %w", err)
	}

	respBody, err := c.post(ctx, "conversation/process", body)
	if err != nil {
		return nil, err
	}

	var decoded struct {
		Response struct {
			ResponseType string `json:"response_type"`
			Speech       struct {
				Plain struct {
					Speech string `json:"speech"`
				} `json:"plain"`
			} `json:"speech"`
		} `json:"response"`
		ConversationID       string `json:"conversation_id"`
		ContinueConversation bool   `json:"continue_conversation"`
	}
	if err := json.Unmarshal(respBody, &decoded); err != nil {
		return nil, fmt.Errorf("decoding conversation response: %w", err)
	}

	rt := decoded.Response.ResponseType
	return &ConversationResult{
		Speech:         decoded.Response.Speech.Plain.Speech,
		Success:        rt == "action_done" || rt == "query_answer",
		ConversationID: decoded.ConversationID,
		Continue:       decoded.ContinueConversation,
	}, nil
}

// HealthCheck verifies the instance is reachable and the token is accepted.
func (c *Client) HealthCheck(ctx context.Context) error {
	var status struct {
		Message string `json:"message"`
	}
	if err := c.get(ctx, "", &status); err != nil {
		return err
	}
	return nil
}

// get performs a GET against /api/<path> and decodes the JSON response.
func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := c.newRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("requesting %s: %w", path, err)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return err
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding %s response: %w", path, err)
	}
	return nil
}

// post performs a POST against /api/<path> and returns the raw response body.
func (c *Client) post(ctx context.Context, path string, body []byte) ([]byte, error) {
	req, err := c.newRequest(ctx, http.MethodPost, path, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("requesting %s: %w", path, err)
	}
	defer resp.Body.Close()

	respBody, readErr := io.ReadAll(resp.Body)

	if err := checkStatusBody(resp, respBody); err != nil {
		return nil, err
	}
	if readErr != nil {
		return nil, fmt.Errorf("reading %s response: %w", path, readErr)
	}
	return respBody, nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	u := c.baseURL.JoinPath("api")
	if path != "" {
		// JoinPath escapes path segments; query suffixes are split off first.
		rawPath, query, _ := strings.Cut(path, "?")
		u = c.baseURL.JoinPath(append([]string{"api"}, strings.Split(rawPath, "/")...)...)
		u.RawQuery = query
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	return req, nil
}

func checkStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	return statusError(resp.StatusCode, body)
}

func checkStatusBody(resp *http.Response, body []byte) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	return statusError(resp.StatusCode, body)
}

func statusError(status int, body []byte) error {
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return ErrUnauthorized
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusBadRequest:
		// Home Assistant reports a service that cannot return a structured
		// response with a 400 carrying this exact phrase. Only that specific
		// signal maps to the distinguished error.
		if bytes.Contains(body, []byte("does not support responses")) {
			return ErrResponseUnsupported
		}
	}
	return fmt.Errorf("hass: unexpected status %d: %s", status, truncateBody(body))
}

func truncateBody(body []byte) string {
	const limit = 200
	s := string(body)
	if len(s) > limit {
		return s[:limit] + "..."
	}
	return s
}
