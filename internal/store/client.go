package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"
)

// MaxDataChars is the store's ceiling on the serialized page body. The
// limit is enforced locally so an oversized page fails fast with a clear
// message instead of a server rejection after upload.
const MaxDataChars = 48000

// MinCredentialLen is the shortest accepted page password.
const MinCredentialLen = 4

const maxResponseSize = 10 * 1024 * 1024

// Summary is one row of the project list.
type Summary struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Author    string `json:"author"`
	Category  string `json:"category"`
	UpdatedAt string `json:"updatedAt,omitempty"`
}

// Page is a fully loaded page record. Data is the JSON-encoded body
// string; the caller decodes it into a document.
type Page struct {
	Summary
	Data string `json:"data"`
}

// SaveRequest carries everything the save action needs. An empty ID asks
// the store to mint one.
type SaveRequest struct {
	ID       string
	Title    string
	Author   string
	Category string
	Password string
	Data     string
}

// envelope is the store's uniform response shape. Data is an inline JSON
// value whose shape depends on the action (a summary array for list, a
// page object for get), so it is held raw and decoded per action.
type envelope struct {
	Status  string          `json:"status"`
	Message string          `json:"message,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
	ID      string          `json:"id,omitempty"`
}

// Client talks to one store endpoint. Safe for concurrent use.
type Client struct {
	endpoint string
	client   *http.Client
}

// New creates a client for the given endpoint URL. Environment variables
// in the URL are expanded so deployments can keep the endpoint out of
// config files.
func New(endpoint string, timeout time.Duration) (*Client, error) {
	if endpoint == "" {
		return nil, &ValidationError{Field: "endpoint", Reason: "store endpoint is required"}
	}
	endpoint = os.ExpandEnv(endpoint)
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		endpoint: endpoint,
		client:   &http.Client{Timeout: timeout},
	}, nil
}

// List fetches the project list.
func (c *Client) List(ctx context.Context) ([]Summary, error) {
	env, err := c.read(ctx, "list", url.Values{})
	if err != nil {
		return nil, err
	}
	var summaries []Summary
	if err := json.Unmarshal(env.Data, &summaries); err != nil {
		return nil, &ServerResponseError{Action: "list", StatusCode: http.StatusOK,
			Message: fmt.Sprintf("malformed list payload: %v", err)}
	}
	return summaries, nil
}

// Get loads one page by id. Reading needs no credential; pages are public
// once shared.
func (c *Client) Get(ctx context.Context, id string) (*Page, error) {
	if id == "" {
		return nil, &ValidationError{Field: "id", Reason: "page id is required"}
	}
	env, err := c.read(ctx, "get", url.Values{"id": {id}})
	if err != nil {
		return nil, err
	}
	var page Page
	if err := json.Unmarshal(env.Data, &page); err != nil {
		return nil, &ServerResponseError{Action: "get", StatusCode: http.StatusOK,
			Message: fmt.Sprintf("malformed page payload: %v", err)}
	}
	if page.ID == "" {
		page.ID = id
	}
	return &page, nil
}

// Verify checks a credential against a page without loading it. A nil
// error means the credential was accepted; editing flows call this before
// Get so a wrong password never opens the editor.
func (c *Client) Verify(ctx context.Context, id, password string) error {
	if id == "" {
		return &ValidationError{Field: "id", Reason: "page id is required"}
	}
	if err := checkPassword(password); err != nil {
		return err
	}
	_, err := c.write(ctx, "verify", map[string]string{"id": id, "password": password})
	return err
}

// Save uploads a page and returns the store-assigned id. The body size
// guard runs before any network traffic.
func (c *Client) Save(ctx context.Context, req SaveRequest) (string, error) {
	if err := checkPassword(req.Password); err != nil {
		return "", err
	}
	if req.Title == "" {
		return "", &ValidationError{Field: "title", Reason: "title is required"}
	}
	if n := len(req.Data); n > MaxDataChars {
		return "", &ValidationError{Field: "data",
			Reason: fmt.Sprintf("page is too large to save: %d of %d allowed characters", n, MaxDataChars)}
	}
	payload := map[string]string{
		"title":    req.Title,
		"author":   req.Author,
		"category": req.Category,
		"password": req.Password,
		"data":     req.Data,
	}
	// First saves omit the id; the store mints one and returns it.
	if req.ID != "" {
		payload["id"] = req.ID
	}
	env, err := c.write(ctx, "save", payload)
	if err != nil {
		return "", err
	}
	if env.ID == "" {
		return "", &ServerResponseError{Action: "save", StatusCode: http.StatusOK,
			Message: "save succeeded but no id was returned"}
	}
	return env.ID, nil
}

// Delete removes a page. Like save it is credential-gated.
func (c *Client) Delete(ctx context.Context, id, password string) error {
	if id == "" {
		return &ValidationError{Field: "id", Reason: "page id is required"}
	}
	if err := checkPassword(password); err != nil {
		return err
	}
	_, err := c.write(ctx, "delete", map[string]string{"id": id, "password": password})
	return err
}

func checkPassword(password string) error {
	if len(password) < MinCredentialLen {
		return &ValidationError{Field: "password",
			Reason: fmt.Sprintf("password must be at least %d characters", MinCredentialLen)}
	}
	return nil
}

// read issues a query action as a GET with the action and its parameters
// in the query string.
func (c *Client) read(ctx context.Context, action string, params url.Values) (*envelope, error) {
	params.Set("action", action)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, &TransportError{Action: action, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	return c.do(req, action, params.Get("id"))
}

// write issues a mutating action as a POST with a JSON body carrying the
// action alongside its parameters.
func (c *Client) write(ctx context.Context, action string, payload map[string]string) (*envelope, error) {
	payload["action"] = action
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, &TransportError{Action: action, Err: err}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint,
		bytes.NewReader(body))
	if err != nil {
		return nil, &TransportError{Action: action, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	return c.do(req, action, payload["id"])
}

// do performs one round trip and decodes the envelope. Error envelopes are
// mapped to the typed taxonomy using the store's message conventions.
func (c *Client) do(req *http.Request, action, id string) (*envelope, error) {
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &TransportError{Action: action, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, &TransportError{Action: action, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &ServerResponseError{Action: action, StatusCode: resp.StatusCode,
			Message: strings.TrimSpace(string(body))}
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, &ServerResponseError{Action: action, StatusCode: resp.StatusCode,
			Message: fmt.Sprintf("malformed response: %v", err)}
	}
	if env.Status != "success" {
		return nil, classifyFailure(action, id, env.Message)
	}
	return &env, nil
}

// classifyFailure maps an error envelope to the typed taxonomy. The store
// signals auth and missing-page failures only through its message text,
// so matching here is deliberately loose.
func classifyFailure(action, id, message string) error {
	lower := strings.ToLower(message)
	switch {
	case strings.Contains(lower, "password") || strings.Contains(lower, "denied") ||
		strings.Contains(lower, "unauthorized"):
		return &AuthError{PageID: id}
	case strings.Contains(lower, "not found") || strings.Contains(lower, "no such"):
		return &NotFoundError{PageID: id}
	}
	return &ServerResponseError{Action: action, StatusCode: http.StatusOK, Message: message}
}
