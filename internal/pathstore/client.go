package pathstore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/dgallion1/docsegment/internal/doctree"
)

// ErrNotFound is returned when no outline is stored for a document.
var ErrNotFound = errors.New("pathstore: not found")

// Client communicates with the pathstore HTTP API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Outline is the stored record for one segmented document.
type Outline struct {
	DocID          string           `json:"doc_id"`
	Filename       string           `json:"filename"`
	WellStructured bool             `json:"well_structured"`
	Tree           *doctree.DocTree `json:"tree"`
	Diagnostics    int              `json:"diagnostics"`
	StoredAt       time.Time        `json:"stored_at"`
}

// nodeRequest is the body for PUT /kv/{key}.
type nodeRequest struct {
	Value     any    `json:"value"`
	MergeMode string `json:"merge_mode,omitempty"`
	Source    string `json:"source,omitempty"`
}

// nodeResponse is the response from GET /kv/{key}.
type nodeResponse struct {
	Key   string          `json:"key_path"`
	Value json.RawMessage `json:"value"`
}

// OutlineKey is the path an outline is stored under.
func OutlineKey(docID string) string {
	return "segment/documents/" + url.PathEscape(docID) + "/outline"
}

// PutOutline stores or replaces the outline of a document.
func (c *Client) PutOutline(ctx context.Context, o Outline) error {
	body, err := json.Marshal(nodeRequest{Value: o, MergeMode: "replace", Source: "docsegment"})
	if err != nil {
		return fmt.Errorf("marshal outline: %w", err)
	}
	key := OutlineKey(o.DocID)
	resp, err := c.do(ctx, http.MethodPut, key, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("put outline: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return statusError("put outline", key, resp)
	}
	return nil
}

// GetOutline retrieves a stored outline. It returns ErrNotFound when the
// document has none.
func (c *Client) GetOutline(ctx context.Context, docID string) (*Outline, error) {
	key := OutlineKey(docID)
	resp, err := c.do(ctx, http.MethodGet, key, nil)
	if err != nil {
		return nil, fmt.Errorf("get outline: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return nil, statusError("get outline", key, resp)
	}

	var node nodeResponse
	if err := json.NewDecoder(resp.Body).Decode(&node); err != nil {
		return nil, fmt.Errorf("decode node: %w", err)
	}
	var o Outline
	if err := json.Unmarshal(node.Value, &o); err != nil {
		return nil, fmt.Errorf("decode outline: %w", err)
	}
	return &o, nil
}

// DeleteOutline removes everything stored for a document.
func (c *Client) DeleteOutline(ctx context.Context, docID string) error {
	key := "segment/documents/" + url.PathEscape(docID) + "?children=true"
	resp, err := c.do(ctx, http.MethodDelete, key, nil)
	if err != nil {
		return fmt.Errorf("delete outline: %w", err)
	}
	defer resp.Body.Close()
	switch resp.StatusCode {
	case http.StatusOK, http.StatusNoContent:
		return nil
	case http.StatusNotFound:
		return ErrNotFound
	}
	return statusError("delete outline", key, resp)
}

func (c *Client) do(ctx context.Context, method, key string, body io.Reader) (*http.Response, error) {
	httpReq, err := http.NewRequestWithContext(ctx, method, c.baseURL+"/kv/"+key, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	return c.httpClient.Do(httpReq)
}

// StatusError is an unexpected response status from pathstore.
type StatusError struct {
	Op   string
	Key  string
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: status %d: %s", e.Op, e.Key, e.Code, e.Body)
}

// Temporary reports whether retrying the request may succeed.
func (e *StatusError) Temporary() bool {
	return e.Code == http.StatusTooManyRequests || e.Code >= 500
}

func statusError(op, key string, resp *http.Response) error {
	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
	return &StatusError{Op: op, Key: key, Code: resp.StatusCode, Body: string(respBody)}
}

// Close releases idle connections.
func (c *Client) Close() {
	c.httpClient.CloseIdleConnections()
}
