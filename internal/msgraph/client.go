package msgraph

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/oauth2"
)

const defaultBaseURL = "https://graph.microsoft.com/v1.0"

// Client is a thin HTTP client for the Microsoft Graph To Do API, scoped to
// one linked account. Construction is cheap: every call resolves the current
// access token lazily through the token source, so callers build a fresh
// client per request rather than sharing one.
type Client struct {
	baseURL    string
	src        oauth2.TokenSource
	httpClient *http.Client
	maxRetries int
}

// NewClient creates a Graph client backed by the given token source.
func NewClient(src oauth2.TokenSource) *Client {
	return &Client{
		baseURL: defaultBaseURL,
		src:     src,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		maxRetries: 3,
	}
}

// Me fetches the signed-in account's profile.
func (c *Client) Me(ctx context.Context) (*Profile, error) {
	var p Profile
	if err := c.get(ctx, "/me", &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// ListLists returns all To Do lists for the account.
func (c *Client) ListLists(ctx context.Context) ([]TaskList, error) {
	var out struct {
		Value []TaskList `json:"value"`
	}
	if err := c.get(ctx, "/me/todo/lists", &out); err != nil {
		return nil, err
	}
	for _, l := range out.Value {
		if err := validateList(l); err != nil {
			return nil, err
		}
	}
	return out.Value, nil
}

// GetDefaultList returns the account's well-known default list, or nil if the
// account has none.
func (c *Client) GetDefaultList(ctx context.Context) (*TaskList, error) {
	lists, err := c.ListLists(ctx)
	if err != nil {
		return nil, err
	}
	for _, l := range lists {
		if l.WellKnownName == wellKnownDefaultList {
			return &l, nil
		}
	}
	return nil, nil
}

// ListTasks returns all tasks under one remote list.
func (c *Client) ListTasks(ctx context.Context, listID string) ([]Task, error) {
	var out struct {
		Value []Task `json:"value"`
	}
	path := fmt.Sprintf("/me/todo/lists/%s/tasks", url.PathEscape(listID))
	if err := c.get(ctx, path, &out); err != nil {
		return nil, err
	}
	for _, t := range out.Value {
		if err := validateTask(t); err != nil {
			return nil, err
		}
	}
	return out.Value, nil
}

// ListAllListsAndTasks fetches every list and, list by list, its tasks.
// Fan-out is unbounded like the provider itself; pagination beyond provider
// defaults is not handled here.
func (c *Client) ListAllListsAndTasks(ctx context.Context) ([]ListWithTasks, error) {
	lists, err := c.ListLists(ctx)
	if err != nil {
		return nil, err
	}

	result := make([]ListWithTasks, 0, len(lists))
	for _, l := range lists {
		tasks, err := c.ListTasks(ctx, l.ID)
		if err != nil {
			return nil, fmt.Errorf("fetching tasks for list %s: %w", l.ID, err)
		}
		result = append(result, ListWithTasks{TaskList: l, Tasks: tasks})
	}
	return result, nil
}

// CreateList creates a remote list. Not idempotent: repeated calls create
// distinct remote lists.
func (c *Client) CreateList(ctx context.Context, title string) (*TaskList, error) {
	var created TaskList
	body := map[string]string{"displayName": title}
	if err := c.do(ctx, http.MethodPost, "/me/todo/lists", body, &created); err != nil {
		return nil, err
	}
	if err := validateList(created); err != nil {
		return nil, err
	}
	return &created, nil
}

// UpdateList renames a remote list.
func (c *Client) UpdateList(ctx context.Context, listID, title string) (*TaskList, error) {
	var updated TaskList
	body := map[string]string{"displayName": title}
	path := fmt.Sprintf("/me/todo/lists/%s", url.PathEscape(listID))
	if err := c.do(ctx, http.MethodPatch, path, body, &updated); err != nil {
		return nil, err
	}
	if err := validateList(updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// CreateTask creates a remote task under the given list. Not idempotent.
func (c *Client) CreateTask(ctx context.Context, listID, title, description string) (*Task, error) {
	var created Task
	body := map[string]any{
		"title": title,
		"body":  TaskBody{Content: description, ContentType: "text"},
	}
	path := fmt.Sprintf("/me/todo/lists/%s/tasks", url.PathEscape(listID))
	if err := c.do(ctx, http.MethodPost, path, body, &created); err != nil {
		return nil, err
	}
	if err := validateTask(created); err != nil {
		return nil, err
	}
	return &created, nil
}

// UpdateTask patches title, body and status of a remote task.
func (c *Client) UpdateTask(ctx context.Context, listID, taskID, title, description, status string) (*Task, error) {
	var updated Task
	body := map[string]any{
		"title":  title,
		"body":   TaskBody{Content: description, ContentType: "text"},
		"status": status,
	}
	path := fmt.Sprintf("/me/todo/lists/%s/tasks/%s", url.PathEscape(listID), url.PathEscape(taskID))
	if err := c.do(ctx, http.MethodPatch, path, body, &updated); err != nil {
		return nil, err
	}
	if err := validateTask(updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

func (c *Client) get(ctx context.Context, path string, result any) error {
	return c.do(ctx, http.MethodGet, path, nil, result)
}

// do is the core HTTP method: token resolution, JSON (de)serialization, and
// retry with backoff on HTTP 429.
func (c *Client) do(ctx context.Context, method, path string, body, result any) error {
	token, err := c.src.Token()
	if err != nil {
		if _, ok := err.(*AuthError); ok {
			return err
		}
		return &AuthError{Err: err}
	}

	var payload []byte
	if body != nil {
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshaling request body: %w", err)
		}
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		var bodyReader io.Reader
		if payload != nil {
			bodyReader = bytes.NewReader(payload)
		}

		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
		if err != nil {
			return fmt.Errorf("creating request: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+token.AccessToken)
		req.Header.Set("Accept", "application/json")
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("executing request %s %s: %w", method, path, err)
		}

		respBody, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if readErr != nil {
			return fmt.Errorf("reading response body: %w", readErr)
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			lastErr = &APIError{StatusCode: resp.StatusCode, Message: "rate limited"}
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(retryAfterDuration(resp, attempt)):
			}
			continue
		}

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return graphError(resp.StatusCode, respBody)
		}

		if result != nil && len(respBody) > 0 {
			if err := json.Unmarshal(respBody, result); err != nil {
				return &APIError{
					StatusCode: resp.StatusCode,
					Message:    fmt.Sprintf("malformed response payload: %v", err),
				}
			}
		}
		return nil
	}
	return lastErr
}

// retryAfterDuration honors the Retry-After header, falling back to
// exponential backoff.
func retryAfterDuration(resp *http.Response, attempt int) time.Duration {
	if v := resp.Header.Get("Retry-After"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs >= 0 {
			return time.Duration(secs) * time.Second
		}
	}
	return time.Duration(1<<attempt) * time.Second
}

func graphError(status int, body []byte) error {
	var parsed struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &parsed); err == nil && parsed.Error.Code != "" {
		return &APIError{StatusCode: status, Code: parsed.Error.Code, Message: parsed.Error.Message}
	}
	return &APIError{StatusCode: status, Message: string(body)}
}

func validateList(l TaskList) error {
	if l.ID == "" || l.DisplayName == "" {
		return &APIError{Message: "task list payload missing id or displayName"}
	}
	return nil
}

func validateTask(t Task) error {
	if t.ID == "" || t.Title == "" {
		return &APIError{Message: "task payload missing id or title"}
	}
	return nil
}
