package msgraph

import "fmt"

// Task statuses understood by the To Do API. Only these two are mirrored;
// Graph's intermediate statuses collapse to not-completed locally.
const (
	StatusCompleted  = "completed"
	StatusNotStarted = "notStarted"
)

// wellKnownDefaultList marks the account's default task list.
const wellKnownDefaultList = "defaultList"

// TaskList is a snapshot of a remote To Do list.
type TaskList struct {
	ID            string `json:"id"`
	DisplayName   string `json:"displayName"`
	WellKnownName string `json:"wellknownListName,omitempty"`
}

// TaskBody carries the free-form task description.
type TaskBody struct {
	Content     string `json:"content"`
	ContentType string `json:"contentType"`
}

// Task is a snapshot of a remote To Do task.
type Task struct {
	ID     string   `json:"id"`
	Title  string   `json:"title"`
	Status string   `json:"status"`
	Body   TaskBody `json:"body"`
}

// ListWithTasks pairs a remote list with all of its tasks, as returned by the
// bulk fetch.
type ListWithTasks struct {
	TaskList
	Tasks []Task
}

// Profile is the subset of the Graph /me payload the API exposes.
type Profile struct {
	ID                string `json:"id"`
	DisplayName       string `json:"displayName"`
	Mail              string `json:"mail"`
	UserPrincipalName string `json:"userPrincipalName"`
}

// Completed reports whether the remote task status maps to a completed todo.
func (t Task) Completed() bool {
	return t.Status == StatusCompleted
}

// AuthError indicates the access token could not be silently resolved for the
// linked account (no cached token, or the refresh was rejected). It is not
// retried; callers decide whether to treat the user as unlinked.
type AuthError struct {
	AccountID string
	Err       error
}

func (e *AuthError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("msgraph: authentication failed for account %s: %v", e.AccountID, e.Err)
	}
	return fmt.Sprintf("msgraph: authentication failed for account %s", e.AccountID)
}

func (e *AuthError) Unwrap() error { return e.Err }

// APIError is any non-auth Graph failure: an error response, or a payload
// missing required fields. Missing fields are an error, never a silent nil.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("msgraph: %s (status %d): %s", e.Code, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("msgraph: request failed (status %d): %s", e.StatusCode, e.Message)
}
