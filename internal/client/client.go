// Package client is a typed HTTP client for the PilgrimLink API, used by
// groupctl and by anything that needs to poll a group.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lalith-99/pilgrimlink/internal/models"
)

// Client wraps HTTP calls to the API. BaseURL is the server root, e.g.
// http://localhost:8081; the /v1 prefix is added per call.
type Client struct {
	BaseURL    string
	Token      string
	HTTPClient *http.Client
}

func New(baseURL, token string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Token:   token,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// APIError is returned when the server answers with a non-2xx status.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api: %d: %s", e.Status, e.Message)
}

// IsStatus reports whether err is an APIError with the given status.
func IsStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == status
}

// AuthResult is returned by Register and Login.
type AuthResult struct {
	Token string      `json:"token"`
	User  models.User `json:"user"`
}

type Me struct {
	User models.User `json:"user"`
	Next string      `json:"next"`
}

type JoinResult struct {
	Message        string              `json:"message"`
	Group          models.GroupSummary `json:"group"`
	CurrentGroupID uuid.UUID           `json:"currentGroupId"`
}

// Snapshot is the polling payload: current group plus its full ledger.
type Snapshot struct {
	Group               models.GroupSummary  `json:"group"`
	Messages            []models.MessageView `json:"messages"`
	PollIntervalSeconds int                  `json:"pollIntervalSeconds"`
}

type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Phone    string `json:"phone,omitempty"`
	Role     string `json:"role,omitempty"`
}

func (c *Client) Register(ctx context.Context, req RegisterRequest) (*AuthResult, error) {
	var out AuthResult
	if err := c.post(ctx, "/v1/auth/register", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	var out AuthResult
	body := map[string]string{"email": email, "password": password}
	if err := c.post(ctx, "/v1/auth/login", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Me(ctx context.Context) (*Me, error) {
	var out Me
	if err := c.get(ctx, "/v1/users/me", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) AssignRole(ctx context.Context, role models.Role) error {
	return c.post(ctx, "/v1/role", map[string]string{"role": string(role)}, nil)
}

func (c *Client) CreateGroup(ctx context.Context, name string) (*models.GroupSummary, error) {
	var out models.GroupSummary
	if err := c.post(ctx, "/v1/groups", map[string]string{"name": name}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ListGroups(ctx context.Context) ([]models.GroupStats, error) {
	var out []models.GroupStats
	if err := c.get(ctx, "/v1/groups", &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) JoinGroup(ctx context.Context, code string) (*JoinResult, error) {
	var out JoinResult
	if err := c.post(ctx, "/v1/groups/join", map[string]string{"code": code}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) OpenGroup(ctx context.Context, groupID uuid.UUID) error {
	return c.post(ctx, "/v1/groups/open", map[string]string{"groupId": groupID.String()}, nil)
}

// CurrentGroup fetches the snapshot. A 404 means the caller has no current
// group and is returned as ErrNoCurrentGroup.
func (c *Client) CurrentGroup(ctx context.Context) (*Snapshot, error) {
	var out Snapshot
	if err := c.get(ctx, "/v1/groups/current", &out); err != nil {
		if IsStatus(err, http.StatusNotFound) {
			return nil, ErrNoCurrentGroup
		}
		return nil, err
	}
	return &out, nil
}

func (c *Client) SendText(ctx context.Context, text string) (*models.MessageView, error) {
	var out models.MessageView
	if err := c.post(ctx, "/v1/messages", map[string]string{"text": text}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) SendAnnouncement(ctx context.Context, text string) (*models.MessageView, error) {
	var out models.MessageView
	if err := c.post(ctx, "/v1/messages/announcement", map[string]string{"text": text}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SendImage uploads the file at path as a multipart "image" field. The
// part's Content-Type is guessed from the file contents.
func (c *Client) SendImage(ctx context.Context, path string) (*models.MessageView, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="image"; filename=%q`, filepath.Base(path)))
	h.Set("Content-Type", http.DetectContentType(data))
	part, err := w.CreatePart(h)
	if err != nil {
		return nil, err
	}
	if _, err := part.Write(data); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/v1/messages/image", &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	var out models.MessageView
	if err := c.do(req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// --- low-level helpers ---

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return nil, err
	}
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}
	req.Header.Set("Accept", "application/json")
	return req, nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := c.newRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := c.newRequest(ctx, http.MethodPost, path, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode >= 400 {
		var errResp struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(data, &errResp) == nil && errResp.Error != "" {
			return &APIError{Status: resp.StatusCode, Message: errResp.Error}
		}
		return &APIError{Status: resp.StatusCode, Message: strings.TrimSpace(string(data))}
	}

	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
	}
	return nil
}
