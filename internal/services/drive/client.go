package drive

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"quill/internal/services"
)

const defaultBaseURL = "https://www.googleapis.com/drive/v3"

// File is one audio object as reported by the storage collaborator.
type File struct {
	ID         string
	Name       string
	MimeType   string
	ModifiedAt time.Time
}

// HTTPDoer describes the HTTP client used by the Drive service.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client provides access to the Drive API.
type Client struct {
	baseURL    string
	httpClient HTTPDoer
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the API endpoint (used in tests).
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		if trimmed := strings.TrimRight(strings.TrimSpace(baseURL), "/"); trimmed != "" {
			c.baseURL = trimmed
		}
	}
}

// New creates a Drive client using the provided authorized HTTP client.
func New(httpClient HTTPDoer, opts ...Option) *Client {
	client := &Client{
		baseURL:    defaultBaseURL,
		httpClient: httpClient,
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

type listResponse struct {
	Files []struct {
		ID           string    `json:"id"`
		Name         string    `json:"name"`
		MimeType     string    `json:"mimeType"`
		ModifiedTime time.Time `json:"modifiedTime"`
	} `json:"files"`
	NextPageToken string `json:"nextPageToken"`
}

// List enumerates the files in a folder, following pagination. A failure at
// any page aborts the whole listing.
func (c *Client) List(ctx context.Context, folderID string) ([]File, error) {
	var files []File
	pageToken := ""
	for {
		page, next, err := c.listPage(ctx, folderID, pageToken)
		if err != nil {
			return nil, services.Wrap(services.ErrSourceUnavailable, "drive", "list", fmt.Sprintf("folder %s", folderID), err)
		}
		files = append(files, page...)
		if next == "" {
			return files, nil
		}
		pageToken = next
	}
}

func (c *Client) listPage(ctx context.Context, folderID, pageToken string) ([]File, string, error) {
	query := url.Values{}
	query.Set("q", fmt.Sprintf("'%s' in parents and trashed=false", folderID))
	query.Set("fields", "nextPageToken,files(id,name,mimeType,modifiedTime)")
	query.Set("pageSize", "1000")
	if pageToken != "" {
		query.Set("pageToken", pageToken)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/files?"+query.Encode(), nil)
	if err != nil {
		return nil, "", fmt.Errorf("build list request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("list files: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", httpError("list", resp)
	}

	var payload listResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, "", fmt.Errorf("decode list response: %w", err)
	}

	files := make([]File, 0, len(payload.Files))
	for _, f := range payload.Files {
		files = append(files, File{
			ID:         f.ID,
			Name:       f.Name,
			MimeType:   f.MimeType,
			ModifiedAt: f.ModifiedTime,
		})
	}
	return files, payload.NextPageToken, nil
}

// Download fetches the raw bytes of one file.
func (c *Client) Download(ctx context.Context, fileID string) ([]byte, error) {
	endpoint := fmt.Sprintf("%s/files/%s?alt=media", c.baseURL, url.PathEscape(fileID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build download request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download %s: %w", fileID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, httpError("download", resp)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read download body: %w", err)
	}
	return data, nil
}

func httpError(operation string, resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
	detail := strings.TrimSpace(string(body))
	if detail == "" {
		return fmt.Errorf("drive %s returned %d", operation, resp.StatusCode)
	}
	return fmt.Errorf("drive %s returned %d: %s", operation, resp.StatusCode, detail)
}
