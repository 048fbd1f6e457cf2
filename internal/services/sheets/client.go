package sheets

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"quill/internal/services"
)

const defaultBaseURL = "https://sheets.googleapis.com/v4"

// HTTPDoer describes the HTTP client used by the Sheets service.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client provides access to one worksheet of one spreadsheet.
type Client struct {
	baseURL       string
	spreadsheetID string
	worksheet     string
	httpClient    HTTPDoer
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

// New creates a Sheets client using the provided authorized HTTP client.
func New(httpClient HTTPDoer, spreadsheetID, worksheet string, opts ...Option) *Client {
	client := &Client{
		baseURL:       defaultBaseURL,
		spreadsheetID: spreadsheetID,
		worksheet:     worksheet,
		httpClient:    httpClient,
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

type valuesPayload struct {
	Range  string  `json:"range,omitempty"`
	Values [][]any `json:"values"`
}

// ReadAll fetches every row of the worksheet. A failure here is fatal for
// the run: reconciliation must not work from a partial snapshot. Cells are
// rendered as formulas so audio-link HYPERLINK cells keep their target;
// plain text cells come back unchanged.
func (c *Client) ReadAll(ctx context.Context) ([][]string, error) {
	payload, err := c.getRange(ctx, c.worksheet, "FORMULA")
	if err != nil {
		return nil, services.Wrap(services.ErrSourceUnavailable, "sheets", "read all", c.spreadsheetID, err)
	}
	rows := make([][]string, len(payload.Values))
	for i, row := range payload.Values {
		cells := make([]string, len(row))
		for j, cell := range row {
			cells[j] = cellString(cell)
		}
		rows[i] = cells
	}
	return rows, nil
}

// ReadCell fetches a single cell, addressed by column letter and 1-based
// row number. Missing cells read as empty.
func (c *Client) ReadCell(ctx context.Context, column string, row int) (string, error) {
	payload, err := c.getRange(ctx, fmt.Sprintf("%s!%s%d", c.worksheet, column, row), "")
	if err != nil {
		return "", fmt.Errorf("read cell %s%d: %w", column, row, err)
	}
	if len(payload.Values) == 0 || len(payload.Values[0]) == 0 {
		return "", nil
	}
	return cellString(payload.Values[0][0]), nil
}

// WriteCell writes a single cell, leaving every other cell untouched.
func (c *Client) WriteCell(ctx context.Context, column string, row int, value string) error {
	rangeRef := fmt.Sprintf("%s!%s%d", c.worksheet, column, row)
	body, err := json.Marshal(valuesPayload{Range: rangeRef, Values: [][]any{{value}}})
	if err != nil {
		return fmt.Errorf("encode write body: %w", err)
	}

	endpoint := fmt.Sprintf("%s/spreadsheets/%s/values/%s?valueInputOption=RAW",
		c.baseURL, url.PathEscape(c.spreadsheetID), url.PathEscape(rangeRef))
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build write request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("write cell %s: %w", rangeRef, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return httpError("write", resp)
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

func (c *Client) getRange(ctx context.Context, rangeRef, renderOption string) (*valuesPayload, error) {
	endpoint := fmt.Sprintf("%s/spreadsheets/%s/values/%s",
		c.baseURL, url.PathEscape(c.spreadsheetID), url.PathEscape(rangeRef))
	if renderOption != "" {
		endpoint += "?valueRenderOption=" + url.QueryEscape(renderOption)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build read request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("read range %s: %w", rangeRef, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, httpError("read", resp)
	}

	var payload valuesPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode read response: %w", err)
	}
	return &payload, nil
}

func cellString(cell any) string {
	switch v := cell.(type) {
	case string:
		return v
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

func httpError(operation string, resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
	detail := strings.TrimSpace(string(body))
	if detail == "" {
		return fmt.Errorf("sheets %s returned %d", operation, resp.StatusCode)
	}
	return fmt.Errorf("sheets %s returned %d: %s", operation, resp.StatusCode, detail)
}
