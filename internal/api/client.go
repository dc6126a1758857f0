// Package api is the HTTP client for the remote expense API. The server and
// its persistence are external collaborators; this package only speaks the
// POST /expenses multipart contract and classifies failures into the
// transport / rejection / decode taxonomy the rest of the system keys on.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Submission is one expense ready to be sent to the server
type Submission struct {
	Category   string
	Amount     float64
	Date       string
	Location   string
	Note       string
	Kilometers *float64

	Image     []byte
	ImageName string

	// IdempotencyKey lets the server collapse a duplicate replay of the same
	// queued entry from concurrent drain passes.
	IdempotencyKey string
}

// ExpenseRecord is the server's representation of an accepted expense
type ExpenseRecord struct {
	ID        string  `json:"_id"`
	Category  string  `json:"category"`
	Amount    float64 `json:"amount"`
	Date      string  `json:"date"`
	Location  string  `json:"location,omitempty"`
	Note      string  `json:"note,omitempty"`
	Status    string  `json:"status"`
	ImageURL  string  `json:"imageUrl,omitempty"`
	CreatedAt string  `json:"createdAt,omitempty"`
}

type errorBody struct {
	Message string `json:"message"`
}

// Config holds API client configuration
type Config struct {
	BaseURL string
	Timeout time.Duration
}

// Client submits expenses to the remote API
type Client struct {
	httpClient *http.Client
	baseURL    string
	logger     *zap.Logger
}

// NewClient creates a new expense API client
func NewClient(cfg Config, logger *zap.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		logger:     logger,
	}
}

// BaseURL returns the configured API endpoint
func (c *Client) BaseURL() string {
	return c.baseURL
}

// SubmitExpense sends one expense as multipart/form-data to
// <baseURL>/expenses. An empty baseURL falls back to the client's configured
// endpoint. The error is a *TransportError when no response was received and
// a *APIError when the server rejected the submission; a bounded timeout
// counts as no response.
func (c *Client) SubmitExpense(ctx context.Context, baseURL, token string, sub *Submission) (*ExpenseRecord, error) {
	if baseURL == "" {
		baseURL = c.baseURL
	}
	baseURL = strings.TrimRight(baseURL, "/")

	body, contentType, err := encodeForm(sub)
	if err != nil {
		return nil, fmt.Errorf("failed to encode expense form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+"/expenses", body)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if sub.IdempotencyKey != "" {
		req.Header.Set("Idempotency-Key", sub.IdempotencyKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Debug("Expense submission got no response",
			zap.String("base_url", baseURL),
			zap.Error(err))
		return nil, &TransportError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var eb errorBody
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		if jsonErr := json.Unmarshal(data, &eb); jsonErr != nil || eb.Message == "" {
			eb.Message = http.StatusText(resp.StatusCode)
		}
		c.logger.Warn("Expense submission rejected",
			zap.Int("status", resp.StatusCode),
			zap.String("message", eb.Message))
		return nil, &APIError{StatusCode: resp.StatusCode, Message: eb.Message}
	}

	var record ExpenseRecord
	if err := json.NewDecoder(resp.Body).Decode(&record); err != nil {
		// The server accepted the expense; a malformed body must not be
		// treated as a failed submission or the entry would be re-sent.
		c.logger.Warn("Failed to decode server response", zap.Error(err))
		return &ExpenseRecord{Status: "Pending"}, nil
	}
	if record.Status == "" {
		record.Status = "Pending"
	}

	return &record, nil
}

func encodeForm(sub *Submission) (*bytes.Buffer, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	fields := map[string]string{
		"category": sub.Category,
		"amount":   strconv.FormatFloat(sub.Amount, 'f', -1, 64),
		"date":     sub.Date,
		"location": sub.Location,
		"note":     sub.Note,
	}
	for name, value := range fields {
		if err := w.WriteField(name, value); err != nil {
			return nil, "", err
		}
	}
	if sub.Kilometers != nil {
		if err := w.WriteField("kilometers", strconv.FormatFloat(*sub.Kilometers, 'f', -1, 64)); err != nil {
			return nil, "", err
		}
	}

	if len(sub.Image) > 0 {
		name := sub.ImageName
		if name == "" {
			name = fmt.Sprintf("receipt-%d.png", time.Now().UnixMilli())
		}
		part, err := w.CreateFormFile("image", name)
		if err != nil {
			return nil, "", err
		}
		if _, err := part.Write(sub.Image); err != nil {
			return nil, "", err
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}
