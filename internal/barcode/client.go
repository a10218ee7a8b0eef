// Package barcode looks up bottle UPCs against a product database.
package barcode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"barkeep/internal/config"

	"github.com/hashicorp/go-retryablehttp"
)

var (
	ErrNotFound    = errors.New("no product for barcode")
	ErrInvalidCode = errors.New("barcode must be 8 to 14 digits")
)

// StatusError captures non-2xx responses from the lookup service.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("barcode lookup failed: status %d", e.StatusCode)
	}
	return fmt.Sprintf("barcode lookup failed: status %d: %s", e.StatusCode, e.Body)
}

type Product struct {
	Code     string `json:"code"`
	Title    string `json:"title"`
	Brand    string `json:"brand,omitempty"`
	Category string `json:"category,omitempty"`
}

// lookupResponse is the upcitemdb lookup shape.
type lookupResponse struct {
	Code  string `json:"code"`
	Total int    `json:"total"`
	Items []struct {
		EAN      string `json:"ean"`
		UPC      string `json:"upc"`
		Title    string `json:"title"`
		Brand    string `json:"brand"`
		Category string `json:"category"`
	} `json:"items"`
}

type Client struct {
	endpoint   string
	httpClient *retryablehttp.Client
}

func NewClient(cfg config.BarcodeConfig) *Client {
	rc := retryablehttp.NewClient()
	rc.RetryMax = cfg.Retries
	rc.RetryWaitMin = 200 * time.Millisecond
	rc.RetryWaitMax = 2 * time.Second
	rc.HTTPClient.Timeout = cfg.Timeout
	rc.Logger = slog.Default()
	// hand back the last response so callers see the real status
	rc.ErrorHandler = retryablehttp.PassthroughErrorHandler
	return &Client{
		endpoint:   strings.TrimRight(cfg.Endpoint, "/"),
		httpClient: rc,
	}
}

// Lookup returns the first product the service knows for code.
func (c *Client) Lookup(ctx context.Context, code string) (Product, error) {
	code = strings.TrimSpace(code)
	if !validCode(code) {
		return Product{}, ErrInvalidCode
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"?"+url.Values{"upc": {code}}.Encode(), nil)
	if err != nil {
		return Product{}, fmt.Errorf("build barcode request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	slog.InfoContext(ctx, "looking up barcode", "code", code)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Product{}, fmt.Errorf("request barcode lookup: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 256*1024))
	if err != nil {
		return Product{}, fmt.Errorf("read barcode response: %w", err)
	}
	if resp.StatusCode == http.StatusNotFound {
		return Product{}, ErrNotFound
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return Product{}, &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	var parsed lookupResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return Product{}, fmt.Errorf("parse barcode response: %w", err)
	}
	if len(parsed.Items) == 0 {
		return Product{}, ErrNotFound
	}
	item := parsed.Items[0]
	return Product{
		Code:     code,
		Title:    strings.TrimSpace(item.Title),
		Brand:    strings.TrimSpace(item.Brand),
		Category: strings.TrimSpace(item.Category),
	}, nil
}

func validCode(code string) bool {
	if len(code) < 8 || len(code) > 14 {
		return false
	}
	for _, r := range code {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
