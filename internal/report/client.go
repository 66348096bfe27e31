package report

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"
)

// ErrConverter is wrapped by every failure talking to the PDF converter.
var ErrConverter = errors.New("report: pdf converter failed")

// PageOptions are forwarded to the Chromium HTML route as form fields.
type PageOptions struct {
	PaperWidth      string
	PaperHeight     string
	Margin          string
	PrintBackground bool
}

// LetterPage matches a US letter sheet with half inch margins.
var LetterPage = PageOptions{PaperWidth: "8.5", PaperHeight: "11", Margin: "0.5", PrintBackground: true}

// Client wraps interactions with the Gotenberg API.
type Client struct {
	baseURL    string
	page       PageOptions
	httpClient *http.Client
}

// NewClient constructs a client for the Gotenberg instance at baseURL.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		page:       LetterPage,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Ping checks if the remote Gotenberg service is available.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrConverter, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode >= 400 {
		return fmt.Errorf("%w: health returned status %d", ErrConverter, resp.StatusCode)
	}
	return nil
}

// RenderHTML converts a standalone HTML document into PDF bytes.
func (c *Client) RenderHTML(ctx context.Context, html string) ([]byte, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("files", "index.html")
	if err != nil {
		return nil, err
	}
	if _, err := io.WriteString(part, html); err != nil {
		return nil, err
	}
	fields := map[string]string{
		"paperWidth":      c.page.PaperWidth,
		"paperHeight":     c.page.PaperHeight,
		"marginTop":       c.page.Margin,
		"marginBottom":    c.page.Margin,
		"marginLeft":      c.page.Margin,
		"marginRight":     c.page.Margin,
		"printBackground": fmt.Sprint(c.page.PrintBackground),
	}
	for name, value := range fields {
		if value == "" {
			continue
		}
		if err := writer.WriteField(name, value); err != nil {
			return nil, err
		}
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/forms/chromium/convert/html", body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConverter, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode >= 400 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w: status %d: %s", ErrConverter, resp.StatusCode, strings.TrimSpace(string(snippet)))
	}
	pdf, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", ErrConverter, err)
	}
	return pdf, nil
}
