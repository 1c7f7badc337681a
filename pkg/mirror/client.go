package mirror

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"crossposter/pkg/config"
	errs "crossposter/pkg/errors"
	"crossposter/pkg/logger"
)

// Client fetches listing pages and media assets from a mirror front-end
type Client struct {
	httpClient *http.Client
	headers    map[string]string
	baseURL    string
	filter     string
	logger     logger.Logger
}

// NewClient creates a new mirror client
func NewClient(cfg config.MirrorConfig, log logger.Logger) *Client {
	if log == nil {
		log = logger.GetLogger()
	}

	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = config.DefaultUserAgent
	}
	filter := cfg.SearchFilter
	if filter == "" {
		filter = "tweets"
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		headers: map[string]string{
			"User-Agent":      userAgent,
			"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8",
			"Accept-Language": "en-US,en;q=0.9",
		},
		baseURL: cfg.BaseURL,
		filter:  filter,
		logger:  log,
	}
}

// SetHTTPClient replaces the underlying HTTP client
func (c *Client) SetHTTPClient(hc *http.Client) {
	c.httpClient = hc
}

// SetHeader sets a custom header for the client
func (c *Client) SetHeader(key, value string) {
	c.headers[key] = value
}

// BaseURL returns the mirror base URL
func (c *Client) BaseURL() string {
	return c.baseURL
}

// doRequest performs an HTTP request with the configured headers
func (c *Client) doRequest(req *http.Request) (*http.Response, error) {
	for key, value := range c.headers {
		req.Header.Set(key, value)
	}

	start := time.Now()
	c.logger.DebugWithFields("sending HTTP request", map[string]interface{}{
		"method": req.Method,
		"url":    req.URL.String(),
	})

	resp, err := c.httpClient.Do(req)
	duration := time.Since(start)

	if err != nil {
		c.logger.ErrorWithFields("HTTP request failed", map[string]interface{}{
			"method":   req.Method,
			"url":      req.URL.String(),
			"error":    err.Error(),
			"duration": duration,
		})
		return nil, errs.Wrap(errs.ErrorTypeNetwork, err, "network error")
	}

	c.logger.DebugWithFields("HTTP request completed", map[string]interface{}{
		"method":   req.Method,
		"url":      req.URL.String(),
		"status":   resp.StatusCode,
		"duration": duration,
	})

	return resp, nil
}

// get performs a GET and returns the body of a successful response
func (c *Client) get(ctx context.Context, url string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", errs.Wrap(errs.ErrorTypeUnknown, err, "failed to create request")
	}

	resp, err := c.doRequest(req)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	if err := c.checkResponseStatus(resp, url); err != nil {
		return nil, "", err
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", &errs.Error{
			Type:    errs.ErrorTypeNetwork,
			Message: fmt.Sprintf("failed to read response body: %v", err),
			Code:    resp.StatusCode,
			Err:     err,
		}
	}

	return body, resp.Header.Get("Content-Type"), nil
}

// checkResponseStatus maps non-success statuses to typed errors
func (c *Client) checkResponseStatus(resp *http.Response, url string) error {
	apiErr := errs.FromStatusCode(resp.StatusCode, url)
	if apiErr == nil {
		return nil
	}

	c.logger.WarnWithFields("mirror returned an error status", map[string]interface{}{
		"status": resp.StatusCode,
		"url":    url,
		"type":   string(apiErr.Type),
	})
	return apiErr
}

// FetchPage downloads one page of an account's listing
func (c *Client) FetchPage(ctx context.Context, account string, page int) ([]byte, error) {
	url := ListingURL(c.baseURL, account, c.filter, page)

	c.logger.DebugWithFields("fetching listing page", map[string]interface{}{
		"account": account,
		"page":    page,
		"url":     url,
	})

	body, _, err := c.get(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch page %d: %w", page, err)
	}

	return body, nil
}

// FetchMedia downloads an image or video asset and returns its bytes and MIME type
func (c *Client) FetchMedia(ctx context.Context, mediaURL string) ([]byte, string, error) {
	c.logger.DebugWithFields("downloading media", map[string]interface{}{
		"url": mediaURL,
	})

	data, contentType, err := c.get(ctx, mediaURL)
	if err != nil {
		return nil, "", fmt.Errorf("failed to download media: %w", err)
	}
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}

	c.logger.DebugWithFields("media downloaded", map[string]interface{}{
		"url":          mediaURL,
		"size":         len(data),
		"content_type": contentType,
	})

	return data, contentType, nil
}
