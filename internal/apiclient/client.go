// Package apiclient talks to the deepfake analysis endpoint.
package apiclient

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/example/deepfake-check/internal/detection"
)

// FallbackMessage is shown when a failed upload carries no usable message.
const FallbackMessage = "Upload failed"

// Error is returned for transport failures and non-2xx responses.
type Error struct {
	StatusCode int
	// ServerMessage is the "error" field of the response body, if any.
	ServerMessage string
	Err           error
}

func (e *Error) Error() string {
	switch {
	case e.ServerMessage != "":
		return fmt.Sprintf("upload rejected (status %d): %s", e.StatusCode, e.ServerMessage)
	case e.Err != nil:
		return fmt.Sprintf("upload failed: %v", e.Err)
	default:
		return fmt.Sprintf("upload failed with status %d", e.StatusCode)
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Message extracts the human readable text to display for err.
func Message(err error) string {
	var apiErr *Error
	if errors.As(err, &apiErr) && apiErr.ServerMessage != "" {
		return apiErr.ServerMessage
	}
	return FallbackMessage
}

// Client posts images to {endpoint}/upload. It has no timeout and never
// retries; the caller's context bounds the request.
type Client struct {
	http   *resty.Client
	url    string
	logger *zap.Logger
}

// New builds a client. endpoint is used as given apart from trailing slashes.
func New(endpoint string, logger *zap.Logger) *Client {
	return &Client{
		http: resty.New().
			SetHeader("Accept", "application/json").
			SetRetryCount(0),
		url:    strings.TrimRight(endpoint, "/") + "/upload",
		logger: logger.Named("apiclient"),
	}
}

// URL is the fully resolved upload address.
func (c *Client) URL() string { return c.url }

// Upload sends the base64 encoded image (no data URL prefix) and decodes the
// analysis payload. Bodies are decoded as JSON whatever Content-Type the
// server declares.
func (c *Client) Upload(ctx context.Context, image string) (*detection.Response, error) {
	var (
		payload detection.Response
		failure detection.ErrorResponse
	)
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		ForceContentType("application/json").
		SetBody(detection.UploadRequest{Image: image}).
		SetResult(&payload).
		SetError(&failure).
		Post(c.url)
	if err != nil {
		c.logger.Warn("upload request failed", zap.String("url", c.url), zap.Error(err))
		apiErr := &Error{Err: err, ServerMessage: failure.Error}
		if resp != nil {
			apiErr.StatusCode = resp.StatusCode()
		}
		return nil, apiErr
	}
	if resp.IsError() || resp.StatusCode() < 200 || resp.StatusCode() > 299 {
		c.logger.Warn("upload rejected",
			zap.String("url", c.url),
			zap.Int("status", resp.StatusCode()),
			zap.String("error", failure.Error),
		)
		return nil, &Error{StatusCode: resp.StatusCode(), ServerMessage: failure.Error}
	}

	c.logger.Debug("upload succeeded", zap.Int("status", resp.StatusCode()))
	return &payload, nil
}
