package detector

import (
	"context"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/example/deepfake-check/internal/logging"
)

type detectRequest struct {
	Input []string `json:"input"`
}

// NewHTTPClient returns a client for the hosted deepfake image detection
// endpoint at invokeURL, authenticated with a bearer apiKey.
func NewHTTPClient(invokeURL, apiKey string, timeout time.Duration, logger *zap.Logger) Client {
	return &httpDetector{
		http: resty.New().
			SetTimeout(timeout).
			SetAuthToken(apiKey).
			SetHeader("Accept", "application/json"),
		url:    invokeURL,
		logger: logger.Named("detector"),
	}
}

type httpDetector struct {
	http   *resty.Client
	url    string
	logger *zap.Logger
}

func (d *httpDetector) Detect(ctx context.Context, mediaType string, image []byte) (Result, error) {
	if mediaType == "" {
		mediaType = "image/png"
	}
	body := detectRequest{Input: []string{
		fmt.Sprintf("data:%s;base64,%s", mediaType, base64.StdEncoding.EncodeToString(image)),
	}}

	var result Result
	resp, err := d.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		ForceContentType("application/json").
		SetBody(body).
		SetResult(&result).
		Post(d.url)
	if err != nil {
		wrapped := logging.NewOperationError("detector.detect", "", err)
		d.logger.Error("detection call failed", zap.Error(wrapped), zap.String("url", d.url))
		return nil, wrapped
	}
	if !resp.IsSuccess() {
		wrapped := logging.NewOperationError("detector.detect", "",
			fmt.Errorf("unexpected status %d: %s", resp.StatusCode(), truncate(resp.String(), 256)))
		d.logger.Error("detection call rejected", zap.Error(wrapped), zap.Int("status", resp.StatusCode()))
		return nil, wrapped
	}
	if result == nil {
		return nil, logging.NewOperationError("detector.detect", "", fmt.Errorf("empty detection response"))
	}
	return result, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
