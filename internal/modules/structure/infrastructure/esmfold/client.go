package esmfold

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"EpiPredict/internal/modules/structure/domain/repository"
)

// DefaultEndpoint ESM Atlas 公共折叠接口
const DefaultEndpoint = "https://api.esmatlas.com/foldSequence/v1/pdb/"

// maxErrorBody 上游错误信息最多透传的字节数
const maxErrorBody = 512

// MaxPDBBytes PDB 响应体上限，400 残基的全原子结构远小于该值
const MaxPDBBytes = 32 << 20

// UpstreamError 上游返回非 2xx
type UpstreamError struct {
	StatusCode int
	Body       string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("esmfold returned %d: %s", e.StatusCode, e.Body)
}

// Client ESMFold HTTP 客户端
type Client struct {
	endpoint string
	http     *http.Client
	maxBody  int64
}

// NewClient timeout <= 0 时使用 60s，请求总是有上限
func NewClient(endpoint string, timeout time.Duration) *Client {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Client{endpoint: endpoint, http: &http.Client{Timeout: timeout}, maxBody: MaxPDBBytes}
}

var _ repository.FoldingClient = (*Client)(nil)

func (c *Client) Fold(ctx context.Context, sequence string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, strings.NewReader(sequence))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "text/plain")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("esmfold request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return "", &UpstreamError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBody+1))
	if err != nil {
		return "", fmt.Errorf("read esmfold response: %w", err)
	}
	if int64(len(body)) > c.maxBody {
		return "", fmt.Errorf("esmfold response exceeds %d bytes", c.maxBody)
	}
	return string(body), nil
}
