// Package storage talks to the Supabase Storage REST API, where receipt PDFs and
// expense attachments are kept in private buckets.
package storage

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/residential-billing-ledger/internal/config"
)

// ObjectStore uploads objects and hands out time-limited download links.
type ObjectStore interface {
	Upload(ctx context.Context, bucket, objectPath string, data []byte, contentType string) (*UploadResult, error)
	SignedURL(ctx context.Context, bucket, objectPath string, expiresIn time.Duration) (string, error)
}

// UploadResult describes the bytes that were stored.
type UploadResult struct {
	SizeBytes int64
	SHA256    string
}

// ErrNotConfigured is returned when no storage URL or key was provided.
var ErrNotConfigured = errors.New("object storage is not configured")

// RequestError carries the status and body of a non-2xx storage response.
type RequestError struct {
	Op         string
	StatusCode int
	Body       string
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("storage %s failed (%d): %s", e.Op, e.StatusCode, e.Body)
}

// SupabaseClient implements ObjectStore against {base}/storage/v1.
type SupabaseClient struct {
	baseURL    string
	serviceKey string
	httpClient *http.Client
	logger     *slog.Logger
}

var _ ObjectStore = (*SupabaseClient)(nil)

func NewSupabaseClient(logger *slog.Logger, cfg *config.StorageConfig) *SupabaseClient {
	return &SupabaseClient{
		baseURL:    strings.TrimRight(cfg.URL, "/"),
		serviceKey: cfg.ServiceKey,
		httpClient: &http.Client{Timeout: cfg.RequestTimeout},
		logger:     logger,
	}
}

// Upload stores data at bucket/objectPath, overwriting any existing object.
func (c *SupabaseClient) Upload(ctx context.Context, bucket, objectPath string, data []byte, contentType string) (*UploadResult, error) {
	if err := c.configured(); err != nil {
		return nil, err
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.objectURL("object", bucket, objectPath), bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to build upload request: %w", err)
	}
	c.authorize(req)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("x-upsert", "true")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("Storage upload request failed", "bucket", bucket, "object_path", objectPath, "error", err)
		return nil, fmt.Errorf("failed to upload object: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		c.logger.Error("Storage upload rejected", "bucket", bucket, "object_path", objectPath, "status", resp.StatusCode)
		return nil, &RequestError{Op: "upload", StatusCode: resp.StatusCode, Body: string(body)}
	}

	sum := sha256.Sum256(data)
	c.logger.Debug("Uploaded object", "bucket", bucket, "object_path", objectPath, "size_bytes", len(data))

	return &UploadResult{
		SizeBytes: int64(len(data)),
		SHA256:    hex.EncodeToString(sum[:]),
	}, nil
}

type signRequest struct {
	ExpiresIn int `json:"expiresIn"`
}

// Supabase has returned both spellings across versions.
type signResponse struct {
	SignedURL      string `json:"signedURL"`
	SignedURLLower string `json:"signedUrl"`
}

// SignedURL returns an absolute URL that grants read access for expiresIn.
func (c *SupabaseClient) SignedURL(ctx context.Context, bucket, objectPath string, expiresIn time.Duration) (string, error) {
	if err := c.configured(); err != nil {
		return "", err
	}

	payload, err := json.Marshal(signRequest{ExpiresIn: int(expiresIn.Seconds())})
	if err != nil {
		return "", fmt.Errorf("failed to encode sign request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.objectURL("object/sign", bucket, objectPath), bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to build sign request: %w", err)
	}
	c.authorize(req)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("Storage sign request failed", "bucket", bucket, "object_path", objectPath, "error", err)
		return "", fmt.Errorf("failed to sign object url: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	if err != nil {
		return "", fmt.Errorf("failed to read sign response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", &RequestError{Op: "sign", StatusCode: resp.StatusCode, Body: string(body)}
	}

	var decoded signResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return "", fmt.Errorf("failed to decode sign response: %w", err)
	}
	signed := decoded.SignedURL
	if signed == "" {
		signed = decoded.SignedURLLower
	}
	if signed == "" {
		return "", fmt.Errorf("sign response missing signedURL: %s", string(body))
	}

	return c.resolve(signed), nil
}

// resolve turns the relative path Supabase may return into an absolute URL under /storage/v1.
func (c *SupabaseClient) resolve(signed string) string {
	if strings.HasPrefix(signed, "http://") || strings.HasPrefix(signed, "https://") {
		return signed
	}
	if !strings.HasPrefix(signed, "/") {
		signed = "/" + signed
	}
	if !strings.HasPrefix(signed, "/storage/v1/") {
		signed = "/storage/v1" + signed
	}
	return c.baseURL + signed
}

func (c *SupabaseClient) objectURL(prefix, bucket, objectPath string) string {
	segments := strings.Split(objectPath, "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return fmt.Sprintf("%s/storage/v1/%s/%s/%s", c.baseURL, prefix, url.PathEscape(bucket), strings.Join(segments, "/"))
}

func (c *SupabaseClient) authorize(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+c.serviceKey)
	req.Header.Set("apikey", c.serviceKey)
}

func (c *SupabaseClient) configured() error {
	if c.baseURL == "" || c.serviceKey == "" {
		return ErrNotConfigured
	}
	return nil
}
