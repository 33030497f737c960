package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"

	"propscope/backend-go/internal/config"
	"propscope/backend-go/internal/models"
)

// ErrCircuitOpen is returned while the analytics circuit breaker is cooling down.
var ErrCircuitOpen = errors.New("analytics circuit breaker open")

type UpstreamError struct {
	Status int
	Body   string
}

func (e *UpstreamError) Error() string {
	if msg := gjson.Get(e.Body, "error").String(); msg != "" {
		return fmt.Sprintf("analytics api: %d: %s", e.Status, msg)
	}
	return fmt.Sprintf("analytics api: %d", e.Status)
}

func (e *UpstreamError) StatusCode() int { return e.Status }

type circuitBreaker struct {
	mu        sync.Mutex
	failures  int
	threshold int
	openedAt  time.Time
	cooldown  time.Duration
}

func newCircuitBreaker(threshold int, cooldown time.Duration) *circuitBreaker {
	if threshold <= 0 {
		threshold = 3
	}
	return &circuitBreaker{threshold: threshold, cooldown: cooldown}
}

func (c *circuitBreaker) allow() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failures < c.threshold {
		return true
	}
	if time.Since(c.openedAt) > c.cooldown {
		c.failures = 0
		c.openedAt = time.Time{}
		return true
	}
	return false
}

func (c *circuitBreaker) success() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failures = 0
	c.openedAt = time.Time{}
}

func (c *circuitBreaker) fail() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failures++
	if c.failures >= c.threshold {
		c.openedAt = time.Now()
	}
}

// UploadFile is one part of the multipart upload forwarded to the analytics service.
type UploadFile struct {
	Field    string
	Filename string
	Body     io.Reader
}

// AnalyticsClient talks to the analytics service that computes hit rates and renders charts.
type AnalyticsClient struct {
	baseURL          string
	hc               *http.Client
	visualizeTimeout time.Duration
	uploadTimeout    time.Duration
	cb               *circuitBreaker
	cache            Cache
	graphTTL         time.Duration
	log              logrus.FieldLogger

	mu    sync.Mutex
	epoch int
}

func NewAnalyticsClient(cfg config.Config, cache Cache, log logrus.FieldLogger) *AnalyticsClient {
	return &AnalyticsClient{
		baseURL: cfg.AnalyticsBaseURL,
		hc: &http.Client{
			Timeout: cfg.RequestTimeout,
		},
		visualizeTimeout: cfg.VisualizeTimeout,
		uploadTimeout:    cfg.UploadTimeout,
		cb:               newCircuitBreaker(cfg.CircuitFailLimit, cfg.CircuitCooldown),
		cache:            cache,
		graphTTL:         cfg.CacheTTLGraph,
		log:              log,
	}
}

func (c *AnalyticsClient) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return err
	}
	res, err := c.hc.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.StatusCode >= 300 {
		return fmt.Errorf("analytics health: %s", res.Status)
	}
	return nil
}

// GetProps fetches the raw prop catalog payload. Decoding is left to the caller so the
// tab order of props_by_type survives.
func (c *AnalyticsClient) GetProps(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/get_props", nil)
	if err != nil {
		return nil, err
	}
	res, err := c.hc.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()
	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, err
	}
	if res.StatusCode >= 300 {
		return nil, &UpstreamError{Status: res.StatusCode, Body: truncate(body, 4096)}
	}
	return body, nil
}

// Visualize requests a rendered chart. A payload carrying an error field is returned as a
// response, not as an error; only transport failures and non-2xx statuses are errors.
func (c *AnalyticsClient) Visualize(ctx context.Context, vr models.VisualizeRequest) (models.VisualizeResponse, error) {
	var out models.VisualizeResponse
	payload, err := json.Marshal(vr)
	if err != nil {
		return out, err
	}

	key := c.graphKey(payload)
	if c.cache != nil {
		if b, ok := c.cache.Get(ctx, key); ok {
			if err := UnmarshalCache(b, &out); err == nil {
				return out, nil
			}
		}
	}

	if !c.cb.allow() {
		return out, ErrCircuitOpen
	}

	hc := *c.hc
	if c.visualizeTimeout > 0 {
		hc.Timeout = c.visualizeTimeout
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/visualize", bytes.NewReader(payload))
	if err != nil {
		return out, err
	}
	req.Header.Set("Content-Type", "application/json")
	res, err := hc.Do(req)
	if err != nil {
		c.cb.fail()
		return out, err
	}
	defer res.Body.Close()
	body, err := io.ReadAll(io.LimitReader(res.Body, 32<<20))
	if err != nil {
		c.cb.fail()
		return out, err
	}
	if res.StatusCode >= 300 {
		if res.StatusCode >= 500 {
			c.cb.fail()
		}
		return out, &UpstreamError{Status: res.StatusCode, Body: truncate(body, 4096)}
	}
	if err := json.Unmarshal(body, &out); err != nil {
		c.cb.fail()
		return out, fmt.Errorf("decode visualize response: %w", err)
	}
	c.cb.success()

	if c.cache != nil && out.Error == "" && out.Graph != "" {
		if b, err := MarshalCache(out); err == nil {
			if err := c.cache.Set(ctx, key, b, c.graphTTL); err != nil {
				c.log.WithError(err).Warn("graph cache set failed")
			}
		}
	}
	return out, nil
}

// Upload forwards the stats and props files plus the view mode. A 4xx with an error body is
// decoded into the response so the caller can surface the message; other failures are errors.
func (c *AnalyticsClient) Upload(ctx context.Context, files []UploadFile, viewMode string) (models.UploadResponse, int, error) {
	var out models.UploadResponse
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for _, f := range files {
		part, err := mw.CreateFormFile(f.Field, f.Filename)
		if err != nil {
			return out, 0, err
		}
		if _, err := io.Copy(part, f.Body); err != nil {
			return out, 0, fmt.Errorf("copy %s: %w", f.Field, err)
		}
	}
	if viewMode != "" {
		if err := mw.WriteField("viewMode", viewMode); err != nil {
			return out, 0, err
		}
	}
	if err := mw.Close(); err != nil {
		return out, 0, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/upload", &buf)
	if err != nil {
		return out, 0, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	hc := *c.hc
	if c.uploadTimeout > 0 {
		hc.Timeout = c.uploadTimeout
	}
	res, err := hc.Do(req)
	if err != nil {
		return out, 0, err
	}
	defer res.Body.Close()
	body, err := io.ReadAll(io.LimitReader(res.Body, 64<<20))
	if err != nil {
		return out, res.StatusCode, err
	}
	if res.StatusCode >= 300 {
		if res.StatusCode < 500 && gjson.GetBytes(body, "error").Exists() {
			_ = json.Unmarshal(body, &out)
			return out, res.StatusCode, nil
		}
		return out, res.StatusCode, &UpstreamError{Status: res.StatusCode, Body: truncate(body, 4096)}
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return out, res.StatusCode, fmt.Errorf("decode upload response: %w", err)
	}

	c.mu.Lock()
	c.epoch++
	c.mu.Unlock()
	return out, res.StatusCode, nil
}

// graphKey scopes cached charts to the current upload so a new data set never serves old graphs.
func (c *AnalyticsClient) graphKey(payload []byte) string {
	c.mu.Lock()
	epoch := c.epoch
	c.mu.Unlock()
	return fmt.Sprintf("graph:v1:%d:%s", epoch, hashKey(payload))
}

func truncate(b []byte, n int) string {
	if len(b) > n {
		b = b[:n]
	}
	return string(b)
}
