// Package remote implements the node store over the content server's REST API.
//
// Endpoints:
//   - nodes:      <base>/nodes/v1/<path>       GET, PUT (create child), POST (merge), DELETE
//   - properties: <base>/properties/v1/<path>  DELETE
//
// Requests use basic auth and JSON bodies. Responses may be gzip encoded.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/klauspost/compress/gzip"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/aweris/jcr/internal/apierr"
	"github.com/aweris/jcr/internal/wire"
)

const (
	NodesBasePath      = "/nodes/v1"
	PropertiesBasePath = "/properties/v1"

	DefaultMaxAttempts = 3
	DefaultTimeout     = 30 * time.Second
)

// Config configures an HTTPStore.
type Config struct {
	BaseURL     string
	User        string
	Password    string
	HTTPClient  *http.Client
	MaxAttempts int
	Logger      *zap.Logger
	Registerer  prometheus.Registerer
}

// HTTPStore talks to the content server. It is safe for concurrent use.
type HTTPStore struct {
	baseURL     string
	user        string
	password    string
	client      *http.Client
	maxAttempts int
	log         *zap.Logger
	metrics     *metrics
}

// New creates an HTTPStore.
func New(cfg Config) (*HTTPStore, error) {
	if _, err := url.Parse(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("invalid base URL %q: %w", cfg.BaseURL, err)
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: DefaultTimeout}
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultMaxAttempts
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	m, err := newMetrics(cfg.Registerer)
	if err != nil {
		return nil, fmt.Errorf("register metrics: %w", err)
	}
	return &HTTPStore{
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		user:        cfg.User,
		password:    cfg.Password,
		client:      cfg.HTTPClient,
		maxAttempts: cfg.MaxAttempts,
		log:         cfg.Logger,
		metrics:     m,
	}, nil
}

// FetchNode returns the node at path with children down to q.Depth.
func (s *HTTPStore) FetchNode(ctx context.Context, path string, q wire.Query) (*wire.Node, error) {
	params := url.Values{}
	params.Set("depth", strconv.Itoa(q.Depth))
	params.Set("includeMetadata", strconv.FormatBool(q.IncludeMetadata))
	params.Set("excludeNodeTypes", strings.Join(q.ExcludeNodeTypes, ","))

	var n wire.Node
	if err := s.do(ctx, http.MethodGet, s.nodesEndpoint(path)+"?"+params.Encode(), path, nil, &n); err != nil {
		return nil, err
	}
	return &n, nil
}

// PutNode creates n under parentPath.
func (s *HTTPStore) PutNode(ctx context.Context, parentPath string, n *wire.Node) error {
	return s.do(ctx, http.MethodPut, s.nodesEndpoint(parentPath), parentPath, n, nil)
}

// PostNode merges the properties of n into the node at path.
func (s *HTTPStore) PostNode(ctx context.Context, path string, n *wire.Node) error {
	return s.do(ctx, http.MethodPost, s.nodesEndpoint(path), path, n, nil)
}

// DeleteProperty removes one property of the node at path.
func (s *HTTPStore) DeleteProperty(ctx context.Context, path, name string) error {
	full := path + "/" + name
	return s.do(ctx, http.MethodDelete, s.propertiesEndpoint(full), full, nil, nil)
}

// DeleteNode removes the node at path.
func (s *HTTPStore) DeleteNode(ctx context.Context, path string) error {
	return s.do(ctx, http.MethodDelete, s.nodesEndpoint(path), path, nil, nil)
}

func (s *HTTPStore) do(ctx context.Context, method, endpoint, path string, body, out any) error {
	var payload []byte
	if body != nil {
		var err error
		if payload, err = json.Marshal(body); err != nil {
			return fmt.Errorf("encode %s body: %w", method, err)
		}
	}

	_, err := retry(ctx, s.maxAttempts, func() (struct{}, error) {
		return struct{}{}, s.attempt(ctx, method, endpoint, path, payload, out)
	})
	return err
}

func (s *HTTPStore) attempt(ctx context.Context, method, endpoint, path string, payload []byte, out any) error {
	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reqBody)
	if err != nil {
		return err
	}
	requestID := uuid.NewString()
	req.SetBasicAuth(s.user, s.password)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Accept-Encoding", "gzip")
	req.Header.Set("X-Request-ID", requestID)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := s.client.Do(req)
	if err != nil {
		s.metrics.observe(method, "error", time.Since(start))
		s.log.Debug(method+" "+endpoint, zap.String("request_id", requestID), zap.Error(err))
		return retryable(fmt.Errorf("%s %s: %w", method, endpoint, err))
	}
	defer resp.Body.Close()

	elapsed := time.Since(start)
	s.metrics.observe(method, strconv.Itoa(resp.StatusCode), elapsed)
	s.log.Debug(method+" "+endpoint,
		zap.String("request_id", requestID),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", elapsed))

	reader, err := responseReader(resp)
	if err != nil {
		return err
	}
	defer reader.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		text, _ := io.ReadAll(reader)
		rerr := &apierr.ResponseError{
			Method: method,
			URL:    endpoint,
			Path:   path,
			Status: resp.StatusCode,
			Body:   string(text),
		}
		if resp.StatusCode >= 500 {
			return retryable(rerr)
		}
		return rerr
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(reader).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s response: %w", method, endpoint, err)
	}
	return nil
}

func responseReader(resp *http.Response) (io.ReadCloser, error) {
	if resp.Header.Get("Content-Encoding") != "gzip" {
		return io.NopCloser(resp.Body), nil
	}
	gr, err := gzip.NewReader(resp.Body)
	if err != nil {
		if err == io.EOF {
			return io.NopCloser(strings.NewReader("")), nil
		}
		return nil, fmt.Errorf("gzip response: %w", err)
	}
	return gr, nil
}
