package aretrails

import (
	"bytes"
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

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zlib"
	"github.com/klauspost/compress/zstd"
)

const (
	SourceID   = "aretrails"
	SourceName = "AreTrails"
)

var ErrInvalidJSON = errors.New("response is not valid json")

// Config holds AreTrails source configuration.
type Config struct {
	BaseURL   string
	NetworkID string
	Lang      string
	Draft     string
	Code      string
	Headers   map[string]string
	Timeout   time.Duration
}

// Source fetches the trail catalog from the AreTrails content API.
type Source struct {
	httpClient *http.Client
	baseURL    string
	params     url.Values
	headers    map[string]string
	logger     *slog.Logger
}

// New creates a new AreTrails source.
func New(cfg Config, logger *slog.Logger) *Source {
	params := url.Values{}
	params.Set("networkId", cfg.NetworkID)
	params.Set("lang", cfg.Lang)
	params.Set("draft", cfg.Draft)
	params.Set("code", cfg.Code)

	return &Source{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		baseURL: cfg.BaseURL,
		params:  params,
		headers: cfg.Headers,
		logger:  logger.With("source", SourceID),
	}
}

// ID returns the source identifier.
func (s *Source) ID() string {
	return SourceID
}

// Name returns human-readable name.
func (s *Source) Name() string {
	return SourceName
}

// Fetch performs the single catalog request and returns the raw JSON body.
func (s *Source) Fetch(ctx context.Context) (json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"?"+s.params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	for k, v := range s.headers {
		req.Header.Set(k, v)
	}

	start := time.Now()
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, &NetworkError{Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &NetworkError{Err: fmt.Errorf("read body: %w", err)}
	}
	encoding := resp.Header.Get("Content-Encoding")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// error pages are often mislabelled; keep the raw bytes then
		body, err := decodeBody(encoding, raw)
		if err != nil {
			body = raw
		}
		return nil, &HTTPError{StatusCode: resp.StatusCode, Body: body}
	}

	body, err := decodeBody(encoding, raw)
	if err != nil {
		return nil, &NetworkError{Err: fmt.Errorf("decode body: %w", err)}
	}

	if !json.Valid(body) {
		return nil, ErrInvalidJSON
	}

	s.logger.Debug("fetched catalog",
		"status", resp.StatusCode,
		"bytes", len(body),
		"elapsed", time.Since(start),
	)

	return body, nil
}

// decodeBody undoes Content-Encoding. Setting Accept-Encoding by hand
// turns off net/http's transparent gzip handling.
func decodeBody(encoding string, raw []byte) ([]byte, error) {
	var r io.Reader

	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case "", "identity":
		return raw, nil
	case "gzip":
		gz, err := gzip.NewReader(bytes.NewReader(raw))
		if err != nil {
			return nil, err
		}
		defer gz.Close()
		r = gz
	case "deflate":
		zr, err := zlib.NewReader(bytes.NewReader(raw))
		if err != nil {
			return nil, err
		}
		defer zr.Close()
		r = zr
	case "br":
		r = brotli.NewReader(bytes.NewReader(raw))
	case "zstd":
		zr, err := zstd.NewReader(bytes.NewReader(raw))
		if err != nil {
			return nil, err
		}
		defer zr.Close()
		r = zr
	default:
		return nil, fmt.Errorf("unsupported content encoding %q", encoding)
	}

	return io.ReadAll(r)
}
