package aretrails

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zlib"
	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/suite"
)

type SourceTestSuite struct {
	suite.Suite
	logger *slog.Logger
	cfg    Config
}

func (s *SourceTestSuite) SetupTest() {
	s.logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	s.cfg = Config{
		NetworkID: "net-123",
		Lang:      "sv_se",
		Draft:     "0",
		Code:      "abc/def==",
		Headers: map[string]string{
			"Authorization": "Bearer undefined",
			"userId":        "portal",
			"Origin":        "https://www.aretrails.com",
		},
		Timeout: 5 * time.Second,
	}
}

func TestSourceTestSuite(t *testing.T) {
	suite.Run(t, new(SourceTestSuite))
}

func (s *SourceTestSuite) newSource(h http.HandlerFunc) *Source {
	srv := httptest.NewServer(h)
	s.T().Cleanup(srv.Close)

	cfg := s.cfg
	cfg.BaseURL = srv.URL + "/api/ContentItem/cms"
	return New(cfg, s.logger)
}

func (s *SourceTestSuite) TestFetch_SendsQueryAndHeaders() {
	var got *http.Request
	src := s.newSource(func(w http.ResponseWriter, r *http.Request) {
		got = r
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"items": []}`))
	})

	body, err := src.Fetch(context.Background())
	s.Require().NoError(err)
	s.JSONEq(`{"items": []}`, string(body))

	s.Require().NotNil(got)
	s.Equal(http.MethodGet, got.Method)
	s.Equal("/api/ContentItem/cms", got.URL.Path)
	q := got.URL.Query()
	s.Equal("net-123", q.Get("networkId"))
	s.Equal("sv_se", q.Get("lang"))
	s.Equal("0", q.Get("draft"))
	s.Equal("abc/def==", q.Get("code"))
	s.Equal("Bearer undefined", got.Header.Get("Authorization"))
	s.Equal("portal", got.Header.Get("userId"))
	s.Equal("https://www.aretrails.com", got.Header.Get("Origin"))
}

func (s *SourceTestSuite) TestFetch_HTTPError() {
	src := s.newSource(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte("forbidden"))
	})

	body, err := src.Fetch(context.Background())
	s.Nil(body)
	s.Require().Error(err)
	s.ErrorIs(err, ErrTransport)

	var httpErr *HTTPError
	s.Require().True(errors.As(err, &httpErr))
	s.Equal(http.StatusForbidden, httpErr.StatusCode)
	s.Equal("forbidden", string(httpErr.Body))
	s.Contains(err.Error(), "403")
}

func (s *SourceTestSuite) TestFetch_HTTPErrorUndecodableBody() {
	s.cfg.Headers["Accept-Encoding"] = "gzip, deflate, br, zstd"
	src := s.newSource(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Encoding", "gzip")
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte("Forbidden"))
	})

	_, err := src.Fetch(context.Background())
	s.Require().Error(err)
	s.ErrorIs(err, ErrTransport)

	var httpErr *HTTPError
	s.Require().True(errors.As(err, &httpErr))
	s.Equal(http.StatusForbidden, httpErr.StatusCode)
	s.Equal("Forbidden", string(httpErr.Body))

	var netErr *NetworkError
	s.False(errors.As(err, &netErr))
}

func (s *SourceTestSuite) TestFetch_HTTPErrorGzipBody() {
	s.cfg.Headers["Accept-Encoding"] = "gzip, deflate, br, zstd"
	src := s.newSource(func(w http.ResponseWriter, r *http.Request) {
		var buf bytes.Buffer
		zw := gzip.NewWriter(&buf)
		_, _ = zw.Write([]byte("quota exceeded"))
		_ = zw.Close()

		w.Header().Set("Content-Encoding", "gzip")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write(buf.Bytes())
	})

	_, err := src.Fetch(context.Background())

	var httpErr *HTTPError
	s.Require().True(errors.As(err, &httpErr))
	s.Equal(http.StatusTooManyRequests, httpErr.StatusCode)
	s.Equal("quota exceeded", string(httpErr.Body))
}

func (s *SourceTestSuite) TestFetch_NetworkError() {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	cfg := s.cfg
	cfg.BaseURL = srv.URL
	src := New(cfg, s.logger)

	_, err := src.Fetch(context.Background())
	s.Require().Error(err)
	s.ErrorIs(err, ErrTransport)

	var netErr *NetworkError
	s.True(errors.As(err, &netErr))
}

func (s *SourceTestSuite) TestFetch_Timeout() {
	s.cfg.Timeout = 50 * time.Millisecond
	src := s.newSource(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
		}
	})

	_, err := src.Fetch(context.Background())
	s.ErrorIs(err, ErrTransport)
}

func (s *SourceTestSuite) TestFetch_InvalidJSON() {
	src := s.newSource(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>"))
	})

	_, err := src.Fetch(context.Background())
	s.ErrorIs(err, ErrInvalidJSON)
	s.NotErrorIs(err, ErrTransport)
}

func (s *SourceTestSuite) TestFetch_GzipBody() {
	s.cfg.Headers["Accept-Encoding"] = "gzip, deflate, br, zstd"
	src := s.newSource(func(w http.ResponseWriter, r *http.Request) {
		var buf bytes.Buffer
		zw := gzip.NewWriter(&buf)
		_, _ = zw.Write([]byte(`{"items": [{"id": "1"}]}`))
		_ = zw.Close()

		w.Header().Set("Content-Encoding", "gzip")
		_, _ = w.Write(buf.Bytes())
	})

	body, err := src.Fetch(context.Background())
	s.Require().NoError(err)
	s.JSONEq(`{"items": [{"id": "1"}]}`, string(body))
}

func (s *SourceTestSuite) TestFetch_OtherEncodings() {
	const payload = `{"items": [{"id": "2", "content": {"title": "Åre ö"}}]}`

	encoders := map[string]func(*bytes.Buffer) io.WriteCloser{
		"deflate": func(b *bytes.Buffer) io.WriteCloser { return zlib.NewWriter(b) },
		"br":      func(b *bytes.Buffer) io.WriteCloser { return brotli.NewWriter(b) },
		"zstd": func(b *bytes.Buffer) io.WriteCloser {
			zw, err := zstd.NewWriter(b)
			s.Require().NoError(err)
			return zw
		},
	}

	for encoding, newWriter := range encoders {
		s.Run(encoding, func() {
			src := s.newSource(func(w http.ResponseWriter, r *http.Request) {
				var buf bytes.Buffer
				zw := newWriter(&buf)
				_, _ = zw.Write([]byte(payload))
				_ = zw.Close()

				w.Header().Set("Content-Encoding", encoding)
				_, _ = w.Write(buf.Bytes())
			})

			body, err := src.Fetch(context.Background())
			s.Require().NoError(err)
			s.JSONEq(payload, string(body))
		})
	}
}

func (s *SourceTestSuite) TestFetch_UnsupportedEncoding() {
	src := s.newSource(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Encoding", "compress")
		_, _ = w.Write([]byte("x"))
	})

	_, err := src.Fetch(context.Background())
	s.Error(err)
}
