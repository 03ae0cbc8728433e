package thumbnail

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const maxDownloadBytes = 20 << 20

// DataURLSource читает изображения, встроенные в data: URL.
type DataURLSource struct{}

func (DataURLSource) Open(ctx context.Context, raw string) (io.ReadCloser, error) {
	if !strings.HasPrefix(raw, "data:") {
		return nil, fmt.Errorf("ожидался data: URL")
	}
	comma := strings.IndexByte(raw, ',')
	if comma < 0 {
		return nil, fmt.Errorf("некорректный data: URL")
	}
	header, payload := raw[len("data:"):comma], raw[comma+1:]
	if !strings.HasSuffix(header, ";base64") {
		unescaped, err := url.PathUnescape(payload)
		if err != nil {
			return nil, err
		}
		return io.NopCloser(strings.NewReader(unescaped)), nil
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("некорректный base64 в data: URL: %w", err)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

// HTTPSource скачивает изображение по http(s).
type HTTPSource struct {
	Client *http.Client
}

func NewHTTPSource() *HTTPSource {
	return &HTTPSource{Client: &http.Client{Timeout: 15 * time.Second}}
}

func (s *HTTPSource) Open(ctx context.Context, raw string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, raw, nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.Client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		_ = resp.Body.Close()
		return nil, fmt.Errorf("загрузка изображения: статус %d", resp.StatusCode)
	}
	return struct {
		io.Reader
		io.Closer
	}{io.LimitReader(resp.Body, maxDownloadBytes), resp.Body}, nil
}

// SchemeSource выбирает источник по схеме URL.
type SchemeSource struct {
	sources map[string]Source
}

func NewSchemeSource() *SchemeSource {
	httpSrc := NewHTTPSource()
	return &SchemeSource{sources: map[string]Source{
		"data":  DataURLSource{},
		"http":  httpSrc,
		"https": httpSrc,
	}}
}

// Register добавляет или заменяет источник для схемы (например, "s3").
// Пути без схемы ("/uploads/...") ищутся под схемой "file".
func (s *SchemeSource) Register(scheme string, src Source) {
	s.sources[strings.ToLower(scheme)] = src
}

func (s *SchemeSource) Open(ctx context.Context, raw string) (io.ReadCloser, error) {
	scheme := raw
	if strings.HasPrefix(raw, "/") {
		scheme = "file"
	} else if i := strings.IndexByte(raw, ':'); i > 0 {
		scheme = raw[:i]
	}
	src, ok := s.sources[strings.ToLower(scheme)]
	if !ok {
		return nil, fmt.Errorf("неподдерживаемый источник изображения: %q", scheme)
	}
	return src.Open(ctx, raw)
}
