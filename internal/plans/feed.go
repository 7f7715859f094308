package plans

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	pkgerrors "github.com/globelconnect/esim-backend/pkg/errors"
)

const (
	DefaultFeedTimeout       = 20 * time.Second
	maxFeedBytes       int64 = 32 << 20
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// FeedFetcher downloads and parses the plans CSV feed.
type FeedFetcher struct {
	httpClient *http.Client
	timeout    time.Duration
}

// FeedOption configures optional fetcher behavior.
type FeedOption func(*FeedFetcher)

// WithFeedHTTPClient overrides the default HTTP client.
func WithFeedHTTPClient(client *http.Client) FeedOption {
	return func(f *FeedFetcher) {
		if client != nil {
			f.httpClient = client
		}
	}
}

// WithFeedTimeout bounds a single fetch, including reading the body.
func WithFeedTimeout(timeout time.Duration) FeedOption {
	return func(f *FeedFetcher) {
		if timeout > 0 {
			f.timeout = timeout
		}
	}
}

// NewFeedFetcher builds a fetcher with a 20s default timeout.
func NewFeedFetcher(opts ...FeedOption) *FeedFetcher {
	fetcher := &FeedFetcher{
		httpClient: &http.Client{},
		timeout:    DefaultFeedTimeout,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(fetcher)
		}
	}
	return fetcher
}

// Fetch GETs the feed at url and returns its records keyed by header name.
func (f *FeedFetcher) Fetch(ctx context.Context, url string) ([]Row, error) {
	if strings.TrimSpace(url) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeSourceFetch, "plans csv url is required")
	}

	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeSourceFetch, err, "build plans csv request")
	}
	req.Header.Set("Accept", "text/csv, text/plain;q=0.9, */*;q=0.5")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeSourceFetch, err, "fetch plans csv")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, pkgerrors.New(pkgerrors.CodeSourceFetch, fmt.Sprintf("fetch plans csv: unexpected status %d", resp.StatusCode))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxFeedBytes+1))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeSourceFetch, err, "read plans csv")
	}
	if int64(len(body)) > maxFeedBytes {
		return nil, pkgerrors.New(pkgerrors.CodeSourceFetch, "plans csv exceeds size limit")
	}

	rows, err := ParseCSV(bytes.NewReader(body))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeSourceFetch, err, "parse plans csv")
	}
	return rows, nil
}

// ParseCSV reads CSV text whose first record is the header row. Blank lines
// are skipped; a record whose field count differs from the header is an error.
// Header names are trimmed so " name" still matches; cell values are kept
// byte for byte.
func ParseCSV(r io.Reader) ([]Row, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	reader := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(raw, utf8BOM)))

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return []Row{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	columns := make([]string, len(header))
	for i, name := range header {
		columns[i] = strings.TrimSpace(name)
	}

	rows := []Row{}
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		row := make(Row, len(columns))
		for i, name := range columns {
			row[name] = record[i]
		}
		rows = append(rows, row)
	}
	return rows, nil
}
