// Package sources provides shared plumbing for the upstream provider clients.
// Every provider call is a soft failure boundary: transport errors, non-2xx
// statuses, and malformed payloads all degrade to "no data this pass" and are
// never propagated upward as errors
package sources

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"guildaudit/internal/platform/logger"
)

const (
	defaultTimeout = 10 * time.Second
	defaultUA      = "guildaudit-sync"

	// payload cap; provider documents are small, anything bigger is garbage
	maxBodyBytes = 2 << 20
)

// Fetcher is a minimal JSON GET client with per-call timeout and soft-failure
// logging, shared by all provider clients
type Fetcher struct {
	http *http.Client
	ua   string
	log  logger.Logger
	now  func() time.Time
}

// NewFetcher builds a Fetcher; component names the provider in log lines
func NewFetcher(component string, timeout time.Duration) *Fetcher {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Fetcher{
		http: &http.Client{Timeout: timeout},
		ua:   defaultUA,
		log:  *logger.Named(component),
		now:  time.Now,
	}
}

// GetJSON fetches url with an optional bearer token and decodes into out.
// Returns false on any transport error, non-2xx status, or decode failure
func (f *Fetcher) GetJSON(ctx context.Context, url, bearer string, out any) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		f.log.Warn().Err(err).Str("url", url).Msg("source new request failed")
		return false
	}
	req.Header.Set("User-Agent", f.ua)
	req.Header.Set("Accept", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	start := f.now()
	resp, err := f.http.Do(req)
	lat := f.now().Sub(start)
	if err != nil {
		f.log.Warn().Err(err).Str("url", url).Dur("latency", lat).Msg("source transport error")
		return false
	}
	defer func() {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		_ = resp.Body.Close()
	}()

	f.log.Debug().
		Str("url", url).
		Int("status", resp.StatusCode).
		Dur("latency", lat).
		Msg("source http response")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return false
	}

	b, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		f.log.Warn().Err(err).Str("url", url).Msg("source read body failed")
		return false
	}
	if err := json.Unmarshal(b, out); err != nil {
		f.log.Warn().Err(err).Str("url", url).Msg("source malformed payload")
		return false
	}
	return true
}
