package eipsource

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"eip-explainer/internal/domain"
)

const (
	DefaultPrimaryURL  = "https://raw.githubusercontent.com/ethereum/EIPs/master/EIPS/eip-{id}.md"
	DefaultFallbackURL = "https://eips.ethereum.org/EIPS/eip-{id}"

	idPlaceholder = "{id}"
	maxBodyBytes  = 2 << 20
)

var (
	// ErrNotFound means neither source had content for the identifier.
	ErrNotFound = errors.New("eipsource: proposal not found")
	// ErrTooLarge means a source answered with more than the resolver accepts.
	ErrTooLarge = errors.New("eipsource: content too large")
)

// Resolver fetches proposal text from the raw primary source and falls back
// to the rendered page.
type Resolver struct {
	primaryURL  string
	fallbackURL string
	httpClient  *http.Client
}

type Option func(*Resolver)

func WithPrimaryURL(tmpl string) Option {
	return func(r *Resolver) {
		r.primaryURL = strings.TrimSpace(tmpl)
	}
}

func WithFallbackURL(tmpl string) Option {
	return func(r *Resolver) {
		r.fallbackURL = strings.TrimSpace(tmpl)
	}
}

func WithHTTPClient(httpClient *http.Client) Option {
	return func(r *Resolver) {
		r.httpClient = httpClient
	}
}

// New builds a Resolver. URL templates must contain the {id} placeholder.
func New(opts ...Option) (*Resolver, error) {
	r := &Resolver{
		primaryURL:  DefaultPrimaryURL,
		fallbackURL: DefaultFallbackURL,
		httpClient:  &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(r)
	}
	if !strings.Contains(r.primaryURL, idPlaceholder) {
		return nil, fmt.Errorf("eipsource: primary url %q has no %s placeholder", r.primaryURL, idPlaceholder)
	}
	if !strings.Contains(r.fallbackURL, idPlaceholder) {
		return nil, fmt.Errorf("eipsource: fallback url %q has no %s placeholder", r.fallbackURL, idPlaceholder)
	}
	if r.httpClient == nil {
		r.httpClient = http.DefaultClient
	}
	return r, nil
}

// Resolve returns the plain-text body for topicID. Every primary failure,
// whatever the status, moves on to the fallback; there are no retries.
func (r *Resolver) Resolve(ctx context.Context, topicID string) (domain.ResolvedContent, error) {
	topicID = strings.TrimSpace(topicID)
	if topicID == "" {
		return domain.ResolvedContent{}, fmt.Errorf("%w: empty identifier", ErrNotFound)
	}

	body, err := r.fetch(ctx, expand(r.primaryURL, topicID))
	if err == nil && len(body) > domain.MaxContentBytes {
		err = fmt.Errorf("%w: primary text is %d bytes", ErrTooLarge, len(body))
	}
	if err == nil && strings.TrimSpace(body) != "" {
		slog.Debug("eipsource: resolved from primary", "topic", topicID, "bytes", len(body))
		return domain.ResolvedContent{Text: body, Source: domain.SourcePrimary}, nil
	}
	slog.Info("eipsource: primary source failed, trying fallback", "topic", topicID, "err", err)

	page, err := r.fetch(ctx, expand(r.fallbackURL, topicID))
	if err != nil {
		slog.Warn("eipsource: fallback source failed", "topic", topicID, "err", err)
		return domain.ResolvedContent{}, fmt.Errorf("%w: %s: %v", ErrNotFound, topicID, err)
	}
	text, err := ExtractArticleText(page)
	if err != nil {
		return domain.ResolvedContent{}, fmt.Errorf("%w: %s: %v", ErrNotFound, topicID, err)
	}
	if text == "" {
		return domain.ResolvedContent{}, fmt.Errorf("%w: %s: fallback page has no text", ErrNotFound, topicID)
	}
	if len(text) > domain.MaxContentBytes {
		return domain.ResolvedContent{}, fmt.Errorf("%w: %s: %w: fallback text is %d bytes", ErrNotFound, topicID, ErrTooLarge, len(text))
	}
	return domain.ResolvedContent{Text: text, Source: domain.SourceFallback}, nil
}

// StatusError is a non-2xx answer from a content source.
type StatusError struct {
	StatusCode int
	URL        string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("eipsource: unexpected status %d from %s", e.StatusCode, e.URL)
}

func (e *StatusError) HTTPStatusCode() int {
	return e.StatusCode
}

func (r *Resolver) fetch(ctx context.Context, target string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return "", fmt.Errorf("eipsource: create request: %w", err)
	}
	req.Header.Set("Accept", "text/plain, text/markdown, text/html;q=0.9, */*;q=0.8")

	res, err := r.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("eipsource: request failed: %w", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(res.Body, 4096))
		return "", &StatusError{StatusCode: res.StatusCode, URL: target}
	}

	buf, err := io.ReadAll(io.LimitReader(res.Body, maxBodyBytes+1))
	if err != nil {
		return "", fmt.Errorf("eipsource: read response body: %w", err)
	}
	if len(buf) > maxBodyBytes {
		return "", fmt.Errorf("%w: %s exceeds %d bytes", ErrTooLarge, target, maxBodyBytes)
	}
	return string(buf), nil
}

func expand(tmpl, topicID string) string {
	return strings.ReplaceAll(tmpl, idPlaceholder, url.PathEscape(topicID))
}
