package classifier

import (
	"Pantry-Ledger/domain"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const (
	defaultSearchURL   = "https://www.googleapis.com/customsearch/v1"
	defaultRetryDelay  = 500 * time.Millisecond
	searchResultsCount = 3

	defaultSearchRate  = 1.0
	defaultSearchBurst = 3
)

var (
	ErrNoResults           = errors.New("no search results")
	ErrLookupNotConfigured = errors.New("google api key and engine id are required")

	contentPattern      = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*(kg|g|ml|l|ℓ|個|枚|本|袋|食|パック|切)`)
	manufacturerPattern = regexp.MustCompile(`(?:製造|販売|メーカー|ブランド)[：:]?\s*([^\s,、。]+)`)
)

type (
	GoogleConfig struct {
		APIKey   string
		EngineID string
		BaseURL  string
		Timeout  time.Duration
		// MaxRetries is capped at one.
		MaxRetries int
	}

	googleLookup struct {
		apiKey     string
		engineID   string
		baseURL    string
		httpClient *http.Client
		limiter    *rate.Limiter
		maxRetries int
		retryDelay time.Duration
	}

	searchResponse struct {
		Items []struct {
			Title   string `json:"title"`
			Snippet string `json:"snippet"`
		} `json:"items"`
	}

	retryableError struct {
		err error
	}
)

func (e *retryableError) Error() string { return e.err.Error() }
func (e *retryableError) Unwrap() error { return e.err }

// NewGoogleLookup builds a Lookup backed by the Google Custom Search JSON
// API. Snippets of the top results are mined for content size and maker.
func NewGoogleLookup(cfg GoogleConfig) (Lookup, error) {
	if cfg.APIKey == "" || cfg.EngineID == "" {
		return nil, ErrLookupNotConfigured
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultSearchURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultLookupTimeout
	}
	retries := cfg.MaxRetries
	if retries < 0 {
		retries = 0
	}
	if retries > 1 {
		retries = 1
	}

	return &googleLookup{
		apiKey:   cfg.APIKey,
		engineID: cfg.EngineID,
		baseURL:  baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		limiter:    rate.NewLimiter(rate.Limit(defaultSearchRate), defaultSearchBurst),
		maxRetries: retries,
		retryDelay: defaultRetryDelay,
	}, nil
}

func (g *googleLookup) Lookup(ctx context.Context, name string) (domain.ProductInfo, error) {
	var lastErr error
	for attempt := 0; attempt <= g.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(g.retryDelay):
			case <-ctx.Done():
				return domain.ProductInfo{}, ctx.Err()
			}
		}

		if err := g.limiter.Wait(ctx); err != nil {
			return domain.ProductInfo{}, fmt.Errorf("rate limiter: %w", err)
		}

		info, err := g.search(ctx, name)
		if err == nil {
			return info, nil
		}
		lastErr = err

		var re *retryableError
		if !errors.As(err, &re) {
			return domain.ProductInfo{}, err
		}
	}
	return domain.ProductInfo{}, fmt.Errorf("lookup %q: %w", name, lastErr)
}

func (g *googleLookup) search(ctx context.Context, name string) (domain.ProductInfo, error) {
	params := url.Values{}
	params.Set("key", g.apiKey)
	params.Set("cx", g.engineID)
	params.Set("q", name+" 商品情報 内容量")
	params.Set("num", strconv.Itoa(searchResultsCount))
	params.Set("lr", "lang_ja")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return domain.ProductInfo{}, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return domain.ProductInfo{}, &retryableError{err: fmt.Errorf("search request failed: %w", err)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return domain.ProductInfo{}, &retryableError{err: fmt.Errorf("failed to read response: %w", err)}
	}

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		return domain.ProductInfo{}, &retryableError{err: fmt.Errorf("search api status %d", resp.StatusCode)}
	}
	if resp.StatusCode != http.StatusOK {
		return domain.ProductInfo{}, fmt.Errorf("search api status %d", resp.StatusCode)
	}

	var result searchResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return domain.ProductInfo{}, fmt.Errorf("failed to parse response: %w", err)
	}
	if len(result.Items) == 0 {
		return domain.ProductInfo{}, ErrNoResults
	}

	snippets := make([]string, 0, len(result.Items))
	for _, item := range result.Items {
		snippets = append(snippets, item.Snippet)
	}
	return infoFromSnippets(strings.Join(snippets, " ")), nil
}

// infoFromSnippets extracts what search snippets reliably carry. The
// category stays unknown; storage defaults to ambient.
func infoFromSnippets(text string) domain.ProductInfo {
	info := domain.DefaultProductInfo()

	if m := contentPattern.FindStringSubmatch(strings.ToLower(text)); m != nil {
		if amount, err := strconv.ParseFloat(m[1], 64); err == nil {
			info.ContentAmount = &amount
			info.ContentUnit = m[2]
		}
	}
	if m := manufacturerPattern.FindStringSubmatch(text); m != nil {
		info.Manufacturer = m[1]
	}
	return info
}
