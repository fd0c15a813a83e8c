// Package collyfetcher implements spider.Fetcher using gocolly.
package collyfetcher

import (
	"context"
	"errors"
	"mime"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/gocolly/colly/v2"
	"go.uber.org/zap"

	"github.com/JakeFAU/ae-stats-spider/internal/spider"
)

// Config controls collector behavior.
type Config struct {
	UserAgent string
	// Timeout bounds a whole request. Zero disables the timeout.
	Timeout time.Duration
}

// Fetcher implements spider.Fetcher on top of one Colly collector. Every call
// clones the base collector, so the HTTP client, its pooled connections and the
// cookie jar are shared for the lifetime of the Fetcher.
type Fetcher struct {
	cfg           Config
	baseCollector *colly.Collector
	logger        *zap.Logger
}

type collectorHooks interface {
	OnRequest(colly.RequestCallback)
	OnResponseHeaders(colly.ResponseHeadersCallback)
	OnResponse(colly.ResponseCallback)
	OnError(colly.ErrorCallback)
}

// New builds a Fetcher.
func New(cfg Config, logger *zap.Logger) *Fetcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := colly.NewCollector(
		colly.Async(false),
		colly.AllowURLRevisit(),
		colly.IgnoreRobotsTxt(),
	)
	c.UserAgent = cfg.UserAgent
	c.MaxBodySize = 0
	c.ParseHTTPErrorResponse = true
	c.WithTransport(newHTTPTransport())
	c.SetRequestTimeout(cfg.Timeout)

	return &Fetcher{
		cfg:           cfg,
		baseCollector: c,
		logger:        logger,
	}
}

// Get fetches rawURL and returns the body. Caller headers are merged into the
// request; the configured User-Agent always wins. Any non-2xx status is a
// *spider.FetchError.
func (f *Fetcher) Get(ctx context.Context, rawURL string, headers http.Header) ([]byte, error) {
	var (
		body     []byte
		status   int
		fetchErr error
	)
	collector := f.baseCollector.Clone()
	f.configureCollectorHooks(collector, headers, &body, &status, &fetchErr)

	start := time.Now()
	if err := f.runCollector(ctx, collector, rawURL, &fetchErr); err != nil {
		return nil, err
	}
	if status == 0 {
		return nil, &spider.FetchError{URL: rawURL, Err: errors.New("no response received")}
	}
	if status < http.StatusOK || status >= http.StatusMultipleChoices {
		return nil, &spider.FetchError{URL: rawURL, StatusCode: status}
	}
	f.logger.Debug("fetched",
		zap.String("url", rawURL),
		zap.Int("status_code", status),
		zap.Int("bytes", len(body)),
		zap.Duration("duration", time.Since(start)),
	)
	return body, nil
}

func (f *Fetcher) configureCollectorHooks(
	hooks collectorHooks,
	headers http.Header,
	body *[]byte,
	status *int,
	fetchErr *error,
) {
	hooks.OnRequest(func(r *colly.Request) {
		f.copyHeaders(headers, r)
	})

	hooks.OnResponseHeaders(dropBinaryCharset)

	hooks.OnResponse(func(r *colly.Response) {
		*status = r.StatusCode
		*body = append([]byte(nil), r.Body...)
	})

	hooks.OnError(func(r *colly.Response, err error) {
		if err == nil {
			err = errors.New("unknown colly error")
		}
		if r != nil {
			*status = r.StatusCode
		}
		*fetchErr = err
	})
}

// dropBinaryCharset removes the charset parameter from non-text responses so
// colly hands back the body exactly as received instead of transcoding it.
func dropBinaryCharset(r *colly.Response) {
	if r.Headers == nil {
		return
	}
	raw := r.Headers.Get("Content-Type")
	if raw == "" {
		return
	}
	mediaType, params, err := mime.ParseMediaType(raw)
	if err != nil || strings.HasPrefix(mediaType, "text/") {
		return
	}
	if _, ok := params["charset"]; !ok {
		return
	}
	delete(params, "charset")
	r.Headers.Set("Content-Type", mime.FormatMediaType(mediaType, params))
}

func (f *Fetcher) runCollector(ctx context.Context, collector *colly.Collector, rawURL string, fetchErr *error) error {
	done := make(chan error, 1)
	go func() {
		done <- collector.Visit(rawURL)
	}()

	select {
	case <-ctx.Done():
		return &spider.FetchError{URL: rawURL, Err: ctx.Err()}
	case err := <-done:
		if err == nil {
			err = *fetchErr
		}
		if err != nil {
			return &spider.FetchError{URL: rawURL, Err: err}
		}
		return nil
	}
}

func (f *Fetcher) copyHeaders(headers http.Header, r *colly.Request) {
	for key, values := range headers {
		r.Headers.Del(key)
		for _, v := range values {
			r.Headers.Add(key, v)
		}
	}
	if f.cfg.UserAgent != "" {
		r.Headers.Set("User-Agent", f.cfg.UserAgent)
	}
}

func newHTTPTransport() *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   15 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		MaxIdleConns:          10,
		MaxIdleConnsPerHost:   4,
		IdleConnTimeout:       90 * time.Second,
		ForceAttemptHTTP2:     true,
	}
}
