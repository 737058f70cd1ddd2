package github

import (
	"context"
	"fmt"
	"time"
	"vigil-backend/internal/components/assert"
	"vigil-backend/internal/components/telemetry"
	"vigil-backend/lib/restyutil"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"
)

const report_fetcher_fetch = "fetcher.fetch"

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36"

// FetchError is returned when a page could not be retrieved. StatusCode is 0 when the request
// never produced a response (timeout, dns, connection reset, ...).
type FetchError struct {
	Url        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("status code %d", e.StatusCode)
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "fetch failed"
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Fetcher retrieves the raw html of a page.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

type FetcherOptions struct {
	// Timeout bounds a single request, defaults to 30 seconds. The context passed to Fetch
	// can shorten it further.
	Timeout time.Duration
	// RequestsPerSecond limits outbound requests, defaults to 2. Burst is the same value.
	RequestsPerSecond float64
	UserAgent         string
	CloudflareBypass  bool
	// Dump, if non-nil, receives every http exchange in full.
	Dump restyutil.InstrumentOutput
}

// HttpFetcher is a Fetcher on top of resty. It does not retry.
type HttpFetcher struct {
	http *resty.Client
	tel  telemetry.API
}

func NewHttpFetcher(opts FetcherOptions, tel telemetry.API) HttpFetcher {
	assert.NotNil(tel)

	if opts.Timeout <= 0 {
		opts.Timeout = time.Second * 30
	}
	if opts.RequestsPerSecond <= 0 {
		opts.RequestsPerSecond = 2
	}
	if opts.UserAgent == "" {
		opts.UserAgent = defaultUserAgent
	}

	client := resty.New()
	client.SetHeader("user-agent", opts.UserAgent)
	client.SetHeader("accept", "text/html,application/xhtml+xml")
	client.SetTimeout(opts.Timeout)
	client.SetRetryCount(0)
	if opts.CloudflareBypass {
		client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport)
	}

	// instrumentation goes first so that requests rejected by the limiter are still reported
	telemetry.InstrumentResty(client, "vigil.scrapers.github", tel)

	burst := int(opts.RequestsPerSecond)
	if burst < 1 {
		burst = 1
	}
	rateLimiter := rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), burst)
	client.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
		return rateLimiter.Wait(req.Context())
	})

	restyutil.DumpResponses(client, opts.Dump)

	return HttpFetcher{http: client, tel: tel}
}

func (f HttpFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	res, err := f.http.R().
		SetContext(ctx).
		Get(url)
	if err != nil {
		f.tel.ReportWarning(report_fetcher_fetch, url, err)
		return nil, &FetchError{Url: url, Err: err}
	}
	if !res.IsSuccess() {
		f.tel.ReportWarning(report_fetcher_fetch, url, res.Status())
		return nil, &FetchError{Url: url, StatusCode: res.StatusCode()}
	}
	return res.Body(), nil
}
