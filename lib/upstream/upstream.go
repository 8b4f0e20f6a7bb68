// Package upstream issues authenticated HTTP calls against the campus
// systems. Both portals are flaky, so every call is retried a bounded number
// of times before a transport failure is surfaced.
package upstream

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"nanyuan-backend/lib/telemetry"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/go-resty/resty/v2"
)

// Error indicates the upstream system failed at the transport level (or kept
// failing for longer than the retry budget). The whole operation is safe to
// retry later.
type Error struct {
	Cause error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("upstream system unavailable: %s", e.Cause)
	}
	return "upstream system unavailable"
}

func (e *Error) Unwrap() error {
	return e.Cause
}

const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36"

type Options struct {
	BaseUrl string
	// per-attempt timeout, defaults to 10s
	Timeout time.Duration
	// additional attempts after the first failure. The zero value picks
	// the default of 5; a negative value disables retrying entirely.
	Retries int
	// wrap the transport in browser-like headers for portals that sit
	// behind bot protection
	BrowserTransport bool
	TracerName       string
}

type Client struct {
	http    *resty.Client
	retries int
}

func NewClient(opts Options) *Client {
	if opts.Timeout == 0 {
		opts.Timeout = time.Second * 10
	}
	if opts.Retries == 0 {
		opts.Retries = 5
	}
	if opts.Retries < 0 {
		opts.Retries = 0
	}
	if opts.TracerName == "" {
		opts.TracerName = "upstream/http"
	}

	client := resty.New()
	client.SetBaseURL(opts.BaseUrl)
	client.SetTimeout(opts.Timeout)
	client.SetHeader("user-agent", userAgent)
	if opts.BrowserTransport {
		client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport)
	}

	telemetry.InstrumentResty(client, opts.TracerName)

	return &Client{
		http:    client,
		retries: opts.Retries,
	}
}

// Request describes one call to an upstream endpoint. The session credential
// is passed per call: the bus portal expects it as a cookie header, the
// academic system as a form field, so the client itself holds no per-user
// state and concurrent calls for different sessions are independent.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Form   map[string]string
	Cookie string
}

// Do performs the request, retrying transport failures sequentially with no
// backoff until the retry budget runs out. Retrying in parallel or with long
// waits only amplifies load on a portal that is already struggling, so
// failures are cheap and the bound is low.
func (c *Client) Do(ctx context.Context, req Request) ([]byte, error) {
	var lastErr error

	for attempt := 0; attempt <= c.retries; attempt++ {
		r := c.http.R().SetContext(ctx)
		if len(req.Query) > 0 {
			r.SetQueryParamsFromValues(req.Query)
		}
		if len(req.Form) > 0 {
			r.SetFormData(req.Form)
		}
		if req.Cookie != "" {
			r.SetHeader("cookie", req.Cookie)
		}

		res, err := r.Execute(strings.ToUpper(req.Method), req.Path)
		if err != nil {
			lastErr = err
		} else if res.IsError() {
			lastErr = fmt.Errorf("unexpected status %q", res.Status())
		} else {
			return res.Body(), nil
		}

		slog.WarnContext(
			ctx, "upstream request failed",
			"path", req.Path,
			"attempt", attempt,
			"err", lastErr,
		)
	}

	return nil, &Error{Cause: lastErr}
}
