// Package schoolbus drives the campus-bus ticketing portal. The portal has
// no API: every day's data is rendered straight into its pages, so this
// client scrapes HTML and embedded script variables, and submits the same
// forms a browser would. The session cookie is obtained externally and
// passed in on every call.
package schoolbus

import (
	"fmt"
	"time"

	"nanyuan-backend/lib/upstream"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("scrapers/schoolbus")

const defaultBaseUrl = "http://nfuedu.zftcloud.com"

// upstream response codes with special meaning. The portal's code space is
// not documented anywhere; these two are known from observed behavior and
// every other code is propagated as a BusinessError.
const (
	codeCreateOk = "10000"
	codeRefundOk = "0000"
)

// BusinessError is an explicit rejection by the portal (sold out, duplicate
// passenger, refund window closed, ...). The description is the portal's own
// text, passed through verbatim so it can be shown to the user. Business
// failures are never retried.
type BusinessError struct {
	Code string
	Desc string
}

func (e *BusinessError) Error() string {
	return fmt.Sprintf("bus portal rejected the request (code %s): %s", e.Code, e.Desc)
}

type ClientOptions struct {
	// defaults to the production portal
	BaseUrl string
	Timeout time.Duration
	Retries int
}

type Client struct {
	http *upstream.Client
}

// scrapeError records an extraction failure on the span and wraps it as an
// upstream failure, since unexpected markup means the portal returned an
// error page or changed.
func scrapeError(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, "unexpected page markup")
	return &upstream.Error{Cause: err}
}

func NewClient(opts ClientOptions) *Client {
	if opts.BaseUrl == "" {
		opts.BaseUrl = defaultBaseUrl
	}
	return &Client{
		http: upstream.NewClient(upstream.Options{
			BaseUrl:          opts.BaseUrl,
			Timeout:          opts.Timeout,
			Retries:          opts.Retries,
			BrowserTransport: true,
			TracerName:       "scrapers/schoolbus/http",
		}),
	}
}
