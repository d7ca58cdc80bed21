// Package httpclient wraps fasthttp for the outbound provider adapters.
package httpclient

import (
	"context"
	"fmt"
	"time"

	"github.com/valyala/fasthttp"
)

const userAgent = "instatrip/1.0"

// New returns a fasthttp client tuned for small JSON API calls.
func New(name string) *fasthttp.Client {
	return &fasthttp.Client{
		Name:                userAgent + " (" + name + ")",
		MaxConnsPerHost:     64,
		MaxIdleConnDuration: 30 * time.Second,
	}
}

// Get performs a GET and returns a copy of the body with the status code.
// The request ends at the earlier of ctx's deadline and now+timeout; when
// ctx is done the returned error is ctx.Err().
func Get(ctx context.Context, client *fasthttp.Client, uri string, timeout time.Duration) ([]byte, int, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}

	deadline := time.Now().Add(timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(uri)
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.Set(fasthttp.HeaderAccept, "application/json")

	if err := client.DoDeadline(req, resp, deadline); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, 0, ctxErr
		}
		if err == fasthttp.ErrTimeout {
			return nil, 0, fmt.Errorf("%w: %v", context.DeadlineExceeded, err)
		}
		return nil, 0, err
	}

	body := append([]byte(nil), resp.Body()...)
	return body, resp.StatusCode(), nil
}
