package util

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/bsv-blockchain/txflow/errors"
	"github.com/ordishs/gocore"
)

var (
	// httpRequestTimeout defines the default HTTP request timeout in seconds
	// when no deadline is set on the context.
	httpRequestTimeout, _ = gocore.Config().GetInt("http_timeout", 60)
)

type httpRequestOptions struct {
	client  *http.Client
	headers map[string]string
	body    []byte
}

type HTTPOption func(*httpRequestOptions)

// WithHTTPClient replaces http.DefaultClient for a single request.
func WithHTTPClient(client *http.Client) HTTPOption {
	return func(o *httpRequestOptions) {
		o.client = client
	}
}

func WithHeader(key, value string) HTTPOption {
	return func(o *httpRequestOptions) {
		if o.headers == nil {
			o.headers = make(map[string]string)
		}

		o.headers[key] = value
	}
}

// WithBearerToken sets the Authorization header, an empty token is ignored.
func WithBearerToken(token string) HTTPOption {
	return func(o *httpRequestOptions) {
		if token == "" {
			return
		}

		WithHeader("Authorization", "Bearer "+token)(o)
	}
}

// WithRequestBody switches the request to a JSON POST.
func WithRequestBody(body []byte) HTTPOption {
	return func(o *httpRequestOptions) {
		o.body = body
	}
}

// DoHTTPRequest performs an HTTP GET (or POST when a body is given) and returns the response body.
// 404 maps to a NOT_FOUND error, 502/503/504 to SERVICE_UNAVAILABLE, transport failures to NETWORK_ERROR.
func DoHTTPRequest(ctx context.Context, url string, opts ...HTTPOption) ([]byte, error) {
	bodyReaderCloser, cancelFn, err := doHTTPRequest(ctx, url, opts...)
	defer cancelFn()

	if err != nil {
		return nil, err
	}

	defer func() {
		_ = bodyReaderCloser.Close()
	}()

	done := make(chan struct{})

	var (
		body    []byte
		readErr error
	)

	go func() {
		body, readErr = io.ReadAll(bodyReaderCloser)
		close(done)
	}()

	select {
	case <-ctx.Done():
		return nil, errors.NewNetworkTimeoutError("http request [%s] timed out while reading body", url, ctx.Err())
	case <-done:
		if readErr != nil {
			return nil, errors.NewNetworkError("http request [%s] failed to read body", url, readErr)
		}

		return body, nil
	}
}

func doHTTPRequest(ctx context.Context, url string, opts ...HTTPOption) (io.ReadCloser, context.CancelFunc, error) {
	o := &httpRequestOptions{client: http.DefaultClient}
	for _, opt := range opts {
		opt(o)
	}

	cancelFn := func() {
		// noop
	}

	if _, ok := ctx.Deadline(); !ok {
		ctx, cancelFn = context.WithTimeout(ctx, time.Duration(httpRequestTimeout)*time.Second)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, cancelFn, errors.NewInvalidArgumentError("failed to create http request", err)
	}

	if o.body != nil {
		req.Body = io.NopCloser(bytes.NewReader(o.body))
		req.Method = http.MethodPost
		req.Header.Set("Content-Type", "application/json")
	}

	for k, v := range o.headers {
		req.Header.Set(k, v)
	}

	resp, err := o.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			if errors.Is(ctx.Err(), context.Canceled) {
				return nil, cancelFn, errors.NewContextCanceledError("http request [%s] canceled", url, ctx.Err())
			}

			return nil, cancelFn, errors.NewNetworkTimeoutError("http request [%s] timed out", url, err)
		}

		return nil, cancelFn, errors.NewNetworkError("failed to do http request [%s]", url, err)
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		defer func() {
			_ = resp.Body.Close()
		}()

		var errFn func(string, ...interface{}) error

		switch resp.StatusCode {
		case http.StatusNotFound:
			errFn = errors.NewNotFoundError
		case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout, http.StatusTooManyRequests:
			errFn = errors.NewServiceUnavailableError
		default:
			errFn = errors.NewServiceError
		}

		b, readErr := io.ReadAll(resp.Body)
		if readErr != nil {
			return nil, cancelFn, errFn("http request [%s] returned status code [%d]", url, resp.StatusCode, readErr)
		}

		return nil, cancelFn, errFn("http request [%s] returned status code [%d] with body [%s]", url, resp.StatusCode, strings.TrimSpace(string(b)))
	}

	if strings.HasPrefix(resp.Header.Get("Content-Type"), "text/html") {
		_ = resp.Body.Close()
		return nil, cancelFn, errors.NewNetworkInvalidResponseError("http request [%s] returned HTML - assume bad URL", url)
	}

	return resp.Body, cancelFn, nil
}
