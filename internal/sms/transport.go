package sms

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	defaultTimeout = 15 * time.Second
	maxRedirects   = 5

	// Some gateways reject requests that identify as a default Go client.
	userAgent    = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	acceptHeader = "text/html,application/json;q=0.9,*/*;q=0.8"
)

// ErrTimeout marks a gateway exchange that hit the transport deadline.
// Kept distinct from other network errors so the classifier can report
// SMS_TIMEOUT instead of a generic gateway error.
var ErrTimeout = errors.New("sms gateway request timed out")

// Response is the raw HTTP outcome of a gateway exchange.
type Response struct {
	StatusCode int
	Body       string
}

// Transport performs HTTP exchanges with gateway endpoints. Redirects are
// followed manually (up to maxRedirects hops) because several gateways emit
// relative Location headers that the default client mishandles, and a single
// deadline covers the whole operation including every hop.
type Transport struct {
	client  *http.Client
	timeout time.Duration
}

func NewTransport(timeout time.Duration) *Transport {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Transport{
		client: &http.Client{
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		timeout: timeout,
	}
}

// Request performs method against rawURL. For GET the form is encoded into the
// query string; for POST it becomes a URL-form-encoded body. extraHeaders are
// applied after the defaults so providers can override them.
func (t *Transport) Request(ctx context.Context, method, rawURL string, form url.Values, extraHeaders map[string]string) (*Response, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	current := rawURL
	for hop := 0; ; hop++ {
		req, err := buildRequest(ctx, method, current, form, extraHeaders)
		if err != nil {
			return nil, err
		}
		resp, err := t.client.Do(req)
		if err != nil {
			if isTimeout(ctx, err) {
				return nil, ErrTimeout
			}
			return nil, fmt.Errorf("gateway request: %w", err)
		}

		if resp.StatusCode >= 301 && resp.StatusCode <= 308 {
			loc := resp.Header.Get("Location")
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			if loc == "" {
				return &Response{StatusCode: resp.StatusCode}, nil
			}
			if hop >= maxRedirects {
				return nil, fmt.Errorf("gateway redirected more than %d times", maxRedirects)
			}
			// Location may be relative; resolve it against the URL we just hit.
			next, err := resp.Request.URL.Parse(loc)
			if err != nil {
				return nil, fmt.Errorf("resolve redirect location %q: %w", loc, err)
			}
			current = next.String()
			if resp.StatusCode != http.StatusTemporaryRedirect && resp.StatusCode != http.StatusPermanentRedirect {
				method = http.MethodGet
				form = nil
			}
			continue
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			if isTimeout(ctx, err) {
				return nil, ErrTimeout
			}
			return nil, fmt.Errorf("read gateway response: %w", err)
		}
		return &Response{StatusCode: resp.StatusCode, Body: string(body)}, nil
	}
}

func buildRequest(ctx context.Context, method, rawURL string, form url.Values, extraHeaders map[string]string) (*http.Request, error) {
	var body io.Reader
	target := rawURL
	if len(form) > 0 {
		if method == http.MethodGet {
			sep := "?"
			if strings.Contains(rawURL, "?") {
				sep = "&"
			}
			target = rawURL + sep + form.Encode()
		} else {
			body = strings.NewReader(form.Encode())
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("build gateway request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", acceptHeader)
	if body != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	for k, v := range extraHeaders {
		req.Header.Set(k, v)
	}
	return req, nil
}

func isTimeout(ctx context.Context, err error) bool {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
