package places

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"math/rand"
	"net"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	utls "github.com/refraction-networking/utls"
)

const (
	defaultBaseURL = "https://maps.googleapis.com/maps/api/place"

	searchPath  = "/textsearch/json"
	detailsPath = "/details/json"

	defaultRetries = 3
	retryDelay     = 2 * time.Second
)

var userAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36",
}

// ErrRetriesExhausted is returned when every attempt of a call failed at the
// transport or HTTP level.
var ErrRetriesExhausted = errors.New("retries exhausted")

// HTTPStatusError indicates a non-success HTTP status. Retryable.
type HTTPStatusError struct {
	Code int
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("unexpected status %d", e.Code)
}

// APIError is a domain-level error signaled in the response status field.
// Never retried; Fatal errors additionally mean the whole run should give up
// on the remote (quota, auth, malformed request).
type APIError struct {
	Status  string
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return "api error: " + e.Status
	}
	return fmt.Sprintf("api error: %s - %s", e.Status, e.Message)
}

func (e *APIError) Fatal() bool {
	switch e.Status {
	case StatusOverQueryLimit, StatusRequestDenied, StatusInvalidRequest:
		return true
	}
	return false
}

// apiResponse is implemented by every response envelope so the client can
// classify the domain status uniformly.
type apiResponse interface {
	apiStatus() (status, message string)
}

func (r *SearchResponse) apiStatus() (string, string)  { return r.Status, r.ErrorMessage }
func (r *DetailsResponse) apiStatus() (string, string) { return r.Status, r.ErrorMessage }

type Client struct {
	http    *http.Client
	apiKey  string
	baseURL string
	retries int
	delay   time.Duration
	logger  *log.Logger
	retried atomic.Int64

	debugDir string
	debugSeq atomic.Int64
}

func NewClient(apiKey, proxyURL string, logger *log.Logger) *Client {
	dialer := &net.Dialer{
		Timeout:   10 * time.Second,
		KeepAlive: 30 * time.Second,
	}

	transport := &http.Transport{
		DialTLSContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
			conn, err := dialer.DialContext(ctx, network, addr)
			if err != nil {
				return nil, err
			}

			host, _, err := net.SplitHostPort(addr)
			if err != nil {
				host = addr
			}

			// Get Chrome TLS spec and force HTTP/1.1 ALPN
			spec, err := utls.UTLSIdToSpec(utls.HelloChrome_Auto)
			if err != nil {
				conn.Close()
				return nil, err
			}
			for i, ext := range spec.Extensions {
				if alpn, ok := ext.(*utls.ALPNExtension); ok {
					alpn.AlpnProtocols = []string{"http/1.1"}
					spec.Extensions[i] = alpn
					break
				}
			}

			tlsConn := utls.UClient(conn, &utls.Config{
				ServerName: host,
			}, utls.HelloCustom)
			if err := tlsConn.ApplyPreset(&spec); err != nil {
				conn.Close()
				return nil, err
			}
			if err := tlsConn.HandshakeContext(ctx); err != nil {
				conn.Close()
				return nil, err
			}

			return tlsConn, nil
		},
		MaxIdleConns:        10,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
	}

	if proxyURL != "" {
		proxyParsed, err := url.Parse(proxyURL)
		if err == nil {
			transport.Proxy = http.ProxyURL(proxyParsed)
			// When using proxy, fall back to standard TLS (proxy handles connection)
			transport.DialTLSContext = nil
			transport.TLSClientConfig = &tls.Config{}
		}
	}

	return &Client{
		http: &http.Client{
			Transport: transport,
			Timeout:   30 * time.Second,
		},
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		retries: defaultRetries,
		delay:   retryDelay,
		logger:  logger,
	}
}

// TextSearch runs a text search for the given query.
func (c *Client) TextSearch(ctx context.Context, query, category string) (*SearchResponse, error) {
	params := url.Values{}
	params.Set("query", query)
	params.Set("type", category)
	params.Set("rankby", "prominence")

	var resp SearchResponse
	if err := c.call(ctx, searchPath, params, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// NextPage fetches the next search page using only the continuation token.
func (c *Client) NextPage(ctx context.Context, token string) (*SearchResponse, error) {
	params := url.Values{}
	params.Set("pagetoken", token)

	var resp SearchResponse
	if err := c.call(ctx, searchPath, params, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Details fetches the detail record for one place.
func (c *Client) Details(ctx context.Context, placeID, fieldMask string) (*DetailsResponse, error) {
	params := url.Values{}
	params.Set("place_id", placeID)
	params.Set("fields", fieldMask)

	var resp DetailsResponse
	if err := c.call(ctx, detailsPath, params, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// RetryCount returns how many retry attempts the client has made in total.
func (c *Client) RetryCount() int64 {
	return c.retried.Load()
}

// EnableDebug makes the client dump every raw response body into dir.
func (c *Client) EnableDebug(dir string) {
	c.debugDir = dir
}

// call performs one logical request: up to c.retries attempts with a fixed
// delay between them. Transport failures and non-success HTTP statuses
// consume an attempt; domain-level errors in the status field are terminal.
func (c *Client) call(ctx context.Context, path string, params url.Values, out apiResponse) error {
	redacted := redactParams(params)

	var lastErr error
	for attempt := 0; attempt < c.retries; attempt++ {
		if attempt > 0 {
			c.retried.Add(1)
			c.logger.Printf("RETRY path=%s in %s (attempt %d/%d)", path, c.delay, attempt+1, c.retries)
			if err := sleepCtx(ctx, c.delay); err != nil {
				return err
			}
		}

		c.logger.Printf("REQUEST path=%s params=%s", path, redacted)

		body, err := c.doRequest(ctx, path, params)
		if err != nil {
			lastErr = err
			c.logger.Printf("ERROR path=%s err=%v", path, err)
			if ctx.Err() != nil {
				return ctx.Err()
			}
			continue
		}

		if err := json.Unmarshal(body, out); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}

		status, message := out.apiStatus()
		if status == StatusOK || status == StatusZeroResults {
			return nil
		}

		apiErr := &APIError{Status: status, Message: message}
		c.logger.Printf("API_ERROR path=%s status=%s msg=%q fatal=%t", path, status, message, apiErr.Fatal())
		return apiErr
	}

	return fmt.Errorf("%w after %d attempts: %v", ErrRetriesExhausted, c.retries, lastErr)
}

func (c *Client) doRequest(ctx context.Context, path string, params url.Values) ([]byte, error) {
	q := url.Values{}
	for k, vs := range params {
		q[k] = vs
	}
	q.Set("key", c.apiKey)

	reqURL := c.baseURL + path + "?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("User-Agent", userAgents[rand.Intn(len(userAgents))])
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return nil, &HTTPStatusError{Code: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading body: %w", err)
	}

	if c.debugDir != "" {
		seq := c.debugSeq.Add(1)
		name := fmt.Sprintf("debug_%s_%03d.json", strings.Trim(strings.ReplaceAll(path, "/", "_"), "_"), seq)
		os.WriteFile(filepath.Join(c.debugDir, name), body, 0644)
	}

	return body, nil
}

// redactParams renders query parameters for logging with the credential
// blanked out.
func redactParams(params url.Values) string {
	clean := url.Values{}
	for k, vs := range params {
		clean[k] = vs
	}
	clean.Set("key", "[REDACTED]")
	return clean.Encode()
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
