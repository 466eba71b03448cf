package client

import (
	"crypto/tls"
	"net/http"
	"time"

	"streamhub/work/config"
)

// HeaderSettingClient wraps http.Client to automatically stamp the
// browser-like headers every upstream expects. One instance with strict
// TLS serves the fetch pipeline; the relay gets its own instance so the
// certificate-verification trade-off stays scoped to relay traffic.
type HeaderSettingClient struct {
	Client *http.Client
	cfg    *config.Config

	// retries is the bounded transport-level retry count for connection
	// errors on bodyless requests. Zero on the fetch client; the relay
	// client retries a couple of times with a short backoff.
	retries int
}

// NewFetchClient builds the client used by source fetchers and the
// reachability validator. Overall timeout applies because fetch bodies
// are bounded documents, not streams.
func NewFetchClient(cfg *config.Config) *HeaderSettingClient {
	c := &http.Client{
		Timeout: 30 * time.Second,
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
			TLSHandshakeTimeout: 10 * time.Second,
		},
	}

	return &HeaderSettingClient{Client: c, cfg: cfg}
}

// NewRelayClient builds the relay's outbound client. No overall timeout:
// segment bodies stream for as long as the client keeps reading. The
// response-header timeout bounds how long an origin may stall before a
// byte arrives, and connection pooling amortizes TLS handshakes across
// repeated segment fetches against the same origin.
func NewRelayClient(cfg *config.Config) *HeaderSettingClient {
	transport := &http.Transport{
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   10,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		ResponseHeaderTimeout: cfg.RelayTimeout,
	}
	if cfg.RelayInsecureTLS {
		// Compatibility with origins serving broken certificate chains.
		// Scoped to this transport only.
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}

	c := &http.Client{
		Timeout:   0,
		Transport: transport,
	}

	return &HeaderSettingClient{Client: c, cfg: cfg, retries: 2}
}

// Do stamps default headers and executes the request, retrying
// connection errors up to the configured count. Headers already set on
// the request are left alone so callers can override per-source.
func (hsc *HeaderSettingClient) Do(req *http.Request) (*http.Response, error) {
	hsc.setHeaders(req)

	resp, err := hsc.Client.Do(req)
	for attempt := 0; err != nil && attempt < hsc.retries && req.Body == nil; attempt++ {
		select {
		case <-req.Context().Done():
			return nil, err
		case <-time.After(time.Duration(attempt+1) * 250 * time.Millisecond):
		}
		resp, err = hsc.Client.Do(req)
	}
	return resp, err
}

func (hsc *HeaderSettingClient) setHeaders(req *http.Request) {
	if req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", hsc.cfg.UserAgent)
	}
	if req.Header.Get("Accept") == "" {
		req.Header.Set("Accept", "*/*")
	}
	req.Header.Set("Connection", "keep-alive")
}
