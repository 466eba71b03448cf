// Package relay proxies HLS playlists and media segments. Playlists
// are rewritten so every URI points back at the relay; everything else
// is streamed through in bounded chunks. The client sees the origin's
// content untouched except for the proxied authority.
package relay

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"streamhub/work/cache"
	"streamhub/work/client"
	"streamhub/work/config"
	"streamhub/work/logger"
	"streamhub/work/metrics"
	"streamhub/work/types"
	"streamhub/work/utils"
)

// maxPlaylistSize bounds how much of a playlist response is read into
// memory before rewriting. Real manifests are kilobytes; anything
// larger is a misbehaving origin, not a playlist.
const maxPlaylistSize = 8 << 20

// ChannelResolver recovers a channel's auth context from its canonical
// stream URL. Satisfied by the catalog.
type ChannelResolver interface {
	ChannelByURL(url string) (types.ChannelEntry, bool)
}

// Relay serves the /stream endpoint.
type Relay struct {
	cfg      *config.Config
	client   *client.HeaderSettingClient
	cache    *cache.Cache
	resolver ChannelResolver
}

// New builds a relay around the dedicated outbound client. The client
// must be the relay-scoped one: no overall timeout, optionally relaxed
// TLS verification.
func New(cfg *config.Config, relayClient *client.HeaderSettingClient, c *cache.Cache, resolver ChannelResolver) *Relay {
	return &Relay{cfg: cfg, client: relayClient, cache: c, resolver: resolver}
}

// ServeHTTP handles one relay request: resolve auth, fetch the target,
// then branch on playlist versus raw stream.
func (r *Relay) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	query := req.URL.Query()
	target := query.Get("url")
	if target == "" {
		http.Error(w, "missing url parameter", http.StatusBadRequest)
		return
	}

	auth, lookup := r.resolveAuth(query, target)

	// Short-lived playlist cache absorbs player re-polls of the same
	// manifest. Disabled unless a TTL is configured. Relative URIs
	// resolve against the URL the body was originally fetched from,
	// which may differ from the target after redirects.
	if cached, fetchedURL, ok := r.cache.GetPlaylist(target); ok {
		if u, err := url.Parse(fetchedURL); err == nil {
			if lookup == "" {
				lookup = target
			}
			r.writePlaylist(w, cached, u, auth, lookup)
			return
		}
	}

	resp, err := r.fetch(req, target, auth)
	if err != nil {
		logger.Warn("{relay - ServeHTTP} Upstream fetch failed for %s: %v", utils.LogURL(r.cfg.ObfuscateUrls, target), err)
		metrics.RelayRequests.WithLabelValues("unknown", "upstream_error").Inc()
		http.Error(w, "upstream fetch failed", http.StatusBadGateway)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		logger.Warn("{relay - ServeHTTP} Upstream returned %d for %s", resp.StatusCode, utils.LogURL(r.cfg.ObfuscateUrls, target))
		metrics.RelayRequests.WithLabelValues("unknown", "upstream_status").Inc()
		http.Error(w, fmt.Sprintf("upstream returned %d", resp.StatusCode), http.StatusBadGateway)
		return
	}

	if isPlaylist(resp) {
		// The original target is the lookup key for every link inside
		// this playlist unless one was already threaded through.
		if lookup == "" {
			lookup = target
		}
		r.servePlaylist(w, resp, target, auth, lookup)
		return
	}
	r.serveStream(w, req, resp)
}

// resolveAuth builds the outbound auth context. Explicit query
// parameters win; otherwise a session token minted during an earlier
// playlist rewrite is consulted, then the catalog entry for the lookup
// key, then the catalog entry for the target URL itself.
func (r *Relay) resolveAuth(query url.Values, target string) (types.AuthContext, string) {
	auth := types.AuthContext{
		Referer: query.Get("referer"),
		Origin:  query.Get("origin"),
		Cookie:  query.Get("cookie"),
	}
	lookup := query.Get("lookup")

	if auth.Referer != "" || auth.Origin != "" || auth.Cookie != "" {
		return auth, lookup
	}

	if sid := query.Get("sid"); sid != "" {
		if stored, ok := r.cache.Session(sid); ok {
			return stored, lookup
		}
		logger.Debug("{relay - resolveAuth} Unknown or expired session token")
	}

	key := lookup
	if key == "" {
		key = target
	}
	if entry, ok := r.resolver.ChannelByURL(key); ok {
		return types.AuthContext{Referer: entry.Referer, Origin: entry.Origin, Cookie: entry.Cookie}, lookup
	}

	return auth, lookup
}

func (r *Relay) fetch(req *http.Request, target string, auth types.AuthContext) (*http.Response, error) {
	// The incoming request context cancels the origin fetch the moment
	// the client disconnects.
	upReq, err := http.NewRequestWithContext(req.Context(), http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("invalid target url: %w", err)
	}

	if auth.Referer != "" {
		upReq.Header.Set("Referer", auth.Referer)
	}
	if auth.Origin != "" {
		upReq.Header.Set("Origin", auth.Origin)
	}
	if auth.Cookie != "" {
		upReq.Header.Set("Cookie", auth.Cookie)
	}

	return r.client.Do(upReq)
}

// servePlaylist rewrites a playlist body and returns it whole. A
// session token carrying the auth context is minted so segment and key
// requests can recover the headers without repeating them in the URL.
func (r *Relay) servePlaylist(w http.ResponseWriter, resp *http.Response, target string, auth types.AuthContext, lookup string) {
	// One byte past the cap distinguishes a truncated read from a body
	// that is exactly at the limit.
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPlaylistSize+1))
	if err != nil {
		metrics.RelayRequests.WithLabelValues("playlist", "read_error").Inc()
		http.Error(w, "upstream read failed", http.StatusBadGateway)
		return
	}
	if len(body) > maxPlaylistSize {
		metrics.RelayRequests.WithLabelValues("playlist", "too_large").Inc()
		http.Error(w, "upstream playlist too large", http.StatusBadGateway)
		return
	}

	r.cache.SetPlaylist(target, string(body), resp.Request.URL.String())
	r.writePlaylist(w, string(body), resp.Request.URL, auth, lookup)
}

// writePlaylist rewrites and sends a playlist body. A session token
// carrying the auth headers is minted per response so rewritten links
// stay short.
func (r *Relay) writePlaylist(w http.ResponseWriter, body string, fetchedURL *url.URL, auth types.AuthContext, lookup string) {
	sid := ""
	if auth.Referer != "" || auth.Origin != "" || auth.Cookie != "" {
		sid = r.cache.MintSession(auth)
	}

	rewritten := RewritePlaylist(body, fetchedURL, r.cfg.BaseURL, sid, lookup)

	w.Header().Set("Content-Type", "application/vnd.apple.mpegurl")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(http.StatusOK)
	n, _ := w.Write([]byte(rewritten))

	metrics.RelayRequests.WithLabelValues("playlist", "ok").Inc()
	metrics.RelayBytes.Add(float64(n))
}

// serveStream copies the origin body through in chunks, flushing as it
// goes so players start rendering before the segment completes.
func (r *Relay) serveStream(w http.ResponseWriter, req *http.Request, resp *http.Response) {
	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(http.StatusOK)

	metrics.ActiveRelayStreams.Inc()
	defer metrics.ActiveRelayStreams.Dec()

	flusher, _ := w.(http.Flusher)
	buf := make([]byte, 32*1024)
	var written int64

	for {
		n, err := resp.Body.Read(buf)
		if n > 0 {
			if _, werr := w.Write(buf[:n]); werr != nil {
				// Client went away; the request context tears down the
				// origin fetch.
				metrics.RelayRequests.WithLabelValues("segment", "client_gone").Inc()
				metrics.RelayBytes.Add(float64(written))
				return
			}
			written += int64(n)
			if flusher != nil {
				flusher.Flush()
			}
		}
		if err != nil {
			if err != io.EOF && req.Context().Err() == nil {
				logger.Debug("{relay - serveStream} Upstream read ended: %v", err)
			}
			break
		}
	}

	metrics.RelayRequests.WithLabelValues("segment", "ok").Inc()
	metrics.RelayBytes.Add(float64(written))
}

// isPlaylist decides playlist versus media on content-type first, then
// the final URL's suffix. resp.Request.URL reflects redirects.
func isPlaylist(resp *http.Response) bool {
	ct := strings.ToLower(resp.Header.Get("Content-Type"))
	if strings.Contains(ct, "application/vnd.apple.mpegurl") || strings.Contains(ct, "application/x-mpegurl") {
		return true
	}
	return strings.HasSuffix(strings.ToLower(resp.Request.URL.Path), ".m3u8")
}
