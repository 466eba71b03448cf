// Package fetcher pulls raw channel and match records from the
// configured upstream sources. Every fetcher contains its own failures:
// a network error, a malformed payload or a schema mismatch yields an
// empty result and a log line, never an error past the fetcher boundary,
// so one broken source degrades the union without aborting a refresh.
package fetcher

import (
	"context"
	"net/http"
	"strings"

	"streamhub/work/client"
	"streamhub/work/config"
	"streamhub/work/logger"
	"streamhub/work/types"
	"streamhub/work/utils"
)

// ChannelFetcher pulls raw channel records from one source. Returned
// entries are loosely populated: IDs and slugs are assigned later by
// the catalog build, names and defaults by the normalizer.
type ChannelFetcher interface {
	FetchChannels(ctx context.Context) []types.ChannelEntry
}

// MatchFetcher pulls raw match records from one source.
type MatchFetcher interface {
	FetchMatches(ctx context.Context) []types.MatchEntry
}

// Registry groups the fetchers built from the configured sources,
// preserving source order, which is also the dedup priority order.
type Registry struct {
	Channels []ChannelFetcher
	Matches  []MatchFetcher
}

// Build constructs fetchers for every configured source. Unknown source
// types are logged and skipped rather than failing startup.
func Build(cfg *config.Config, httpClient *client.HeaderSettingClient) *Registry {
	reg := &Registry{}

	for i := range cfg.Sources {
		src := &cfg.Sources[i]
		switch src.Type {
		case config.SourceTypeJSON:
			reg.Channels = append(reg.Channels, &jsonNestedFetcher{cfg: cfg, src: src, client: httpClient})
		case config.SourceTypeJSONFlat:
			reg.Channels = append(reg.Channels, &jsonFlatFetcher{cfg: cfg, src: src, client: httpClient})
		case config.SourceTypeM3U:
			reg.Channels = append(reg.Channels, &m3uFetcher{cfg: cfg, src: src, client: httpClient})
		case config.SourceTypeMatchHTML:
			reg.Matches = append(reg.Matches, &matchHTMLFetcher{cfg: cfg, src: src, client: httpClient})
		default:
			logger.Warn("{fetcher - Build} Unknown source type %q for source %s, skipping", src.Type, src.Name)
		}
	}

	return reg
}

// FetchAllChannels runs every channel fetcher in source order and
// concatenates the results. Order matters downstream: the normalizer
// keeps the first occurrence of a duplicate URL.
func (r *Registry) FetchAllChannels(ctx context.Context) []types.ChannelEntry {
	var all []types.ChannelEntry
	for _, f := range r.Channels {
		all = append(all, f.FetchChannels(ctx)...)
	}
	return all
}

// FetchAllMatches runs every match fetcher in source order.
func (r *Registry) FetchAllMatches(ctx context.Context) []types.MatchEntry {
	var all []types.MatchEntry
	for _, f := range r.Matches {
		all = append(all, f.FetchMatches(ctx)...)
	}
	return all
}

// fetchDocument issues a GET for a source document with the source's
// header overrides applied. Returns nil on any failure; callers treat
// that as an empty source this cycle.
func fetchDocument(ctx context.Context, httpClient *client.HeaderSettingClient, cfg *config.Config, src *config.SourceConfig, url string) *http.Response {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		logger.Warn("{fetcher - fetchDocument} Error creating request for %s: %v", utils.LogURL(cfg.ObfuscateUrls, url), err)
		return nil
	}

	if src.UserAgent != "" {
		req.Header.Set("User-Agent", src.UserAgent)
	}
	if src.ReqReferrer != "" {
		req.Header.Set("Referer", src.ReqReferrer)
	}
	if src.ReqOrigin != "" {
		req.Header.Set("Origin", src.ReqOrigin)
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		logger.Warn("{fetcher - fetchDocument} Error fetching %s: %v", utils.LogURL(cfg.ObfuscateUrls, url), err)
		return nil
	}

	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		logger.Warn("{fetcher - fetchDocument} HTTP %d from %s", resp.StatusCode, utils.LogURL(cfg.ObfuscateUrls, url))
		return nil
	}

	return resp
}

// applyMirror rewrites one known upstream CDN hostname to its mirror on
// an extracted stream URL. Source-specific compatibility rule, not a
// general transform.
func applyMirror(src *config.SourceConfig, url string) string {
	if src.MirrorFrom == "" || src.MirrorTo == "" {
		return url
	}
	return strings.Replace(url, src.MirrorFrom, src.MirrorTo, 1)
}
