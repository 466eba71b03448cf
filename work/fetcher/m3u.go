package fetcher

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"strings"

	"github.com/grafana/regexp"
	"github.com/grafov/m3u8"

	"streamhub/work/client"
	"streamhub/work/config"
	"streamhub/work/logger"
	"streamhub/work/types"
	"streamhub/work/utils"
)

// m3uFetcher handles M3U channel lists. A structured HLS playlist
// (master or media) decodes cleanly with grafov; the common IPTV list
// format with tvg-* attributes on the EXTINF line does not, so a
// line scanner handles that shape.
type m3uFetcher struct {
	cfg    *config.Config
	src    *config.SourceConfig
	client *client.HeaderSettingClient
}

var (
	extinfName  = regexp.MustCompile(`,([^,]+)$`)
	extinfLogo  = regexp.MustCompile(`tvg-logo="([^"]*)"`)
	extinfGroup = regexp.MustCompile(`group-title="([^"]*)"`)
)

func (f *m3uFetcher) FetchChannels(ctx context.Context) []types.ChannelEntry {
	resp := fetchDocument(ctx, f.client, f.cfg, f.src, f.src.URL)
	if resp == nil {
		return nil
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		logger.Warn("{fetcher/m3u - FetchChannels} Error reading %s: %v", f.src.Name, err)
		return nil
	}

	entries := f.parseWithGrafov(body)
	if entries == nil {
		entries = f.parseEXTINF(body)
	}

	logger.Debug("{fetcher/m3u - FetchChannels} %s: %d records from %s", f.src.Name, len(entries), utils.LogURL(f.cfg.ObfuscateUrls, f.src.URL))
	return entries
}

// parseWithGrafov decodes a strict HLS playlist. Master playlists map
// each variant to a channel; anything else falls through to the EXTINF
// scanner by returning nil.
func (f *m3uFetcher) parseWithGrafov(body []byte) []types.ChannelEntry {
	playlist, listType, err := m3u8.DecodeFrom(bytes.NewReader(body), true)
	if err != nil {
		return nil
	}

	if listType != m3u8.MASTER {
		return nil
	}

	master, ok := playlist.(*m3u8.MasterPlaylist)
	if !ok {
		return nil
	}

	var entries []types.ChannelEntry
	for _, variant := range master.Variants {
		if variant == nil || variant.URI == "" {
			continue
		}
		name := variant.Name
		if name == "" {
			name = variant.Resolution
		}
		entries = append(entries, types.ChannelEntry{
			Name:     name,
			URL:      f.resolveURI(variant.URI),
			Category: f.src.Category,
		})
	}
	return entries
}

// parseEXTINF scans an IPTV-style list: an #EXTINF line carrying the
// display name and optional tvg-logo / group-title attributes, followed
// by the stream URL on the next non-comment line.
func (f *m3uFetcher) parseEXTINF(body []byte) []types.ChannelEntry {
	var entries []types.ChannelEntry
	var pending *types.ChannelEntry

	scanner := bufio.NewScanner(bytes.NewReader(body))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "#EXTINF") {
			entry := types.ChannelEntry{Category: f.src.Category}
			if m := extinfName.FindStringSubmatch(line); m != nil {
				entry.Name = strings.TrimSpace(m[1])
			}
			if m := extinfLogo.FindStringSubmatch(line); m != nil {
				entry.Logo = m[1]
			}
			if m := extinfGroup.FindStringSubmatch(line); m != nil {
				entry.Category = m[1]
			}
			pending = &entry
			continue
		}

		if strings.HasPrefix(line, "#") {
			continue
		}

		if pending != nil {
			pending.URL = f.resolveURI(line)
			entries = append(entries, *pending)
			pending = nil
		}
	}

	return entries
}

// resolveURI makes a relative playlist URI absolute against the source
// document URL.
func (f *m3uFetcher) resolveURI(uri string) string {
	if strings.HasPrefix(uri, "http://") || strings.HasPrefix(uri, "https://") {
		return uri
	}
	return utils.ResolveReference(f.src.URL, uri)
}
