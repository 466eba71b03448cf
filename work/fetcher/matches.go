package fetcher

import (
	"context"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/grafana/regexp"

	"streamhub/work/client"
	"streamhub/work/config"
	"streamhub/work/logger"
	"streamhub/work/types"
	"streamhub/work/utils"
)

// matchHTMLFetcher scrapes a sports listing page built from match
// cards. Each card carries its metadata in data-* attributes; live
// cards additionally yield a playable stream URL, either directly from
// the card or extracted from the match's player page.
type matchHTMLFetcher struct {
	cfg    *config.Config
	src    *config.SourceConfig
	client *client.HeaderSettingClient
}

// playerSource captures the encoded upstream URL the player page embeds
// in its setupPlayer call.
var playerSource = regexp.MustCompile(`setupPlayer\("proxy\.php\?url=([^"]+)"`)

func (f *matchHTMLFetcher) FetchMatches(ctx context.Context) []types.MatchEntry {
	resp := fetchDocument(ctx, f.client, f.cfg, f.src, f.src.URL)
	if resp == nil {
		return nil
	}
	defer resp.Body.Close()

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		logger.Warn("{fetcher/matches - FetchMatches} Error parsing HTML from %s: %v", f.src.Name, err)
		return nil
	}

	var entries []types.MatchEntry
	doc.Find("div.match-card").Each(func(_ int, card *goquery.Selection) {
		entry := f.parseCard(card)
		if entry.Title == "" {
			return
		}

		if entry.Status == types.StatusLive {
			adfree, _ := card.Attr("data-adfree-url")
			id, _ := card.Attr("data-id")
			entry.M3U8Link = f.resolveStream(ctx, adfree, id)
		}

		entries = append(entries, entry)
	})

	logger.Debug("{fetcher/matches - FetchMatches} %s: %d match cards from %s", f.src.Name, len(entries), utils.LogURL(f.cfg.ObfuscateUrls, f.src.URL))
	return entries
}

// parseCard reads one match card. Layout contract with the upstream
// page: h3 holds the title, the first paragraph the description, the
// fourth a "Start Time: ..." line.
func (f *matchHTMLFetcher) parseCard(card *goquery.Selection) types.MatchEntry {
	entry := types.MatchEntry{}

	entry.Category, _ = card.Attr("data-category")
	status, _ := card.Attr("data-status")
	entry.Status = strings.ToUpper(strings.TrimSpace(status))
	entry.Image, _ = card.Find("img").First().Attr("src")
	entry.Title = strings.TrimSpace(card.Find("h3").First().Text())

	paras := card.Find("p")
	if paras.Length() > 0 {
		entry.Description = strings.TrimSpace(paras.Eq(0).Text())
	}
	if paras.Length() > 3 {
		entry.StartTime = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(paras.Eq(3).Text()), "Start Time:"))
	}

	return entry
}

// resolveStream finds the m3u8 URL for a live match. The ad-free URL on
// the card wins; otherwise the player page for the match is fetched and
// the embedded proxy parameter decoded out of it. Returns "" when no
// stream can be recovered, which leaves the match listed but unplayable.
func (f *matchHTMLFetcher) resolveStream(ctx context.Context, adfreeURL, matchID string) string {
	if adfreeURL != "" {
		return applyMirror(f.src, adfreeURL)
	}

	if matchID == "" || f.src.PlayPageURL == "" {
		return ""
	}

	// PlayPageURL is a template the match id is appended to, e.g.
	// "https://host/play.php?id=".
	pageURL := f.src.PlayPageURL + url.QueryEscape(matchID)
	resp := fetchDocument(ctx, f.client, f.cfg, f.src, pageURL)
	if resp == nil {
		return ""
	}
	defer resp.Body.Close()

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		logger.Warn("{fetcher/matches - resolveStream} Error parsing player page for match %s: %v", matchID, err)
		return ""
	}

	var stream string
	doc.Find("script").EachWithBreak(func(_ int, script *goquery.Selection) bool {
		m := playerSource.FindStringSubmatch(script.Text())
		if m == nil {
			return true
		}
		decoded, err := url.QueryUnescape(m[1])
		if err != nil {
			logger.Warn("{fetcher/matches - resolveStream} Bad encoded stream URL for match %s: %v", matchID, err)
			return true
		}
		stream = decoded
		return false
	})

	if stream == "" {
		logger.Debug("{fetcher/matches - resolveStream} No player source found for match %s", matchID)
		return ""
	}

	return applyMirror(f.src, stream)
}
