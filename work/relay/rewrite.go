package relay

import (
	"net/url"
	"strings"

	"github.com/grafana/regexp"
)

// uriAttr matches the quoted URI attribute embedded in tags like
// EXT-X-KEY and EXT-X-MEDIA. Only the attribute value is replaced; the
// rest of the tag line stays byte-identical.
var uriAttr = regexp.MustCompile(`URI="([^"]+)"`)

// uriTags are the playlist tags whose URI attribute points at a
// fetchable resource and therefore must route through the relay.
var uriTags = []string{"#EXT-X-KEY", "#EXT-X-MEDIA", "#EXT-X-MAP", "#EXT-X-SESSION-KEY", "#EXT-X-I-FRAME-STREAM-INF"}

// RewritePlaylist rewrites every URI in an HLS playlist into a
// self-referential relay URL. Line count and order are preserved
// exactly; comments and non-URI tags pass through verbatim. Relative
// URIs resolve against fetchedURL, the post-redirect location of the
// playlist itself.
func RewritePlaylist(body string, fetchedURL *url.URL, baseURL, sid, lookup string) string {
	lines := strings.Split(body, "\n")
	out := make([]string, len(lines))

	for i, raw := range lines {
		line := strings.TrimRight(raw, "\r")
		trimmed := strings.TrimSpace(line)

		switch {
		case trimmed == "":
			out[i] = line
		case strings.HasPrefix(trimmed, "#"):
			out[i] = rewriteTagLine(line, fetchedURL, baseURL, sid, lookup)
		default:
			out[i] = relayURL(resolve(fetchedURL, trimmed), baseURL, sid, lookup)
		}
	}

	return strings.Join(out, "\n")
}

// rewriteTagLine rewrites the URI attribute of key/media style tags in
// place and leaves every other tag untouched.
func rewriteTagLine(line string, fetchedURL *url.URL, baseURL, sid, lookup string) string {
	tagged := false
	for _, tag := range uriTags {
		if strings.HasPrefix(strings.TrimSpace(line), tag) {
			tagged = true
			break
		}
	}
	if !tagged {
		return line
	}

	return uriAttr.ReplaceAllStringFunc(line, func(attr string) string {
		m := uriAttr.FindStringSubmatch(attr)
		if m == nil {
			return attr
		}
		return `URI="` + relayURL(resolve(fetchedURL, m[1]), baseURL, sid, lookup) + `"`
	})
}

// resolve makes a playlist URI absolute against the fetched playlist
// location.
func resolve(fetchedURL *url.URL, uri string) string {
	ref, err := url.Parse(uri)
	if err != nil {
		return uri
	}
	return fetchedURL.ResolveReference(ref).String()
}

// relayURL builds the self-referential relay link for one absolute
// target, threading the session token and lookup key through so
// follow-up requests can recover the auth context.
func relayURL(target, baseURL, sid, lookup string) string {
	var b strings.Builder
	b.WriteString(baseURL)
	b.WriteString("/stream?url=")
	b.WriteString(url.QueryEscape(target))
	if sid != "" {
		b.WriteString("&sid=")
		b.WriteString(url.QueryEscape(sid))
	}
	if lookup != "" {
		b.WriteString("&lookup=")
		b.WriteString(url.QueryEscape(lookup))
	}
	return b.String()
}
