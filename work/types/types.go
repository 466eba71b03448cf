package types

import "time"

// Match status values as reported by the match-card scrape. Anything
// else coming off the wire is normalized to UPCOMING.
const (
	StatusLive      = "LIVE"
	StatusUpcoming  = "UPCOMING"
	StatusCompleted = "COMPLETED"
)

// Entity kinds used by the catalog, the database and the refresh loops.
const (
	KindChannels = "channels"
	KindMatches  = "matches"
)

// ChannelEntry is one playable live-TV channel in a catalog snapshot.
// IDs are assigned at snapshot-build time and are only stable within a
// snapshot; URL is the dedup key and Slug the lookup key, both unique
// within a snapshot.
type ChannelEntry struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	URL      string `json:"url"`
	Logo     string `json:"logo"`
	Category string `json:"category"`
	Cookie   string `json:"cookie,omitempty"`
	Referer  string `json:"referer,omitempty"`
	Origin   string `json:"origin,omitempty"`
	Slug     string `json:"slug"`
}

// MatchEntry is one scraped sports match. M3U8Link is non-empty only
// when Status is LIVE and live-URL extraction succeeded.
type MatchEntry struct {
	ID          int    `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Image       string `json:"image"`
	Status      string `json:"status"`
	Category    string `json:"category"`
	StartTime   string `json:"start_time"`
	M3U8Link    string `json:"m3u8_link,omitempty"`
	Slug        string `json:"slug"`
}

// Snapshot is one immutable, fully-built version of the catalog.
// It is replaced wholesale on refresh and never mutated in place;
// readers holding a pointer may use it indefinitely.
type Snapshot struct {
	Channels []ChannelEntry `json:"channels"`
	Matches  []MatchEntry   `json:"matches"`
	BuiltAt  time.Time      `json:"built_at"`
}

// AuthContext is the per-origin authentication context the relay
// forwards upstream. Ephemeral: threaded through rewritten playlist
// URLs or held in a relay session, never persisted.
type AuthContext struct {
	Referer string
	Origin  string
	Cookie  string
}
