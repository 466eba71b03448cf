package cache

import (
	"crypto/rand"
	"encoding/hex"
	"time"

	"github.com/maypok86/otter/v2"

	"streamhub/work/types"
)

// Cache holds the relay's TTL-bounded stores: playback sessions and an
// optional rewritten-playlist micro-cache. Both are memory-only; nothing
// here survives a restart, which matches the lifetime of a playback.
// cachedPlaylist pairs a playlist body with the post-redirect URL it
// was fetched from; relative URIs must resolve against the latter.
type cachedPlaylist struct {
	Body       string
	FetchedURL string
}

type Cache struct {
	sessions    *otter.Cache[string, types.AuthContext]
	playlists   *otter.Cache[string, cachedPlaylist]
	playlistTTL time.Duration
}

// New builds the cache stores. sessionTTL bounds how long a minted relay
// session stays resolvable; playlistTTL of zero disables playlist caching.
func New(sessionTTL, playlistTTL time.Duration) *Cache {
	c := &Cache{
		sessions: otter.Must(&otter.Options[string, types.AuthContext]{
			MaximumSize:      10_000,
			ExpiryCalculator: otter.ExpiryWriting[string, types.AuthContext](sessionTTL),
		}),
		playlistTTL: playlistTTL,
	}

	if playlistTTL > 0 {
		c.playlists = otter.Must(&otter.Options[string, cachedPlaylist]{
			MaximumSize:      2_000,
			ExpiryCalculator: otter.ExpiryWriting[string, cachedPlaylist](playlistTTL),
		})
	}

	return c
}

// MintSession stores an auth context under a fresh random token and
// returns the token. Tokens are opaque; clients only ever echo them back.
func (c *Cache) MintSession(auth types.AuthContext) string {
	var raw [16]byte
	if _, err := rand.Read(raw[:]); err != nil {
		// rand.Read failing means the process is in serious trouble;
		// degrade to an unresolvable token rather than panic.
		return ""
	}
	token := hex.EncodeToString(raw[:])
	c.sessions.Set(token, auth)
	return token
}

// Session resolves a previously minted token to its auth context.
func (c *Cache) Session(token string) (types.AuthContext, bool) {
	if token == "" {
		return types.AuthContext{}, false
	}
	return c.sessions.GetIfPresent(token)
}

// GetPlaylist returns a cached playlist body and the URL it was fetched
// from, if caching is enabled and the entry has not expired.
func (c *Cache) GetPlaylist(key string) (body, fetchedURL string, ok bool) {
	if c.playlists == nil {
		return "", "", false
	}
	pl, ok := c.playlists.GetIfPresent(key)
	return pl.Body, pl.FetchedURL, ok
}

// SetPlaylist stores a playlist body with its fetched URL when caching
// is enabled.
func (c *Cache) SetPlaylist(key, body, fetchedURL string) {
	if c.playlists == nil {
		return
	}
	c.playlists.Set(key, cachedPlaylist{Body: body, FetchedURL: fetchedURL})
}
