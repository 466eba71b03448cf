package cache

import (
	"testing"
	"time"

	"streamhub/work/types"
)

func TestSessionRoundTrip(t *testing.T) {
	c := New(time.Minute, 0)

	auth := types.AuthContext{Referer: "http://r", Origin: "http://o", Cookie: "k=v"}
	token := c.MintSession(auth)
	if token == "" {
		t.Fatal("empty session token")
	}

	got, ok := c.Session(token)
	if !ok {
		t.Fatal("minted session not resolvable")
	}
	if got != auth {
		t.Errorf("session = %+v, want %+v", got, auth)
	}
}

func TestSessionTokensAreUnique(t *testing.T) {
	c := New(time.Minute, 0)

	a := c.MintSession(types.AuthContext{Referer: "http://a"})
	b := c.MintSession(types.AuthContext{Referer: "http://b"})
	if a == b {
		t.Error("two mints yielded the same token")
	}
}

func TestUnknownSession(t *testing.T) {
	c := New(time.Minute, 0)

	if _, ok := c.Session("deadbeef"); ok {
		t.Error("unknown token resolved")
	}
	if _, ok := c.Session(""); ok {
		t.Error("empty token resolved")
	}
}

func TestPlaylistCacheDisabledByDefault(t *testing.T) {
	c := New(time.Minute, 0)

	c.SetPlaylist("http://o/m.m3u8", "#EXTM3U", "http://o/m.m3u8")
	if _, _, ok := c.GetPlaylist("http://o/m.m3u8"); ok {
		t.Error("playlist cache active with zero TTL")
	}
}

func TestPlaylistCacheRoundTrip(t *testing.T) {
	c := New(time.Minute, 10*time.Second)

	// The fetched URL can differ from the key when the origin redirected.
	c.SetPlaylist("http://o/m.m3u8", "#EXTM3U\nseg.ts", "http://cdn2/real/m.m3u8")
	body, fetchedURL, ok := c.GetPlaylist("http://o/m.m3u8")
	if !ok || body != "#EXTM3U\nseg.ts" {
		t.Errorf("playlist round trip: ok=%v body=%q", ok, body)
	}
	if fetchedURL != "http://cdn2/real/m.m3u8" {
		t.Errorf("fetched URL round trip: %q", fetchedURL)
	}
}
