package database

import (
	"path/filepath"
	"testing"

	"streamhub/work/types"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "catalog.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestReplaceAndLoadChannels(t *testing.T) {
	db := openTestDB(t)

	first := []types.ChannelEntry{
		{ID: 1, Name: "BBC", URL: "http://a/x", Logo: "http://l/1.png", Category: "News", Slug: "bbc"},
		{ID: 2, Name: "ESPN", URL: "http://a/y", Category: "Sports", Referer: "http://r", Slug: "espn"},
	}
	if err := db.ReplaceChannels(first); err != nil {
		t.Fatalf("ReplaceChannels: %v", err)
	}

	loaded, err := db.LoadChannels()
	if err != nil {
		t.Fatalf("LoadChannels: %v", err)
	}
	if len(loaded) != 2 {
		t.Fatalf("got %d channels, want 2", len(loaded))
	}
	if loaded[0] != first[0] || loaded[1] != first[1] {
		t.Errorf("round trip changed entries:\n got %+v\nwant %+v", loaded, first)
	}

	// Full-replace: the old set must be gone entirely.
	second := []types.ChannelEntry{{ID: 1, Name: "CNN", URL: "http://b/z", Slug: "cnn"}}
	if err := db.ReplaceChannels(second); err != nil {
		t.Fatalf("ReplaceChannels: %v", err)
	}
	loaded, err = db.LoadChannels()
	if err != nil {
		t.Fatalf("LoadChannels: %v", err)
	}
	if len(loaded) != 1 || loaded[0].Name != "CNN" {
		t.Errorf("replace was partial: %+v", loaded)
	}
}

func TestChannelByID(t *testing.T) {
	db := openTestDB(t)

	if err := db.ReplaceChannels([]types.ChannelEntry{{ID: 7, Name: "BBC", URL: "http://a/x", Slug: "bbc"}}); err != nil {
		t.Fatalf("ReplaceChannels: %v", err)
	}

	entry, ok, err := db.ChannelByID(7)
	if err != nil || !ok {
		t.Fatalf("ChannelByID(7): ok=%v err=%v", ok, err)
	}
	if entry.Name != "BBC" {
		t.Errorf("entry = %+v", entry)
	}

	if _, ok, err := db.ChannelByID(99); err != nil || ok {
		t.Errorf("ChannelByID(99): ok=%v err=%v, want absent without error", ok, err)
	}
}

func TestReplaceAndLoadMatches(t *testing.T) {
	db := openTestDB(t)

	matches := []types.MatchEntry{
		{ID: 1, Title: "India vs Australia", Status: types.StatusLive, Category: "Cricket",
			StartTime: "7:00 PM IST", M3U8Link: "http://cdn/x.m3u8", Slug: "india_vs_australia"},
	}
	if err := db.ReplaceMatches(matches); err != nil {
		t.Fatalf("ReplaceMatches: %v", err)
	}

	loaded, err := db.LoadMatches()
	if err != nil {
		t.Fatalf("LoadMatches: %v", err)
	}
	if len(loaded) != 1 || loaded[0] != matches[0] {
		t.Errorf("round trip changed entries: %+v", loaded)
	}

	entry, ok, err := db.MatchByID(1)
	if err != nil || !ok || entry.Title != "India vs Australia" {
		t.Errorf("MatchByID(1): %+v ok=%v err=%v", entry, ok, err)
	}
}

func TestOpenIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.db")

	db, err := Open(path)
	if err != nil {
		t.Fatalf("first Open: %v", err)
	}
	if err := db.ReplaceChannels([]types.ChannelEntry{{ID: 1, Name: "BBC", URL: "http://a/x", Slug: "bbc"}}); err != nil {
		t.Fatalf("ReplaceChannels: %v", err)
	}
	db.Close()

	// Reopening must rerun no migrations and keep the data.
	db, err = Open(path)
	if err != nil {
		t.Fatalf("second Open: %v", err)
	}
	defer db.Close()

	loaded, err := db.LoadChannels()
	if err != nil {
		t.Fatalf("LoadChannels: %v", err)
	}
	if len(loaded) != 1 {
		t.Errorf("data lost across reopen: %+v", loaded)
	}
}
