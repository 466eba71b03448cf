package normalize

import (
	"testing"

	"streamhub/work/config"
	"streamhub/work/types"
)

func testConfig() *config.Config {
	return &config.Config{DefaultLogo: "https://logos.example/default.png"}
}

func TestChannelsDedupKeepsFirst(t *testing.T) {
	raw := []types.ChannelEntry{
		{Name: "BBC", URL: "http://a/x", Referer: "http://first.example"},
		{Name: "BBC HD", URL: "http://a/x", Referer: "http://second.example"},
		{Name: "CNN", URL: "http://b/y"},
	}

	out := Channels(testConfig(), raw)

	if len(out) != 2 {
		t.Fatalf("got %d channels, want 2", len(out))
	}
	if out[0].Name != "BBC" || out[0].Referer != "http://first.example" {
		t.Errorf("duplicate did not keep first occurrence: %+v", out[0])
	}
}

func TestChannelsSequentialIDs(t *testing.T) {
	raw := []types.ChannelEntry{
		{Name: "A", URL: "http://a"},
		{Name: "", URL: "http://dropped"},
		{Name: "B", URL: "http://b"},
		{Name: "C", URL: ""},
		{Name: "D", URL: "http://d"},
	}

	out := Channels(testConfig(), raw)

	if len(out) != 3 {
		t.Fatalf("got %d channels, want 3", len(out))
	}
	for i, entry := range out {
		if entry.ID != i+1 {
			t.Errorf("entry %d has id %d, want %d", i, entry.ID, i+1)
		}
	}
}

func TestChannelsDefaults(t *testing.T) {
	out := Channels(testConfig(), []types.ChannelEntry{{Name: "  Sky! Sports  ", URL: "http://s"}})

	if len(out) != 1 {
		t.Fatalf("got %d channels, want 1", len(out))
	}
	if out[0].Name != "Sky Sports" {
		t.Errorf("name not sanitized: %q", out[0].Name)
	}
	if out[0].Logo != "https://logos.example/default.png" {
		t.Errorf("missing logo not defaulted: %q", out[0].Logo)
	}
	if out[0].Category != "Uncategorized" {
		t.Errorf("missing category not defaulted: %q", out[0].Category)
	}
}

func TestChannelsDeterministic(t *testing.T) {
	raw := []types.ChannelEntry{
		{Name: "A", URL: "http://a"},
		{Name: "B", URL: "http://b"},
		{Name: "A2", URL: "http://a"},
	}

	first := Channels(testConfig(), raw)
	second := Channels(testConfig(), raw)

	if len(first) != len(second) {
		t.Fatalf("lengths differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("entry %d differs between runs: %+v vs %+v", i, first[i], second[i])
		}
	}
}

func TestMatchesStatusAndDefaults(t *testing.T) {
	raw := []types.MatchEntry{
		{Title: "India vs Australia", Status: types.StatusLive, M3U8Link: "http://cdn/x.m3u8"},
		{Title: "Untagged Fixture", Status: "WEIRD"},
		{Title: ""},
	}

	out := Matches(testConfig(), raw)

	if len(out) != 2 {
		t.Fatalf("got %d matches, want 2", len(out))
	}
	if out[0].Status != types.StatusLive {
		t.Errorf("live status not preserved: %q", out[0].Status)
	}
	if out[1].Status != types.StatusUpcoming {
		t.Errorf("unknown status not defaulted to upcoming: %q", out[1].Status)
	}
	if out[0].ID != 1 || out[1].ID != 2 {
		t.Errorf("ids not sequential: %d, %d", out[0].ID, out[1].ID)
	}
}

func TestMatchesDedupByStream(t *testing.T) {
	raw := []types.MatchEntry{
		{Title: "Feed A", Status: types.StatusLive, M3U8Link: "http://cdn/x.m3u8"},
		{Title: "Feed B", Status: types.StatusLive, M3U8Link: "http://cdn/x.m3u8"},
		{Title: "No Stream One", Status: types.StatusUpcoming},
		{Title: "No Stream Two", Status: types.StatusUpcoming},
	}

	out := Matches(testConfig(), raw)

	if len(out) != 3 {
		t.Fatalf("got %d matches, want 3", len(out))
	}
	if out[0].Title != "Feed A" {
		t.Errorf("stream dedup did not keep first: %q", out[0].Title)
	}
}
