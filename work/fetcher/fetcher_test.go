package fetcher

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"streamhub/work/client"
	"streamhub/work/config"
)

func testConfig() *config.Config {
	return &config.Config{UserAgent: "test-agent"}
}

func serve(t *testing.T, contentType, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", contentType)
		io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestJSONNestedFetcher(t *testing.T) {
	srv := serve(t, "application/json", `{
		"updated": "today",
		"channels": [
			{"name": "BBC One", "url": "http://a/x.m3u8", "logo": "http://l/1.png", "category": "News"},
			{"name": "Gated", "url": "http://a/y.m3u8", "cookie": "k=v", "referer": "http://r"}
		]
	}`)

	cfg := testConfig()
	src := &config.SourceConfig{Name: "nested", Type: config.SourceTypeJSON, URL: srv.URL, Field: "channels"}
	f := &jsonNestedFetcher{cfg: cfg, src: src, client: client.NewFetchClient(cfg)}

	out := f.FetchChannels(context.Background())
	if len(out) != 2 {
		t.Fatalf("got %d records, want 2", len(out))
	}
	if out[0].Name != "BBC One" || out[0].URL != "http://a/x.m3u8" || out[0].Category != "News" {
		t.Errorf("first record mismapped: %+v", out[0])
	}
	if out[1].Cookie != "k=v" || out[1].Referer != "http://r" {
		t.Errorf("auth fields not carried: %+v", out[1])
	}
}

func TestJSONFlatFetcherRemapsKeys(t *testing.T) {
	body := `[
		{"name": "Star Sports", "link": "http://cdn/ss.m3u8", "category_name": "Cricket", "cookie": "sess=1"}
	]`

	for name, payload := range map[string]string{
		"bare list": body,
		"enveloped": `{"response": ` + body + `}`,
	} {
		t.Run(name, func(t *testing.T) {
			srv := serve(t, "application/json", payload)
			cfg := testConfig()
			src := &config.SourceConfig{Name: "flat", Type: config.SourceTypeJSONFlat, URL: srv.URL}
			f := &jsonFlatFetcher{cfg: cfg, src: src, client: client.NewFetchClient(cfg)}

			out := f.FetchChannels(context.Background())
			if len(out) != 1 {
				t.Fatalf("got %d records, want 1", len(out))
			}
			if out[0].URL != "http://cdn/ss.m3u8" {
				t.Errorf("link not remapped to url: %q", out[0].URL)
			}
			if out[0].Category != "Cricket" {
				t.Errorf("category_name not remapped: %q", out[0].Category)
			}
			if out[0].Cookie != "sess=1" {
				t.Errorf("cookie not carried: %q", out[0].Cookie)
			}
		})
	}
}

func TestM3UFetcherEXTINF(t *testing.T) {
	playlist := "#EXTM3U\n" +
		`#EXTINF:-1 tvg-logo="http://l/espn.png" group-title="Sports",ESPN` + "\n" +
		"http://cdn/espn.m3u8\n" +
		"#EXTINF:-1,Plain Channel\n" +
		"relative/plain.m3u8\n"

	srv := serve(t, "audio/x-mpegurl", playlist)
	cfg := testConfig()
	src := &config.SourceConfig{Name: "list", Type: config.SourceTypeM3U, URL: srv.URL + "/lists/tv.m3u", Category: "Fallback"}
	f := &m3uFetcher{cfg: cfg, src: src, client: client.NewFetchClient(cfg)}

	out := f.FetchChannels(context.Background())
	if len(out) != 2 {
		t.Fatalf("got %d records, want 2", len(out))
	}
	if out[0].Name != "ESPN" || out[0].Logo != "http://l/espn.png" || out[0].Category != "Sports" {
		t.Errorf("EXTINF attributes not parsed: %+v", out[0])
	}
	if out[1].Category != "Fallback" {
		t.Errorf("source category not applied: %q", out[1].Category)
	}
	if out[1].URL != srv.URL+"/lists/relative/plain.m3u8" {
		t.Errorf("relative URL not resolved: %q", out[1].URL)
	}
}

func TestM3UFetcherMasterPlaylist(t *testing.T) {
	playlist := "#EXTM3U\n" +
		"#EXT-X-STREAM-INF:PROGRAM-ID=1,BANDWIDTH=1280000,RESOLUTION=720x480,NAME=\"High\"\n" +
		"http://cdn/high.m3u8\n" +
		"#EXT-X-STREAM-INF:PROGRAM-ID=1,BANDWIDTH=640000,RESOLUTION=480x360,NAME=\"Low\"\n" +
		"low.m3u8\n"

	srv := serve(t, "application/vnd.apple.mpegurl", playlist)
	cfg := testConfig()
	src := &config.SourceConfig{Name: "master", Type: config.SourceTypeM3U, URL: srv.URL + "/hls/master.m3u8"}
	f := &m3uFetcher{cfg: cfg, src: src, client: client.NewFetchClient(cfg)}

	out := f.FetchChannels(context.Background())
	if len(out) != 2 {
		t.Fatalf("got %d variants, want 2", len(out))
	}
	if out[0].Name != "High" || out[0].URL != "http://cdn/high.m3u8" {
		t.Errorf("first variant mismapped: %+v", out[0])
	}
	if out[1].URL != srv.URL+"/hls/low.m3u8" {
		t.Errorf("relative variant not resolved: %q", out[1].URL)
	}
}

func TestRegistryOrderIsPriorityOrder(t *testing.T) {
	first := serve(t, "application/json", `{"channels": [{"name": "BBC", "url": "http://a/x"}]}`)
	second := serve(t, "application/json", `{"channels": [{"name": "BBC Mirror", "url": "http://a/x"}]}`)

	cfg := testConfig()
	cfg.Sources = []config.SourceConfig{
		{Name: "first", Type: config.SourceTypeJSON, URL: first.URL, Field: "channels"},
		{Name: "second", Type: config.SourceTypeJSON, URL: second.URL, Field: "channels"},
	}

	reg := Build(cfg, client.NewFetchClient(cfg))
	out := reg.FetchAllChannels(context.Background())

	if len(out) != 2 {
		t.Fatalf("got %d raw records, want 2", len(out))
	}
	if out[0].Name != "BBC" || out[1].Name != "BBC Mirror" {
		t.Errorf("source order not preserved: %q then %q", out[0].Name, out[1].Name)
	}
}

func TestFetcherContainsFailures(t *testing.T) {
	srv := serve(t, "application/json", `{not json`)
	cfg := testConfig()
	src := &config.SourceConfig{Name: "broken", Type: config.SourceTypeJSON, URL: srv.URL, Field: "channels"}
	f := &jsonNestedFetcher{cfg: cfg, src: src, client: client.NewFetchClient(cfg)}

	if out := f.FetchChannels(context.Background()); out != nil {
		t.Errorf("malformed payload yielded records: %+v", out)
	}

	down := &jsonNestedFetcher{cfg: cfg, src: &config.SourceConfig{
		Name: "down", Type: config.SourceTypeJSON, URL: "http://127.0.0.1:1/feed.json", Field: "channels",
	}, client: client.NewFetchClient(cfg)}
	if out := down.FetchChannels(context.Background()); out != nil {
		t.Errorf("unreachable source yielded records: %+v", out)
	}
}
