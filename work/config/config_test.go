package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadConfigFromFile(t *testing.T) {
	ClearConfigCache()
	t.Cleanup(ClearConfigCache)

	path := filepath.Join(t.TempDir(), "config.json")
	body := `{
		"listenAddr": ":9090",
		"baseURL": "http://hub.example",
		"logLevel": "DEBUG",
		"channelRefreshInterval": "30m",
		"matchRefreshInterval": "90s",
		"probeTimeout": "3s",
		"sources": [
			{"type": "m3u", "url": "http://lists.example/tv.m3u"}
		]
	}`
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}

	cfg := LoadConfig(path)

	if cfg.ListenAddr != ":9090" {
		t.Errorf("listenAddr = %q", cfg.ListenAddr)
	}
	if cfg.ChannelRefreshInterval != 30*time.Minute {
		t.Errorf("channelRefreshInterval = %v", cfg.ChannelRefreshInterval)
	}
	if cfg.MatchRefreshInterval != 90*time.Second {
		t.Errorf("matchRefreshInterval = %v", cfg.MatchRefreshInterval)
	}
	// Unset values pick up defaults.
	if cfg.ProbeWorkers != 10 {
		t.Errorf("probeWorkers default = %d", cfg.ProbeWorkers)
	}
	if cfg.SessionTTL != 4*time.Hour {
		t.Errorf("sessionTTL default = %v", cfg.SessionTTL)
	}
	// Unnamed sources get a generated name and the shared User-Agent.
	if len(cfg.Sources) != 1 || cfg.Sources[0].Name == "" || cfg.Sources[0].UserAgent == "" {
		t.Errorf("source defaults not applied: %+v", cfg.Sources)
	}
}

func TestLoadConfigMissingFileFallsBack(t *testing.T) {
	ClearConfigCache()
	t.Cleanup(ClearConfigCache)

	cfg := LoadConfig(filepath.Join(t.TempDir(), "nope.json"))

	if cfg.ListenAddr != ":8080" {
		t.Errorf("fallback listenAddr = %q", cfg.ListenAddr)
	}
	if cfg.ChannelRefreshInterval != 6*time.Hour {
		t.Errorf("fallback channelRefreshInterval = %v", cfg.ChannelRefreshInterval)
	}
}

func TestLoadConfigIsCached(t *testing.T) {
	ClearConfigCache()
	t.Cleanup(ClearConfigCache)

	first := LoadConfig("")
	second := LoadConfig(filepath.Join(t.TempDir(), "other.json"))
	if first != second {
		t.Error("LoadConfig returned different instances")
	}
}

func TestCreateExampleConfigRoundTrips(t *testing.T) {
	ClearConfigCache()
	t.Cleanup(ClearConfigCache)

	path := filepath.Join(t.TempDir(), "config.json")
	if err := CreateExampleConfig(path); err != nil {
		t.Fatalf("CreateExampleConfig: %v", err)
	}

	cfg := LoadConfig(path)
	if len(cfg.Sources) == 0 {
		t.Error("example config has no sources")
	}
	if cfg.ChannelRefreshInterval != 6*time.Hour {
		t.Errorf("example channelRefreshInterval = %v", cfg.ChannelRefreshInterval)
	}
}
