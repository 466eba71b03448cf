package config

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"sync"
	"time"
)

// Source type discriminators. Each value selects one fetcher
// implementation in work/fetcher.
const (
	SourceTypeJSON      = "json"       // JSON document with a nested list under Field
	SourceTypeJSONFlat  = "json_flat"  // flat JSON list with link/category_name key remapping
	SourceTypeM3U       = "m3u"        // extended M3U playlist
	SourceTypeMatchHTML = "match_html" // HTML page scraped for match cards
)

// Config holds all application configuration values for the stream hub.
// It covers the HTTP server, the relay's outbound client, the refresh
// pipeline and the list of upstream sources.
type Config struct {
	ListenAddr             string         `json:"listenAddr"`             // Address the HTTP server binds to
	BaseURL                string         `json:"baseURL"`                // External base URL used when rewriting playlist URIs
	LogLevel               string         `json:"logLevel"`               // DEBUG, INFO, WARN or ERROR
	ObfuscateUrls          bool           `json:"obfuscateUrls"`          // Obfuscate upstream URLs in logs
	DatabasePath           string         `json:"databasePath"`           // SQLite file backing the catalog snapshots
	DefaultLogo            string         `json:"defaultLogo"`            // Placeholder logo for channels without one
	UserAgent              string         `json:"userAgent"`              // Browser-like User-Agent for all outbound requests
	ChannelRefreshInterval time.Duration  `json:"channelRefreshInterval"` // Interval between channel catalog refreshes
	MatchRefreshInterval   time.Duration  `json:"matchRefreshInterval"`   // Interval between match catalog refreshes
	ProbeTimeout           time.Duration  `json:"probeTimeout"`           // Per-URL reachability probe timeout
	ProbeWorkers           int            `json:"probeWorkers"`           // Concurrency ceiling for reachability probes
	ProbeRate              int            `json:"probeRate"`              // Max probes per second across all workers
	RelayTimeout           time.Duration  `json:"relayTimeout"`           // Response-header timeout for relay origin fetches
	RelayInsecureTLS       bool           `json:"relayInsecureTLS"`       // Skip certificate verification on the relay outbound client only
	SessionTTL             time.Duration  `json:"sessionTTL"`             // Lifetime of a relay session token (one playback window)
	PlaylistCacheTTL       time.Duration  `json:"playlistCacheTTL"`       // TTL of the rewritten-playlist micro-cache; 0 disables it
	Sources                []SourceConfig `json:"sources"`                // Configured upstream sources, in priority order
}

// SourceConfig describes one upstream source. Order in the Sources
// slice is the dedup priority order: the first source listing a URL
// wins ties.
type SourceConfig struct {
	Name        string `json:"name"`        // Descriptive name, used in logs
	Type        string `json:"type"`        // One of the SourceType constants
	URL         string `json:"url"`         // Document URL to fetch
	Field       string `json:"field"`       // Nested list field for json sources (default "channels")
	Category    string `json:"category"`    // Category stamped on entries when the source provides none
	UserAgent   string `json:"userAgent"`   // Per-source User-Agent override
	ReqReferrer string `json:"reqReferrer"` // Referer header sent to this source
	ReqOrigin   string `json:"reqOrigin"`   // Origin header sent to this source
	PlayPageURL string `json:"playPageURL"` // match_html only: play page template, match id appended
	MirrorFrom  string `json:"mirrorFrom"`  // Hostname prefix rewritten on extracted stream URLs
	MirrorTo    string `json:"mirrorTo"`    // Replacement hostname prefix
}

// ConfigFile mirrors Config for JSON marshaling, with duration fields
// as strings (e.g. "30m") parsed into time.Duration on load.
type ConfigFile struct {
	ListenAddr             string         `json:"listenAddr"`
	BaseURL                string         `json:"baseURL"`
	LogLevel               string         `json:"logLevel"`
	ObfuscateUrls          bool           `json:"obfuscateUrls"`
	DatabasePath           string         `json:"databasePath"`
	DefaultLogo            string         `json:"defaultLogo"`
	UserAgent              string         `json:"userAgent"`
	ChannelRefreshInterval string         `json:"channelRefreshInterval"`
	MatchRefreshInterval   string         `json:"matchRefreshInterval"`
	ProbeTimeout           string         `json:"probeTimeout"`
	ProbeWorkers           int            `json:"probeWorkers"`
	ProbeRate              int            `json:"probeRate"`
	RelayTimeout           string         `json:"relayTimeout"`
	RelayInsecureTLS       bool           `json:"relayInsecureTLS"`
	SessionTTL             string         `json:"sessionTTL"`
	PlaylistCacheTTL       string         `json:"playlistCacheTTL"`
	Sources                []SourceConfig `json:"sources"`
}

var (
	configCache *Config      // Cached configuration instance (singleton)
	configMutex sync.RWMutex // Mutex for safe concurrent access to configCache
)

// DefaultPath is where LoadConfig looks when no explicit path is given.
const DefaultPath = "/settings/config.json"

// LoadConfig loads the configuration from file or returns the cached
// instance. Falls back to defaults when the file is missing or invalid,
// then validates so every field carries a usable value.
func LoadConfig(path string) *Config {
	configMutex.RLock()
	if configCache != nil {
		defer configMutex.RUnlock()
		return configCache
	}
	configMutex.RUnlock()

	configMutex.Lock()
	defer configMutex.Unlock()

	// Double-check under write lock
	if configCache != nil {
		return configCache
	}

	if path == "" {
		path = DefaultPath
	}

	config, err := loadFromFile(path)
	if err != nil {
		log.Printf("Failed to load config from %s: %v", path, err)
		log.Printf("Falling back to default configuration...")
		config = getDefaultConfig()
	}

	validateAndSetDefaults(config)
	configCache = config

	return config
}

// ClearConfigCache resets the cached config, forcing a reload on the
// next LoadConfig call.
func ClearConfigCache() {
	configMutex.Lock()
	defer configMutex.Unlock()
	configCache = nil
}

// loadFromFile reads and parses the configuration from a JSON file.
func loadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var configFile ConfigFile
	if err := json.Unmarshal(data, &configFile); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	return convertFromFile(&configFile)
}

// convertFromFile converts a ConfigFile to Config, parsing duration
// strings into time.Duration.
func convertFromFile(cf *ConfigFile) (*Config, error) {
	config := &Config{
		ListenAddr:       cf.ListenAddr,
		BaseURL:          cf.BaseURL,
		LogLevel:         cf.LogLevel,
		ObfuscateUrls:    cf.ObfuscateUrls,
		DatabasePath:     cf.DatabasePath,
		DefaultLogo:      cf.DefaultLogo,
		UserAgent:        cf.UserAgent,
		ProbeWorkers:     cf.ProbeWorkers,
		ProbeRate:        cf.ProbeRate,
		RelayInsecureTLS: cf.RelayInsecureTLS,
		Sources:          cf.Sources,
	}

	durations := []struct {
		dst  *time.Duration
		src  string
		name string
	}{
		{&config.ChannelRefreshInterval, cf.ChannelRefreshInterval, "channelRefreshInterval"},
		{&config.MatchRefreshInterval, cf.MatchRefreshInterval, "matchRefreshInterval"},
		{&config.ProbeTimeout, cf.ProbeTimeout, "probeTimeout"},
		{&config.RelayTimeout, cf.RelayTimeout, "relayTimeout"},
		{&config.SessionTTL, cf.SessionTTL, "sessionTTL"},
		{&config.PlaylistCacheTTL, cf.PlaylistCacheTTL, "playlistCacheTTL"},
	}
	for _, d := range durations {
		if d.src == "" {
			continue
		}
		parsed, err := time.ParseDuration(d.src)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", d.name, err)
		}
		*d.dst = parsed
	}

	return config, nil
}

// getDefaultConfig returns a baseline configuration with sensible
// defaults when no file is present.
func getDefaultConfig() *Config {
	return &Config{
		ListenAddr:             ":8080",
		BaseURL:                "http://localhost:8080",
		LogLevel:               "INFO",
		DatabasePath:           "/settings/catalog.db",
		DefaultLogo:            "https://via.placeholder.com/150/000000/FFFFFF/?text=TV",
		UserAgent:              "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36",
		ChannelRefreshInterval: 6 * time.Hour,
		MatchRefreshInterval:   2 * time.Minute,
		ProbeTimeout:           5 * time.Second,
		ProbeWorkers:           10,
		ProbeRate:              20,
		RelayTimeout:           15 * time.Second,
		SessionTTL:             4 * time.Hour,
		PlaylistCacheTTL:       0,
		Sources:                []SourceConfig{},
	}
}

// validateAndSetDefaults ensures all config values are valid, filling
// in defaults for missing or out-of-range ones.
func validateAndSetDefaults(config *Config) {
	if config.ListenAddr == "" {
		config.ListenAddr = ":8080"
	}
	if config.BaseURL == "" {
		config.BaseURL = "http://localhost:8080"
	}
	if config.LogLevel == "" {
		config.LogLevel = "INFO"
	}
	if config.DatabasePath == "" {
		config.DatabasePath = "/settings/catalog.db"
	}
	if config.DefaultLogo == "" {
		config.DefaultLogo = "https://via.placeholder.com/150/000000/FFFFFF/?text=TV"
	}
	if config.UserAgent == "" {
		config.UserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"
	}
	if config.ChannelRefreshInterval <= 0 {
		config.ChannelRefreshInterval = 6 * time.Hour
	}
	if config.MatchRefreshInterval <= 0 {
		config.MatchRefreshInterval = 2 * time.Minute
	}
	if config.ProbeTimeout <= 0 {
		config.ProbeTimeout = 5 * time.Second
	}
	if config.ProbeWorkers <= 0 {
		config.ProbeWorkers = 10
	}
	if config.ProbeRate <= 0 {
		config.ProbeRate = 20
	}
	if config.RelayTimeout <= 0 {
		config.RelayTimeout = 15 * time.Second
	}
	if config.SessionTTL <= 0 {
		config.SessionTTL = 4 * time.Hour
	}

	for i := range config.Sources {
		src := &config.Sources[i]
		if src.Name == "" {
			src.Name = fmt.Sprintf("Source_%d", i+1)
		}
		if src.Type == "" {
			src.Type = SourceTypeJSON
		}
		if src.Type == SourceTypeJSON && src.Field == "" {
			src.Field = "channels"
		}
		if src.UserAgent == "" {
			src.UserAgent = config.UserAgent
		}
	}
}

// CreateExampleConfig writes an example config file to disk.
func CreateExampleConfig(path string) error {
	example := ConfigFile{
		ListenAddr:             ":8080",
		BaseURL:                "http://localhost:8080",
		LogLevel:               "INFO",
		ObfuscateUrls:          true,
		DatabasePath:           "/settings/catalog.db",
		ChannelRefreshInterval: "6h",
		MatchRefreshInterval:   "2m",
		ProbeTimeout:           "5s",
		ProbeWorkers:           10,
		ProbeRate:              20,
		RelayTimeout:           "15s",
		SessionTTL:             "4h",
		PlaylistCacheTTL:       "0s",
		Sources: []SourceConfig{
			{
				Name:  "Primary Channel Feed",
				Type:  SourceTypeJSON,
				URL:   "https://example.com/Channels_data.json",
				Field: "channels",
			},
			{
				Name:     "Legacy Channel Feed",
				Type:     SourceTypeJSONFlat,
				URL:      "https://example.com/rest_api.json",
				Category: "Live TV",
			},
			{
				Name:     "Sports Playlist",
				Type:     SourceTypeM3U,
				URL:      "https://example.com/sports.m3u",
				Category: "Sport TV",
			},
			{
				Name:        "Match Schedule",
				Type:        SourceTypeMatchHTML,
				URL:         "https://example.com/",
				PlayPageURL: "https://example.com/play.php?id=",
				MirrorFrom:  "https://in-mc-fdlive.fancode.com",
				MirrorTo:    "https://bd-mc-fdlive.fancode.com",
			},
		},
	}

	data, err := json.MarshalIndent(example, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}
