package fetcher

import (
	"context"
	"encoding/json"
	"io"

	"streamhub/work/client"
	"streamhub/work/config"
	"streamhub/work/logger"
	"streamhub/work/types"
	"streamhub/work/utils"
)

// jsonNestedFetcher handles feeds shaped {"<field>": [ {...}, ... ]}
// where each record already uses the canonical key names.
type jsonNestedFetcher struct {
	cfg    *config.Config
	src    *config.SourceConfig
	client *client.HeaderSettingClient
}

type nestedRecord struct {
	Name     string `json:"name"`
	URL      string `json:"url"`
	Logo     string `json:"logo"`
	Category string `json:"category"`
	Cookie   string `json:"cookie"`
	Referer  string `json:"referer"`
	Origin   string `json:"origin"`
}

func (f *jsonNestedFetcher) FetchChannels(ctx context.Context) []types.ChannelEntry {
	resp := fetchDocument(ctx, f.client, f.cfg, f.src, f.src.URL)
	if resp == nil {
		return nil
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		logger.Warn("{fetcher/json - FetchChannels} Error reading %s: %v", f.src.Name, err)
		return nil
	}

	var doc map[string]json.RawMessage
	if err := json.Unmarshal(body, &doc); err != nil {
		logger.Warn("{fetcher/json - FetchChannels} Invalid JSON from %s: %v", f.src.Name, err)
		return nil
	}

	field := f.src.Field
	if field == "" {
		field = "channels"
	}
	raw, ok := doc[field]
	if !ok {
		logger.Warn("{fetcher/json - FetchChannels} Source %s has no %q field", f.src.Name, field)
		return nil
	}

	var records []nestedRecord
	if err := json.Unmarshal(raw, &records); err != nil {
		logger.Warn("{fetcher/json - FetchChannels} Source %s field %q is not a list: %v", f.src.Name, field, err)
		return nil
	}

	entries := make([]types.ChannelEntry, 0, len(records))
	for _, rec := range records {
		entries = append(entries, types.ChannelEntry{
			Name:     rec.Name,
			URL:      rec.URL,
			Logo:     rec.Logo,
			Category: rec.Category,
			Cookie:   rec.Cookie,
			Referer:  rec.Referer,
			Origin:   rec.Origin,
		})
	}

	logger.Debug("{fetcher/json - FetchChannels} %s: %d records from %s", f.src.Name, len(entries), utils.LogURL(f.cfg.ObfuscateUrls, f.src.URL))
	return entries
}

// jsonFlatFetcher handles legacy feeds: a bare JSON array (or one
// wrapped in a "response" field) whose records use different key names
// and need remapping, notably link -> url and category_name -> category.
type jsonFlatFetcher struct {
	cfg    *config.Config
	src    *config.SourceConfig
	client *client.HeaderSettingClient
}

type flatRecord struct {
	Name         string `json:"name"`
	Link         string `json:"link"`
	Logo         string `json:"logo"`
	CategoryName string `json:"category_name"`
	Cookie       string `json:"cookie"`
}

func (f *jsonFlatFetcher) FetchChannels(ctx context.Context) []types.ChannelEntry {
	resp := fetchDocument(ctx, f.client, f.cfg, f.src, f.src.URL)
	if resp == nil {
		return nil
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		logger.Warn("{fetcher/json - FetchChannels} Error reading %s: %v", f.src.Name, err)
		return nil
	}

	var records []flatRecord
	if err := json.Unmarshal(body, &records); err != nil {
		// Some deployments wrap the list in a response envelope.
		var doc struct {
			Response []flatRecord `json:"response"`
		}
		if err2 := json.Unmarshal(body, &doc); err2 != nil || doc.Response == nil {
			logger.Warn("{fetcher/json - FetchChannels} Invalid flat JSON from %s: %v", f.src.Name, err)
			return nil
		}
		records = doc.Response
	}

	entries := make([]types.ChannelEntry, 0, len(records))
	for _, rec := range records {
		entries = append(entries, types.ChannelEntry{
			Name:     rec.Name,
			URL:      rec.Link,
			Logo:     rec.Logo,
			Category: rec.CategoryName,
			Cookie:   rec.Cookie,
		})
	}

	logger.Debug("{fetcher/json - FetchChannels} %s: %d records from %s", f.src.Name, len(entries), utils.LogURL(f.cfg.ObfuscateUrls, f.src.URL))
	return entries
}
