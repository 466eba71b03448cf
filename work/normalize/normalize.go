// Package normalize turns the raw union of all fetched records into the
// canonical catalog schema: invalid records dropped, names sanitized,
// defaults filled, duplicates collapsed and sequential IDs assigned.
// The pipeline is deterministic: the same input in the same order
// always yields the same output, IDs included.
package normalize

import (
	"streamhub/work/config"
	"streamhub/work/logger"
	"streamhub/work/types"
	"streamhub/work/utils"
)

// Channels normalizes raw channel records in place-order. Records
// missing a name or URL are dropped, duplicate URLs keep the first
// occurrence, and IDs are assigned sequentially from 1 over the
// surviving set.
func Channels(cfg *config.Config, raw []types.ChannelEntry) []types.ChannelEntry {
	out := make([]types.ChannelEntry, 0, len(raw))
	seen := make(map[string]struct{}, len(raw))
	dropped, dupes := 0, 0

	for _, entry := range raw {
		entry.Name = utils.SanitizeName(entry.Name)
		if entry.Name == "" || entry.URL == "" {
			dropped++
			continue
		}

		if _, ok := seen[entry.URL]; ok {
			dupes++
			continue
		}
		seen[entry.URL] = struct{}{}

		if entry.Logo == "" {
			entry.Logo = cfg.DefaultLogo
		}
		if entry.Category == "" {
			entry.Category = "Uncategorized"
		}

		entry.ID = len(out) + 1
		out = append(out, entry)
	}

	if dropped > 0 || dupes > 0 {
		logger.Debug("{normalize - Channels} Dropped %d invalid, collapsed %d duplicate records", dropped, dupes)
	}
	return out
}

// Matches normalizes raw match records. Matches are never probed and
// carry no URL requirement beyond a title; an entry without a stream
// stays listed as metadata.
func Matches(cfg *config.Config, raw []types.MatchEntry) []types.MatchEntry {
	out := make([]types.MatchEntry, 0, len(raw))
	seen := make(map[string]struct{}, len(raw))
	dropped := 0

	for _, entry := range raw {
		entry.Title = utils.SanitizeName(entry.Title)
		if entry.Title == "" {
			dropped++
			continue
		}

		// Dedup live matches by stream URL; metadata-only entries are
		// kept as-is since distinct fixtures can share empty links.
		if entry.M3U8Link != "" {
			if _, ok := seen[entry.M3U8Link]; ok {
				continue
			}
			seen[entry.M3U8Link] = struct{}{}
		}

		if entry.Image == "" {
			entry.Image = cfg.DefaultLogo
		}
		if entry.Category == "" {
			entry.Category = "Uncategorized"
		}
		switch entry.Status {
		case types.StatusLive, types.StatusUpcoming, types.StatusCompleted:
		default:
			entry.Status = types.StatusUpcoming
		}

		entry.ID = len(out) + 1
		out = append(out, entry)
	}

	if dropped > 0 {
		logger.Debug("{normalize - Matches} Dropped %d invalid match records", dropped)
	}
	return out
}
