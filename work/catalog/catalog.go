// Package catalog holds the in-memory snapshot of channels and matches
// that every read path serves from. A refresh builds a complete new
// snapshot off to the side and installs it with one atomic pointer
// swap; readers never block on a refresh and never observe a partially
// built snapshot. Once warmed, the catalog never goes back to empty: a
// refresh that fails or yields nothing leaves the last good snapshot in
// place.
package catalog

import (
	"context"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/puzpuzpuz/xsync/v3"

	"streamhub/work/config"
	"streamhub/work/database"
	"streamhub/work/fetcher"
	"streamhub/work/logger"
	"streamhub/work/metrics"
	"streamhub/work/normalize"
	"streamhub/work/types"
	"streamhub/work/utils"
	"streamhub/work/validate"
)

// state is one installed snapshot together with its secondary indexes.
// Built off to the side and never mutated after the swap, so a reader
// holding it sees one consistent catalog version regardless of
// concurrent refreshes.
type state struct {
	snap *types.Snapshot

	channelsBySlug *xsync.MapOf[string, types.ChannelEntry]
	matchesBySlug  *xsync.MapOf[string, types.MatchEntry]
	channelsByURL  *xsync.MapOf[string, types.ChannelEntry]
}

// Catalog owns the current snapshot plus lock-free secondary indexes,
// all replaced together by a single pointer swap.
type Catalog struct {
	cfg       *config.Config
	fetchers  *fetcher.Registry
	validator *validate.Validator
	db        *database.DB

	current atomic.Pointer[state]

	// Serializes snapshot swaps so the channel and match refresh loops
	// cannot drop each other's halves. Reads never take it.
	swapMu sync.Mutex
}

// New builds a catalog. db may be nil when persistence is disabled.
func New(cfg *config.Config, fetchers *fetcher.Registry, validator *validate.Validator, db *database.DB) *Catalog {
	return &Catalog{
		cfg:       cfg,
		fetchers:  fetchers,
		validator: validator,
		db:        db,
	}
}

// WarmStart seeds the snapshot from the persisted catalog so channels
// are servable before the first refresh completes. A cold or missing
// database is not an error.
func (c *Catalog) WarmStart() {
	if c.db == nil {
		return
	}

	channels, err := c.db.LoadChannels()
	if err != nil {
		logger.Warn("{catalog - WarmStart} Error loading persisted channels: %v", err)
		return
	}
	matches, err := c.db.LoadMatches()
	if err != nil {
		logger.Warn("{catalog - WarmStart} Error loading persisted matches: %v", err)
		return
	}

	if len(channels) == 0 && len(matches) == 0 {
		return
	}

	c.install(channels, matches)
	logger.Info("{catalog - WarmStart} Restored %d channels, %d matches from disk", len(channels), len(matches))
}

// Ready reports whether a snapshot has ever been installed.
func (c *Catalog) Ready() bool {
	return c.current.Load() != nil
}

// Snapshot returns the current snapshot, or nil before the first
// successful refresh or warm start.
func (c *Catalog) Snapshot() *types.Snapshot {
	if st := c.current.Load(); st != nil {
		return st.snap
	}
	return nil
}

// Channels returns the current channel list. Callers must not mutate it.
func (c *Catalog) Channels() []types.ChannelEntry {
	if st := c.current.Load(); st != nil {
		return st.snap.Channels
	}
	return nil
}

// Matches returns the current match list. Callers must not mutate it.
func (c *Catalog) Matches() []types.MatchEntry {
	if st := c.current.Load(); st != nil {
		return st.snap.Matches
	}
	return nil
}

// ChannelBySlug looks a channel up by its snapshot slug.
func (c *Catalog) ChannelBySlug(slug string) (types.ChannelEntry, bool) {
	if st := c.current.Load(); st != nil {
		return st.channelsBySlug.Load(slug)
	}
	return types.ChannelEntry{}, false
}

// MatchBySlug looks a match up by its snapshot slug.
func (c *Catalog) MatchBySlug(slug string) (types.MatchEntry, bool) {
	if st := c.current.Load(); st != nil {
		return st.matchesBySlug.Load(slug)
	}
	return types.MatchEntry{}, false
}

// ChannelByID scans the current snapshot for a numeric id.
func (c *Catalog) ChannelByID(id int) (types.ChannelEntry, bool) {
	for _, entry := range c.Channels() {
		if entry.ID == id {
			return entry, true
		}
	}
	return types.ChannelEntry{}, false
}

// MatchByID scans the current snapshot for a numeric id.
func (c *Catalog) MatchByID(id int) (types.MatchEntry, bool) {
	for _, entry := range c.Matches() {
		if entry.ID == id {
			return entry, true
		}
	}
	return types.MatchEntry{}, false
}

// ChannelByURL resolves a channel by its canonical stream URL. The
// relay uses this to recover auth headers for rewritten segment
// requests.
func (c *Catalog) ChannelByURL(url string) (types.ChannelEntry, bool) {
	if st := c.current.Load(); st != nil {
		return st.channelsByURL.Load(url)
	}
	return types.ChannelEntry{}, false
}

// RefreshChannels runs the full channel pipeline: fetch every source,
// normalize and dedupe, probe reachability, assign slugs, swap. An
// empty result leaves the existing snapshot untouched.
func (c *Catalog) RefreshChannels(ctx context.Context) {
	start := time.Now()

	raw := c.fetchers.FetchAllChannels(ctx)
	channels := normalize.Channels(c.cfg, raw)
	if c.validator != nil {
		channels = c.validator.ProbeChannels(ctx, channels)
	}

	if len(channels) == 0 {
		logger.Warn("{catalog - RefreshChannels} Refresh produced no channels, keeping previous snapshot")
		metrics.RefreshCycles.WithLabelValues(types.KindChannels, "empty").Inc()
		return
	}

	c.swapMu.Lock()
	c.install(channels, c.Matches())
	c.swapMu.Unlock()

	c.persistChannels(channels)
	metrics.RefreshCycles.WithLabelValues(types.KindChannels, "ok").Inc()
	logger.Info("{catalog - RefreshChannels} %d channels in %v", len(channels), time.Since(start).Round(time.Millisecond))
}

// RefreshMatches runs the match pipeline. Matches are scrape-driven and
// never probed.
func (c *Catalog) RefreshMatches(ctx context.Context) {
	start := time.Now()

	raw := c.fetchers.FetchAllMatches(ctx)
	matches := normalize.Matches(c.cfg, raw)

	if len(matches) == 0 {
		logger.Warn("{catalog - RefreshMatches} Refresh produced no matches, keeping previous snapshot")
		metrics.RefreshCycles.WithLabelValues(types.KindMatches, "empty").Inc()
		return
	}

	c.swapMu.Lock()
	c.install(c.Channels(), matches)
	c.swapMu.Unlock()

	c.persistMatches(matches)
	metrics.RefreshCycles.WithLabelValues(types.KindMatches, "ok").Inc()
	logger.Info("{catalog - RefreshMatches} %d matches in %v", len(matches), time.Since(start).Round(time.Millisecond))
}

// RefreshAll is the on-demand trigger behind the update endpoint.
func (c *Catalog) RefreshAll(ctx context.Context) {
	c.RefreshChannels(ctx)
	c.RefreshMatches(ctx)
}

// Start launches the per-kind refresh loops. Each kind ticks on its own
// interval; both stop when ctx is cancelled.
func (c *Catalog) Start(ctx context.Context) {
	go c.loop(ctx, types.KindChannels, c.cfg.ChannelRefreshInterval, c.RefreshChannels)
	go c.loop(ctx, types.KindMatches, c.cfg.MatchRefreshInterval, c.RefreshMatches)
}

func (c *Catalog) loop(ctx context.Context, kind string, interval time.Duration, refresh func(context.Context)) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	logger.Debug("{catalog - loop} %s refresh loop started, interval %v", kind, interval)
	for {
		select {
		case <-ctx.Done():
			logger.Debug("{catalog - loop} %s refresh loop stopped", kind)
			return
		case <-ticker.C:
			refresh(ctx)
		}
	}
}

// install assigns snapshot slugs, builds fresh secondary indexes off to
// the side and publishes snapshot and indexes together with one pointer
// store. The outgoing state is never touched, so in-flight readers keep
// a fully consistent view. Channel and match slices must already be
// normalized with final ids.
func (c *Catalog) install(channels []types.ChannelEntry, matches []types.MatchEntry) {
	channelSlugs := newSlugSet()
	for i := range channels {
		channels[i].Slug = channelSlugs.assign(utils.Slugify(channels[i].Name))
	}
	matchSlugs := newSlugSet()
	for i := range matches {
		matches[i].Slug = matchSlugs.assign(utils.Slugify(matches[i].Title))
	}

	st := &state{
		snap: &types.Snapshot{
			Channels: channels,
			Matches:  matches,
			BuiltAt:  time.Now().UTC(),
		},
		channelsBySlug: xsync.NewMapOf[string, types.ChannelEntry](),
		matchesBySlug:  xsync.NewMapOf[string, types.MatchEntry](),
		channelsByURL:  xsync.NewMapOf[string, types.ChannelEntry](),
	}
	for _, entry := range channels {
		st.channelsBySlug.Store(entry.Slug, entry)
		st.channelsByURL.Store(entry.URL, entry)
	}
	for _, entry := range matches {
		st.matchesBySlug.Store(entry.Slug, entry)
	}

	c.current.Store(st)

	metrics.CatalogEntries.WithLabelValues(types.KindChannels).Set(float64(len(channels)))
	metrics.CatalogEntries.WithLabelValues(types.KindMatches).Set(float64(len(matches)))
}

func (c *Catalog) persistChannels(channels []types.ChannelEntry) {
	if c.db == nil {
		return
	}
	if err := c.db.ReplaceChannels(channels); err != nil {
		logger.Warn("{catalog - persistChannels} Error persisting channels: %v", err)
	}
}

func (c *Catalog) persistMatches(matches []types.MatchEntry) {
	if c.db == nil {
		return
	}
	if err := c.db.ReplaceMatches(matches); err != nil {
		logger.Warn("{catalog - persistMatches} Error persisting matches: %v", err)
	}
}

// slugSet disambiguates base-slug collisions in build order: the first
// holder keeps the base, later ones get _1, _2 and so on.
type slugSet struct {
	counts map[string]int
}

func newSlugSet() *slugSet {
	return &slugSet{counts: make(map[string]int)}
}

func (s *slugSet) assign(base string) string {
	if base == "" {
		base = "entry"
	}
	n := s.counts[base]
	s.counts[base] = n + 1
	if n == 0 {
		return base
	}
	return base + "_" + strconv.Itoa(n)
}
