// Package handlers implements the JSON API surface in front of the
// catalog. Catalog endpoints always answer from the current snapshot;
// upstream trouble never turns into a 500 here.
package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"streamhub/work/catalog"
	"streamhub/work/config"
	"streamhub/work/logger"
	"streamhub/work/types"
)

const maxRelated = 10

// Handlers bundles the API endpoints around their shared dependencies.
type Handlers struct {
	cfg     *config.Config
	catalog *catalog.Catalog
}

// New builds the handler set.
func New(cfg *config.Config, cat *catalog.Catalog) *Handlers {
	return &Handlers{cfg: cfg, catalog: cat}
}

// playResponse is the envelope for the play endpoint: the resolved
// entry plus a small set of related ones.
type playResponse struct {
	Entry   any `json:"entry"`
	Related any `json:"related"`
}

// HandleTV serves the current channel list.
func (h *Handlers) HandleTV(w http.ResponseWriter, r *http.Request) {
	channels := h.catalog.Channels()
	if channels == nil {
		channels = []types.ChannelEntry{}
	}
	writeJSON(w, channels)
}

// HandleMatches serves the current match list.
func (h *Handlers) HandleMatches(w http.ResponseWriter, r *http.Request) {
	matches := h.catalog.Matches()
	if matches == nil {
		matches = []types.MatchEntry{}
	}
	writeJSON(w, matches)
}

// HandlePlay resolves one entry by slug, falling back to numeric id for
// old clients, and attaches related entries: same-category channels or
// other live matches.
func (h *Handlers) HandlePlay(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	kind := vars["kind"]
	key := vars["key"]

	switch kind {
	case "tv", types.KindChannels:
		entry, ok := h.resolveChannel(key)
		if !ok {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		writeJSON(w, playResponse{Entry: entry, Related: h.relatedChannels(entry)})
	case "match", types.KindMatches:
		entry, ok := h.resolveMatch(key)
		if !ok {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		writeJSON(w, playResponse{Entry: entry, Related: h.relatedMatches(entry)})
	default:
		http.Error(w, "not found", http.StatusNotFound)
	}
}

// HandleUpdate forces a catalog refresh. The refresh runs detached from
// the request so a slow probe cycle does not hold the operator's
// connection open.
func (h *Handlers) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	logger.Info("{handlers - HandleUpdate} Manual catalog refresh requested")
	go h.catalog.RefreshAll(context.Background())

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte("refresh started\n"))
}

func (h *Handlers) resolveChannel(key string) (types.ChannelEntry, bool) {
	if entry, ok := h.catalog.ChannelBySlug(key); ok {
		return entry, true
	}
	if id, err := strconv.Atoi(key); err == nil {
		return h.catalog.ChannelByID(id)
	}
	return types.ChannelEntry{}, false
}

func (h *Handlers) resolveMatch(key string) (types.MatchEntry, bool) {
	if entry, ok := h.catalog.MatchBySlug(key); ok {
		return entry, true
	}
	if id, err := strconv.Atoi(key); err == nil {
		return h.catalog.MatchByID(id)
	}
	return types.MatchEntry{}, false
}

func (h *Handlers) relatedChannels(entry types.ChannelEntry) []types.ChannelEntry {
	related := make([]types.ChannelEntry, 0, maxRelated)
	for _, other := range h.catalog.Channels() {
		if other.ID == entry.ID || other.Category != entry.Category {
			continue
		}
		related = append(related, other)
		if len(related) == maxRelated {
			break
		}
	}
	return related
}

func (h *Handlers) relatedMatches(entry types.MatchEntry) []types.MatchEntry {
	related := make([]types.MatchEntry, 0, maxRelated)
	for _, other := range h.catalog.Matches() {
		if other.ID == entry.ID || other.Status != types.StatusLive {
			continue
		}
		related = append(related, other)
		if len(related) == maxRelated {
			break
		}
	}
	return related
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Warn("{handlers - writeJSON} Encode error: %v", err)
	}
}
