// Package validate probes candidate channel stream URLs for
// reachability before they are admitted to the catalog. Probes run on a
// bounded worker pool with a shared outbound rate limit; results are
// re-joined to their entries by index since completion order is
// arbitrary under concurrency.
package validate

import (
	"context"
	"net/http"
	"sync"

	"github.com/panjf2000/ants/v2"
	"go.uber.org/ratelimit"

	"streamhub/work/client"
	"streamhub/work/config"
	"streamhub/work/logger"
	"streamhub/work/metrics"
	"streamhub/work/types"
	"streamhub/work/utils"
)

// Validator owns the probe worker pool for the process lifetime. The
// pool is shared across refresh cycles so successive cycles never stack
// unbounded goroutines.
type Validator struct {
	cfg     *config.Config
	client  *client.HeaderSettingClient
	pool    *ants.Pool
	limiter ratelimit.Limiter
}

// New builds a validator with a worker pool capped at cfg.ProbeWorkers
// and an outbound rate of cfg.ProbeRate probes per second.
func New(cfg *config.Config, httpClient *client.HeaderSettingClient) (*Validator, error) {
	pool, err := ants.NewPool(cfg.ProbeWorkers, ants.WithNonblocking(false))
	if err != nil {
		return nil, err
	}
	return &Validator{
		cfg:     cfg,
		client:  httpClient,
		pool:    pool,
		limiter: ratelimit.New(cfg.ProbeRate),
	}, nil
}

// Close releases the worker pool.
func (v *Validator) Close() {
	v.pool.Release()
}

// ProbeChannels returns the subset of entries whose URLs answered a
// lightweight probe with a 2xx. Output preserves input order; matches
// are never probed and must not be routed through here.
func (v *Validator) ProbeChannels(ctx context.Context, entries []types.ChannelEntry) []types.ChannelEntry {
	if len(entries) == 0 {
		return entries
	}

	reachable := make([]bool, len(entries))
	var wg sync.WaitGroup

	for i := range entries {
		i := i
		wg.Add(1)
		err := v.pool.Submit(func() {
			defer wg.Done()
			v.limiter.Take()
			reachable[i] = v.probe(ctx, &entries[i])
		})
		if err != nil {
			// Pool released mid-refresh; count the entry unreachable.
			wg.Done()
			logger.Warn("{validate - ProbeChannels} Submit failed: %v", err)
		}
	}
	wg.Wait()

	out := make([]types.ChannelEntry, 0, len(entries))
	for i, entry := range entries {
		if reachable[i] {
			out = append(out, entry)
		}
	}

	logger.Info("{validate - ProbeChannels} %d/%d channels reachable", len(out), len(entries))
	return out
}

// probe issues a HEAD with a bounded timeout, retrying once as GET when
// the origin rejects HEAD outright. Any 2xx counts as reachable;
// non-2xx, timeout, connection and TLS errors all count as unreachable.
func (v *Validator) probe(ctx context.Context, entry *types.ChannelEntry) bool {
	probeCtx, cancel := context.WithTimeout(ctx, v.cfg.ProbeTimeout)
	defer cancel()

	status, ok := v.request(probeCtx, http.MethodHead, entry)
	if !ok {
		metrics.ProbeResults.WithLabelValues("error").Inc()
		return false
	}
	if status == http.StatusMethodNotAllowed {
		status, ok = v.request(probeCtx, http.MethodGet, entry)
		if !ok {
			metrics.ProbeResults.WithLabelValues("error").Inc()
			return false
		}
	}

	if status >= 200 && status < 300 {
		metrics.ProbeResults.WithLabelValues("reachable").Inc()
		return true
	}

	metrics.ProbeResults.WithLabelValues("unreachable").Inc()
	logger.Debug("{validate - probe} %s answered %d", utils.LogURL(v.cfg.ObfuscateUrls, entry.URL), status)
	return false
}

func (v *Validator) request(ctx context.Context, method string, entry *types.ChannelEntry) (int, bool) {
	req, err := http.NewRequestWithContext(ctx, method, entry.URL, nil)
	if err != nil {
		return 0, false
	}
	if entry.Referer != "" {
		req.Header.Set("Referer", entry.Referer)
	}
	if entry.Origin != "" {
		req.Header.Set("Origin", entry.Origin)
	}
	if entry.Cookie != "" {
		req.Header.Set("Cookie", entry.Cookie)
	}

	resp, err := v.client.Do(req)
	if err != nil {
		return 0, false
	}
	resp.Body.Close()
	return resp.StatusCode, true
}
