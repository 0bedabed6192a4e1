package connector

import (
	"context"
	"log/slog"
	"sort"
	"sync"

	scherrors "github.com/scholaris-ai/scholaris/internal/errors"
	"github.com/scholaris-ai/scholaris/internal/telemetry"
)

// Aggregator fans a search out to multiple literature sources,
// tolerates individual source failures, and returns a deduplicated,
// score-sorted result set.
type Aggregator struct {
	connectors []Connector
	metrics    *telemetry.Metrics
	logger     *slog.Logger
}

// NewAggregator creates an aggregator over the given connectors.
// metrics may be nil.
func NewAggregator(connectors []Connector, metrics *telemetry.Metrics, logger *slog.Logger) *Aggregator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Aggregator{connectors: connectors, metrics: metrics, logger: logger}
}

// Sources lists the configured source names.
func (a *Aggregator) Sources() []string {
	names := make([]string, len(a.connectors))
	for i, c := range a.connectors {
		names[i] = c.SourceName()
	}
	return names
}

// Search queries every source concurrently. A failing source is
// logged and skipped; the search fails only when every source fails.
// Results are deduplicated and sorted by score descending.
func (a *Aggregator) Search(ctx context.Context, query string, limitPerSource int) ([]Record, error) {
	if len(a.connectors) == 0 {
		return nil, scherrors.ValidationError("no literature sources configured", nil)
	}

	type sourceResult struct {
		source  string
		records []Record
		err     error
	}

	results := make([]sourceResult, len(a.connectors))
	var wg sync.WaitGroup
	for i, c := range a.connectors {
		wg.Add(1)
		go func(i int, c Connector) {
			defer wg.Done()
			records, err := c.Search(ctx, query, limitPerSource)
			results[i] = sourceResult{source: c.SourceName(), records: records, err: err}
		}(i, c)
	}
	wg.Wait()

	var all []Record
	failures := 0
	var lastErr error
	for _, r := range results {
		if a.metrics != nil {
			a.metrics.RecordConnector(r.source, r.err)
		}
		if r.err != nil {
			failures++
			lastErr = r.err
			a.logger.Warn("literature source failed",
				"source", r.source, "error", r.err)
			continue
		}
		all = append(all, r.records...)
	}

	if failures == len(a.connectors) {
		return nil, scherrors.ConnectorError("all",
			"every literature source failed", lastErr)
	}

	deduplicated := Deduplicate(all)
	sort.SliceStable(deduplicated, func(i, j int) bool {
		return deduplicated[i].Score > deduplicated[j].Score
	})

	a.logger.Info("aggregated search completed",
		"query", truncate(query, 100),
		"raw", len(all),
		"deduplicated", len(deduplicated),
		"failed_sources", failures)

	return deduplicated, nil
}

// GetByID tries each source in order until one resolves the id.
func (a *Aggregator) GetByID(ctx context.Context, paperID string) (*Record, error) {
	var lastErr error
	for _, c := range a.connectors {
		record, err := c.GetByID(ctx, paperID)
		if err != nil {
			lastErr = err
			continue
		}
		if record != nil {
			return record, nil
		}
	}
	return nil, lastErr
}

// Close closes every connector, returning the first error.
func (a *Aggregator) Close() error {
	var first error
	for _, c := range a.connectors {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
