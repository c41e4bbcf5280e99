package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/covid-case-etl/internal/domain"
	"github.com/couchcryptid/covid-case-etl/internal/observability"
	"github.com/google/uuid"
)

// Extractor reads the raw case table from the source.
type Extractor interface {
	Extract(ctx context.Context) (domain.RawTable, error)
}

// Transformer cleans a raw table into grouped records.
type Transformer interface {
	Transform(ctx context.Context, table domain.RawTable) (domain.CleanResult, error)
}

// BatchLoader publishes daily summaries to a downstream sink.
type BatchLoader interface {
	LoadBatch(ctx context.Context, batch domain.SummaryBatch) error
}

// Pipeline runs the one-shot extract-clean-load pass and holds the resulting dataset.
type Pipeline struct {
	extractor   Extractor
	transformer Transformer
	loader      BatchLoader
	logger      *slog.Logger
	metrics     *observability.Metrics
	batchSize   int
	dataset     atomic.Pointer[domain.Dataset]
}

// New creates a Pipeline. A nil loader disables summary publishing.
func New(e Extractor, t Transformer, l BatchLoader, logger *slog.Logger, metrics *observability.Metrics, batchSize int) *Pipeline {
	if batchSize <= 0 {
		batchSize = 1
	}
	return &Pipeline{
		extractor:   e,
		transformer: t,
		loader:      l,
		logger:      logger,
		metrics:     metrics,
		batchSize:   batchSize,
	}
}

// CheckReadiness returns nil once a dataset has been loaded.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if p.dataset.Load() == nil {
		return errors.New("case dataset has not been loaded yet")
	}
	return nil
}

// Dataset returns the loaded dataset, or nil before Run succeeds.
func (p *Pipeline) Dataset() *domain.Dataset {
	return p.dataset.Load()
}

// Run extracts and cleans the case table, stores the dataset, then publishes
// daily summaries if a loader is configured. Extract and transform failures are
// returned; publish failures are logged and counted but do not fail the run.
func (p *Pipeline) Run(ctx context.Context) (*domain.Dataset, error) {
	runID := uuid.NewString()
	logger := p.logger.With("run_id", runID)
	start := time.Now()

	table, err := p.extractor.Extract(ctx)
	if err != nil {
		return nil, fmt.Errorf("extract: %w", err)
	}
	p.metrics.RowsRead.Add(float64(len(table.Rows)))

	res, err := p.transformer.Transform(ctx, table)
	if err != nil {
		return nil, fmt.Errorf("transform: %w", err)
	}
	p.metrics.RowsDropped.WithLabelValues("date").Add(float64(res.Stats.DroppedDate))
	p.metrics.RowsDropped.WithLabelValues("country").Add(float64(res.Stats.DroppedCountry))
	p.metrics.DuplicateRows.Add(float64(res.Stats.Duplicates))

	ds := domain.NewDataset(res)
	p.dataset.Store(ds)
	p.metrics.GroupedRecords.Set(float64(ds.Len()))
	p.metrics.DatasetLoaded.Set(1)
	p.metrics.LoadDuration.Observe(time.Since(start).Seconds())

	logger.Info("dataset loaded",
		"rows", res.Stats.Rows,
		"dropped_date", res.Stats.DroppedDate,
		"dropped_country", res.Stats.DroppedCountry,
		"duplicates", res.Stats.Duplicates,
		"records", ds.Len(),
		"countries", len(ds.Countries()),
		"duration", time.Since(start),
	)

	if p.loader != nil {
		p.publish(ctx, logger, runID, ds)
	}
	return ds, nil
}

// publish sends the world series followed by every country's series in batches.
// It stops at the first failed batch.
func (p *Pipeline) publish(ctx context.Context, logger *slog.Logger, runID string, ds *domain.Dataset) {
	summaries := append(domain.WorldSummary(ds), domain.CountryDailySeries(ds)...)

	published := 0
	for start := 0; start < len(summaries); start += p.batchSize {
		end := min(start+p.batchSize, len(summaries))
		batch := domain.SummaryBatch{RunID: runID, Summaries: summaries[start:end]}

		if err := p.loader.LoadBatch(ctx, batch); err != nil {
			p.metrics.PublishErrors.Inc()
			logger.Error("publish summaries failed", "error", err, "published", published, "remaining", len(summaries)-published)
			return
		}
		published += end - start
		p.metrics.SummariesPublished.Add(float64(end - start))
	}
	logger.Info("summaries published", "count", published)
}
