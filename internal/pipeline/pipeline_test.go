package pipeline_test

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/couchcryptid/covid-case-etl/internal/domain"
	"github.com/couchcryptid/covid-case-etl/internal/observability"
	"github.com/couchcryptid/covid-case-etl/internal/pipeline"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- mocks ---

type mockExtractor struct {
	table domain.RawTable
	err   error
}

func (m *mockExtractor) Extract(_ context.Context) (domain.RawTable, error) {
	return m.table, m.err
}

type mockTransformer struct {
	err error
}

func (m *mockTransformer) Transform(_ context.Context, table domain.RawTable) (domain.CleanResult, error) {
	if m.err != nil {
		return domain.CleanResult{}, m.err
	}
	return domain.Clean(table, domain.DefaultCountryAliases)
}

type mockLoader struct {
	batches []domain.SummaryBatch
	failAt  int
}

func (m *mockLoader) LoadBatch(_ context.Context, batch domain.SummaryBatch) error {
	if m.failAt > 0 && len(m.batches)+1 == m.failAt {
		return errors.New("broker unavailable")
	}
	m.batches = append(m.batches, batch)
	return nil
}

func (m *mockLoader) summaries() []domain.DailySummary {
	var out []domain.DailySummary
	for _, b := range m.batches {
		out = append(out, b.Summaries...)
	}
	return out
}

func sampleTable() domain.RawTable {
	return domain.RawTable{
		Header: []string{"ObservationDate", "Province/State", "Country/Region", "Confirmed", "Deaths", "Recovered"},
		Rows: [][]string{
			{"03/01/2020", "Hubei", "Mainland China", "100", "3", "10"},
			{"03/01/2020", "", "Italy", "20", "1", "0"},
			{"03/02/2020", "Hubei", "Mainland China", "110", "4", "12"},
			{"03/02/2020", "", "Italy", "25", "2", "1"},
			{"bad", "", "Italy", "99", "0", "0"},
		},
	}
}

// --- tests ---

func TestPipeline_Run_HappyPath(t *testing.T) {
	ldr := &mockLoader{}
	metrics := observability.NewMetricsForTesting()
	p := pipeline.New(&mockExtractor{table: sampleTable()}, &mockTransformer{}, ldr, slog.Default(), metrics, 50)

	require.Error(t, p.CheckReadiness(context.Background()))
	assert.Nil(t, p.Dataset())

	ds, err := p.Run(context.Background())
	require.NoError(t, err)
	require.NotNil(t, ds)

	assert.Same(t, ds, p.Dataset())
	require.NoError(t, p.CheckReadiness(context.Background()))
	assert.Equal(t, []string{"China", "Italy"}, ds.Countries())

	assert.InDelta(t, 5.0, testutil.ToFloat64(metrics.RowsRead), 0.0001)
	assert.InDelta(t, 1.0, testutil.ToFloat64(metrics.RowsDropped.WithLabelValues("date")), 0.0001)
	assert.InDelta(t, 4.0, testutil.ToFloat64(metrics.GroupedRecords), 0.0001)
	assert.InDelta(t, 1.0, testutil.ToFloat64(metrics.DatasetLoaded), 0.0001)

	// 2 world days + 2 China days + 2 Italy days.
	summaries := ldr.summaries()
	require.Len(t, summaries, 6)
	assert.Empty(t, summaries[0].Country)
	assert.Equal(t, int64(120), summaries[0].Confirmed)
	assert.Equal(t, "China", summaries[2].Country)
	assert.InDelta(t, 6.0, testutil.ToFloat64(metrics.SummariesPublished), 0.0001)
}

func TestPipeline_Run_BatchesShareRunID(t *testing.T) {
	ldr := &mockLoader{}
	p := pipeline.New(&mockExtractor{table: sampleTable()}, &mockTransformer{}, ldr, slog.Default(), observability.NewMetricsForTesting(), 4)

	_, err := p.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, ldr.batches, 2)
	assert.Len(t, ldr.batches[0].Summaries, 4)
	assert.Len(t, ldr.batches[1].Summaries, 2)
	assert.NotEmpty(t, ldr.batches[0].RunID)
	assert.Equal(t, ldr.batches[0].RunID, ldr.batches[1].RunID)
}

func TestPipeline_Run_ExtractError(t *testing.T) {
	metrics := observability.NewMetricsForTesting()
	p := pipeline.New(&mockExtractor{err: errors.New("no such file")}, &mockTransformer{}, nil, slog.Default(), metrics, 50)

	ds, err := p.Run(context.Background())
	require.Error(t, err)
	assert.Nil(t, ds)
	assert.Contains(t, err.Error(), "extract")
	require.Error(t, p.CheckReadiness(context.Background()))
	assert.InDelta(t, 0.0, testutil.ToFloat64(metrics.DatasetLoaded), 0.0001)
}

func TestPipeline_Run_TransformError(t *testing.T) {
	p := pipeline.New(&mockExtractor{table: sampleTable()}, &mockTransformer{err: domain.ErrMissingColumn}, nil, slog.Default(), observability.NewMetricsForTesting(), 50)

	_, err := p.Run(context.Background())
	require.ErrorIs(t, err, domain.ErrMissingColumn)
	assert.Nil(t, p.Dataset())
}

func TestPipeline_Run_PublishFailureKeepsDataset(t *testing.T) {
	ldr := &mockLoader{failAt: 2}
	metrics := observability.NewMetricsForTesting()
	p := pipeline.New(&mockExtractor{table: sampleTable()}, &mockTransformer{}, ldr, slog.Default(), metrics, 2)

	ds, err := p.Run(context.Background())
	require.NoError(t, err)
	require.NotNil(t, ds)

	assert.Len(t, ldr.batches, 1, "publishing stops at the first failed batch")
	assert.InDelta(t, 1.0, testutil.ToFloat64(metrics.PublishErrors), 0.0001)
	require.NoError(t, p.CheckReadiness(context.Background()))
}

func TestPipeline_Run_NilLoaderSkipsPublish(t *testing.T) {
	metrics := observability.NewMetricsForTesting()
	p := pipeline.New(&mockExtractor{table: sampleTable()}, &mockTransformer{}, nil, slog.Default(), metrics, 50)

	_, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.InDelta(t, 0.0, testutil.ToFloat64(metrics.SummariesPublished), 0.0001)
}

func TestCaseTransformer_Transform(t *testing.T) {
	tfm := pipeline.NewTransformer(nil, slog.Default())

	res, err := tfm.Transform(context.Background(), sampleTable())
	require.NoError(t, err)
	assert.Equal(t, 1, res.Stats.DroppedDate)
	assert.Equal(t, "China", res.Records[0].CountryRegion)
}

func TestCaseTransformer_CustomAliases(t *testing.T) {
	tfm := pipeline.NewTransformer(domain.AliasTable{"Italy": "Italia"}, slog.Default())

	res, err := tfm.Transform(context.Background(), sampleTable())
	require.NoError(t, err)
	assert.Equal(t, "Italia", res.Records[0].CountryRegion)
	assert.Equal(t, "Mainland China", res.Records[len(res.Records)-1].CountryRegion, "custom table replaces the default")
}

func TestCaseTransformer_Cancelled(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Nanosecond)
	defer cancel()
	<-ctx.Done()

	_, err := pipeline.NewTransformer(nil, slog.Default()).Transform(ctx, sampleTable())
	require.ErrorIs(t, err, context.DeadlineExceeded)
}
