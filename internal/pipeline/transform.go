package pipeline

import (
	"context"
	"log/slog"

	"github.com/couchcryptid/covid-case-etl/internal/domain"
)

// CaseTransformer implements Transformer with domain.Clean and a fixed alias table.
type CaseTransformer struct {
	aliases domain.AliasTable
	logger  *slog.Logger
}

// NewTransformer creates a CaseTransformer. A nil alias table uses
// domain.DefaultCountryAliases.
func NewTransformer(aliases domain.AliasTable, logger *slog.Logger) *CaseTransformer {
	if aliases == nil {
		aliases = domain.DefaultCountryAliases
	}
	return &CaseTransformer{aliases: aliases, logger: logger}
}

// Transform cleans a raw table into deduplicated grouped records.
func (t *CaseTransformer) Transform(ctx context.Context, table domain.RawTable) (domain.CleanResult, error) {
	if err := ctx.Err(); err != nil {
		return domain.CleanResult{}, err
	}
	res, err := domain.Clean(table, t.aliases)
	if err != nil {
		return domain.CleanResult{}, err
	}
	if dropped := res.Stats.Dropped(); dropped > 0 {
		t.logger.Debug("rows dropped during cleaning",
			"invalid_date", res.Stats.DroppedDate,
			"missing_country", res.Stats.DroppedCountry,
		)
	}
	return res, nil
}
