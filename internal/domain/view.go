package domain

import "time"

// ViewOptions tunes BuildView.
type ViewOptions struct {
	TopN         int
	TimelineDays int
	// Namer rewrites group names for display. Nil leaves names unchanged.
	Namer DisplayNamer
}

// View bundles every derived structure a dashboard renders for one selection.
type View struct {
	Selection    string           `json:"selection"`
	Label        string           `json:"label"`
	LoadedAt     time.Time        `json:"loaded_at"`
	Summary      []DailySummary   `json:"summary"`
	Totals       Totals           `json:"totals"`
	DeathRate    string           `json:"death_rate"`
	RecoveryRate string           `json:"recovery_rate"`
	Breakdown    Totals           `json:"breakdown"`
	Latest       LatestSnapshot   `json:"latest"`
	Timeline     []LatestSnapshot `json:"timeline"`
}

// BuildView recomputes every view of sel from the dataset. Nothing is reused
// between calls.
func BuildView(d *Dataset, sel Selection, opts ViewOptions) View {
	if opts.TopN <= 0 {
		opts.TopN = DefaultTopN
	}
	namer := opts.Namer
	if namer == nil {
		namer = IdentityNamer
	}

	summary := Summary(d, sel)
	totals := OverallTotals(summary)

	timeline := Timeline(d, sel, opts.TopN, opts.TimelineDays)
	for i := range timeline {
		timeline[i] = Localize(timeline[i], namer)
	}

	return View{
		Selection:    sel.String(),
		Label:        namer.DisplayName(sel.String()),
		LoadedAt:     d.LoadedAt(),
		Summary:      summary,
		Totals:       totals,
		DeathRate:    DeathRate(totals),
		RecoveryRate: RecoveryRate(totals),
		Breakdown:    LatestBreakdown(summary),
		Latest:       Localize(LatestTopN(d, sel, opts.TopN), namer),
		Timeline:     timeline,
	}
}
