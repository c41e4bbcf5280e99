package http

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/couchcryptid/covid-case-etl/internal/adapter/cache"
	"github.com/couchcryptid/covid-case-etl/internal/domain"
	"github.com/couchcryptid/covid-case-etl/internal/observability"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
)

// maxTopN bounds the n query parameter on /api/latest.
const maxTopN = 100

// DatasetProvider hands out the currently loaded dataset, or nil before the
// first load completes.
type DatasetProvider interface {
	sharedobs.ReadinessChecker
	Dataset() *domain.Dataset
}

// APIConfig tunes the dashboard endpoints.
type APIConfig struct {
	TopN          int
	TimelineDays  int
	ViewCacheSize int
	Metrics       *observability.Metrics
}

type api struct {
	provider DatasetProvider
	cfg      APIConfig
	views    *cache.CachedViews
	logger   *slog.Logger
}

func newAPI(provider DatasetProvider, cfg APIConfig, logger *slog.Logger) *api {
	if cfg.TopN <= 0 {
		cfg.TopN = domain.DefaultTopN
	}
	a := &api{provider: provider, cfg: cfg, logger: logger}
	a.views = cache.NewCachedViews(a.buildView, cfg.ViewCacheSize, cfg.Metrics)
	return a
}

func (a *api) register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/selections", a.handle("selections", a.selections))
	mux.HandleFunc("GET /api/summary", a.handle("summary", a.summary))
	mux.HandleFunc("GET /api/latest", a.handle("latest", a.latest))
	mux.HandleFunc("GET /api/totals", a.handle("totals", a.totals))
	mux.HandleFunc("GET /api/timeline", a.handle("timeline", a.timeline))
	mux.HandleFunc("GET /api/choropleth", a.handle("choropleth", a.choropleth))
	mux.HandleFunc("GET /api/dashboard", a.handle("dashboard", a.dashboard))
}

func (a *api) buildView(d *domain.Dataset, sel domain.Selection) domain.View {
	return domain.BuildView(d, sel, domain.ViewOptions{
		TopN:         a.cfg.TopN,
		TimelineDays: a.cfg.TimelineDays,
		Namer:        domain.DisplayNamerFor(sel),
	})
}

// apiError carries the HTTP status an endpoint failure maps to.
type apiError struct {
	status int
	err    error
}

func (e *apiError) Error() string { return e.err.Error() }

func badRequest(err error) error { return &apiError{status: http.StatusBadRequest, err: err} }

var errNotLoaded = &apiError{status: http.StatusServiceUnavailable, err: errors.New("dataset not loaded")}

type endpointFunc func(r *http.Request, ds *domain.Dataset) (any, error)

// handle resolves the dataset, runs fn and writes its result or error as JSON,
// counting every request by endpoint and status.
func (a *api) handle(name string, fn endpointFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := http.StatusOK
		defer func() {
			if a.cfg.Metrics != nil {
				a.cfg.Metrics.APIRequests.WithLabelValues(name, strconv.Itoa(status)).Inc()
			}
		}()

		var (
			body any
			err  error
		)
		if ds := a.provider.Dataset(); ds == nil {
			err = errNotLoaded
		} else {
			body, err = fn(r, ds)
		}
		if err != nil {
			status = http.StatusInternalServerError
			var apiErr *apiError
			if errors.As(err, &apiErr) {
				status = apiErr.status
			}
			a.logger.Debug("api request failed", "endpoint", name, "status", status, "error", err)
			sharedobs.WriteJSON(w, status, map[string]string{"error": err.Error()})
			return
		}
		sharedobs.WriteJSON(w, status, body)
	}
}

func selection(r *http.Request, ds *domain.Dataset) (domain.Selection, error) {
	sel, err := ds.ParseSelection(r.URL.Query().Get("country"))
	if err != nil {
		return domain.Selection{}, badRequest(err)
	}
	return sel, nil
}

func (a *api) topN(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("n")
	if raw == "" {
		return a.cfg.TopN, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 || n > maxTopN {
		return 0, badRequest(errors.New("invalid n: must be between 1 and 100"))
	}
	return n, nil
}

type selectionsResponse struct {
	Selections []string `json:"selections"`
}

func (a *api) selections(_ *http.Request, ds *domain.Dataset) (any, error) {
	return selectionsResponse{Selections: ds.Selections()}, nil
}

type summaryResponse struct {
	Selection string                `json:"selection"`
	Summary   []domain.DailySummary `json:"summary"`
}

func (a *api) summary(r *http.Request, ds *domain.Dataset) (any, error) {
	sel, err := selection(r, ds)
	if err != nil {
		return nil, err
	}
	return summaryResponse{Selection: sel.String(), Summary: domain.Summary(ds, sel)}, nil
}

func (a *api) latest(r *http.Request, ds *domain.Dataset) (any, error) {
	sel, err := selection(r, ds)
	if err != nil {
		return nil, err
	}
	n, err := a.topN(r)
	if err != nil {
		return nil, err
	}
	return domain.Localize(domain.LatestTopN(ds, sel, n), domain.DisplayNamerFor(sel)), nil
}

type totalsResponse struct {
	Selection    string        `json:"selection"`
	Totals       domain.Totals `json:"totals"`
	Breakdown    domain.Totals `json:"breakdown"`
	DeathRate    string        `json:"death_rate"`
	RecoveryRate string        `json:"recovery_rate"`
}

func (a *api) totals(r *http.Request, ds *domain.Dataset) (any, error) {
	sel, err := selection(r, ds)
	if err != nil {
		return nil, err
	}
	v := a.views.View(ds, sel)
	return totalsResponse{
		Selection:    v.Selection,
		Totals:       v.Totals,
		Breakdown:    v.Breakdown,
		DeathRate:    v.DeathRate,
		RecoveryRate: v.RecoveryRate,
	}, nil
}

type timelineResponse struct {
	Selection string                  `json:"selection"`
	Frames    []domain.LatestSnapshot `json:"frames"`
}

func (a *api) timeline(r *http.Request, ds *domain.Dataset) (any, error) {
	sel, err := selection(r, ds)
	if err != nil {
		return nil, err
	}
	v := a.views.View(ds, sel)
	return timelineResponse{Selection: v.Selection, Frames: v.Timeline}, nil
}

type choroplethResponse struct {
	Countries []domain.LatestEntry `json:"countries"`
}

func (a *api) choropleth(_ *http.Request, ds *domain.Dataset) (any, error) {
	return choroplethResponse{Countries: domain.ConfirmedByCountry(ds)}, nil
}

func (a *api) dashboard(r *http.Request, ds *domain.Dataset) (any, error) {
	sel, err := selection(r, ds)
	if err != nil {
		return nil, err
	}
	return a.views.View(ds, sel), nil
}
