package lapcompare

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-http-utils/etag"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"justapengu.in/lapcompare/internal/archive"
	"justapengu.in/lapcompare/pkg/comparison"
)

type HTTP struct {
	server *http.Server
	logger Logger

	listen   string
	manager  *ComparisonManager
	gatherer prometheus.Gatherer
}

func NewHTTP(listen string, manager *ComparisonManager, gatherer prometheus.Gatherer, logger Logger) *HTTP {
	return &HTTP{
		listen:   listen,
		manager:  manager,
		gatherer: gatherer,
		logger:   logger,
	}
}

func (h *HTTP) Listen() error {
	h.logger.Infof("HTTP server listening on: %s", h.listen)

	h.server = &http.Server{
		Handler: h.Router(),
		Addr:    h.listen,
	}

	err := h.server.ListenAndServe()

	if err == http.ErrServerClosed {
		return nil
	}

	return err
}

func (h *HTTP) Shutdown(ctx context.Context) error {
	if h.server == nil {
		return nil
	}

	return h.server.Shutdown(ctx)
}

func (h *HTTP) Router() http.Handler {
	router := chi.NewRouter()
	router.Use(middleware.Recoverer)
	router.Use(middleware.StripSlashes)

	router.Get("/health", h.health)
	router.Handle("/metrics", promhttp.HandlerFor(h.gatherer, promhttp.HandlerOpts{}))

	router.Route("/api", func(r chi.Router) {
		r.Use(func(next http.Handler) http.Handler {
			return etag.Handler(next, false)
		})

		r.Get("/racing_venues/{year}", h.venues)
		r.Get("/sessions_from_venue/{year}/{venue}", h.sessions)
		r.Get("/drivers/{year}/{venue}/{session}", h.drivers)
		r.Get("/laps/{year}/{venue}/{session}/{driver}", h.laps)
		r.Get("/track_map/{year}/{venue}/{session}", h.trackMap)
		r.Get("/driver_data/{year}/{venue}/{session}/{driver}/{lap}", h.lapData)
		r.Get("/driver_data/{year}/{venue}/{session}/{driverA}/{lapA}/{driverB}/{lapB}", h.compare)
		r.Get("/driver_data/{year}/{venue}/{session}/{driverA}/{lapA}/{driverB}/{lapB}/comparison.png", h.comparisonImage)
	})

	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		h.logger.Debugf("Could not find HTTP response for URL: %s", r.URL.String())

		http.NotFound(w, r)
	})

	return router
}

type badRequestError struct {
	param string
	err   error
}

func (e badRequestError) Error() string {
	return "invalid " + e.param + ": " + e.err.Error()
}

func intParam(r *http.Request, name string) (int, error) {
	i, err := strconv.Atoi(chi.URLParam(r, name))

	if err != nil {
		return 0, badRequestError{param: name, err: err}
	}

	return i, nil
}

func sessionParams(r *http.Request) (archive.SessionRef, error) {
	year, err := intParam(r, "year")

	if err != nil {
		return archive.SessionRef{}, err
	}

	return archive.SessionRef{
		Year:    year,
		Venue:   chi.URLParam(r, "venue"),
		Session: chi.URLParam(r, "session"),
	}, nil
}

func comparisonParams(r *http.Request) (ComparisonRequest, error) {
	ref, err := sessionParams(r)

	if err != nil {
		return ComparisonRequest{}, err
	}

	lapA, err := intParam(r, "lapA")

	if err != nil {
		return ComparisonRequest{}, err
	}

	lapB, err := intParam(r, "lapB")

	if err != nil {
		return ComparisonRequest{}, err
	}

	req := ComparisonRequest{
		Session: ref,
		DriverA: chi.URLParam(r, "driverA"),
		LapA:    lapA,
		DriverB: chi.URLParam(r, "driverB"),
		LapB:    lapB,
	}

	if segments := r.URL.Query().Get("segments"); segments != "" {
		req.Segments, err = strconv.Atoi(segments)

		if err != nil {
			return ComparisonRequest{}, badRequestError{param: "segments", err: err}
		}

		if req.Segments == 0 {
			return ComparisonRequest{}, badRequestError{param: "segments", err: errors.New("must be positive")}
		}
	}

	return req, nil
}

func (h *HTTP) writeJSON(w http.ResponseWriter, v interface{}) {
	var buf bytes.Buffer

	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		h.logger.WithError(err).Errorf("Could not encode response")
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")

	if _, err := buf.WriteTo(w); err != nil {
		h.logger.WithError(err).Debugf("Could not write response")
	}
}

func (h *HTTP) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var badRequest badRequestError

	switch {
	case errors.As(err, &badRequest), comparison.IsInvalidInput(err):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Cause(err) == archive.ErrNotFound:
		http.NotFound(w, r)
	case errors.Cause(err) == context.Canceled:
		h.logger.Debugf("Request cancelled: %s", r.URL.String())
	default:
		h.logger.WithError(err).Errorf("Could not serve: %s", r.URL.String())
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

func (h *HTTP) health(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, map[string]string{"status": "ok"})
}

func (h *HTTP) venues(w http.ResponseWriter, r *http.Request) {
	year, err := intParam(r, "year")

	if err != nil {
		h.writeError(w, r, err)
		return
	}

	venues, err := h.manager.Venues(year)

	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, venues)
}

func (h *HTTP) sessions(w http.ResponseWriter, r *http.Request) {
	year, err := intParam(r, "year")

	if err != nil {
		h.writeError(w, r, err)
		return
	}

	sessions, err := h.manager.Sessions(year, chi.URLParam(r, "venue"))

	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, sessions)
}

func (h *HTTP) drivers(w http.ResponseWriter, r *http.Request) {
	ref, err := sessionParams(r)

	if err != nil {
		h.writeError(w, r, err)
		return
	}

	drivers, err := h.manager.Drivers(r.Context(), ref)

	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, drivers)
}

func (h *HTTP) laps(w http.ResponseWriter, r *http.Request) {
	ref, err := sessionParams(r)

	if err != nil {
		h.writeError(w, r, err)
		return
	}

	laps, err := h.manager.Laps(r.Context(), ref, chi.URLParam(r, "driver"))

	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, laps)
}

func (h *HTTP) trackMap(w http.ResponseWriter, r *http.Request) {
	ref, err := sessionParams(r)

	if err != nil {
		h.writeError(w, r, err)
		return
	}

	trackMap, err := h.manager.TrackMap(r.Context(), ref)

	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, trackMap)
}

func (h *HTTP) lapData(w http.ResponseWriter, r *http.Request) {
	ref, err := sessionParams(r)

	if err != nil {
		h.writeError(w, r, err)
		return
	}

	lapNumber, err := intParam(r, "lap")

	if err != nil {
		h.writeError(w, r, err)
		return
	}

	lapData, err := h.manager.LapData(r.Context(), ref, chi.URLParam(r, "driver"), lapNumber)

	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, lapData)
}

func (h *HTTP) compare(w http.ResponseWriter, r *http.Request) {
	req, err := comparisonParams(r)

	if err != nil {
		h.writeError(w, r, err)
		return
	}

	report, err := h.manager.Compare(r.Context(), req)

	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, report)
}

func (h *HTTP) comparisonImage(w http.ResponseWriter, r *http.Request) {
	req, err := comparisonParams(r)

	if err != nil {
		h.writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "image/png")

	if _, err := h.manager.RenderComparison(r.Context(), req, w); err != nil {
		h.writeError(w, r, err)
	}
}
