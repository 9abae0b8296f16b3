// Package server exposes the resolver over HTTP
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-spatial/geom"
	"github.com/rs/zerolog"

	"github.com/pdok/tilefinder/catalogue"
	"github.com/pdok/tilefinder/geomhelp"
	"github.com/pdok/tilefinder/resolver"
)

type tileResponse struct {
	ID         catalogue.ID   `json:"id"`
	Code       string         `json:"code"`
	Location   string         `json:"location,omitempty"`
	Point      geom.Point     `json:"point"`
	Projected  geom.Point     `json:"projected"`
	Candidates []catalogue.ID `json:"candidates"`
}

type footprintResponse struct {
	ID       catalogue.ID `json:"id"`
	Code     string       `json:"code"`
	Location string       `json:"location,omitempty"`
	Raw      string       `json:"footprint"`
	Snapped  string       `json:"snappedFootprint"`
}

type errorResponse struct {
	Error      string         `json:"error"`
	Kind       string         `json:"kind,omitempty"`
	Candidates []catalogue.ID `json:"candidates,omitempty"`
}

// NewRouter serves
//
//	GET /tiles?x=&y=  (or lon= and lat=) the tile containing the point
//	GET /tiles/{code} a tile's footprint
//	GET /metrics      when metrics is not nil
//	GET /healthz
func NewRouter(res *resolver.Resolver, metrics http.Handler, logger zerolog.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(logger))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	if metrics != nil {
		r.Method(http.MethodGet, "/metrics", metrics)
	}
	r.Get("/tiles", resolveHandler(res))
	r.Get("/tiles/{code}", footprintHandler(res))
	return r
}

func resolveHandler(res *resolver.Resolver) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		pt, err := parsePoint(req)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
			return
		}
		resolution, err := res.Resolve(pt)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, tileResponse{
			ID:         resolution.ID,
			Code:       resolution.Entry.Code,
			Location:   resolution.Entry.Location,
			Point:      pt,
			Projected:  resolution.Projected,
			Candidates: resolution.Candidates,
		})
	}
}

func footprintHandler(res *resolver.Resolver) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		code := chi.URLParam(req, "code")
		id, ok := res.Catalogue().Lookup(code)
		if !ok {
			writeJSON(w, http.StatusNotFound, errorResponse{Error: fmt.Sprintf("unknown tile %q", code)})
			return
		}
		entry, err := res.Catalogue().Entry(id)
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
			return
		}
		raw, snapped, err := res.Footprint(id)
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, footprintResponse{
			ID:       id,
			Code:     entry.Code,
			Location: entry.Location,
			Raw:      geomhelp.WktMustEncode(geom.Polygon{raw}, 0),
			Snapped:  geomhelp.WktMustEncode(geom.Polygon{snapped}, 0),
		})
	}
}

func parsePoint(req *http.Request) (geom.Point, error) {
	q := req.URL.Query()
	xKey, yKey := "x", "y"
	if !q.Has(xKey) && !q.Has(yKey) {
		xKey, yKey = "lon", "lat"
	}
	var pt geom.Point
	for i, key := range []string{xKey, yKey} {
		raw := q.Get(key)
		if raw == "" {
			return pt, fmt.Errorf("missing query parameter %q", key)
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return pt, fmt.Errorf("query parameter %q is not a number: %q", key, raw)
		}
		pt[i] = v
	}
	return pt, nil
}

// writeError maps the resolver's failure kinds onto status codes
func writeError(w http.ResponseWriter, err error) {
	kind := resolver.KindOf(err)
	body := errorResponse{Error: err.Error(), Kind: kind.String()}
	var resolveErr *resolver.ResolveError
	if errors.As(err, &resolveErr) {
		body.Candidates = resolveErr.Candidates
	}
	status := http.StatusInternalServerError
	switch kind {
	case resolver.NoTileFound:
		status = http.StatusNotFound
	case resolver.PointNotInTile:
		status = http.StatusUnprocessableEntity
	case resolver.CoordinateTransform:
		status = http.StatusBadRequest
	}
	writeJSON(w, status, body)
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func requestLogger(logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, req.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, req)
			logger.Debug().
				Str("method", req.Method).
				Str("path", req.URL.Path).
				Int("status", ww.Status()).
				Dur("took", time.Since(start)).
				Msg("request")
		})
	}
}

// Run serves handler on addr until ctx is done
func Run(ctx context.Context, addr string, handler http.Handler, logger zerolog.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", addr).Msg("http listen")
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}
