package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/Sumatoshi-tech/timegraph/pkg/alg/interval"
	"github.com/Sumatoshi-tech/timegraph/pkg/query"
	"github.com/Sumatoshi-tech/timegraph/pkg/snapshot"
)

// errBadParam is returned for a malformed non-time query parameter.
var errBadParam = errors.New("invalid parameter")

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleSnapshot(rw http.ResponseWriter, hr *http.Request) {
	w, err := windowOf(hr)
	if err != nil {
		s.writeError(hr.Context(), rw, err)

		return
	}

	view, err := s.service.Snapshot(hr.Context(), w)
	if err != nil {
		s.writeError(hr.Context(), rw, err)

		return
	}

	writeJSON(hr.Context(), rw, http.StatusOK, view)
}

func (s *Server) handleEvents(rw http.ResponseWriter, hr *http.Request) {
	writeJSON(hr.Context(), rw, http.StatusOK, s.service.Events())
}

func (s *Server) handleNeighbors(rw http.ResponseWriter, hr *http.Request) {
	w, err := windowOf(hr)
	if err != nil {
		s.writeError(hr.Context(), rw, err)

		return
	}

	dir, err := query.ParseDirection(hr.URL.Query().Get("direction"))
	if err != nil {
		s.writeError(hr.Context(), rw, err)

		return
	}

	view, err := s.service.Neighbors(hr.Context(), w, hr.PathValue("node"), dir)
	if err != nil {
		s.writeError(hr.Context(), rw, err)

		return
	}

	writeJSON(hr.Context(), rw, http.StatusOK, view)
}

func (s *Server) handlePath(rw http.ResponseWriter, hr *http.Request) {
	w, err := windowOf(hr)
	if err != nil {
		s.writeError(hr.Context(), rw, err)

		return
	}

	params := hr.URL.Query()

	from, to := params.Get("from"), params.Get("to")
	if from == "" || to == "" {
		s.writeError(hr.Context(), rw, fmt.Errorf("%w: from and to are required", errBadParam))

		return
	}

	view, err := s.service.Path(hr.Context(), w, from, to)
	if err != nil {
		s.writeError(hr.Context(), rw, err)

		return
	}

	writeJSON(hr.Context(), rw, http.StatusOK, view)
}

func (s *Server) handleRank(rw http.ResponseWriter, hr *http.Request) {
	w, err := windowOf(hr)
	if err != nil {
		s.writeError(hr.Context(), rw, err)

		return
	}

	damping, err := floatParam(hr, "damping")
	if err != nil {
		s.writeError(hr.Context(), rw, err)

		return
	}

	view, err := s.service.Rank(hr.Context(), w, damping, 0)
	if err != nil {
		s.writeError(hr.Context(), rw, err)

		return
	}

	writeJSON(hr.Context(), rw, http.StatusOK, view)
}

func windowOf(hr *http.Request) (query.Window, error) {
	params := hr.URL.Query()

	w, err := query.ParseWindow(params.Get("at"), params.Get("start"), params.Get("end"))
	if err != nil {
		return query.Window{}, fmt.Errorf("parse window: %w", err)
	}

	return w, nil
}

func floatParam(hr *http.Request, name string) (float64, error) {
	text := hr.URL.Query().Get(name)
	if text == "" {
		return 0, nil
	}

	v, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s=%q", errBadParam, name, text)
	}

	return v, nil
}

// statusOf maps a query error to an HTTP status.
func statusOf(err error) int {
	switch {
	case errors.Is(err, query.ErrEmptyQuery),
		errors.Is(err, query.ErrAmbiguousQuery),
		errors.Is(err, query.ErrBadTime),
		errors.Is(err, query.ErrInvalidDirection),
		errors.Is(err, interval.ErrInvalidInterval),
		errors.Is(err, errBadParam):
		return http.StatusBadRequest
	case errors.Is(err, query.ErrUnknownNode),
		errors.Is(err, query.ErrNoPath):
		return http.StatusNotFound
	case errors.Is(err, snapshot.ErrNonNumericWeight),
		errors.Is(err, snapshot.ErrNegativeWeight):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(ctx context.Context, rw http.ResponseWriter, err error) {
	code := statusOf(err)
	if code >= http.StatusInternalServerError {
		s.logger.ErrorContext(ctx, "request failed", "error", err)
	}

	writeJSON(ctx, rw, code, errorResponse{Error: err.Error()})
}

// writeJSON encodes the given value as JSON and writes it to the response writer.
func writeJSON(ctx context.Context, rw http.ResponseWriter, code int, value any) {
	rw.Header().Set("Content-Type", "application/json")
	rw.WriteHeader(code)

	err := json.NewEncoder(rw).Encode(value)
	if err != nil {
		slog.Default().ErrorContext(ctx, "failed to encode JSON response", "error", err)
	}
}
