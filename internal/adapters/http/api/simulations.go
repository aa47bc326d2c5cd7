package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/okian/bracketpool/internal/domain/aggregate"
)

// SimulationsHandler serves /simulations.
type SimulationsHandler struct {
	deps Dependencies
}

// NewSimulationsHandler creates a new simulations handler.
func NewSimulationsHandler(deps Dependencies) *SimulationsHandler {
	return &SimulationsHandler{deps: deps}
}

// IdempotencyHeader lets clients retry POST /simulations safely.
const IdempotencyHeader = "Idempotency-Key"

// HandleCreate handles POST /simulations. The body is an aggregate.Request;
// the response is the stored run, 201 when it was just simulated and 200 when
// an earlier request with the same Idempotency-Key produced it.
func (h *SimulationsHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req aggregate.Request
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%w: %w", ErrBadRequest, err))
		return
	}
	run, replayed, err := h.deps.SimulateOnce(r.Context(), r.Header.Get(IdempotencyHeader), req)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	w.Header().Set("Location", "/simulations/"+run.ID)
	status := http.StatusCreated
	if replayed {
		status = http.StatusOK
	}
	writeJSON(w, status, run)
}

// HandleList handles GET /simulations?limit=N.
func (h *SimulationsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	limit, err := parseLimit(r)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	runs, err := h.deps.ListRuns(r.Context(), limit)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, runs)
}

// HandleGet handles GET /simulations/{id}.
func (h *SimulationsHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	run, err := h.deps.GetRun(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, run)
}

// HandleStandings handles GET /simulations/{id}/standings?limit=N.
func (h *SimulationsHandler) HandleStandings(w http.ResponseWriter, r *http.Request) {
	limit, err := parseLimit(r)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	entries, err := h.deps.Standings(r.Context(), chi.URLParam(r, "id"), limit)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func parseLimit(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return defaultListLimit, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 || n > maxListLimit {
		return 0, fmt.Errorf("%w: limit must be 1..%d", ErrBadRequest, maxListLimit)
	}
	return n, nil
}
