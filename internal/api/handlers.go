package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/star/isstrack/internal/locate"
	"github.com/star/isstrack/internal/oem"
)

const staleDataMsg = "NASA data stale or unavilable. Please check the data source URL or try again later."

type handlers struct {
	store    *oem.Store
	resolver *locate.Resolver
	logger   *slog.Logger
	nowFunc  func() time.Time
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// currentData fetches the cached dataset, writing the upstream-failure
// response itself. The second return is false when the response has
// already been written.
func (h *handlers) currentData(w http.ResponseWriter, r *http.Request) (*oem.Dataset, bool) {
	ds, err := h.store.Current(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, staleDataMsg)
		return nil, false
	}
	return ds, true
}

// epochs serves GET /epochs with optional offset/limit pagination.
// Parameter shape is validated before the dataset is touched.
func (h *handlers) epochs(w http.ResponseWriter, r *http.Request) {
	limitStr := r.URL.Query().Get("limit")
	offsetStr := r.URL.Query().Get("offset")

	limit := 0
	limitGiven := false
	if limitStr != "" {
		n, err := strconv.Atoi(limitStr)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "Optional limit parameter must be a valid positive integer.")
			return
		}
		limit = n
		limitGiven = true
	}

	offset := 0
	if offsetStr != "" {
		n, err := strconv.Atoi(offsetStr)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "Optional offset parameter must be a valid nonnegative integer.")
			return
		}
		offset = n
	}

	ds, ok := h.currentData(w, r)
	if !ok {
		return
	}

	page, err := ds.Page(offset, limit, limitGiven)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"data": page})
}

// resolveEpoch parses the path selector and resolves it against the
// dataset. A nil vector with handled=false means NotFound: the selector
// was a well-formed timestamp absent from the dataset, and the caller
// decides how to represent that.
func (h *handlers) resolveEpoch(w http.ResponseWriter, r *http.Request, ds *oem.Dataset) (sv *oem.StateVector, notFound bool, handled bool) {
	sel, err := oem.ParseSelector(r.PathValue("epoch"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return nil, false, true
	}

	sv, err = ds.Resolve(sel)
	switch {
	case err == nil:
		return sv, false, false
	case errors.Is(err, oem.ErrNoMatch):
		return nil, true, false
	case errors.Is(err, oem.ErrAmbiguousTimestamp):
		writeError(w, http.StatusInternalServerError, "Multiple state vectors found for the specified timestamp.")
		return nil, false, true
	default:
		var selErr *oem.SelectorError
		if errors.As(err, &selErr) {
			writeError(w, http.StatusBadRequest, selErr.Error())
			return nil, false, true
		}
		h.logger.Error("epoch resolution failed", "component", "api", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return nil, false, true
	}
}

// epoch serves GET /epochs/{epoch}. A well-formed timestamp with no
// match is an empty result, not an error.
func (h *handlers) epoch(w http.ResponseWriter, r *http.Request) {
	ds, ok := h.currentData(w, r)
	if !ok {
		return
	}

	sv, notFound, handled := h.resolveEpoch(w, r, ds)
	if handled {
		return
	}
	if notFound {
		writeJSON(w, http.StatusOK, map[string]any{"epoch": nil})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"epoch": sv})
}

// epochSpeed serves GET /epochs/{epoch}/speed.
func (h *handlers) epochSpeed(w http.ResponseWriter, r *http.Request) {
	ds, ok := h.currentData(w, r)
	if !ok {
		return
	}

	sv, notFound, handled := h.resolveEpoch(w, r, ds)
	if handled {
		return
	}
	if notFound {
		writeError(w, http.StatusBadRequest, "Specified epoch does not exist.")
		return
	}
	writeJSON(w, http.StatusOK, map[string]float64{"speed": sv.Speed()})
}

// epochLocation serves GET /epochs/{epoch}/location.
func (h *handlers) epochLocation(w http.ResponseWriter, r *http.Request) {
	ds, ok := h.currentData(w, r)
	if !ok {
		return
	}

	sv, notFound, handled := h.resolveEpoch(w, r, ds)
	if handled {
		return
	}
	if notFound {
		writeError(w, http.StatusBadRequest, "Specified epoch does not exist.")
		return
	}
	writeJSON(w, http.StatusOK, h.resolver.Resolve(r.Context(), sv))
}

// now serves GET /now: the epoch nearest wall-clock now plus its
// derived speed and location.
func (h *handlers) now(w http.ResponseWriter, r *http.Request) {
	ds, ok := h.currentData(w, r)
	if !ok {
		return
	}

	sv, err := ds.Nearest(h.nowFunc().UTC())
	if err != nil {
		// Unreachable with a loaded dataset; the parser rejects empty ones.
		writeError(w, http.StatusInternalServerError, staleDataMsg)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"epoch":    sv,
		"speed":    sv.Speed(),
		"location": h.resolver.Resolve(r.Context(), sv),
	})
}

// header serves GET /header (sidecar profile only).
func (h *handlers) header(w http.ResponseWriter, r *http.Request) {
	ds, ok := h.currentData(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"header": ds.Header})
}

// metadata serves GET /metadata (sidecar profile only).
func (h *handlers) metadata(w http.ResponseWriter, r *http.Request) {
	ds, ok := h.currentData(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"metadata": ds.Metadata})
}

// comments serves GET /comment (sidecar profile only).
func (h *handlers) comments(w http.ResponseWriter, r *http.Request) {
	ds, ok := h.currentData(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"comments": ds.Comments})
}
