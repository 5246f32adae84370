package server

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"golang.org/x/time/rate"

	"github.com/olehluchkiv/functrait/internal/expand"
)

// maxSourceBytes caps the request body of /api/expand.
const maxSourceBytes = 1 << 20

// Expansions are CPU bound, so the playground admits a steady trickle with
// room for short bursts of typing.
const (
	expandRate  = rate.Limit(10)
	expandBurst = 20
)

type expandRequest struct {
	Source string `json:"source"`
}

type expandResponse struct {
	Output  string          `json:"output"`
	Reports []expand.Report `json:"reports"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type expandHandler struct {
	exp     Expander
	limiter *rate.Limiter
	logger  *slog.Logger
}

func (h *expandHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.logger.Debug("request received", "method", r.Method, "path", r.URL.Path)
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "method not allowed"})
		return
	}
	if h.limiter != nil && !h.limiter.Allow() {
		h.logger.Warn("expand request rate limited", "remote", r.RemoteAddr)
		w.Header().Set("Retry-After", "1")
		writeJSON(w, http.StatusTooManyRequests, errorResponse{Error: "too many requests"})
		return
	}

	var req expandRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxSourceBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request: " + err.Error()})
		return
	}

	res, err := h.exp.Expand(r.Context(), "playground.rs", []byte(req.Source))
	if err != nil {
		h.logger.Error("expansion failed", "error", err)
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: err.Error()})
		return
	}

	reports := res.Reports
	if reports == nil {
		reports = []expand.Report{}
	}
	writeJSON(w, http.StatusOK, expandResponse{Output: string(res.Output), Reports: reports})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
