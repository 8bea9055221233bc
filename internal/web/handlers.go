// Package web serves the public share viewer: the only surface an
// anonymous recipient ever touches. Every share failure, whatever its
// cause, is answered with the same 404 so the endpoint leaks nothing about
// which tokens exist, are expired, or are exhausted.
package web

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/digivault/digivault/internal/logging"
	"github.com/digivault/digivault/internal/share"
)

// ShareResolver is the part of the share service the viewer needs.
type ShareResolver interface {
	Resolve(ctx context.Context, id, key string) (*share.Item, error)
}

type Handler struct {
	shares ShareResolver
	logger logging.Logger
}

// NewRouter builds the viewer routing table.
func NewRouter(shares ShareResolver, logger logging.Logger) *mux.Router {
	h := &Handler{shares: shares, logger: logger}

	r := mux.NewRouter()
	r.HandleFunc("/share/{id}", h.handleShare).Methods(http.MethodGet)
	r.HandleFunc("/healthz", h.handleHealthz).Methods(http.MethodGet)
	return r
}

func (h *Handler) handleShare(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := mux.Vars(r)["id"]
	key := r.URL.Query().Get("key")

	item, err := h.shares.Resolve(ctx, id, key)
	if err != nil {
		// one uniform denial for every failure mode
		h.logger.Info(ctx, "share resolution denied", "token", id, "error", err)
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
		return
	}

	writeJSON(w, http.StatusOK, item)
}

func (h *Handler) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
