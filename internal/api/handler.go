// Package api serves the session status API: current state, the stimulus
// catalog, manual signal injection, and a websocket stream of switches.
package api

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/danielpatrickdp/stimloop/internal/signal"
	"github.com/danielpatrickdp/stimloop/internal/stimulus"
)

const maxSignalBody = 4 << 10

// Handler holds HTTP handlers and dependencies.
type Handler struct {
	deps Deps
}

// NewHandler creates a handler over deps.
func NewHandler(deps Deps) *Handler {
	return &Handler{deps: deps}
}

// #region routes
// Routes builds the router with request id, recovery and access logging.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(accessLog)

	r.Get("/healthz", h.Health)
	r.Get("/status", h.Status)
	r.Get("/stimuli", h.ListStimuli)
	r.Get("/stimuli/{id}", h.GetStimulus)
	r.Post("/signal", h.PostSignal)
	if h.deps.Hub != nil {
		r.Get("/events", h.deps.Hub.ServeHTTP)
	}
	return r
}

func accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		log.Printf("http %s %s status=%d dur=%s req=%s",
			r.Method, r.URL.Path, ww.Status(), time.Since(start).Round(time.Microsecond),
			middleware.GetReqID(r.Context()))
	})
}

// #endregion routes

// #region handlers
// Health handles GET /healthz.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Status handles GET /status.
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	resp := StatusResponse{SessionID: h.deps.SessionID}
	if h.deps.Scheduler != nil {
		snap := h.deps.Scheduler.Snapshot()
		resp.Scheduler = &snap
	}
	if h.deps.Signals != nil {
		st := h.deps.Signals.Status()
		ts := &TransportStatus{Connected: st.Connected}
		if st.Err != nil {
			ts.Error = st.Err.Error()
		}
		stats := h.deps.Signals.Stats()
		resp.Transport = ts
		resp.Signals = &stats
	}
	if h.deps.Log != nil {
		stats := h.deps.Log.Stats()
		resp.Log = &stats
	}
	if h.deps.Hub != nil {
		resp.Clients = h.deps.Hub.Clients()
	}
	h.respondJSON(w, http.StatusOK, resp)
}

// ListStimuli handles GET /stimuli, in registration order.
func (h *Handler) ListStimuli(w http.ResponseWriter, r *http.Request) {
	if h.deps.Catalog == nil {
		h.respondJSON(w, http.StatusOK, []stimulus.Spec{})
		return
	}
	ids := h.deps.Catalog.IDs()
	out := make([]stimulus.Spec, 0, len(ids))
	for _, id := range ids {
		spec, err := h.deps.Catalog.Get(id)
		if err != nil {
			h.respondError(w, http.StatusInternalServerError, "catalog changed", err.Error())
			return
		}
		out = append(out, spec)
	}
	h.respondJSON(w, http.StatusOK, out)
}

// GetStimulus handles GET /stimuli/{id}.
func (h *Handler) GetStimulus(w http.ResponseWriter, r *http.Request) {
	id := stimulus.ID(chi.URLParam(r, "id"))
	if h.deps.Catalog == nil {
		h.respondError(w, http.StatusNotFound, "stimulus not found", string(id))
		return
	}
	spec, err := h.deps.Catalog.Get(id)
	if err != nil {
		var unknown *stimulus.UnknownStimulusError
		if errors.As(err, &unknown) {
			h.respondError(w, http.StatusNotFound, "stimulus not found", err.Error())
			return
		}
		h.respondError(w, http.StatusInternalServerError, "failed to get stimulus", err.Error())
		return
	}
	h.respondJSON(w, http.StatusOK, spec)
}

// PostSignal handles POST /signal. The body is a raw signal payload, the
// same bytes a transport would deliver.
func (h *Handler) PostSignal(w http.ResponseWriter, r *http.Request) {
	if h.deps.Signals == nil {
		h.respondError(w, http.StatusServiceUnavailable, "no receiver", "signal injection is not wired")
		return
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, maxSignalBody+1))
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	if len(body) > maxSignalBody {
		h.respondError(w, http.StatusRequestEntityTooLarge, "payload too large", "signal payloads are limited to 4 KiB")
		return
	}
	if err := h.deps.Signals.Inject(body); err != nil {
		var de *signal.DecodeError
		if errors.As(err, &de) {
			h.respondError(w, http.StatusBadRequest, "malformed signal", err.Error())
			return
		}
		h.respondError(w, http.StatusInternalServerError, "failed to inject signal", err.Error())
		return
	}
	h.respondJSON(w, http.StatusAccepted, SignalResponse{Accepted: true, Payload: string(body)})
}

// #endregion handlers

// #region respond
func (h *Handler) respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("api: encode response: %v", err)
	}
}

func (h *Handler) respondError(w http.ResponseWriter, status int, errorMsg, message string) {
	h.respondJSON(w, status, ErrorResponse{Error: errorMsg, Message: message})
}

// #endregion respond
