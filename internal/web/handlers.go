package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/cjeanneret/SnapGo/internal/logic/capture"
	"github.com/cjeanneret/SnapGo/internal/prefs"
)

// Handlers holds dependencies for HTTP handlers.
type Handlers struct {
	Broadcaster *StatusBroadcaster
	Session     *capture.Session
	Store       *prefs.Store
}

// NewHandlers creates handlers with the given dependencies.
// Session may be nil; capture endpoints then return 503 Service Unavailable.
func NewHandlers(broadcaster *StatusBroadcaster, session *capture.Session, store *prefs.Store) *Handlers {
	return &Handlers{
		Broadcaster: broadcaster,
		Session:     session,
		Store:       store,
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// statusResponse is the GET /api/status payload.
type statusResponse struct {
	State       string  `json:"state"`
	Width       int     `json:"width"`
	Height      int     `json:"height"`
	AspectRatio float64 `json:"aspect_ratio"`
}

// HandleStatus returns the capture session state as JSON.
func (h *Handlers) HandleStatus(w http.ResponseWriter, r *http.Request) {
	if h.Session == nil {
		http.Error(w, "capture not configured", http.StatusServiceUnavailable)
		return
	}
	res := h.Session.Resolution()
	writeJSON(w, http.StatusOK, statusResponse{
		State:       h.Session.State().String(),
		Width:       res.Width,
		Height:      res.Height,
		AspectRatio: h.Session.AspectRatio(),
	})
}

// captureResponse is the POST /api/capture payload.
type captureResponse struct {
	SurfaceID string     `json:"surface_id"`
	Name      string     `json:"name"`
	Width     int        `json:"width"`
	Height    int        `json:"height"`
	Position  [3]float64 `json:"position"`
	Rotation  [4]float64 `json:"rotation"` // w, x, y, z
}

// HandleCapture handles POST /api/capture: takes exactly one picture.
func (h *Handlers) HandleCapture(w http.ResponseWriter, r *http.Request) {
	if h.Session == nil {
		http.Error(w, "capture not configured", http.StatusServiceUnavailable)
		return
	}

	surface, err := h.Session.TakePicture(r.Context())
	switch {
	case errors.Is(err, capture.ErrCaptureInFlight):
		http.Error(w, "capture already in progress", http.StatusConflict)
		return
	case errors.Is(err, capture.ErrNotInitialized):
		http.Error(w, "capture session not initialized", http.StatusServiceUnavailable)
		return
	case errors.Is(err, capture.ErrInvalidState):
		http.Error(w, "capture session stopped", http.StatusConflict)
		return
	case err != nil:
		h.Broadcaster.Broadcast("error", "Capture failed: "+err.Error())
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	h.Broadcaster.BroadcastMsg(fmt.Sprintf("Photo captured: %s", surface.ID))

	res := h.Session.Resolution()
	p := surface.Transform.Position
	q := surface.Transform.Rotation
	writeJSON(w, http.StatusCreated, captureResponse{
		SurfaceID: surface.ID,
		Name:      surface.Name,
		Width:     res.Width,
		Height:    res.Height,
		Position:  [3]float64{p.X, p.Y, p.Z},
		Rotation:  [4]float64{q.W, q.X, q.Y, q.Z},
	})
}

// HandleStop handles POST /api/stop: tears the session down.
func (h *Handlers) HandleStop(w http.ResponseWriter, r *http.Request) {
	if h.Session == nil {
		http.Error(w, "capture not configured", http.StatusServiceUnavailable)
		return
	}

	err := h.Session.Stop(r.Context())
	switch {
	case errors.Is(err, capture.ErrCaptureInFlight):
		http.Error(w, "capture in progress", http.StatusConflict)
		return
	case errors.Is(err, capture.ErrInvalidState):
		http.Error(w, "session not running", http.StatusConflict)
		return
	case err != nil:
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	h.Broadcaster.BroadcastMsg("Capture session stopped")
	writeJSON(w, http.StatusOK, map[string]string{"status": "stopped"})
}

// prefResponse is the payload for preference endpoints.
type prefResponse struct {
	Kind  string      `json:"kind"`
	Key   string      `json:"key"`
	Value interface{} `json:"value"`
}

func prefKind(r *http.Request) (prefs.Kind, string, bool) {
	vars := mux.Vars(r)
	kind, ok := prefs.ParseKind(vars["kind"])
	return kind, vars["key"], ok
}

// parseValue interprets raw JSON as the given preference kind.
func parseValue(kind prefs.Kind, raw json.RawMessage) (prefs.Value, error) {
	switch kind {
	case prefs.KindBool:
		var v bool
		if err := json.Unmarshal(raw, &v); err != nil {
			return prefs.Value{}, err
		}
		return prefs.Value{Kind: kind, Bool: v}, nil
	case prefs.KindInt:
		var v int
		if err := json.Unmarshal(raw, &v); err != nil {
			return prefs.Value{}, err
		}
		return prefs.Value{Kind: kind, Int: v}, nil
	case prefs.KindFloat:
		var v float64
		if err := json.Unmarshal(raw, &v); err != nil {
			return prefs.Value{}, err
		}
		return prefs.Value{Kind: kind, Float: v}, nil
	default:
		var v string
		if err := json.Unmarshal(raw, &v); err != nil {
			return prefs.Value{}, err
		}
		return prefs.Value{Kind: kind, String: v}, nil
	}
}

// HandleGetPref handles GET /api/prefs/{kind}/{key}. The optional
// "default" query parameter (JSON-encoded) is inserted and persisted on
// a miss, mirroring the store's read semantics.
func (h *Handlers) HandleGetPref(w http.ResponseWriter, r *http.Request) {
	kind, key, ok := prefKind(r)
	if !ok {
		http.Error(w, "unknown preference kind", http.StatusNotFound)
		return
	}
	if h.Store == nil {
		http.Error(w, "preference store unavailable", http.StatusServiceUnavailable)
		return
	}

	def := prefs.Value{Kind: kind}
	if raw := r.URL.Query().Get("default"); raw != "" {
		parsed, err := parseValue(kind, json.RawMessage(raw))
		if err != nil {
			http.Error(w, "invalid default for kind "+kind.String(), http.StatusBadRequest)
			return
		}
		def = parsed
	}

	v := h.Store.GetValue(kind, key, def)
	writeJSON(w, http.StatusOK, prefResponse{Kind: kind.String(), Key: key, Value: v.Interface()})
}

// HandleSetPref handles PUT /api/prefs/{kind}/{key}.
// Body: {"value": <json>}. The "save" query parameter (default true)
// maps to the store's forceSave flag.
func (h *Handlers) HandleSetPref(w http.ResponseWriter, r *http.Request) {
	kind, key, ok := prefKind(r)
	if !ok {
		http.Error(w, "unknown preference kind", http.StatusNotFound)
		return
	}
	if h.Store == nil {
		http.Error(w, "preference store unavailable", http.StatusServiceUnavailable)
		return
	}

	var body struct {
		Value json.RawMessage `json:"value"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || len(body.Value) == 0 {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	v, err := parseValue(kind, body.Value)
	if err != nil {
		http.Error(w, "invalid value for kind "+kind.String(), http.StatusBadRequest)
		return
	}

	forceSave := r.URL.Query().Get("save") != "false"
	if err := h.Store.SetValue(key, v, forceSave); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, prefResponse{Kind: kind.String(), Key: key, Value: v.Interface()})
}

// HandleRemovePref handles DELETE /api/prefs/{kind}/{key}. Removal
// touches only the addressed kind and is not persisted by itself.
func (h *Handlers) HandleRemovePref(w http.ResponseWriter, r *http.Request) {
	kind, key, ok := prefKind(r)
	if !ok {
		http.Error(w, "unknown preference kind", http.StatusNotFound)
		return
	}
	if h.Store == nil {
		http.Error(w, "preference store unavailable", http.StatusServiceUnavailable)
		return
	}

	removed := h.Store.Remove(kind, key)
	writeJSON(w, http.StatusOK, map[string]bool{"removed": removed})
}

// HandleStatusStream handles GET /status/stream for SSE.
func (h *Handlers) HandleStatusStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // nginx

	ch, unsub := h.Broadcaster.Subscribe()
	defer unsub()

	// Send initial comment to establish connection
	w.Write([]byte(": connected\n\n"))
	flusher.Flush()

	// Heartbeat while idle
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case msg, ok := <-ch:
			if !ok {
				return
			}
			w.Write([]byte("data: " + msg + "\n\n"))
			flusher.Flush()

		case <-ticker.C:
			w.Write([]byte(": heartbeat\n\n"))
			flusher.Flush()

		case <-r.Context().Done():
			return
		}
	}
}
