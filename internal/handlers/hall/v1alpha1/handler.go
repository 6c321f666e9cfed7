// Package v1alpha1 serves the hall challenge HTTP API: session streams over
// SSE and websocket, stop and status controls, settings and run history.
package v1alpha1

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/KirkDiggler/hall-runner/internal/errors"
	"github.com/KirkDiggler/hall-runner/internal/orchestrators/challenge"
	"github.com/KirkDiggler/hall-runner/internal/services/progress"
)

const (
	// UserHeader carries the authenticated user set by the auth proxy
	UserHeader = "X-Hall-User"

	defaultHeartbeat = 15 * time.Second
	maxBodyBytes     = 1 << 20
)

// HandlerConfig holds dependencies for the hall handler
type HandlerConfig struct {
	Service     challenge.Service
	Broadcaster *progress.Broadcaster
	// Heartbeat is the SSE keep-alive interval, 15s when zero
	Heartbeat time.Duration
}

// Validate ensures all required dependencies are present
func (c *HandlerConfig) Validate() error {
	vb := errors.NewValidationBuilder()
	if c.Service == nil {
		vb.RequiredField("Service")
	}
	if c.Broadcaster == nil {
		vb.RequiredField("Broadcaster")
	}
	return vb.Build()
}

// Handler implements the hall HTTP API
type Handler struct {
	service     challenge.Service
	broadcaster *progress.Broadcaster
	heartbeat   time.Duration
}

// NewHandler creates a new hall handler with the given configuration
func NewHandler(cfg *HandlerConfig) (*Handler, error) {
	if cfg == nil {
		return nil, errors.InvalidArgument("config is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	h := &Handler{
		service:     cfg.Service,
		broadcaster: cfg.Broadcaster,
		heartbeat:   cfg.Heartbeat,
	}
	if h.heartbeat <= 0 {
		h.heartbeat = defaultHeartbeat
	}
	return h, nil
}

// Routes registers every endpoint on a new mux
func (h *Handler) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1alpha1/halls/sessions", h.StartSession)
	mux.HandleFunc("POST /v1alpha1/halls/sessions/stop", h.StopSession)
	mux.HandleFunc("GET /v1alpha1/halls/sessions/status", h.SessionStatus)
	mux.HandleFunc("GET /v1alpha1/halls/sessions/resume", h.ResumeSession)
	mux.HandleFunc("GET /v1alpha1/halls/sessions/ws", h.SessionWebSocket)
	mux.HandleFunc("GET /v1alpha1/accounts/{account}/hall-settings", h.GetSettings)
	mux.HandleFunc("PUT /v1alpha1/accounts/{account}/hall-settings", h.SaveSettings)
	mux.HandleFunc("POST /v1alpha1/strategies/validate", h.ValidateStrategy)
	mux.HandleFunc("GET /v1alpha1/halls/history", h.ListHistory)
	return mux
}

// StopSession signals every run of the caller to stop
func (h *Handler) StopSession(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}

	out, err := h.service.StopSession(r.Context(), &challenge.StopSessionInput{User: user})
	if err != nil {
		errors.WriteHTTP(w, err)
		return
	}
	writeJSON(w, http.StatusOK, StopResponse{Success: true, Stopped: out.Stopped, SessionID: out.SessionID})
}

// SessionStatus reports the caller's active runs
func (h *Handler) SessionStatus(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}

	out, err := h.service.Status(r.Context(), &challenge.StatusInput{User: user})
	if err != nil {
		errors.WriteHTTP(w, err)
		return
	}

	resp := StatusResponse{
		ActiveCount: len(out.Runs),
		Runs:        make([]RunStatus, 0, len(out.Runs)),
		Accounts:    []string{},
	}
	for _, run := range out.Runs {
		resp.Runs = append(resp.Runs, RunStatus{
			Account:        run.AccountID,
			SessionID:      run.SessionID,
			Hall:           string(run.State.Hall),
			Floor:          run.State.CurrentFloor,
			Status:         string(run.State.Status),
			ElapsedSeconds: int64(run.Elapsed / time.Second),
		})
	}
	if out.Session != nil {
		resp.SessionID = out.Session.ID
		resp.Accounts = out.Session.AccountIDs()
		resp.Done = out.Session.IsDone()
	}
	writeJSON(w, http.StatusOK, resp)
}

// ListHistory returns the caller's recent run outcomes
func (h *Handler) ListHistory(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			errors.WriteHTTP(w, errors.InvalidArgumentf("invalid limit %q", raw))
			return
		}
		limit = n
	}

	out, err := h.service.ListHistory(r.Context(), &challenge.ListHistoryInput{
		User:      user,
		AccountID: r.URL.Query().Get("account"),
		Limit:     limit,
	})
	if err != nil {
		errors.WriteHTTP(w, err)
		return
	}
	writeJSON(w, http.StatusOK, HistoryResponse{Entries: out.Entries})
}

func requireUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	user := r.Header.Get(UserHeader)
	if user == "" {
		errors.WriteHTTP(w, errors.Unauthenticated("missing "+UserHeader+" header"))
		return "", false
	}
	return user, true
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		return errors.WrapWithCode(err, errors.CodeInvalidArgument, "invalid request body")
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("Failed to write response", "error", err)
	}
}
