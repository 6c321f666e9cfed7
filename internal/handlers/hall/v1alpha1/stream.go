package v1alpha1

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/coder/websocket"

	"github.com/KirkDiggler/hall-runner/internal/entities/hall"
	"github.com/KirkDiggler/hall-runner/internal/errors"
	"github.com/KirkDiggler/hall-runner/internal/orchestrators/challenge"
	"github.com/KirkDiggler/hall-runner/internal/services/progress"
)

// Stream frames the web UI keys on
const (
	FrameConnected = "连接已建立..."
	FrameHeartbeat = "[心跳] 连接保持活跃..."
	FrameComplete  = "流式传输完成"

	wsWriteTimeout = 15 * time.Second
)

// StartSession launches the caller's accounts and streams progress as SSE
func (h *Handler) StartSession(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req StartSessionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		errors.WriteHTTP(w, err)
		return
	}

	var name hall.Name
	if req.HallName != "" {
		parsed, err := hall.ParseName(req.HallName)
		if err != nil {
			errors.WriteHTTP(w, err)
			return
		}
		name = parsed
	}

	// subscribe first so no event of the new session is missed; events of a
	// session being replaced are filtered out by session ID
	sub := h.broadcaster.Subscribe(user, progress.SubscribeOptions{})
	defer sub.Close()

	out, err := h.service.StartSession(r.Context(), &challenge.StartSessionInput{
		User:             user,
		AccountIDs:       req.AccountNames,
		Hall:             name,
		CheckWeeklyQuota: req.CheckWeeklyQuota,
	})
	if err != nil {
		errors.WriteHTTP(w, err)
		return
	}

	h.streamSSE(w, r, out.Session, sub)
}

// ResumeSession replays the caller's latest session and follows it live.
// Last-Event-ID skips events the client already has.
func (h *Handler) ResumeSession(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}

	out, err := h.service.GetSession(r.Context(), &challenge.GetSessionInput{User: user})
	if err != nil {
		errors.WriteHTTP(w, err)
		return
	}

	afterSeq, err := lastEventID(r)
	if err != nil {
		errors.WriteHTTP(w, err)
		return
	}

	sub := h.broadcaster.Subscribe(user, progress.SubscribeOptions{ReplayBacklog: true, AfterSeq: afterSeq})
	defer sub.Close()

	h.streamSSE(w, r, out.Session, sub)
}

func lastEventID(r *http.Request) (uint64, error) {
	raw := r.Header.Get("Last-Event-ID")
	if raw == "" {
		raw = r.URL.Query().Get("last_event_id")
	}
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.ParseUint(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return 0, errors.InvalidArgumentf("invalid Last-Event-ID %q", raw)
	}
	return n, nil
}

// streamSSE writes events until the session completes or the client leaves.
// The session keeps running when the client disconnects.
func (h *Handler) streamSSE(w http.ResponseWriter, r *http.Request, sess *challenge.Session, sub *progress.Subscription) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		errors.WriteHTTP(w, errors.Internal("streaming not supported"))
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	writeFrame(w, 0, FrameConnected)
	flusher.Flush()

	heartbeat := time.NewTicker(h.heartbeat)
	defer heartbeat.Stop()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			slog.Info("Session stream client disconnected", "session_id", sess.ID, "user", sess.User)
			return
		case <-heartbeat.C:
			writeFrame(w, 0, FrameHeartbeat)
			flusher.Flush()
		case ev, ok := <-sub.Events():
			if !ok {
				return
			}
			if ev.SessionID != sess.ID {
				continue
			}
			writeFrame(w, ev.Seq, ev.Line())
			flusher.Flush()
		case <-sess.Done():
			for _, ev := range drain(sub, sess.ID) {
				writeFrame(w, ev.Seq, ev.Line())
			}
			writeFrame(w, 0, FrameComplete)
			flusher.Flush()
			return
		}
	}
}

// drain returns the session's events already buffered on sub without waiting
func drain(sub *progress.Subscription, sessionID string) []hall.ProgressEvent {
	var out []hall.ProgressEvent
	for {
		select {
		case ev, ok := <-sub.Events():
			if !ok {
				return out
			}
			if ev.SessionID == sessionID {
				out = append(out, ev)
			}
		default:
			return out
		}
	}
}

func writeFrame(w http.ResponseWriter, id uint64, data string) {
	if id > 0 {
		fmt.Fprintf(w, "id: %d\n", id)
	}
	for _, line := range strings.Split(data, "\n") {
		fmt.Fprintf(w, "data: %s\n", line)
	}
	fmt.Fprint(w, "\n")
}

// SessionWebSocket streams the caller's session events as JSON messages
func (h *Handler) SessionWebSocket(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}

	out, err := h.service.GetSession(r.Context(), &challenge.GetSessionInput{User: user})
	if err != nil {
		errors.WriteHTTP(w, err)
		return
	}
	afterSeq, err := lastEventID(r)
	if err != nil {
		errors.WriteHTTP(w, err)
		return
	}

	ws, err := websocket.Accept(w, r, nil)
	if err != nil {
		slog.Warn("Websocket upgrade failed", "user", user, "error", err)
		return
	}
	defer ws.CloseNow()

	sub := h.broadcaster.Subscribe(user, progress.SubscribeOptions{ReplayBacklog: true, AfterSeq: afterSeq})
	defer sub.Close()

	// reads are only needed to notice the client closing
	ctx := ws.CloseRead(r.Context())
	sess := out.Session

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-sub.Events():
			if !ok {
				return
			}
			if ev.SessionID != sess.ID {
				continue
			}
			if err := writeWS(ctx, ws, ev); err != nil {
				return
			}
		case <-sess.Done():
			for _, ev := range drain(sub, sess.ID) {
				if err := writeWS(ctx, ws, ev); err != nil {
					return
				}
			}
			ws.Close(websocket.StatusNormalClosure, "session complete")
			return
		}
	}
}

func writeWS(ctx context.Context, ws *websocket.Conn, ev hall.ProgressEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	writeCtx, cancel := context.WithTimeout(ctx, wsWriteTimeout)
	defer cancel()
	return ws.Write(writeCtx, websocket.MessageText, data)
}
