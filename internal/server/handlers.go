package server

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/patrickReiis/rap-battle-nostr/internal/aggregates"
	"github.com/patrickReiis/rap-battle-nostr/internal/battle"
	"github.com/patrickReiis/rap-battle-nostr/internal/ops"
	"github.com/patrickReiis/rap-battle-nostr/internal/publisher"
	"github.com/patrickReiis/rap-battle-nostr/internal/scheduler"
)

// Views is the read side the handlers serve from
type Views interface {
	Rooms() scheduler.Snapshot[[]aggregates.BattleRoom]
	Leaderboard() scheduler.Snapshot[aggregates.Leaderboard]
	RoomState(roomID string) (scheduler.Snapshot[aggregates.RoomState], bool)
	RoomVerses(roomID string) (scheduler.Snapshot[[]aggregates.Verse], bool)
	WatchRoom(roomID string)
}

// Handler serves the derived views and forwards writes to the publisher.
// A nil publisher puts the API in read-only mode.
type Handler struct {
	views Views
	pub   *publisher.Publisher
	log   *ops.Logger
}

// NewHandler creates the API handler. pub may be nil for read-only mode.
func NewHandler(views Views, pub *publisher.Publisher, log *ops.Logger) *Handler {
	return &Handler{
		views: views,
		pub:   pub,
		log:   log.WithComponent("server"),
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// writeSnapshot serves a view's latest snapshot. A view that has never
// succeeded is 503 with the last error; a stale-but-present view is served
// with its fetch timestamp so clients can show staleness.
func writeSnapshot[T any](w http.ResponseWriter, snap scheduler.Snapshot[T]) {
	if !snap.Ready {
		msg := "view not ready yet"
		if snap.Err != nil {
			msg = snap.Err.Error()
		}
		writeError(w, http.StatusServiceUnavailable, msg)
		return
	}

	writeJSON(w, http.StatusOK, struct {
		Data      T      `json:"data"`
		FetchedAt int64  `json:"fetchedAt"`
		LastError string `json:"lastError,omitempty"`
	}{
		Data:      snap.Value,
		FetchedAt: snap.FetchedAt.Unix(),
		LastError: errString(snap.Err),
	})
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

func (h *Handler) getRooms(w http.ResponseWriter, r *http.Request) {
	writeSnapshot(w, h.views.Rooms())
}

func (h *Handler) getLeaderboard(w http.ResponseWriter, r *http.Request) {
	writeSnapshot(w, h.views.Leaderboard())
}

func (h *Handler) getRoomState(w http.ResponseWriter, r *http.Request) {
	roomID := chi.URLParam(r, "roomID")
	h.views.WatchRoom(roomID)

	snap, ok := h.views.RoomState(roomID)
	if !ok {
		writeError(w, http.StatusServiceUnavailable, "room watch starting")
		return
	}
	writeSnapshot(w, snap)
}

func (h *Handler) getRoomVerses(w http.ResponseWriter, r *http.Request) {
	roomID := chi.URLParam(r, "roomID")
	h.views.WatchRoom(roomID)

	snap, ok := h.views.RoomVerses(roomID)
	if !ok {
		writeError(w, http.StatusServiceUnavailable, "room watch starting")
		return
	}
	writeSnapshot(w, snap)
}

func (h *Handler) requireWriter(w http.ResponseWriter) bool {
	if h.pub == nil {
		writeError(w, http.StatusServiceUnavailable, "no publishing identity configured")
		return false
	}
	return true
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

type createRoomRequest struct {
	Title           string `json:"title"`
	MaxParticipants int    `json:"maxParticipants"`
	Rounds          int    `json:"rounds"`
}

func (h *Handler) postRoom(w http.ResponseWriter, r *http.Request) {
	if !h.requireWriter(w) {
		return
	}
	var req createRoomRequest
	if !decodeBody(w, r, &req) {
		return
	}

	roomID, err := h.pub.CreateRoom(r.Context(), req.Title, req.MaxParticipants, req.Rounds)
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"roomId": roomID})
}

type joinRequest struct {
	RoomName string `json:"roomName"`
}

func (h *Handler) postJoin(w http.ResponseWriter, r *http.Request) {
	if !h.requireWriter(w) {
		return
	}
	var req joinRequest
	if !decodeBody(w, r, &req) {
		return
	}

	eventID, err := h.pub.JoinRoom(r.Context(), chi.URLParam(r, "roomID"), req.RoomName)
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"eventId": eventID})
}

type verseRequest struct {
	Lyrics    string `json:"lyrics"`
	Round     int    `json:"round"`
	BeatName  string `json:"beatName"`
	BeatStyle string `json:"beatStyle"`
	BeatBPM   int    `json:"beatBpm"`
}

func (h *Handler) postVerse(w http.ResponseWriter, r *http.Request) {
	if !h.requireWriter(w) {
		return
	}
	var req verseRequest
	if !decodeBody(w, r, &req) {
		return
	}

	beat := battle.Beat{Name: req.BeatName, Style: req.BeatStyle, BPM: req.BeatBPM}
	eventID, err := h.pub.SubmitVerse(r.Context(), chi.URLParam(r, "roomID"), req.Lyrics, req.Round, beat)
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"eventId": eventID})
}

type voteRequest struct {
	EventID string `json:"eventId"`
	RoomID  string `json:"roomId"`
}

func (h *Handler) postVote(w http.ResponseWriter, r *http.Request) {
	if !h.requireWriter(w) {
		return
	}
	var req voteRequest
	if !decodeBody(w, r, &req) {
		return
	}

	eventID, err := h.pub.Vote(r.Context(), req.EventID, req.RoomID)
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"eventId": eventID})
}

type practiceRequest struct {
	Lyrics    string `json:"lyrics"`
	BeatName  string `json:"beatName"`
	BeatStyle string `json:"beatStyle"`
	BeatBPM   int    `json:"beatBpm"`
}

func (h *Handler) postPractice(w http.ResponseWriter, r *http.Request) {
	if !h.requireWriter(w) {
		return
	}
	var req practiceRequest
	if !decodeBody(w, r, &req) {
		return
	}

	beat := battle.Beat{Name: req.BeatName, Style: req.BeatStyle, BPM: req.BeatBPM}
	eventID, err := h.pub.PublishPractice(r.Context(), req.Lyrics, beat)
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"eventId": eventID})
}

func (h *Handler) healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
