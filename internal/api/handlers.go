package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/LeventeLantos/reminder-scheduler/internal/model"
)

// ReminderScheduler is the slice of the engine the API needs.
type ReminderScheduler interface {
	Schedule(ctx context.Context, recipientID int64, text string, fireAt time.Time) (model.Reminder, error)
	Cancel(ctx context.Context, id int64) (bool, error)
	List(ctx context.Context) ([]model.Reminder, error)
	ArmedJobs() int
}

type Handler struct {
	sched       ReminderScheduler
	ownerChatID int64
	loc         *time.Location
}

func NewHandler(s ReminderScheduler, ownerChatID int64, loc *time.Location) *Handler {
	return &Handler{sched: s, ownerChatID: ownerChatID, loc: loc}
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":         true,
		"armed_jobs": h.sched.ArmedJobs(),
	})
}

type createRequest struct {
	RecipientID int64  `json:"recipient_id,omitempty"`
	Text        string `json:"text"`
	FireAt      string `json:"fire_at,omitempty"`
	FireAtLocal string `json:"fire_at_local,omitempty"`
}

func (h *Handler) CreateReminder(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json: "+err.Error())
		return
	}

	if strings.TrimSpace(req.Text) == "" {
		writeError(w, http.StatusBadRequest, "text must not be empty")
		return
	}

	fireAt, err := h.resolveFireAt(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	recipient := req.RecipientID
	if recipient == 0 {
		recipient = h.ownerChatID
	}

	m, err := h.sched.Schedule(r.Context(), recipient, req.Text, fireAt)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, m)
}

func (h *Handler) DeleteReminder(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid reminder id")
		return
	}

	cancelled, err := h.sched.Cancel(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if !cancelled {
		writeError(w, http.StatusNotFound, "reminder not found")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"cancelled": true})
}

func (h *Handler) ListReminders(w http.ResponseWriter, r *http.Request) {
	items, err := h.sched.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if items == nil {
		items = []model.Reminder{}
	}

	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

// resolveFireAt normalizes the requested fire time to an absolute UTC
// instant. fire_at is RFC 3339; fire_at_local is a civil time resolved once
// against the configured deployment zone. A past instant is accepted:
// the reminder fires as soon as possible.
func (h *Handler) resolveFireAt(req createRequest) (time.Time, error) {
	if req.FireAt != "" {
		t, err := time.Parse(time.RFC3339, req.FireAt)
		if err != nil {
			return time.Time{}, errBadFireAt
		}
		return t.UTC(), nil
	}

	if req.FireAtLocal != "" {
		for _, layout := range []string{"2006-01-02 15:04:05", "2006-01-02 15:04"} {
			if t, err := time.ParseInLocation(layout, req.FireAtLocal, h.loc); err == nil {
				return t.UTC(), nil
			}
		}
		return time.Time{}, errBadFireAtLocal
	}

	return time.Time{}, errMissingFireAt
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{"error": msg})
}
