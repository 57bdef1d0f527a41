package api

import "net/http"

func Router(h *Handler) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /v1/health", h.Health)

	mux.HandleFunc("POST /v1/reminders", h.CreateReminder)
	mux.HandleFunc("GET /v1/reminders", h.ListReminders)
	mux.HandleFunc("DELETE /v1/reminders/{id}", h.DeleteReminder)

	mux.HandleFunc("GET /", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("reminder-scheduler"))
	})

	return mux
}
