package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/mindsell/tutor-portal-api/calendar"
	"github.com/mindsell/tutor-portal-api/models"
)

// Calendar exposes the calendar bridge over HTTP. The caller is trusted; no
// authentication is performed on this route.
type Calendar struct {
	Service *calendar.Service
}

// UpcomingEventsHandler returns the upcoming calendar events where the given
// email is an attendee.
// GET /api/v1/calendar?email=<string>
func (c Calendar) UpcomingEventsHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	email := r.URL.Query().Get("email")

	events, err := c.Service.UpcomingEvents(r.Context(), email)
	if err != nil {
		writeCalendarError(w, err)
		return
	}

	b, err := json.Marshal(models.CalendarEventsResponse{Events: events})
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

func writeCalendarError(w http.ResponseWriter, err error) {
	if errors.Is(err, calendar.ErrMissingEmail) {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "Email mancante"})
		return
	}

	var upstream *calendar.UpstreamError
	if errors.As(err, &upstream) && upstream.Op == "token" && len(upstream.Body) > 0 {
		zap.S().Errorw("calendar token exchange failed",
			"status", upstream.StatusCode,
			"body", string(upstream.Body))
		var detail interface{} = string(upstream.Body)
		if json.Valid(upstream.Body) {
			detail = json.RawMessage(upstream.Body)
		}
		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"error":  "Token fallito",
			"detail": detail,
		})
		return
	}

	zap.S().Errorw("calendar request failed", "error", err)
	w.WriteHeader(http.StatusInternalServerError)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}
