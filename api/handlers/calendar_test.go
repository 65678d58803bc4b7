package handlers_test

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mindsell/tutor-portal-api/api/handlers"
	"github.com/mindsell/tutor-portal-api/calendar"
)

func calendarTestKeyPEM(t *testing.T) string {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	return string(pem.EncodeToMemory(&pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(key),
	}))
}

func TestCalendar_UpcomingEventsHandlerMissingEmail(t *testing.T) {
	svc := calendar.New(calendar.Config{
		ClientEmail: "svc@project.iam.gserviceaccount.com",
		PrivateKey:  calendarTestKeyPEM(t),
		CalendarID:  "primary",
	})
	c := handlers.Calendar{Service: svc}

	req, err := http.NewRequest("GET", "/api/v1/calendar", nil)
	if err != nil {
		t.Fatal(err)
	}

	rr := httptest.NewRecorder()
	http.HandlerFunc(c.UpcomingEventsHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)

	var resp map[string]string
	assert.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "Email mancante", resp["error"])
}

func TestCalendar_UpcomingEventsHandlerTokenFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":"invalid_grant"}`))
	}))
	defer srv.Close()

	svc := calendar.New(calendar.Config{
		ClientEmail: "svc@project.iam.gserviceaccount.com",
		PrivateKey:  calendarTestKeyPEM(t),
		CalendarID:  "primary",
		TokenURL:    srv.URL,
		EventsURL:   srv.URL + "/calendars",
		HTTPClient:  srv.Client(),
	})
	c := handlers.Calendar{Service: svc}

	req, err := http.NewRequest("GET", "/api/v1/calendar?email=mario@example.com", nil)
	if err != nil {
		t.Fatal(err)
	}

	rr := httptest.NewRecorder()
	http.HandlerFunc(c.UpcomingEventsHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusInternalServerError, rr.Code)

	var resp map[string]interface{}
	assert.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "Token fallito", resp["error"])
	detail := resp["detail"].(map[string]interface{})
	assert.Equal(t, "invalid_grant", detail["error"])
}

func TestCalendar_UpcomingEventsHandlerSuccess(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"access_token": "test-access-token"})
	})
	mux.HandleFunc("/calendars/primary/events", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"items":[
			{"id":"1","summary":"Coaching Mario","attendees":[{"email":"mario@example.com"}]},
			{"id":"2","summary":"Altro","attendees":[{"email":"lucia@example.com"}]}
		]}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	svc := calendar.New(calendar.Config{
		ClientEmail: "svc@project.iam.gserviceaccount.com",
		PrivateKey:  calendarTestKeyPEM(t),
		CalendarID:  "primary",
		TokenURL:    srv.URL + "/token",
		EventsURL:   srv.URL + "/calendars",
		HTTPClient:  srv.Client(),
	})
	c := handlers.Calendar{Service: svc}

	req, err := http.NewRequest("GET", "/api/v1/calendar?email=MARIO@example.com", nil)
	if err != nil {
		t.Fatal(err)
	}

	rr := httptest.NewRecorder()
	http.HandlerFunc(c.UpcomingEventsHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "Coaching Mario")
	assert.NotContains(t, rr.Body.String(), "Altro")
}
