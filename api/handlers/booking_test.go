package handlers_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/mindsell/tutor-portal-api/api/handlers"
	"github.com/mindsell/tutor-portal-api/databases"
	"github.com/mindsell/tutor-portal-api/databases/mocks"
)

type sentMail struct {
	subject string
	body    string
}

// fakeMailer records sends on a channel so the fire-and-forget goroutine can
// be awaited
type fakeMailer struct {
	sent chan sentMail
	err  error
}

func newFakeMailer() *fakeMailer {
	return &fakeMailer{sent: make(chan sentMail, 1)}
}

func (f *fakeMailer) Send(subject, body string) error {
	f.sent <- sentMail{subject: subject, body: body}
	return f.err
}

func TestBooking_CreateBookingHandlerMissingFields(t *testing.T) {
	req, err := http.NewRequest("POST", "/api/v1/bookings", strings.NewReader(`{"studentName":"Mario Rossi"}`))
	if err != nil {
		t.Fatal(err)
	}

	db := &MockDatabaseHelper{}
	b := handlers.Booking{DB: databases.NewBookingDatabase(db), Mailer: newFakeMailer()}

	rr := httptest.NewRecorder()
	http.HandlerFunc(b.CreateBookingHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "studentName, sessionType, date and time are required")
}

func TestBooking_CreateBookingHandlerInsertFailure(t *testing.T) {
	body := `{"studentName":"Mario Rossi","sessionType":"Coaching 1:1","date":"2026-09-01","time":"15:00"}`
	req, err := http.NewRequest("POST", "/api/v1/bookings", strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}

	conn := &mocks.CollectionHelper{}
	conn.On("InsertOne", mock.Anything, mock.Anything).Return(nil, errors.New("mocked-error"))

	db := &MockDatabaseHelper{}
	db.On("Collection", "booking_requests").Return(conn)

	b := handlers.Booking{DB: databases.NewBookingDatabase(db), Mailer: newFakeMailer()}

	rr := httptest.NewRecorder()
	http.HandlerFunc(b.CreateBookingHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Contains(t, rr.Body.String(), "failed to insert booking request")
}

func TestBooking_CreateBookingHandlerSuccess(t *testing.T) {
	body := `{"studentName":"Mario Rossi","sessionType":"Coaching 1:1","date":"2026-09-01","time":"15:00"}`
	req, err := http.NewRequest("POST", "/api/v1/bookings", strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}

	conn := &mocks.CollectionHelper{}
	conn.On("InsertOne", mock.Anything, mock.Anything).Return(&mocks.InsertOneResultHelper{}, nil)

	db := &MockDatabaseHelper{}
	db.On("Collection", "booking_requests").Return(conn)

	mailer := newFakeMailer()
	b := handlers.Booking{DB: databases.NewBookingDatabase(db), Mailer: mailer}

	rr := httptest.NewRecorder()
	http.HandlerFunc(b.CreateBookingHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusCreated, rr.Code)
	assert.Contains(t, rr.Body.String(), "Mario Rossi")

	select {
	case m := <-mailer.sent:
		assert.Equal(t, "Nuova richiesta di prenotazione", m.subject)
		assert.Contains(t, m.body, "Mario Rossi")
		// no note on the request, the default placeholder goes out
		assert.Contains(t, m.body, "Nessuna nota")
	case <-time.After(2 * time.Second):
		t.Fatal("booking email was never sent")
	}
}

func TestBooking_DeleteBookingHandlerInvalidID(t *testing.T) {
	req, err := http.NewRequest("DELETE", "/api/v1/bookings/1234", nil)
	if err != nil {
		t.Fatal(err)
	}
	req = mux.SetURLVars(req, map[string]string{"booking_id": "1234"})

	db := &MockDatabaseHelper{}
	b := handlers.Booking{DB: databases.NewBookingDatabase(db), Mailer: newFakeMailer()}

	rr := httptest.NewRecorder()
	http.HandlerFunc(b.DeleteBookingHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "failed to get objectID from Hex")
}
