package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/mindsell/tutor-portal-api/config"
	"github.com/mindsell/tutor-portal-api/databases"
	"github.com/mindsell/tutor-portal-api/models"
)

// Booking exported for testing purposes
type Booking struct {
	DB     databases.BookingDatabase
	Mailer Mailer
}

// CreateBookingHandler stores a booking request and notifies the admin by
// email. The email is fire and forget: its outcome is logged, never surfaced
// to the student.
func (b Booking) CreateBookingHandler(w http.ResponseWriter, r *http.Request) {
	var req models.BookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("failed to decode request", http.StatusBadRequest, w, err)
		return
	}
	if req.StudentName == "" || req.SessionType == "" || req.Date == "" || req.Time == "" {
		config.ErrorStatus("studentName, sessionType, date and time are required", http.StatusBadRequest, w, fmt.Errorf("missing required fields"))
		return
	}

	req.ID = primitive.NewObjectID()
	req.Ts = primitive.NewDateTimeFromTime(time.Now())

	if _, err := b.DB.InsertOne(r.Context(), req); err != nil {
		config.ErrorStatus("failed to insert booking request", http.StatusInternalServerError, w, err)
		return
	}

	go func(req models.BookingRequest) {
		note := req.Note
		if note == "" {
			note = "Nessuna nota"
		}
		body := fmt.Sprintf("Studente: %s\nSessione: %s\nData: %s\nOrario: %s\nNote: %s",
			req.StudentName, req.SessionType, req.Date, req.Time, note)
		if err := b.Mailer.Send("Nuova richiesta di prenotazione", body); err != nil {
			zap.S().Errorw("failed to send booking email",
				"studentName", req.StudentName,
				"error", err)
		}
	}(req)

	resp, err := json.Marshal(req)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
	w.Write(resp)
}

// BookingsHandler returns every pending booking request, newest first
func (b Booking) BookingsHandler(w http.ResponseWriter, r *http.Request) {
	sort := bson.D{{Key: "ts", Value: -1}}
	dbResp, err := b.DB.Find(r.Context(), bson.D{}, &options.FindOptions{Sort: sort})
	if err != nil {
		config.ErrorStatus("failed to get booking requests", http.StatusInternalServerError, w, err)
		return
	}
	if len(dbResp) == 0 {
		dbResp = []models.BookingRequest{}
	}
	resp, err := json.Marshal(dbResp)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(resp)
}

// DeleteBookingHandler clears a handled booking request
func (b Booking) DeleteBookingHandler(w http.ResponseWriter, r *http.Request) {
	bookingID := mux.Vars(r)["booking_id"]

	bID, err := primitive.ObjectIDFromHex(bookingID)
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	err = b.DB.DeleteOne(r.Context(), bson.M{"_id": bID})
	if err != nil {
		config.ErrorStatus("failed to delete booking request", http.StatusInternalServerError, w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"deleted": true}`))
}
