package handlers

import (
	"context"
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

// Notification exported for testing purposes
type Notification struct {
	DB  databases.NotificationDatabase
	Hub *Hub
}

// notificationRequest holds the admin-provided fields for a new notification
type notificationRequest struct {
	Emoji string `json:"emoji"`
	Title string `json:"title"`
	Body  string `json:"body"`
}

// notify appends a notification document for one student and pushes it on
// the live badge stream. Failures are logged only; notifications ride along
// with another operation and never fail it.
func (n Notification) notify(ctx context.Context, studentID, emoji, title, body string) {
	doc := models.Notification{
		ID:        primitive.NewObjectID(),
		StudentID: studentID,
		Emoji:     emoji,
		Title:     title,
		Body:      body,
		Read:      false,
		Ts:        primitive.NewDateTimeFromTime(time.Now()),
	}
	if _, err := n.DB.InsertOne(ctx, doc); err != nil {
		zap.S().Errorw("failed to insert notification",
			"studentID", studentID,
			"error", err)
		return
	}
	n.Hub.Publish(notifyKey(studentID), Event{Type: "new_notification", Data: doc})
}

// AddNotificationHandler creates a notification for a student
func (n Notification) AddNotificationHandler(w http.ResponseWriter, r *http.Request) {
	studentID := mux.Vars(r)["student_id"]

	var req notificationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("failed to decode request", http.StatusBadRequest, w, err)
		return
	}
	if req.Title == "" {
		config.ErrorStatus("notification title is required", http.StatusBadRequest, w, fmt.Errorf("empty title"))
		return
	}

	doc := models.Notification{
		ID:        primitive.NewObjectID(),
		StudentID: studentID,
		Emoji:     req.Emoji,
		Title:     req.Title,
		Body:      req.Body,
		Read:      false,
		Ts:        primitive.NewDateTimeFromTime(time.Now()),
	}
	if _, err := n.DB.InsertOne(r.Context(), doc); err != nil {
		config.ErrorStatus("failed to insert notification", http.StatusInternalServerError, w, err)
		return
	}
	n.Hub.Publish(notifyKey(studentID), Event{Type: "new_notification", Data: doc})

	b, err := json.Marshal(doc)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
	w.Write(b)
}

// NotificationsHandler returns a student's notifications, newest first
func (n Notification) NotificationsHandler(w http.ResponseWriter, r *http.Request) {
	studentID := mux.Vars(r)["student_id"]

	sort := bson.D{{Key: "ts", Value: -1}}
	dbResp, err := n.DB.Find(r.Context(), bson.M{"studentID": studentID}, &options.FindOptions{Sort: sort})
	if err != nil {
		config.ErrorStatus("failed to get notifications", http.StatusInternalServerError, w, err)
		return
	}
	if len(dbResp) == 0 {
		dbResp = []models.Notification{}
	}
	b, err := json.Marshal(dbResp)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// MarkNotificationsReadHandler marks all of a student's notifications as
// read. Idempotent.
func (n Notification) MarkNotificationsReadHandler(w http.ResponseWriter, r *http.Request) {
	studentID := mux.Vars(r)["student_id"]

	res, err := n.DB.UpdateMany(r.Context(),
		bson.M{"studentID": studentID, "read": false},
		bson.M{"$set": bson.M{"read": true}},
	)
	if err != nil {
		config.ErrorStatus("failed to mark notifications read", http.StatusInternalServerError, w, err)
		return
	}

	b, err := json.Marshal(map[string]int64{"updated": res.ModifiedCount})
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}
