package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// BookingRequest holds the structure for the booking_requests collection in
// mongo. Created by a student asking for a session slot; the admin is
// notified by email and clears the request once handled.
type BookingRequest struct {
	ID          primitive.ObjectID `json:"_id" bson:"_id"`
	StudentID   string             `json:"studentID" bson:"studentID"`
	StudentName string             `json:"studentName" bson:"studentName"`
	SessionType string             `json:"sessionType" bson:"sessionType"`
	Date        string             `json:"date" bson:"date"`
	Time        string             `json:"time" bson:"time"`
	Note        string             `json:"note" bson:"note"`
	Ts          primitive.DateTime `json:"ts" bson:"ts"`
}
