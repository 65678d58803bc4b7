package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// Notification holds the structure for the notifications collection in mongo.
// Appended by server-side actions (module assigned, new material, session
// used) and consumed by the dashboard badge over the websocket hub.
type Notification struct {
	ID        primitive.ObjectID `json:"_id" bson:"_id"`
	StudentID string             `json:"studentID" bson:"studentID"`
	Emoji     string             `json:"emoji" bson:"emoji"`
	Title     string             `json:"title" bson:"title"`
	Body      string             `json:"body" bson:"body"`
	Read      bool               `json:"read" bson:"read"`
	Ts        primitive.DateTime `json:"ts" bson:"ts"`
}
