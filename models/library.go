package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// LibraryModule holds the structure for the library collection in mongo.
// Library modules are the master copies; assigning one to a student embeds a
// copy (with progress flags) in the student document.
type LibraryModule struct {
	ID          primitive.ObjectID `json:"_id" bson:"_id"`
	Title       string             `json:"title" bson:"title"`
	Emoji       string             `json:"emoji" bson:"emoji"`
	Description string             `json:"description" bson:"description"`
	Videos      []VideoLesson      `json:"videos" bson:"videos"`
	CreatedAt   primitive.DateTime `json:"createdAt" bson:"createdAt"`
}
