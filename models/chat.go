package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// Message sender roles
const (
	SenderStudent = "student"
	SenderCoach   = "coach"
)

// Conversation holds the structure for the conversations collection in mongo.
// One document per student, keyed by the student ID. LastMessage/LastTs are a
// denormalized cache of the most recently appended message, updated on every
// send (last write wins). HasUnread is true iff at least one unread
// student-authored message exists.
type Conversation struct {
	ID          string             `json:"_id" bson:"_id"` // student ID hex
	StudentName string             `json:"studentName" bson:"studentName"`
	LastMessage string             `json:"lastMessage" bson:"lastMessage"`
	LastTs      primitive.DateTime `json:"lastTs" bson:"lastTs"`
	HasUnread   bool               `json:"hasUnread" bson:"hasUnread"`
}

// ChatMessage holds the structure for the chat_messages collection in mongo.
// The log is append-only; the only mutation ever applied is read=false→true.
type ChatMessage struct {
	ID             primitive.ObjectID `json:"_id" bson:"_id"`
	ConversationID string             `json:"conversationID" bson:"conversationID"`
	Text           string             `json:"text" bson:"text"`
	From           string             `json:"from" bson:"from"` // "student" or "coach"
	Ts             primitive.DateTime `json:"ts" bson:"ts"`
	Read           bool               `json:"read" bson:"read"`
}

// SendMessageRequest holds the structure for appending a message to a conversation
type SendMessageRequest struct {
	Text        string `json:"text"`
	From        string `json:"from"`
	StudentName string `json:"studentName,omitempty"`
}

// MarkReadRequest identifies which side is opening the conversation
type MarkReadRequest struct {
	Role string `json:"role"` // "student" or "coach"
}
