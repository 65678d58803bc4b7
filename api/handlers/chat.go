package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
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

// Chat exported for testing purposes
type Chat struct {
	ConvDB databases.ConversationDatabase
	MsgDB  databases.MessageDatabase
	Hub    *Hub
}

// counterpart returns the opposite sender role
func counterpart(role string) string {
	if role == models.SenderCoach {
		return models.SenderStudent
	}
	return models.SenderCoach
}

// SendMessageHandler appends a message to a conversation's log, then updates
// the conversation's denormalized lastMessage/lastTs fields. The append is
// the operation: if it fails the caller gets a 500. The conversation upsert
// is a last-write-wins cache; its failure is logged and swallowed.
func (c Chat) SendMessageHandler(w http.ResponseWriter, r *http.Request) {
	studentID := mux.Vars(r)["student_id"]

	var req models.SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("failed to decode request", http.StatusBadRequest, w, err)
		return
	}

	text := strings.TrimSpace(req.Text)
	if text == "" {
		config.ErrorStatus("message text is required", http.StatusBadRequest, w, fmt.Errorf("empty text"))
		return
	}
	if req.From != models.SenderStudent && req.From != models.SenderCoach {
		config.ErrorStatus("invalid sender", http.StatusBadRequest, w, fmt.Errorf("from must be %q or %q", models.SenderStudent, models.SenderCoach))
		return
	}

	msg := models.ChatMessage{
		ID:             primitive.NewObjectID(),
		ConversationID: studentID,
		Text:           text,
		From:           req.From,
		Ts:             primitive.NewDateTimeFromTime(time.Now()),
		Read:           false,
	}
	if _, err := c.MsgDB.InsertOne(r.Context(), msg); err != nil {
		config.ErrorStatus("failed to append message", http.StatusInternalServerError, w, err)
		return
	}

	// Denormalized conversation summary, created implicitly on first message.
	set := bson.M{
		"lastMessage": text,
		"lastTs":      msg.Ts,
	}
	if req.From == models.SenderStudent {
		set["hasUnread"] = true
	}
	if req.StudentName != "" {
		set["studentName"] = req.StudentName
	}
	upsert := true
	_, err := c.ConvDB.UpdateOne(r.Context(), bson.M{"_id": studentID}, bson.M{"$set": set}, &options.UpdateOptions{Upsert: &upsert})
	if err != nil {
		// Last write wins by convention; the message itself is already stored.
		zap.S().Errorw("failed to update conversation summary",
			"studentID", studentID,
			"error", err)
	}

	c.Hub.Publish(chatKey(studentID), Event{Type: "new_message", Data: msg})
	c.Hub.Publish(conversationsKey, Event{Type: "conversation_updated", Data: map[string]interface{}{
		"_id":         studentID,
		"lastMessage": text,
		"lastTs":      msg.Ts,
		"hasUnread":   req.From == models.SenderStudent,
	}})

	b, err := json.Marshal(msg)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
	w.Write(b)
}

// MessagesHandler returns a conversation's message log, ascending by timestamp
func (c Chat) MessagesHandler(w http.ResponseWriter, r *http.Request) {
	studentID := mux.Vars(r)["student_id"]

	sort := bson.D{{Key: "ts", Value: 1}}
	dbResp, err := c.MsgDB.Find(r.Context(), bson.M{"conversationID": studentID}, &options.FindOptions{Sort: sort})
	if err != nil {
		config.ErrorStatus("failed to get messages", http.StatusInternalServerError, w, err)
		return
	}
	if len(dbResp) == 0 {
		dbResp = []models.ChatMessage{}
	}
	b, err := json.Marshal(dbResp)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// ConversationsHandler returns every conversation, most recent message first
func (c Chat) ConversationsHandler(w http.ResponseWriter, r *http.Request) {
	sort := bson.D{{Key: "lastTs", Value: -1}}
	dbResp, err := c.ConvDB.Find(r.Context(), bson.D{}, &options.FindOptions{Sort: sort})
	if err != nil {
		config.ErrorStatus("failed to get conversations", http.StatusInternalServerError, w, err)
		return
	}
	if len(dbResp) == 0 {
		dbResp = []models.Conversation{}
	}
	b, err := json.Marshal(dbResp)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// MarkReadHandler is the open-conversation transition: every unread message
// authored by the counterpart role flips to read. Idempotent; own-authored
// unread messages are untouched. When the coach opens a conversation the
// hasUnread flag on the summary clears too.
func (c Chat) MarkReadHandler(w http.ResponseWriter, r *http.Request) {
	studentID := mux.Vars(r)["student_id"]

	var req models.MarkReadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("failed to decode request", http.StatusBadRequest, w, err)
		return
	}
	if req.Role != models.SenderStudent && req.Role != models.SenderCoach {
		config.ErrorStatus("invalid role", http.StatusBadRequest, w, fmt.Errorf("role must be %q or %q", models.SenderStudent, models.SenderCoach))
		return
	}

	res, err := c.MsgDB.UpdateMany(r.Context(),
		bson.M{"conversationID": studentID, "from": counterpart(req.Role), "read": false},
		bson.M{"$set": bson.M{"read": true}},
	)
	if err != nil {
		config.ErrorStatus("failed to mark messages read", http.StatusInternalServerError, w, err)
		return
	}

	if req.Role == models.SenderCoach {
		_, err = c.ConvDB.UpdateOne(r.Context(), bson.M{"_id": studentID}, bson.M{"$set": bson.M{"hasUnread": false}})
		if err != nil {
			config.ErrorStatus("failed to clear unread flag", http.StatusInternalServerError, w, err)
			return
		}
		c.Hub.Publish(conversationsKey, Event{Type: "conversation_read", Data: map[string]interface{}{
			"_id":       studentID,
			"hasUnread": false,
		}})
	}

	c.Hub.Publish(chatKey(studentID), Event{Type: "messages_read", Data: map[string]interface{}{
		"role": req.Role,
	}})

	b, err := json.Marshal(map[string]int64{"updated": res.ModifiedCount})
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// UnreadCountHandler returns the number of unread counterpart-authored
// messages for one side of a conversation, used for the badge while the
// panel is closed
func (c Chat) UnreadCountHandler(w http.ResponseWriter, r *http.Request) {
	studentID := mux.Vars(r)["student_id"]
	role := r.URL.Query().Get("role")
	if role != models.SenderStudent && role != models.SenderCoach {
		config.ErrorStatus("invalid role", http.StatusBadRequest, w, fmt.Errorf("role query param must be %q or %q", models.SenderStudent, models.SenderCoach))
		return
	}

	count, err := c.MsgDB.CountDocuments(context.Background(), bson.M{
		"conversationID": studentID,
		"from":           counterpart(role),
		"read":           false,
	})
	if err != nil {
		config.ErrorStatus("failed to count unread messages", http.StatusInternalServerError, w, err)
		return
	}

	b, err := json.Marshal(map[string]int64{"unread": count})
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}
