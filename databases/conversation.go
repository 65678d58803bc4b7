package databases

// go generate: mockery --name ConversationDatabase

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mindsell/tutor-portal-api/models"
)

const conversationName = "conversations"

// ConversationDatabase contains the methods to use with the conversations database
type ConversationDatabase interface {
	FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) (*models.Conversation, error)
	Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.Conversation, error)
	UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) (*mongo.UpdateResult, error)
	DeleteOne(ctx context.Context, filter interface{}, opts ...*options.DeleteOptions) error
}

type conversationDatabase struct {
	db DatabaseHelper
}

// NewConversationDatabase initializes a new instance of conversation database with the provided db connection
func NewConversationDatabase(db DatabaseHelper) ConversationDatabase {
	return &conversationDatabase{
		db: db,
	}
}

func (c *conversationDatabase) FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) (*models.Conversation, error) {
	conv := &models.Conversation{}
	err := c.db.Collection(conversationName).FindOne(ctx, filter, opts...).Decode(&conv)
	if err != nil {
		return nil, err
	}
	return conv, nil
}

func (c *conversationDatabase) Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.Conversation, error) {
	var convs []models.Conversation
	curr, err := c.db.Collection(conversationName).Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	defer curr.Close(ctx)
	err = curr.All(ctx, &convs)
	if err != nil {
		return nil, err
	}
	return convs, nil
}

func (c *conversationDatabase) UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) (*mongo.UpdateResult, error) {
	return c.db.Collection(conversationName).UpdateOne(ctx, filter, update, opts...)
}

func (c *conversationDatabase) DeleteOne(ctx context.Context, filter interface{}, opts ...*options.DeleteOptions) error {
	_, err := c.db.Collection(conversationName).DeleteOne(ctx, filter, opts...)
	return err
}
