package databases

// go generate: mockery --name LibraryDatabase

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mindsell/tutor-portal-api/models"
)

const libraryName = "library"

// LibraryDatabase contains the methods to use with the module library database
type LibraryDatabase interface {
	FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) (*models.LibraryModule, error)
	Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.LibraryModule, error)
	InsertOne(ctx context.Context, document interface{}, opts ...*options.InsertOneOptions) (InsertOneResultHelper, error)
	UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) (*mongo.UpdateResult, error)
	DeleteOne(ctx context.Context, filter interface{}, opts ...*options.DeleteOptions) error
}

type libraryDatabase struct {
	db DatabaseHelper
}

// NewLibraryDatabase initializes a new instance of library database with the provided db connection
func NewLibraryDatabase(db DatabaseHelper) LibraryDatabase {
	return &libraryDatabase{
		db: db,
	}
}

func (l *libraryDatabase) FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) (*models.LibraryModule, error) {
	module := &models.LibraryModule{}
	err := l.db.Collection(libraryName).FindOne(ctx, filter, opts...).Decode(&module)
	if err != nil {
		return nil, err
	}
	return module, nil
}

func (l *libraryDatabase) Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.LibraryModule, error) {
	var modules []models.LibraryModule
	curr, err := l.db.Collection(libraryName).Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	defer curr.Close(ctx)
	err = curr.All(ctx, &modules)
	if err != nil {
		return nil, err
	}
	return modules, nil
}

func (l *libraryDatabase) InsertOne(ctx context.Context, document interface{}, opts ...*options.InsertOneOptions) (InsertOneResultHelper, error) {
	return l.db.Collection(libraryName).InsertOne(ctx, document, opts...)
}

func (l *libraryDatabase) UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) (*mongo.UpdateResult, error) {
	return l.db.Collection(libraryName).UpdateOne(ctx, filter, update, opts...)
}

func (l *libraryDatabase) DeleteOne(ctx context.Context, filter interface{}, opts ...*options.DeleteOptions) error {
	_, err := l.db.Collection(libraryName).DeleteOne(ctx, filter, opts...)
	return err
}
