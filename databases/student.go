package databases

// go generate: mockery --name StudentDatabase

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mindsell/tutor-portal-api/models"
)

const studentName = "students"

// StudentDatabase contains the methods to use with the student database
type StudentDatabase interface {
	FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) (*models.Student, error)
	Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.Student, error)
	CountDocuments(ctx context.Context, filter interface{}, opts ...*options.CountOptions) (int64, error)
	InsertOne(ctx context.Context, document interface{}, opts ...*options.InsertOneOptions) (InsertOneResultHelper, error)
	UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) (*mongo.UpdateResult, error)
	DeleteOne(ctx context.Context, filter interface{}, opts ...*options.DeleteOptions) error
}

type studentDatabase struct {
	db DatabaseHelper
}

// NewStudentDatabase initializes a new instance of student database with the provided db connection
func NewStudentDatabase(db DatabaseHelper) StudentDatabase {
	return &studentDatabase{
		db: db,
	}
}

func (s *studentDatabase) FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) (*models.Student, error) {
	student := &models.Student{}
	err := s.db.Collection(studentName).FindOne(ctx, filter, opts...).Decode(&student)
	if err != nil {
		return nil, err
	}
	return student, nil
}

func (s *studentDatabase) Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.Student, error) {
	var students []models.Student
	curr, err := s.db.Collection(studentName).Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	defer curr.Close(ctx)
	err = curr.All(ctx, &students)
	if err != nil {
		return nil, err
	}
	return students, nil
}

func (s *studentDatabase) CountDocuments(ctx context.Context, filter interface{}, opts ...*options.CountOptions) (int64, error) {
	return s.db.Collection(studentName).CountDocuments(ctx, filter, opts...)
}

func (s *studentDatabase) InsertOne(ctx context.Context, document interface{}, opts ...*options.InsertOneOptions) (InsertOneResultHelper, error) {
	return s.db.Collection(studentName).InsertOne(ctx, document, opts...)
}

func (s *studentDatabase) UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) (*mongo.UpdateResult, error) {
	return s.db.Collection(studentName).UpdateOne(ctx, filter, update, opts...)
}

func (s *studentDatabase) DeleteOne(ctx context.Context, filter interface{}, opts ...*options.DeleteOptions) error {
	_, err := s.db.Collection(studentName).DeleteOne(ctx, filter, opts...)
	return err
}
