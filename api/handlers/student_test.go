package handlers_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/mindsell/tutor-portal-api/api/handlers"
	"github.com/mindsell/tutor-portal-api/databases"
	"github.com/mindsell/tutor-portal-api/databases/mocks"
	"github.com/mindsell/tutor-portal-api/models"
)

func TestStudent_StudentByIDHandlerInvalidID(t *testing.T) {
	req, err := http.NewRequest("GET", "/api/v1/student/1234", nil)
	if err != nil {
		t.Fatal(err)
	}
	req = mux.SetURLVars(req, map[string]string{"student_id": "1234"})

	db := &MockDatabaseHelper{}
	u := handlers.Student{DB: databases.NewStudentDatabase(db)}

	rr := httptest.NewRecorder()
	http.HandlerFunc(u.StudentByIDHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)

	expected := models.ErrorMessageResponse{Response: models.MessageError{Message: "failed to get objectID from Hex", Error: "the provided hex string is not a valid ObjectID"}}
	b, _ := json.Marshal(expected)
	assert.Equal(t, string(b), rr.Body.String())
}

func TestStudent_StudentByIDHandlerNotFound(t *testing.T) {
	req, err := http.NewRequest("GET", "/api/v1/student/608cafe595eb9dc05379ffff", nil)
	if err != nil {
		t.Fatal(err)
	}
	req = mux.SetURLVars(req, map[string]string{"student_id": "608cafe595eb9dc05379ffff"})

	singleResultHelper := &mocks.SingleResultHelper{}
	singleResultHelper.On("Decode", mock.Anything).Return(errors.New("mongo: no documents in result"))

	conn := &mocks.CollectionHelper{}
	conn.On("FindOne", mock.Anything, mock.Anything).Return(singleResultHelper)

	db := &MockDatabaseHelper{}
	db.On("Collection", "students").Return(conn)

	u := handlers.Student{DB: databases.NewStudentDatabase(db)}

	rr := httptest.NewRecorder()
	http.HandlerFunc(u.StudentByIDHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Contains(t, rr.Body.String(), "failed to get student by ID")
}

func TestStudent_StudentByIDHandlerSuccess(t *testing.T) {
	req, err := http.NewRequest("GET", "/api/v1/student/5fc51f36c72ff10004dca381", nil)
	if err != nil {
		t.Fatal(err)
	}
	req = mux.SetURLVars(req, map[string]string{"student_id": "5fc51f36c72ff10004dca381"})

	sID, _ := primitive.ObjectIDFromHex("5fc51f36c72ff10004dca381")

	singleResultHelper := &mocks.SingleResultHelper{}
	singleResultHelper.On("Decode", mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		arg := args.Get(0).(**models.Student)
		(*arg).ID = sID
		(*arg).Name = "Mario Rossi"
		(*arg).Password = "supersecrethash"
	})

	conn := &mocks.CollectionHelper{}
	conn.On("FindOne", mock.Anything, mock.Anything).Return(singleResultHelper)

	db := &MockDatabaseHelper{}
	db.On("Collection", "students").Return(conn)

	u := handlers.Student{DB: databases.NewStudentDatabase(db)}

	rr := httptest.NewRecorder()
	http.HandlerFunc(u.StudentByIDHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "Mario Rossi")
	// the password hash never leaves the API
	assert.NotContains(t, rr.Body.String(), "supersecrethash")
}

func TestStudent_StudentCreateHandlerMissingFields(t *testing.T) {
	req, err := http.NewRequest("POST", "/api/v1/student", strings.NewReader(`{"name":"Mario Rossi"}`))
	if err != nil {
		t.Fatal(err)
	}

	db := &MockDatabaseHelper{}
	u := handlers.Student{DB: databases.NewStudentDatabase(db)}

	rr := httptest.NewRecorder()
	http.HandlerFunc(u.StudentCreateHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "name, email and password are required")
}

func TestStudent_StudentCreateHandlerDuplicateEmail(t *testing.T) {
	body := `{"name":"Mario Rossi","email":"mario@example.com","password":"pw","plan":"Premium"}`
	req, err := http.NewRequest("POST", "/api/v1/student", strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}

	singleResultHelper := &mocks.SingleResultHelper{}
	singleResultHelper.On("Decode", mock.Anything).Return(nil)

	conn := &mocks.CollectionHelper{}
	conn.On("FindOne", mock.Anything, mock.Anything).Return(singleResultHelper)

	db := &MockDatabaseHelper{}
	db.On("Collection", "students").Return(conn)

	u := handlers.Student{DB: databases.NewStudentDatabase(db)}

	rr := httptest.NewRecorder()
	http.HandlerFunc(u.StudentCreateHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Contains(t, rr.Body.String(), "email already exists")
}

func TestStudent_StudentCreateHandlerSuccess(t *testing.T) {
	body := `{"name":"Mario Rossi","email":"mario@example.com","password":"pw","plan":"Premium"}`
	req, err := http.NewRequest("POST", "/api/v1/student", strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}

	singleResultHelper := &mocks.SingleResultHelper{}
	singleResultHelper.On("Decode", mock.Anything).Return(errors.New("mongo: no documents in result"))

	conn := &mocks.CollectionHelper{}
	conn.On("FindOne", mock.Anything, mock.Anything).Return(singleResultHelper)
	conn.On("InsertOne", mock.Anything, mock.Anything).Return(&mocks.InsertOneResultHelper{}, nil)

	db := &MockDatabaseHelper{}
	db.On("Collection", "students").Return(conn)

	u := handlers.Student{DB: databases.NewStudentDatabase(db)}

	rr := httptest.NewRecorder()
	http.HandlerFunc(u.StudentCreateHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusCreated, rr.Code)

	var created models.Student
	assert.NoError(t, json.Unmarshal(rr.Body.Bytes(), &created))
	assert.Equal(t, "Mario Rossi", created.Name)
	assert.Equal(t, "MR", created.Avatar)
	assert.NotNil(t, created.Modules)
	assert.NotNil(t, created.Packages)
}

func TestStudent_UseSessionHandlerExhausted(t *testing.T) {
	req, err := http.NewRequest("PUT", "/api/v1/student/5fc51f36c72ff10004dca381/packages/0/use", nil)
	if err != nil {
		t.Fatal(err)
	}
	req = mux.SetURLVars(req, map[string]string{"student_id": "5fc51f36c72ff10004dca381", "package_index": "0"})

	singleResultHelper := &mocks.SingleResultHelper{}
	singleResultHelper.On("Decode", mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		arg := args.Get(0).(**models.Student)
		(*arg).Packages = []models.SessionPackage{{Label: "Pacchetto 10", Used: 10, Total: 10}}
	})

	conn := &mocks.CollectionHelper{}
	conn.On("FindOne", mock.Anything, mock.Anything).Return(singleResultHelper)

	db := &MockDatabaseHelper{}
	db.On("Collection", "students").Return(conn)

	u := handlers.Student{DB: databases.NewStudentDatabase(db)}

	rr := httptest.NewRecorder()
	http.HandlerFunc(u.UseSessionHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Contains(t, rr.Body.String(), "no sessions left in package")
}

func TestStudent_UseSessionHandlerSuccess(t *testing.T) {
	req, err := http.NewRequest("PUT", "/api/v1/student/5fc51f36c72ff10004dca381/packages/0/use", nil)
	if err != nil {
		t.Fatal(err)
	}
	req = mux.SetURLVars(req, map[string]string{"student_id": "5fc51f36c72ff10004dca381", "package_index": "0"})

	singleResultHelper := &mocks.SingleResultHelper{}
	singleResultHelper.On("Decode", mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		arg := args.Get(0).(**models.Student)
		(*arg).Packages = []models.SessionPackage{{Label: "Pacchetto 10", Used: 3, Total: 10}}
	})

	conn := &mocks.CollectionHelper{}
	conn.On("FindOne", mock.Anything, mock.Anything).Return(singleResultHelper)
	conn.On("UpdateOne", mock.Anything, mock.Anything, mock.Anything).Return(&mongo.UpdateResult{ModifiedCount: 1}, nil)

	notifConn := &mocks.CollectionHelper{}
	notifConn.On("InsertOne", mock.Anything, mock.Anything).Return(&mocks.InsertOneResultHelper{}, nil)

	db := &MockDatabaseHelper{}
	db.On("Collection", "students").Return(conn)
	db.On("Collection", "notifications").Return(notifConn)

	u := handlers.Student{
		DB:       databases.NewStudentDatabase(db),
		Notifier: handlers.Notification{DB: databases.NewNotificationDatabase(db), Hub: handlers.NewHub()},
	}

	rr := httptest.NewRecorder()
	http.HandlerFunc(u.UseSessionHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)

	var pkg models.SessionPackage
	assert.NoError(t, json.Unmarshal(rr.Body.Bytes(), &pkg))
	assert.Equal(t, 4, pkg.Used)
	assert.Equal(t, 10, pkg.Total)
}
