package handlers_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/mindsell/tutor-portal-api/api/handlers"
	"github.com/mindsell/tutor-portal-api/databases"
	"github.com/mindsell/tutor-portal-api/databases/mocks"
	"github.com/mindsell/tutor-portal-api/models"
)

func TestLibrary_LibraryHandlerEmpty(t *testing.T) {
	req, err := http.NewRequest("GET", "/api/v1/library", nil)
	if err != nil {
		t.Fatal(err)
	}

	cursor := &mocks.CursorHelper{}
	cursor.On("All", mock.Anything, mock.Anything).Return(nil)
	cursor.On("Close", mock.Anything).Return(nil)

	conn := &mocks.CollectionHelper{}
	conn.On("Find", mock.Anything, mock.Anything).Return(cursor, nil)

	db := &MockDatabaseHelper{}
	db.On("Collection", "library").Return(conn)

	l := handlers.Library{DB: databases.NewLibraryDatabase(db)}

	rr := httptest.NewRecorder()
	http.HandlerFunc(l.LibraryHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "[]", rr.Body.String())
}

func TestLibrary_CreateLibraryModuleHandlerMissingTitle(t *testing.T) {
	req, err := http.NewRequest("POST", "/api/v1/library", strings.NewReader(`{"emoji":"📚"}`))
	if err != nil {
		t.Fatal(err)
	}

	l := handlers.Library{DB: databases.NewLibraryDatabase(&MockDatabaseHelper{})}

	rr := httptest.NewRecorder()
	http.HandlerFunc(l.CreateLibraryModuleHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "module title is required")
}

func TestLibrary_CreateLibraryModuleHandlerSuccess(t *testing.T) {
	req, err := http.NewRequest("POST", "/api/v1/library", strings.NewReader(`{"title":"Vendita base","emoji":"📚"}`))
	if err != nil {
		t.Fatal(err)
	}

	conn := &mocks.CollectionHelper{}
	conn.On("InsertOne", mock.Anything, mock.Anything).Return(&mocks.InsertOneResultHelper{}, nil)

	db := &MockDatabaseHelper{}
	db.On("Collection", "library").Return(conn)

	l := handlers.Library{DB: databases.NewLibraryDatabase(db)}

	rr := httptest.NewRecorder()
	http.HandlerFunc(l.CreateLibraryModuleHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusCreated, rr.Code)
	assert.Contains(t, rr.Body.String(), "Vendita base")
	// videos array is always materialized for the frontend
	assert.Contains(t, rr.Body.String(), `"videos":[]`)
}

func TestLibrary_UpdateLibraryModuleHandlerSyncsAssignedCopies(t *testing.T) {
	mID := primitive.NewObjectID()
	sID := primitive.NewObjectID()

	body := `{"title":"Vendita avanzata","videos":[{"title":"Lezione 1","url":"https://v/1"},{"title":"Lezione 2","url":"https://v/2"}]}`
	req, err := http.NewRequest("PUT", "/api/v1/library/"+mID.Hex(), strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	req = mux.SetURLVars(req, map[string]string{"module_id": mID.Hex()})

	libConn := &mocks.CollectionHelper{}
	libConn.On("UpdateOne", mock.Anything, mock.Anything, mock.Anything).Return(&mongo.UpdateResult{ModifiedCount: 1}, nil)

	// one student holds an embedded copy with video 1 already done
	cursor := &mocks.CursorHelper{}
	cursor.On("All", mock.Anything, mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		arg := args.Get(1).(*[]models.Student)
		*arg = []models.Student{{
			ID: sID,
			Modules: []models.AssignedModule{{
				LibraryID: mID,
				Title:     "Vendita base",
				Videos:    []models.VideoLesson{{Title: "Lezione 1", URL: "https://v/1", Done: true}},
			}},
		}}
	})
	cursor.On("Close", mock.Anything).Return(nil)

	var syncedModules []models.AssignedModule
	studentConn := &mocks.CollectionHelper{}
	studentConn.On("Find", mock.Anything, mock.Anything).Return(cursor, nil)
	studentConn.On("UpdateOne", mock.Anything, mock.Anything, mock.Anything).
		Return(&mongo.UpdateResult{ModifiedCount: 1}, nil).
		Run(func(args mock.Arguments) {
			update := args.Get(2).(bson.M)
			set := update["$set"].(bson.M)
			syncedModules = set["modules"].([]models.AssignedModule)
		})

	db := &MockDatabaseHelper{}
	db.On("Collection", "library").Return(libConn)
	db.On("Collection", "students").Return(studentConn)

	l := handlers.Library{
		DB:        databases.NewLibraryDatabase(db),
		StudentDB: databases.NewStudentDatabase(db),
	}

	rr := httptest.NewRecorder()
	http.HandlerFunc(l.UpdateLibraryModuleHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)

	if assert.Len(t, syncedModules, 1) {
		videos := syncedModules[0].Videos
		assert.Equal(t, "Vendita avanzata", syncedModules[0].Title)
		if assert.Len(t, videos, 2) {
			// progress preserved for the surviving video, new one starts fresh
			assert.True(t, videos[0].Done)
			assert.False(t, videos[1].Done)
		}
	}
}

func TestLibrary_AddVideoHandlerMissingFields(t *testing.T) {
	mID := primitive.NewObjectID()
	req, err := http.NewRequest("POST", "/api/v1/library/"+mID.Hex()+"/videos", strings.NewReader(`{"title":"Lezione"}`))
	if err != nil {
		t.Fatal(err)
	}
	req = mux.SetURLVars(req, map[string]string{"module_id": mID.Hex()})

	l := handlers.Library{DB: databases.NewLibraryDatabase(&MockDatabaseHelper{})}

	rr := httptest.NewRecorder()
	http.HandlerFunc(l.AddVideoHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "video title and url are required")
}

func TestLibrary_DeleteLibraryModuleHandlerFailure(t *testing.T) {
	mID := primitive.NewObjectID()
	req, err := http.NewRequest("DELETE", "/api/v1/library/"+mID.Hex(), nil)
	if err != nil {
		t.Fatal(err)
	}
	req = mux.SetURLVars(req, map[string]string{"module_id": mID.Hex()})

	conn := &mocks.CollectionHelper{}
	conn.On("DeleteOne", mock.Anything, mock.Anything).Return(nil, errors.New("mocked-error"))

	db := &MockDatabaseHelper{}
	db.On("Collection", "library").Return(conn)

	l := handlers.Library{DB: databases.NewLibraryDatabase(db)}

	rr := httptest.NewRecorder()
	http.HandlerFunc(l.DeleteLibraryModuleHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Contains(t, rr.Body.String(), "failed to delete library module")
}
