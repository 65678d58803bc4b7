package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/mindsell/tutor-portal-api/config"
	"github.com/mindsell/tutor-portal-api/databases"
	"github.com/mindsell/tutor-portal-api/models"
)

// Library exported for testing purposes
type Library struct {
	DB        databases.LibraryDatabase
	StudentDB databases.StudentDatabase
}

// LibraryHandler returns every module in the library
func (l Library) LibraryHandler(w http.ResponseWriter, r *http.Request) {
	dbResp, err := l.DB.Find(context.TODO(), bson.D{})
	if err != nil {
		config.ErrorStatus("failed to get library modules", http.StatusNotFound, w, err)
		return
	}
	if len(dbResp) == 0 {
		dbResp = []models.LibraryModule{}
	}
	b, err := json.Marshal(dbResp)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// LibraryModuleByIDHandler returns a library module by ID
func (l Library) LibraryModuleByIDHandler(w http.ResponseWriter, r *http.Request) {
	moduleID := mux.Vars(r)["module_id"]

	mID, err := primitive.ObjectIDFromHex(moduleID)
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	dbResp, err := l.DB.FindOne(context.Background(), bson.M{"_id": mID})
	if err != nil {
		config.ErrorStatus("failed to get library module by ID", http.StatusNotFound, w, err)
		return
	}

	b, err := json.Marshal(dbResp)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// CreateLibraryModuleHandler creates a library module
func (l Library) CreateLibraryModuleHandler(w http.ResponseWriter, r *http.Request) {
	var module models.LibraryModule
	if err := json.NewDecoder(r.Body).Decode(&module); err != nil {
		config.ErrorStatus("failed to decode request", http.StatusBadRequest, w, err)
		return
	}
	if module.Title == "" {
		config.ErrorStatus("module title is required", http.StatusBadRequest, w, fmt.Errorf("empty title"))
		return
	}

	module.ID = primitive.NewObjectID()
	if module.Videos == nil {
		module.Videos = []models.VideoLesson{}
	}
	module.CreatedAt = primitive.NewDateTimeFromTime(time.Now())

	if _, err := l.DB.InsertOne(context.Background(), module); err != nil {
		config.ErrorStatus("failed to insert library module", http.StatusInternalServerError, w, err)
		return
	}

	b, err := json.Marshal(module)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
	w.Write(b)
}

// UpdateLibraryModuleHandler updates a library module, then re-syncs the
// embedded copy in every student that has the module assigned. Per-student
// done flags are preserved for videos that still exist (matched by URL).
func (l Library) UpdateLibraryModuleHandler(w http.ResponseWriter, r *http.Request) {
	moduleID := mux.Vars(r)["module_id"]

	mID, err := primitive.ObjectIDFromHex(moduleID)
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	var module models.LibraryModule
	if err := json.NewDecoder(r.Body).Decode(&module); err != nil {
		config.ErrorStatus("failed to decode request", http.StatusBadRequest, w, err)
		return
	}
	module.ID = mID
	if module.Videos == nil {
		module.Videos = []models.VideoLesson{}
	}

	_, err = l.DB.UpdateOne(context.Background(), bson.M{"_id": mID}, bson.M{"$set": bson.M{
		"title":       module.Title,
		"emoji":       module.Emoji,
		"description": module.Description,
		"videos":      module.Videos,
	}})
	if err != nil {
		config.ErrorStatus("failed to update library module", http.StatusInternalServerError, w, err)
		return
	}

	if err := l.syncAssignedCopies(context.Background(), module); err != nil {
		// The master copy is updated; a failed sync leaves stale embedded
		// copies which the next sync repairs.
		zap.S().Errorw("failed to sync module to students",
			"moduleID", moduleID,
			"error", err)
	}

	b, err := json.Marshal(module)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// syncAssignedCopies pushes the updated master module into every student
// document holding an embedded copy
func (l Library) syncAssignedCopies(ctx context.Context, module models.LibraryModule) error {
	students, err := l.StudentDB.Find(ctx, bson.M{"modules.libraryId": module.ID})
	if err != nil {
		return err
	}

	for _, student := range students {
		changed := false
		for i := range student.Modules {
			if student.Modules[i].LibraryID != module.ID {
				continue
			}
			done := map[string]bool{}
			for _, v := range student.Modules[i].Videos {
				if v.Done {
					done[v.URL] = true
				}
			}
			videos := make([]models.VideoLesson, len(module.Videos))
			copy(videos, module.Videos)
			for j := range videos {
				videos[j].Done = done[videos[j].URL]
			}
			student.Modules[i] = models.AssignedModule{
				LibraryID:   module.ID,
				Title:       module.Title,
				Emoji:       module.Emoji,
				Description: module.Description,
				Videos:      videos,
			}
			changed = true
		}
		if !changed {
			continue
		}
		_, err = l.StudentDB.UpdateOne(ctx, bson.M{"_id": student.ID}, bson.M{"$set": bson.M{"modules": student.Modules}})
		if err != nil {
			return err
		}
	}
	return nil
}

// DeleteLibraryModuleHandler deletes a library module. Assigned copies are
// left on the students that already have it, matching the original behavior.
func (l Library) DeleteLibraryModuleHandler(w http.ResponseWriter, r *http.Request) {
	moduleID := mux.Vars(r)["module_id"]

	mID, err := primitive.ObjectIDFromHex(moduleID)
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	err = l.DB.DeleteOne(context.Background(), bson.M{"_id": mID})
	if err != nil {
		config.ErrorStatus("failed to delete library module", http.StatusInternalServerError, w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"deleted": true}`))
}

// AddVideoHandler appends a video lesson to a library module
func (l Library) AddVideoHandler(w http.ResponseWriter, r *http.Request) {
	moduleID := mux.Vars(r)["module_id"]

	mID, err := primitive.ObjectIDFromHex(moduleID)
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	var video models.VideoLesson
	if err := json.NewDecoder(r.Body).Decode(&video); err != nil {
		config.ErrorStatus("failed to decode request", http.StatusBadRequest, w, err)
		return
	}
	if video.Title == "" || video.URL == "" {
		config.ErrorStatus("video title and url are required", http.StatusBadRequest, w, fmt.Errorf("missing required fields"))
		return
	}
	video.Done = false

	_, err = l.DB.UpdateOne(context.Background(), bson.M{"_id": mID}, bson.M{"$push": bson.M{"videos": video}})
	if err != nil {
		config.ErrorStatus("failed to add video", http.StatusInternalServerError, w, err)
		return
	}

	w.WriteHeader(http.StatusCreated)
	w.Write([]byte(`{"added": true}`))
}
