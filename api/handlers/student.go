package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/mindsell/tutor-portal-api/config"
	"github.com/mindsell/tutor-portal-api/databases"
	"github.com/mindsell/tutor-portal-api/models"
)

var (
	// Page denotes the starting Page for pagination results
	Page = 0
)

// Student exported for testing purposes
type Student struct {
	DB       databases.StudentDatabase
	LibDB    databases.LibraryDatabase
	Notifier Notification
}

// initials builds the avatar initials from a student name, e.g. "Mario
// Rossi" -> "MR"
func initials(name string) string {
	var b strings.Builder
	for _, w := range strings.Fields(name) {
		b.WriteString(strings.ToUpper(string([]rune(w)[0])))
		if b.Len() >= 2 {
			break
		}
	}
	return b.String()
}

// StudentsHandler returns all students, optionally filtered by a name search
func (s Student) StudentsHandler(w http.ResponseWriter, r *http.Request) {
	Limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil {
		zap.S().Warnf(fmt.Sprintf("limit not set, using default of %v, err: %v", Limit|10, err))
	}
	limit64 := int64(Limit)
	Page = getPage(Page, r)
	skip64 := int64(Page * Limit)

	filter := bson.M{}
	if search := r.URL.Query().Get("search"); search != "" {
		filter["name"] = bson.M{"$regex": search, "$options": "i"}
	}

	dbResp, err := s.DB.Find(context.TODO(), filter, &options.FindOptions{Limit: &limit64, Skip: &skip64})
	if err != nil {
		config.ErrorStatus("failed to get students", http.StatusNotFound, w, err)
		return
	}
	// Because the frontend requires that the data elements exist, if len == 0
	// then we will just return an empty data object
	if len(dbResp) == 0 {
		dbResp = []models.Student{}
	}
	b, err := json.Marshal(dbResp)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// StudentByIDHandler returns a student by ID
func (s Student) StudentByIDHandler(w http.ResponseWriter, r *http.Request) {
	studentID := mux.Vars(r)["student_id"]

	zap.S().Debugf("student_id: %v", studentID)

	sID, err := primitive.ObjectIDFromHex(studentID)
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	dbResp, err := s.DB.FindOne(context.Background(), bson.M{"_id": sID})
	if err != nil {
		config.ErrorStatus("failed to get student by ID", http.StatusNotFound, w, err)
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

// StudentCreateHandler creates a student
func (s Student) StudentCreateHandler(w http.ResponseWriter, r *http.Request) {
	var req models.CreateStudentRequest
	err := json.NewDecoder(r.Body).Decode(&req)
	if err != nil {
		config.ErrorStatus("failed to decode request", http.StatusBadRequest, w, err)
		return
	}
	if req.Name == "" || req.Email == "" || req.Password == "" {
		config.ErrorStatus("name, email and password are required", http.StatusBadRequest, w, fmt.Errorf("missing required fields"))
		return
	}

	// check if the student already exists
	existing, _ := s.DB.FindOne(context.Background(), bson.M{"email": req.Email})
	if existing != nil {
		config.ErrorStatus("email already exists", http.StatusConflict, w, fmt.Errorf("duplicate email"))
		return
	}

	// hash the password
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		config.ErrorStatus("failed to hash password", http.StatusInternalServerError, w, err)
		return
	}

	student := models.Student{
		ID:         primitive.NewObjectID(),
		Name:       req.Name,
		Email:      req.Email,
		Password:   string(hashedPassword),
		Plan:       req.Plan,
		Avatar:     initials(req.Name),
		Modules:    []models.AssignedModule{},
		Packages:   []models.SessionPackage{},
		Recordings: []models.Recording{},
		Contents:   []models.ContentItem{},
		Promos:     []models.Offer{},
		CreatedAt:  primitive.NewDateTimeFromTime(time.Now()),
	}

	_, err = s.DB.InsertOne(context.Background(), student)
	if err != nil {
		config.ErrorStatus("failed to insert student", http.StatusInternalServerError, w, err)
		return
	}

	b, err := json.Marshal(student)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
	w.Write(b)
}

// UpdateStudentHandler merges the provided fields into the student document
func (s Student) UpdateStudentHandler(w http.ResponseWriter, r *http.Request) {
	studentID := mux.Vars(r)["student_id"]

	sID, err := primitive.ObjectIDFromHex(studentID)
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	var fields map[string]interface{}
	if err := json.NewDecoder(r.Body).Decode(&fields); err != nil {
		config.ErrorStatus("failed to decode request", http.StatusBadRequest, w, err)
		return
	}
	// never allow identity or credential fields through a merge
	delete(fields, "_id")
	delete(fields, "password")
	delete(fields, "email")

	res, err := s.DB.UpdateOne(context.Background(), bson.M{"_id": sID}, bson.M{"$set": fields})
	if err != nil {
		config.ErrorStatus("failed to update student", http.StatusInternalServerError, w, err)
		return
	}

	b, err := json.Marshal(map[string]int64{"updated": res.ModifiedCount})
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// DeleteStudentHandler deletes a student by ID
func (s Student) DeleteStudentHandler(w http.ResponseWriter, r *http.Request) {
	studentID := mux.Vars(r)["student_id"]

	sID, err := primitive.ObjectIDFromHex(studentID)
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	err = s.DB.DeleteOne(context.Background(), bson.M{"_id": sID})
	if err != nil {
		config.ErrorStatus("failed to delete student", http.StatusInternalServerError, w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"deleted": true}`))
}

// UpdateNotesHandler replaces the coach's private notes for a student
func (s Student) UpdateNotesHandler(w http.ResponseWriter, r *http.Request) {
	studentID := mux.Vars(r)["student_id"]

	sID, err := primitive.ObjectIDFromHex(studentID)
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	var req struct {
		Notes string `json:"notes"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("failed to decode request", http.StatusBadRequest, w, err)
		return
	}

	_, err = s.DB.UpdateOne(context.Background(), bson.M{"_id": sID}, bson.M{"$set": bson.M{"notes": req.Notes}})
	if err != nil {
		config.ErrorStatus("failed to update notes", http.StatusInternalServerError, w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"saved": true}`))
}

// AssignModulesHandler copies the requested library modules into the student
// document and notifies the student. Already-assigned modules keep their
// progress and are skipped.
func (s Student) AssignModulesHandler(w http.ResponseWriter, r *http.Request) {
	studentID := mux.Vars(r)["student_id"]

	sID, err := primitive.ObjectIDFromHex(studentID)
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	var req struct {
		ModuleIDs []string `json:"moduleIds"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("failed to decode request", http.StatusBadRequest, w, err)
		return
	}

	student, err := s.DB.FindOne(context.Background(), bson.M{"_id": sID})
	if err != nil {
		config.ErrorStatus("failed to get student by ID", http.StatusNotFound, w, err)
		return
	}

	assigned := map[primitive.ObjectID]bool{}
	for _, m := range student.Modules {
		assigned[m.LibraryID] = true
	}

	added := 0
	for _, hex := range req.ModuleIDs {
		mID, err := primitive.ObjectIDFromHex(hex)
		if err != nil {
			config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
			return
		}
		if assigned[mID] {
			continue
		}
		module, err := s.LibDB.FindOne(context.Background(), bson.M{"_id": mID})
		if err != nil {
			config.ErrorStatus("failed to get library module", http.StatusNotFound, w, err)
			return
		}
		student.Modules = append(student.Modules, models.AssignedModule{
			LibraryID:   module.ID,
			Title:       module.Title,
			Emoji:       module.Emoji,
			Description: module.Description,
			Videos:      module.Videos,
		})
		added++
	}

	if added > 0 {
		_, err = s.DB.UpdateOne(context.Background(), bson.M{"_id": sID}, bson.M{"$set": bson.M{"modules": student.Modules}})
		if err != nil {
			config.ErrorStatus("failed to update student modules", http.StatusInternalServerError, w, err)
			return
		}
		s.Notifier.notify(context.Background(), studentID, "📚", "Nuovo modulo assegnato!", "Il coach ti ha assegnato nuovi contenuti.")
	}

	b, err := json.Marshal(map[string]int{"assigned": added})
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// MarkVideoDoneHandler flips the done flag on one video of an assigned module
func (s Student) MarkVideoDoneHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	studentID := vars["student_id"]
	moduleID := vars["module_id"]

	sID, err := primitive.ObjectIDFromHex(studentID)
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}
	mID, err := primitive.ObjectIDFromHex(moduleID)
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}
	videoIndex, err := strconv.Atoi(vars["video_index"])
	if err != nil {
		config.ErrorStatus("invalid video index", http.StatusBadRequest, w, err)
		return
	}

	var req struct {
		Done bool `json:"done"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("failed to decode request", http.StatusBadRequest, w, err)
		return
	}

	student, err := s.DB.FindOne(context.Background(), bson.M{"_id": sID})
	if err != nil {
		config.ErrorStatus("failed to get student by ID", http.StatusNotFound, w, err)
		return
	}

	found := false
	for i := range student.Modules {
		if student.Modules[i].LibraryID != mID {
			continue
		}
		if videoIndex < 0 || videoIndex >= len(student.Modules[i].Videos) {
			config.ErrorStatus("video index out of range", http.StatusBadRequest, w, fmt.Errorf("index %d", videoIndex))
			return
		}
		student.Modules[i].Videos[videoIndex].Done = req.Done
		found = true
		break
	}
	if !found {
		config.ErrorStatus("module not assigned to student", http.StatusNotFound, w, fmt.Errorf("module %s", moduleID))
		return
	}

	_, err = s.DB.UpdateOne(context.Background(), bson.M{"_id": sID}, bson.M{"$set": bson.M{"modules": student.Modules}})
	if err != nil {
		config.ErrorStatus("failed to update student modules", http.StatusInternalServerError, w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"saved": true}`))
}

// AddPackageHandler appends a session package to a student
func (s Student) AddPackageHandler(w http.ResponseWriter, r *http.Request) {
	studentID := mux.Vars(r)["student_id"]

	sID, err := primitive.ObjectIDFromHex(studentID)
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	var pkg models.SessionPackage
	if err := json.NewDecoder(r.Body).Decode(&pkg); err != nil {
		config.ErrorStatus("failed to decode request", http.StatusBadRequest, w, err)
		return
	}
	if pkg.Label == "" || pkg.Total < 1 {
		config.ErrorStatus("label and a positive total are required", http.StatusBadRequest, w, fmt.Errorf("invalid package"))
		return
	}
	pkg.Used = 0

	_, err = s.DB.UpdateOne(context.Background(), bson.M{"_id": sID}, bson.M{"$push": bson.M{"packages": pkg}})
	if err != nil {
		config.ErrorStatus("failed to add package", http.StatusInternalServerError, w, err)
		return
	}

	s.Notifier.notify(context.Background(), studentID, pkg.Icon, "Nuovo pacchetto sessioni!", fmt.Sprintf("%s: %d sessioni disponibili.", pkg.Label, pkg.Total))

	w.WriteHeader(http.StatusCreated)
	w.Write([]byte(`{"added": true}`))
}

// UseSessionHandler increments the used counter on a session package, capped
// at the package total
func (s Student) UseSessionHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	studentID := vars["student_id"]

	sID, err := primitive.ObjectIDFromHex(studentID)
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}
	pkgIndex, err := strconv.Atoi(vars["package_index"])
	if err != nil {
		config.ErrorStatus("invalid package index", http.StatusBadRequest, w, err)
		return
	}

	student, err := s.DB.FindOne(context.Background(), bson.M{"_id": sID})
	if err != nil {
		config.ErrorStatus("failed to get student by ID", http.StatusNotFound, w, err)
		return
	}
	if pkgIndex < 0 || pkgIndex >= len(student.Packages) {
		config.ErrorStatus("package index out of range", http.StatusBadRequest, w, fmt.Errorf("index %d", pkgIndex))
		return
	}

	pkg := &student.Packages[pkgIndex]
	if pkg.Used >= pkg.Total {
		config.ErrorStatus("no sessions left in package", http.StatusConflict, w, fmt.Errorf("%d of %d used", pkg.Used, pkg.Total))
		return
	}
	pkg.Used++

	_, err = s.DB.UpdateOne(context.Background(), bson.M{"_id": sID}, bson.M{"$set": bson.M{"packages": student.Packages}})
	if err != nil {
		config.ErrorStatus("failed to update packages", http.StatusInternalServerError, w, err)
		return
	}

	s.Notifier.notify(context.Background(), studentID, "✅", "Sessione completata!", fmt.Sprintf("%s: %d/%d sessioni usate.", pkg.Label, pkg.Used, pkg.Total))

	b, err := json.Marshal(pkg)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// AddRecordingHandler appends a recorded session to a student
func (s Student) AddRecordingHandler(w http.ResponseWriter, r *http.Request) {
	studentID := mux.Vars(r)["student_id"]

	sID, err := primitive.ObjectIDFromHex(studentID)
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	var rec models.Recording
	if err := json.NewDecoder(r.Body).Decode(&rec); err != nil {
		config.ErrorStatus("failed to decode request", http.StatusBadRequest, w, err)
		return
	}

	_, err = s.DB.UpdateOne(context.Background(), bson.M{"_id": sID}, bson.M{"$push": bson.M{"recordings": rec}})
	if err != nil {
		config.ErrorStatus("failed to add recording", http.StatusInternalServerError, w, err)
		return
	}

	s.Notifier.notify(context.Background(), studentID, "🎥", "Nuova registrazione disponibile!", rec.Title)

	w.WriteHeader(http.StatusCreated)
	w.Write([]byte(`{"added": true}`))
}

// AddContentHandler appends a material to a student and notifies them of the
// upload
func (s Student) AddContentHandler(w http.ResponseWriter, r *http.Request) {
	studentID := mux.Vars(r)["student_id"]

	sID, err := primitive.ObjectIDFromHex(studentID)
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	var item models.ContentItem
	if err := json.NewDecoder(r.Body).Decode(&item); err != nil {
		config.ErrorStatus("failed to decode request", http.StatusBadRequest, w, err)
		return
	}

	_, err = s.DB.UpdateOne(context.Background(), bson.M{"_id": sID}, bson.M{"$push": bson.M{"contents": item}})
	if err != nil {
		config.ErrorStatus("failed to add content", http.StatusInternalServerError, w, err)
		return
	}

	s.Notifier.notify(context.Background(), studentID, "📎", "Nuovo materiale disponibile!", "Il coach ha caricato nuovo materiale.")

	w.WriteHeader(http.StatusCreated)
	w.Write([]byte(`{"added": true}`))
}
