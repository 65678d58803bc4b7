package models

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Student holds the structure for the students collection in mongo. Content
// assigned to a student (modules, packages, recordings, materials, promos) is
// embedded in the student document, the same shape the dashboard consumes.
type Student struct {
	ID         primitive.ObjectID `json:"_id" bson:"_id"`
	Name       string             `json:"name" bson:"name"`
	Email      string             `json:"email" bson:"email"`
	Password   string             `json:"-" bson:"password"` // bcrypt hash, never serialized
	Plan       string             `json:"plan" bson:"plan"`
	Avatar     string             `json:"avatar" bson:"avatar"` // initials, e.g. "MR"
	Notes      string             `json:"notes" bson:"notes"`
	Modules    []AssignedModule   `json:"modules" bson:"modules"`
	Packages   []SessionPackage   `json:"packages" bson:"packages"`
	Recordings []Recording        `json:"recordings" bson:"recordings"`
	Contents   []ContentItem      `json:"contents" bson:"contents"`
	Promos     []Offer            `json:"promos" bson:"promos"`
	CreatedAt  primitive.DateTime `json:"createdAt" bson:"createdAt"`
}

// AssignedModule is a copy of a library module embedded in a student document,
// carrying per-student video progress. LibraryID points back at the library
// module it was copied from so library edits can be re-synced.
type AssignedModule struct {
	LibraryID   primitive.ObjectID `json:"libraryId" bson:"libraryId"`
	Title       string             `json:"title" bson:"title"`
	Emoji       string             `json:"emoji" bson:"emoji"`
	Description string             `json:"description" bson:"description"`
	Videos      []VideoLesson      `json:"videos" bson:"videos"`
}

// VideoLesson is a single video inside a module. Done is per-student progress
// and only meaningful on embedded copies.
type VideoLesson struct {
	Title    string `json:"title" bson:"title"`
	Duration string `json:"duration" bson:"duration"`
	URL      string `json:"url" bson:"url"`
	Emoji    string `json:"emoji" bson:"emoji"`
	Done     bool   `json:"done" bson:"done"`
}

// SessionPackage tracks a bookable block of one-to-one sessions
type SessionPackage struct {
	Label string `json:"label" bson:"label"`
	Icon  string `json:"icon" bson:"icon"`
	Used  int    `json:"used" bson:"used"`
	Total int    `json:"total" bson:"total"`
}

// Recording is a recorded session available to the student
type Recording struct {
	Title    string `json:"title" bson:"title"`
	Date     string `json:"date" bson:"date"`
	Duration string `json:"duration" bson:"duration"`
	Coach    string `json:"coach" bson:"coach"`
	URL      string `json:"url" bson:"url"`
}

// ContentItem is a downloadable material (PDF, worksheet, ...)
type ContentItem struct {
	Title string `json:"title" bson:"title"`
	Type  string `json:"type" bson:"type"`
	Size  string `json:"size" bson:"size"`
	Emoji string `json:"emoji" bson:"emoji"`
	URL   string `json:"url" bson:"url"`
}

// CreateStudentRequest holds the structure for creating a new student
type CreateStudentRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Plan     string `json:"plan"`
}
