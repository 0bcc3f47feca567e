package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// SessionRecord is the catalog row written whenever a session is saved.
// The JSON document on disk stays the authoritative persisted form; the
// catalog only exists so the library view can list and filter past work.
type SessionRecord struct {
	ID              uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Title           string         `gorm:"size:255" json:"title"`
	ProjectType     string         `gorm:"size:100" json:"project_type"`
	Genre           string         `gorm:"size:100" json:"genre"`
	Description     string         `json:"description"`
	Tags            datatypes.JSON `json:"tags"`
	DocumentPath    string         `gorm:"size:500" json:"document_path"`
	BlenderFilePath string         `gorm:"size:500" json:"blender_file_path"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
}

func (r *SessionRecord) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// NewSessionRecord builds the catalog row for a saved session document.
func NewSessionRecord(s *Session, documentPath string) *SessionRecord {
	tags, _ := json.Marshal(s.Tags)
	rec := &SessionRecord{
		ID:           s.ID,
		Title:        s.Title,
		ProjectType:  s.ProjectType,
		Genre:        s.Genre,
		Description:  s.Description,
		Tags:         datatypes.JSON(tags),
		DocumentPath: documentPath,
		CreatedAt:    s.CreatedAt,
		UpdatedAt:    s.UpdatedAt,
	}
	if s.BlenderFilePath != nil {
		rec.BlenderFilePath = *s.BlenderFilePath
	}
	return rec
}
