package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Tag is a searchable label owned by a session. Rows are replaced wholesale
// when the owning session is saved; they have no lifecycle of their own.
type Tag struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name      string    `gorm:"size:100;not null;index" json:"name"`
	Category  string    `gorm:"size:50" json:"category"`
	SessionID uuid.UUID `gorm:"type:uuid;not null;index" json:"session_id"`
	CreatedAt time.Time `json:"created_at"`
}

func (t *Tag) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}
