package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// TagList is a free-text tag set stored as a jsonb array. Order is
// preserved exactly as entered; tags are not a managed vocabulary.
type TagList []string

// Value serializes the tag list for storage. An empty or nil list is
// stored as an empty array, never NULL.
func (t TagList) Value() (driver.Value, error) {
	if t == nil {
		t = TagList{}
	}
	return json.Marshal(t)
}

// Scan deserializes a jsonb array into the tag list.
func (t *TagList) Scan(value interface{}) error {
	if value == nil {
		*t = TagList{}
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, t)
	case string:
		return json.Unmarshal([]byte(v), t)
	default:
		return fmt.Errorf("unsupported tags column type %T", value)
	}
}

// Post represents a blog post in the Quill application.
type Post struct {
	ID       uint    `gorm:"primaryKey" json:"id"`
	Title    string  `gorm:"not null" json:"title"`
	Body     string  `gorm:"type:text;not null" json:"body"`
	Tags     TagList `gorm:"type:jsonb;not null;default:'[]'" json:"tags"`
	IsPublic bool    `gorm:"not null;default:true" json:"isPublic"`
	// AuthorID is set at creation from the requester and never changed by update.
	AuthorID  uint           `gorm:"not null;index" json:"authorId"`
	Author    User           `gorm:"foreignKey:AuthorID" json:"author"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}
