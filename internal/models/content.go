package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

// Comment is a user comment left on a beat.
type Comment struct {
	ID        string `gorm:"primaryKey" json:"id"`
	BeatID    string `gorm:"not null;index" json:"beatId"`
	AuthorID  string `gorm:"not null;index" json:"authorId"`
	Text      string `gorm:"type:text;not null" json:"text"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (c *Comment) BeforeCreate(tx *gorm.DB) (err error) {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	return
}

// Rating is a star rating of a beat with an optional text comment.
// Only the comment text is subject to moderation.
type Rating struct {
	ID        string `gorm:"primaryKey" json:"id"`
	BeatID    string `gorm:"not null;index" json:"beatId"`
	AuthorID  string `gorm:"not null;index" json:"authorId"`
	Stars     int    `gorm:"not null" json:"stars"`
	Comment   string `gorm:"type:text" json:"comment"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (r *Rating) BeforeCreate(tx *gorm.DB) (err error) {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	return
}

// Playlist is a user-curated collection of beats.
type Playlist struct {
	ID          string         `gorm:"primaryKey" json:"id"`
	OwnerID     string         `gorm:"not null;index" json:"ownerId"`
	Title       string         `gorm:"type:text;not null" json:"title"`
	Description string         `gorm:"type:text" json:"description"`
	Tags        pq.StringArray `gorm:"type:text[]" json:"tags"`
	IsPublic    bool           `json:"isPublic"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (p *Playlist) BeforeCreate(tx *gorm.DB) (err error) {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	return
}

// ModerationText is the text blob the classifier sees for a playlist:
// title and description concatenated.
func (p *Playlist) ModerationText() string {
	return strings.TrimSpace(p.Title + "\n" + p.Description)
}
