package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ReportState is the lifecycle state of a moderation report.
// A report starts in Checking and moves exactly once to Accepted or
// Rejected; it never transitions backward.
type ReportState string

const (
	ReportChecking ReportState = "Checking"
	ReportAccepted ReportState = "Accepted"
	ReportRejected ReportState = "Rejected"
)

// ContentType names the kind of content a report targets.
type ContentType string

const (
	ContentComment  ContentType = "comment"
	ContentRating   ContentType = "rating"
	ContentPlaylist ContentType = "playlist"
)

// ModerationReport is a request to review one piece of user-generated
// content. Exactly one of CommentID, RatingID, PlaylistID is set; the
// content store enforces that invariant on creation.
type ModerationReport struct {
	ID string `gorm:"primaryKey" json:"id"`

	CommentID  *string `gorm:"index" json:"commentId,omitempty"`
	RatingID   *string `gorm:"index" json:"ratingId,omitempty"`
	PlaylistID *string `gorm:"index" json:"playlistId,omitempty"`

	// ReporterID filed the report; AuthorID wrote the reported content.
	ReporterID string `gorm:"not null" json:"reporterId"`
	AuthorID   string `gorm:"not null;index" json:"authorId"`

	State ReportState `gorm:"type:text;not null;index" json:"state"`

	CreatedAt time.Time `gorm:"index" json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// BeforeCreate generates the report ID and puts the report into the
// initial Checking state when not set explicitly.
func (r *ModerationReport) BeforeCreate(tx *gorm.DB) (err error) {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	if r.State == "" {
		r.State = ReportChecking
	}
	return
}

// Target resolves which content reference is set on the report.
// ok is false when no reference is present.
func (r *ModerationReport) Target() (contentType ContentType, contentID string, ok bool) {
	switch {
	case r.CommentID != nil && *r.CommentID != "":
		return ContentComment, *r.CommentID, true
	case r.RatingID != nil && *r.RatingID != "":
		return ContentRating, *r.RatingID, true
	case r.PlaylistID != nil && *r.PlaylistID != "":
		return ContentPlaylist, *r.PlaylistID, true
	}
	return "", "", false
}
