package models

import (
	"time"

	"gorm.io/gorm"
)

// Photo is the aggregate root: an uploaded image with its caption, an ordered
// comment thread and the set of users who like it.
type Photo struct {
	ID           ID          `gorm:"type:varchar(36);primaryKey" json:"id"`
	UserID       ID          `gorm:"type:varchar(36);index;not null" json:"user_id"`
	User         *User       `gorm:"foreignKey:UserID" json:"-"`
	FileName     string      `gorm:"not null" json:"file_name"`
	StorageKey   string      `json:"-"`
	ThumbnailURL string      `json:"thumbnail,omitempty"`
	ThumbnailKey string      `json:"-"`
	Caption      string      `json:"caption"`
	Width        int         `json:"width"`
	Height       int         `json:"height"`
	DateTime     time.Time   `gorm:"index;not null" json:"date_time"`
	Comments     []Comment   `gorm:"foreignKey:PhotoID" json:"-"`
	Likes        []PhotoLike `gorm:"foreignKey:PhotoID" json:"-"`
}

func (p *Photo) BeforeCreate(_ *gorm.DB) error {
	if p.ID.IsZero() {
		p.ID = NewID()
	}
	if p.DateTime.IsZero() {
		p.DateTime = time.Now().UTC()
	}
	return nil
}

// FindComment returns the comment with the given identity, if present.
func (p *Photo) FindComment(id ID) (*Comment, bool) {
	for i := range p.Comments {
		if p.Comments[i].ID.Equal(id) {
			return &p.Comments[i], true
		}
	}
	return nil, false
}

// LikedBy reports whether userID is in the photo's likes set.
func (p *Photo) LikedBy(userID ID) bool {
	for _, like := range p.Likes {
		if like.UserID.Equal(userID) {
			return true
		}
	}
	return false
}

// LikerIDs returns the likes set in stored order.
func (p *Photo) LikerIDs() []ID {
	ids := make([]ID, 0, len(p.Likes))
	for _, like := range p.Likes {
		ids = append(ids, like.UserID)
	}
	return ids
}

// Comment belongs to exactly one photo. Only its author may change it.
type Comment struct {
	ID       ID        `gorm:"type:varchar(36);primaryKey" json:"id"`
	PhotoID  ID        `gorm:"type:varchar(36);index;not null" json:"photo_id"`
	UserID   ID        `gorm:"type:varchar(36);index;not null" json:"user_id"`
	User     *User     `gorm:"foreignKey:UserID" json:"-"`
	Comment  string    `gorm:"type:text;not null" json:"comment"`
	DateTime time.Time `gorm:"not null" json:"date_time"`
}

func (c *Comment) BeforeCreate(_ *gorm.DB) error {
	if c.ID.IsZero() {
		c.ID = NewID()
	}
	if c.DateTime.IsZero() {
		c.DateTime = time.Now().UTC()
	}
	return nil
}

// PhotoLike is one membership of a photo's likes set. The composite primary
// key keeps a user from liking the same photo twice.
type PhotoLike struct {
	PhotoID   ID        `gorm:"type:varchar(36);primaryKey" json:"photo_id"`
	UserID    ID        `gorm:"type:varchar(36);primaryKey" json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

func (PhotoLike) TableName() string {
	return "photo_likes"
}

// LikeOutcome reports the result of a like toggle.
type LikeOutcome string

const (
	LikeOutcomeLiked   LikeOutcome = "liked"
	LikeOutcomeUnliked LikeOutcome = "unliked"
)

// Message is the user-facing form of the outcome.
func (o LikeOutcome) Message() string {
	if o == LikeOutcomeLiked {
		return "Liked"
	}
	return "Unliked"
}
