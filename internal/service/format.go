package service

import (
	"time"

	"photoshare/internal/models"
)

// UnknownUserName stands in for comment authors that no longer resolve.
const UnknownUserName = "Unknown user"

// AuthorView is the public projection of a user embedded in photo payloads.
type AuthorView struct {
	ID        models.ID `json:"id"`
	LoginName string    `json:"login_name"`
	Avatar    string    `json:"avatar"`
}

// CommentView is one entry of a formatted comment thread.
type CommentView struct {
	ID        models.ID `json:"id"`
	Comment   string    `json:"comment"`
	DateTime  time.Time `json:"date_time"`
	UserID    models.ID `json:"user_id"`
	LoginName string    `json:"login_name"`
	Avatar    string    `json:"avatar"`
}

// PhotoView is the client-facing shape of a photo aggregate.
type PhotoView struct {
	ID         models.ID     `json:"id"`
	UserID     models.ID     `json:"user_id"`
	FileName   string        `json:"file_name"`
	Thumbnail  string        `json:"thumbnail,omitempty"`
	Caption    string        `json:"caption"`
	Width      int           `json:"width,omitempty"`
	Height     int           `json:"height,omitempty"`
	DateTime   time.Time     `json:"date_time"`
	Likes      []models.ID   `json:"likes"`
	Author     *AuthorView   `json:"author"`
	Comments   []CommentView `json:"comments"`
	LikesCount int           `json:"likesCount"`
	IsLiked    bool          `json:"isLiked"`
}

// FormatPhoto shapes p for viewer. An empty viewer is anonymous and never
// likes anything. The result depends only on its inputs.
func FormatPhoto(p *models.Photo, viewer models.ID) PhotoView {
	likes := p.LikerIDs()

	view := PhotoView{
		ID:         p.ID,
		UserID:     p.UserID,
		FileName:   p.FileName,
		Thumbnail:  p.ThumbnailURL,
		Caption:    p.Caption,
		Width:      p.Width,
		Height:     p.Height,
		DateTime:   p.DateTime,
		Likes:      likes,
		Comments:   make([]CommentView, 0, len(p.Comments)),
		LikesCount: len(likes),
		IsLiked:    !viewer.IsZero() && p.LikedBy(viewer),
	}

	if p.User != nil {
		view.Author = &AuthorView{
			ID:        p.User.ID,
			LoginName: p.User.LoginName,
			Avatar:    p.User.Avatar,
		}
	}

	for _, c := range p.Comments {
		cv := CommentView{
			ID:        c.ID,
			Comment:   c.Comment,
			DateTime:  c.DateTime,
			UserID:    c.UserID,
			LoginName: UnknownUserName,
		}
		if c.User != nil {
			cv.LoginName = c.User.LoginName
			cv.Avatar = c.User.Avatar
		}
		view.Comments = append(view.Comments, cv)
	}

	return view
}

// FormatPhotos formats every photo for viewer. The result is never nil.
func FormatPhotos(photos []*models.Photo, viewer models.ID) []PhotoView {
	views := make([]PhotoView, 0, len(photos))
	for _, p := range photos {
		views = append(views, FormatPhoto(p, viewer))
	}
	return views
}
