package models

import "time"

// Image holds the metadata of a post's uploaded image. It is never created on
// its own: it is derived from the multipart upload at post create/update time
// and its backing file is unlinked when superseded or when the post goes away.
type Image struct {
	FileName   string `gorm:"size:512" json:"file_name"`
	MimeType   string `gorm:"size:64" json:"mime_type"`
	Size       int64  `json:"size"`
	PublicPath string `gorm:"size:1024" json:"path"`
}

// Post represents a blog post created by a user. Comments and likes live only
// inside their post; the author reference is resolved to a display name on read.
type Post struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"index;not null" json:"user_id"`
	Title     string    `gorm:"size:255;not null" json:"title"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	Status    string    `gorm:"size:32" json:"status"`
	Category  []string  `gorm:"serializer:json;type:text" json:"category"`
	Image     Image     `gorm:"embedded;embeddedPrefix:image_" json:"image"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	User      User      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"author"`
	Comments  []Comment `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"comments"`
	Likes     []Like    `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"likes"`
}
