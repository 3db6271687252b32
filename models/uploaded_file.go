package models

import "time"

// UploadedFile records every image written to the uploads directory so the
// background sweeper can remove files that ended up referenced by no post
// (a crash between the file write and the record write leaves one behind).
type UploadedFile struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	FileName  string    `gorm:"size:512;not null" json:"file_name"`
	FilePath  string    `gorm:"size:1024;not null" json:"file_path"`
	URL       string    `gorm:"size:1024;not null" json:"url"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
}
