package utils

import (
	"path/filepath"
	"time"

	"gorm.io/gorm"

	"github.com/ahmaat19/Personal-Finance-Blog/config"
	"github.com/ahmaat19/Personal-Finance-Blog/models"
)

// StartOrphanSweeper launches a background goroutine that periodically
// deletes uploaded image files no post references anymore. The grace window
// keeps files for in-flight creates alive. Best effort; failures are logged.
func StartOrphanSweeper(db *gorm.DB, interval time.Duration) {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	go func() {
		for {
			// Sleep first to avoid racing startup migrations.
			time.Sleep(interval)
			sweepOrphans(db)
		}
	}()
}

func sweepOrphans(db *gorm.DB) {
	cfg := config.Get()
	cutoff := time.Now().Add(-time.Duration(cfg.OrphanGraceMinutes) * time.Minute)

	var items []models.UploadedFile
	err := db.
		Where("created_at <= ?", cutoff).
		Where("file_name NOT IN (?)", db.Model(&models.Post{}).Select("image_file_name")).
		Limit(100).
		Find(&items).Error
	if err != nil {
		if Sugar != nil {
			Sugar.Warnf("orphan sweep query failed: %v", err)
		}
		return
	}

	for _, it := range items {
		RemoveImage(filepath.Dir(it.FilePath), filepath.Base(it.FilePath))
		// Drop the row regardless of the unlink outcome.
		if err := db.Delete(&models.UploadedFile{}, it.ID).Error; err != nil {
			if Sugar != nil {
				Sugar.Warnf("orphan sweep delete row failed: %v", err)
			}
		}
	}
}
