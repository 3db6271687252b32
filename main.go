package main

import (
	"time"

	"github.com/ahmaat19/Personal-Finance-Blog/config"
	"github.com/ahmaat19/Personal-Finance-Blog/models"
	"github.com/ahmaat19/Personal-Finance-Blog/routes"
	"github.com/ahmaat19/Personal-Finance-Blog/utils"
)

func main() {
	cfg := config.Load()

	if err := utils.InitLogger(cfg); err != nil {
		panic(err)
	}

	db := config.InitDatabase(
		&models.User{},
		&models.Post{},
		&models.Comment{},
		&models.Like{},
		&models.UploadedFile{},
	)

	r := routes.SetupRouter(db)

	// Reclaim upload files that no post ended up referencing.
	utils.StartOrphanSweeper(db, time.Duration(cfg.OrphanSweepMinutes)*time.Minute)

	utils.Sugar.Infof("Starting server on port %s (graceful)", cfg.AppPort)
	if err := utils.GraceServer(":"+cfg.AppPort, r); err != nil {
		utils.Sugar.Fatalf("server stopped with error: %v", err)
	}
}
