package config

import (
	"github.com/rs/zerolog/log"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	model "task-market.com/task-market/internal/models"
)

func NewDatabase(dsn string) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatal().Err(err).Msg("db open failed")
	}

	if err := db.AutoMigrate(&model.Task{}, &model.Submission{}, &model.User{}); err != nil {
		log.Fatal().Err(err).Msg("migration failed")
	}

	return db
}
