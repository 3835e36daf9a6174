package database

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"studymate/models"
)

// Open opens (creating if necessary) the SQLite database at path and
// migrates the schema. The glebarez driver is CGO-free, so the binary
// stays portable.
func Open(path string) (*gorm.DB, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

// Migrate creates or updates all application tables.
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.User{},
		&models.Course{},
		&models.Document{},
		&models.DocumentChunk{},
		&models.ChatSession{},
		&models.ChatMessage{},
		&models.Citation{},
		&models.Quiz{},
		&models.QuizQuestion{},
	)
	if err != nil {
		return fmt.Errorf("automigrate: %w", err)
	}
	return nil
}
