package models

import (
	"fmt"

	"github.com/addisrender/backend/internal/config"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

func InitDB(cfg *config.DatabaseConfig) error {
	var dialector gorm.Dialector

	switch cfg.Driver {
	case "sqlite":
		dialector = sqlite.Open(cfg.DSN)
	case "mysql":
		dialector = mysql.Open(cfg.DSN)
	case "postgres":
		dialector = postgres.Open(cfg.DSN)
	default:
		return fmt.Errorf("unsupported database driver: %s", cfg.Driver)
	}

	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	}

	db, err := gorm.Open(dialector, gormConfig)
	if err != nil {
		return fmt.Errorf("failed to connect database: %w", err)
	}

	DB = db
	return nil
}

func AutoMigrate() error {
	return DB.AutoMigrate(
		&User{},
		&RefreshToken{},
		&QuoteFile{},
		&ContactSubmission{},
		&ServiceOffering{},
		&PortfolioProject{},
	)
}

func GetDB() *gorm.DB {
	return DB
}

// SeedDefaultData creates the default service catalog if the table is empty.
func SeedDefaultData() error {
	var count int64
	DB.Model(&ServiceOffering{}).Count(&count)
	if count > 0 {
		return nil
	}

	defaults := []ServiceOffering{
		{Title: "3D Modeling", Description: "Accurate architectural models built from your CAD drawings.", Icon: "cube", Plan: "basic", SortOrder: 1, IsActive: true},
		{Title: "Basic Rendering", Description: "Still exterior renders for residential projects.", Icon: "image", Plan: "standard", SortOrder: 2, IsActive: true},
		{Title: "Advanced Rendering", Description: "Photorealistic interior and exterior visualization.", Icon: "sparkles", Plan: "standard", SortOrder: 3, IsActive: true},
		{Title: "Animation", Description: "Walkthrough and flyover animations.", Icon: "film", Plan: "premium", SortOrder: 4, IsActive: true},
		{Title: "Full Package", Description: "Modeling, rendering and animation as one engagement.", Icon: "package", Plan: "premium", SortOrder: 5, IsActive: true},
		{Title: "Custom Service", Description: "Tailored scope for projects that fit no tier.", Icon: "wrench", Plan: "custom", SortOrder: 6, IsActive: true},
	}

	for _, svc := range defaults {
		if err := DB.Create(&svc).Error; err != nil {
			return err
		}
	}

	return nil
}
