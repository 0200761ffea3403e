package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/addisrender/backend/internal/models"
	"github.com/addisrender/backend/pkg/logger"
	"gorm.io/gorm"
)

// DashboardStats is the back-office overview.
type DashboardStats struct {
	Users       int64 `json:"users"`
	QuoteFiles  int64 `json:"quote_files"`
	Contacts    int64 `json:"contacts"`
	NewContacts int64 `json:"new_contacts"`
	Projects    int64 `json:"projects"`
	Services    int64 `json:"services"`
}

// AdminService backs the back-office views: aggregate stats, user
// listing, and quote file management including blob cleanup.
type AdminService struct {
	db    *gorm.DB
	store BlobStore
}

func NewAdminService(db *gorm.DB, store BlobStore) *AdminService {
	return &AdminService{db: db, store: store}
}

func (s *AdminService) Stats() (*DashboardStats, error) {
	stats := &DashboardStats{}

	counts := []struct {
		model interface{}
		dest  *int64
	}{
		{&models.User{}, &stats.Users},
		{&models.QuoteFile{}, &stats.QuoteFiles},
		{&models.ContactSubmission{}, &stats.Contacts},
		{&models.PortfolioProject{}, &stats.Projects},
		{&models.ServiceOffering{}, &stats.Services},
	}
	for _, c := range counts {
		if err := s.db.Model(c.model).Count(c.dest).Error; err != nil {
			return nil, err
		}
	}

	if err := s.db.Model(&models.ContactSubmission{}).
		Where("status = ?", ContactStatusNew).
		Count(&stats.NewContacts).Error; err != nil {
		return nil, err
	}

	return stats, nil
}

// ListUsers returns registered users newest first. Password hashes are
// cleared before the slice leaves the service.
func (s *AdminService) ListUsers(page, pageSize int) ([]models.User, int64, error) {
	var total int64
	if err := s.db.Model(&models.User{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var users []models.User
	if err := s.db.Order("created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&users).Error; err != nil {
		return nil, 0, err
	}

	for i := range users {
		users[i].Password = ""
	}
	return users, total, nil
}

// SetUserActive enables or disables an account.
func (s *AdminService) SetUserActive(id uint, active bool) error {
	result := s.db.Model(&models.User{}).Where("id = ?", id).Update("is_active", active)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ListFiles returns uploaded quote files newest first, with their owner
// preloaded for display.
func (s *AdminService) ListFiles(page, pageSize int) ([]models.QuoteFile, int64, error) {
	var total int64
	if err := s.db.Model(&models.QuoteFile{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var files []models.QuoteFile
	err := s.db.Order("created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&files).Error
	return files, total, err
}

// FileURL returns a time-limited link for a stored file. download=true
// forces an attachment carrying the original filename; otherwise the
// browser may preview inline.
func (s *AdminService) FileURL(ctx context.Context, id uint, ttl time.Duration, download bool) (string, error) {
	var file models.QuoteFile
	if err := s.db.First(&file, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrNotFound
		}
		return "", err
	}

	disposition := "inline"
	if download {
		disposition = fmt.Sprintf("attachment; filename=%q", file.FileName)
	}
	return s.store.SignedURL(ctx, file.StoragePath, ttl, disposition)
}

// DeleteFile removes a quote file, blob first. A blob removal failure
// aborts the delete so the row keeps pointing at the object; the reverse
// order could strand an unreferenced blob behind a missing row.
func (s *AdminService) DeleteFile(ctx context.Context, id uint) error {
	var file models.QuoteFile
	if err := s.db.First(&file, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}

	if err := s.store.Remove(ctx, file.StoragePath); err != nil {
		return fmt.Errorf("remove blob: %w", err)
	}

	if err := s.db.Delete(&file).Error; err != nil {
		logger.Errorf("file row delete failed after blob removal: id=%d key=%s err=%v", id, file.StoragePath, err)
		return err
	}
	return nil
}
