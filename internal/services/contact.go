package services

import (
	"errors"
	"strings"

	"github.com/addisrender/backend/internal/models"
	"gorm.io/gorm"
)

// Contact submission statuses.
const (
	ContactStatusNew     = "new"
	ContactStatusRead    = "read"
	ContactStatusReplied = "replied"
	ContactStatusClosed  = "closed"
)

var validContactStatus = map[string]bool{
	ContactStatusNew:     true,
	ContactStatusRead:    true,
	ContactStatusReplied: true,
	ContactStatusClosed:  true,
}

var ErrInvalidStatus = errors.New("invalid contact status")

// ContactService handles inbound contact form submissions and their
// triage in the back office.
type ContactService struct {
	db *gorm.DB
}

func NewContactService(db *gorm.DB) *ContactService {
	return &ContactService{db: db}
}

type ContactRequest struct {
	Name    string `json:"name" binding:"required"`
	Email   string `json:"email" binding:"required,email"`
	Phone   string `json:"phone"`
	Subject string `json:"subject"`
	Message string `json:"message" binding:"required"`
}

func (s *ContactService) Submit(req *ContactRequest) (*models.ContactSubmission, error) {
	submission := models.ContactSubmission{
		Name:    strings.TrimSpace(req.Name),
		Email:   normalizeEmail(req.Email),
		Phone:   strings.TrimSpace(req.Phone),
		Subject: strings.TrimSpace(req.Subject),
		Message: strings.TrimSpace(req.Message),
		Status:  ContactStatusNew,
	}
	if err := s.db.Create(&submission).Error; err != nil {
		return nil, err
	}
	return &submission, nil
}

// List returns submissions newest first, optionally filtered by status.
func (s *ContactService) List(status string, page, pageSize int) ([]models.ContactSubmission, int64, error) {
	query := s.db.Model(&models.ContactSubmission{})
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var submissions []models.ContactSubmission
	err := query.Order("created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&submissions).Error
	return submissions, total, err
}

func (s *ContactService) UpdateStatus(id uint, status string) (*models.ContactSubmission, error) {
	if !validContactStatus[status] {
		return nil, ErrInvalidStatus
	}

	var submission models.ContactSubmission
	if err := s.db.First(&submission, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if err := s.db.Model(&submission).Update("status", status).Error; err != nil {
		return nil, err
	}
	return &submission, nil
}
