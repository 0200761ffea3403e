package services

import (
	"errors"

	"github.com/addisrender/backend/internal/models"
	"gorm.io/gorm"
)

var ErrNotFound = errors.New("record not found")

// CatalogService manages the public content: service offerings shown on
// the services page and published portfolio projects.
type CatalogService struct {
	db  *gorm.DB
	hub *EventHub
}

func NewCatalogService(db *gorm.DB) *CatalogService {
	return &CatalogService{
		db:  db,
		hub: GetEventHub(),
	}
}

// ListServices returns active service offerings in display order.
func (s *CatalogService) ListServices() ([]models.ServiceOffering, error) {
	var services []models.ServiceOffering
	err := s.db.Where("is_active = ?", true).
		Order("sort_order ASC, id ASC").
		Find(&services).Error
	return services, err
}

// ListAllServices returns every offering, active or not, for the back office.
func (s *CatalogService) ListAllServices() ([]models.ServiceOffering, error) {
	var services []models.ServiceOffering
	err := s.db.Order("sort_order ASC, id ASC").Find(&services).Error
	return services, err
}

func (s *CatalogService) CreateService(offering *models.ServiceOffering) error {
	if err := s.db.Create(offering).Error; err != nil {
		return err
	}
	s.notifyServicesChanged()
	return nil
}

func (s *CatalogService) UpdateService(id uint, updates map[string]interface{}) (*models.ServiceOffering, error) {
	var offering models.ServiceOffering
	if err := s.db.First(&offering, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if err := s.db.Model(&offering).Updates(updates).Error; err != nil {
		return nil, err
	}
	s.notifyServicesChanged()
	return &offering, nil
}

func (s *CatalogService) DeleteService(id uint) error {
	result := s.db.Delete(&models.ServiceOffering{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	s.notifyServicesChanged()
	return nil
}

// notifyServicesChanged broadcasts the refreshed active catalog so
// connected visitors re-render without polling.
func (s *CatalogService) notifyServicesChanged() {
	services, err := s.ListServices()
	if err != nil {
		return
	}
	s.hub.Publish(Event{
		Type:    EventServices,
		Payload: services,
	})
}

// ListProjects returns published portfolio projects in display order.
func (s *CatalogService) ListProjects() ([]models.PortfolioProject, error) {
	var projects []models.PortfolioProject
	err := s.db.Where("is_published = ?", true).
		Order("sort_order ASC, created_at DESC").
		Find(&projects).Error
	return projects, err
}

// ListAllProjects returns every portfolio project for the back office.
func (s *CatalogService) ListAllProjects() ([]models.PortfolioProject, error) {
	var projects []models.PortfolioProject
	err := s.db.Order("sort_order ASC, created_at DESC").Find(&projects).Error
	return projects, err
}

func (s *CatalogService) CreateProject(project *models.PortfolioProject) error {
	return s.db.Create(project).Error
}

func (s *CatalogService) UpdateProject(id uint, updates map[string]interface{}) (*models.PortfolioProject, error) {
	var project models.PortfolioProject
	if err := s.db.First(&project, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if err := s.db.Model(&project).Updates(updates).Error; err != nil {
		return nil, err
	}
	return &project, nil
}

func (s *CatalogService) DeleteProject(id uint) error {
	result := s.db.Delete(&models.PortfolioProject{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
