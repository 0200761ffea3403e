package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/addisrender/backend/internal/config"
	"github.com/addisrender/backend/internal/models"
	"github.com/addisrender/backend/pkg/logger"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Quote file categories.
const (
	CategoryProject   = "project"
	CategoryReference = "reference"
)

// UploadFile is one incoming file in a quote submission.
type UploadFile struct {
	Name        string
	Size        int64
	ContentType string
	Data        io.Reader
}

// SubmitRequest is a complete quote submission: metadata plus the primary
// project files and optional reference material.
type SubmitRequest struct {
	UserID         uint
	Title          string
	Description    string
	Plan           string
	ProjectType    string
	PreferredDate  string
	ProjectFiles   []UploadFile
	ReferenceFiles []UploadFile
}

// FileOutcome reports what happened to a single file in the batch.
type FileOutcome struct {
	Name     string `json:"name"`
	Category string `json:"category"`
	Status   string `json:"status"` // uploaded | failed | rejected
	Error    string `json:"error,omitempty"`
	RecordID uint   `json:"record_id,omitempty"`
}

// SubmitResult aggregates the batch outcome. A batch with at least one
// uploaded file and at least one failure is a partial success.
type SubmitResult struct {
	Total    int           `json:"total"`
	Uploaded int           `json:"uploaded"`
	Failed   int           `json:"failed"`
	Rejected int           `json:"rejected"`
	Files    []FileOutcome `json:"files"`
}

// ProgressUpdate is the quote_progress event payload.
type ProgressUpdate struct {
	Completed int `json:"completed"`
	Total     int `json:"total"`
	Percent   int `json:"percent"`
}

var (
	ErrNoValidFiles  = errors.New("no valid project files to upload")
	ErrMissingTitle  = errors.New("project title is required")
	ErrMissingUserID = errors.New("user id is required")
)

// QuoteService runs the quote submission pipeline: validate, upload to
// blob storage with bounded concurrency, then record each file.
type QuoteService struct {
	db    *gorm.DB
	store BlobStore
	cfg   *config.UploadConfig
	hub   *EventHub
}

func NewQuoteService(db *gorm.DB, store BlobStore, cfg *config.UploadConfig) *QuoteService {
	return &QuoteService{
		db:    db,
		store: store,
		cfg:   cfg,
		hub:   GetEventHub(),
	}
}

// Submit processes a quote submission. Primary files are validated
// against the extension allow-list; rejected files are reported in the
// result without stopping the rest of the batch. Uploads run with
// bounded concurrency, and every file insert happens only after its
// blob upload succeeded.
func (s *QuoteService) Submit(ctx context.Context, req *SubmitRequest) (*SubmitResult, error) {
	if req.UserID == 0 {
		return nil, ErrMissingUserID
	}
	if strings.TrimSpace(req.Title) == "" {
		return nil, ErrMissingTitle
	}

	result := &SubmitResult{}

	type task struct {
		file        UploadFile
		category    string
		title       string
		description string
	}

	var tasks []task
	for _, f := range req.ProjectFiles {
		if !s.ExtensionAllowed(f.Name) {
			result.Rejected++
			result.Files = append(result.Files, FileOutcome{
				Name:     f.Name,
				Category: CategoryProject,
				Status:   "rejected",
				Error:    fmt.Sprintf("file type %s is not supported", strings.ToLower(filepath.Ext(f.Name))),
			})
			continue
		}
		if s.cfg.MaxFileSizeMB > 0 && f.Size > int64(s.cfg.MaxFileSizeMB)*1024*1024 {
			result.Rejected++
			result.Files = append(result.Files, FileOutcome{
				Name:     f.Name,
				Category: CategoryProject,
				Status:   "rejected",
				Error:    fmt.Sprintf("file exceeds %dMB limit", s.cfg.MaxFileSizeMB),
			})
			continue
		}
		tasks = append(tasks, task{
			file:        f,
			category:    CategoryProject,
			title:       req.Title,
			description: req.Description,
		})
	}

	// The batch needs at least one accepted project file; reference
	// material alone is not a submission.
	if len(tasks) == 0 {
		return result, ErrNoValidFiles
	}

	for _, f := range req.ReferenceFiles {
		tasks = append(tasks, task{
			file:        f,
			category:    CategoryReference,
			title:       "Reference",
			description: "Reference material",
		})
	}

	result.Total = len(tasks) + result.Rejected

	total := len(tasks)
	outcomes := make([]FileOutcome, total)

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		completed int
	)

	maxConcurrent := s.cfg.MaxConcurrent
	if maxConcurrent <= 0 {
		maxConcurrent = 1
	}
	sem := make(chan struct{}, maxConcurrent)

	for i, tk := range tasks {
		// Stop handing out work once the caller is gone; files not yet
		// started count as failed.
		if ctx.Err() != nil {
			outcomes[i] = FileOutcome{
				Name:     tk.file.Name,
				Category: tk.category,
				Status:   "failed",
				Error:    "submission canceled",
			}
			mu.Lock()
			completed++
			mu.Unlock()
			continue
		}

		wg.Add(1)
		go func(idx int, tk task) {
			defer wg.Done()

			sem <- struct{}{}
			defer func() { <-sem }()

			outcome := s.processFile(ctx, req, tk.file, tk.category, tk.title, tk.description)
			outcomes[idx] = outcome

			mu.Lock()
			completed++
			done := completed
			mu.Unlock()

			s.hub.Publish(Event{
				Type:   EventQuoteProgress,
				UserID: req.UserID,
				Payload: ProgressUpdate{
					Completed: done,
					Total:     total,
					Percent:   done * 100 / total,
				},
			})
		}(i, tk)
	}

	wg.Wait()

	for _, o := range outcomes {
		result.Files = append(result.Files, o)
		switch o.Status {
		case "uploaded":
			result.Uploaded++
		case "failed":
			result.Failed++
		}
	}

	return result, nil
}

// processFile uploads one file and records it. The quote_files row is
// written only after the blob upload succeeds, so a row always points at
// a stored object. A row insert failure leaves an orphaned blob behind;
// the reconciliation sweep picks those up later.
func (s *QuoteService) processFile(ctx context.Context, req *SubmitRequest, f UploadFile, category, title, description string) FileOutcome {
	outcome := FileOutcome{Name: f.Name, Category: category}

	key := storageKey(f.Name)

	if err := s.store.Upload(ctx, key, f.ContentType, f.Data); err != nil {
		logger.Warnf("quote upload failed: user=%d file=%s err=%v", req.UserID, f.Name, err)
		outcome.Status = "failed"
		outcome.Error = "upload failed"
		return outcome
	}

	record := models.QuoteFile{
		UserID:      req.UserID,
		Title:       title,
		Description: description,
		StoragePath: key,
		FileName:    f.Name,
		FileType:    f.ContentType,
		FileSize:    f.Size,
		Category:    category,
		Plan:        req.Plan,
		ProjectType: req.ProjectType,
		PreferredAt: req.PreferredDate,
	}
	if err := s.db.Create(&record).Error; err != nil {
		logger.Errorf("quote record insert failed, blob orphaned: key=%s err=%v", key, err)
		outcome.Status = "failed"
		outcome.Error = "failed to record file"
		return outcome
	}

	outcome.Status = "uploaded"
	outcome.RecordID = record.ID
	return outcome
}

// ExtensionAllowed reports whether a file name carries an allowed
// project file extension.
func (s *QuoteService) ExtensionAllowed(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	if ext == "" {
		return false
	}
	for _, allowed := range s.cfg.AllowedExtensions {
		if ext == allowed {
			return true
		}
	}
	return false
}

// storageKey builds a date-partitioned object key that keeps the original
// extension but never the original name.
func storageKey(fileName string) string {
	now := time.Now()
	return fmt.Sprintf("quotes/%d/%d/%d/%s%s",
		now.Year(), int(now.Month()), now.Day(),
		uuid.New().String(), strings.ToLower(filepath.Ext(fileName)))
}

// PlanServiceOptions maps a pricing plan to the service options it may
// select. An unknown or empty plan gets the full list.
func PlanServiceOptions(plan string) []string {
	switch plan {
	case "basic":
		return []string{"basic"}
	case "standard":
		return []string{"standard", "basic-rendering", "advanced-rendering"}
	case "premium":
		return []string{"advanced", "advanced-rendering", "animation", "full-package"}
	case "custom":
		return []string{"custom-service"}
	default:
		return []string{
			"basic", "standard", "advanced",
			"basic-rendering", "advanced-rendering",
			"animation", "full-package", "custom-service",
		}
	}
}

// DefaultProjectType returns the preselected project type for a plan.
func DefaultProjectType(plan string) string {
	switch plan {
	case "basic":
		return "modeling-only"
	case "standard":
		return "rendering-only"
	case "premium":
		return "modeling-rendering"
	case "custom":
		return "custom"
	default:
		return ""
	}
}

// ListUserFiles returns a user's quote files, newest first.
func (s *QuoteService) ListUserFiles(userID uint) ([]models.QuoteFile, error) {
	var files []models.QuoteFile
	err := s.db.Where("user_id = ?", userID).Order("created_at DESC").Find(&files).Error
	return files, err
}
