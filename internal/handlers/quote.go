package handlers

import (
	"errors"
	"fmt"
	"mime/multipart"

	"github.com/addisrender/backend/internal/config"
	"github.com/addisrender/backend/internal/middleware"
	"github.com/addisrender/backend/internal/services"
	"github.com/addisrender/backend/pkg/response"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type QuoteHandler struct {
	quoteService *services.QuoteService
}

func NewQuoteHandler(db *gorm.DB, store services.BlobStore, cfg *config.Config) *QuoteHandler {
	return &QuoteHandler{
		quoteService: services.NewQuoteService(db, store, &cfg.Upload),
	}
}

// Submit accepts a multipart quote submission with project and reference files
// POST /api/quotes
func (h *QuoteHandler) Submit(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		response.BadRequest(c, "invalid multipart form")
		return
	}

	req := &services.SubmitRequest{
		UserID:        middleware.GetUserID(c),
		Title:         c.PostForm("title"),
		Description:   c.PostForm("description"),
		Plan:          c.PostForm("plan"),
		ProjectType:   c.PostForm("project_type"),
		PreferredDate: c.PostForm("preferred_date"),
	}

	projectFiles, closers, err := openUploads(form.File["project_files"])
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	defer closeAll(closers)
	req.ProjectFiles = projectFiles

	referenceFiles, refClosers, err := openUploads(form.File["reference_files"])
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	defer closeAll(refClosers)
	req.ReferenceFiles = referenceFiles

	result, err := h.quoteService.Submit(c.Request.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrNoValidFiles),
			errors.Is(err, services.ErrMissingTitle):
			response.BadRequest(c, err.Error())
		default:
			response.Error(c, err)
		}
		return
	}

	if result.Failed > 0 {
		response.PartialSuccess(c, fmt.Sprintf("%d of %d files failed", result.Failed, result.Uploaded+result.Failed), result)
		return
	}
	response.Created(c, result)
}

// Options returns the quote form choices narrowed by the selected plan
// GET /api/quotes/options?plan=standard
func (h *QuoteHandler) Options(c *gin.Context) {
	plan := c.Query("plan")
	response.Success(c, gin.H{
		"plan":                 plan,
		"service_options":      services.PlanServiceOptions(plan),
		"default_project_type": services.DefaultProjectType(plan),
	})
}

// Plans returns the pricing tiers with their narrowed form choices
// GET /api/plans
func (h *QuoteHandler) Plans(c *gin.Context) {
	plans := []string{"basic", "standard", "premium", "custom"}

	out := make([]gin.H, 0, len(plans))
	for _, plan := range plans {
		out = append(out, gin.H{
			"plan":                 plan,
			"service_options":      services.PlanServiceOptions(plan),
			"default_project_type": services.DefaultProjectType(plan),
		})
	}
	response.Success(c, out)
}

// ListMine returns the caller's uploaded quote files
// GET /api/quotes/mine
func (h *QuoteHandler) ListMine(c *gin.Context) {
	files, err := h.quoteService.ListUserFiles(middleware.GetUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, files)
}

func openUploads(headers []*multipart.FileHeader) ([]services.UploadFile, []multipart.File, error) {
	var files []services.UploadFile
	var closers []multipart.File

	for _, header := range headers {
		f, err := header.Open()
		if err != nil {
			closeAll(closers)
			return nil, nil, fmt.Errorf("open %s: %w", header.Filename, err)
		}
		closers = append(closers, f)
		files = append(files, services.UploadFile{
			Name:        header.Filename,
			Size:        header.Size,
			ContentType: header.Header.Get("Content-Type"),
			Data:        f,
		})
	}
	return files, closers, nil
}

func closeAll(files []multipart.File) {
	for _, f := range files {
		f.Close()
	}
}
